package host

import (
	"strings"

	"braces.dev/errtrace"
	"golang.org/x/net/idna"

	"github.com/ghettovoice/ufetch/bytestring"
	"github.com/ghettovoice/ufetch/percent"
)

// ToASCIIMode selects the domain-to-ASCII step applied to hosts of special URLs.
type ToASCIIMode uint8

const (
	// LowerCase lower-cases the domain and performs no other mapping.
	LowerCase ToASCIIMode = iota
	// IDNA applies UTS #46 processing with Punycode conversion.
	IDNA
)

// Options configure host parsing. A nil *Options means defaults.
type Options struct {
	ToASCII ToASCIIMode
}

func (o *Options) toASCII() ToASCIIMode {
	if o == nil {
		return LowerCase
	}
	return o.ToASCII
}

var idnaProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.BidiRule(),
	idna.CheckJoiners(true),
	idna.CheckHyphens(false),
	idna.StrictDomainName(false),
	idna.VerifyDNSLength(false),
)

var forbiddenHost = [256]bool{
	0x00: true, '\t': true, '\n': true, '\r': true, ' ': true, '#': true, '/': true, ':': true,
	'<': true, '>': true, '?': true, '@': true, '[': true, '\\': true, ']': true, '^': true, '|': true,
}

var forbiddenDomain = func() [256]bool {
	t := forbiddenHost
	t['%'] = true
	return t
}()

// Parse parses the host part of a URL with default options.
// isSpecial tells whether the URL scheme is special (ftp, file, http, https, ws, wss).
func Parse(input string, isSpecial bool) (Host, error) {
	return errtrace.Wrap2(ParseWith(input, isSpecial, nil))
}

// ParseWith parses the host part of a URL.
func ParseWith(input string, isSpecial bool, opts *Options) (Host, error) {
	if strings.HasPrefix(input, "[") {
		if !strings.HasSuffix(input, "]") {
			return Host{}, errtrace.Wrap(newInvalidIPv6Error("unclosed bracket in %q", input))
		}
		pieces, err := parseIPv6(input[1 : len(input)-1])
		if err != nil {
			return Host{}, errtrace.Wrap(err)
		}
		return IPv6(pieces), nil
	}

	if !isSpecial {
		return errtrace.Wrap2(parseOpaque(input))
	}

	domain := bytestring.DecodeWithoutBOM(percent.Decode(input))
	ascii, err := domainToASCII(domain, opts.toASCII())
	if err != nil {
		return Host{}, errtrace.Wrap(err)
	}
	for i := 0; i < len(ascii); i++ {
		if forbiddenDomain[ascii[i]] {
			return Host{}, errtrace.Wrap(newForbiddenCodePointError(ascii, ascii[i]))
		}
	}

	if endsInNumber(ascii) {
		addr, err := parseIPv4(ascii)
		if err != nil {
			return Host{}, errtrace.Wrap(err)
		}
		return IPv4(addr), nil
	}
	return Domain(ascii), nil
}

func domainToASCII(domain string, mode ToASCIIMode) (string, error) {
	switch mode {
	case IDNA:
		ascii, err := idnaProfile.ToASCII(domain)
		if err != nil {
			return "", errtrace.Wrap(newInvalidHostError(err))
		}
		if ascii == "" {
			return "", errtrace.Wrap(newInvalidHostError("empty domain after IDNA processing of %q", domain))
		}
		return ascii, nil
	default:
		return strings.ToLower(domain), nil
	}
}

func parseOpaque(input string) (Host, error) {
	for i := 0; i < len(input); i++ {
		if forbiddenHost[input[i]] {
			return Host{}, errtrace.Wrap(newForbiddenCodePointError(input, input[i]))
		}
	}
	return Opaque(percent.EncodeAfterEncoding(input, &percent.C0Control)), nil
}

// endsInNumber reports whether the last label of a domain is an IPv4 number
// or consists of ASCII digits only.
func endsInNumber(s string) bool {
	parts := strings.Split(s, ".")
	if parts[len(parts)-1] == "" {
		if len(parts) == 1 {
			return false
		}
		parts = parts[:len(parts)-1]
	}
	last := parts[len(parts)-1]
	if last != "" && isASCIIDigits(last) {
		return true
	}
	_, ok := parseIPv4Number(last)
	return ok
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ipv4NumberCap bounds IPv4 number accumulation. Any larger value is invalid anyway.
const ipv4NumberCap = 1 << 40

// parseIPv4Number parses one IPv4 address part. "0x"/"0X" selects hexadecimal,
// a leading zero selects octal, an empty number after the prefix is zero.
func parseIPv4Number(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	radix := uint64(10)
	switch {
	case len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X"):
		s, radix = s[2:], 16
	case len(s) >= 2 && s[0] == '0':
		s, radix = s[1:], 8
	}

	var n uint64
	for i := 0; i < len(s); i++ {
		var d uint64
		switch c := s[i]; {
		case '0' <= c && c <= '9':
			d = uint64(c - '0')
		case 'a' <= c && c <= 'f':
			d = uint64(c-'a') + 10
		case 'A' <= c && c <= 'F':
			d = uint64(c-'A') + 10
		default:
			return 0, false
		}
		if d >= radix {
			return 0, false
		}
		if n < ipv4NumberCap {
			n = n*radix + d
		}
	}
	return n, true
}

func parseIPv4(s string) (uint32, error) {
	parts := strings.Split(s, ".")
	if parts[len(parts)-1] == "" && len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 4 {
		return 0, errtrace.Wrap(newInvalidIPv4Error("too many parts in %q", s))
	}

	var numbers [4]uint64
	for i, p := range parts {
		n, ok := parseIPv4Number(p)
		if !ok {
			return 0, errtrace.Wrap(newInvalidIPv4Error("invalid number %q in %q", p, s))
		}
		numbers[i] = n
	}

	last := len(parts) - 1
	for i := range last {
		if numbers[i] > 255 {
			return 0, errtrace.Wrap(newInvalidIPv4Error("part %d of %q out of range", i+1, s))
		}
	}
	if numbers[last] >= 1<<(8*(4-last)) {
		return 0, errtrace.Wrap(newInvalidIPv4Error("last part of %q out of range", s))
	}

	addr := numbers[last]
	for counter := range last {
		addr += numbers[counter] << (8 * (3 - counter))
	}
	return uint32(addr), nil
}

func hexVal(c byte) (uint16, bool) {
	switch {
	case '0' <= c && c <= '9':
		return uint16(c - '0'), true
	case 'a' <= c && c <= 'f':
		return uint16(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return uint16(c-'A') + 10, true
	}
	return 0, false
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func parseIPv6(s string) ([8]uint16, error) {
	var (
		addr       [8]uint16
		pieceIndex = 0
		compress   = -1
		p          = 0
	)
	at := func(i int) (byte, bool) {
		if i < len(s) {
			return s[i], true
		}
		return 0, false
	}

	if c, _ := at(p); c == ':' {
		if c, _ := at(p + 1); c != ':' {
			return addr, errtrace.Wrap(newInvalidIPv6Error("leading single colon in %q", s))
		}
		p += 2
		pieceIndex++
		compress = pieceIndex
	}

	for p < len(s) {
		if pieceIndex == 8 {
			return addr, errtrace.Wrap(newInvalidIPv6Error("too many pieces in %q", s))
		}
		if s[p] == ':' {
			if compress != -1 {
				return addr, errtrace.Wrap(newInvalidIPv6Error("multiple compressions in %q", s))
			}
			p++
			pieceIndex++
			compress = pieceIndex
			continue
		}

		var value uint16
		length := 0
		for length < 4 && p < len(s) {
			d, ok := hexVal(s[p])
			if !ok {
				break
			}
			value = value<<4 | d
			p++
			length++
		}

		c, ok := at(p)
		switch {
		case ok && c == '.':
			if length == 0 {
				return addr, errtrace.Wrap(newInvalidIPv6Error("empty piece before IPv4 part in %q", s))
			}
			p -= length
			if pieceIndex > 6 {
				return addr, errtrace.Wrap(newInvalidIPv6Error("IPv4 part too late in %q", s))
			}
			numbersSeen := 0
			for p < len(s) {
				if numbersSeen > 0 {
					if s[p] == '.' && numbersSeen < 4 {
						p++
					} else {
						return addr, errtrace.Wrap(newInvalidIPv6Error("invalid IPv4 part in %q", s))
					}
				}
				if p >= len(s) || !isDigit(s[p]) {
					return addr, errtrace.Wrap(newInvalidIPv6Error("invalid IPv4 part in %q", s))
				}
				piece := -1
				for p < len(s) && isDigit(s[p]) {
					n := int(s[p] - '0')
					switch piece {
					case -1:
						piece = n
					case 0:
						return addr, errtrace.Wrap(newInvalidIPv6Error("leading zero in IPv4 part of %q", s))
					default:
						piece = piece*10 + n
					}
					if piece > 255 {
						return addr, errtrace.Wrap(newInvalidIPv6Error("IPv4 part of %q out of range", s))
					}
					p++
				}
				addr[pieceIndex] = addr[pieceIndex]<<8 | uint16(piece)
				numbersSeen++
				if numbersSeen == 2 || numbersSeen == 4 {
					pieceIndex++
				}
			}
			if numbersSeen != 4 {
				return addr, errtrace.Wrap(newInvalidIPv6Error("incomplete IPv4 part in %q", s))
			}
			return finishIPv6(addr, pieceIndex, compress, s)
		case ok && c == ':':
			p++
			if p >= len(s) {
				return addr, errtrace.Wrap(newInvalidIPv6Error("trailing colon in %q", s))
			}
		case ok:
			return addr, errtrace.Wrap(newInvalidIPv6Error("unexpected %q in %q", c, s))
		}
		addr[pieceIndex] = value
		pieceIndex++
	}
	return finishIPv6(addr, pieceIndex, compress, s)
}

func finishIPv6(addr [8]uint16, pieceIndex, compress int, s string) ([8]uint16, error) {
	if compress != -1 {
		swaps := pieceIndex - compress
		pieceIndex = 7
		for pieceIndex != 0 && swaps > 0 {
			addr[pieceIndex], addr[compress+swaps-1] = addr[compress+swaps-1], addr[pieceIndex]
			pieceIndex--
			swaps--
		}
		return addr, nil
	}
	if pieceIndex != 8 {
		return addr, errtrace.Wrap(newInvalidIPv6Error("too few pieces in %q", s))
	}
	return addr, nil
}

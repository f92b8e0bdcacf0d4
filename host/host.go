// Package host implements parsing and serialization of URL hosts.
//
// A [Host] is one of a domain, an IPv4 address, an IPv6 address or an opaque host.
// The zero value is "no host". An empty host, as found in "file:///" URLs or in "sc://"
// URLs of non-special schemes, is a domain or opaque host with an empty name and is
// distinct from the zero value.
package host

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/ufetch/internal/util"
)

// Kind enumerates host forms.
type Kind uint8

const (
	KindNone Kind = iota
	KindDomain
	KindIPv4
	KindIPv6
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDomain:
		return "domain"
	case KindIPv4:
		return "ipv4"
	case KindIPv6:
		return "ipv6"
	case KindOpaque:
		return "opaque"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Host is a parsed URL host.
type Host struct {
	kind Kind
	name string
	ipv4 uint32
	ipv6 [8]uint16
}

// Domain returns a domain host. The name is stored as is.
func Domain(name string) Host { return Host{kind: KindDomain, name: name} }

// Opaque returns an opaque host of a non-special URL. The name is stored as is.
func Opaque(name string) Host { return Host{kind: KindOpaque, name: name} }

// IPv4 returns an IPv4 host.
func IPv4(addr uint32) Host { return Host{kind: KindIPv4, ipv4: addr} }

// IPv6 returns an IPv6 host built from eight 16-bit pieces.
func IPv6(pieces [8]uint16) Host { return Host{kind: KindIPv6, ipv6: pieces} }

// FromIP returns an IPv4 or IPv6 host for ip, or the zero Host if ip is invalid.
func FromIP(ip net.IP) Host {
	if v4 := ip.To4(); v4 != nil {
		return IPv4(uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3]))
	}
	if len(ip) != net.IPv6len {
		return Host{}
	}
	var pieces [8]uint16
	for i := range pieces {
		pieces[i] = uint16(ip[2*i])<<8 | uint16(ip[2*i+1])
	}
	return IPv6(pieces)
}

// Kind returns the host form.
func (h Host) Kind() Kind { return h.kind }

// Domain returns the domain name and true if the host is a domain.
func (h Host) Domain() (string, bool) { return h.name, h.kind == KindDomain }

// Opaque returns the opaque host name and true if the host is opaque.
func (h Host) Opaque() (string, bool) { return h.name, h.kind == KindOpaque }

// IPv4 returns the address and true if the host is an IPv4 address.
func (h Host) IPv4() (uint32, bool) { return h.ipv4, h.kind == KindIPv4 }

// IPv6 returns the address pieces and true if the host is an IPv6 address.
func (h Host) IPv6() ([8]uint16, bool) { return h.ipv6, h.kind == KindIPv6 }

// IP returns the address as [net.IP] for IPv4 and IPv6 hosts, otherwise nil.
func (h Host) IP() net.IP {
	switch h.kind {
	case KindIPv4:
		return net.IPv4(byte(h.ipv4>>24), byte(h.ipv4>>16), byte(h.ipv4>>8), byte(h.ipv4)).To4()
	case KindIPv6:
		ip := make(net.IP, net.IPv6len)
		for i, p := range h.ipv6 {
			ip[2*i] = byte(p >> 8)
			ip[2*i+1] = byte(p)
		}
		return ip
	default:
		return nil
	}
}

// IsZero reports whether h is "no host".
func (h Host) IsZero() bool { return h.kind == KindNone }

// IsEmpty reports whether h is the empty host.
func (h Host) IsEmpty() bool {
	return (h.kind == KindDomain || h.kind == KindOpaque) && h.name == ""
}

// String serializes the host.
// IPv6 addresses are enclosed in brackets with the leftmost longest run of zero pieces compressed.
func (h Host) String() string {
	switch h.kind {
	case KindDomain, KindOpaque:
		return h.name
	case KindIPv4:
		return serializeIPv4(h.ipv4)
	case KindIPv6:
		sb := util.GetStringBuilder()
		defer util.FreeStringBuilder(sb)
		sb.WriteByte('[')
		writeIPv6(sb, &h.ipv6)
		sb.WriteByte(']')
		return sb.String()
	default:
		return ""
	}
}

// Format implements [fmt.Formatter].
func (h Host) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		fmt.Fprint(f, h.String())
		return
	case 'q':
		fmt.Fprint(f, strconv.Quote(h.String()))
		return
	default:
		if !f.Flag('+') && !f.Flag('#') {
			fmt.Fprint(f, h.String())
			return
		}

		type hideMethods Host
		type Host hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), Host(h))
		return
	}
}

// Equal reports whether h equals val, accepting Host and *Host.
func (h Host) Equal(val any) bool {
	var other Host
	switch v := val.(type) {
	case Host:
		other = v
	case *Host:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}

	if h.kind != other.kind {
		return false
	}
	switch h.kind {
	case KindDomain, KindOpaque:
		return h.name == other.name
	case KindIPv4:
		return h.ipv4 == other.ipv4
	case KindIPv6:
		return h.ipv6 == other.ipv6
	default:
		return true
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (h Host) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
// The text is parsed as a host of a special URL, empty text resets h to "no host".
func (h *Host) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = Host{}
		return nil
	}
	v, err := Parse(string(text), true)
	if err != nil {
		return errtrace.Wrap(err)
	}
	*h = v
	return nil
}

func serializeIPv4(addr uint32) string {
	var buf [15]byte
	b := buf[:0]
	for i := 3; i >= 0; i-- {
		b = strconv.AppendUint(b, uint64(addr>>(8*i)&0xFF), 10)
		if i > 0 {
			b = append(b, '.')
		}
	}
	return string(b)
}

// compressIndex returns the start of the leftmost longest run of zero pieces
// of length at least two, or -1.
func compressIndex(pieces *[8]uint16) int {
	best, bestLen := -1, 1
	for i := 0; i < len(pieces); {
		if pieces[i] != 0 {
			i++
			continue
		}
		j := i
		for j < len(pieces) && pieces[j] == 0 {
			j++
		}
		if j-i > bestLen {
			best, bestLen = i, j-i
		}
		i = j
	}
	return best
}

func writeIPv6(sb *strings.Builder, pieces *[8]uint16) {
	compress := compressIndex(pieces)
	ignore0 := false
	var buf [4]byte
	for i, p := range pieces {
		if ignore0 && p == 0 {
			continue
		}
		ignore0 = false
		if compress == i {
			if i == 0 {
				sb.WriteString("::")
			} else {
				sb.WriteByte(':')
			}
			ignore0 = true
			continue
		}
		sb.Write(strconv.AppendUint(buf[:0], uint64(p), 16))
		if i != len(pieces)-1 {
			sb.WriteByte(':')
		}
	}
}

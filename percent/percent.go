// Package percent implements percent-encoding as used by the URL engine.
//
// Every encode set is a 256-bit table keyed by byte, the sets nest the way the WHATWG URL
// standard defines them: [C0Control] ⊂ [Fragment], [C0Control] ⊂ [Query] ⊂ [SpecialQuery],
// [Query] ⊂ [Path] ⊂ [Userinfo] ⊂ [Component].
package percent

import (
	"strings"

	"github.com/ghettovoice/ufetch/bytestring"
)

// EncodeSet is a set of bytes that must be percent-encoded.
type EncodeSet [4]uint64

// Contains reports whether b belongs to the set.
func (s *EncodeSet) Contains(b byte) bool {
	return s[b>>6]&(1<<(b&63)) != 0
}

func (s EncodeSet) with(chars string) EncodeSet {
	for i := 0; i < len(chars); i++ {
		c := chars[i]
		s[c>>6] |= 1 << (c & 63)
	}
	return s
}

func c0ControlSet() EncodeSet {
	var s EncodeSet
	for c := 0; c < 256; c++ {
		if c < 0x20 || c > 0x7E {
			s[c>>6] |= 1 << (c & 63)
		}
	}
	return s
}

// Named encode sets.
var (
	C0Control    = c0ControlSet()
	Fragment     = C0Control.with(" \"<>`")
	Query        = C0Control.with(" \"#<>")
	SpecialQuery = Query.with("'")
	Path         = Query.with("?`{}")
	Userinfo     = Path.with("/:;=@[\\]^|")
	Component    = Userinfo.with("$%&+,")
)

const upperhex = "0123456789ABCDEF"

// AppendByte appends the "%XX" form of b to buf.
func AppendByte(buf []byte, b byte) []byte {
	return append(buf, '%', upperhex[b>>4], upperhex[b&15])
}

// Encode returns the "%XX" form of b with upper-case hex digits.
func Encode(b byte) string {
	var buf [3]byte
	return string(AppendByte(buf[:0], b))
}

// AppendString appends s to buf, escaping every byte of its UTF-8 encoding that is in set.
// Invalid UTF-8 in s is replaced with U+FFFD before escaping.
func AppendString(buf []byte, s string, set *EncodeSet) []byte {
	bs := bytestring.Encode(s)
	for i := 0; i < len(bs); i++ {
		if c := bs[i]; set.Contains(c) {
			buf = AppendByte(buf, c)
		} else {
			buf = append(buf, c)
		}
	}
	return buf
}

// AppendRune appends the escaped UTF-8 encoding of r to buf.
func AppendRune(buf []byte, r rune, set *EncodeSet) []byte {
	if r < 0x80 {
		if c := byte(r); set.Contains(c) {
			return AppendByte(buf, c)
		}
		return append(buf, byte(r))
	}
	var tmp [4]byte
	for _, c := range bytestring.AppendRune(tmp[:0], r) {
		if set.Contains(c) {
			buf = AppendByte(buf, c)
		} else {
			buf = append(buf, c)
		}
	}
	return buf
}

// EncodeRune returns the escaped UTF-8 encoding of r.
func EncodeRune(r rune, set *EncodeSet) string {
	var buf [12]byte
	return string(AppendRune(buf[:0], r, set))
}

// EncodeAfterEncoding UTF-8 encodes s and escapes every resulting byte that is in set.
func EncodeAfterEncoding(s string, set *EncodeSet) string {
	i := 0
	for i < len(s) && s[i] < 0x80 && !set.Contains(s[i]) {
		i++
	}
	if i == len(s) {
		return s
	}
	buf := make([]byte, 0, len(s)+16)
	buf = append(buf, s[:i]...)
	return string(AppendString(buf, s[i:], set))
}

// Decode percent-decodes s. Each "%XX" with two hex digits becomes the byte it encodes,
// everything else is copied verbatim. Decode never fails.
func Decode(s string) bytestring.ByteString {
	if strings.IndexByte(s, '%') < 0 {
		return bytestring.ByteString(s)
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		buf = append(buf, s[i])
	}
	return bytestring.FromBytes(buf)
}

// IsEncoded reports whether s[i:] starts with a "%XX" triplet.
func IsEncoded(s string, i int) bool {
	return i+2 < len(s) && s[i] == '%' && ishex(s[i+1]) && ishex(s[i+2])
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

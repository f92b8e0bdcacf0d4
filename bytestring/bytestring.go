// Package bytestring implements the UTF-8 codec the URL engine is built on.
//
// A [ByteString] is a string whose elements are single bytes in range 0-255. It is the form
// raw header blocks and undecoded bodies take before they are decoded with [Decode], and the
// form URL components take after they are encoded with [Encode] or [EncodeUTF16].
//
// Encoding follows the WHATWG Encoding Standard "UTF-8 encode" algorithm: every ill-formed
// code unit (lone surrogates in UTF-16 input, invalid bytes in Go strings) becomes U+FFFD.
// Decoding follows the WHATWG "UTF-8 decode" algorithm and never fails.
package bytestring

import (
	"unicode/utf8"
)

// ByteString is a byte-per-element string.
type ByteString string

// FromBytes converts raw bytes to a ByteString.
func FromBytes(b []byte) ByteString { return ByteString(b) }

// Bytes returns a copy of the raw bytes.
func (bs ByteString) Bytes() []byte { return []byte(bs) }

// Len returns the number of bytes.
func (bs ByteString) Len() int { return len(bs) }

// String returns the bytes as a Go string without decoding them.
func (bs ByteString) String() string { return string(bs) }

// IsByteString reports whether every code point of s fits in a single byte (U+0000..U+00FF),
// i.e. whether s is a valid ByteString when read as text.
func IsByteString(s string) bool {
	for _, r := range s {
		if r > 0xFF || r == utf8.RuneError {
			return false
		}
	}
	return true
}

// Replacement is the code point emitted for every ill-formed sequence.
const Replacement rune = '�'

const (
	surrHighMin = 0xD800
	surrHighMax = 0xDBFF
	surrLowMin  = 0xDC00
	surrLowMax  = 0xDFFF
	surrSelf    = 0x10000
)

// AppendRune appends the UTF-8 encoding of r to buf.
// Surrogate halves and values out of the Unicode range are encoded as U+FFFD.
func AppendRune(buf []byte, r rune) []byte {
	switch {
	case r < 0:
		r = Replacement
	case r <= 0x7F:
		return append(buf, byte(r))
	case surrHighMin <= r && r <= surrLowMax, r > utf8.MaxRune:
		r = Replacement
	}
	switch {
	case r <= 0x7FF:
		return append(buf,
			0xC0|byte(r>>6),
			0x80|byte(r)&0x3F,
		)
	case r <= 0xFFFF:
		return append(buf,
			0xE0|byte(r>>12),
			0x80|byte(r>>6)&0x3F,
			0x80|byte(r)&0x3F,
		)
	default:
		return append(buf,
			0xF0|byte(r>>18),
			0x80|byte(r>>12)&0x3F,
			0x80|byte(r>>6)&0x3F,
			0x80|byte(r)&0x3F,
		)
	}
}

// EncodeRune returns the UTF-8 encoding of a single code point.
func EncodeRune(r rune) ByteString {
	var buf [utf8.UTFMax]byte
	return ByteString(AppendRune(buf[:0], r))
}

// AppendUTF16 appends the UTF-8 encoding of UTF-16 code units to buf.
//
// A low surrogate without a preceding high surrogate, a high surrogate at the end of input
// and a high surrogate followed by anything but a low surrogate each produce one U+FFFD.
func AppendUTF16(buf []byte, units []uint16) []byte {
	for i := 0; i < len(units); i++ {
		c := rune(units[i])
		switch {
		case c < surrHighMin || c > surrLowMax:
		case c >= surrLowMin:
			c = Replacement
		case i == len(units)-1:
			c = Replacement
		default:
			d := rune(units[i+1])
			if d < surrLowMin || d > surrLowMax {
				c = Replacement
				break
			}
			c = surrSelf + (c&0x3FF)<<10 + d&0x3FF
			i++
		}
		buf = AppendRune(buf, c)
	}
	return buf
}

// EncodeUTF16 encodes UTF-16 text into a UTF-8 ByteString.
func EncodeUTF16(units []uint16) ByteString {
	if len(units) == 0 {
		return ""
	}
	return ByteString(AppendUTF16(make([]byte, 0, len(units)), units))
}

// AppendString appends the UTF-8 encoding of s to buf, replacing every invalid byte with U+FFFD.
func AppendString(buf []byte, s string) []byte {
	for i := 0; i < len(s); {
		if c := s[i]; c < utf8.RuneSelf {
			buf = append(buf, c)
			i++
			continue
		}
		r, n := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && n == 1 {
			buf = AppendRune(buf, Replacement)
		} else {
			buf = append(buf, s[i:i+n]...)
		}
		i += n
	}
	return buf
}

// Encode encodes s into a well-formed UTF-8 ByteString.
// Valid input is returned as is, without copying.
func Encode(s string) ByteString {
	if utf8.ValidString(s) {
		return ByteString(s)
	}
	return ByteString(AppendString(make([]byte, 0, len(s)+8), s))
}

package bytestring

import (
	"unicode/utf8"

	"github.com/ghettovoice/ufetch/internal/constraints"
)

const (
	bomByte0 = 0xEF
	bomByte1 = 0xBB
	bomByte2 = 0xBF
)

// Decode decodes a UTF-8 ByteString with the WHATWG decoder, dropping a leading BOM.
func Decode[T constraints.Byteseq](bs T) string {
	if len(bs) >= 3 && bs[0] == bomByte0 && bs[1] == bomByte1 && bs[2] == bomByte2 {
		bs = bs[3:]
	}
	return DecodeWithoutBOM(bs)
}

// DecodeWithoutBOM decodes a UTF-8 ByteString with the WHATWG decoder, keeping a leading BOM
// as U+FEFF.
func DecodeWithoutBOM[T constraints.Byteseq](bs T) string {
	// fast path, well-formed input decodes to itself
	if isValid(bs) {
		return string(bs)
	}
	return string(appendDecoded(make([]byte, 0, len(bs)+8), bs))
}

func isValid[T constraints.Byteseq](bs T) bool {
	switch v := any(bs).(type) {
	case string:
		return utf8.ValidString(v)
	case []byte:
		return utf8.Valid(v)
	default:
		return utf8.ValidString(string(bs))
	}
}

// decoder holds the state of the WHATWG UTF-8 decoder between bytes.
type decoder struct {
	codePoint   rune
	bytesNeeded int
	lower       byte
	upper       byte
}

func newDecoder() decoder {
	return decoder{lower: 0x80, upper: 0xBF}
}

// step consumes one byte. It reports the decoded code point, if any, and whether
// the byte has to be fed again because it terminated an invalid sequence.
func (d *decoder) step(b byte) (r rune, emit, again bool) {
	if d.bytesNeeded == 0 {
		switch {
		case b <= 0x7F:
			return rune(b), true, false
		case 0xC2 <= b && b <= 0xDF:
			d.bytesNeeded = 1
			d.codePoint = rune(b & 0x1F)
		case 0xE0 <= b && b <= 0xEF:
			switch b {
			case 0xE0:
				d.lower = 0xA0
			case 0xED:
				d.upper = 0x9F
			}
			d.bytesNeeded = 2
			d.codePoint = rune(b & 0x0F)
		case 0xF0 <= b && b <= 0xF4:
			switch b {
			case 0xF0:
				d.lower = 0x90
			case 0xF4:
				d.upper = 0x8F
			}
			d.bytesNeeded = 3
			d.codePoint = rune(b & 0x07)
		default:
			return Replacement, true, false
		}
		return 0, false, false
	}

	if b < d.lower || b > d.upper {
		*d = newDecoder()
		return Replacement, true, true
	}

	d.lower, d.upper = 0x80, 0xBF
	d.codePoint = d.codePoint<<6 | rune(b&0x3F)
	d.bytesNeeded--
	if d.bytesNeeded != 0 {
		return 0, false, false
	}
	r = d.codePoint
	*d = newDecoder()
	return r, true, false
}

// pending reports whether the decoder stopped in the middle of a sequence.
func (d *decoder) pending() bool { return d.bytesNeeded != 0 }

func appendDecoded[T constraints.Byteseq](buf []byte, bs T) []byte {
	d := newDecoder()
	for i := 0; i < len(bs); i++ {
		r, emit, again := d.step(bs[i])
		if emit {
			buf = utf8.AppendRune(buf, r)
		}
		if again {
			i--
		}
	}
	if d.pending() {
		buf = utf8.AppendRune(buf, Replacement)
	}
	return buf
}

// DecodeUTF16 decodes a UTF-8 ByteString into UTF-16 code units, dropping a leading BOM.
// Supplementary code points are split into surrogate pairs.
func DecodeUTF16[T constraints.Byteseq](bs T) []uint16 {
	if len(bs) >= 3 && bs[0] == bomByte0 && bs[1] == bomByte1 && bs[2] == bomByte2 {
		bs = bs[3:]
	}

	units := make([]uint16, 0, len(bs))
	d := newDecoder()
	for i := 0; i < len(bs); i++ {
		r, emit, again := d.step(bs[i])
		if emit {
			units = appendUTF16(units, r)
		}
		if again {
			i--
		}
	}
	if d.pending() {
		units = append(units, uint16(Replacement))
	}
	return units
}

func appendUTF16(units []uint16, r rune) []uint16 {
	if r < surrSelf {
		return append(units, uint16(r))
	}
	r -= surrSelf
	return append(units, uint16(surrHighMin+(r>>10)&0x3FF), uint16(surrLowMin+r&0x3FF))
}

package inputstream

import "github.com/gohubbub/hubbub/entity"

// UTF16Decoder decodes big- or little-endian UTF-16, including surrogate
// pairs. It is the minimal "default codec" this module ships so that the
// declared-UTF-16 conformance scenario in §8 is actually runnable; a
// general iconv-backed codec layer remains the out-of-scope external
// collaborator (§1).
type UTF16Decoder struct {
	BigEndian bool

	pendingHigh   rune
	havePendingHi bool
}

func (d *UTF16Decoder) Reset() {
	d.pendingHigh = 0
	d.havePendingHi = false
}

func (d *UTF16Decoder) Decode(dst []rune, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	i := 0
	for i+1 < len(src) || (i < len(src) && atEOF) {
		if nDst+2 > len(dst) {
			// Output full (a surrogate mismatch can emit two runes at
			// once): suspend; the caller resumes from src[nSrc:].
			return nDst, i, nil
		}
		if i+1 >= len(src) {
			// Single trailing byte at EOF: invalid.
			dst = appendRune(dst, nDst, entity.ReplacementChar)
			nDst++
			i++
			break
		}
		unit := d.unit(src[i], src[i+1])
		i += 2

		switch {
		case d.havePendingHi:
			if unit >= 0xDC00 && unit <= 0xDFFF {
				r := 0x10000 + (d.pendingHigh-0xD800)<<10 + (unit - 0xDC00)
				dst = appendRune(dst, nDst, r)
				nDst++
				d.havePendingHi = false
			} else {
				// Unpaired high surrogate: substitute and reprocess unit
				// as if it were freshly read.
				dst = appendRune(dst, nDst, entity.ReplacementChar)
				nDst++
				d.havePendingHi = false
				if unit >= 0xD800 && unit <= 0xDBFF {
					d.pendingHigh = unit
					d.havePendingHi = true
				} else if unit >= 0xDC00 && unit <= 0xDFFF {
					dst = appendRune(dst, nDst, entity.ReplacementChar)
					nDst++
				} else {
					dst = appendRune(dst, nDst, unit)
					nDst++
				}
			}
		case unit >= 0xD800 && unit <= 0xDBFF:
			d.pendingHigh = unit
			d.havePendingHi = true
		case unit >= 0xDC00 && unit <= 0xDFFF:
			dst = appendRune(dst, nDst, entity.ReplacementChar)
			nDst++
		default:
			dst = appendRune(dst, nDst, unit)
			nDst++
		}
	}
	if d.havePendingHi && atEOF {
		dst = appendRune(dst, nDst, entity.ReplacementChar)
		nDst++
		d.havePendingHi = false
	}
	if i < len(src) && !atEOF {
		return nDst, i, ErrShortSrc
	}
	return nDst, i, nil
}

func (d *UTF16Decoder) unit(b0, b1 byte) rune {
	if d.BigEndian {
		return rune(b0)<<8 | rune(b1)
	}
	return rune(b1)<<8 | rune(b0)
}

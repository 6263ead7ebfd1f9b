package inputstream

import "github.com/gohubbub/hubbub/entity"

// UTF8Decoder validates and passes through UTF-8 bytes, substituting
// U+FFFD for invalid or overlong sequences (§4.2, §8 "Decoding then
// re-encoding UTF-8 is the identity on valid sequences; invalid sequences
// map to U+FFFD"). Unlike unicode/utf8.DecodeRune, which is permissive
// about some malformed inputs for other Go use cases, this mirrors the
// original's hand-rolled src/utils/utf8.c state machine: it rejects
// overlong encodings and lone surrogates explicitly rather than leaning on
// stdlib behavior we can't fully specify against (see DESIGN.md).
type UTF8Decoder struct{}

func (UTF8Decoder) Reset() {}

func (UTF8Decoder) Decode(dst []rune, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	i := 0
	for i < len(src) {
		if nDst >= len(dst) {
			// Output full: suspend; the caller resumes from src[nSrc:].
			return nDst, i, nil
		}
		r, size, ok := decodeUTF8Rune(src[i:])
		if size == 0 {
			// Nothing usable yet: either we're out of bytes (handled
			// below) or the lead byte is flat-out invalid.
			if !ok && i == len(src) {
				break
			}
		}
		if !ok {
			if size < 0 {
				// Need more bytes to know if this is valid.
				if !atEOF {
					return len(dst[:nDst]), i, ErrShortSrc
				}
				dst = appendRune(dst, nDst, entity.ReplacementChar)
				nDst++
				i++
				continue
			}
			dst = appendRune(dst, nDst, entity.ReplacementChar)
			nDst++
			i += size
			continue
		}
		dst = appendRune(dst, nDst, r)
		nDst++
		i += size
	}
	return nDst, i, nil
}

func appendRune(dst []rune, n int, r rune) []rune {
	if n < len(dst) {
		dst[n] = r
		return dst
	}
	return append(dst[:n], r)
}

// decodeUTF8Rune decodes one code point from the front of b.
//
//	ok=true: valid rune of `size` bytes.
//	ok=false, size>0: an invalid/overlong sequence of `size` bytes to skip.
//	ok=false, size<0: b is a valid-so-far prefix that needs more bytes.
func decodeUTF8Rune(b []byte) (r rune, size int, ok bool) {
	if len(b) == 0 {
		return 0, 0, false
	}
	b0 := b[0]
	switch {
	case b0 < 0x80:
		return rune(b0), 1, true
	case b0 < 0xC2:
		// Continuation byte or overlong 2-byte lead (C0, C1).
		return 0, 1, false
	case b0 < 0xE0:
		return decodeMultibyte(b, 2, rune(b0&0x1F), 0x80)
	case b0 < 0xF0:
		return decodeMultibyte(b, 3, rune(b0&0x0F), 0x800)
	case b0 < 0xF5:
		return decodeMultibyte(b, 4, rune(b0&0x07), 0x10000)
	default:
		return 0, 1, false
	}
}

func decodeMultibyte(b []byte, n int, lead rune, min rune) (rune, int, bool) {
	if len(b) < n {
		// Verify the continuation bytes we do have are well formed, else
		// this isn't a "needs more data" case — it's just invalid.
		for i := 1; i < len(b); i++ {
			if b[i]&0xC0 != 0x80 {
				return 0, i, false
			}
		}
		return 0, -1, false
	}
	r := lead
	for i := 1; i < n; i++ {
		if b[i]&0xC0 != 0x80 {
			return 0, i, false
		}
		r = r<<6 | rune(b[i]&0x3F)
	}
	if r < min {
		return 0, n, false // overlong
	}
	if r >= 0xD800 && r <= 0xDFFF {
		return 0, n, false // lone surrogate
	}
	if r > 0x10FFFF {
		return 0, n, false
	}
	return r, n, true
}

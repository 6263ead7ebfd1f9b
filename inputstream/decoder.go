package inputstream

import "errors"

// ErrShortSrc is returned by a Decoder when src ends in the middle of a
// multi-byte sequence and atEOF is false: the caller should buffer the
// unconsumed tail and prepend it to the next chunk (§4.2 "Incomplete input
// sequences... buffered internally (bounded to 32 bytes)").
var ErrShortSrc = errors.New("inputstream: incomplete byte sequence at end of chunk")

// maxCarryover bounds how many trailing undecoded bytes Stream.Append will
// buffer across calls (§4.2).
const maxCarryover = 32

// Decoder converts bytes in some charset to Unicode code points. Real
// charset codecs (iconv-backed multi-byte encodings) are an external
// collaborator per spec §1 — this interface is the seam a caller plugs one
// into. Stream ships only the two decoders needed to exercise its own
// invariants and the UTF-16 conformance scenario in §8: UTF8Decoder (the
// canonical internal encoding, so "decoding" it is really just validation)
// and UTF16Decoder (BE/LE).
type Decoder interface {
	// Decode appends decoded code points to dst and returns how many runes
	// were appended and how many bytes of src were consumed. If src's tail
	// is an incomplete sequence and atEOF is false, Decode returns
	// ErrShortSrc and must not consume those trailing bytes. If atEOF is
	// true, a trailing incomplete or invalid sequence is replaced with
	// U+FFFD and fully consumed.
	Decode(dst []rune, src []byte, atEOF bool) (nDst int, nSrc int, err error)

	// Reset clears any internal state (e.g. a pending UTF-16 high
	// surrogate) — called when the stream is about to be rebuilt after an
	// encoding change.
	Reset()
}

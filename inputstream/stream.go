// Package inputstream implements the growable UTF-8 buffer the tokeniser
// reads from: encoding detection from BOM/<meta>, decode+filter of raw
// bytes into the canonical UTF-8 buffer, a rewindable cursor, and the
// in-place mutation operations the character-reference matcher needs
// (§3 "Input buffer", §4.3).
package inputstream

import (
	"errors"
	"unicode/utf8"

	"github.com/gohubbub/hubbub/charset"
)

var (
	// ErrOutOfData is the internal "need more bytes" signal (§3, §5): it
	// never reaches the embedder. Peek returns it when the cursor has
	// caught up to the end of the buffer but EOF hasn't been seen yet.
	ErrOutOfData = errors.New("inputstream: out of data")
	// ErrEOF is returned by Peek once the cursor is at the end of the
	// buffer and EOF has been signalled (§3 "len == cursor && eof_seen").
	ErrEOF = errors.New("inputstream: end of file")
	// ErrClaimBeforeEOF guards ClaimBuffer's precondition (§4.3).
	ErrClaimBeforeEOF = errors.New("inputstream: claim_buffer before EOF")
	// ErrPushBackMismatch is returned by PushBack when the previous
	// character does not equal the asserted one (§4.3).
	ErrPushBackMismatch = errors.New("inputstream: push_back assertion failed")
)

// Stream is the single owner of the document's decoded UTF-8 buffer. It is
// not safe for concurrent use.
type Stream struct {
	decoder Decoder
	filter  Filter

	buf     []byte
	cursor  int
	eofSeen bool

	// carry holds undecoded trailing bytes from the previous Append,
	// bounded to maxCarryover (§4.2).
	carry []byte

	declared string // caller-dictated label, or "" (§4.1 Dictated)
	result   charset.Result
	fixed    bool // true once an encoding has been settled on

	// bomChecked is set once the first decoded character has been seen; a
	// leading U+FEFF (the BOM the detector sniffed, or a redundant one in a
	// declared-encoding stream) is dropped rather than handed to the
	// tokeniser as text.
	bomChecked bool

	// line/col of the byte at cursor; advanced incrementally as Advance
	// consumes characters, and recomputed from scratch by Rewind (rewinds
	// are rare — inside the tokeniser they only ever step back a handful
	// of characters for reprocessing).
	line, col int

	claimed bool
}

// Option configures a new Stream.
type Option func(*Stream)

// WithDeclaredEncoding sets a caller-dictated charset label that wins over
// BOM/meta detection (§4.1 Dictated source).
func WithDeclaredEncoding(label string) Option {
	return func(s *Stream) { s.declared = label }
}

// WithDecoder installs the Decoder used once an encoding is fixed. If
// omitted, New picks UTF8Decoder or UTF16Decoder itself based on the
// detected/declared MIB, which covers every encoding this module can
// actually transcode (§1 "Out of scope": other codecs are an external
// collaborator — plug one in here).
func WithDecoder(d Decoder) Option {
	return func(s *Stream) { s.decoder = d }
}

// New creates an empty Stream. Charset detection is deferred until the
// first non-EOF Append (§4.3 invariant).
func New(opts ...Option) *Stream {
	s := &Stream{line: 1, col: 1}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Charset returns the fixed encoding, if detection has run.
func (s *Stream) Charset() (charset.Result, bool) {
	return s.result, s.fixed
}

func (s *Stream) pickDefaultDecoder() Decoder {
	switch s.result.MIB {
	case charset.MIBUTF16BE:
		return &UTF16Decoder{BigEndian: true}
	case charset.MIBUTF16LE, charset.MIBUTF16:
		return &UTF16Decoder{BigEndian: false}
	default:
		return UTF8Decoder{}
	}
}

// Append feeds more raw document bytes into the stream. It is the
// "append(bytes)" operation of §4.3; call AppendEOF instead of passing nil
// to signal end of input.
func (s *Stream) Append(p []byte) error {
	if s.claimed {
		return errors.New("inputstream: append after claim_buffer")
	}
	if !s.fixed {
		prefix := append(append([]byte{}, s.carry...), p...)
		s.result = charset.Detect(prefix, s.declared)
		s.fixed = true
		if s.decoder == nil {
			s.decoder = s.pickDefaultDecoder()
		}
	}

	raw := append(s.carry, p...)
	s.carry = nil

	runes, consumed, err := decodeAll(s.decoder, raw, false)
	if err != nil {
		return err
	}

	if len(raw)-consumed > 0 {
		tail := raw[consumed:]
		if len(tail) > maxCarryover {
			tail = tail[len(tail)-maxCarryover:]
		}
		s.carry = append([]byte{}, tail...)
	}

	filtered := s.filter.Process(nil, runes, false)
	s.appendUTF8(filtered)
	return nil
}

// decodeAll drains src through d, growing dst as needed, and reports bytes
// consumed. It stops (without error) on ErrShortSrc, leaving the
// unconsumed tail for the caller to carry over.
func decodeAll(d Decoder, src []byte, atEOF bool) (runes []rune, consumed int, err error) {
	buf := make([]rune, 4096)
	for {
		n, c, e := d.Decode(buf, src[consumed:], atEOF)
		runes = append(runes, buf[:n]...)
		consumed += c
		if e != nil {
			if errors.Is(e, ErrShortSrc) {
				return runes, consumed, nil
			}
			return runes, consumed, e
		}
		if c == 0 || consumed >= len(src) {
			return runes, consumed, nil
		}
	}
}

// AppendEOF signals end of input (§4.3 "append(None)").
func (s *Stream) AppendEOF() error {
	if !s.fixed {
		s.result = charset.Detect(s.carry, s.declared)
		s.fixed = true
		if s.decoder == nil {
			s.decoder = s.pickDefaultDecoder()
		}
	}
	runes, _, err := decodeAllAtEOF(s.decoder, s.carry)
	if err != nil {
		return err
	}
	s.carry = nil
	filtered := s.filter.Process(nil, runes, true)
	s.appendUTF8(filtered)
	s.eofSeen = true
	return nil
}

func decodeAllAtEOF(d Decoder, src []byte) ([]rune, int, error) {
	buf := make([]rune, 4096)
	var runes []rune
	consumed := 0
	for consumed < len(src) {
		n, c, e := d.Decode(buf, src[consumed:], true)
		runes = append(runes, buf[:n]...)
		consumed += c
		if e != nil && !errors.Is(e, ErrShortSrc) {
			return runes, consumed, e
		}
		if c == 0 {
			break
		}
	}
	return runes, consumed, nil
}

// Insert splices already-UTF-8 bytes at the current cursor without running
// them through the decoder (§4.3 "insert"), used for script-inserted
// content (parse_extraneous_chunk).
func (s *Stream) Insert(utf8Bytes []byte) error {
	if !utf8.Valid(utf8Bytes) {
		return errors.New("inputstream: insert requires valid UTF-8")
	}
	s.buf = append(s.buf[:s.cursor], append(append([]byte{}, utf8Bytes...), s.buf[s.cursor:]...)...)
	return nil
}

func (s *Stream) appendUTF8(runes []rune) {
	if !s.bomChecked && len(runes) > 0 {
		s.bomChecked = true
		if runes[0] == 0xFEFF {
			runes = runes[1:]
		}
	}
	for _, r := range runes {
		var b [utf8.UTFMax]byte
		n := utf8.EncodeRune(b[:], r)
		s.buf = append(s.buf, b[:n]...)
	}
}

// Peek returns the code point at the cursor without advancing.
// "peek followed by zero calls is idempotent" (§8).
func (s *Stream) Peek() (rune, int, error) {
	if s.cursor >= len(s.buf) {
		if s.eofSeen {
			return 0, 0, ErrEOF
		}
		return 0, 0, ErrOutOfData
	}
	r, size := utf8.DecodeRune(s.buf[s.cursor:])
	return r, size, nil
}

// Advance moves the cursor past the character at Peek's position, updating
// line/column bookkeeping.
func (s *Stream) Advance() {
	r, size, err := s.Peek()
	if err != nil {
		return
	}
	s.cursor += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
}

// Rewind moves the cursor back n bytes. It never crosses an emitted-token
// boundary (§8) — callers are responsible for only rewinding within the
// current token's accumulated span.
func (s *Stream) Rewind(n int) error {
	if n < 0 || n > s.cursor {
		return errors.New("inputstream: rewind out of range")
	}
	s.cursor -= n
	s.recomputeLineCol()
	return nil
}

func (s *Stream) recomputeLineCol() {
	line, col := 1, 1
	for i := 0; i < s.cursor; {
		r, size := utf8.DecodeRune(s.buf[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i += size
	}
	s.line, s.col = line, col
}

// Position returns the cursor's current byte offset and the byte length of
// the character at that offset (0 at EOF), matching §4.3's
// current_position.
func (s *Stream) Position() (offset, length int) {
	_, size, err := s.Peek()
	if err != nil {
		size = 0
	}
	return s.cursor, size
}

// Lowercase ASCII-folds the character at the cursor in place. Safe because
// ASCII characters are exactly one UTF-8 byte (§4.3).
func (s *Stream) Lowercase() {
	if s.cursor < len(s.buf) {
		c := s.buf[s.cursor]
		if c >= 'A' && c <= 'Z' {
			s.buf[s.cursor] = c + ('a' - 'A')
		}
	}
}

// Uppercase ASCII-folds the character at the cursor in place.
func (s *Stream) Uppercase() {
	if s.cursor < len(s.buf) {
		c := s.buf[s.cursor]
		if c >= 'a' && c <= 'z' {
			s.buf[s.cursor] = c - ('a' - 'A')
		}
	}
}

// PushBack asserts the character immediately before the cursor equals c and
// retreats the cursor by one character (§4.3).
func (s *Stream) PushBack(c rune) error {
	if s.cursor == 0 {
		return ErrPushBackMismatch
	}
	prevLen := 1
	for prevLen <= s.cursor && !utf8.RuneStart(s.buf[s.cursor-prevLen]) {
		prevLen++
	}
	prev, size := utf8.DecodeRune(s.buf[s.cursor-prevLen:])
	if prev != c || size != prevLen {
		return ErrPushBackMismatch
	}
	return s.Rewind(prevLen)
}

// ReplaceRange replaces the byte range [start, start+length) with the
// UTF-8 encoding of r, shifting trailing data (§4.3), used by the entity
// matcher to substitute a resolved character reference in place.
func (s *Stream) ReplaceRange(start, length int, r rune) error {
	if start < 0 || length < 0 || start+length > len(s.buf) {
		return errors.New("inputstream: replace_range out of bounds")
	}
	var b [utf8.UTFMax]byte
	n := utf8.EncodeRune(b[:], r)
	tail := append([]byte{}, s.buf[start+length:]...)
	s.buf = append(s.buf[:start], append(b[:n], tail...)...)
	delta := n - length
	if s.cursor > start {
		if s.cursor >= start+length {
			s.cursor += delta
		} else {
			s.cursor = start + n
		}
	}
	return nil
}

// CompareRangeCI compares two byte ranges of length n case-insensitively
// (ASCII folding only, matching HTML5 tag-name comparisons).
func (s *Stream) CompareRangeCI(a, b, n int) bool {
	if a+n > len(s.buf) || b+n > len(s.buf) {
		return false
	}
	for i := 0; i < n; i++ {
		ca, cb := s.buf[a+i], s.buf[b+i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// CompareRangeCS compares two byte ranges of length n case-sensitively.
func (s *Stream) CompareRangeCS(a, b, n int) bool {
	if a+n > len(s.buf) || b+n > len(s.buf) {
		return false
	}
	for i := 0; i < n; i++ {
		if s.buf[a+i] != s.buf[b+i] {
			return false
		}
	}
	return true
}

// CompareRangeASCII case-insensitively compares the buffer range
// [off, off+len(str)) against the ASCII literal str.
func (s *Stream) CompareRangeASCII(off int, str string) bool {
	if off+len(str) > len(s.buf) {
		return false
	}
	for i := 0; i < len(str); i++ {
		c := s.buf[off+i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		w := str[i]
		if w >= 'A' && w <= 'Z' {
			w += 'a' - 'A'
		}
		if c != w {
			return false
		}
	}
	return true
}

// ClaimBuffer transfers ownership of the decoded buffer to the caller.
// Legal only once EOF has been reached and the cursor is at the end
// (§4.3).
func (s *Stream) ClaimBuffer() ([]byte, error) {
	if !s.eofSeen || s.cursor != len(s.buf) {
		return nil, ErrClaimBeforeEOF
	}
	s.claimed = true
	b := s.buf
	s.buf = nil
	return b, nil
}

// Len reports the current buffer length in bytes (for tests/diagnostics).
func (s *Stream) Len() int { return len(s.buf) }

// Remaining reports how many bytes of the decoded (UTF-8) buffer lie
// ahead of the cursor.
func (s *Stream) Remaining() int { return len(s.buf) - s.cursor }

// LineCol returns the 1-based line and column of the cursor, for
// diagnostics and Span construction.
func (s *Stream) LineCol() (int, int) { return s.line, s.col }

// Cursor returns the current byte offset.
func (s *Stream) Cursor() int { return s.cursor }

// EOFSeen reports whether AppendEOF has been called.
func (s *Stream) EOFSeen() bool { return s.eofSeen }

// AtEnd reports the §3 invariant "len == cursor && eof_seen".
func (s *Stream) AtEnd() bool { return s.eofSeen && s.cursor == len(s.buf) }

// Slice returns a read-only view of buf[off:off+length]. The returned
// slice is only valid until the next mutating call (ReplaceRange, Insert,
// or ClaimBuffer) — callers needing a stable copy must copy it themselves,
// matching the "read-only, tied to the lifetime of the producing buffer"
// string-reference contract in §3.
func (s *Stream) Slice(off, length int) []byte {
	return s.buf[off : off+length]
}

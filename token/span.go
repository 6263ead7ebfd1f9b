// Package token defines the tagged token values the tokeniser emits and the
// treebuilder consumes.
package token

// Span identifies a byte range inside an inputstream.Stream buffer. A
// token's string data (names, values, text) is carried as copied Go
// strings; the Span records where the token came from, and reading the
// buffer through it is only valid for as long as the producing buffer's
// bytes at that range haven't been claimed or discarded.
type Span struct {
	Offset int // byte offset in the stream buffer
	Length int // length in bytes
	Line   int // 1-based line number at Offset
	Column int // 1-based column number (in runes) at Offset
}

// End returns the offset one past the last byte of the span.
func (s Span) End() int {
	return s.Offset + s.Length
}

// IsZero reports whether s is the zero Span (used as a "no position
// information available" sentinel, e.g. for synthesised/implied tokens).
func (s Span) IsZero() bool {
	return s.Offset == 0 && s.Length == 0 && s.Line == 0 && s.Column == 0
}

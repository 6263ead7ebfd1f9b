package hubbub

import (
	"fmt"

	"github.com/gohubbub/hubbub/charset"
)

// Error is the embedder-facing error code set (§6 "Error codes"). The zero
// value is not an error; APIs return nil for Ok.
type Error int

const (
	// ErrNoMem reports an allocation failure; the parser is in an
	// undefined-but-destroyable state afterwards (§7).
	ErrNoMem Error = iota + 1
	// ErrBadParam reports invalid usage (nil handler, claim before EOF, …)
	// with no side effects (§7).
	ErrBadParam
	// ErrInvalid reports an unrecoverable invalid state.
	ErrInvalid
	// ErrFileNotFound reports a missing input file (cmd-level usage only).
	ErrFileNotFound
	// ErrNeedData is the "more bytes required" signal; it is surfaced only
	// by ReadCharset before the first chunk has arrived — the out-of-data
	// condition inside the pipeline never reaches the embedder (§7).
	ErrNeedData
	// ErrReprocess is internal to insertion-mode dispatch and never escapes
	// the treebuilder; it exists so the full §6 code set is representable.
	ErrReprocess
)

func (e Error) Error() string {
	switch e {
	case ErrNoMem:
		return "hubbub: out of memory"
	case ErrBadParam:
		return "hubbub: bad parameter"
	case ErrInvalid:
		return "hubbub: invalid state"
	case ErrFileNotFound:
		return "hubbub: file not found"
	case ErrNeedData:
		return "hubbub: need more data"
	case ErrReprocess:
		return "hubbub: reprocess"
	default:
		return "hubbub: unknown error"
	}
}

// EncodingChangeError is returned by ParseChunk when the document declares
// (or the byte stream reveals) an encoding different from the one the
// parser is decoding with. On receiving it the embedder must destroy the
// parser, recreate it with DeclaredEncoding set to Name, and re-feed the
// entire byte buffer (§6, §7 "Encoding change requested").
type EncodingChangeError struct {
	Name string
	MIB  charset.MIB
}

func (e *EncodingChangeError) Error() string {
	return fmt.Sprintf("hubbub: encoding change to %s required", e.Name)
}

// Is makes errors.Is(err, &EncodingChangeError{}) usable as a class test:
// two EncodingChangeErrors match regardless of the target encoding, so an
// embedder can test for the condition without knowing the charset.
func (e *EncodingChangeError) Is(target error) bool {
	_, ok := target.(*EncodingChangeError)
	return ok
}

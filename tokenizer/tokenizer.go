// Package tokenizer implements the byte-driven HTML5 tokenization state
// machine (§4.4): DOCTYPE, start-tag, end-tag, comment, character and EOF
// tokens, named/numeric character references, and the content-model
// switches a treebuilder (or any other consumer) drives RCDATA/CDATA with.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/gohubbub/hubbub/inputstream"
	"github.com/gohubbub/hubbub/token"
)

// ErrNeedData is returned by Next when the input stream doesn't yet have
// enough bytes to decide the next token; all tokeniser state is left
// unchanged and the caller should feed more bytes (via the Stream) and
// call Next again (§4.4, §5).
var ErrNeedData = inputstream.ErrOutOfData

// ErrorHandler receives recoverable parse errors (§4.4 "Error handling",
// §7). It never aborts the parse.
type ErrorHandler func(line, col int, msg string)

// Tokenizer is the state machine described by §4.4. It is not safe for
// concurrent use.
type Tokenizer struct {
	stream *inputstream.Stream
	onErr  ErrorHandler

	state        State
	contentModel ContentModel
	allowCDATA   bool

	lastStartTag string

	// pending holds tokens already produced but not yet returned by Next,
	// used when a single call to the state loop naturally produces more
	// than one token (e.g. a flushed character run followed by the tag
	// that interrupted it).
	pending []token.Token

	// in-progress buffers for the token currently being assembled.
	tagName        strings.Builder
	tagIsEnd       bool
	tagSelfClosing bool
	tagAttrs       []token.Attribute
	attrName       strings.Builder
	attrValue      strings.Builder
	attrNameSpan   token.Span
	tagSpanStart   int
	tagLine, tagCol int

	comment      strings.Builder
	commentStart int
	commentLine, commentCol int

	doctype      token.DoctypeData
	doctypeStart int
	doctypeLine, doctypeCol int
	doctypeNameBuilder   *strings.Builder
	doctypePublicBuilder *strings.Builder
	doctypeSystemBuilder *strings.Builder

	charRun      strings.Builder
	charRunStart int
	charRunLine, charRunCol int
	charRunOpen  bool

	// escaped is the "<!--...-->" escape flag (§3 "escape-flag"). No state
	// sets or reads it: RCDATA/CDATA end-tag matching does not treat text
	// inside "<!--...-->" differently from the rest of the content.
	escaped bool

	// closeTagBuf is not used by any state; the raw-text end-tag check
	// builds the candidate name in a local buffer.
	closeTagBuf strings.Builder

	done bool
}

// Option configures a new Tokenizer.
type Option func(*Tokenizer)

// WithErrorHandler installs a parse-error callback.
func WithErrorHandler(h ErrorHandler) Option {
	return func(t *Tokenizer) { t.onErr = h }
}

// New creates a Tokenizer reading from s, starting in the Data state with
// the PCDATA content model.
func New(s *inputstream.Stream, opts ...Option) *Tokenizer {
	t := &Tokenizer{stream: s, state: DataState, contentModel: PCDATA}
	for _, o := range opts {
		o(t)
	}
	return t
}

// SetContentModel switches the content-model flag (§3), used by a
// treebuilder entering RCDATA (title, textarea), RAWTEXT-as-CDATA (script,
// style) or PLAINTEXT content.
func (t *Tokenizer) SetContentModel(cm ContentModel) { t.contentModel = cm }

// ContentModel returns the current content-model flag.
func (t *Tokenizer) ContentModel() ContentModel { return t.contentModel }

// SetLastStartTag records the most recently emitted start-tag name, used
// for "appropriate end tag" matching in RCDATA/CDATA content (§4.4).
func (t *Tokenizer) SetLastStartTag(name string) { t.lastStartTag = name }

// AllowCDATASections enables "<![CDATA[" blocks in markup declarations,
// legal only inside foreign content (§4.4 "Markup declaration open").
func (t *Tokenizer) AllowCDATASections(allow bool) { t.allowCDATA = allow }

func (t *Tokenizer) errf(format string, args ...any) {
	if t.onErr == nil {
		return
	}
	line, col := t.stream.LineCol()
	t.onErr(line, col, fmt.Sprintf(format, args...))
}

// emit queues tok for return from Next. Multiple tokens may be queued by a
// single call to the state loop (e.g. a flushed character run followed by
// the tag that interrupted it).
func (t *Tokenizer) emit(tok token.Token) {
	t.pending = append(t.pending, tok)
}

// Next reads and returns the next token, or ErrNeedData if the stream
// doesn't yet have enough bytes. All internal state is preserved across an
// ErrNeedData so the caller can retry after feeding more bytes.
func (t *Tokenizer) Next() (token.Token, error) {
	for len(t.pending) == 0 && !t.done {
		if err := t.step(); err != nil {
			return token.Token{}, err
		}
	}
	if len(t.pending) > 0 {
		tok := t.pending[0]
		t.pending = t.pending[1:]
		return tok, nil
	}
	return token.Token{Type: token.EOF}, nil
}

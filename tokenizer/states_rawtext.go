package tokenizer

import (
	"errors"
	"strings"

	"github.com/gohubbub/hubbub/inputstream"
	"github.com/gohubbub/hubbub/token"
)

// stepCdataBlock consumes the body of a "<![CDATA[" section (legal only in
// foreign content, §4.4 "CDATA section state"), emitting it as a single
// Character token once the terminating "]]>" is found.
func (t *Tokenizer) stepCdataBlock() error {
	for {
		r, _, err := t.stream.Peek()
		if err != nil {
			if errors.Is(err, inputstream.ErrOutOfData) {
				return ErrNeedData
			}
			t.flushCharRun()
			t.emit(token.Token{Type: token.EOF})
			t.done = true
			return nil
		}
		off := t.stream.Cursor()
		if r == ']' && t.stream.CompareRangeASCII(off, "]]>") {
			for i := 0; i < 3; i++ {
				t.stream.Advance()
			}
			t.flushCharRun()
			t.state = DataState
			return nil
		}
		t.appendChar(r)
		t.stream.Advance()
	}
}

// stepNonPCDATA drives RCDATA, CDATA (raw text, e.g. <script>/<style>) and
// PLAINTEXT content (§3, §4.4 "Tokenizing non-PCDATA content"). Unlike the
// full PCDATA switch this runs as a tight loop over DataState: every other
// content-model state (TagName, AttributeValue, ...) is unreachable once a
// treebuilder has switched content model, because the only tag the
// tokeniser recognises in this mode is the appropriate closing tag.
func (t *Tokenizer) stepNonPCDATA() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.flushCharRun()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}

	if t.contentModel == PLAINTEXT {
		t.appendChar(r)
		t.stream.Advance()
		return nil
	}

	switch r {
	case '&':
		if t.contentModel == RCDATA {
			out, ok, needData := t.consumeCharacterReference(false)
			if needData {
				return ErrNeedData
			}
			if ok {
				t.appendChars(out)
				return nil
			}
		}
		t.appendChar('&')
		t.stream.Advance()
		return nil
	case '<':
		return t.stepRawtextLessThan()
	case 0:
		t.errf("unexpected NUL character")
		t.appendChar(0xFFFD)
		t.stream.Advance()
		return nil
	default:
		t.appendChar(r)
		t.stream.Advance()
		return nil
	}
}

// stepRawtextLessThan looks ahead past "<" for "/" plus the appropriate end
// tag name (§4.4 "End-tag matching in RCDATA/CDATA content"). A mismatch is
// re-emitted as literal character data rather than reprocessed token by
// token, since no other tag is meaningful inside raw text.
func (t *Tokenizer) stepRawtextLessThan() error {
	start := t.stream.Cursor()
	t.stream.Advance() // consume '<'

	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			t.stream.Rewind(t.stream.Cursor() - start)
			return ErrNeedData
		}
		t.appendChar('<')
		t.flushCharRun()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	if r != '/' {
		t.appendChar('<')
		return nil
	}
	afterSlash := t.stream.Cursor()
	t.stream.Advance() // consume '/'

	var name strings.Builder
	for {
		r, _, err := t.stream.Peek()
		if err != nil {
			if errors.Is(err, inputstream.ErrOutOfData) {
				t.stream.Rewind(t.stream.Cursor() - start)
				return ErrNeedData
			}
			break
		}
		if !isASCIIAlpha(r) && !(name.Len() > 0 && isDigit(r)) {
			break
		}
		name.WriteRune(lower(r))
		t.stream.Advance()
	}

	if name.Len() == 0 || !t.appropriateEndTag(name.String()) {
		// Not a closing tag for the element we're inside: the "<" and "/"
		// (and anything scanned past it) are ordinary character data.
		t.stream.Rewind(t.stream.Cursor() - start)
		t.appendChar('<')
		t.stream.Advance()
		t.appendChar('/')
		t.stream.Advance()
		return nil
	}

	r, _, err = t.stream.Peek()
	validEnd := err == nil && (isWhitespace(r) || r == '/' || r == '>')
	if !validEnd {
		t.stream.Rewind(t.stream.Cursor() - start)
		t.appendChar('<')
		t.stream.Advance()
		t.appendChar('/')
		t.stream.Advance()
		return nil
	}

	t.flushCharRun()
	_ = afterSlash
	t.resetTag(true)
	t.tagSpanStart = start
	t.tagName.WriteString(name.String())
	t.state = BeforeAttributeNameState
	t.contentModel = PCDATA
	return nil
}

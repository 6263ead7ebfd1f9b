package tokenizer

import (
	"errors"

	"github.com/gohubbub/hubbub/inputstream"
	"github.com/gohubbub/hubbub/token"
)

// step advances the state machine by (at most) one character, possibly
// queuing one or more tokens via t.emit. It returns ErrNeedData, unchanged,
// when the stream can't yet decide the next transition (§4.4 states
// "(d) returns OOD ... leaving all state unchanged").
func (t *Tokenizer) step() error {
	if t.contentModel != PCDATA {
		return t.stepNonPCDATA()
	}

	switch {
	case t.state == DataState:
		return t.stepData()
	case t.state == TagOpenState:
		return t.stepTagOpen()
	case t.state == CloseTagOpenState:
		return t.stepCloseTagOpen()
	case t.state == TagNameState:
		return t.stepTagName()
	case t.state == BeforeAttributeNameState:
		return t.stepBeforeAttributeName()
	case t.state == AttributeNameState:
		return t.stepAttributeName()
	case t.state == AfterAttributeNameState:
		return t.stepAfterAttributeName()
	case t.state == BeforeAttributeValueState:
		return t.stepBeforeAttributeValue()
	case t.state == AttributeValueDQState:
		return t.stepAttributeValueQuoted('"')
	case t.state == AttributeValueSQState:
		return t.stepAttributeValueQuoted('\'')
	case t.state == AttributeValueUQState:
		return t.stepAttributeValueUnquoted()
	case t.state == AfterAttributeValueQState:
		return t.stepAfterAttributeValueQuoted()
	case t.state == SelfClosingStartTagState:
		return t.stepSelfClosingStartTag()
	case t.state == BogusCommentState:
		return t.stepBogusComment()
	case t.state == MarkupDeclarationOpenState:
		return t.stepMarkupDeclarationOpen()
	case isCommentState(t.state):
		return t.stepComment()
	case isDoctypeState(t.state):
		return t.stepDoctype()
	case t.state == CdataBlockState:
		return t.stepCdataBlock()
	default:
		t.state = DataState
		return nil
	}
}

func isCommentState(s State) bool {
	switch s {
	case MatchCommentState, CommentStartState, CommentStartDashState, CommentState, CommentEndDashState, CommentEndState, CommentEndBangState:
		return true
	}
	return false
}

func isDoctypeState(s State) bool {
	switch s {
	case MatchDoctypeState, DoctypeState, BeforeDoctypeNameState, DoctypeNameState, AfterDoctypeNameState,
		MatchPublicState, BeforeDoctypePublicState, DoctypePublicDQState, DoctypePublicSQState, AfterDoctypePublicState,
		BetweenDoctypePublicAndSystemState,
		MatchSystemState, BeforeDoctypeSystemState, DoctypeSystemDQState, DoctypeSystemSQState, AfterDoctypeSystemState,
		BogusDoctypeState:
		return true
	}
	return false
}

// --- Data state -------------------------------------------------------

func (t *Tokenizer) stepData() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		// EOF: flush whatever is pending and emit the terminal token.
		t.flushCharRun()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}

	switch r {
	case '&':
		out, ok, needData := t.consumeCharacterReference(false)
		if needData {
			return ErrNeedData
		}
		if ok {
			t.appendChars(out)
			return nil
		}
		t.appendChar('&')
		t.stream.Advance()
		return nil
	case '<':
		t.stream.Advance()
		t.state = TagOpenState
		return nil
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

// --- Tag open family ---------------------------------------------------

func (t *Tokenizer) stepTagOpen() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		// EOF right after '<': emit '<' as a character, per WHATWG.
		t.appendChar('<')
		t.flushCharRun()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case r == '!':
		t.stream.Advance()
		t.state = MarkupDeclarationOpenState
	case r == '/':
		t.stream.Advance()
		t.state = CloseTagOpenState
	case isASCIIAlpha(r):
		t.resetTag(false)
		t.state = TagNameState
	case r == '?':
		t.errf("unexpected '?' in tag open (bogus comment)")
		t.startComment()
		t.state = BogusCommentState
	default:
		t.appendChar('<')
		t.state = DataState
	}
	return nil
}

func (t *Tokenizer) stepCloseTagOpen() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.appendChars([]rune{'<', '/'})
		t.flushCharRun()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case isASCIIAlpha(r):
		t.resetTag(true)
		t.tagSpanStart-- // account for the extra '/'
		t.state = TagNameState
	case r == '>':
		t.errf("empty end tag")
		t.stream.Advance()
		t.state = DataState
	default:
		t.errf("bogus end tag")
		t.startComment()
		t.state = BogusCommentState
	}
	return nil
}

func (t *Tokenizer) stepTagName() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.finishTag()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case isWhitespace(r):
		t.stream.Advance()
		t.state = BeforeAttributeNameState
	case r == '/':
		t.stream.Advance()
		t.state = SelfClosingStartTagState
	case r == '>':
		t.stream.Advance()
		t.finishTag()
		t.state = t.postTagState()
	case r == 0:
		t.errf("unexpected NUL in tag name")
		t.tagName.WriteRune(0xFFFD)
		t.stream.Advance()
	default:
		t.tagName.WriteRune(lower(r))
		t.stream.Advance()
	}
	return nil
}

// postTagState returns the state the tokeniser enters after emitting a
// tag, which is always DataState. The tokeniser never changes its content
// model by itself: switching to RCDATA/CDATA/PLAINTEXT happens only through
// SetContentModel, which the treebuilder drives via its ContentModelHook.
// A bare tokeniser (no treebuilder attached, §6 "TokenHandler") whose
// caller does not call SetContentModel lexes the content of <script>,
// <style>, <title>, <textarea> and similar elements as ordinary markup.
func (t *Tokenizer) postTagState() State {
	return DataState
}

func (t *Tokenizer) stepBeforeAttributeName() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.finishTag()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case isWhitespace(r):
		t.stream.Advance()
	case r == '/':
		t.stream.Advance()
		t.state = SelfClosingStartTagState
	case r == '>':
		t.stream.Advance()
		t.finishTag()
		t.state = t.postTagState()
	default:
		t.startNewAttr()
		t.state = AttributeNameState
	}
	return nil
}

func (t *Tokenizer) stepAttributeName() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.commitAttr()
		t.finishTag()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case isWhitespace(r):
		t.stream.Advance()
		t.commitAttr()
		t.state = AfterAttributeNameState
	case r == '/':
		t.stream.Advance()
		t.commitAttr()
		t.state = SelfClosingStartTagState
	case r == '=':
		t.stream.Advance()
		t.state = BeforeAttributeValueState
	case r == '>':
		t.stream.Advance()
		t.commitAttr()
		t.finishTag()
		t.state = t.postTagState()
	case r == 0:
		t.attrName.WriteRune(0xFFFD)
		t.stream.Advance()
	default:
		t.attrName.WriteRune(lower(r))
		t.stream.Advance()
	}
	return nil
}

func (t *Tokenizer) stepAfterAttributeName() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.finishTag()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case isWhitespace(r):
		t.stream.Advance()
	case r == '/':
		t.stream.Advance()
		t.state = SelfClosingStartTagState
	case r == '=':
		t.stream.Advance()
		t.state = BeforeAttributeValueState
	case r == '>':
		t.stream.Advance()
		t.finishTag()
		t.state = t.postTagState()
	default:
		t.startNewAttr()
		t.state = AttributeNameState
	}
	return nil
}

func (t *Tokenizer) stepBeforeAttributeValue() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.commitAttr()
		t.finishTag()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case isWhitespace(r):
		t.stream.Advance()
	case r == '"':
		t.stream.Advance()
		t.state = AttributeValueDQState
	case r == '\'':
		t.stream.Advance()
		t.state = AttributeValueSQState
	case r == '>':
		t.errf("attribute value missing")
		t.stream.Advance()
		t.commitAttr()
		t.finishTag()
		t.state = t.postTagState()
	default:
		t.state = AttributeValueUQState
	}
	return nil
}

func (t *Tokenizer) stepAttributeValueQuoted(quote rune) error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.commitAttr()
		t.finishTag()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case r == quote:
		t.stream.Advance()
		t.commitAttr()
		t.state = AfterAttributeValueQState
	case r == '&':
		out, ok, needData := t.consumeCharacterReference(true)
		if needData {
			return ErrNeedData
		}
		if ok {
			t.attrValue.WriteString(string(out))
		} else {
			t.attrValue.WriteRune('&')
			t.stream.Advance()
		}
	case r == 0:
		t.attrValue.WriteRune(0xFFFD)
		t.stream.Advance()
	default:
		t.attrValue.WriteRune(r)
		t.stream.Advance()
	}
	return nil
}

func (t *Tokenizer) stepAttributeValueUnquoted() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.commitAttr()
		t.finishTag()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case isWhitespace(r):
		t.stream.Advance()
		t.commitAttr()
		t.state = BeforeAttributeNameState
	case r == '>':
		t.stream.Advance()
		t.commitAttr()
		t.finishTag()
		t.state = t.postTagState()
	case r == '&':
		out, ok, needData := t.consumeCharacterReference(true)
		if needData {
			return ErrNeedData
		}
		if ok {
			t.attrValue.WriteString(string(out))
		} else {
			t.attrValue.WriteRune('&')
			t.stream.Advance()
		}
	case r == 0:
		t.attrValue.WriteRune(0xFFFD)
		t.stream.Advance()
	default:
		t.attrValue.WriteRune(r)
		t.stream.Advance()
	}
	return nil
}

func (t *Tokenizer) stepAfterAttributeValueQuoted() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.finishTag()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	switch {
	case isWhitespace(r):
		t.stream.Advance()
		t.state = BeforeAttributeNameState
	case r == '/':
		t.stream.Advance()
		t.state = SelfClosingStartTagState
	case r == '>':
		t.stream.Advance()
		t.finishTag()
		t.state = t.postTagState()
	default:
		t.errf("missing whitespace between attributes")
		t.state = BeforeAttributeNameState
	}
	return nil
}

func (t *Tokenizer) stepSelfClosingStartTag() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.finishTag()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}
	if r == '>' {
		t.stream.Advance()
		t.tagSelfClosing = true
		t.finishTag()
		t.state = t.postTagState()
		return nil
	}
	t.errf("unexpected character after self-closing slash")
	t.state = BeforeAttributeNameState
	return nil
}

func isASCIIAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

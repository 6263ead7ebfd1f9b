package tokenizer

import (
	"errors"
	"strings"

	"github.com/gohubbub/hubbub/inputstream"
	"github.com/gohubbub/hubbub/token"
)

// --- Bogus comment & markup declaration open ---------------------------

func (t *Tokenizer) stepBogusComment() error {
	for {
		r, _, err := t.stream.Peek()
		if err != nil {
			if errors.Is(err, inputstream.ErrOutOfData) {
				return ErrNeedData
			}
			t.finishComment()
			t.emit(token.Token{Type: token.EOF})
			t.done = true
			return nil
		}
		if r == '>' {
			t.stream.Advance()
			t.finishComment()
			t.state = DataState
			return nil
		}
		if r == 0 {
			t.comment.WriteRune(0xFFFD)
		} else {
			t.comment.WriteRune(r)
		}
		t.stream.Advance()
	}
}

// stepMarkupDeclarationOpen dispatches "<!" to comment, DOCTYPE, or CDATA
// parsing, rewinding to bogus-comment on a failed lookahead match (§4.4
// "Markup declaration open state").
func (t *Tokenizer) stepMarkupDeclarationOpen() error {
	if t.stream.Remaining() < 7 && !t.stream.EOFSeen() {
		return ErrNeedData
	}
	off := t.stream.Cursor()

	if t.stream.CompareRangeASCII(off, "--") {
		for i := 0; i < 2; i++ {
			t.stream.Advance()
		}
		t.startComment()
		t.state = CommentStartState
		return nil
	}
	if t.stream.CompareRangeASCII(off, "doctype") {
		for i := 0; i < 7; i++ {
			t.stream.Advance()
		}
		t.startDoctype()
		t.state = BeforeDoctypeNameState
		return nil
	}
	if t.allowCDATA && t.stream.CompareRangeASCII(off, "[cdata[") {
		for i := 0; i < 7; i++ {
			t.stream.Advance()
		}
		t.state = CdataBlockState
		return nil
	}
	t.errf("bogus comment (unrecognised markup declaration)")
	t.startComment()
	t.state = BogusCommentState
	return nil
}

// --- Comment states ------------------------------------------------------

func (t *Tokenizer) stepComment() error {
	r, _, err := t.stream.Peek()
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		t.errf("unexpected end of file in comment")
		t.finishComment()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}

	switch t.state {
	case CommentStartState:
		switch r {
		case '-':
			t.stream.Advance()
			t.state = CommentStartDashState
		case '>':
			t.errf("abrupt comment close")
			t.stream.Advance()
			t.finishComment()
			t.state = DataState
		default:
			t.state = CommentState
		}
	case CommentStartDashState:
		switch r {
		case '-':
			t.stream.Advance()
			t.state = CommentEndState
		case '>':
			t.errf("abrupt comment close")
			t.stream.Advance()
			t.finishComment()
			t.state = DataState
		default:
			t.comment.WriteByte('-')
			t.state = CommentState
		}
	case CommentState:
		switch r {
		case '-':
			t.stream.Advance()
			t.state = CommentEndDashState
		case 0:
			t.comment.WriteRune(0xFFFD)
			t.stream.Advance()
		default:
			t.comment.WriteRune(r)
			t.stream.Advance()
		}
	case CommentEndDashState:
		switch r {
		case '-':
			t.stream.Advance()
			t.state = CommentEndState
		default:
			t.comment.WriteByte('-')
			t.state = CommentState
		}
	case CommentEndState:
		switch r {
		case '>':
			t.stream.Advance()
			t.finishComment()
			t.state = DataState
		case '!':
			t.stream.Advance()
			t.state = CommentEndBangState
		case '-':
			t.comment.WriteByte('-')
			t.stream.Advance()
		default:
			t.comment.WriteString("--")
			t.state = CommentState
		}
	case CommentEndBangState:
		switch r {
		case '-':
			t.comment.WriteString("--!")
			t.stream.Advance()
			t.state = CommentEndDashState
		case '>':
			t.errf("incorrectly closed comment")
			t.stream.Advance()
			t.finishComment()
			t.state = DataState
		default:
			t.comment.WriteString("--!")
			t.state = CommentState
		}
	}
	return nil
}

// --- Doctype states -------------------------------------------------------

func (t *Tokenizer) stepDoctype() error {
	r, _, err := t.stream.Peek()
	atEOF := false
	if err != nil {
		if errors.Is(err, inputstream.ErrOutOfData) {
			return ErrNeedData
		}
		atEOF = true
	}

	if atEOF {
		t.doctype.ForceQuirks = true
		t.finishDoctype()
		t.emit(token.Token{Type: token.EOF})
		t.done = true
		return nil
	}

	switch t.state {
	case DoctypeState:
		if isWhitespace(r) {
			t.stream.Advance()
			t.state = BeforeDoctypeNameState
		} else {
			t.state = BeforeDoctypeNameState
		}
	case BeforeDoctypeNameState:
		switch {
		case isWhitespace(r):
			t.stream.Advance()
		case r == '>':
			t.errf("missing DOCTYPE name")
			t.doctype.ForceQuirks = true
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		case r == 0:
			t.doctypeNameBuf().WriteRune(0xFFFD)
			t.stream.Advance()
			t.state = DoctypeNameState
		default:
			t.doctypeNameBuf().WriteRune(lower(r))
			t.stream.Advance()
			t.state = DoctypeNameState
		}
	case DoctypeNameState:
		switch {
		case isWhitespace(r):
			t.stream.Advance()
			t.doctype.Name = t.doctypeNameBuf().String()
			t.state = AfterDoctypeNameState
		case r == '>':
			t.doctype.Name = t.doctypeNameBuf().String()
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		case r == 0:
			t.doctypeNameBuf().WriteRune(0xFFFD)
			t.stream.Advance()
		default:
			t.doctypeNameBuf().WriteRune(lower(r))
			t.stream.Advance()
		}
	case AfterDoctypeNameState:
		switch {
		case isWhitespace(r):
			t.stream.Advance()
		case r == '>':
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		default:
			if t.stream.Remaining() < 6 && !t.stream.EOFSeen() {
				return ErrNeedData
			}
			off := t.stream.Cursor()
			if t.stream.CompareRangeASCII(off, "public") {
				for i := 0; i < 6; i++ {
					t.stream.Advance()
				}
				t.state = BeforeDoctypePublicState
			} else if t.stream.CompareRangeASCII(off, "system") {
				for i := 0; i < 6; i++ {
					t.stream.Advance()
				}
				t.state = BeforeDoctypeSystemState
			} else {
				t.errf("unexpected character after DOCTYPE name")
				t.doctype.ForceQuirks = true
				t.state = BogusDoctypeState
			}
		}
	case BeforeDoctypePublicState:
		switch {
		case isWhitespace(r):
			t.stream.Advance()
		case r == '"':
			t.stream.Advance()
			t.doctype.HasPublic = true
			t.doctypePublicBuf().Reset()
			t.state = DoctypePublicDQState
		case r == '\'':
			t.stream.Advance()
			t.doctype.HasPublic = true
			t.doctypePublicBuf().Reset()
			t.state = DoctypePublicSQState
		case r == '>':
			t.errf("missing DOCTYPE public identifier")
			t.doctype.ForceQuirks = true
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		default:
			t.errf("missing quote before DOCTYPE public identifier")
			t.doctype.ForceQuirks = true
			t.state = BogusDoctypeState
		}
	case DoctypePublicDQState, DoctypePublicSQState:
		quote := byte('"')
		if t.state == DoctypePublicSQState {
			quote = '\''
		}
		switch {
		case r == rune(quote):
			t.stream.Advance()
			t.doctype.PublicID = t.doctypePublicBuf().String()
			t.state = AfterDoctypePublicState
		case r == '>':
			t.errf("abrupt DOCTYPE public identifier")
			t.doctype.ForceQuirks = true
			t.doctype.PublicID = t.doctypePublicBuf().String()
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		case r == 0:
			t.doctypePublicBuf().WriteRune(0xFFFD)
			t.stream.Advance()
		default:
			t.doctypePublicBuf().WriteRune(r)
			t.stream.Advance()
		}
	case AfterDoctypePublicState:
		switch {
		case isWhitespace(r):
			t.stream.Advance()
			t.state = BetweenDoctypePublicAndSystemState
		case r == '>':
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		case r == '"':
			t.errf("missing whitespace between DOCTYPE public and system identifiers")
			t.stream.Advance()
			t.doctype.HasSystem = true
			t.doctypeSystemBuf().Reset()
			t.state = DoctypeSystemDQState
		case r == '\'':
			t.errf("missing whitespace between DOCTYPE public and system identifiers")
			t.stream.Advance()
			t.doctype.HasSystem = true
			t.doctypeSystemBuf().Reset()
			t.state = DoctypeSystemSQState
		default:
			t.errf("unexpected character after DOCTYPE public identifier")
			t.doctype.ForceQuirks = true
			t.state = BogusDoctypeState
		}
	case BetweenDoctypePublicAndSystemState:
		switch {
		case isWhitespace(r):
			t.stream.Advance()
		case r == '>':
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		case r == '"':
			t.stream.Advance()
			t.doctype.HasSystem = true
			t.doctypeSystemBuf().Reset()
			t.state = DoctypeSystemDQState
		case r == '\'':
			t.stream.Advance()
			t.doctype.HasSystem = true
			t.doctypeSystemBuf().Reset()
			t.state = DoctypeSystemSQState
		default:
			t.errf("missing quote before DOCTYPE system identifier")
			t.doctype.ForceQuirks = true
			t.state = BogusDoctypeState
		}
	case BeforeDoctypeSystemState:
		switch {
		case isWhitespace(r):
			t.stream.Advance()
		case r == '"':
			t.stream.Advance()
			t.doctype.HasSystem = true
			t.doctypeSystemBuf().Reset()
			t.state = DoctypeSystemDQState
		case r == '\'':
			t.stream.Advance()
			t.doctype.HasSystem = true
			t.doctypeSystemBuf().Reset()
			t.state = DoctypeSystemSQState
		case r == '>':
			t.errf("missing DOCTYPE system identifier")
			t.doctype.ForceQuirks = true
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		default:
			t.errf("missing quote before DOCTYPE system identifier")
			t.doctype.ForceQuirks = true
			t.state = BogusDoctypeState
		}
	case DoctypeSystemDQState, DoctypeSystemSQState:
		quote := byte('"')
		if t.state == DoctypeSystemSQState {
			quote = '\''
		}
		switch {
		case r == rune(quote):
			t.stream.Advance()
			t.doctype.SystemID = t.doctypeSystemBuf().String()
			t.state = AfterDoctypeSystemState
		case r == '>':
			t.errf("abrupt DOCTYPE system identifier")
			t.doctype.ForceQuirks = true
			t.doctype.SystemID = t.doctypeSystemBuf().String()
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		case r == 0:
			t.doctypeSystemBuf().WriteRune(0xFFFD)
			t.stream.Advance()
		default:
			t.doctypeSystemBuf().WriteRune(r)
			t.stream.Advance()
		}
	case AfterDoctypeSystemState:
		switch {
		case isWhitespace(r):
			t.stream.Advance()
		case r == '>':
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		default:
			t.errf("unexpected character after DOCTYPE system identifier")
			t.state = BogusDoctypeState
		}
	case BogusDoctypeState:
		switch r {
		case '>':
			t.stream.Advance()
			t.finishDoctype()
			t.state = DataState
		default:
			t.stream.Advance()
		}
	}
	return nil
}

func (t *Tokenizer) doctypeNameBuf() *strings.Builder {
	if t.doctypeNameBuilder == nil {
		t.doctypeNameBuilder = &strings.Builder{}
	}
	return t.doctypeNameBuilder
}

func (t *Tokenizer) doctypePublicBuf() *strings.Builder {
	if t.doctypePublicBuilder == nil {
		t.doctypePublicBuilder = &strings.Builder{}
	}
	return t.doctypePublicBuilder
}

func (t *Tokenizer) doctypeSystemBuf() *strings.Builder {
	if t.doctypeSystemBuilder == nil {
		t.doctypeSystemBuilder = &strings.Builder{}
	}
	return t.doctypeSystemBuilder
}

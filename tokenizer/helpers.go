package tokenizer

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

func (t *Tokenizer) startCharRun() {
	if !t.charRunOpen {
		t.charRunStart = t.stream.Cursor()
		t.charRunLine, t.charRunCol = t.stream.LineCol()
		t.charRunOpen = true
	}
}

func (t *Tokenizer) appendChar(r rune) {
	t.startCharRun()
	t.charRun.WriteRune(r)
}

func (t *Tokenizer) appendChars(rs []rune) {
	t.startCharRun()
	for _, r := range rs {
		t.charRun.WriteRune(r)
	}
}

// flushCharRun emits any in-progress character run as a Character token.
// Any non-character token about to be emitted must call this first
// (§4.4 "Token accumulation").
func (t *Tokenizer) flushCharRun() {
	if !t.charRunOpen || t.charRun.Len() == 0 {
		t.charRunOpen = false
		t.charRun.Reset()
		return
	}
	sp := token.Span{
		Offset: t.charRunStart,
		Length: t.stream.Cursor() - t.charRunStart,
		Line:   t.charRunLine,
		Column: t.charRunCol,
	}
	t.emit(token.Token{Type: token.Character, Span: sp, Text: t.charRun.String()})
	t.charRunOpen = false
	t.charRun.Reset()
}

func (t *Tokenizer) resetTag(isEnd bool) {
	t.tagName.Reset()
	t.tagIsEnd = isEnd
	t.tagSelfClosing = false
	t.tagAttrs = nil
	t.tagSpanStart = t.stream.Cursor() - 1 // the '<' was already consumed
	t.tagLine, t.tagCol = t.stream.LineCol()
}

func (t *Tokenizer) startNewAttr() {
	t.attrName.Reset()
	t.attrValue.Reset()
	off, _ := t.stream.Position()
	line, col := t.stream.LineCol()
	t.attrNameSpan = token.Span{Offset: off, Line: line, Column: col}
}

func (t *Tokenizer) commitAttr() {
	if t.attrName.Len() == 0 {
		return
	}
	t.attrNameSpan.Length = t.stream.Cursor() - t.attrNameSpan.Offset
	t.tagAttrs = append(t.tagAttrs, token.Attribute{
		Name:  t.attrName.String(),
		Value: t.attrValue.String(),
		Span:  t.attrNameSpan,
	})
}

// finishTag builds and emits the in-progress StartTag/EndTag token,
// removing duplicate attribute names (first occurrence wins, §4.4
// "Duplicate-attribute removal").
func (t *Tokenizer) finishTag() {
	t.flushCharRun()
	name := t.tagName.String()

	deduped := make([]token.Attribute, 0, len(t.tagAttrs))
	seen := map[string]bool{}
	for _, a := range t.tagAttrs {
		if seen[a.Name] {
			t.errf("duplicate attribute %q", a.Name)
			continue
		}
		seen[a.Name] = true
		deduped = append(deduped, a)
	}

	typ := token.StartTag
	if t.tagIsEnd {
		typ = token.EndTag
	}
	sp := token.Span{Offset: t.tagSpanStart, Length: t.stream.Cursor() - t.tagSpanStart, Line: t.tagLine, Column: t.tagCol}
	tok := token.Token{
		Type: typ,
		Span: sp,
		Tag: token.TagData{
			Name:        name,
			Atom:        atom.Lookup([]byte(name)),
			Namespace:   token.HTML,
			Attr:        deduped,
			SelfClosing: t.tagSelfClosing,
		},
	}
	if !t.tagIsEnd {
		t.lastStartTag = name
	}
	t.emit(tok)
}

func (t *Tokenizer) startComment() {
	t.flushCharRun()
	t.comment.Reset()
	t.commentStart = t.stream.Cursor()
	t.commentLine, t.commentCol = t.stream.LineCol()
}

func (t *Tokenizer) finishComment() {
	sp := token.Span{Offset: t.commentStart, Length: t.stream.Cursor() - t.commentStart, Line: t.commentLine, Column: t.commentCol}
	t.emit(token.Token{Type: token.Comment, Span: sp, Text: t.comment.String()})
}

func (t *Tokenizer) startDoctype() {
	t.flushCharRun()
	t.doctype = token.DoctypeData{}
	t.doctypeStart = t.stream.Cursor()
	t.doctypeLine, t.doctypeCol = t.stream.LineCol()
	t.doctypeNameBuf().Reset()
	t.doctypePublicBuf().Reset()
	t.doctypeSystemBuf().Reset()
}

func (t *Tokenizer) finishDoctype() {
	sp := token.Span{Offset: t.doctypeStart, Length: t.stream.Cursor() - t.doctypeStart, Line: t.doctypeLine, Column: t.doctypeCol}
	t.emit(token.Token{Type: token.Doctype, Span: sp, Doctype: t.doctype})
}

// appropriateEndTag reports whether the tag name built so far (lowercased)
// equals the last emitted start-tag name (§4.4 "End-tag matching in
// RCDATA/CDATA content").
func (t *Tokenizer) appropriateEndTag(name string) bool {
	return t.lastStartTag != "" && strings.EqualFold(t.lastStartTag, name)
}

func lower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

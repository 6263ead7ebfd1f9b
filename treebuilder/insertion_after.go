package treebuilder

import (
	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

// afterBodyIM implements §4.5 "AfterBody".
func (tb *Builder) afterBodyIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		if isWhitespaceText(tok.Text) {
			return tb.inBodyIM(tok)
		}
	case token.Comment:
		tb.handler.AppendChild(tb.oe[0].node, tb.handler.CreateComment(tok.Text))
		return true
	case token.Doctype:
		return true
	case token.StartTag:
		if tok.Tag.Atom == atom.Html {
			return tb.inBodyIM(tok)
		}
	case token.EndTag:
		if tok.Tag.Atom == atom.Html {
			tb.im = AfterAfterBody
			return true
		}
	case token.EOF:
		tb.done = true
		return true
	}
	tb.im = InBody
	return false
}

// inFramesetIM implements §4.5 "InFrameset".
func (tb *Builder) inFramesetIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		if isWhitespaceText(tok.Text) {
			tb.addText(tok.Text)
		}
		return true
	case token.Comment:
		tb.addChild(elem{node: tb.handler.CreateComment(tok.Text)})
		return true
	case token.Doctype:
		return true
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Html:
			return tb.inBodyIM(tok)
		case atom.Frameset:
			tb.addElement(tok.Tag)
			return true
		case atom.Frame:
			tb.addElement(tok.Tag)
			tb.popCurrent()
			return true
		case atom.Noframes:
			return tb.inHeadIM(tok)
		}
		return true
	case token.EndTag:
		if tok.Tag.Atom == atom.Frameset {
			if len(tb.oe) > 1 {
				tb.popCurrent()
			}
			if len(tb.oe) > 0 && tb.topTag().Atom != atom.Frameset {
				tb.im = AfterFrameset
			}
			return true
		}
	case token.EOF:
		tb.done = true
		return true
	}
	return true
}

// afterFramesetIM implements §4.5 "AfterFrameset".
func (tb *Builder) afterFramesetIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		if isWhitespaceText(tok.Text) {
			tb.addText(tok.Text)
		}
		return true
	case token.Comment:
		tb.addChild(elem{node: tb.handler.CreateComment(tok.Text)})
		return true
	case token.Doctype:
		return true
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Html:
			return tb.inBodyIM(tok)
		case atom.Noframes:
			return tb.inHeadIM(tok)
		}
		return true
	case token.EndTag:
		if tok.Tag.Atom == atom.Html {
			tb.im = AfterAfterFrameset
			return true
		}
	case token.EOF:
		tb.done = true
		return true
	}
	return true
}

// afterAfterBodyIM implements §4.5 "AfterAfterBody".
func (tb *Builder) afterAfterBodyIM(tok token.Token) bool {
	switch tok.Type {
	case token.Comment:
		tb.handler.AppendChild(tb.doc, tb.handler.CreateComment(tok.Text))
		return true
	case token.Doctype:
		return true
	case token.Character:
		if isWhitespaceText(tok.Text) {
			return tb.inBodyIM(tok)
		}
	case token.StartTag:
		if tok.Tag.Atom == atom.Html {
			return tb.inBodyIM(tok)
		}
	case token.EOF:
		tb.done = true
		return true
	}
	tb.im = InBody
	return false
}

// afterAfterFramesetIM implements §4.5 "AfterAfterFrameset".
func (tb *Builder) afterAfterFramesetIM(tok token.Token) bool {
	switch tok.Type {
	case token.Comment:
		tb.handler.AppendChild(tb.doc, tb.handler.CreateComment(tok.Text))
		return true
	case token.Doctype:
		return true
	case token.Character:
		if isWhitespaceText(tok.Text) {
			return tb.inBodyIM(tok)
		}
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Html:
			return tb.inBodyIM(tok)
		case atom.Noframes:
			return tb.inHeadIM(tok)
		}
	case token.EOF:
		tb.done = true
		return true
	}
	return true
}

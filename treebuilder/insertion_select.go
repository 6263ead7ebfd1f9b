package treebuilder

import (
	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

// inSelectIM implements §4.5 "InSelect".
func (tb *Builder) inSelectIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		d := tok.Text
		if d == "" {
			return true
		}
		tb.addText(d)
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
		case atom.Option:
			if tb.topTag().Atom == atom.Option {
				tb.popCurrent()
			}
			tb.addElement(tok.Tag)
			return true
		case atom.Optgroup:
			if tb.topTag().Atom == atom.Option {
				tb.popCurrent()
			}
			if tb.topTag().Atom == atom.Optgroup {
				tb.popCurrent()
			}
			tb.addElement(tok.Tag)
			return true
		case atom.Select:
			tb.oe.popUntil(tb.handler, selectScope, atom.Select)
			tb.resetInsertionModeAppropriately()
			return true
		case atom.Input, atom.Keygen, atom.Textarea:
			if tb.oe.elementInScope(selectScope, atom.Select) {
				tb.oe.popUntil(tb.handler, selectScope, atom.Select)
				tb.resetInsertionModeAppropriately()
			}
			return false
		case atom.Script, atom.Template:
			return tb.inHeadIM(tok)
		}
		return true
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Optgroup:
			if tb.topTag().Atom == atom.Option && len(tb.oe) >= 2 && tb.oe[len(tb.oe)-2].tag.Atom == atom.Optgroup {
				tb.popCurrent()
			}
			if tb.topTag().Atom == atom.Optgroup {
				tb.popCurrent()
			}
			return true
		case atom.Option:
			if tb.topTag().Atom == atom.Option {
				tb.popCurrent()
			}
			return true
		case atom.Select:
			if tb.oe.elementInScope(selectScope, atom.Select) {
				tb.oe.popUntil(tb.handler, selectScope, atom.Select)
				tb.resetInsertionModeAppropriately()
			}
			return true
		case atom.Template:
			return tb.inHeadIM(tok)
		}
		return true
	case token.EOF:
		return tb.inBodyIM(tok)
	}
	return true
}

// inSelectInTableIM implements §4.5 "InSelectInTable".
func (tb *Builder) inSelectInTableIM(tok token.Token) bool {
	if tok.Type == token.StartTag {
		switch tok.Tag.Atom {
		case atom.Caption, atom.Table, atom.Tbody, atom.Tfoot, atom.Thead, atom.Tr, atom.Td, atom.Th:
			tb.oe.popUntil(tb.handler, selectScope, atom.Select)
			tb.resetInsertionModeAppropriately()
			return false
		}
	}
	if tok.Type == token.EndTag {
		switch tok.Tag.Atom {
		case atom.Caption, atom.Table, atom.Tbody, atom.Tfoot, atom.Thead, atom.Tr, atom.Td, atom.Th:
			if tb.oe.elementInScope(tableScope, tok.Tag.Atom) {
				tb.oe.popUntil(tb.handler, selectScope, atom.Select)
				tb.resetInsertionModeAppropriately()
				return false
			}
			return true
		}
	}
	return tb.inSelectIM(tok)
}

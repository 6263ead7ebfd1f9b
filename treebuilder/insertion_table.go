package treebuilder

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

// inTableIM implements §4.5 "InTable".
func (tb *Builder) inTableIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		if top := tb.topTag().Atom; top == atom.Table || top == atom.Tbody || top == atom.Tfoot ||
			top == atom.Thead || top == atom.Tr {
			tb.pendingTableText.Reset()
			tb.pendingTableTextAllWS = true
			tb.originalIM = tb.im
			tb.im = InTableText
			return false
		}
	case token.Comment:
		tb.addChild(elem{node: tb.handler.CreateComment(tok.Text)})
		return true
	case token.Doctype:
		return true
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Caption:
			tb.clearStackToTableContext()
			tb.addMarker()
			tb.addElement(tok.Tag)
			tb.im = InCaption
			return true
		case atom.Colgroup:
			tb.clearStackToTableContext()
			tb.addElement(tok.Tag)
			tb.im = InColumnGroup
			return true
		case atom.Col:
			tb.clearStackToTableContext()
			tb.addElement(token.TagData{Name: "colgroup", Atom: atom.Colgroup, Namespace: token.HTML})
			tb.im = InColumnGroup
			return false
		case atom.Tbody, atom.Tfoot, atom.Thead:
			tb.clearStackToTableContext()
			tb.addElement(tok.Tag)
			tb.im = InTableBody
			return true
		case atom.Td, atom.Th, atom.Tr:
			tb.clearStackToTableContext()
			tb.addElement(token.TagData{Name: "tbody", Atom: atom.Tbody, Namespace: token.HTML})
			tb.im = InTableBody
			return false
		case atom.Table:
			if tb.oe.popUntil(tb.handler, tableScope, atom.Table) {
				tb.resetInsertionModeAppropriately()
				return false
			}
			return true
		case atom.Style, atom.Script, atom.Template:
			return tb.inHeadIM(tok)
		case atom.Input:
			if v, ok := tok.Tag.Attr0("type"); ok && strings.EqualFold(v, "hidden") {
				tb.addElement(tok.Tag)
				tb.popCurrent()
				return true
			}
		case atom.Form:
			if tb.form == nil && !tb.oe.contains(atom.Template) {
				n := tb.addElement(tok.Tag)
				tb.popCurrent()
				tb.form = n
			}
			return true
		}
		tb.fosterParenting = true
		consumed := tb.inBodyIM(tok)
		tb.fosterParenting = false
		return consumed
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Table:
			tb.oe.popUntil(tb.handler, tableScope, atom.Table)
			tb.resetInsertionModeAppropriately()
			return true
		case atom.Body, atom.Caption, atom.Col, atom.Colgroup, atom.Html, atom.Tbody, atom.Td, atom.Tfoot,
			atom.Th, atom.Thead, atom.Tr:
			return true
		case atom.Template:
			return tb.inHeadIM(tok)
		}
		tb.fosterParenting = true
		consumed := tb.inBodyIM(tok)
		tb.fosterParenting = false
		return consumed
	case token.EOF:
		return tb.inBodyIM(tok)
	}
	tb.fosterParenting = true
	consumed := tb.inBodyIM(tok)
	tb.fosterParenting = false
	return consumed
}

// inTableTextIM implements §4.5 "InTableText": character tokens
// accumulate until a non-character token arrives, at which point they are
// flushed as a unit, foster-parented if any was non-whitespace.
func (tb *Builder) inTableTextIM(tok token.Token) bool {
	if tok.Type == token.Character {
		d := strings.ReplaceAll(tok.Text, "\x00", "")
		if d == "" {
			return true
		}
		tb.pendingTableText.WriteString(d)
		if !isWhitespaceText(d) {
			tb.pendingTableTextAllWS = false
		}
		return true
	}
	text := tb.pendingTableText.String()
	tb.pendingTableText.Reset()
	if text != "" {
		if tb.pendingTableTextAllWS {
			tb.addText(text)
		} else {
			tb.fosterParenting = true
			tb.addText(text)
			tb.fosterParenting = false
			tb.framesetOK = false
		}
	}
	tb.im = tb.originalIM
	return false
}

// inCaptionIM implements §4.5 "InCaption".
func (tb *Builder) inCaptionIM(tok token.Token) bool {
	switch tok.Type {
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Caption, atom.Col, atom.Colgroup, atom.Tbody, atom.Td, atom.Tfoot, atom.Th, atom.Thead, atom.Tr:
			if tb.oe.popUntil(tb.handler, tableScope, atom.Caption) {
				tb.clearActiveFormattingElements()
				tb.im = InTable
				return false
			}
			return true
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Caption:
			if tb.oe.popUntil(tb.handler, tableScope, atom.Caption) {
				tb.clearActiveFormattingElements()
				tb.im = InTable
			}
			return true
		case atom.Table:
			if tb.oe.popUntil(tb.handler, tableScope, atom.Caption) {
				tb.clearActiveFormattingElements()
				tb.im = InTable
				return false
			}
			return true
		case atom.Body, atom.Col, atom.Colgroup, atom.Html, atom.Tbody, atom.Td, atom.Tfoot, atom.Th, atom.Thead, atom.Tr:
			return true
		}
	}
	return tb.inBodyIM(tok)
}

// inColumnGroupIM implements §4.5 "InColumnGroup".
func (tb *Builder) inColumnGroupIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		if isWhitespaceText(tok.Text) {
			tb.addText(tok.Text)
			return true
		}
	case token.Comment:
		tb.addChild(elem{node: tb.handler.CreateComment(tok.Text)})
		return true
	case token.Doctype:
		return true
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Html:
			return tb.inBodyIM(tok)
		case atom.Col:
			tb.addElement(tok.Tag)
			tb.popCurrent()
			return true
		case atom.Template:
			return tb.inHeadIM(tok)
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Colgroup:
			if tb.topTag().Atom == atom.Colgroup {
				tb.popCurrent()
				tb.im = InTable
			}
			return true
		case atom.Col:
			return true
		case atom.Template:
			return tb.inHeadIM(tok)
		}
	case token.EOF:
		return tb.inBodyIM(tok)
	}
	if tb.topTag().Atom != atom.Colgroup {
		return true
	}
	tb.popCurrent()
	tb.im = InTable
	return false
}

// inTableBodyIM implements §4.5 "InTableBody".
func (tb *Builder) inTableBodyIM(tok token.Token) bool {
	switch tok.Type {
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Tr:
			tb.clearStackToTableBodyContext()
			tb.addElement(tok.Tag)
			tb.im = InRow
			return true
		case atom.Th, atom.Td:
			tb.clearStackToTableBodyContext()
			tb.addElement(token.TagData{Name: "tr", Atom: atom.Tr, Namespace: token.HTML})
			tb.im = InRow
			return false
		case atom.Caption, atom.Col, atom.Colgroup, atom.Tbody, atom.Tfoot, atom.Thead:
			if tb.oe.popUntil(tb.handler, tableBodyScope, atom.Tbody, atom.Thead, atom.Tfoot) {
				tb.im = InTable
				return false
			}
			return true
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Tbody, atom.Tfoot, atom.Thead:
			if tb.oe.popUntil(tb.handler, tableBodyScope, tok.Tag.Atom) {
				tb.im = InTable
			}
			return true
		case atom.Table:
			if tb.oe.popUntil(tb.handler, tableBodyScope, atom.Tbody, atom.Thead, atom.Tfoot) {
				tb.im = InTable
				return false
			}
			return true
		case atom.Body, atom.Caption, atom.Col, atom.Colgroup, atom.Html, atom.Td, atom.Th, atom.Tr:
			return true
		}
	}
	return tb.inTableIM(tok)
}

// inRowIM implements §4.5 "InRow".
func (tb *Builder) inRowIM(tok token.Token) bool {
	switch tok.Type {
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Th, atom.Td:
			tb.clearStackToTableRowContext()
			tb.addElement(tok.Tag)
			tb.im = InCell
			tb.addMarker()
			return true
		case atom.Caption, atom.Col, atom.Colgroup, atom.Tbody, atom.Tfoot, atom.Thead, atom.Tr:
			if tb.oe.popUntil(tb.handler, tableRowScope, atom.Tr) {
				tb.im = InTableBody
				return false
			}
			return true
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Tr:
			if tb.oe.popUntil(tb.handler, tableRowScope, atom.Tr) {
				tb.im = InTableBody
			}
			return true
		case atom.Table:
			if tb.oe.popUntil(tb.handler, tableRowScope, atom.Tr) {
				tb.im = InTableBody
				return false
			}
			return true
		case atom.Tbody, atom.Tfoot, atom.Thead:
			if tb.oe.elementInScope(tableScope, tok.Tag.Atom) {
				tb.oe.popUntil(tb.handler, tableRowScope, atom.Tr)
				tb.im = InTableBody
				return false
			}
			return true
		case atom.Body, atom.Caption, atom.Col, atom.Colgroup, atom.Html, atom.Td, atom.Th:
			return true
		}
	}
	return tb.inTableIM(tok)
}

// inCellIM implements §4.5 "InCell".
func (tb *Builder) inCellIM(tok token.Token) bool {
	switch tok.Type {
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Caption, atom.Col, atom.Colgroup, atom.Tbody, atom.Td, atom.Tfoot, atom.Th, atom.Thead, atom.Tr:
			if tb.oe.elementInScope(tableScope, atom.Td) || tb.oe.elementInScope(tableScope, atom.Th) {
				tb.closeTableCell()
				return false
			}
			return true
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Td, atom.Th:
			if tb.oe.popUntil(tb.handler, tableScope, tok.Tag.Atom) {
				tb.clearActiveFormattingElements()
				tb.im = InRow
			}
			return true
		case atom.Body, atom.Caption, atom.Col, atom.Colgroup, atom.Html:
			return true
		case atom.Table, atom.Tbody, atom.Tfoot, atom.Thead, atom.Tr:
			if tb.oe.elementInScope(tableScope, tok.Tag.Atom) {
				tb.closeTableCell()
				return false
			}
			return true
		}
	}
	return tb.inBodyIM(tok)
}

func (tb *Builder) closeTableCell() {
	if tb.oe.popUntil(tb.handler, tableScope, atom.Td) {
		tb.clearActiveFormattingElements()
		tb.im = InRow
		return
	}
	if tb.oe.popUntil(tb.handler, tableScope, atom.Th) {
		tb.clearActiveFormattingElements()
		tb.im = InRow
	}
}

// resetInsertionModeAppropriately implements §4.5 "reset the insertion
// mode appropriately", run after popping a <table>/<select> or when a
// fragment-parsing context is established.
func (tb *Builder) resetInsertionModeAppropriately() {
	for i := len(tb.oe) - 1; i >= 0; i-- {
		e := tb.oe[i]
		last := i == 0
		switch e.tag.Atom {
		case atom.Select:
			for j := i - 1; j > 0; j-- {
				switch tb.oe[j].tag.Atom {
				case atom.Template:
					tb.im = InSelect
					return
				case atom.Table:
					tb.im = InSelectInTable
					return
				}
			}
			tb.im = InSelect
			return
		case atom.Td, atom.Th:
			if !last {
				tb.im = InCell
				return
			}
		case atom.Tr:
			tb.im = InRow
			return
		case atom.Tbody, atom.Thead, atom.Tfoot:
			tb.im = InTableBody
			return
		case atom.Caption:
			tb.im = InCaption
			return
		case atom.Colgroup:
			tb.im = InColumnGroup
			return
		case atom.Table:
			tb.im = InTable
			return
		case atom.Head:
			if !last {
				tb.im = InHead
				return
			}
		case atom.Body:
			tb.im = InBody
			return
		case atom.Frameset:
			tb.im = InFrameset
			return
		case atom.Html:
			if tb.headElementPointer == nil {
				tb.im = BeforeHead
			} else {
				tb.im = AfterHead
			}
			return
		}
		if last {
			tb.im = InBody
			return
		}
	}
}

package treebuilder

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

// inBodyIM implements §4.5 "InBody", the largest insertion mode: every
// flow-content tag is handled per WHATWG §13.2.5.4.7, including the
// <html>/<body> attribute-merge repeats and the <isindex> expansion this
// module supplements from original_source/ (SPEC_FULL.md §D.3).
func (tb *Builder) inBodyIM(tok token.Token) bool {
	switch tok.Type {
	case token.Doctype:
		tb.parseErr(tok, "unexpected DOCTYPE")
		return true
	case token.Character:
		d := strings.ReplaceAll(tok.Text, "\x00", "")
		if d == "" {
			return true
		}
		if top := tb.topTag(); top.Atom == atom.Pre || top.Atom == atom.Listing || top.Atom == atom.Textarea {
			if !tb.handler.HasChildren(tb.top()) {
				if strings.HasPrefix(d, "\r\n") {
					d = d[2:]
				} else if strings.HasPrefix(d, "\n") {
					d = d[1:]
				}
			}
		}
		if d == "" {
			return true
		}
		tb.reconstructActiveFormattingElements()
		tb.addText(d)
		if !isWhitespaceText(d) {
			tb.framesetOK = false
		}
		return true
	case token.Comment:
		tb.addChild(elem{node: tb.handler.CreateComment(tok.Text)})
		return true
	case token.StartTag:
		return tb.inBodyStartTag(tok)
	case token.EndTag:
		return tb.inBodyEndTag(tok)
	case token.EOF:
		tb.done = true
		return true
	}
	return true
}

func (tb *Builder) inBodyStartTag(tok token.Token) bool {
	a := tok.Tag.Atom
	switch a {
	case atom.Html:
		tb.parseErr(tok, "repeated <html> start tag")
		tb.handler.AddAttributes(tb.oe[0].node, tok.Tag.Attr)
		return true
	case atom.Base, atom.Basefont, atom.Bgsound, atom.Link, atom.Meta, atom.Noframes, atom.Script,
		atom.Style, atom.Title:
		return tb.inHeadIM(tok)
	case atom.Body:
		tb.parseErr(tok, "repeated <body> start tag")
		if len(tb.oe) >= 2 && tb.oe[1].tag.Atom == atom.Body {
			tb.framesetOK = false
			tb.handler.AddAttributes(tb.oe[1].node, tok.Tag.Attr)
		}
		return true
	case atom.Frameset:
		if !tb.framesetOK || len(tb.oe) < 2 || tb.oe[1].tag.Atom != atom.Body {
			return true
		}
		if parent, ok := tb.handler.GetParent(tb.oe[1].node); ok {
			tb.handler.RemoveChild(parent, tb.oe[1].node)
		}
		tb.oe.popTo(tb.handler, 1)
		tb.addElement(tok.Tag)
		tb.im = InFrameset
		return true
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Center, atom.Details, atom.Dialog,
		atom.Dir, atom.Div, atom.Dl, atom.Fieldset, atom.Figcaption, atom.Figure, atom.Footer, atom.Header,
		atom.Hgroup, atom.Main, atom.Menu, atom.Nav, atom.Ol, atom.P, atom.Section, atom.Summary, atom.Ul:
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		tb.addElement(tok.Tag)
		return true
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		if top := tb.topTag(); top.Atom == atom.H1 || top.Atom == atom.H2 || top.Atom == atom.H3 ||
			top.Atom == atom.H4 || top.Atom == atom.H5 || top.Atom == atom.H6 {
			tb.popCurrent()
		}
		tb.addElement(tok.Tag)
		return true
	case atom.Pre, atom.Listing:
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		tb.addElement(tok.Tag)
		tb.framesetOK = false
		return true
	case atom.Form:
		if tb.form != nil && !tb.oe.contains(atom.Template) {
			return true
		}
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		n := tb.addElement(tok.Tag)
		if !tb.oe.contains(atom.Template) {
			tb.form = n
		}
		return true
	case atom.Li:
		tb.closeNearestListItem()
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		tb.addElement(tok.Tag)
		return true
	case atom.Dd, atom.Dt:
		tb.closeNearestDefinitionItem()
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		tb.addElement(tok.Tag)
		return true
	case atom.Plaintext:
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		tb.addElement(tok.Tag)
		tb.setContentModel(contentModelPLAINTEXT, "")
		return true
	case atom.Button:
		tb.oe.popUntil(tb.handler, defaultScope, atom.Button)
		tb.reconstructActiveFormattingElements()
		tb.addElement(tok.Tag)
		tb.framesetOK = false
		return true
	case atom.A:
		if i := tb.afeIndexByAtom(tok.Tag); i != -1 {
			tb.parseErr(tok, "<a> while an <a> is still in the list of active formatting elements")
			fe := tb.afe[i]
			tb.runAdoptionAgency(tok, atom.A, "a")
			if tb.oe.index(fe.node) != -1 {
				tb.oe.remove(fe.node)
				tb.handler.UnrefNode(fe.node)
			}
			if tb.afe.index(fe.node) != -1 {
				tb.afe.remove(fe.node)
				tb.handler.UnrefNode(fe.node)
			}
		}
		tb.reconstructActiveFormattingElements()
		tb.addFormattingElementFor(tok.Tag)
		return true
	case atom.B, atom.Big, atom.Code, atom.Em, atom.Font, atom.I, atom.S, atom.Small, atom.Strike,
		atom.Strong, atom.Tt, atom.U:
		tb.reconstructActiveFormattingElements()
		tb.addFormattingElementFor(tok.Tag)
		return true
	case atom.Nobr:
		tb.reconstructActiveFormattingElements()
		if tb.oe.elementInScope(defaultScope, atom.Nobr) {
			tb.parseErr(tok, "<nobr> inside an open <nobr>")
			tb.runAdoptionAgency(tok, atom.Nobr, "nobr")
			tb.reconstructActiveFormattingElements()
		}
		tb.addFormattingElementFor(tok.Tag)
		return true
	case atom.Applet, atom.Marquee, atom.Object:
		tb.reconstructActiveFormattingElements()
		tb.addElement(tok.Tag)
		tb.addMarker()
		tb.framesetOK = false
		return true
	case atom.Table:
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		tb.addElement(tok.Tag)
		tb.framesetOK = false
		tb.im = InTable
		return true
	case atom.Area, atom.Br, atom.Embed, atom.Img, atom.Keygen, atom.Wbr:
		tb.reconstructActiveFormattingElements()
		tb.addElement(tok.Tag)
		tb.popCurrent()
		tb.framesetOK = false
		return true
	case atom.Input:
		tb.reconstructActiveFormattingElements()
		tb.addElement(tok.Tag)
		tb.popCurrent()
		if v, ok := tok.Tag.Attr0("type"); !ok || !strings.EqualFold(v, "hidden") {
			tb.framesetOK = false
		}
		return true
	case atom.Param, atom.Source, atom.Track:
		tb.addElement(tok.Tag)
		tb.popCurrent()
		return true
	case atom.Hr:
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		tb.addElement(tok.Tag)
		tb.popCurrent()
		tb.framesetOK = false
		return true
	case atom.Image:
		tok.Tag.Name = "img"
		tok.Tag.Atom = atom.Img
		return tb.inBodyStartTag(tok)
	case atom.Isindex:
		return tb.expandIsindex(tok)
	case atom.Textarea:
		tb.addElement(tok.Tag)
		tb.setContentModel(contentModelRCDATA, "textarea")
		tb.originalIM = tb.im
		tb.im = Text
		tb.framesetOK = false
		return true
	case atom.Xmp:
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		tb.reconstructActiveFormattingElements()
		tb.framesetOK = false
		tb.addElement(tok.Tag)
		tb.setContentModel(contentModelCDATA, "xmp")
		tb.originalIM = tb.im
		tb.im = Text
		return true
	case atom.Iframe:
		tb.framesetOK = false
		tb.addElement(tok.Tag)
		tb.setContentModel(contentModelCDATA, "iframe")
		tb.originalIM = tb.im
		tb.im = Text
		return true
	case atom.Noembed:
		tb.addElement(tok.Tag)
		tb.setContentModel(contentModelCDATA, "noembed")
		tb.originalIM = tb.im
		tb.im = Text
		return true
	case atom.Noscript:
		if tb.scriptingEnabled {
			tb.addElement(tok.Tag)
			tb.setContentModel(contentModelCDATA, "noscript")
			tb.originalIM = tb.im
			tb.im = Text
			return true
		}
		tb.reconstructActiveFormattingElements()
		tb.addElement(tok.Tag)
		return true
	case atom.Select:
		tb.reconstructActiveFormattingElements()
		tb.addElement(tok.Tag)
		tb.framesetOK = false
		switch tb.im {
		case InTable, InCaption, InTableBody, InRow, InCell:
			tb.im = InSelectInTable
		default:
			tb.im = InSelect
		}
		return true
	case atom.Optgroup, atom.Option:
		if tb.topTag().Atom == atom.Option {
			tb.popCurrent()
		}
		tb.reconstructActiveFormattingElements()
		tb.addElement(tok.Tag)
		return true
	case atom.Rb, atom.Rtc:
		if tb.oe.elementInScope(defaultScope, atom.Ruby) {
			tb.generateImpliedEndTags("")
		}
		tb.addElement(tok.Tag)
		return true
	case atom.Rp, atom.Rt:
		if tb.oe.elementInScope(defaultScope, atom.Ruby) {
			tb.generateImpliedEndTags("rtc")
		}
		tb.addElement(tok.Tag)
		return true
	case atom.Math:
		tb.reconstructActiveFormattingElements()
		adjustForeignTag(&tok.Tag, mathMLAttrAdjustments)
		tok.Tag.Namespace = token.MathML
		tb.addElement(tok.Tag)
		if tok.Tag.SelfClosing {
			tb.popCurrent()
		}
		return true
	case atom.Svg:
		tb.reconstructActiveFormattingElements()
		adjustForeignTag(&tok.Tag, svgAttrAdjustments)
		tok.Tag.Namespace = token.SVG
		tb.addElement(tok.Tag)
		if tok.Tag.SelfClosing {
			tb.popCurrent()
		}
		return true
	case atom.Caption, atom.Col, atom.Colgroup, atom.Frame, atom.Head, atom.Tbody, atom.Td, atom.Tfoot,
		atom.Th, atom.Thead, atom.Tr:
		tb.parseErr(tok, "<%s> start tag ignored outside its table context", tok.Tag.Name)
		return true
	default:
		tb.reconstructActiveFormattingElements()
		tb.addElement(tok.Tag)
		return true
	}
}

// closeNearestListItem implements the §4.5 "Li" special-case walk: close
// the nearest open <li> unless a special element (other than address/div/p)
// is encountered first.
func (tb *Builder) closeNearestListItem() {
	for i := len(tb.oe) - 1; i >= 0; i-- {
		e := tb.oe[i]
		switch e.tag.Atom {
		case atom.Li:
			tb.generateImpliedEndTags("li")
			tb.oe.popTo(tb.handler, i)
			return
		case atom.Address, atom.Div, atom.P:
			continue
		}
		if isSpecialCategory(e.tag.Atom) {
			return
		}
	}
}

func (tb *Builder) closeNearestDefinitionItem() {
	for i := len(tb.oe) - 1; i >= 0; i-- {
		e := tb.oe[i]
		switch e.tag.Atom {
		case atom.Dd, atom.Dt:
			tb.generateImpliedEndTags(e.tag.Name)
			tb.oe.popTo(tb.handler, i)
			return
		case atom.Address, atom.Div, atom.P:
			continue
		}
		if isSpecialCategory(e.tag.Atom) {
			return
		}
	}
}

// expandIsindex implements the §4.5 "<isindex>" expansion supplemented
// from original_source/src/treebuilder/in_body.c (SPEC_FULL.md §D.3): a
// synthesised form > hr + p > label(text + input) + hr, carrying forward
// the action/prompt/name attributes and always raising a parse error.
func (tb *Builder) expandIsindex(tok token.Token) bool {
	tb.parseErr(tok, "<isindex> is not supported; synthesising a form")
	if tb.form != nil && !tb.oe.contains(atom.Template) {
		return true
	}
	action, _ := tok.Tag.Attr0("action")
	prompt, hasPrompt := tok.Tag.Attr0("prompt")
	if !hasPrompt {
		prompt = "This is a searchable index. Enter search keywords: "
	}
	var inputAttrs []token.Attribute
	for _, at := range tok.Tag.Attr {
		switch at.Name {
		case "name", "action", "prompt":
			continue
		}
		inputAttrs = append(inputAttrs, at)
	}
	inputAttrs = append(inputAttrs, token.Attribute{Name: "name", Value: "isindex"})

	formTag := token.TagData{Name: "form", Atom: atom.Form, Namespace: token.HTML}
	if action != "" {
		formTag.Attr = []token.Attribute{{Name: "action", Value: action}}
	}

	tb.oe.popUntil(tb.handler, buttonScope, atom.P)
	n := tb.addElement(formTag)
	if !tb.oe.contains(atom.Template) {
		tb.form = n
	}
	tb.addElement(token.TagData{Name: "hr", Atom: atom.Hr, Namespace: token.HTML})
	tb.popCurrent()
	tb.reconstructActiveFormattingElements()
	tb.addElement(token.TagData{Name: "p", Atom: atom.P, Namespace: token.HTML})
	tb.addElement(token.TagData{Name: "label", Atom: atom.Label, Namespace: token.HTML})
	tb.addText(prompt)
	tb.addElement(token.TagData{Name: "input", Atom: atom.Input, Namespace: token.HTML, Attr: inputAttrs})
	tb.popCurrent()
	tb.popCurrent() // label
	tb.popCurrent() // p
	tb.addElement(token.TagData{Name: "hr", Atom: atom.Hr, Namespace: token.HTML})
	tb.popCurrent()
	tb.popCurrent() // form
	tb.form = nil
	return true
}

func (tb *Builder) inBodyEndTag(tok token.Token) bool {
	a := tok.Tag.Atom
	switch a {
	case atom.Body:
		if tb.oe.elementInScope(defaultScope, atom.Body) {
			tb.im = AfterBody
		}
		return true
	case atom.Html:
		if tb.oe.elementInScope(defaultScope, atom.Body) {
			tb.im = AfterBody
			return false
		}
		return true
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Button, atom.Center, atom.Details,
		atom.Dialog, atom.Dir, atom.Div, atom.Dl, atom.Fieldset, atom.Figcaption, atom.Figure, atom.Footer,
		atom.Header, atom.Hgroup, atom.Listing, atom.Main, atom.Menu, atom.Nav, atom.Ol, atom.Pre,
		atom.Section, atom.Summary, atom.Ul:
		tb.oe.popUntil(tb.handler, defaultScope, a)
		return true
	case atom.Form:
		if tb.oe.contains(atom.Template) {
			i := tb.oe.indexOfElementInScope(defaultScope, atom.Form)
			if i == -1 {
				return true
			}
			tb.generateImpliedEndTags("")
			tb.oe.popUntil(tb.handler, defaultScope, atom.Form)
			return true
		}
		node := tb.form
		tb.form = nil
		i := tb.oe.indexOfElementInScope(defaultScope, atom.Form)
		if node == nil || i == -1 || tb.oe[i].node != node {
			return true
		}
		tb.generateImpliedEndTags("")
		tb.oe.remove(node)
		tb.handler.UnrefNode(node)
		return true
	case atom.P:
		if !tb.oe.elementInScope(buttonScope, atom.P) {
			tb.addElement(token.TagData{Name: "p", Atom: atom.P, Namespace: token.HTML})
		}
		tb.oe.popUntil(tb.handler, buttonScope, atom.P)
		return true
	case atom.Li:
		tb.oe.popUntil(tb.handler, listItemScope, atom.Li)
		return true
	case atom.Dd, atom.Dt:
		tb.oe.popUntil(tb.handler, defaultScope, a)
		return true
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		tb.oe.popUntil(tb.handler, defaultScope, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6)
		return true
	case atom.A, atom.B, atom.Big, atom.Code, atom.Em, atom.Font, atom.I, atom.Nobr, atom.S, atom.Small,
		atom.Strike, atom.Strong, atom.Tt, atom.U:
		tb.runAdoptionAgency(tok, a, tok.Tag.Name)
		return true
	case atom.Applet, atom.Marquee, atom.Object:
		if tb.oe.popUntil(tb.handler, defaultScope, a) {
			tb.clearActiveFormattingElements()
		}
		return true
	case atom.Br:
		tb.reconstructActiveFormattingElements()
		tb.addElement(token.TagData{Name: "br", Atom: atom.Br, Namespace: token.HTML})
		tb.popCurrent()
		tb.framesetOK = false
		return true
	default:
		tb.anyOtherEndTag(a, tok.Tag.Name)
		return true
	}
}

// anyOtherEndTag implements §4.5's fallback end-tag rule: walk the stack
// looking for a node matching by name, stopping (and ignoring the token)
// if a special element is found first.
func (tb *Builder) anyOtherEndTag(a atom.Atom, name string) {
	for i := len(tb.oe) - 1; i >= 0; i-- {
		e := tb.oe[i]
		if e.tag.Atom == a && (a != 0 || e.tag.Name == name) {
			tb.oe.popTo(tb.handler, i)
			return
		}
		if isSpecialCategory(e.tag.Atom) {
			return
		}
	}
}

// textIM implements §4.5 "Text" (formerly GenericRCDATA/
// ScriptCollectCharacters in the spec's naming): accumulate characters
// until the matching end tag, then append a single text node and resume
// the saved mode.
func (tb *Builder) textIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		tb.addText(tok.Text)
		return true
	case token.EOF:
		tb.popCurrent()
		tb.im = tb.originalIM
		return false
	case token.EndTag:
		tb.popCurrent()
		tb.im = tb.originalIM
		return true
	}
	return true
}

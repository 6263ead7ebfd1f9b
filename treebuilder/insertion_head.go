package treebuilder

import (
	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

// setQuirksMode applies quirksModeFor exactly once per document; later
// doctype-like tokens (there should not be any, but a malformed document
// can produce more than one) never override an already-settled mode.
func (tb *Builder) setQuirksMode(m QuirksMode) {
	if tb.quirksSet {
		return
	}
	tb.quirksSet = true
	tb.handler.SetQuirksMode(m)
}

// initialIM implements §4.5 "Initial" (whitespace ignored; doctype sets
// quirks mode then advances to BeforeHTML; anything else reprocesses in
// BeforeHTML having set Full quirks mode, since a document with no
// doctype at all is as far from standards mode as it gets).
func (tb *Builder) initialIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		if isWhitespaceText(tok.Text) {
			return true
		}
	case token.Comment:
		tb.handler.AppendChild(tb.doc, tb.handler.CreateComment(tok.Text))
		return true
	case token.Doctype:
		n := tb.handler.CreateDoctype(tok.Doctype)
		tb.handler.AppendChild(tb.doc, n)
		tb.setQuirksMode(quirksModeFor(tok.Doctype.Name, tok.Doctype.PublicID, tok.Doctype.SystemID, tok.Doctype.ForceQuirks))
		tb.im = BeforeHTML
		return true
	}
	tb.parseErr(tok, "missing DOCTYPE")
	tb.setQuirksMode(Quirks)
	tb.im = BeforeHTML
	return false
}

// beforeHTMLIM implements §4.5 "BeforeHtml".
func (tb *Builder) beforeHTMLIM(tok token.Token) bool {
	switch tok.Type {
	case token.Doctype:
		tb.parseErr(tok, "unexpected DOCTYPE")
		return true
	case token.Comment:
		tb.handler.AppendChild(tb.doc, tb.handler.CreateComment(tok.Text))
		return true
	case token.Character:
		if isWhitespaceText(tok.Text) {
			return true
		}
	case token.StartTag:
		if tok.Tag.Atom == atom.Html {
			tb.createRootHTML(tok.Tag)
			tb.im = BeforeHead
			return true
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Head, atom.Body, atom.Html, atom.Br:
			// fall through to the "anything else" branch below
		default:
			tb.parseErr(tok, "</%s> before <html>", tok.Tag.Name)
			return true
		}
	}
	tb.createRootHTML(token.TagData{Name: "html", Atom: atom.Html, Namespace: token.HTML})
	tb.im = BeforeHead
	return false
}

func (tb *Builder) createRootHTML(tag token.TagData) {
	n := tb.handler.CreateElement(tag)
	tb.handler.RefNode(n)
	tb.handler.AppendChild(tb.doc, n)
	tb.oe.push(elem{node: n, tag: tag})
}

// beforeHeadIM implements §4.5 "BeforeHead".
func (tb *Builder) beforeHeadIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		if isWhitespaceText(tok.Text) {
			return true
		}
	case token.Comment:
		tb.addChild(elem{node: tb.handler.CreateComment(tok.Text)})
		return true
	case token.Doctype:
		tb.parseErr(tok, "unexpected DOCTYPE")
		return true
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Html:
			return tb.inBodyIM(tok)
		case atom.Head:
			n := tb.addElement(tok.Tag)
			tb.headElementPointer = n
			tb.im = InHead
			return true
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Head, atom.Body, atom.Html, atom.Br:
			// fall through
		default:
			return true
		}
	}
	n := tb.addElement(token.TagData{Name: "head", Atom: atom.Head, Namespace: token.HTML})
	tb.headElementPointer = n
	tb.im = InHead
	return false
}

// inHeadIM implements §4.5 "InHead".
func (tb *Builder) inHeadIM(tok token.Token) bool {
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
		case atom.Base, atom.Basefont, atom.Bgsound, atom.Link:
			tb.addElement(tok.Tag)
			tb.oe.popTo(tb.handler, len(tb.oe)-1)
			return true
		case atom.Meta:
			tb.addElement(tok.Tag)
			tb.oe.popTo(tb.handler, len(tb.oe)-1)
			if charset, ok := tok.Tag.Attr0("charset"); ok && charset != "" {
				tb.notifyEncodingChange(charset)
			} else if content, ok := tok.Tag.Attr0("content"); ok {
				if cs, ok := extractMetaCharset(content); ok {
					tb.notifyEncodingChange(cs)
				}
			}
			return true
		case atom.Title:
			tb.addElement(tok.Tag)
			tb.setContentModel(contentModelRCDATA, "title")
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
			tb.addElement(tok.Tag)
			tb.im = InHeadNoscript
			return true
		case atom.Noframes, atom.Style:
			tb.addElement(tok.Tag)
			tb.setContentModel(contentModelCDATA, tok.Tag.Name)
			tb.originalIM = tb.im
			tb.im = Text
			return true
		case atom.Script:
			tb.addElement(tok.Tag)
			tb.setContentModel(contentModelCDATA, "script")
			tb.originalIM = tb.im
			tb.im = Text
			return true
		case atom.Head:
			tb.parseErr(tok, "<head> inside <head>")
			return true
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Head:
			tb.popCurrent()
			tb.im = AfterHead
			return true
		case atom.Body, atom.Html, atom.Br:
			// fall through
		default:
			return true
		}
	}
	tb.popCurrent()
	tb.im = AfterHead
	return false
}

// processInHeadContext implements §4.5 AfterHead's rule for base/link/
// meta/noframes/script/style/title: temporarily re-open the head element,
// run the InHead rules, then remove it from the stack wherever it ended up
// (it is never re-closed by InHead for these tags, since they either
// self-close or switch to Text mode with a new element on top).
func (tb *Builder) processInHeadContext(tok token.Token) bool {
	headTag := token.TagData{Name: "head", Atom: atom.Head, Namespace: token.HTML}
	tb.handler.RefNode(tb.headElementPointer)
	tb.oe.push(elem{node: tb.headElementPointer, tag: headTag})
	ok := tb.inHeadIM(tok)
	tb.oe.remove(tb.headElementPointer)
	tb.handler.UnrefNode(tb.headElementPointer)
	return ok
}

func (tb *Builder) popCurrent() {
	if e, ok := tb.oe.top(); ok {
		tb.oe.pop()
		tb.handler.UnrefNode(e.node)
	}
}

func (tb *Builder) notifyEncodingChange(label string) {
	if tb.EncodingChangeHook != nil {
		tb.EncodingChangeHook(label)
	}
	tb.handler.EncodingChange(label)
}

// extractMetaCharset pulls "...;charset=XYZ" out of a <meta content=""> the
// same way charset.Detect's pre-scan does, for the mid-parse <meta>
// handled by InHead (§4.5 "InHead" highlights).
func extractMetaCharset(content string) (string, bool) {
	lower := toLowerASCII(content)
	idx := indexOf(lower, "charset")
	if idx == -1 {
		return "", false
	}
	rest := content[idx+len("charset"):]
	rest = trimSpacesLeft(rest)
	if rest == "" || rest[0] != '=' {
		return "", false
	}
	rest = trimSpacesLeft(rest[1:])
	if rest == "" {
		return "", false
	}
	if rest[0] == '"' || rest[0] == '\'' {
		quote := rest[0]
		for i := 1; i < len(rest); i++ {
			if rest[i] == quote {
				return toLowerASCII(rest[1:i]), true
			}
		}
		return toLowerASCII(rest[1:]), true
	}
	end := 0
	for end < len(rest) && rest[end] != ' ' && rest[end] != '\t' && rest[end] != '\n' && rest[end] != '\f' && rest[end] != '\r' && rest[end] != ';' {
		end++
	}
	return toLowerASCII(rest[:end]), true
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func trimSpacesLeft(s string) string {
	i := 0
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\f', '\r':
			i++
			continue
		}
		break
	}
	return s[i:]
}

// inHeadNoscriptIM implements §4.5 "InHeadNoscript".
func (tb *Builder) inHeadNoscriptIM(tok token.Token) bool {
	switch tok.Type {
	case token.Doctype:
		return true
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.Html:
			return tb.inBodyIM(tok)
		case atom.Basefont, atom.Bgsound, atom.Link, atom.Meta, atom.Noframes, atom.Style:
			return tb.inHeadIM(tok)
		case atom.Head, atom.Noscript:
			return true
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Noscript:
			tb.popCurrent()
			tb.im = InHead
			return true
		case atom.Br:
			// fall through
		default:
			return true
		}
	case token.Character:
		if isWhitespaceText(tok.Text) {
			return tb.inHeadIM(tok)
		}
	case token.Comment:
		return tb.inHeadIM(tok)
	}
	tb.popCurrent()
	tb.im = InHead
	return false
}

// afterHeadIM implements §4.5 "AfterHead".
func (tb *Builder) afterHeadIM(tok token.Token) bool {
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
		case atom.Body:
			tb.addElement(tok.Tag)
			tb.framesetOK = false
			tb.im = InBody
			return true
		case atom.Frameset:
			tb.addElement(tok.Tag)
			tb.im = InFrameset
			return true
		case atom.Base, atom.Basefont, atom.Bgsound, atom.Link, atom.Meta, atom.Noframes, atom.Script,
			atom.Style, atom.Title:
			return tb.processInHeadContext(tok)
		case atom.Head:
			return true
		}
	case token.EndTag:
		switch tok.Tag.Atom {
		case atom.Body, atom.Html, atom.Br:
			// fall through
		default:
			return true
		}
	}
	tb.addElement(token.TagData{Name: "body", Atom: atom.Body, Namespace: token.HTML})
	tb.im = InBody
	return false
}

package treebuilder

import (
	"fmt"
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

// ErrorHandler receives recoverable parse errors found during tree
// construction (§4.5, §7). It never aborts the parse; its signature
// matches the tokeniser's handler so an embedder can install one callback
// for both stages.
type ErrorHandler func(line, col int, msg string)

// Content-model values passed to ContentModelHook, matching
// tokenizer.ContentModel's ordering (PCDATA, RCDATA, CDATA, PLAINTEXT) so
// an embedder can pass the hook argument straight to
// tokenizer.Tokenizer.SetContentModel without a conversion step, while
// keeping this package free of a dependency on the tokenizer package
// itself (§4.5/§4.4 interplay).
const (
	contentModelPCDATA = iota
	contentModelRCDATA
	contentModelCDATA
	contentModelPLAINTEXT
)

// Option configures a new Builder.
type Option func(*Builder)

// WithScripting enables the "scripting enabled" flag, which governs
// whether <noscript> content is parsed as raw text or markup (§4.5,
// Non-goal: the flag exists but nothing downstream executes script).
func WithScripting(enabled bool) Option {
	return func(tb *Builder) { tb.scriptingEnabled = enabled }
}

// WithErrorHandler installs a parse-error callback.
func WithErrorHandler(h ErrorHandler) Option {
	return func(tb *Builder) { tb.onErr = h }
}

// Builder drives a TreeHandler through the tree construction algorithm
// (§4.5). It is not safe for concurrent use.
type Builder struct {
	handler TreeHandler
	doc     Node
	onErr   ErrorHandler

	oe, afe nodeStack

	form               Node
	headElementPointer Node

	im, originalIM InsertionMode

	fosterParenting  bool
	framesetOK       bool
	scriptingEnabled bool
	quirksSet        bool

	// pendingTableText accumulates character tokens seen in InTableText
	// mode. They are flushed as a unit: inserted in place when all of them
	// are whitespace, foster-parented once a non-whitespace character
	// proves the table's content isn't all whitespace (§4.5 "in table
	// text").
	pendingTableText      strings.Builder
	pendingTableTextAllWS bool

	// ContentModelHook, if set, is called whenever the treebuilder needs
	// the tokeniser to switch content model (e.g. entering <title>/
	// <textarea> RCDATA, or <script>/<style> CDATA) and to record the
	// "appropriate end tag" name (§4.4/§4.5 interplay).
	ContentModelHook func(model int, lastStartTag string)

	// EncodingChangeHook lets the embedder observe a <meta charset> found
	// mid-parse without the treebuilder needing to know about Stream.
	EncodingChangeHook func(label string)

	done bool
}

// New creates a Builder rooted at doc, starting in the Initial insertion
// mode (§4.5).
func New(handler TreeHandler, doc Node, opts ...Option) *Builder {
	tb := &Builder{handler: handler, doc: doc, im: Initial, framesetOK: true}
	for _, o := range opts {
		o(tb)
	}
	return tb
}

// Done reports whether an "after after body"/"after after frameset" stop
// condition has been reached and further tokens (besides trailing
// whitespace/comments) would be ignored.
func (tb *Builder) Done() bool { return tb.done }

func (tb *Builder) top() Node {
	if e, ok := tb.oe.top(); ok {
		return e.node
	}
	return tb.doc
}

func (tb *Builder) topTag() token.TagData {
	if e, ok := tb.oe.top(); ok {
		return e.tag
	}
	return token.TagData{}
}

// Process consumes one token, looping internally while insertion modes
// signal "reprocess" (§4.5 "An insertion mode may ... 'Reprocess the
// token'").
func (tb *Builder) Process(tok token.Token) {
	for {
		if tb.step(tok) {
			break
		}
	}
	if tok.Type == token.EOF {
		tb.releaseAll()
	}
}

// releaseAll drops every node reference the builder still holds once the
// final EOF token has been consumed, so a complete parse pairs every
// RefNode with an UnrefNode.
func (tb *Builder) releaseAll() {
	for len(tb.oe) > 0 {
		e := tb.oe.pop()
		tb.handler.UnrefNode(e.node)
	}
	for len(tb.afe) > 0 {
		e := tb.afe.pop()
		if !isMarker(e) {
			tb.handler.UnrefNode(e.node)
		}
	}
	tb.form = nil
	tb.headElementPointer = nil
}

// InForeignContent reports whether the current node is in a non-HTML
// namespace; the embedder uses this to enable "<![CDATA[" sections in the
// tokeniser, which are legal only inside foreign content (§4.4).
func (tb *Builder) InForeignContent() bool {
	e, ok := tb.oe.top()
	return ok && e.tag.Namespace != token.HTML && e.tag.Namespace != token.Null
}

// step dispatches tok to the current insertion mode and reports whether
// the token was fully consumed (false means reprocess in the new mode).
func (tb *Builder) step(tok token.Token) bool {
	if tok.Type != token.EOF && len(tb.oe) > 0 && tb.currentNodeIsForeign(tok) {
		return tb.foreignContentIM(tok)
	}
	switch tb.im {
	case Initial:
		return tb.initialIM(tok)
	case BeforeHTML:
		return tb.beforeHTMLIM(tok)
	case BeforeHead:
		return tb.beforeHeadIM(tok)
	case InHead:
		return tb.inHeadIM(tok)
	case InHeadNoscript:
		return tb.inHeadNoscriptIM(tok)
	case AfterHead:
		return tb.afterHeadIM(tok)
	case InBody:
		return tb.inBodyIM(tok)
	case Text:
		return tb.textIM(tok)
	case InTable:
		return tb.inTableIM(tok)
	case InTableText:
		return tb.inTableTextIM(tok)
	case InCaption:
		return tb.inCaptionIM(tok)
	case InColumnGroup:
		return tb.inColumnGroupIM(tok)
	case InTableBody:
		return tb.inTableBodyIM(tok)
	case InRow:
		return tb.inRowIM(tok)
	case InCell:
		return tb.inCellIM(tok)
	case InSelect:
		return tb.inSelectIM(tok)
	case InSelectInTable:
		return tb.inSelectInTableIM(tok)
	case AfterBody:
		return tb.afterBodyIM(tok)
	case InFrameset:
		return tb.inFramesetIM(tok)
	case AfterFrameset:
		return tb.afterFramesetIM(tok)
	case AfterAfterBody:
		return tb.afterAfterBodyIM(tok)
	case AfterAfterFrameset:
		return tb.afterAfterFramesetIM(tok)
	default:
		return true
	}
}

// parseErr reports a recoverable parse error at tok's position. Tokens
// synthesised by the builder itself carry a zero Span; the report still
// fires, just without useful coordinates.
func (tb *Builder) parseErr(tok token.Token, format string, args ...any) {
	if tb.onErr == nil {
		return
	}
	tb.onErr(tok.Span.Line, tok.Span.Column, fmt.Sprintf(format, args...))
}

// --- Node/stack helpers --------------------------------------------------

func (tb *Builder) setContentModel(model int, lastStartTag string) {
	if tb.ContentModelHook != nil {
		tb.ContentModelHook(model, lastStartTag)
	}
}

func (tb *Builder) shouldFosterParent() bool {
	if !tb.fosterParenting {
		return false
	}
	switch tb.topTag().Atom {
	case atom.Table, atom.Tbody, atom.Tfoot, atom.Thead, atom.Tr:
		return true
	}
	return false
}

// fosterParent finds the location described by §4.5 "foster parenting"
// (immediately before the nearest ancestor <table> of the current table
// context, or at the end of a non-table node) and appends e's node there.
func (tb *Builder) fosterParent(n Node) {
	var tableIdx, templateIdx = -1, -1
	for i := len(tb.oe) - 1; i >= 0; i-- {
		switch tb.oe[i].tag.Atom {
		case atom.Table:
			if tableIdx == -1 {
				tableIdx = i
			}
		case atom.Template:
			if templateIdx == -1 {
				templateIdx = i
			}
		}
	}
	if templateIdx != -1 && (tableIdx == -1 || templateIdx > tableIdx) {
		tb.handler.AppendChild(tb.oe[templateIdx].node, n)
		return
	}
	if tableIdx == -1 {
		tb.handler.AppendChild(tb.top(), n)
		return
	}
	parent, ok := tb.handler.GetParent(tb.oe[tableIdx].node)
	if !ok {
		tb.handler.AppendChild(tb.top(), n)
		return
	}
	tb.handler.InsertBefore(parent, n, tb.oe[tableIdx].node)
}

func (tb *Builder) addChild(e elem) {
	if tb.shouldFosterParent() {
		tb.fosterParent(e.node)
	} else {
		tb.handler.AppendChild(tb.top(), e.node)
	}
}

func (tb *Builder) addText(text string) {
	if text == "" {
		return
	}
	n := tb.handler.CreateText(text)
	if tb.shouldFosterParent() {
		tb.fosterParent(n)
	} else {
		tb.handler.AppendChild(tb.top(), n)
	}
}

// addElement creates a node for tag, appends it and pushes it onto the
// stack of open elements. A form-associatable element created while the
// form element pointer is set is paired with its owner (§4.5 "form element
// pointer").
func (tb *Builder) addElement(tag token.TagData) Node {
	n := tb.handler.CreateElement(tag)
	tb.handler.RefNode(n)
	tb.addChild(elem{node: n, tag: tag})
	tb.oe.push(elem{node: n, tag: tag})
	if tb.form != nil {
		switch tag.Atom {
		case atom.Button, atom.Fieldset, atom.Input, atom.Keygen, atom.Label,
			atom.Object, atom.Output, atom.Select, atom.Textarea:
			tb.handler.FormAssociate(n, tb.form)
		}
	}
	return n
}

func (tb *Builder) addFormattingElementFor(tag token.TagData) Node {
	n := tb.addElement(tag)
	tb.handler.RefNode(n)
	tb.addFormattingElement(elem{node: n, tag: tag})
	return n
}

// generateImpliedEndTags pops elements whose tags are in the §4.5 implied
// end tag set, optionally excluding one tag name (the one about to be
// pushed/closed by the caller).
func (tb *Builder) generateImpliedEndTags(exceptFor string) {
	for {
		e, ok := tb.oe.top()
		if !ok {
			return
		}
		switch e.tag.Atom {
		case atom.Dd, atom.Dt, atom.Li, atom.Optgroup, atom.Option, atom.P, atom.Rb, atom.Rp, atom.Rt, atom.Rtc:
			if e.tag.Name == exceptFor {
				return
			}
			tb.oe.pop()
			tb.handler.UnrefNode(e.node)
		default:
			return
		}
	}
}

func (tb *Builder) clearStackToTableContext() {
	for {
		e, ok := tb.oe.top()
		if !ok || e.tag.Atom == atom.Table || e.tag.Atom == atom.Html || e.tag.Atom == atom.Template {
			return
		}
		tb.oe.pop()
		tb.handler.UnrefNode(e.node)
	}
}

func (tb *Builder) clearStackToTableBodyContext() {
	for {
		e, ok := tb.oe.top()
		switch {
		case !ok:
			return
		case e.tag.Atom == atom.Tbody || e.tag.Atom == atom.Tfoot || e.tag.Atom == atom.Thead ||
			e.tag.Atom == atom.Template || e.tag.Atom == atom.Html:
			return
		default:
			tb.oe.pop()
			tb.handler.UnrefNode(e.node)
		}
	}
}

func (tb *Builder) clearStackToTableRowContext() {
	for {
		e, ok := tb.oe.top()
		switch {
		case !ok:
			return
		case e.tag.Atom == atom.Tr || e.tag.Atom == atom.Template || e.tag.Atom == atom.Html:
			return
		default:
			tb.oe.pop()
			tb.handler.UnrefNode(e.node)
		}
	}
}

func isSpecialCategory(a atom.Atom) bool {
	switch a {
	case atom.Address, atom.Applet, atom.Area, atom.Article, atom.Aside, atom.Base, atom.Basefont,
		atom.Bgsound, atom.Blockquote, atom.Body, atom.Br, atom.Button, atom.Caption, atom.Center,
		atom.Col, atom.Colgroup, atom.Dd, atom.Details, atom.Dir, atom.Div, atom.Dl, atom.Dt,
		atom.Embed, atom.Fieldset, atom.Figcaption, atom.Figure, atom.Footer, atom.Form, atom.Frame,
		atom.Frameset, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Head, atom.Header,
		atom.Hgroup, atom.Hr, atom.Html, atom.Iframe, atom.Img, atom.Input, atom.Li, atom.Link,
		atom.Listing, atom.Main, atom.Marquee, atom.Menu, atom.Meta, atom.Nav, atom.Noembed,
		atom.Noframes, atom.Noscript, atom.Object, atom.Ol, atom.P, atom.Param, atom.Plaintext,
		atom.Pre, atom.Script, atom.Section, atom.Select, atom.Source, atom.Style, atom.Summary,
		atom.Table, atom.Tbody, atom.Td, atom.Template, atom.Textarea, atom.Tfoot, atom.Th, atom.Thead,
		atom.Title, atom.Tr, atom.Track, atom.Ul, atom.Wbr, atom.Xmp:
		return true
	}
	return false
}

func isWhitespaceText(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
		default:
			return false
		}
	}
	return true
}

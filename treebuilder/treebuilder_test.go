package treebuilder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/internal/domtest"
	"github.com/gohubbub/hubbub/token"
	"github.com/gohubbub/hubbub/treebuilder"
)

func startTag(name string, attrs ...token.Attribute) token.Token {
	return token.Token{Type: token.StartTag, Tag: token.TagData{
		Name: name, Atom: atom.Lookup([]byte(name)), Namespace: token.HTML, Attr: attrs,
	}}
}

func endTag(name string) token.Token {
	return token.Token{Type: token.EndTag, Tag: token.TagData{
		Name: name, Atom: atom.Lookup([]byte(name)), Namespace: token.HTML,
	}}
}

func chars(s string) token.Token {
	return token.Token{Type: token.Character, Text: s}
}

func doctype(name string) token.Token {
	return token.Token{Type: token.Doctype, Doctype: token.DoctypeData{Name: name}}
}

func attr(name, value string) token.Attribute {
	return token.Attribute{Name: name, Value: value}
}

var eof = token.Token{Type: token.EOF}

// build runs a token stream through a fresh Builder and checks the ref
// accounting balanced out.
func build(t *testing.T, toks ...token.Token) *domtest.Handler {
	t.Helper()
	h := domtest.New()
	tb := treebuilder.New(h, h.Document)
	for _, tk := range toks {
		tb.Process(tk)
	}
	require.NoError(t, h.CheckRefs())
	return h
}

func TestImpliedElements(t *testing.T) {
	h := build(t, doctype("html"), startTag("p"), chars("Hi"), eof)
	assert.Equal(t, treebuilder.NoQuirks, h.Quirks)
	assert.Equal(t, `| <!DOCTYPE html>
| <html>
|   <head>
|   <body>
|     <p>
|       "Hi"
`, domtest.DumpString(h.Document))
}

func TestBareTextDocument(t *testing.T) {
	h := build(t, chars("x"), eof)
	assert.Equal(t, treebuilder.Quirks, h.Quirks)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     "x"
`, domtest.DumpString(h.Document))
}

func TestQuirksModes(t *testing.T) {
	tests := []struct {
		name string
		tok  token.Token
		want treebuilder.QuirksMode
	}{
		{"standard", doctype("html"), treebuilder.NoQuirks},
		{"force quirks", token.Token{Type: token.Doctype, Doctype: token.DoctypeData{Name: "html", ForceQuirks: true}}, treebuilder.Quirks},
		{"unknown name", doctype("svg"), treebuilder.Quirks},
		{
			"html 3.2 public id",
			token.Token{Type: token.Doctype, Doctype: token.DoctypeData{
				Name: "html", HasPublic: true, PublicID: "-//W3C//DTD HTML 3.2//EN",
			}},
			treebuilder.Quirks,
		},
		{
			"xhtml transitional is limited quirks",
			token.Token{Type: token.Doctype, Doctype: token.DoctypeData{
				Name: "html", HasPublic: true, PublicID: "-//W3C//DTD XHTML 1.0 Transitional//EN",
			}},
			treebuilder.LimitedQuirks,
		},
		{
			"4.01 transitional without system id",
			token.Token{Type: token.Doctype, Doctype: token.DoctypeData{
				Name: "html", HasPublic: true, PublicID: "-//W3C//DTD HTML 4.01 Transitional//EN",
			}},
			treebuilder.Quirks,
		},
		{
			"4.01 transitional with system id is limited",
			token.Token{Type: token.Doctype, Doctype: token.DoctypeData{
				Name: "html", HasPublic: true, PublicID: "-//W3C//DTD HTML 4.01 Transitional//EN",
				HasSystem: true, SystemID: "http://www.w3.org/TR/html4/loose.dtd",
			}},
			treebuilder.LimitedQuirks,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := build(t, tt.tok, eof)
			assert.Equal(t, tt.want, h.Quirks)
		})
	}
}

// The classic misnesting case: "<p>1<b>2<i>3</p>4</i>5</b>". The </p>
// closes the paragraph with <b> and <i> still open; reconstruction and the
// adoption agency rebuild the residual formatting runs as siblings.
func TestAdoptionAgencyResidualRuns(t *testing.T) {
	h := build(t,
		startTag("p"), chars("1"),
		startTag("b"), chars("2"),
		startTag("i"), chars("3"),
		endTag("p"), chars("4"),
		endTag("i"), chars("5"),
		endTag("b"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <p>
|       "1"
|       <b>
|         "2"
|         <i>
|           "3"
|     <b>
|       <i>
|         "4"
|       "5"
`, domtest.DumpString(h.Document))
}

// "<a>1<p>2</a>3</p>": the classic adoption-agency case with a furthest
// block — the <p> is rewired under a clone of the <a>.
func TestAdoptionAgencyFurthestBlock(t *testing.T) {
	h := build(t,
		startTag("a"), chars("1"),
		startTag("p"), chars("2"),
		endTag("a"), chars("3"),
		endTag("p"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <a>
|       "1"
|     <p>
|       <a>
|         "2"
|       "3"
`, domtest.DumpString(h.Document))
}

// A second <a> start tag while one is still in the formatting list
// implicitly closes the first.
func TestNestedAnchorImplicitClose(t *testing.T) {
	h := build(t,
		startTag("a"), chars("1"),
		startTag("a"), chars("2"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <a>
|       "1"
|     <a>
|       "2"
`, domtest.DumpString(h.Document))
}

func TestFosterParenting(t *testing.T) {
	h := build(t,
		startTag("table"), chars("A"),
		startTag("tr"), startTag("td"), chars("B"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     "A"
|     <table>
|       <tbody>
|         <tr>
|           <td>
|             "B"
`, domtest.DumpString(h.Document))
}

// Whitespace-only table text stays inside the table; it does not taint it.
func TestTableWhitespaceNotFostered(t *testing.T) {
	h := build(t,
		startTag("table"), chars(" "),
		startTag("tr"), endTag("table"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <table>
|       " "
|       <tbody>
|         <tr>
`, domtest.DumpString(h.Document))
}

func TestTableStructure(t *testing.T) {
	h := build(t,
		startTag("table"),
		startTag("caption"), chars("c"), endTag("caption"),
		startTag("colgroup"), startTag("col"), endTag("colgroup"),
		startTag("thead"), startTag("tr"), startTag("th"), chars("h"),
		startTag("tbody"), startTag("tr"), startTag("td"), chars("d"),
		endTag("table"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <table>
|       <caption>
|         "c"
|       <colgroup>
|         <col>
|       <thead>
|         <tr>
|           <th>
|             "h"
|       <tbody>
|         <tr>
|           <td>
|             "d"
`, domtest.DumpString(h.Document))
}

func TestHTMLAttributeMerging(t *testing.T) {
	h := build(t,
		startTag("html", attr("lang", "en")),
		startTag("html", attr("lang", "fr"), attr("class", "x")),
		eof,
	)
	assert.Equal(t, `| <html>
|   class="x"
|   lang="en"
|   <head>
|   <body>
`, domtest.DumpString(h.Document))
}

func TestIsindexExpansion(t *testing.T) {
	h := build(t,
		startTag("body"),
		startTag("isindex", attr("action", "/s"), attr("x", "y")),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <form>
|       action="/s"
|       <hr>
|       <p>
|         <label>
|           "This is a searchable index. Enter search keywords: "
|           <input>
|             name="isindex"
|             x="y"
|       <hr>
`, domtest.DumpString(h.Document))

	// The synthesised input is associated with the synthesised form.
	body := h.Document.Children[0].Children[1]
	form := body.Children[0]
	input := form.Children[1].Children[0].Children[1]
	require.Equal(t, "input", input.Tag.Name)
	assert.Same(t, form, input.FormOwner)
}

func TestFormPointer(t *testing.T) {
	h := build(t,
		startTag("form", attr("id", "f")),
		startTag("input", attr("type", "text")),
		// A second form while one is open is ignored.
		startTag("form", attr("id", "g")),
		eof,
	)
	body := h.Document.Children[0].Children[1]
	require.Len(t, body.Children, 1)
	form := body.Children[0]
	require.Equal(t, "form", form.Tag.Name)
	require.Len(t, form.Children, 1)
	assert.Same(t, form, form.Children[0].FormOwner)
}

func TestSelect(t *testing.T) {
	h := build(t,
		startTag("select"),
		startTag("option"), chars("a"),
		startTag("option"), chars("b"),
		startTag("optgroup"),
		startTag("option"), chars("c"),
		endTag("select"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <select>
|       <option>
|         "a"
|       <option>
|         "b"
|       <optgroup>
|         <option>
|           "c"
`, domtest.DumpString(h.Document))
}

func TestFrameset(t *testing.T) {
	h := build(t,
		startTag("frameset"),
		startTag("frame", attr("src", "a.html")),
		endTag("frameset"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <frameset>
|     <frame>
|       src="a.html"
`, domtest.DumpString(h.Document))
}

func TestForeignContent(t *testing.T) {
	h := build(t,
		startTag("svg"),
		startTag("foreignobject"),
		startTag("p"), chars("x"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <svg svg>
|       <svg foreignObject>
|         <p>
|           "x"
`, domtest.DumpString(h.Document))
}

// An HTML block-level start tag inside non-integration-point foreign
// content breaks out to the nearest HTML ancestor.
func TestForeignContentBreakout(t *testing.T) {
	h := build(t,
		startTag("svg"),
		startTag("circle"),
		startTag("div"), chars("x"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <svg svg>
|       <svg circle>
|     <div>
|       "x"
`, domtest.DumpString(h.Document))
}

func TestLeadingNewlineStrippedInPre(t *testing.T) {
	h := build(t,
		startTag("pre"), chars("\nkeep\n"), endTag("pre"),
		eof,
	)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <pre>
|       "keep\n"
`, domtest.DumpString(h.Document))
}

func TestHeadContent(t *testing.T) {
	h := build(t,
		doctype("html"),
		startTag("head"),
		startTag("meta", attr("name", "a"), attr("content", "b")),
		startTag("link", attr("rel", "x")),
		endTag("head"),
		startTag("body"),
		eof,
	)
	assert.Equal(t, `| <!DOCTYPE html>
| <html>
|   <head>
|     <meta>
|       content="b"
|       name="a"
|     <link>
|       rel="x"
|   <body>
`, domtest.DumpString(h.Document))
}

func TestMetaCharsetReported(t *testing.T) {
	h := build(t,
		startTag("head"),
		startTag("meta", attr("charset", "utf-8")),
		startTag("meta", attr("http-equiv", "Content-Type"), attr("content", "text/html; charset=latin1")),
		eof,
	)
	assert.Equal(t, []string{"utf-8", "latin1"}, h.EncodingLabels)
}

func TestEndTagBrInsertsElement(t *testing.T) {
	h := build(t, startTag("body"), endTag("br"), eof)
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <br>
`, domtest.DumpString(h.Document))
}

func TestParseErrorsReported(t *testing.T) {
	tests := []struct {
		name string
		toks []token.Token
	}{
		{"missing doctype", []token.Token{chars("x"), eof}},
		{"repeated html", []token.Token{startTag("html"), startTag("html"), eof}},
		{"repeated body", []token.Token{startTag("body"), startTag("body"), eof}},
		{"isindex", []token.Token{startTag("body"), startTag("isindex"), eof}},
		{"nested anchor", []token.Token{startTag("a"), startTag("a"), eof}},
		{"formatting element not current node", []token.Token{startTag("b"), startTag("div"), endTag("b"), eof}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msgs []string
			h := domtest.New()
			tb := treebuilder.New(h, h.Document, treebuilder.WithErrorHandler(func(line, col int, msg string) {
				msgs = append(msgs, msg)
			}))
			for _, tk := range tt.toks {
				tb.Process(tk)
			}
			assert.NotEmpty(t, msgs)
		})
	}
}

func TestCommentPlacement(t *testing.T) {
	h := build(t,
		token.Token{Type: token.Comment, Text: "pre"},
		doctype("html"),
		startTag("p"),
		token.Token{Type: token.Comment, Text: "in"},
		endTag("p"),
		eof,
	)
	assert.Equal(t, `| <!-- pre -->
| <!DOCTYPE html>
| <html>
|   <head>
|   <body>
|     <p>
|       <!-- in -->
`, domtest.DumpString(h.Document))
}

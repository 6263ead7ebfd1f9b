package hubbub_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hubbub "github.com/gohubbub/hubbub"
	"github.com/gohubbub/hubbub/charset"
	"github.com/gohubbub/hubbub/internal/domtest"
	"github.com/gohubbub/hubbub/token"
)

// parse feeds input through a tree-building parser in chunks of chunkSize
// bytes and returns the handler once the parse completed.
func parse(t *testing.T, input []byte, chunkSize int, opts ...hubbub.Option) (*hubbub.Parser, *domtest.Handler) {
	t.Helper()
	h := domtest.New()
	opts = append(opts, hubbub.WithTreeHandler(h, h.Document))
	p, err := hubbub.NewParser(opts...)
	require.NoError(t, err)
	for off := 0; off < len(input); off += chunkSize {
		end := off + chunkSize
		if end > len(input) {
			end = len(input)
		}
		require.NoError(t, p.ParseChunk(input[off:end]))
	}
	require.NoError(t, p.Completed())
	require.NoError(t, h.CheckRefs())
	return p, h
}

func TestEndToEndBasicDocument(t *testing.T) {
	for _, chunkSize := range []int{1, 3, 4096} {
		p, h := parse(t, []byte(`<!DOCTYPE html><p>Hi`), chunkSize)
		assert.Equal(t, `| <!DOCTYPE html>
| <html>
|   <head>
|   <body>
|     <p>
|       "Hi"
`, domtest.DumpString(h.Document), "chunk size %d", chunkSize)
		assert.Equal(t, 0, int(h.Quirks))

		cs, err := p.ReadCharset()
		require.NoError(t, err)
		assert.Equal(t, "windows-1252", cs.Name)
		assert.Equal(t, charset.Default, cs.Source)
	}
}

func TestEndToEndAdoptionAgency(t *testing.T) {
	_, h := parse(t, []byte(`<p>1<b>2<i>3</p>4</i>5</b>`), 4096)
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

func TestEndToEndFosterParenting(t *testing.T) {
	_, h := parse(t, []byte(`<table>A<tr><td>B`), 4096)
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

func TestEndToEndEntities(t *testing.T) {
	var texts []string
	p, err := hubbub.NewParser(hubbub.WithTokenHandler(func(tok token.Token) {
		if tok.Type == token.Character {
			texts = append(texts, tok.Text)
		}
	}))
	require.NoError(t, err)
	require.NoError(t, p.ParseChunk([]byte(`&amp;&#65;&unknown`)))
	require.NoError(t, p.Completed())
	assert.Equal(t, []string{"&A&unknown"}, texts)
}

func TestEndToEndScriptRawText(t *testing.T) {
	_, h := parse(t, []byte(`<script>a<b></script>`), 4096)
	assert.Equal(t, `| <html>
|   <head>
|     <script>
|       "a<b>"
|   <body>
`, domtest.DumpString(h.Document))
}

func TestEndToEndTitleRCDATA(t *testing.T) {
	_, h := parse(t, []byte(`<title>a&amp;b</title>x`), 4096)
	assert.Equal(t, `| <html>
|   <head>
|     <title>
|       "a&b"
|   <body>
|     "x"
`, domtest.DumpString(h.Document))
}

func TestEndToEndUTF16BOM(t *testing.T) {
	input := []byte{0xFE, 0xFF, 0x00, '<', 0x00, 'h', 0x00, 't', 0x00, 'm', 0x00, 'l', 0x00, '>'}

	// Without a declared encoding the first chunk reveals the mismatch.
	p, err := hubbub.NewParser()
	require.NoError(t, err)
	err = p.ParseChunk(input)
	var enc *hubbub.EncodingChangeError
	require.ErrorAs(t, err, &enc)
	assert.Equal(t, "UTF-16BE", enc.Name)
	assert.Equal(t, charset.MIBUTF16BE, enc.MIB)
	assert.True(t, errors.Is(err, &hubbub.EncodingChangeError{}))

	// Every later call keeps reporting the same condition.
	require.ErrorAs(t, p.Completed(), &enc)

	// Recreated with the detected encoding declared, the document parses.
	var kinds []token.Type
	var names []string
	p, err = hubbub.NewParser(
		hubbub.WithDeclaredEncoding(enc.Name),
		hubbub.WithTokenHandler(func(tok token.Token) {
			kinds = append(kinds, tok.Type)
			if tok.Type == token.StartTag {
				names = append(names, tok.Tag.Name)
			}
		}))
	require.NoError(t, err)
	require.NoError(t, p.ParseChunk(input))
	require.NoError(t, p.Completed())
	assert.Equal(t, []token.Type{token.StartTag, token.EOF}, kinds)
	assert.Equal(t, []string{"html"}, names)

	cs, err := p.ReadCharset()
	require.NoError(t, err)
	assert.Equal(t, "UTF-16BE", cs.Name)
	assert.Equal(t, charset.Dictated, cs.Source)
}

func TestEndToEndMetaEncodingChange(t *testing.T) {
	// The <meta> sits past the 512-byte pre-scan window, so detection falls
	// back to the default encoding, which the mid-parse <meta> contradicts.
	input := []byte(`<head><!--` + strings.Repeat("x", 520) + `--><meta charset="utf-8"><body>ok`)

	h := domtest.New()
	p, err := hubbub.NewParser(hubbub.WithTreeHandler(h, h.Document))
	require.NoError(t, err)
	err = p.ParseChunk(input)
	var enc *hubbub.EncodingChangeError
	require.ErrorAs(t, err, &enc)
	assert.Equal(t, "UTF-8", enc.Name)

	// The embedder restarts with the new encoding; the same <meta> is then
	// a no-op because the declared encoding matches.
	_, h = parse(t, input, 4096, hubbub.WithDeclaredEncoding(enc.Name))
	body := h.Document.Children[0].Children[1]
	require.NotEmpty(t, body.Children)
	assert.Equal(t, "ok", body.Children[0].Data)
}

// A <meta> agreeing with the encoding already in use never aborts.
func TestMetaSameEncodingIgnored(t *testing.T) {
	_, h := parse(t, []byte(`<meta charset="utf-8">x`), 4096, hubbub.WithDeclaredEncoding("utf-8"))
	assert.Equal(t, []string{"utf-8"}, h.EncodingLabels)
}

func TestParseExtraneousChunk(t *testing.T) {
	h := domtest.New()
	p, err := hubbub.NewParser(hubbub.WithTreeHandler(h, h.Document))
	require.NoError(t, err)

	require.NoError(t, p.ParseChunk([]byte(`<p>a`)))
	require.NoError(t, p.ParseExtraneousChunk([]byte(`b<em>c`)))
	require.NoError(t, p.Completed())
	require.NoError(t, h.CheckRefs())
	assert.Equal(t, `| <html>
|   <head>
|   <body>
|     <p>
|       "ab"
|       <em>
|         "c"
`, domtest.DumpString(h.Document))
}

func TestClaimBuffer(t *testing.T) {
	input := []byte(`<!DOCTYPE html><p>Hi`)
	h := domtest.New()
	p, err := hubbub.NewParser(hubbub.WithTreeHandler(h, h.Document))
	require.NoError(t, err)
	require.NoError(t, p.ParseChunk(input))

	_, err = p.ClaimBuffer()
	assert.ErrorIs(t, err, hubbub.ErrInvalid)

	require.NoError(t, p.Completed())
	b, err := p.ClaimBuffer()
	require.NoError(t, err)
	assert.Equal(t, input, b) // pure ASCII decodes to itself
}

func TestUsageErrors(t *testing.T) {
	_, err := hubbub.NewParser(
		hubbub.WithTokenHandler(func(token.Token) {}),
		hubbub.WithTreeHandler(domtest.New(), nil),
	)
	assert.ErrorIs(t, err, hubbub.ErrBadParam)

	p, err := hubbub.NewParser()
	require.NoError(t, err)

	_, err = p.ReadCharset()
	assert.ErrorIs(t, err, hubbub.ErrNeedData)

	// Extraneous data before any real chunk has no insertion point.
	assert.ErrorIs(t, p.ParseExtraneousChunk([]byte("x")), hubbub.ErrBadParam)

	require.NoError(t, p.Completed())
	assert.ErrorIs(t, p.ParseChunk([]byte("y")), hubbub.ErrBadParam)
	assert.ErrorIs(t, p.Completed(), hubbub.ErrBadParam)
}

func TestParseErrorReporting(t *testing.T) {
	var msgs []string
	h := domtest.New()
	p, err := hubbub.NewParser(
		hubbub.WithTreeHandler(h, h.Document),
		hubbub.WithErrorHandler(func(line, col int, msg string) {
			msgs = append(msgs, msg)
		}))
	require.NoError(t, err)
	require.NoError(t, p.ParseChunk([]byte(`<p id=1 id=2>&#x110000;`)))
	require.NoError(t, p.Completed())
	assert.NotEmpty(t, msgs)
}

// The full pipeline handles CRLF, NUL and stray bytes without ever giving
// up; this is the "parse errors never abort" property end to end.
func TestRobustness(t *testing.T) {
	inputs := [][]byte{
		[]byte("<p>a\r\nb\rc"),
		{'<', 'p', '>', 0x00, 'x'},
		[]byte("<"),
		[]byte("</>"),
		[]byte("<!"),
		[]byte("<p <b attr = = >"),
		[]byte("&#x;&#;&;"),
		{0xFF, 0xFE, 0xFF},
	}
	for _, input := range inputs {
		t.Run(string(input), func(t *testing.T) {
			_, h := parse(t, input, 1)
			require.NoError(t, h.CheckRefs())
		})
	}
}

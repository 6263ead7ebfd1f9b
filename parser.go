// Package hubbub is an HTML5-conformant push parser: feed it the raw bytes
// of a document chunk by chunk and it drives a caller-supplied TreeHandler
// through the HTML5 tree construction algorithm (or, if a TokenHandler is
// installed instead, hands over the raw token stream). Encoding detection,
// the tokeniser and the treebuilder live in their own subpackages; this
// package is the embedder-facing façade tying them together (§6).
package hubbub

import (
	"errors"

	"github.com/gohubbub/hubbub/charset"
	"github.com/gohubbub/hubbub/inputstream"
	"github.com/gohubbub/hubbub/token"
	"github.com/gohubbub/hubbub/tokenizer"
	"github.com/gohubbub/hubbub/treebuilder"
)

// TokenHandler receives every token the tokeniser emits. Installing one
// opts out of tree construction entirely (§6 "Setting TokenHandler tears
// down the default treebuilder").
type TokenHandler func(tok token.Token)

// ErrorHandler receives recoverable parse errors (§7); it never aborts the
// parse.
type ErrorHandler = tokenizer.ErrorHandler

// Option configures a new Parser.
type Option func(*config)

type config struct {
	declared     string
	tokenHandler TokenHandler
	errHandler   ErrorHandler
	treeHandler  treebuilder.TreeHandler
	doc          treebuilder.Node
	scripting    bool
	contentModel tokenizer.ContentModel
}

// WithDeclaredEncoding dictates the document encoding up front (e.g. from
// an HTTP Content-Type header); it wins over BOM and <meta> detection
// (§4.1 Dictated).
func WithDeclaredEncoding(label string) Option {
	return func(c *config) { c.declared = label }
}

// WithTokenHandler installs h as the token sink and disables tree
// construction.
func WithTokenHandler(h TokenHandler) Option {
	return func(c *config) { c.tokenHandler = h }
}

// WithErrorHandler installs a recoverable-parse-error callback.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) { c.errHandler = h }
}

// WithTreeHandler installs the tree construction callbacks and the document
// node they hang off (§6 TreeHandler + DocumentNode options).
func WithTreeHandler(th treebuilder.TreeHandler, doc treebuilder.Node) Option {
	return func(c *config) {
		c.treeHandler = th
		c.doc = doc
	}
}

// WithScripting sets the scripting-enabled flag, which changes how
// <noscript> content is parsed (§6 EnableScripting).
func WithScripting(enabled bool) Option {
	return func(c *config) { c.scripting = enabled }
}

// WithContentModel overrides the tokeniser's initial content model (§6
// ContentModel option); the default is PCDATA.
func WithContentModel(cm tokenizer.ContentModel) Option {
	return func(c *config) { c.contentModel = cm }
}

// Parser is the embedder-facing parse pipeline: input stream, tokeniser
// and (unless a TokenHandler replaced it) treebuilder. It is not safe for
// concurrent use.
type Parser struct {
	stream *inputstream.Stream
	tok    *tokenizer.Tokenizer
	tb     *treebuilder.Builder

	tokenHandler TokenHandler
	declared     string

	started   bool
	completed bool

	// pendingEnc is set when a mid-parse <meta> (or the first chunk's BOM)
	// demands a different encoding; once set the parser is dead and every
	// ParseChunk returns it (§6 "EncodingChange is special").
	pendingEnc *EncodingChangeError
}

// NewParser creates a Parser. With no options it parses into nothing — an
// embedder installs either a TreeHandler or a TokenHandler; NewParser
// returns ErrBadParam if both are set at once.
func NewParser(opts ...Option) (*Parser, error) {
	var c config
	for _, o := range opts {
		o(&c)
	}
	if c.tokenHandler != nil && c.treeHandler != nil {
		return nil, ErrBadParam
	}

	p := &Parser{
		declared:     c.declared,
		tokenHandler: c.tokenHandler,
	}
	p.stream = inputstream.New(inputstream.WithDeclaredEncoding(c.declared))

	var tokOpts []tokenizer.Option
	if c.errHandler != nil {
		tokOpts = append(tokOpts, tokenizer.WithErrorHandler(c.errHandler))
	}
	p.tok = tokenizer.New(p.stream, tokOpts...)
	if c.contentModel != tokenizer.PCDATA {
		p.tok.SetContentModel(c.contentModel)
	}

	if c.treeHandler != nil {
		tbOpts := []treebuilder.Option{treebuilder.WithScripting(c.scripting)}
		if c.errHandler != nil {
			tbOpts = append(tbOpts, treebuilder.WithErrorHandler(treebuilder.ErrorHandler(c.errHandler)))
		}
		p.tb = treebuilder.New(c.treeHandler, c.doc, tbOpts...)
		p.tb.ContentModelHook = func(model int, lastStartTag string) {
			p.tok.SetContentModel(tokenizer.ContentModel(model))
			if lastStartTag != "" {
				p.tok.SetLastStartTag(lastStartTag)
			}
		}
		p.tb.EncodingChangeHook = p.onMetaCharset
	}
	return p, nil
}

// ParseChunk feeds more document bytes. It returns an *EncodingChangeError
// when the parser must be torn down and recreated with a different
// declared encoding (§6); any tokens produced before that point have
// already been delivered.
func (p *Parser) ParseChunk(b []byte) error {
	if p.pendingEnc != nil {
		return p.pendingEnc
	}
	if p.completed {
		return ErrBadParam
	}
	if err := p.stream.Append(b); err != nil {
		return err
	}
	if !p.started {
		p.started = true
		if err := p.checkDetectedEncoding(); err != nil {
			return err
		}
	}
	return p.pump()
}

// ParseExtraneousChunk splices already-UTF-8 bytes in at the current parse
// point, for script-generated content (§6). The WHATWG insertion-point
// bookkeeping for document.write interleaving is deliberately absent
// (§9 Open Questions).
func (p *Parser) ParseExtraneousChunk(utf8Bytes []byte) error {
	if p.pendingEnc != nil {
		return p.pendingEnc
	}
	if p.completed || !p.started {
		return ErrBadParam
	}
	if err := p.stream.Insert(utf8Bytes); err != nil {
		return ErrBadParam
	}
	return p.pump()
}

// Completed signals end of input and drains the pipeline (§6).
func (p *Parser) Completed() error {
	if p.pendingEnc != nil {
		return p.pendingEnc
	}
	if p.completed {
		return ErrBadParam
	}
	if err := p.stream.AppendEOF(); err != nil {
		return err
	}
	if !p.started {
		p.started = true
		if err := p.checkDetectedEncoding(); err != nil {
			return err
		}
	}
	if err := p.pump(); err != nil {
		return err
	}
	p.completed = true
	return nil
}

// ReadCharset reports the encoding in use and how it was determined.
// Before the first chunk has been fed there is nothing to report and
// ErrNeedData is returned (§6).
func (p *Parser) ReadCharset() (charset.Result, error) {
	r, ok := p.stream.Charset()
	if !ok {
		return charset.Result{}, ErrNeedData
	}
	return r, nil
}

// ClaimBuffer transfers ownership of the decoded UTF-8 document buffer to
// the caller; legal only after Completed (§6).
func (p *Parser) ClaimBuffer() ([]byte, error) {
	if !p.completed {
		return nil, ErrInvalid
	}
	b, err := p.stream.ClaimBuffer()
	if err != nil {
		return nil, ErrInvalid
	}
	return b, nil
}

// pump drains the tokeniser until it runs out of decoded bytes, feeding
// each token to the treebuilder or the installed token handler.
func (p *Parser) pump() error {
	for {
		tok, err := p.tok.Next()
		if err != nil {
			if errors.Is(err, tokenizer.ErrNeedData) {
				return nil
			}
			return err
		}
		if p.tokenHandler != nil {
			p.tokenHandler(tok)
		} else if p.tb != nil {
			p.tb.Process(tok)
			p.tok.AllowCDATASections(p.tb.InForeignContent())
			if p.pendingEnc != nil {
				return p.pendingEnc
			}
		}
		if tok.Type == token.EOF {
			return nil
		}
	}
}

// checkDetectedEncoding aborts the parse when the first chunk's BOM proves
// the stream is in a wide encoding the parser wasn't created for (§8
// scenario 6): detection is confident, so the embedder must restart with
// the detected encoding declared.
func (p *Parser) checkDetectedEncoding() error {
	r, ok := p.stream.Charset()
	if !ok || p.declared != "" || r.Source != charset.Detected {
		return nil
	}
	switch r.MIB {
	case charset.MIBUTF16, charset.MIBUTF16BE, charset.MIBUTF16LE,
		charset.MIBUTF32, charset.MIBUTF32BE, charset.MIBUTF32LE:
		p.pendingEnc = &EncodingChangeError{Name: r.Name, MIB: r.MIB}
		return p.pendingEnc
	}
	return nil
}

// onMetaCharset decides whether a <meta charset> found mid-parse actually
// requires a restart (§4.5 "InHead" highlights): the change is ignored
// when the label is unrecognised, names a non-ASCII-superset encoding,
// matches the encoding already in use, or the current encoding was settled
// confidently (BOM-detected, caller-dictated, or found by the <meta>
// pre-scan).
func (p *Parser) onMetaCharset(label string) {
	if p.pendingEnc != nil {
		return
	}
	a, ok := charset.Canonicalize(label)
	if !ok {
		return
	}
	switch a.MIB {
	case charset.MIBUTF16, charset.MIBUTF16BE, charset.MIBUTF16LE,
		charset.MIBUTF32, charset.MIBUTF32BE, charset.MIBUTF32LE:
		return
	}
	cur, fixed := p.stream.Charset()
	if !fixed {
		return
	}
	if cur.MIB == a.MIB || cur.Source == charset.Dictated || cur.Source == charset.Detected || cur.Source == charset.Document {
		return
	}
	p.pendingEnc = &EncodingChangeError{Name: a.Canonical, MIB: a.MIB}
}

package treebuilder

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

// mathMLAttrAdjustments and svgAttrAdjustments rename a small set of
// camel-cased attributes that foreign content carries over from XML
// (§4.5 "adjust MathML attributes" / "adjust SVG attributes"); this is a
// representative subset of the WHATWG tables rather than an exhaustive
// transcription.
var mathMLAttrAdjustments = map[string]string{
	"definitionurl": "definitionURL",
}

var svgAttrAdjustments = map[string]string{
	"attributename":     "attributeName",
	"attributetype":     "attributeType",
	"basefrequency":     "baseFrequency",
	"baseprofile":       "baseProfile",
	"calcmode":          "calcMode",
	"clippathunits":     "clipPathUnits",
	"diffuseconstant":   "diffuseConstant",
	"edgemode":          "edgeMode",
	"filterunits":       "filterUnits",
	"glyphref":          "glyphRef",
	"gradienttransform": "gradientTransform",
	"gradientunits":     "gradientUnits",
	"kernelmatrix":      "kernelMatrix",
	"kernelunitlength":  "kernelUnitLength",
	"keypoints":         "keyPoints",
	"keysplines":        "keySplines",
	"keytimes":          "keyTimes",
	"lengthadjust":      "lengthAdjust",
	"limitingconeangle": "limitingConeAngle",
	"markerheight":      "markerHeight",
	"markerunits":       "markerUnits",
	"markerwidth":       "markerWidth",
	"maskcontentunits":  "maskContentUnits",
	"maskunits":         "maskUnits",
	"numoctaves":        "numOctaves",
	"pathlength":        "pathLength",
	"patterncontentunits": "patternContentUnits",
	"patterntransform":    "patternTransform",
	"patternunits":        "patternUnits",
	"pointsatx":           "pointsAtX",
	"pointsaty":           "pointsAtY",
	"pointsatz":           "pointsAtZ",
	"preservealpha":       "preserveAlpha",
	"preserveaspectratio": "preserveAspectRatio",
	"primitiveunits":      "primitiveUnits",
	"refx":                "refX",
	"refy":                "refY",
	"repeatcount":         "repeatCount",
	"repeatdur":           "repeatDur",
	"requiredextensions":  "requiredExtensions",
	"requiredfeatures":    "requiredFeatures",
	"specularconstant":    "specularConstant",
	"specularexponent":    "specularExponent",
	"spreadmethod":        "spreadMethod",
	"startoffset":         "startOffset",
	"stddeviation":        "stdDeviation",
	"stitchtiles":         "stitchTiles",
	"surfacescale":        "surfaceScale",
	"systemlanguage":      "systemLanguage",
	"tablevalues":         "tableValues",
	"targetx":             "targetX",
	"targety":             "targetY",
	"textlength":          "textLength",
	"viewbox":             "viewBox",
	"viewtarget":          "viewTarget",
	"xchannelselector":    "xChannelSelector",
	"ychannelselector":    "yChannelSelector",
	"zoomandpan":          "zoomAndPan",
}

// foreignAttrNamespaces adjusts foreign attributes whose name uses a
// colon-prefixed form belonging to the xlink/xml/xmlns namespaces (§4.5
// "adjust foreign attributes").
var foreignAttrNamespaces = map[string]token.Namespace{
	"xlink:actuate": token.XLink,
	"xlink:arcrole": token.XLink,
	"xlink:href":    token.XLink,
	"xlink:role":    token.XLink,
	"xlink:show":    token.XLink,
	"xlink:title":   token.XLink,
	"xlink:type":    token.XLink,
	"xml:lang":      token.XML,
	"xml:space":     token.XML,
	"xmlns":         token.XMLNS,
	"xmlns:xlink":   token.XMLNS,
}

// svgTagNameAdjustments restores the mixed case of a handful of SVG tag
// names the tokenizer lowercases (§4.5 "adjust SVG tag names").
var svgTagNameAdjustments = map[string]string{
	"altglyph":            "altGlyph",
	"altglyphdef":         "altGlyphDef",
	"altglyphitem":        "altGlyphItem",
	"animatecolor":        "animateColor",
	"animatemotion":       "animateMotion",
	"animatetransform":    "animateTransform",
	"clippath":            "clipPath",
	"feblend":             "feBlend",
	"fecolormatrix":       "feColorMatrix",
	"fecomponenttransfer": "feComponentTransfer",
	"fecomposite":         "feComposite",
	"feconvolvematrix":    "feConvolveMatrix",
	"fediffuselighting":   "feDiffuseLighting",
	"fedisplacementmap":   "feDisplacementMap",
	"fedistantlight":      "feDistantLight",
	"fedropshadow":        "feDropShadow",
	"feflood":             "feFlood",
	"fefunca":             "feFuncA",
	"fefuncb":             "feFuncB",
	"fefuncg":             "feFuncG",
	"fefuncr":             "feFuncR",
	"fegaussianblur":      "feGaussianBlur",
	"feimage":             "feImage",
	"femerge":             "feMerge",
	"femergenode":         "feMergeNode",
	"femorphology":        "feMorphology",
	"feoffset":            "feOffset",
	"fepointlight":        "fePointLight",
	"fespecularlighting":  "feSpecularLighting",
	"fespotlight":         "feSpotLight",
	"fetile":              "feTile",
	"feturbulence":        "feTurbulence",
	"foreignobject":       "foreignObject",
	"glyphref":            "glyphRef",
	"lineargradient":      "linearGradient",
	"radialgradient":      "radialGradient",
	"textpath":            "textPath",
}

// adjustForeignTag rewrites tag.Attr in place using table and sets the
// namespace of xlink/xml/xmlns attributes; tag names are left to
// adjustSVGTagName.
func adjustForeignTag(tag *token.TagData, table map[string]string) {
	for i := range tag.Attr {
		if repl, ok := table[tag.Attr[i].Name]; ok {
			tag.Attr[i].Name = repl
		}
		if ns, ok := foreignAttrNamespaces[tag.Attr[i].Name]; ok {
			tag.Attr[i].Namespace = ns
		}
	}
}

func adjustSVGTagName(tag *token.TagData) {
	if repl, ok := svgTagNameAdjustments[tag.Name]; ok {
		tag.Name = repl
		tag.Atom = atom.Lookup([]byte(repl))
	}
}

// currentNodeIsForeign reports whether tokens should be processed by the
// foreign-content rules of §4.5 "The 'in foreign content' insertion mode"
// rather than the ordinary insertion mode, i.e. the current node has a
// non-HTML namespace and isn't one of the integration-point exceptions.
func (tb *Builder) currentNodeIsForeign(tok token.Token) bool {
	e, ok := tb.oe.top()
	if !ok {
		return false
	}
	if e.tag.Namespace == token.HTML {
		return false
	}
	if isMathMLTextIntegrationPoint(e.tag) {
		if tok.Type == token.Character {
			return false
		}
		if tok.Type == token.StartTag && tok.Tag.Atom != atom.Mglyph && tok.Tag.Atom != atom.Malignmark {
			return false
		}
	}
	if e.tag.Namespace == token.MathML && e.tag.Atom == atom.AnnotationXml && tok.Type == token.StartTag && tok.Tag.Atom == atom.Svg {
		return false
	}
	if isHTMLIntegrationPoint(e.tag) && (tok.Type == token.StartTag || tok.Type == token.Character) {
		return false
	}
	return true
}

func isMathMLTextIntegrationPoint(tag token.TagData) bool {
	if tag.Namespace != token.MathML {
		return false
	}
	switch tag.Atom {
	case atom.Mi, atom.Mo, atom.Mn, atom.Ms, atom.Mtext:
		return true
	}
	return false
}

func isHTMLIntegrationPoint(tag token.TagData) bool {
	switch tag.Namespace {
	case token.MathML:
		if tag.Atom != atom.AnnotationXml {
			return false
		}
		enc, ok := tag.Attr0("encoding")
		if !ok {
			return false
		}
		enc = strings.ToLower(enc)
		return enc == "text/html" || enc == "application/xhtml+xml"
	case token.SVG:
		switch tag.Atom {
		case atom.ForeignObject, atom.Desc, atom.Title:
			return true
		}
	}
	return false
}

// foreignContentIM implements §4.5 "The 'in foreign content' insertion
// mode", applied instead of the ordinary mode whenever
// currentNodeIsForeign reports true. Modeled on x/net/html's
// parseForeignContent.
func (tb *Builder) foreignContentIM(tok token.Token) bool {
	switch tok.Type {
	case token.Character:
		d := strings.ReplaceAll(tok.Text, "\x00", "�")
		tb.addText(d)
		if !isWhitespaceText(d) {
			tb.framesetOK = false
		}
		return true
	case token.Comment:
		tb.addChild(elem{node: tb.handler.CreateComment(tok.Text)})
		return true
	case token.StartTag:
		switch tok.Tag.Atom {
		case atom.B, atom.Big, atom.Blockquote, atom.Body, atom.Br, atom.Center, atom.Code, atom.Dd,
			atom.Div, atom.Dl, atom.Dt, atom.Em, atom.Embed, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5,
			atom.H6, atom.Head, atom.Hr, atom.I, atom.Img, atom.Li, atom.Listing, atom.Menu, atom.Meta,
			atom.Nobr, atom.Ol, atom.P, atom.Pre, atom.Ruby, atom.S, atom.Small, atom.Span, atom.Strong,
			atom.Strike, atom.Sub, atom.Sup, atom.Table, atom.Tt, atom.U, atom.Ul, atom.Var:
			tb.breakOutOfForeignContent()
			return false
		case atom.Font:
			_, hasColor := tok.Tag.Attr0("color")
			_, hasFace := tok.Tag.Attr0("face")
			_, hasSize := tok.Tag.Attr0("size")
			if hasColor || hasFace || hasSize {
				tb.breakOutOfForeignContent()
				return false
			}
		}

		ns := tb.topTag().Namespace
		switch ns {
		case token.MathML:
			adjustForeignTag(&tok.Tag, mathMLAttrAdjustments)
		case token.SVG:
			adjustSVGTagName(&tok.Tag)
			adjustForeignTag(&tok.Tag, svgAttrAdjustments)
		}
		for i := range tok.Tag.Attr {
			if _, ok := foreignAttrNamespaces[tok.Tag.Attr[i].Name]; !ok {
				tok.Tag.Attr[i].Namespace = token.Null
			}
		}
		tok.Tag.Namespace = ns
		tb.addElement(tok.Tag)
		if tok.Tag.SelfClosing {
			tb.popCurrent()
		}
		return true
	case token.EndTag:
		if tok.Tag.Atom == atom.Script && tb.topTag().Atom == atom.Script && tb.topTag().Namespace == token.SVG {
			tb.popCurrent()
			return true
		}
		for i := len(tb.oe) - 1; i > 0; i-- {
			e := tb.oe[i]
			if !strings.EqualFold(e.tag.Name, tok.Tag.Name) {
				if e.tag.Namespace == token.HTML {
					return tb.step(tok)
				}
				continue
			}
			tb.oe.popTo(tb.handler, i)
			return true
		}
		return true
	}
	return true
}

// breakOutOfForeignContent pops foreign elements until an HTML-namespaced
// one is current, then reprocesses the token in the ordinary insertion
// mode (§4.5 step within "in foreign content" for the listed start tags).
func (tb *Builder) breakOutOfForeignContent() {
	for {
		e, ok := tb.oe.top()
		if !ok || e.tag.Namespace == token.HTML {
			return
		}
		tb.popCurrent()
	}
}

package token

import "golang.org/x/net/html/atom"

// Namespace is the fixed small set of namespaces a tag or element-stack
// frame can carry (§6 "Namespaces").
type Namespace int

const (
	Null Namespace = iota
	HTML
	MathML
	SVG
	XLink
	XML
	XMLNS
)

func (n Namespace) String() string {
	switch n {
	case HTML:
		return "html"
	case MathML:
		return "math"
	case SVG:
		return "svg"
	case XLink:
		return "xlink"
	case XML:
		return "xml"
	case XMLNS:
		return "xmlns"
	default:
		return ""
	}
}

// Type identifies the kind of value a Token carries.
type Type int

const (
	Invalid Type = iota
	Doctype
	StartTag
	EndTag
	Comment
	Character
	EOF
)

func (t Type) String() string {
	switch t {
	case Doctype:
		return "Doctype"
	case StartTag:
		return "StartTag"
	case EndTag:
		return "EndTag"
	case Comment:
		return "Comment"
	case Character:
		return "Character"
	case EOF:
		return "EOF"
	default:
		return "Invalid"
	}
}

// Attribute is a single name/value pair on a Tag token. Order of Attr
// within a Tag is the source order of the first occurrence; duplicates are
// dropped at emission time (§4.4 "Duplicate-attribute removal").
type Attribute struct {
	Namespace Namespace
	Name      string
	Atom      atom.Atom // zero for names not in the well-known table
	Value     string
	Span      Span
}

// DoctypeData is the payload of a Doctype token (§3 "Token").
type DoctypeData struct {
	Name        string
	PublicID    string
	SystemID    string
	HasPublic   bool
	HasSystem   bool
	ForceQuirks bool
}

// TagData is the payload shared by StartTag and EndTag tokens (§3 "Token").
type TagData struct {
	Name        string
	Atom        atom.Atom
	Namespace   Namespace
	Attr        []Attribute
	SelfClosing bool
}

// Token is a tagged value produced by the tokeniser and consumed by the
// treebuilder (or a caller-installed token handler). Exactly one of the
// payload fields is meaningful, selected by Type.
type Token struct {
	Type Type
	Span Span

	Doctype DoctypeData
	Tag     TagData

	// Text holds the decoded text for Comment and Character tokens. It is
	// already a Go string (copied out of the input buffer at emission
	// time) rather than an (offset,length) pair, because the treebuilder
	// frequently mutates or concatenates it (character-run batching,
	// leading-LF stripping, NUL replacement) and the producing buffer may
	// have moved or been reused by then.
	Text string
}

// String renders a short human-readable form, useful in tests and CLI
// tooling. It is not used by the parser itself.
func (t Token) String() string {
	switch t.Type {
	case Doctype:
		return "<!DOCTYPE " + t.Doctype.Name + ">"
	case StartTag:
		return "<" + t.Tag.Name + ">"
	case EndTag:
		return "</" + t.Tag.Name + ">"
	case Comment:
		return "<!--" + t.Text + "-->"
	case Character:
		return t.Text
	case EOF:
		return ""
	default:
		return "Invalid(" + t.Text + ")"
	}
}

// Attr0 looks up the first attribute with the given lowercase name.
func (t *TagData) Attr0(name string) (string, bool) {
	for _, a := range t.Attr {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

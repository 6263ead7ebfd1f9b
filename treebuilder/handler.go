// Package treebuilder implements the HTML5 tree construction algorithm
// (§4.5): the ~20 insertion modes, the stack of open elements and active
// formatting elements list, the adoption agency algorithm, foster
// parenting and foreign-content handling. It drives an embedder-supplied
// TreeHandler rather than building any particular DOM representation
// itself, mirroring the embedder contract described by §5.
package treebuilder

import "github.com/gohubbub/hubbub/token"

// QuirksMode is the tri-state document mode derived from the DOCTYPE
// (§4.5 "Quirks mode").
type QuirksMode int

const (
	NoQuirks QuirksMode = iota
	Quirks
	LimitedQuirks
)

// Node is an opaque handle into the embedder's own tree representation.
// The treebuilder never dereferences it; it only ever passes handles it
// received from a prior TreeHandler call back to the handler.
type Node any

// TreeHandler is the embedder-implemented side of tree construction (§5
// "Tree construction handler"). Every mutating call happens in document
// order; the treebuilder holds no node state of its own beyond these
// handles, so an embedder backing them directly with its own DOM avoids a
// translation layer entirely.
type TreeHandler interface {
	CreateComment(text string) Node
	CreateDoctype(d token.DoctypeData) Node
	CreateElement(tag token.TagData) Node
	CreateText(text string) Node

	// RefNode/UnrefNode implement the reference-counted node ownership
	// contract (§5): the treebuilder calls RefNode whenever it keeps a
	// handle beyond the call that produced it (element stack, afe list,
	// the form-owner pointer) and UnrefNode once it discards that handle.
	RefNode(n Node)
	UnrefNode(n Node)

	AppendChild(parent, child Node)
	InsertBefore(parent, child, before Node)
	RemoveChild(parent, child Node)

	CloneNode(n Node) Node
	ReparentChildren(from, to Node)

	GetParent(n Node) (Node, bool)
	HasChildren(n Node) bool

	// FormAssociate records that n was created while a <form> owner was in
	// scope (§4.5 "form element pointer").
	FormAssociate(n, form Node)
	AddAttributes(n Node, attrs []token.Attribute)

	SetQuirksMode(m QuirksMode)

	// EncodingChange notifies the embedder of every <meta> handled by the
	// InHead rules that declares a charset (through its charset attribute
	// or a "charset=" inside its content attribute), passing the label as
	// written (§6 "Encoding change"). The treebuilder does not compare the
	// label with the encoding in use and does not restart itself; deciding
	// whether a restart is needed is left to the embedder.
	EncodingChange(label string)
}

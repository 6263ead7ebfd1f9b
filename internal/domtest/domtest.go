// Package domtest is a minimal in-memory document tree implementing
// treebuilder.TreeHandler. It exists so the tree construction stage has a
// callee in tests and in cmd/hubbubcat; it is not a DOM implementation and
// deliberately supports nothing beyond what the treebuilder calls for.
package domtest

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gohubbub/hubbub/token"
	"github.com/gohubbub/hubbub/treebuilder"
)

// NodeType discriminates the Node variants the treebuilder can create.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
)

// Node is one tree node. Exported fields keep go-cmp diffs readable in
// tests.
type Node struct {
	Type      NodeType
	Tag       token.TagData
	Data      string // text / comment payload
	Doctype   token.DoctypeData
	Attr      []token.Attribute
	Parent    *Node
	Children  []*Node
	FormOwner *Node

	refs int
}

// Refs reports the node's current reference count: 1 for a node owned only
// by its creation (or the tree), plus 1 per handle the treebuilder still
// holds.
func (n *Node) Refs() int { return n.refs }

// Handler implements treebuilder.TreeHandler over *Node.
type Handler struct {
	Document *Node
	Quirks   treebuilder.QuirksMode

	// EncodingLabels collects every <meta charset> label the treebuilder
	// reported, in document order.
	EncodingLabels []string

	// nodes tracks every node ever created, for leak checks.
	nodes []*Node
}

// New creates a Handler with a fresh document node.
func New() *Handler {
	h := &Handler{}
	h.Document = h.newNode(DocumentNode)
	return h
}

func (h *Handler) newNode(t NodeType) *Node {
	n := &Node{Type: t, refs: 1}
	h.nodes = append(h.nodes, n)
	return n
}

func (h *Handler) CreateComment(text string) treebuilder.Node {
	n := h.newNode(CommentNode)
	n.Data = text
	return n
}

func (h *Handler) CreateDoctype(d token.DoctypeData) treebuilder.Node {
	n := h.newNode(DoctypeNode)
	n.Doctype = d
	return n
}

func (h *Handler) CreateElement(tag token.TagData) treebuilder.Node {
	n := h.newNode(ElementNode)
	n.Tag = tag
	n.Attr = append([]token.Attribute{}, tag.Attr...)
	return n
}

func (h *Handler) CreateText(text string) treebuilder.Node {
	n := h.newNode(TextNode)
	n.Data = text
	return n
}

func (h *Handler) RefNode(n treebuilder.Node)   { n.(*Node).refs++ }
func (h *Handler) UnrefNode(n treebuilder.Node) { n.(*Node).refs-- }

// AppendChild appends child under parent, coalescing adjacent text nodes
// the way a real DOM would.
func (h *Handler) AppendChild(parent, child treebuilder.Node) {
	p, c := parent.(*Node), child.(*Node)
	if c.Type == TextNode && len(p.Children) > 0 {
		if last := p.Children[len(p.Children)-1]; last.Type == TextNode {
			last.Data += c.Data
			return
		}
	}
	c.Parent = p
	p.Children = append(p.Children, c)
}

func (h *Handler) InsertBefore(parent, child, before treebuilder.Node) {
	p, c, ref := parent.(*Node), child.(*Node), before.(*Node)
	for i, sib := range p.Children {
		if sib == ref {
			if c.Type == TextNode && i > 0 && p.Children[i-1].Type == TextNode {
				p.Children[i-1].Data += c.Data
				return
			}
			c.Parent = p
			p.Children = append(p.Children[:i], append([]*Node{c}, p.Children[i:]...)...)
			return
		}
	}
	h.AppendChild(parent, child)
}

func (h *Handler) RemoveChild(parent, child treebuilder.Node) {
	p, c := parent.(*Node), child.(*Node)
	for i, sib := range p.Children {
		if sib == c {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			c.Parent = nil
			return
		}
	}
}

// CloneNode makes a shallow copy: tag and attributes, no children.
func (h *Handler) CloneNode(n treebuilder.Node) treebuilder.Node {
	src := n.(*Node)
	c := h.newNode(src.Type)
	c.Tag = src.Tag
	c.Data = src.Data
	c.Doctype = src.Doctype
	c.Attr = append([]token.Attribute{}, src.Attr...)
	return c
}

func (h *Handler) ReparentChildren(from, to treebuilder.Node) {
	f, t := from.(*Node), to.(*Node)
	for _, c := range f.Children {
		c.Parent = t
	}
	t.Children = append(t.Children, f.Children...)
	f.Children = nil
}

func (h *Handler) GetParent(n treebuilder.Node) (treebuilder.Node, bool) {
	p := n.(*Node).Parent
	if p == nil {
		return nil, false
	}
	return p, true
}

func (h *Handler) HasChildren(n treebuilder.Node) bool {
	return len(n.(*Node).Children) > 0
}

func (h *Handler) FormAssociate(n, form treebuilder.Node) {
	n.(*Node).FormOwner = form.(*Node)
}

// AddAttributes merges attrs onto n, keeping existing values for names
// already present (the <html>/<body> repeat-tag rule).
func (h *Handler) AddAttributes(n treebuilder.Node, attrs []token.Attribute) {
	e := n.(*Node)
	for _, a := range attrs {
		exists := false
		for _, have := range e.Attr {
			if have.Name == a.Name {
				exists = true
				break
			}
		}
		if !exists {
			e.Attr = append(e.Attr, a)
		}
	}
}

func (h *Handler) SetQuirksMode(m treebuilder.QuirksMode) { h.Quirks = m }

func (h *Handler) EncodingChange(label string) {
	h.EncodingLabels = append(h.EncodingLabels, label)
}

// CheckRefs verifies every node the treebuilder ever touched has exactly
// its creation reference left: a complete parse must pair every RefNode
// with an UnrefNode.
func (h *Handler) CheckRefs() error {
	for _, n := range h.nodes {
		if n.refs != 1 {
			return fmt.Errorf("node %s has refcount %d, want 1", nodeLabel(n), n.refs)
		}
	}
	return nil
}

func nodeLabel(n *Node) string {
	switch n.Type {
	case DocumentNode:
		return "#document"
	case ElementNode:
		return "<" + n.Tag.Name + ">"
	case TextNode:
		return fmt.Sprintf("%q", n.Data)
	case CommentNode:
		return "<!-- -->"
	case DoctypeNode:
		return "<!DOCTYPE>"
	}
	return "?"
}

// Dump writes the tree in the html5lib tree-construction format ("| "
// prefixed, two-space indent per level, attributes sorted), the same shape
// the upstream conformance suites use.
func Dump(w io.Writer, doc *Node) {
	for _, c := range doc.Children {
		dumpLevel(w, c, 0)
	}
}

// DumpString is Dump into a string, for test assertions.
func DumpString(doc *Node) string {
	var sb strings.Builder
	Dump(&sb, doc)
	return sb.String()
}

func dumpLevel(w io.Writer, n *Node, level int) {
	io.WriteString(w, "| ")
	io.WriteString(w, strings.Repeat("  ", level))
	switch n.Type {
	case ElementNode:
		if ns := n.Tag.Namespace.String(); ns != "" && n.Tag.Namespace != token.HTML {
			fmt.Fprintf(w, "<%s %s>\n", ns, n.Tag.Name)
		} else {
			fmt.Fprintf(w, "<%s>\n", n.Tag.Name)
		}
		attrs := append([]token.Attribute{}, n.Attr...)
		sort.Slice(attrs, func(i, j int) bool {
			if attrs[i].Namespace != attrs[j].Namespace {
				return attrs[i].Namespace < attrs[j].Namespace
			}
			return attrs[i].Name < attrs[j].Name
		})
		for _, a := range attrs {
			io.WriteString(w, "| ")
			io.WriteString(w, strings.Repeat("  ", level+1))
			if ns := a.Namespace.String(); ns != "" {
				fmt.Fprintf(w, "%s %s=%q\n", ns, a.Name, a.Value)
			} else {
				fmt.Fprintf(w, "%s=%q\n", a.Name, a.Value)
			}
		}
		for _, c := range n.Children {
			dumpLevel(w, c, level+1)
		}
	case TextNode:
		fmt.Fprintf(w, "%q\n", n.Data)
	case CommentNode:
		fmt.Fprintf(w, "<!-- %s -->\n", n.Data)
	case DoctypeNode:
		d := n.Doctype
		if d.HasPublic || d.HasSystem {
			fmt.Fprintf(w, "<!DOCTYPE %s %q %q>\n", d.Name, d.PublicID, d.SystemID)
		} else {
			fmt.Fprintf(w, "<!DOCTYPE %s>\n", d.Name)
		}
	}
}

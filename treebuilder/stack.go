package treebuilder

import (
	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

// elem pairs an opaque Node handle with the tag data the stack logic needs
// to test scope membership without asking the embedder to resolve it.
type elem struct {
	node Node
	tag  token.TagData
}

// nodeStack is the stack of open elements (§4.5 "The stack of open
// elements") or, reused below, the list of active formatting elements
// (§4.5 "The list of active formatting elements").
type nodeStack []elem

func (s *nodeStack) push(e elem)     { *s = append(*s, e) }
func (s *nodeStack) pop() elem       { n := len(*s) - 1; e := (*s)[n]; *s = (*s)[:n]; return e }
func (s nodeStack) top() (elem, bool) {
	if len(s) == 0 {
		return elem{}, false
	}
	return s[len(s)-1], true
}
func (s nodeStack) empty() bool { return len(s) == 0 }

func (s nodeStack) index(n Node) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].node == n {
			return i
		}
	}
	return -1
}

// contains reports whether any frame on the stack has the given atom, used
// by the <form>/foster-parenting "has a template on the stack" checks
// (§4.5).
func (s nodeStack) contains(a atom.Atom) bool {
	for i := range s {
		if s[i].tag.Atom == a {
			return true
		}
	}
	return false
}

// remove deletes the first (searching from the top) frame whose node
// equals n, without issuing an Unref — callers that remove a node they are
// about to re-insert elsewhere (adoption agency) own that decision.
func (s *nodeStack) remove(n Node) {
	i := s.index(n)
	if i == -1 {
		return
	}
	*s = append((*s)[:i], (*s)[i+1:]...)
}

// insert splices e into the stack at index i.
func (s *nodeStack) insert(i int, e elem) {
	*s = append(*s, elem{})
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = e
}

// scopeStopTags are the §4.5 "specific scope" stop-tag tables, keyed by
// namespace (empty string is HTML).
var scopeStopTags = map[string][]atom.Atom{
	"":     {atom.Applet, atom.Caption, atom.Html, atom.Table, atom.Td, atom.Th, atom.Marquee, atom.Object, atom.Template},
	"math": {atom.AnnotationXml, atom.Mi, atom.Mn, atom.Mo, atom.Ms, atom.Mtext},
	"svg":  {atom.Desc, atom.ForeignObject, atom.Title},
}

type scopeKind int

const (
	defaultScope scopeKind = iota
	listItemScope
	buttonScope
	tableScope
	tableRowScope
	tableBodyScope
	selectScope
)

func nsKey(ns token.Namespace) string {
	switch ns {
	case token.MathML:
		return "math"
	case token.SVG:
		return "svg"
	default:
		return ""
	}
}

// indexOfElementInScope returns the index of the highest stack element
// whose atom is in match, or -1, honoring the specific scope's stop tags
// (§4.5 "has an element in the specific scope").
func (s nodeStack) indexOfElementInScope(kind scopeKind, match ...atom.Atom) int {
	for i := len(s) - 1; i >= 0; i-- {
		e := s[i]
		for _, a := range match {
			if e.tag.Atom == a {
				return i
			}
		}
		switch kind {
		case defaultScope:
		case listItemScope:
			if e.tag.Atom == atom.Ol || e.tag.Atom == atom.Ul {
				return -1
			}
		case buttonScope:
			if e.tag.Atom == atom.Button {
				return -1
			}
		case tableScope, tableRowScope, tableBodyScope:
			if e.tag.Atom == atom.Html || e.tag.Atom == atom.Table || e.tag.Atom == atom.Template {
				return -1
			}
			continue
		case selectScope:
			if e.tag.Atom != atom.Optgroup && e.tag.Atom != atom.Option {
				return -1
			}
			continue
		}
		for _, a := range scopeStopTags[nsKey(e.tag.Namespace)] {
			if a == e.tag.Atom {
				return -1
			}
		}
	}
	return -1
}

func (s nodeStack) elementInScope(kind scopeKind, match ...atom.Atom) bool {
	return s.indexOfElementInScope(kind, match...) != -1
}

// popUntil pops through and including the highest element whose atom is in
// match, provided it is within the given scope. It reports whether such an
// element existed.
func (s *nodeStack) popUntil(handler TreeHandler, kind scopeKind, match ...atom.Atom) bool {
	if i := s.indexOfElementInScope(kind, match...); i != -1 {
		s.popTo(handler, i)
		return true
	}
	return false
}

// popTo pops the stack down to (but not including) index i.
func (s *nodeStack) popTo(handler TreeHandler, i int) {
	for len(*s) > i {
		e := s.pop()
		handler.UnrefNode(e.node)
	}
}

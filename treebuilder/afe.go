package treebuilder

import "github.com/gohubbub/hubbub/token"

// marker is pushed onto the active formatting elements list as a scope
// boundary (§4.5 "the list of active formatting elements"), e.g. by the
// <button>/<object>/table-cell insertion algorithms; afe entries never
// match a marker's zero Node.
var markerTag = token.TagData{Name: "\x00marker"}

func isMarker(e elem) bool { return e.tag.Name == markerTag.Name }

// addFormattingElement appends e to afe, first applying the Noah's Ark
// clause: if three elements with the same tag name, namespace and
// attribute set already appear since the last marker, the earliest is
// removed (§4.5 "Noah's Ark clause").
func (tb *Builder) addFormattingElement(e elem) {
	equalAttrs := func(a, b []token.Attribute) bool {
		if len(a) != len(b) {
			return false
		}
		for _, x := range a {
			found := false
			for _, y := range b {
				if x.Name == y.Name && x.Value == y.Value {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}

	matches := 0
	matchIdx := -1
	for i := len(tb.afe) - 1; i >= 0; i-- {
		if isMarker(tb.afe[i]) {
			break
		}
		if tb.afe[i].tag.Atom == e.tag.Atom && tb.afe[i].tag.Namespace == e.tag.Namespace && equalAttrs(tb.afe[i].tag.Attr, e.tag.Attr) {
			matches++
			matchIdx = i
		}
	}
	if matches >= 3 {
		tb.handler.UnrefNode(tb.afe[matchIdx].node)
		tb.afe = append(tb.afe[:matchIdx], tb.afe[matchIdx+1:]...)
	}
	tb.afe.push(e)
}

func (tb *Builder) addMarker() {
	tb.afe.push(elem{tag: markerTag})
}

// clearActiveFormattingElements pops afe back to (and including) the most
// recent marker, used when an insertion mode closes a scope (§4.5 "Clear
// the list of active formatting elements up to the last marker").
func (tb *Builder) clearActiveFormattingElements() {
	for len(tb.afe) > 0 {
		e := tb.afe.pop()
		if isMarker(e) {
			return
		}
		tb.handler.UnrefNode(e.node)
	}
}

// reconstructActiveFormattingElements re-opens every afe entry since the
// last marker/stack-member that isn't currently open, in list order (§4.5
// "Reconstruct the active formatting elements list").
func (tb *Builder) reconstructActiveFormattingElements() {
	if len(tb.afe) == 0 {
		return
	}
	last, _ := tb.afe.top()
	if isMarker(last) || tb.oe.index(last.node) != -1 {
		return
	}
	i := len(tb.afe) - 1
	for i > 0 {
		i--
		if isMarker(tb.afe[i]) || tb.oe.index(tb.afe[i].node) != -1 {
			i++
			break
		}
	}
	for ; i < len(tb.afe); i++ {
		clone := tb.handler.CloneNode(tb.afe[i].node)
		ne := elem{node: clone, tag: tb.afe[i].tag}
		tb.addChild(ne)
		tb.handler.RefNode(clone)
		tb.oe.push(ne)
		tb.handler.RefNode(clone)
		tb.handler.UnrefNode(tb.afe[i].node)
		tb.afe[i] = ne
	}
}

// afeIndexByAtom finds the nearest afe entry since the last marker with
// the given atom, used by InBody's <a> start-tag check.
func (tb *Builder) afeIndexByAtom(a token.TagData) int {
	for i := len(tb.afe) - 1; i >= 0; i-- {
		if isMarker(tb.afe[i]) {
			return -1
		}
		if tb.afe[i].tag.Atom == a.Atom {
			return i
		}
	}
	return -1
}

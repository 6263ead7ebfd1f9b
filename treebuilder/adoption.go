package treebuilder

import (
	"golang.org/x/net/html/atom"

	"github.com/gohubbub/hubbub/token"
)

// runAdoptionAgency implements §4.5 "The adoption agency algorithm" for an
// end tag matching subject (e.g. </a>, </b>, </nobr>). It is modeled on
// x/net/html's inBodyEndTagFormatting, re-expressed against this package's
// explicit RefNode/UnrefNode/CloneNode contract in place of a garbage
// collected tree.
func (tb *Builder) runAdoptionAgency(tok token.Token, subject atom.Atom, subjectName string) {
	for i := 0; i < 8; i++ {
		afeIdx := -1
		for j := len(tb.afe) - 1; j >= 0; j-- {
			if isMarker(tb.afe[j]) {
				break
			}
			if tb.afe[j].tag.Atom == subject {
				afeIdx = j
				break
			}
		}
		if afeIdx == -1 {
			tb.anyOtherEndTag(subject, subjectName)
			return
		}
		formatting := tb.afe[afeIdx]

		oeIdx := tb.oe.index(formatting.node)
		if oeIdx == -1 {
			tb.parseErr(tok, "formatting element <%s> not on the stack of open elements", subjectName)
			tb.afe.remove(formatting.node)
			tb.handler.UnrefNode(formatting.node)
			return
		}
		if !tb.oe.elementInScope(defaultScope, formatting.tag.Atom) {
			tb.parseErr(tok, "formatting element <%s> not in scope", subjectName)
			return
		}
		if oeIdx != len(tb.oe)-1 {
			tb.parseErr(tok, "formatting element <%s> is not the current node", subjectName)
		}

		furthestBlockIdx := -1
		for k := oeIdx + 1; k < len(tb.oe); k++ {
			if isSpecialCategory(tb.oe[k].tag.Atom) {
				furthestBlockIdx = k
				break
			}
		}

		if furthestBlockIdx == -1 {
			tb.oe.popTo(tb.handler, oeIdx)
			tb.afe.remove(formatting.node)
			tb.handler.UnrefNode(formatting.node)
			return
		}

		furthestBlock := tb.oe[furthestBlockIdx]
		commonAncestor := tb.oe[oeIdx-1]

		bookmark := afeIdx
		lastNode := furthestBlock
		nodeIdx := furthestBlockIdx

		for j := 0; j < 3; j++ {
			nodeIdx--
			if nodeIdx <= oeIdx {
				break
			}
			node := tb.oe[nodeIdx]
			nodeAfeIdx := tb.afe.index(node.node)
			if nodeAfeIdx == -1 {
				tb.oe.remove(node.node)
				tb.handler.UnrefNode(node.node)
				// Removal at nodeIdx shifts only the frames above it; the
				// next frame to examine is still at nodeIdx-1.
				furthestBlockIdx--
				continue
			}

			clone := tb.handler.CloneNode(node.node)
			tb.handler.RefNode(clone)
			tb.handler.RefNode(clone)
			newElem := elem{node: clone, tag: node.tag}
			tb.afe[nodeAfeIdx] = newElem
			tb.oe[nodeIdx] = newElem
			tb.handler.UnrefNode(node.node)
			tb.handler.UnrefNode(node.node)

			if lastNode.node == furthestBlock.node {
				bookmark = nodeAfeIdx + 1
			}

			tb.reparentInto(newElem.node, lastNode.node)
			lastNode = newElem
		}

		if p, ok := tb.handler.GetParent(lastNode.node); ok {
			tb.handler.RemoveChild(p, lastNode.node)
		}
		if tb.shouldFosterParentFor(commonAncestor.tag.Atom) {
			tb.fosterParent(lastNode.node)
		} else {
			tb.handler.AppendChild(commonAncestor.node, lastNode.node)
		}

		newFormatting := tb.handler.CloneNode(formatting.node)
		tb.handler.ReparentChildren(furthestBlock.node, newFormatting)
		tb.handler.AppendChild(furthestBlock.node, newFormatting)

		tb.afe.remove(formatting.node)
		tb.oe.remove(formatting.node)
		tb.handler.UnrefNode(formatting.node)
		tb.handler.UnrefNode(formatting.node)

		newFormattingElem := elem{node: newFormatting, tag: formatting.tag}
		if bookmark > len(tb.afe) {
			bookmark = len(tb.afe)
		}
		tb.handler.RefNode(newFormatting)
		tb.afe.insert(bookmark, newFormattingElem)

		if furthestIdx := tb.oe.index(furthestBlock.node); furthestIdx != -1 {
			tb.handler.RefNode(newFormatting)
			tb.oe.insert(furthestIdx+1, newFormattingElem)
		}
	}
}

// reparentInto moves child to be the sole content of parent, used while
// rebuilding the chain of cloned formatting elements between the furthest
// block and the common ancestor.
func (tb *Builder) reparentInto(parent, child Node) {
	if p, ok := tb.handler.GetParent(child); ok {
		tb.handler.RemoveChild(p, child)
	}
	tb.handler.AppendChild(parent, child)
}

func (tb *Builder) shouldFosterParentFor(a atom.Atom) bool {
	if !tb.fosterParenting {
		return false
	}
	switch a {
	case atom.Table, atom.Tbody, atom.Tfoot, atom.Thead, atom.Tr:
		return true
	}
	return false
}

package treebuilder

// InsertionMode is the tree construction stage selecting how the next
// token is processed (§4.5 "The insertion mode").
type InsertionMode int

const (
	Initial InsertionMode = iota
	BeforeHTML
	BeforeHead
	InHead
	InHeadNoscript
	AfterHead
	InBody
	Text
	InTable
	InTableText
	InCaption
	InColumnGroup
	InTableBody
	InRow
	InCell
	InSelect
	InSelectInTable
	AfterBody
	InFrameset
	AfterFrameset
	AfterAfterBody
	AfterAfterFrameset
)

func (m InsertionMode) String() string {
	switch m {
	case Initial:
		return "initial"
	case BeforeHTML:
		return "before html"
	case BeforeHead:
		return "before head"
	case InHead:
		return "in head"
	case InHeadNoscript:
		return "in head noscript"
	case AfterHead:
		return "after head"
	case InBody:
		return "in body"
	case Text:
		return "text"
	case InTable:
		return "in table"
	case InTableText:
		return "in table text"
	case InCaption:
		return "in caption"
	case InColumnGroup:
		return "in column group"
	case InTableBody:
		return "in table body"
	case InRow:
		return "in row"
	case InCell:
		return "in cell"
	case InSelect:
		return "in select"
	case InSelectInTable:
		return "in select in table"
	case AfterBody:
		return "after body"
	case InFrameset:
		return "in frameset"
	case AfterFrameset:
		return "after frameset"
	case AfterAfterBody:
		return "after after body"
	case AfterAfterFrameset:
		return "after after frameset"
	default:
		return "unknown"
	}
}

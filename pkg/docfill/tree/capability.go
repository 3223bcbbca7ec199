package tree

import "strings"

// TextCapability is the narrow surface a document format exposes to the
// engine. The engine never inspects tags itself; it only asks these
// questions.
//
// A text container is a node whose whole text can be read and replaced as
// one unit (a styled run, a span). A partial text container is a node that
// mixes raw text nodes and containers (a paragraph). Text-bearing nodes are
// the raw text leaves themselves.
type TextCapability interface {
	IsTextBearing(t *Tree, n NodeID) bool
	IsTextContainer(t *Tree, n NodeID) bool
	IsPartialTextContainer(t *Tree, n NodeID) bool
	// IsParagraph marks the paragraph-like node used by the delete
	// policies and by area boundary selection.
	IsParagraph(t *Tree, n NodeID) bool
	GetText(t *Tree, n NodeID) string
	SetText(t *Tree, n NodeID, text string)
	// CreateTextContainer appends an empty text container to parent.
	CreateTextContainer(t *Tree, parent NodeID) NodeID
}

// TableCapability is implemented by formats that know table structure.
// Loops use it to repeat whole rows when both markers sit in one row.
type TableCapability interface {
	IsTableRow(t *Tree, n NodeID) bool
	IsTable(t *Tree, n NodeID) bool
}

// EnclosingOf returns the nearest node enclosing n (n itself included)
// that match accepts, or None.
func EnclosingOf(t *Tree, n NodeID, match func(NodeID) bool) NodeID {
	if match(n) {
		return n
	}
	for _, p := range t.Ancestors(n) {
		if match(p) {
			return p
		}
	}
	return None
}

// ContentCapability marks elements that count as visible content even
// without text, such as images or line breaks. A paragraph holding one is
// never blank.
type ContentCapability interface {
	IsContent(t *Tree, n NodeID) bool
}

// IsBlank reports whether the subtree of n holds only whitespace text and,
// when c implements ContentCapability, no content elements.
func IsBlank(t *Tree, c TextCapability, n NodeID) bool {
	if strings.TrimSpace(t.TextContent(n)) != "" {
		return false
	}
	cc, ok := c.(ContentCapability)
	if !ok {
		return true
	}
	blank := true
	t.Walk(n, func(id NodeID) bool {
		if blank && t.IsElement(id) && cc.IsContent(t, id) {
			blank = false
		}
		return blank
	})
	return blank
}

// ParagraphOf returns the nearest paragraph enclosing n (n itself
// included), or None.
func ParagraphOf(t *Tree, c TextCapability, n NodeID) NodeID {
	if c.IsParagraph(t, n) {
		return n
	}
	for _, p := range t.Ancestors(n) {
		if c.IsParagraph(t, p) {
			return p
		}
	}
	return None
}

// IsTextUnit reports whether n is a unit the placeholder detector reads: a
// text container, or a raw text leaf sitting directly in a partial text
// container.
func IsTextUnit(t *Tree, c TextCapability, n NodeID) bool {
	if c.IsTextContainer(t, n) {
		return true
	}
	if !c.IsTextBearing(t, n) {
		return false
	}
	p := t.Parent(n)
	return p != None && c.IsPartialTextContainer(t, p)
}

// ContainerText sets the text of a container-like element by writing it
// into its first text child and dropping any other text children. Formats
// with simple run structure can use it to implement SetText.
func ContainerText(t *Tree, n NodeID, text string) {
	if t.IsText(n) {
		t.SetText(n, text)
		return
	}
	var holder NodeID = None
	for _, c := range t.Children(n) {
		if !t.IsText(c) {
			continue
		}
		if holder == None {
			holder = c
			continue
		}
		t.Remove(c)
	}
	if holder == None {
		holder = t.NewText("")
		t.AppendChild(n, holder)
	}
	t.SetText(holder, text)
}

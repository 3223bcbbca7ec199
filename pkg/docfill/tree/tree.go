package tree

import (
	"sort"
	"strings"
)

// NodeID addresses a node inside a Tree arena.
type NodeID int

// None is the zero reference; it never addresses a node.
const None NodeID = -1

// Kind distinguishes element nodes from text nodes.
type Kind uint8

const (
	Element Kind = iota
	Text
)

func (k Kind) String() string {
	if k == Text {
		return "text"
	}
	return "element"
}

// Attr is a single element attribute. Names are stored qualified
// ("w:val") so format adapters can round-trip them untouched.
type Attr struct {
	Name  string
	Value string
}

type node struct {
	kind     Kind
	tag      string
	attrs    []Attr
	text     string
	parent   NodeID
	children []NodeID
}

// Tree is an arena of nodes. Nodes are never freed: removing a node only
// detaches it from its parent, so a NodeID stays valid for the lifetime of
// the tree even after the node left the document.
type Tree struct {
	nodes []node
	root  NodeID
}

// New creates a tree holding a single root element.
func New(rootTag string) *Tree {
	t := &Tree{}
	t.root = t.NewElement(rootTag)
	return t
}

// Root returns the root element.
func (t *Tree) Root() NodeID {
	return t.root
}

// Len returns the number of nodes ever allocated in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Valid reports whether id addresses a node of this tree.
func (t *Tree) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// NewElement allocates a detached element.
func (t *Tree) NewElement(tag string, attrs ...Attr) NodeID {
	t.nodes = append(t.nodes, node{
		kind:   Element,
		tag:    tag,
		attrs:  append([]Attr(nil), attrs...),
		parent: None,
	})
	return NodeID(len(t.nodes) - 1)
}

// NewText allocates a detached text node.
func (t *Tree) NewText(text string) NodeID {
	t.nodes = append(t.nodes, node{kind: Text, text: text, parent: None})
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) Kind(id NodeID) Kind {
	return t.nodes[id].kind
}

func (t *Tree) IsElement(id NodeID) bool {
	return t.Valid(id) && t.nodes[id].kind == Element
}

func (t *Tree) IsText(id NodeID) bool {
	return t.Valid(id) && t.nodes[id].kind == Text
}

// Tag returns the element tag, or "" for text nodes.
func (t *Tree) Tag(id NodeID) string {
	return t.nodes[id].tag
}

func (t *Tree) SetTag(id NodeID, tag string) {
	t.nodes[id].tag = tag
}

// Attrs returns a copy of the element attributes in document order.
func (t *Tree) Attrs(id NodeID) []Attr {
	return append([]Attr(nil), t.nodes[id].attrs...)
}

func (t *Tree) Attr(id NodeID, name string) (string, bool) {
	for _, a := range t.nodes[id].attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces an existing attribute or appends a new one.
func (t *Tree) SetAttr(id NodeID, name, value string) {
	n := &t.nodes[id]
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

// Text returns the content of a text node.
func (t *Tree) Text(id NodeID) string {
	return t.nodes[id].text
}

func (t *Tree) SetText(id NodeID, text string) {
	t.nodes[id].text = text
}

func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// Children returns a copy of the child list.
func (t *Tree) Children(id NodeID) []NodeID {
	return append([]NodeID(nil), t.nodes[id].children...)
}

func (t *Tree) ChildCount(id NodeID) int {
	return len(t.nodes[id].children)
}

func (t *Tree) Child(id NodeID, i int) NodeID {
	c := t.nodes[id].children
	if i < 0 || i >= len(c) {
		return None
	}
	return c[i]
}

func (t *Tree) FirstChild(id NodeID) NodeID {
	return t.Child(id, 0)
}

func (t *Tree) LastChild(id NodeID) NodeID {
	return t.Child(id, len(t.nodes[id].children)-1)
}

// IndexOf returns the position of id among its siblings, or -1 when the
// node is detached.
func (t *Tree) IndexOf(id NodeID) int {
	p := t.nodes[id].parent
	if p == None {
		return -1
	}
	for i, c := range t.nodes[p].children {
		if c == id {
			return i
		}
	}
	return -1
}

func (t *Tree) NextSibling(id NodeID) NodeID {
	p := t.nodes[id].parent
	if p == None {
		return None
	}
	return t.Child(p, t.IndexOf(id)+1)
}

func (t *Tree) PrevSibling(id NodeID) NodeID {
	p := t.nodes[id].parent
	if p == None {
		return None
	}
	return t.Child(p, t.IndexOf(id)-1)
}

// Remove detaches id (and its subtree) from its parent.
func (t *Tree) Remove(id NodeID) {
	p := t.nodes[id].parent
	if p == None {
		return
	}
	idx := t.IndexOf(id)
	c := t.nodes[p].children
	t.nodes[p].children = append(c[:idx:idx], c[idx+1:]...)
	t.nodes[id].parent = None
}

// AppendChild moves child to the end of parent's child list.
func (t *Tree) AppendChild(parent, child NodeID) {
	t.Remove(child)
	t.nodes[parent].children = append(t.nodes[parent].children, child)
	t.nodes[child].parent = parent
}

// InsertAt moves child into parent at position i.
func (t *Tree) InsertAt(parent NodeID, i int, child NodeID) {
	t.Remove(child)
	c := t.nodes[parent].children
	if i < 0 || i > len(c) {
		i = len(c)
	}
	c = append(c, None)
	copy(c[i+1:], c[i:])
	c[i] = child
	t.nodes[parent].children = c
	t.nodes[child].parent = parent
}

// InsertBefore moves n so it becomes the sibling just before ref.
func (t *Tree) InsertBefore(ref, n NodeID) {
	t.Remove(n)
	t.InsertAt(t.nodes[ref].parent, t.IndexOf(ref), n)
}

// InsertAfter moves n so it becomes the sibling just after ref.
func (t *Tree) InsertAfter(ref, n NodeID) {
	t.Remove(n)
	t.InsertAt(t.nodes[ref].parent, t.IndexOf(ref)+1, n)
}

// CloneShallow copies a node without its children. The copy is detached.
func (t *Tree) CloneShallow(id NodeID) NodeID {
	src := t.nodes[id]
	t.nodes = append(t.nodes, node{
		kind:   src.kind,
		tag:    src.tag,
		attrs:  append([]Attr(nil), src.attrs...),
		text:   src.text,
		parent: None,
	})
	return NodeID(len(t.nodes) - 1)
}

// CloneDeep copies a node with its whole subtree. The copy is detached.
func (t *Tree) CloneDeep(id NodeID) NodeID {
	c := t.CloneShallow(id)
	for _, child := range t.Children(id) {
		t.AppendChild(c, t.CloneDeep(child))
	}
	return c
}

// Import copies the subtree of id in src into t. The copy is detached.
func (t *Tree) Import(src *Tree, id NodeID) NodeID {
	n := src.nodes[id]
	t.nodes = append(t.nodes, node{
		kind:   n.kind,
		tag:    n.tag,
		attrs:  append([]Attr(nil), n.attrs...),
		text:   n.text,
		parent: None,
	})
	c := NodeID(len(t.nodes) - 1)
	for _, child := range n.children {
		t.AppendChild(c, t.Import(src, child))
	}
	return c
}

// Clone copies the whole arena. Node ids stay the same in the copy, so
// ids taken from t address the same nodes in the clone.
func (t *Tree) Clone() *Tree {
	c := &Tree{nodes: make([]node, len(t.nodes)), root: t.root}
	for i, n := range t.nodes {
		n.attrs = append([]Attr(nil), n.attrs...)
		n.children = append([]NodeID(nil), n.children...)
		c.nodes[i] = n
	}
	return c
}

// Ancestors lists the parents of id from the nearest up to the top.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for p := t.nodes[id].parent; p != None; p = t.nodes[p].parent {
		out = append(out, p)
	}
	return out
}

// IsAncestor reports whether anc is a strict ancestor of id.
func (t *Tree) IsAncestor(anc, id NodeID) bool {
	if !t.Valid(anc) || !t.Valid(id) {
		return false
	}
	for p := t.nodes[id].parent; p != None; p = t.nodes[p].parent {
		if p == anc {
			return true
		}
	}
	return false
}

// Contains reports whether id is anc or lies below it.
func (t *Tree) Contains(anc, id NodeID) bool {
	return anc == id || t.IsAncestor(anc, id)
}

// Attached reports whether id is still reachable from the root.
func (t *Tree) Attached(id NodeID) bool {
	return t.Contains(t.root, id)
}

// Depth is the number of ancestors of id.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for p := t.nodes[id].parent; p != None; p = t.nodes[p].parent {
		d++
	}
	return d
}

// NearestCommonAncestor returns the deepest element containing both nodes,
// or None when they live in unrelated subtrees.
func (t *Tree) NearestCommonAncestor(a, b NodeID) NodeID {
	seen := map[NodeID]bool{a: true}
	for _, p := range t.Ancestors(a) {
		seen[p] = true
	}
	if seen[b] {
		return b
	}
	for _, p := range t.Ancestors(b) {
		if seen[p] {
			return p
		}
	}
	return None
}

// ChildContaining returns the direct child of anc that holds id.
func (t *Tree) ChildContaining(anc, id NodeID) NodeID {
	cur := id
	for cur != None {
		p := t.nodes[cur].parent
		if p == anc {
			return cur
		}
		cur = p
	}
	return None
}

// RelPath returns child indexes leading from anc down to id.
func (t *Tree) RelPath(anc, id NodeID) ([]int, bool) {
	var path []int
	cur := id
	for cur != anc {
		if cur == None {
			return nil, false
		}
		path = append(path, t.IndexOf(cur))
		cur = t.nodes[cur].parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// Follow walks a RelPath from start.
func (t *Tree) Follow(start NodeID, path []int) NodeID {
	cur := start
	for _, i := range path {
		cur = t.Child(cur, i)
		if cur == None {
			return None
		}
	}
	return cur
}

// Compare orders two attached nodes in document (pre-)order. An ancestor
// sorts before its descendants.
func (t *Tree) Compare(a, b NodeID) int {
	if a == b {
		return 0
	}
	pa, _ := t.RelPath(t.root, a)
	pb, _ := t.RelPath(t.root, b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	}
	return 0
}

// SortDocumentOrder sorts ids in place by document order.
func (t *Tree) SortDocumentOrder(ids []NodeID) {
	sort.SliceStable(ids, func(i, j int) bool { return t.Compare(ids[i], ids[j]) < 0 })
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, c := range t.Children(id) {
		t.Walk(c, fn)
	}
}

// TextContent concatenates all text below id in document order.
func (t *Tree) TextContent(id NodeID) string {
	var b strings.Builder
	t.Walk(id, func(n NodeID) bool {
		if t.nodes[n].kind == Text {
			b.WriteString(t.nodes[n].text)
		}
		return true
	})
	return b.String()
}

// Dump renders the subtree as compact markup. It is meant for tests and
// debug logging, not as a document serializer.
func (t *Tree) Dump(id NodeID) string {
	var b strings.Builder
	t.dump(&b, id)
	return b.String()
}

func (t *Tree) dump(b *strings.Builder, id NodeID) {
	n := t.nodes[id]
	if n.kind == Text {
		b.WriteString(n.text)
		return
	}
	b.WriteString("<")
	b.WriteString(n.tag)
	for _, a := range n.attrs {
		b.WriteString(" ")
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(a.Value)
		b.WriteString(`"`)
	}
	b.WriteString(">")
	for _, c := range n.children {
		t.dump(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteString(">")
}

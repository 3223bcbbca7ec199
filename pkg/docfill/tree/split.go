package tree

import "errors"

var (
	// ErrNotAncestor is returned when a split or area is requested against
	// a node that does not contain the boundary.
	ErrNotAncestor = errors.New("tree: node is not below the given ancestor")
	// ErrInvertedArea is returned when the end boundary precedes the start.
	ErrInvertedArea = errors.New("tree: area end precedes area start")
)

// SplitBefore hoists node so that the direct child of ancestor holding it
// starts with node at every level. Content that preceded node inside each
// intermediate container is moved into an empty shallow clone of that
// container, inserted just before it. Levels where nothing precedes are
// left alone. It returns the direct child of ancestor that now holds node.
func SplitBefore(t *Tree, node, ancestor NodeID) (NodeID, error) {
	if !t.IsAncestor(ancestor, node) {
		return None, ErrNotAncestor
	}
	cur := node
	for {
		p := t.Parent(cur)
		if p == ancestor {
			return cur, nil
		}
		idx := t.IndexOf(cur)
		if idx > 0 {
			clone := t.CloneShallow(p)
			for _, c := range t.Children(p)[:idx] {
				t.AppendChild(clone, c)
			}
			t.InsertBefore(p, clone)
		}
		cur = p
	}
}

// SplitAfter is the mirror of SplitBefore: content following node is moved
// into clones inserted after each container, so the returned direct child
// of ancestor ends with node.
func SplitAfter(t *Tree, node, ancestor NodeID) (NodeID, error) {
	if !t.IsAncestor(ancestor, node) {
		return None, ErrNotAncestor
	}
	cur := node
	for {
		p := t.Parent(cur)
		if p == ancestor {
			return cur, nil
		}
		idx := t.IndexOf(cur)
		children := t.Children(p)
		if idx < len(children)-1 {
			clone := t.CloneShallow(p)
			for _, c := range children[idx+1:] {
				t.AppendChild(clone, c)
			}
			t.InsertAfter(p, clone)
		}
		cur = p
	}
}

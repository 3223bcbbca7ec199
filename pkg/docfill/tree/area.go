package tree

// Area is a contiguous range of siblings under Ancestor, from Start to End
// inclusive. It is built from two boundary nodes by splitting the tree so
// the range holds exactly the content between (and including) them.
type Area struct {
	t        *Tree
	Start    NodeID
	End      NodeID
	Ancestor NodeID
}

// NewArea splits the tree around left and right and returns the area they
// delimit under ancestor. left may equal right.
func NewArea(t *Tree, left, right, ancestor NodeID) (*Area, error) {
	if !t.IsAncestor(ancestor, left) || !t.IsAncestor(ancestor, right) {
		return nil, ErrNotAncestor
	}
	if t.Compare(left, right) > 0 {
		return nil, ErrInvertedArea
	}
	if _, err := SplitBefore(t, left, ancestor); err != nil {
		return nil, err
	}
	end, err := SplitAfter(t, right, ancestor)
	if err != nil {
		return nil, err
	}
	return &Area{
		t:        t,
		Start:    t.ChildContaining(ancestor, left),
		End:      end,
		Ancestor: ancestor,
	}, nil
}

// OldestCommonAncestor returns the parent of the outermost node accepted by
// accept that contains both a and b. When no accepted node contains both it
// falls back to the nearest common ancestor.
func OldestCommonAncestor(t *Tree, a, b NodeID, accept func(NodeID) bool) NodeID {
	nearest := t.NearestCommonAncestor(a, b)
	if nearest == None {
		return None
	}
	var oldest NodeID = None
	if accept(nearest) {
		oldest = nearest
	}
	for _, p := range t.Ancestors(nearest) {
		if accept(p) {
			oldest = p
		}
	}
	if oldest == None || t.Parent(oldest) == None {
		return nearest
	}
	return t.Parent(oldest)
}

// Nodes returns the siblings from Start to End.
func (a *Area) Nodes() []NodeID {
	var out []NodeID
	for n := a.Start; n != None; n = a.t.NextSibling(n) {
		out = append(out, n)
		if n == a.End {
			break
		}
	}
	return out
}

// Text concatenates the text of every node in the area.
func (a *Area) Text() string {
	s := ""
	for _, n := range a.Nodes() {
		s += a.t.TextContent(n)
	}
	return s
}

// Clone deep-copies the area and inserts the copy right after the node
// after. The returned area shares the ancestor of the original.
func (a *Area) Clone(after NodeID) *Area {
	clone := &Area{t: a.t, Start: None, End: None, Ancestor: a.t.Parent(after)}
	prev := after
	for _, n := range a.Nodes() {
		c := a.t.CloneDeep(n)
		a.t.InsertAfter(prev, c)
		if clone.Start == None {
			clone.Start = c
		}
		clone.End = c
		prev = c
	}
	return clone
}

// Delete detaches every node of the area.
func (a *Area) Delete() {
	for _, n := range a.Nodes() {
		a.t.Remove(n)
	}
}

// Locate maps a node of this area to the node at the same position in
// another area of identical shape, such as one produced by Clone.
func (a *Area) Locate(n NodeID, other *Area) NodeID {
	nodes := a.Nodes()
	others := other.Nodes()
	for i, top := range nodes {
		if i >= len(others) || !a.t.Contains(top, n) {
			continue
		}
		path, ok := a.t.RelPath(top, n)
		if !ok {
			return None
		}
		return a.t.Follow(others[i], path)
	}
	return None
}

// Repeat lays the area out count times in a row. A count of zero deletes
// the area, one keeps it as is, and larger counts append count-1 clones,
// each inserted after the previous copy.
func (a *Area) Repeat(count int) []*Area {
	if count <= 0 {
		a.Delete()
		return nil
	}
	areas := []*Area{a}
	last := a
	for i := 1; i < count; i++ {
		last = last.Clone(last.End)
		areas = append(areas, last)
	}
	return areas
}

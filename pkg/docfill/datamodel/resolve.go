package datamodel

// Resolve walks path from root. It never fails on missing data: when a
// property, index or type does not match, it returns (nil, false).
func Resolve(root *Node, path Path) (*Node, bool) {
	return ResolveFrom(root, root, path)
}

// ResolveFrom walks path starting at start. Root elements restart at root;
// Back elements return to the node visited before the last step.
func ResolveFrom(root, start *Node, path Path) (*Node, bool) {
	// Progress made before the last root jump is discarded, even when it
	// would not have resolved.
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Kind == ElemRoot {
			start, path = root, path[i+1:]
			break
		}
	}
	trail := []*Node{start}
	for _, e := range path {
		cur := trail[len(trail)-1].Deref()
		switch e.Kind {
		case ElemRoot:
			trail = []*Node{root}
		case ElemBack:
			if len(trail) > 1 {
				trail = trail[:len(trail)-1]
			}
		case ElemProperty:
			next, ok := cur.Get(e.Name)
			if !ok {
				return nil, false
			}
			trail = append(trail, next)
		case ElemIndex:
			next, ok := cur.Index(e.Index)
			if !ok {
				return nil, false
			}
			trail = append(trail, next)
		}
	}
	last := trail[len(trail)-1].Deref()
	if last == nil {
		return nil, false
	}
	return last, true
}

// Model is the data model seen by one fill run: a root node plus the
// current path that relative placeholder paths are resolved against.
type Model struct {
	root    *Node
	current Path
}

func NewModel(root *Node) *Model {
	if root == nil {
		root = NewMap()
	}
	return &Model{root: root}
}

func (m *Model) Root() *Node {
	return m.root
}

// SetRoot replaces the whole model and resets the current path.
func (m *Model) SetRoot(root *Node) {
	m.root = root
	m.current = nil
}

func (m *Model) Current() Path {
	return append(Path(nil), m.current...)
}

func (m *Model) SetCurrent(p Path) {
	m.current = append(Path(nil), p...)
}

// Interpret extends the current path by suffix and resolves the result.
// With setAsCurrent the extended path becomes the new current path even
// when nothing is found there.
func (m *Model) Interpret(suffix string, setAsCurrent bool) (Path, *Node, bool, error) {
	p, err := m.current.Extend(suffix)
	if err != nil {
		return nil, nil, false, err
	}
	if setAsCurrent {
		m.current = p
	}
	n, ok := Resolve(m.root, p)
	return p, n, ok, nil
}

// Resolve looks up suffix relative to the current path.
func (m *Model) Resolve(suffix string) (*Node, bool, error) {
	_, n, ok, err := m.Interpret(suffix, false)
	return n, ok, err
}

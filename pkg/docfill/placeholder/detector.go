package placeholder

import (
	"strings"

	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// Placeholder is one detected marker. Node is the text container holding
// exactly Raw. Err is set when Raw could not be parsed; Key and Attrs are
// then best effort.
type Placeholder struct {
	Key   string
	Attrs *Attributes
	Node  tree.NodeID
	Raw   string
	Err   error
}

// Detector finds placeholders in a tree and gives each its own text
// container so commands can address it as a single node.
type Detector struct {
	Cap   tree.TextCapability
	Codec Codec
}

func NewDetector(c tree.TextCapability, codec Codec) *Detector {
	return &Detector{Cap: c, Codec: codec}
}

// run is a maximal sequence of sibling text units read as one string.
type run struct {
	units []tree.NodeID
	texts []string
}

func (r *run) text() string {
	return strings.Join(r.texts, "")
}

// Scan detects every placeholder in t and returns them in document order.
// Placeholder text spread over several units is collapsed into one
// container first. Scanning an already scanned tree changes nothing.
func (d *Detector) Scan(t *tree.Tree) []Placeholder {
	var nodes []tree.NodeID
	for _, r := range d.runs(t) {
		full := r.text()
		matches := d.Codec.Find(full)
		for i := len(matches) - 1; i >= 0; i-- {
			nodes = append(nodes, d.encapsulate(t, r, full, matches[i][0], matches[i][1]))
		}
	}
	t.SortDocumentOrder(nodes)

	out := make([]Placeholder, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.Read(t, n))
	}
	return out
}

// Read parses the placeholder held by container n.
func (d *Detector) Read(t *tree.Tree, n tree.NodeID) Placeholder {
	raw := d.Cap.GetText(t, n)
	key, attrs, err := d.Codec.Parse(raw)
	if err != nil {
		key = guessKey(d.Codec, raw)
	}
	return Placeholder{Key: key, Attrs: attrs, Node: n, Raw: raw, Err: err}
}

func guessKey(c Codec, raw string) string {
	inner := strings.TrimPrefix(raw, c.prefix())
	inner = strings.TrimSpace(strings.TrimSuffix(inner, c.suffix()))
	if f := strings.Fields(inner); len(f) > 0 {
		return f[0]
	}
	return ""
}

func (d *Detector) runs(t *tree.Tree) []*run {
	var runs []*run
	t.Walk(t.Root(), func(n tree.NodeID) bool {
		if d.Cap.IsPartialTextContainer(t, n) {
			cur := &run{}
			for _, c := range t.Children(n) {
				if tree.IsTextUnit(t, d.Cap, c) {
					cur.units = append(cur.units, c)
					cur.texts = append(cur.texts, d.Cap.GetText(t, c))
					continue
				}
				if len(cur.units) > 0 {
					runs = append(runs, cur)
					cur = &run{}
				}
			}
			if len(cur.units) > 0 {
				runs = append(runs, cur)
			}
			return true
		}
		if tree.IsTextUnit(t, d.Cap, n) {
			if p := t.Parent(n); p != tree.None && d.Cap.IsPartialTextContainer(t, p) {
				return false
			}
			if d.Cap.IsTextContainer(t, n) {
				runs = append(runs, &run{units: []tree.NodeID{n}, texts: []string{d.Cap.GetText(t, n)}})
				return false
			}
		}
		return true
	})
	return runs
}

// locate maps a byte offset of the run text to a unit index and an offset
// inside that unit. With end set, an offset on a unit boundary belongs to
// the unit on its left.
func (r *run) locate(off int, end bool) (int, int) {
	pos := 0
	for i, s := range r.texts {
		if off < pos+len(s) || (end && off == pos+len(s)) {
			return i, off - pos
		}
		pos += len(s)
	}
	last := len(r.texts) - 1
	return last, len(r.texts[last])
}

func (d *Detector) encapsulate(t *tree.Tree, r *run, full string, start, end int) tree.NodeID {
	ia, a := r.locate(start, false)
	ib, b := r.locate(end, true)
	unitA, unitB := r.units[ia], r.units[ib]
	textA, textB := r.texts[ia], r.texts[ib]

	if ia == ib && a == 0 && b == len(textA) && d.Cap.IsTextContainer(t, unitA) {
		return unitA
	}

	raw := full[start:end]
	c := d.newContainer(t, unitA)
	d.Cap.SetText(t, c, raw)
	t.InsertAfter(unitA, c)

	if ia == ib {
		if rest := textA[b:]; rest != "" {
			tail := d.sameKind(t, unitA)
			d.Cap.SetText(t, tail, rest)
			t.InsertAfter(c, tail)
		}
	} else {
		if rest := textB[b:]; rest == "" {
			t.Remove(unitB)
		} else {
			d.Cap.SetText(t, unitB, rest)
			r.texts[ib] = rest
		}
		for _, mid := range r.units[ia+1 : ib] {
			t.Remove(mid)
		}
	}

	if prefix := textA[:a]; prefix == "" {
		t.Remove(unitA)
	} else {
		d.Cap.SetText(t, unitA, prefix)
	}
	r.texts[ia] = textA[:a]
	return c
}

// newContainer returns a detached container styled like unit when unit is
// a container itself, or a fresh minimal one otherwise.
func (d *Detector) newContainer(t *tree.Tree, unit tree.NodeID) tree.NodeID {
	if d.Cap.IsTextContainer(t, unit) {
		return t.CloneDeep(unit)
	}
	c := d.Cap.CreateTextContainer(t, t.Parent(unit))
	t.Remove(c)
	return c
}

func (d *Detector) sameKind(t *tree.Tree, unit tree.NodeID) tree.NodeID {
	if t.IsText(unit) {
		return t.NewText("")
	}
	return t.CloneDeep(unit)
}

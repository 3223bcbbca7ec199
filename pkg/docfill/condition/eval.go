package condition

import (
	"strings"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

// Resolver looks up the data a comparison field names. It reports false
// when nothing is found.
type Resolver func(field string) (*datamodel.Node, bool)

// Eval evaluates the tree. And and Or stop at the first operand that
// decides the result.
func (n *Node) Eval(resolve Resolver) bool {
	switch n.Op {
	case OpNot:
		return !n.Children[0].Eval(resolve)
	case OpAnd:
		for _, c := range n.Children {
			if !c.Eval(resolve) {
				return false
			}
		}
		return true
	case OpOr:
		for _, c := range n.Children {
			if c.Eval(resolve) {
				return true
			}
		}
		return false
	}

	found, ok := resolve(n.Field)
	if !ok {
		found = nil
	}
	if n.Op == OpCompare {
		return Equal(found, n.Value)
	}
	c, comparable := Order(found, n.Value)
	if !comparable {
		return false
	}
	switch n.Op {
	case OpLess:
		return c < 0
	case OpGreater:
		return c > 0
	case OpLessOrEqual:
		return c <= 0
	case OpGreaterOrEqual:
		return c >= 0
	}
	return false
}

// Equal reports whether a data node matches a literal. A nil literal
// matches a missing or null node, an empty list literal matches an empty
// list, other lists match item by item and scalars match by value.
func Equal(found *datamodel.Node, literal any) bool {
	if found != nil {
		found = found.Deref()
	}
	if literal == nil {
		return found == nil || found.IsNull()
	}
	if found == nil || found.IsNull() {
		return false
	}
	switch lit := literal.(type) {
	case []any:
		if found.Kind() != datamodel.KindList || found.Len() != len(lit) {
			return false
		}
		for i, item := range found.Items() {
			if !Equal(item, lit[i]) {
				return false
			}
		}
		return true
	case *placeholder.Attributes:
		if found.Kind() != datamodel.KindMap || found.Len() != lit.Len() {
			return false
		}
		for _, k := range lit.Keys() {
			child, ok := found.Get(k)
			v, _ := lit.Get(k)
			if !ok || !Equal(child, v) {
				return false
			}
		}
		return true
	}
	c, ok := Order(found, literal)
	return ok && c == 0
}

// Order compares a leaf node with a scalar literal. Numbers compare across
// integer and floating point, strings lexically, booleans false before
// true. The second result is false when the two cannot be compared.
func Order(found *datamodel.Node, literal any) (int, bool) {
	if found == nil {
		return 0, false
	}
	found = found.Deref()
	if found == nil || found.Kind() != datamodel.KindLeaf || found.IsNull() {
		return 0, false
	}
	return compareScalars(found.Value(), literal)
}

func compareScalars(a, b any) (int, bool) {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return cmpOrdered(x, y), true
		case float64:
			return cmpOrdered(float64(x), y), true
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return cmpOrdered(x, float64(y)), true
		case float64:
			return cmpOrdered(x, y), true
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case []byte:
		if y, ok := b.(string); ok {
			return strings.Compare(string(x), y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

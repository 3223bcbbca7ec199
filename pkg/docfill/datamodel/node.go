package datamodel

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindMap
	KindList
	KindReferred
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindReferred:
		return "referred"
	default:
		return "leaf"
	}
}

// maxDerefDepth bounds chains of referred nodes.
const maxDerefDepth = 64

// Node is one value of the data model: an ordered map, a list, a scalar
// leaf or a lazily resolved reference to another node.
//
// Leaf values are nil, string, int64, float64, bool or []byte.
type Node struct {
	kind  Kind
	keys  []string
	props map[string]*Node
	items []*Node
	value any
	ref   func() *Node
}

// NewMap returns an empty map node.
func NewMap() *Node {
	return &Node{kind: KindMap, props: map[string]*Node{}}
}

// NewList returns a list node holding items.
func NewList(items ...*Node) *Node {
	return &Node{kind: KindList, items: append([]*Node(nil), items...)}
}

// NewLeaf wraps a scalar. Integer and float types are widened to int64 and
// float64; anything else that is not a supported scalar is formatted with
// %v.
func NewLeaf(v any) *Node {
	return &Node{kind: KindLeaf, value: normalizeScalar(v)}
}

// Null returns a leaf holding nil.
func Null() *Node {
	return &Node{kind: KindLeaf}
}

// NewReferred returns a node whose value is produced by resolve on every
// read.
func NewReferred(resolve func() *Node) *Node {
	return &Node{kind: KindReferred, ref: resolve}
}

func normalizeScalar(v any) any {
	switch x := v.(type) {
	case nil, string, int64, float64, bool, []byte:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Kind returns the variant of n. A nil node reports KindLeaf.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindLeaf
	}
	return n.kind
}

// Deref follows referred nodes until a concrete node is reached.
func (n *Node) Deref() *Node {
	for i := 0; n != nil && n.kind == KindReferred; i++ {
		if i >= maxDerefDepth {
			return nil
		}
		n = n.ref()
	}
	return n
}

// IsNull reports whether n is missing or a nil leaf.
func (n *Node) IsNull() bool {
	n = n.Deref()
	return n == nil || (n.kind == KindLeaf && n.value == nil)
}

// Value returns the scalar of a leaf, nil otherwise.
func (n *Node) Value() any {
	n = n.Deref()
	if n == nil || n.kind != KindLeaf {
		return nil
	}
	return n.value
}

// Set stores child under name, keeping first insertion order. It returns
// n for chaining.
func (n *Node) Set(name string, child *Node) *Node {
	if _, ok := n.props[name]; !ok {
		n.keys = append(n.keys, name)
	}
	n.props[name] = child
	return n
}

// Get returns the property name of a map node.
func (n *Node) Get(name string) (*Node, bool) {
	n = n.Deref()
	if n == nil || n.kind != KindMap {
		return nil, false
	}
	c, ok := n.props[name]
	return c, ok
}

// Keys returns the property names of a map in insertion order.
func (n *Node) Keys() []string {
	n = n.Deref()
	if n == nil || n.kind != KindMap {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Append adds items to a list node and returns n.
func (n *Node) Append(items ...*Node) *Node {
	n.items = append(n.items, items...)
	return n
}

// Index returns item i of a list node.
func (n *Node) Index(i int) (*Node, bool) {
	n = n.Deref()
	if n == nil || n.kind != KindList || i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// Items returns the items of a list node.
func (n *Node) Items() []*Node {
	n = n.Deref()
	if n == nil || n.kind != KindList {
		return nil
	}
	return append([]*Node(nil), n.items...)
}

// Len is the number of properties of a map or items of a list.
func (n *Node) Len() int {
	n = n.Deref()
	if n == nil {
		return 0
	}
	switch n.kind {
	case KindMap:
		return len(n.keys)
	case KindList:
		return len(n.items)
	}
	return 0
}

// Text renders a leaf the way it is written into a document.
func (n *Node) Text() string {
	switch v := n.Value().(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// FromValue converts plain Go values (as produced by encoding/json, yaml or
// cbor decoders) into a Node tree. Keys of Go maps are sorted because Go
// maps carry no order.
func FromValue(v any) *Node {
	switch x := v.(type) {
	case *Node:
		return x
	case map[string]any:
		m := NewMap()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, FromValue(x[k]))
		}
		return m
	case map[any]any:
		m := NewMap()
		keys := make([]string, 0, len(x))
		byKey := make(map[string]any, len(x))
		for k, val := range x {
			ks := fmt.Sprint(k)
			keys = append(keys, ks)
			byKey[ks] = val
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, FromValue(byKey[k]))
		}
		return m
	case []any:
		l := NewList()
		for _, item := range x {
			l.Append(FromValue(item))
		}
		return l
	case []string:
		l := NewList()
		for _, item := range x {
			l.Append(NewLeaf(item))
		}
		return l
	case []map[string]any:
		l := NewList()
		for _, item := range x {
			l.Append(FromValue(item))
		}
		return l
	default:
		return NewLeaf(x)
	}
}

// ToValue converts n back into plain Go values: map[string]any, []any and
// scalars. Referred nodes are resolved.
func (n *Node) ToValue() any {
	n = n.Deref()
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindMap:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.props[k].ToValue()
		}
		return out
	case KindList:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = item.ToValue()
		}
		return out
	default:
		return n.value
	}
}

func (n *Node) String() string {
	n = n.Deref()
	if n == nil {
		return "<nil>"
	}
	switch n.kind {
	case KindMap:
		return fmt.Sprintf("map%v", n.keys)
	case KindList:
		return fmt.Sprintf("list[%d]", len(n.items))
	default:
		return fmt.Sprintf("%#v", n.value)
	}
}

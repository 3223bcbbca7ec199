package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

// AccessType says where the value of a logical attribute comes from.
type AccessType int

const (
	AccessMissing AccessType = iota
	// AccessLiteral reads the attribute value itself: value:"x".
	AccessLiteral
	// AccessModel reads a model path: *value:"a.b".
	AccessModel
	// AccessVariable reads a variable path: $value:"item.name".
	AccessVariable
	// AccessIndirect reads a variable whose value names another variable:
	// $$value:"which".
	AccessIndirect
)

const (
	prefixModel    = "*"
	prefixVariable = "$"
	prefixIndirect = "$$"
)

func (a AccessType) String() string {
	switch a {
	case AccessLiteral:
		return "literal"
	case AccessModel:
		return "model"
	case AccessVariable:
		return "variable"
	case AccessIndirect:
		return "indirect"
	}
	return "missing"
}

// ResolveAccess finds which spelling of the logical attribute name is
// present in attrs and returns its access type and actual key.
func ResolveAccess(attrs *placeholder.Attributes, name string) (AccessType, string) {
	candidates := []struct {
		key    string
		access AccessType
	}{
		{prefixIndirect + name, AccessIndirect},
		{prefixModel + name, AccessModel},
		{prefixVariable + name, AccessVariable},
		{name, AccessLiteral},
	}
	for _, c := range candidates {
		if attrs.Has(c.key) {
			return c.access, c.key
		}
	}
	return AccessMissing, ""
}

// SplitAccess interprets a bare field name by its own prefix, as used by
// condition fields and the short String forms.
func SplitAccess(field string) (AccessType, string) {
	switch {
	case strings.HasPrefix(field, prefixIndirect):
		return AccessIndirect, field[len(prefixIndirect):]
	case strings.HasPrefix(field, prefixModel):
		return AccessModel, field[len(prefixModel):]
	case strings.HasPrefix(field, prefixVariable):
		return AccessVariable, field[len(prefixVariable):]
	}
	return AccessLiteral, field
}

// PickResult classifies the outcome of a lookup.
type PickResult int

const (
	Resolved PickResult = iota
	// MissingAttribute means no spelling of the attribute was present.
	MissingAttribute
	// MissingValue means the attribute pointed at data that does not
	// exist or is null.
	MissingValue
	// InvalidValue means the attribute or the data found has the wrong
	// type.
	InvalidValue
)

func (r PickResult) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case MissingAttribute:
		return "missing attribute"
	case MissingValue:
		return "missing value"
	}
	return "invalid value"
}

// Pick looks up the logical attribute name. Path syntax errors are
// returned as errors; every other gap is reported through PickResult.
func Pick(env *Env, attrs *placeholder.Attributes, name string) (PickResult, *datamodel.Node, error) {
	access, key := ResolveAccess(attrs, name)
	if access == AccessMissing {
		return MissingAttribute, nil, nil
	}
	raw, _ := attrs.Get(key)
	if access == AccessLiteral {
		n := NodeFromAttr(raw)
		if n.IsNull() {
			return MissingValue, n, nil
		}
		return Resolved, n, nil
	}
	ref, ok := raw.(string)
	if !ok {
		return InvalidValue, nil, nil
	}
	return Lookup(env, access, ref)
}

// Lookup reads ref from the model or the variables.
func Lookup(env *Env, access AccessType, ref string) (PickResult, *datamodel.Node, error) {
	var (
		n     *datamodel.Node
		found bool
		err   error
	)
	switch access {
	case AccessModel:
		n, found, err = env.Model.Resolve(ref)
	case AccessVariable:
		n, found, err = env.Vars.Lookup(ref)
	case AccessIndirect:
		var holder *datamodel.Node
		holder, found, err = env.Vars.Lookup(ref)
		if err != nil || !found {
			break
		}
		if holder.Kind() != datamodel.KindLeaf || holder.IsNull() {
			return InvalidValue, holder, nil
		}
		n, found, err = env.Vars.Lookup(holder.Text())
	case AccessLiteral:
		n, found = datamodel.NewLeaf(ref), true
	default:
		return MissingAttribute, nil, nil
	}
	if err != nil {
		return InvalidValue, nil, NewConfigError(access.String()+" path", ref, err.Error())
	}
	if !found || n.IsNull() {
		return MissingValue, n, nil
	}
	return Resolved, n, nil
}

// NodeFromAttr converts an attribute value into a data node.
func NodeFromAttr(v any) *datamodel.Node {
	switch x := v.(type) {
	case *placeholder.Attributes:
		m := datamodel.NewMap()
		for _, k := range x.Keys() {
			child, _ := x.Get(k)
			m.Set(k, NodeFromAttr(child))
		}
		return m
	case []any:
		l := datamodel.NewList()
		for _, item := range x {
			l.Append(NodeFromAttr(item))
		}
		return l
	}
	return datamodel.NewLeaf(v)
}

// AttrFromNode converts a data node back into an attribute value.
func AttrFromNode(n *datamodel.Node) any {
	n = n.Deref()
	switch n.Kind() {
	case datamodel.KindMap:
		a := placeholder.NewAttributes()
		for _, k := range n.Keys() {
			child, _ := n.Get(k)
			a.Set(k, AttrFromNode(child))
		}
		return a
	case datamodel.KindList:
		items := make([]any, 0, n.Len())
		for _, item := range n.Items() {
			items = append(items, AttrFromNode(item))
		}
		return items
	}
	if b, ok := n.Value().([]byte); ok {
		return string(b)
	}
	return n.Value()
}

// PickString picks name and renders it as text. Non-leaf data is invalid.
func PickString(env *Env, attrs *placeholder.Attributes, name string) (string, PickResult, error) {
	res, n, err := Pick(env, attrs, name)
	if err != nil || res != Resolved {
		return "", res, err
	}
	if n.Kind() != datamodel.KindLeaf {
		return "", InvalidValue, nil
	}
	return n.Text(), Resolved, nil
}

// PickInt picks name as an integer. Whole floats and numeric strings are
// accepted.
func PickInt(env *Env, attrs *placeholder.Attributes, name string) (int, PickResult, error) {
	res, n, err := Pick(env, attrs, name)
	if err != nil || res != Resolved {
		return 0, res, err
	}
	switch v := n.Value().(type) {
	case int64:
		return int(v), Resolved, nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), Resolved, nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, Resolved, nil
		}
	}
	return 0, InvalidValue, nil
}

// PickBool picks name as a boolean.
func PickBool(env *Env, attrs *placeholder.Attributes, name string) (bool, PickResult, error) {
	res, n, err := Pick(env, attrs, name)
	if err != nil || res != Resolved {
		return false, res, err
	}
	switch v := n.Value().(type) {
	case bool:
		return v, Resolved, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, Resolved, nil
		}
	}
	return false, InvalidValue, nil
}

// PickList picks name as a list node.
func PickList(env *Env, attrs *placeholder.Attributes, name string) (*datamodel.Node, PickResult, error) {
	res, n, err := Pick(env, attrs, name)
	if err != nil || res != Resolved {
		return nil, res, err
	}
	if n.Deref().Kind() != datamodel.KindList {
		return nil, InvalidValue, nil
	}
	return n.Deref(), Resolved, nil
}

// LiteralString returns attrs[name] when it is a string.
func LiteralString(attrs *placeholder.Attributes, name string) (string, bool) {
	v, ok := attrs.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

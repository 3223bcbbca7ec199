package condition

import (
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

var orderOps = map[string]Op{
	"less":           OpLess,
	"greater":        OpGreater,
	"lessOrEqual":    OpLessOrEqual,
	"greaterOrEqual": OpGreaterOrEqual,
}

// Build turns the attributes of a conditional placeholder into a tree.
// Only the first attribute is read:
//
//	not:{...} / not:[...]      negation
//	and:[{...},{...}]          conjunction
//	or:[{...},{...}]           disjunction
//	less:{field:literal}       field < literal (also greater, lessOrEqual, greaterOrEqual)
//	field:literal              field == literal
func Build(attrs *placeholder.Attributes) (*Node, error) {
	key, value, ok := attrs.First()
	if !ok {
		return nil, &Error{Message: "no condition attribute"}
	}
	switch key {
	case "not", "and", "or":
		children, err := buildChildren(key, value)
		if err != nil {
			return nil, err
		}
		op := map[string]Op{"not": OpNot, "and": OpAnd, "or": OpOr}[key]
		if op == OpNot && len(children) != 1 {
			return nil, &Error{Source: key, Message: "expects exactly one operand"}
		}
		return &Node{Op: op, Children: children}, nil
	}
	if op, ok := orderOps[key]; ok {
		inner, isMap := value.(*placeholder.Attributes)
		if !isMap || inner.Len() != 1 {
			return nil, &Error{Source: key, Message: "expects an object with exactly one field"}
		}
		field, lit, _ := inner.First()
		return &Node{Op: op, Field: field, Value: lit}, nil
	}
	return &Node{Op: OpCompare, Field: key, Value: value}, nil
}

func buildChildren(key string, value any) ([]*Node, error) {
	switch v := value.(type) {
	case *placeholder.Attributes:
		child, err := Build(v)
		if err != nil {
			return nil, err
		}
		return []*Node{child}, nil
	case []any:
		if len(v) == 0 {
			return nil, &Error{Source: key, Message: "expects at least one operand"}
		}
		children := make([]*Node, 0, len(v))
		for _, item := range v {
			m, ok := item.(*placeholder.Attributes)
			if !ok {
				return nil, &Error{Source: key, Message: "operands must be objects, got " + placeholder.FormatValue(item)}
			}
			child, err := Build(m)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return children, nil
	default:
		return nil, &Error{Source: key, Message: "expects an object or an array of objects"}
	}
}

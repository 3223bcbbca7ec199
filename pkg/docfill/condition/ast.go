package condition

import (
	"fmt"
	"strings"

	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

// Op identifies a condition node variant.
type Op int

const (
	OpCompare Op = iota
	OpNot
	OpAnd
	OpOr
	OpLess
	OpGreater
	OpLessOrEqual
	OpGreaterOrEqual
)

var opNames = map[Op]string{
	OpCompare:        "==",
	OpNot:            "not",
	OpAnd:            "and",
	OpOr:             "or",
	OpLess:           "<",
	OpGreater:        ">",
	OpLessOrEqual:    "<=",
	OpGreaterOrEqual: ">=",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Node is one element of a condition tree. Logical nodes use Children;
// comparisons use Field and Value.
type Node struct {
	Op       Op
	Children []*Node
	Field    string
	Value    any
}

// Error reports a condition that cannot be built.
type Error struct {
	Message string
	Source  string
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("invalid condition %s: %s", e.Source, e.Message)
	}
	return "invalid condition: " + e.Message
}

// IsError checks if err is a condition Error.
func IsError(err error) bool {
	_, ok := err.(*Error)
	return ok
}

func (n *Node) String() string {
	switch n.Op {
	case OpNot, OpAnd, OpOr:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return n.Op.String() + "(" + strings.Join(parts, ", ") + ")"
	default:
		return n.Field + " " + n.Op.String() + " " + placeholder.FormatValue(n.Value)
	}
}

package datamodel

import (
	"fmt"
	"sort"
	"strings"
)

// VariableNameError is returned when a variable name contains path syntax.
type VariableNameError struct {
	Name string
}

func (e *VariableNameError) Error() string {
	return fmt.Sprintf("invalid variable name '%s': must be a bare token without . [ ] ^ <", e.Name)
}

// Variables holds one LIFO stack of nodes per variable name. A fill run
// owns exactly one instance; nested runs get their own.
type Variables struct {
	stacks map[string][]*Node
}

func NewVariables() *Variables {
	return &Variables{stacks: map[string][]*Node{}}
}

// ValidVariableName reports whether name can be pushed.
func ValidVariableName(name string) bool {
	return strings.TrimSpace(name) != "" && !strings.ContainsAny(name, ".[]^<")
}

// Push puts value on top of the stack for name.
func (v *Variables) Push(name string, value *Node) error {
	if !ValidVariableName(name) {
		return &VariableNameError{Name: name}
	}
	v.stacks[name] = append(v.stacks[name], value)
	return nil
}

// Pop removes the top of the stack for name. Popping an empty stack does
// nothing.
func (v *Variables) Pop(name string) {
	s := v.stacks[name]
	if len(s) == 0 {
		return
	}
	s = s[:len(s)-1]
	if len(s) == 0 {
		delete(v.stacks, name)
		return
	}
	v.stacks[name] = s
}

// Top returns the current value of name.
func (v *Variables) Top(name string) (*Node, bool) {
	s := v.stacks[name]
	if len(s) == 0 {
		return nil, false
	}
	return s[len(s)-1], true
}

// Depth is the number of values stacked under name.
func (v *Variables) Depth(name string) int {
	return len(v.stacks[name])
}

// Names lists variables with a non-empty stack, sorted.
func (v *Variables) Names() []string {
	names := make([]string, 0, len(v.stacks))
	for n := range v.stacks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get resolves a path whose first element names a variable. The rest of
// the path is resolved against the variable's current value.
func (v *Variables) Get(path Path) (*Node, bool) {
	first, rest, ok := path.First()
	if !ok || first.Kind != ElemProperty {
		return nil, false
	}
	top, ok := v.Top(first.Name)
	if !ok {
		return nil, false
	}
	return ResolveFrom(top, top, rest)
}

// Lookup parses text and calls Get.
func (v *Variables) Lookup(text string) (*Node, bool, error) {
	p, err := ParsePath(text)
	if err != nil {
		return nil, false, err
	}
	n, ok := v.Get(p)
	return n, ok, nil
}

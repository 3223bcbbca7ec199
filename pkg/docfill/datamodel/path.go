package datamodel

import (
	"fmt"
	"strconv"
	"strings"
)

// ElemKind identifies one step of a Path.
type ElemKind uint8

const (
	ElemProperty ElemKind = iota
	ElemIndex
	ElemRoot
	ElemBack
)

// Elem is a single path step.
type Elem struct {
	Kind  ElemKind
	Name  string
	Index int
}

func Property(name string) Elem { return Elem{Kind: ElemProperty, Name: name} }
func Index(i int) Elem          { return Elem{Kind: ElemIndex, Index: i} }
func Root() Elem                { return Elem{Kind: ElemRoot} }
func Back() Elem                { return Elem{Kind: ElemBack} }

// Path is an ordered list of steps into the data model.
type Path []Elem

// PathError reports malformed path syntax.
type PathError struct {
	Path     string
	Position int
	Message  string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path error in '%s' at position %d: %s", e.Path, e.Position, e.Message)
}

// ParsePath reads the textual form of a path in one left-to-right scan.
// "." separates properties, "[n]" selects a list index, "^" jumps to the
// model root and "<" steps back one element.
func ParsePath(s string) (Path, error) {
	var (
		path    Path
		pending strings.Builder
	)
	flush := func() {
		if pending.Len() > 0 {
			path = append(path, Property(pending.String()))
			pending.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '.':
			flush()
		case '^':
			flush()
			path = append(path, Root())
		case '<':
			flush()
			path = append(path, Back())
		case '[':
			flush()
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, &PathError{Path: s, Position: i, Message: "unterminated index"}
			}
			digits := s[i+1 : i+end]
			if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
				return nil, &PathError{Path: s, Position: i + 1, Message: fmt.Sprintf("invalid index %q", digits)}
			}
			n, err := strconv.Atoi(digits)
			if err != nil {
				return nil, &PathError{Path: s, Position: i + 1, Message: err.Error()}
			}
			path = append(path, Index(n))
			i += end
		case ']':
			return nil, &PathError{Path: s, Position: i, Message: "unexpected ']'"}
		default:
			pending.WriteByte(c)
		}
	}
	flush()
	return path, nil
}

// MustParsePath is ParsePath for literals known to be valid.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Append returns a copy of p extended by elems. A Back element removes the
// most recently accumulated element instead of being stored.
func (p Path) Append(elems ...Elem) Path {
	out := append(Path(nil), p...)
	for _, e := range elems {
		if e.Kind == ElemBack {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, e)
	}
	return out
}

// Extend parses suffix and appends it to p.
func (p Path) Extend(suffix string) (Path, error) {
	s, err := ParsePath(suffix)
	if err != nil {
		return nil, err
	}
	return p.Append(s...), nil
}

// Equal compares element by element.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// First splits off the first element.
func (p Path) First() (Elem, Path, bool) {
	if len(p) == 0 {
		return Elem{}, nil, false
	}
	return p[0], p[1:], true
}

// String formats p in normalized form: properties joined by ".", indexes
// as "[n]", root as "^" and back as "<".
func (p Path) String() string {
	var b strings.Builder
	for i, e := range p {
		switch e.Kind {
		case ElemProperty:
			if i > 0 && p[i-1].Kind != ElemRoot && p[i-1].Kind != ElemBack {
				b.WriteByte('.')
			}
			b.WriteString(e.Name)
		case ElemIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(e.Index))
			b.WriteByte(']')
		case ElemRoot:
			b.WriteByte('^')
		case ElemBack:
			b.WriteByte('<')
		}
	}
	return b.String()
}

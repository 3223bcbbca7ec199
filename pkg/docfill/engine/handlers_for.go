package engine

import (
	"strconv"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

const (
	KeyFor = "For"

	// DefaultLoopVariable is the variable a loop item is pushed as when
	// no "as" attribute is given.
	DefaultLoopVariable = "item"
)

// ForHandler repeats the content between ${For value:...} and ${EndFor}
// once per list item. Each copy is wrapped in markers that push the item
// (and the iteration index) before the copy and pop them after it, so the
// copies are filled by the ordinary handlers on the following scan.
//
//	${For *value:"customers", as:"c"} ${$c.name} ${EndFor}
type ForHandler struct{}

func (ForHandler) Keys() []string { return []string{KeyFor, EndKey(KeyFor)} }

func (ForHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() != KeyFor {
		return Ignored, nil
	}
	end, err := ctx.FindEnd()
	if err != nil {
		return Ignored, err
	}
	attrs := ctx.Attrs()

	as, hasAs, err := loopVariable(ctx.Env, attrs)
	if err != nil {
		return Ignored, err
	}

	access, key := ResolveAccess(attrs, "value")
	if access == AccessMissing {
		return Ignored, NewConfigError("value", "", "list to loop over required")
	}
	list, res, err := PickList(ctx.Env, attrs, "value")
	if err != nil {
		return Ignored, err
	}
	count := 0
	switch res {
	case Resolved:
		count = list.Len()
	case MissingValue:
		ctx.Log.Debug("no list for %s, removing loop", ctx.Placeholder.Raw)
	default:
		ctx.Log.Warn("%s does not point at a list, removing loop", ctx.Placeholder.Raw)
	}

	begin := ctx.Node()
	area, err := ctx.Area(begin, end.Node, ctx.BlockAncestor(begin, end.Node))
	if err != nil {
		return Ignored, err
	}
	areas := area.Repeat(count)
	if count == 0 {
		return Proceed, nil
	}

	ref, _ := LiteralString(attrs, key)
	src := loopSource{access: access, ref: ref, list: list, as: as, hasAs: hasAs}
	if access == AccessIndirect {
		hres, holder, err := Lookup(ctx.Env, AccessVariable, ref)
		if err != nil {
			return Ignored, err
		}
		if hres != Resolved {
			return Ignored, NewConfigError(key, ref, "variable holding the list path is not set")
		}
		src.access, src.ref = AccessVariable, holder.Text()
	}
	if access == AccessModel {
		abs, err := ctx.Env.Model.Current().Extend(ref)
		if err != nil {
			return Ignored, NewConfigError(key, ref, err.Error())
		}
		src.abs = absolute(abs).String()
		src.current = absolute(ctx.Env.Model.Current()).String()
	}

	type pair struct{ begin, end tree.NodeID }
	pairs := make([]pair, len(areas))
	for i, a := range areas {
		pairs[i] = pair{area.Locate(begin, a), area.Locate(end.Node, a)}
	}
	codec := ctx.Pipeline.Codec()
	for i, p := range pairs {
		ctx.ReplaceWith(p.end, src.closers(codec))
		ctx.ReplaceWith(p.begin, src.openers(codec, i))
	}
	return Rescan(begin), nil
}

// loopVariable reads the "as" attribute. A missing attribute yields the
// default name and false.
func loopVariable(env *Env, attrs *placeholder.Attributes) (string, bool, error) {
	res, n, err := Pick(env, attrs, "as")
	if err != nil {
		return "", false, err
	}
	switch res {
	case MissingAttribute:
		return DefaultLoopVariable, false, nil
	case Resolved:
		if s, ok := n.Value().(string); ok && datamodel.ValidVariableName(s) {
			return s, true, nil
		}
	}
	return "", false, NewConfigError("as", placeholder.FormatValue(AttrFromNode(n)), "loop variable must be a plain name")
}

// absolute drops everything before the last root element of p.
func absolute(p datamodel.Path) datamodel.Path {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Kind == datamodel.ElemRoot {
			return p[i+1:]
		}
	}
	return p
}

type loopSource struct {
	access  AccessType
	ref     string
	list    *datamodel.Node
	abs     string
	current string
	as      string
	hasAs   bool
}

func (s loopSource) openers(codec placeholder.Codec, i int) []string {
	var item *placeholder.Attributes
	idx := "[" + strconv.Itoa(i) + "]"
	switch {
	case s.access == AccessModel && !s.hasAs:
		item = nil
	case s.access == AccessModel:
		item = placeholder.NewAttributes().Set("key", s.as).Set("*value", "^"+s.abs+idx)
	case s.access == AccessVariable:
		item = placeholder.NewAttributes().Set("key", s.as).Set("$value", s.ref+idx)
	default:
		v, _ := s.list.Index(i)
		item = placeholder.NewAttributes().Set("key", s.as).Set("value", AttrFromNode(v))
	}

	out := make([]string, 0, 2)
	if item == nil {
		out = append(out, codec.Format(KeyModel, placeholder.NewAttributes().Set("value", s.abs+idx)))
	} else {
		out = append(out, codec.Format(KeyPush, item))
	}
	index := placeholder.NewAttributes().Set("key", IndexVariable).Set("value", int64(i))
	return append(out, codec.Format(KeyPush, index))
}

func (s loopSource) closers(codec placeholder.Codec) []string {
	out := []string{codec.Format(KeyPop, placeholder.NewAttributes().Set("key", IndexVariable))}
	if s.access == AccessModel && !s.hasAs {
		return append(out, codec.Format(KeyModel, placeholder.NewAttributes().Set("value", s.current)))
	}
	return append(out, codec.Format(KeyPop, placeholder.NewAttributes().Set("key", s.as)))
}

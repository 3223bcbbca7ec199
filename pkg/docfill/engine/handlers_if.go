package engine

import (
	"github.com/benjaminschreck/docfill/pkg/docfill/condition"
)

const KeyIf = "If"

// IfHandler keeps or removes the content between ${If ...} and ${EndIf}.
// The attributes form a condition:
//
//	${If *status:"open"} ... ${EndIf}
//	${If and:[{*a:1}, {not:{$b:true}}]} ... ${EndIf}
type IfHandler struct{}

func (IfHandler) Keys() []string { return []string{KeyIf, EndKey(KeyIf)} }

func (IfHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() != KeyIf {
		return Ignored, nil
	}
	end, err := ctx.FindEnd()
	if err != nil {
		return Ignored, err
	}
	cond, err := condition.Build(ctx.Attrs())
	if err != nil {
		return Ignored, err
	}
	var pathErr error
	ok := cond.Eval(ctx.ConditionResolver(&pathErr))
	if pathErr != nil {
		return Ignored, pathErr
	}
	ctx.Log.Debug("%s is %t", cond, ok)

	begin := ctx.Node()
	if ok {
		deletePlaceholder(ctx.Tree, ctx.Cap, end.Node, DeleteIfBlankParagraph)
		deletePlaceholder(ctx.Tree, ctx.Cap, begin, DeleteIfBlankParagraph)
		return Proceed, nil
	}
	area, err := ctx.Area(begin, end.Node, ctx.Tree.NearestCommonAncestor(begin, end.Node))
	if err != nil {
		return Ignored, err
	}
	area.Delete()
	return Proceed, nil
}

package engine

import (
	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// KeyRemove deletes the block around the marker:
//
//	${Remove type:"row"}
//	${Remove type:"table", now:true}
//
// Without now the block is removed once the whole document has been
// filled, so placeholders inside it still run (a Push in a row that is
// removed later, for example).
const KeyRemove = "Remove"

// Block types a Remove marker can delete.
const (
	RemoveParagraph = "paragraph"
	RemoveRow       = "row"
	RemoveTable     = "table"
)

// RemoveHandler implements KeyRemove. Rows and tables need a format with
// TableCapability.
type RemoveHandler struct{}

func (RemoveHandler) Keys() []string { return []string{KeyRemove} }

func (RemoveHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() != KeyRemove {
		return Ignored, nil
	}
	attrs := ctx.Attrs()
	kind, res, err := PickString(ctx.Env, attrs, "type")
	if err != nil {
		return Ignored, err
	}
	if res != Resolved {
		return Ignored, NewConfigError("type", "", "one of paragraph, row or table expected")
	}
	match, err := blockMatcher(ctx, kind)
	if err != nil {
		return Ignored, err
	}
	now, nres, err := PickBool(ctx.Env, attrs, "now")
	if err != nil {
		return Ignored, err
	}
	if nres == InvalidValue {
		return Ignored, NewConfigError("now", "", "boolean expected")
	}

	n := ctx.Node()
	if now {
		return Proceed, removeBlock(ctx, n, kind, match)
	}
	ctx.AtEnd(func() error {
		if !ctx.Tree.Attached(n) {
			return nil
		}
		return removeBlock(ctx, n, kind, match)
	})
	return Proceed, nil
}

func blockMatcher(ctx *Context, kind string) (func(tree.NodeID) bool, error) {
	tc, hasTables := ctx.Cap.(tree.TableCapability)
	switch kind {
	case RemoveParagraph:
		return func(n tree.NodeID) bool { return ctx.Cap.IsParagraph(ctx.Tree, n) }, nil
	case RemoveRow, RemoveTable:
		if !hasTables {
			return nil, NewConfigError("type", kind, "format has no tables")
		}
		if kind == RemoveRow {
			return func(n tree.NodeID) bool { return tc.IsTableRow(ctx.Tree, n) }, nil
		}
		return func(n tree.NodeID) bool { return tc.IsTable(ctx.Tree, n) }, nil
	}
	return nil, NewConfigError("type", kind, "one of paragraph, row or table expected")
}

// removeBlock deletes the nearest block of kind around n, the marker
// included.
func removeBlock(ctx *Context, n tree.NodeID, kind string, match func(tree.NodeID) bool) error {
	block := tree.EnclosingOf(ctx.Tree, n, match)
	if block == tree.None || block == ctx.Tree.Root() {
		return NewConfigError("type", kind, "marker is not inside a "+kind)
	}
	ctx.Log.Debug("removing %s around %s", kind, ctx.Placeholder.Raw)
	ctx.Tree.Remove(block)
	return nil
}

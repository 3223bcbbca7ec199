package engine

import (
	"context"
	"fmt"
	"regexp"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

const KeyImport = "Import"

// FragmentSource supplies documents to import. The children of the
// returned node are copied into the importing document, so the fragment
// must be parsed by the same format.
type FragmentSource interface {
	Fragment(name string) (*tree.Tree, tree.NodeID, error)
}

// FragmentSourceFunc adapts a function to FragmentSource.
type FragmentSourceFunc func(name string) (*tree.Tree, tree.NodeID, error)

func (f FragmentSourceFunc) Fragment(name string) (*tree.Tree, tree.NodeID, error) {
	return f(name)
}

// ImportHandler fills a registered fragment and splices it in front of
// the paragraph holding ${Import name:"header"}. The fragment is filled by
// a nested pipeline with the same handlers, the same model and current
// path, and its own variables. With beginFragment and endFragment (regular
// expressions) only the blocks strictly between the first block matching
// beginFragment and the next one matching endFragment are used.
type ImportHandler struct {
	Source FragmentSource
}

func (ImportHandler) Keys() []string { return []string{KeyImport} }

func (h ImportHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() != KeyImport || h.Source == nil {
		return Ignored, nil
	}
	attrs := ctx.Attrs()
	name, res, err := PickString(ctx.Env, attrs, "name")
	if err != nil {
		return Ignored, err
	}
	if res != Resolved || name == "" {
		return Ignored, NewConfigError("name", name, "fragment name required")
	}
	opts := ctx.Pipeline.Options()
	if opts.MaxDepth > 0 && opts.Depth >= opts.MaxDepth {
		return Ignored, NewConfigError("name", name, fmt.Sprintf("imports nested deeper than %d", opts.MaxDepth))
	}
	filter, err := newFragmentFilter(attrs)
	if err != nil {
		return Ignored, err
	}

	src, root, err := h.Source.Fragment(name)
	if err != nil {
		return Ignored, err
	}
	sub := tree.New(src.Tag(root))
	for _, c := range src.Children(root) {
		if filter.keep(src.TextContent(c)) {
			sub.AppendChild(sub.Root(), sub.Import(src, c))
		}
	}

	env := &Env{
		Model:  datamodel.NewModel(ctx.Env.Model.Root()),
		Vars:   datamodel.NewVariables(),
		Policy: ctx.Env.Policy,
	}
	env.Model.SetCurrent(ctx.Env.Model.Current())
	opts.Depth++
	nested := NewPipeline(sub, ctx.Cap, env, opts).Register(ctx.Pipeline.Handlers...)
	runCtx := ctx.Ctx
	if runCtx == nil {
		runCtx = context.Background()
	}
	if err := nested.Run(runCtx); err != nil {
		return Ignored, fmt.Errorf("import '%s': %w", name, err)
	}

	n := ctx.Node()
	anchor := tree.ParagraphOf(ctx.Tree, ctx.Cap, n)
	if anchor == tree.None || anchor == ctx.Tree.Root() {
		anchor = n
	}
	// The fragment is already filled, so its leftovers (ignored regions,
	// skipped placeholders) must not be picked up by this run.
	for _, c := range sub.Children(sub.Root()) {
		n := ctx.Tree.Import(sub, c)
		ctx.Tree.InsertBefore(anchor, n)
		ctx.Seal(n)
	}
	ctx.Log.Debug("imported '%s' at depth %d", name, opts.Depth)
	return Proceed, ctx.DeletePlaceholder(DeleteIfBlankParagraph)
}

type fragmentState int

const (
	copyAll fragmentState = iota
	waitBegin
	waitEnd
	done
)

type fragmentFilter struct {
	begin, end *regexp.Regexp
	state      fragmentState
}

func newFragmentFilter(attrs *placeholder.Attributes) (*fragmentFilter, error) {
	f := &fragmentFilter{}
	for _, spec := range []struct {
		name string
		dst  **regexp.Regexp
	}{{"beginFragment", &f.begin}, {"endFragment", &f.end}} {
		v, ok := attrs.Get(spec.name)
		if !ok {
			continue
		}
		s, _ := v.(string)
		re, err := regexp.Compile(s)
		if err != nil || s == "" {
			return nil, NewConfigError(spec.name, s, "regular expression expected")
		}
		*spec.dst = re
	}
	switch {
	case f.begin != nil:
		f.state = waitBegin
	case f.end != nil:
		f.state = waitEnd
	}
	return f, nil
}

func (f *fragmentFilter) keep(text string) bool {
	switch f.state {
	case copyAll:
		return true
	case waitBegin:
		if f.begin.MatchString(text) {
			f.state = waitEnd
		}
		return false
	case waitEnd:
		if f.end != nil && f.end.MatchString(text) {
			f.state = done
			return false
		}
		return true
	}
	return false
}

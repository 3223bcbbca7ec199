package engine

import (
	"context"

	"github.com/benjaminschreck/docfill/pkg/docfill/condition"
	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// Context is what a handler sees for one placeholder: the tree, the data
// and the full list of placeholders of the current scan.
type Context struct {
	// Ctx is the context the pipeline runs under.
	Ctx          context.Context
	Pipeline     *Pipeline
	Tree         *tree.Tree
	Cap          tree.TextCapability
	Env          *Env
	Placeholder  placeholder.Placeholder
	Placeholders []placeholder.Placeholder
	Index        int
	Log          Logger
}

func (c *Context) Key() string {
	return c.Placeholder.Key
}

// Attrs returns the placeholder attributes, never nil.
func (c *Context) Attrs() *placeholder.Attributes {
	if c.Placeholder.Attrs == nil {
		return placeholder.NewAttributes()
	}
	return c.Placeholder.Attrs
}

func (c *Context) Node() tree.NodeID {
	return c.Placeholder.Node
}

// Replace sets the text of the placeholder container.
func (c *Context) Replace(text string) {
	c.Cap.SetText(c.Tree, c.Placeholder.Node, text)
}

// Seal excludes the subtree at n from the rest of the scan. Handlers seal
// content that was already filled elsewhere.
func (c *Context) Seal(n tree.NodeID) {
	c.Pipeline.sealed = append(c.Pipeline.sealed, n)
}

// AtEnd defers fn until the scan has reached the end of the document or
// an exit marker. Deferred actions run in registration order.
func (c *Context) AtEnd(fn func() error) {
	c.Pipeline.atEnd = append(c.Pipeline.atEnd, fn)
}

// Policy returns the base policy with this placeholder's overrides.
func (c *Context) Policy() (*Policy, error) {
	return c.Env.Policy.WithOverrides(c.Attrs())
}

// Format renders key and attrs with the pipeline codec.
func (c *Context) Format(key string, attrs *placeholder.Attributes) string {
	return c.Pipeline.Codec().Format(key, attrs)
}

// DeletePlaceholder removes the placeholder according to mode. For
// DeleteEnclosingArea the area runs up to the matching end marker; a
// placeholder without one takes its paragraph with it.
func (c *Context) DeletePlaceholder(mode DeleteMode) error {
	if mode != DeleteEnclosingArea {
		deletePlaceholder(c.Tree, c.Cap, c.Placeholder.Node, mode)
		return nil
	}
	if !c.hasEndMarker() {
		deletePlaceholder(c.Tree, c.Cap, c.Placeholder.Node, DeleteParagraph)
		return nil
	}
	end, err := c.FindEnd()
	if err != nil {
		return err
	}
	area, err := c.Area(c.Placeholder.Node, end.Node, c.Tree.NearestCommonAncestor(c.Placeholder.Node, end.Node))
	if err != nil {
		return err
	}
	area.Delete()
	return nil
}

func deletePlaceholder(t *tree.Tree, c tree.TextCapability, n tree.NodeID, mode DeleteMode) {
	para := tree.ParagraphOf(t, c, n)
	if para == n || para == t.Root() {
		para = tree.None
	}
	t.Remove(n)
	if para == tree.None {
		return
	}
	switch mode {
	case DeleteParagraph:
		t.Remove(para)
	case DeleteIfBlankParagraph:
		if tree.IsBlank(t, c, para) {
			t.Remove(para)
		}
	}
}

func (c *Context) hasEndMarker() bool {
	end := EndKey(c.Key())
	for _, ph := range c.Placeholders[c.Index+1:] {
		if ph.Key == end {
			return true
		}
	}
	return false
}

// FindEnd returns the marker closing the current placeholder.
func (c *Context) FindEnd() (placeholder.Placeholder, error) {
	i, err := FindEnd(c.Placeholders, c.Index, c.Key())
	if err != nil {
		return placeholder.Placeholder{}, err
	}
	return c.Placeholders[i], nil
}

// Area splits the tree so begin and end delimit an area under ancestor.
func (c *Context) Area(begin, end, ancestor tree.NodeID) (*tree.Area, error) {
	if ancestor == begin || ancestor == end || ancestor == tree.None {
		ancestor = c.Tree.NearestCommonAncestor(begin, end)
		if ancestor == begin || ancestor == end {
			ancestor = c.Tree.Parent(ancestor)
		}
	}
	return tree.NewArea(c.Tree, begin, end, ancestor)
}

// BlockAncestor picks the ancestor loops repeat under: the parent of the
// outermost paragraph (or table row, when the format knows tables)
// holding both nodes, or their nearest common ancestor.
func (c *Context) BlockAncestor(begin, end tree.NodeID) tree.NodeID {
	tc, hasTables := c.Cap.(tree.TableCapability)
	return tree.OldestCommonAncestor(c.Tree, begin, end, func(n tree.NodeID) bool {
		if c.Cap.IsParagraph(c.Tree, n) {
			return true
		}
		return hasTables && tc.IsTableRow(c.Tree, n)
	})
}

// ReplaceWith turns the container n into one placeholder per text. The
// first text reuses n, the others go into copies of n placed after it.
// With no texts n is deleted.
func (c *Context) ReplaceWith(n tree.NodeID, texts []string) tree.NodeID {
	if len(texts) == 0 {
		deletePlaceholder(c.Tree, c.Cap, n, DeleteIfBlankParagraph)
		return tree.None
	}
	prev := n
	for _, text := range texts[1:] {
		clone := c.Tree.CloneDeep(n)
		c.Cap.SetText(c.Tree, clone, text)
		c.Tree.InsertAfter(prev, clone)
		prev = clone
	}
	c.Cap.SetText(c.Tree, n, texts[0])
	return n
}

// ConditionResolver resolves condition fields through the access prefixes.
// Bare fields are read from the model relative to the current path. The
// first path syntax error is kept in errp.
func (c *Context) ConditionResolver(errp *error) condition.Resolver {
	return func(field string) (*datamodel.Node, bool) {
		access, ref := SplitAccess(field)
		if access == AccessLiteral {
			access = AccessModel
		}
		res, n, err := Lookup(c.Env, access, ref)
		if err != nil {
			if *errp == nil {
				*errp = err
			}
			return nil, false
		}
		return n, res == Resolved
	}
}

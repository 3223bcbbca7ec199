package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

func TestBlockAncestor(t *testing.T) {
	tr := tree.New("doc")
	table := tr.NewElement("table")
	row := tr.NewElement("row")
	tr.AppendChild(tr.Root(), table)
	tr.AppendChild(table, row)
	var runs []tree.NodeID
	for i := 0; i < 2; i++ {
		p := tr.NewElement("p")
		r := tr.NewElement("r")
		tr.AppendChild(row, p)
		tr.AppendChild(p, r)
		runs = append(runs, r)
	}

	plain := &Context{Tree: tr, Cap: testDoc{}}
	assert.Equal(t, row, plain.BlockAncestor(runs[0], runs[1]))

	withRows := &Context{Tree: tr, Cap: tableDoc{}}
	assert.Equal(t, table, withRows.BlockAncestor(runs[0], runs[1]))
}

func TestReplaceWith(t *testing.T) {
	tr := newDoc("x")
	p := tr.FirstChild(tr.Root())
	r := testDoc{}.CreateTextContainer(tr, p)
	ctx := &Context{Tree: tr, Cap: testDoc{}}

	got := ctx.ReplaceWith(r, []string{"a", "b", "c"})
	assert.Equal(t, r, got)
	assert.Equal(t, "<doc><p>x<r>a</r><r>b</r><r>c</r></p></doc>", tr.Dump(tr.Root()))

	assert.Equal(t, tree.None, ctx.ReplaceWith(r, nil))
	assert.Equal(t, "xbc", tr.TextContent(p))
}

func TestDeleteKeepsParagraphWithContent(t *testing.T) {
	tr := newDoc("")
	p := tr.FirstChild(tr.Root())
	tr.AppendChild(p, tr.NewElement("img"))
	r := testDoc{}.CreateTextContainer(tr, p)

	deletePlaceholder(tr, testDoc{}, r, DeleteIfBlankParagraph)
	assert.True(t, tr.Attached(p))
	assert.False(t, tr.Attached(r))
}

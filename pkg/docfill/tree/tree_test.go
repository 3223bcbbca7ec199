package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build creates <doc><p>ab<b>cd</b></p><p>ef</p></doc> and returns named nodes.
func build() (*Tree, map[string]NodeID) {
	t := New("doc")
	ids := map[string]NodeID{}
	p1 := t.NewElement("p")
	t.AppendChild(t.Root(), p1)
	ab := t.NewText("ab")
	t.AppendChild(p1, ab)
	b := t.NewElement("b", Attr{Name: "style", Value: "bold"})
	t.AppendChild(p1, b)
	cd := t.NewText("cd")
	t.AppendChild(b, cd)
	p2 := t.NewElement("p")
	t.AppendChild(t.Root(), p2)
	ef := t.NewText("ef")
	t.AppendChild(p2, ef)
	ids["p1"], ids["ab"], ids["b"], ids["cd"], ids["p2"], ids["ef"] = p1, ab, b, cd, p2, ef
	return t, ids
}

func TestTreeBasics(t *testing.T) {
	tr, ids := build()

	assert.Equal(t, "<doc><p>ab<b style=\"bold\">cd</b></p><p>ef</p></doc>", tr.Dump(tr.Root()))
	assert.Equal(t, "abcdef", tr.TextContent(tr.Root()))
	assert.Equal(t, ids["b"], tr.NextSibling(ids["ab"]))
	assert.Equal(t, None, tr.NextSibling(ids["b"]))
	assert.Equal(t, ids["ab"], tr.PrevSibling(ids["b"]))
	assert.Equal(t, 3, tr.Depth(ids["cd"]))
	assert.True(t, tr.IsAncestor(ids["p1"], ids["cd"]))
	assert.False(t, tr.IsAncestor(ids["p2"], ids["cd"]))
	assert.Equal(t, ids["p1"], tr.NearestCommonAncestor(ids["ab"], ids["cd"]))
	assert.Equal(t, tr.Root(), tr.NearestCommonAncestor(ids["cd"], ids["ef"]))
	assert.Equal(t, ids["p1"], tr.ChildContaining(tr.Root(), ids["cd"]))

	v, ok := tr.Attr(ids["b"], "style")
	require.True(t, ok)
	assert.Equal(t, "bold", v)
	tr.SetAttr(ids["b"], "style", "italic")
	v, _ = tr.Attr(ids["b"], "style")
	assert.Equal(t, "italic", v)
}

func TestCompareDocumentOrder(t *testing.T) {
	tr, ids := build()

	tests := []struct {
		name string
		a, b NodeID
		want int
	}{
		{"same node", ids["ab"], ids["ab"], 0},
		{"siblings", ids["ab"], ids["b"], -1},
		{"ancestor first", ids["p1"], ids["cd"], -1},
		{"across paragraphs", ids["ef"], ids["cd"], 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Compare(tt.a, tt.b))
		})
	}

	order := []NodeID{ids["ef"], ids["cd"], ids["p1"], ids["ab"]}
	tr.SortDocumentOrder(order)
	assert.Equal(t, []NodeID{ids["p1"], ids["ab"], ids["cd"], ids["ef"]}, order)
}

func TestRemoveAndInsert(t *testing.T) {
	tr, ids := build()

	tr.Remove(ids["b"])
	assert.False(t, tr.Attached(ids["cd"]))
	assert.Equal(t, "abef", tr.TextContent(tr.Root()))

	tr.InsertBefore(ids["ef"], ids["b"])
	assert.Equal(t, "<doc><p>ab</p><p><b style=\"bold\">cd</b>ef</p></doc>", tr.Dump(tr.Root()))

	tr.InsertAfter(ids["ef"], ids["ab"])
	assert.Equal(t, "<doc><p></p><p><b style=\"bold\">cd</b>efab</p></doc>", tr.Dump(tr.Root()))
}

func TestCloneDeepIsDetachedCopy(t *testing.T) {
	tr, ids := build()

	c := tr.CloneDeep(ids["p1"])
	assert.Equal(t, None, tr.Parent(c))
	assert.Equal(t, tr.Dump(ids["p1"]), tr.Dump(c))

	tr.SetText(tr.FirstChild(c), "zz")
	assert.Equal(t, "ab", tr.Text(ids["ab"]))
}

func TestRelPathFollow(t *testing.T) {
	tr, ids := build()

	path, ok := tr.RelPath(tr.Root(), ids["cd"])
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 0}, path)
	assert.Equal(t, ids["cd"], tr.Follow(tr.Root(), path))

	_, ok = tr.RelPath(ids["p2"], ids["cd"])
	assert.False(t, ok)
}

func TestContainerText(t *testing.T) {
	tr := New("span")
	tr.AppendChild(tr.Root(), tr.NewText("a"))
	tr.AppendChild(tr.Root(), tr.NewText("b"))

	ContainerText(tr, tr.Root(), "xyz")
	assert.Equal(t, "<span>xyz</span>", tr.Dump(tr.Root()))

	empty := tr.NewElement("span")
	ContainerText(tr, empty, "new")
	assert.Equal(t, "<span>new</span>", tr.Dump(empty))
}

type blankCap struct{}

func (blankCap) IsTextBearing(t *Tree, n NodeID) bool          { return t.IsText(n) }
func (blankCap) IsTextContainer(t *Tree, n NodeID) bool        { return t.Tag(n) == "b" }
func (blankCap) IsPartialTextContainer(t *Tree, n NodeID) bool { return t.Tag(n) == "p" }
func (blankCap) IsParagraph(t *Tree, n NodeID) bool            { return t.Tag(n) == "p" }
func (blankCap) GetText(t *Tree, n NodeID) string              { return t.TextContent(n) }
func (blankCap) SetText(t *Tree, n NodeID, text string)        { ContainerText(t, n, text) }
func (blankCap) CreateTextContainer(t *Tree, parent NodeID) NodeID {
	b := t.NewElement("b")
	t.AppendChild(parent, b)
	return b
}

type contentCap struct{ blankCap }

func (contentCap) IsContent(t *Tree, n NodeID) bool { return t.Tag(n) == "img" }

func TestIsBlank(t *testing.T) {
	tr := New("doc")
	p := tr.NewElement("p")
	tr.AppendChild(tr.Root(), p)
	tr.AppendChild(p, tr.NewText(" \t"))
	img := tr.NewElement("img")
	tr.AppendChild(p, img)

	assert.True(t, IsBlank(tr, blankCap{}, p))
	assert.False(t, IsBlank(tr, contentCap{}, p))

	tr.Remove(img)
	assert.True(t, IsBlank(tr, contentCap{}, p))
	tr.AppendChild(p, tr.NewText("x"))
	assert.False(t, IsBlank(tr, blankCap{}, p))
	assert.Equal(t, p, ParagraphOf(tr, blankCap{}, tr.LastChild(p)))
}

func TestImportAcrossTrees(t *testing.T) {
	src, ids := build()
	dst := New("body")
	c := dst.Import(src, ids["p1"])
	assert.False(t, dst.Attached(c))
	dst.AppendChild(dst.Root(), c)
	assert.Equal(t, `<body><p>ab<b style="bold">cd</b></p></body>`, dst.Dump(dst.Root()))
	assert.Equal(t, "abcdef", src.TextContent(src.Root()))
}

func TestCloneKeepsIDs(t *testing.T) {
	tr, ids := build()
	c := tr.Clone()
	require.Equal(t, tr.Dump(tr.Root()), c.Dump(c.Root()))

	c.SetText(ids["cd"], "xx")
	c.SetAttr(ids["b"], "style", "italic")
	c.Remove(ids["p2"])

	assert.Equal(t, "abcdef", tr.TextContent(tr.Root()))
	assert.Equal(t, "abxx", c.TextContent(c.Root()))
	v, _ := tr.Attr(ids["b"], "style")
	assert.Equal(t, "bold", v)
}

func TestEnclosingOf(t *testing.T) {
	tr, ids := build()
	isP := func(n NodeID) bool { return tr.Tag(n) == "p" }

	assert.Equal(t, ids["p1"], EnclosingOf(tr, ids["cd"], isP))
	assert.Equal(t, ids["p2"], EnclosingOf(tr, ids["p2"], isP))
	assert.Equal(t, None, EnclosingOf(tr, ids["cd"], func(n NodeID) bool { return tr.Tag(n) == "table" }))
}

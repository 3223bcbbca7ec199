package docxdoc

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/engine"
	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

const (
	decl    = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`
	wordNS  = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	stylesX = `<w:styles ` + wordNS + `><w:style w:styleId="Normal"/></w:styles>`
)

// createDocx builds a minimal package with the given body and, when
// header is not empty, one header part.
func createDocx(t *testing.T, body, header string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	add := func(name, content string) {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}

	add("[Content_Types].xml", decl+`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`)
	add("_rels/.rels", decl+`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`)
	rels := ""
	if header != "" {
		rels = `<Relationship Id="rId7" Type="` + RelTypeHeader + `" Target="header1.xml"/>`
		add("word/header1.xml", decl+`<w:hdr `+wordNS+`>`+header+`</w:hdr>`)
	}
	add("word/_rels/document.xml.rels", decl+`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+rels+`</Relationships>`)
	add("word/styles.xml", decl+stylesX)
	add(MainPart, decl+"\n"+`<w:document `+wordNS+`>
  <w:body>
    `+body+`
  </w:body>
</w:document>`)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func run(t *testing.T, tr *tree.Tree, js string) {
	t.Helper()
	root, err := datamodel.DecodeJSON(strings.NewReader(js))
	require.NoError(t, err)
	p := engine.NewPipeline(tr, Cap{}, engine.NewEnv(root), engine.Options{}).
		Register(engine.NewHandlers().List()...)
	require.NoError(t, p.Run(context.Background()))
}

func paragraphs(tr *tree.Tree) []string {
	var out []string
	tr.Walk(tr.Root(), func(n tree.NodeID) bool {
		if (Cap{}).IsParagraph(tr, n) {
			out = append(out, tr.TextContent(n))
			return false
		}
		return true
	})
	return out
}

func count(tr *tree.Tree, tag string) int {
	n := 0
	tr.Walk(tr.Root(), func(id tree.NodeID) bool {
		if tr.IsElement(id) && tr.Tag(id) == tag {
			n++
		}
		return true
	})
	return n
}

func TestFillSplitRuns(t *testing.T) {
	body := `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Dear ${*na</w:t></w:r><w:proofErr w:type="spellStart"/><w:r><w:t>me}</w:t></w:r><w:proofErr w:type="spellEnd"/><w:r><w:t>,</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>${*missing}</w:t></w:r></w:p>` +
		`<w:p><w:pPr><w:sectPr/></w:pPr><w:r><w:t>${*missing}</w:t></w:r></w:p>`
	doc, err := ParseBytes(createDocx(t, body, ""))
	require.NoError(t, err)
	run(t, doc.Tree, `{"name":"Ann"}`)

	assert.Equal(t, []string{"Dear Ann,", ""}, paragraphs(doc.Tree))
	assert.Equal(t, 0, count(doc.Tree, "w:proofErr"))

	xml := string(doc.Parts[0].Marshal())
	assert.Contains(t, xml, `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Ann</w:t></w:r>`)
	assert.Contains(t, xml, `<w:sectPr/>`)
}

func TestLoopRepeatsTableRow(t *testing.T) {
	body := `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>${For *value:"rows", as:"r"}${$r}${EndFor}</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`
	doc, err := ParseBytes(createDocx(t, body, ""))
	require.NoError(t, err)
	run(t, doc.Tree, `{"rows":["a","b","c"]}`)

	assert.Equal(t, 3, count(doc.Tree, TagRow))
	assert.Equal(t, []string{"a", "b", "c"}, paragraphs(doc.Tree))
}

func TestWriteKeepsOtherParts(t *testing.T) {
	src := createDocx(t,
		`<w:p><w:r><w:t>${*title}</w:t></w:r></w:p>`,
		`<w:p><w:r><w:t>Page of ${*title}</w:t></w:r></w:p>`)
	doc, err := ParseBytes(src)
	require.NoError(t, err)
	require.Len(t, doc.Parts, 2)
	assert.Equal(t, "word/header1.xml", doc.Parts[1].Name)

	for _, p := range doc.Parts {
		run(t, p.Tree, `{"title":"Report"}`)
	}
	var out bytes.Buffer
	require.NoError(t, doc.Write(&out))

	pkg, err := NewPackage(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	orig, err := NewPackage(bytes.NewReader(src), int64(len(src)))
	require.NoError(t, err)
	assert.Equal(t, orig.PartNames(), pkg.PartNames())

	styles, err := pkg.Part("word/styles.xml")
	require.NoError(t, err)
	assert.Equal(t, decl+stylesX, string(styles))

	header, err := pkg.Part("word/header1.xml")
	require.NoError(t, err)
	hpart, err := ParseXML(header)
	require.NoError(t, err)
	assert.Equal(t, []string{"Page of Report"}, paragraphs(hpart.Tree))

	again, err := FromPackage(pkg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Report"}, paragraphs(again.Tree))
}

func TestMarshalRoundTrip(t *testing.T) {
	src := decl + "\n" + `<w:document xmlns:w="urn:w"><!-- c --><w:body><w:p w:rsidR="00A1"><w:r><w:t xml:space="preserve">a &amp; b </w:t></w:r></w:p><w:sectPr/></w:body></w:document>`
	part, err := ParseXML([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, string(part.Marshal()))

	// A bare tree has no declaration to write.
	assert.NotContains(t, string(MarshalXML(part.Tree)), "<?xml")
}

func TestParseErrors(t *testing.T) {
	_, err := ParseXML([]byte(`<w:p><w:r></w:p>`))
	assert.Error(t, err)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, err = w.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = ParseBytes(buf.Bytes())
	assert.ErrorContains(t, err, "missing word/document.xml")
}

func TestCap(t *testing.T) {
	part, err := ParseXML([]byte(`<w:p><w:r><w:rPr/><w:t>x</w:t></w:r><w:r><w:drawing/></w:r><w:hyperlink><w:r><w:t>y</w:t><w:t>z</w:t></w:r></w:hyperlink></w:p>`))
	require.NoError(t, err)
	tr := part.Tree
	c := Cap{}
	p := tr.FirstChild(tr.Root())
	kids := tr.Children(p)

	assert.True(t, c.IsParagraph(tr, p))
	assert.True(t, c.IsTextContainer(tr, kids[0]))
	assert.Equal(t, "x", c.GetText(tr, kids[0]))
	assert.False(t, c.IsTextContainer(tr, kids[1]))
	assert.False(t, tree.IsBlank(tr, c, kids[1]))
	assert.True(t, c.IsPartialTextContainer(tr, kids[2]))

	link := tr.FirstChild(kids[2])
	assert.Equal(t, "yz", c.GetText(tr, link))
	c.SetText(tr, link, " q ")
	assert.Equal(t, `<w:r><w:t xml:space="preserve"> q </w:t></w:r>`, strings.TrimSpace(string(MarshalXML(treeOf(tr, link)))))

	r := c.CreateTextContainer(tr, p)
	assert.True(t, c.IsTextContainer(tr, r))
	assert.Equal(t, "", c.GetText(tr, r))
}

func TestTableCap(t *testing.T) {
	part, err := ParseXML([]byte(`<w:tbl><w:tr><w:tc><w:p/></w:tc></w:tr></w:tbl>`))
	require.NoError(t, err)
	tr := part.Tree
	tbl := tr.FirstChild(tr.Root())
	row := tr.FirstChild(tbl)
	c := Cap{}

	assert.True(t, c.IsTable(tr, tbl))
	assert.False(t, c.IsTable(tr, row))
	assert.True(t, c.IsTableRow(tr, row))
}

// treeOf copies the subtree at id into a tree of its own.
func treeOf(src *tree.Tree, id tree.NodeID) *tree.Tree {
	tr := tree.New(TagDocument)
	tr.AppendChild(tr.Root(), tr.Import(src, id))
	return tr
}

func TestFragmentDropsSectionProperties(t *testing.T) {
	body := `<w:p><w:r><w:t>one</w:t></w:r></w:p><w:p><w:r><w:t>two</w:t></w:r></w:p><w:sectPr/>`
	doc, err := ParseBytes(createDocx(t, body, ""))
	require.NoError(t, err)

	frag, root := doc.Fragment()
	assert.Equal(t, TagBody, frag.Tag(root))
	assert.Equal(t, 2, frag.ChildCount(root))
	assert.Equal(t, []string{"one", "two"}, paragraphs(frag))
	assert.Equal(t, 1, count(doc.Tree, TagSectPr))
}

// Package docxdoc reads DOCX templates into document trees and writes the
// filled result back into the original package.
//
// The body, headers and footers each become a tree of raw XML elements
// whose tags keep their namespace prefix ("w:p", "w:r"). Everything that
// is not filled is copied through byte for byte.
package docxdoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// Tags the capability looks at.
const (
	TagParagraph = "w:p"
	TagRun       = "w:r"
	TagText      = "w:t"
	TagRunProps  = "w:rPr"
	TagRow       = "w:tr"
	TagTable     = "w:tbl"
	TagHyperlink = "w:hyperlink"
	TagBody      = "w:body"
	TagSectPr    = "w:sectPr"

	TagDocument = "#document"
	TagComment  = "#comment"
	TagProcInst = "#procinst"

	attrData   = "data"
	attrTarget = "target"
)

var (
	// Elements whose character data is content.
	textHolders = map[string]bool{"w:t": true, "w:instrText": true, "w:delText": true}
	// Layout caches Word regenerates; they would split placeholders typed
	// in one go.
	dropped = map[string]bool{"w:proofErr": true, "w:lastRenderedPageBreak": true}
	// Elements that keep a paragraph alive without any text.
	contentTags = map[string]bool{
		"w:drawing": true, "w:pict": true, "w:object": true, "w:br": true,
		"w:sectPr": true, "w:fldChar": true, "w:sym": true, "w:footnoteReference": true,
		"w:endnoteReference": true,
	}
)

// Cap is the text capability of WordprocessingML. Paragraphs and
// hyperlinks are partial text containers, plain runs (properties and text
// only) are text containers and the character data inside w:t is text
// bearing.
type Cap struct{}

func (Cap) IsTextBearing(t *tree.Tree, n tree.NodeID) bool {
	if !t.IsText(n) {
		return false
	}
	p := t.Parent(n)
	return p != tree.None && t.Tag(p) == TagText
}

func (Cap) IsTextContainer(t *tree.Tree, n tree.NodeID) bool {
	if !t.IsElement(n) || t.Tag(n) != TagRun {
		return false
	}
	for _, c := range t.Children(n) {
		if tag := t.Tag(c); t.IsText(c) || (tag != TagRunProps && tag != TagText) {
			return false
		}
	}
	return true
}

func (Cap) IsPartialTextContainer(t *tree.Tree, n tree.NodeID) bool {
	tag := t.Tag(n)
	return t.IsElement(n) && (tag == TagParagraph || tag == TagHyperlink)
}

func (Cap) IsParagraph(t *tree.Tree, n tree.NodeID) bool {
	return t.IsElement(n) && t.Tag(n) == TagParagraph
}

func (Cap) GetText(t *tree.Tree, n tree.NodeID) string {
	if t.IsText(n) {
		return t.Text(n)
	}
	var b strings.Builder
	for _, c := range t.Children(n) {
		if t.Tag(c) == TagText {
			b.WriteString(t.TextContent(c))
		}
	}
	return b.String()
}

// SetText writes text into the first w:t of run n and drops the others.
func (Cap) SetText(t *tree.Tree, n tree.NodeID, text string) {
	if t.IsText(n) {
		t.SetText(n, text)
		return
	}
	holder := tree.None
	for _, c := range t.Children(n) {
		if t.Tag(c) != TagText {
			continue
		}
		if holder == tree.None {
			holder = c
			continue
		}
		t.Remove(c)
	}
	if holder == tree.None {
		holder = t.NewElement(TagText)
		t.AppendChild(n, holder)
	}
	t.SetAttr(holder, "xml:space", "preserve")
	tree.ContainerText(t, holder, text)
}

func (c Cap) CreateTextContainer(t *tree.Tree, parent tree.NodeID) tree.NodeID {
	run := t.NewElement(TagRun)
	t.AppendChild(parent, run)
	c.SetText(t, run, "")
	return run
}

func (Cap) IsTableRow(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == TagRow }

func (Cap) IsTable(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == TagTable }

func (Cap) IsContent(t *tree.Tree, n tree.NodeID) bool { return contentTags[t.Tag(n)] }

// Part is one filled XML part of the package.
type Part struct {
	Name string
	Tree *tree.Tree
	decl string
}

// Document is a parsed DOCX template.
type Document struct {
	// Tree is the body tree; it is also Parts[0].Tree.
	Tree  *tree.Tree
	Parts []*Part
	pkg   *Package
}

// Parse reads a DOCX package from r.
func Parse(r io.ReaderAt, size int64) (*Document, error) {
	pkg, err := NewPackage(r, size)
	if err != nil {
		return nil, err
	}
	return FromPackage(pkg)
}

// ParseBytes reads a DOCX package held in memory.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data), int64(len(data)))
}

// FromPackage parses the body, header and footer parts of pkg.
func FromPackage(pkg *Package) (*Document, error) {
	names, err := pkg.HeaderFooterParts()
	if err != nil {
		return nil, err
	}
	d := &Document{pkg: pkg}
	for _, name := range append([]string{MainPart}, names...) {
		data, err := pkg.Part(name)
		if err != nil {
			return nil, err
		}
		part, err := parsePart(name, data)
		if err != nil {
			return nil, err
		}
		d.Parts = append(d.Parts, part)
	}
	d.Tree = d.Parts[0].Tree
	return d, nil
}

// Write stores the filled package in w.
func (d *Document) Write(w io.Writer) error {
	override := make(map[string][]byte, len(d.Parts))
	for _, p := range d.Parts {
		override[p.Name] = p.Marshal()
	}
	return d.pkg.write(w, override)
}

// ParseXML reads a single WordprocessingML part. The part keeps the XML
// declaration so Marshal writes it back.
func ParseXML(data []byte) (*Part, error) {
	return parsePart("", data)
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func parsePart(name string, data []byte) (*Part, error) {
	t := tree.New(TagDocument)
	part := &Part{Name: name, Tree: t}
	dec := xml.NewDecoder(bytes.NewReader(data))
	stack := []tree.NodeID{t.Root()}
	skip := 0

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		top := stack[len(stack)-1]

		switch tok := tok.(type) {
		case xml.StartElement:
			tag := qualified(tok.Name)
			if skip > 0 || dropped[tag] {
				skip++
				continue
			}
			attrs := make([]tree.Attr, 0, len(tok.Attr))
			for _, a := range tok.Attr {
				attrs = append(attrs, tree.Attr{Name: qualified(a.Name), Value: a.Value})
			}
			id := t.NewElement(tag, attrs...)
			t.AppendChild(top, id)
			stack = append(stack, id)
		case xml.EndElement:
			if skip > 0 {
				skip--
				continue
			}
			if len(stack) == 1 {
				return nil, fmt.Errorf("parse %s: unexpected </%s>", name, qualified(tok.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if skip > 0 {
				continue
			}
			s := string(tok)
			if textHolders[t.Tag(top)] || strings.TrimSpace(s) != "" {
				t.AppendChild(top, t.NewText(s))
			}
		case xml.ProcInst:
			if tok.Target == "xml" && top == t.Root() && part.decl == "" {
				part.decl = "<?xml " + string(tok.Inst) + "?>"
				continue
			}
			t.AppendChild(top, t.NewElement(TagProcInst,
				tree.Attr{Name: attrTarget, Value: tok.Target},
				tree.Attr{Name: attrData, Value: string(tok.Inst)}))
		case xml.Comment:
			if skip == 0 {
				t.AppendChild(top, t.NewElement(TagComment, tree.Attr{Name: attrData, Value: string(tok)}))
			}
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("parse %s: unclosed <%s>", name, t.Tag(stack[len(stack)-1]))
	}
	return part, nil
}

// Marshal serializes the part tree.
func (p *Part) Marshal() []byte {
	var buf bytes.Buffer
	if p.decl != "" {
		buf.WriteString(p.decl)
		buf.WriteByte('\n')
	}
	for _, c := range p.Tree.Children(p.Tree.Root()) {
		writeNode(&buf, p.Tree, c)
	}
	return buf.Bytes()
}

// MarshalXML serializes a bare tree without an XML declaration. Use
// Part.Marshal for parts read with ParseXML.
func MarshalXML(t *tree.Tree) []byte {
	return (&Part{Tree: t}).Marshal()
}

func writeNode(buf *bytes.Buffer, t *tree.Tree, id tree.NodeID) {
	if t.IsText(id) {
		_ = xml.EscapeText(buf, []byte(t.Text(id)))
		return
	}
	switch tag := t.Tag(id); tag {
	case TagComment:
		data, _ := t.Attr(id, attrData)
		buf.WriteString("<!--" + data + "-->")
		return
	case TagProcInst:
		target, _ := t.Attr(id, attrTarget)
		data, _ := t.Attr(id, attrData)
		buf.WriteString("<?" + target + " " + data + "?>")
		return
	}

	buf.WriteByte('<')
	buf.WriteString(t.Tag(id))
	for _, a := range t.Attrs(id) {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		_ = xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	kids := t.Children(id)
	if len(kids) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, c := range kids {
		writeNode(buf, t, c)
	}
	buf.WriteString("</")
	buf.WriteString(t.Tag(id))
	buf.WriteByte('>')
}

// Clone returns a copy whose part trees can be filled independently. The
// package itself is shared; it is only read.
func (d *Document) Clone() *Document {
	c := &Document{pkg: d.pkg, Parts: make([]*Part, len(d.Parts))}
	for i, p := range d.Parts {
		c.Parts[i] = &Part{Name: p.Name, Tree: p.Tree.Clone(), decl: p.decl}
	}
	c.Tree = c.Parts[0].Tree
	return c
}

// Fragment copies the block content of the body (everything but the
// section properties) into a tree of its own, ready to be imported into
// another document.
func (d *Document) Fragment() (*tree.Tree, tree.NodeID) {
	out := tree.New(TagBody)
	body := tree.None
	for _, c := range d.Tree.Children(d.Tree.Root()) {
		for _, b := range d.Tree.Children(c) {
			if d.Tree.Tag(b) == TagBody {
				body = b
			}
		}
	}
	if body == tree.None {
		return out, out.Root()
	}
	for _, c := range d.Tree.Children(body) {
		if d.Tree.Tag(c) != TagSectPr {
			out.AppendChild(out.Root(), out.Import(d.Tree, c))
		}
	}
	return out, out.Root()
}

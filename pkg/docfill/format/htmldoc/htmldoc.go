// Package htmldoc reads HTML (and Markdown, through goldmark) templates
// into a document tree and renders them back.
package htmldoc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"

	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// Tags of nodes that are not elements in the HTML sense.
const (
	TagDocument = "#document"
	TagComment  = "#comment"
	TagDoctype  = "#doctype"

	attrData = "data"
)

var (
	paragraphTags = set("p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "dt", "dd", "pre", "caption", "figcaption", "title")
	blockTags     = set("body", "div", "section", "article", "header", "footer", "main", "aside", "blockquote", "td", "th", "label", "button")
	inlineTags    = set("span", "b", "i", "em", "strong", "u", "s", "a", "code", "small", "sup", "sub", "mark", "abbr", "cite", "q", "kbd", "var", "del", "ins")
	contentTags   = set("img", "br", "hr", "input", "iframe", "video", "audio", "svg", "canvas", "object", "embed")
)

func set(tags ...string) map[string]bool {
	m := make(map[string]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}

// Cap is the text capability of HTML documents. Block tags holding
// inline content are partial text containers; the ones in paragraphTags
// also count as paragraphs. Inline formatting tags with only text inside
// are text containers. Table rows are known so loops can repeat them.
type Cap struct{}

func (Cap) IsTextBearing(t *tree.Tree, n tree.NodeID) bool { return t.IsText(n) }

func (Cap) IsTextContainer(t *tree.Tree, n tree.NodeID) bool {
	if !inlineTags[t.Tag(n)] || !t.IsElement(n) {
		return false
	}
	for _, c := range t.Children(n) {
		if !t.IsText(c) {
			return false
		}
	}
	return true
}

func (Cap) IsPartialTextContainer(t *tree.Tree, n tree.NodeID) bool {
	tag := t.Tag(n)
	return t.IsElement(n) && (paragraphTags[tag] || blockTags[tag])
}

func (Cap) IsParagraph(t *tree.Tree, n tree.NodeID) bool {
	return t.IsElement(n) && paragraphTags[t.Tag(n)]
}

func (Cap) GetText(t *tree.Tree, n tree.NodeID) string { return t.TextContent(n) }

func (Cap) SetText(t *tree.Tree, n tree.NodeID, text string) {
	tree.ContainerText(t, n, text)
}

func (Cap) CreateTextContainer(t *tree.Tree, parent tree.NodeID) tree.NodeID {
	span := t.NewElement("span")
	t.AppendChild(parent, span)
	t.AppendChild(span, t.NewText(""))
	return span
}

func (Cap) IsTableRow(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == "tr" }

func (Cap) IsTable(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == "table" }

func (Cap) IsContent(t *tree.Tree, n tree.NodeID) bool { return contentTags[t.Tag(n)] }

// Document is a parsed HTML template.
type Document struct {
	Tree *tree.Tree
}

// Parse reads a complete HTML document. Missing html, head and body
// elements are added the way browsers do.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	t := tree.New(TagDocument)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if id, ok := fromHTML(t, c); ok {
			t.AppendChild(t.Root(), id)
		}
	}
	return &Document{Tree: t}, nil
}

// FromMarkdown renders Markdown (with GFM tables) to HTML and parses the
// result. Emphasis markers inside placeholders, as in ${*a} ... ${*b},
// must be escaped with a backslash.
func FromMarkdown(src []byte) (*Document, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return Parse(&buf)
}

func fromHTML(t *tree.Tree, n *html.Node) (tree.NodeID, bool) {
	switch n.Type {
	case html.TextNode:
		return t.NewText(n.Data), true
	case html.CommentNode:
		return t.NewElement(TagComment, tree.Attr{Name: attrData, Value: n.Data}), true
	case html.DoctypeNode:
		return t.NewElement(TagDoctype, tree.Attr{Name: attrData, Value: n.Data}), true
	case html.ElementNode:
		attrs := make([]tree.Attr, 0, len(n.Attr))
		for _, a := range n.Attr {
			name := a.Key
			if a.Namespace != "" {
				name = a.Namespace + ":" + a.Key
			}
			attrs = append(attrs, tree.Attr{Name: name, Value: a.Val})
		}
		id := t.NewElement(n.Data, attrs...)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child, ok := fromHTML(t, c); ok {
				t.AppendChild(id, child)
			}
		}
		return id, true
	}
	return tree.None, false
}

func toHTML(t *tree.Tree, id tree.NodeID) *html.Node {
	if t.IsText(id) {
		return &html.Node{Type: html.TextNode, Data: t.Text(id)}
	}
	switch tag := t.Tag(id); tag {
	case TagComment, TagDoctype:
		data, _ := t.Attr(id, attrData)
		typ := html.CommentNode
		if tag == TagDoctype {
			typ = html.DoctypeNode
		}
		return &html.Node{Type: typ, Data: data}
	}
	n := &html.Node{Type: html.ElementNode, Data: t.Tag(id)}
	for _, a := range t.Attrs(id) {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Name, Val: a.Value})
	}
	for _, c := range t.Children(id) {
		n.AppendChild(toHTML(t, c))
	}
	return n
}

// Render writes the whole document.
func (d *Document) Render(w io.Writer) error {
	doc := &html.Node{Type: html.DocumentNode}
	for _, c := range d.Tree.Children(d.Tree.Root()) {
		doc.AppendChild(toHTML(d.Tree, c))
	}
	return html.Render(w, doc)
}

// RenderBody writes only the children of the body element, which is what
// a Markdown source usually wants back.
func (d *Document) RenderBody(w io.Writer) error {
	body := d.Body()
	if body == d.Tree.Root() {
		return d.Render(w)
	}
	for _, c := range d.Tree.Children(body) {
		if err := html.Render(w, toHTML(d.Tree, c)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) find(tag string) tree.NodeID {
	found := tree.None
	d.Tree.Walk(d.Tree.Root(), func(n tree.NodeID) bool {
		if found == tree.None && d.Tree.IsElement(n) && d.Tree.Tag(n) == tag {
			found = n
		}
		return found == tree.None
	})
	return found
}

// Clone returns an independent copy for one fill.
func (d *Document) Clone() *Document {
	return &Document{Tree: d.Tree.Clone()}
}

// Body returns the body element, or the document root when there is none.
func (d *Document) Body() tree.NodeID {
	if b := d.find("body"); b != tree.None {
		return b
	}
	return d.Tree.Root()
}

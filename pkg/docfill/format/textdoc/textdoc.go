// Package textdoc reads plain text templates into a document tree: one
// paragraph per line, raw text inside.
package textdoc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

const (
	TagDocument  = "doc"
	TagParagraph = "p"
	TagSpan      = "span"
)

// Cap is the text capability of plain text documents.
type Cap struct{}

func (Cap) IsTextBearing(t *tree.Tree, n tree.NodeID) bool   { return t.IsText(n) }
func (Cap) IsTextContainer(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == TagSpan }
func (Cap) IsPartialTextContainer(t *tree.Tree, n tree.NodeID) bool {
	return t.Tag(n) == TagParagraph
}
func (Cap) IsParagraph(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == TagParagraph }
func (Cap) GetText(t *tree.Tree, n tree.NodeID) string   { return t.TextContent(n) }

func (Cap) SetText(t *tree.Tree, n tree.NodeID, text string) {
	tree.ContainerText(t, n, text)
}

func (Cap) CreateTextContainer(t *tree.Tree, parent tree.NodeID) tree.NodeID {
	span := t.NewElement(TagSpan)
	t.AppendChild(parent, span)
	t.AppendChild(span, t.NewText(""))
	return span
}

// Document is a parsed text template.
type Document struct {
	Tree *tree.Tree
	// Encoding is the charset the source was read with; Write uses it
	// too. Nil means UTF-8.
	Encoding encoding.Encoding
	// Name is the canonical charset name.
	Name string
}

// Parse reads r as UTF-8.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}
	return FromString(string(data)), nil
}

// ParseCharset reads r in the named charset. An empty label detects the
// charset from a byte order mark or the content itself.
func ParseCharset(r io.Reader, label string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}

	var (
		enc  encoding.Encoding
		name string
	)
	if label != "" {
		enc, name = charset.Lookup(label)
		if enc == nil {
			return nil, fmt.Errorf("unknown charset %q", label)
		}
	} else {
		var certain bool
		enc, name, certain = charset.DetermineEncoding(data, "text/plain")
		// Plain ASCII is reported as an uncertain windows-1252.
		if !certain && utf8.Valid(data) {
			enc, name = encoding.Nop, "utf-8"
		}
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	doc := FromString(string(decoded))
	if name != "utf-8" {
		doc.Encoding = enc
	}
	doc.Name = name
	return doc, nil
}

// FromString builds a document from text. A trailing newline does not
// produce an empty last paragraph.
func FromString(s string) *Document {
	t := tree.New(TagDocument)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	for _, line := range strings.Split(s, "\n") {
		p := t.NewElement(TagParagraph)
		t.AppendChild(t.Root(), p)
		if line != "" {
			t.AppendChild(p, t.NewText(line))
		}
	}
	return &Document{Tree: t, Name: "utf-8"}
}

// String renders the paragraphs joined by newlines.
func (d *Document) String() string {
	lines := make([]string, 0, d.Tree.ChildCount(d.Tree.Root()))
	for _, p := range d.Tree.Children(d.Tree.Root()) {
		lines = append(lines, d.Tree.TextContent(p))
	}
	return strings.Join(lines, "\n")
}

// Write renders the document in its source charset.
func (d *Document) Write(w io.Writer) error {
	if d.Encoding != nil {
		w = transform.NewWriter(w, d.Encoding.NewEncoder())
	}
	if _, err := io.WriteString(w, d.String()+"\n"); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Clone returns an independent copy for one fill.
func (d *Document) Clone() *Document {
	return &Document{Tree: d.Tree.Clone(), Encoding: d.Encoding, Name: d.Name}
}

package docfill

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/benjaminschreck/docfill/pkg/docfill/format/docxdoc"
	"github.com/benjaminschreck/docfill/pkg/docfill/format/htmldoc"
	"github.com/benjaminschreck/docfill/pkg/docfill/format/textdoc"
	"github.com/benjaminschreck/docfill/pkg/docfill/format/xlsxdoc"
	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// Format names a template document format.
type Format string

const (
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatDOCX     Format = "docx"
	FormatXLSX     Format = "xlsx"
)

// ErrUnknownFormat is returned for formats no adapter handles.
var ErrUnknownFormat = errors.New("unsupported template format")

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatHTML, FormatMarkdown, FormatDOCX, FormatXLSX}

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "text", "txt":
		return FormatText, nil
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "docx":
		return FormatDOCX, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ContentType returns the MIME type of filled documents of format f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML, FormatMarkdown:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Template is a parsed, immutable template. Every fill works on a copy,
// so one Template can be filled concurrently.
type Template struct {
	Name   string
	Format Format

	source []byte
	text   *textdoc.Document
	html   *htmldoc.Document
	docx   *docxdoc.Document
}

// ParseTemplate parses data as a template of the given format.
func ParseTemplate(name string, format Format, data []byte) (*Template, error) {
	t := &Template{Name: name, Format: format, source: data}
	var err error
	switch format {
	case FormatText:
		t.text, err = textdoc.ParseCharset(bytes.NewReader(data), "")
	case FormatHTML:
		t.html, err = htmldoc.Parse(bytes.NewReader(data))
	case FormatMarkdown:
		t.html, err = htmldoc.FromMarkdown(data)
	case FormatDOCX:
		t.docx, err = docxdoc.ParseBytes(data)
	case FormatXLSX:
		// Workbooks are mutable excelize files; each fill reopens the source.
		var doc *xlsxdoc.Document
		doc, err = xlsxdoc.Parse(bytes.NewReader(data))
		if err == nil {
			err = doc.Close()
		}
	default:
		err = fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, NewDocumentError("parse", name, err)
	}
	return t, nil
}

// ReadTemplate reads r completely and parses it.
func ReadTemplate(name string, format Format, r io.Reader) (*Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewDocumentError("read", name, err)
	}
	return ParseTemplate(name, format, data)
}

// ParseTemplateFile reads a template from disk, taking the format from
// the extension.
func ParseTemplateFile(path string) (*Template, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, NewDocumentError("parse", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read", path, err)
	}
	return ParseTemplate(path, format, data)
}

// Source returns the raw template bytes.
func (t *Template) Source() []byte {
	return t.source
}

// document is one working copy of a template.
type document struct {
	trees []*tree.Tree
	cap   tree.TextCapability
	write func(io.Writer) error
	close func() error
}

// instance creates a fresh working copy.
func (t *Template) instance() (*document, error) {
	switch t.Format {
	case FormatText:
		d := t.text.Clone()
		return &document{trees: []*tree.Tree{d.Tree}, cap: textdoc.Cap{}, write: d.Write}, nil
	case FormatHTML:
		d := t.html.Clone()
		return &document{trees: []*tree.Tree{d.Tree}, cap: htmldoc.Cap{}, write: d.Render}, nil
	case FormatMarkdown:
		d := t.html.Clone()
		return &document{trees: []*tree.Tree{d.Tree}, cap: htmldoc.Cap{}, write: d.RenderBody}, nil
	case FormatDOCX:
		d := t.docx.Clone()
		doc := &document{cap: docxdoc.Cap{}, write: d.Write}
		for _, p := range d.Parts {
			doc.trees = append(doc.trees, p.Tree)
		}
		return doc, nil
	case FormatXLSX:
		d, err := xlsxdoc.Parse(bytes.NewReader(t.source))
		if err != nil {
			return nil, err
		}
		return &document{trees: []*tree.Tree{d.Tree}, cap: xlsxdoc.Cap{}, write: d.Write, close: d.Close}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, t.Format)
}

// fragment returns the content another template imports from t.
func (t *Template) fragment() (*tree.Tree, tree.NodeID, error) {
	switch t.Format {
	case FormatText:
		d := t.text.Clone()
		return d.Tree, d.Tree.Root(), nil
	case FormatHTML, FormatMarkdown:
		d := t.html.Clone()
		return d.Tree, d.Body(), nil
	case FormatDOCX:
		tr, root := t.docx.Fragment()
		return tr, root, nil
	}
	return nil, tree.None, fmt.Errorf("templates of format %s cannot be imported", t.Format)
}

// family groups formats that share one tree layout.
func (f Format) family() Format {
	if f == FormatMarkdown {
		return FormatHTML
	}
	return f
}

// Package xlsxdoc maps spreadsheet templates onto document trees with
// excelize: every sheet is an element, every row a paragraph and every
// cell a partial text container. Filling may add, clone or drop rows; Write
// lays the rows out again from the top of each sheet.
package xlsxdoc

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

const (
	TagWorkbook = "workbook"
	TagSheet    = "sheet"
	TagRow      = "row"
	TagCell     = "c"
	TagSpan     = "span"

	AttrName    = "name"
	AttrRows    = "rows"
	AttrHeight  = "ht"
	AttrCol     = "col"
	AttrStyle   = "style"
	AttrFormula = "f"
)

// Cap is the text capability of spreadsheets. Placeholders never span
// cells because each cell is its own partial text container.
type Cap struct{}

func (Cap) IsTextBearing(t *tree.Tree, n tree.NodeID) bool { return t.IsText(n) }

func (Cap) IsTextContainer(t *tree.Tree, n tree.NodeID) bool {
	return t.IsElement(n) && t.Tag(n) == TagSpan
}

func (Cap) IsPartialTextContainer(t *tree.Tree, n tree.NodeID) bool {
	return t.IsElement(n) && t.Tag(n) == TagCell
}

func (Cap) IsParagraph(t *tree.Tree, n tree.NodeID) bool {
	return t.IsElement(n) && t.Tag(n) == TagRow
}

func (Cap) GetText(t *tree.Tree, n tree.NodeID) string { return t.TextContent(n) }

func (Cap) SetText(t *tree.Tree, n tree.NodeID, text string) {
	tree.ContainerText(t, n, text)
}

func (Cap) CreateTextContainer(t *tree.Tree, parent tree.NodeID) tree.NodeID {
	span := t.NewElement(TagSpan)
	t.AppendChild(parent, span)
	t.AppendChild(span, t.NewText(""))
	return span
}

// Document is a parsed workbook template.
type Document struct {
	Tree *tree.Tree
	File *excelize.File
}

// Parse reads a workbook from r.
func Parse(r io.Reader) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return FromFile(f)
}

// OpenFile reads a workbook from disk.
func OpenFile(name string) (*Document, error) {
	f, err := excelize.OpenFile(name)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return FromFile(f)
}

// FromFile builds the tree of every sheet of f. Cells holding neither a
// value nor a style are left out.
func FromFile(f *excelize.File) (*Document, error) {
	t := tree.New(TagWorkbook)
	for _, sheet := range f.GetSheetList() {
		id, err := readSheet(f, t, sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		t.AppendChild(t.Root(), id)
	}
	return &Document{Tree: t, File: f}, nil
}

func readSheet(f *excelize.File, t *tree.Tree, sheet string) (tree.NodeID, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return tree.None, err
	}
	sid := t.NewElement(TagSheet,
		tree.Attr{Name: AttrName, Value: sheet},
		tree.Attr{Name: AttrRows, Value: strconv.Itoa(len(rows))})

	// A row past the data reports the sheet default height.
	def, err := f.GetRowHeight(sheet, len(rows)+1)
	if err != nil {
		return tree.None, err
	}
	for r, values := range rows {
		rowNum := r + 1
		row := t.NewElement(TagRow)
		if ht, err := f.GetRowHeight(sheet, rowNum); err == nil && ht != def {
			t.SetAttr(row, AttrHeight, strconv.FormatFloat(ht, 'f', -1, 64))
		}
		for c, v := range values {
			addr, err := excelize.CoordinatesToCellName(c+1, rowNum)
			if err != nil {
				return tree.None, err
			}
			style, err := f.GetCellStyle(sheet, addr)
			if err != nil {
				return tree.None, err
			}
			if v == "" && style == 0 {
				continue
			}
			cell := t.NewElement(TagCell, tree.Attr{Name: AttrCol, Value: strconv.Itoa(c + 1)})
			if style != 0 {
				t.SetAttr(cell, AttrStyle, strconv.Itoa(style))
			}
			if formula, err := f.GetCellFormula(sheet, addr); err == nil && formula != "" {
				t.SetAttr(cell, AttrFormula, formula)
			}
			if v != "" {
				t.AppendChild(cell, t.NewText(v))
			}
			t.AppendChild(row, cell)
		}
		t.AppendChild(sid, row)
	}
	return sid, nil
}

// Apply writes the tree back into the workbook. The template rows of each
// sheet are removed and the rows of the tree written from row 1 down,
// with their cell values, styles and heights. Formulas are written again
// as they were read.
func (d *Document) Apply() error {
	t := d.Tree
	for _, sid := range t.Children(t.Root()) {
		sheet, _ := t.Attr(sid, AttrName)
		if err := d.applySheet(sheet, sid); err != nil {
			return fmt.Errorf("write sheet %s: %w", sheet, err)
		}
	}
	return nil
}

func (d *Document) applySheet(sheet string, sid tree.NodeID) error {
	t := d.Tree
	n, _ := strconv.Atoi(attr(t, sid, AttrRows))
	for r := n; r >= 1; r-- {
		if err := d.File.RemoveRow(sheet, r); err != nil {
			return err
		}
	}

	for i, row := range t.Children(sid) {
		rowNum := i + 1
		if ht, err := strconv.ParseFloat(attr(t, row, AttrHeight), 64); err == nil {
			if err := d.File.SetRowHeight(sheet, rowNum, ht); err != nil {
				return err
			}
		}
		for _, c := range mergeCells(t, row) {
			addr, err := excelize.CoordinatesToCellName(c.col, rowNum)
			if err != nil {
				return err
			}
			if c.style != 0 {
				if err := d.File.SetCellStyle(sheet, addr, addr, c.style); err != nil {
					return err
				}
			}
			if c.text != "" {
				if err := d.File.SetCellValue(sheet, addr, cellValue(c.text)); err != nil {
					return err
				}
			}
			if c.formula != "" {
				if err := d.File.SetCellFormula(sheet, addr, c.formula); err != nil {
					return err
				}
			}
		}
	}
	t.SetAttr(sid, AttrRows, strconv.Itoa(t.ChildCount(sid)))
	return nil
}

// Write applies the tree and stores the workbook in w.
func (d *Document) Write(w io.Writer) error {
	if err := d.Apply(); err != nil {
		return err
	}
	if err := d.File.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (d *Document) Close() error {
	return d.File.Close()
}

type cell struct {
	col     int
	style   int
	formula string
	text    string
}

// mergeCells joins cell elements of one row that address the same column,
// which happens when a split left a cell in two pieces.
func mergeCells(t *tree.Tree, row tree.NodeID) []cell {
	var out []cell
	byCol := map[int]int{}
	for _, c := range t.Children(row) {
		if t.Tag(c) != TagCell {
			continue
		}
		col, err := strconv.Atoi(attr(t, c, AttrCol))
		if err != nil || col < 1 {
			continue
		}
		if i, ok := byCol[col]; ok {
			out[i].text += t.TextContent(c)
			continue
		}
		style, _ := strconv.Atoi(attr(t, c, AttrStyle))
		byCol[col] = len(out)
		out = append(out, cell{col: col, style: style, formula: attr(t, c, AttrFormula), text: t.TextContent(c)})
	}
	return out
}

// cellValue turns text that is a number in canonical form back into a
// number; anything else, "007" included, stays a string.
func cellValue(text string) any {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || strconv.FormatFloat(f, 'f', -1, 64) != text {
		return text
	}
	return f
}

func attr(t *tree.Tree, id tree.NodeID, name string) string {
	v, _ := t.Attr(id, name)
	return v
}

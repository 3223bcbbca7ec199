package xlsxdoc

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/engine"
)

func newTemplate(t *testing.T) (*excelize.File, int) {
	t.Helper()
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)

	cells := map[string]any{
		"A1": "Item",
		"B1": "Qty",
		"A2": `${For *value:"rows", as:"r"}`,
		"A3": "${$r.name}",
		"B3": "${$r.qty}",
		"A4": "${EndFor}",
		"A5": "Total: ${*total}",
		"B5": 42,
	}
	for addr, v := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", addr, v))
	}
	require.NoError(t, f.SetCellStyle("Sheet1", "A3", "A3", bold))
	require.NoError(t, f.SetRowHeight("Sheet1", 3, 30))

	_, err = f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "keep"))
	return f, bold
}

func fill(t *testing.T, doc *Document, js string) {
	t.Helper()
	root, err := datamodel.DecodeJSON(strings.NewReader(js))
	require.NoError(t, err)
	p := engine.NewPipeline(doc.Tree, Cap{}, engine.NewEnv(root), engine.Options{}).
		Register(engine.NewHandlers().List()...)
	require.NoError(t, p.Run(context.Background()))
}

func TestFillRowsLoop(t *testing.T) {
	f, bold := newTemplate(t)
	var src bytes.Buffer
	require.NoError(t, f.Write(&src))

	doc, err := Parse(&src)
	require.NoError(t, err)
	fill(t, doc, `{"rows":[{"name":"ann","qty":2},{"name":"bob","qty":3}],"total":5}`)

	var out bytes.Buffer
	require.NoError(t, doc.Write(&out))
	require.NoError(t, doc.Close())

	res, err := excelize.OpenReader(&out)
	require.NoError(t, err)
	defer res.Close()

	rows, err := res.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Item", "Qty"},
		{"ann", "2"},
		{"bob", "3"},
		{"Total: 5", "42"},
	}, rows)

	for _, addr := range []string{"A2", "A3"} {
		style, err := res.GetCellStyle("Sheet1", addr)
		require.NoError(t, err)
		assert.Equal(t, bold, style, addr)
	}
	for row, want := range map[int]float64{2: 30, 3: 30} {
		ht, err := res.GetRowHeight("Sheet1", row)
		require.NoError(t, err)
		assert.Equal(t, want, ht)
	}
	ht, err := res.GetRowHeight("Sheet1", 4)
	require.NoError(t, err)
	assert.NotEqual(t, 30.0, ht)

	typ, err := res.GetCellType("Sheet1", "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)

	notes, err := res.GetRows("Notes")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"keep"}}, notes)
}

func TestEmptyLoopDropsRows(t *testing.T) {
	f, _ := newTemplate(t)
	doc, err := FromFile(f)
	require.NoError(t, err)
	fill(t, doc, `{"rows":[],"total":0}`)
	require.NoError(t, doc.Apply())

	rows, err := doc.File.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Item", "Qty"}, {"Total: 0", "42"}}, rows)

	// A second Apply lays out the same rows again.
	require.NoError(t, doc.Apply())
	rows, err = doc.File.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"2", 2.0},
		{"-1.5", -1.5},
		{"007", "007"},
		{"1e3", "1e3"},
		{"NaN", "NaN"},
		{"12 apples", "12 apples"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cellValue(tt.in))
		})
	}
}

func TestCap(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "x"))
	doc, err := FromFile(f)
	require.NoError(t, err)

	tr := doc.Tree
	sheet := tr.FirstChild(tr.Root())
	row := tr.FirstChild(sheet)
	c := tr.FirstChild(row)

	assert.True(t, Cap{}.IsParagraph(tr, row))
	assert.True(t, Cap{}.IsPartialTextContainer(tr, c))
	v, _ := tr.Attr(c, AttrCol)
	assert.Equal(t, "2", v)

	span := Cap{}.CreateTextContainer(tr, c)
	Cap{}.SetText(tr, span, "y")
	assert.True(t, Cap{}.IsTextContainer(tr, span))
	assert.Equal(t, "xy", Cap{}.GetText(tr, c))
}

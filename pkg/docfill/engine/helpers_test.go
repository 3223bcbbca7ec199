package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

// testDoc has paragraphs <p> with raw text and runs <r>, rows <row> and
// images <img>.
type testDoc struct{}

func (testDoc) IsTextBearing(t *tree.Tree, n tree.NodeID) bool   { return t.IsText(n) }
func (testDoc) IsTextContainer(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == "r" }
func (testDoc) IsPartialTextContainer(t *tree.Tree, n tree.NodeID) bool {
	return t.Tag(n) == "p"
}
func (testDoc) IsParagraph(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == "p" }
func (testDoc) GetText(t *tree.Tree, n tree.NodeID) string   { return t.TextContent(n) }
func (testDoc) SetText(t *tree.Tree, n tree.NodeID, text string) {
	tree.ContainerText(t, n, text)
}
func (testDoc) CreateTextContainer(t *tree.Tree, parent tree.NodeID) tree.NodeID {
	r := t.NewElement("r")
	t.AppendChild(parent, r)
	t.AppendChild(r, t.NewText(""))
	return r
}
func (testDoc) IsContent(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == "img" }

// tableDoc adds row awareness.
type tableDoc struct{ testDoc }

func (tableDoc) IsTableRow(t *tree.Tree, n tree.NodeID) bool { return t.Tag(n) == "row" }
func (tableDoc) IsTable(t *tree.Tree, n tree.NodeID) bool    { return t.Tag(n) == "table" }

func newDoc(lines ...string) *tree.Tree {
	tr := tree.New("doc")
	for _, line := range lines {
		p := tr.NewElement("p")
		tr.AppendChild(tr.Root(), p)
		tr.AppendChild(p, tr.NewText(line))
	}
	return tr
}

func texts(tr *tree.Tree) []string {
	out := []string{}
	for _, c := range tr.Children(tr.Root()) {
		out = append(out, tr.TextContent(c))
	}
	return out
}

func model(t *testing.T, js string) *datamodel.Node {
	t.Helper()
	if js == "" {
		return datamodel.NewMap()
	}
	n, err := datamodel.DecodeJSON(strings.NewReader(js))
	require.NoError(t, err)
	return n
}

func newPipeline(tr *tree.Tree, root *datamodel.Node, opts Options) (*Pipeline, *Handlers) {
	hs := NewHandlers()
	p := NewPipeline(tr, testDoc{}, NewEnv(root), opts).Register(hs.List()...)
	return p, hs
}

// fill runs the standard handlers over one paragraph per line.
func fill(t *testing.T, js string, lines ...string) ([]string, error) {
	t.Helper()
	tr := newDoc(lines...)
	p, _ := newPipeline(tr, model(t, js), Options{})
	err := p.Run(context.Background())
	return texts(tr), err
}

// recordLogger keeps warnings for assertions.
type recordLogger struct {
	warnings []string
}

func (l *recordLogger) Debug(string, ...interface{}) {}
func (l *recordLogger) Info(string, ...interface{})  {}
func (l *recordLogger) Warn(format string, args ...interface{}) {
	l.warnings = append(l.warnings, format)
}
func (l *recordLogger) Error(string, ...interface{}) {}

func leaf(v any) *datamodel.Node { return datamodel.NewLeaf(v) }

func listOf(items ...any) *datamodel.Node {
	l := datamodel.NewList()
	for _, item := range items {
		l.Append(datamodel.NewLeaf(item))
	}
	return l
}

// placeholderAttrs builds attributes from key, value pairs.
func placeholderAttrs(kv ...any) *placeholder.Attributes {
	a := placeholder.NewAttributes()
	for i := 0; i+1 < len(kv); i += 2 {
		a.Set(kv[i].(string), kv[i+1])
	}
	return a
}

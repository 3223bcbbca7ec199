package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

func parse(t *testing.T, body string) *placeholder.Attributes {
	t.Helper()
	_, attrs, err := placeholder.DefaultCodec.Parse("${If " + body + "}")
	require.NoError(t, err)
	return attrs
}

func lookupIn(values map[string]*datamodel.Node) Resolver {
	return func(field string) (*datamodel.Node, bool) {
		n, ok := values[field]
		return n, ok
	}
}

func TestNestedAndNotIsFalse(t *testing.T) {
	cond, err := Build(parse(t, `and:[{x:"Test"},{not:{y:true}}]`))
	require.NoError(t, err)

	got := cond.Eval(lookupIn(map[string]*datamodel.Node{
		"x": datamodel.NewLeaf("Test"),
		"y": datamodel.NewLeaf(true),
	}))
	assert.False(t, got)
	assert.Equal(t, `and(x == "Test", not(y == true))`, cond.String())
}

func TestEval(t *testing.T) {
	values := map[string]*datamodel.Node{
		"$s":     datamodel.NewLeaf("Test"),
		"$t":     datamodel.NewLeaf(true),
		"$f":     datamodel.NewLeaf(false),
		"$null":  datamodel.Null(),
		"$n":     datamodel.NewLeaf(42),
		"$pi":    datamodel.NewLeaf(3.5),
		"$empty": datamodel.NewList(),
		"$list":  datamodel.NewList(datamodel.NewLeaf(1), datamodel.NewLeaf("a")),
	}

	tests := []struct {
		cond string
		want bool
	}{
		{`$s:"Test"`, true},
		{`$s:"x"`, false},
		{`$t:true`, true},
		{`$t:false`, false},
		{`$f:false`, true},
		{`$null:null`, true},
		{`$missing:null`, true},
		{`$null:"test"`, false},
		{`$missing:"test"`, false},
		{`$n:42`, true},
		{`$n:42.0`, true},
		{`$n:0`, false},
		{`$n:"42"`, false},
		{`$empty:[]`, true},
		{`$empty:[1]`, false},
		{`$list:[1,"a"]`, true},
		{`$list:[]`, false},
		{`not:{$s:"x"}`, true},
		{`not:[{$t:false}]`, true},
		{`and:[{$s:"Test"},{$t:true}]`, true},
		{`or:[{$s:"x"},{$t:false}]`, false},
		{`or:[{$s:"x"},{$t:true}]`, true},
		{`less:{$n:50}`, true},
		{`less:{$n:42}`, false},
		{`lessOrEqual:{$n:42}`, true},
		{`greater:{$pi:3}`, true},
		{`greaterOrEqual:{$pi:3.5}`, true},
		{`greater:{$s:"Alpha"}`, true},
		{`less:{$missing:1}`, false},
		{`less:{$s:1}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			cond, err := Build(parse(t, tt.cond))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cond.Eval(lookupIn(values)))
		})
	}
}

func TestEvalShortCircuits(t *testing.T) {
	var asked []string
	resolve := func(field string) (*datamodel.Node, bool) {
		asked = append(asked, field)
		return datamodel.NewLeaf(false), true
	}

	cond, err := Build(parse(t, `and:[{$a:true},{$b:true}]`))
	require.NoError(t, err)
	assert.False(t, cond.Eval(resolve))
	assert.Equal(t, []string{"$a"}, asked)

	asked = nil
	cond, err = Build(parse(t, `or:[{$a:false},{$b:true}]`))
	require.NoError(t, err)
	assert.True(t, cond.Eval(resolve))
	assert.Equal(t, []string{"$a"}, asked)
}

func TestBuildErrors(t *testing.T) {
	tests := []string{
		`and:[]`,
		`and:"x"`,
		`or:[1,2]`,
		`not:[{$a:1},{$b:2}]`,
		`less:{$a:1, $b:2}`,
		`greater:3`,
		`and:[{}]`,
	}
	for _, body := range tests {
		t.Run(body, func(t *testing.T) {
			_, err := Build(parse(t, body))
			assert.True(t, IsError(err), "error = %v", err)
		})
	}

	_, err := Build(placeholder.NewAttributes())
	assert.True(t, IsError(err))
	_, err = Build(nil)
	assert.True(t, IsError(err))
}

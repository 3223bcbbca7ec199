package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/docfill/pkg/docfill/tree"
)

func TestLoopRepeatsParagraphsInOrder(t *testing.T) {
	tr := newDoc(`${For value:["A","B","C"], as:"x"}`, "Item ${$x}", "${EndFor}")
	p, _ := newPipeline(tr, model(t, ""), Options{})

	require.NoError(t, p.Run(context.Background()))
	if diff := cmp.Diff([]string{"Item A", "Item B", "Item C"}, texts(tr)); diff != "" {
		t.Errorf("loop output mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, p.Scan())
}

func TestMissingValueDeletesBlankParagraphOnly(t *testing.T) {
	got, err := fill(t, "", "${*missing}", "Name: ${*missing}")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name: "}, got)
}

func TestShortForms(t *testing.T) {
	tr := newDoc("${*customer.name} / ${$greeting} / ${$$which}")
	p, _ := newPipeline(tr, model(t, `{"customer":{"name":"Ann"}}`), Options{})
	vars := p.Env.Vars
	require.NoError(t, vars.Push("greeting", leaf("hello")))
	require.NoError(t, vars.Push("target", leaf("indirect")))
	require.NoError(t, vars.Push("which", leaf("target")))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"Ann / hello / indirect"}, texts(tr))
}

func TestLoopOverModelPath(t *testing.T) {
	js := `{"people":[{"name":"Ann","tags":["x","y"]},{"name":"Ben","tags":["z"]}]}`

	t.Run("current path", func(t *testing.T) {
		got, err := fill(t, js, `${For *value:"people"}`, "${*name}", "${EndFor}", "${*people[0].name}")
		require.NoError(t, err)
		assert.Equal(t, []string{"Ann", "Ben", "Ann"}, got)
	})

	t.Run("loop variable", func(t *testing.T) {
		got, err := fill(t, js, `${For *value:"people", as:"p"}`, "${Counter}. ${$p.name}", "${EndFor}")
		require.NoError(t, err)
		assert.Equal(t, []string{"1. Ann", "2. Ben"}, got)
	})

	t.Run("nested", func(t *testing.T) {
		got, err := fill(t, js,
			`${For *value:"people", as:"p"}`,
			`${For $value:"p.tags", as:"t"}`,
			"${$p.name}:${$t}",
			"${EndFor}",
			"${EndFor}")
		require.NoError(t, err)
		assert.Equal(t, []string{"Ann:x", "Ann:y", "Ben:z"}, got)
	})
}

func TestLoopWithoutItemsRemovesArea(t *testing.T) {
	for _, value := range []string{`value:[]`, `*value:"none"`, `*value:"name"`} {
		t.Run(value, func(t *testing.T) {
			got, err := fill(t, `{"name":"x"}`, "before", "${For "+value+"}", "row", "${EndFor}", "after")
			require.NoError(t, err)
			assert.Equal(t, []string{"before", "after"}, got)
		})
	}
}

func TestInlineLoopRepeatsParagraph(t *testing.T) {
	got, err := fill(t, "", `${For value:[1,2]}-${$item}-${EndFor}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"-1-", "-2-"}, got)
}

func TestLoopMissingEnd(t *testing.T) {
	_, err := fill(t, "", `${For value:[1]}`, "x")
	require.Error(t, err)
	assert.True(t, IsRunError(err))
	assert.True(t, IsConfigError(err))
}

func TestIf(t *testing.T) {
	tests := []struct {
		name  string
		model string
		lines []string
		want  []string
	}{
		{"true keeps content", `{"show":true}`, []string{"${If *show:true}", "shown", "${EndIf}", "after"}, []string{"shown", "after"}},
		{"false removes area", `{"show":false}`, []string{"${If *show:true}", "shown", "${EndIf}", "after"}, []string{"after"}},
		{"inline", `{"show":false}`, []string{"a ${If *show:true}b${EndIf} c"}, []string{"a  c"}},
		{"missing field is false", ``, []string{"${If *show:true}", "x", "${EndIf}"}, []string{}},
		{"not", `{"n":3}`, []string{`${If not:{*n:4}}`, "x", "${EndIf}"}, []string{"x"}},
		{"nested", `{"a":1,"b":2}`, []string{"${If *a:1}", "${If *b:1}", "inner", "${EndIf}", "outer", "${EndIf}"}, []string{"outer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fill(t, tt.model, tt.lines...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIgnoreAndExit(t *testing.T) {
	got, err := fill(t, `{"a":"X"}`,
		"${Ignore}", "${*a}", "${EndIgnore}", "${*a}", "${Exit}", "${*a}")
	require.NoError(t, err)
	assert.Equal(t, []string{"${*a}", "X", "${*a}"}, got)
}

func TestVariablesAndModel(t *testing.T) {
	got, err := fill(t, `{"shop":{"owner":{"name":"Eve"}}}`,
		`${Push key:"v", value:"first"}`,
		`${Push key:"v", value:"second"}`,
		"${$v}",
		`${Pop key:"v"}`,
		"${$v}",
		`${Model value:"shop"}`,
		`${Model interpret:"owner"}`,
		"${*name}")
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first", "Eve"}, got)
}

func TestAlias(t *testing.T) {
	got, err := fill(t, `{"who":"Bob"}`,
		`${Alias key:"name", replaceKey:"String", attributes:{fallback:"?", onNull:"fallback"}, attrReplacements:{v:"value"}}`,
		`Hi ${name *v:"who"}`,
		`Hi ${name *v:"nobody"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi Bob", "Hi ?"}, got)
}

func TestAliasRegisteredInCode(t *testing.T) {
	tr := newDoc(`${greet}`)
	p, hs := newPipeline(tr, model(t, `{"n":"Kim"}`), Options{})
	hs.Alias.Register(Alias{Key: "greet", ReplaceKey: "String", Defaults: placeholderAttrs("*value", "n")})

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"Kim"}, texts(tr))
	assert.Contains(t, p.KnownKeys(), "greet")
}

func TestAliasCycle(t *testing.T) {
	_, err := fill(t, "",
		`${Alias key:"A", replaceKey:"B"}`,
		`${Alias key:"B", replaceKey:"A"}`,
		"${A}")
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "alias cycle B -> A -> B")

	hs := NewHandlers()
	require.NoError(t, hs.Alias.Register(Alias{Key: "x", ReplaceKey: "y"}))
	require.NoError(t, hs.Alias.Register(Alias{Key: "y", ReplaceKey: "String"}))
	assert.Error(t, hs.Alias.Register(Alias{Key: "String", ReplaceKey: "x"}))
	// Replacing an alias drops its old target from the chain.
	assert.NoError(t, hs.Alias.Register(Alias{Key: "y", ReplaceKey: "z"}))
}

func TestReplaceMarker(t *testing.T) {
	got, err := fill(t, `{"co":"Initech"}`,
		"${Company}",
		`${Replace key:"Company", value:"ACME"}`,
		"(c) ${Company}",
		`${Replace key:"Company", *value:"co"}`,
		"(c) ${Company}")
	require.NoError(t, err)
	assert.Equal(t, []string{"${Company}", "(c) ACME", "(c) Initech"}, got)

	_, err = fill(t, "", `${Replace value:"x"}`)
	assert.True(t, IsConfigError(err))

	_, err = fill(t, "", `${Replace key:"k", *value:"missing", onNull:"fail"}`)
	assert.True(t, IsMissingValueError(err))
}

func TestReplacements(t *testing.T) {
	tr := newDoc("(c) ${Company}")
	p, hs := newPipeline(tr, model(t, ""), Options{})
	hs.Replacements.Set("Company", "ACME")

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"(c) ACME"}, texts(tr))
}

func TestCalcConcatJoin(t *testing.T) {
	tests := []struct {
		name  string
		model string
		lines []string
		want  string
	}{
		{"multiply", ``, []string{`${Calc a:6, b:7, operator:"*", key:"r"}`, "${$r}"}, "42"},
		{"integer division", ``, []string{`${Calc a:7, b:2, operator:"/", key:"r"}`, "${$r}"}, "3"},
		{"float", ``, []string{`${Calc a:1.5, *b:"n", key:"r"}`, "${$r}"}, "3.5"},
		{"expression", `{"price":21}`, []string{`${Calc expression:"model.price * 2", key:"r"}`, "${$r}"}, "42"},
		{"concat list", ``, []string{`${Concat a:[1,2], b:3, key:"all"}`, `${Join $value:"all", separator:"-"}`}, "1-2-3"},
		{"concat string", ``, []string{`${Concat a:"foo", b:"bar", type:"string", key:"s"}`, "${$s}"}, "foobar"},
		{"join last separator", `{"l":["a","b","c"]}`, []string{`${Join *value:"l", lastSeparator:" and "}`}, "a, b and c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			js := tt.model
			if js == "" {
				js = `{"n":2}`
			}
			got, err := fill(t, js, tt.lines...)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, got)
		})
	}
}

func TestCalcMissingOperand(t *testing.T) {
	tests := []struct {
		name  string
		calc  string
		want  []string
		check func(error) bool
	}{
		{"default deletes", `${Calc *a:"nope", b:1, key:"r"}`, []string{"x"}, nil},
		{"fallback", `${Calc *a:"nope", b:1, key:"r", onNull:"fallback", fallback:"?"}`, []string{"?", "x"}, nil},
		{"fail", `${Calc a:1, $b:"nope", key:"r", onNull:"fail"}`, nil, IsMissingValueError},
		{"empty", `${Calc *a:"nope", b:1, key:"r", onNull:"empty"}`, []string{"", "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fill(t, `{"obj":{"k":1}}`, tt.calc, "x")
			if tt.check != nil {
				require.Error(t, err)
				assert.True(t, tt.check(err), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinSeparatorLookupError(t *testing.T) {
	_, err := fill(t, `{"l":["a","b"]}`, `${Join *value:"l", *separator:"l[x]"}`)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestCalcDivisionByZero(t *testing.T) {
	_, err := fill(t, "", `${Calc a:1, b:0, operator:"/", key:"r"}`)
	assert.True(t, IsConfigError(err))
}

func TestJoinItems(t *testing.T) {
	list := listOf("a", "b", "c", "d")
	tests := []struct {
		limit int
		want  string
	}{
		{-1, "a, b, c and d"},
		{2, "a, b..."},
		{4, "a, b, c and d"},
	}
	for _, tt := range tests {
		if got := JoinItems(list, ", ", " and ", tt.limit, "..."); got != tt.want {
			t.Errorf("JoinItems(limit=%d) = %q, want %q", tt.limit, got, tt.want)
		}
	}
	if got := JoinItems(listOf("a"), ", ", " & ", -1, ""); got != "a" {
		t.Errorf("single item = %q", got)
	}
}

func TestImport(t *testing.T) {
	fragments := FragmentSourceFunc(func(name string) (*tree.Tree, tree.NodeID, error) {
		switch name {
		case "greeting":
			f := newDoc("skip", "BEGIN", "Dear ${*name}", "END", "skip")
			return f, f.Root(), nil
		case "self":
			f := newDoc(`${Import name:"self"}`)
			return f, f.Root(), nil
		case "verbatim":
			f := newDoc("${Ignore}", "${*a}", "${EndIgnore}")
			return f, f.Root(), nil
		}
		return nil, tree.None, errors.New("no fragment " + name)
	})

	t.Run("fragment", func(t *testing.T) {
		tr := newDoc("before", `${Import name:"greeting", beginFragment:"BEGIN", endFragment:"END"}`, "after")
		p, hs := newPipeline(tr, model(t, `{"name":"Ann"}`), Options{})
		hs.Import.Source = fragments

		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, []string{"before", "Dear Ann", "after"}, texts(tr))
	})

	t.Run("filled fragment is not scanned again", func(t *testing.T) {
		tr := newDoc("before", `${Import name:"verbatim"}`, "after ${*a}")
		p, hs := newPipeline(tr, model(t, `{"a":"X"}`), Options{})
		hs.Import.Source = fragments

		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, []string{"before", "${*a}", "after X"}, texts(tr))
	})

	t.Run("depth limit", func(t *testing.T) {
		tr := newDoc(`${Import name:"self"}`)
		p, hs := newPipeline(tr, model(t, ""), Options{MaxDepth: 2})
		hs.Import.Source = fragments

		err := p.Run(context.Background())
		assert.True(t, IsConfigError(err))
	})
}

func TestStrictModeHint(t *testing.T) {
	tr := newDoc(`${Strng value:"x"}`)
	p, _ := newPipeline(tr, model(t, ""), Options{Strict: true})

	err := p.Run(context.Background())
	var ue *UnclaimedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "Strng", ue.Key)
	assert.Equal(t, "String", ue.Hint)
}

func TestSkippedIsNotUnclaimed(t *testing.T) {
	const skip = `${String *value:"missing", onNull:"skip"}`

	t.Run("strict", func(t *testing.T) {
		tr := newDoc(skip)
		p, _ := newPipeline(tr, model(t, ""), Options{Strict: true})

		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, []string{skip}, texts(tr))
	})

	t.Run("no warning", func(t *testing.T) {
		log := &recordLogger{}
		tr := newDoc(skip, "${Unknown}")
		p, _ := newPipeline(tr, model(t, ""), Options{Logger: log})

		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, []string{skip, "${Unknown}"}, texts(tr))
		assert.Len(t, log.warnings, 1)
	})

	t.Run("later handler claims", func(t *testing.T) {
		tr := newDoc("${Later}")
		p := NewPipeline(tr, testDoc{}, nil, Options{Strict: true}).Register(
			HandlerFunc(func(*Context) (Result, error) { return Skipped, nil }),
			HandlerFunc(func(ctx *Context) (Result, error) {
				ctx.Replace("claimed")
				return Proceed, nil
			}),
		)
		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, []string{"claimed"}, texts(tr))
	})
}

func TestUnclaimedIsKept(t *testing.T) {
	log := &recordLogger{}
	tr := newDoc("${Unknown}")
	p, _ := newPipeline(tr, model(t, ""), Options{Logger: log})

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"${Unknown}"}, texts(tr))
	assert.Len(t, log.warnings, 1)
}

func TestStepLimit(t *testing.T) {
	tr := newDoc("${*a}", "${*a}")
	p, _ := newPipeline(tr, model(t, `{"a":"x"}`), Options{MaxSteps: 1})

	err := p.Run(context.Background())
	var re *RunError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 1, re.Step)
}

func TestCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := newDoc("${*a}")
	p, _ := newPipeline(tr, model(t, `{"a":"x"}`), Options{})

	err := p.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"${*a}"}, texts(tr))
}

func TestSyntaxErrorIsFatal(t *testing.T) {
	_, err := fill(t, "", `${String value:}`)
	require.Error(t, err)
	assert.True(t, IsRunError(err))
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	tr := newDoc("${Boom}")
	p := NewPipeline(tr, testDoc{}, nil, Options{}).Register(HandlerFunc(func(*Context) (Result, error) {
		panic("boom")
	}))
	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "ignored", Ignored.String())
	assert.Equal(t, "proceed", Proceed.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "rescan(3)", Rescan(3).String())
	assert.Equal(t, "ResultKind(4)", ResultKind(4).String())
}

package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

const (
	KeyCalc   = "Calc"
	KeyConcat = "Concat"
	KeyJoin   = "Join"
)

var calcOperators = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}

// CalcHandler computes a value and pushes it as a variable:
//
//	${Calc a:2, *b:"count", operator:"*", key:"total"}
//	${Calc expression:"total * 1.19", key:"gross"}
//
// An expression sees every variable by name and the model root as
// "model".
type CalcHandler struct{}

func (CalcHandler) Keys() []string { return []string{KeyCalc} }

func (CalcHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() != KeyCalc {
		return Ignored, nil
	}
	attrs := ctx.Attrs()
	key, ok := LiteralString(attrs, "key")
	if !ok {
		return Ignored, NewConfigError("key", "", "result variable required")
	}

	var (
		source string
		env    map[string]any
	)
	if e, ok := LiteralString(attrs, "expression"); ok {
		source, env = e, expressionEnv(ctx.Env)
	} else {
		var err error
		source, env, err = binaryCalc(ctx, attrs)
		var missing *missingOperand
		if errors.As(err, &missing) {
			policy, err := ctx.Policy()
			if err != nil {
				return Ignored, err
			}
			r, _, err := policy.Resolve(ctx, missing.res, false, missing.attr)
			return r, err
		}
		if err != nil {
			return Ignored, err
		}
	}

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return Ignored, NewConfigError("expression", source, err.Error())
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return Ignored, NewConfigError("expression", source, err.Error())
	}
	if err := ctx.Env.Vars.Push(key, datamodel.FromValue(out)); err != nil {
		return Ignored, err
	}
	ctx.Log.Debug("%s = %v", key, out)
	return Proceed, ctx.DeletePlaceholder(DeleteIfBlankParagraph)
}

// missingOperand reports an operand the missing data policy decides on.
type missingOperand struct {
	attr string
	res  PickResult
}

func (m *missingOperand) Error() string {
	return fmt.Sprintf("operand %s: %s", m.attr, m.res)
}

func binaryCalc(ctx *Context, attrs *placeholder.Attributes) (string, map[string]any, error) {
	env := map[string]any{}
	for _, name := range []string{"a", "b"} {
		res, n, err := Pick(ctx.Env, attrs, name)
		if err != nil {
			return "", nil, err
		}
		if res != Resolved {
			return "", nil, &missingOperand{attr: name, res: res}
		}
		switch v := n.Value().(type) {
		case int64, float64:
			env[name] = v
		default:
			return "", nil, NewConfigError(name, n.Text(), "number expected")
		}
	}
	op := "+"
	if v, ok := LiteralString(attrs, "operator"); ok {
		op = v
	}
	if !calcOperators[op] {
		return "", nil, NewConfigError("operator", op, "one of + - * / % expected")
	}

	_, aInt := env["a"].(int64)
	bInt, isInt := env["b"].(int64)
	if isInt && bInt == 0 && (op == "/" || op == "%") {
		return "", nil, NewConfigError("b", "0", "division by zero")
	}
	source := "a " + op + " b"
	if op == "/" && aInt && isInt {
		source = "int(a / b)"
	}
	return source, env, nil
}

func expressionEnv(e *Env) map[string]any {
	env := map[string]any{"model": e.Model.Root().ToValue()}
	for _, name := range e.Vars.Names() {
		if n, ok := e.Vars.Top(name); ok {
			env[name] = n.ToValue()
		}
	}
	return env
}

// ConcatHandler collects the values a to e into a list (the default) or,
// with type:"string", into one string, and pushes the result as variable
// key. Lists among the values are flattened into a list result.
type ConcatHandler struct{}

func (ConcatHandler) Keys() []string { return []string{KeyConcat} }

func (ConcatHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() != KeyConcat {
		return Ignored, nil
	}
	attrs := ctx.Attrs()
	key, ok := LiteralString(attrs, "key")
	if !ok {
		return Ignored, NewConfigError("key", "", "result variable required")
	}
	kind := "list"
	if v, ok := LiteralString(attrs, "type"); ok {
		kind = v
	}
	if kind != "list" && kind != "string" {
		return Ignored, NewConfigError("type", kind, `"list" or "string" expected`)
	}

	var values []*datamodel.Node
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		res, n, err := Pick(ctx.Env, attrs, name)
		if err != nil {
			return Ignored, err
		}
		if res == Resolved {
			values = append(values, n.Deref())
		}
	}

	var result *datamodel.Node
	if kind == "list" {
		result = datamodel.NewList()
		for _, v := range values {
			if v.Kind() == datamodel.KindList {
				result.Append(v.Items()...)
			} else {
				result.Append(v)
			}
		}
	} else {
		var b strings.Builder
		for _, v := range values {
			b.WriteString(v.Text())
		}
		result = datamodel.NewLeaf(b.String())
	}
	if err := ctx.Env.Vars.Push(key, result); err != nil {
		return Ignored, err
	}
	return Proceed, ctx.DeletePlaceholder(DeleteIfBlankParagraph)
}

// JoinHandler writes the items of a list separated by separator:
//
//	${Join $value:"names", separator:", ", lastSeparator:" and ", limit:3, truncated:"..."}
type JoinHandler struct{}

func (JoinHandler) Keys() []string { return []string{KeyJoin} }

func (JoinHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() != KeyJoin {
		return Ignored, nil
	}
	attrs := ctx.Attrs()
	list, res, err := PickList(ctx.Env, attrs, "value")
	if err != nil {
		return Ignored, err
	}
	policy, err := ctx.Policy()
	if err != nil {
		return Ignored, err
	}
	r, use, err := policy.Resolve(ctx, res, res == Resolved && list.Len() == 0, "value")
	if err != nil || !use {
		return r, err
	}

	sep, err := optString(ctx.Env, attrs, "separator", ", ")
	if err != nil {
		return Ignored, err
	}
	last, err := optString(ctx.Env, attrs, "lastSeparator", sep)
	if err != nil {
		return Ignored, err
	}
	truncated, err := optString(ctx.Env, attrs, "truncated", "...")
	if err != nil {
		return Ignored, err
	}
	limit, lres, err := PickInt(ctx.Env, attrs, "limit")
	if err != nil {
		return Ignored, err
	}
	if lres == InvalidValue {
		return Ignored, NewConfigError("limit", "", "integer expected")
	}
	if lres != Resolved {
		limit = -1
	}
	ctx.Replace(JoinItems(list, sep, last, limit, truncated))
	return Proceed, nil
}

// JoinItems renders the non-null items of list. Only the first limit items
// are written when limit is positive; truncated is appended when items
// were left out.
func JoinItems(list *datamodel.Node, sep, last string, limit int, truncated string) string {
	var items []string
	for _, item := range list.Items() {
		if !item.IsNull() {
			items = append(items, item.Text())
		}
	}
	shown := len(items)
	if limit > 0 && limit < shown {
		shown = limit
	}
	var b strings.Builder
	for i := 0; i < shown; i++ {
		if i > 0 {
			if i == len(items)-1 {
				b.WriteString(last)
			} else {
				b.WriteString(sep)
			}
		}
		b.WriteString(items[i])
	}
	if shown < len(items) {
		b.WriteString(truncated)
	}
	return b.String()
}

func optString(env *Env, attrs *placeholder.Attributes, name, def string) (string, error) {
	s, res, err := PickString(env, attrs, name)
	if err != nil || res != Resolved {
		return def, err
	}
	return s, nil
}

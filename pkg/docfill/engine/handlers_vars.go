package engine

import (
	"strconv"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

const (
	KeyPush    = "Push"
	KeyPop     = "Pop"
	KeyModel   = "Model"
	KeyCounter = "Counter"

	// IndexVariable holds the zero-based iteration of the innermost loop.
	IndexVariable = "index"
)

// VariableHandler implements ${Push key:"v", value:...} and
// ${Pop key:"v"}.
type VariableHandler struct{}

func (VariableHandler) Keys() []string { return []string{KeyPush, KeyPop} }

func (VariableHandler) TryHandle(ctx *Context) (Result, error) {
	key := ctx.Key()
	if key != KeyPush && key != KeyPop {
		return Ignored, nil
	}
	name, ok := LiteralString(ctx.Attrs(), "key")
	if !ok {
		return Ignored, NewConfigError("key", "", "variable name required")
	}

	if key == KeyPop {
		ctx.Env.Vars.Pop(name)
	} else {
		value, err := pushValue(ctx)
		if err != nil {
			return Ignored, err
		}
		if err := ctx.Env.Vars.Push(name, value); err != nil {
			return Ignored, err
		}
	}
	return Proceed, ctx.DeletePlaceholder(DeleteIfBlankParagraph)
}

func pushValue(ctx *Context) (*datamodel.Node, error) {
	res, n, err := Pick(ctx.Env, ctx.Attrs(), "value")
	if err != nil {
		return nil, err
	}
	switch res {
	case Resolved:
		return n, nil
	case MissingValue:
		return datamodel.Null(), nil
	case MissingAttribute:
		return nil, NewConfigError("value", "", "value to push required")
	}
	return nil, NewConfigError("value", "", "value to push is invalid")
}

// ModelHandler moves the current model path:
// ${Model value:"customer"} sets it, ${Model interpret:"orders[0]"}
// extends it.
type ModelHandler struct{}

func (ModelHandler) Keys() []string { return []string{KeyModel} }

func (ModelHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() != KeyModel {
		return Ignored, nil
	}
	attrs := ctx.Attrs()
	if v, ok := LiteralString(attrs, "value"); ok {
		p, err := datamodel.ParsePath(v)
		if err != nil {
			return Ignored, NewConfigError("value", v, err.Error())
		}
		ctx.Env.Model.SetCurrent(datamodel.Path{}.Append(p...))
	} else if v, ok := LiteralString(attrs, "interpret"); ok {
		if _, _, _, err := ctx.Env.Model.Interpret(v, true); err != nil {
			return Ignored, NewConfigError("interpret", v, err.Error())
		}
	} else {
		return Ignored, NewConfigError("value", "", "model path required")
	}
	ctx.Log.Debug("model path is now '%s'", ctx.Env.Model.Current())
	return Proceed, ctx.DeletePlaceholder(DeleteIfBlankParagraph)
}

// CounterHandler writes the one-based loop counter:
// ${Counter} or ${Counter var:"row"}.
type CounterHandler struct{}

func (CounterHandler) Keys() []string { return []string{KeyCounter} }

func (CounterHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() != KeyCounter {
		return Ignored, nil
	}
	name := IndexVariable
	if v, ok := LiteralString(ctx.Attrs(), "var"); ok {
		name = v
	}
	policy, err := ctx.Policy()
	if err != nil {
		return Ignored, err
	}
	n, ok := ctx.Env.Vars.Top(name)
	if !ok || n.IsNull() {
		r, _, err := policy.Resolve(ctx, MissingValue, false, name)
		return r, err
	}
	i, res, err := PickInt(ctx.Env, placeholder.NewAttributes().Set("$value", name), "value")
	if err != nil {
		return Ignored, err
	}
	if res != Resolved {
		r, _, err := policy.Resolve(ctx, InvalidValue, false, name)
		return r, err
	}
	ctx.Replace(strconv.Itoa(i + 1))
	return Proceed, nil
}

package engine

import (
	"sort"
	"strings"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
)

// KeyString is the explicit text command: ${String value:"x"},
// ${String *value:"a.b"} or ${String $value:"v"}.
const KeyString = "String"

// StringHandler writes a leaf value into the document. It also claims
// the short forms ${*a.b}, ${$v} and ${$$v}.
type StringHandler struct{}

func (StringHandler) Keys() []string { return []string{KeyString} }

func (StringHandler) TryHandle(ctx *Context) (Result, error) {
	var (
		res  PickResult
		n    *datamodel.Node
		err  error
		attr = "value"
	)
	switch key := ctx.Key(); {
	case key == KeyString:
		res, n, err = Pick(ctx.Env, ctx.Attrs(), "value")
	case strings.HasPrefix(key, prefixModel) || strings.HasPrefix(key, prefixVariable):
		access, ref := SplitAccess(key)
		if ref == "" {
			return Ignored, nil
		}
		res, n, err = Lookup(ctx.Env, access, ref)
		attr = key
	default:
		return Ignored, nil
	}
	if err != nil {
		return Ignored, err
	}

	policy, err := ctx.Policy()
	if err != nil {
		return Ignored, err
	}
	text := ""
	if res == Resolved {
		if n.Deref().Kind() != datamodel.KindLeaf {
			res = InvalidValue
		} else {
			text = n.Text()
		}
	}
	r, use, err := policy.Resolve(ctx, res, text == "", attr)
	if err != nil || !use {
		return r, err
	}
	ctx.Replace(text)
	return Proceed, nil
}

// KeyReplace registers a replacement from inside a template:
// ${Replace key:"Company", value:"ACME"} or ${Replace key:"Company", *value:"company.name"}.
const KeyReplace = "Replace"

// ReplacementHandler replaces placeholders by key with fixed text, for
// example ${Company} with a registered company name. Replace markers add
// replacements for the placeholders after them.
type ReplacementHandler struct {
	texts map[string]string
}

func NewReplacementHandler() *ReplacementHandler {
	return &ReplacementHandler{texts: map[string]string{}}
}

// Set registers text for key.
func (h *ReplacementHandler) Set(key, text string) {
	h.texts[key] = text
}

func (h *ReplacementHandler) Keys() []string {
	keys := make([]string, 0, len(h.texts)+1)
	for k := range h.texts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return append(keys, KeyReplace)
}

func (h *ReplacementHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() == KeyReplace {
		return h.register(ctx)
	}
	text, ok := h.texts[ctx.Key()]
	if !ok {
		return Ignored, nil
	}
	ctx.Replace(text)
	return Proceed, nil
}

func (h *ReplacementHandler) register(ctx *Context) (Result, error) {
	attrs := ctx.Attrs()
	key, ok := LiteralString(attrs, "key")
	if !ok || key == "" {
		return Ignored, NewConfigError("key", "", "replacement key required")
	}
	if key == KeyReplace {
		return Ignored, NewConfigError("key", key, "replacement would replace itself")
	}
	text, res, err := PickString(ctx.Env, attrs, "value")
	if err != nil {
		return Ignored, err
	}
	if res != Resolved {
		policy, err := ctx.Policy()
		if err != nil {
			return Ignored, err
		}
		r, _, err := policy.Resolve(ctx, res, false, "value")
		return r, err
	}
	h.Set(key, text)
	ctx.Log.Debug("replacement %s registered", key)
	return Proceed, ctx.DeletePlaceholder(DeleteIfBlankParagraph)
}

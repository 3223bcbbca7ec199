package engine

import (
	"sort"
	"strings"

	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

const KeyAlias = "Alias"

// Alias rewrites placeholders with key Key into placeholders with key
// ReplaceKey. Attributes are renamed by AttrReplacements (access prefixes
// are kept) and Defaults are added where the placeholder has no attribute
// of the same name.
type Alias struct {
	Key              string
	ReplaceKey       string
	Defaults         *placeholder.Attributes
	AttrReplacements map[string]string
}

// AliasHandler applies registered aliases and registers new ones from
// markers such as
//
//	${Alias key:"myDate", replaceKey:"Date", attributes:{outputformat:"dd.MM.yyyy"}, attrReplacements:{of:"outputformat"}}
type AliasHandler struct {
	aliases map[string]Alias
}

func NewAliasHandler() *AliasHandler {
	return &AliasHandler{aliases: map[string]Alias{}}
}

// Register adds or replaces an alias. It fails when the alias would
// start a chain of rewrites leading back to its own key.
func (h *AliasHandler) Register(a Alias) error {
	if err := h.Check(a); err != nil {
		return err
	}
	h.aliases[a.Key] = a
	return nil
}

// Check reports whether a can be registered next to the aliases already
// known.
func (h *AliasHandler) Check(a Alias) error {
	chain := []string{a.Key}
	seen := map[string]bool{a.Key: true}
	for key := a.ReplaceKey; ; {
		chain = append(chain, key)
		if seen[key] {
			return NewConfigError("replaceKey", a.ReplaceKey, "alias cycle "+strings.Join(chain, " -> "))
		}
		seen[key] = true
		next, ok := h.aliases[key]
		if !ok {
			return nil
		}
		key = next.ReplaceKey
	}
}

func (h *AliasHandler) Keys() []string {
	keys := []string{KeyAlias}
	for k := range h.aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys[1:])
	return keys
}

func (h *AliasHandler) TryHandle(ctx *Context) (Result, error) {
	if ctx.Key() == KeyAlias {
		a, err := ParseAlias(ctx.Attrs())
		if err != nil {
			return Ignored, err
		}
		if err := h.Register(a); err != nil {
			return Ignored, err
		}
		ctx.Log.Debug("alias %s -> %s registered", a.Key, a.ReplaceKey)
		return Proceed, ctx.DeletePlaceholder(DeleteIfBlankParagraph)
	}
	a, ok := h.aliases[ctx.Key()]
	if !ok {
		return Ignored, nil
	}
	ctx.Replace(ctx.Format(a.ReplaceKey, a.Rewrite(ctx.Attrs())))
	return Rescan(ctx.Node()), nil
}

// ParseAlias reads an alias definition from the attributes of an Alias
// marker.
func ParseAlias(attrs *placeholder.Attributes) (Alias, error) {
	key, ok := LiteralString(attrs, "key")
	if !ok || key == "" {
		return Alias{}, NewConfigError("key", "", "alias key required")
	}
	replaceKey, ok := LiteralString(attrs, "replaceKey")
	if !ok || replaceKey == "" {
		return Alias{}, NewConfigError("replaceKey", "", "alias target key required")
	}
	if key == replaceKey || key == KeyAlias {
		return Alias{}, NewConfigError("key", key, "alias would replace itself")
	}
	a := Alias{Key: key, ReplaceKey: replaceKey, AttrReplacements: map[string]string{}}

	if v, ok := attrs.Get("attributes"); ok {
		defaults, isMap := v.(*placeholder.Attributes)
		if !isMap {
			return Alias{}, NewConfigError("attributes", placeholder.FormatValue(v), "object expected")
		}
		a.Defaults = defaults.Clone()
	}
	if v, ok := attrs.Get("attrReplacements"); ok {
		repl, isMap := v.(*placeholder.Attributes)
		if !isMap {
			return Alias{}, NewConfigError("attrReplacements", placeholder.FormatValue(v), "object expected")
		}
		for _, from := range repl.Keys() {
			to, _ := repl.Get(from)
			s, isString := to.(string)
			if !isString {
				return Alias{}, NewConfigError("attrReplacements", placeholder.FormatValue(to), "attribute name expected")
			}
			a.AttrReplacements[from] = s
		}
	}
	return a, nil
}

// Rewrite returns the attributes of the replacement placeholder.
func (a Alias) Rewrite(attrs *placeholder.Attributes) *placeholder.Attributes {
	out := placeholder.NewAttributes()
	present := map[string]bool{}
	for _, k := range attrs.Keys() {
		v, _ := attrs.Get(k)
		prefix, name := splitPrefix(k)
		if to, ok := a.AttrReplacements[name]; ok {
			name = to
		}
		present[name] = true
		out.Set(prefix+name, v)
	}
	for _, k := range a.Defaults.Keys() {
		_, name := splitPrefix(k)
		if present[name] {
			continue
		}
		v, _ := a.Defaults.Get(k)
		out.Set(k, v)
	}
	return out
}

func splitPrefix(k string) (string, string) {
	_, name := SplitAccess(k)
	return k[:len(k)-len(name)], name
}

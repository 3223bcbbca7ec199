package engine

// Handlers is the standard command set in dispatch order. Aliases come
// first so rewritten placeholders reach the other handlers, replacements
// next so registered keys win over built-in ones.
type Handlers struct {
	Alias        *AliasHandler
	Replacements *ReplacementHandler
	Import       *ImportHandler
}

// NewHandlers creates the standard handlers. Import stays inactive until
// a FragmentSource is set.
func NewHandlers() *Handlers {
	return &Handlers{
		Alias:        NewAliasHandler(),
		Replacements: NewReplacementHandler(),
		Import:       &ImportHandler{},
	}
}

// List returns the handlers to register with a pipeline.
func (h *Handlers) List() []Handler {
	return []Handler{
		h.Alias,
		h.Replacements,
		ForHandler{},
		IfHandler{},
		VariableHandler{},
		ModelHandler{},
		CalcHandler{},
		ConcatHandler{},
		JoinHandler{},
		CounterHandler{},
		RemoveHandler{},
		h.Import,
		StringHandler{},
	}
}

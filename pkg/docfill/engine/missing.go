package engine

import (
	"fmt"

	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

// Scenario classifies a lookup that did not yield a usable value.
type Scenario int

const (
	ScenarioNull Scenario = iota
	ScenarioEmpty
	ScenarioError
)

func (s Scenario) String() string {
	switch s {
	case ScenarioNull:
		return "null"
	case ScenarioEmpty:
		return "empty"
	}
	return "error"
}

// StrategyKind is the reaction to a scenario.
type StrategyKind int

const (
	StrategySkip StrategyKind = iota
	StrategyFail
	StrategyEmpty
	StrategyFallback
	StrategyDeletePlaceholder
	StrategyKeepPlaceholder
)

// DeleteMode decides what happens to the paragraph around a deleted
// placeholder.
type DeleteMode int

const (
	KeepParagraph DeleteMode = iota
	DeleteIfBlankParagraph
	DeleteParagraph
	DeleteEnclosingArea
)

// Strategy is a StrategyKind plus the delete mode used by
// StrategyDeletePlaceholder.
type Strategy struct {
	Kind StrategyKind
	Mode DeleteMode
}

var strategyNames = map[string]Strategy{
	"skip":                                  {Kind: StrategySkip},
	"fail":                                  {Kind: StrategyFail},
	"empty":                                 {Kind: StrategyEmpty},
	"fallback":                              {Kind: StrategyFallback},
	"deletePlaceholderKeepParagraph":        {Kind: StrategyDeletePlaceholder, Mode: KeepParagraph},
	"deletePlaceholderDeleteEmptyParagraph": {Kind: StrategyDeletePlaceholder, Mode: DeleteIfBlankParagraph},
	"deletePlaceholderDeleteParagraph":      {Kind: StrategyDeletePlaceholder, Mode: DeleteParagraph},
	"deleteArea":                            {Kind: StrategyDeletePlaceholder, Mode: DeleteEnclosingArea},
	"keepPlaceholder":                       {Kind: StrategyKeepPlaceholder},
}

// ParseStrategy maps an attribute value such as "deleteArea" to a
// Strategy.
func ParseStrategy(name string) (Strategy, bool) {
	s, ok := strategyNames[name]
	return s, ok
}

func (s Strategy) String() string {
	for name, v := range strategyNames {
		if v == s {
			return name
		}
	}
	return fmt.Sprintf("Strategy(%d,%d)", s.Kind, s.Mode)
}

// Attribute names overriding a policy per placeholder.
const (
	AttrOnNull   = "onNull"
	AttrOnEmpty  = "onEmpty"
	AttrOnError  = "onError"
	AttrFallback = "fallback"
)

var scenarioAttrs = []struct {
	attr     string
	scenario Scenario
}{
	{AttrOnNull, ScenarioNull},
	{AttrOnEmpty, ScenarioEmpty},
	{AttrOnError, ScenarioError},
}

// Policy maps every scenario to a strategy. Fallback is the replacement
// text used by StrategyFallback.
type Policy struct {
	strategies  [3]Strategy
	Fallback    string
	HasFallback bool
}

// DefaultPolicy deletes placeholders with null data (dropping the paragraph
// when nothing else is left in it), writes empty values as empty text and
// fails on errors.
func DefaultPolicy() *Policy {
	p := &Policy{}
	p.strategies[ScenarioNull] = Strategy{Kind: StrategyDeletePlaceholder, Mode: DeleteIfBlankParagraph}
	p.strategies[ScenarioEmpty] = Strategy{Kind: StrategyEmpty}
	p.strategies[ScenarioError] = Strategy{Kind: StrategyFail}
	return p
}

// Clone copies p.
func (p *Policy) Clone() *Policy {
	c := *p
	return &c
}

// Strategy returns the strategy for s.
func (p *Policy) Strategy(s Scenario) Strategy {
	return p.strategies[s]
}

// Set replaces the strategy for s and returns p.
func (p *Policy) Set(s Scenario, st Strategy) *Policy {
	p.strategies[s] = st
	return p
}

// WithOverrides clones p and applies onNull, onEmpty, onError and fallback
// from attrs.
func (p *Policy) WithOverrides(attrs *placeholder.Attributes) (*Policy, error) {
	c := p.Clone()
	for _, sa := range scenarioAttrs {
		v, ok := attrs.Get(sa.attr)
		if !ok {
			continue
		}
		name, isString := v.(string)
		st, known := ParseStrategy(name)
		if !isString || !known {
			return nil, NewConfigError(sa.attr, placeholder.FormatValue(v), "unknown missing data strategy")
		}
		c.strategies[sa.scenario] = st
	}
	if v, ok := attrs.Get(AttrFallback); ok {
		text, isString := v.(string)
		if !isString {
			text = placeholder.FormatValue(v)
		}
		c.Fallback, c.HasFallback = text, true
	}
	return c, nil
}

// Classify maps a pick result to a scenario. The second result is false
// when the value is resolved and not empty, so no strategy applies.
func Classify(res PickResult, isEmpty bool) (Scenario, bool) {
	switch res {
	case Resolved:
		if isEmpty {
			return ScenarioEmpty, true
		}
		return 0, false
	case MissingValue:
		return ScenarioNull, true
	}
	return ScenarioError, true
}

// Apply executes the strategy for scenario on the placeholder of ctx.
// attribute names the logical attribute that failed and is used in error
// messages.
func (p *Policy) Apply(ctx *Context, scenario Scenario, attribute string) (Result, error) {
	st := p.strategies[scenario]
	ctx.Log.Debug("missing data %s for %s: %s", scenario, ctx.Placeholder.Raw, st)
	switch st.Kind {
	case StrategySkip:
		return Skipped, nil
	case StrategyFail:
		return Ignored, &MissingValueError{Placeholder: ctx.Placeholder.Raw, Attribute: attribute, Scenario: scenario}
	case StrategyEmpty:
		ctx.Replace("")
		return Proceed, nil
	case StrategyFallback:
		if !p.HasFallback {
			return Ignored, NewConfigError(AttrFallback, "", "fallback strategy selected without fallback text")
		}
		ctx.Replace(p.Fallback)
		return Proceed, nil
	case StrategyDeletePlaceholder:
		if err := ctx.DeletePlaceholder(st.Mode); err != nil {
			return Ignored, err
		}
		return Proceed, nil
	case StrategyKeepPlaceholder:
		return Proceed, nil
	}
	return Ignored, fmt.Errorf("unhandled strategy %v", st)
}

// Resolve classifies res and, when a strategy applies, executes it. The
// boolean is true when the caller should go on using the value.
func (p *Policy) Resolve(ctx *Context, res PickResult, isEmpty bool, attribute string) (Result, bool, error) {
	scenario, apply := Classify(res, isEmpty)
	if !apply {
		return Proceed, true, nil
	}
	r, err := p.Apply(ctx, scenario, attribute)
	return r, false, err
}

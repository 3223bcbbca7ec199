package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingDataStrategies(t *testing.T) {
	const js = `{"e":"","obj":{"k":1}}`

	tests := []struct {
		name    string
		lines   []string
		want    []string
		wantErr func(error) bool
	}{
		{"null default", []string{"${*missing}"}, []string{}, nil},
		{"null skip", []string{`${*missing onNull:"skip"}`}, []string{`${*missing onNull:"skip"}`}, nil},
		{"null fail", []string{`${*missing onNull:"fail"}`}, nil, IsMissingValueError},
		{"null empty", []string{`x ${*missing onNull:"empty"}`}, []string{"x "}, nil},
		{"null fallback", []string{`${*missing onNull:"fallback", fallback:"-"}`}, []string{"-"}, nil},
		{"fallback without text", []string{`${*missing onNull:"fallback"}`}, nil, IsConfigError},
		{"keep paragraph", []string{`${*missing onNull:"deletePlaceholderKeepParagraph"}`}, []string{""}, nil},
		{"delete blank paragraph", []string{`${*missing onNull:"deletePlaceholderDeleteEmptyParagraph"}`, "z"}, []string{"z"}, nil},
		{"delete paragraph", []string{`text ${*missing onNull:"deletePlaceholderDeleteParagraph"}`, "z"}, []string{"z"}, nil},
		{"delete area", []string{`${String *value:"missing", onNull:"deleteArea"}`, "inside", "${EndString}", "after"}, []string{"after"}, nil},
		{"delete area without end", []string{"before", `text ${*missing onNull:"deleteArea"}`, "after"}, []string{"before", "after"}, nil},
		{"keep placeholder", []string{`${*missing onNull:"keepPlaceholder"}`}, []string{`${*missing onNull:"keepPlaceholder"}`}, nil},
		{"empty default", []string{"[${*e}]"}, []string{"[]"}, nil},
		{"empty fallback", []string{`${*e onEmpty:"fallback", fallback:"n/a"}`}, []string{"n/a"}, nil},
		{"error default", []string{"${*obj}"}, nil, IsMissingValueError},
		{"error fallback", []string{`${*obj onError:"fallback", fallback:"err"}`}, []string{"err"}, nil},
		{"unknown strategy", []string{`${*missing onNull:"bogus"}`}, nil, IsConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fill(t, js, tt.lines...)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFailReportsScenario(t *testing.T) {
	_, err := fill(t, `{"obj":{}}`, "${*obj}")
	var mv *MissingValueError
	require.True(t, errors.As(err, &mv))
	assert.Equal(t, ScenarioError, mv.Scenario)
	assert.Equal(t, "*obj", mv.Attribute)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		res     PickResult
		empty   bool
		want    Scenario
		applies bool
	}{
		{Resolved, false, 0, false},
		{Resolved, true, ScenarioEmpty, true},
		{MissingValue, false, ScenarioNull, true},
		{MissingAttribute, false, ScenarioError, true},
		{InvalidValue, false, ScenarioError, true},
	}
	for _, tt := range tests {
		s, ok := Classify(tt.res, tt.empty)
		assert.Equal(t, tt.applies, ok, "%s", tt.res)
		if ok {
			assert.Equal(t, tt.want, s, "%s", tt.res)
		}
	}
}

func TestPolicyOverridesDoNotLeak(t *testing.T) {
	base := DefaultPolicy()
	over, err := base.WithOverrides(placeholderAttrs("onNull", "skip", "fallback", 3))
	require.NoError(t, err)

	assert.Equal(t, StrategySkip, over.Strategy(ScenarioNull).Kind)
	assert.Equal(t, "3", over.Fallback)
	assert.Equal(t, StrategyDeletePlaceholder, base.Strategy(ScenarioNull).Kind)
	assert.False(t, base.HasFallback)

	st, ok := ParseStrategy("deleteArea")
	require.True(t, ok)
	assert.Equal(t, DeleteEnclosingArea, st.Mode)
	assert.Equal(t, "deleteArea", st.String())
}

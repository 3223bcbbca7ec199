package docfill

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/engine"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

func TestDocumentError(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := NewDocumentError("parse", "a.docx", cause)

	assert.Equal(t, "docfill: cannot parse a.docx: zip: not a valid zip file", err.Error())
	assert.True(t, IsDocumentError(fmt.Errorf("wrapped: %w", err)))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "docfill: cannot write", NewDocumentError("write", "", nil).Error())
}

func TestPlaceholderErrors(t *testing.T) {
	errs := &PlaceholderErrors{Template: "t.docx"}
	assert.NoError(t, errs.errOrNil())

	errs.add(nil)
	first := errors.New("first")
	errs.add(first)
	assert.EqualError(t, errs.errOrNil(), "t.docx: first")

	errs.add(&placeholder.SyntaxError{Text: "${x", Message: "missing delimiters"})
	err := errs.errOrNil()
	assert.True(t, strings.HasPrefix(err.Error(), "t.docx: 2 malformed placeholders\n  first"))
	assert.ErrorIs(t, err, first)
	assert.True(t, IsSyntaxError(err))
}

func TestPartError(t *testing.T) {
	cause := errors.New("boom")
	err := &PartError{Template: "t.docx", Part: 1, Err: cause}

	assert.Equal(t, "fill t.docx, part 1: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestPanicError(t *testing.T) {
	assert.EqualError(t, &PanicError{Template: "t", Value: "bad"}, "fill t panicked: bad")
	assert.NoError(t, (&PanicError{Value: 42}).Unwrap())

	cause := errors.New("inner")
	assert.ErrorIs(t, &PanicError{Template: "t", Value: cause}, cause)
}

func TestInvalidConfigError(t *testing.T) {
	err := &InvalidConfigError{Problems: []ConfigProblem{
		{Setting: "max_steps", Reason: "must be positive"},
		{Setting: "log_format", Reason: `"xml" is not text or json`},
	}}
	assert.Equal(t, `invalid configuration: max_steps must be positive; log_format "xml" is not text or json`, err.Error())
	assert.Equal(t, "invalid configuration", (&InvalidConfigError{}).Error())
}

func TestErrorPredicates(t *testing.T) {
	run := &engine.RunError{Placeholder: "${x}", Cause: &engine.MissingValueError{Placeholder: "${x}"}}

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"config error", engine.NewConfigError("as", "1", "bad"), IsConfigError, true},
		{"path error is config", &datamodel.PathError{Path: "a..b"}, IsConfigError, true},
		{"variable name error is config", &datamodel.VariableNameError{Name: "1x"}, IsConfigError, true},
		{"syntax error is config", &placeholder.SyntaxError{Text: "${"}, IsConfigError, true},
		{"missing value through run", run, IsMissingValueError, true},
		{"run error", run, IsRunError, true},
		{"unclaimed", &engine.UnclaimedError{Key: "Foo"}, IsUnclaimedError, true},
		{"plain error", errors.New("x"), IsConfigError, false},
		{"invalid config", &InvalidConfigError{}, IsInvalidConfigError, true},
		{"document error is not config", NewDocumentError("read", "x", nil), IsConfigError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

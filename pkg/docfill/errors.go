package docfill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benjaminschreck/docfill/pkg/docfill/condition"
	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
	"github.com/benjaminschreck/docfill/pkg/docfill/engine"
	"github.com/benjaminschreck/docfill/pkg/docfill/placeholder"
)

// DocumentError is an I/O or container problem with a template or the
// filled output: an unreadable file, a broken zip, a failed render.
type DocumentError struct {
	Op       string
	Template string
	Err      error
}

func (e *DocumentError) Error() string {
	target := e.Op
	if e.Template != "" {
		target += " " + e.Template
	}
	if e.Err == nil {
		return "docfill: cannot " + target
	}
	return fmt.Sprintf("docfill: cannot %s: %v", target, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// NewDocumentError wraps err as a DocumentError for op on template.
func NewDocumentError(op, template string, err error) error {
	return &DocumentError{Op: op, Template: template, Err: err}
}

// ConfigProblem is one rejected Config setting.
type ConfigProblem struct {
	Setting string
	Reason  string
}

// InvalidConfigError lists every rejected setting of a Config.
type InvalidConfigError struct {
	Problems []ConfigProblem
}

func (e *InvalidConfigError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid configuration"
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Setting + " " + p.Reason
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// PlaceholderErrors gathers the malformed placeholders Inspect finds in
// one template.
type PlaceholderErrors struct {
	Template string
	Errs     []error
}

func (e *PlaceholderErrors) add(err error) {
	if err != nil {
		e.Errs = append(e.Errs, err)
	}
}

// errOrNil returns e when it holds anything.
func (e *PlaceholderErrors) errOrNil() error {
	if len(e.Errs) == 0 {
		return nil
	}
	return e
}

func (e *PlaceholderErrors) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("%s: %v", e.Template, e.Errs[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d malformed placeholders", e.Template, len(e.Errs))
	for _, err := range e.Errs {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *PlaceholderErrors) Unwrap() []error { return e.Errs }

// PartError names the part of a multi-part document (a DOCX header, an
// XLSX sheet) whose fill failed.
type PartError struct {
	Template string
	Part     int
	Err      error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("fill %s, part %d: %v", e.Template, e.Part, e.Err)
}

func (e *PartError) Unwrap() error { return e.Err }

// PanicError is a panic raised while filling, turned into an error.
type PanicError struct {
	Template string
	Value    any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("fill %s panicked: %v", e.Template, e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// IsDocumentError checks if an error is or wraps a document error
func IsDocumentError(err error) bool {
	var target *DocumentError
	return errors.As(err, &target)
}

// IsInvalidConfigError reports errors from Config.Validate.
func IsInvalidConfigError(err error) bool {
	var target *InvalidConfigError
	return errors.As(err, &target)
}

// IsSyntaxError checks if an error is or wraps a placeholder syntax error
func IsSyntaxError(err error) bool {
	var target *placeholder.SyntaxError
	return errors.As(err, &target)
}

// IsConfigError reports errors caused by the template itself: bad
// placeholder syntax, bad paths or variable names, wrong attributes and
// unbuildable conditions.
func IsConfigError(err error) bool {
	var (
		pathErr *datamodel.PathError
		varErr  *datamodel.VariableNameError
		condErr *condition.Error
	)
	return engine.IsConfigError(err) || IsSyntaxError(err) ||
		errors.As(err, &pathErr) || errors.As(err, &varErr) || errors.As(err, &condErr)
}

func IsMissingValueError(err error) bool {
	return engine.IsMissingValueError(err)
}

func IsRunError(err error) bool {
	return engine.IsRunError(err)
}

func IsUnclaimedError(err error) bool {
	return engine.IsUnclaimedError(err)
}

package engine

import (
	"errors"
	"fmt"
)

// ConfigError reports a placeholder whose attributes are wrong: an unknown
// strategy, a missing fallback text, a missing end marker and so on.
type ConfigError struct {
	Attribute string
	Value     string
	Message   string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Attribute != "" && e.Value != "":
		return fmt.Sprintf("configuration error in attribute '%s' = '%s': %s", e.Attribute, e.Value, e.Message)
	case e.Attribute != "":
		return fmt.Sprintf("configuration error in attribute '%s': %s", e.Attribute, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigError creates a new configuration error
func NewConfigError(attribute, value, message string) error {
	return &ConfigError{Attribute: attribute, Value: value, Message: message}
}

// MissingValueError is raised by the fail strategy.
type MissingValueError struct {
	Placeholder string
	Attribute   string
	Scenario    Scenario
}

func (e *MissingValueError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("missing value for '%s' in %s (%s)", e.Attribute, e.Placeholder, e.Scenario)
	}
	return fmt.Sprintf("missing value in %s (%s)", e.Placeholder, e.Scenario)
}

// RunError wraps the fatal problem that stopped a pipeline run together
// with the placeholder being processed.
type RunError struct {
	Placeholder string
	Step        int
	Cause       error
}

func (e *RunError) Error() string {
	if e.Placeholder == "" {
		return fmt.Sprintf("fill aborted at step %d: %v", e.Step, e.Cause)
	}
	return fmt.Sprintf("fill aborted at step %d, placeholder %s: %v", e.Step, e.Placeholder, e.Cause)
}

func (e *RunError) Unwrap() error {
	return e.Cause
}

// UnclaimedError is returned in strict mode for a placeholder no handler
// accepted.
type UnclaimedError struct {
	Key  string
	Hint string
}

func (e *UnclaimedError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("no handler for placeholder key '%s' (did you mean '%s'?)", e.Key, e.Hint)
	}
	return fmt.Sprintf("no handler for placeholder key '%s'", e.Key)
}

// IsConfigError checks if an error is or wraps a configuration error
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsMissingValueError checks if an error is or wraps a missing value error
func IsMissingValueError(err error) bool {
	var target *MissingValueError
	return errors.As(err, &target)
}

// IsRunError checks if an error is a run error
func IsRunError(err error) bool {
	var target *RunError
	return errors.As(err, &target)
}

// IsUnclaimedError checks if an error is or wraps an unclaimed placeholder error
func IsUnclaimedError(err error) bool {
	var target *UnclaimedError
	return errors.As(err, &target)
}

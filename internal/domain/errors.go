package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidInput is returned when input validation fails.
var ErrInvalidInput = errors.New("invalid input")

// UnknownRuleError is returned when a policy operation names a rule code
// that does not exist.
type UnknownRuleError struct {
	Code string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("Rule %s not found", e.Code)
}

// InvalidWeightError is returned when a weight falls outside [0,2].
type InvalidWeightError struct {
	Weight float64
}

func (e *InvalidWeightError) Error() string {
	return "Weight must be between 0 and 2"
}

// UnknownPresetError is returned when a preset name is not recognized.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("Unknown preset: %s. Use 'strict', 'friendly', or 'delay-tolerant'", e.Name)
}

// EmptyTextError is returned when extraction is requested for empty or
// whitespace-only text. This is the only loud failure in the extraction
// path; everything else degrades to fallback signals.
type EmptyTextError struct{}

func (e *EmptyTextError) Error() string {
	return "Text cannot be empty"
}

// MalformedCaseError is returned when a case fails structural validation.
type MalformedCaseError struct {
	Field  string
	Reason string
}

func (e *MalformedCaseError) Error() string {
	return fmt.Sprintf("invalid case: %s %s", e.Field, e.Reason)
}

package receipt

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("receipt not found")

// FieldProblem describes one field that failed payload validation.
type FieldProblem struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError means the payload could not be turned into a Receipt.
// No points are computed and no id is issued.
type ValidationError struct {
	Problems []FieldProblem
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return "invalid receipt: " + e.Err.Error()
	}
	if len(e.Problems) == 0 {
		return "invalid receipt"
	}

	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+" "+p.Rule)
	}
	return "invalid receipt: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// FieldParseError is recorded when a single field cannot be read as its
// semantic type. The rule depending on it scores 0; it never reaches callers.
type FieldParseError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldParseError) Unwrap() error { return e.Err }

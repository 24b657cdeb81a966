// Package schedule implements schedule validation and the date-driven
// expected-progress calculation.
package schedule

import "fmt"

// ValidationError represents a malformed schedule input (bad weight, bad
// duration, unparseable date). Surfaced to the caller immediately; not retried.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schedule validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("schedule validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// DuplicateActivityError reports two activities that collapse to the same
// normalized name. Registration fails rather than silently merging them.
type DuplicateActivityError struct {
	Name string
}

func (e *DuplicateActivityError) Error() string {
	return fmt.Sprintf("duplicate activity name %q in schedule", e.Name)
}

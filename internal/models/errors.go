package models

import "fmt"

// ValidationError reports a request field that failed validation, with enough
// detail for the caller to correct it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an index outside corpus bounds or an unknown kind.
type NotFoundError struct {
	Kind  string
	Index int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s index %d out of range", e.Kind, e.Index)
}

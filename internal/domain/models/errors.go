package models

import (
	"errors"
	"fmt"
)

// ErrAlreadyEnriched is returned when a prediction is enriched a second time.
var ErrAlreadyEnriched = errors.New("prediction already enriched")

// ValidationError reports malformed input such as a bad draw.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports an unknown lottery type, algorithm, result or prediction.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func NewNotFoundError(kind, key string) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}

// ComputationError reports an aggregation that cannot produce a value, e.g. over empty history.
type ComputationError struct {
	Op     string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func NewComputationError(op, reason string) *ComputationError {
	return &ComputationError{Op: op, Reason: reason}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

func IsComputation(err error) bool {
	var v *ComputationError
	return errors.As(err, &v)
}

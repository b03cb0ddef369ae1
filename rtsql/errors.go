package rtsql

import (
	"fmt"

	"github.com/pkg/errors"
)

// TypeError is returned when an expression or plan can't be typed.
// It is never retryable, the query has to be rejected.
type TypeError struct {
	Message string
}

func NewTypeError(format string, args ...interface{}) error {
	return errors.WithStack(&TypeError{Message: fmt.Sprintf(format, args...)})
}

func (err *TypeError) Error() string {
	return "type error: " + err.Message
}

func IsTypeError(err error) bool {
	var typeErr *TypeError
	return errors.As(err, &typeErr)
}

type EvaluationErrorKind int

const (
	EvaluationErrorArity EvaluationErrorKind = iota
	EvaluationErrorValue
	EvaluationErrorComputation
)

func (kind EvaluationErrorKind) String() string {
	switch kind {
	case EvaluationErrorArity:
		return "arity"
	case EvaluationErrorValue:
		return "value"
	case EvaluationErrorComputation:
		return "computation"
	}
	return "unknown"
}

// EvaluationError is returned by function evaluation for a specific set of arguments.
type EvaluationError struct {
	Kind    EvaluationErrorKind
	Message string
}

func NewEvaluationError(kind EvaluationErrorKind, format string, args ...interface{}) error {
	return errors.WithStack(&EvaluationError{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (err *EvaluationError) Error() string {
	return fmt.Sprintf("%s evaluation error: %s", err.Kind, err.Message)
}

func IsEvaluationError(err error) bool {
	var evalErr *EvaluationError
	return errors.As(err, &evalErr)
}

// EvaluationErrorKindOf returns the kind of the evaluation error wrapped in err.
func EvaluationErrorKindOf(err error) (EvaluationErrorKind, bool) {
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return 0, false
	}
	return evalErr.Kind, true
}

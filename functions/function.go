package functions

import (
	"github.com/cube2222/rtsql/rtsql"
)

// ScalarFunc is a fixed-arity, side-effect-free function.
//
// Implementations must be stateless: a single instance is evaluated concurrently
// by many callers and has to return identical results for identical arguments.
type ScalarFunc interface {
	ReturnType() *rtsql.Type
	ArgumentTypes() []*rtsql.Type
	// Strict functions return null if any of their arguments is null, without being evaluated.
	Strict() bool
	// Eval assumes the static types of its arguments have already been checked against ArgumentTypes.
	Eval(args []rtsql.Value) (rtsql.Value, error)
}

type Body func(args []rtsql.Value) (rtsql.Value, error)

// Function is the ScalarFunc implementation used by all builtins.
type Function struct {
	description   string
	returnType    *rtsql.Type
	argumentTypes []*rtsql.Type
	strict        bool
	body          Body
}

type Option func(fn *Function)

// WithNullPropagation marks the function as strict.
func WithNullPropagation() Option {
	return func(fn *Function) {
		fn.strict = true
	}
}

func WithDescription(description string) Option {
	return func(fn *Function) {
		fn.description = description
	}
}

func NewFunction(returnType *rtsql.Type, argumentTypes []*rtsql.Type, body Body, opts ...Option) *Function {
	fn := &Function{
		returnType:    returnType,
		argumentTypes: append([]*rtsql.Type{}, argumentTypes...),
		body:          body,
	}
	for _, opt := range opts {
		opt(fn)
	}
	return fn
}

func (fn *Function) ReturnType() *rtsql.Type {
	return fn.returnType
}

func (fn *Function) ArgumentTypes() []*rtsql.Type {
	return append([]*rtsql.Type{}, fn.argumentTypes...)
}

func (fn *Function) Strict() bool {
	return fn.strict
}

func (fn *Function) Description() string {
	return fn.description
}

// Type returns the function type of this signature.
func (fn *Function) Type() *rtsql.Type {
	return rtsql.NewFunction(fn.returnType, fn.argumentTypes...)
}

func (fn *Function) Eval(args []rtsql.Value) (rtsql.Value, error) {
	if len(args) != len(fn.argumentTypes) {
		return rtsql.Value{}, rtsql.NewEvaluationError(
			rtsql.EvaluationErrorArity,
			"expected %d arguments, got %d", len(fn.argumentTypes), len(args),
		)
	}
	for i := range args {
		if !args[i].Conforms(fn.argumentTypes[i]) {
			return rtsql.Value{}, rtsql.NewEvaluationError(
				rtsql.EvaluationErrorValue,
				"argument with index %d: value %s doesn't conform to %s", i, args[i], fn.argumentTypes[i],
			)
		}
	}

	out, err := fn.body(args)
	if err != nil {
		return rtsql.Value{}, err
	}
	if !out.Conforms(fn.returnType) {
		return rtsql.Value{}, rtsql.NewEvaluationError(
			rtsql.EvaluationErrorComputation,
			"result %s doesn't conform to %s", out, fn.returnType,
		)
	}
	return out, nil
}

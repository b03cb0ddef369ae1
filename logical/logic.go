package logical

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cube2222/rtsql/physical"
	"github.com/cube2222/rtsql/rtsql"
)

type And struct {
	Arguments []Expression
}

func NewAnd(args ...Expression) *And {
	return &And{Arguments: args}
}

func (and *And) Typecheck(ctx context.Context, env Environment) (physical.Expression, error) {
	args, t, err := typecheckLogicArguments(ctx, env, "AND", and.Arguments)
	if err != nil {
		return physical.Expression{}, err
	}
	return physical.NewAnd(t, args), nil
}

type Or struct {
	Arguments []Expression
}

func NewOr(args ...Expression) *Or {
	return &Or{Arguments: args}
}

func (or *Or) Typecheck(ctx context.Context, env Environment) (physical.Expression, error) {
	args, t, err := typecheckLogicArguments(ctx, env, "OR", or.Arguments)
	if err != nil {
		return physical.Expression{}, err
	}
	return physical.NewOr(t, args), nil
}

// typecheckLogicArguments requires every argument to be a boolean.
// The result is nullable if any argument is. Null literals are promoted to NULLABLE(BOOLEAN).
func typecheckLogicArguments(ctx context.Context, env Environment, name string, arguments []Expression) ([]physical.Expression, *rtsql.Type, error) {
	if len(arguments) < 2 {
		return nil, nil, rtsql.NewTypeError("%s requires at least two arguments, got %d", name, len(arguments))
	}
	args, err := typecheckArguments(ctx, env, arguments)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "couldn't typecheck %s arguments", name)
	}

	nullableBoolean := rtsql.Nullable(rtsql.TypeIDBoolean)
	resultType := rtsql.Boolean
	for i := range args {
		if !args[i].Type.PromotesTo(nullableBoolean) {
			return nil, nil, rtsql.NewTypeError("%s argument with index %d must be a boolean, is %s", name, i, args[i].Type)
		}
		if args[i].Type.IsNullable() {
			resultType = nullableBoolean
		}
	}
	if resultType.IsNullable() {
		for i := range args {
			if args[i].Type.Equals(rtsql.Boolean) {
				continue
			}
			if args[i], err = physical.NewPromotion(args[i], nullableBoolean); err != nil {
				return nil, nil, errors.Wrapf(err, "%s argument with index %d", name, i)
			}
		}
	}
	return args, resultType, nil
}

package logical

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cube2222/rtsql/functions"
	"github.com/cube2222/rtsql/physical"
	"github.com/cube2222/rtsql/rtsql"
)

// Environment is what expressions are typechecked against.
type Environment struct {
	// Record is the record type of the input stream, variables refer to its fields.
	Record    *rtsql.Type
	Functions *functions.Registry
	// StrictNulls disallows binding nullable arguments to non-nullable parameters.
	StrictNulls bool
}

type Expression interface {
	Typecheck(ctx context.Context, env Environment) (physical.Expression, error)
}

type Variable struct {
	Name string
}

func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) Typecheck(ctx context.Context, env Environment) (physical.Expression, error) {
	if env.Record == nil {
		return physical.Expression{}, rtsql.NewTypeError("unknown variable: '%s'", v.Name)
	}
	index := env.Record.FieldIndex(v.Name)
	if index == -1 {
		return physical.Expression{}, rtsql.NewTypeError("unknown variable: '%s'", v.Name)
	}
	return physical.NewVariable(v.Name, index, env.Record.Record.Fields[index].Type), nil
}

type Constant struct {
	Value rtsql.Value
}

func NewConstant(value rtsql.Value) *Constant {
	return &Constant{Value: value}
}

func (c *Constant) Typecheck(ctx context.Context, env Environment) (physical.Expression, error) {
	if c.Value.IsNull() {
		return physical.NewConstant(c.Value, rtsql.NullableAny), nil
	}
	if !c.Value.TypeID.IsPrimitiveID() {
		return physical.Expression{}, rtsql.NewTypeError("constants of type %s aren't supported", c.Value.TypeID)
	}
	t := rtsql.Primitive(c.Value.TypeID)
	if !c.Value.Conforms(t) {
		return physical.Expression{}, rtsql.NewTypeError("constant %s doesn't fit %s", c.Value, t)
	}
	return physical.NewConstant(c.Value, t), nil
}

// Null is the NULL literal.
type Null struct{}

func NewNull() *Null {
	return &Null{}
}

func (n *Null) Typecheck(ctx context.Context, env Environment) (physical.Expression, error) {
	return physical.NewConstant(rtsql.NewNull(), rtsql.NullableAny), nil
}

type FunctionExpression struct {
	Name      string
	Arguments []Expression
}

func NewFunctionExpression(name string, args []Expression) *FunctionExpression {
	return &FunctionExpression{
		Name:      name,
		Arguments: args,
	}
}

func (fe *FunctionExpression) Typecheck(ctx context.Context, env Environment) (physical.Expression, error) {
	args, err := typecheckArguments(ctx, env, fe.Arguments)
	if err != nil {
		return physical.Expression{}, errors.Wrapf(err, "couldn't typecheck arguments of function %s", fe.Name)
	}
	return bindCall(env, fe.Name, args)
}

// Operator is an infix or prefix operator. Binary operators first unify their operands to a common type.
type Operator struct {
	Name      string
	Arguments []Expression
}

func NewInfixOperator(name string, left, right Expression) *Operator {
	return &Operator{
		Name:      name,
		Arguments: []Expression{left, right},
	}
}

func NewPrefixOperator(name string, child Expression) *Operator {
	return &Operator{
		Name:      name,
		Arguments: []Expression{child},
	}
}

func (op *Operator) Typecheck(ctx context.Context, env Environment) (physical.Expression, error) {
	args, err := typecheckArguments(ctx, env, op.Arguments)
	if err != nil {
		return physical.Expression{}, errors.Wrapf(err, "couldn't typecheck operands of %s", op.Name)
	}

	if len(args) == 2 {
		common, ok := rtsql.CommonType(args[0].Type, args[1].Type)
		if !ok {
			return physical.Expression{}, rtsql.NewTypeError("operands of %s have incompatible types %s and %s", op.Name, args[0].Type, args[1].Type)
		}
		for i := range args {
			if args[i], err = physical.NewPromotion(args[i], common); err != nil {
				return physical.Expression{}, errors.Wrapf(err, "couldn't unify operand with index %d of %s", i, op.Name)
			}
		}
	}

	return bindCall(env, op.Name, args)
}

func typecheckArguments(ctx context.Context, env Environment, arguments []Expression) ([]physical.Expression, error) {
	out := make([]physical.Expression, len(arguments))
	for i := range arguments {
		arg, err := arguments[i].Typecheck(ctx, env)
		if err != nil {
			return nil, errors.Wrapf(err, "argument with index %d", i)
		}
		out[i] = arg
	}
	return out, nil
}

// bindCall resolves the overload and makes every implicit argument conversion an explicit promotion.
func bindCall(env Environment, name string, args []physical.Expression) (physical.Expression, error) {
	if env.Functions == nil {
		return physical.Expression{}, rtsql.NewTypeError("unknown function %s", name)
	}
	argumentTypes := make([]*rtsql.Type, len(args))
	for i := range args {
		argumentTypes[i] = args[i].Type
	}

	binding, err := env.Functions.Bind(name, argumentTypes)
	if err != nil {
		return physical.Expression{}, err
	}
	if binding.PropagatesNulls && env.StrictNulls {
		return physical.Expression{}, rtsql.NewTypeError("function %s doesn't accept nullable arguments", name)
	}

	parameterTypes := binding.Function.ArgumentTypes()
	for i := range args {
		target := parameterTypes[i]
		if binding.PropagatesNulls && args[i].Type.IsNullable() {
			target, _ = target.AsNullable()
		}
		if args[i], err = physical.NewPromotion(args[i], target); err != nil {
			return physical.Expression{}, errors.Wrapf(err, "couldn't promote argument with index %d of %s", i, name)
		}
	}

	return physical.NewFunctionCall(binding, args), nil
}

package physical

import (
	"fmt"
	"strings"

	"github.com/kr/text"
	"github.com/pkg/errors"

	"github.com/cube2222/rtsql/functions"
	"github.com/cube2222/rtsql/rtsql"
)

// Expression is a node of a typed expression tree.
//
// Type is nil until the expression has been typechecked. Trees handed out of
// typechecking always have every Type set and must not be modified afterwards.
type Expression struct {
	Type *rtsql.Type

	ExpressionType ExpressionType
	// Only one of the below may be non-null.
	Variable     *Variable
	Constant     *Constant
	FunctionCall *FunctionCall
	Promotion    *Promotion
	And          *And
	Or           *Or
}

type ExpressionType int

const (
	ExpressionTypeVariable ExpressionType = iota
	ExpressionTypeConstant
	ExpressionTypeFunctionCall
	ExpressionTypePromotion
	ExpressionTypeAnd
	ExpressionTypeOr
)

func (t ExpressionType) String() string {
	switch t {
	case ExpressionTypeVariable:
		return "Variable"
	case ExpressionTypeConstant:
		return "Constant"
	case ExpressionTypeFunctionCall:
		return "FunctionCall"
	case ExpressionTypePromotion:
		return "Promotion"
	case ExpressionTypeAnd:
		return "And"
	case ExpressionTypeOr:
		return "Or"
	}
	return fmt.Sprintf("ExpressionType(%d)", int(t))
}

// Variable references the field with the given index of the input record.
type Variable struct {
	Name  string
	Index int
}

type Constant struct {
	Value rtsql.Value
}

type FunctionCall struct {
	Name      string
	Arguments []Expression
	Function  functions.ScalarFunc
	// PropagatesNulls makes the call return null without evaluating the function
	// if any argument is null.
	PropagatesNulls bool
}

// Promotion is an implicit conversion of its child to TargetType.
type Promotion struct {
	Expression Expression
	TargetType *rtsql.Type
}

type And struct {
	Arguments []Expression
}

type Or struct {
	Arguments []Expression
}

func NewVariable(name string, index int, t *rtsql.Type) Expression {
	return Expression{
		Type:           t,
		ExpressionType: ExpressionTypeVariable,
		Variable:       &Variable{Name: name, Index: index},
	}
}

func NewConstant(value rtsql.Value, t *rtsql.Type) Expression {
	return Expression{
		Type:           t,
		ExpressionType: ExpressionTypeConstant,
		Constant:       &Constant{Value: value},
	}
}

func NewFunctionCall(binding functions.Binding, arguments []Expression) Expression {
	return Expression{
		Type:           binding.ReturnType,
		ExpressionType: ExpressionTypeFunctionCall,
		FunctionCall: &FunctionCall{
			Name:            binding.Name,
			Arguments:       arguments,
			Function:        binding.Function,
			PropagatesNulls: binding.PropagatesNulls,
		},
	}
}

// NewPromotion wraps expr in a promotion to target.
// The expression is returned as is if it already has the target type.
func NewPromotion(expr Expression, target *rtsql.Type) (Expression, error) {
	if expr.Type.Equals(target) {
		return expr, nil
	}
	if expr.Type == nil || !expr.Type.PromotesTo(target) {
		return Expression{}, rtsql.NewTypeError("%s doesn't promote to %s", expr.Type, target)
	}
	return Expression{
		Type:           target,
		ExpressionType: ExpressionTypePromotion,
		Promotion: &Promotion{
			Expression: expr,
			TargetType: target,
		},
	}, nil
}

func NewAnd(t *rtsql.Type, arguments []Expression) Expression {
	return Expression{
		Type:           t,
		ExpressionType: ExpressionTypeAnd,
		And:            &And{Arguments: arguments},
	}
}

func NewOr(t *rtsql.Type, arguments []Expression) Expression {
	return Expression{
		Type:           t,
		ExpressionType: ExpressionTypeOr,
		Or:             &Or{Arguments: arguments},
	}
}

func (expr Expression) Children() []Expression {
	switch expr.ExpressionType {
	case ExpressionTypeVariable, ExpressionTypeConstant:
		return nil
	case ExpressionTypeFunctionCall:
		return expr.FunctionCall.Arguments
	case ExpressionTypePromotion:
		return []Expression{expr.Promotion.Expression}
	case ExpressionTypeAnd:
		return expr.And.Arguments
	case ExpressionTypeOr:
		return expr.Or.Arguments
	}
	panic("unexhaustive expression type match")
}

// Resolved checks that the type of every node in the tree has been resolved.
func (expr Expression) Resolved() error {
	if expr.Type == nil {
		return rtsql.NewTypeError("%s expression has an unresolved type", expr.ExpressionType)
	}
	if expr.ExpressionType == ExpressionTypeFunctionCall && expr.FunctionCall.Function == nil {
		return rtsql.NewTypeError("call of function %s isn't bound", expr.FunctionCall.Name)
	}
	for i, child := range expr.Children() {
		if err := child.Resolved(); err != nil {
			return errors.Wrapf(err, "%s expression argument with index %d", expr.ExpressionType, i)
		}
	}
	return nil
}

// Evaluate computes the value of the expression for a single input record.
func (expr Expression) Evaluate(record []rtsql.Value) (rtsql.Value, error) {
	switch expr.ExpressionType {
	case ExpressionTypeVariable:
		if expr.Variable.Index < 0 || expr.Variable.Index >= len(record) {
			return rtsql.Value{}, errors.Errorf("variable %s index %d out of range for record with %d fields", expr.Variable.Name, expr.Variable.Index, len(record))
		}
		return record[expr.Variable.Index], nil

	case ExpressionTypeConstant:
		return expr.Constant.Value, nil

	case ExpressionTypeFunctionCall:
		args := make([]rtsql.Value, len(expr.FunctionCall.Arguments))
		for i := range expr.FunctionCall.Arguments {
			arg, err := expr.FunctionCall.Arguments[i].Evaluate(record)
			if err != nil {
				return rtsql.Value{}, errors.Wrapf(err, "couldn't evaluate argument with index %d of %s", i, expr.FunctionCall.Name)
			}
			if expr.FunctionCall.PropagatesNulls && arg.IsNull() {
				return rtsql.NewNull(), nil
			}
			args[i] = arg
		}
		out, err := expr.FunctionCall.Function.Eval(args)
		if err != nil {
			return rtsql.Value{}, errors.Wrapf(err, "couldn't evaluate function %s", expr.FunctionCall.Name)
		}
		return out, nil

	case ExpressionTypePromotion:
		value, err := expr.Promotion.Expression.Evaluate(record)
		if err != nil {
			return rtsql.Value{}, err
		}
		return value.Promote(expr.Promotion.Expression.Type, expr.Promotion.TargetType)

	case ExpressionTypeAnd:
		return evaluateLogic(expr.And.Arguments, record, false)

	case ExpressionTypeOr:
		return evaluateLogic(expr.Or.Arguments, record, true)
	}
	panic("unexhaustive expression type match")
}

// evaluateLogic implements three-valued AND (decisive == false) and OR (decisive == true).
func evaluateLogic(arguments []Expression, record []rtsql.Value, decisive bool) (rtsql.Value, error) {
	sawNull := false
	for i := range arguments {
		value, err := arguments[i].Evaluate(record)
		if err != nil {
			return rtsql.Value{}, errors.Wrapf(err, "couldn't evaluate logic argument with index %d", i)
		}
		if value.IsNull() {
			sawNull = true
			continue
		}
		if value.Boolean == decisive {
			return rtsql.NewBoolean(decisive), nil
		}
	}
	if sawNull {
		return rtsql.NewNull(), nil
	}
	return rtsql.NewBoolean(!decisive), nil
}

const indentation = "  "

// String returns an indented, multi-line dump of the expression tree.
func (expr Expression) String() string {
	sb := &strings.Builder{}
	expr.format(sb)
	return sb.String()
}

func (expr Expression) format(sb *strings.Builder) {
	sb.WriteString(expr.ExpressionType.String())
	switch expr.ExpressionType {
	case ExpressionTypeVariable:
		sb.WriteString(" " + expr.Variable.Name)
	case ExpressionTypeConstant:
		sb.WriteString(" " + expr.Constant.Value.String())
	case ExpressionTypeFunctionCall:
		sb.WriteString(" " + expr.FunctionCall.Name)
	}
	sb.WriteString("\n")

	sb.WriteString(indentation + "type=" + expr.Type.String() + "\n")
	if expr.ExpressionType == ExpressionTypeFunctionCall && expr.FunctionCall.PropagatesNulls {
		sb.WriteString(indentation + "propagatesNulls=true\n")
	}
	for _, child := range expr.Children() {
		sb.WriteString(text.Indent(child.String(), indentation))
	}
}

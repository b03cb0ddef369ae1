package physical

import (
	"fmt"

	"github.com/cube2222/rtsql/graph"
)

func ExplainExpr(expr Expression, withTypeInfo bool) *graph.Node {
	var out *graph.Node
	switch expr.ExpressionType {
	case ExpressionTypeVariable:
		out = graph.NewNode(expr.Variable.Name)
		out.AddField("index", fmt.Sprint(expr.Variable.Index))

	case ExpressionTypeConstant:
		out = graph.NewNode(expr.Constant.Value.String())

	case ExpressionTypeFunctionCall:
		out = graph.NewNode(expr.FunctionCall.Name + "(...)")
		if expr.FunctionCall.PropagatesNulls {
			out.AddField("propagates nulls", "true")
		}
		for i, arg := range expr.FunctionCall.Arguments {
			out.AddChild(fmt.Sprintf("arg_%d", i), ExplainExpr(arg, withTypeInfo))
		}

	case ExpressionTypePromotion:
		out = graph.NewNode("promote")
		out.AddField("from", expr.Promotion.Expression.Type.String())
		out.AddChild("expression", ExplainExpr(expr.Promotion.Expression, withTypeInfo))

	case ExpressionTypeAnd:
		out = graph.NewNode("and")
		for i, arg := range expr.And.Arguments {
			out.AddChild(fmt.Sprintf("arg_%d", i), ExplainExpr(arg, withTypeInfo))
		}

	case ExpressionTypeOr:
		out = graph.NewNode("or")
		for i, arg := range expr.Or.Arguments {
			out.AddChild(fmt.Sprintf("arg_%d", i), ExplainExpr(arg, withTypeInfo))
		}

	default:
		panic("unexhaustive expression type match")
	}

	if withTypeInfo {
		out.AddField("type", expr.Type.String())
	}

	return out
}

func (expr Expression) Visualize() *graph.Node {
	return ExplainExpr(expr, true)
}

func (labeled LabeledExpression) Visualize() *graph.Node {
	out := graph.NewNode(labeled.serializationLabel)
	if labeled.displayLabel != labeled.serializationLabel {
		out.AddField("display", labeled.displayLabel)
	}
	if labeled.projectedLabel != labeled.displayLabel {
		out.AddField("projected", labeled.projectedLabel)
	}
	out.AddChild("expression", labeled.expression.Visualize())
	return out
}

func (projection Projection) Visualize() *graph.Node {
	out := graph.NewNode("projection")
	out.AddField("type", projection.recordType.String())
	for _, labeled := range projection.expressions {
		out.AddChild(labeled.serializationLabel, labeled.Visualize())
	}
	return out
}

package physical

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/rtsql/functions"
	"github.com/cube2222/rtsql/graph"
	"github.com/cube2222/rtsql/rtsql"
)

// nullableSum builds x + 2.5 where x is a NULLABLE(INT) field at index 0.
func nullableSum(t *testing.T) Expression {
	registry, err := functions.NewBuiltinRegistry()
	require.NoError(t, err)

	x := NewVariable("x", 0, rtsql.Nullable(rtsql.TypeIDInt))
	promoted, err := NewPromotion(x, rtsql.Nullable(rtsql.TypeIDDouble))
	require.NoError(t, err)
	constant := NewConstant(rtsql.NewDouble(2.5), rtsql.Double)

	binding, err := registry.Bind("+", []*rtsql.Type{promoted.Type, constant.Type})
	require.NoError(t, err)
	require.True(t, binding.PropagatesNulls)

	return NewFunctionCall(binding, []Expression{promoted, constant})
}

func constant(value rtsql.Value) Expression {
	if value.IsNull() {
		return NewConstant(value, rtsql.NullableAny)
	}
	return NewConstant(value, rtsql.Primitive(value.TypeID))
}

func TestExpressionString(t *testing.T) {
	g := goldie.New(t)
	g.Assert(t, "expression_dump", []byte(nullableSum(t).String()))
}

func TestEvaluate(t *testing.T) {
	sum := nullableSum(t)
	nullableBoolean := rtsql.Nullable(rtsql.TypeIDBoolean)

	tests := []struct {
		name   string
		expr   Expression
		record []rtsql.Value
		want   rtsql.Value
	}{
		{
			name:   "promoted sum",
			expr:   sum,
			record: []rtsql.Value{rtsql.NewInt(3)},
			want:   rtsql.NewDouble(5.5),
		},
		{
			name:   "null propagates",
			expr:   sum,
			record: []rtsql.Value{rtsql.NewNull()},
			want:   rtsql.NewNull(),
		},
		{
			name: "and with null",
			expr: NewAnd(nullableBoolean, []Expression{
				constant(rtsql.NewBoolean(true)),
				constant(rtsql.NewNull()),
			}),
			want: rtsql.NewNull(),
		},
		{
			name: "and with false and null",
			expr: NewAnd(nullableBoolean, []Expression{
				constant(rtsql.NewNull()),
				constant(rtsql.NewBoolean(false)),
			}),
			want: rtsql.NewBoolean(false),
		},
		{
			name: "and of trues",
			expr: NewAnd(rtsql.Boolean, []Expression{
				constant(rtsql.NewBoolean(true)),
				constant(rtsql.NewBoolean(true)),
			}),
			want: rtsql.NewBoolean(true),
		},
		{
			name: "or with true and null",
			expr: NewOr(nullableBoolean, []Expression{
				constant(rtsql.NewNull()),
				constant(rtsql.NewBoolean(true)),
			}),
			want: rtsql.NewBoolean(true),
		},
		{
			name: "or with false and null",
			expr: NewOr(nullableBoolean, []Expression{
				constant(rtsql.NewBoolean(false)),
				constant(rtsql.NewNull()),
			}),
			want: rtsql.NewNull(),
		},
		{
			name: "or of falses",
			expr: NewOr(rtsql.Boolean, []Expression{
				constant(rtsql.NewBoolean(false)),
				constant(rtsql.NewBoolean(false)),
			}),
			want: rtsql.NewBoolean(false),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.expr.Evaluate(tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	t.Run("variable out of range", func(t *testing.T) {
		_, err := NewVariable("y", 3, rtsql.Int).Evaluate([]rtsql.Value{rtsql.NewInt(1)})
		assert.Error(t, err)
	})

	t.Run("division by zero", func(t *testing.T) {
		registry, err := functions.NewBuiltinRegistry()
		require.NoError(t, err)
		binding, err := registry.Bind("/", []*rtsql.Type{rtsql.Int, rtsql.Int})
		require.NoError(t, err)

		call := NewFunctionCall(binding, []Expression{constant(rtsql.NewInt(1)), constant(rtsql.NewInt(0))})
		_, err = call.Evaluate(nil)
		require.Error(t, err)
		kind, ok := rtsql.EvaluationErrorKindOf(err)
		require.True(t, ok)
		assert.Equal(t, rtsql.EvaluationErrorComputation, kind)
	})
}

func TestResolved(t *testing.T) {
	assert.NoError(t, nullableSum(t).Resolved())

	unresolved := Expression{
		ExpressionType: ExpressionTypeConstant,
		Constant:       &Constant{Value: rtsql.NewInt(1)},
	}
	assert.True(t, rtsql.IsTypeError(unresolved.Resolved()))

	unbound := Expression{
		Type:           rtsql.Int,
		ExpressionType: ExpressionTypeFunctionCall,
		FunctionCall: &FunctionCall{
			Name:      "f",
			Arguments: []Expression{constant(rtsql.NewInt(1))},
		},
	}
	assert.True(t, rtsql.IsTypeError(unbound.Resolved()))

	nested := NewAnd(rtsql.Boolean, []Expression{constant(rtsql.NewBoolean(true)), unresolved})
	assert.True(t, rtsql.IsTypeError(nested.Resolved()))
}

func TestNewPromotion(t *testing.T) {
	x := NewVariable("x", 0, rtsql.Int)

	same, err := NewPromotion(x, rtsql.Int)
	require.NoError(t, err)
	assert.Equal(t, ExpressionTypeVariable, same.ExpressionType)

	widened, err := NewPromotion(x, rtsql.Double)
	require.NoError(t, err)
	assert.Equal(t, ExpressionTypePromotion, widened.ExpressionType)
	assert.Same(t, rtsql.Double, widened.Type)
	assert.Equal(t, []Expression{x}, widened.Children())

	_, err = NewPromotion(NewVariable("s", 0, rtsql.String), rtsql.Int)
	assert.True(t, rtsql.IsTypeError(err))
}

func TestVisualize(t *testing.T) {
	node := nullableSum(t).Visualize()
	assert.Equal(t, "+(...)", node.Name)
	require.Len(t, node.Children, 2)
	assert.Equal(t, "promote", node.Children[0].Node.Name)

	_, err := graph.Show(node)
	assert.NoError(t, err)
}

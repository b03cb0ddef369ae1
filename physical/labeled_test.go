package physical

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/rtsql/graph"
	"github.com/cube2222/rtsql/rtsql"
)

func TestLabeledExpressionDefaults(t *testing.T) {
	tests := []struct {
		name                                          string
		display, serialization, projected             string
		wantDisplay, wantSerialization, wantProjected string
	}{
		{
			name:              "only serialization",
			serialization:     "a",
			wantDisplay:       "a",
			wantSerialization: "a",
			wantProjected:     "a",
		},
		{
			name:              "display given",
			display:           "A",
			serialization:     "a",
			wantDisplay:       "A",
			wantSerialization: "a",
			wantProjected:     "A",
		},
		{
			name:              "all independent",
			display:           "A",
			serialization:     "a",
			projected:         "renamed",
			wantDisplay:       "A",
			wantSerialization: "a",
			wantProjected:     "renamed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewLabeledExpressionBuilder(NewVariable("x", 0, rtsql.Int))
			require.NoError(t, b.SetDisplayLabel(tt.display))
			require.NoError(t, b.SetSerializationLabel(tt.serialization))
			require.NoError(t, b.SetProjectedLabel(tt.projected))

			labeled, err := b.Finalize()
			require.NoError(t, err)
			assert.Equal(t, tt.wantDisplay, labeled.DisplayLabel())
			assert.Equal(t, tt.wantSerialization, labeled.SerializationLabel())
			assert.Equal(t, tt.wantProjected, labeled.ProjectedLabel())
			assert.Same(t, rtsql.Int, labeled.Type())
		})
	}
}

func TestLabeledExpressionFinalization(t *testing.T) {
	b := NewLabeledExpressionBuilder(NewVariable("x", 0, rtsql.Int))

	_, err := b.Finalize()
	assert.True(t, rtsql.IsTypeError(err), "missing serialization label")

	require.NoError(t, b.SetSerializationLabel("x"))
	labeled, err := b.Finalize()
	require.NoError(t, err)

	assert.ErrorIs(t, b.SetDisplayLabel("y"), ErrFinalized)
	assert.ErrorIs(t, b.SetSerializationLabel("y"), ErrFinalized)
	assert.ErrorIs(t, b.SetProjectedLabel("y"), ErrFinalized)

	again, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, labeled, again)
	assert.Equal(t, "x", again.DisplayLabel())
}

func TestLabeledExpressionUnresolved(t *testing.T) {
	b := NewLabeledExpressionBuilder(Expression{
		ExpressionType: ExpressionTypeVariable,
		Variable:       &Variable{Name: "x"},
	})
	require.NoError(t, b.SetSerializationLabel("x"))
	_, err := b.Finalize()
	assert.True(t, rtsql.IsTypeError(err))
}

func TestProjectionDuplicateLabels(t *testing.T) {
	pb := NewProjectionBuilder()

	first, err := pb.Add(NewVariable("x", 0, rtsql.Int))
	require.NoError(t, err)
	require.NoError(t, first.SetSerializationLabel("value"))

	second, err := pb.Add(NewVariable("y", 1, rtsql.String))
	require.NoError(t, err)
	require.NoError(t, second.SetSerializationLabel("value"))
	require.NoError(t, second.SetDisplayLabel("different display"))

	_, err = pb.Finalize()
	assert.True(t, rtsql.IsTypeError(err))

	// Nothing got frozen, so the conflict can still be fixed.
	require.NoError(t, second.SetSerializationLabel("other"))
	projection, err := pb.Finalize()
	require.NoError(t, err)

	want, err := rtsql.NewRecord(
		rtsql.RecordField{Name: "value", Type: rtsql.Int},
		rtsql.RecordField{Name: "other", Type: rtsql.String},
	)
	require.NoError(t, err)
	assert.True(t, want.Equals(projection.RecordType()))

	_, err = pb.Add(NewVariable("z", 2, rtsql.Int))
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, second.SetDisplayLabel("again"), ErrFinalized)
}

func TestProjectionDisplayLabelsMayRepeat(t *testing.T) {
	pb := NewProjectionBuilder()
	for _, label := range []string{"a", "b"} {
		b, err := pb.Add(NewVariable("x", 0, rtsql.Int))
		require.NoError(t, err)
		require.NoError(t, b.SetSerializationLabel(label))
		require.NoError(t, b.SetDisplayLabel("x"))
	}
	_, err := pb.Finalize()
	assert.NoError(t, err)
}

func TestProjectionEmpty(t *testing.T) {
	_, err := NewProjectionBuilder().Finalize()
	assert.True(t, rtsql.IsTypeError(err))
}

func sampleProjection(t *testing.T) Projection {
	pb := NewProjectionBuilder()

	total, err := pb.Add(nullableSum(t))
	require.NoError(t, err)
	require.NoError(t, total.SetSerializationLabel("total"))
	require.NoError(t, total.SetDisplayLabel("Total"))

	x, err := pb.Add(NewVariable("x", 0, rtsql.Nullable(rtsql.TypeIDInt)))
	require.NoError(t, err)
	require.NoError(t, x.SetSerializationLabel("x"))

	projection, err := pb.Finalize()
	require.NoError(t, err)
	return projection
}

func TestProjectionString(t *testing.T) {
	g := goldie.New(t)
	g.Assert(t, "projection_dump", []byte(sampleProjection(t).String()))
}

func TestProjectionEvaluate(t *testing.T) {
	projection := sampleProjection(t)

	out, err := projection.Evaluate([]rtsql.Value{rtsql.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, []rtsql.Value{rtsql.NewDouble(3.5), rtsql.NewInt(1)}, out)

	out, err = projection.Evaluate([]rtsql.Value{rtsql.NewNull()})
	require.NoError(t, err)
	assert.Equal(t, []rtsql.Value{rtsql.NewNull(), rtsql.NewNull()}, out)

	for i, labeled := range projection.Expressions() {
		assert.True(t, out[i].Conforms(labeled.Type()))
	}
}

func TestProjectionVisualize(t *testing.T) {
	node := sampleProjection(t).Visualize()
	require.Len(t, node.Children, 2)
	assert.Equal(t, "total", node.Children[0].Name)
	assert.Equal(t, "x", node.Children[1].Name)

	_, err := graph.Show(node)
	assert.NoError(t, err)
}

package physical

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/kr/text"
	"github.com/pkg/errors"

	"github.com/cube2222/rtsql/rtsql"
)

var ErrFinalized = errors.New("labeled expression is already finalized")

// LabeledExpressionBuilder assembles the labels of a top-level expression.
// It's owned by a single goroutine until Finalize is called.
type LabeledExpressionBuilder struct {
	expression         Expression
	displayLabel       string
	serializationLabel string
	projectedLabel     string

	finalized *LabeledExpression
}

func NewLabeledExpressionBuilder(expr Expression) *LabeledExpressionBuilder {
	return &LabeledExpressionBuilder{
		expression: expr,
	}
}

func (b *LabeledExpressionBuilder) SetDisplayLabel(label string) error {
	if b.finalized != nil {
		return errors.WithStack(ErrFinalized)
	}
	b.displayLabel = label
	return nil
}

func (b *LabeledExpressionBuilder) SetSerializationLabel(label string) error {
	if b.finalized != nil {
		return errors.WithStack(ErrFinalized)
	}
	b.serializationLabel = label
	return nil
}

func (b *LabeledExpressionBuilder) SetProjectedLabel(label string) error {
	if b.finalized != nil {
		return errors.WithStack(ErrFinalized)
	}
	b.projectedLabel = label
	return nil
}

func (b *LabeledExpressionBuilder) check() error {
	if err := b.expression.Resolved(); err != nil {
		return err
	}
	if b.serializationLabel == "" {
		return rtsql.NewTypeError("labeled expression has no serialization label")
	}
	return nil
}

// Finalize freezes the labels. A missing display label defaults to the serialization label,
// a missing projected label defaults to the display label.
// Finalizing an already finalized builder returns the same labeled expression.
func (b *LabeledExpressionBuilder) Finalize() (LabeledExpression, error) {
	if b.finalized != nil {
		return *b.finalized, nil
	}
	if err := b.check(); err != nil {
		return LabeledExpression{}, err
	}

	displayLabel := b.displayLabel
	if displayLabel == "" {
		displayLabel = b.serializationLabel
	}
	projectedLabel := b.projectedLabel
	if projectedLabel == "" {
		projectedLabel = displayLabel
	}

	b.finalized = &LabeledExpression{
		expression:         b.expression,
		displayLabel:       displayLabel,
		serializationLabel: b.serializationLabel,
		projectedLabel:     projectedLabel,
	}
	return *b.finalized, nil
}

// LabeledExpression is a finalized top-level expression with its display,
// serialization and projected labels.
type LabeledExpression struct {
	expression         Expression
	displayLabel       string
	serializationLabel string
	projectedLabel     string
}

func (labeled LabeledExpression) Expression() Expression {
	return labeled.expression
}

func (labeled LabeledExpression) DisplayLabel() string {
	return labeled.displayLabel
}

func (labeled LabeledExpression) SerializationLabel() string {
	return labeled.serializationLabel
}

func (labeled LabeledExpression) ProjectedLabel() string {
	return labeled.projectedLabel
}

func (labeled LabeledExpression) Type() *rtsql.Type {
	return labeled.expression.Type
}

func (labeled LabeledExpression) String() string {
	sb := &strings.Builder{}
	sb.WriteString("LabeledExpression\n")
	sb.WriteString(indentation + "displayLabel=" + labeled.displayLabel + "\n")
	sb.WriteString(indentation + "serializationLabel=" + labeled.serializationLabel + "\n")
	sb.WriteString(indentation + "projectedLabel=" + labeled.projectedLabel + "\n")
	sb.WriteString(text.Indent(labeled.expression.String(), indentation))
	return sb.String()
}

// ProjectionBuilder collects the sibling labeled expressions making up one output record.
type ProjectionBuilder struct {
	builders  []*LabeledExpressionBuilder
	finalized bool
}

func NewProjectionBuilder() *ProjectionBuilder {
	return &ProjectionBuilder{}
}

// Add registers a new field of the output record and returns the builder for its labels.
func (pb *ProjectionBuilder) Add(expr Expression) (*LabeledExpressionBuilder, error) {
	if pb.finalized {
		return nil, errors.WithStack(ErrFinalized)
	}
	b := NewLabeledExpressionBuilder(expr)
	pb.builders = append(pb.builders, b)
	return b, nil
}

// Finalize validates and freezes all fields.
// Nothing is frozen if any field is invalid or two fields share a serialization label.
func (pb *ProjectionBuilder) Finalize() (Projection, error) {
	if pb.finalized {
		return Projection{}, errors.WithStack(ErrFinalized)
	}
	if len(pb.builders) == 0 {
		return Projection{}, rtsql.NewTypeError("projection has no fields")
	}

	labels := mapset.NewThreadUnsafeSet[string]()
	for i, b := range pb.builders {
		if err := b.check(); err != nil {
			return Projection{}, errors.Wrapf(err, "field with index %d", i)
		}
		if !labels.Add(b.serializationLabel) {
			return Projection{}, rtsql.NewTypeError("duplicate serialization label '%s'", b.serializationLabel)
		}
	}

	expressions := make([]LabeledExpression, len(pb.builders))
	fields := make([]rtsql.RecordField, len(pb.builders))
	for i, b := range pb.builders {
		labeled, err := b.Finalize()
		if err != nil {
			return Projection{}, errors.Wrapf(err, "couldn't finalize field with index %d", i)
		}
		expressions[i] = labeled
		fields[i] = rtsql.RecordField{
			Name: labeled.serializationLabel,
			Type: labeled.Type(),
		}
	}
	recordType, err := rtsql.NewRecord(fields...)
	if err != nil {
		return Projection{}, errors.Wrap(err, "couldn't build output record type")
	}

	pb.finalized = true
	return Projection{
		expressions: expressions,
		recordType:  recordType,
	}, nil
}

// Projection is an ordered list of labeled expressions producing one output record.
type Projection struct {
	expressions []LabeledExpression
	recordType  *rtsql.Type
}

func (projection Projection) Expressions() []LabeledExpression {
	return append([]LabeledExpression{}, projection.expressions...)
}

// RecordType returns the output record type, with fields named by serialization labels.
func (projection Projection) RecordType() *rtsql.Type {
	return projection.recordType
}

// Evaluate computes the output record for one input record.
func (projection Projection) Evaluate(record []rtsql.Value) ([]rtsql.Value, error) {
	out := make([]rtsql.Value, len(projection.expressions))
	for i := range projection.expressions {
		value, err := projection.expressions[i].expression.Evaluate(record)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't evaluate field %s", projection.expressions[i].serializationLabel)
		}
		out[i] = value
	}
	return out, nil
}

func (projection Projection) String() string {
	sb := &strings.Builder{}
	sb.WriteString("Projection\n")
	sb.WriteString(indentation + "type=" + projection.recordType.String() + "\n")
	for i := range projection.expressions {
		sb.WriteString(text.Indent(projection.expressions[i].String(), indentation))
	}
	return sb.String()
}

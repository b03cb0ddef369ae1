package serialization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cube2222/rtsql/rtsql"
)

func mustRecord(t *testing.T, fields ...rtsql.RecordField) *rtsql.Type {
	record, err := rtsql.NewRecord(fields...)
	require.NoError(t, err)
	return record
}

func TestRecordSchema(t *testing.T) {
	tests := []struct {
		name   string
		record *rtsql.Type
		want   []FieldSchema
	}{
		{
			name: "int and nullable string",
			record: mustRecord(t,
				rtsql.RecordField{Name: "a", Type: rtsql.Int},
				rtsql.RecordField{Name: "b", Type: rtsql.Nullable(rtsql.TypeIDString)},
			),
			want: []FieldSchema{
				{Name: "a", WireSchema: WireSchema{Kind: WireKindInt32}},
				{Name: "b", WireSchema: WireSchema{Kind: WireKindString, Nullable: true}},
			},
		},
		{
			name: "timestamp is unsupported",
			record: mustRecord(t,
				rtsql.RecordField{Name: "id", Type: rtsql.BigInt},
				rtsql.RecordField{Name: "at", Type: rtsql.Timestamp},
				rtsql.RecordField{Name: "score", Type: rtsql.Double},
			),
			want: []FieldSchema{
				{Name: "id", WireSchema: WireSchema{Kind: WireKindInt64}},
				{Name: "at", WireSchema: WireSchema{Kind: WireKindUnsupported}},
				{Name: "score", WireSchema: WireSchema{Kind: WireKindFloat64}},
			},
		},
		{
			name: "every kind",
			record: mustRecord(t,
				rtsql.RecordField{Name: "b", Type: rtsql.Boolean},
				rtsql.RecordField{Name: "f", Type: rtsql.Float},
				rtsql.RecordField{Name: "d", Type: rtsql.Nullable(rtsql.TypeIDTimespan)},
				rtsql.RecordField{Name: "n", Type: rtsql.NullableAny},
			),
			want: []FieldSchema{
				{Name: "b", WireSchema: WireSchema{Kind: WireKindBool}},
				{Name: "f", WireSchema: WireSchema{Kind: WireKindFloat32}},
				{Name: "d", WireSchema: WireSchema{Kind: WireKindUnsupported, Nullable: true}},
				{Name: "n", WireSchema: WireSchema{Kind: WireKindUnsupported, Nullable: true}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RecordSchema(tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordSchemaOfNonRecord(t *testing.T) {
	_, err := RecordSchema(rtsql.Int)
	assert.True(t, rtsql.IsTypeError(err))
}

func TestSchemaOf(t *testing.T) {
	schema, ok := SchemaOf(rtsql.Nullable(rtsql.TypeIDBigInt))
	assert.True(t, ok)
	assert.Equal(t, WireSchema{Kind: WireKindInt64, Nullable: true}, schema)
	assert.Equal(t, "nullable int64", schema.String())

	schema, ok = SchemaOf(rtsql.Timespan)
	assert.False(t, ok)
	assert.Equal(t, WireKindUnsupported, schema.Kind)

	schema, ok = SchemaOf(rtsql.NewFunction(rtsql.Int, rtsql.Int))
	assert.False(t, ok)
	assert.Equal(t, WireKindUnsupported, schema.Kind)
}

func TestEncodeRecordBytes(t *testing.T) {
	fields := []FieldSchema{
		{Name: "a", WireSchema: WireSchema{Kind: WireKindInt32}},
		{Name: "b", WireSchema: WireSchema{Kind: WireKindString, Nullable: true}},
	}

	data, err := EncodeRecord(fields, []rtsql.Value{rtsql.NewInt(1), rtsql.NewString("x")})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x02, 0x12, 0x01, 'x'}, data)

	data, err = EncodeRecord(fields, []rtsql.Value{rtsql.NewInt(1), rtsql.NewNull()})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x02}, data)
}

func TestEncodeDecodeRecord(t *testing.T) {
	fields := []FieldSchema{
		{Name: "flag", WireSchema: WireSchema{Kind: WireKindBool}},
		{Name: "small", WireSchema: WireSchema{Kind: WireKindInt32}},
		{Name: "big", WireSchema: WireSchema{Kind: WireKindInt64, Nullable: true}},
		{Name: "ratio", WireSchema: WireSchema{Kind: WireKindFloat32}},
		{Name: "score", WireSchema: WireSchema{Kind: WireKindFloat64, Nullable: true}},
		{Name: "name", WireSchema: WireSchema{Kind: WireKindString}},
	}

	tests := []struct {
		name   string
		values []rtsql.Value
	}{
		{
			name: "all set",
			values: []rtsql.Value{
				rtsql.NewBoolean(true),
				rtsql.NewInt(math.MinInt32),
				rtsql.NewBigInt(math.MaxInt64),
				rtsql.NewFloat(0.5),
				rtsql.NewDouble(math.Pi),
				rtsql.NewString("zażółć"),
			},
		},
		{
			name: "nulls and zero values",
			values: []rtsql.Value{
				rtsql.NewBoolean(false),
				rtsql.NewInt(0),
				rtsql.NewNull(),
				rtsql.NewFloat(0),
				rtsql.NewNull(),
				rtsql.NewString(""),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeRecord(fields, tt.values)
			require.NoError(t, err)

			got, err := DecodeRecord(fields, data)
			require.NoError(t, err)
			assert.Equal(t, tt.values, got)
		})
	}
}

func TestEncodeRecordErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields []FieldSchema
		values []rtsql.Value
	}{
		{
			name:   "arity",
			fields: []FieldSchema{{Name: "a", WireSchema: WireSchema{Kind: WireKindInt32}}},
			values: []rtsql.Value{rtsql.NewInt(1), rtsql.NewInt(2)},
		},
		{
			name:   "unsupported field",
			fields: []FieldSchema{{Name: "at", WireSchema: WireSchema{Kind: WireKindUnsupported}}},
			values: []rtsql.Value{rtsql.NewNull()},
		},
		{
			name:   "null for non-nullable",
			fields: []FieldSchema{{Name: "a", WireSchema: WireSchema{Kind: WireKindInt32}}},
			values: []rtsql.Value{rtsql.NewNull()},
		},
		{
			name:   "wrong value shape",
			fields: []FieldSchema{{Name: "a", WireSchema: WireSchema{Kind: WireKindInt32}}},
			values: []rtsql.Value{rtsql.NewBigInt(1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeRecord(tt.fields, tt.values)
			assert.Error(t, err)
		})
	}
}

func TestDecodeRecordErrors(t *testing.T) {
	fields := []FieldSchema{
		{Name: "a", WireSchema: WireSchema{Kind: WireKindInt32}},
		{Name: "b", WireSchema: WireSchema{Kind: WireKindString, Nullable: true}},
	}

	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "missing non-nullable",
			data: []byte{0x12, 0x01, 'x'},
		},
		{
			name: "wrong wire type",
			data: protowire.AppendString(protowire.AppendTag(nil, 1, protowire.BytesType), "x"),
		},
		{
			name: "truncated",
			data: []byte{0x08},
		},
		{
			name: "int32 overflow",
			data: protowire.AppendVarint(protowire.AppendTag(nil, 1, protowire.VarintType), protowire.EncodeZigZag(math.MaxInt32+1)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord(fields, tt.data)
			assert.Error(t, err)
		})
	}
}

func TestDecodeRecordSkipsUnknownFields(t *testing.T) {
	fields := []FieldSchema{
		{Name: "a", WireSchema: WireSchema{Kind: WireKindInt32}},
	}

	data := protowire.AppendTag(nil, 1, protowire.VarintType)
	data = protowire.AppendVarint(data, protowire.EncodeZigZag(-3))
	data = protowire.AppendTag(data, 7, protowire.BytesType)
	data = protowire.AppendString(data, "ignored")

	got, err := DecodeRecord(fields, data)
	require.NoError(t, err)
	assert.Equal(t, []rtsql.Value{rtsql.NewInt(-3)}, got)
}

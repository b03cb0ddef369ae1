package serialization

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cube2222/rtsql/rtsql"
)

// EncodeRecord encodes record values in the protobuf wire format.
// The field number of each value is its position plus one, null values are omitted.
func EncodeRecord(fields []FieldSchema, values []rtsql.Value) ([]byte, error) {
	if len(fields) != len(values) {
		return nil, errors.Errorf("record has %d fields, got %d values", len(fields), len(values))
	}

	var out []byte
	for i, field := range fields {
		if field.Kind == WireKindUnsupported {
			return nil, errors.Errorf("field %s has no wire representation", field.Name)
		}
		value := values[i]
		if value.IsNull() {
			if !field.Nullable {
				return nil, errors.Errorf("null value for non-nullable field %s", field.Name)
			}
			continue
		}
		if value.TypeID != typeIDs[field.Kind] {
			return nil, errors.Errorf("value %s doesn't match %s field %s", value, field.Kind, field.Name)
		}

		num := protowire.Number(i + 1)
		switch field.Kind {
		case WireKindBool:
			out = protowire.AppendTag(out, num, protowire.VarintType)
			out = protowire.AppendVarint(out, protowire.EncodeBool(value.Boolean))
		case WireKindInt32, WireKindInt64:
			out = protowire.AppendTag(out, num, protowire.VarintType)
			out = protowire.AppendVarint(out, protowire.EncodeZigZag(value.Int))
		case WireKindFloat32:
			out = protowire.AppendTag(out, num, protowire.Fixed32Type)
			out = protowire.AppendFixed32(out, math.Float32bits(float32(value.Float)))
		case WireKindFloat64:
			out = protowire.AppendTag(out, num, protowire.Fixed64Type)
			out = protowire.AppendFixed64(out, math.Float64bits(value.Float))
		case WireKindString:
			out = protowire.AppendTag(out, num, protowire.BytesType)
			out = protowire.AppendString(out, value.Str)
		default:
			panic("unexhaustive wire kind match")
		}
	}
	return out, nil
}

func wireType(kind WireKind) protowire.Type {
	switch kind {
	case WireKindBool, WireKindInt32, WireKindInt64:
		return protowire.VarintType
	case WireKindFloat32:
		return protowire.Fixed32Type
	case WireKindFloat64:
		return protowire.Fixed64Type
	case WireKindString:
		return protowire.BytesType
	}
	panic("unexhaustive wire kind match")
}

// DecodeRecord decodes a record encoded by EncodeRecord.
// Missing nullable fields decode to null, unknown field numbers are skipped.
func DecodeRecord(fields []FieldSchema, data []byte) ([]rtsql.Value, error) {
	for _, field := range fields {
		if field.Kind == WireKindUnsupported {
			return nil, errors.Errorf("field %s has no wire representation", field.Name)
		}
	}

	out := make([]rtsql.Value, len(fields))
	for i := range out {
		out[i] = rtsql.NewNull()
	}
	present := make([]bool, len(fields))

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "couldn't parse field tag")
		}
		data = data[n:]

		index := int(num) - 1
		if index < 0 || index >= len(fields) {
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "couldn't skip unknown field %d", num)
			}
			data = data[n:]
			continue
		}

		field := fields[index]
		if expected := wireType(field.Kind); typ != expected {
			return nil, errors.Errorf("field %s has wire type %d, expected %d", field.Name, typ, expected)
		}

		var value rtsql.Value
		switch field.Kind {
		case WireKindBool:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "couldn't parse field %s", field.Name)
			}
			data = data[n:]
			value = rtsql.NewBoolean(protowire.DecodeBool(v))
		case WireKindInt32:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "couldn't parse field %s", field.Name)
			}
			data = data[n:]
			decoded := protowire.DecodeZigZag(v)
			if decoded < math.MinInt32 || decoded > math.MaxInt32 {
				return nil, errors.Errorf("value %d of field %s is out of int32 range", decoded, field.Name)
			}
			value = rtsql.NewInt(int32(decoded))
		case WireKindInt64:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "couldn't parse field %s", field.Name)
			}
			data = data[n:]
			value = rtsql.NewBigInt(protowire.DecodeZigZag(v))
		case WireKindFloat32:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "couldn't parse field %s", field.Name)
			}
			data = data[n:]
			value = rtsql.NewFloat(math.Float32frombits(v))
		case WireKindFloat64:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "couldn't parse field %s", field.Name)
			}
			data = data[n:]
			value = rtsql.NewDouble(math.Float64frombits(v))
		case WireKindString:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "couldn't parse field %s", field.Name)
			}
			data = data[n:]
			value = rtsql.NewString(v)
		default:
			panic("unexhaustive wire kind match")
		}
		out[index] = value
		present[index] = true
	}

	for i, field := range fields {
		if !present[i] && !field.Nullable {
			return nil, errors.Errorf("missing value of non-nullable field %s", field.Name)
		}
	}
	return out, nil
}

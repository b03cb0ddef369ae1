package serialization

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/cube2222/rtsql/rtsql"
)

// DecodeJSON decodes one JSON event object into values of the fields of recordType.
// Missing keys and JSON nulls decode to null, which is only allowed for nullable fields.
func DecodeJSON(recordType *rtsql.Type, data []byte) ([]rtsql.Value, error) {
	if recordType.TypeID != rtsql.TypeIDRecord {
		return nil, rtsql.NewTypeError("expected a record type, got %s", recordType)
	}

	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't parse json")
	}
	if v.Type() != fastjson.TypeObject {
		return nil, errors.Errorf("expected JSON object, got %s", v.Type())
	}
	o, err := v.Object()
	if err != nil {
		return nil, errors.Wrap(err, "expected JSON object")
	}

	values := make([]rtsql.Value, len(recordType.Record.Fields))
	for i, field := range recordType.Record.Fields {
		value, ok := jsonValue(field.Type, o.Get(field.Name))
		if !ok {
			return nil, errors.Errorf("invalid value for field %s of type %s", field.Name, field.Type)
		}
		values[i] = value
	}
	return values, nil
}

func jsonValue(t *rtsql.Type, value *fastjson.Value) (rtsql.Value, bool) {
	if value == nil || value.Type() == fastjson.TypeNull {
		return rtsql.NewNull(), t.IsNullable()
	}
	if t.IsNullable() {
		if t.Nullable.Inner == rtsql.TypeIDAny {
			return rtsql.Value{}, false
		}
		return jsonValue(rtsql.Primitive(t.Nullable.Inner), value)
	}

	switch t.TypeID {
	case rtsql.TypeIDBoolean:
		switch value.Type() {
		case fastjson.TypeTrue:
			return rtsql.NewBoolean(true), true
		case fastjson.TypeFalse:
			return rtsql.NewBoolean(false), true
		}
	case rtsql.TypeIDInt:
		if value.Type() == fastjson.TypeNumber {
			v, err := value.Int64()
			if err == nil && v >= math.MinInt32 && v <= math.MaxInt32 {
				return rtsql.NewInt(int32(v)), true
			}
		}
	case rtsql.TypeIDBigInt:
		if value.Type() == fastjson.TypeNumber {
			if v, err := value.Int64(); err == nil {
				return rtsql.NewBigInt(v), true
			}
		}
	case rtsql.TypeIDFloat:
		if value.Type() == fastjson.TypeNumber {
			v, _ := value.Float64()
			return rtsql.NewFloat(float32(v)), true
		}
	case rtsql.TypeIDDouble:
		if value.Type() == fastjson.TypeNumber {
			v, _ := value.Float64()
			return rtsql.NewDouble(v), true
		}
	case rtsql.TypeIDString:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			return rtsql.NewString(string(v)), true
		}
	case rtsql.TypeIDTimestamp:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			if parsed, err := time.Parse(time.RFC3339Nano, string(v)); err == nil {
				return rtsql.NewTimestamp(parsed), true
			}
		}
	case rtsql.TypeIDTimespan:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			if parsed, err := time.ParseDuration(string(v)); err == nil {
				return rtsql.NewTimespan(parsed), true
			}
		}
	case rtsql.TypeIDRecord:
		if value.Type() == fastjson.TypeObject {
			obj, _ := value.Object()
			values := make([]rtsql.Value, len(t.Record.Fields))
			for i, field := range t.Record.Fields {
				curValue, ok := jsonValue(field.Type, obj.Get(field.Name))
				if !ok {
					return rtsql.Value{}, false
				}
				values[i] = curValue
			}
			return rtsql.NewRecordValue(values), true
		}
	}
	return rtsql.Value{}, false
}

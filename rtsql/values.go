package rtsql

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a runtime value. Null values carry TypeIDAny.
// INT and BIGINT values are stored in Int, FLOAT and DOUBLE values in Float.
type Value struct {
	TypeID      TypeID
	Int         int64
	Float       float64
	Boolean     bool
	Str         string
	Time        time.Time
	Duration    time.Duration
	FieldValues []Value
}

func NewNull() Value {
	return Value{TypeID: TypeIDAny}
}

func NewBoolean(value bool) Value {
	return Value{TypeID: TypeIDBoolean, Boolean: value}
}

func NewInt(value int32) Value {
	return Value{TypeID: TypeIDInt, Int: int64(value)}
}

func NewBigInt(value int64) Value {
	return Value{TypeID: TypeIDBigInt, Int: value}
}

func NewFloat(value float32) Value {
	return Value{TypeID: TypeIDFloat, Float: float64(value)}
}

func NewDouble(value float64) Value {
	return Value{TypeID: TypeIDDouble, Float: value}
}

func NewString(value string) Value {
	return Value{TypeID: TypeIDString, Str: value}
}

func NewTimestamp(value time.Time) Value {
	return Value{TypeID: TypeIDTimestamp, Time: value}
}

func NewTimespan(value time.Duration) Value {
	return Value{TypeID: TypeIDTimespan, Duration: value}
}

func NewRecordValue(fieldValues []Value) Value {
	return Value{TypeID: TypeIDRecord, FieldValues: fieldValues}
}

func (value Value) IsNull() bool {
	return value.TypeID == TypeIDAny
}

// Conforms checks whether the shape of the value matches what t requires.
// Nulls only conform to nullable types.
func (value Value) Conforms(t *Type) bool {
	if t == nil {
		return false
	}
	switch t.TypeID {
	case TypeIDBoolean, TypeIDInt, TypeIDBigInt, TypeIDFloat, TypeIDDouble,
		TypeIDString, TypeIDTimestamp, TypeIDTimespan:
		if value.TypeID != t.TypeID {
			return false
		}
		if value.TypeID == TypeIDInt {
			return value.Int >= math.MinInt32 && value.Int <= math.MaxInt32
		}
		return true
	case TypeIDNullable:
		if value.IsNull() {
			return true
		}
		if t.Nullable.Inner == TypeIDAny {
			return false
		}
		return value.Conforms(Primitive(t.Nullable.Inner))
	case TypeIDRecord:
		if value.TypeID != TypeIDRecord || len(value.FieldValues) != len(t.Record.Fields) {
			return false
		}
		for i := range t.Record.Fields {
			if !value.FieldValues[i].Conforms(t.Record.Fields[i].Type) {
				return false
			}
		}
		return true
	case TypeIDFunction:
		return false
	}
	panic("unexhaustive type match")
}

// Promote converts a value of type from into a value of type to, following PromotesTo.
func (value Value) Promote(from, to *Type) (Value, error) {
	if !from.PromotesTo(to) {
		return Value{}, NewTypeError("%s doesn't promote to %s", from, to)
	}
	if from.Equals(to) || value.IsNull() {
		return value, nil
	}

	target := to
	if to.IsNullable() {
		target = to.NonNullable()
	}
	switch target.TypeID {
	case TypeIDString:
		return NewString(value.Text()), nil
	case TypeIDBigInt:
		return NewBigInt(value.Int), nil
	case TypeIDFloat:
		if value.TypeID == TypeIDInt || value.TypeID == TypeIDBigInt {
			return NewFloat(float32(value.Int)), nil
		}
		return NewFloat(float32(value.Float)), nil
	case TypeIDDouble:
		if value.TypeID == TypeIDInt || value.TypeID == TypeIDBigInt {
			return NewDouble(float64(value.Int)), nil
		}
		return NewDouble(value.Float), nil
	}
	// Promotion to the nullable version of the same type.
	return value, nil
}

func (value Value) Compare(other Value) int {
	if value.TypeID != other.TypeID {
		if value.TypeID < other.TypeID {
			return -1
		}
		return 1
	}

	switch value.TypeID {
	case TypeIDAny:
		return 0

	case TypeIDInt, TypeIDBigInt:
		if value.Int < other.Int {
			return -1
		} else if value.Int > other.Int {
			return 1
		}
		return 0

	case TypeIDFloat, TypeIDDouble:
		if value.Float < other.Float {
			return -1
		} else if value.Float > other.Float {
			return 1
		}
		return 0

	case TypeIDBoolean:
		if value.Boolean == other.Boolean {
			return 0
		} else if !value.Boolean {
			return -1
		}
		return 1

	case TypeIDString:
		return strings.Compare(value.Str, other.Str)

	case TypeIDTimestamp:
		if value.Time.Before(other.Time) {
			return -1
		} else if value.Time.After(other.Time) {
			return 1
		}
		return 0

	case TypeIDTimespan:
		if value.Duration < other.Duration {
			return -1
		} else if value.Duration > other.Duration {
			return 1
		}
		return 0

	case TypeIDRecord:
		maxLen := len(value.FieldValues)
		if len(other.FieldValues) > maxLen {
			maxLen = len(other.FieldValues)
		}
		for i := 0; i < maxLen; i++ {
			if i == len(value.FieldValues) {
				return -1
			} else if i == len(other.FieldValues) {
				return 1
			}
			if comp := value.FieldValues[i].Compare(other.FieldValues[i]); comp != 0 {
				return comp
			}
		}
		return 0
	}
	panic("impossible, type switch bug")
}

// Text renders the value the way it's stringified by promotion to STRING.
func (value Value) Text() string {
	switch value.TypeID {
	case TypeIDString:
		return value.Str
	case TypeIDFloat:
		return strconv.FormatFloat(value.Float, 'g', -1, 32)
	case TypeIDDouble:
		return strconv.FormatFloat(value.Float, 'g', -1, 64)
	}
	return value.String()
}

func (value Value) String() string {
	builder := &strings.Builder{}
	value.append(builder)
	return builder.String()
}

func (value Value) append(builder *strings.Builder) {
	switch value.TypeID {
	case TypeIDAny:
		builder.WriteString("null")

	case TypeIDInt, TypeIDBigInt:
		builder.WriteString(strconv.FormatInt(value.Int, 10))

	case TypeIDFloat, TypeIDDouble:
		builder.WriteString(fmt.Sprint(value.Float))

	case TypeIDBoolean:
		builder.WriteString(strconv.FormatBool(value.Boolean))

	case TypeIDString:
		builder.WriteString(fmt.Sprintf("'%s'", value.Str))

	case TypeIDTimestamp:
		builder.WriteString(value.Time.Format(time.RFC3339Nano))

	case TypeIDTimespan:
		builder.WriteString(value.Duration.String())

	case TypeIDRecord:
		builder.WriteString("{")
		for i, v := range value.FieldValues {
			if i > 0 {
				builder.WriteString(", ")
			}
			v.append(builder)
		}
		builder.WriteString("}")

	default:
		panic("impossible, type switch bug")
	}
}

package rtsql

import (
	"fmt"
	"strings"
)

type TypeID int

const (
	TypeIDBoolean TypeID = iota
	TypeIDInt
	TypeIDBigInt
	TypeIDFloat
	TypeIDDouble
	TypeIDString
	TypeIDTimestamp
	TypeIDTimespan
	// TypeIDAny is only valid as the inner type of a nullable type.
	TypeIDAny
	TypeIDNullable
	TypeIDRecord
	TypeIDFunction
)

var typeIDNames = map[TypeID]string{
	TypeIDBoolean:   "BOOLEAN",
	TypeIDInt:       "INT",
	TypeIDBigInt:    "BIGINT",
	TypeIDFloat:     "FLOAT",
	TypeIDDouble:    "DOUBLE",
	TypeIDString:    "STRING",
	TypeIDTimestamp: "TIMESTAMP",
	TypeIDTimespan:  "TIMESPAN",
	TypeIDAny:       "ANY",
	TypeIDNullable:  "NULLABLE",
	TypeIDRecord:    "RECORD",
	TypeIDFunction:  "FUNCTION",
}

func (id TypeID) String() string {
	if name, ok := typeIDNames[id]; ok {
		return name
	}
	return fmt.Sprintf("TypeID(%d)", int(id))
}

// IsPrimitiveID reports whether id names one of the scalar primitive types.
func (id TypeID) IsPrimitiveID() bool {
	return id >= TypeIDBoolean && id <= TypeIDTimespan
}

// Type is a closed union over primitive, nullable, record and function types.
// Only the field matching TypeID is meaningful.
//
// Primitive and nullable types must be obtained through Primitive and Nullable.
// Record and function types are built with NewRecord and NewFunction.
// A Type must not be modified after construction.
type Type struct {
	TypeID   TypeID
	Nullable struct {
		Inner TypeID
	}
	Record struct {
		Fields []RecordField
	}
	Function struct {
		ReturnType    *Type
		ArgumentTypes []*Type
	}
}

type RecordField struct {
	Name string
	Type *Type
}

var primitiveTypes, nullableTypes = buildTypeTables()

func buildTypeTables() (map[TypeID]*Type, map[TypeID]*Type) {
	primitives := make(map[TypeID]*Type)
	nullables := make(map[TypeID]*Type)
	for id := TypeIDBoolean; id <= TypeIDTimespan; id++ {
		primitives[id] = &Type{TypeID: id}

		nullable := &Type{TypeID: TypeIDNullable}
		nullable.Nullable.Inner = id
		nullables[id] = nullable
	}
	nullableAny := &Type{TypeID: TypeIDNullable}
	nullableAny.Nullable.Inner = TypeIDAny
	nullables[TypeIDAny] = nullableAny

	return primitives, nullables
}

// Primitive returns the shared instance of the primitive type with the given id.
// It panics if id is not a primitive type id.
func Primitive(id TypeID) *Type {
	t, ok := primitiveTypes[id]
	if !ok {
		panic(fmt.Sprintf("no primitive type for type id %s", id))
	}
	return t
}

// Nullable returns the shared instance of the nullable version of the given primitive
// type id, or of ANY. It panics for any other id.
func Nullable(id TypeID) *Type {
	t, ok := nullableTypes[id]
	if !ok {
		panic(fmt.Sprintf("no nullable type for type id %s", id))
	}
	return t
}

var (
	Boolean   = Primitive(TypeIDBoolean)
	Int       = Primitive(TypeIDInt)
	BigInt    = Primitive(TypeIDBigInt)
	Float     = Primitive(TypeIDFloat)
	Double    = Primitive(TypeIDDouble)
	String    = Primitive(TypeIDString)
	Timestamp = Primitive(TypeIDTimestamp)
	Timespan  = Primitive(TypeIDTimespan)

	NullableAny = Nullable(TypeIDAny)
)

// NewRecord creates a record type with the given fields, in order.
// Field names must be non-empty and unique.
func NewRecord(fields ...RecordField) (*Type, error) {
	seen := make(map[string]bool, len(fields))
	outFields := make([]RecordField, len(fields))
	for i, field := range fields {
		if field.Name == "" {
			return nil, NewTypeError("record field with index %d has an empty name", i)
		}
		if seen[field.Name] {
			return nil, NewTypeError("duplicate record field name '%s'", field.Name)
		}
		if field.Type == nil {
			return nil, NewTypeError("record field '%s' has no type", field.Name)
		}
		seen[field.Name] = true
		outFields[i] = field
	}

	out := &Type{TypeID: TypeIDRecord}
	out.Record.Fields = outFields
	return out, nil
}

// NewFunction creates the type of a scalar function.
func NewFunction(returnType *Type, argumentTypes ...*Type) *Type {
	out := &Type{TypeID: TypeIDFunction}
	out.Function.ReturnType = returnType
	out.Function.ArgumentTypes = append([]*Type{}, argumentTypes...)
	return out
}

// IsPrimitive is true for primitive types and their nullable versions.
func (t *Type) IsPrimitive() bool {
	switch t.TypeID {
	case TypeIDBoolean, TypeIDInt, TypeIDBigInt, TypeIDFloat, TypeIDDouble,
		TypeIDString, TypeIDTimestamp, TypeIDTimespan, TypeIDNullable:
		return true
	case TypeIDRecord, TypeIDFunction:
		return false
	}
	panic("unexhaustive type match")
}

func (t *Type) IsNullable() bool {
	return t.TypeID == TypeIDNullable
}

func (t *Type) IsNumeric() bool {
	switch t.TypeID {
	case TypeIDInt, TypeIDBigInt, TypeIDFloat, TypeIDDouble:
		return true
	}
	return false
}

// IsComparable reports whether values of this type are ordered (<, <=, >, >=).
func (t *Type) IsComparable() bool {
	return t.IsNumeric() || t.TypeID == TypeIDBoolean || t.TypeID == TypeIDString
}

// NonNullable returns the primitive wrapped by a nullable type.
// Other types are returned as they are. NULLABLE(ANY) has no non-nullable version, nil is returned.
func (t *Type) NonNullable() *Type {
	if !t.IsNullable() {
		return t
	}
	if t.Nullable.Inner == TypeIDAny {
		return nil
	}
	return Primitive(t.Nullable.Inner)
}

// AsNullable returns the nullable version of a primitive type.
// Nullable types are returned as they are, records and functions can't be made nullable.
func (t *Type) AsNullable() (*Type, bool) {
	switch t.TypeID {
	case TypeIDNullable:
		return t, true
	case TypeIDRecord, TypeIDFunction:
		return nil, false
	}
	return Nullable(t.TypeID), true
}

func (t *Type) FieldIndex(name string) int {
	if t.TypeID != TypeIDRecord {
		return -1
	}
	for i := range t.Record.Fields {
		if t.Record.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// Equals checks structural equality.
func (t *Type) Equals(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if t.TypeID != other.TypeID {
		return false
	}

	switch t.TypeID {
	case TypeIDBoolean, TypeIDInt, TypeIDBigInt, TypeIDFloat, TypeIDDouble,
		TypeIDString, TypeIDTimestamp, TypeIDTimespan:
		return true
	case TypeIDNullable:
		return t.Nullable.Inner == other.Nullable.Inner
	case TypeIDRecord:
		if len(t.Record.Fields) != len(other.Record.Fields) {
			return false
		}
		for i := range t.Record.Fields {
			if t.Record.Fields[i].Name != other.Record.Fields[i].Name {
				return false
			}
			if !t.Record.Fields[i].Type.Equals(other.Record.Fields[i].Type) {
				return false
			}
		}
		return true
	case TypeIDFunction:
		if !t.Function.ReturnType.Equals(other.Function.ReturnType) {
			return false
		}
		if len(t.Function.ArgumentTypes) != len(other.Function.ArgumentTypes) {
			return false
		}
		for i := range t.Function.ArgumentTypes {
			if !t.Function.ArgumentTypes[i].Equals(other.Function.ArgumentTypes[i]) {
				return false
			}
		}
		return true
	}
	panic("unexhaustive type match")
}

// PromotesTo reports whether a value of this type may be used where the target type is expected.
//
// The rules are:
//   - X promotesTo X
//   - X promotesTo NULLABLE(Y) for any primitive X if X promotesTo Y
//   - NULLABLE(ANY) promotesTo NULLABLE(X) for any X
//   - NULLABLE(X) promotesTo NULLABLE(Y) if X promotesTo Y
//   - X promotesTo STRING for any primitive X
//   - INT promotesTo BIGINT promotesTo FLOAT promotesTo DOUBLE, transitively
//
// Records and functions only promote to types equal to themselves.
func (t *Type) PromotesTo(target *Type) bool {
	if target == nil {
		return false
	}
	if t.Equals(target) {
		return true
	}

	if t.IsPrimitive() && target.IsNullable() {
		if t.IsNullable() {
			if t.Nullable.Inner == TypeIDAny {
				return true
			}
			if target.Nullable.Inner == TypeIDAny {
				return false
			}
			return Primitive(t.Nullable.Inner).PromotesTo(Primitive(target.Nullable.Inner))
		}
		if target.Nullable.Inner == TypeIDAny {
			return false
		}
		return t.PromotesTo(Primitive(target.Nullable.Inner))
	}

	if t.IsPrimitive() && !t.IsNullable() && target.IsPrimitive() {
		if target.TypeID == TypeIDString {
			return true
		}
		if numericPromotesTo(t.TypeID, target.TypeID) {
			return true
		}
		if wider := t.Widen(); wider != nil {
			return wider.PromotesTo(target)
		}
		return false
	}

	return false
}

func numericPromotesTo(smaller, larger TypeID) bool {
	switch {
	case smaller == TypeIDInt && larger == TypeIDBigInt:
		return true
	case smaller == TypeIDBigInt && larger == TypeIDFloat:
		return true
	case smaller == TypeIDFloat && larger == TypeIDDouble:
		return true
	}
	return smaller == larger
}

// Widen returns the next type in the numeric tower INT -> BIGINT -> FLOAT -> DOUBLE,
// or nil if there is none. NULLABLE(X) widens to NULLABLE(Y) if X widens to Y.
func (t *Type) Widen() *Type {
	switch t.TypeID {
	case TypeIDInt:
		return BigInt
	case TypeIDBigInt:
		return Float
	case TypeIDFloat:
		return Double
	case TypeIDNullable:
		if t.Nullable.Inner == TypeIDAny {
			return nil
		}
		wider := Primitive(t.Nullable.Inner).Widen()
		if wider == nil {
			return nil
		}
		return Nullable(wider.TypeID)
	}
	return nil
}

// WideningPath returns the chain of types visited when widening from towards to,
// starting with from itself. It returns nil if from doesn't promote to to.
func WideningPath(from, to *Type) []*Type {
	if !from.PromotesTo(to) {
		return nil
	}
	path := []*Type{from}
	cur := from
	if target := to.NonNullable(); target != nil && target.IsNumeric() {
		for next := cur.Widen(); next != nil && next.PromotesTo(to); next = cur.Widen() {
			path = append(path, next)
			cur = next
		}
	}
	if !cur.Equals(to) {
		path = append(path, to)
	}
	return path
}

// CommonType returns the narrowest type both a and b promote to.
// Candidates are a, b, their widening chains and the nullable versions of those, in that order.
func CommonType(a, b *Type) (*Type, bool) {
	var candidates []*Type
	for cur := a; cur != nil; cur = cur.Widen() {
		candidates = append(candidates, cur)
	}
	for cur := b; cur != nil; cur = cur.Widen() {
		candidates = append(candidates, cur)
	}
	count := len(candidates)
	for i := 0; i < count; i++ {
		if nullable, ok := candidates[i].AsNullable(); ok {
			candidates = append(candidates, nullable)
		}
	}

	var best *Type
	for _, candidate := range candidates {
		if !a.PromotesTo(candidate) || !b.PromotesTo(candidate) {
			continue
		}
		if best == nil || candidate.PromotesTo(best) && !best.PromotesTo(candidate) {
			best = candidate
		}
	}
	return best, best != nil
}

func (t *Type) String() string {
	if t == nil {
		return "<unresolved>"
	}
	switch t.TypeID {
	case TypeIDBoolean, TypeIDInt, TypeIDBigInt, TypeIDFloat, TypeIDDouble,
		TypeIDString, TypeIDTimestamp, TypeIDTimespan:
		return t.TypeID.String()
	case TypeIDNullable:
		return fmt.Sprintf("NULLABLE(%s)", t.Nullable.Inner)
	case TypeIDRecord:
		fieldStrings := make([]string, len(t.Record.Fields))
		for i, field := range t.Record.Fields {
			fieldStrings[i] = fmt.Sprintf("%s %s", field.Name, field.Type)
		}
		return fmt.Sprintf("RECORD(%s)", strings.Join(fieldStrings, ", "))
	case TypeIDFunction:
		argStrings := make([]string, len(t.Function.ArgumentTypes))
		for i, arg := range t.Function.ArgumentTypes {
			argStrings[i] = arg.String()
		}
		return fmt.Sprintf("FUNCTION(%s) %s", strings.Join(argStrings, ", "), t.Function.ReturnType)
	}
	panic("unexhaustive type match")
}

var typeIDsByName = func() map[string]TypeID {
	out := make(map[string]TypeID)
	for id := TypeIDBoolean; id <= TypeIDAny; id++ {
		out[id.String()] = id
	}
	return out
}()

// ParseType parses a primitive or nullable type name, like INT or NULLABLE(STRING).
func ParseType(text string) (*Type, error) {
	name := strings.ToUpper(strings.TrimSpace(text))
	if strings.HasPrefix(name, "NULLABLE") {
		inner := strings.TrimSpace(strings.TrimPrefix(name, "NULLABLE"))
		if !strings.HasPrefix(inner, "(") || !strings.HasSuffix(inner, ")") {
			return nil, NewTypeError("invalid nullable type '%s'", text)
		}
		inner = strings.TrimSpace(inner[1 : len(inner)-1])
		id, ok := typeIDsByName[inner]
		if !ok {
			return nil, NewTypeError("unknown type '%s' in '%s'", inner, text)
		}
		return Nullable(id), nil
	}

	id, ok := typeIDsByName[name]
	if !ok || id == TypeIDAny {
		return nil, NewTypeError("unknown type '%s'", text)
	}
	return Primitive(id), nil
}

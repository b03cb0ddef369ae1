package serialization

import (
	"fmt"
	"log"

	"github.com/cube2222/rtsql/rtsql"
)

// WireKind is the representation of a primitive value in encoded records.
type WireKind int

const (
	WireKindUnsupported WireKind = iota
	WireKindBool
	WireKindInt32
	WireKindInt64
	WireKindFloat32
	WireKindFloat64
	WireKindString
)

func (kind WireKind) String() string {
	switch kind {
	case WireKindUnsupported:
		return "unsupported"
	case WireKindBool:
		return "bool"
	case WireKindInt32:
		return "int32"
	case WireKindInt64:
		return "int64"
	case WireKindFloat32:
		return "float32"
	case WireKindFloat64:
		return "float64"
	case WireKindString:
		return "string"
	}
	return fmt.Sprintf("WireKind(%d)", int(kind))
}

var encodingTable = map[rtsql.TypeID]WireKind{
	rtsql.TypeIDBoolean: WireKindBool,
	rtsql.TypeIDInt:     WireKindInt32,
	rtsql.TypeIDBigInt:  WireKindInt64,
	rtsql.TypeIDFloat:   WireKindFloat32,
	rtsql.TypeIDDouble:  WireKindFloat64,
	rtsql.TypeIDString:  WireKindString,
}

// typeIDs is the inverse of encodingTable.
var typeIDs = func() map[WireKind]rtsql.TypeID {
	out := make(map[WireKind]rtsql.TypeID, len(encodingTable))
	for id, kind := range encodingTable {
		out[kind] = id
	}
	return out
}()

type WireSchema struct {
	Kind     WireKind
	Nullable bool
}

func (schema WireSchema) String() string {
	if schema.Nullable {
		return "nullable " + schema.Kind.String()
	}
	return schema.Kind.String()
}

type FieldSchema struct {
	Name string
	WireSchema
}

// SchemaOf looks up the wire representation of a primitive or nullable primitive type.
// Types without one get a WireKindUnsupported schema and false. That's not an error,
// callers decide whether the field can be skipped.
func SchemaOf(t *rtsql.Type) (WireSchema, bool) {
	id := t.TypeID
	nullable := false
	if t.IsNullable() {
		id = t.Nullable.Inner
		nullable = true
	}

	kind, ok := encodingTable[id]
	if !ok {
		log.Printf("no wire schema available for type %s", t)
		return WireSchema{Kind: WireKindUnsupported, Nullable: nullable}, false
	}
	return WireSchema{Kind: kind, Nullable: nullable}, true
}

// RecordSchema returns the wire schema of each field of the record type, in field order.
// Fields without a wire representation are included with WireKindUnsupported.
func RecordSchema(t *rtsql.Type) ([]FieldSchema, error) {
	if t.TypeID != rtsql.TypeIDRecord {
		return nil, rtsql.NewTypeError("expected a record type, got %s", t)
	}

	out := make([]FieldSchema, len(t.Record.Fields))
	for i, field := range t.Record.Fields {
		schema, _ := SchemaOf(field.Type)
		out[i] = FieldSchema{
			Name:       field.Name,
			WireSchema: schema,
		}
	}
	return out, nil
}

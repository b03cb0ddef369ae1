package serialization

import (
	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"

	"github.com/cube2222/rtsql/rtsql"
)

func parquetNode(schema WireSchema) parquet.Node {
	var node parquet.Node
	switch schema.Kind {
	case WireKindBool:
		node = parquet.Leaf(parquet.BooleanType)
	case WireKindInt32:
		node = parquet.Leaf(parquet.Int32Type)
	case WireKindInt64:
		node = parquet.Leaf(parquet.Int64Type)
	case WireKindFloat32:
		node = parquet.Leaf(parquet.FloatType)
	case WireKindFloat64:
		node = parquet.Leaf(parquet.DoubleType)
	case WireKindString:
		node = parquet.String()
	default:
		panic("unexhaustive wire kind match")
	}
	if schema.Nullable {
		node = parquet.Optional(node)
	}
	return node
}

// ParquetSchema builds the columnar schema of the supported fields of a record type.
// Fields without a wire representation are left out.
func ParquetSchema(name string, recordType *rtsql.Type) (*parquet.Schema, error) {
	fields, err := RecordSchema(recordType)
	if err != nil {
		return nil, err
	}

	group := parquet.Group{}
	for _, field := range fields {
		if field.Kind == WireKindUnsupported {
			continue
		}
		group[field.Name] = parquetNode(field.WireSchema)
	}
	if len(group) == 0 {
		return nil, errors.Errorf("record type %s has no fields with a columnar representation", recordType)
	}

	return parquet.NewSchema(name, group), nil
}

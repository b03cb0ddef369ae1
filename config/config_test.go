package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/rtsql/rtsql"
)

func TestRead(t *testing.T) {
	config, err := Read("fixtures/example.yaml")
	require.NoError(t, err)

	assert.Equal(t, []StreamConfig{
		{
			Name: "orders",
			Fields: []FieldConfig{
				{Name: "id", Type: "BIGINT"},
				{Name: "amount", Type: "NULLABLE(DOUBLE)"},
				{Name: "customer", Type: "string"},
			},
		},
		{
			Name: "clicks",
			Fields: []FieldConfig{
				{Name: "url", Type: "STRING"},
				{Name: "at", Type: "TIMESTAMP"},
				{Name: "session", Type: "nullable(int)"},
			},
		},
	}, config.Streams)

	strictNulls, err := config.StrictNulls()
	require.NoError(t, err)
	assert.True(t, strictNulls)

	dir, err := config.LogDirectory()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rtsql-logs", dir)

	stream, err := config.GetStreamConfig("clicks")
	require.NoError(t, err)
	assert.Equal(t, "clicks", stream.Name)

	_, err = config.GetStreamConfig("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadDefaults(t *testing.T) {
	config, err := Read("fixtures/minimal.yaml")
	require.NoError(t, err)

	strictNulls, err := config.StrictNulls()
	require.NoError(t, err)
	assert.False(t, strictNulls)

	dir, err := config.LogDirectory()
	require.NoError(t, err)
	want, err := DefaultLogDirectory()
	require.NoError(t, err)
	assert.Equal(t, want, dir)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read("fixtures/does_not_exist.yaml")
	assert.Error(t, err)
}

func TestStreamSchemas(t *testing.T) {
	config, err := Read("fixtures/example.yaml")
	require.NoError(t, err)

	interner := rtsql.NewInterner()
	schemas, err := config.StreamSchemas(interner)
	require.NoError(t, err)
	require.Len(t, schemas, 2)

	orders, err := rtsql.NewRecord(
		rtsql.RecordField{Name: "id", Type: rtsql.BigInt},
		rtsql.RecordField{Name: "amount", Type: rtsql.Nullable(rtsql.TypeIDDouble)},
		rtsql.RecordField{Name: "customer", Type: rtsql.String},
	)
	require.NoError(t, err)
	assert.True(t, orders.Equals(schemas["orders"]), "got %s", schemas["orders"])
	assert.Equal(t, "RECORD(url STRING, at TIMESTAMP, session NULLABLE(INT))", schemas["clicks"].String())

	// Schemas are interned.
	again, err := config.StreamSchemas(interner)
	require.NoError(t, err)
	assert.Same(t, schemas["orders"], again["orders"])
	assert.Same(t, schemas["clicks"], again["clicks"])
}

func TestStreamSchemasErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{
			name: "unknown type",
			path: "fixtures/invalid_type.yaml",
		},
		{
			name: "duplicate field",
			path: "fixtures/duplicate_field.yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Read(tt.path)
			require.NoError(t, err)

			_, err = config.StreamSchemas(rtsql.NewInterner())
			require.Error(t, err)
			assert.True(t, rtsql.IsTypeError(err))
		})
	}
}

func TestGetters(t *testing.T) {
	config := map[string]interface{}{
		"flag": true,
		"name": "value",
		"nested": map[string]interface{}{
			"flag": false,
		},
	}

	flag, err := GetBool(config, "flag")
	require.NoError(t, err)
	assert.True(t, flag)

	flag, err = GetBool(config, "nested.flag", WithDefault(true))
	require.NoError(t, err)
	assert.False(t, flag)

	flag, err = GetBool(config, "missing", WithDefault(true))
	require.NoError(t, err)
	assert.True(t, flag)

	_, err = GetBool(config, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = GetBool(config, "name")
	assert.Error(t, err)

	name, err := GetString(config, "name")
	require.NoError(t, err)
	assert.Equal(t, "value", name)

	name, err = GetString(config, "nested.name", WithDefault("default"))
	require.NoError(t, err)
	assert.Equal(t, "default", name)

	_, err = GetString(config, "flag.name")
	assert.Error(t, err)
}

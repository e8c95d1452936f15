package jsonschema

import (
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/shapestack/jsonshape/infer"
	"github.com/shapestack/jsonshape/schema"
)

func inferSchema(t *testing.T, rows []string, cfg infer.Config) schema.Schema {
	t.Helper()
	res, err := infer.Infer(rows, cfg)
	assert.Nil(t, err)
	return res.Schema
}

func emitMap(t *testing.T, s schema.Schema, opts Options) map[string]any {
	t.Helper()
	out, err := Emit(s, opts)
	assert.Nil(t, err)

	var m map[string]any
	assert.Nil(t, gojson.Unmarshal(out, &m))
	return m
}

func TestEmitScalarRecord(t *testing.T) {
	s := inferSchema(t, []string{`{"name": "Alice", "age": 30}`}, infer.DefaultConfig())
	m := emitMap(t, s, Options{SchemaURI: "AUTO"})

	assert.Equal(t, m["$schema"], DraftURI)
	assert.Equal(t, m["type"], "object")

	props := m["properties"].(map[string]any)
	assert.Equal(t, props["name"].(map[string]any)["type"], "string")
	assert.Equal(t, props["age"].(map[string]any)["type"], "integer")
	assert.Equal(t, m["required"], []any{"name", "age"})
	assert.Equal(t, m["additionalProperties"], false)
}

func TestEmitOptionalFieldNotRequired(t *testing.T) {
	rows := []string{`{"name": "Alice", "age": 30}`, `{"name": "Bob"}`}
	s := inferSchema(t, rows, infer.DefaultConfig())
	m := emitMap(t, s, Options{})

	assert.Equal(t, m["required"], []any{"name"})
}

func TestEmitNullableFieldNotRequired(t *testing.T) {
	rows := []string{`{"name": "Alice"}`, `{"name": null}`}
	s := inferSchema(t, rows, infer.DefaultConfig())
	m := emitMap(t, s, Options{})

	_, hasRequired := m["required"]
	assert.False(t, hasRequired)

	name := m["properties"].(map[string]any)["name"].(map[string]any)
	assert.Equal(t, name["type"], []any{"null", "string"})
}

func TestEmitMixedScalarTypes(t *testing.T) {
	rows := []string{`{"v": 1}`, `{"v": "x"}`}
	s := inferSchema(t, rows, infer.DefaultConfig())
	m := emitMap(t, s, Options{})

	v := m["properties"].(map[string]any)["v"].(map[string]any)
	assert.Equal(t, v["type"], []any{"integer", "string"})
}

func TestEmitIntFloatWidensToNumber(t *testing.T) {
	rows := []string{`{"v": 1}`, `{"v": 1.5}`}
	s := inferSchema(t, rows, infer.DefaultConfig())
	m := emitMap(t, s, Options{})

	v := m["properties"].(map[string]any)["v"].(map[string]any)
	assert.Equal(t, v["type"], "number")
}

func TestEmitStringFormat(t *testing.T) {
	s := inferSchema(t, []string{`{"d": "2024-01-15"}`}, infer.DefaultConfig())
	m := emitMap(t, s, Options{})

	d := m["properties"].(map[string]any)["d"].(map[string]any)
	assert.Equal(t, d["type"], "string")
	assert.Equal(t, d["format"], "date")
}

func TestEmitMapAdditionalProperties(t *testing.T) {
	cfg := infer.DefaultConfig()
	cfg.ForceFieldTypes = map[string]string{"labels": "map"}
	s := inferSchema(t, []string{`{"labels": {"en": "x"}}`}, cfg)
	m := emitMap(t, s, Options{})

	labels := m["properties"].(map[string]any)["labels"].(map[string]any)
	assert.Equal(t, labels["type"], "object")
	ap := labels["additionalProperties"].(map[string]any)
	assert.Equal(t, ap["type"], "string")
	_, hasProps := labels["properties"]
	assert.False(t, hasProps)
}

func TestEmitArray(t *testing.T) {
	s := inferSchema(t, []string{`{"tags": ["a", "b"]}`}, infer.DefaultConfig())
	m := emitMap(t, s, Options{})

	tags := m["properties"].(map[string]any)["tags"].(map[string]any)
	assert.Equal(t, tags["type"], "array")
	assert.Equal(t, tags["items"].(map[string]any)["type"], "string")
}

func TestEmitEmptyArrayNoItems(t *testing.T) {
	s := inferSchema(t, []string{`{"tags": []}`}, infer.DefaultConfig())
	m := emitMap(t, s, Options{})

	tags := m["properties"].(map[string]any)["tags"].(map[string]any)
	assert.Equal(t, tags["type"], "array")
	_, hasItems := tags["items"]
	assert.False(t, hasItems)
}

func TestEmitUnionAnyOf(t *testing.T) {
	rows := []string{`{"v": 1}`, `{"v": {"x": true}}`, `{"v": null}`}
	s := inferSchema(t, rows, infer.DefaultConfig())
	m := emitMap(t, s, Options{})

	v := m["properties"].(map[string]any)["v"].(map[string]any)
	anyOf := v["anyOf"].([]any)
	assert.Equal(t, len(anyOf), 3)
	assert.Equal(t, anyOf[0].(map[string]any)["type"], "null")
	assert.Equal(t, anyOf[1].(map[string]any)["type"], "object")
	assert.Equal(t, anyOf[2].(map[string]any)["type"], "integer")
}

func TestEmitSchemaURIVariants(t *testing.T) {
	s := inferSchema(t, []string{`{"a": 1}`}, infer.DefaultConfig())

	m := emitMap(t, s, Options{SchemaURI: "AUTO"})
	assert.Equal(t, m["$schema"], DraftURI)

	m = emitMap(t, s, Options{SchemaURI: "https://example.com/custom"})
	assert.Equal(t, m["$schema"], "https://example.com/custom")

	m = emitMap(t, s, Options{})
	_, has := m["$schema"]
	assert.False(t, has)
}

func TestEmitTitleAndDescription(t *testing.T) {
	s := inferSchema(t, []string{`{"a": 1}`}, infer.DefaultConfig())
	m := emitMap(t, s, Options{Title: "T", Description: "D"})
	assert.Equal(t, m["title"], "T")
	assert.Equal(t, m["description"], "D")
}

func TestEmitOptionalFieldsOption(t *testing.T) {
	s := inferSchema(t, []string{`{"a": 1, "b": 2}`}, infer.DefaultConfig())
	m := emitMap(t, s, Options{OptionalFields: []string{"b"}})
	assert.Equal(t, m["required"], []any{"a"})
}

func TestEmitDeterministic(t *testing.T) {
	rows := []string{`{"b": 1, "a": "x"}`, `{"a": "y", "c": true}`}
	s := inferSchema(t, rows, infer.DefaultConfig())

	first, err := Emit(s, Options{SchemaURI: "AUTO", Title: "t"})
	assert.Nil(t, err)
	second, err := Emit(s, Options{SchemaURI: "AUTO", Title: "t"})
	assert.Nil(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestEmitNilSchema(t *testing.T) {
	out, err := Emit(nil, Options{})
	assert.Nil(t, err)
	assert.Equal(t, string(out), "{}")
}

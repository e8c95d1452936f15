package coltypes

import (
	"testing"

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

func TestFieldsScalars(t *testing.T) {
	s := inferSchema(t, []string{`{"n": 1, "f": 1.5, "b": true, "s": "x", "z": null}`}, infer.DefaultConfig())

	fields := Fields(s)
	assert.Equal(t, fields, []Field{
		{Name: "n", Dtype: "Int64"},
		{Name: "f", Dtype: "Float64"},
		{Name: "b", Dtype: "Boolean"},
		{Name: "s", Dtype: "String"},
		{Name: "z", Dtype: "Null"},
	})
}

func TestFieldsTemporalFormats(t *testing.T) {
	s := inferSchema(t, []string{`{"d": "2024-01-15", "t": "13:45:00", "dt": "2024-01-15T13:45:00Z"}`}, infer.DefaultConfig())

	fields := Fields(s)
	assert.Equal(t, fields[0].Dtype, "Date")
	assert.Equal(t, fields[1].Dtype, "Time")
	assert.Equal(t, fields[2].Dtype, "Datetime")
}

func TestFieldsContainers(t *testing.T) {
	cfg := infer.DefaultConfig()
	cfg.ForceFieldTypes = map[string]string{"labels": "map"}
	s := inferSchema(t, []string{`{"tags": ["a"], "labels": {"en": "x"}, "addr": {"city": "NYC", "zip": 10001}}`}, cfg)

	fields := Fields(s)
	assert.Equal(t, fields[0].Dtype, "List[String]")
	assert.Equal(t, fields[1].Dtype, "Map[String,String]")
	assert.Equal(t, fields[2].Dtype, "Struct[city:String,zip:Int64]")
}

func TestFieldsUnionFallsBackToString(t *testing.T) {
	s := inferSchema(t, []string{`{"v": 1}`, `{"v": {"x": true}}`}, infer.DefaultConfig())
	assert.Equal(t, Fields(s)[0].Dtype, "String")
}

func TestFieldsNonRecordRoot(t *testing.T) {
	cfg := infer.DefaultConfig()
	cfg.IgnoreOuterArray = false
	s := inferSchema(t, []string{`[1, 2]`}, cfg)

	fields := Fields(s)
	assert.Equal(t, len(fields), 1)
	assert.Equal(t, fields[0].Name, "")
	assert.Equal(t, fields[0].Dtype, "List[Int64]")
}

func TestFieldsNilSchema(t *testing.T) {
	assert.Nil(t, Fields(nil))
}

func TestDtypeIntFloatWidens(t *testing.T) {
	s := inferSchema(t, []string{`{"v": 1}`, `{"v": 2.5}`}, infer.DefaultConfig())
	assert.Equal(t, Fields(s)[0].Dtype, "Float64")
}

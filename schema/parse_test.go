package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferObjectEmpty(t *testing.T) {
	s, err := InferBytes([]byte("{}"), nil)
	assert.Nil(t, err)
	assert.Equal(t, s.Kind(), KindRecord)

	r := s.AsRecord()
	assert.Equal(t, len(r.Fields), 0)
	assert.Equal(t, r.Total, 1)
}

func TestInferObjectOneFieldString(t *testing.T) {
	s, err := InferBytes([]byte(`{"field": "string-val"}`), nil)
	assert.Nil(t, err)
	assert.Equal(t, s.Kind(), KindRecord)

	r := s.AsRecord()
	assert.Equal(t, len(r.Fields), 1)
	assert.Equal(t, r.Fields[0].Key, "field")
	assert.Equal(t, r.Fields[0].Seen, 1)
	assert.Equal(t, r.Fields[0].Value.Kind(), KindValue)
	assert.True(t, r.Fields[0].Value.AsValue().MaybeString)
	assert.False(t, r.Fields[0].Value.AsValue().MaybeInt)
	assert.False(t, r.Fields[0].Value.AsValue().MaybeNull)
}

func TestInferObjectOneFieldInt(t *testing.T) {
	s, err := InferBytes([]byte(`{"field": 1234}`), nil)
	assert.Nil(t, err)

	v := s.AsRecord().Fields[0].Value.AsValue()
	assert.True(t, v.MaybeInt)
	assert.False(t, v.MaybeFloat)
}

func TestInferObjectOneFieldFloat(t *testing.T) {
	s, err := InferBytes([]byte(`{"field": 12.5}`), nil)
	assert.Nil(t, err)

	v := s.AsRecord().Fields[0].Value.AsValue()
	assert.True(t, v.MaybeFloat)
	assert.False(t, v.MaybeInt)
}

func TestInferObjectOneFieldBool(t *testing.T) {
	s, err := InferBytes([]byte(`{"field": true}`), nil)
	assert.Nil(t, err)
	assert.True(t, s.AsRecord().Fields[0].Value.AsValue().MaybeBool)
}

func TestInferObjectOneFieldNull(t *testing.T) {
	s, err := InferBytes([]byte(`{"field": null}`), nil)
	assert.Nil(t, err)

	v := s.AsRecord().Fields[0].Value.AsValue()
	assert.True(t, v.MaybeNull)
	assert.True(t, v.OnlyNull())
}

func TestInferPreservesFieldOrder(t *testing.T) {
	s, err := InferBytes([]byte(`{"z": 1, "a": 2, "m": 3}`), nil)
	assert.Nil(t, err)

	r := s.AsRecord()
	assert.Equal(t, r.Fields[0].Key, "z")
	assert.Equal(t, r.Fields[1].Key, "a")
	assert.Equal(t, r.Fields[2].Key, "m")
}

func TestInferNested(t *testing.T) {
	s, err := InferBytes([]byte(`{"outer": {"inner": "v"}}`), nil)
	assert.Nil(t, err)

	outer := s.AsRecord().Fields[0].Value
	assert.Equal(t, outer.Kind(), KindRecord)
	assert.Equal(t, outer.AsRecord().Fields[0].Key, "inner")
}

func TestInferArrayMergesElements(t *testing.T) {
	s, err := InferBytes([]byte(`[1, 2.5, 3]`), nil)
	assert.Nil(t, err)
	assert.Equal(t, s.Kind(), KindArray)

	elem := s.AsArray().Element.AsValue()
	assert.True(t, elem.MaybeInt)
	assert.True(t, elem.MaybeFloat)
}

func TestInferArrayEmpty(t *testing.T) {
	s, err := InferBytes([]byte(`[]`), nil)
	assert.Nil(t, err)
	assert.Equal(t, s.Kind(), KindArray)
	assert.Nil(t, s.AsArray().Element)
}

func TestInferStringFormats(t *testing.T) {
	s, err := InferBytes([]byte(`{"d": "2024-01-15", "t": "13:45:00", "dt": "2024-01-15T13:45:00Z", "u": "123e4567-e89b-12d3-a456-426614174000", "plain": "hello"}`), nil)
	assert.Nil(t, err)

	r := s.AsRecord()
	assert.Equal(t, r.Field("d").Value.AsValue().Format, FormatDate)
	assert.Equal(t, r.Field("t").Value.AsValue().Format, FormatTime)
	assert.Equal(t, r.Field("dt").Value.AsValue().Format, FormatDateTime)
	assert.Equal(t, r.Field("u").Value.AsValue().Format, FormatUUID)
	assert.Equal(t, r.Field("plain").Value.AsValue().Format, "")
}

func TestInferRejectsNonDateStrings(t *testing.T) {
	// right shape, impossible month
	s, err := InferBytes([]byte(`{"d": "2024-19-99"}`), nil)
	assert.Nil(t, err)
	assert.Equal(t, s.AsRecord().Fields[0].Value.AsValue().Format, "")
}

func TestInferForcedMapAtWalk(t *testing.T) {
	opts := &Options{MapThreshold: 20, ForceFieldTypes: map[string]string{"labels": "map"}}
	s, err := InferBytes([]byte(`{"labels": {"en": "Hello", "fr": "Bonjour"}}`), opts)
	assert.Nil(t, err)

	labels := s.AsRecord().Fields[0].Value
	assert.Equal(t, labels.Kind(), KindMap)
	assert.True(t, labels.AsMap().Value.AsValue().MaybeString)
}

func TestInferForcedMapByDottedPath(t *testing.T) {
	opts := &Options{MapThreshold: 20, ForceFieldTypes: map[string]string{"meta.labels": "map"}}
	s, err := InferBytes([]byte(`{"meta": {"labels": {"en": "Hello"}}, "labels": {"id": 1}}`), opts)
	assert.Nil(t, err)

	r := s.AsRecord()
	assert.Equal(t, r.Field("meta").Value.AsRecord().Fields[0].Value.Kind(), KindMap)
	// the top-level field of the same name is untouched
	assert.Equal(t, r.Field("labels").Value.Kind(), KindRecord)
}

func TestInferForcedMapReachesArrayElements(t *testing.T) {
	opts := &Options{MapThreshold: 20, ForceFieldTypes: map[string]string{"labels": "map"}}
	s, err := InferBytes([]byte(`{"labels": [{"en": "a"}, {"fr": "b"}]}`), opts)
	assert.Nil(t, err)

	labels := s.AsRecord().Fields[0].Value
	assert.Equal(t, labels.Kind(), KindArray)
	assert.Equal(t, labels.AsArray().Element.Kind(), KindMap)
}

func TestInferBadJSON(t *testing.T) {
	_, err := InferBytes([]byte(`{"field":`), nil)
	assert.NotNil(t, err)
}

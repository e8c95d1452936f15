package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalizeMapThresholdBoundary(t *testing.T) {
	opts := testOpts()
	opts.MapThreshold = 2

	// exactly at the threshold stays a record
	at := mustInfer(t, `{"a": "x", "b": "y"}`, opts)
	at = Finalize(at, opts)
	assert.Equal(t, at.Kind(), KindRecord)

	// strictly above flips to a map
	over := mustInfer(t, `{"a": "x", "b": "y", "c": "z"}`, opts)
	over = Finalize(over, opts)
	assert.Equal(t, over.Kind(), KindMap)
	assert.True(t, over.AsMap().Value.AsValue().MaybeString)
}

func TestFinalizeHeterogeneousStaysRecord(t *testing.T) {
	opts := testOpts()
	opts.MapThreshold = 2

	s := mustInfer(t, `{"a": "x", "b": 2, "c": true}`, opts)
	s = Finalize(s, opts)
	assert.Equal(t, s.Kind(), KindRecord)
}

func TestFinalizeMapMaxRequiredKeysGate(t *testing.T) {
	opts := testOpts()
	opts.MapThreshold = 2
	opts.MapMaxRequiredKeys = 0

	// three required keys exceed the gate, so the record survives
	s := mustInfer(t, `{"a": "x", "b": "y", "c": "z"}`, opts)
	s = Finalize(s, opts)
	assert.Equal(t, s.Kind(), KindRecord)
}

func TestFinalizeMapMaxRequiredKeysAllowsOptionalHeavy(t *testing.T) {
	opts := testOpts()
	opts.MapThreshold = 2
	opts.MapMaxRequiredKeys = 1

	a := mustInfer(t, `{"shared": "x", "a": "1"}`, opts)
	b := mustInfer(t, `{"shared": "y", "b": "2"}`, opts)
	c := mustInfer(t, `{"shared": "z", "c": "3"}`, opts)
	s := Merge(Merge(a, b, opts), c, opts)

	// one required key, three optional: qualifies as a map
	s = Finalize(s, opts)
	assert.Equal(t, s.Kind(), KindMap)
}

func TestFinalizeForcedRecordBeatsThreshold(t *testing.T) {
	opts := testOpts()
	opts.MapThreshold = 2
	opts.ForceFieldTypes = map[string]string{"obj": "record"}

	s := mustInfer(t, `{"obj": {"a": "x", "b": "y", "c": "z"}}`, opts)
	s = Finalize(s, opts)
	assert.Equal(t, s.AsRecord().Fields[0].Value.Kind(), KindRecord)
}

func TestFinalizeForcedMapBelowThreshold(t *testing.T) {
	opts := testOpts()
	opts.ForceFieldTypes = map[string]string{"obj": "map"}

	s := mustInfer(t, `{"obj": {"a": "x"}}`, opts)
	s = Finalize(s, opts)
	assert.Equal(t, s.AsRecord().Fields[0].Value.Kind(), KindMap)
}

func TestFinalizeRecordToMapOptionalFieldNullable(t *testing.T) {
	opts := testOpts()
	a := mustInfer(t, `{"obj": {"a": "x", "b": "y"}}`, opts)
	b := mustInfer(t, `{"obj": {"a": "z"}}`, opts)
	s := Merge(a, b, opts)

	opts.ForceFieldTypes = map[string]string{"obj": "map"}
	s = Finalize(s, opts)

	m := s.AsRecord().Fields[0].Value.AsMap()
	assert.True(t, m.Value.AsValue().MaybeString)
	// b was missing "b", so the map value admits null
	assert.True(t, Nullable(m.Value))
}

func TestFinalizeUnifyMapsCompatibleShapes(t *testing.T) {
	opts := testOpts()
	opts.MapThreshold = 2
	opts.UnifyMaps = true

	s := mustInfer(t, `{"a": {"id": 1}, "b": {"id": 2, "extra": "x"}, "c": {"id": 3}}`, opts)
	s = Finalize(s, opts)

	assert.Equal(t, s.Kind(), KindMap)
	v := s.AsMap().Value.AsRecord()
	assert.NotNil(t, v.Field("id"))
	assert.NotNil(t, v.Field("extra"))
}

func TestFinalizeWrapScalarsPromotion(t *testing.T) {
	opts := testOpts()
	opts.MapThreshold = 2
	opts.UnifyMaps = true
	opts.WrapScalars = true

	s := mustInfer(t, `{"a": {"id": 1}, "b": "loose", "c": {"id": 3}}`, opts)
	s = Finalize(s, opts)

	assert.Equal(t, s.Kind(), KindMap)
	v := s.AsMap().Value.AsRecord()
	assert.NotNil(t, v.Field("id"))
	assert.NotNil(t, v.Field("b__string"))
	assert.True(t, v.Field("b__string").Value.AsValue().MaybeString)
}

func TestFinalizeWrapScalarsOffKeepsRecord(t *testing.T) {
	opts := testOpts()
	opts.MapThreshold = 2
	opts.UnifyMaps = true
	opts.WrapScalars = false

	s := mustInfer(t, `{"a": {"id": 1}, "b": "loose", "c": {"id": 3}}`, opts)
	s = Finalize(s, opts)
	assert.Equal(t, s.Kind(), KindRecord)
}

func TestFinalizeUnionOrdering(t *testing.T) {
	opts := testOpts()
	a := mustInfer(t, `{"v": "s"}`, opts)
	b := mustInfer(t, `{"v": {"x": 1}}`, opts)
	s := Finalize(Merge(a, b, opts), opts)

	u := s.AsRecord().Fields[0].Value.AsUnion()
	assert.Equal(t, len(u.Alternatives), 2)
	// containers sort before scalars regardless of arrival order
	assert.Equal(t, u.Alternatives[0].Kind(), KindRecord)
	assert.Equal(t, u.Alternatives[1].Kind(), KindValue)
}

func TestFinalizeForcedTypeCollapsesUnion(t *testing.T) {
	opts := testOpts()
	opts.ForceFieldTypes = map[string]string{"v": "record"}
	a := mustInfer(t, `{"v": {"x": 1}}`, opts)
	b := mustInfer(t, `{"v": 7}`, opts)
	s := Finalize(Merge(a, b, opts), opts)

	v := s.AsRecord().Fields[0].Value
	assert.Equal(t, v.Kind(), KindRecord)

	dropped := false
	for _, c := range opts.Conflicts.Conflicts {
		if c.Path == "v" && c.Detail != "" {
			dropped = true
		}
	}
	assert.True(t, dropped)
}

func TestEqualIgnoresCounts(t *testing.T) {
	opts := testOpts()
	a := mustInfer(t, `{"p": 1}`, opts)
	b := Merge(mustInfer(t, `{"p": 2}`, opts), mustInfer(t, `{"p": 3}`, opts), opts)
	assert.True(t, Equal(a, b))
}

func TestEqualDistinguishesFormats(t *testing.T) {
	opts := testOpts()
	a := mustInfer(t, `{"d": "2024-01-15"}`, opts)
	b := mustInfer(t, `{"d": "hello"}`, opts)
	assert.False(t, Equal(a, b))
}

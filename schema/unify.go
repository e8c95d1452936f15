package schema

import "fmt"

// unifyFieldValues tries to fold the value schemas of a record's fields into
// one shared shape, for map classification of objects whose values are
// compatible but not identical. Unlike Merge it is allowed to fail: any true
// type conflict returns ok=false and the record keeps its field set.
func unifyFieldValues(r *RecordSchema, path string, opts *Options) (Schema, bool) {
	var u Schema
	for i := range r.Fields {
		f := &r.Fields[i]
		next, ok := unifyPair(u, f.Value, path, f.Key, opts)
		if !ok {
			opts.conflicts().add(joinPath(path, f.Key), "map unification failed, keeping record")
			return nil, false
		}
		u = next
	}
	if u == nil {
		return nil, false
	}
	return u, true
}

func unifyPair(a, b Schema, path, key string, opts *Options) (Schema, bool) {
	if a == nil {
		return b, true
	}
	if b == nil {
		return a, true
	}

	if a.Kind() == KindValue && a.AsValue().OnlyNull() {
		setNullable(b)
		return b, true
	}
	if b.Kind() == KindValue && b.AsValue().OnlyNull() {
		setNullable(a)
		return a, true
	}

	switch {
	case a.Kind() == KindValue && b.Kind() == KindValue:
		return unifyValues(a.AsValue(), b.AsValue())
	case a.Kind() == KindArray && b.Kind() == KindArray:
		elem, ok := unifyPair(a.AsArray().Element, b.AsArray().Element, path, key, opts)
		if !ok {
			return nil, false
		}
		a.AsArray().Element = elem
		a.AsArray().Nullable = a.AsArray().Nullable || b.AsArray().Nullable
		return a, true
	case a.Kind() == KindRecord && b.Kind() == KindRecord:
		return unifyRecords(a.AsRecord(), b.AsRecord(), path, opts)
	case a.Kind() == KindMap && b.Kind() == KindMap:
		v, ok := unifyPair(a.AsMap().Value, b.AsMap().Value, path, key, opts)
		if !ok {
			return nil, false
		}
		a.AsMap().Value = v
		a.AsMap().Nullable = a.AsMap().Nullable || b.AsMap().Nullable
		return a, true
	}

	// scalar/record collision: promote the scalar to a singleton record under
	// a synthetic key so unification can proceed
	if opts != nil && opts.WrapScalars {
		if a.Kind() == KindRecord && b.Kind() == KindValue {
			return unifyRecords(a.AsRecord(), wrapScalar(b.AsValue(), key), path, opts)
		}
		if a.Kind() == KindValue && b.Kind() == KindRecord {
			return unifyRecords(wrapScalar(a.AsValue(), key), b.AsRecord(), path, opts)
		}
	}

	return nil, false
}

// unifyValues accepts scalars of the same non-null type, with the defined
// integer-to-number widening. Anything else is a real conflict.
func unifyValues(a, b *ValueSchema) (Schema, bool) {
	if a.MaybeBool != b.MaybeBool || a.MaybeString != b.MaybeString {
		return nil, false
	}
	if a.Numeric() != b.Numeric() {
		return nil, false
	}
	return mergeValues(a, b), true
}

func unifyRecords(a, b *RecordSchema, path string, opts *Options) (Schema, bool) {
	for i := range b.Fields {
		bf := &b.Fields[i]
		af := a.Field(bf.Key)
		if af == nil {
			a.Fields = append(a.Fields, *bf)
			continue
		}
		v, ok := unifyPair(af.Value, bf.Value, joinPath(path, bf.Key), bf.Key, opts)
		if !ok {
			return nil, false
		}
		af.Value = v
		af.Seen += bf.Seen
	}
	a.Total += b.Total
	a.Nullable = a.Nullable || b.Nullable
	return a, true
}

func wrapScalar(v *ValueSchema, key string) *RecordSchema {
	wrapped := fmt.Sprintf("%s__%s", key, scalarTypeName(v))
	return &RecordSchema{
		Fields: []RecordField{{Key: wrapped, Value: v, Seen: 1}},
		Total:  1,
	}
}

func scalarTypeName(v *ValueSchema) string {
	switch {
	case v.MaybeString:
		return "string"
	case v.MaybeFloat:
		return "number"
	case v.MaybeInt:
		return "integer"
	case v.MaybeBool:
		return "boolean"
	}
	return "null"
}

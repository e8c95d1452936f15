package schema

import (
	"fmt"
	"sort"
)

// Finalize applies the classifications that can only be decided once every
// document has been folded in: map/record disambiguation by distinct-key
// cardinality, forced-type collapses of leftover unions, and canonical union
// alternative ordering. The returned tree may alias parts of s; the input
// must not be used afterward.
func Finalize(s Schema, opts *Options) Schema {
	return finalizeNode(s, "", opts)
}

func finalizeNode(s Schema, path string, opts *Options) Schema {
	if s == nil {
		return nil
	}

	switch s.Kind() {
	case KindValue:
		return s
	case KindArray:
		a := s.AsArray()
		a.Element = finalizeNode(a.Element, path, opts)
		return a
	case KindMap:
		m := s.AsMap()
		m.Value = finalizeNode(m.Value, path, opts)
		return m
	case KindUnion:
		return finalizeUnion(s.AsUnion(), path, opts)
	case KindRecord:
		return finalizeRecord(s.AsRecord(), path, opts)
	}
	return s
}

func finalizeRecord(r *RecordSchema, path string, opts *Options) Schema {
	for i := range r.Fields {
		f := &r.Fields[i]
		f.Value = finalizeNode(f.Value, joinPath(path, f.Key), opts)
	}

	switch opts.forcedType(path) {
	case "record":
		return r
	case "map":
		return recordToMap(r, path, opts)
	}

	if opts == nil || opts.MapThreshold <= 0 || len(r.Fields) <= opts.MapThreshold {
		return r
	}
	if opts.MapMaxRequiredKeys >= 0 && r.RequiredCount() > opts.MapMaxRequiredKeys {
		return r
	}

	// Homogeneous values always qualify; heterogeneous ones only when the
	// caller opted into unification.
	if homogeneousFields(r) {
		return &MapSchema{Value: r.Fields[0].Value, Nullable: r.Nullable}
	}
	if opts.unifyMaps() {
		if v, ok := unifyFieldValues(r, path, opts); ok {
			return &MapSchema{Value: v, Nullable: r.Nullable}
		}
	}
	return r
}

func homogeneousFields(r *RecordSchema) bool {
	if len(r.Fields) == 0 {
		return false
	}
	first := r.Fields[0].Value
	for i := 1; i < len(r.Fields); i++ {
		if !Equal(first, r.Fields[i].Value) {
			return false
		}
	}
	return true
}

// recordToMap rewrites a record into a map because the user forced it. Field
// value schemas are folded together; shapes that refuse to merge end up in a
// union value rather than failing the batch.
func recordToMap(r *RecordSchema, path string, opts *Options) Schema {
	m := &MapSchema{Nullable: r.Nullable}
	for i := range r.Fields {
		f := &r.Fields[i]
		m.Value = merge(m.Value, f.Value, path, opts)
		if f.Seen < r.Total && m.Value != nil {
			setNullable(m.Value)
		}
	}
	return m
}

func finalizeUnion(u *UnionSchema, path string, opts *Options) Schema {
	for i := range u.Alternatives {
		u.Alternatives[i] = finalizeNode(u.Alternatives[i], path, opts)
	}

	// The forced shape wins over whatever conflicting observations piled up;
	// the dropped alternatives are recorded, never fatal.
	if forced := opts.forcedType(path); forced == "record" || forced == "map" {
		var want Kind = KindRecord
		if forced == "map" {
			want = KindMap
		}
		kept := u.Alternatives[:0]
		for _, alt := range u.Alternatives {
			if alt.Kind() == want {
				kept = append(kept, alt)
			} else {
				opts.conflicts().add(path, fmt.Sprintf("dropped %s observation, field forced to %s", alt.Kind(), forced))
			}
		}
		if len(kept) > 0 {
			u.Alternatives = kept
		}
	}

	sort.SliceStable(u.Alternatives, func(i, j int) bool {
		return typeRank(u.Alternatives[i]) < typeRank(u.Alternatives[j])
	})

	return normalizeUnion(u)
}

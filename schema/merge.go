package schema

import "fmt"

// Merge folds b into a at the same logical path and returns the accumulated
// node. Either input may be consumed; callers must not reuse a or b afterward.
// Merge never fails on shape conflicts, it falls back to a union and records
// the conflict in opts.Conflicts.
//
// Up to first-seen ordering the merge is associative and commutative, which is
// what allows the engine to fold document chunks in parallel.
func Merge(a, b Schema, opts *Options) Schema {
	return merge(a, b, "", opts)
}

func merge(a, b Schema, path string, opts *Options) Schema {
	if a == nil && b == nil {
		return nil
	}
	if a != nil && b == nil {
		return a
	}
	if a == nil {
		return b
	}

	// A bare null folds into whatever else was seen; the survivor just turns
	// nullable. A top-level null stays null until a concrete value appears.
	if a.Kind() == KindValue && b.Kind() != KindValue && a.AsValue().OnlyNull() {
		setNullable(b)
		return b
	}
	if b.Kind() == KindValue && a.Kind() != KindValue && b.AsValue().OnlyNull() {
		setNullable(a)
		return a
	}

	switch {
	case a.Kind() == KindValue && b.Kind() == KindValue:
		return mergeValues(a.AsValue(), b.AsValue())
	case a.Kind() == KindArray && b.Kind() == KindArray:
		return mergeArrays(a.AsArray(), b.AsArray(), path, opts)
	case a.Kind() == KindRecord && b.Kind() == KindRecord:
		return mergeRecords(a.AsRecord(), b.AsRecord(), path, opts)
	case a.Kind() == KindMap && b.Kind() == KindMap:
		return mergeMaps(a.AsMap(), b.AsMap(), path, opts)
	}

	if a.Kind() != KindUnion && b.Kind() != KindUnion {
		opts.conflicts().add(path, fmt.Sprintf("union fallback: %s vs %s", a.Kind(), b.Kind()))
	}
	return mergeUnions(intoUnion(a), intoUnion(b), path, opts)
}

func mergeValues(a, b *ValueSchema) Schema {
	// formats survive a merge only while every string sighting agrees
	switch {
	case !a.MaybeString:
		a.Format = b.Format
	case !b.MaybeString:
		// keep a.Format
	case a.Format != b.Format:
		a.Format = ""
	}

	a.MaybeNull = a.MaybeNull || b.MaybeNull
	a.MaybeBool = a.MaybeBool || b.MaybeBool
	a.MaybeInt = a.MaybeInt || b.MaybeInt
	a.MaybeFloat = a.MaybeFloat || b.MaybeFloat
	a.MaybeString = a.MaybeString || b.MaybeString
	return a
}

func mergeArrays(a, b *ArraySchema, path string, opts *Options) Schema {
	a.Element = merge(a.Element, b.Element, path, opts)
	a.Nullable = a.Nullable || b.Nullable
	return a
}

func mergeRecords(a, b *RecordSchema, path string, opts *Options) Schema {
	for i := range b.Fields {
		bf := &b.Fields[i]
		af := a.Field(bf.Key)
		if af == nil {
			a.Fields = append(a.Fields, *bf)
			continue
		}

		af.Seen += bf.Seen
		fp := joinPath(path, bf.Key)
		if opts.noUnify(fp) {
			af.Value = unionOf(af.Value, bf.Value, fp, opts)
		} else {
			af.Value = merge(af.Value, bf.Value, fp, opts)
		}
	}

	a.Total += b.Total
	a.Nullable = a.Nullable || b.Nullable
	return a
}

func mergeMaps(a, b *MapSchema, path string, opts *Options) Schema {
	if opts.unifyMaps() {
		a.Value = merge(a.Value, b.Value, path, opts)
		a.Nullable = a.Nullable || b.Nullable
		return a
	}
	// independent retention: sibling maps stay separate union alternatives
	return unionOf(a, b, path, opts)
}

// mergeUnions combines alternative lists, merging same-kind alternatives
// together and keeping the first-seen order of the rest.
func mergeUnions(a, b *UnionSchema, path string, opts *Options) Schema {
	for _, alt := range b.Alternatives {
		a.Alternatives = absorbAlternative(a.Alternatives, alt, path, opts)
	}
	a.Nullable = a.Nullable || b.Nullable
	return normalizeUnion(a)
}

func absorbAlternative(alts []Schema, alt Schema, path string, opts *Options) []Schema {
	for i, existing := range alts {
		if existing.Kind() != alt.Kind() {
			continue
		}
		switch alt.Kind() {
		case KindValue:
			alts[i] = mergeValues(existing.AsValue(), alt.AsValue())
			return alts
		case KindArray:
			alts[i] = mergeArrays(existing.AsArray(), alt.AsArray(), path, opts)
			return alts
		case KindRecord:
			alts[i] = mergeRecords(existing.AsRecord(), alt.AsRecord(), path, opts)
			return alts
		case KindMap:
			if opts.unifyMaps() {
				alts[i] = mergeMaps(existing.AsMap(), alt.AsMap(), path, opts)
				return alts
			}
			if Equal(existing, alt) {
				return alts
			}
		}
	}
	return append(alts, alt)
}

// unionOf accumulates shapes without collapsing them: alternatives are only
// deduplicated by structural equality. This is the no-unify semantic and the
// independent-retention semantic for maps.
func unionOf(a, b Schema, path string, opts *Options) Schema {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	// null still folds rather than forming an alternative
	if a.Kind() == KindValue && a.AsValue().OnlyNull() {
		setNullable(b)
		return b
	}
	if b.Kind() == KindValue && b.AsValue().OnlyNull() {
		setNullable(a)
		return a
	}

	u := intoUnion(a)
	for _, alt := range explodeUnion(b) {
		if !containsShape(u.Alternatives, alt) {
			u.Alternatives = append(u.Alternatives, alt)
		} else if alt.Kind() == KindRecord {
			// same record shape seen again; keep the count bookkeeping honest
			for _, existing := range u.Alternatives {
				if existing.Kind() == KindRecord && Equal(existing, alt) {
					mergeRecords(existing.AsRecord(), alt.AsRecord(), path, opts)
					break
				}
			}
		}
	}
	u.Nullable = u.Nullable || Nullable(b)
	return normalizeUnion(u)
}

func containsShape(alts []Schema, s Schema) bool {
	for _, alt := range alts {
		if Equal(alt, s) {
			return true
		}
	}
	return false
}

func intoUnion(s Schema) *UnionSchema {
	if s.Kind() == KindUnion {
		return s.AsUnion()
	}
	return &UnionSchema{Alternatives: []Schema{s}}
}

func explodeUnion(s Schema) []Schema {
	if s.Kind() == KindUnion {
		return s.AsUnion().Alternatives
	}
	return []Schema{s}
}

// normalizeUnion unwraps unions that ended up with a single alternative; a
// union never holds fewer than two distinct shapes.
func normalizeUnion(u *UnionSchema) Schema {
	if len(u.Alternatives) == 1 {
		s := u.Alternatives[0]
		if u.Nullable {
			setNullable(s)
		}
		return s
	}
	return u
}

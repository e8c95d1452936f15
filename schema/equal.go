package schema

// Equal reports structural equality of two schemas. Count bookkeeping
// (Seen/Total) is ignored; field order, kinds, scalar flags, formats and
// nullability all participate.
func Equal(a, b Schema) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case KindValue:
		av, bv := a.AsValue(), b.AsValue()
		return av.MaybeNull == bv.MaybeNull &&
			av.MaybeBool == bv.MaybeBool &&
			av.MaybeInt == bv.MaybeInt &&
			av.MaybeFloat == bv.MaybeFloat &&
			av.MaybeString == bv.MaybeString &&
			av.Format == bv.Format
	case KindArray:
		aa, ba := a.AsArray(), b.AsArray()
		return aa.Nullable == ba.Nullable && Equal(aa.Element, ba.Element)
	case KindRecord:
		ar, br := a.AsRecord(), b.AsRecord()
		if ar.Nullable != br.Nullable || len(ar.Fields) != len(br.Fields) {
			return false
		}
		for i := range ar.Fields {
			if ar.Fields[i].Key != br.Fields[i].Key {
				return false
			}
			if !Equal(ar.Fields[i].Value, br.Fields[i].Value) {
				return false
			}
		}
		return true
	case KindMap:
		am, bm := a.AsMap(), b.AsMap()
		return am.Nullable == bm.Nullable && Equal(am.Value, bm.Value)
	case KindUnion:
		au, bu := a.AsUnion(), b.AsUnion()
		if au.Nullable != bu.Nullable || len(au.Alternatives) != len(bu.Alternatives) {
			return false
		}
		for i := range au.Alternatives {
			if !Equal(au.Alternatives[i], bu.Alternatives[i]) {
				return false
			}
		}
		return true
	}
	return false
}

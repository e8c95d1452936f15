// Package schema holds the unified structural representation inferred from JSON
// documents, the walker that builds one node tree per document, and the merge
// algebra that folds many document trees into a single accumulated schema.
package schema

type Kind int

const (
	KindValue  Kind = 1
	KindArray  Kind = 2
	KindRecord Kind = 3
	KindMap    Kind = 4
	KindUnion  Kind = 5
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	}
	return "unknown"
}

type Schema interface {
	Kind() Kind
	AsValue() *ValueSchema
	AsArray() *ArraySchema
	AsRecord() *RecordSchema
	AsMap() *MapSchema
	AsUnion() *UnionSchema
}

// ValueSchema is the scalar leaf. A single node can have seen several scalar
// kinds at the same path; the Maybe flags accumulate across merges.
type ValueSchema struct {
	MaybeNull   bool
	MaybeBool   bool
	MaybeInt    bool
	MaybeFloat  bool
	MaybeString bool

	// Format is a detected logical string format such as "date", "date-time",
	// "time" or "uuid". Empty when undetected or when contributing documents
	// disagreed.
	Format string
}

func (v *ValueSchema) Kind() Kind { return KindValue }

func (v *ValueSchema) AsValue() *ValueSchema { return v }

func (v *ValueSchema) AsArray() *ArraySchema { panic("value is not an array") }

func (v *ValueSchema) AsRecord() *RecordSchema { panic("value is not a record") }

func (v *ValueSchema) AsMap() *MapSchema { panic("value is not a map") }

func (v *ValueSchema) AsUnion() *UnionSchema { panic("value is not a union") }

// OnlyNull reports whether the node has only ever seen JSON null.
func (v *ValueSchema) OnlyNull() bool {
	return v.MaybeNull && !v.MaybeBool && !v.MaybeInt && !v.MaybeFloat && !v.MaybeString
}

// Numeric reports whether the node has seen a number of any width.
func (v *ValueSchema) Numeric() bool {
	return v.MaybeInt || v.MaybeFloat
}

type ArraySchema struct {
	// Element is the union of every element shape seen; nil until a non-empty
	// array contributes one.
	Element  Schema
	Nullable bool
}

func (a *ArraySchema) Kind() Kind { return KindArray }

func (a *ArraySchema) AsValue() *ValueSchema { panic("array is not a value") }

func (a *ArraySchema) AsArray() *ArraySchema { return a }

func (a *ArraySchema) AsRecord() *RecordSchema { panic("array is not a record") }

func (a *ArraySchema) AsMap() *MapSchema { panic("array is not a map") }

func (a *ArraySchema) AsUnion() *UnionSchema { panic("array is not a union") }

// RecordSchema is an object with a fixed, named field set. Field order is the
// first-seen order across the whole merge sequence, which keeps emission
// reproducible.
type RecordSchema struct {
	Fields []RecordField
	// Total counts the documents (or sub-values) that contributed an object at
	// this path. A field is required iff its Seen equals Total.
	Total    int
	Nullable bool
}

type RecordField struct {
	Key   string
	Value Schema
	Seen  int
}

func (r *RecordSchema) Kind() Kind { return KindRecord }

func (r *RecordSchema) AsValue() *ValueSchema { panic("record is not a value") }

func (r *RecordSchema) AsArray() *ArraySchema { panic("record is not an array") }

func (r *RecordSchema) AsRecord() *RecordSchema { return r }

func (r *RecordSchema) AsMap() *MapSchema { panic("record is not a map") }

func (r *RecordSchema) AsUnion() *UnionSchema { panic("record is not a union") }

// Field returns the field with the given key, or nil.
func (r *RecordSchema) Field(key string) *RecordField {
	for i := range r.Fields {
		if r.Fields[i].Key == key {
			return &r.Fields[i]
		}
	}
	return nil
}

// RequiredCount counts fields present in every contributing document.
func (r *RecordSchema) RequiredCount() int {
	n := 0
	for i := range r.Fields {
		if r.Fields[i].Seen == r.Total {
			n++
		}
	}
	return n
}

// MapSchema is an object treated as a homogeneous string-keyed dictionary.
// Keys are data, not schema; only the value shape is tracked.
type MapSchema struct {
	// Value is nil until a non-empty object contributes a value shape.
	Value    Schema
	Nullable bool
}

func (m *MapSchema) Kind() Kind { return KindMap }

func (m *MapSchema) AsValue() *ValueSchema { panic("map is not a value") }

func (m *MapSchema) AsArray() *ArraySchema { panic("map is not an array") }

func (m *MapSchema) AsRecord() *RecordSchema { panic("map is not a record") }

func (m *MapSchema) AsMap() *MapSchema { return m }

func (m *MapSchema) AsUnion() *UnionSchema { panic("map is not a union") }

// UnionSchema holds shapes that could not be unified into one variant.
// Alternatives are kept in first-seen order, deduplicated structurally, never
// nested, and never fewer than two.
type UnionSchema struct {
	Alternatives []Schema
	Nullable     bool
}

func (u *UnionSchema) Kind() Kind { return KindUnion }

func (u *UnionSchema) AsValue() *ValueSchema { panic("union is not a value") }

func (u *UnionSchema) AsArray() *ArraySchema { panic("union is not an array") }

func (u *UnionSchema) AsRecord() *RecordSchema { panic("union is not a record") }

func (u *UnionSchema) AsMap() *MapSchema { panic("union is not a map") }

func (u *UnionSchema) AsUnion() *UnionSchema { return u }

// Nullable reports whether s accepts JSON null at its own position.
func Nullable(s Schema) bool {
	switch s.Kind() {
	case KindValue:
		return s.AsValue().MaybeNull
	case KindArray:
		return s.AsArray().Nullable
	case KindRecord:
		return s.AsRecord().Nullable
	case KindMap:
		return s.AsMap().Nullable
	case KindUnion:
		return s.AsUnion().Nullable
	}
	return false
}

func setNullable(s Schema) {
	switch s.Kind() {
	case KindValue:
		s.AsValue().MaybeNull = true
	case KindArray:
		s.AsArray().Nullable = true
	case KindRecord:
		s.AsRecord().Nullable = true
	case KindMap:
		s.AsMap().Nullable = true
	case KindUnion:
		s.AsUnion().Nullable = true
	}
}

// typeRank orders union alternatives deterministically: null first, containers
// before scalars, scalars by narrowness.
func typeRank(s Schema) int {
	switch s.Kind() {
	case KindMap:
		return 1
	case KindArray:
		return 2
	case KindRecord:
		return 3
	case KindValue:
		v := s.AsValue()
		switch {
		case v.OnlyNull():
			return 0
		case v.MaybeBool:
			return 10
		case v.MaybeInt:
			return 11
		case v.MaybeFloat:
			return 12
		case v.MaybeString:
			return 14
		}
		return 19
	case KindUnion:
		return 50
	}
	return 99
}

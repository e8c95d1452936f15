// Package coltypes flattens a merged schema into an ordered list of
// (name, dtype) pairs, the structural description a columnar consumer can use
// to build a native typed column schema.
package coltypes

import (
	"strings"

	"github.com/shapestack/jsonshape/schema"
)

type Field struct {
	Name  string `json:"name"`
	Dtype string `json:"dtype"`
}

// Fields lists the top-level fields of a record schema in schema order. A
// non-record root is described as a single unnamed field.
func Fields(s schema.Schema) []Field {
	if s == nil {
		return nil
	}
	if s.Kind() == schema.KindRecord {
		r := s.AsRecord()
		out := make([]Field, len(r.Fields))
		for i := range r.Fields {
			out[i] = Field{Name: r.Fields[i].Key, Dtype: Dtype(r.Fields[i].Value)}
		}
		return out
	}
	return []Field{{Name: "", Dtype: Dtype(s)}}
}

// Dtype renders one schema node as a column type string.
func Dtype(s schema.Schema) string {
	if s == nil {
		return "Null"
	}

	switch s.Kind() {
	case schema.KindValue:
		return scalarDtype(s.AsValue())
	case schema.KindArray:
		return "List[" + Dtype(s.AsArray().Element) + "]"
	case schema.KindMap:
		return "Map[String," + Dtype(s.AsMap().Value) + "]"
	case schema.KindRecord:
		r := s.AsRecord()
		parts := make([]string, len(r.Fields))
		for i := range r.Fields {
			parts[i] = r.Fields[i].Key + ":" + Dtype(r.Fields[i].Value)
		}
		return "Struct[" + strings.Join(parts, ",") + "]"
	case schema.KindUnion:
		// unresolved unions serialise as raw JSON text in a column
		return "String"
	}

	return "String"
}

func scalarDtype(v *schema.ValueSchema) string {
	if v.MaybeString {
		switch v.Format {
		case schema.FormatDate:
			return "Date"
		case schema.FormatTime:
			return "Time"
		case schema.FormatDateTime:
			return "Datetime"
		}
		return "String"
	}
	if v.MaybeFloat {
		return "Float64"
	}
	if v.MaybeInt {
		return "Int64"
	}
	if v.MaybeBool {
		return "Boolean"
	}
	return "Null"
}

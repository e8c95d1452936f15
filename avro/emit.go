// Package avro renders a merged schema node as an Avro schema document.
package avro

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/shapestack/jsonshape/schema"
)

type Options struct {
	// Name is the root record name. Defaults to "document".
	Name string
	// Namespace is written on the root record when set.
	Namespace string
}

// Emit renders s as compact Avro schema text. Records become Avro records
// with deterministic generated names, maps become Avro maps, optional or
// nullable fields become unions with "null".
func Emit(s schema.Schema, opts Options) ([]byte, error) {
	name := opts.Name
	if name == "" {
		name = "document"
	}

	e := &emitter{namespace: opts.Namespace, used: make(map[string]int)}
	root := e.node(s, name)
	return root.MarshalTo(nil), nil
}

type emitter struct {
	a         fastjson.Arena
	namespace string
	used      map[string]int
}

func (e *emitter) node(s schema.Schema, name string) *fastjson.Value {
	if s == nil {
		return e.a.NewString("null")
	}

	switch s.Kind() {
	case schema.KindValue:
		return e.value(s.AsValue())
	case schema.KindArray:
		o := e.a.NewObject()
		o.Set("type", e.a.NewString("array"))
		if el := s.AsArray().Element; el != nil {
			o.Set("items", e.node(el, name))
		} else {
			o.Set("items", e.a.NewString("null"))
		}
		return o
	case schema.KindMap:
		o := e.a.NewObject()
		o.Set("type", e.a.NewString("map"))
		if v := s.AsMap().Value; v != nil {
			o.Set("values", e.node(v, name))
		} else {
			o.Set("values", e.a.NewString("null"))
		}
		return o
	case schema.KindRecord:
		return e.record(s.AsRecord(), name)
	case schema.KindUnion:
		return e.union(s.AsUnion(), name)
	}

	panic("should be unreachable")
}

func (e *emitter) value(v *schema.ValueSchema) *fastjson.Value {
	var types []string
	if v.MaybeNull {
		types = append(types, "null")
	}
	if v.MaybeBool {
		types = append(types, "boolean")
	}
	if v.MaybeInt && !v.MaybeFloat {
		types = append(types, "long")
	}
	if v.MaybeFloat {
		types = append(types, "double")
	}
	if v.MaybeString {
		types = append(types, "string")
	}
	if len(types) == 0 {
		types = []string{"null"}
	}
	if len(types) == 1 {
		return e.a.NewString(types[0])
	}
	arr := e.a.NewArray()
	for i, t := range types {
		arr.SetArrayItem(i, e.a.NewString(t))
	}
	return arr
}

func (e *emitter) record(r *schema.RecordSchema, name string) *fastjson.Value {
	o := e.a.NewObject()
	o.Set("type", e.a.NewString("record"))
	o.Set("name", e.a.NewString(e.uniqueName(name)))
	if e.namespace != "" {
		// namespace only decorates the outermost record
		o.Set("namespace", e.a.NewString(e.namespace))
		e.namespace = ""
	}

	fields := e.a.NewArray()
	for i := range r.Fields {
		f := &r.Fields[i]
		fo := e.a.NewObject()
		fo.Set("name", e.a.NewString(sanitizeName(f.Key)))

		t := e.node(f.Value, f.Key)
		optional := f.Seen < r.Total || (f.Value != nil && schema.Nullable(f.Value))
		if optional {
			t = e.withNull(t)
			fo.Set("type", t)
			fo.Set("default", e.a.NewNull())
		} else {
			fo.Set("type", t)
		}
		fields.SetArrayItem(i, fo)
	}
	o.Set("fields", fields)
	return o
}

func (e *emitter) union(u *schema.UnionSchema, name string) *fastjson.Value {
	arr := e.a.NewArray()
	i := 0
	if u.Nullable {
		arr.SetArrayItem(i, e.a.NewString("null"))
		i++
	}
	for _, alt := range u.Alternatives {
		arr.SetArrayItem(i, e.node(alt, name))
		i++
	}
	return arr
}

// withNull wraps t in a ["null", t] union unless null is already a branch.
// Avro unions never nest, so an existing union is extended in place.
func (e *emitter) withNull(t *fastjson.Value) *fastjson.Value {
	if t.Type() == fastjson.TypeString {
		if sb, err := t.StringBytes(); err == nil && string(sb) == "null" {
			return t
		}
	}
	if t.Type() == fastjson.TypeArray {
		branches, err := t.Array()
		if err == nil {
			for _, b := range branches {
				if sb, serr := b.StringBytes(); serr == nil && string(sb) == "null" {
					return t
				}
			}
			arr := e.a.NewArray()
			arr.SetArrayItem(0, e.a.NewString("null"))
			for i, b := range branches {
				arr.SetArrayItem(i+1, b)
			}
			return arr
		}
	}
	arr := e.a.NewArray()
	arr.SetArrayItem(0, e.a.NewString("null"))
	arr.SetArrayItem(1, t)
	return arr
}

// uniqueName keeps generated record names unique within one emission so the
// schema stays legal when sibling fields share a key.
func (e *emitter) uniqueName(name string) string {
	name = sanitizeName(name)
	n := e.used[name]
	e.used[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s_%d", name, n+1)
}

func sanitizeName(name string) string {
	if name == "" {
		return "field"
	}
	b := []byte(name)
	for i, c := range b {
		ok := c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
		if !ok {
			b[i] = '_'
		}
	}
	if '0' <= b[0] && b[0] <= '9' {
		return "_" + string(b)
	}
	return string(b)
}

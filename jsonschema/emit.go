// Package jsonschema renders a merged schema node as a JSON Schema
// (draft 2020-12) document. Emission is a pure function of the node plus
// options: the same input always yields byte-identical output.
package jsonschema

import (
	"github.com/valyala/fastjson"

	"github.com/shapestack/jsonshape/schema"
)

// DraftURI is the dialect this emitter implements.
const DraftURI = "https://json-schema.org/draft/2020-12/schema"

type Options struct {
	// SchemaURI is written to $schema. "AUTO" resolves to DraftURI, empty
	// omits the field.
	SchemaURI   string
	Title       string
	Description string

	// AdditionalProperties is written on the top-level record.
	AdditionalProperties bool

	// OptionalFields lists top-level record fields excluded from "required"
	// regardless of their seen counts.
	OptionalFields []string
}

// Emit renders s as compact JSON Schema text.
func Emit(s schema.Schema, opts Options) ([]byte, error) {
	e := &emitter{opts: opts, optional: make(map[string]bool, len(opts.OptionalFields))}
	for _, f := range opts.OptionalFields {
		e.optional[f] = true
	}

	body := e.node(s, true)

	out := e.a.NewObject()
	if uri := resolveURI(opts.SchemaURI); uri != "" {
		out.Set("$schema", e.a.NewString(uri))
	}
	if opts.Title != "" {
		out.Set("title", e.a.NewString(opts.Title))
	}
	if opts.Description != "" {
		out.Set("description", e.a.NewString(opts.Description))
	}

	bo, err := body.Object()
	if err != nil {
		return nil, err
	}
	bo.Visit(func(k []byte, v *fastjson.Value) {
		out.Set(string(k), v)
	})

	return out.MarshalTo(nil), nil
}

func resolveURI(uri string) string {
	if uri == "AUTO" {
		return DraftURI
	}
	return uri
}

type emitter struct {
	a        fastjson.Arena
	opts     Options
	optional map[string]bool
}

func (e *emitter) node(s schema.Schema, top bool) *fastjson.Value {
	if s == nil {
		// void inner type: no constraint
		return e.a.NewObject()
	}

	switch s.Kind() {
	case schema.KindValue:
		return e.value(s.AsValue())
	case schema.KindArray:
		return e.array(s.AsArray())
	case schema.KindRecord:
		return e.record(s.AsRecord(), top)
	case schema.KindMap:
		return e.mapping(s.AsMap())
	case schema.KindUnion:
		return e.union(s.AsUnion())
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
		types = append(types, "integer")
	}
	if v.MaybeFloat {
		types = append(types, "number")
	}
	if v.MaybeString {
		types = append(types, "string")
	}
	if len(types) == 0 {
		types = []string{"null"}
	}

	o := e.a.NewObject()
	if len(types) == 1 {
		o.Set("type", e.a.NewString(types[0]))
	} else {
		arr := e.a.NewArray()
		for i, t := range types {
			arr.SetArrayItem(i, e.a.NewString(t))
		}
		o.Set("type", arr)
	}
	if v.MaybeString && v.Format != "" {
		o.Set("format", e.a.NewString(v.Format))
	}
	return o
}

func (e *emitter) setType(o *fastjson.Value, t string, nullable bool) {
	if !nullable {
		o.Set("type", e.a.NewString(t))
		return
	}
	arr := e.a.NewArray()
	arr.SetArrayItem(0, e.a.NewString("null"))
	arr.SetArrayItem(1, e.a.NewString(t))
	o.Set("type", arr)
}

func (e *emitter) array(a *schema.ArraySchema) *fastjson.Value {
	o := e.a.NewObject()
	e.setType(o, "array", a.Nullable)
	if a.Element != nil {
		o.Set("items", e.node(a.Element, false))
	}
	return o
}

func (e *emitter) record(r *schema.RecordSchema, top bool) *fastjson.Value {
	o := e.a.NewObject()
	e.setType(o, "object", r.Nullable)

	props := e.a.NewObject()
	for i := range r.Fields {
		f := &r.Fields[i]
		props.Set(f.Key, e.node(f.Value, false))
	}
	o.Set("properties", props)

	req := e.a.NewArray()
	n := 0
	for i := range r.Fields {
		f := &r.Fields[i]
		if f.Seen != r.Total || schema.Nullable(f.Value) {
			continue
		}
		if top && e.optional[f.Key] {
			continue
		}
		req.SetArrayItem(n, e.a.NewString(f.Key))
		n++
	}
	if n > 0 {
		o.Set("required", req)
	}

	if top {
		if e.opts.AdditionalProperties {
			o.Set("additionalProperties", e.a.NewTrue())
		} else {
			o.Set("additionalProperties", e.a.NewFalse())
		}
	}
	return o
}

func (e *emitter) mapping(m *schema.MapSchema) *fastjson.Value {
	o := e.a.NewObject()
	e.setType(o, "object", m.Nullable)
	if m.Value != nil {
		o.Set("additionalProperties", e.node(m.Value, false))
	} else {
		o.Set("additionalProperties", e.a.NewTrue())
	}
	return o
}

func (e *emitter) union(u *schema.UnionSchema) *fastjson.Value {
	o := e.a.NewObject()
	arr := e.a.NewArray()
	i := 0
	if u.Nullable {
		null := e.a.NewObject()
		null.Set("type", e.a.NewString("null"))
		arr.SetArrayItem(i, null)
		i++
	}
	for _, alt := range u.Alternatives {
		arr.SetArrayItem(i, e.node(alt, false))
		i++
	}
	o.Set("anyOf", arr)
	return o
}

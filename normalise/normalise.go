// Package normalise rewrites documents into canonical, schema-conformant JSON
// text. It re-walks each original document against the final merged schema:
// record fields come out in the schema's fixed order with absent fields filled
// by null, map keys keep their document order, and unions are emitted behind a
// kind tag. The schema is never mutated, so documents can be normalised
// concurrently against one shared schema.
package normalise

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/shapestack/jsonshape/schema"
)

// MapEncoding selects how map-classified objects are written out.
type MapEncoding int

const (
	// MapEncodingMapping keeps maps as plain JSON objects.
	MapEncodingMapping MapEncoding = iota
	// MapEncodingEntries writes maps as arrays of single-pair objects.
	MapEncodingEntries
	// MapEncodingKeyValue writes maps as arrays of {"key","value"} objects.
	MapEncodingKeyValue
)

type Options struct {
	MapEncoding MapEncoding

	// EmptyAsNull rewrites empty strings, arrays and objects to null.
	EmptyAsNull bool

	// CoerceStrings parses strings into the union's dominant scalar kind
	// when the schema saw both, e.g. "42" becomes 42 under an int schema.
	CoerceStrings bool

	// WrapRoot wraps each document under this key before the walk, matching a
	// schema whose root record holds a single field of the same name.
	WrapRoot string
}

func DefaultOptions() Options {
	return Options{EmptyAsNull: true}
}

// Normalise rewrites one document against the final merged schema. A null or
// blank cell passes through as JSON null.
func Normalise(doc []byte, s schema.Schema, opts Options) ([]byte, error) {
	if len(doc) == 0 || strings.TrimSpace(string(doc)) == "" {
		return []byte("null"), nil
	}

	v, err := fastjson.ParseBytes(doc)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}

	n := &normaliser{opts: opts}
	if opts.WrapRoot != "" {
		wrapped := n.a.NewObject()
		wrapped.Set(opts.WrapRoot, v)
		v = wrapped
	}
	return n.value(v, s).MarshalTo(nil), nil
}

type normaliser struct {
	a    fastjson.Arena
	opts Options
}

func (n *normaliser) value(v *fastjson.Value, s schema.Schema) *fastjson.Value {
	if v == nil || v.Type() == fastjson.TypeNull {
		return n.a.NewNull()
	}
	if s == nil {
		return n.copy(v)
	}

	switch s.Kind() {
	case schema.KindRecord:
		return n.record(v, s.AsRecord())
	case schema.KindMap:
		return n.mapping(v, s.AsMap())
	case schema.KindArray:
		return n.array(v, s.AsArray())
	case schema.KindValue:
		return n.scalar(v, s.AsValue())
	case schema.KindUnion:
		return n.union(v, s.AsUnion())
	}

	panic("should be unreachable")
}

func (n *normaliser) record(v *fastjson.Value, r *schema.RecordSchema) *fastjson.Value {
	o, err := v.Object()
	if err != nil {
		// shape conflict resolved at merge time; a non-object here was the
		// dropped observation
		return n.a.NewNull()
	}
	if n.opts.EmptyAsNull && o.Len() == 0 {
		return n.a.NewNull()
	}

	// schema-known fields only, in the schema's fixed order
	out := n.a.NewObject()
	for i := range r.Fields {
		f := &r.Fields[i]
		out.Set(f.Key, n.value(o.Get(f.Key), f.Value))
	}
	return out
}

func (n *normaliser) mapping(v *fastjson.Value, m *schema.MapSchema) *fastjson.Value {
	o, err := v.Object()
	if err != nil {
		return n.a.NewNull()
	}
	if n.opts.EmptyAsNull && o.Len() == 0 {
		return n.a.NewNull()
	}

	// map keys are data: original order, no reordering
	switch n.opts.MapEncoding {
	case MapEncodingEntries:
		arr := n.a.NewArray()
		i := 0
		o.Visit(func(key []byte, val *fastjson.Value) {
			entry := n.a.NewObject()
			entry.Set(string(key), n.value(val, m.Value))
			arr.SetArrayItem(i, entry)
			i++
		})
		return arr
	case MapEncodingKeyValue:
		arr := n.a.NewArray()
		i := 0
		o.Visit(func(key []byte, val *fastjson.Value) {
			entry := n.a.NewObject()
			entry.Set("key", n.a.NewString(string(key)))
			entry.Set("value", n.value(val, m.Value))
			arr.SetArrayItem(i, entry)
			i++
		})
		return arr
	default:
		out := n.a.NewObject()
		o.Visit(func(key []byte, val *fastjson.Value) {
			out.Set(string(key), n.value(val, m.Value))
		})
		return out
	}
}

func (n *normaliser) array(v *fastjson.Value, a *schema.ArraySchema) *fastjson.Value {
	items, err := v.Array()
	if err != nil {
		return n.a.NewNull()
	}
	if n.opts.EmptyAsNull && len(items) == 0 {
		return n.a.NewNull()
	}

	out := n.a.NewArray()
	for i, item := range items {
		out.SetArrayItem(i, n.value(item, a.Element))
	}
	return out
}

func (n *normaliser) scalar(v *fastjson.Value, s *schema.ValueSchema) *fastjson.Value {
	if v.Type() == fastjson.TypeString {
		sb, err := v.StringBytes()
		if err != nil {
			return n.a.NewNull()
		}
		str := string(sb)
		if n.opts.EmptyAsNull && str == "" {
			return n.a.NewNull()
		}
		if n.opts.CoerceStrings {
			if coerced, ok := n.coerce(str, s); ok {
				return coerced
			}
		}
		return n.a.NewString(str)
	}
	return n.copy(v)
}

// coerce parses a string into the schema's dominant non-string scalar kind,
// narrowest first. Unparseable strings stay strings.
func (n *normaliser) coerce(s string, v *schema.ValueSchema) (*fastjson.Value, bool) {
	if v.MaybeBool {
		if b, err := strconv.ParseBool(s); err == nil {
			if b {
				return n.a.NewTrue(), true
			}
			return n.a.NewFalse(), true
		}
	}
	if v.MaybeInt && !v.MaybeFloat {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n.a.NewNumberInt(int(i)), true
		}
	}
	if v.MaybeFloat {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return n.a.NewNumberFloat64(f), true
		}
	}
	return nil, false
}

// union emits a tagged wrapper naming the alternative the value matched.
func (n *normaliser) union(v *fastjson.Value, u *schema.UnionSchema) *fastjson.Value {
	alt := matchAlternative(v, u)
	if alt == nil {
		return n.a.NewNull()
	}

	out := n.a.NewObject()
	out.Set("type", n.a.NewString(unionTag(v, alt)))
	out.Set("value", n.value(v, alt))
	return out
}

func matchAlternative(v *fastjson.Value, u *schema.UnionSchema) schema.Schema {
	for _, alt := range u.Alternatives {
		switch v.Type() {
		case fastjson.TypeObject:
			if alt.Kind() == schema.KindRecord || alt.Kind() == schema.KindMap {
				return alt
			}
		case fastjson.TypeArray:
			if alt.Kind() == schema.KindArray {
				return alt
			}
		default:
			if alt.Kind() == schema.KindValue {
				return alt
			}
		}
	}
	return nil
}

func unionTag(v *fastjson.Value, alt schema.Schema) string {
	if alt.Kind() != schema.KindValue {
		return alt.Kind().String()
	}
	switch v.Type() {
	case fastjson.TypeString:
		return "string"
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return "boolean"
	case fastjson.TypeNumber:
		if _, err := v.Int64(); err == nil {
			return "integer"
		}
		return "number"
	}
	return "value"
}

// copy rebuilds v inside the output arena so the result never aliases the
// input document's buffer.
func (n *normaliser) copy(v *fastjson.Value) *fastjson.Value {
	switch v.Type() {
	case fastjson.TypeObject:
		o, err := v.Object()
		if err != nil {
			return n.a.NewNull()
		}
		out := n.a.NewObject()
		o.Visit(func(key []byte, val *fastjson.Value) {
			out.Set(string(key), n.copy(val))
		})
		return out
	case fastjson.TypeArray:
		items, err := v.Array()
		if err != nil {
			return n.a.NewNull()
		}
		out := n.a.NewArray()
		for i, item := range items {
			out.SetArrayItem(i, n.copy(item))
		}
		return out
	case fastjson.TypeString:
		sb, _ := v.StringBytes()
		return n.a.NewString(string(sb))
	case fastjson.TypeNumber:
		if i, err := v.Int64(); err == nil {
			return n.a.NewNumberInt(int(i))
		}
		f, _ := v.Float64()
		return n.a.NewNumberFloat64(f)
	case fastjson.TypeTrue:
		return n.a.NewTrue()
	case fastjson.TypeFalse:
		return n.a.NewFalse()
	}
	return n.a.NewNull()
}

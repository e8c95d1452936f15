package normalise

import (
	"fmt"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/shapestack/jsonshape/schema"
)

// Decode structurally decodes one document against the final merged schema
// into native Go values: records and maps become map[string]any, arrays
// []any, scalars bool/int64/float64/string, and strings with a detected
// date/time format become time.Time. Union values are decoded against the
// alternative they match, without the tag wrapper — the best-effort common
// representation for a typed consumer.
func Decode(doc []byte, s schema.Schema, opts Options) (any, error) {
	if len(doc) == 0 || strings.TrimSpace(string(doc)) == "" {
		return nil, nil
	}

	v, err := fastjson.ParseBytes(doc)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if opts.WrapRoot != "" {
		var a fastjson.Arena
		wrapped := a.NewObject()
		wrapped.Set(opts.WrapRoot, v)
		v = wrapped
	}
	return decodeValue(v, s, opts), nil
}

func decodeValue(v *fastjson.Value, s schema.Schema, opts Options) any {
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil
	}
	if s == nil {
		return decodeAny(v, opts)
	}

	switch s.Kind() {
	case schema.KindRecord:
		o, err := v.Object()
		if err != nil {
			return nil
		}
		r := s.AsRecord()
		out := make(map[string]any, len(r.Fields))
		for i := range r.Fields {
			f := &r.Fields[i]
			out[f.Key] = decodeValue(o.Get(f.Key), f.Value, opts)
		}
		return out
	case schema.KindMap:
		o, err := v.Object()
		if err != nil {
			return nil
		}
		m := s.AsMap()
		out := make(map[string]any, o.Len())
		o.Visit(func(key []byte, val *fastjson.Value) {
			out[string(key)] = decodeValue(val, m.Value, opts)
		})
		return out
	case schema.KindArray:
		items, err := v.Array()
		if err != nil {
			return nil
		}
		a := s.AsArray()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = decodeValue(item, a.Element, opts)
		}
		return out
	case schema.KindValue:
		return decodeScalar(v, s.AsValue(), opts)
	case schema.KindUnion:
		if alt := matchAlternative(v, s.AsUnion()); alt != nil {
			return decodeValue(v, alt, opts)
		}
		return nil
	}

	panic("should be unreachable")
}

func decodeScalar(v *fastjson.Value, s *schema.ValueSchema, opts Options) any {
	switch v.Type() {
	case fastjson.TypeString:
		sb, err := v.StringBytes()
		if err != nil {
			return nil
		}
		str := string(sb)
		if opts.EmptyAsNull && str == "" {
			return nil
		}
		if s.Format != "" {
			if t, err := schema.ParseFormat(str, s.Format); err == nil {
				return t
			}
		}
		return str
	case fastjson.TypeNumber:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}

func decodeAny(v *fastjson.Value, opts Options) any {
	switch v.Type() {
	case fastjson.TypeObject:
		o, err := v.Object()
		if err != nil {
			return nil
		}
		out := make(map[string]any, o.Len())
		o.Visit(func(key []byte, val *fastjson.Value) {
			out[string(key)] = decodeAny(val, opts)
		})
		return out
	case fastjson.TypeArray:
		items, err := v.Array()
		if err != nil {
			return nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = decodeAny(item, opts)
		}
		return out
	case fastjson.TypeString:
		sb, _ := v.StringBytes()
		return string(sb)
	case fastjson.TypeNumber:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}

package schema

import (
	"github.com/valyala/fastjson"
)

// InferBytes parses one JSON document and classifies it into a fresh Schema.
func InferBytes(b []byte, opts *Options) (Schema, error) {
	v, err := fastjson.ParseBytes(b)
	if err != nil {
		return nil, err
	}
	return InferValue(v, opts)
}

// InferValue classifies one parsed JSON value into a fresh Schema, honoring
// the forced-type overrides in opts. The returned node owns no part of v.
func InferValue(v *fastjson.Value, opts *Options) (Schema, error) {
	return inferValue(v, "", opts)
}

func inferValue(v *fastjson.Value, path string, opts *Options) (Schema, error) {
	switch v.Type() {
	case fastjson.TypeObject:
		o, err := v.Object()
		if err != nil {
			return nil, err
		}
		return inferObject(o, path, opts)
	case fastjson.TypeArray:
		a, err := v.Array()
		if err != nil {
			return nil, err
		}
		return inferArray(a, path, opts)
	case fastjson.TypeString:
		sb, err := v.StringBytes()
		if err != nil {
			return nil, err
		}
		return inferString(string(sb)), nil
	case fastjson.TypeNumber:
		return inferNumber(v), nil
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return &ValueSchema{MaybeBool: true}, nil
	case fastjson.TypeNull:
		return &ValueSchema{MaybeNull: true}, nil
	}

	panic("should be unreachable")
}

func inferObject(o *fastjson.Object, path string, opts *Options) (Schema, error) {
	// A forced "map" classification is applied at walk time and stays locked
	// for every later merge of the same path. Forced "record" is the walker's
	// default shape anyway; the finalize pass keeps it from being rewritten.
	if opts.forcedType(path) == "map" {
		return inferForcedMap(o, path, opts)
	}

	n := &RecordSchema{Total: 1}

	var visitErr error
	o.Visit(func(key []byte, v *fastjson.Value) {
		if visitErr != nil {
			return
		}
		child, childErr := inferValue(v, joinPath(path, string(key)), opts)
		if childErr != nil {
			visitErr = childErr
			return
		}
		n.Fields = append(n.Fields, RecordField{Key: string(key), Value: child, Seen: 1})
	})

	return n, visitErr
}

func inferForcedMap(o *fastjson.Object, path string, opts *Options) (Schema, error) {
	n := &MapSchema{}

	var visitErr error
	o.Visit(func(key []byte, v *fastjson.Value) {
		if visitErr != nil {
			return
		}
		// Map keys are data; children share the map's own path.
		child, childErr := inferValue(v, path, opts)
		if childErr != nil {
			visitErr = childErr
			return
		}
		n.Value = merge(n.Value, child, path, opts)
	})

	return n, visitErr
}

func inferArray(vs []*fastjson.Value, path string, opts *Options) (Schema, error) {
	var elem Schema
	for _, v := range vs {
		// elements inherit the array's path so field overrides reach them
		child, err := inferValue(v, path, opts)
		if err != nil {
			return nil, err
		}
		elem = merge(elem, child, path, opts)
	}
	return &ArraySchema{Element: elem}, nil
}

func inferString(s string) Schema {
	return &ValueSchema{MaybeString: true, Format: DetectFormat(s)}
}

func inferNumber(v *fastjson.Value) Schema {
	if _, err := v.Int64(); err == nil {
		return &ValueSchema{MaybeInt: true}
	}
	return &ValueSchema{MaybeFloat: true}
}

package infer

import "fmt"

// SchemaURIAuto lets the emitter pick the draft URI for the dialect it emits.
const SchemaURIAuto = "AUTO"

// Config is the full configuration surface of one inference call. The zero
// value is not useful; start from DefaultConfig.
type Config struct {
	// IgnoreOuterArray treats a top-level array as a stream of sibling
	// documents instead of one array value.
	IgnoreOuterArray bool

	// NDJSON treats each row as newline-delimited JSON, one document per line.
	NDJSON bool

	// MergeSchemas folds all documents into one schema. When false the engine
	// returns one schema per row instead.
	MergeSchemas bool

	// SchemaURI is placed in the emitted JSON Schema's $schema field.
	// SchemaURIAuto resolves to the draft the emitter implements.
	SchemaURI string

	// MapThreshold is the distinct-key cutoff above which an object path is
	// classified as a map. Must be positive.
	MapThreshold int

	// MapMaxRequiredKeys keeps objects with more than this many required keys
	// classified as records. Negative disables the gate.
	MapMaxRequiredKeys int

	// UnifyMaps fuses sibling map value schemas and lets compatible record
	// shapes unify into one map value.
	UnifyMaps bool

	// WrapScalars promotes scalars colliding with records during unification
	// under a synthetic "<field>__<type>" key.
	WrapScalars bool

	// ForceFieldTypes maps a field name or dotted path to "record" or "map".
	ForceFieldTypes map[string]string

	// NoUnify lists field names or dotted paths whose distinct shapes are
	// kept as separate union alternatives.
	NoUnify []string

	// WrapRoot wraps the inferred top-level schema under a single required
	// field with this name.
	WrapRoot string

	// Strict makes a malformed row fail the whole batch. When false the row
	// is skipped and surfaced as a warning.
	Strict bool

	// Debug enables verbose tracing of merge decisions via slog. No
	// behavioral effect.
	Debug bool
}

func DefaultConfig() Config {
	return Config{
		IgnoreOuterArray:   true,
		MergeSchemas:       true,
		SchemaURI:          SchemaURIAuto,
		MapThreshold:       20,
		MapMaxRequiredKeys: -1,
		WrapScalars:        true,
		Strict:             true,
	}
}

// Validate rejects contradictory or out-of-range configuration before any
// inference runs.
func (c *Config) Validate() error {
	if c.MapThreshold <= 0 {
		return &ConfigError{Option: "map_threshold", Msg: fmt.Sprintf("must be positive, got %d", c.MapThreshold)}
	}
	for field, typ := range c.ForceFieldTypes {
		if typ != "record" && typ != "map" {
			return &ConfigError{Option: "force_field_types", Msg: fmt.Sprintf("unknown shape %q for field %q", typ, field)}
		}
	}
	for _, field := range c.NoUnify {
		if _, ok := c.ForceFieldTypes[field]; ok {
			return &ConfigError{Option: "no_unify", Msg: fmt.Sprintf("field %q is also named in force_field_types", field)}
		}
	}
	return nil
}

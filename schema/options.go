package schema

import "strings"

// Options is the per-batch configuration consulted during the walk, the merge
// and the finalize pass. It is treated as immutable context; the only mutable
// part is the Conflicts log, so a single Options value must not be shared by
// concurrent folds.
type Options struct {
	// MapThreshold is the distinct-key cutoff above which an object path is
	// classified as a map instead of a record.
	MapThreshold int

	// MapMaxRequiredKeys gates map classification: an object with more than
	// this many required keys stays a record. Negative disables the gate.
	MapMaxRequiredKeys int

	// UnifyMaps fuses sibling map value schemas at the same path, and allows
	// compatible but non-identical record shapes to unify into one map value.
	UnifyMaps bool

	// WrapScalars promotes a scalar colliding with a record during
	// unification to a singleton record under a synthetic "<field>__<type>"
	// key instead of failing the unification.
	WrapScalars bool

	// ForceFieldTypes maps a field name or dotted path to "record" or "map",
	// overriding the heuristic classification for that path.
	ForceFieldTypes map[string]string

	// NoUnify lists field names or dotted paths exempt from shape collapsing;
	// each distinct shape survives as a separate union alternative.
	NoUnify map[string]bool

	// Conflicts collects non-fatal shape conflict notes. May be nil.
	Conflicts *ConflictLog
}

// Conflict records one non-fatal fallback taken by the merger, such as a union
// formed from incompatible kinds or an observation dropped by a forced type.
type Conflict struct {
	Path   string
	Detail string
}

type ConflictLog struct {
	Conflicts []Conflict
}

func (l *ConflictLog) add(path, detail string) {
	if l == nil {
		return
	}
	l.Conflicts = append(l.Conflicts, Conflict{Path: path, Detail: detail})
}

func (o *Options) forcedType(path string) string {
	if o == nil || len(o.ForceFieldTypes) == 0 || path == "" {
		return ""
	}
	if t, ok := o.ForceFieldTypes[path]; ok {
		return t
	}
	return o.ForceFieldTypes[lastSegment(path)]
}

func (o *Options) noUnify(path string) bool {
	if o == nil || len(o.NoUnify) == 0 || path == "" {
		return false
	}
	return o.NoUnify[path] || o.NoUnify[lastSegment(path)]
}

func (o *Options) unifyMaps() bool { return o != nil && o.UnifyMaps }

func (o *Options) conflicts() *ConflictLog {
	if o == nil {
		return nil
	}
	return o.Conflicts
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

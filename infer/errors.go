package infer

import "fmt"

// ParseError reports a malformed JSON row. Offset is the byte offset of the
// first error inside the row text, or -1 when it could not be located.
type ParseError struct {
	Row    int
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("row %d: invalid JSON at byte %d: %v", e.Row, e.Offset, e.Err)
	}
	return fmt.Sprintf("row %d: invalid JSON: %v", e.Row, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError reports contradictory or invalid configuration. It fails the
// whole call before any inference runs, or immediately after the fold when
// the contradiction is only observable against the data.
type ConfigError struct {
	Option string
	Msg    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Option, e.Msg)
}

// EmptyInputError is returned when a batch holds zero non-null documents; no
// schema can be inferred from nothing.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "no non-null documents to infer a schema from"
}

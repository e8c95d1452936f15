// Package infer orchestrates one schema inference call: it parses a batch of
// document rows, walks each document into a schema node, folds the nodes
// across the batch with a fixed parallel reduction, and finalizes the result.
package infer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	gojson "github.com/goccy/go-json"
	"github.com/valyala/fastjson"

	"github.com/shapestack/jsonshape/schema"
)

// Result is the outcome of one batch. Schema is set when MergeSchemas is on,
// Schemas when it is off. Warnings never abort a batch.
type Result struct {
	Schema         schema.Schema
	Schemas        []schema.Schema
	ProcessedCount int
	Warnings       []schema.Conflict
}

// Infer runs schema inference over a batch of rows. Empty or whitespace-only
// rows stand in for null cells and are skipped. The whole batch either
// completes or fails; there are no partial results.
func Infer(rows []string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.MergeSchemas {
		return inferEach(rows, cfg)
	}

	parts := foldParallel(rows, cfg)

	// Partial accumulators combine pairwise left-to-right over chunk index.
	// Chunks cover ascending contiguous row ranges, so first-seen field order
	// is identical to a sequential fold no matter how many workers ran.
	mergeLog := &schema.ConflictLog{}
	opts := cfg.options(mergeLog)

	var acc schema.Schema
	processed := 0
	var warnings []schema.Conflict
	for i := range parts {
		p := &parts[i]
		if p.err != nil {
			return nil, p.err
		}
		warnings = append(warnings, p.log.Conflicts...)
		acc = schema.Merge(acc, p.acc, opts)
		processed += p.count
	}
	if processed == 0 || acc == nil {
		return nil, &EmptyInputError{}
	}

	if err := checkForcedPaths(acc, cfg); err != nil {
		return nil, err
	}

	acc = schema.Finalize(acc, opts)
	if cfg.WrapRoot != "" {
		acc = wrapRoot(acc, cfg.WrapRoot, processed)
	}
	warnings = append(warnings, mergeLog.Conflicts...)

	if cfg.Debug {
		for _, w := range warnings {
			slog.Debug("shape conflict", "path", w.Path, "detail", w.Detail)
		}
	}

	return &Result{Schema: acc, ProcessedCount: processed, Warnings: warnings}, nil
}

// inferEach skips the fold and returns one finalized schema per row.
func inferEach(rows []string, cfg Config) (*Result, error) {
	log := &schema.ConflictLog{}
	opts := cfg.options(log)

	var p fastjson.Parser
	res := &Result{}
	for i, row := range rows {
		if strings.TrimSpace(row) == "" {
			continue
		}
		s, err := inferRow(&p, row, opts, cfg)
		if err != nil {
			pe := &ParseError{Row: i, Offset: errOffset(row), Err: err}
			if cfg.Strict {
				return nil, pe
			}
			log.Conflicts = append(log.Conflicts, schema.Conflict{Detail: pe.Error()})
			continue
		}
		if s == nil {
			continue
		}
		s = schema.Finalize(s, opts)
		if cfg.WrapRoot != "" {
			s = wrapRoot(s, cfg.WrapRoot, 1)
		}
		res.Schemas = append(res.Schemas, s)
		res.ProcessedCount++
	}
	if res.ProcessedCount == 0 {
		return nil, &EmptyInputError{}
	}
	res.Warnings = log.Conflicts
	return res, nil
}

type partial struct {
	acc   schema.Schema
	count int
	log   schema.ConflictLog
	err   error
}

// foldParallel partitions rows into contiguous chunks, one worker folding
// each chunk sequentially. Each worker owns its accumulator and conflict log
// exclusively until the wait completes; no locking is needed.
func foldParallel(rows []string, cfg Config) []partial {
	if len(rows) == 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(rows) {
		workers = len(rows)
	}
	size := (len(rows) + workers - 1) / workers

	parts := make([]partial, 0, workers)
	var wg sync.WaitGroup
	for lo := 0; lo < len(rows); lo += size {
		hi := lo + size
		if hi > len(rows) {
			hi = len(rows)
		}
		parts = append(parts, partial{})
		p := &parts[len(parts)-1]
		wg.Add(1)
		go func(lo, hi int, p *partial) {
			defer wg.Done()
			p.acc, p.count, p.err = foldChunk(rows[lo:hi], lo, cfg, &p.log)
		}(lo, hi, p)
	}
	wg.Wait()
	return parts
}

func foldChunk(rows []string, baseRow int, cfg Config, log *schema.ConflictLog) (schema.Schema, int, error) {
	opts := cfg.options(log)
	var p fastjson.Parser

	var acc schema.Schema
	count := 0
	for i, row := range rows {
		if strings.TrimSpace(row) == "" {
			continue
		}
		s, err := inferRow(&p, row, opts, cfg)
		if err != nil {
			pe := &ParseError{Row: baseRow + i, Offset: errOffset(row), Err: err}
			if cfg.Strict {
				return nil, count, pe
			}
			log.Conflicts = append(log.Conflicts, schema.Conflict{Detail: pe.Error()})
			continue
		}
		if s == nil {
			// row held no documents at all, e.g. an empty outer array
			continue
		}
		acc = schema.Merge(acc, s, opts)
		count++
	}
	return acc, count, nil
}

func inferRow(p *fastjson.Parser, row string, opts *schema.Options, cfg Config) (schema.Schema, error) {
	if cfg.NDJSON {
		var acc schema.Schema
		for _, line := range strings.Split(row, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			v, err := p.Parse(line)
			if err != nil {
				return nil, err
			}
			s, err := docSchema(v, opts, cfg)
			if err != nil {
				return nil, err
			}
			acc = schema.Merge(acc, s, opts)
		}
		return acc, nil
	}

	v, err := p.Parse(row)
	if err != nil {
		return nil, err
	}
	return docSchema(v, opts, cfg)
}

func docSchema(v *fastjson.Value, opts *schema.Options, cfg Config) (schema.Schema, error) {
	if cfg.IgnoreOuterArray && v.Type() == fastjson.TypeArray {
		items, err := v.Array()
		if err != nil {
			return nil, err
		}
		var acc schema.Schema
		for _, item := range items {
			s, err := schema.InferValue(item, opts)
			if err != nil {
				return nil, err
			}
			acc = schema.Merge(acc, s, opts)
		}
		return acc, nil
	}
	return schema.InferValue(v, opts)
}

// errOffset reparses a bad row to locate the byte offset of the first error.
// fastjson reports context, not positions, so the second parse pays for the
// offset only on the failure path.
func errOffset(row string) int64 {
	var v any
	if err := gojson.Unmarshal([]byte(row), &v); err != nil {
		var syn *gojson.SyntaxError
		if errors.As(err, &syn) {
			return syn.Offset
		}
	}
	return -1
}

func (c *Config) options(log *schema.ConflictLog) *schema.Options {
	noUnify := make(map[string]bool, len(c.NoUnify))
	for _, f := range c.NoUnify {
		noUnify[f] = true
	}
	return &schema.Options{
		MapThreshold:       c.MapThreshold,
		MapMaxRequiredKeys: c.MapMaxRequiredKeys,
		UnifyMaps:          c.UnifyMaps,
		WrapScalars:        c.WrapScalars,
		ForceFieldTypes:    c.ForceFieldTypes,
		NoUnify:            noUnify,
		Conflicts:          log,
	}
}

func wrapRoot(s schema.Schema, key string, processed int) schema.Schema {
	return &schema.RecordSchema{
		Fields: []schema.RecordField{{Key: key, Value: s, Seen: processed}},
		Total:  processed,
	}
}

// checkForcedPaths rejects forced-type overrides that never matched an object
// anywhere in the accumulated schema.
func checkForcedPaths(s schema.Schema, cfg Config) error {
	if len(cfg.ForceFieldTypes) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	collectObjectPaths(s, "", seen)
	for field := range cfg.ForceFieldTypes {
		if !seen[field] {
			return &ConfigError{
				Option: "force_field_types",
				Msg:    fmt.Sprintf("field %q never appears as an object", field),
			}
		}
	}
	return nil
}

func collectObjectPaths(s schema.Schema, path string, seen map[string]bool) {
	if s == nil {
		return
	}
	switch s.Kind() {
	case schema.KindRecord:
		r := s.AsRecord()
		for i := range r.Fields {
			f := &r.Fields[i]
			fp := f.Key
			if path != "" {
				fp = path + "." + f.Key
			}
			if objectLike(f.Value) {
				seen[fp] = true
				seen[f.Key] = true
			}
			collectObjectPaths(f.Value, fp, seen)
		}
	case schema.KindMap:
		collectObjectPaths(s.AsMap().Value, path, seen)
	case schema.KindArray:
		collectObjectPaths(s.AsArray().Element, path, seen)
	case schema.KindUnion:
		for _, alt := range s.AsUnion().Alternatives {
			collectObjectPaths(alt, path, seen)
		}
	}
}

func objectLike(s schema.Schema) bool {
	if s == nil {
		return false
	}
	switch s.Kind() {
	case schema.KindRecord, schema.KindMap:
		return true
	case schema.KindArray:
		return objectLike(s.AsArray().Element)
	case schema.KindUnion:
		for _, alt := range s.AsUnion().Alternatives {
			if objectLike(alt) {
				return true
			}
		}
	}
	return false
}

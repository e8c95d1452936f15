package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/shapestack/jsonshape/avro"
	"github.com/shapestack/jsonshape/coltypes"
	"github.com/shapestack/jsonshape/infer"
	"github.com/shapestack/jsonshape/jsonschema"
	"github.com/shapestack/jsonshape/normalise"
	"github.com/shapestack/jsonshape/schema"
)

func main() {
	_ = godotenv.Load()

	ndjson := flag.Bool("ndjson", false, "treat input as newline-delimited JSON, one document per line")
	noIgnoreArray := flag.Bool("no-ignore-array", false, "treat a top-level array as one value instead of a document stream")
	noMerge := flag.Bool("no-merge", false, "emit one schema per document instead of a merged schema")
	mapThreshold := flag.Int("map-threshold", 20, "distinct key count above which homogeneous objects become maps")
	mapMaxRequired := flag.Int("map-max-required-keys", -1, "objects with at most this many required keys may still become maps (-1 disables the gate)")
	unifyMaps := flag.Bool("unify-maps", false, "unify compatible record shapes when merging map values")
	noWrapScalars := flag.Bool("no-wrap-scalars", false, "disable scalar promotion during map unification")
	forceTypes := flag.String("force-type", "", "comma separated field:kind overrides, e.g. labels:map,mainsnak:record")
	noUnify := flag.String("no-unify", "", "comma separated fields kept as separate union alternatives")
	wrapRoot := flag.String("wrap-root", "", "wrap the schema under a single required field with this name")
	schemaURI := flag.String("schema-uri", infer.SchemaURIAuto, "value for $schema, AUTO picks the emitter's draft, empty omits it")
	title := flag.String("title", "", "schema title")
	description := flag.String("description", "", "schema description")
	emitAvro := flag.Bool("avro", false, "emit an Avro schema instead of JSON Schema")
	avroName := flag.String("avro-name", "document", "root record name for Avro output")
	avroNamespace := flag.String("avro-namespace", "", "namespace for Avro output")
	doNormalise := flag.Bool("normalise", false, "emit normalised documents instead of a schema")
	mapEncoding := flag.String("map-encoding", "mapping", "map output encoding: mapping, entries or kv")
	coerceStrings := flag.Bool("coerce-strings", false, "parse numeric and boolean strings when normalising")
	keepEmpty := flag.Bool("keep-empty", false, "keep empty strings, arrays and objects instead of rewriting them to null")
	emitFields := flag.Bool("fields", false, "emit an ordered name/dtype field listing instead of a full schema")
	lenient := flag.Bool("lenient", false, "skip malformed rows instead of failing the batch")
	debug := flag.Bool("debug", false, "verbose merge tracing")
	flag.Parse()

	if err := setupLogging(getEnv("JSONSHAPE_LOG", "info"), *debug); err != nil {
		slog.Error("could not init logging", "err", err)
		os.Exit(1)
	}

	input, err := readInput(flag.Arg(0))
	if err != nil {
		slog.Error("could not read input", "err", err)
		os.Exit(1)
	}

	cfg := infer.DefaultConfig()
	cfg.NDJSON = *ndjson
	cfg.IgnoreOuterArray = !*noIgnoreArray
	cfg.MergeSchemas = !*noMerge
	cfg.MapThreshold = *mapThreshold
	cfg.MapMaxRequiredKeys = *mapMaxRequired
	cfg.UnifyMaps = *unifyMaps
	cfg.WrapScalars = !*noWrapScalars
	cfg.ForceFieldTypes = parseForceTypes(*forceTypes)
	cfg.NoUnify = splitList(*noUnify)
	cfg.WrapRoot = *wrapRoot
	cfg.SchemaURI = *schemaURI
	cfg.Strict = !*lenient
	cfg.Debug = *debug

	res, err := infer.Infer([]string{input}, cfg)
	if err != nil {
		slog.Error("inference failed", "err", err)
		os.Exit(1)
	}
	for _, c := range res.Warnings {
		slog.Warn("shape conflict", "path", c.Path, "detail", c.Detail)
	}

	if *doNormalise {
		opts := normalise.DefaultOptions()
		opts.CoerceStrings = *coerceStrings
		opts.EmptyAsNull = !*keepEmpty
		opts.WrapRoot = *wrapRoot
		enc, ok := parseMapEncoding(*mapEncoding)
		if !ok {
			slog.Error("invalid map encoding, want mapping, entries or kv", "got", *mapEncoding)
			os.Exit(1)
		}
		opts.MapEncoding = enc

		if err := writeNormalised(os.Stdout, input, res.Schema, opts, cfg); err != nil {
			slog.Error("normalisation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	schemas := []schema.Schema{res.Schema}
	if !cfg.MergeSchemas {
		schemas = res.Schemas
	}

	for _, s := range schemas {
		var out []byte
		switch {
		case *emitFields:
			out, err = gojson.Marshal(coltypes.Fields(s))
		case *emitAvro:
			out, err = avro.Emit(s, avro.Options{Name: *avroName, Namespace: *avroNamespace})
		default:
			out, err = jsonschema.Emit(s, jsonschema.Options{
				SchemaURI:   cfg.SchemaURI,
				Title:       *title,
				Description: *description,
			})
		}
		if err != nil {
			slog.Error("emission failed", "err", err)
			os.Exit(1)
		}
		if out, err = indent(out); err != nil {
			slog.Error("emission failed", "err", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	}
}

func writeNormalised(w io.Writer, input string, s schema.Schema, opts normalise.Options, cfg infer.Config) error {
	docs := []string{input}
	if cfg.NDJSON {
		docs = docs[:0]
		for _, line := range strings.Split(input, "\n") {
			if strings.TrimSpace(line) != "" {
				docs = append(docs, line)
			}
		}
	}
	for _, doc := range docs {
		out, err := normalise.Normalise([]byte(doc), s, opts)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", out); err != nil {
			return err
		}
	}
	return nil
}

func parseMapEncoding(s string) (normalise.MapEncoding, bool) {
	switch s {
	case "mapping":
		return normalise.MapEncodingMapping, true
	case "entries":
		return normalise.MapEncodingEntries, true
	case "kv":
		return normalise.MapEncodingKeyValue, true
	}
	return 0, false
}

func parseForceTypes(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		if field, kind, ok := strings.Cut(pair, ":"); ok {
			out[strings.TrimSpace(field)] = strings.TrimSpace(kind)
		}
	}
	return out
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func indent(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := gojson.Indent(&buf, b, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setupLogging(level string, debug bool) error {
	var logLevel slog.Level
	err := logLevel.UnmarshalText([]byte(level))
	if debug {
		logLevel = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
	return err
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/negroni"

	"github.com/shapestack/jsonshape/avro"
	"github.com/shapestack/jsonshape/coltypes"
	"github.com/shapestack/jsonshape/infer"
	"github.com/shapestack/jsonshape/jsonschema"
	"github.com/shapestack/jsonshape/normalise"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsonshape_requests_total",
		Help: "Requests handled, by route and status.",
	}, []string{"route", "status"})

	documentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jsonshape_documents_total",
		Help: "Documents folded into schemas.",
	})

	inferSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jsonshape_infer_duration_seconds",
		Help:    "Wall time spent inferring a schema per request.",
		Buckets: prometheus.DefBuckets,
	})
)

func main() {
	_ = godotenv.Load()

	host := flag.String("h", getEnv("JSONSHAPE_HOST", ""), "the host to listen on")
	port := flag.String("p", getEnv("JSONSHAPE_PORT", "8080"), "the port to listen on")
	flag.Parse()

	if err := setupLogging(getEnv("JSONSHAPE_LOG", "info")); err != nil {
		slog.Error("could not init logging", "err", err)
		return
	}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/healthz", healthz).Methods("GET")
	router.HandleFunc("/v1/schema", inferSchema).Methods("POST")
	router.HandleFunc("/v1/normalise", normaliseDocs).Methods("POST")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	n := negroni.New(negroni.NewRecovery())
	n.Use(negroni.HandlerFunc(logMiddleware))
	n.UseHandler(router)

	addr := fmt.Sprintf("%s:%s", *host, *port)
	slog.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, n); err != nil {
		slog.Error("server stopped", "err", err)
	}
}

func logMiddleware(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	id := uuid.NewString()
	ww := negroni.NewResponseWriter(w)
	start := time.Now()
	next(ww, r)
	requestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(ww.Status())).Inc()
	slog.Info("request",
		"id", id, "method", r.Method, "path", r.URL.Path,
		"status", ww.Status(), "dur", time.Since(start))
}

func healthz(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

// inferSchema folds the request body, one JSON document per line, into a
// merged schema. Options arrive as query parameters.
func inferSchema(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := configFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	res, err := infer.Infer([]string{string(body)}, cfg)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	inferSeconds.Observe(time.Since(start).Seconds())
	documentsTotal.Add(float64(res.ProcessedCount))

	var out []byte
	switch r.URL.Query().Get("output") {
	case "avro":
		out, err = avro.Emit(res.Schema, avro.Options{
			Name:      queryDefault(r, "avro_name", "document"),
			Namespace: r.URL.Query().Get("avro_namespace"),
		})
	case "fields":
		out, err = gojson.Marshal(coltypes.Fields(res.Schema))
	default:
		out, err = jsonschema.Emit(res.Schema, jsonschema.Options{
			SchemaURI:   cfg.SchemaURI,
			Title:       r.URL.Query().Get("title"),
			Description: r.URL.Query().Get("description"),
		})
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(out)
	w.Write([]byte("\n"))
}

// normaliseDocs infers a schema from the body, then writes each input line
// back out normalised against it, one JSON document per line.
func normaliseDocs(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := configFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	res, err := infer.Infer([]string{string(body)}, cfg)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	inferSeconds.Observe(time.Since(start).Seconds())
	documentsTotal.Add(float64(res.ProcessedCount))

	opts := normalise.DefaultOptions()
	opts.CoerceStrings = queryBool(r, "coerce_strings")
	opts.EmptyAsNull = !queryBool(r, "keep_empty")
	opts.WrapRoot = cfg.WrapRoot
	switch enc := queryDefault(r, "map_encoding", "mapping"); enc {
	case "mapping":
		opts.MapEncoding = normalise.MapEncodingMapping
	case "entries":
		opts.MapEncoding = normalise.MapEncodingEntries
	case "kv":
		opts.MapEncoding = normalise.MapEncodingKeyValue
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid map_encoding %q", enc))
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	for _, line := range strings.Split(string(body), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out, err := normalise.Normalise([]byte(line), res.Schema, opts)
		if err != nil {
			// schema came from the same body, so a parse failure here means
			// strict mode already rejected the batch
			continue
		}
		w.Write(out)
		w.Write([]byte("\n"))
	}
}

func configFromQuery(r *http.Request) (infer.Config, error) {
	cfg := infer.DefaultConfig()
	cfg.NDJSON = true
	q := r.URL.Query()

	if v := q.Get("map_threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid map_threshold %q", v)
		}
		cfg.MapThreshold = n
	}
	if v := q.Get("map_max_required_keys"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid map_max_required_keys %q", v)
		}
		cfg.MapMaxRequiredKeys = n
	}
	cfg.UnifyMaps = queryBool(r, "unify_maps")
	if queryBool(r, "no_wrap_scalars") {
		cfg.WrapScalars = false
	}
	if queryBool(r, "lenient") {
		cfg.Strict = false
	}
	cfg.WrapRoot = q.Get("wrap_root")
	if v := q.Get("schema_uri"); v != "" {
		cfg.SchemaURI = v
	}
	if v := q.Get("force_type"); v != "" {
		cfg.ForceFieldTypes = make(map[string]string)
		for _, pair := range strings.Split(v, ",") {
			field, kind, ok := strings.Cut(pair, ":")
			if !ok {
				return cfg, fmt.Errorf("invalid force_type entry %q", pair)
			}
			cfg.ForceFieldTypes[strings.TrimSpace(field)] = strings.TrimSpace(kind)
		}
	}
	if v := q.Get("no_unify"); v != "" {
		for _, f := range strings.Split(v, ",") {
			cfg.NoUnify = append(cfg.NoUnify, strings.TrimSpace(f))
		}
	}
	return cfg, nil
}

func queryBool(r *http.Request, key string) bool {
	v := r.URL.Query().Get(key)
	return v == "1" || v == "true"
}

func queryDefault(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func statusFor(err error) int {
	var cfgErr *infer.ConfigError
	var parseErr *infer.ParseError
	var emptyErr *infer.EmptyInputError
	if errors.As(err, &cfgErr) || errors.As(err, &parseErr) || errors.As(err, &emptyErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	gojson.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func setupLogging(level string) error {
	var logLevel slog.Level
	err := logLevel.UnmarshalText([]byte(level))
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

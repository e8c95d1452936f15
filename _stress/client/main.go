package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shapestack/jsonshape/_stress/fake"
)

func main() {
	url := flag.String("url", "http://localhost:8080/v1/schema", "inference endpoint to hammer")
	batch := flag.Int("batch", 100, "documents per request")
	workers := flag.Int("workers", 1, "concurrent callers")
	flag.Parse()

	for i := 1; i < *workers; i++ {
		go caller(*url, *batch)
	}
	caller(*url, *batch)
}

func caller(url string, batch int) {
	buf := &bytes.Buffer{}
	for {
		buf.Reset()
		call(buf, url, batch)
	}
}

func call(buf *bytes.Buffer, url string, batch int) {
	enc := json.NewEncoder(buf)
	for i := 0; i < batch; i++ {
		obj := fake.Document()
		if err := enc.Encode(&obj); err != nil {
			panic(err)
		}
	}

	req, err := http.NewRequest(http.MethodPost, url, buf)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	res, err := http.DefaultClient.Do(req)
	if res != nil {
		defer res.Body.Close()
	}
	if err != nil {
		panic(err)
	}

	_, err = io.Copy(io.Discard, res.Body)
	slog.Info("completed request", "url", url, "status", res.StatusCode)

	time.Sleep(10 * time.Millisecond)
}

package fake

import (
	"fmt"
	"math/rand"
	"time"
)

// Document produces a random heterogeneous JSON document. Field presence,
// scalar kinds and nesting vary between calls so a batch exercises merging,
// optional field tracking and union formation.
func Document() map[string]any {
	obj := map[string]any{
		"id":   String(8),
		"name": String(4 + rand.Intn(12)),
	}
	if rand.Intn(100) < 70 {
		obj["age"] = rand.Intn(90)
	}
	if rand.Intn(100) < 30 {
		// occasionally a string where a number usually lives
		obj["age"] = fmt.Sprint(rand.Intn(90))
	}
	if rand.Intn(100) < 50 {
		obj["score"] = rand.Float64() * 100
	}
	if rand.Intn(100) < 40 {
		obj["joined"] = time.Unix(rand.Int63n(1_700_000_000), 0).UTC().Format("2006-01-02")
	}
	if rand.Intn(100) < 60 {
		obj["tags"] = stringList(rand.Intn(5))
	}
	if rand.Intn(100) < 50 {
		obj["labels"] = labelMap(rand.Intn(30))
	}
	if rand.Intn(100) < 40 {
		obj["address"] = nested(0, 3)
	}
	return obj
}

func nested(depth, maxDepth int) map[string]any {
	obj := map[string]any{
		"street": String(8 + rand.Intn(16)),
		"city":   String(4 + rand.Intn(8)),
	}
	if depth+1 < maxDepth && rand.Intn(100) < 30 {
		obj["geo"] = nested(depth+1, maxDepth)
	}
	return obj
}

func labelMap(n int) map[string]any {
	m := make(map[string]any, n)
	for i := 0; i < n; i++ {
		m[String(2+rand.Intn(10))] = String(1 + rand.Intn(20))
	}
	return m
}

func stringList(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = String(1 + rand.Intn(10))
	}
	return out
}

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

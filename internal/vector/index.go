// Package vector provides vector indexing and similarity search over record embeddings.
package vector

import "context"

// Filter restricts a search to records for which it returns true.
// A nil Filter matches everything.
type Filter func(id string) bool

// Index defines vector storage and filtered similarity search.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int, filter Filter) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Size() int
	Close() error
}

// Result is a single vector search hit.
type Result struct {
	ID    string
	Score float64 // Inner product; equals cosine similarity for normalized vectors.
}

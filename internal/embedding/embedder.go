package embedding

import (
	"context"
	"fmt"

	"aura/internal/domain"
)

// DefaultQueryPrefix is the BGE retrieval instruction. Only queries carry it;
// document vectors are built from the bare chunk text.
const DefaultQueryPrefix = "Represent this sentence for retrieval: "

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder = domain.Embedder

// QueryEmbedder encodes queries with the retrieval instruction prefix.
type QueryEmbedder struct {
	inner  Embedder
	prefix string
}

// NewQueryEmbedder wraps inner so every query is prefixed before encoding.
func NewQueryEmbedder(inner Embedder, prefix string) *QueryEmbedder {
	return &QueryEmbedder{inner: inner, prefix: prefix}
}

// Embed encodes prefix+query.
func (q *QueryEmbedder) Embed(ctx context.Context, query string) ([]float32, error) {
	v, err := q.inner.Embed(ctx, q.prefix+query)
	if err != nil {
		return nil, fmt.Errorf("embed query with %s: %w", q.inner.Name(), err)
	}
	return v, nil
}

// Name returns the wrapped embedder's name.
func (q *QueryEmbedder) Name() string { return q.inner.Name() }

// EmbedDocuments encodes chunk texts without any prefix.
func EmbedDocuments(ctx context.Context, e Embedder, texts []string, progress func(done, total int)) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embed document %d: %w", i, err)
		}
		out[i] = v
		if progress != nil {
			progress(i+1, len(texts))
		}
	}
	return out, nil
}

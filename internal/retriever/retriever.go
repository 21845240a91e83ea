// Package retriever turns a query into ranked corpus passages.
package retriever

import (
	"context"
	"fmt"

	"aura/internal/domain"
)

// QueryEncoder embeds a query. embedding.QueryEmbedder satisfies it.
type QueryEncoder interface {
	Embed(ctx context.Context, query string) ([]float32, error)
}

// Retriever runs embed, search and heading reconstruction. It never
// re-ranks what the index returns.
type Retriever struct {
	encoder   QueryEncoder
	index     domain.VectorIndex
	dimension int
}

var _ domain.Retriever = (*Retriever)(nil)

// New returns a Retriever. dimension is the corpus vector width; zero skips the check.
func New(encoder QueryEncoder, index domain.VectorIndex, dimension int) *Retriever {
	return &Retriever{encoder: encoder, index: index, dimension: dimension}
}

// Retrieve returns at most k results ordered by ascending distance, ranked from 1.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if r.index.Len() == 0 {
		return []domain.RetrievalResult{}, nil
	}

	vec, err := r.encoder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if r.dimension > 0 && len(vec) != r.dimension {
		return nil, fmt.Errorf("%w: query vector has %d, corpus has %d", domain.ErrDimensionMismatch, len(vec), r.dimension)
	}

	hits, err := r.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: search: %w", err)
	}
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]domain.RetrievalResult, len(hits))
	for i, h := range hits {
		out[i] = domain.RetrievalResult{
			Chunk:    h.Entry.Chunk,
			Heading:  h.Entry.Chunk.Heading(),
			Rank:     i + 1,
			Distance: h.Distance,
		}
	}
	return out, nil
}

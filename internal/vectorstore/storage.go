package vectorstore

import (
	"context"
	"fmt"

	"aura/internal/corpus"
	"aura/internal/domain"
)

// Storage persists corpus entries and answers nearest-neighbour queries
// using squared Euclidean distance, closest first.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, entries []domain.Entry) error
	Search(ctx context.Context, vector []float32, topK int) ([]domain.Hit, error)
	Len() int
}

// Build initialises st and loads every entry of c into it.
func Build(ctx context.Context, st Storage, c *corpus.Corpus) error {
	if c.Len() == 0 {
		return nil
	}
	if err := st.Init(ctx, c.Dimension()); err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	if err := st.Upsert(ctx, c.Entries()); err != nil {
		return fmt.Errorf("upsert corpus: %w", err)
	}
	return nil
}

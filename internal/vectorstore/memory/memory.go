package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"aura/internal/domain"
)

// Storage is an exact in-memory index using brute-force squared Euclidean distance.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	entries   []domain.Entry
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.entries = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, entries []domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("%w: entry %d has %d, want %d", domain.ErrDimensionMismatch, e.Position, len(e.Vector), s.dimension)
		}
	}
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Search returns up to topK entries ordered by ascending distance. Exact
// ties keep insertion order.
func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return []domain.Hit{}, nil
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	dists := make([]float64, len(s.entries))
	for i := range s.entries {
		dists[i] = squaredL2(s.entries[i].Vector, vector)
	}
	idxs := make([]int, len(dists))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return dists[idxs[a]] < dists[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	hits := make([]domain.Hit, 0, topK)
	for _, j := range idxs[:topK] {
		hits = append(hits, domain.Hit{Entry: s.entries[j], Distance: dists[j]})
	}
	return hits, nil
}

func squaredL2(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

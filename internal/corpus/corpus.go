// Package corpus loads the precomputed chunk and embedding artifacts into an
// immutable set of entries, each holding a chunk together with its vector.
package corpus

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"aura/internal/domain"
)

// chunkNamespace scopes the name-based IDs given to chunks without one.
var chunkNamespace = uuid.MustParse("6f1d3c2a-8b4e-4f1a-9c7d-2e5b8a0f4d31")

// Corpus is the read-only set of loaded entries.
type Corpus struct {
	entries   []domain.Entry
	dimension int
}

// New pairs chunks with vectors by position. Both slices must have the
// same length and every vector the same non-zero dimension.
func New(source string, chunks []domain.Chunk, vectors [][]float32) (*Corpus, error) {
	if len(chunks) != len(vectors) {
		return nil, &domain.LoadError{
			Path:   source,
			Reason: fmt.Sprintf("chunk count %d does not match embedding count %d", len(chunks), len(vectors)),
		}
	}
	c := &Corpus{entries: make([]domain.Entry, len(chunks))}
	for i := range chunks {
		v := vectors[i]
		if len(v) == 0 {
			return nil, &domain.LoadError{Path: source, Reason: fmt.Sprintf("empty embedding at position %d", i)}
		}
		if c.dimension == 0 {
			c.dimension = len(v)
		} else if len(v) != c.dimension {
			return nil, &domain.LoadError{
				Path:   source,
				Reason: fmt.Sprintf("embedding at position %d has dimension %d, want %d", i, len(v), c.dimension),
			}
		}
		ch := chunks[i]
		if ch.ID == "" {
			ch.ID = chunkID(i, ch)
		}
		c.entries[i] = domain.Entry{Position: i, Chunk: ch, Vector: v}
	}
	return c, nil
}

func chunkID(position int, ch domain.Chunk) string {
	name := strconv.Itoa(position) + "\x00" + ch.PaperTitle + "\x00" + ch.Text
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// Len returns the number of entries.
func (c *Corpus) Len() int { return len(c.entries) }

// Dimension returns the embedding dimension, or 0 for an empty corpus.
func (c *Corpus) Dimension() int { return c.dimension }

// Entries returns the entries in load order. Callers must not modify them.
func (c *Corpus) Entries() []domain.Entry { return c.entries }

// Entry returns the entry at position i.
func (c *Corpus) Entry(i int) (domain.Entry, bool) {
	if i < 0 || i >= len(c.entries) {
		return domain.Entry{}, false
	}
	return c.entries[i], true
}

// Texts returns every chunk text in load order.
func (c *Corpus) Texts() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Chunk.Text
	}
	return out
}

// Papers lists distinct paper titles in order of first appearance.
func (c *Corpus) Papers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range c.entries {
		t := e.Chunk.PaperTitle
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

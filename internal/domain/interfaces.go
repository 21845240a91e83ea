package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex answers nearest-neighbour queries over the loaded corpus.
// Hits are ordered closest first.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
	Len() int
}

// Generator is the generative model capability.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever returns ranked retrieval results for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]RetrievalResult, error)
}

// Classifier decides whether a query needs retrieval.
type Classifier interface {
	Classify(ctx context.Context, query string) Route
}

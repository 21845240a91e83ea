package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"The Transformer uses multi-head self-attention.",
	"Recurrent networks process tokens sequentially.",
	"Positional encodings inject order information.",
}

func norm(v []float32) float64 {
	s := 0.0
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestEmbedRequiresPrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestPrepareRejectsEmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder().Prepare(nil))
	assert.Error(t, NewEmbedder().Prepare([]string{"the and of"}))
}

func TestEmbedIsNormalisedAndDeterministic(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	require.Positive(t, e.Dimension())

	a, err := e.Embed(context.Background(), corpus[0])
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), corpus[0])
	require.NoError(t, err)

	assert.Len(t, a, e.Dimension())
	assert.InDelta(t, 1.0, norm(a), 1e-5)
	assert.Equal(t, a, b)
}

func TestUnknownTermsYieldZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	v, err := e.Embed(context.Background(), "zebra quokka")
	require.NoError(t, err)
	assert.InDelta(t, 0, norm(v), 1e-9)
}

func TestSimilarTextsAreCloser(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	q, err := e.Embed(context.Background(), "how do positional encodings work")
	require.NoError(t, err)
	near, err := e.Embed(context.Background(), corpus[2])
	require.NoError(t, err)
	far, err := e.Embed(context.Background(), corpus[1])
	require.NoError(t, err)

	assert.Less(t, dist(q, near), dist(q, far))
}

func dist(a, b []float32) float64 {
	s := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return s
}

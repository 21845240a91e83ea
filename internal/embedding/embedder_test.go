package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmbedder struct {
	inputs []string
	err    error
}

func (r *recordingEmbedder) Name() string             { return "recording" }
func (r *recordingEmbedder) Prepare(_ []string) error { return nil }
func (r *recordingEmbedder) Dimension() int           { return 1 }
func (r *recordingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	r.inputs = append(r.inputs, text)
	if r.err != nil {
		return nil, r.err
	}
	return []float32{float32(len(text))}, nil
}

func TestQueryEmbedderAppliesPrefix(t *testing.T) {
	inner := &recordingEmbedder{}
	q := NewQueryEmbedder(inner, DefaultQueryPrefix)

	_, err := q.Embed(context.Background(), "what is attention?")
	require.NoError(t, err)
	assert.Equal(t, []string{"Represent this sentence for retrieval: what is attention?"}, inner.inputs)
	assert.Equal(t, "recording", q.Name())
}

func TestEmbedDocumentsHasNoPrefix(t *testing.T) {
	inner := &recordingEmbedder{}
	var calls []int

	vecs, err := EmbedDocuments(context.Background(), inner, []string{"a", "bb"}, func(done, _ int) { calls = append(calls, done) })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "bb"}, inner.inputs)
	assert.Equal(t, [][]float32{{1}, {2}}, vecs)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestQueryEmbedderWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	q := NewQueryEmbedder(&recordingEmbedder{err: boom}, "p: ")

	_, err := q.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	_, err = EmbedDocuments(context.Background(), &recordingEmbedder{err: boom}, []string{"x"}, nil)
	assert.ErrorIs(t, err, boom)
}

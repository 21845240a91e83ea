package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/assembler"
	"aura/internal/conversation"
	"aura/internal/domain"
	"aura/internal/retriever"
	"aura/internal/vectorstore/memory"
)

type fixedClassifier domain.Route

func (f fixedClassifier) Classify(context.Context, string) domain.Route { return domain.Route(f) }

type countingRetriever struct {
	results []domain.RetrievalResult
	err     error
	calls   int
}

func (c *countingRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievalResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if k < len(c.results) {
		return c.results[:k], nil
	}
	return c.results, nil
}

type recordingGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (r *recordingGenerator) Name() string { return "recording" }

func (r *recordingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if r.err != nil {
		return "", r.err
	}
	return r.reply, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newPipeline(route domain.Route, ret domain.Retriever, gen *recordingGenerator, topK int) *Pipeline {
	p := NewPipeline(fixedClassifier(route), ret, assembler.New(0), gen, Options{TopK: topK, GenerationTimeout: time.Second}, quietLogger())
	p.newID = func() string { return "turn-id" }
	return p
}

func TestOpenRouteSkipsRetrieval(t *testing.T) {
	ret := &countingRetriever{}
	gen := &recordingGenerator{reply: " Normal Route: hello \n"}
	state := conversation.New()

	turn, err := newPipeline(domain.RouteOpen, ret, gen, 5).HandleTurn(context.Background(), "hi there", state)
	require.NoError(t, err)

	assert.Equal(t, 0, ret.calls)
	assert.Equal(t, domain.RouteOpen, turn.Route)
	assert.Equal(t, 0, turn.ChunksUsed)
	assert.Equal(t, "Normal Route: hello", turn.BotResponse)
	assert.Equal(t, "turn-id", turn.ID)
	assert.False(t, turn.Failed)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Normal Route")
	assert.Contains(t, gen.prompts[0], "[Previous conversation]\nNone")
	assert.Equal(t, 1, state.Len())
}

func TestBlankQueryIsRejected(t *testing.T) {
	gen := &recordingGenerator{reply: "x"}
	state := conversation.New()

	_, err := newPipeline(domain.RouteGrounded, &countingRetriever{}, gen, 5).HandleTurn(context.Background(), "   ", state)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, state.Len())
	assert.Empty(t, gen.prompts)
}

func TestGenerationFailureAppendsFailedTurn(t *testing.T) {
	ret := &countingRetriever{results: []domain.RetrievalResult{
		{Chunk: domain.Chunk{PaperTitle: "P", Text: "a"}, Rank: 1},
		{Chunk: domain.Chunk{PaperTitle: "P", Text: "b"}, Rank: 2},
		{Chunk: domain.Chunk{PaperTitle: "P", Text: "c"}, Rank: 3},
	}}
	gen := &recordingGenerator{err: errors.New("upstream exploded")}
	state := conversation.New()

	turn, err := newPipeline(domain.RouteGrounded, ret, gen, 3).HandleTurn(context.Background(), "what?", state)
	require.NoError(t, err)

	assert.True(t, turn.Failed)
	assert.NotEmpty(t, turn.BotResponse)
	assert.Contains(t, turn.BotResponse, "upstream exploded")
	assert.Equal(t, 3, turn.ChunksUsed)
	assert.Equal(t, 1, state.Len())
	assert.Equal(t, conversation.Stats{Total: 1, Grounded: 1, Failed: 1}, state.Stats())
}

func TestGenerationTimeoutMessage(t *testing.T) {
	gen := &recordingGenerator{err: context.DeadlineExceeded}
	state := conversation.New()

	turn, err := newPipeline(domain.RouteOpen, &countingRetriever{}, gen, 5).HandleTurn(context.Background(), "slow?", state)
	require.NoError(t, err)
	assert.True(t, turn.Failed)
	assert.Contains(t, turn.BotResponse, "did not answer within 1s")
}

func TestRetrievalFailureAppendsFailedTurn(t *testing.T) {
	ret := &countingRetriever{err: domain.ErrDimensionMismatch}
	gen := &recordingGenerator{reply: "unused"}
	state := conversation.New()

	turn, err := newPipeline(domain.RouteGrounded, ret, gen, 5).HandleTurn(context.Background(), "q", state)
	require.NoError(t, err)
	assert.True(t, turn.Failed)
	assert.Equal(t, 0, turn.ChunksUsed)
	assert.Empty(t, gen.prompts)
	assert.Equal(t, 1, state.Len())
}

func TestEmptyRetrievalUsesMarker(t *testing.T) {
	gen := &recordingGenerator{reply: "RAG Route: nothing"}
	state := conversation.New()

	turn, err := newPipeline(domain.RouteGrounded, &countingRetriever{}, gen, 5).HandleTurn(context.Background(), "q", state)
	require.NoError(t, err)
	assert.Equal(t, 0, turn.ChunksUsed)
	assert.Contains(t, gen.prompts[0], "[Context]\n"+assembler.NoContextMarker)
}

func TestHistoryIsReplayed(t *testing.T) {
	gen := &recordingGenerator{reply: "second answer"}
	state := conversation.New()
	state.Append(domain.Turn{UserMessage: "first", BotResponse: "first answer"})

	_, err := newPipeline(domain.RouteOpen, &countingRetriever{}, gen, 5).HandleTurn(context.Background(), "second", state)
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "User: first\nAssistant: first answer")
	assert.Equal(t, 2, state.Len())
}

func TestGroundedTurnEndToEnd(t *testing.T) {
	store := memory.NewStorage()
	require.NoError(t, store.Init(context.Background(), 5))
	entries := make([]domain.Entry, 5)
	for i := range entries {
		vec := make([]float32, 5)
		vec[i] = 1
		entries[i] = domain.Entry{
			Position: i,
			Chunk: domain.Chunk{
				ID:         fmt.Sprintf("c%d", i+1),
				Text:       fmt.Sprintf("chunk %d body", i+1),
				PaperTitle: "Attention Is All You Need",
				Authors:    []string{"Vaswani"},
				Section:    "Model",
				Subsection: fmt.Sprintf("Part %d", i+1),
			},
			Vector: vec,
		}
	}
	require.NoError(t, store.Upsert(context.Background(), entries))

	enc := encoderFunc(func(string) []float32 { return []float32{0, 0, 1, 0.1, 0} })
	ret := retriever.New(enc, store, 5)
	gen := &recordingGenerator{reply: "RAG Route: part three"}
	state := conversation.New()

	turn, err := newPipeline(domain.RouteGrounded, ret, gen, 2).HandleTurn(context.Background(), "tell me about part 3", state)
	require.NoError(t, err)

	assert.Equal(t, 2, turn.ChunksUsed)
	assert.Equal(t, domain.RouteGrounded, turn.Route)
	require.Len(t, turn.Sources, 2)
	assert.Equal(t, "Model > Part 3", turn.Sources[0].Heading)

	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Paper Title: Attention Is All You Need\nHeading: Model > Part 3")
	assert.Less(t, strings.Index(prompt, "chunk 3 body"), strings.Index(prompt, "chunk 4 body"))
	assert.Contains(t, prompt, "RAG Route")
	assert.Contains(t, prompt, InsufficientContext)
	assert.Contains(t, prompt, "Sources Referenced")
}

type encoderFunc func(string) []float32

func (f encoderFunc) Embed(_ context.Context, q string) ([]float32, error) { return f(q), nil }


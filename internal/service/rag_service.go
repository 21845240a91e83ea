// Package service runs one conversational turn end to end: route, retrieve,
// assemble, generate, record.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"aura/internal/assembler"
	"aura/internal/conversation"
	"aura/internal/domain"
	"aura/internal/generation"
)

// DefaultTopK is the number of chunks retrieved for a grounded turn.
const DefaultTopK = 5

// Options tunes a Pipeline. Zero values fall back to defaults.
type Options struct {
	TopK              int
	GenerationTimeout time.Duration
}

// Pipeline holds everything a turn needs except the conversation, which is
// passed per call.
type Pipeline struct {
	classifier domain.Classifier
	retriever  domain.Retriever
	assembler  *assembler.Assembler
	gen        generation.Generator
	topK       int
	timeout    time.Duration
	log        *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewPipeline(
	classifier domain.Classifier,
	retriever domain.Retriever,
	asm *assembler.Assembler,
	gen generation.Generator,
	opts Options,
	log *slog.Logger,
) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if asm == nil {
		asm = assembler.New(0)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		classifier: classifier,
		retriever:  retriever,
		assembler:  asm,
		gen:        gen,
		topK:       opts.TopK,
		timeout:    opts.GenerationTimeout,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// HandleTurn resolves query against the conversation and appends the
// resulting turn to state. Retrieval and generation failures produce a
// failed turn rather than an error; only a blank query is rejected, and then
// nothing is appended.
func (p *Pipeline) HandleTurn(ctx context.Context, query string, state *conversation.State) (domain.Turn, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Turn{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	started := p.now()
	route := p.classifier.Classify(ctx, query)
	history := state.History()
	log := p.log.With("turn_route", route.String())

	turn := domain.Turn{
		ID:          p.newID(),
		UserMessage: query,
		Route:       route,
	}

	var prompt string
	switch route {
	case domain.RouteGrounded:
		results, err := p.retriever.Retrieve(ctx, query, p.topK)
		if err != nil {
			log.Error("retrieval failed", "error", err)
			return p.fail(state, turn, err), nil
		}
		turn.ChunksUsed = len(results)
		turn.Sources = assembler.Sources(results)
		turn.MathEquations = assembler.ExtractEquations(results)
		prompt = groundedPrompt(query, history, p.assembler.ContextOrMarker(results), turn.Sources)
		log.Debug("context assembled", "chunks", len(results), "sources", len(turn.Sources))
	default:
		prompt = openPrompt(query, history)
	}

	answer, err := generation.Call(ctx, p.gen, prompt, p.timeout)
	if err != nil {
		log.Error("generation failed", "error", err, "chunks", turn.ChunksUsed)
		turn.Sources = nil
		turn.MathEquations = nil
		return p.fail(state, turn, err), nil
	}

	turn.BotResponse = answer
	turn.CreatedAt = p.now()
	state.Append(turn)
	log.Info("turn completed", "chunks", turn.ChunksUsed, "elapsed", turn.CreatedAt.Sub(started))
	return turn, nil
}

func (p *Pipeline) fail(state *conversation.State, turn domain.Turn, err error) domain.Turn {
	turn.Failed = true
	turn.BotResponse = failureMessage(err, p.timeout)
	turn.CreatedAt = p.now()
	state.Append(turn)
	return turn
}

func failureMessage(err error, timeout time.Duration) string {
	if errors.Is(err, domain.ErrGenerationTimeout) {
		return fmt.Sprintf("⚠️ Sorry, the model did not answer within %s. Please try again.", timeout)
	}
	return fmt.Sprintf("⚠️ Sorry, an error occurred while processing your query: %v", err)
}

// Package router decides whether a query needs corpus retrieval.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aura/internal/domain"
	"aura/internal/generation"
)

const classifierPrompt = `You are a classifier. Determine if the user's query requires retrieval from the following research papers.
[papers]
%s

Only respond with "RAG" if grounding is needed, or "CHAT" if it's general and not related to the papers in any way.

[query]
%s`

// Router is a zero-shot classifier backed by the generator.
type Router struct {
	gen     generation.Generator
	papers  []string
	timeout time.Duration
	log     *slog.Logger
}

var _ domain.Classifier = (*Router)(nil)

func New(gen generation.Generator, papers []string, timeout time.Duration, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{gen: gen, papers: papers, timeout: timeout, log: log}
}

// Prompt returns the classification prompt for query.
func (r *Router) Prompt(query string) string {
	return fmt.Sprintf(classifierPrompt, strings.Join(r.papers, ", "), query)
}

// Classify never fails. Generator errors and unrecognised verdicts fall
// back to RouteOpen with a warning.
func (r *Router) Classify(ctx context.Context, query string) domain.Route {
	raw, err := generation.Call(ctx, r.gen, r.Prompt(query), r.timeout)
	if err != nil {
		r.log.Warn("classifier call failed, routing to open", "error", err)
		return domain.RouteOpen
	}
	route, ok := domain.ParseRoute(raw)
	if !ok {
		r.log.Warn("routing to open",
			"error", fmt.Errorf("%w: %q", domain.ErrClassificationAmbiguous, truncate(raw, 80)))
		return domain.RouteOpen
	}
	r.log.Debug("query classified", "route", route.String())
	return route
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

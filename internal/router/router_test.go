package router

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"aura/internal/domain"
)

type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func newRouter(gen *stubGenerator, buf *bytes.Buffer) *Router {
	log := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(gen, []string{"Attention Is All You Need", "BERT"}, time.Second, log)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		reply string
		want  domain.Route
	}{
		{"RAG", domain.RouteGrounded},
		{"  **rag**\n", domain.RouteGrounded},
		{"CHAT", domain.RouteOpen},
		{"\"Chat.\"", domain.RouteOpen},
		{"GROUNDED", domain.RouteGrounded},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			var buf bytes.Buffer
			r := newRouter(&stubGenerator{reply: tt.reply}, &buf)
			assert.Equal(t, tt.want, r.Classify(context.Background(), "q"))
			assert.NotContains(t, buf.String(), "level=WARN")
		})
	}
}

func TestClassifyAmbiguousRoutesOpen(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&stubGenerator{reply: "maybe"}, &buf)

	assert.Equal(t, domain.RouteOpen, r.Classify(context.Background(), "what is attention?"))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "maybe")
}

func TestClassifyFailureRoutesOpen(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&stubGenerator{err: errors.New("quota")}, &buf)

	assert.Equal(t, domain.RouteOpen, r.Classify(context.Background(), "q"))
	assert.Contains(t, buf.String(), "classifier call failed")
}

func TestPromptNamesPapersAndQuery(t *testing.T) {
	gen := &stubGenerator{reply: "RAG"}
	r := newRouter(gen, &bytes.Buffer{})
	r.Classify(context.Background(), "explain multi-head attention")

	assert.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Attention Is All You Need, BERT")
	assert.Contains(t, gen.prompts[0], "explain multi-head attention")
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"aura/internal/assembler"
	"aura/internal/config"
	"aura/internal/corpus"
	"aura/internal/domain"
	"aura/internal/embedding"
	embopenai "aura/internal/embedding/openai"
	"aura/internal/embedding/tfidf"
	"aura/internal/generation"
	"aura/internal/generation/ollama"
	genopenai "aura/internal/generation/openai"
	"aura/internal/logging"
	"aura/internal/retriever"
	"aura/internal/router"
	"aura/internal/service"
	"aura/internal/vectorstore"
	"aura/internal/vectorstore/memory"
	"aura/internal/vectorstore/qdrant"
)

// app is the fully wired query path.
type app struct {
	corpus   *corpus.Corpus
	papers   []string
	pipeline *service.Pipeline
}

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.AppConfig, w io.Writer) (*slog.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(w, level)
}

// buildRetriever loads the corpus and builds the retrieval half of the query path.
func buildRetriever(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*corpus.Corpus, *retriever.Retriever, error) {
	c, err := loadCorpus(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	if c.Len() > 0 {
		if err := emb.Prepare(c.Texts()); err != nil {
			return nil, nil, fmt.Errorf("prepare %s embedder: %w", emb.Name(), err)
		}
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := vectorstore.Build(ctx, store, c); err != nil {
		return nil, nil, err
	}
	log.Debug("vector index ready", "store", cfg.VectorStore.Type, "entries", store.Len())

	return c, retriever.New(embedding.NewQueryEmbedder(emb, cfg.QueryPrefix()), store, c.Dimension()), nil
}

// buildApp assembles every collaborator of the turn pipeline.
func buildApp(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*app, error) {
	c, ret, err := buildRetriever(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	papers := cfg.Corpus.Papers
	if len(papers) == 0 {
		papers = c.Papers()
	}

	rt := router.New(gen, papers, cfg.Generator.Timeout(), log)
	pipeline := service.NewPipeline(rt, ret, assembler.New(cfg.Retrieval.MaxContextChars), gen, service.Options{
		TopK:              cfg.Retrieval.TopK,
		GenerationTimeout: cfg.Generator.Timeout(),
	}, log)

	return &app{corpus: c, papers: papers, pipeline: pipeline}, nil
}

func loadCorpus(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*corpus.Corpus, error) {
	if cfg.Corpus.SQLite != "" {
		return corpus.LoadSQLite(ctx, cfg.Corpus.SQLite, log)
	}
	return corpus.Load(cfg.Corpus.Chunks, cfg.Corpus.Embeddings, log)
}

func newEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, errors.New("openai embedder config missing")
		}
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:    oc.BaseURL,
			APIKeyEnv:  oc.APIKeyEnv,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRetries: oc.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newStorage(cfg *config.AppConfig) (vectorstore.Storage, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return memory.NewStorage(), nil
	case "qdrant":
		qc := cfg.VectorStore.Qdrant
		if qc == nil {
			return nil, errors.New("qdrant config missing")
		}
		var apiKey string
		if qc.APIKeyEnv != "" {
			apiKey = os.Getenv(qc.APIKeyEnv)
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        qc.URL,
			APIKey:     apiKey,
			Collection: qc.Collection,
			Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
			BatchSize:  qc.BatchSize,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

func newGenerator(cfg *config.AppConfig) (generation.Generator, error) {
	switch cfg.Generator.Type {
	case "openai":
		oc := cfg.Generator.OpenAI
		if oc == nil {
			return nil, errors.New("openai generator config missing")
		}
		g, err := genopenai.NewGenerator(genopenai.Config{
			BaseURL:           oc.BaseURL,
			APIKeyEnv:         oc.APIKeyEnv,
			Model:             oc.Model,
			Temperature:       oc.Temperature,
			Timeout:           cfg.Generator.Timeout() + 5*time.Second,
			RequestsPerMinute: oc.RequestsPerMinute,
		})
		if err != nil {
			return nil, fmt.Errorf("openai generator init failed: %w", err)
		}
		return g, nil
	case "ollama":
		oc := cfg.Generator.Ollama
		if oc == nil {
			return nil, errors.New("ollama generator config missing")
		}
		return ollama.NewGenerator(ollama.Config{
			BaseURL: oc.BaseURL,
			Model:   oc.Model,
			Timeout: cfg.Generator.Timeout() + 5*time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Generator.Type)
	}
}

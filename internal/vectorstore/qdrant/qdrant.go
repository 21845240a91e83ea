package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"aura/internal/domain"
)

// Storage is a minimal REST client to Qdrant.
// It uses Euclid distance and recreates the collection on Init.
// Search hits are joined back to the entries upserted by this process.
type Storage struct {
	url        string
	apiKey     string
	collection string
	batchSize  int
	dimension  int
	client     *http.Client
	entries    map[int]domain.Entry
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	BatchSize  int
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 256
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		batchSize:  batch,
		client:     &http.Client{Timeout: timeout},
		entries:    make(map[int]domain.Entry),
	}
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	s.entries = make(map[int]domain.Entry)
	// The corpus is rebuilt from the artifacts on every start.
	if err := s.do(ctx, http.MethodDelete, s.collectionURL(), nil, nil); err != nil && !isNotFound(err) {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Euclid",
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionURL(), body, nil)
}

func (s *Storage) Upsert(ctx context.Context, entries []domain.Entry) error {
	for start := 0; start < len(entries); start += s.batchSize {
		end := min(start+s.batchSize, len(entries))
		points := make([]map[string]any, 0, end-start)
		for _, e := range entries[start:end] {
			if len(e.Vector) != s.dimension {
				return fmt.Errorf("%w: entry %d has %d, want %d", domain.ErrDimensionMismatch, e.Position, len(e.Vector), s.dimension)
			}
			points = append(points, map[string]any{
				"id":     e.Position,
				"vector": e.Vector,
				"payload": map[string]any{
					"position":    e.Position,
					"chunk_id":    e.Chunk.ID,
					"paper_title": e.Chunk.PaperTitle,
				},
			})
		}
		body := map[string]any{"points": points}
		if err := s.do(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body, nil); err != nil {
			return err
		}
		for _, e := range entries[start:end] {
			s.entries[e.Position] = e
		}
	}
	return nil
}

func (s *Storage) Len() int { return len(s.entries) }

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.Hit, error) {
	if len(s.entries) == 0 {
		return []domain.Hit{}, nil
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				Position int    `json:"position"`
				ChunkID  string `json:"chunk_id"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/search", req, &resp); err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		e, ok := s.entries[r.Payload.Position]
		if !ok || e.Chunk.ID != r.Payload.ChunkID {
			return nil, fmt.Errorf("%w: qdrant point %d (chunk %q)", domain.ErrIndexCorrupt, r.Payload.Position, r.Payload.ChunkID)
		}
		// Euclid scores are plain distances.
		hits = append(hits, domain.Hit{Entry: e, Distance: math.Pow(r.Score, 2)})
	}
	return hits, nil
}

func (s *Storage) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

type statusError struct {
	method string
	url    string
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %s", e.method, e.url, e.status)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

func (s *Storage) do(ctx context.Context, method, url string, body, out any) error {
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal qdrant request: %w", err)
		}
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{method: method, url: url, code: resp.StatusCode, status: resp.Status}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

package corpus

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"aura/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	position      INTEGER PRIMARY KEY,
	id            TEXT NOT NULL DEFAULT '',
	text          TEXT NOT NULL,
	paper_title   TEXT NOT NULL DEFAULT '',
	authors       TEXT NOT NULL DEFAULT '[]',
	organization  TEXT NOT NULL DEFAULT '',
	year          TEXT NOT NULL DEFAULT '',
	section       TEXT NOT NULL DEFAULT '',
	subsection    TEXT NOT NULL DEFAULT '',
	subsubsection TEXT NOT NULL DEFAULT '',
	embedding     BLOB
)`

// LoadSQLite reads a single-file artifact in which every row carries its
// chunk and its embedding.
func LoadSQLite(ctx context.Context, path string, log *slog.Logger) (*Corpus, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &domain.LoadError{Path: path, Reason: "open sqlite artifact", Err: err}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &domain.LoadError{Path: path, Reason: "open sqlite artifact", Err: err}
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
SELECT position, id, text, paper_title, authors, organization, year,
       section, subsection, subsubsection, embedding
FROM chunks
ORDER BY position ASC`)
	if err != nil {
		return nil, &domain.LoadError{Path: path, Reason: "query chunks", Err: err}
	}
	defer rows.Close()

	var (
		chunks  []domain.Chunk
		vectors [][]float32
	)
	for rows.Next() {
		var (
			pos     int
			ch      domain.Chunk
			authors string
			blob    []byte
		)
		if err := rows.Scan(&pos, &ch.ID, &ch.Text, &ch.PaperTitle, &authors, &ch.Organization, &ch.Year,
			&ch.Section, &ch.Subsection, &ch.Subsubsection, &blob); err != nil {
			return nil, &domain.LoadError{Path: path, Reason: "scan chunk row", Err: err}
		}
		if pos != len(chunks) {
			return nil, &domain.LoadError{Path: path, Reason: fmt.Sprintf("position gap: got %d, want %d", pos, len(chunks))}
		}
		if authors != "" {
			if err := json.Unmarshal([]byte(authors), &ch.Authors); err != nil {
				return nil, &domain.LoadError{Path: path, Reason: fmt.Sprintf("corrupt authors at position %d", pos), Err: err}
			}
		}
		if len(blob)%4 != 0 {
			return nil, &domain.LoadError{Path: path, Reason: fmt.Sprintf("corrupt embedding blob at position %d", pos)}
		}
		chunks = append(chunks, ch)
		vectors = append(vectors, bytesToFloat32Slice(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.LoadError{Path: path, Reason: "iterate chunk rows", Err: err}
	}

	c, err := New(path, chunks, vectors)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("corpus loaded", "source", "sqlite", "chunks", c.Len(), "dimension", c.Dimension())
	}
	return c, nil
}

// WriteSQLite stores chunks and vectors row by row, replacing any existing file.
func WriteSQLite(ctx context.Context, path string, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO chunks (position, id, text, paper_title, authors, organization, year,
                    section, subsection, subsubsection, embedding)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range chunks {
		authors, err := json.Marshal(nonNil(ch.Authors))
		if err != nil {
			return fmt.Errorf("marshal authors %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, i, ch.ID, ch.Text, ch.PaperTitle, string(authors), ch.Organization, ch.Year,
			ch.Section, ch.Subsection, ch.Subsubsection, float32SliceToBytes(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

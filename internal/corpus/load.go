package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"aura/internal/domain"
)

// maxLineBytes bounds a single JSONL record; long chunks and wide vectors
// easily exceed bufio's default.
const maxLineBytes = 64 << 20

// chunkRecord is the on-disk shape of one chunk artifact line.
type chunkRecord struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	PaperTitle    string     `json:"paper_title"`
	Authors       []string   `json:"authors"`
	Organization  string     `json:"organization"`
	Year          flexString `json:"year"`
	Section       string     `json:"section"`
	Subsection    string     `json:"subsection"`
	Subsubsection string     `json:"subsubsection"`
}

func (r chunkRecord) chunk() domain.Chunk {
	return domain.Chunk{
		ID:            r.ID,
		Text:          r.Text,
		PaperTitle:    r.PaperTitle,
		Authors:       r.Authors,
		Organization:  r.Organization,
		Year:          string(r.Year),
		Section:       r.Section,
		Subsection:    r.Subsection,
		Subsubsection: r.Subsubsection,
	}
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("year must be a string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// Load reads a chunk artifact and its parallel embedding artifact.
func Load(chunksPath, embeddingsPath string, log *slog.Logger) (*Corpus, error) {
	chunks, err := ReadChunks(chunksPath)
	if err != nil {
		return nil, err
	}
	vectors, err := ReadEmbeddings(embeddingsPath)
	if err != nil {
		return nil, err
	}
	c, err := New(embeddingsPath, chunks, vectors)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("corpus loaded", "chunks", c.Len(), "dimension", c.Dimension(), "papers", len(c.Papers()))
	}
	return c, nil
}

// ReadChunks parses a JSONL chunk artifact. Blank lines are skipped.
func ReadChunks(path string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.LoadError{Path: path, Reason: "open chunk artifact", Err: err}
	}
	defer f.Close()

	var out []domain.Chunk
	err = eachLine(f, func(lineNo int, line []byte) error {
		var rec chunkRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return &domain.LoadError{Path: path, Reason: "corrupt chunk record on line " + strconv.Itoa(lineNo), Err: err}
		}
		out = append(out, rec.chunk())
		return nil
	})
	if err != nil {
		return nil, wrapLoad(path, err)
	}
	return out, nil
}

// ReadEmbeddings parses an embedding artifact: a JSON array of arrays
// (.json) or one array per line (anything else).
func ReadEmbeddings(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.LoadError{Path: path, Reason: "open embedding artifact", Err: err}
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var out [][]float32
		if err := json.NewDecoder(f).Decode(&out); err != nil {
			return nil, &domain.LoadError{Path: path, Reason: "corrupt embedding array", Err: err}
		}
		return out, nil
	}

	var out [][]float32
	err = eachLine(f, func(lineNo int, line []byte) error {
		var v []float32
		if err := json.Unmarshal(line, &v); err != nil {
			return &domain.LoadError{Path: path, Reason: "corrupt embedding on line " + strconv.Itoa(lineNo), Err: err}
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, wrapLoad(path, err)
	}
	return out, nil
}

func eachLine(r io.Reader, fn func(lineNo int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

func wrapLoad(path string, err error) error {
	var le *domain.LoadError
	if errors.As(err, &le) {
		return err
	}
	return &domain.LoadError{Path: path, Reason: "read artifact", Err: err}
}

// WriteEmbeddings writes vectors as one JSON array per line.
func WriteEmbeddings(path string, vectors [][]float32) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, v := range vectors {
		if err := enc.Encode(v); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode embedding %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

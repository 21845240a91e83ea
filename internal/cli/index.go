package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"aura/internal/corpus"
	"aura/internal/embedding"
)

var (
	indexChunks string
	indexOut    string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed a chunk artifact",
	Long: `Embeds every chunk text with the configured embedder (no query prefix)
and writes either a JSONL embedding artifact, or, when --out ends in .db or
.sqlite, a single SQLite artifact holding chunks and vectors together.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexChunks, "chunks", "", "chunk artifact (JSONL); defaults to corpus.chunks")
	indexCmd.Flags().StringVarP(&indexOut, "out", "o", "", "output path; defaults to corpus.embeddings")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	chunksPath := firstNonEmpty(indexChunks, cfg.Corpus.Chunks)
	outPath := firstNonEmpty(indexOut, cfg.Corpus.Embeddings)
	if chunksPath == "" || outPath == "" {
		return errors.New("index: --chunks and --out are required")
	}

	chunks, err := corpus.ReadChunks(chunksPath)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("index: %s holds no chunks", chunksPath)
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	if err := emb.Prepare(texts); err != nil {
		return fmt.Errorf("prepare %s embedder: %w", emb.Name(), err)
	}

	step := max(1, len(texts)/10)
	vectors, err := embedding.EmbedDocuments(cmd.Context(), emb, texts, func(done, total int) {
		if done%step == 0 || done == total {
			log.Info("embedding chunks", "done", done, "total", total)
		}
	})
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".db", ".sqlite", ".sqlite3":
		err = corpus.WriteSQLite(cmd.Context(), outPath, chunks, vectors)
	default:
		err = corpus.WriteEmbeddings(outPath, vectors)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d chunks with %s (dimension %d) into %s\n", len(vectors), emb.Name(), len(vectors[0]), outPath)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

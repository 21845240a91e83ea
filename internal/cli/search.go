package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"aura/internal/domain"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Show the passages retrieved for a query",
	Long: `Runs retrieval only: embeds the query, finds the nearest chunks by
squared Euclidean distance and prints them ranked. No model is called.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default retrieval.top_k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	if query == "" {
		return fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	_, ret, err := buildRetriever(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	k := searchTopK
	if k == 0 {
		k = cfg.Retrieval.TopK
	}
	results, err := ret.Retrieve(cmd.Context(), query, k)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd.OutOrStdout(), results)
	}
	outputSearchText(cmd.OutOrStdout(), results)
	return nil
}

func outputSearchJSON(w io.Writer, results []domain.RetrievalResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func outputSearchText(w io.Writer, results []domain.RetrievalResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	for _, r := range results {
		labelColor.Fprintf(w, "[%d] %s", r.Rank, orNA(r.PaperTitle))
		mutedColor.Fprintf(w, " (distance %.4f)\n", r.Distance)
		fmt.Fprintf(w, "    Heading      : %s\n", orNA(r.Heading))
		fmt.Fprintf(w, "    Authors      : %s\n", strings.Join(r.Authors, ", "))
		fmt.Fprintf(w, "    Organization : %s\n", orNA(r.Organization))
		fmt.Fprintf(w, "    Year         : %s\n", orNA(r.Year))
		fmt.Fprintf(w, "    Text         : %s\n\n", preview(r.Text, 500))
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List the papers in the corpus",
	Args:  cobra.NoArgs,
	RunE:  runPapers,
}

func init() {
	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	papers := cfg.Corpus.Papers
	if len(papers) == 0 {
		log, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		c, err := loadCorpus(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		papers = c.Papers()
	}
	if len(papers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No papers loaded.")
		return nil
	}
	for i, p := range papers {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, p)
	}
	return nil
}

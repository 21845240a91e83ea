package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"aura/internal/conversation"
	"aura/internal/logging"
	"aura/internal/summarizer"
	"aura/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	Long: `Opens the terminal chat. Logs are written to the configured log file
(aura.log by default) while the chat owns the terminal.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log, f, err := logging.NewFile(cfg.Log.File, level)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	synopsis := summarizer.Build(a.papers, a.corpus.Texts(), 2, 8)
	m := tui.New(ctx, a.pipeline, conversation.New(), synopsis)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

package cli

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aura/internal/assembler"
	"aura/internal/conversation"
	"aura/internal/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Routes one question, retrieves context when the papers are needed,
and prints the answer together with the sources it was grounded on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

var (
	labelColor   = color.New(color.FgCyan, color.Bold)
	routeColor   = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
)

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a, err := buildApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	turn, err := a.pipeline.HandleTurn(cmd.Context(), strings.Join(args, " "), conversation.New())
	if err != nil {
		return err
	}
	printTurn(cmd.OutOrStdout(), turn)
	return nil
}

func printTurn(w io.Writer, t domain.Turn) {
	labelColor.Fprint(w, "You: ")
	_, _ = io.WriteString(w, t.UserMessage+"\n\n")

	if t.Failed {
		failureColor.Fprint(w, "AURA (failed): ")
	} else {
		labelColor.Fprint(w, "AURA: ")
	}
	_, _ = io.WriteString(w, t.BotResponse+"\n\n")

	route := "chat"
	if t.Route == domain.RouteGrounded {
		route = "RAG"
	}
	routeColor.Fprintf(w, "Route: %s", route)
	if t.Route == domain.RouteGrounded {
		mutedColor.Fprintf(w, "  (retrieved %d relevant chunks)", t.ChunksUsed)
	}
	_, _ = io.WriteString(w, "\n")

	if len(t.Sources) > 0 {
		labelColor.Fprintln(w, "Sources:")
		_, _ = io.WriteString(w, assembler.FormatSources(t.Sources)+"\n")
	}
	if len(t.MathEquations) > 0 {
		labelColor.Fprintln(w, "Mathematical references:")
		for _, eq := range t.MathEquations {
			_, _ = io.WriteString(w, "  "+eq+"\n")
		}
	}
}

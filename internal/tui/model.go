package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"aura/internal/conversation"
	"aura/internal/domain"
	"aura/internal/summarizer"
)

// TurnHandler is the TUI-facing subset of the turn pipeline.
type TurnHandler interface {
	HandleTurn(ctx context.Context, query string, state *conversation.State) (domain.Turn, error)
}

// turnDoneMsg carries the outcome of one HandleTurn call back to Update.
type turnDoneMsg struct {
	turn domain.Turn
	err  error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx      context.Context
	handler  TurnHandler
	state    *conversation.State
	synopsis summarizer.Synopsis

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	pending string
	status  string
	width   int
	ready   bool
}

// New creates a chat model over state. Each submitted query runs through handler.
func New(ctx context.Context, handler TurnHandler, state *conversation.State, synopsis summarizer.Synopsis) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something about the papers and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		handler:  handler,
		state:    state,
		synopsis: synopsis,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		status:   "Ready. Ctrl+L clears history, Ctrl+C quits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Busy reports whether a turn is in flight.
func (m Model) Busy() bool { return m.pending != "" }

// Update handles key, window and turn completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.layout(msg.Height)
		m.refresh()
		return m, nil

	case turnDoneMsg:
		m.pending = ""
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else if msg.turn.Failed {
			m.status = "The last turn failed. You can try again."
		} else {
			m.status = fmt.Sprintf("Answered via %s route.", routeLabel(msg.turn.Route))
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlL:
			if m.Busy() {
				return m, nil
			}
			m.state.Clear()
			m.status = "History cleared."
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if m.Busy() || q == "" {
		return m, nil
	}
	m.pending = q
	m.input.Reset()
	m.status = "Thinking..."
	m.refresh()
	return m, tea.Batch(m.runTurn(q), m.spinner.Tick)
}

func (m Model) runTurn(q string) tea.Cmd {
	ctx, handler, state := m.ctx, m.handler, m.state
	return func() tea.Msg {
		turn, err := handler.HandleTurn(ctx, q, state)
		return turnDoneMsg{turn: turn, err: err}
	}
}

// View renders the header, transcript, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		transcriptBoxStyle.Render(m.viewport.View()),
		inputBoxStyle.Render(m.input.View()),
		m.statusView(),
	)
}

func (m *Model) layout(height int) {
	fw, fh := transcriptBoxStyle.GetFrameSize()
	reserved := lipgloss.Height(m.headerView()) + lipgloss.Height(inputBoxStyle.Render(m.input.View())) + 1
	m.viewport.Width = max(20, m.width-fw)
	m.viewport.Height = max(3, height-reserved-fh)
	m.input.Width = max(10, m.width-8)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m Model) headerView() string {
	lines := []string{titleStyle.Render("📄 AURA - Artificial Understanding of Research Articles")}
	if len(m.synopsis.Papers) > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Papers (%d chunks): %s", m.synopsis.Chunks, strings.Join(m.synopsis.Papers, ", "))))
	}
	if len(m.synopsis.Keywords) > 0 {
		lines = append(lines, mutedStyle.Render("Topics: "+strings.Join(m.synopsis.Keywords, ", ")))
	}
	w := max(20, m.width)
	return lipgloss.NewStyle().Width(w).Render(strings.Join(lines, "\n"))
}

func (m Model) statusView() string {
	st := m.state.Stats()
	stats := fmt.Sprintf("Total: %d | RAG: %d | Chat: %d", st.Total, st.Grounded, st.Open)
	if st.Failed > 0 {
		stats += fmt.Sprintf(" | Failed: %d", st.Failed)
	}
	status := m.status
	if m.Busy() {
		status = m.spinner.View() + " " + status
	}
	return statusStyle.Render(status) + "  " + mutedStyle.Render(stats)
}

func (m Model) transcript() string {
	turns := m.state.Turns()
	bubbleWidth := max(16, m.viewport.Width-4)
	var blocks []string
	if len(turns) == 0 && !m.Busy() {
		intro := "Ask a question about the papers, or just chat."
		if m.synopsis.Summary != "" {
			intro = m.synopsis.Summary + "\n\n" + intro
		}
		blocks = append(blocks, mutedStyle.Width(bubbleWidth).Render(intro))
	}
	for _, t := range turns {
		blocks = append(blocks, renderTurn(t, bubbleWidth))
	}
	if m.Busy() {
		blocks = append(blocks, userStyle.Width(bubbleWidth).Render("🧑 You: "+m.pending))
	}
	return strings.Join(blocks, "\n\n")
}

func renderTurn(t domain.Turn, width int) string {
	parts := []string{userStyle.Width(width).Render("🧑 You: " + t.UserMessage)}

	bot := botStyle
	if t.Failed {
		bot = failedStyle
	}
	parts = append(parts, bot.Width(width).Render("🤖 AURA: "+t.BotResponse))

	if t.Route == domain.RouteGrounded {
		parts = append(parts, statStyle.Render(fmt.Sprintf("📊 Retrieved %d relevant chunks", t.ChunksUsed)))
	}
	if len(t.MathEquations) > 0 {
		eqs := make([]string, len(t.MathEquations))
		for i, eq := range t.MathEquations {
			eqs[i] = fmt.Sprintf("  Equation %d: %s", i+1, eq)
		}
		parts = append(parts, mutedStyle.Width(width).Render("🧮 Mathematical References:\n"+strings.Join(eqs, "\n")))
	}
	return strings.Join(parts, "\n")
}

func routeLabel(r domain.Route) string {
	if r == domain.RouteGrounded {
		return "RAG"
	}
	return "chat"
}

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	botStyle           = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("4")).Padding(0, 1)
	failedStyle        = botStyle.Copy().BorderForeground(lipgloss.Color("9")).Foreground(lipgloss.Color("9"))
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

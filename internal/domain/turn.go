package domain

import (
	"strings"
	"time"
)

// Route is the routing decision for a query.
type Route int

const (
	// RouteOpen answers from the conversation alone.
	RouteOpen Route = iota
	// RouteGrounded retrieves corpus context before answering.
	RouteGrounded
)

func (r Route) String() string {
	if r == RouteGrounded {
		return "GROUNDED"
	}
	return "OPEN"
}

var (
	groundedLabels = []string{"GROUNDED", "RAG"}
	openLabels     = []string{"OPEN", "CHAT"}
)

// ParseRoute maps raw classifier output onto a Route. Output that matches
// neither label set yields RouteOpen with ok=false.
func ParseRoute(raw string) (route Route, ok bool) {
	v := strings.ToUpper(strings.Trim(strings.TrimSpace(raw), "\"'`*_.:!- \t\r\n"))
	for _, l := range groundedLabels {
		if strings.HasPrefix(v, l) {
			return RouteGrounded, true
		}
	}
	for _, l := range openLabels {
		if strings.HasPrefix(v, l) {
			return RouteOpen, true
		}
	}
	return RouteOpen, false
}

// Turn is one resolved exchange. It is never modified after creation.
type Turn struct {
	ID            string    `json:"id"`
	UserMessage   string    `json:"user_message"`
	BotResponse   string    `json:"bot_response"`
	Route         Route     `json:"route"`
	ChunksUsed    int       `json:"chunks_used"`
	Failed        bool      `json:"failed"`
	Sources       []Source  `json:"sources,omitempty"`
	MathEquations []string  `json:"math_equations,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Package conversation keeps the ordered turns of one chat session.
package conversation

import (
	"strings"
	"sync"

	"aura/internal/domain"
)

// Stats summarises a session.
type Stats struct {
	Total    int
	Grounded int
	Open     int
	Failed   int
}

// State is an append-only turn log. It is safe for concurrent use.
type State struct {
	mu    sync.RWMutex
	turns []domain.Turn
}

func New() *State { return &State{} }

func (s *State) Append(t domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// Turns returns a copy of the turns in insertion order.
func (s *State) Turns() []domain.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// History replays the session as "User: ...\nAssistant: ..." blocks
// separated by blank lines. An empty session yields "".
func (s *State) History() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blocks := make([]string, len(s.turns))
	for i, t := range s.turns {
		blocks[i] = "User: " + t.UserMessage + "\nAssistant: " + t.BotResponse
	}
	return strings.Join(blocks, "\n\n")
}

func (s *State) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Total: len(s.turns)}
	for _, t := range s.turns {
		if t.Route == domain.RouteGrounded {
			st.Grounded++
		} else {
			st.Open++
		}
		if t.Failed {
			st.Failed++
		}
	}
	return st
}

// Clear drops every turn.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"aura/internal/domain"
)

func TestHistoryAndStats(t *testing.T) {
	s := New()
	assert.Equal(t, "", s.History())
	assert.Equal(t, Stats{}, s.Stats())

	s.Append(domain.Turn{UserMessage: "hi", BotResponse: "hello", Route: domain.RouteOpen})
	s.Append(domain.Turn{UserMessage: "what is attention?", BotResponse: "a mechanism", Route: domain.RouteGrounded, ChunksUsed: 5})
	s.Append(domain.Turn{UserMessage: "more", BotResponse: "sorry", Route: domain.RouteGrounded, Failed: true})

	assert.Equal(t, "User: hi\nAssistant: hello\n\nUser: what is attention?\nAssistant: a mechanism\n\nUser: more\nAssistant: sorry", s.History())
	assert.Equal(t, Stats{Total: 3, Grounded: 2, Open: 1, Failed: 1}, s.Stats())
	assert.Equal(t, 3, s.Len())
}

func TestTurnsReturnsCopy(t *testing.T) {
	s := New()
	s.Append(domain.Turn{UserMessage: "a"})

	turns := s.Turns()
	turns[0].UserMessage = "mutated"
	assert.Equal(t, "a", s.Turns()[0].UserMessage)
}

func TestClear(t *testing.T) {
	s := New()
	s.Append(domain.Turn{UserMessage: "a"})
	s.Append(domain.Turn{UserMessage: "b"})
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Turns())
	assert.Equal(t, "", s.History())
}

func TestConcurrentAppendAndRead(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Append(domain.Turn{UserMessage: "q"})
		}()
		go func() {
			defer wg.Done()
			_ = s.History()
			_ = s.Stats()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Len())
}

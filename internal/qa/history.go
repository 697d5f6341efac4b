package qa

import (
	"sync"

	"summaryd/pkg/types"
)

// History is a bounded, most-recent-first record of answered questions.
// Once full it drops the oldest exchange on every push.
type History struct {
	mu    sync.Mutex
	cap   int
	pairs []types.QAPair
}

// NewHistory builds a History holding at most capacity exchanges.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{cap: capacity}
}

// Push records one exchange at the front.
func (h *History) Push(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pairs = append([]types.QAPair{{Question: question, Answer: answer}}, h.pairs...)
	if len(h.pairs) > h.cap {
		h.pairs = h.pairs[:h.cap]
	}
}

// Recent returns up to n exchanges, most recent first.
func (h *History) Recent(n int) []types.QAPair {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.pairs) {
		n = len(h.pairs)
	}
	out := make([]types.QAPair, n)
	copy(out, h.pairs[:n])
	return out
}

// Len reports the number of stored exchanges.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pairs)
}

// Clear drops every stored exchange.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pairs = nil
}

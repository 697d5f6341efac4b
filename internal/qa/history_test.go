package qa

import (
	"fmt"
	"testing"
)

func TestHistoryMostRecentFirst(t *testing.T) {
	h := NewHistory(10)
	h.Push("q1", "a1")
	h.Push("q2", "a2")
	h.Push("q3", "a3")

	got := h.Recent(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Question != "q3" || got[1].Question != "q2" {
		t.Fatalf("wrong order: %+v", got)
	}
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 10; i++ {
		h.Push(fmt.Sprintf("q%d", i), "a")
	}
	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}
	got := h.Recent(3)
	if got[0].Question != "q9" || got[2].Question != "q7" {
		t.Fatalf("oldest entries not dropped: %+v", got)
	}
}

func TestHistoryRecentMoreThanStored(t *testing.T) {
	h := NewHistory(5)
	h.Push("q1", "a1")
	if got := h.Recent(10); len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(5)
	h.Push("q1", "a1")
	h.Clear()
	if h.Len() != 0 {
		t.Fatalf("clear left %d entries", h.Len())
	}
}

func TestHistoryZeroCapacity(t *testing.T) {
	h := NewHistory(0)
	h.Push("q1", "a1")
	if h.Len() != 1 {
		t.Fatalf("capacity floor not applied: %d", h.Len())
	}
}

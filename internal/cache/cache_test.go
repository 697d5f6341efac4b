package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"summaryd/pkg/types"
)

// stubClient is an in-memory Client for tests.
type stubClient struct {
	data map[string]string
	sets int
}

func newStubClient() *stubClient {
	return &stubClient{data: map[string]string{}}
}

func (s *stubClient) Get(ctx context.Context, key string) *redis.StringCmd {
	if v, ok := s.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (s *stubClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	s.sets++
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	case string:
		s.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func TestSummaryKeyStability(t *testing.T) {
	req := types.SummarizeRequest{Text: "some text", Style: "brief", MinLength: 50, MaxLength: 150}
	if SummaryKey(req) != SummaryKey(req) {
		t.Fatalf("key not stable")
	}
	other := req
	other.Style = "detailed"
	if SummaryKey(req) == SummaryKey(other) {
		t.Fatalf("different requests share a key")
	}
	other = req
	other.CustomPrompt = "as a haiku"
	if SummaryKey(req) == SummaryKey(other) {
		t.Fatalf("custom prompt ignored in key")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	stub := newStubClient()
	c := NewWithClient(stub, time.Hour, zerolog.Nop())
	ctx := context.Background()
	req := types.SummarizeRequest{Text: "source", Style: "brief"}

	if _, ok := c.GetSummary(ctx, req); ok {
		t.Fatalf("unexpected hit on empty cache")
	}

	want := types.SummaryResult{
		Summary: "short version",
		Metadata: types.SummaryMetadata{
			OriginalWordCount: 100,
			SummaryWordCount:  20,
			Style:             "brief",
		},
	}
	c.SetSummary(ctx, req, want)
	got, ok := c.GetSummary(ctx, req)
	if !ok {
		t.Fatalf("expected a hit after set")
	}
	if got.Summary != want.Summary || got.Metadata.SummaryWordCount != 20 {
		t.Fatalf("round trip mangled the result: %+v", got)
	}
	if stub.sets != 1 {
		t.Fatalf("expected 1 set, got %d", stub.sets)
	}
}

func TestCacheUndecodableEntryIsMiss(t *testing.T) {
	stub := newStubClient()
	c := NewWithClient(stub, time.Hour, zerolog.Nop())
	req := types.SummarizeRequest{Text: "source"}
	stub.data[SummaryKey(req)] = "{not json"
	if _, ok := c.GetSummary(context.Background(), req); ok {
		t.Fatalf("undecodable entry reported as hit")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	req := types.SummarizeRequest{Text: "source"}
	if _, ok := c.GetSummary(ctx, req); ok {
		t.Fatalf("nil cache returned a hit")
	}
	c.SetSummary(ctx, req, types.SummaryResult{Summary: "x"}) // must not panic
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("not-a-url", time.Hour, zerolog.Nop()); err == nil {
		t.Fatalf("expected an error for a bad redis url")
	}
}

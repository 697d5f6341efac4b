package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"summaryd/internal/config"
	"summaryd/internal/core"
	"summaryd/internal/manager"
	"summaryd/internal/registry"
	"summaryd/pkg/types"
)

// echoBackend produces summaries sized from the generation params. Inputs
// containing failMarker fail every attempt.
type echoBackend struct {
	calls atomic.Int64
}

const failMarker = "FAILME"

func summaryWords(p manager.GenParams) int {
	// Land between the bounds the params encode.
	return int(float64(p.MinTokens+p.MaxTokens) / 2 / 1.33)
}

func (b *echoBackend) Summarize(ctx context.Context, text string, p manager.GenParams) (manager.GenResult, error) {
	b.calls.Add(1)
	if strings.Contains(text, failMarker) {
		return manager.GenResult{}, errors.New("backend exploded")
	}
	n := summaryWords(p)
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("s%d", i)
	}
	return manager.GenResult{Text: strings.Join(words, " ")}, nil
}

func (b *echoBackend) Answer(ctx context.Context, c, q string, p manager.GenParams) (manager.GenResult, error) {
	return manager.GenResult{Text: "answer"}, nil
}

func (b *echoBackend) Close() error { return nil }

func testEngine(t *testing.T) (*Engine, *echoBackend) {
	t.Helper()
	be := &echoBackend{}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Capacity:  2,
		LeaseWait: 5 * time.Second,
		Factory: func(spec types.ModelSpec, device string, quantized bool) (manager.Backend, error) {
			return be, nil
		},
	})
	t.Cleanup(func() { _ = mgr.Close() })
	reg, err := registry.New([]types.ModelSpec{
		{ID: "sum-en", Family: "fake", Task: "summarize", Language: "en", BaseURL: "http://127.0.0.1:0"},
		{ID: "qa-en", Family: "fake", Task: "qa", Language: "en", BaseURL: "http://127.0.0.1:0"},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cfg := config.Default()
	cfg.MapWorkers = 2
	return New(mgr, reg, cfg, nil, zerolog.Nop()), be
}

func sourceText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSummarizeRejectsEmptyAndShort(t *testing.T) {
	e, _ := testEngine(t)
	for _, text := range []string{"", "   ", "only five words right here"} {
		_, err := e.Summarize(context.Background(), types.SummarizeRequest{Text: text})
		if !core.IsInvalidInput(err) {
			t.Fatalf("text %q: expected invalid input, got %v", text, err)
		}
	}
}

func TestSummarizeRejectsOversizedInput(t *testing.T) {
	e, _ := testEngine(t)
	e.cfg.MaxInputWords = 100
	_, err := e.Summarize(context.Background(), types.SummarizeRequest{Text: sourceText(200)})
	if !core.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSummarizeRejectsUnknownStyle(t *testing.T) {
	e, _ := testEngine(t)
	_, err := e.Summarize(context.Background(), types.SummarizeRequest{Text: sourceText(300), Style: "verbose"})
	if !core.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSummarizeRejectsInvertedBounds(t *testing.T) {
	e, _ := testEngine(t)
	_, err := e.Summarize(context.Background(), types.SummarizeRequest{
		Text: sourceText(300), MinLength: 150, MaxLength: 50,
	})
	if !core.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSummarizeShortInputReturnsOriginal(t *testing.T) {
	e, be := testEngine(t)
	text := sourceText(40) // below the default 50-word minimum
	res, err := e.Summarize(context.Background(), types.SummarizeRequest{Text: text})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if res.Summary != text {
		t.Fatalf("expected the original back, got %q", res.Summary)
	}
	if !res.Metadata.OriginalReturned {
		t.Fatalf("OriginalReturned not set")
	}
	if be.calls.Load() != 0 {
		t.Fatalf("short input must not reach a model, saw %d calls", be.calls.Load())
	}
}

func TestSummarizeSingleChunk(t *testing.T) {
	e, be := testEngine(t)
	res, err := e.Summarize(context.Background(), types.SummarizeRequest{Text: sourceText(400)})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	md := res.Metadata
	if md.ChunkCount != 1 {
		t.Fatalf("expected 1 chunk, got %d", md.ChunkCount)
	}
	if md.ReductionPasses != 0 {
		t.Fatalf("single in-bounds chunk needs no reduction, got %d passes", md.ReductionPasses)
	}
	if md.SummaryWordCount < 50 || md.SummaryWordCount > 150 {
		t.Fatalf("summary word count %d outside [50,150]", md.SummaryWordCount)
	}
	if md.OriginalWordCount != 400 {
		t.Fatalf("original word count %d", md.OriginalWordCount)
	}
	if md.Style != StyleDetailed {
		t.Fatalf("default style should be detailed, got %s", md.Style)
	}
	if be.calls.Load() != 1 {
		t.Fatalf("expected 1 generation, got %d", be.calls.Load())
	}
}

func TestSummarizeBriefFiftyWords(t *testing.T) {
	e, be := testEngine(t)
	e.cfg.MinSummaryLength = 5
	res, err := e.Summarize(context.Background(), types.SummarizeRequest{
		Text: sourceText(50), Style: StyleBrief, MinLength: 5, MaxLength: 15,
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	md := res.Metadata
	if md.ChunkCount != 1 || md.ReductionPasses != 0 {
		t.Fatalf("expected single chunk without reduction, got %+v", md)
	}
	// Brief targets about a fifth of the input.
	if md.SummaryWordCount < 5 || md.SummaryWordCount > 15 {
		t.Fatalf("summary word count %d outside [5,15]", md.SummaryWordCount)
	}
	if md.OriginalReturned {
		t.Fatalf("input above the minimum must be summarized, not echoed")
	}
	if be.calls.Load() != 1 {
		t.Fatalf("expected 1 generation, got %d", be.calls.Load())
	}
}

func TestSummarizeMapReduce(t *testing.T) {
	e, _ := testEngine(t)
	res, err := e.Summarize(context.Background(), types.SummarizeRequest{
		Text: sourceText(5000), Style: StyleBrief,
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	md := res.Metadata
	if md.ChunkCount < 2 {
		t.Fatalf("expected multiple chunks, got %d", md.ChunkCount)
	}
	if md.ReductionPasses < 1 {
		t.Fatalf("multi-chunk run must reduce at least once")
	}
	if md.SummaryWordCount < 50 || md.SummaryWordCount > 150 {
		t.Fatalf("summary word count %d outside bounds", md.SummaryWordCount)
	}
	if md.SkippedChunkCount != 0 {
		t.Fatalf("unexpected skipped chunks: %d", md.SkippedChunkCount)
	}
	if md.CompressionRatio <= 0 {
		t.Fatalf("compression ratio %v", md.CompressionRatio)
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	e, _ := testEngine(t)
	req := types.SummarizeRequest{Text: sourceText(3000)}
	a, err := e.Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := e.Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if a.Summary != b.Summary {
		t.Fatalf("same input produced different summaries")
	}
}

func TestSummarizeSkipsFailedChunk(t *testing.T) {
	e, _ := testEngine(t)
	// Put the marker deep enough that it lands in a later chunk, leaving
	// earlier chunks to succeed.
	words := strings.Fields(sourceText(3000))
	words[2500] = failMarker
	res, err := e.Summarize(context.Background(), types.SummarizeRequest{
		Text: strings.Join(words, " "),
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if res.Metadata.SkippedChunkCount < 1 {
		t.Fatalf("expected at least one skipped chunk")
	}
}

func TestSummarizeAllChunksFailedFails(t *testing.T) {
	e, _ := testEngine(t)
	words := make([]string, 300)
	for i := range words {
		words[i] = failMarker
	}
	_, err := e.Summarize(context.Background(), types.SummarizeRequest{
		Text: strings.Join(words, " "),
	})
	if !IsSummarization(err) {
		t.Fatalf("expected summarization error, got %v", err)
	}
}

func TestSummarizeCustomPromptRecorded(t *testing.T) {
	e, _ := testEngine(t)
	res, err := e.Summarize(context.Background(), types.SummarizeRequest{
		Text: sourceText(400), CustomPrompt: "Summarize for a five year old.",
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !res.Metadata.CustomPromptUsed {
		t.Fatalf("CustomPromptUsed not set")
	}
}

func TestSummarizeTimeoutMapsToTimeout(t *testing.T) {
	e, _ := testEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	_, err := e.Summarize(ctx, types.SummarizeRequest{Text: sourceText(3000)})
	if !core.IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"summaryd/pkg/types"
)

func llamaTestServer(t *testing.T, tokens []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		var req llamaCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if !req.Stream {
			t.Errorf("expected a streaming request")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range tokens {
			fmt.Fprintf(w, "data: {\"choices\":[{\"text\":%q}]}\n\n", tok)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	return httptest.NewServer(mux)
}

func TestLlamaBackendSummarize(t *testing.T) {
	srv := llamaTestServer(t, []string{"A ", "short ", "summary."})
	defer srv.Close()

	b := newLlamaBackend(types.ModelSpec{ID: "m", BaseURL: srv.URL})
	defer b.Close()

	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	res, err := b.Summarize(context.Background(), "long input", GenParams{MaxTokens: 32, Deterministic: true, Seed: 42})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if res.Text != "A short summary." {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.HasLogProb {
		t.Fatalf("llama stream should not report log probs")
	}
}

func TestLlamaBackendAnswerPrompt(t *testing.T) {
	var gotPrompt string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		var req llamaCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Prompt
		fmt.Fprint(w, "data: {\"choices\":[{\"text\":\"yes\"}]}\n\ndata: [DONE]\n\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := newLlamaBackend(types.ModelSpec{ID: "m", BaseURL: srv.URL})
	defer b.Close()

	res, err := b.Answer(context.Background(), "the context", "the question?", GenParams{Instruction: "Answer briefly."})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res.Text != "yes" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	for _, part := range []string{"Answer briefly.", "Context:\nthe context", "Question: the question?", "Answer:"} {
		if !strings.Contains(gotPrompt, part) {
			t.Fatalf("prompt missing %q: %q", part, gotPrompt)
		}
	}
}

func TestLlamaBackendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model blew up", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := newLlamaBackend(types.ModelSpec{ID: "m", BaseURL: srv.URL})
	defer b.Close()

	if _, err := b.Summarize(context.Background(), "text", GenParams{}); err == nil {
		t.Fatalf("expected an error from a 500 response")
	}
	if err := b.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail")
	}
}

func TestLlamaBackendContextCancel(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	b := newLlamaBackend(types.ModelSpec{ID: "m", BaseURL: srv.URL})
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Summarize(ctx, "text", GenParams{}); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

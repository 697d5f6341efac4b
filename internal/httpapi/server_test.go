package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"summaryd/internal/core"
	"summaryd/internal/manager"
	"summaryd/internal/summarize"
	"summaryd/pkg/types"
)

// fakeService is a scripted Service implementation.
type fakeService struct {
	summarizeErr error
	askErr       error
	ready        bool
	cleared      bool
	suggestCount int
}

func (s *fakeService) ListModels() []types.ModelSpec {
	return []types.ModelSpec{{ID: "sum-en", Task: "summarize", Family: "openai"}}
}

func (s *fakeService) Status() types.StatusResponse {
	return types.StatusResponse{Capacity: 3, ResidentCount: 1}
}

func (s *fakeService) Ready() bool { return s.ready }

func (s *fakeService) Summarize(ctx context.Context, req types.SummarizeRequest) (types.SummarizeResponse, error) {
	if s.summarizeErr != nil {
		return types.SummarizeResponse{}, s.summarizeErr
	}
	return types.SummarizeResponse{Summary: "ok", Metadata: types.SummaryMetadata{SummaryWordCount: 1}}, nil
}

func (s *fakeService) Ask(ctx context.Context, req types.QARequest) (types.QAResponse, error) {
	if s.askErr != nil {
		return types.QAResponse{}, s.askErr
	}
	return types.QAResponse{ID: "1", Answer: "yes", Confidence: 0.9, ConfidenceBucket: "High"}, nil
}

func (s *fakeService) AskConversation(ctx context.Context, req types.ConversationQARequest) (types.QAResponse, error) {
	return types.QAResponse{ID: "2", Answer: "still yes"}, nil
}

func (s *fakeService) Batch(ctx context.Context, req types.BatchQARequest) (types.BatchQAResponse, error) {
	return types.BatchQAResponse{TotalQuestions: len(req.Questions)}, nil
}

func (s *fakeService) Suggest(contextText string, numQuestions int) (types.SuggestedQuestionsResponse, error) {
	if contextText == "" {
		return types.SuggestedQuestionsResponse{}, core.InvalidInput("context must not be empty")
	}
	s.suggestCount = numQuestions
	return types.SuggestedQuestionsResponse{SuggestedQuestions: []string{"Why?"}, TotalSuggestions: 1}, nil
}

func (s *fakeService) QAHistory() []types.QAPair {
	return []types.QAPair{{Question: "q", Answer: "a"}}
}

func (s *fakeService) ClearQAHistory() { s.cleared = true }

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestModelsEndpoint(t *testing.T) {
	mux := NewMux(&fakeService{ready: true})
	w := get(t, mux, "/models")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Models) != 1 || resp.Models[0].ID != "sum-en" {
		t.Fatalf("unexpected models: %+v", resp)
	}
}

func TestStatusEndpoint(t *testing.T) {
	mux := NewMux(&fakeService{ready: true})
	w := get(t, mux, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Capacity != 3 || resp.ResidentCount != 1 {
		t.Fatalf("unexpected status %+v", resp)
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := &fakeService{ready: false}
	mux := NewMux(svc)
	if w := get(t, mux, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz %d", w.Code)
	}
	if w := get(t, mux, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz while not ready: %d", w.Code)
	}
	svc.ready = true
	if w := get(t, mux, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("readyz while ready: %d", w.Code)
	}
}

func TestSummarizeHappyPath(t *testing.T) {
	mux := NewMux(&fakeService{ready: true})
	w := postJSON(t, mux, "/summarize/text", `{"text": "long document"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var resp types.SummarizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Summary != "ok" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{core.InvalidInput("too short"), http.StatusBadRequest, "invalid_input"},
		{manager.ErrModelLoad("m", "down"), http.StatusServiceUnavailable, "model_load"},
		{manager.ErrCapacityExceeded("m"), http.StatusServiceUnavailable, "capacity_exceeded"},
		{summarize.ErrSummarization("bounds unmet"), http.StatusUnprocessableEntity, "summarization"},
		{summarize.ErrInference("backend gone"), http.StatusBadGateway, "inference"},
		{core.Timeout("deadline"), http.StatusGatewayTimeout, "timeout"},
	}
	for _, c := range cases {
		mux := NewMux(&fakeService{ready: true, summarizeErr: c.err})
		w := postJSON(t, mux, "/summarize/text", `{"text": "doc"}`)
		if w.Code != c.status {
			t.Fatalf("%v: status %d, want %d", c.err, w.Code, c.status)
		}
		var resp types.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode error payload: %v", err)
		}
		if resp.Kind != c.kind || resp.Code != c.status {
			t.Fatalf("%v: payload %+v", c.err, resp)
		}
	}
}

func TestContentTypeRequired(t *testing.T) {
	mux := NewMux(&fakeService{ready: true})
	req := httptest.NewRequest(http.MethodPost, "/summarize/text", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status %d", w.Code)
	}
}

func TestInvalidJSONRejected(t *testing.T) {
	mux := NewMux(&fakeService{ready: true})
	w := postJSON(t, mux, "/qa/ask", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}

func TestQAAsk(t *testing.T) {
	mux := NewMux(&fakeService{ready: true})
	w := postJSON(t, mux, "/qa/ask", `{"question": "q?", "context": "ctx"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp types.QAResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != "yes" || resp.ConfidenceBucket != "High" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestQAHistoryEndpoints(t *testing.T) {
	svc := &fakeService{ready: true}
	mux := NewMux(svc)
	if w := get(t, mux, "/qa/history"); w.Code != http.StatusOK {
		t.Fatalf("history get %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodDelete, "/qa/history", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("history delete %d", w.Code)
	}
	if !svc.cleared {
		t.Fatalf("clear not forwarded to the service")
	}
}

func TestSuggestedQuestions(t *testing.T) {
	svc := &fakeService{ready: true}
	mux := NewMux(svc)
	w := postJSON(t, mux, "/qa/suggested-questions", `{"context": "something", "num_questions": 3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if svc.suggestCount != 3 {
		t.Fatalf("num_questions not forwarded: got %d", svc.suggestCount)
	}
	w = postJSON(t, mux, "/qa/suggested-questions", `{"context": ""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty context: status %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	SetRateLimitPerMinute(2)
	defer SetRateLimitPerMinute(0)
	mux := NewMux(&fakeService{ready: true})

	var last int
	for i := 0; i < 5; i++ {
		w := get(t, mux, "/healthz")
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting the budget, got %d", last)
	}
}

func TestNosniffHeader(t *testing.T) {
	mux := NewMux(&fakeService{ready: true})
	w := get(t, mux, "/healthz")
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("missing nosniff header, got %q", got)
	}
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"summaryd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.ModelSpec
	Status() types.StatusResponse
	Ready() bool
	Summarize(ctx context.Context, req types.SummarizeRequest) (types.SummarizeResponse, error)
	Ask(ctx context.Context, req types.QARequest) (types.QAResponse, error)
	AskConversation(ctx context.Context, req types.ConversationQARequest) (types.QAResponse, error)
	Batch(ctx context.Context, req types.BatchQARequest) (types.BatchQAResponse, error)
	Suggest(contextText string, numQuestions int) (types.SuggestedQuestionsResponse, error)
	QAHistory() []types.QAPair
	ClearQAHistory()
}

// serverBaseCtx is a process-level context that can be canceled on shutdown.
// Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts returns a context that is canceled when either a or b is done.
// The returned cancel func must be called to release the goroutine when handler ends.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ModelsResponse{Models: svc.ListModels()})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Post("/summarize/text", func(w http.ResponseWriter, r *http.Request) {
		var req types.SummarizeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		ctx, cancel := handlerContext(r)
		defer cancel()
		start := time.Now()
		res, err := svc.Summarize(ctx, req)
		if err != nil {
			logEnd(r, "summarize", statusFor(err), start, err)
			writeServiceError(w, err)
			return
		}
		logEnd(r, "summarize", http.StatusOK, start, nil)
		writeJSON(w, res)
	})

	r.Post("/qa/ask", func(w http.ResponseWriter, r *http.Request) {
		var req types.QARequest
		if !decodeJSON(w, r, &req) {
			return
		}
		ctx, cancel := handlerContext(r)
		defer cancel()
		start := time.Now()
		res, err := svc.Ask(ctx, req)
		if err != nil {
			logEnd(r, "qa", statusFor(err), start, err)
			writeServiceError(w, err)
			return
		}
		logEnd(r, "qa", http.StatusOK, start, nil)
		writeJSON(w, res)
	})

	r.Post("/qa/conversation", func(w http.ResponseWriter, r *http.Request) {
		var req types.ConversationQARequest
		if !decodeJSON(w, r, &req) {
			return
		}
		ctx, cancel := handlerContext(r)
		defer cancel()
		start := time.Now()
		res, err := svc.AskConversation(ctx, req)
		if err != nil {
			logEnd(r, "qa_conversation", statusFor(err), start, err)
			writeServiceError(w, err)
			return
		}
		logEnd(r, "qa_conversation", http.StatusOK, start, nil)
		writeJSON(w, res)
	})

	r.Post("/qa/batch", func(w http.ResponseWriter, r *http.Request) {
		var req types.BatchQARequest
		if !decodeJSON(w, r, &req) {
			return
		}
		ctx, cancel := handlerContext(r)
		defer cancel()
		start := time.Now()
		res, err := svc.Batch(ctx, req)
		if err != nil {
			logEnd(r, "qa_batch", statusFor(err), start, err)
			writeServiceError(w, err)
			return
		}
		logEnd(r, "qa_batch", http.StatusOK, start, nil)
		writeJSON(w, res)
	})

	r.Post("/qa/suggested-questions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Context      string `json:"context"`
			NumQuestions int    `json:"num_questions"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Suggest(req.Context, req.NumQuestions)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, res)
	})

	r.Get("/qa/history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"history": svc.QAHistory()})
	})

	r.Delete("/qa/history", func(w http.ResponseWriter, r *http.Request) {
		svc.ClearQAHistory()
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSON enforces the content type and body cap, then decodes into dst.
// On failure it writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", "invalid_input")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body", "invalid_input")
		return false
	}
	return true
}

// handlerContext joins the request context with the server base context and
// applies the configured request timeout.
func handlerContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	if requestTimeoutSec > 0 {
		tctx, tcancel := context.WithTimeout(ctx, time.Duration(requestTimeoutSec)*time.Second)
		return tctx, func() { tcancel(); cancel() }
	}
	return ctx, cancel
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response", "")
	}
}

func logEnd(r *http.Request, op string, status int, start time.Time, err error) {
	if zlog == nil || requestLogLevel(r) < LevelInfo {
		return
	}
	z := zlog.Info().Str("op", op).Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	if err != nil {
		z = z.Err(err)
	}
	z.Msg(op + " end")
}

// Package qa answers questions grounded in caller-supplied context, tracking
// a bounded conversation history per engine.
package qa

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"summaryd/internal/chunker"
	"summaryd/internal/config"
	"summaryd/internal/core"
	"summaryd/internal/manager"
	"summaryd/internal/registry"
	"summaryd/internal/summarize"
	"summaryd/pkg/types"
)

const (
	bucketLow    = "Low"
	bucketMedium = "Medium"
	bucketHigh   = "High"

	// Exchanges included when building a conversational prompt.
	promptTurns = 3

	// Characters of context kept on either side of a located answer.
	spanPadding = 100
)

// Engine answers questions through leased QA models.
type Engine struct {
	mgr     *manager.Manager
	reg     *registry.Registry
	cfg     config.Config
	history *History
	log     zerolog.Logger
}

// New constructs an Engine with an empty history.
func New(mgr *manager.Manager, reg *registry.Registry, cfg config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		mgr:     mgr,
		reg:     reg,
		cfg:     cfg,
		history: NewHistory(cfg.QAHistoryWindow),
		log:     log,
	}
}

// History exposes the engine's conversation record.
func (e *Engine) History() *History { return e.history }

// Ask answers a single question against the supplied context.
func (e *Engine) Ask(ctx context.Context, req types.QARequest) (types.QAResponse, error) {
	return e.answer(ctx, req.Question, req.Context, nil, req.Language)
}

// AskConversation answers a follow-up question. History from the request is
// used when present, otherwise the engine's own record; the exchange is
// appended to the engine record either way.
func (e *Engine) AskConversation(ctx context.Context, req types.ConversationQARequest) (types.QAResponse, error) {
	hist := req.History
	if len(hist) == 0 {
		hist = e.history.Recent(promptTurns)
	} else if len(hist) > promptTurns {
		hist = hist[:promptTurns]
	}
	res, err := e.answer(ctx, req.Question, req.Context, hist, req.Language)
	if err != nil {
		return types.QAResponse{}, err
	}
	e.history.Push(req.Question, res.Answer)
	return res, nil
}

// Batch answers each question independently. A failed question yields a
// zero-confidence placeholder item instead of failing the batch.
func (e *Engine) Batch(ctx context.Context, req types.BatchQARequest) (types.BatchQAResponse, error) {
	if len(req.Questions) == 0 {
		return types.BatchQAResponse{}, core.InvalidInput("questions must not be empty")
	}
	if strings.TrimSpace(req.Context) == "" {
		return types.BatchQAResponse{}, core.InvalidInput("context must not be empty")
	}
	out := types.BatchQAResponse{
		Results:        make([]types.BatchQAItem, 0, len(req.Questions)),
		TotalQuestions: len(req.Questions),
		Language:       langOrDefault(req.Language),
	}
	for _, q := range req.Questions {
		res, err := e.answer(ctx, q, req.Context, nil, req.Language)
		if err != nil {
			if ctx.Err() != nil {
				return types.BatchQAResponse{}, core.Timeout("request exceeded its time ceiling")
			}
			e.log.Warn().Err(err).Str("question", q).Msg("batch question failed")
			out.Results = append(out.Results, types.BatchQAItem{Question: q})
			continue
		}
		out.Results = append(out.Results, types.BatchQAItem{
			Question:       q,
			Answer:         res.Answer,
			Confidence:     res.Confidence,
			SupportingText: res.SupportingText,
		})
		out.SuccessfulAnswers++
	}
	return out, nil
}

func (e *Engine) answer(ctx context.Context, question, contextText string, hist []types.QAPair, language string) (types.QAResponse, error) {
	question = strings.TrimSpace(question)
	contextText = strings.TrimSpace(contextText)
	if question == "" {
		return types.QAResponse{}, core.InvalidInput("question must not be empty")
	}
	if contextText == "" {
		return types.QAResponse{}, core.InvalidInput("context must not be empty")
	}
	if max := e.cfg.QAContextMaxChars; max > 0 && len(contextText) > max {
		contextText = contextText[:snapToRuneStart(contextText, max)]
	}

	spec, ok := e.reg.ForTask(registry.TaskQA, language)
	if !ok {
		return types.QAResponse{}, core.InvalidInput("no qa model configured for language " + langOrDefault(language))
	}

	h, err := e.mgr.Acquire(ctx, spec, "")
	if err != nil {
		return types.QAResponse{}, err
	}
	defer e.mgr.Release(h)

	prompt := contextText
	if len(hist) > 0 {
		prompt = promptWithHistory(contextText, hist)
	}
	params := manager.GenParams{
		MaxTokens:     256,
		Instruction:   "Answer the question using only the provided context. If the context does not contain the answer, say so.",
		Deterministic: true,
		Seed:          e.cfg.Seed,
	}
	gen, err := h.Backend().Answer(ctx, prompt, question, params)
	if err != nil {
		if ctx.Err() != nil {
			return types.QAResponse{}, core.Timeout("request exceeded its time ceiling")
		}
		return types.QAResponse{}, summarize.ErrInference(err.Error())
	}
	answer := strings.TrimSpace(gen.Text)
	if answer == "" {
		return types.QAResponse{}, summarize.ErrInference("empty generation")
	}

	conf, source := confidence(gen, answer, contextText)
	support, start, end := supportingSpan(contextText, answer)

	return types.QAResponse{
		ID:               uuid.NewString(),
		Answer:           answer,
		Confidence:       conf,
		ConfidenceBucket: bucket(conf),
		SupportingText:   support,
		StartPosition:    start,
		EndPosition:      end,
		Timestamp:        time.Now().Unix(),
		Metadata: types.QAMetadata{
			QuestionWords:     chunker.CountWords(question),
			ContextWords:      chunker.CountWords(contextText),
			AnswerWords:       chunker.CountWords(answer),
			ConversationTurns: len(hist),
			Language:          langOrDefault(language),
			ModelUsed:         spec.ID,
			ConfidenceSource:  source,
		},
	}, nil
}

// promptWithHistory frames prior exchanges ahead of the current context so
// the model can resolve pronouns and follow-ups. Oldest turn first.
func promptWithHistory(contextText string, hist []types.QAPair) string {
	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for i := len(hist) - 1; i >= 0; i-- {
		b.WriteString("Q: ")
		b.WriteString(hist[i].Question)
		b.WriteString("\nA: ")
		b.WriteString(hist[i].Answer)
		b.WriteString("\n")
	}
	b.WriteString("\nCurrent context:\n")
	b.WriteString(contextText)
	return b.String()
}

// confidence derives a [0,1] score. Token log-probabilities from the backend
// win; without them the share of answer tokens found in the context stands in.
func confidence(gen manager.GenResult, answer, contextText string) (float64, string) {
	if gen.HasLogProb {
		c := math.Exp(gen.MeanLogProb)
		if c > 1 {
			c = 1
		}
		if c < 0 {
			c = 0
		}
		return round4(c), "model"
	}
	toks := tokens(answer)
	if len(toks) == 0 {
		return 0, "overlap"
	}
	ctxToks := make(map[string]struct{})
	for _, t := range tokens(contextText) {
		ctxToks[t] = struct{}{}
	}
	matched := 0
	for _, t := range toks {
		if _, ok := ctxToks[t]; ok {
			matched++
		}
	}
	return round4(float64(matched) / float64(len(toks))), "overlap"
}

func bucket(conf float64) string {
	switch {
	case conf >= 0.8:
		return bucketHigh
	case conf >= 0.6:
		return bucketMedium
	default:
		return bucketLow
	}
}

// supportingSpan locates the answer inside the context and returns it with
// padding on both sides. An answer the context never states yields an empty
// span at position zero.
func supportingSpan(contextText, answer string) (string, int, int) {
	lowerCtx := strings.ToLower(contextText)
	idx := strings.Index(lowerCtx, strings.ToLower(answer))
	if idx < 0 {
		// Fall back to the longest answer token present in the context.
		best := ""
		for _, t := range tokens(answer) {
			if len(t) > len(best) && strings.Contains(lowerCtx, t) {
				best = t
			}
		}
		if best == "" {
			return "", 0, 0
		}
		idx = strings.Index(lowerCtx, best)
		answer = best
	}
	start := idx - spanPadding
	if start < 0 {
		start = 0
	}
	start = snapToRuneStart(contextText, start)
	end := idx + len(answer) + spanPadding
	if end > len(contextText) {
		end = len(contextText)
	}
	end = snapToRuneStart(contextText, end)
	return contextText[start:end], start, end
}

// snapToRuneStart moves i left until it lands on a rune boundary of s.
// i == len(s) is already a boundary.
func snapToRuneStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func langOrDefault(lang string) string {
	if lang == "" {
		return "en"
	}
	return lang
}

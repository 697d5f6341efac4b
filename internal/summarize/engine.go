// Package summarize orchestrates map-reduce summarization over chunks,
// leasing models from the manager and holding the request's length policy.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"summaryd/internal/cache"
	"summaryd/internal/chunker"
	"summaryd/internal/config"
	"summaryd/internal/core"
	"summaryd/internal/manager"
	"summaryd/internal/registry"
	"summaryd/pkg/types"
)

// Engine turns documents into length-bounded summaries.
type Engine struct {
	mgr   *manager.Manager
	reg   *registry.Registry
	cfg   config.Config
	cache *cache.Cache
	log   zerolog.Logger
}

// New constructs an Engine. The cache may be nil.
func New(mgr *manager.Manager, reg *registry.Registry, cfg config.Config, c *cache.Cache, log zerolog.Logger) *Engine {
	return &Engine{mgr: mgr, reg: reg, cfg: cfg, cache: c, log: log}
}

// chunkResult carries one map-phase outcome to the join barrier.
type chunkResult struct {
	index   int
	text    string
	skipped bool
}

// Summarize runs the full pipeline for one request. The response is either a
// complete result or an error; the only documented degradation is the
// skipped-chunk count in the metadata.
func (e *Engine) Summarize(ctx context.Context, req types.SummarizeRequest) (types.SummaryResult, error) {
	text := strings.TrimSpace(req.Text)
	words := chunker.CountWords(text)
	if text == "" || words < e.cfg.MinInputWords {
		return types.SummaryResult{}, core.InvalidInput(fmt.Sprintf("text is too short or empty (minimum %d words)", e.cfg.MinInputWords))
	}
	if words > e.cfg.MaxInputWords {
		return types.SummaryResult{}, core.InvalidInput(fmt.Sprintf("text exceeds the input ceiling of %d words", e.cfg.MaxInputWords))
	}

	if err := validateRequest(req); err != nil {
		return types.SummaryResult{}, err
	}
	minW, maxW, err := e.lengthBounds(req)
	if err != nil {
		return types.SummaryResult{}, err
	}

	// A minimum above the achievable compression of a short input returns
	// the original unmodified, flagged, rather than failing or padding.
	if words <= minW {
		return e.result(req, text, text, 1, 0, 0, true), nil
	}

	if res, ok := e.cache.GetSummary(ctx, req); ok {
		e.log.Debug().Msg("summary served from cache")
		return res, nil
	}

	spec, ok := e.reg.ForTask(registry.TaskSummarize, req.Language)
	if !ok {
		return types.SummaryResult{}, ErrSummarization("no summarization model configured")
	}

	budget := e.cfg.ChunkSizeWords
	if spec.CtxBudgetWords > 0 && spec.CtxBudgetWords < budget {
		budget = spec.CtxBudgetWords
	}
	chunks, err := chunker.Split(text, budget, e.cfg.ChunkOverlapWords)
	if err != nil {
		return types.SummaryResult{}, e.mapErr(ctx, err)
	}

	results, skipped, err := e.mapPhase(ctx, spec, chunks, req, minW, maxW)
	if err != nil {
		return types.SummaryResult{}, e.mapErr(ctx, err)
	}
	if skipped == len(chunks) {
		return types.SummaryResult{}, ErrSummarization("all chunks failed")
	}

	combined := joinInOrder(results)
	passes := 0
	needReduce := len(chunks) > 1 || chunker.CountWords(combined) > maxW
	for needReduce {
		if passes >= e.cfg.MaxReductionDepth {
			return types.SummaryResult{}, ErrSummarization(fmt.Sprintf(
				"length bound unmet after %d reduction passes", passes))
		}
		combined, err = e.generate(ctx, spec, combined, req, minW, maxW)
		if err != nil {
			return types.SummaryResult{}, e.mapErr(ctx, err)
		}
		passes++
		needReduce = chunker.CountWords(combined) > maxW
	}

	if got := chunker.CountWords(combined); got < minW || got > maxW {
		return types.SummaryResult{}, ErrSummarization(fmt.Sprintf(
			"summary length %d outside [%d, %d]", got, minW, maxW))
	}

	res := e.result(req, text, combined, len(chunks), skipped, passes, false)
	e.cache.SetSummary(ctx, req, res)
	return res, nil
}

func validateRequest(req types.SummarizeRequest) error {
	switch req.Style {
	case "", StyleBrief, StyleDetailed, StyleComprehensive:
	default:
		return core.InvalidInput("unknown style " + req.Style)
	}
	switch req.Type {
	case "", TypeComprehensive, TypeBulletPoints, TypeStory:
	default:
		return core.InvalidInput("unknown summary type " + req.Type)
	}
	return nil
}

// lengthBounds resolves the request bounds against defaults and ceilings.
func (e *Engine) lengthBounds(req types.SummarizeRequest) (int, int, error) {
	minW := req.MinLength
	if minW == 0 {
		minW = e.cfg.DefaultMinLength
	}
	maxW := req.MaxLength
	if maxW == 0 {
		maxW = e.cfg.DefaultMaxLength
	}
	minW = clamp(minW, e.cfg.MinSummaryLength, e.cfg.MaxSummaryLength)
	maxW = clamp(maxW, e.cfg.MinSummaryLength, e.cfg.MaxSummaryLength)
	if minW >= maxW {
		return 0, 0, core.InvalidInput(fmt.Sprintf("min_length %d must be below max_length %d", minW, maxW))
	}
	return minW, maxW, nil
}

// mapPhase summarizes every chunk concurrently under the worker limit and
// joins before returning: failed chunks are retried once, then marked
// skipped, so the reduce phase always sees a complete picture.
func (e *Engine) mapPhase(ctx context.Context, spec types.ModelSpec, chunks []chunker.Chunk, req types.SummarizeRequest, minW, maxW int) ([]chunkResult, int, error) {
	results := make([]chunkResult, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MapWorkers)
	share := styleShare(req.Style)
	for _, c := range chunks {
		g.Go(func() error {
			targetMax := clamp(int(float64(c.Words)*share), minW, maxW)
			targetMin := minW
			if targetMin >= targetMax {
				targetMin = clamp(targetMax-5, 1, targetMax)
			}
			out, err := e.generate(gctx, spec, c.Text, req, targetMin, targetMax)
			if err != nil {
				if !IsInference(err) {
					return err // manager/context failures abort the request
				}
				e.log.Warn().Int("chunk", c.Index).Err(err).Msg("chunk skipped after retry")
				results[c.Index] = chunkResult{index: c.Index, skipped: true}
				return nil
			}
			results[c.Index] = chunkResult{index: c.Index, text: out}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	skipped := 0
	for _, r := range results {
		if r.skipped {
			skipped++
		}
	}
	return results, skipped, nil
}

// generate runs one summarization pass through a leased handle, retrying a
// failed inference once before reporting it.
func (e *Engine) generate(ctx context.Context, spec types.ModelSpec, text string, req types.SummarizeRequest, minW, maxW int) (string, error) {
	h, err := e.mgr.Acquire(ctx, spec, "")
	if err != nil {
		return "", err
	}
	defer e.mgr.Release(h)

	params := manager.GenParams{
		MaxTokens:     toTokens(maxW),
		MinTokens:     toTokens(minW),
		Instruction:   buildInstruction(req.Style, req.Type, req.CustomPrompt, req.Language, minW, maxW),
		Deterministic: true,
		Seed:          e.cfg.Seed,
	}
	res, err := h.Backend().Summarize(ctx, text, params)
	if err != nil && ctx.Err() == nil {
		res, err = h.Backend().Summarize(ctx, text, params)
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ErrInference(err.Error())
	}
	out := strings.TrimSpace(res.Text)
	if out == "" {
		return "", ErrInference("empty generation")
	}
	return out, nil
}

// joinInOrder concatenates surviving chunk summaries in original order.
func joinInOrder(results []chunkResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r.skipped || r.text == "" {
			continue
		}
		parts = append(parts, r.text)
	}
	return strings.Join(parts, " ")
}

// mapErr translates an expired request deadline into the timeout kind.
func (e *Engine) mapErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return core.Timeout("request exceeded its time ceiling")
	}
	return err
}

func (e *Engine) result(req types.SummarizeRequest, original, summary string, chunkCount, skipped, passes int, originalReturned bool) types.SummaryResult {
	origWords := chunker.CountWords(original)
	sumWords := chunker.CountWords(summary)
	style := req.Style
	if style == "" {
		style = StyleDetailed
	}
	return types.SummaryResult{
		Summary: summary,
		Metadata: types.SummaryMetadata{
			OriginalWordCount:  origWords,
			SummaryWordCount:   sumWords,
			CompressionRatio:   CompressionRatio(origWords, sumWords),
			ReadingTimeMinutes: ReadingTimeMinutes(sumWords),
			ChunkCount:         chunkCount,
			SkippedChunkCount:  skipped,
			ReductionPasses:    passes,
			OriginalReturned:   originalReturned,
			Style:              style,
			CustomPromptUsed:   strings.TrimSpace(req.CustomPrompt) != "",
		},
	}
}

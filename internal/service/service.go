// Package service composes the engines behind the HTTP API: summarization
// with its lexical annotations, question answering and the model manager's
// status surface.
package service

import (
	"context"

	"summaryd/internal/analysis"
	"summaryd/internal/manager"
	"summaryd/internal/qa"
	"summaryd/internal/registry"
	"summaryd/internal/summarize"
	"summaryd/pkg/types"
)

// Service implements httpapi.Service over the two engines.
type Service struct {
	mgr       *manager.Manager
	reg       *registry.Registry
	summaries *summarize.Engine
	questions *qa.Engine
}

// New assembles a Service.
func New(mgr *manager.Manager, reg *registry.Registry, s *summarize.Engine, q *qa.Engine) *Service {
	return &Service{mgr: mgr, reg: reg, summaries: s, questions: q}
}

// ListModels returns the configured model specs.
func (s *Service) ListModels() []types.ModelSpec { return s.reg.List() }

// Status reports resident handles and lifetime counters.
func (s *Service) Status() types.StatusResponse { return s.mgr.Status() }

// Ready reports whether the service can accept work.
func (s *Service) Ready() bool { return s.mgr.Ready() }

// Summarize produces a summary and annotates it with keywords, topics and
// sentiment. The annotations are lexical and never fail the request.
func (s *Service) Summarize(ctx context.Context, req types.SummarizeRequest) (types.SummarizeResponse, error) {
	res, err := s.summaries.Summarize(ctx, req)
	if err != nil {
		return types.SummarizeResponse{}, err
	}
	return types.SummarizeResponse{
		Summary:   res.Summary,
		Keywords:  analysis.Keywords(res.Summary),
		Topics:    analysis.Topics(res.Summary),
		Sentiment: analysis.Sentiment(res.Summary),
		Metadata:  res.Metadata,
	}, nil
}

// Ask answers one question against its context.
func (s *Service) Ask(ctx context.Context, req types.QARequest) (types.QAResponse, error) {
	return s.questions.Ask(ctx, req)
}

// AskConversation answers a follow-up question with history.
func (s *Service) AskConversation(ctx context.Context, req types.ConversationQARequest) (types.QAResponse, error) {
	return s.questions.AskConversation(ctx, req)
}

// Batch answers several questions against a shared context.
func (s *Service) Batch(ctx context.Context, req types.BatchQARequest) (types.BatchQAResponse, error) {
	return s.questions.Batch(ctx, req)
}

// Suggest proposes questions about the context, capped at numQuestions.
func (s *Service) Suggest(contextText string, numQuestions int) (types.SuggestedQuestionsResponse, error) {
	return qa.Suggest(contextText, numQuestions)
}

// QAHistory returns recorded exchanges, most recent first.
func (s *Service) QAHistory() []types.QAPair {
	h := s.questions.History()
	return h.Recent(h.Len())
}

// ClearQAHistory drops the recorded exchanges.
func (s *Service) ClearQAHistory() {
	s.questions.History().Clear()
}

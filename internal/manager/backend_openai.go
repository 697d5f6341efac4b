package manager

import (
	"context"
	"errors"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"summaryd/pkg/types"
)

func init() {
	RegisterFamily("openai", func(spec types.ModelSpec, device string, quantized bool) (Backend, error) {
		return newOpenAIBackend(spec), nil
	})
}

// openaiBackend serves both tasks through an OpenAI-compatible chat
// completions endpoint. Model-reported token log-probabilities are surfaced
// so the Q&A engine can derive confidence from them.
type openaiBackend struct {
	client  *openai.Client
	modelID string
}

func newOpenAIBackend(spec types.ModelSpec) *openaiBackend {
	cfg := openai.DefaultConfig(spec.APIKey)
	if spec.BaseURL != "" {
		cfg.BaseURL = spec.BaseURL
	}
	return &openaiBackend{
		client:  openai.NewClientWithConfig(cfg),
		modelID: spec.ID,
	}
}

// Ping verifies the endpoint is reachable before the handle is considered loaded.
func (b *openaiBackend) Ping(ctx context.Context) error {
	_, err := b.client.ListModels(ctx)
	return err
}

func (b *openaiBackend) Summarize(ctx context.Context, text string, p GenParams) (GenResult, error) {
	return b.chat(ctx, p.Instruction, text, p)
}

func (b *openaiBackend) Answer(ctx context.Context, contextText, question string, p GenParams) (GenResult, error) {
	user := "Context:\n" + contextText + "\n\nQuestion: " + question
	return b.chat(ctx, p.Instruction, user, p)
}

func (b *openaiBackend) Close() error { return nil }

func (b *openaiBackend) chat(ctx context.Context, system, user string, p GenParams) (GenResult, error) {
	req := openai.ChatCompletionRequest{
		Model:     b.modelID,
		MaxTokens: p.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		LogProbs: true,
	}
	if p.Deterministic {
		// A literal zero is dropped by the client's omitempty; the smallest
		// positive value pins decoding to greedy in practice.
		req.Temperature = math.SmallestNonzeroFloat32
		seed := p.Seed
		req.Seed = &seed
	} else {
		req.Temperature = p.Temperature
		req.TopP = p.TopP
		if p.Seed != 0 {
			seed := p.Seed
			req.Seed = &seed
		}
	}
	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return GenResult{}, ctx.Err()
		}
		return GenResult{}, err
	}
	if len(resp.Choices) == 0 {
		return GenResult{}, errors.New("empty response from model")
	}
	out := GenResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	if lp := resp.Choices[0].LogProbs; lp != nil && len(lp.Content) > 0 {
		var sum float64
		for _, t := range lp.Content {
			sum += t.LogProb
		}
		out.MeanLogProb = sum / float64(len(lp.Content))
		out.HasLogProb = true
	}
	return out, nil
}

package manager

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"summaryd/pkg/types"
)

func init() {
	RegisterFamily("llama", func(spec types.ModelSpec, device string, quantized bool) (Backend, error) {
		return newLlamaBackend(spec), nil
	})
}

// llamaBackend talks to a running llama.cpp server over HTTP using the
// OpenAI-compatible /v1/completions endpoint with SSE streaming.
type llamaBackend struct {
	baseURL    string
	apiKey     string
	modelID    string
	httpClient *http.Client
}

func newLlamaBackend(spec types.ModelSpec) *llamaBackend {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0 on the client: every request carries a context deadline.
	return &llamaBackend{
		baseURL:    strings.TrimRight(spec.BaseURL, "/"),
		apiKey:     spec.APIKey,
		modelID:    spec.ID,
		httpClient: &http.Client{Transport: tr, Timeout: 0},
	}
}

// Ping verifies the server is reachable before the handle is considered loaded.
func (b *llamaBackend) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("llama server health: " + resp.Status)
	}
	return nil
}

func (b *llamaBackend) Summarize(ctx context.Context, text string, p GenParams) (GenResult, error) {
	prompt := p.Instruction + "\n\n" + text + "\n\nSummary:"
	return b.complete(ctx, prompt, p)
}

func (b *llamaBackend) Answer(ctx context.Context, contextText, question string, p GenParams) (GenResult, error) {
	prompt := p.Instruction + "\n\nContext:\n" + contextText + "\n\nQuestion: " + question + "\nAnswer:"
	return b.complete(ctx, prompt, p)
}

func (b *llamaBackend) Close() error {
	b.httpClient.CloseIdleConnections()
	return nil
}

// llamaCompletionRequest is the payload for /v1/completions.
type llamaCompletionRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p,omitempty"`
	Seed        int     `json:"seed,omitempty"`
	Stream      bool    `json:"stream"`
}

// llamaStreamChoice is a minimal subset of the streaming response.
type llamaStreamChoice struct {
	Text  string `json:"text"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type llamaStreamResponse struct {
	Choices []llamaStreamChoice `json:"choices"`
}

func (b *llamaBackend) complete(ctx context.Context, prompt string, p GenParams) (GenResult, error) {
	payload := llamaCompletionRequest{
		Model:     b.modelID,
		Prompt:    prompt,
		MaxTokens: p.MaxTokens,
		Stream:    true,
	}
	if p.Deterministic {
		payload.Temperature = 0
		payload.Seed = p.Seed
	} else {
		payload.Temperature = p.Temperature
		payload.TopP = p.TopP
		payload.Seed = p.Seed
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return GenResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return GenResult{}, ctx.Err()
		}
		return GenResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		eb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return GenResult{}, errors.New("llama server http error: " + resp.Status + ": " + string(eb))
	}

	// Servers emit Server-Sent Events with lines beginning with "data: ".
	r := bufio.NewReader(resp.Body)
	var out strings.Builder
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(strings.ToLower(line), "data:") {
				data := strings.TrimSpace(line[len("data:"):])
				if data == "[DONE]" {
					break
				}
				var msg llamaStreamResponse
				if jerr := json.Unmarshal([]byte(data), &msg); jerr == nil && len(msg.Choices) > 0 {
					c := msg.Choices[0]
					if c.Text != "" {
						out.WriteString(c.Text)
					} else if c.Delta.Content != "" {
						out.WriteString(c.Delta.Content)
					}
					continue
				}
				// Some builds stream raw JSON objects per line (non-SSE).
				var generic map[string]any
				if jerr := json.Unmarshal([]byte(data), &generic); jerr == nil {
					if tok, ok := generic["content"].(string); ok {
						out.WriteString(tok)
					}
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return GenResult{}, ctx.Err()
			}
			return GenResult{}, err
		}
	}
	return GenResult{Text: strings.TrimSpace(out.String())}, nil
}

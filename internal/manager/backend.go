package manager

import (
	"context"
	"fmt"
	"sync"

	"summaryd/pkg/types"
)

// Backend is the capability interface every model family implements. One
// interface for both tasks keeps dispatch polymorphic: callers select a model
// through the registry and never inspect the concrete type.
type Backend interface {
	// Summarize generates a summary of text under the given parameters.
	Summarize(ctx context.Context, text string, p GenParams) (GenResult, error)
	// Answer generates an answer to question grounded in contextText.
	Answer(ctx context.Context, contextText, question string, p GenParams) (GenResult, error)
	// Close releases resources associated with the backend.
	Close() error
}

// pinger is an optional backend capability used to verify a load.
type pinger interface {
	Ping(ctx context.Context) error
}

// GenParams captures generation parameters passed to a backend.
type GenParams struct {
	MaxTokens int
	MinTokens int
	// Instruction replacing the built-in template, applied verbatim.
	Instruction string
	// Deterministic forces non-sampling decoding (temperature 0, fixed seed).
	Deterministic bool
	Temperature   float32
	TopP          float32
	Seed          int
}

// GenResult is the outcome of one generation.
type GenResult struct {
	Text string
	// Mean token log-probability as reported by the model, when available.
	MeanLogProb      float64
	HasLogProb       bool
	PromptTokens     int
	CompletionTokens int
}

// BackendFactory constructs a backend for a model spec on a device.
type BackendFactory func(spec types.ModelSpec, device string, quantized bool) (Backend, error)

var (
	familiesMu sync.RWMutex
	families   = map[string]BackendFactory{}
)

// RegisterFamily installs a factory for a backend family name.
// Called from init funcs of the concrete backends and from tests.
func RegisterFamily(name string, f BackendFactory) {
	familiesMu.Lock()
	defer familiesMu.Unlock()
	families[name] = f
}

// familyFactory dispatches to the registered family of the spec.
func familyFactory(spec types.ModelSpec, device string, quantized bool) (Backend, error) {
	familiesMu.RLock()
	f, ok := families[spec.Family]
	familiesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend family: %s", spec.Family)
	}
	return f(spec, device, quantized)
}

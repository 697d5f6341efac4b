package manager

import (
	"context"
	"time"

	"summaryd/pkg/types"
)

// load constructs and verifies a backend for the spec. Each attempt is
// bounded by the load timeout; failures retry with exponential backoff up to
// the configured attempt count before surfacing a model-load error.
func (m *Manager) load(ctx context.Context, spec types.ModelSpec, device string) (Backend, error) {
	var lastErr error
	backoff := 200 * time.Millisecond
	for attempt := 1; attempt <= m.loadRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attemptCtx, cancel := context.WithTimeout(ctx, m.loadTimeout)
		b, err := m.factory(spec, device, m.quantize)
		if err == nil {
			if p, ok := b.(pinger); ok {
				if perr := p.Ping(attemptCtx); perr != nil {
					_ = b.Close()
					err = perr
				}
			}
		}
		cancel()
		if err == nil {
			return b, nil
		}
		lastErr = err
		m.log.Warn().Str("model", spec.ID).Int("attempt", attempt).Err(err).Msg("model load attempt failed")
		m.publisher.Publish(Event{Name: "load_retry", ModelID: spec.ID,
			Fields: map[string]any{"attempt": attempt, "error": err.Error()}})
		if attempt == m.loadRetries {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, ErrModelLoad(spec.ID, lastErr.Error())
}

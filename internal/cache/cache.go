// Package cache stores finished summaries in Redis keyed by the request
// inputs, so repeated submissions of the same document are answered without
// touching a model.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"summaryd/pkg/types"
)

// Client is the subset of the redis client the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache wraps a redis client with the summary key scheme. A nil *Cache is
// valid and caches nothing.
type Cache struct {
	client Client
	ttl    time.Duration
	log    zerolog.Logger
}

// New dials Redis from a URL such as redis://localhost:6379/0.
func New(url string, ttl time.Duration, log zerolog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewWithClient(redis.NewClient(opts), ttl, log), nil
}

// NewWithClient builds a Cache over an existing client. Tests use this with
// a stub.
func NewWithClient(c Client, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{client: c, ttl: ttl, log: log}
}

// SummaryKey derives the cache key from every request field that changes the
// output. Two requests share a key exactly when they would produce the same
// summary.
func SummaryKey(req types.SummarizeRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d|%s|%s",
		req.Text, req.Style, req.Type, req.MinLength, req.MaxLength, req.CustomPrompt, req.Language)
	return "summaryd:sum:" + hex.EncodeToString(h.Sum(nil))
}

// GetSummary returns a cached result, or false on miss or any cache failure.
func (c *Cache) GetSummary(ctx context.Context, req types.SummarizeRequest) (types.SummaryResult, bool) {
	if c == nil || c.client == nil {
		return types.SummaryResult{}, false
	}
	raw, err := c.client.Get(ctx, SummaryKey(req)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Msg("cache get failed")
		}
		return types.SummaryResult{}, false
	}
	var res types.SummaryResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		c.log.Warn().Err(err).Msg("cache entry undecodable")
		return types.SummaryResult{}, false
	}
	return res, true
}

// SetSummary stores a result. Failures are logged, never surfaced.
func (c *Cache) SetSummary(ctx context.Context, req types.SummarizeRequest, res types.SummaryResult) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache encode failed")
		return
	}
	if err := c.client.Set(ctx, SummaryKey(req), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache set failed")
	}
}

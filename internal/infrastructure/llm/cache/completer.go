// Package cache memoizes completions in Redis keyed by model and prompt.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

const keyPrefix = "review:completion:"

type Completer struct {
	next      ports.Completer
	rdb       redis.Cmdable
	model     string
	ttl       time.Duration
	cacheable func(output string) bool
}

type Option func(*Completer)

// WithCacheable stores only outputs the predicate accepts; rejected
// outputs are returned but recomputed next time.
func WithCacheable(accept func(output string) bool) Option {
	return func(c *Completer) {
		c.cacheable = accept
	}
}

func NewCompleter(next ports.Completer, rdb redis.Cmdable, model string, ttl time.Duration, opts ...Option) *Completer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c := &Completer{next: next, rdb: rdb, model: model, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect parses a redis:// URL and verifies the server answers PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Complete serves cached output when present. Cache faults never fail the
// completion.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	key := c.key(prompt)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		slog.Warn("completion_cache_read_failed", "error", err)
	}

	out, err := c.next.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if c.cacheable != nil && !c.cacheable(out) {
		slog.Debug("completion_not_cached", "model", c.model)
		return out, nil
	}
	if err := c.rdb.Set(ctx, key, out, c.ttl).Err(); err != nil {
		slog.Warn("completion_cache_write_failed", "error", err)
	}
	return out, nil
}

func (c *Completer) key(prompt string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + prompt))
	return keyPrefix + hex.EncodeToString(sum[:])
}

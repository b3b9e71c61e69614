// Package cache provides Redis read-through decorators for the tenant
// directory. Every dispatched run resolves its organization and integrations;
// these lookups are hot, small, and slow-changing, so they cache well.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how stale a cached directory record may be.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "leadflow:"

// store wraps the shared read-through plumbing.
type store struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// get loads a cached document into out, reporting whether it was found. Any
// Redis failure is logged and treated as a miss; the backing repository is
// the source of truth.
func (s *store) get(ctx context.Context, key string, out any) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
		}

		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.logger.WarnContext(ctx, "Cache entry corrupt, dropping", "key", key, "error", err)
		s.invalidate(ctx, key)

		return false
	}

	return true
}

func (s *store) put(ctx context.Context, key string, doc any) {
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
	}
}

func (s *store) invalidate(ctx context.Context, keys ...string) {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.WarnContext(ctx, "Cache invalidation failed", "keys", keys, "error", err)
	}
}

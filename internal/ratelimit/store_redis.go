package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	dErrors "vigil/pkg/domain-errors"
)

// RedisStore shares fixed-window counters across ingest replicas. INCR and
// EXPIRE run in one pipeline; the first increment of a window sets its TTL.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, prefix: "vigil:ratelimit:"}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	full := s.prefix + key

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, full)
	pipe.ExpireNX(ctx, full, window)
	ttl := pipe.TTL(ctx, full)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, dErrors.Wrap(dErrors.CodeInternal, "rate limit counter", err)
	}

	n := int(count.Val())
	resetAt := time.Now().Add(ttl.Val())
	if n > limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt, Limit: limit}, nil
	}
	return Result{Allowed: true, Remaining: limit - n, ResetAt: resetAt, Limit: limit}, nil
}

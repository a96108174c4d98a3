package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore rate-limits with a sliding window of request timestamps.
// The sliding window avoids the burst-at-the-boundary problem of fixed
// windows at the cost of holding one timestamp per counted request.
type InMemoryStore struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{buckets: make(map[string][]time.Time), now: time.Now}
}

func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.buckets[key][:0]
	for _, ts := range s.buckets[key] {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		s.buckets[key] = kept
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   kept[0].Add(window),
			Limit:     limit,
		}, nil
	}

	kept = append(kept, now)
	s.buckets[key] = kept
	return Result{
		Allowed:   true,
		Remaining: limit - len(kept),
		ResetAt:   kept[0].Add(window),
		Limit:     limit,
	}, nil
}

package alert

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SuppressionStore decides whether an alert key fired recently. Keys combine
// rule, location, and identity so distinct incidents never suppress each
// other. Stores are interface-driven so the engine tests with memory and
// deployments share state through Redis.
type SuppressionStore interface {
	// Mark records the key and reports whether it was already present
	// inside the window (true means suppress).
	Mark(ctx context.Context, key string, window time.Duration) (bool, error)
}

// InMemorySuppressionStore favors clarity over performance; entries are
// pruned lazily on access.
type InMemorySuppressionStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewInMemorySuppressionStore() *InMemorySuppressionStore {
	return &InMemorySuppressionStore{seen: make(map[string]time.Time), now: time.Now}
}

func (s *InMemorySuppressionStore) Mark(_ context.Context, key string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if at, ok := s.seen[key]; ok && now.Sub(at) < window {
		return true, nil
	}
	s.seen[key] = now
	// Lazy prune keeps the map bounded without a background goroutine.
	for k, at := range s.seen {
		if now.Sub(at) >= window {
			delete(s.seen, k)
		}
	}
	return false, nil
}

// RedisSuppressionStore shares suppression state across pipeline replicas
// using SET NX with a TTL equal to the window.
type RedisSuppressionStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisSuppressionStore(client redis.Cmdable) *RedisSuppressionStore {
	return &RedisSuppressionStore{client: client, prefix: "vigil:alert:seen:"}
}

func (s *RedisSuppressionStore) Mark(ctx context.Context, key string, window time.Duration) (bool, error) {
	set, err := s.client.SetNX(ctx, s.prefix+key, 1, window).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

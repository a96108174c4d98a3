//go:build integration

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vigil/internal/ratelimit"
	"vigil/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *ratelimit.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = ratelimit.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestCountsAgainstTheLimit() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := s.store.Allow(ctx, "cam-1", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}

	result, err := s.store.Allow(ctx, "cam-1", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)

	result, err = s.store.Allow(ctx, "cam-2", 3, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed, "counters are per source")
}

func (s *RedisStoreSuite) TestWindowExpires() {
	ctx := context.Background()
	const window = 200 * time.Millisecond

	result, err := s.store.Allow(ctx, "cam-1", 1, window)
	s.Require().NoError(err)
	s.True(result.Allowed)

	result, err = s.store.Allow(ctx, "cam-1", 1, window)
	s.Require().NoError(err)
	s.False(result.Allowed)

	s.Eventually(func() bool {
		again, allowErr := s.store.Allow(ctx, "cam-1", 1, window)
		return allowErr == nil && again.Allowed
	}, 2*time.Second, 50*time.Millisecond)
}

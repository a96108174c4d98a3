//go:build integration

package alert_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vigil/internal/alert"
	"vigil/pkg/testutil/containers"
)

type RedisSuppressionSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *alert.RedisSuppressionStore
}

func TestRedisSuppressionSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSuppressionSuite))
}

func (s *RedisSuppressionSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = alert.NewRedisSuppressionStore(s.redis.Client)
}

func (s *RedisSuppressionSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSuppressionSuite) TestFirstMarkFires() {
	ctx := context.Background()

	suppressed, err := s.store.Mark(ctx, "truancy|room-s1|person-1", time.Minute)
	s.Require().NoError(err)
	s.False(suppressed)

	suppressed, err = s.store.Mark(ctx, "truancy|room-s1|person-1", time.Minute)
	s.Require().NoError(err)
	s.True(suppressed, "repeat inside the window is suppressed")
}

func (s *RedisSuppressionSuite) TestDistinctKeysDoNotSuppressEachOther() {
	ctx := context.Background()

	suppressed, err := s.store.Mark(ctx, "truancy|room-s1|person-1", time.Minute)
	s.Require().NoError(err)
	s.False(suppressed)

	suppressed, err = s.store.Mark(ctx, "truancy|room-s1|person-2", time.Minute)
	s.Require().NoError(err)
	s.False(suppressed)

	suppressed, err = s.store.Mark(ctx, "audio_level|room-s1|", time.Minute)
	s.Require().NoError(err)
	s.False(suppressed)
}

func (s *RedisSuppressionSuite) TestWindowExpiry() {
	ctx := context.Background()
	const window = 100 * time.Millisecond

	suppressed, err := s.store.Mark(ctx, "audio_level|lab-1|", window)
	s.Require().NoError(err)
	s.False(suppressed)

	// Redis owns expiry through the key TTL; once it lapses the same
	// incident may fire again.
	s.Eventually(func() bool {
		again, markErr := s.store.Mark(ctx, "audio_level|lab-1|", window)
		return markErr == nil && !again
	}, 2*time.Second, 25*time.Millisecond)
}

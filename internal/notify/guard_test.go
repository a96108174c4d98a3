package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/alert"
	"vigil/pkg/domain"
)

type countingSink struct {
	calls int
	err   error
}

func (c *countingSink) Deliver(context.Context, alert.Alert) error {
	c.calls++
	return c.err
}

func TestGuardedSinkOpensAfterRepeatedFailures(t *testing.T) {
	inner := &countingSink{err: errors.New("broker down")}
	guard := NewGuardedSink(inner, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	a := alert.Alert{ID: domain.NewAlertID(), Location: "room-s1"}

	for i := 0; i < 3; i++ {
		require.Error(t, guard.Deliver(t.Context(), a))
	}
	assert.Equal(t, 3, inner.calls)

	// Circuit is open: deliveries are skipped, not attempted.
	require.NoError(t, guard.Deliver(t.Context(), a))
	assert.Equal(t, 3, inner.calls)
}

func TestGuardedSinkProbesAndRecovers(t *testing.T) {
	inner := &countingSink{err: errors.New("broker down")}
	guard := NewGuardedSink(inner, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	a := alert.Alert{ID: domain.NewAlertID(), Location: "room-s1"}

	for i := 0; i < 3; i++ {
		require.Error(t, guard.Deliver(t.Context(), a))
	}

	// The broker comes back. The next probe and the success after it close
	// the circuit again.
	inner.err = nil
	probed := inner.calls
	for inner.calls == probed {
		require.NoError(t, guard.Deliver(t.Context(), a))
	}
	for guard.breaker.IsOpen() {
		require.NoError(t, guard.Deliver(t.Context(), a))
	}

	before := inner.calls
	require.NoError(t, guard.Deliver(t.Context(), a))
	assert.Equal(t, before+1, inner.calls, "closed circuit delivers every alert")
}

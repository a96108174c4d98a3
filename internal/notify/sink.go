// Package notify hands finished pipeline output to the outside world:
// routed alerts and sealed ledger commitments. Delivery transports sit
// behind Sink so tests and single-node deployments run without a broker.
package notify

import (
	"context"
	"sync"

	"vigil/internal/alert"
	"vigil/internal/ledger"
)

// Sink receives each routed alert exactly once, in the order the pipeline
// produced them.
type Sink interface {
	Deliver(ctx context.Context, a alert.Alert) error
}

// CommitSink receives sealed batch commitments for external anchoring.
type CommitSink interface {
	Export(ctx context.Context, c ledger.Commit) error
}

// MemorySink retains a bounded window of recent alerts. The oldest alert
// falls off once the window is full.
type MemorySink struct {
	mu     sync.RWMutex
	alerts []alert.Alert
	limit  int
}

// DefaultRetention matches the recent-alert window served over HTTP.
const DefaultRetention = 100

func NewMemorySink(limit int) *MemorySink {
	if limit <= 0 {
		limit = DefaultRetention
	}
	return &MemorySink{limit: limit}
}

func (s *MemorySink) Deliver(_ context.Context, a alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	if len(s.alerts) > s.limit {
		s.alerts = s.alerts[len(s.alerts)-s.limit:]
	}
	return nil
}

// Recent returns the retained alerts, oldest first.
func (s *MemorySink) Recent() []alert.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]alert.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Fanout delivers each alert to every sink. The first failure aborts the
// fanout so the dispatcher logs it; earlier sinks keep their copy.
type Fanout []Sink

func (f Fanout) Deliver(ctx context.Context, a alert.Alert) error {
	for _, s := range f {
		if err := s.Deliver(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

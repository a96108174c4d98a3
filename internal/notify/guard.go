package notify

import (
	"context"
	"log/slog"
	"sync"

	"vigil/internal/alert"
	"vigil/pkg/platform/circuit"
)

// probeEvery is how many skipped deliveries pass between probes of an open
// circuit. The breaker has no timer; probes are what let it close again.
const probeEvery = 10

// GuardedSink wraps a sink with a circuit breaker so a dead broker cannot
// slow every alert down to its timeout. While the circuit is open most
// deliveries are skipped outright; alerting is advisory and every alert is
// already in the ledger before it reaches a sink.
type GuardedSink struct {
	sink    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger

	mu      sync.Mutex
	skipped int
}

func NewGuardedSink(sink Sink, name string, logger *slog.Logger) *GuardedSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardedSink{
		sink: sink,
		breaker: circuit.New(name,
			circuit.WithFailureThreshold(3),
			circuit.WithSuccessThreshold(2),
		),
		logger: logger,
	}
}

func (g *GuardedSink) Deliver(ctx context.Context, a alert.Alert) error {
	if g.breaker.IsOpen() && !g.shouldProbe() {
		g.logger.Debug("alert delivery skipped, circuit open",
			slog.String("sink", g.breaker.Name()),
			slog.String("alert_id", a.ID.String()),
		)
		return nil
	}

	if err := g.sink.Deliver(ctx, a); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.Warn("alert sink circuit opened",
				slog.String("sink", g.breaker.Name()),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.Info("alert sink circuit closed", slog.String("sink", g.breaker.Name()))
	}
	return nil
}

func (g *GuardedSink) shouldProbe() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.skipped++
	if g.skipped >= probeEvery {
		g.skipped = 0
		return true
	}
	return false
}

// Package compliance turns observations plus resolved expectations into
// verdicts. The debounce state machine is the dominant correctness property
// here: a single-frame misread (occlusion, transient mismatch) must never
// produce an alert.
package compliance

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vigil/internal/compliance/metrics"
	"vigil/internal/observation"
	"vigil/internal/schedule"
	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// DefaultThreshold is the consecutive-violation count that confirms a
// violation, roughly five seconds at 1 Hz sampling.
const DefaultThreshold = 5

// Evaluator owns the per-identity debounce state. Instantiate one per
// pipeline; tests get isolated state for free.
type Evaluator struct {
	threshold int
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu    sync.Mutex
	state map[domain.PersonID]*identityState
}

type identityState struct {
	phase  DebounceState
	streak int
	lastTS time.Time
}

// Option configures the Evaluator.
type Option func(*Evaluator)

// WithThreshold overrides the confirmation threshold.
func WithThreshold(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.threshold = n
		}
	}
}

// WithLogger sets a logger for evaluation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// NewEvaluator builds an evaluator with default tuning.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		threshold: DefaultThreshold,
		logger:    slog.New(slog.DiscardHandler),
		state:     make(map[domain.PersonID]*identityState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate classifies one presence observation against its resolved
// expectation and advances the identity's debounce state.
//
// Observations for one identity must arrive in timestamp order; the state
// machine is order-sensitive, so a stale timestamp is rejected with
// CodeOutOfOrder rather than silently accepted.
func (e *Evaluator) Evaluate(obs observation.Event, expected *schedule.Entry) (Verdict, error) {
	if obs.Kind != observation.KindPresence {
		return Verdict{}, dErrors.Newf(dErrors.CodeInvalidInput, "cannot evaluate %s observation", obs.Kind)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.state[obs.Identity]
	if !ok {
		st = &identityState{}
		e.state[obs.Identity] = st
	}
	if !st.lastTS.IsZero() && obs.Timestamp.Before(st.lastTS) {
		e.metrics.IncOutOfOrder()
		return Verdict{}, dErrors.Newf(dErrors.CodeOutOfOrder,
			"observation at %s is behind identity clock %s",
			obs.Timestamp.Format(time.RFC3339), st.lastTS.Format(time.RFC3339))
	}
	st.lastTS = obs.Timestamp

	v := Verdict{
		Identity:  obs.Identity,
		Timestamp: obs.Timestamp,
		Observed:  obs.Location,
	}

	if expected == nil {
		st.phase, st.streak = Settled, 0
		v.Status = StatusNoExpectation
		v.Reason = "free period"
		e.metrics.IncVerdict(string(v.Status))
		return v, nil
	}

	loc := expected.Location
	v.Expected = &loc
	v.Subject = expected.Subject
	v.Responsible = expected.Responsible

	if obs.Location.Equal(expected.Location) {
		// Recovery is immediate: no debounce on the way back down.
		st.phase, st.streak = Settled, 0
		v.Status = StatusCompliant
		v.Reason = "on time"
		e.metrics.IncVerdict(string(v.Status))
		return v, nil
	}

	st.streak++
	v.Status = StatusViolation
	v.Streak = st.streak

	switch {
	case st.streak < e.threshold:
		st.phase = Pending
		v.Reason = fmt.Sprintf("potential mismatch (%d/%d)", st.streak, e.threshold)
	case st.streak == e.threshold:
		st.phase = Confirmed
		v.Confirmed = true
		v.Reason = fmt.Sprintf("expected in %s for %s, found in %s (verified %d times)",
			expected.Location, expected.Subject, obs.Location, st.streak)
		e.metrics.IncConfirmation()
		e.logger.Warn("violation confirmed",
			"identity", obs.Identity.String(),
			"expected", expected.Location.String(),
			"observed", obs.Location.String(),
			"subject", expected.Subject,
			"streak", st.streak,
		)
	default:
		// Already confirmed; keep counting but do not re-confirm. The alert
		// engine handles escalation of the open incident.
		st.phase = Confirmed
		v.Reason = fmt.Sprintf("violation continuing (%d consecutive)", st.streak)
	}

	e.metrics.IncVerdict(string(v.Status))
	return v, nil
}

// State reports the current debounce phase and streak for an identity.
// Zero values mean the identity has never violated.
func (e *Evaluator) State(id domain.PersonID) (DebounceState, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.state[id]; ok {
		return st.phase, st.streak
	}
	return Settled, 0
}

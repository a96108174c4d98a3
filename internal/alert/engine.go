// Package alert converts confirmed violations and raw sensor signals into
// severity-classified, role-routed alerts. Classification is a decision
// table over the signal and its schedule context, not a learned model.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vigil/internal/alert/metrics"
	"vigil/internal/compliance"
	"vigil/internal/observation"
	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// Defaults for the engine's time-based gates.
const (
	DefaultEscalationAfter   = 30 * time.Second
	DefaultSustainedTruancy  = 5 * time.Second
	DefaultSustainedAudio    = 5 * time.Second
	DefaultAudioActiveDB     = 40.0
	DefaultAudioInactiveDB   = 80.0
	DefaultSuppressionWindow = 2 * time.Minute
)

// Engine owns per-identity incident state and per-location signal state.
// Shared-state mutation is confined to Handle/Sweep under one lock; the
// routing table itself is pure.
type Engine struct {
	registry *RoleRegistry
	store    SuppressionStore
	logger   *slog.Logger
	metrics  *metrics.Metrics

	escalationAfter   time.Duration
	sustainedTruancy  time.Duration
	sustainedAudio    time.Duration
	audioActiveDB     float64
	audioInactiveDB   float64
	suppressionWindow time.Duration

	mu        sync.Mutex
	incidents map[domain.PersonID]*incident
	signals   map[string]*signalState
}

// incident tracks one identity's open violation between first mismatch and
// recovery.
type incident struct {
	location    domain.Location
	subject     string
	responsible string
	firstAt     time.Time
	confirmed   bool
	warnedAt    time.Time
	warned      bool
	escalated   bool
}

type signalState struct {
	aboveSince time.Time
	alerted    bool
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithEscalationAfter sets how long an unresolved warning waits before
// escalating to critical.
func WithEscalationAfter(d time.Duration) EngineOption {
	return func(e *Engine) { e.escalationAfter = d }
}

// WithSustainedTruancy sets the minimum hold before a truancy alert.
func WithSustainedTruancy(d time.Duration) EngineOption {
	return func(e *Engine) { e.sustainedTruancy = d }
}

// WithSustainedAudio sets the minimum hold before an audio alert.
func WithSustainedAudio(d time.Duration) EngineOption {
	return func(e *Engine) { e.sustainedAudio = d }
}

// WithAudioThresholds sets the decibel-equivalent thresholds for active and
// inactive expectation windows.
func WithAudioThresholds(activeDB, inactiveDB float64) EngineOption {
	return func(e *Engine) {
		e.audioActiveDB = activeDB
		e.audioInactiveDB = inactiveDB
	}
}

// WithSuppressionWindow sets the duplicate-suppression window.
func WithSuppressionWindow(d time.Duration) EngineOption {
	return func(e *Engine) { e.suppressionWindow = d }
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithEngineMetrics sets the metrics collector.
func WithEngineMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds an alert engine. The suppression store may be in-memory
// or Redis-backed; the registry is required.
func NewEngine(registry *RoleRegistry, store SuppressionStore, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:          registry,
		store:             store,
		logger:            slog.New(slog.DiscardHandler),
		escalationAfter:   DefaultEscalationAfter,
		sustainedTruancy:  DefaultSustainedTruancy,
		sustainedAudio:    DefaultSustainedAudio,
		audioActiveDB:     DefaultAudioActiveDB,
		audioInactiveDB:   DefaultAudioInactiveDB,
		suppressionWindow: DefaultSuppressionWindow,
		incidents:         make(map[domain.PersonID]*incident),
		signals:           make(map[string]*signalState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleVerdict advances the truancy rule for one verdict. A nil alert with
// nil error means nothing fired: the incident is still inside a gate, was
// suppressed as a duplicate, or the verdict closed it.
func (e *Engine) HandleVerdict(ctx context.Context, v compliance.Verdict) (*Alert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch v.Status {
	case compliance.StatusCompliant, compliance.StatusNoExpectation:
		// Recovery discards any pending incident: a candidate that never
		// reached its threshold is dropped, not escalated.
		delete(e.incidents, v.Identity)
		return nil, nil
	case compliance.StatusViolation:
		// Handled below.
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown verdict status %q", v.Status)
	}

	inc, ok := e.incidents[v.Identity]
	if !ok {
		inc = &incident{
			location:    v.Observed,
			subject:     v.Subject,
			responsible: v.Responsible,
			firstAt:     v.Timestamp,
		}
		e.incidents[v.Identity] = inc
	}
	inc.confirmed = inc.confirmed || v.Confirmed

	if inc.confirmed && !inc.warned {
		held := v.Timestamp.Sub(inc.firstAt)
		if held >= e.sustainedTruancy {
			return e.emitWarning(ctx, v, inc, held)
		}
		return nil, nil
	}

	if inc.warned && !inc.escalated && v.Timestamp.Sub(inc.warnedAt) >= e.escalationAfter {
		return e.emitEscalation(ctx, v.Identity, inc, v.Timestamp)
	}
	return nil, nil
}

func (e *Engine) emitWarning(ctx context.Context, v compliance.Verdict, inc *incident, held time.Duration) (*Alert, error) {
	key := fmt.Sprintf("%s:%s:%s", RuleTruancy, v.Identity, v.Observed.Norm())
	dup, err := e.store.Mark(ctx, key, e.suppressionWindow)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "suppression store", err)
	}
	inc.warned = true
	inc.warnedAt = v.Timestamp
	if dup {
		e.metrics.IncSuppressed(string(RuleTruancy))
		return nil, nil
	}

	expected := ""
	if v.Expected != nil {
		expected = v.Expected.String()
	}
	a := &Alert{
		ID:           domain.NewAlertID(),
		Timestamp:    v.Timestamp,
		Severity:     SeverityWarning,
		Rule:         RuleTruancy,
		Message:      fmt.Sprintf("truancy: expected in %s for %s, found in %s", expected, v.Subject, v.Observed),
		Location:     v.Observed,
		Identity:     v.Identity,
		SustainedFor: held,
		Recipients:   e.registry.Lookup(SeverityWarning, v.Observed),
	}
	e.metrics.IncProduced(string(a.Rule), a.Severity.String())
	e.logger.Warn("truancy alert produced",
		"identity", v.Identity.String(),
		"expected", expected,
		"observed", v.Observed.String(),
		"held", held.String(),
	)
	return a, nil
}

func (e *Engine) emitEscalation(ctx context.Context, id domain.PersonID, inc *incident, now time.Time) (*Alert, error) {
	key := fmt.Sprintf("%s:%s:%s", RuleTruancyEscalation, id, inc.location.Norm())
	dup, err := e.store.Mark(ctx, key, e.suppressionWindow)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "suppression store", err)
	}
	inc.escalated = true
	if dup {
		e.metrics.IncSuppressed(string(RuleTruancyEscalation))
		return nil, nil
	}

	a := &Alert{
		ID:           domain.NewAlertID(),
		Timestamp:    now,
		Severity:     SeverityCritical,
		Rule:         RuleTruancyEscalation,
		Message:      fmt.Sprintf("unresolved truancy: still away from %s for %s", inc.subject, inc.location),
		Location:     inc.location,
		Identity:     id,
		SustainedFor: now.Sub(inc.firstAt),
		Recipients:   e.registry.Lookup(SeverityCritical, inc.location),
	}
	e.metrics.IncEscalation()
	e.metrics.IncProduced(string(a.Rule), a.Severity.String())
	e.logger.Error("truancy escalated to critical",
		"identity", id.String(),
		"location", inc.location.String(),
		"open_for", a.SustainedFor.String(),
	)
	return a, nil
}

// HandleSignal advances the context-aware signal rules for a non-presence
// observation. active reports whether an expectation window currently covers
// the observation's location; it flips the audio threshold between the
// in-session and out-of-session values.
func (e *Engine) HandleSignal(ctx context.Context, obs observation.Event, active bool) (*Alert, error) {
	switch obs.Kind {
	case observation.KindAudioLevel:
		return e.handleAudio(ctx, obs, active)
	case observation.KindSafetySignal:
		return e.handleSafety(ctx, obs)
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "cannot classify %s observation", obs.Kind)
	}
}

func (e *Engine) handleAudio(ctx context.Context, obs observation.Event, active bool) (*Alert, error) {
	threshold := e.audioInactiveDB
	severity := SeverityCritical
	if active {
		threshold = e.audioActiveDB
		severity = SeverityWarning
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.signals[obs.Location.Norm()]
	if !ok {
		st = &signalState{}
		e.signals[obs.Location.Norm()] = st
	}

	if obs.Level <= threshold {
		// A normal reading discards the pending candidate entirely.
		st.aboveSince = time.Time{}
		st.alerted = false
		return nil, nil
	}

	if st.aboveSince.IsZero() {
		st.aboveSince = obs.Timestamp
	}
	held := obs.Timestamp.Sub(st.aboveSince)
	if held < e.sustainedAudio || st.alerted {
		return nil, nil
	}

	key := fmt.Sprintf("%s:%s", RuleAudioLevel, obs.Location.Norm())
	dup, err := e.store.Mark(ctx, key, e.suppressionWindow)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "suppression store", err)
	}
	st.alerted = true
	if dup {
		e.metrics.IncSuppressed(string(RuleAudioLevel))
		return nil, nil
	}

	setting := "outside any scheduled session"
	if active {
		setting = "during a scheduled session"
	}
	a := &Alert{
		ID:           domain.NewAlertID(),
		Timestamp:    obs.Timestamp,
		Severity:     severity,
		Rule:         RuleAudioLevel,
		Message:      fmt.Sprintf("audio level %.1f dB in %s %s (threshold %.0f)", obs.Level, obs.Location, setting, threshold),
		Location:     obs.Location,
		SustainedFor: held,
		Recipients:   e.registry.Lookup(severity, obs.Location),
	}
	e.metrics.IncProduced(string(a.Rule), a.Severity.String())
	return a, nil
}

func (e *Engine) handleSafety(ctx context.Context, obs observation.Event) (*Alert, error) {
	// The classification happened in the excluded perception layer; there is
	// no sustained gate on an externally confirmed safety condition.
	key := fmt.Sprintf("%s:%s", RuleSafetySignal, obs.Location.Norm())
	dup, err := e.store.Mark(ctx, key, e.suppressionWindow)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "suppression store", err)
	}
	if dup {
		e.metrics.IncSuppressed(string(RuleSafetySignal))
		return nil, nil
	}

	a := &Alert{
		ID:         domain.NewAlertID(),
		Timestamp:  obs.Timestamp,
		Severity:   SeveritySecuritySensitive,
		Rule:       RuleSafetySignal,
		Message:    fmt.Sprintf("safety signal reported in %s", obs.Location),
		Location:   obs.Location,
		Recipients: e.registry.Lookup(SeveritySecuritySensitive, obs.Location),
	}
	e.metrics.IncProduced(string(a.Rule), a.Severity.String())
	e.logger.Error("safety signal alert produced", "location", obs.Location.String())
	return a, nil
}

// Sweep checks open incidents against the escalation deadline. The pipeline
// calls it on a ticker so an identity that simply left camera view still
// escalates on time.
func (e *Engine) Sweep(ctx context.Context, now time.Time) []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*Alert
	for id, inc := range e.incidents {
		if !inc.warned || inc.escalated || now.Sub(inc.warnedAt) < e.escalationAfter {
			continue
		}
		a, err := e.emitEscalation(ctx, id, inc, now)
		if err != nil {
			e.logger.Error("escalation sweep failed", "identity", id.String(), "error", err)
			continue
		}
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

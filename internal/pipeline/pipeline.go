// Package pipeline wires the decision path end to end: observation in,
// expectation resolution, compliance evaluation, alert routing, ledger
// commit, alert hand-off. One observation is processed at a time; the
// single-writer discipline is what makes per-identity ordering and gap-free
// ledger sequencing cheap to guarantee.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vigil/internal/alert"
	"vigil/internal/attendance"
	"vigil/internal/compliance"
	"vigil/internal/identity"
	"vigil/internal/ledger"
	"vigil/internal/observation"
	"vigil/internal/schedule"
	dErrors "vigil/pkg/domain-errors"
)

// DefaultSweepEvery is how often pending escalations are re-checked.
const DefaultSweepEvery = time.Second

// Recorder is the slice of the ledger the pipeline appends to.
type Recorder interface {
	Append(ctx context.Context, rec ledger.Record) (ledger.Entry, error)
}

// Outcome summarizes what one observation produced.
type Outcome struct {
	Verdict          *compliance.Verdict
	Alert            *alert.Alert
	AttendanceLogged bool
}

type Pipeline struct {
	registry  identity.Registry
	resolver  *schedule.Resolver
	evaluator *compliance.Evaluator
	engine    *alert.Engine
	recorder  Recorder
	tracker   *attendance.Tracker
	logger    *slog.Logger
	tracer    trace.Tracer
	alerts    chan alert.Alert
	sweep     time.Duration
	now       func() time.Time

	// mu serializes processing. Producers may call Process concurrently;
	// inside, the pipeline is single-writer.
	mu sync.Mutex
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithTracker(t *attendance.Tracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

func WithSweepEvery(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.sweep = d
		}
	}
}

// WithClock overrides the time source. Test use only.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func New(
	registry identity.Registry,
	resolver *schedule.Resolver,
	evaluator *compliance.Evaluator,
	engine *alert.Engine,
	recorder Recorder,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		registry:  registry,
		resolver:  resolver,
		evaluator: evaluator,
		engine:    engine,
		recorder:  recorder,
		logger:    slog.Default(),
		tracer:    otel.Tracer("vigil/pipeline"),
		alerts:    make(chan alert.Alert, 256),
		sweep:     DefaultSweepEvery,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Alerts exposes the routed-alert stream for the notification dispatcher.
// Every emitted alert appears here exactly once.
func (p *Pipeline) Alerts() <-chan alert.Alert { return p.alerts }

// Process runs one observation through the full decision path. Data errors
// reject the observation and touch no state; ledger failures propagate and
// the caller must halt ingest.
func (p *Pipeline) Process(ctx context.Context, obs observation.Event) (Outcome, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Process",
		trace.WithAttributes(
			attribute.String("observation.kind", string(obs.Kind)),
			attribute.String("observation.location", string(obs.Location)),
		))
	defer span.End()

	if err := obs.Validate(); err != nil {
		return Outcome{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch obs.Kind {
	case observation.KindPresence:
		return p.processPresence(ctx, obs)
	case observation.KindAudioLevel, observation.KindSafetySignal:
		return p.processSignal(ctx, obs)
	default:
		return Outcome{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown observation kind %q", obs.Kind)
	}
}

func (p *Pipeline) processPresence(ctx context.Context, obs observation.Event) (Outcome, error) {
	ident, err := p.registry.Get(ctx, obs.Identity)
	if err != nil {
		return Outcome{}, err
	}

	day, clock := schedule.DayOf(obs.Timestamp), schedule.ClockOf(obs.Timestamp)
	expected := p.resolver.Resolve(ident.Attributes, day, clock)

	verdict, err := p.evaluator.Evaluate(obs, expected)
	if err != nil {
		return Outcome{}, err
	}

	if err := p.recordVerdict(ctx, verdict); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Verdict: &verdict}
	if p.tracker != nil {
		logged, err := p.tracker.Observe(ctx, verdict)
		if err != nil {
			return out, err
		}
		out.AttendanceLogged = logged
	}

	a, err := p.engine.HandleVerdict(ctx, verdict)
	if err != nil {
		return out, err
	}
	if a != nil {
		if err := p.emit(ctx, a); err != nil {
			return out, err
		}
		out.Alert = a
	}
	return out, nil
}

func (p *Pipeline) processSignal(ctx context.Context, obs observation.Event) (Outcome, error) {
	day, clock := schedule.DayOf(obs.Timestamp), schedule.ClockOf(obs.Timestamp)
	active := p.resolver.Active(obs.Location, day, clock)

	a, err := p.engine.HandleSignal(ctx, obs, active)
	if err != nil {
		return Outcome{}, err
	}
	if a == nil {
		return Outcome{}, nil
	}
	if err := p.emit(ctx, a); err != nil {
		return Outcome{}, err
	}
	return Outcome{Alert: a}, nil
}

type verdictPayload struct {
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	Expected    string `json:"expected,omitempty"`
	Observed    string `json:"observed"`
	Subject     string `json:"subject,omitempty"`
	Responsible string `json:"responsible,omitempty"`
	Confirmed   bool   `json:"confirmed"`
	Streak      int    `json:"streak"`
}

func (p *Pipeline) recordVerdict(ctx context.Context, v compliance.Verdict) error {
	pl := verdictPayload{
		Status:      string(v.Status),
		Reason:      v.Reason,
		Observed:    string(v.Observed),
		Subject:     v.Subject,
		Responsible: v.Responsible,
		Confirmed:   v.Confirmed,
		Streak:      v.Streak,
	}
	if v.Expected != nil {
		pl.Expected = string(*v.Expected)
	}
	payload, err := json.Marshal(pl)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "marshal verdict", err)
	}
	_, err = p.recorder.Append(ctx, ledger.Record{
		Kind:      ledger.KindVerdict,
		Timestamp: v.Timestamp,
		Identity:  v.Identity,
		Payload:   payload,
	})
	return err
}

type alertPayload struct {
	AlertID      string   `json:"alert_id"`
	Severity     string   `json:"severity"`
	Rule         string   `json:"rule"`
	Message      string   `json:"message"`
	Location     string   `json:"location"`
	SustainedFor string   `json:"sustained_for,omitempty"`
	Recipients   []string `json:"recipients"`
}

// emit records the alert in the ledger first, then hands it to the
// dispatcher. An alert that cannot be audited is not delivered.
func (p *Pipeline) emit(ctx context.Context, a *alert.Alert) error {
	recipients := make([]string, 0, len(a.Recipients))
	for _, r := range a.Recipients {
		name := string(r.Role)
		if r.Department != "" {
			name += "/" + r.Department
		}
		recipients = append(recipients, name)
	}
	pl := alertPayload{
		AlertID:    a.ID.String(),
		Severity:   a.Severity.String(),
		Rule:       string(a.Rule),
		Message:    a.Message,
		Location:   string(a.Location),
		Recipients: recipients,
	}
	if a.SustainedFor > 0 {
		pl.SustainedFor = a.SustainedFor.String()
	}
	payload, err := json.Marshal(pl)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "marshal alert", err)
	}
	if _, err := p.recorder.Append(ctx, ledger.Record{
		Kind:      ledger.KindAlert,
		Timestamp: a.Timestamp,
		Identity:  a.Identity,
		Payload:   payload,
	}); err != nil {
		return err
	}

	select {
	case p.alerts <- *a:
	default:
		p.logger.Warn("alert channel full, dropping delivery",
			slog.String("alert_id", a.ID.String()),
			slog.String("rule", string(a.Rule)),
		)
	}
	return nil
}

// Run drives time-based escalations until ctx is cancelled. Alerts the
// sweep produces travel the same ledger-then-dispatch path as inline ones.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.runSweep(ctx); err != nil {
				return err
			}
		}
	}
}

func (p *Pipeline) runSweep(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.engine.Sweep(ctx, p.now()) {
		if err := p.emit(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Package attendance records the first compliant sighting of an identity in
// each scheduled session. One confirmation per identity, date and subject;
// repeats within the same session are dropped.
package attendance

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"vigil/internal/compliance"
	"vigil/internal/ledger"
	dErrors "vigil/pkg/domain-errors"
)

// Confirmation is the terminal attendance event appended to the ledger.
type Confirmation struct {
	Identity  string    `json:"identity"`
	Date      string    `json:"date"`
	Subject   string    `json:"subject"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder is the slice of the ledger the tracker needs.
type Recorder interface {
	Append(ctx context.Context, rec ledger.Record) (ledger.Entry, error)
}

type Tracker struct {
	recorder Recorder
	logger   *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func NewTracker(recorder Recorder, opts ...Option) *Tracker {
	t := &Tracker{
		recorder: recorder,
		logger:   slog.Default(),
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe records attendance for a compliant verdict inside an expectation
// window. Returns true when a new confirmation was appended, false when the
// session was already logged or the verdict does not qualify.
func (t *Tracker) Observe(ctx context.Context, verdict compliance.Verdict) (bool, error) {
	if verdict.Status != compliance.StatusCompliant || verdict.Subject == "" {
		return false, nil
	}

	key := verdict.Identity.String() + "_" + verdict.Timestamp.Format("2006-01-02") + "_" + verdict.Subject
	t.mu.Lock()
	if _, dup := t.seen[key]; dup {
		t.mu.Unlock()
		return false, nil
	}
	t.seen[key] = struct{}{}
	t.mu.Unlock()

	conf := Confirmation{
		Identity:  verdict.Identity.String(),
		Date:      verdict.Timestamp.Format("2006-01-02"),
		Subject:   verdict.Subject,
		Location:  string(verdict.Observed),
		Timestamp: verdict.Timestamp,
	}
	payload, err := json.Marshal(conf)
	if err != nil {
		return false, dErrors.Wrap(dErrors.CodeInternal, "marshal attendance confirmation", err)
	}
	if _, err := t.recorder.Append(ctx, ledger.Record{
		Kind:      ledger.KindAttendance,
		Timestamp: verdict.Timestamp,
		Identity:  verdict.Identity,
		Payload:   payload,
	}); err != nil {
		// Roll back the dedupe mark so a retry can log the session.
		t.mu.Lock()
		delete(t.seen, key)
		t.mu.Unlock()
		return false, err
	}

	t.logger.Debug("attendance confirmed",
		slog.String("identity", conf.Identity),
		slog.String("subject", conf.Subject),
		slog.String("date", conf.Date),
	)
	return true, nil
}

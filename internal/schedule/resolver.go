package schedule

import (
	"log/slog"

	"vigil/pkg/domain"
)

// Resolver answers "where should this identity currently be". It has no
// side effects beyond a warning log on ambiguous configuration and is
// deterministic for an unchanged snapshot.
type Resolver struct {
	table  *Table
	logger *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for configuration warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver builds a resolver over the given table.
func NewResolver(table *Table, opts ...Option) *Resolver {
	r := &Resolver{table: table, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the expectation window covering (day, t) for an identity
// with the given attributes, or nil for a free period. Multiple matches are
// a configuration error: the earliest-starting entry wins and a warning is
// logged, never an error. The snapshot ordering makes the pick deterministic.
func (r *Resolver) Resolve(attrs domain.Attributes, day Day, t ClockTime) *Entry {
	snap := r.table.Load()

	var match *Entry
	matches := 0
	for i := range snap.entries {
		e := &snap.entries[i]
		if e.Day != day || !e.Covers(t) || !e.Filter.Matches(attrs) {
			continue
		}
		matches++
		if match == nil {
			match = e
		}
	}
	if matches > 1 {
		r.logger.Warn("ambiguous schedule: multiple entries cover the same slot",
			"day", day,
			"time", t.String(),
			"cohort", attrs.Cohort,
			"group", attrs.Group,
			"matches", matches,
			"picked", match.Location.String(),
		)
	}
	if match == nil {
		return nil
	}
	out := *match
	return &out
}

// Active reports whether any expectation window is currently in force at the
// given location. Pure function over the snapshot; the alert engine uses it
// to pick audio thresholds.
func (r *Resolver) Active(loc domain.Location, day Day, t ClockTime) bool {
	snap := r.table.Load()
	for i := range snap.entries {
		e := &snap.entries[i]
		if e.Day == day && e.Covers(t) && e.Location.Equal(loc) {
			return true
		}
	}
	return false
}

package compliance

import (
	"time"

	"vigil/pkg/domain"
)

// Status classifies an observation against its expectation.
type Status string

const (
	// StatusCompliant means the observed location matches the expected one.
	StatusCompliant Status = "compliant"
	// StatusNoExpectation means no schedule window covers the observation
	// (free period).
	StatusNoExpectation Status = "no_expectation"
	// StatusViolation means expected and observed locations differ.
	StatusViolation Status = "violation"
)

// Verdict is the evaluator's output. Created per evaluation, forwarded
// immediately, never mutated.
//
// Invariants: Status is NoExpectation iff Expected is nil; Status is
// Violation iff Expected is non-nil and differs from Observed.
type Verdict struct {
	Identity  domain.PersonID
	Timestamp time.Time
	Expected  *domain.Location // nil for a free period
	Observed  domain.Location
	Status    Status
	Reason    string
	Subject   string // subject of the expectation window, when one exists
	// Responsible names the role group answerable for the expectation
	// window; alert routing uses it.
	Responsible string
	// Confirmed is set on the single Violation verdict that crossed the
	// debounce threshold. Only confirmed violations travel to the alert
	// engine.
	Confirmed bool
	// Streak is the consecutive-violation count at evaluation time.
	Streak int
}

// DebounceState is the per-identity position in the debounce machine.
type DebounceState int

const (
	// Settled: last observation was compliant or free-period.
	Settled DebounceState = iota
	// Pending: one or more consecutive violations below the threshold.
	Pending
	// Confirmed: the threshold was reached; subsequent violations stay here
	// without re-confirming until a compliant observation resets.
	Confirmed
)

func (s DebounceState) String() string {
	switch s {
	case Settled:
		return "settled"
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

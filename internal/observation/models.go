// Package observation defines the inbound event boundary. Sensing
// collaborators may only talk to the pipeline through these records; all
// decision logic lives downstream.
package observation

import (
	"strconv"
	"strings"
	"time"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// Kind classifies an observation.
type Kind string

const (
	// KindPresence reports that an identity was seen at a location.
	KindPresence Kind = "presence"
	// KindAudioLevel reports a decibel-equivalent level for a location.
	KindAudioLevel Kind = "audio-level"
	// KindSafetySignal reports an externally classified safety condition.
	KindSafetySignal Kind = "safety-signal"
)

var validKinds = map[Kind]bool{
	KindPresence: true, KindAudioLevel: true, KindSafetySignal: true,
}

// ParseKind constructs a Kind from external input.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if !validKinds[k] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown observation kind %q", s)
	}
	return k, nil
}

// Event is one observation from a sensing collaborator. Transient: consumed
// once by the evaluator and then discarded or folded into a verdict.
type Event struct {
	Identity   domain.PersonID
	Timestamp  time.Time
	Location   domain.Location
	Confidence float64
	Kind       Kind
	// Level carries the decibel-equivalent value for audio-level events.
	Level float64
}

// Validate enforces the boundary contract: data errors are rejected here,
// never coerced downstream.
func (e Event) Validate() error {
	if e.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "observation requires a timestamp")
	}
	if e.Location.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "observation requires a location")
	}
	switch e.Kind {
	case KindPresence:
		if e.Identity.IsNil() {
			return dErrors.New(dErrors.CodeInvalidInput, "presence observation requires an identity")
		}
	case KindAudioLevel:
		if e.Level < 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "audio level cannot be negative")
		}
	case KindSafetySignal:
		// Location and timestamp are enough; the classification happened
		// upstream.
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown observation kind %q", e.Kind)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "confidence must be within [0, 1]")
	}
	return nil
}

// ParseTimestamp accepts ISO-8601 or epoch milliseconds, the two formats the
// sensing collaborators emit.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "timestamp cannot be empty")
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "invalid timestamp %q", s)
	}
	return t.UTC(), nil
}

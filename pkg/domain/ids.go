// Package domain holds shared value types used across module boundaries.
//
// IDs are distinct uuid-backed types so the compiler rejects accidental
// cross-assignment. Construct from external input via the Parse functions,
// which enforce the "valid, non-empty, non-nil" invariant at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "vigil/pkg/domain-errors"
)

// PersonID identifies an enrolled identity. The ID is opaque and stable;
// it never carries biometric data and is never deleted, only its linkage
// to audit payloads may be cryptographically severed.
type PersonID uuid.UUID

// BatchID identifies a ledger batch.
type BatchID uuid.UUID

// AlertID identifies a produced alert.
type AlertID uuid.UUID

// ParsePersonID constructs a PersonID from external input.
func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID(s, "person id")
	return PersonID(u), err
}

// ParseBatchID constructs a BatchID from external input.
func ParseBatchID(s string) (BatchID, error) {
	u, err := parseUUID(s, "batch id")
	return BatchID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be nil", what)
	}
	return u, nil
}

// NewPersonID returns a freshly generated PersonID.
func NewPersonID() PersonID { return PersonID(uuid.New()) }

// NewBatchID returns a freshly generated BatchID.
func NewBatchID() BatchID { return BatchID(uuid.New()) }

// NewAlertID returns a freshly generated AlertID.
func NewAlertID() AlertID { return AlertID(uuid.New()) }

func (id PersonID) String() string { return uuid.UUID(id).String() }
func (id BatchID) String() string  { return uuid.UUID(id).String() }
func (id AlertID) String() string  { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero uuid.
func (id PersonID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id BatchID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders IDs in canonical uuid form so JSON payloads carry
// strings, not byte arrays. The zero uuid is allowed here: zone-level
// alerts legitimately carry a nil identity.
func (id PersonID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id BatchID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id AlertID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *PersonID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid person id")
	}
	*id = PersonID(u)
	return nil
}

func (id *BatchID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid batch id")
	}
	*id = BatchID(u)
	return nil
}

func (id *AlertID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid alert id")
	}
	*id = AlertID(u)
	return nil
}

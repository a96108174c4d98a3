package identity

import (
	"time"

	"vigil/pkg/domain"
)

// Identity is an enrolled person known to the pipeline. Enrollment happens
// in an external system; records arrive here immutable and are never
// deleted, only their linkage to audit payloads may be severed.
type Identity struct {
	ID         domain.PersonID
	Name       string
	Attributes domain.Attributes
	EnrolledAt time.Time
}

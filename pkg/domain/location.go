package domain

import "strings"

// Location names a physical zone ("Lab-1", "Main Entrance"). Comparisons are
// trimmed and case-insensitive: sensing collaborators and timetable authors
// do not reliably agree on casing.
type Location string

// Norm returns the canonical comparison form.
func (l Location) Norm() string {
	return strings.ToLower(strings.TrimSpace(string(l)))
}

// Equal reports whether two locations name the same zone.
func (l Location) Equal(other Location) bool {
	return l.Norm() == other.Norm()
}

// IsZero reports whether the location is empty after trimming.
func (l Location) IsZero() bool {
	return strings.TrimSpace(string(l)) == ""
}

func (l Location) String() string { return string(l) }

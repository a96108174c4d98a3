package schedule

import (
	"sort"
	"sync/atomic"
)

// Snapshot is an immutable view of the timetable. Entries are sorted by
// (day, start, location) at construction so resolution is deterministic
// and the earliest-start tie-break is a plain scan.
type Snapshot struct {
	entries []Entry
}

// NewSnapshot copies and orders entries into an immutable snapshot.
func NewSnapshot(entries []Entry) *Snapshot {
	owned := make([]Entry, len(entries))
	copy(owned, entries)
	sort.SliceStable(owned, func(i, j int) bool {
		if owned[i].Day != owned[j].Day {
			return owned[i].Day < owned[j].Day
		}
		if owned[i].Start != owned[j].Start {
			return owned[i].Start < owned[j].Start
		}
		return owned[i].Location.Norm() < owned[j].Location.Norm()
	})
	return &Snapshot{entries: owned}
}

// Len returns the number of entries in the snapshot.
func (s *Snapshot) Len() int { return len(s.entries) }

// Table holds the live snapshot. Readers always observe a fully formed
// snapshot; hot reload swaps the pointer atomically, never mutates in place.
type Table struct {
	current atomic.Pointer[Snapshot]
}

// NewTable starts with the given snapshot. A nil snapshot is replaced by an
// empty one so readers never nil-check.
func NewTable(snap *Snapshot) *Table {
	t := &Table{}
	if snap == nil {
		snap = NewSnapshot(nil)
	}
	t.current.Store(snap)
	return t
}

// Load returns the current snapshot.
func (t *Table) Load() *Snapshot { return t.current.Load() }

// Swap publishes a new snapshot for subsequent resolutions. In-flight
// evaluations keep the snapshot they started with.
func (t *Table) Swap(snap *Snapshot) {
	if snap == nil {
		snap = NewSnapshot(nil)
	}
	t.current.Store(snap)
}

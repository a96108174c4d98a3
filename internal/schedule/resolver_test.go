package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/pkg/domain"
)

func testEntries() []Entry {
	return []Entry{
		{
			Day: Mon, Start: 9 * 60, End: 10 * 60,
			Subject: "mathematics", Responsible: "supervisor",
			Location: domain.Location("room-s1"),
			Filter:   GroupFilter{Cohort: "alpha"},
		},
		{
			Day: Mon, Start: 10 * 60, End: 11 * 60,
			Subject: "physics", Responsible: "supervisor",
			Location: domain.Location("lab-1"),
			Filter:   GroupFilter{Cohort: "alpha"},
		},
		{
			Day: Mon, Start: 9 * 60, End: 10 * 60,
			Subject: "chemistry", Responsible: "supervisor",
			Location: domain.Location("lab-2"),
			Filter:   GroupFilter{Cohort: "beta"},
		},
	}
}

func TestResolve(t *testing.T) {
	r := NewResolver(NewTable(NewSnapshot(testEntries())))
	alpha := domain.Attributes{Cohort: "alpha"}

	t.Run("window match", func(t *testing.T) {
		e := r.Resolve(alpha, Mon, 9*60+30)
		require.NotNil(t, e)
		assert.Equal(t, "mathematics", e.Subject)
	})

	t.Run("start is inclusive, end exclusive", func(t *testing.T) {
		require.NotNil(t, r.Resolve(alpha, Mon, 9*60))
		e := r.Resolve(alpha, Mon, 10*60)
		require.NotNil(t, e)
		assert.Equal(t, "physics", e.Subject, "10:00 belongs to the next window")
	})

	t.Run("free period outside any window", func(t *testing.T) {
		assert.Nil(t, r.Resolve(alpha, Mon, 8*60))
		assert.Nil(t, r.Resolve(alpha, Tue, 9*60+30))
	})

	t.Run("cohort filter scopes entries", func(t *testing.T) {
		e := r.Resolve(domain.Attributes{Cohort: "beta"}, Mon, 9*60+30)
		require.NotNil(t, e)
		assert.Equal(t, "chemistry", e.Subject)
	})

	t.Run("idempotent for an unchanged snapshot", func(t *testing.T) {
		first := r.Resolve(alpha, Mon, 9*60+30)
		second := r.Resolve(alpha, Mon, 9*60+30)
		assert.Equal(t, first, second)
	})

	t.Run("returned entry is a copy", func(t *testing.T) {
		e := r.Resolve(alpha, Mon, 9*60+30)
		e.Subject = "mutated"
		again := r.Resolve(alpha, Mon, 9*60+30)
		assert.Equal(t, "mathematics", again.Subject)
	})
}

func TestResolveOverlapPicksEarliestStart(t *testing.T) {
	entries := []Entry{
		{Day: Mon, Start: 9 * 60, End: 11 * 60, Subject: "assembly", Location: domain.Location("hall")},
		{Day: Mon, Start: 9*60 + 30, End: 10 * 60, Subject: "mathematics", Location: domain.Location("room-s1")},
	}
	r := NewResolver(NewTable(NewSnapshot(entries)))

	e := r.Resolve(domain.Attributes{}, Mon, 9*60+45)
	require.NotNil(t, e)
	assert.Equal(t, "assembly", e.Subject)
}

func TestResolveOverlapTieBreaksByLocation(t *testing.T) {
	entries := []Entry{
		{Day: Mon, Start: 9 * 60, End: 10 * 60, Subject: "b", Location: domain.Location("room-b")},
		{Day: Mon, Start: 9 * 60, End: 10 * 60, Subject: "a", Location: domain.Location("room-a")},
	}
	// Insertion order must not matter; the snapshot sorts.
	r := NewResolver(NewTable(NewSnapshot(entries)))

	e := r.Resolve(domain.Attributes{}, Mon, 9*60+30)
	require.NotNil(t, e)
	assert.Equal(t, domain.Location("room-a"), e.Location)
}

func TestActive(t *testing.T) {
	r := NewResolver(NewTable(NewSnapshot(testEntries())))

	assert.True(t, r.Active(domain.Location("room-s1"), Mon, 9*60+30))
	assert.True(t, r.Active(domain.Location("ROOM-S1"), Mon, 9*60+30), "location match is case-insensitive")
	assert.False(t, r.Active(domain.Location("room-s1"), Mon, 11*60))
	assert.False(t, r.Active(domain.Location("gym"), Mon, 9*60+30))
}

func TestTableSwapIsAtomic(t *testing.T) {
	table := NewTable(NewSnapshot(testEntries()))
	r := NewResolver(table)
	alpha := domain.Attributes{Cohort: "alpha"}

	require.NotNil(t, r.Resolve(alpha, Mon, 9*60+30))

	table.Swap(NewSnapshot(nil))
	assert.Nil(t, r.Resolve(alpha, Mon, 9*60+30), "new snapshot visible immediately")

	table.Swap(nil)
	assert.Nil(t, r.Resolve(alpha, Mon, 9*60+30), "nil swap degrades to empty")
}

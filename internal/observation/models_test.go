package observation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"presence", "audio-level", "safety-signal", " presence "} {
		k, err := ParseKind(valid)
		require.NoError(t, err, valid)
		assert.NotEmpty(t, k)
	}

	for _, invalid := range []string{"", "PRESENCE", "motion", "audio"} {
		_, err := ParseKind(invalid)
		require.Error(t, err, invalid)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestEventValidate(t *testing.T) {
	valid := Event{
		Identity:   domain.NewPersonID(),
		Timestamp:  time.Now(),
		Location:   domain.Location("room-s1"),
		Confidence: 0.9,
		Kind:       KindPresence,
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Event)
	}{
		{"zero timestamp", func(e *Event) { e.Timestamp = time.Time{} }},
		{"empty location", func(e *Event) { e.Location = "" }},
		{"presence without identity", func(e *Event) { e.Identity = domain.PersonID{} }},
		{"unknown kind", func(e *Event) { e.Kind = "motion" }},
		{"confidence above one", func(e *Event) { e.Confidence = 1.5 }},
		{"negative confidence", func(e *Event) { e.Confidence = -0.1 }},
		{"negative audio level", func(e *Event) {
			e.Kind = KindAudioLevel
			e.Level = -3
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			err := e.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	t.Run("audio needs no identity", func(t *testing.T) {
		e := valid
		e.Identity = domain.PersonID{}
		e.Kind = KindAudioLevel
		e.Level = 62
		assert.NoError(t, e.Validate())
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		ts, err := ParseTimestamp("2026-08-31T09:00:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC), ts)
	})

	t.Run("epoch milliseconds", func(t *testing.T) {
		ts, err := ParseTimestamp("1756630800000")
		require.NoError(t, err)
		assert.Equal(t, int64(1756630800), ts.Unix())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, bad := range []string{"", "yesterday", "2026-08-31"} {
			_, err := ParseTimestamp(bad)
			require.Error(t, err, bad)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/alert"
	"vigil/internal/attendance"
	"vigil/internal/compliance"
	"vigil/internal/identity"
	"vigil/internal/ledger"
	"vigil/internal/observation"
	"vigil/internal/schedule"
	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// monday9 is a Monday 09:00 UTC inside the test timetable's window.
var monday9 = time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

type fixture struct {
	pipeline *Pipeline
	registry *identity.InMemoryRegistry
	ledger   *ledger.Ledger
	student  domain.PersonID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	table := schedule.NewTable(schedule.NewSnapshot([]schedule.Entry{
		{
			Day:         schedule.Mon,
			Start:       9 * 60,
			End:         10 * 60,
			Subject:     "mathematics",
			Responsible: "supervisor",
			Location:    domain.Location("room-s1"),
		},
	}))
	resolver := schedule.NewResolver(table)

	registry := identity.NewInMemoryRegistry()
	student := domain.NewPersonID()
	require.NoError(t, registry.Put(context.Background(), identity.Identity{
		ID:   student,
		Name: "test student",
	}))

	engine := alert.NewEngine(
		alert.NewRoleRegistry(map[string]string{"room-s1": "science", "lab-1": "science"}),
		alert.NewInMemorySuppressionStore(),
	)

	led, err := ledger.New(context.Background(), ledger.NewInMemoryStore(), ledger.NewKeyring(),
		ledger.WithBatchSize(1000))
	require.NoError(t, err)

	p := New(registry, resolver, compliance.NewEvaluator(), engine, led,
		WithTracker(attendance.NewTracker(led)))

	return &fixture{pipeline: p, registry: registry, ledger: led, student: student}
}

func presenceAt(id domain.PersonID, loc string, ts time.Time) observation.Event {
	return observation.Event{
		Identity:   id,
		Timestamp:  ts,
		Location:   domain.Location(loc),
		Confidence: 0.95,
		Kind:       observation.KindPresence,
	}
}

func TestProcessCompliantPresence(t *testing.T) {
	f := newFixture(t)

	out, err := f.pipeline.Process(context.Background(), presenceAt(f.student, "room-s1", monday9))
	require.NoError(t, err)

	require.NotNil(t, out.Verdict)
	assert.Equal(t, compliance.StatusCompliant, out.Verdict.Status)
	assert.Equal(t, "on time", out.Verdict.Reason)
	assert.True(t, out.AttendanceLogged)
	assert.Nil(t, out.Alert)

	// A repeat sighting in the same session is not re-logged.
	out, err = f.pipeline.Process(context.Background(), presenceAt(f.student, "room-s1", monday9.Add(time.Minute)))
	require.NoError(t, err)
	assert.False(t, out.AttendanceLogged)
}

func TestProcessFreePeriod(t *testing.T) {
	f := newFixture(t)

	// Sunday has no expectations.
	sunday := monday9.Add(-24 * time.Hour)
	out, err := f.pipeline.Process(context.Background(), presenceAt(f.student, "cafeteria", sunday))
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusNoExpectation, out.Verdict.Status)
	assert.Equal(t, "free period", out.Verdict.Reason)
	assert.Nil(t, out.Alert)
	assert.False(t, out.AttendanceLogged)
}

func TestTruancyConfirmationAndEscalation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Four mismatched sightings stay below the threshold: no alert.
	for i := 0; i < 4; i++ {
		out, err := f.pipeline.Process(ctx, presenceAt(f.student, "lab-1", monday9.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, compliance.StatusViolation, out.Verdict.Status)
		assert.False(t, out.Verdict.Confirmed)
		assert.Nil(t, out.Alert)
	}

	// The fifth consecutive mismatch confirms and fires a warning.
	out, err := f.pipeline.Process(ctx, presenceAt(f.student, "lab-1", monday9.Add(4*time.Minute)))
	require.NoError(t, err)
	require.NotNil(t, out.Verdict)
	assert.True(t, out.Verdict.Confirmed)
	require.NotNil(t, out.Alert)
	assert.Equal(t, alert.SeverityWarning, out.Alert.Severity)
	assert.Equal(t, alert.RuleTruancy, out.Alert.Rule)
	assert.NotEmpty(t, out.Alert.Recipients)
	assert.Contains(t, out.Alert.Message, "room-s1")
	assert.Contains(t, out.Alert.Message, "lab-1")

	// The alert reaches the dispatcher stream exactly once.
	select {
	case got := <-f.pipeline.Alerts():
		assert.Equal(t, out.Alert.ID, got.ID)
	default:
		t.Fatal("expected alert on stream")
	}

	// Still truant 31 seconds after the warning: escalates to critical.
	out, err = f.pipeline.Process(ctx, presenceAt(f.student, "lab-1", monday9.Add(4*time.Minute+31*time.Second)))
	require.NoError(t, err)
	require.NotNil(t, out.Alert)
	assert.Equal(t, alert.SeverityCritical, out.Alert.Severity)
	assert.Equal(t, alert.RuleTruancyEscalation, out.Alert.Rule)
}

func TestRecoveryResetsDebounce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := f.pipeline.Process(ctx, presenceAt(f.student, "lab-1", monday9.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	out, err := f.pipeline.Process(ctx, presenceAt(f.student, "room-s1", monday9.Add(4*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, compliance.StatusCompliant, out.Verdict.Status)

	// The streak restarts from one after recovery.
	out, err = f.pipeline.Process(ctx, presenceAt(f.student, "lab-1", monday9.Add(5*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Verdict.Streak)
	assert.Nil(t, out.Alert)
}

func TestAudioContextThresholds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	audio := func(loc string, level float64, ts time.Time) observation.Event {
		return observation.Event{
			Timestamp: ts,
			Location:  domain.Location(loc),
			Kind:      observation.KindAudioLevel,
			Level:     level,
		}
	}

	t.Run("41 dB during a session warns after the sustained gate", func(t *testing.T) {
		out, err := f.pipeline.Process(ctx, audio("room-s1", 41, monday9))
		require.NoError(t, err)
		assert.Nil(t, out.Alert, "gate not yet held")

		out, err = f.pipeline.Process(ctx, audio("room-s1", 41, monday9.Add(6*time.Second)))
		require.NoError(t, err)
		require.NotNil(t, out.Alert)
		assert.Equal(t, alert.SeverityWarning, out.Alert.Severity)
		assert.Equal(t, alert.RuleAudioLevel, out.Alert.Rule)
	})

	t.Run("41 dB out of session is quiet", func(t *testing.T) {
		sunday := monday9.Add(-24 * time.Hour)
		out, err := f.pipeline.Process(ctx, audio("cafeteria", 41, sunday))
		require.NoError(t, err)
		assert.Nil(t, out.Alert)
		out, err = f.pipeline.Process(ctx, audio("cafeteria", 41, sunday.Add(10*time.Second)))
		require.NoError(t, err)
		assert.Nil(t, out.Alert)
	})

	t.Run("85 dB out of session is critical after the gate", func(t *testing.T) {
		sunday := monday9.Add(-24 * time.Hour)
		out, err := f.pipeline.Process(ctx, audio("gym", 85, sunday))
		require.NoError(t, err)
		assert.Nil(t, out.Alert)

		out, err = f.pipeline.Process(ctx, audio("gym", 85, sunday.Add(6*time.Second)))
		require.NoError(t, err)
		require.NotNil(t, out.Alert)
		assert.Equal(t, alert.SeverityCritical, out.Alert.Severity)
	})
}

func TestSafetySignalRoutesImmediately(t *testing.T) {
	f := newFixture(t)

	out, err := f.pipeline.Process(context.Background(), observation.Event{
		Timestamp: monday9,
		Location:  domain.Location("corridor-2"),
		Kind:      observation.KindSafetySignal,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Alert)
	assert.Equal(t, alert.SeveritySecuritySensitive, out.Alert.Severity)
	assert.NotEmpty(t, out.Alert.Recipients)
}

func TestProcessRejectsUnknownIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Process(context.Background(), presenceAt(domain.NewPersonID(), "room-s1", monday9))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestProcessRejectsOutOfOrderObservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.Process(ctx, presenceAt(f.student, "room-s1", monday9.Add(time.Minute)))
	require.NoError(t, err)

	_, err = f.pipeline.Process(ctx, presenceAt(f.student, "room-s1", monday9))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeOutOfOrder))
}

func TestProcessRejectsInvalidObservation(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Process(context.Background(), observation.Event{
		Kind:      observation.KindPresence,
		Timestamp: monday9,
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSweepEscalatesWithoutFreshObservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Confirm a violation, then let the identity vanish from camera view.
	for i := 0; i < 5; i++ {
		_, err := f.pipeline.Process(ctx, presenceAt(f.student, "lab-1", monday9.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	f.pipeline.now = func() time.Time { return monday9.Add(10 * time.Minute) }
	require.NoError(t, f.pipeline.runSweep(ctx))

	select {
	case <-f.pipeline.Alerts(): // the warning
	default:
		t.Fatal("expected warning on stream")
	}
	select {
	case got := <-f.pipeline.Alerts():
		assert.Equal(t, alert.RuleTruancyEscalation, got.Rule)
	default:
		t.Fatal("expected escalation on stream")
	}
}

package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// Day names a weekday the way the timetable spells it.
type Day string

const (
	Mon Day = "Mon"
	Tue Day = "Tue"
	Wed Day = "Wed"
	Thu Day = "Thu"
	Fri Day = "Fri"
	Sat Day = "Sat"
	Sun Day = "Sun"
)

var validDays = map[Day]bool{
	Mon: true, Tue: true, Wed: true, Thu: true, Fri: true, Sat: true, Sun: true,
}

// ParseDay constructs a Day from external input such as a timetable cell.
func ParseDay(s string) (Day, error) {
	d := Day(strings.TrimSpace(s))
	if !validDays[d] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid day %q", s)
	}
	return d, nil
}

// DayOf maps a wall-clock instant onto the timetable's weekday naming.
func DayOf(t time.Time) Day {
	switch t.Weekday() {
	case time.Monday:
		return Mon
	case time.Tuesday:
		return Tue
	case time.Wednesday:
		return Wed
	case time.Thursday:
		return Thu
	case time.Friday:
		return Fri
	case time.Saturday:
		return Sat
	default:
		return Sun
	}
}

// ClockTime is a minute offset from midnight. The timetable uses wall-clock
// "H:MM" or "HH:MM" strings; keeping minutes avoids time.Time's date baggage
// for recurring weekly windows.
type ClockTime int

// ParseClockTime parses "H:MM" or "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid minute in %q", s)
	}
	return ClockTime(h*60 + m), nil
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// ClockOf projects an instant onto its minute offset from midnight.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

// GroupFilter scopes an entry to a cohort slice. Empty fields match anything,
// so a campus-wide entry needs no filter at all.
type GroupFilter struct {
	Cohort string
	Year   int
	Group  string
}

// Matches reports whether the filter admits the given identity attributes.
func (f GroupFilter) Matches(a domain.Attributes) bool {
	if f.Cohort != "" && !strings.EqualFold(f.Cohort, a.Cohort) {
		return false
	}
	if f.Year != 0 && f.Year != a.Year {
		return false
	}
	if f.Group != "" && !strings.EqualFold(f.Group, a.Group) {
		return false
	}
	return true
}

// Entry is one recurring expectation window. Loaded at startup or reload,
// read-only during evaluation, owned exclusively by this package.
type Entry struct {
	Day         Day
	Start       ClockTime
	End         ClockTime // exclusive
	Subject     string
	Responsible string // role group answerable for this window
	Location    domain.Location
	Filter      GroupFilter
}

// Covers reports whether the window contains t (start inclusive, end
// exclusive).
func (e Entry) Covers(t ClockTime) bool {
	return e.Start <= t && t < e.End
}

package schedule

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// Timetable CSV columns. Headers are lowercased on read; column order does
// not matter. cohort/year/group may be empty for campus-wide entries.
var requiredColumns = []string{"day", "start", "end", "subject", "responsible", "location"}

// LoadCSV reads a timetable file into a snapshot. The whole file either
// parses or the load fails; a partially applied reload must never be
// observable, so callers Swap the returned snapshot in one step.
func LoadCSV(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeConfig, "open timetable", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses timetable rows from r.
func ReadCSV(r io.Reader) (*Snapshot, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeConfig, "read timetable header", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, dErrors.Newf(dErrors.CodeConfig, "timetable missing column %q", name)
		}
	}

	var entries []Entry
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeConfig, "read timetable row", err)
		}
		entry, err := parseRow(record, col)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeConfig, "timetable row "+strconv.Itoa(line), err)
		}
		entries = append(entries, entry)
	}
	return NewSnapshot(entries), nil
}

func parseRow(record []string, col map[string]int) (Entry, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	day, err := ParseDay(field("day"))
	if err != nil {
		return Entry{}, err
	}
	start, err := ParseClockTime(field("start"))
	if err != nil {
		return Entry{}, err
	}
	end, err := ParseClockTime(field("end"))
	if err != nil {
		return Entry{}, err
	}
	if end <= start {
		return Entry{}, dErrors.Newf(dErrors.CodeInvalidInput, "window %s-%s is empty", start, end)
	}

	loc := domain.Location(field("location"))
	if loc.IsZero() {
		return Entry{}, dErrors.New(dErrors.CodeInvalidInput, "location cannot be empty")
	}

	year := 0
	if y := field("year"); y != "" {
		year, err = strconv.Atoi(y)
		if err != nil {
			return Entry{}, dErrors.Newf(dErrors.CodeInvalidInput, "invalid year %q", y)
		}
	}

	return Entry{
		Day:         day,
		Start:       start,
		End:         end,
		Subject:     field("subject"),
		Responsible: field("responsible"),
		Location:    loc,
		Filter: GroupFilter{
			Cohort: field("cohort"),
			Year:   year,
			Group:  field("group"),
		},
	}, nil
}

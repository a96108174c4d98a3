package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParsePersonID checks that parsing never panics on arbitrary input
// and that any accepted ID round-trips through its string form.
func FuzzParsePersonID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE ledger_entries;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParsePersonID(input)
		if err == nil {
			back, err2 := ParsePersonID(id.String())
			if err2 != nil {
				t.Errorf("accepted ID failed round-trip: %v", err2)
			}
			if back != id {
				t.Error("round-trip changed the ID value")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs checks that every ID type accepts and rejects the same
// inputs; they share one validator and must stay in lockstep.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errPerson := ParsePersonID(input)
		_, errBatch := ParseBatchID(input)

		if (errPerson == nil) != (errBatch == nil) {
			t.Error("inconsistent validation across ID types")
		}
	})
}

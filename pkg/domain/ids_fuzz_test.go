package domain

import (
	"testing"
)

// FuzzParseOwnerID checks parsing never panics and accepted values round-trip.
func FuzzParseOwnerID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("00012")
	f.Add("9223372036854775807")
	f.Add("'; DROP TABLE employees;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseOwnerID(input)
		if err != nil {
			return
		}
		if id <= 0 {
			t.Errorf("accepted non-positive id %d", id)
		}
		roundTrip, err := ParseOwnerID(id.String())
		if err != nil {
			t.Errorf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed id value")
		}
	})
}

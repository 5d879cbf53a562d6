package core

import (
	"encoding/json"
	"testing"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in    string
		out   string
		empty bool
		ok    bool
	}{
		{"2024-09-01", "2024-09-01", false, true},
		{"", "", true, true},
		{"01/09/2024", "", false, false},
		{"2024-13-01", "", false, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out || got.IsEmpty() != tc.empty {
				t.Fatalf("%q: expected %q (empty=%v), got %q (err=%v)", tc.in, tc.out, tc.empty, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
	}

	out, err := json.Marshal(payload{Date: NewDate(2024, 9, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"date":"2024-09-01"}` {
		t.Fatalf("unexpected marshal: %s", out)
	}

	out, err = json.Marshal(payload{})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"date":null}` {
		t.Fatalf("empty date should marshal as null: %s", out)
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"date":null}`), &p); err != nil {
		t.Fatal(err)
	}
	if !p.Date.IsEmpty() {
		t.Fatalf("null should unmarshal as the empty date, got %v", p.Date)
	}

	if err := json.Unmarshal([]byte(`{"date":"2025-01-15"}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Date.Year() != 2025 {
		t.Fatalf("expected year 2025, got %d", p.Date.Year())
	}
}

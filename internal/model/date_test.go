package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-15")
	if err != nil {
		t.Fatalf("parsing valid date: %v", err)
	}
	if d.String() != "2024-06-15" {
		t.Errorf("round trip = %s", d)
	}
	if d.Year() != 2024 || d.Month() != time.June || d.Day() != 15 {
		t.Errorf("components = %d-%d-%d", d.Year(), d.Month(), d.Day())
	}

	for _, s := range []string{"", "15/06/2024", "2024-13-01", "not a date"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) accepted invalid input", s)
		}
	}
}

func TestTodayTruncatesTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC)
	if got := Today(now).String(); got != "2024-06-15" {
		t.Errorf("Today = %s", got)
	}
}

func TestDateComparisons(t *testing.T) {
	a := NewDate(2024, time.June, 14)
	b := NewDate(2024, time.June, 15)

	if !a.Before(b) || b.Before(a) {
		t.Error("Before ordering wrong")
	}
	if !b.After(a) || a.After(b) {
		t.Error("After ordering wrong")
	}
	if !a.Equal(a) || a.Equal(b) {
		t.Error("Equal wrong")
	}
	if a.Before(a) || a.After(a) {
		t.Error("a date compares strictly against itself")
	}
}

func TestAddDateRollover(t *testing.T) {
	tests := []struct {
		name                 string
		start                string
		years, months, days  int
		want                 string
	}{
		{name: "plain month", start: "2024-03-15", months: 1, want: "2024-04-15"},
		{name: "jan 31 plus month rolls over", start: "2024-01-31", months: 1, want: "2024-03-02"},
		{name: "leap day plus year rolls over", start: "2024-02-29", years: 1, want: "2025-03-01"},
		{name: "quarter across year end", start: "2024-11-30", months: 3, want: "2025-03-02"},
		{name: "five years", start: "2024-06-15", years: 5, want: "2029-06-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := ParseDate(tt.start)
			if err != nil {
				t.Fatalf("parsing start: %v", err)
			}
			got := start.AddDate(tt.years, tt.months, tt.days)
			if got.String() != tt.want {
				t.Errorf("AddDate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	d := NewDate(2024, time.December, 30)
	if got := d.AddDays(7).String(); got != "2025-01-06" {
		t.Errorf("AddDays(7) = %s", got)
	}
	if got := d.AddDays(-30).String(); got != "2024-11-30" {
		t.Errorf("AddDays(-30) = %s", got)
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.June, 15)

	encoded, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshaling: %v", err)
	}
	if string(encoded) != `"2024-06-15"` {
		t.Errorf("encoded = %s", encoded)
	}

	var decoded Date
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshaling: %v", err)
	}
	if !decoded.Equal(d) {
		t.Errorf("round trip lost the date: %s", decoded)
	}

	if err := json.Unmarshal([]byte(`"06/15/2024"`), &decoded); err == nil {
		t.Error("bad format decoded without error")
	}
	if err := json.Unmarshal([]byte(`42`), &decoded); err == nil {
		t.Error("non-string decoded without error")
	}
}

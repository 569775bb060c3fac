package nightlog

import (
	"testing"
	"time"
)

func TestDateKeyRollover(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"just before rollover", time.Date(2024, 5, 2, 2, 59, 59, 0, time.Local), "2024-05-01"},
		{"at rollover", time.Date(2024, 5, 2, 3, 0, 0, 0, time.Local), "2024-05-02"},
		{"midnight", time.Date(2024, 5, 2, 0, 0, 0, 0, time.Local), "2024-05-01"},
		{"late evening", time.Date(2024, 5, 2, 23, 10, 0, 0, time.Local), "2024-05-02"},
		{"first of month pre-rollover", time.Date(2024, 5, 1, 1, 0, 0, 0, time.Local), "2024-04-30"},
		{"january first pre-rollover", time.Date(2024, 1, 1, 2, 0, 0, 0, time.Local), "2023-12-31"},
		{"leap day", time.Date(2024, 3, 1, 0, 30, 0, 0, time.Local), "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateKey(tt.at); got != tt.want {
				t.Errorf("DateKey(%v) = %q, want %q", tt.at, got, tt.want)
			}
		})
	}
}

func TestParseDateKeyRoundTrip(t *testing.T) {
	tests := []struct {
		key string
		ok  bool
	}{
		{"2024-05-01", true},
		{"2024-12-31", true},
		{"", false},
		{"2024-5-1", false},
		{"2024-13-01", false},
		{"2024-02-30", false},
		{"not-a-date", false},
		{"2024-05-01T00:00:00", false},
	}

	for _, tt := range tests {
		if _, ok := parseDateKey(tt.key); ok != tt.ok {
			t.Errorf("parseDateKey(%q) ok = %v, want %v", tt.key, ok, tt.ok)
		}
	}
}

func TestIsNextDay(t *testing.T) {
	a, _ := parseDateKey("2024-05-01")
	b, _ := parseDateKey("2024-05-02")
	c, _ := parseDateKey("2024-05-03")

	if !isNextDay(a, b) {
		t.Error("2024-05-02 should follow 2024-05-01")
	}
	if isNextDay(a, c) {
		t.Error("2024-05-03 does not immediately follow 2024-05-01")
	}
	if isNextDay(b, a) {
		t.Error("order matters")
	}
}

// Package nightlog keeps the device-local record of completed night
// rituals: which night a completion counts toward and how long the
// current streak is.
package nightlog

import "time"

const dateKeyLayout = "2006-01-02"

// rolloverHour: completions before 03:00 local time count toward the
// previous calendar day. A ritual finished at 01:30 belongs to "last
// night", not "tonight".
const rolloverHour = 3

// DateKey maps a timestamp to its logical night, formatted YYYY-MM-DD
// from local time components.
func DateKey(t time.Time) string {
	if t.Hour() < rolloverHour {
		t = t.AddDate(0, 0, -1)
	}
	return t.Format(dateKeyLayout)
}

// parseDateKey round-trips a stored key through date construction;
// anything that does not survive the round trip is treated as absent.
// This guards against malformed persisted state.
func parseDateKey(key string) (time.Time, bool) {
	parsed, err := time.ParseInLocation(dateKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	if parsed.Format(dateKeyLayout) != key {
		return time.Time{}, false
	}
	return parsed, true
}

// isNextDay reports whether b is exactly one calendar day after a.
func isNextDay(a, b time.Time) bool {
	return a.AddDate(0, 0, 1).Equal(b)
}

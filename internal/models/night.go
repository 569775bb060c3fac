package models

import "time"

// RitualMode identifies which breathing exercise the user completed.
type RitualMode string

const (
	RitualModeCalmMind      RitualMode = "calm_mind"
	RitualModeReleaseAccept RitualMode = "release_accept"
)

func (m RitualMode) Valid() bool {
	return m == RitualModeCalmMind || m == RitualModeReleaseAccept
}

// NightSession is one completed ritual, keyed by (user, night date-key).
// A second completion on the same logical night overwrites the row.
type NightSession struct {
	UserID       string
	DateKey      string
	Mode         RitualMode
	StressBefore int
	StressAfter  int
	CompletedAt  time.Time
}

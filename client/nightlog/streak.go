package nightlog

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Storage keys owned exclusively by the tracker.
const (
	keyLastCompletion = "night_last_completion"
	keyStreakCount    = "night_streak_count"
)

// Store is the device's persistent key-value storage. Absent keys
// return an empty string, not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// State is the persisted streak state. StreakCount is zero exactly
// when LastCompletionDateKey is empty.
type State struct {
	LastCompletionDateKey string
	StreakCount           int
}

type Tracker struct {
	store Store
	log   zerolog.Logger
}

func NewTracker(store Store, log zerolog.Logger) *Tracker {
	return &Tracker{store: store, log: log}
}

// Current returns the persisted state, treating unreadable or
// malformed stored values as no-streak.
func (t *Tracker) Current() State {
	lastKey, err := t.store.Get(keyLastCompletion)
	if err != nil {
		t.log.Debug().Err(err).Msg("read last completion failed")
		return State{}
	}
	if _, ok := parseDateKey(lastKey); !ok {
		return State{}
	}

	countRaw, err := t.store.Get(keyStreakCount)
	if err != nil {
		t.log.Debug().Err(err).Msg("read streak count failed")
		return State{}
	}
	count, err := strconv.Atoi(countRaw)
	if err != nil || count < 1 {
		// A valid completion key is recorded, so the streak is at
		// least that one night.
		count = 1
	}

	return State{LastCompletionDateKey: lastKey, StreakCount: count}
}

// RegisterCompletion records a ritual completion at now and returns
// the new state. Completing twice on the same logical night is
// idempotent. Persistence failure is soft: the computed state is
// still returned so the UI stays responsive.
func (t *Tracker) RegisterCompletion(now time.Time) State {
	completionKey := DateKey(now)
	completionDay, _ := parseDateKey(completionKey)

	prev := t.Current()

	next := State{LastCompletionDateKey: completionKey, StreakCount: 1}
	if prevDay, ok := parseDateKey(prev.LastCompletionDateKey); ok {
		switch {
		case prevDay.Equal(completionDay):
			next.StreakCount = maxInt(prev.StreakCount, 1)
		case isNextDay(prevDay, completionDay):
			next.StreakCount = maxInt(prev.StreakCount, 0) + 1
		}
	}

	if err := t.store.Set(keyLastCompletion, next.LastCompletionDateKey); err != nil {
		t.log.Warn().Err(err).Msg("persist last completion failed")
		return next
	}
	if err := t.store.Set(keyStreakCount, strconv.Itoa(next.StreakCount)); err != nil {
		t.log.Warn().Err(err).Msg("persist streak count failed")
	}

	return next
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

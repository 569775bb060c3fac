package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/models"
)

type fakeLimiter struct {
	allow bool
	err   error
	calls int
}

func (f *fakeLimiter) Allow(ctx context.Context, userID, action string) (bool, error) {
	f.calls++
	return f.allow, f.err
}

type nightKey struct {
	userID  string
	dateKey string
}

type fakeNightStore struct {
	rows      map[nightKey]models.NightSession
	upsertErr error
	upserts   int
}

func newFakeNightStore() *fakeNightStore {
	return &fakeNightStore{rows: map[nightKey]models.NightSession{}}
}

func (f *fakeNightStore) Upsert(ctx context.Context, session models.NightSession) error {
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[nightKey{session.UserID, session.DateKey}] = session
	return nil
}

func (f *fakeNightStore) ListByUser(ctx context.Context, userID string, from, to string) ([]models.NightSession, error) {
	return nil, nil
}

func (f *fakeNightStore) RecentDateKeys(ctx context.Context, userID string, limit int) ([]string, error) {
	return nil, nil
}

func TestRecordNightRateLimited(t *testing.T) {
	store := newFakeNightStore()
	svc := NewRitualService(store, &fakeLimiter{allow: false}, zerolog.Nop())

	err := svc.RecordNight(context.Background(), models.NightSession{
		UserID: "u1", DateKey: "2024-05-02", Mode: models.RitualModeCalmMind,
		StressBefore: 4, StressAfter: 2,
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if store.upserts != 0 {
		t.Errorf("upserts = %d, want 0 after denial", store.upserts)
	}
}

func TestRecordNightLimiterFailure(t *testing.T) {
	store := newFakeNightStore()
	svc := NewRitualService(store, &fakeLimiter{err: errors.New("redis down")}, zerolog.Nop())

	err := svc.RecordNight(context.Background(), models.NightSession{
		UserID: "u1", DateKey: "2024-05-02", Mode: models.RitualModeCalmMind,
		StressBefore: 4, StressAfter: 2,
	})
	if !errors.Is(err, ErrRateLimitUnavailable) {
		t.Fatalf("err = %v, want ErrRateLimitUnavailable", err)
	}
	if store.upserts != 0 {
		t.Errorf("upserts = %d, want 0 when the limiter is unavailable", store.upserts)
	}
}

func TestRecordNightSameNightOverwrites(t *testing.T) {
	store := newFakeNightStore()
	limiter := &fakeLimiter{allow: true}
	svc := NewRitualService(store, limiter, zerolog.Nop())

	first := models.NightSession{
		UserID: "u1", DateKey: "2024-05-02", Mode: models.RitualModeCalmMind,
		StressBefore: 4, StressAfter: 2,
	}
	if err := svc.RecordNight(context.Background(), first); err != nil {
		t.Fatalf("first record: %v", err)
	}

	second := first
	second.Mode = models.RitualModeReleaseAccept
	second.StressAfter = 1
	if err := svc.RecordNight(context.Background(), second); err != nil {
		t.Fatalf("second record: %v", err)
	}

	if len(store.rows) != 1 {
		t.Fatalf("rows = %d, want one row per (user, night)", len(store.rows))
	}
	row := store.rows[nightKey{"u1", "2024-05-02"}]
	if row.Mode != models.RitualModeReleaseAccept || row.StressAfter != 1 {
		t.Errorf("row = %+v, want the second write's values", row)
	}
	if limiter.calls != 2 {
		t.Errorf("limiter calls = %d, want 2", limiter.calls)
	}
}

func TestRecordNightUpsertFailure(t *testing.T) {
	store := newFakeNightStore()
	store.upsertErr = errors.New("db down")
	svc := NewRitualService(store, &fakeLimiter{allow: true}, zerolog.Nop())

	err := svc.RecordNight(context.Background(), models.NightSession{
		UserID: "u1", DateKey: "2024-05-02", Mode: models.RitualModeCalmMind,
		StressBefore: 4, StressAfter: 2,
	})
	if err == nil {
		t.Fatal("expected upsert error to propagate")
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrRateLimitUnavailable) {
		t.Errorf("err = %v, want a plain store error", err)
	}
}

func TestRecordNightFillsCompletedAt(t *testing.T) {
	store := newFakeNightStore()
	svc := NewRitualService(store, &fakeLimiter{allow: true}, zerolog.Nop())

	if err := svc.RecordNight(context.Background(), models.NightSession{
		UserID: "u1", DateKey: "2024-05-02", Mode: models.RitualModeCalmMind,
		StressBefore: 3, StressAfter: 3,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if store.rows[nightKey{"u1", "2024-05-02"}].CompletedAt.IsZero() {
		t.Error("CompletedAt not defaulted")
	}
}

func TestStreakFromKeys(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		keys []string
		want int
	}{
		{"no completions", nil, 0},
		{"single today", []string{"2024-05-10"}, 1},
		{"single yesterday", []string{"2024-05-09"}, 1},
		{"single stale", []string{"2024-05-07"}, 0},
		{"three consecutive", []string{"2024-05-10", "2024-05-09", "2024-05-08"}, 3},
		{"gap stops the count", []string{"2024-05-10", "2024-05-09", "2024-05-07"}, 2},
		{"malformed key stops the count", []string{"2024-05-10", "bogus"}, 1},
		{"month boundary", []string{"2024-05-01", "2024-04-30"}, 0},
		{"future key", []string{"2024-05-12"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := streakFromKeys(tt.keys, now); got != tt.want {
				t.Errorf("streakFromKeys(%v) = %d, want %d", tt.keys, got, tt.want)
			}
		})
	}
}

func TestStreakFromKeysMonthBoundaryActive(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	keys := []string{"2024-05-01", "2024-04-30", "2024-04-29"}
	if got := streakFromKeys(keys, now); got != 3 {
		t.Errorf("streakFromKeys = %d, want 3", got)
	}
}

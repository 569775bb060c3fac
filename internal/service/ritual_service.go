package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/models"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/ratelimit"
)

var (
	ErrRateLimited          = errors.New("too many requests")
	ErrRateLimitUnavailable = errors.New("rate limit check failed")
)

// rateLimitAction names the night-recording write path in counter keys.
const rateLimitAction = "record_night"

// NightStore is the persistence surface RecordNight writes through.
// *repository.NightSessionRepository implements it.
type NightStore interface {
	Upsert(ctx context.Context, session models.NightSession) error
	ListByUser(ctx context.Context, userID string, from, to string) ([]models.NightSession, error)
	RecentDateKeys(ctx context.Context, userID string, limit int) ([]string, error)
}

type RitualService struct {
	nights  NightStore
	limiter ratelimit.Limiter
	log     zerolog.Logger
}

func NewRitualService(nights NightStore, limiter ratelimit.Limiter, log zerolog.Logger) *RitualService {
	return &RitualService{
		nights:  nights,
		limiter: limiter,
		log:     log,
	}
}

// RecordNight admits one ritual completion through the rate limiter and
// upserts the single row for (user, night). The operation is atomic
// from the caller's perspective: the row is written or it is not.
func (s *RitualService) RecordNight(ctx context.Context, session models.NightSession) error {
	allowed, err := s.limiter.Allow(ctx, session.UserID, rateLimitAction)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", session.UserID).Msg("rate limit check failed")
		return fmt.Errorf("%w: %v", ErrRateLimitUnavailable, err)
	}
	if !allowed {
		return ErrRateLimited
	}

	if session.CompletedAt.IsZero() {
		session.CompletedAt = time.Now()
	}

	if err := s.nights.Upsert(ctx, session); err != nil {
		s.log.Error().Err(err).
			Str("user_id", session.UserID).
			Str("date_key", session.DateKey).
			Msg("night session upsert failed")
		return err
	}
	return nil
}

func (s *RitualService) History(ctx context.Context, userID, from, to string) ([]models.NightSession, error) {
	return s.nights.ListByUser(ctx, userID, from, to)
}

// CurrentStreak derives the streak from stored rows. It is advisory:
// devices keep their own streak locally and that copy drives the UI.
func (s *RitualService) CurrentStreak(ctx context.Context, userID string, now time.Time) (int, error) {
	keys, err := s.nights.RecentDateKeys(ctx, userID, 400)
	if err != nil {
		return 0, err
	}
	return streakFromKeys(keys, now), nil
}

// streakFromKeys counts consecutive calendar days ending at today or
// yesterday, given date keys sorted newest first.
func streakFromKeys(keys []string, now time.Time) int {
	if len(keys) == 0 {
		return 0
	}

	head, err := time.ParseInLocation("2006-01-02", keys[0], time.UTC)
	if err != nil {
		return 0
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	gap := today.Sub(head).Hours() / 24
	if gap > 1 || gap < 0 {
		// Most recent completion is older than yesterday; streak is over.
		return 0
	}

	streak := 1
	prev := head
	for _, key := range keys[1:] {
		day, err := time.ParseInLocation("2006-01-02", key, time.UTC)
		if err != nil {
			break
		}
		if !prev.AddDate(0, 0, -1).Equal(day) {
			break
		}
		streak++
		prev = day
	}
	return streak
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/models"
)

var ErrNightSessionNotFound = errors.New("night session not found")

type NightSessionRepository struct {
	pool *pgxpool.Pool
}

func NewNightSessionRepository(pool *pgxpool.Pool) *NightSessionRepository {
	return &NightSessionRepository{pool: pool}
}

// Upsert writes the single row for (user_id, date_key). A repeated
// completion on the same logical night overwrites; it never duplicates.
func (r *NightSessionRepository) Upsert(ctx context.Context, session models.NightSession) error {
	const query = `
		INSERT INTO night_sessions (
			user_id, date_key, mode, stress_before, stress_after, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (user_id, date_key)
		DO UPDATE SET
			mode = EXCLUDED.mode,
			stress_before = EXCLUDED.stress_before,
			stress_after = EXCLUDED.stress_after,
			completed_at = EXCLUDED.completed_at
	`

	_, err := r.pool.Exec(ctx, query,
		session.UserID,
		session.DateKey,
		session.Mode,
		session.StressBefore,
		session.StressAfter,
		session.CompletedAt,
	)
	return err
}

func (r *NightSessionRepository) Get(ctx context.Context, userID, dateKey string) (models.NightSession, error) {
	const query = `
		SELECT user_id, date_key, mode, stress_before, stress_after, completed_at
		FROM night_sessions
		WHERE user_id = $1 AND date_key = $2
	`

	row := r.pool.QueryRow(ctx, query, userID, dateKey)
	var session models.NightSession
	if err := row.Scan(
		&session.UserID,
		&session.DateKey,
		&session.Mode,
		&session.StressBefore,
		&session.StressAfter,
		&session.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.NightSession{}, ErrNightSessionNotFound
		}
		return models.NightSession{}, err
	}
	return session, nil
}

// ListByUser returns sessions newest-first, optionally bounded by
// inclusive date-key range. Empty bounds are open.
func (r *NightSessionRepository) ListByUser(ctx context.Context, userID string, from, to string) ([]models.NightSession, error) {
	const query = `
		SELECT user_id, date_key, mode, stress_before, stress_after, completed_at
		FROM night_sessions
		WHERE user_id = $1
		  AND ($2 = '' OR date_key >= $2)
		  AND ($3 = '' OR date_key <= $3)
		ORDER BY date_key DESC
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.NightSession
	for rows.Next() {
		var session models.NightSession
		if err := rows.Scan(
			&session.UserID,
			&session.DateKey,
			&session.Mode,
			&session.StressBefore,
			&session.StressAfter,
			&session.CompletedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// RecentDateKeys returns the user's most recent date keys, newest
// first, for server-side streak computation.
func (r *NightSessionRepository) RecentDateKeys(ctx context.Context, userID string, limit int) ([]string, error) {
	const query = `
		SELECT date_key FROM night_sessions
		WHERE user_id = $1
		ORDER BY date_key DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/models"
)

type TrackRepository struct {
	pool *pgxpool.Pool
}

func NewTrackRepository(pool *pgxpool.Pool) *TrackRepository {
	return &TrackRepository{pool: pool}
}

func (r *TrackRepository) List(ctx context.Context, category string) ([]models.Track, error) {
	const query = `
		SELECT id, title, category, duration_seconds, object_key, sort_order, created_at
		FROM tracks
		WHERE ($1 = '' OR category = $1)
		ORDER BY sort_order, title
	`

	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var track models.Track
		if err := rows.Scan(
			&track.ID,
			&track.Title,
			&track.Category,
			&track.DurationSeconds,
			&track.ObjectKey,
			&track.SortOrder,
			&track.CreatedAt,
		); err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/models"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/repository"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/storage"
)

type CatalogService struct {
	tracks *repository.TrackRepository
	store  *storage.ObjectStore
	log    zerolog.Logger
}

func NewCatalogService(tracks *repository.TrackRepository, store *storage.ObjectStore, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		tracks: tracks,
		store:  store,
		log:    log,
	}
}

type CatalogTrack struct {
	Track    models.Track
	AudioURL string
}

// ListTracks returns the catalog with presigned audio URLs. A track
// whose object cannot be presigned is returned without a URL rather
// than dropping the whole listing.
func (s *CatalogService) ListTracks(ctx context.Context, category string) ([]CatalogTrack, error) {
	tracks, err := s.tracks.List(ctx, category)
	if err != nil {
		return nil, err
	}

	result := make([]CatalogTrack, 0, len(tracks))
	for _, track := range tracks {
		url, err := s.store.PresignAudio(ctx, track.ObjectKey)
		if err != nil {
			s.log.Warn().Err(err).Str("track_id", track.ID).Msg("presign failed")
		}
		result = append(result, CatalogTrack{Track: track, AudioURL: url})
	}
	return result, nil
}

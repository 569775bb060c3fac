package models

import "time"

type TrackCategory string

const (
	TrackCategorySleep      TrackCategory = "sleep"
	TrackCategoryRelaxation TrackCategory = "relaxation"
	TrackCategoryBreathing  TrackCategory = "breathing"
)

// Track is one audio item in the sleep/relaxation catalog. ObjectKey
// points at the file in the audio bucket; clients receive a presigned
// URL, never the key itself.
type Track struct {
	ID              string
	Title           string
	Category        TrackCategory
	DurationSeconds int
	ObjectKey       string
	SortOrder       int
	CreatedAt       time.Time
}

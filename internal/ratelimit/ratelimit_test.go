package ratelimit

import (
	"testing"
	"time"
)

func TestBucketKeyAlignment(t *testing.T) {
	window := 10 * time.Minute

	// Both inside 12:00-12:10 UTC.
	a := BucketKey("u1", "record_night", time.Date(2024, 5, 2, 12, 0, 1, 0, time.UTC), window)
	b := BucketKey("u1", "record_night", time.Date(2024, 5, 2, 12, 9, 59, 0, time.UTC), window)
	if a != b {
		t.Errorf("same window produced different keys: %q vs %q", a, b)
	}

	// 12:10:00 starts a new bucket.
	c := BucketKey("u1", "record_night", time.Date(2024, 5, 2, 12, 10, 0, 0, time.UTC), window)
	if a == c {
		t.Errorf("adjacent windows share a key: %q", a)
	}
}

func TestBucketKeyUTCNormalization(t *testing.T) {
	window := 10 * time.Minute
	loc := time.FixedZone("UTC+5", 5*3600)

	utc := time.Date(2024, 5, 2, 12, 3, 0, 0, time.UTC)
	local := utc.In(loc)

	a := BucketKey("u1", "record_night", utc, window)
	b := BucketKey("u1", "record_night", local, window)
	if a != b {
		t.Errorf("same instant in different zones produced different keys: %q vs %q", a, b)
	}
}

func TestBucketKeySeparatesUsersAndActions(t *testing.T) {
	window := 10 * time.Minute
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

	base := BucketKey("u1", "record_night", now, window)
	if BucketKey("u2", "record_night", now, window) == base {
		t.Error("different users share a counter")
	}
	if BucketKey("u1", "delete_account", now, window) == base {
		t.Error("different actions share a counter")
	}
}

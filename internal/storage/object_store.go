package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/config"
)

// ObjectStore holds the catalog's audio files. Clients only ever see
// presigned GET URLs.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketAudio)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketAudio, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.BucketAudio, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.BucketAudio, err)
		}
	}
	return nil
}

// PresignAudio returns a time-limited GET URL for one audio object.
func (s *ObjectStore) PresignAudio(ctx context.Context, objectKey string) (string, error) {
	ttl := s.cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	u, err := s.client.PresignedGetObject(ctx, s.cfg.BucketAudio, objectKey, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectKey, err)
	}
	return u.String(), nil
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"siteforge/api/internal/config"
)

// SnapshotStore keeps the content documents of published sites in object
// storage, one object per slug, so the public URL can be served without
// touching the API database.
type SnapshotStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewSnapshotStore(cfg config.StorageConfig) (*SnapshotStore, error) {
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

	return &SnapshotStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *SnapshotStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketSites)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketSites, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.BucketSites, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.BucketSites, err)
		}
	}
	return nil
}

// Put uploads the site document under <slug>/index.json, replacing any
// previous snapshot for that slug.
func (s *SnapshotStore) Put(ctx context.Context, slug string, content []byte) error {
	key := slug + "/index.json"
	_, err := s.client.PutObject(ctx, s.cfg.BucketSites, key,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", key, err)
	}
	return nil
}

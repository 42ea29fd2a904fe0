package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// UploadResult is the stored location of an uploaded file.
type UploadResult struct {
	Path      string `json:"path"`
	PublicURL string `json:"public_url"`
}

// BlobStore is the attachment store. Paths are namespaced by document code,
// e.g. "LOG-JKT-0007/penawaran.pdf".
type BlobStore interface {
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (*UploadResult, error)
	Remove(ctx context.Context, path string) error
}

type minioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects to the object storage backend and ensures the
// bucket exists.
func NewMinioStore(cfg config.StorageConfig) (BlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &minioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *minioStore) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (*UploadResult, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return &UploadResult{
		Path:      path,
		PublicURL: fmt.Sprintf("%s/%s", s.publicURL, path),
	}, nil
}

func (s *minioStore) Remove(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

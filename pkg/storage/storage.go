// Package storage reads documents kept in object stores.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/feichai0017/document-summarizer/config"
	"github.com/feichai0017/document-summarizer/pkg/logger"
	"github.com/feichai0017/document-summarizer/pkg/storage/minio"
	"github.com/feichai0017/document-summarizer/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Storage gives read access to stored documents.
type Storage interface {
	// Get opens the object; size is -1 when the store does not report it.
	Get(ctx context.Context, bucket, key string) (body io.ReadCloser, size int64, err error)
}

// Stores maps a URL scheme to the store that serves it.
type Stores map[StorageType]Storage

// NewStores creates a client for every store enabled in cfg.
func NewStores(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (Stores, error) {
	stores := Stores{}
	if cfg.S3.Enabled() {
		st, err := s3.NewS3Storage(ctx, cfg.S3, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 storage: %w", err)
		}
		stores[StorageTypeS3] = notFoundAdapter{st, s3.IsNotFound}
	}
	if cfg.Minio.Enabled() {
		st, err := minio.NewMinioStorage(cfg.Minio, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio storage: %w", err)
		}
		stores[StorageTypeMinio] = notFoundAdapter{st, minio.IsNotFound}
	}
	return stores, nil
}

type notFoundAdapter struct {
	Storage
	isNotFound func(error) bool
}

func (a notFoundAdapter) Get(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	body, size, err := a.Storage.Get(ctx, bucket, key)
	if err != nil && a.isNotFound(err) {
		return nil, 0, fmt.Errorf("%w: %s/%s: %v", ErrObjectNotFound, bucket, key, err)
	}
	return body, size, err
}

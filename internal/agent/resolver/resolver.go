// Package resolver turns a document reference into its bytes.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
	"github.com/feichai0017/document-summarizer/pkg/storage"
)

const (
	defaultMaxBytes = 50 * 1024 * 1024 // 50MB
	defaultTimeout  = 60 * time.Second
)

// Resolver fetches document bytes uniformly for local and remote references.
type Resolver interface {
	Resolve(ctx context.Context, ref models.DocumentReference) ([]byte, error)
}

type Config struct {
	MaxBytes int64
	// Timeout bounds a single remote fetch; the caller's ctx still applies.
	Timeout time.Duration
}

// ByteResolver reads local files, fetches http(s) URLs and reads s3:// and
// minio:// objects from the configured stores.
type ByteResolver struct {
	client   *http.Client
	stores   storage.Stores
	maxBytes int64
	timeout  time.Duration
	logger   logger.Logger
}

func New(cfg Config, client *http.Client, stores storage.Stores, log logger.Logger) *ByteResolver {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &ByteResolver{
		client:   client,
		stores:   stores,
		maxBytes: cfg.MaxBytes,
		timeout:  cfg.Timeout,
		logger:   logger.OrNop(log).Named("resolver"),
	}
}

func (r *ByteResolver) Resolve(ctx context.Context, ref models.DocumentReference) ([]byte, error) {
	if err := models.FromContext(ctx); err != nil {
		return nil, err
	}

	switch ref.Kind() {
	case models.SourceLocal:
		return r.readLocal(ctx, ref.Path())
	case models.SourceRemote:
		return r.fetchRemote(ctx, ref.URL())
	default:
		return nil, models.ReadFailed(fmt.Errorf("unknown source kind %q", ref.Kind()))
	}
}

func (r *ByteResolver) readLocal(ctx context.Context, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.ReadFailed(err)
	}
	defer f.Close()

	return r.readAll(ctx, f, models.ReadFailed)
}

func (r *ByteResolver) fetchRemote(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, models.NetworkError(fmt.Errorf("invalid url: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return r.fetchHTTP(ctx, u)
	case string(storage.StorageTypeS3), string(storage.StorageTypeMinio):
		return r.fetchObject(ctx, storage.StorageType(strings.ToLower(u.Scheme)), u)
	default:
		return nil, models.NetworkError(fmt.Errorf("unsupported url scheme %q", u.Scheme))
	}
}

func (r *ByteResolver) fetchHTTP(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, models.NetworkError(err)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		// ctx cancellation aborts the request and surfaces here
		if ctxErr := models.FromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, models.NetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		r.logger.Warn("fetch returned non-2xx status",
			logger.String("host", u.Host),
			logger.Int("status", resp.StatusCode),
		)
		return nil, models.FetchFailed(resp.StatusCode)
	}
	if resp.ContentLength > r.maxBytes {
		return nil, r.tooLarge(resp.ContentLength)
	}

	data, err := r.readAll(ctx, resp.Body, models.NetworkError)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("document fetched",
		logger.String("host", u.Host),
		logger.Int("bytes", len(data)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

func (r *ByteResolver) fetchObject(ctx context.Context, kind storage.StorageType, u *url.URL) ([]byte, error) {
	store, ok := r.stores[kind]
	if !ok {
		return nil, models.NetworkError(fmt.Errorf("%s storage is not configured", kind))
	}
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, models.NetworkError(fmt.Errorf("invalid object url %q, want %s://bucket/key", u.String(), kind))
	}

	body, size, err := store.Get(ctx, bucket, key)
	if err != nil {
		if ctxErr := models.FromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, models.FetchFailed(http.StatusNotFound)
		}
		return nil, models.NetworkError(err)
	}
	defer body.Close()

	if size > r.maxBytes {
		return nil, r.tooLarge(size)
	}
	return r.readAll(ctx, body, models.NetworkError)
}

// readAll reads at most maxBytes; anything larger is rejected rather than truncated.
// Read errors are wrapped with wrap, so a broken remote body stays a network error.
func (r *ByteResolver) readAll(ctx context.Context, src io.Reader, wrap func(error) *models.PipelineError) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		if ctxErr := models.FromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, wrap(err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, r.tooLarge(int64(len(data)))
	}
	return data, nil
}

func (r *ByteResolver) tooLarge(size int64) error {
	return models.ReadFailed(fmt.Errorf("document exceeds the %d byte limit (got %d)", r.maxBytes, size))
}

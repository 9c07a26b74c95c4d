package resolver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
	"github.com/feichai0017/document-summarizer/pkg/storage"
)

func TestResolveLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("local bytes"), 0o644))
	ref, err := models.NewLocalReference(path, "")
	require.NoError(t, err)

	data, err := New(Config{}, nil, nil, nil).Resolve(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "local bytes", string(data))

	require.NoError(t, os.Remove(path))
	_, err = New(Config{}, nil, nil, nil).Resolve(context.Background(), ref)
	assert.Equal(t, models.KindReadFailed, models.KindOf(err))
}

func TestResolveLocalTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0o644))
	ref, err := models.NewLocalReference(path, "")
	require.NoError(t, err)

	_, err = New(Config{MaxBytes: 32}, nil, nil, nil).Resolve(context.Background(), ref)
	assert.Equal(t, models.KindReadFailed, models.KindOf(err))
}

func TestResolveRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.txt":
			io.WriteString(w, "remote bytes")
		case "/forbidden.txt":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := New(Config{}, srv.Client(), nil, logger.NewTestLogger())

	data, err := r.Resolve(context.Background(), models.NewRemoteReference(srv.URL+"/doc.txt", "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "remote bytes", string(data))

	_, err = r.Resolve(context.Background(), models.NewRemoteReference(srv.URL+"/missing.txt", "missing.txt"))
	assert.Equal(t, models.KindFetchFailed, models.KindOf(err))
	assert.Equal(t, http.StatusNotFound, models.StatusOf(err))

	_, err = r.Resolve(context.Background(), models.NewRemoteReference(srv.URL+"/forbidden.txt", "forbidden.txt"))
	assert.Equal(t, http.StatusForbidden, models.StatusOf(err))
}

func TestResolveRemoteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := New(Config{}, nil, nil, nil).Resolve(context.Background(), models.NewRemoteReference(addr+"/doc.pdf", "doc.pdf"))
	assert.Equal(t, models.KindNetworkError, models.KindOf(err))

	_, err = New(Config{}, nil, nil, nil).Resolve(context.Background(), models.NewRemoteReference("ftp://example.com/doc.pdf", "doc.pdf"))
	assert.Equal(t, models.KindNetworkError, models.KindOf(err))
}

func TestResolveRemoteTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "0123456789")
		w.(http.Flusher).Flush()

		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	_, err := New(Config{}, srv.Client(), nil, nil).
		Resolve(context.Background(), models.NewRemoteReference(srv.URL+"/short.pdf", "short.pdf"))
	require.Error(t, err)
	assert.Equal(t, models.KindNetworkError, models.KindOf(err))
}

type failingBody struct{}

func (failingBody) Read(p []byte) (int, error) { return 0, errors.New("connection reset by peer") }
func (failingBody) Close() error               { return nil }

type resettingStore struct{}

func (resettingStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	return failingBody{}, 10, nil
}

func TestResolveObjectBodyReadFailure(t *testing.T) {
	stores := storage.Stores{storage.StorageTypeS3: resettingStore{}}

	_, err := New(Config{}, nil, stores, nil).
		Resolve(context.Background(), models.NewRemoteReference("s3://docs/report.txt", "report.txt"))
	assert.Equal(t, models.KindNetworkError, models.KindOf(err))
}

func TestResolveRemoteCancelAbortsRequest(t *testing.T) {
	started := make(chan struct{})
	aborted := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
			close(aborted)
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := New(Config{}, srv.Client(), nil, nil).Resolve(ctx, models.NewRemoteReference(srv.URL+"/slow.pdf", "slow.pdf"))
	assert.Equal(t, models.KindCancelled, models.KindOf(err))

	select {
	case <-aborted:
	case <-time.After(2 * time.Second):
		t.Fatal("server request was not aborted")
	}
}

func TestResolveRemoteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	_, err := New(Config{Timeout: 50 * time.Millisecond}, srv.Client(), nil, nil).
		Resolve(context.Background(), models.NewRemoteReference(srv.URL+"/slow.pdf", "slow.pdf"))
	assert.Equal(t, models.KindNetworkError, models.KindOf(err))
}

type fakeStore struct {
	objects map[string]string
}

func (s fakeStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	v, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, 0, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(v)), int64(len(v)), nil
}

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	return nil, 0, errors.New("connection refused")
}

func TestResolveObjectStores(t *testing.T) {
	stores := storage.Stores{
		storage.StorageTypeS3:    fakeStore{objects: map[string]string{"docs/a/report.txt": "from s3"}},
		storage.StorageTypeMinio: brokenStore{},
	}
	r := New(Config{}, nil, stores, nil)

	data, err := r.Resolve(context.Background(), models.NewRemoteReference("s3://docs/a/report.txt", "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "from s3", string(data))

	_, err = r.Resolve(context.Background(), models.NewRemoteReference("s3://docs/missing.txt", "missing.txt"))
	assert.Equal(t, http.StatusNotFound, models.StatusOf(err))

	_, err = r.Resolve(context.Background(), models.NewRemoteReference("minio://docs/report.txt", "report.txt"))
	assert.Equal(t, models.KindNetworkError, models.KindOf(err))

	_, err = New(Config{}, nil, nil, nil).Resolve(context.Background(), models.NewRemoteReference("s3://docs/a.txt", "a.txt"))
	assert.Equal(t, models.KindNetworkError, models.KindOf(err))
}

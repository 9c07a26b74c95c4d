package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-summarizer/config"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

const body = "stored document body"

// objectServer answers path-style S3 requests for /docs/report.txt and 404s
// everything else with an S3 error document.
func objectServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/docs/report.txt" {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>missing</Key><BucketName>docs</BucketName><RequestId>1</RequestId></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		if r.Method != http.MethodHead {
			io.WriteString(w, body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewStoresSkipsDisabled(t *testing.T) {
	stores, err := NewStores(context.Background(), config.StorageConfig{}, logger.NewNop())
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestStoresGet(t *testing.T) {
	srv := objectServer(t)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cfg := config.StorageConfig{
		S3: config.S3Config{
			Region:    "us-east-1",
			Endpoint:  srv.URL,
			AccessKey: "test",
			SecretKey: "test",
		},
		Minio: config.MinioConfig{
			Endpoint:  u.Host,
			Region:    "us-east-1",
			AccessKey: "test",
			SecretKey: "test",
		},
	}
	stores, err := NewStores(context.Background(), cfg, logger.NewTestLogger())
	require.NoError(t, err)
	require.Len(t, stores, 2)

	for kind, st := range stores {
		t.Run(string(kind), func(t *testing.T) {
			rc, size, err := st.Get(context.Background(), "docs", "report.txt")
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, body, string(data))
			assert.Equal(t, int64(len(body)), size)

			_, _, err = st.Get(context.Background(), "docs", "missing.txt")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrObjectNotFound)
		})
	}
}

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-summarizer/config"
	"github.com/feichai0017/document-summarizer/internal/agent/summarizer"
	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

func TestNewRunsLocalDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"- wired"}]}}]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Summarizer.Endpoint = srv.URL
	cfg.Summarizer.APIKey = "key"
	cfg.OCR.Provider = "none"

	a, err := New(context.Background(), cfg, logger.NewTestLogger())
	require.NoError(t, err)
	defer a.Controller.Shutdown(context.Background())

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Local notes about the release schedule."), 0o644))
	ref, err := models.NewLocalReference(path, "")
	require.NoError(t, err)

	job, err := a.Controller.Run(ref)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := a.Controller.Wait(ctx, job.ID)
	require.NoError(t, err)

	require.Equal(t, models.JobCompleted, final.State, "%v", final.Err)
	assert.Equal(t, "- wired", final.Summary.Bullets)
}

func TestNewChunkedSummarizer(t *testing.T) {
	cfg := config.Default()
	cfg.Summarizer.APIKey = "key"
	cfg.Summarizer.MaxPromptChars = 1000
	cfg.OCR.Provider = "ollama"

	a, err := New(context.Background(), cfg, logger.NewTestLogger())
	require.NoError(t, err)
	defer a.Controller.Shutdown(context.Background())

	_, chunked := a.Summarizer.(*summarizer.ChunkedSummarizer)
	assert.True(t, chunked)
}

func TestNewRejectsIncompleteOllama(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.Provider = "ollama"
	cfg.OCR.Ollama.Model = ""

	_, err := New(context.Background(), cfg, logger.NewTestLogger())
	assert.ErrorContains(t, err, "ollama")
}

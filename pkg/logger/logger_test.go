package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := NewLogger(
		WithLevel("debug"),
		WithEncoding("json"),
		WithOutputPaths([]string{path}),
		WithInitialField("service", "docsum"),
	)
	require.NoError(t, err)

	log.Named("pipeline").Info("job started", JobID("job-1"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"job started"`)
	assert.Contains(t, string(data), `"job_id":"job-1"`)
	assert.Contains(t, string(data), `"service":"docsum"`)
	assert.Contains(t, string(data), `"logger":"pipeline"`)
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(WithLevel("loud"))
	require.Error(t, err)
}

func TestTestLoggerSharesSinkAcrossChildren(t *testing.T) {
	root := NewTestLogger()
	child := root.Named("ocr").With(String("page", "1"))

	child.Warn("page skipped")
	root.Info("done")

	entries := root.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "ocr", entries[0].Logger)
	assert.Len(t, entries[0].Fields, 1)
	assert.True(t, root.HasMessage("WARN", "page skipped"))
	assert.False(t, root.HasMessage("ERROR", "page skipped"))

	root.Clear()
	assert.Empty(t, root.GetEntries())
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	tl := NewTestLogger()
	assert.Same(t, tl, OrNop(tl))
}

package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEngineRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "llava", req.Model)
		assert.False(t, req.Stream)
		if assert.Len(t, req.Images, 1) {
			assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), req.Images[0])
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "  scanned words \n", Done: true})
	}))
	defer srv.Close()

	f, err := NewOllamaFactory(OllamaConfig{Endpoint: srv.URL + "/", Model: "llava"})
	require.NoError(t, err)
	engine, err := f.NewEngine(context.Background())
	require.NoError(t, err)
	defer engine.Terminate()

	var progress []float64
	text, err := engine.Recognize(context.Background(), []byte("png-bytes"), func(p EngineProgress) {
		assert.Equal(t, StatusRecognizing, p.Status)
		progress = append(progress, p.Progress)
	})
	require.NoError(t, err)
	assert.Equal(t, "scanned words", text)
	assert.Equal(t, []float64{0, 1}, progress)
}

func TestOllamaEngineErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Error: "out of memory"})
	}))
	defer srv.Close()

	f, err := NewOllamaFactory(OllamaConfig{Endpoint: srv.URL, Model: "llava"})
	require.NoError(t, err)
	engine, err := f.NewEngine(context.Background())
	require.NoError(t, err)
	defer engine.Terminate()

	_, err = engine.Recognize(context.Background(), []byte("x"), nil)
	assert.ErrorContains(t, err, "out of memory")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Recognize(ctx, []byte("x"), nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewOllamaFactory(OllamaConfig{Model: "llava"})
	assert.Error(t, err)
}

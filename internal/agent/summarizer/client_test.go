package summarizer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "secret"}, srv.Client(), logger.NewTestLogger())
	require.NoError(t, err)
	return c
}

func TestSummarizeSuccess(t *testing.T) {
	var got generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"- one\n- two"}]}}]}`)
	})

	res, err := c.Summarize(context.Background(), "document body")
	require.NoError(t, err)
	assert.Equal(t, "- one\n- two", res.Bullets)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, Instruction+"document body", got.Contents[0].Parts[0].Text)
}

func TestSummarizeAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	})

	_, err := c.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, models.KindSummarizationAPIError, models.KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, models.StatusOf(err))
}

func TestSummarizeEmptyResponses(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"candidates":[]}`,
		`{"candidates":[{"content":{"parts":[]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
		`not json`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			})
			_, err := c.Summarize(context.Background(), "text")
			assert.Equal(t, models.KindSummarizationEmptyResponse, models.KindOf(err))
		})
	}
}

func TestSummarizeCancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := c.Summarize(ctx, "text")
	assert.Equal(t, models.KindCancelled, models.KindOf(err))
}

func TestSummarizeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c, err := NewClient(Config{Endpoint: endpoint}, nil, nil)
	require.NoError(t, err)
	_, err = c.Summarize(context.Background(), "text")
	assert.Equal(t, models.KindNetworkError, models.KindOf(err))
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient(Config{}, nil, nil)
	assert.Error(t, err)
}

type recordingSummarizer struct {
	mu     sync.Mutex
	inputs []string
}

func (r *recordingSummarizer) Summarize(ctx context.Context, text string) (*models.SummaryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, text)
	return &models.SummaryResult{Bullets: "- " + strings.Fields(text)[0] + "\n"}, nil
}

func TestParagraphChunker(t *testing.T) {
	text := "alpha beta\n\ngamma delta\n\nepsilon"
	assert.Equal(t, []string{text}, ParagraphChunker{}.Split(text))
	assert.Equal(t, []string{text}, ParagraphChunker{MaxChars: 100}.Split(text))

	chunks := ParagraphChunker{MaxChars: 24}.Split(text)
	assert.Equal(t, []string{"alpha beta\n\ngamma delta", "epsilon"}, chunks)

	long := ParagraphChunker{MaxChars: 4}.Split("abcdefghij")
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, long)
}

func TestChunkedSummarizerMerges(t *testing.T) {
	rec := &recordingSummarizer{}
	s := NewChunkedSummarizer(rec, ParagraphChunker{MaxChars: 12})

	res, err := s.Summarize(context.Background(), "alpha beta\n\ngamma delta")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha beta", "gamma delta"}, rec.inputs)
	assert.Equal(t, "- alpha\n- gamma", res.Bullets)
}

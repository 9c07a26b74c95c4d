// Package summarizer calls the external model that turns text into bullets.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

// Instruction is prepended to the document text in every prompt.
const Instruction = "Summarize the following text in 4-6 concise bullet points:\n\n"

const (
	apiKeyHeader   = "x-goog-api-key"
	maxErrorBody   = 1024
	defaultTimeout = 60 * time.Second
)

type Summarizer interface {
	Summarize(ctx context.Context, text string) (*models.SummaryResult, error)
}

type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client is an injectable summarization client; it holds no global state.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

func NewClient(cfg Config, httpClient *http.Client, log logger.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("summarizer endpoint is required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger.OrNop(log).Named("summarizer"),
	}, nil
}

// BuildPrompt returns the prompt sent for text.
func BuildPrompt(text string) string {
	return Instruction + text
}

func (c *Client) Summarize(ctx context.Context, text string) (*models.SummaryResult, error) {
	if err := models.FromContext(ctx); err != nil {
		return nil, err
	}

	reqData, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: BuildPrompt(text)}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqData))
	if err != nil {
		return nil, models.NetworkError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := models.FromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, models.NetworkError(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("summarization request failed",
			logger.Int("status", resp.StatusCode),
			logger.Duration("elapsed", time.Since(start)),
		)
		return nil, models.SummarizationAPIError(resp.StatusCode, string(bytes.TrimSpace(body)))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if ctxErr := models.FromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, models.SummarizationEmptyResponse(fmt.Errorf("failed to decode response: %w", err))
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 || result.Candidates[0].Content.Parts[0].Text == "" {
		return nil, models.SummarizationEmptyResponse(nil)
	}

	c.logger.Debug("summary received",
		logger.Int("prompt_chars", len(text)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return &models.SummaryResult{Bullets: result.Candidates[0].Content.Parts[0].Text}, nil
}

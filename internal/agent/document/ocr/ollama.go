package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaPrompt = "Transcribe all text in this image exactly as written. Output only the text."

type OllamaConfig struct {
	Endpoint string
	Model    string
	Prompt   string
	Timeout  time.Duration
}

type ollamaRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// OllamaFactory transcribes page images with a vision model served by Ollama.
// Every engine gets its own HTTP client, closed on Terminate.
type OllamaFactory struct {
	config OllamaConfig
}

func NewOllamaFactory(cfg OllamaConfig) (*OllamaFactory, error) {
	if cfg.Endpoint == "" || cfg.Model == "" {
		return nil, errors.New("ollama endpoint and model are required")
	}
	if cfg.Prompt == "" {
		cfg.Prompt = defaultOllamaPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &OllamaFactory{config: cfg}, nil
}

func (f *OllamaFactory) NewEngine(ctx context.Context) (Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ollamaEngine{
		config:     f.config,
		httpClient: &http.Client{Timeout: f.config.Timeout, Transport: &http.Transport{}},
	}, nil
}

type ollamaEngine struct {
	config     OllamaConfig
	httpClient *http.Client
}

func (e *ollamaEngine) Recognize(ctx context.Context, image []byte, onProgress func(EngineProgress)) (string, error) {
	report(onProgress, 0)

	reqData, err := json.Marshal(ollamaRequest{
		Model:  e.config.Model,
		Prompt: e.config.Prompt,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Endpoint+"/api/generate", bytes.NewReader(reqData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}

	report(onProgress, 1)
	return strings.TrimSpace(result.Response), nil
}

func (e *ollamaEngine) Terminate() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

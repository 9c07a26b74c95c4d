// Package app assembles the summarization pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/feichai0017/document-summarizer/config"
	"github.com/feichai0017/document-summarizer/internal/agent"
	"github.com/feichai0017/document-summarizer/internal/agent/document"
	"github.com/feichai0017/document-summarizer/internal/agent/document/ocr"
	"github.com/feichai0017/document-summarizer/internal/agent/resolver"
	"github.com/feichai0017/document-summarizer/internal/agent/summarizer"
	"github.com/feichai0017/document-summarizer/internal/service/pipeline"
	"github.com/feichai0017/document-summarizer/pkg/logger"
	"github.com/feichai0017/document-summarizer/pkg/storage"
)

// App holds the wired pipeline.
type App struct {
	Config       *config.Config
	Orchestrator *agent.Orchestrator
	Summarizer   summarizer.Summarizer
	Controller   *pipeline.Controller
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	log = logger.OrNop(log)
	stores, err := storage.NewStores(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	res := resolver.New(resolver.Config{
		MaxBytes: cfg.Extraction.MaxDocumentBytes,
		Timeout:  cfg.Extraction.FetchTimeout,
	}, &http.Client{}, stores, log)

	recognizer, err := newRecognizer(ctx, cfg.OCR, log)
	if err != nil {
		return nil, err
	}

	orchestrator := agent.NewOrchestrator(agent.OrchestratorConfig{
		MinChars:     cfg.Extraction.MinChars,
		SniffContent: cfg.Extraction.SniffContent,
	}, res, agent.NewProcessorFactory(log, cfg.Extraction.PDFWorkers), recognizer, log)

	client, err := summarizer.NewClient(summarizer.Config{
		Endpoint: cfg.Summarizer.Endpoint,
		APIKey:   cfg.Summarizer.APIKey,
		Timeout:  cfg.Summarizer.Timeout,
	}, nil, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}
	var sum summarizer.Summarizer = client
	if cfg.Summarizer.MaxPromptChars > 0 {
		sum = summarizer.NewChunkedSummarizer(client, summarizer.ParagraphChunker{MaxChars: cfg.Summarizer.MaxPromptChars})
	}

	controller := pipeline.NewController(pipeline.Config{Concurrency: cfg.Pipeline.Concurrency}, orchestrator, sum, log)

	return &App{
		Config:       cfg,
		Orchestrator: orchestrator,
		Summarizer:   sum,
		Controller:   controller,
	}, nil
}

// newRecognizer returns nil when OCR is disabled.
func newRecognizer(ctx context.Context, cfg config.OCRConfig, log logger.Logger) (document.Recognizer, error) {
	var engines ocr.EngineFactory
	switch cfg.Provider {
	case "none":
		log.Info("ocr fallback disabled")
		return nil, nil
	case "textract":
		f, err := ocr.NewTextractFactory(ctx, ocr.TextractConfig{
			Region:    cfg.Textract.Region,
			Endpoint:  cfg.Textract.Endpoint,
			AccessKey: cfg.Textract.AccessKey,
			SecretKey: cfg.Textract.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize textract: %w", err)
		}
		engines = f
	case "ollama":
		f, err := ocr.NewOllamaFactory(ocr.OllamaConfig{
			Endpoint: cfg.Ollama.Endpoint,
			Model:    cfg.Ollama.Model,
			Prompt:   cfg.Ollama.Prompt,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama: %w", err)
		}
		engines = f
	default:
		engines = ocr.NewTesseractFactory(ocr.TesseractConfig{Languages: cfg.Languages})
	}

	rasterizer := ocr.NewFitzRasterizer(cfg.DPI, ocr.NewPreprocessors(ocr.DefaultPreprocessConfig()))
	return ocr.NewExtractor(engines, rasterizer,
		ocr.WithMaxPages(cfg.MaxPages),
		ocr.WithLogger(log),
	), nil
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/feichai0017/document-summarizer/internal/agent/document"
	"github.com/feichai0017/document-summarizer/internal/agent/resolver"
	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

// DefaultMinChars is the trimmed native PDF text length below which OCR runs.
const DefaultMinChars = 30

type OrchestratorConfig struct {
	MinChars     int
	SniffContent bool
}

// Orchestrator sequences detection, byte resolution, native extraction and
// the OCR fallback for one document.
type Orchestrator struct {
	resolver resolver.Resolver
	factory  *ProcessorFactory
	ocr      document.Recognizer
	minChars int
	sniff    bool
	logger   logger.Logger
}

// NewOrchestrator wires the extraction stages. ocr may be nil, in which
// case PDFs without a text layer fail with EmptyExtraction.
func NewOrchestrator(cfg OrchestratorConfig, res resolver.Resolver, factory *ProcessorFactory, ocr document.Recognizer, log logger.Logger) *Orchestrator {
	if cfg.MinChars <= 0 {
		cfg.MinChars = DefaultMinChars
	}
	return &Orchestrator{
		resolver: res,
		factory:  factory,
		ocr:      ocr,
		minChars: cfg.MinChars,
		sniff:    cfg.SniffContent,
		logger:   logger.OrNop(log).Named("orchestrator"),
	}
}

// Extract returns the text of ref. The strategy is detected from the declared
// name before anything is fetched, so unsupported formats cost no I/O.
func (o *Orchestrator) Extract(ctx context.Context, ref models.DocumentReference, onProgress models.ProgressFunc) (*models.ExtractionResult, error) {
	strategy, err := Detect(ref.DeclaredName())
	if err != nil {
		return nil, err
	}
	extractor, err := o.factory.GetProcessor(strategy)
	if err != nil {
		return nil, err
	}

	if err := models.FromContext(ctx); err != nil {
		return nil, err
	}
	onProgress.Emit(models.StageFetching, models.PercentIndeterminate, "fetching document")
	data, err := o.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, withStage(err, models.StageFetching)
	}
	onProgress.Emit(models.StageFetching, 100, fmt.Sprintf("fetched %d bytes", len(data)))

	if err := models.FromContext(ctx); err != nil {
		return nil, err
	}
	onProgress.Emit(models.StageExtracting, 0, "extracting text")

	var warnings []string
	if o.sniff {
		warnings = Sniff(strategy, data)
		for _, w := range warnings {
			o.logger.Warn("content sniffing mismatch", logger.String("name", ref.DeclaredName()), logger.String("warning", w))
		}
	}

	result, err := extractor.Extract(ctx, data)
	if err != nil {
		return nil, withStage(err, models.StageExtracting)
	}
	onProgress.Emit(models.StageExtracting, 100, "text extracted")

	if strategy == models.StrategyPdfNative {
		native := utf8.RuneCountInString(strings.TrimSpace(result.FullText))
		if native < o.minChars && o.ocr != nil {
			if err := models.FromContext(ctx); err != nil {
				return nil, err
			}
			o.logger.Info("native text below threshold, falling back to OCR",
				logger.String("name", ref.DeclaredName()),
				logger.Int("chars", native),
				logger.Int("min_chars", o.minChars),
			)

			ocrResult, err := o.ocr.Recognize(ctx, data, onProgress)
			if err != nil {
				return nil, withStage(err, models.StageOcrRecognizing)
			}
			// the native result is discarded, never merged
			ocrResult.UsedFallback = true
			ocrResult.Warnings = append(ocrResult.Warnings,
				fmt.Sprintf("native text layer had %d characters, replaced by OCR", native))
			result = ocrResult
		}
	}

	result.Warnings = append(warnings, result.Warnings...)

	if strings.TrimSpace(result.FullText) == "" {
		return nil, models.EmptyExtraction().WithStage(models.StageExtracting)
	}
	return result, nil
}

func withStage(err error, stage models.Stage) error {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		if pe.Kind == models.KindCancelled {
			return err
		}
		return pe.WithStage(stage)
	}
	return err
}

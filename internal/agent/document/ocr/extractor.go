package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

// progressStep bounds event volume to one event per 10%.
const progressStep = 10

// Extractor is the OCR fallback extractor.
type Extractor struct {
	engines    EngineFactory
	rasterizer Rasterizer
	maxPages   int
	logger     logger.Logger
}

type Option func(*Extractor)

// WithMaxPages caps the number of recognized pages, 0 means all.
func WithMaxPages(n int) Option {
	return func(e *Extractor) {
		e.maxPages = n
	}
}

func WithLogger(log logger.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger.OrNop(log).Named("ocr")
	}
}

func NewExtractor(engines EngineFactory, rasterizer Rasterizer, opts ...Option) *Extractor {
	e := &Extractor{
		engines:    engines,
		rasterizer: rasterizer,
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recognize rasterizes data and recognizes every page with an engine scoped
// to this call. The engine and the raster document are released on every
// return path, including cancellation.
func (e *Extractor) Recognize(ctx context.Context, data []byte, onProgress models.ProgressFunc) (result *models.ExtractionResult, err error) {
	if err := models.FromContext(ctx); err != nil {
		return nil, err
	}

	doc, err := e.rasterizer.Open(data)
	if err != nil {
		return nil, models.OcrFailed(err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			e.logger.Warn("failed to close raster document", logger.Error(cerr))
		}
	}()

	total := doc.NumPage()
	if total <= 0 {
		return nil, models.OcrFailed(errors.New("document has no pages to recognize"))
	}
	limit := total
	var warnings []string
	if e.maxPages > 0 && total > e.maxPages {
		limit = e.maxPages
		warnings = append(warnings, fmt.Sprintf("OCR limited to the first %d of %d pages", limit, total))
	}

	engine, err := e.engines.NewEngine(ctx)
	if err != nil {
		if ctxErr := models.FromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, models.OcrFailed(fmt.Errorf("failed to start engine: %w", err))
	}
	defer func() {
		if terr := engine.Terminate(); terr != nil {
			e.logger.Warn("failed to terminate OCR engine", logger.Error(terr))
		}
	}()
	// a panicking engine must not skip the deferred release above
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = models.OcrFailed(fmt.Errorf("engine panic: %v", r))
		}
	}()

	progress := newProgressTracker(onProgress)
	progress.report(0)

	pages := make([]models.PageText, 0, limit)
	for i := 0; i < limit; i++ {
		if err := models.FromContext(ctx); err != nil {
			return nil, err
		}

		img, err := doc.Page(ctx, i)
		if err != nil {
			return nil, e.failure(ctx, fmt.Errorf("page %d: %w", i+1, err))
		}

		page := i
		text, err := engine.Recognize(ctx, img, func(p EngineProgress) {
			if p.Status != StatusRecognizing {
				return
			}
			progress.report((float64(page) + clamp01(p.Progress)) / float64(limit))
		})
		if err != nil {
			return nil, e.failure(ctx, fmt.Errorf("page %d: %w", i+1, err))
		}

		progress.report(float64(i+1) / float64(limit))
		pages = append(pages, models.PageText{PageIndex: i, Text: strings.TrimSpace(text)})

		e.logger.Debug("page recognized",
			logger.Int("page", i+1),
			logger.Int("chars", len(text)),
		)
	}

	result = models.JoinPages(models.StrategyOcr, pages)
	if strings.TrimSpace(result.FullText) == "" {
		return nil, models.OcrFailed(errors.New("engine produced no text"))
	}
	result.Warnings = warnings
	return result, nil
}

func (e *Extractor) failure(ctx context.Context, err error) error {
	if ctxErr := models.FromContext(ctx); ctxErr != nil {
		return ctxErr
	}
	return models.OcrFailed(err)
}

// progressTracker converts a fraction into OcrRecognizing events, emitting
// only on 10% increments and never going backwards.
type progressTracker struct {
	emit models.ProgressFunc
	last int
}

func newProgressTracker(emit models.ProgressFunc) *progressTracker {
	return &progressTracker{emit: emit, last: -1}
}

func (t *progressTracker) report(fraction float64) {
	pct := int(clamp01(fraction)*100 + 1e-9)
	if pct <= t.last {
		return
	}
	if t.last >= 0 && pct < 100 && pct-t.last < progressStep {
		return
	}
	t.last = pct
	t.emit.Emit(models.StageOcrRecognizing, pct, StatusRecognizing)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

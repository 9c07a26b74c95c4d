package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

const defaultWorkers = 4

// Processor extracts the native text layer of a PDF, page by page.
type Processor struct {
	logger  logger.Logger
	workers int
}

func NewProcessor(log logger.Logger, workers int) *Processor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Processor{
		logger:  logger.OrNop(log).Named("pdf"),
		workers: workers,
	}
}

func (p *Processor) Extract(ctx context.Context, data []byte) (result *models.ExtractionResult, err error) {
	if err := models.FromContext(ctx); err != nil {
		return nil, err
	}

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = models.ParseFailed(fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, models.ParseFailed(fmt.Errorf("failed to open pdf: %w", err))
	}

	numPages := pdfReader.NumPage()
	if numPages <= 0 {
		return nil, models.ParseFailed(errors.New("pdf has no pages"))
	}

	pages := make([]models.PageText, numPages)
	var (
		mu       sync.Mutex
		warnings []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := 0; i < numPages; i++ {
		pageIndex := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			text, err := pageText(pdfReader, pageIndex+1)
			if err != nil {
				p.logger.Warn("failed to extract page text",
					logger.Int("page", pageIndex+1),
					logger.Error(err),
				)
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("page %d: %v", pageIndex+1, err))
				mu.Unlock()
			}

			// each goroutine owns its slot, order is preserved by index
			pages[pageIndex] = models.PageText{PageIndex: pageIndex, Text: text}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := models.FromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, models.ParseFailed(err)
	}

	result = models.JoinPages(models.StrategyPdfNative, pages)
	result.Warnings = warnings

	p.logger.Debug("pdf text layer extracted",
		logger.Int("pages", numPages),
		logger.Int("chars", len(result.FullText)),
	)
	return result, nil
}

// pageText joins the text items of one page with single spaces, row by row.
func pageText(r *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic reading page: %v", rec)
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}

	var items []string
	for _, row := range rows {
		for _, word := range row.Content {
			if s := strings.TrimSpace(word.S); s != "" {
				items = append(items, s)
			}
		}
	}
	return strings.Join(items, " "), nil
}

package agent

import (
	"fmt"

	"github.com/feichai0017/document-summarizer/internal/agent/document"
	"github.com/feichai0017/document-summarizer/internal/agent/document/docx"
	"github.com/feichai0017/document-summarizer/internal/agent/document/pdf"
	"github.com/feichai0017/document-summarizer/internal/agent/document/text"
	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

// ProcessorFactory maps each native strategy to its extractor.
type ProcessorFactory struct {
	processors map[models.ExtractionStrategy]document.Extractor
	logger     logger.Logger
}

// NewProcessorFactory registers the native extractors for every detectable format.
func NewProcessorFactory(log logger.Logger, pdfWorkers int) *ProcessorFactory {
	log = logger.OrNop(log)
	f := &ProcessorFactory{
		processors: make(map[models.ExtractionStrategy]document.Extractor),
		logger:     log,
	}
	f.Register(models.StrategyPlainText, text.NewProcessor(log))
	f.Register(models.StrategyWordProcessor, docx.NewProcessor(log))
	f.Register(models.StrategyPdfNative, pdf.NewProcessor(log, pdfWorkers))
	return f
}

// Register installs or replaces the extractor for a strategy.
func (f *ProcessorFactory) Register(strategy models.ExtractionStrategy, extractor document.Extractor) {
	f.processors[strategy] = extractor
}

func (f *ProcessorFactory) GetProcessor(strategy models.ExtractionStrategy) (document.Extractor, error) {
	processor, ok := f.processors[strategy]
	if !ok {
		f.logger.Error("No processor found", logger.String("strategy", string(strategy)))
		return nil, models.UnsupportedFormat(fmt.Sprintf("no extractor for strategy %s", strategy))
	}
	return processor, nil
}

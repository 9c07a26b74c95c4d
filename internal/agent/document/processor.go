package document

import (
	"context"

	"github.com/feichai0017/document-summarizer/internal/models"
)

// Extractor turns the bytes of one document into text. Implementations are
// stateless and safe for concurrent use; failures are *models.PipelineError.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*models.ExtractionResult, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, data []byte) (*models.ExtractionResult, error)

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	return f(ctx, data)
}

// Recognizer is the OCR fallback: it works on the same bytes as the native
// PDF extractor and reports recognition progress.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte, onProgress models.ProgressFunc) (*models.ExtractionResult, error)
}

package text

import (
	"bytes"
	"context"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

var replacementChar = []byte("\uFFFD")

// Processor decodes plain text. It never rejects a file: a leading BOM
// selects UTF-16 or is stripped, and invalid UTF-8 becomes U+FFFD.
type Processor struct {
	logger logger.Logger
}

func NewProcessor(log logger.Logger) *Processor {
	return &Processor{logger: logger.OrNop(log).Named("text")}
}

func (p *Processor) Extract(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	if err := models.FromContext(ctx); err != nil {
		return nil, err
	}

	result := &models.ExtractionResult{
		PageCount: 1,
		Strategy:  models.StrategyPlainText,
	}

	// valid UTF-8 without a BOM is returned untouched
	if utf8.Valid(data) && !hasBOM(data) {
		result.FullText = string(data)
		return result, nil
	}

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		// the decoders substitute instead of failing, keep whatever we can
		p.logger.Warn("text decode reported an error", logger.Error(err))
		out = bytes.ToValidUTF8(data, replacementChar)
	}
	if replaced(data, out) {
		result.Warnings = append(result.Warnings, "invalid UTF-8 sequences were replaced")
	}
	result.FullText = string(out)
	return result, nil
}

func hasBOM(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF
}

// replaced reports whether decoding introduced U+FFFD runes the input did not
// already carry.
func replaced(in, out []byte) bool {
	return bytes.Count(out, replacementChar) > bytes.Count(in, replacementChar)
}

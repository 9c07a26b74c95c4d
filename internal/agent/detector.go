package agent

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/feichai0017/document-summarizer/internal/models"
)

type format struct {
	strategy models.ExtractionStrategy
	mimeType string
}

// formats is the closed set of recognized extensions. Adding a format means
// adding a row here and an extractor in the ProcessorFactory.
var formats = map[string]format{
	".txt":  {models.StrategyPlainText, "text/plain"},
	".docx": {models.StrategyWordProcessor, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".pdf":  {models.StrategyPdfNative, "application/pdf"},
}

// Detect selects the extraction strategy from the declared file name.
func Detect(declaredName string) (models.ExtractionStrategy, error) {
	ext := strings.ToLower(filepath.Ext(declaredName))
	f, ok := formats[ext]
	if !ok {
		return "", models.UnsupportedFormat(declaredName)
	}
	return f.strategy, nil
}

// SupportedExtensions lists the recognized extensions, dot included.
func SupportedExtensions() []string {
	return []string{".txt", ".docx", ".pdf"}
}

// MimeTypeFor returns the canonical content type of a strategy.
func MimeTypeFor(strategy models.ExtractionStrategy) string {
	for _, f := range formats {
		if f.strategy == strategy {
			return f.mimeType
		}
	}
	return "application/octet-stream"
}

// Sniff compares the content of data with what the strategy expects and
// returns warnings for mismatches. It never fails: the declared extension
// stays authoritative.
func Sniff(strategy models.ExtractionStrategy, data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	expected := MimeTypeFor(strategy)
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(expected) {
			return nil
		}
	}
	// short plain text files are often classified as octet-stream
	if strategy == models.StrategyPlainText {
		return nil
	}
	return []string{fmt.Sprintf("content looks like %s, expected %s", detected.String(), expected)}
}

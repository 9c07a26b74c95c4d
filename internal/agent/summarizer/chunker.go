package summarizer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/feichai0017/document-summarizer/internal/models"
)

// Chunker splits text that is too large for one prompt.
type Chunker interface {
	Split(text string) []string
}

// ParagraphChunker packs whole paragraphs into chunks of at most MaxChars
// runes. A paragraph longer than MaxChars is cut on rune boundaries.
type ParagraphChunker struct {
	MaxChars int
}

func (c ParagraphChunker) Split(text string) []string {
	if c.MaxChars <= 0 || utf8.RuneCountInString(text) <= c.MaxChars {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		n := utf8.RuneCountInString(para)
		if n > c.MaxChars {
			flush()
			chunks = append(chunks, cutRunes(para, c.MaxChars)...)
			continue
		}
		sep := 0
		if size > 0 {
			sep = 2
		}
		if size+sep+n > c.MaxChars {
			flush()
			sep = 0
		}
		if sep > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		size += sep + n
	}
	flush()
	return chunks
}

func cutRunes(s string, max int) []string {
	var out []string
	runes := []rune(s)
	for len(runes) > 0 {
		n := max
		if n > len(runes) {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

// ChunkedSummarizer summarizes each chunk in order and concatenates the
// bullet lists. With a single chunk it is a plain pass-through.
type ChunkedSummarizer struct {
	next    Summarizer
	chunker Chunker
}

func NewChunkedSummarizer(next Summarizer, chunker Chunker) *ChunkedSummarizer {
	return &ChunkedSummarizer{next: next, chunker: chunker}
}

func (s *ChunkedSummarizer) Summarize(ctx context.Context, text string) (*models.SummaryResult, error) {
	chunks := s.chunker.Split(text)
	if len(chunks) == 1 {
		return s.next.Summarize(ctx, chunks[0])
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if err := models.FromContext(ctx); err != nil {
			return nil, err
		}
		res, err := s.next.Summarize(ctx, chunk)
		if err != nil {
			return nil, err
		}
		parts = append(parts, strings.TrimRight(res.Bullets, "\n"))
	}
	return &models.SummaryResult{Bullets: strings.Join(parts, "\n")}, nil
}

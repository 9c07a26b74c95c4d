package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

const (
	documentPart       = "word/document.xml"
	paragraphSeparator = "\n\n"

	markupCompatibilityNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

// Processor extracts the raw text body of a .docx container.
type Processor struct {
	logger logger.Logger
}

func NewProcessor(log logger.Logger) *Processor {
	return &Processor{logger: logger.OrNop(log).Named("docx")}
}

func (p *Processor) Extract(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	if err := models.FromContext(ctx); err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, models.ParseFailed(fmt.Errorf("failed to open docx container: %w", err))
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, models.ParseFailed(fmt.Errorf("%s not found in archive", documentPart))
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, models.ParseFailed(fmt.Errorf("failed to open %s: %w", documentPart, err))
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(ctx, rc)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("docx extracted", logger.Int("paragraphs", len(paragraphs)))

	return &models.ExtractionResult{
		FullText:  strings.Join(paragraphs, paragraphSeparator),
		PageCount: 1,
		Strategy:  models.StrategyWordProcessor,
	}, nil
}

// readParagraphs walks the WordprocessingML body and returns the non-empty
// paragraphs in document order. Only w:t runs contribute text, so field
// instructions and deleted text are left out. Of an mc:AlternateContent
// block only the mc:Choice branch is read; mc:Fallback repeats the same text.
func readParagraphs(ctx context.Context, r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		depth      int // open w:p elements
		inText     bool
		tokens     int
		skip       int // open elements inside an mc:Fallback
	)

	flush := func() {
		if text := current.String(); strings.TrimSpace(text) != "" {
			paragraphs = append(paragraphs, text)
		}
		current.Reset()
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.ParseFailed(fmt.Errorf("malformed %s: %w", documentPart, err))
		}

		tokens++
		if tokens%4096 == 0 {
			if err := models.FromContext(ctx); err != nil {
				return nil, err
			}
		}

		if skip > 0 {
			switch tok.(type) {
			case xml.StartElement:
				skip++
			case xml.EndElement:
				skip--
			}
			continue
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if isFallback(t.Name) {
				skip = 1
				continue
			}
			switch t.Name.Local {
			case "p":
				// nested paragraphs (text boxes) end the enclosing one
				if depth > 0 {
					flush()
				}
				depth++
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth > 0 {
					depth--
					flush()
				}
			}
		}
	}

	return paragraphs, nil
}

func isFallback(name xml.Name) bool {
	return name.Local == "Fallback" && (name.Space == markupCompatibilityNS || name.Space == "mc")
}

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-summarizer/internal/agent/document/pdf/pdftest"
	"github.com/feichai0017/document-summarizer/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		want models.ExtractionStrategy
	}{
		{"notes.txt", models.StrategyPlainText},
		{"NOTES.TXT", models.StrategyPlainText},
		{"report.docx", models.StrategyWordProcessor},
		{"scan.Pdf", models.StrategyPdfNative},
		{"archive.tar.pdf", models.StrategyPdfNative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectUnsupported(t *testing.T) {
	for _, name := range []string{"image.xyz", "legacy.doc", "README", "", "pdf"} {
		_, err := Detect(name)
		assert.Equal(t, models.KindUnsupportedFormat, models.KindOf(err), name)
	}
}

func TestDetectNeverChoosesOcr(t *testing.T) {
	for _, ext := range SupportedExtensions() {
		got, err := Detect("file" + ext)
		require.NoError(t, err)
		assert.NotEqual(t, models.StrategyOcr, got)
	}
}

func TestSniff(t *testing.T) {
	assert.Empty(t, Sniff(models.StrategyPdfNative, pdftest.TextPDF("hello")))
	assert.Empty(t, Sniff(models.StrategyPlainText, []byte("just some text")))

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	warnings := Sniff(models.StrategyPdfNative, png)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "image/png")
}

package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-summarizer/internal/models"
)

func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range parts {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Quarterly Report</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Revenue grew </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>twelve percent</w:t></w:r><w:r><w:t>.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Name</w:t><w:tab/><w:t>Value</w:t><w:br/><w:t>next line</w:t></w:r></w:p>
<w:p><w:r><w:instrText>PAGE</w:instrText></w:r><w:r><w:t>Closing remarks</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestExtractParagraphsInOrder(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})

	res, err := NewProcessor(nil).Extract(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t,
		"Quarterly Report\n\nRevenue grew twelve percent.\n\nName\tValue\nnext line\n\nClosing remarks",
		res.FullText)
	assert.Equal(t, models.StrategyWordProcessor, res.Strategy)
	assert.Equal(t, 1, res.PageCount)
}

const textBoxXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
  xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"
  xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape"
  xmlns:v="urn:schemas-microsoft-com:vml">
<w:body>
<w:p><w:r><w:t>Intro</w:t></w:r></w:p>
<w:p><w:r><mc:AlternateContent>
  <mc:Choice Requires="wps"><w:drawing><wps:wsp><wps:txbx><w:txbxContent>
    <w:p><w:r><w:t>Box text</w:t></w:r></w:p>
  </w:txbxContent></wps:txbx></wps:wsp></w:drawing></mc:Choice>
  <mc:Fallback><w:pict><v:shape><v:textbox><w:txbxContent>
    <w:p><w:r><w:t>Box text</w:t></w:r></w:p>
  </w:txbxContent></v:textbox></v:shape></w:pict></mc:Fallback>
</mc:AlternateContent></w:r></w:p>
<w:p><w:r><w:t>Outro</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestExtractTextBoxOnce(t *testing.T) {
	data := buildDocx(t, map[string]string{"word/document.xml": textBoxXML})

	res, err := NewProcessor(nil).Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "Intro\n\nBox text\n\nOutro", res.FullText)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a zip", []byte("plain bytes, not a container")},
		{"missing document part", buildDocx(t, map[string]string{"word/styles.xml": "<w:styles/>"})},
		{"malformed xml", buildDocx(t, map[string]string{"word/document.xml": "<w:document><w:body><w:p>"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProcessor(nil).Extract(context.Background(), tt.data)
			require.Error(t, err)
			assert.Equal(t, models.KindParseFailed, models.KindOf(err))
		})
	}
}

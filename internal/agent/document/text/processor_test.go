package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-summarizer/internal/models"
)

func TestExtractRoundTrip(t *testing.T) {
	inputs := []string{
		"hello world",
		"line one\nline two\r\n\ttabbed",
		"naïve café 日本語 🚀",
		"   ",
		"",
	}
	p := NewProcessor(nil)
	for _, in := range inputs {
		res, err := p.Extract(context.Background(), []byte(in))
		require.NoError(t, err)
		assert.Equal(t, in, res.FullText)
		assert.Equal(t, 1, res.PageCount)
		assert.Equal(t, models.StrategyPlainText, res.Strategy)
		assert.Empty(t, res.Warnings)
	}
}

func TestExtractStripsUTF8BOM(t *testing.T) {
	res, err := NewProcessor(nil).Extract(context.Background(), []byte("\xEF\xBB\xBFhello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", res.FullText)
}

func TestExtractDecodesUTF16WithBOM(t *testing.T) {
	// "hi" in UTF-16LE
	res, err := NewProcessor(nil).Extract(context.Background(), []byte{0xFF, 0xFE, 'h', 0, 'i', 0})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.FullText)
	assert.Empty(t, res.Warnings)
}

func TestExtractKeepsExistingReplacementChar(t *testing.T) {
	res, err := NewProcessor(nil).Extract(context.Background(), []byte("\xEF\xBB\xBFbroken \uFFFD already"))
	require.NoError(t, err)
	assert.Equal(t, "broken \uFFFD already", res.FullText)
	assert.Empty(t, res.Warnings)
}

func TestExtractReplacesInvalidBytes(t *testing.T) {
	res, err := NewProcessor(nil).Extract(context.Background(), []byte("ok\xffok"))
	require.NoError(t, err)
	assert.Equal(t, "ok�ok", res.FullText)
	assert.Len(t, res.Warnings, 1)
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProcessor(nil).Extract(ctx, []byte("x"))
	assert.Equal(t, models.KindCancelled, models.KindOf(err))
}

package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessingPipeline(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				src.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
			} else {
				src.Set(x, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
			}
		}
	}

	cfg := DefaultPreprocessConfig()
	cfg.Threshold = 128
	steps := NewPreprocessors(cfg)
	require.Len(t, steps, 4)

	out, err := applyPreprocessing(src, steps)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), out.Bounds())

	gray, ok := out.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(0), gray.GrayAt(1, 1).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(6, 6).Y)
}

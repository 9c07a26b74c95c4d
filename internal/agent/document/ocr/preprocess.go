package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ImagePreprocessor is one step applied to a page image before recognition.
type ImagePreprocessor interface {
	Process(img image.Image) (image.Image, error)
}

type PreprocessConfig struct {
	Denoise         bool
	DenoiseStrength float64
	Contrast        float64
	Sharpen         bool
	SharpenStrength float64
	// Threshold > 0 binarizes the page after the other steps.
	Threshold uint8
}

func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		Contrast:        20,
		Sharpen:         true,
		SharpenStrength: 0.5,
	}
}

// NewPreprocessors builds the preprocessing pipeline for cfg.
func NewPreprocessors(cfg PreprocessConfig) []ImagePreprocessor {
	steps := []ImagePreprocessor{GrayscaleProcessor{}}
	if cfg.Denoise && cfg.DenoiseStrength > 0 {
		steps = append(steps, DenoiseProcessor{strength: cfg.DenoiseStrength})
	}
	if cfg.Contrast != 0 {
		steps = append(steps, ContrastProcessor{amount: cfg.Contrast})
	}
	if cfg.Sharpen && cfg.SharpenStrength > 0 {
		steps = append(steps, SharpenProcessor{strength: cfg.SharpenStrength})
	}
	if cfg.Threshold > 0 {
		steps = append(steps, BinarizationProcessor{threshold: cfg.Threshold})
	}
	return steps
}

func applyPreprocessing(img image.Image, steps []ImagePreprocessor) (image.Image, error) {
	var err error
	for _, step := range steps {
		if img, err = step.Process(img); err != nil {
			return nil, err
		}
	}
	return img, nil
}

type GrayscaleProcessor struct{}

func (GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

// DenoiseProcessor smooths scan noise with a gaussian blur.
type DenoiseProcessor struct {
	strength float64
}

func (p DenoiseProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Blur(img, p.strength), nil
}

type ContrastProcessor struct {
	amount float64
}

func (p ContrastProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.AdjustContrast(img, p.amount), nil
}

type SharpenProcessor struct {
	strength float64
}

func (p SharpenProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Sharpen(img, p.strength), nil
}

// BinarizationProcessor maps every pixel to black or white.
type BinarizationProcessor struct {
	threshold uint8
}

func (p BinarizationProcessor) Process(img image.Image) (image.Image, error) {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// grayscale output has equal channels
			if gray.NRGBAAt(x, y).R < p.threshold {
				out.SetGray(x, y, color.Gray{Y: 0})
			} else {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out, nil
}

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

type TesseractConfig struct {
	Languages   []string
	PageSegMode gosseract.PageSegMode
}

// TesseractFactory creates one gosseract client per engine instance.
type TesseractFactory struct {
	config TesseractConfig
}

func NewTesseractFactory(cfg TesseractConfig) *TesseractFactory {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	if cfg.PageSegMode == 0 {
		cfg.PageSegMode = gosseract.PSM_AUTO
	}
	return &TesseractFactory{config: cfg}
}

func (f *TesseractFactory) NewEngine(ctx context.Context) (Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(f.config.Languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(f.config.PageSegMode); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return &tesseractEngine{client: client}, nil
}

type tesseractEngine struct {
	client *gosseract.Client
}

// Recognize runs tesseract on a single image. The native call cannot be
// interrupted, so ctx is checked before and after it.
func (e *tesseractEngine) Recognize(ctx context.Context, image []byte, onProgress func(EngineProgress)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	report(onProgress, 0)

	if err := e.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to perform OCR: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	report(onProgress, 1)
	return text, nil
}

func (e *tesseractEngine) Terminate() error {
	return e.client.Close()
}

func report(onProgress func(EngineProgress), p float64) {
	if onProgress != nil {
		onProgress(EngineProgress{Status: StatusRecognizing, Progress: p})
	}
}

// Package ocr recognizes text in documents that have no usable text layer.
// Pages are rasterized, preprocessed and fed to an OCR engine that is
// acquired for a single call and terminated on every exit path.
package ocr

import "context"

// StatusRecognizing is the engine phase that drives progress reporting.
const StatusRecognizing = "recognizing text"

// EngineProgress is the progress signal of an engine, Progress in [0, 1].
type EngineProgress struct {
	Status   string
	Progress float64
}

// Engine recognizes text in one page image at a time. An engine is owned by
// a single Recognize call and must be terminated by it.
type Engine interface {
	Recognize(ctx context.Context, image []byte, onProgress func(EngineProgress)) (string, error)
	Terminate() error
}

// EngineFactory creates engine instances.
type EngineFactory interface {
	NewEngine(ctx context.Context) (Engine, error)
}

// EngineFactoryFunc adapts a function to EngineFactory.
type EngineFactoryFunc func(ctx context.Context) (Engine, error)

func (f EngineFactoryFunc) NewEngine(ctx context.Context) (Engine, error) {
	return f(ctx)
}

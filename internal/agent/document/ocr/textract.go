package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

type TextractConfig struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	MinConfidence float32
}

// TextractAPI is the part of the Textract client the engine uses.
type TextractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// TextractFactory hands out engines backed by one shared AWS client. The
// client holds no per-document state; each engine is still terminated after use.
type TextractFactory struct {
	client        TextractAPI
	minConfidence float32
}

func NewTextractFactory(ctx context.Context, cfg TextractConfig) (*TextractFactory, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	// load aws config
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewTextractFactoryWithClient(client, cfg.MinConfidence), nil
}

func NewTextractFactoryWithClient(client TextractAPI, minConfidence float32) *TextractFactory {
	return &TextractFactory{client: client, minConfidence: minConfidence}
}

func (f *TextractFactory) NewEngine(ctx context.Context) (Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &textractEngine{client: f.client, minConfidence: f.minConfidence}, nil
}

type textractEngine struct {
	client        TextractAPI
	minConfidence float32
	terminated    atomic.Bool
}

func (e *textractEngine) Recognize(ctx context.Context, image []byte, onProgress func(EngineProgress)) (string, error) {
	if e.terminated.Load() {
		return "", fmt.Errorf("textract engine already terminated")
	}
	report(onProgress, 0)

	// call textract api, ctx aborts the request
	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: image},
	})
	if err != nil {
		return "", fmt.Errorf("failed to detect document text: %w", err)
	}

	report(onProgress, 1)
	return strings.Join(e.lines(out.Blocks), "\n"), nil
}

// lines keeps LINE blocks above the confidence threshold, in response order.
func (e *textractEngine) lines(blocks []types.Block) []string {
	var texts []string
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		if block.Confidence != nil && *block.Confidence < e.minConfidence {
			continue
		}
		texts = append(texts, *block.Text)
	}
	return texts
}

func (e *textractEngine) Terminate() error {
	e.terminated.Store(true)
	return nil
}

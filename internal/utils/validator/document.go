// Package validator checks uploaded documents before they enter the pipeline.
package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/feichai0017/document-summarizer/internal/agent"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

const sniffLen = 3072

type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize int64
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Supported bool   `json:"supported"`
	Hash      string `json:"hash"`
}

func NewDocumentValidator(log logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = &ValidatorConfig{MaxFileSize: 50 << 20}
	}
	return &DocumentValidator{
		logger: logger.OrNop(log).Named("validator"),
		config: config,
	}
}

// ValidateFile inspects an uploaded file. Unsupported extensions are not
// rejected here; the pipeline reports them as a failed job.
func (v *DocumentValidator) ValidateFile(header *multipart.FileHeader) (*ValidationResult, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return v.Validate(header.Filename, header.Size, f)
}

// Validate inspects r, which is rewound to the start on return.
func (v *DocumentValidator) Validate(filename string, size int64, r io.ReadSeeker) (*ValidationResult, error) {
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Filename:  filename,
			Size:      size,
			Extension: strings.ToLower(filepath.Ext(filename)),
		},
	}

	if size > v.config.MaxFileSize {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
			Field:   "size",
		})
		return result, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	head = head[:n]
	result.FileInfo.MimeType = mimetype.Detect(head).String()

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file pointer: %w", err)
	}
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}
	result.FileInfo.Hash = hex.EncodeToString(hash.Sum(nil))
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file pointer: %w", err)
	}

	if strategy, err := agent.Detect(filename); err == nil {
		result.FileInfo.Supported = true
		result.Warnings = agent.Sniff(strategy, head)
	}

	if len(result.Warnings) > 0 {
		v.logger.Warn("uploaded file content does not match its extension",
			logger.String("filename", filename),
			logger.String("mime_type", result.FileInfo.MimeType),
		)
	}
	return result, nil
}

package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the taxonomy every pipeline failure is classified into.
type ErrorKind string

const (
	KindUnsupportedFormat          ErrorKind = "unsupported_format"
	KindReadFailed                 ErrorKind = "read_failed"
	KindFetchFailed                ErrorKind = "fetch_failed"
	KindNetworkError               ErrorKind = "network_error"
	KindParseFailed                ErrorKind = "parse_failed"
	KindOcrFailed                  ErrorKind = "ocr_failed"
	KindEmptyExtraction            ErrorKind = "empty_extraction"
	KindSummarizationAPIError      ErrorKind = "summarization_api_error"
	KindSummarizationEmptyResponse ErrorKind = "summarization_empty_response"
	KindCancelled                  ErrorKind = "cancelled"
	KindInternal                   ErrorKind = "internal"
)

var kindMessages = map[ErrorKind]string{
	KindUnsupportedFormat:          "unsupported file format",
	KindReadFailed:                 "read failed",
	KindFetchFailed:                "fetch failed",
	KindNetworkError:               "network error",
	KindParseFailed:                "document could not be parsed",
	KindOcrFailed:                  "text recognition failed",
	KindEmptyExtraction:            "no text could be extracted",
	KindSummarizationAPIError:      "summarization service returned an error",
	KindSummarizationEmptyResponse: "summarization service returned no summary",
	KindCancelled:                  "cancelled",
	KindInternal:                   "internal error",
}

// PipelineError carries the kind of a failure, the stage it happened in and,
// for HTTP failures, the status code.
type PipelineError struct {
	Kind   ErrorKind
	Stage  Stage
	Status int
	Err    error
}

func (e *PipelineError) Error() string {
	msg := kindMessages[e.Kind]
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s with status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Stage != "" {
		msg = string(e.Stage) + ": " + msg
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is matches another *PipelineError by kind, so errors.Is(err, ErrEmptyExtraction) works.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Status == 0 || t.Status == e.Status)
}

// WithStage returns a copy of e tagged with stage unless a stage is already set.
func (e *PipelineError) WithStage(stage Stage) *PipelineError {
	if e.Stage != "" {
		return e
	}
	cp := *e
	cp.Stage = stage
	return &cp
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnsupportedFormat          = &PipelineError{Kind: KindUnsupportedFormat}
	ErrEmptyExtraction            = &PipelineError{Kind: KindEmptyExtraction}
	ErrSummarizationEmptyResponse = &PipelineError{Kind: KindSummarizationEmptyResponse}
	ErrCancelled                  = &PipelineError{Kind: KindCancelled}
)

func NewError(kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Err: err}
}

func UnsupportedFormat(name string) *PipelineError {
	return &PipelineError{Kind: KindUnsupportedFormat, Err: fmt.Errorf("%q", name)}
}

func ReadFailed(err error) *PipelineError {
	return &PipelineError{Kind: KindReadFailed, Err: err}
}

func FetchFailed(status int) *PipelineError {
	return &PipelineError{Kind: KindFetchFailed, Status: status}
}

func NetworkError(err error) *PipelineError {
	return &PipelineError{Kind: KindNetworkError, Err: err}
}

func ParseFailed(err error) *PipelineError {
	return &PipelineError{Kind: KindParseFailed, Err: err}
}

func OcrFailed(cause error) *PipelineError {
	return &PipelineError{Kind: KindOcrFailed, Err: cause}
}

func EmptyExtraction() *PipelineError {
	return &PipelineError{Kind: KindEmptyExtraction}
}

func SummarizationAPIError(status int, body string) *PipelineError {
	e := &PipelineError{Kind: KindSummarizationAPIError, Status: status}
	if body != "" {
		e.Err = errors.New(body)
	}
	return e
}

func SummarizationEmptyResponse(err error) *PipelineError {
	return &PipelineError{Kind: KindSummarizationEmptyResponse, Err: err}
}

func Cancelled(err error) *PipelineError {
	return &PipelineError{Kind: KindCancelled, Err: err}
}

// KindOf classifies any error returned by the pipeline. Bare context
// cancellation maps to KindCancelled; anything unclassified is KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindInternal
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Status
	}
	return 0
}

// FromContext converts a done context into a Cancelled error. Deadline expiry
// is reported as a network error since only remote calls carry deadlines.
func FromContext(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return NetworkError(err)
	default:
		return Cancelled(err)
	}
}

// UserMessage is the human-readable text shown for a failed job.
func UserMessage(err error) string {
	kind := KindOf(err)
	switch kind {
	case "":
		return ""
	case KindUnsupportedFormat:
		return "This file type is not supported. Use a .txt, .docx or .pdf file."
	case KindReadFailed:
		return "The file could not be read."
	case KindFetchFailed:
		if status := StatusOf(err); status != 0 {
			return fmt.Sprintf("The document could not be downloaded (HTTP %d).", status)
		}
		return "The document could not be downloaded."
	case KindNetworkError:
		return "The document could not be reached. Check the URL and that the server allows access."
	case KindParseFailed:
		return "The document appears to be damaged and could not be parsed."
	case KindOcrFailed:
		return "Text recognition failed for this scanned document."
	case KindEmptyExtraction:
		return "No readable text was found in the document."
	case KindSummarizationAPIError:
		return fmt.Sprintf("The summarization service failed (HTTP %d).", StatusOf(err))
	case KindSummarizationEmptyResponse:
		return "The summarization service returned an empty response."
	case KindCancelled:
		return "The request was cancelled."
	default:
		return "Something went wrong while summarizing the document."
	}
}

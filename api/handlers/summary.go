package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/internal/service/pipeline"
	"github.com/feichai0017/document-summarizer/internal/utils/validator"
	"github.com/feichai0017/document-summarizer/pkg/converters"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

// JobService is the part of the pipeline controller the API drives.
type JobService interface {
	Run(ref models.DocumentReference) (models.JobSnapshot, error)
	Get(id string) (models.JobSnapshot, error)
	Cancel(id string) error
	Subscribe(id string, fn pipeline.Listener) (func(), error)
}

type SummaryHandler struct {
	service   JobService
	validator *validator.DocumentValidator
	converter *converters.JSONConverter
	uploadDir string
	logger    logger.Logger
}

type SummaryRequest struct {
	URL  string `json:"url" binding:"required"`
	Name string `json:"name"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var remoteSchemes = map[string]bool{"http": true, "https": true, "s3": true, "minio": true}

func NewSummaryHandler(service JobService, v *validator.DocumentValidator, uploadDir string, log logger.Logger) *SummaryHandler {
	return &SummaryHandler{
		service:   service,
		validator: v,
		converter: converters.NewJSONConverter(),
		uploadDir: uploadDir,
		logger:    logger.OrNop(log).Named("api"),
	}
}

// CreateSummary starts a job from an uploaded file or a JSON {url, name} body.
func (h *SummaryHandler) CreateSummary(c *gin.Context) {
	var (
		ref models.DocumentReference
		err error
	)
	if c.ContentType() == "multipart/form-data" {
		ref, err = h.referenceFromUpload(c)
	} else {
		ref, err = h.referenceFromURL(c)
	}
	if err != nil {
		var ve *validationError
		switch {
		case errors.As(err, &ve):
			h.handleError(c, ve.status, ve.message, err)
		default:
			h.handleError(c, http.StatusBadRequest, "Invalid summary request", err)
		}
		return
	}

	job, err := h.service.Run(ref)
	if err != nil {
		h.handleError(c, http.StatusServiceUnavailable, "Failed to start summary", err)
		return
	}
	c.JSON(http.StatusAccepted, h.converter.Convert(job))
}

func (h *SummaryHandler) referenceFromURL(c *gin.Context) (models.DocumentReference, error) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return models.DocumentReference{}, err
	}
	u, err := url.Parse(req.URL)
	if err != nil || !remoteSchemes[u.Scheme] || u.Host == "" {
		return models.DocumentReference{}, fmt.Errorf("unsupported url %q", req.URL)
	}
	name := req.Name
	if name == "" {
		name = path.Base(u.Path)
	}
	return models.NewRemoteReference(req.URL, name), nil
}

type validationError struct {
	status  int
	message string
	result  *validator.ValidationResult
}

func (e *validationError) Error() string {
	var codes []string
	for _, ve := range e.result.Errors {
		codes = append(codes, ve.Code)
	}
	return strings.Join(codes, ", ")
}

// referenceFromUpload spools the upload into uploadDir under its content
// hash, so uploading the same bytes twice yields the same fingerprint.
func (h *SummaryHandler) referenceFromUpload(c *gin.Context) (models.DocumentReference, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return models.DocumentReference{}, fmt.Errorf("missing file: %w", err)
	}
	file, err := header.Open()
	if err != nil {
		return models.DocumentReference{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	result, err := h.validator.Validate(header.Filename, header.Size, file)
	if err != nil {
		return models.DocumentReference{}, err
	}
	if !result.IsValid {
		return models.DocumentReference{}, &validationError{
			status:  http.StatusRequestEntityTooLarge,
			message: "Uploaded file rejected",
			result:  result,
		}
	}

	dest := filepath.Join(h.uploadDir, result.FileInfo.Hash+result.FileInfo.Extension)
	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		if err := spool(file, h.uploadDir, dest); err != nil {
			return models.DocumentReference{}, err
		}
	} else if err != nil {
		return models.DocumentReference{}, fmt.Errorf("failed to stat upload: %w", err)
	}

	h.logger.Info("upload stored",
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size),
		logger.String("hash", result.FileInfo.Hash),
	)
	return models.NewLocalReference(dest, header.Filename)
}

func spool(src multipart.File, dir, dest string) error {
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store upload: %w", err)
	}
	return nil
}

func (h *SummaryHandler) GetJob(c *gin.Context) {
	job, err := h.service.Get(c.Param("jobId"))
	if err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.converter.Convert(job))
}

// CancelJob cancels a job; cancelling a finished job is accepted and ignored.
func (h *SummaryHandler) CancelJob(c *gin.Context) {
	id := c.Param("jobId")
	if err := h.service.Cancel(id); err != nil {
		h.jobError(c, err)
		return
	}
	job, err := h.service.Get(id)
	if err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.converter.Convert(job))
}

// StreamEvents sends job snapshots as server-sent events until the job ends
// or the client goes away.
func (h *SummaryHandler) StreamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	events := make(chan models.JobSnapshot, 32)

	unsubscribe, err := h.service.Subscribe(c.Param("jobId"), func(s models.JobSnapshot) {
		if !s.State.Terminal() {
			// a slow client loses intermediate progress, never the outcome
			select {
			case events <- s:
			default:
			}
			return
		}
		select {
		case events <- s:
		case <-ctx.Done():
		}
	})
	if err != nil {
		h.jobError(c, err)
		return
	}
	defer unsubscribe()

	c.Stream(func(w io.Writer) bool {
		select {
		case s := <-events:
			if s.State.Terminal() {
				c.SSEvent("done", h.converter.Convert(s))
				return false
			}
			c.SSEvent("progress", h.converter.Convert(s))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (h *SummaryHandler) jobError(c *gin.Context, err error) {
	if errors.Is(err, pipeline.ErrJobNotFound) {
		h.handleError(c, http.StatusNotFound, "Job not found", err)
		return
	}
	h.handleError(c, http.StatusInternalServerError, "Job request failed", err)
}

func (h *SummaryHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}

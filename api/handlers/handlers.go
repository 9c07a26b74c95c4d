package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-summarizer/internal/agent"
	"github.com/feichai0017/document-summarizer/internal/utils/validator"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

type Handlers struct {
	Summary *SummaryHandler
}

func NewHandlers(
	service JobService,
	v *validator.DocumentValidator,
	uploadDir string,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Summary: NewSummaryHandler(service, v, uploadDir, logger),
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"formats": agent.SupportedExtensions(),
	})
}

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-summarizer/api/handlers"
	"github.com/feichai0017/document-summarizer/api/middleware"
)

// SetupRoutes registers the summarization API on r.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, allowedOrigins []string) {
	r.Use(middleware.CORS(allowedOrigins))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handlers.HealthCheck)
	v1.POST("/summaries", h.Summary.CreateSummary)

	jobs := v1.Group("/jobs")
	{
		jobs.GET("/:jobId", h.Summary.GetJob)
		jobs.GET("/:jobId/events", h.Summary.StreamEvents)
		jobs.DELETE("/:jobId", h.Summary.CancelJob)
	}
}

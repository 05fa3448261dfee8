package api

import (
	"github.com/gin-gonic/gin"

	"github.com/gaado/risk-engine/internal/telemetry"
)

// SetupRoutes configures all API routes. tp may be nil, in which case
// the metrics endpoint is omitted.
func SetupRoutes(router *gin.Engine, handler *Handler, tp *telemetry.Provider) {
	// Health and readiness checks
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)
	if tp != nil {
		router.GET("/metrics", gin.WrapH(tp.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		// Classification endpoints
		classify := v1.Group("/classify")
		{
			classify.POST("", handler.Classify)            // POST /api/v1/classify
			classify.POST("/batch", handler.ClassifyBatch) // POST /api/v1/classify/batch
		}

		// Model-backed analysis
		v1.POST("/analyze", handler.Analyze) // POST /api/v1/analyze

		// Comment ingest and review feed
		comments := v1.Group("/comments")
		{
			comments.POST("", handler.CreateComment)            // POST /api/v1/comments
			comments.GET("", handler.ListComments)              // GET /api/v1/comments
			comments.GET("/:id", handler.GetComment)            // GET /api/v1/comments/:id
			comments.POST("/:id/review", handler.ReviewComment) // POST /api/v1/comments/:id/review
		}

		// Taxonomy and statistics
		v1.GET("/taxonomy", handler.GetTaxonomy) // GET /api/v1/taxonomy
		v1.GET("/stats", handler.GetStats)       // GET /api/v1/stats
	}
}

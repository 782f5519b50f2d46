package api

import (
	"github.com/bhagyaj/Markr/internal/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.POST("/import", handler.ImportResults)
	router.GET("/results/:test_id/aggregate", handler.AggregateResults)
	router.GET("/batches/:batch_id", handler.DownloadBatch)
}

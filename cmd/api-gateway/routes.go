package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/curriculum-api/internal/handler"
	"github.com/noah-isme/curriculum-api/pkg/config"
)

type routeHandlers struct {
	curricula *handler.CurriculumHandler
	documents *handler.DocumentHandler
	exports   *handler.ExportHandler
	metrics   *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h routeHandlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	r.GET("/metrics/summary", h.metrics.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	curricula := api.Group("/curricula")
	curricula.POST("/generate", h.curricula.Generate)
	curricula.GET("/templates", h.curricula.Templates)
	curricula.POST("/templates/:id/generate", h.curricula.GenerateFromTemplate)
	curricula.POST("/export", h.exports.Export)
	curricula.POST("/bulk-export", h.exports.BulkExport)
	curricula.GET("/bulk-export/:id", h.exports.BulkExportStatus)
	curricula.POST("", h.curricula.Save)
	curricula.GET("", h.curricula.List)
	curricula.GET("/:id", h.curricula.Get)
	curricula.PATCH("/:id/status", h.curricula.UpdateStatus)
	curricula.POST("/:id/export", h.exports.ExportSaved)
	curricula.DELETE("/:id", h.curricula.Delete)

	api.GET("/exports/:token", h.exports.Download)

	documents := api.Group("/documents")
	documents.POST("", h.documents.Upload)
	documents.GET("", h.documents.List)
	documents.GET("/search", h.documents.Search)
	documents.POST("/analyze", h.documents.Analyze)
	documents.GET("/:id", h.documents.Get)
	documents.DELETE("/:id", h.documents.Delete)
}

package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/docparity/docparity-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName       string
	AllowOrigins      []string
	TracingEnabled    bool
	ExtractionHandler *handlers.ExtractionHandler
	ComparisonHandler *handlers.ComparisonHandler
	LinkHandler       *handlers.LinkHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	if cfg.TracingEnabled {
		name := strings.TrimSpace(cfg.ServiceName)
		if name == "" {
			name = "docparity"
		}
		router.Use(otelgin.Middleware(name))
	}

	router.GET("/healthcheck", handlers.HealthCheck)

	extract := router.Group("/extract")
	{
		extract.POST("/sync", cfg.ExtractionHandler.ExtractSync)
		extract.POST("/async", cfg.ExtractionHandler.ExtractAsync)
		extract.POST("/bulk", cfg.ExtractionHandler.ExtractBulk)
		extract.GET("/jobs/:id", cfg.ExtractionHandler.JobStatus)
		extract.GET("/jobs/:id/result", cfg.ExtractionHandler.JobResult)
		extract.GET("/jobs/:id/result.csv", cfg.ExtractionHandler.JobResultCSV)
		extract.GET("/results/export.csv", cfg.ExtractionHandler.ExportCSV)
	}
	router.POST("/ingest/uri", cfg.ExtractionHandler.IngestURI)
	router.GET("/history", cfg.ExtractionHandler.History)

	compare := router.Group("/compare")
	{
		compare.POST("", cfg.ComparisonHandler.Compare)
		compare.POST("/async", cfg.ComparisonHandler.CompareAsync)
		compare.GET("/jobs/:id", cfg.ComparisonHandler.JobStatus)
		compare.GET("/jobs/:id/report", cfg.ComparisonHandler.JobReport)
		compare.GET("/jobs/:id/report.csv", cfg.ComparisonHandler.JobReportCSV)
		compare.GET("/reports/:id", cfg.ComparisonHandler.GetReport)
	}

	links := router.Group("/links")
	{
		links.POST("", cfg.LinkHandler.CreateLink)
		links.GET("", cfg.LinkHandler.ListLinks)
		links.GET("/:id", cfg.LinkHandler.GetLink)
	}

	return router
}

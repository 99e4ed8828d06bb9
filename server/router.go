package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lanvault/metrics"
	"lanvault/terminal"
)

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(files *Handler, term *terminal.Handler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), metrics.GinMiddleware())
	SetupRoutes(r, files, term)
	return r
}

func SetupRoutes(r *gin.Engine, files *Handler, term *terminal.Handler) {
	api := r.Group("/api")
	{
		api.GET("/files", files.List)
		api.GET("/stat", files.Stat)
		api.GET("/download", files.Download)
		api.GET("/preview", files.Preview)
		api.POST("/upload", files.Upload)
		api.POST("/mkdir", files.CreateDirectory)
		api.POST("/delete", files.Delete)
		api.POST("/rename", files.Rename)
		api.POST("/move", files.Move)

		if term != nil {
			api.GET("/terminal", term.Serve)
		}
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

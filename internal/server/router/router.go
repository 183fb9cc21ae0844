package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-advisor/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.SessionHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/sessions", handler.Create)
	r.GET("/sessions/:id", handler.Get)
	r.PUT("/sessions/:id/parameters", handler.ApplyParameters)
	r.PUT("/sessions/:id/timeframe", handler.SetTimeframe)
	r.POST("/sessions/:id/commands", handler.Command)
	r.GET("/sessions/:id/trend", handler.Trend)
	r.GET("/sessions/:id/suggestions", handler.Suggestions)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

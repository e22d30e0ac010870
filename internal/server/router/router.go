package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inst346/attendance/internal/config"
	"github.com/inst346/attendance/internal/domain/models"
	"github.com/inst346/attendance/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(attendanceHandler *handlers.AttendanceHandler, statsHandler *handlers.StatsHandler, admin config.AdminConfig, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	// The submit endpoint contract returns 405 for non-POST methods.
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
	})

	r.POST("/api/attend", attendanceHandler.Submit)

	// gin.BasicAuth answers missing or bad credentials with 401 and a
	// WWW-Authenticate challenge.
	authorized := r.Group("/api", gin.BasicAuth(gin.Accounts{admin.User: admin.Pass}))
	authorized.GET("/stats", statsHandler.Report)

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

package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"groupcam/internal/core/services"
	"groupcam/internal/infrastructure/events"
	"groupcam/internal/infrastructure/middleware"
	"groupcam/internal/infrastructure/monitoring"
)

// RouterConfig toggles the optional middleware.
type RouterConfig struct {
	RateLimitEnabled  bool
	RequestsPerSecond float64
	Burst             int
	TracingEnabled    bool
	ServiceName       string
}

// NewRouter assembles the management API.
func NewRouter(cfg RouterConfig, cameras *CameraHandler, auth *AuthHandler,
	authService *services.AuthService, hub *events.Hub,
	metrics *monitoring.Collector, logger *zap.Logger) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger, metrics))

	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware(cfg.ServiceName))
	}
	if cfg.RateLimitEnabled {
		router.Use(middleware.RateLimitMiddleware(cfg.RequestsPerSecond, cfg.Burst))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/events", hub.HandleConnection)

	api := router.Group("/api/v1")
	api.POST("/auth/login", auth.Login)

	authorized := api.Group("")
	authorized.Use(middleware.AuthMiddleware(authService, logger))
	{
		authorized.GET("/cameras", cameras.ListCameras)
		authorized.POST("/cameras", cameras.CreateCamera)
		authorized.GET("/cameras/:id/presets", cameras.ListPresets)
		authorized.POST("/cameras/:id/presets", cameras.CreatePreset)
		authorized.PUT("/cameras/:id/presets/:number", cameras.UpdatePreset)
		authorized.DELETE("/cameras/:id/presets/:number", cameras.DeletePreset)
		authorized.POST("/cameras/:id/presets/:number/activate", cameras.ActivatePreset)
		authorized.GET("/users", cameras.ListUsers)
	}

	return router
}

func requestLogger(logger *zap.Logger, metrics *monitoring.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		metrics.HTTPRequest(c.Request.Method, c.FullPath(), strconv.Itoa(status))
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status))
		}
	}
}

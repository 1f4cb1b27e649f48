package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/webrtc-recorder/config"
	"github.com/mossy-p/webrtc-recorder/internal/middleware"
	"github.com/mossy-p/webrtc-recorder/internal/signaling"
)

// ConnectionCounter reports the cluster-wide connection count.
type ConnectionCounter interface {
	Count(ctx context.Context) (int64, error)
}

// RouterDeps are the services the HTTP surface is built from.
type RouterDeps struct {
	Config     *config.Config
	Registry   *signaling.Registry
	Signaling  *SignalingHandler
	Recordings *RecordingsHandler
	// Presence is optional.
	Presence ConnectionCounter
	Logger   *slog.Logger
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	// Global CORS middleware (runs before routing)
	router.Use(OriginFilter(cfg.AllowedOrigins))
	router.Use(RejectStrayUpgrades(cfg.Signaling.Path))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok", "connections": deps.Registry.Len()}
		if deps.Presence != nil {
			if n, err := deps.Presence.Count(c.Request.Context()); err == nil {
				body["clusterConnections"] = n
			} else {
				logger.Warn("presence count failed", "err", err)
			}
		}
		c.JSON(http.StatusOK, body)
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/stream/test", func(c *gin.Context) {
			c.String(http.StatusOK, "Stream controller test")
		})

		apiGroup.POST("/auth/login", Login(cfg.Admin, cfg.JWTSecret))

		// Without an operator account no token can be legitimately issued,
		// so the catalog API is not mounted at all.
		if cfg.Admin.Password != "" && cfg.JWTSecret != "" {
			recordings := apiGroup.Group("/recordings", middleware.JWTAuth(cfg.JWTSecret))
			{
				recordings.GET("", deps.Recordings.ListRecordings)
				recordings.GET("/:callId", deps.Recordings.GetRecording)
				recordings.DELETE("/:callId", deps.Recordings.DeleteRecording)
				recordings.POST("/:callId/finalize", deps.Recordings.FinalizeRecording)
			}
		}
	}

	router.GET(cfg.Signaling.Path, deps.Signaling.HandleSignaling)

	return router
}

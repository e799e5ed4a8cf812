package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/haedwin/entity-receiver-go/internal/api/handlers"
	"github.com/haedwin/entity-receiver-go/internal/api/middleware"
	"github.com/haedwin/entity-receiver-go/internal/config"
	"github.com/haedwin/entity-receiver-go/internal/core/receiver"
	"github.com/haedwin/entity-receiver-go/internal/websocket"
)

// NewRouter creates and configures the main HTTP router
func NewRouter(cfg *config.Config, core *receiver.Service, logger *logrus.Logger, wsHub *websocket.Hub) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware())

	h := handlers.NewHandlers(cfg, core, logger)

	router.GET("/health", h.Health)

	// WebSocket endpoint for live entity/listener events
	router.GET("/ws", websocket.HandleWebSocketGin(wsHub))

	if cfg.Monitoring.Enabled {
		router.GET(cfg.Monitoring.Path, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	{
		entities := api.Group("/entities")
		{
			entities.GET("/", h.GetEntities)
			entities.GET("/:id", h.GetEntity)
		}

		listener := api.Group("/listener")
		{
			listener.GET("/", h.GetListenerStatus)
			listener.POST("/enable", h.EnableListener)
			listener.POST("/disable", h.DisableListener)
		}
	}

	return router
}

package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pair-scheduler/pkg/middleware"
)

// NewRouter wires middleware and routes onto a fresh gin engine
func NewRouter(h *Handlers, bodyLimit int64, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.BodyLimit(bodyLimit))

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/get-developers", h.GetDevelopers)
		api.POST("/send-data", h.SendData)
	}

	return router
}

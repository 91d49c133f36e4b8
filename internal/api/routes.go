package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, log *logrus.Logger) *gin.Engine {
	if log == nil {
		log = logrus.New()
	}

	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(RequestLogger(log))

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze", handler.Analyze)
		v1.POST("/compare", handler.Compare)
		v1.POST("/recommendations", handler.Recommendations)
		v1.GET("/aggregate", handler.Aggregate)
	}

	return router
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/api/handlers"
	"github.com/yourusername/lecture-fetch/api/middleware"
)

// SetupRouter sets up the HTTP router. ready backs GET /ready and may be nil.
// allowedOrigins are the browser origins admitted by the CORS middleware.
func SetupRouter(service handlers.AcquisitionService, ready func() error, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(allowedOrigins))

	healthHandler := handlers.NewHealthHandler(ready)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		acquisitionHandler := handlers.NewAcquisitionHandler(service, logger)

		v1.POST("/classify", acquisitionHandler.Classify)

		acquisitions := v1.Group("/acquisitions")
		{
			acquisitions.POST("", acquisitionHandler.Acquire)
			acquisitions.GET("", acquisitionHandler.ListAcquisitions)
			acquisitions.GET("/stats", acquisitionHandler.GetStats)
			acquisitions.GET("/:id", acquisitionHandler.GetAcquisition)
			acquisitions.DELETE("/:id", acquisitionHandler.DeleteAcquisition)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

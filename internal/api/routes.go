package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/satriahrh/incident-relay/server/internal/metrics"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, handler *ExtractionHandler, m *metrics.Metrics) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ok",
			Service: serviceName,
		})
	})

	e.GET("/metrics", m.Handler())

	e.POST("/"+endpointLocation, handler.ExtractLocation)
	e.POST("/"+endpointAllData, handler.ExtractAllData)
}

package server

import (
	"net/http"

	"github.com/OFFIS-RIT/ned/internal/metrics"
	"github.com/OFFIS-RIT/ned/internal/server/middleware"
	"github.com/OFFIS-RIT/ned/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	apiRoutes.POST("/disambiguate", routes.DisambiguateHandler)
	apiRoutes.POST("/disambiguate/batch", routes.BatchDisambiguateHandler)

	apiRoutes.POST("/documents", routes.CreateDocumentHandler)
	apiRoutes.GET("/documents/:id", routes.GetDocumentHandler)
}

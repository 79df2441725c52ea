package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/store"

	"github.com/labstack/echo/v4"
)

func GetDocumentHandler(c echo.Context) error {
	app, user := appFrom(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	id := c.Param("id")
	rec, err := app.Results.GetDocument(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Document not found"})
	}
	if err != nil {
		logger.Error("[Server] Failed to load document", "document_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, rec)
}

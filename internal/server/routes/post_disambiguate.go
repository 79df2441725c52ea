package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DisambiguateHandler resolves the mentions of one document synchronously.
func DisambiguateHandler(c echo.Context) error {
	type disambiguateBody struct {
		Mentions []string `json:"mentions" validate:"required,min=1,dive,required"`
	}

	type disambiguateResponse struct {
		Message         string                 `json:"message,omitempty"`
		Disambiguations common.Disambiguations `json:"disambiguations,omitempty"`
	}

	app, user := appFrom(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, disambiguateResponse{Message: "Unauthorized"})
	}

	data := new(disambiguateBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, disambiguateResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, disambiguateResponse{Message: "Invalid request body"})
	}

	res, err := app.Graph.Disambiguate(c.Request().Context(), data.Mentions, app.Oracles)
	if err != nil {
		logger.Error("[Server] Disambiguation failed", "user_id", user.UserID, "err", err)
		return c.JSON(disambiguationStatus(err), disambiguateResponse{Message: "Disambiguation failed"})
	}

	return c.JSON(http.StatusOK, disambiguateResponse{Disambiguations: res})
}

// BatchDisambiguateHandler resolves several documents on the engine's
// document pool. A failing document reports its error in its own result.
func BatchDisambiguateHandler(c echo.Context) error {
	type documentBody struct {
		ID       string   `json:"id" validate:"required"`
		Mentions []string `json:"mentions" validate:"required,min=1,dive,required"`
	}

	type batchBody struct {
		Documents []documentBody `json:"documents" validate:"required,min=1,dive"`
	}

	type batchResponse struct {
		Message string                  `json:"message,omitempty"`
		Results []common.DocumentResult `json:"results,omitempty"`
	}

	app, user := appFrom(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, batchResponse{Message: "Unauthorized"})
	}

	data := new(batchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, batchResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, batchResponse{Message: "Invalid request body"})
	}

	docs := make([]common.Document, len(data.Documents))
	for i, d := range data.Documents {
		docs[i] = common.Document{ID: d.ID, Mentions: d.Mentions}
	}

	results, err := app.Graph.ProcessDocuments(c.Request().Context(), docs, app.Oracles)
	if err != nil {
		logger.Error("[Server] Batch disambiguation cancelled", "user_id", user.UserID, "err", err)
		return c.JSON(disambiguationStatus(err), batchResponse{Message: "Disambiguation failed"})
	}

	return c.JSON(http.StatusOK, batchResponse{Results: results})
}

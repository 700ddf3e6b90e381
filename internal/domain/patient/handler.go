// Package patient proxies patient lookups to the EMR so the front end
// never holds EMR credentials.
package patient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Source is the patient search surface of the OpenMRS client.
type Source interface {
	SearchPatientsRaw(ctx context.Context, cardNumber string) (json.RawMessage, error)
}

// LookupRequest is the patient lookup request body.
type LookupRequest struct {
	CardNumber string `json:"cardNumber"`
}

// Handler exposes the patient lookup proxy.
type Handler struct {
	source Source
}

// NewHandler creates a patient handler.
func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

// RegisterRoutes registers patient routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/lookup", h.Lookup)
}

// Lookup handles POST /api/v1/patients/lookup. The upstream response
// body is passed through unmodified.
func (h *Handler) Lookup(c echo.Context) error {
	var req LookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.CardNumber == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "cardNumber is required"})
	}

	body, err := h.source.SearchPatientsRaw(c.Request().Context(), req.CardNumber)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "proxy request failed",
			"details": err.Error(),
		})
	}
	return c.JSONBlob(http.StatusOK, body)
}

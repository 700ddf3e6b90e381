package order

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the order lookup endpoint.
type Handler struct {
	svc *Service
}

// NewHandler creates an order handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers order routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/orders/lookup", h.Lookup)
}

// Lookup handles POST /api/v1/orders/lookup.
func (h *Handler) Lookup(c echo.Context) error {
	var req LookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.CardNumber == "" || req.OrderType == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "cardNumber and orderType are required",
		})
	}

	orders, err := h.svc.Lookup(c.Request().Context(), req.CardNumber, req.OrderType)
	if err != nil {
		switch {
		case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrOrderTypeNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error":   "failed to fetch orders",
				"details": err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]any{"orders": orders})
}

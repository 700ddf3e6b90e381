package concept

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hims/hims/internal/platform/auth"
)

// Handler exposes the sync endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a concept handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers concept routes. requireAuth guards the sync
// trigger and the listing.
func (h *Handler) RegisterRoutes(api *echo.Group, requireAuth echo.MiddlewareFunc) {
	g := api.Group("/concepts", requireAuth)
	g.POST("/sync", h.Sync)
	g.GET("", h.List)
}

// Sync handles POST /api/v1/concepts/sync.
func (h *Handler) Sync(c echo.Context) error {
	ctx := c.Request().Context()

	actor := auth.NameFromContext(ctx)
	if actor == "" {
		actor = auth.UserIDFromContext(ctx)
	}

	summary, err := h.svc.Sync(ctx, actor)
	if err != nil {
		if errors.Is(err, ErrRootSetNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "failed to sync concepts",
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Synced %d concepts (allowed panels + standalone including retired).", summary.Count),
		"count":   summary.Count,
		"panels":  summary.Panels,
		"skipped": summary.Skipped,
	})
}

// List handles GET /api/v1/concepts.
func (h *Handler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	records, total, err := h.svc.ListSynced(c.Request().Context(), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "failed to list concepts",
			"details": err.Error(),
		})
	}
	if records == nil {
		records = []*LocalConceptRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"concepts": records,
		"total":    total,
	})
}

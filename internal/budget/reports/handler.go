package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenlight-hq/greenlight/internal/platform/httpx"
)

// Handler wires HTTP endpoints for report views.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountProjectRoutes registers routes scoped to a project.
func (h *Handler) MountProjectRoutes(r chi.Router) {
	r.Get("/reports/categories", h.handleCategories)
	r.Get("/reports/statuses", h.handleStatuses)
	r.Get("/reports/trend", h.handleTrend)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Categories(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.logger.Error("category rollups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Statuses(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.logger.Error("status rollups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Trend(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.logger.Error("version trend", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

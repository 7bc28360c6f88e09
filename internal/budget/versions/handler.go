package versions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/budget/diff"
	"github.com/greenlight-hq/greenlight/internal/platform/httpx"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// LineModel supplies the current budget arrays for a project on demand.
type LineModel interface {
	Budget(ctx context.Context, projectID string) ([]budget.Category, []budget.Item, error)
}

// Handler wires HTTP endpoints for version snapshots.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	lines     LineModel
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, lines LineModel) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		lines:     lines,
		validator: validator.New(),
	}
}

// MountProjectRoutes registers routes scoped to a project.
func (h *Handler) MountProjectRoutes(r chi.Router) {
	r.Post("/versions", h.handleCapture)
	r.Get("/versions", h.handleList)
}

// MountRoutes registers routes addressing a version directly.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/compare", h.handleCompare)
	r.Get("/{versionID}", h.handleGet)
	r.Delete("/{versionID}", h.handleDelete)
}

type captureRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) handleCapture(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var req captureRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	categories, items, err := h.lines.Budget(r.Context(), projectID)
	if err != nil {
		h.logger.Error("load budget lines", slog.String("project", projectID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	version, err := h.service.Capture(r.Context(), CaptureInput{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Categories:  categories,
		Items:       items,
		Actor:       shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, version)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	list, err := h.service.List(r.Context(), projectID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []BudgetVersion{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "versionID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid version id")
		return
	}
	version, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, version)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "versionID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid version id")
		return
	}
	if err := h.service.Delete(r.Context(), id, shared.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	fromID, err := uuid.Parse(r.URL.Query().Get("a"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "query parameter a must be a version id")
		return
	}
	toID, err := uuid.Parse(r.URL.Query().Get("b"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "query parameter b must be a version id")
		return
	}

	from, err := h.service.Get(r.Context(), fromID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := h.service.Get(r.Context(), toID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, diff.Compare(from, to))
}

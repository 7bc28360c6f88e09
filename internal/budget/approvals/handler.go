package approvals

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/platform/httpx"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// LineModel supplies the current budget arrays for a project on demand.
type LineModel interface {
	Budget(ctx context.Context, projectID string) ([]budget.Category, []budget.Item, error)
}

// Handler wires HTTP endpoints for the approval workflow.
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
	r.Post("/approvals", h.handleSubmit)
	r.Get("/approvals", h.handleList)
}

// MountRoutes registers routes addressing an approval directly.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{approvalID}", h.handleGet)
	r.Delete("/{approvalID}", h.handleDelete)
	r.Post("/{approvalID}/approve", h.handleApprove)
	r.Post("/{approvalID}/reject", h.handleReject)
	r.Post("/{approvalID}/request-revision", h.handleRequestRevision)
	r.Post("/{approvalID}/comments", h.handleAddComment)
}

type submitRequest struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	PreviousTotal *float64 `json:"previousTotal"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var req submitRequest
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

	approval, err := h.service.Submit(r.Context(), SubmitInput{
		ProjectID:     projectID,
		Title:         req.Title,
		Description:   req.Description,
		Categories:    categories,
		Items:         items,
		PreviousTotal: req.PreviousTotal,
		Actor:         shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, approval)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	list, err := h.service.List(r.Context(), projectID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []BudgetApproval{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.approvalID(w, r)
	if !ok {
		return
	}
	approval, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, approval)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.approvalID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, shared.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type decisionRequest struct {
	Comment  string `json:"comment"`
	Reason   string `json:"reason"`
	Feedback string `json:"feedback"`
	Message  string `json:"message"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.approvalID(w, r)
	if !ok {
		return
	}
	req, ok := h.decision(w, r)
	if !ok {
		return
	}
	if err := h.service.Approve(r.Context(), id, req.Comment, shared.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.approvalID(w, r)
	if !ok {
		return
	}
	req, ok := h.decision(w, r)
	if !ok {
		return
	}
	if err := h.service.Reject(r.Context(), id, req.Reason, shared.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRequestRevision(w http.ResponseWriter, r *http.Request) {
	id, ok := h.approvalID(w, r)
	if !ok {
		return
	}
	req, ok := h.decision(w, r)
	if !ok {
		return
	}
	if err := h.service.RequestRevision(r.Context(), id, req.Feedback, shared.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.approvalID(w, r)
	if !ok {
		return
	}
	req, ok := h.decision(w, r)
	if !ok {
		return
	}
	if err := h.service.AddComment(r.Context(), id, req.Message, shared.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) approvalID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "approvalID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid approval id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decision(w http.ResponseWriter, r *http.Request) (decisionRequest, bool) {
	var req decisionRequest
	if r.ContentLength == 0 {
		return req, true
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return req, false
	}
	return req, true
}

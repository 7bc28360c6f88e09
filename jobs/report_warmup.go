package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/greenlight-hq/greenlight/internal/budget/reports"
)

// ReportWarmupHandler rebuilds the cached reports for a project.
type ReportWarmupHandler struct {
	reports *reports.Service
	logger  *slog.Logger
}

// NewReportWarmupHandler constructs the handler.
func NewReportWarmupHandler(service *reports.Service, logger *slog.Logger) *ReportWarmupHandler {
	return &ReportWarmupHandler{reports: service, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *ReportWarmupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.ProjectID == "" {
		return asynq.SkipRetry
	}
	if err := h.reports.Warm(ctx, payload.ProjectID); err != nil {
		h.logger.Error("report warmup", slog.String("project", payload.ProjectID), slog.Any("error", err))
		return err
	}
	h.logger.Info("report cache warmed", slog.String("project", payload.ProjectID))
	return nil
}

package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApprovalRemindHandler logs pending approvals that have waited longer than
// the configured age, so a reviewer can be chased before the shoot budget
// drifts further.
type ApprovalRemindHandler struct {
	pool   *pgxpool.Pool
	maxAge time.Duration
	logger *slog.Logger
}

// NewApprovalRemindHandler constructs the handler.
func NewApprovalRemindHandler(pool *pgxpool.Pool, maxAge time.Duration, logger *slog.Logger) *ApprovalRemindHandler {
	if maxAge <= 0 {
		maxAge = 72 * time.Hour
	}
	return &ApprovalRemindHandler{pool: pool, maxAge: maxAge, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *ApprovalRemindHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	cutoff := time.Now().UTC().Add(-h.maxAge)
	rows, err := h.pool.Query(ctx, `SELECT id, project_id, title, submitted_by_name, submitted_at
FROM budget_approvals WHERE status = 'pending' AND submitted_at < $1 ORDER BY submitted_at ASC`, cutoff)
	if err != nil {
		return err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id, projectID, title, submitter string
		var submittedAt time.Time
		if err := rows.Scan(&id, &projectID, &title, &submitter, &submittedAt); err != nil {
			return err
		}
		count++
		h.logger.Warn("approval pending too long",
			slog.String("approval", id),
			slog.String("project", projectID),
			slog.String("title", title),
			slog.String("submitted_by", submitter),
			slog.Duration("age", time.Since(submittedAt)),
		)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	h.logger.Info("approval reminder sweep complete", slog.Int("stale", count))
	return nil
}

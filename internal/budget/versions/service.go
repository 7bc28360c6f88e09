package versions

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// Auditor records audit trail entries for mutating operations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// WarmupEnqueuer schedules a report cache rebuild after the version list of
// a project changes.
type WarmupEnqueuer interface {
	EnqueueReportWarmup(ctx context.Context, projectID string) error
}

// Service implements the snapshot store operations.
type Service struct {
	repo     Repository
	audit    Auditor
	enqueuer WarmupEnqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service. audit and enqueuer may be nil.
func NewService(repo Repository, audit Auditor, enqueuer WarmupEnqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		audit:    audit,
		enqueuer: enqueuer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Capture snapshots the supplied budget into a new immutable version.
// Totals are computed once here; the stored arrays are detached copies, so
// later edits to the live budget cannot reach them.
func (s *Service) Capture(ctx context.Context, in CaptureInput) (BudgetVersion, error) {
	if err := in.Validate(); err != nil {
		return BudgetVersion{}, err
	}

	estimated, actual := budget.Totals(in.Items)
	version := BudgetVersion{
		ID:             uuid.New(),
		ProjectID:      in.ProjectID,
		Name:           in.Name,
		Description:    in.Description,
		CreatedAt:      s.now(),
		CreatedBy:      in.Actor.ID,
		CreatedByName:  in.Actor.Name,
		TotalEstimated: estimated,
		TotalActual:    actual,
		CategoryCount:  len(in.Categories),
		ItemCount:      len(in.Items),
		Categories:     budget.CloneCategories(in.Categories),
		Items:          budget.CloneItems(in.Items),
	}

	if err := s.repo.Insert(ctx, version); err != nil {
		return BudgetVersion{}, err
	}

	s.recordAudit(ctx, in.Actor, "version.capture", version.ID.String(), version.ProjectID, map[string]any{
		"name":            version.Name,
		"total_estimated": version.TotalEstimated,
		"item_count":      version.ItemCount,
	})
	s.enqueueWarmup(ctx, version.ProjectID)

	return version, nil
}

// Get loads a single version.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (BudgetVersion, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a project's versions, newest first, bounded to the most
// recent KeepLatest.
func (s *Service) List(ctx context.Context, projectID string) ([]BudgetVersion, error) {
	return s.repo.ListByProject(ctx, projectID, KeepLatest)
}

// Delete hard-deletes a version. Deleting an already absent id succeeds;
// versions are not referenced by other entities, so there is no cascade.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor shared.Actor) error {
	if !actor.Authenticated() {
		return shared.ErrUnauthenticated
	}
	version, err := s.repo.GetByID(ctx, id)
	projectID := ""
	if err == nil {
		projectID = version.ProjectID
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "version.delete", id.String(), projectID, nil)
	if projectID != "" {
		s.enqueueWarmup(ctx, projectID)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action, entityID, projectID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    action,
		Entity:    "budget_version",
		EntityID:  entityID,
		ProjectID: projectID,
		Meta:      meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record audit", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) enqueueWarmup(ctx context.Context, projectID string) {
	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.EnqueueReportWarmup(ctx, projectID); err != nil && s.logger != nil {
		s.logger.Warn("enqueue report warmup", slog.String("project", projectID), slog.Any("error", err))
	}
}

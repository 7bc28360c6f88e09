package approvals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// ReviewerGate answers whether an actor may decide approvals. The check
// lives inside the workflow component so the invariant holds regardless of
// which caller drives a transition.
type ReviewerGate func(actor shared.Actor) bool

// DefaultReviewerGate admits producers and supervisors.
func DefaultReviewerGate(actor shared.Actor) bool {
	return actor.Role == shared.RoleProducer || actor.Role == shared.RoleSupervisor
}

// Auditor records audit trail entries for mutating operations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// TransitionObserver counts workflow transitions for metrics.
type TransitionObserver interface {
	ApprovalTransition(to string)
}

// Service implements the approval workflow state machine.
type Service struct {
	repo     Repository
	gate     ReviewerGate
	audit    Auditor
	observer TransitionObserver
	logger   *slog.Logger
	printer  *message.Printer
	now      func() time.Time
}

// NewService constructs a Service. audit and observer may be nil; a nil gate
// falls back to DefaultReviewerGate.
func NewService(repo Repository, gate ReviewerGate, audit Auditor, observer TransitionObserver, logger *slog.Logger) *Service {
	if gate == nil {
		gate = DefaultReviewerGate
	}
	return &Service{
		repo:     repo,
		gate:     gate,
		audit:    audit,
		observer: observer,
		logger:   logger,
		printer:  message.NewPrinter(language.English),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit creates a new approval in pending state from the supplied budget.
// Totals are computed the same way the snapshot store computes them.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (BudgetApproval, error) {
	if err := in.Validate(); err != nil {
		return BudgetApproval{}, err
	}

	estimated, actual := budget.Totals(in.Items)
	affected := make([]string, 0, len(in.Categories))
	for _, c := range in.Categories {
		affected = append(affected, c.Name)
	}

	approval := BudgetApproval{
		ID:                 uuid.New(),
		ProjectID:          in.ProjectID,
		Title:              in.Title,
		Description:        in.Description,
		Status:             StatusPending,
		SubmittedBy:        in.Actor.ID,
		SubmittedByName:    in.Actor.Name,
		SubmittedAt:        s.now(),
		TotalEstimated:     estimated,
		TotalActual:        actual,
		CategoryCount:      len(in.Categories),
		ItemCount:          len(in.Items),
		PreviousTotal:      in.PreviousTotal,
		Comments:           []Comment{},
		AffectedCategories: affected,
		ChangesSummary:     s.printer.Sprintf("%d categories, %d line items totaling %.0f", len(in.Categories), len(in.Items), estimated),
	}

	if err := s.repo.Insert(ctx, approval); err != nil {
		return BudgetApproval{}, err
	}

	s.recordAudit(ctx, in.Actor, "approval.submit", approval.ID.String(), approval.ProjectID, map[string]any{
		"title":           approval.Title,
		"total_estimated": approval.TotalEstimated,
	})
	return approval, nil
}

// Approve transitions a pending approval to approved, recording the
// reviewer. An optional comment is appended atomically with the status
// change.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, comment string, actor shared.Actor) error {
	return s.transition(ctx, id, StatusApproved, strings.TrimSpace(comment), actor)
}

// Reject transitions a pending approval to rejected. The reason is required
// and becomes a "Rejected: ..." comment.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string, actor shared.Actor) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: rejection reason required", shared.ErrValidation)
	}
	return s.transition(ctx, id, StatusRejected, "Rejected: "+reason, actor)
}

// RequestRevision moves a pending approval to revision_requested. The
// record stays there until the submitter resubmits as a new approval.
func (s *Service) RequestRevision(ctx context.Context, id uuid.UUID, feedback string, actor shared.Actor) error {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return fmt.Errorf("%w: revision feedback required", shared.ErrValidation)
	}
	return s.transition(ctx, id, StatusRevisionRequested, "Revision requested: "+feedback, actor)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, comment string, actor shared.Actor) error {
	if !actor.Authenticated() {
		return shared.ErrUnauthenticated
	}
	if !s.gate(actor) {
		return fmt.Errorf("%w: %s may not review approvals", shared.ErrForbidden, actor.Role)
	}

	now := s.now()
	rec := TransitionRecord{
		ApprovalID:     id,
		To:             to,
		ReviewedBy:     actor.ID,
		ReviewedByName: actor.Name,
		ReviewedAt:     now,
	}
	if comment != "" {
		rec.Comment = &Comment{
			ID:        uuid.New(),
			UserID:    actor.ID,
			UserName:  actor.Name,
			Message:   comment,
			CreatedAt: now,
		}
	}

	if err := s.repo.Transition(ctx, rec); err != nil {
		return err
	}

	if s.observer != nil {
		s.observer.ApprovalTransition(string(to))
	}
	s.recordAudit(ctx, actor, "approval."+string(to), id.String(), "", nil)
	return nil
}

// AddComment appends to the discussion thread. Comments are legal in every
// status, including terminal ones; the thread is independent of workflow
// state and neither status nor reviewer fields are touched.
func (s *Service) AddComment(ctx context.Context, id uuid.UUID, messageText string, actor shared.Actor) error {
	if !actor.Authenticated() {
		return shared.ErrUnauthenticated
	}
	messageText = strings.TrimSpace(messageText)
	if messageText == "" {
		return fmt.Errorf("%w: comment message required", shared.ErrValidation)
	}
	return s.repo.AppendComment(ctx, id, Comment{
		ID:        uuid.New(),
		UserID:    actor.ID,
		UserName:  actor.Name,
		Message:   messageText,
		CreatedAt: s.now(),
	})
}

// Get loads a single approval with its comment thread.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (BudgetApproval, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a project's approvals, newest first.
func (s *Service) List(ctx context.Context, projectID string) ([]BudgetApproval, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// Delete removes an approval and its thread. Approved decisions are a
// durable record and refuse deletion; a missing id succeeds.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor shared.Actor) error {
	if !actor.Authenticated() {
		return shared.ErrUnauthenticated
	}
	approval, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if approval.Status == StatusApproved {
		return fmt.Errorf("%w: approved records cannot be deleted", shared.ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "approval.delete", id.String(), approval.ProjectID, nil)
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
		Entity:    "budget_approval",
		EntityID:  entityID,
		ProjectID: projectID,
		Meta:      meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record audit", slog.String("action", action), slog.Any("error", err))
	}
}

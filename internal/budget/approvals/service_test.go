package approvals

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// memoryRepo mirrors the storage contract: the status swap only lands when
// the row is still pending, and comments accumulate as individual rows.
type memoryRepo struct {
	mu        sync.Mutex
	approvals map[uuid.UUID]BudgetApproval
	comments  map[uuid.UUID][]Comment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		approvals: make(map[uuid.UUID]BudgetApproval),
		comments:  make(map[uuid.UUID][]Comment),
	}
}

func (r *memoryRepo) Insert(ctx context.Context, a BudgetApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approvals[a.ID] = a
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (BudgetApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.approvals[id]
	if !ok {
		return BudgetApproval{}, shared.ErrNotFound
	}
	a.Comments = append([]Comment{}, r.comments[id]...)
	return a, nil
}

func (r *memoryRepo) ListByProject(ctx context.Context, projectID string) ([]BudgetApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []BudgetApproval{}
	for id, a := range r.approvals {
		if a.ProjectID == projectID {
			a.Comments = append([]Comment{}, r.comments[id]...)
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepo) Transition(ctx context.Context, rec TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.approvals[rec.ApprovalID]
	if !ok {
		return shared.ErrNotFound
	}
	if a.Status != StatusPending {
		return fmt.Errorf("%w: approval is %s, expected %s", shared.ErrConflict, a.Status, StatusPending)
	}
	a.Status = rec.To
	a.ReviewedBy = &rec.ReviewedBy
	a.ReviewedByName = &rec.ReviewedByName
	reviewedAt := rec.ReviewedAt
	a.ReviewedAt = &reviewedAt
	r.approvals[rec.ApprovalID] = a
	if rec.Comment != nil {
		r.comments[rec.ApprovalID] = append(r.comments[rec.ApprovalID], *rec.Comment)
	}
	return nil
}

func (r *memoryRepo) AppendComment(ctx context.Context, approvalID uuid.UUID, comment Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.approvals[approvalID]; !ok {
		return shared.ErrNotFound
	}
	r.comments[approvalID] = append(r.comments[approvalID], comment)
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.approvals, id)
	delete(r.comments, id)
	return nil
}

var (
	producer    = shared.Actor{ID: "u-prod", Name: "Paula Producer", Role: shared.RoleProducer}
	supervisor  = shared.Actor{ID: "u-sup", Name: "Sam Supervisor", Role: shared.RoleSupervisor}
	coordinator = shared.Actor{ID: "u-coord", Name: "Casey Coordinator", Role: shared.RoleCoordinator}
)

func submit(t *testing.T, svc *Service) BudgetApproval {
	t.Helper()
	a, err := svc.Submit(context.Background(), SubmitInput{
		ProjectID: "p-1",
		Title:     "Shoot budget v2",
		Categories: []budget.Category{
			{ID: "c-1", Name: "Camera"},
			{ID: "c-2", Name: "Post Production"},
		},
		Items: []budget.Item{
			{ID: "i-1", Description: "Camera package", EstimatedAmount: budget.Amount(32000), ActualAmount: budget.Amount(29500)},
			{ID: "i-2", Description: "Editorial", EstimatedAmount: budget.Amount(45000)},
		},
		Actor: coordinator,
	})
	require.NoError(t, err)
	return a
}

func TestSubmitStartsPending(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)

	a := submit(t, svc)
	require.Equal(t, StatusPending, a.Status)
	require.InDelta(t, 77000, a.TotalEstimated, 0.0001)
	require.InDelta(t, 29500, a.TotalActual, 0.0001)
	require.Equal(t, []string{"Camera", "Post Production"}, a.AffectedCategories)
	require.Equal(t, "2 categories, 2 line items totaling 77,000", a.ChangesSummary)
	require.Nil(t, a.ReviewedBy)
	require.Empty(t, a.Comments)
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitInput{ProjectID: "p-1", Title: "x"})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)

	_, err = svc.Submit(ctx, SubmitInput{Title: "x", Actor: coordinator})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Submit(ctx, SubmitInput{ProjectID: "p-1", Title: "  ", Actor: coordinator})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestApproveRecordsReviewer(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	a := submit(t, svc)

	require.NoError(t, svc.Approve(context.Background(), a.ID, "Looks good", supervisor))

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got.Status)
	require.Equal(t, "u-sup", *got.ReviewedBy)
	require.Equal(t, "Sam Supervisor", *got.ReviewedByName)
	require.NotNil(t, got.ReviewedAt)
	require.Len(t, got.Comments, 1)
	require.Equal(t, "Looks good", got.Comments[0].Message)
}

func TestApproveWithoutComment(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	a := submit(t, svc)

	require.NoError(t, svc.Approve(context.Background(), a.ID, "   ", supervisor))

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got.Status)
	require.Empty(t, got.Comments)
}

func TestRejectRequiresReason(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	a := submit(t, svc)

	err := svc.Reject(context.Background(), a.ID, "  ", supervisor)
	require.ErrorIs(t, err, shared.ErrValidation)

	// The failed call must leave the workflow where it was.
	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)

	require.NoError(t, svc.Reject(context.Background(), a.ID, "over budget", supervisor))
	got, err = svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, got.Status)
	require.Len(t, got.Comments, 1)
	require.Equal(t, "Rejected: over budget", got.Comments[0].Message)
}

func TestRequestRevisionHolds(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	a := submit(t, svc)

	require.NoError(t, svc.RequestRevision(context.Background(), a.ID, "trim post", supervisor))

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRevisionRequested, got.Status)
	require.Equal(t, "Revision requested: trim post", got.Comments[0].Message)

	// No path out of revision_requested; resubmission is a new approval.
	require.ErrorIs(t, svc.Approve(context.Background(), a.ID, "", supervisor), shared.ErrConflict)
}

func TestTransitionConflicts(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	a := submit(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, a.ID, "", supervisor))

	require.ErrorIs(t, svc.Approve(ctx, a.ID, "", producer), shared.ErrConflict)
	require.ErrorIs(t, svc.Reject(ctx, a.ID, "late", producer), shared.ErrConflict)

	require.ErrorIs(t, svc.Approve(ctx, uuid.New(), "", supervisor), shared.ErrNotFound)
}

func TestReviewerGate(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	a := submit(t, svc)
	ctx := context.Background()

	err := svc.Approve(ctx, a.ID, "", coordinator)
	require.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.Approve(ctx, a.ID, "", shared.Actor{})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
}

func TestCustomReviewerGate(t *testing.T) {
	onlySupervisors := func(actor shared.Actor) bool { return actor.Role == shared.RoleSupervisor }
	svc := NewService(newMemoryRepo(), onlySupervisors, nil, nil, nil)
	a := submit(t, svc)

	require.ErrorIs(t, svc.Approve(context.Background(), a.ID, "", producer), shared.ErrForbidden)
	require.NoError(t, svc.Approve(context.Background(), a.ID, "", supervisor))
}

func TestCommentsLegalInTerminalStates(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	a := submit(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.AddComment(ctx, a.ID, "submitting for review", coordinator))
	require.NoError(t, svc.Approve(ctx, a.ID, "", supervisor))
	require.NoError(t, svc.AddComment(ctx, a.ID, "thanks!", coordinator))

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got.Status)
	require.Len(t, got.Comments, 2)
	// Status and reviewer metadata stay untouched by comments.
	require.Equal(t, "u-sup", *got.ReviewedBy)

	require.ErrorIs(t, svc.AddComment(ctx, a.ID, "   ", coordinator), shared.ErrValidation)
	require.ErrorIs(t, svc.AddComment(ctx, uuid.New(), "hello", coordinator), shared.ErrNotFound)
}

func TestConcurrentCommentsBothSurvive(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	a := submit(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = svc.AddComment(context.Background(), a.ID, fmt.Sprintf("note %d", n), coordinator)
		}(i)
	}
	wg.Wait()

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
}

func TestDeletePolicies(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	ctx := context.Background()

	pending := submit(t, svc)
	require.NoError(t, svc.Delete(ctx, pending.ID, coordinator))
	_, err := svc.Get(ctx, pending.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	// Missing ids succeed.
	require.NoError(t, svc.Delete(ctx, uuid.New(), coordinator))

	approved := submit(t, svc)
	require.NoError(t, svc.Approve(ctx, approved.ID, "", supervisor))
	require.ErrorIs(t, svc.Delete(ctx, approved.ID, coordinator), shared.ErrConflict)

	rejected := submit(t, svc)
	require.NoError(t, svc.Reject(ctx, rejected.ID, "no", supervisor))
	require.NoError(t, svc.Delete(ctx, rejected.ID, coordinator))
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ApprovalTransition(to string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[to]++
}

func TestTransitionObserver(t *testing.T) {
	obs := &countingObserver{}
	svc := NewService(newMemoryRepo(), nil, nil, obs, nil)
	ctx := context.Background()

	a := submit(t, svc)
	require.NoError(t, svc.Approve(ctx, a.ID, "", supervisor))
	// A lost race must not count as a transition.
	require.Error(t, svc.Approve(ctx, a.ID, "", supervisor))

	require.Equal(t, map[string]int{"approved": 1}, obs.counts)
}

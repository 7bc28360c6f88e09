package versions

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

type memoryRepo struct {
	versions map[uuid.UUID]BudgetVersion
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{versions: make(map[uuid.UUID]BudgetVersion)}
}

func (r *memoryRepo) Insert(ctx context.Context, v BudgetVersion) error {
	r.versions[v.ID] = v
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (BudgetVersion, error) {
	v, ok := r.versions[id]
	if !ok {
		return BudgetVersion{}, shared.ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) ListByProject(ctx context.Context, projectID string, limit int) ([]BudgetVersion, error) {
	out := []BudgetVersion{}
	for _, v := range r.versions {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.versions, id)
	return nil
}

type captureEnqueuer struct {
	projects []string
}

func (e *captureEnqueuer) EnqueueReportWarmup(ctx context.Context, projectID string) error {
	e.projects = append(e.projects, projectID)
	return nil
}

var producer = shared.Actor{ID: "u-1", Name: "Paula Producer", Role: shared.RoleProducer}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, nil, nil)
}

func TestCaptureComputesTotals(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	items := []budget.Item{
		{ID: "i-1", CategoryID: "c-1", Description: "Camera package", EstimatedAmount: budget.Amount(32000), ActualAmount: budget.Amount(29500)},
		{ID: "i-2", CategoryID: "c-1", Description: "Lenses", EstimatedAmount: budget.Amount(14000)},
		{ID: "i-3", CategoryID: "c-2", Description: "Editorial"},
	}

	v, err := svc.Capture(context.Background(), CaptureInput{
		ProjectID:  "p-1",
		Name:       "Shoot lock",
		Categories: []budget.Category{{ID: "c-1"}, {ID: "c-2"}},
		Items:      items,
		Actor:      producer,
	})
	require.NoError(t, err)
	require.InDelta(t, 46000, v.TotalEstimated, 0.0001)
	require.InDelta(t, 29500, v.TotalActual, 0.0001)
	require.Equal(t, 2, v.CategoryCount)
	require.Equal(t, 3, v.ItemCount)
	require.Equal(t, "u-1", v.CreatedBy)
	require.Equal(t, "Paula Producer", v.CreatedByName)
}

func TestCaptureDetachesSnapshot(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	amount := budget.Amount(1000)
	items := []budget.Item{{ID: "i-1", Description: "Director fee", EstimatedAmount: amount}}

	v, err := svc.Capture(context.Background(), CaptureInput{
		ProjectID: "p-1",
		Name:      "Baseline",
		Items:     items,
		Actor:     producer,
	})
	require.NoError(t, err)

	// Mutate the live budget after capture.
	*amount = 99999
	items[0].Description = "renamed"

	stored, err := repo.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.InDelta(t, 1000, stored.Items[0].Estimated(), 0.0001)
	require.Equal(t, "Director fee", stored.Items[0].Description)
	require.InDelta(t, 1000, stored.TotalEstimated, 0.0001)
}

func TestCaptureValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Capture(ctx, CaptureInput{ProjectID: "p-1", Name: "v1"})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)

	_, err = svc.Capture(ctx, CaptureInput{Name: "v1", Actor: producer})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Capture(ctx, CaptureInput{ProjectID: "p-1", Name: "   ", Actor: producer})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCaptureEmptyBudget(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	v, err := svc.Capture(context.Background(), CaptureInput{
		ProjectID: "p-1",
		Name:      "Empty",
		Actor:     producer,
	})
	require.NoError(t, err)
	require.Zero(t, v.TotalEstimated)
	require.Zero(t, v.TotalActual)
	require.Zero(t, v.ItemCount)
	require.NotNil(t, v.Categories)
	require.NotNil(t, v.Items)
}

func TestListNewestFirstBounded(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < KeepLatest+5; i++ {
		created := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return created }
		_, err := svc.Capture(context.Background(), CaptureInput{
			ProjectID: "p-1",
			Name:      "v",
			Actor:     producer,
		})
		require.NoError(t, err)
	}

	listed, err := svc.List(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, listed, KeepLatest)
	for i := 1; i < len(listed); i++ {
		require.False(t, listed[i].CreatedAt.After(listed[i-1].CreatedAt))
	}
}

func TestDeleteIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	v, err := svc.Capture(context.Background(), CaptureInput{
		ProjectID: "p-1",
		Name:      "v1",
		Actor:     producer,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), v.ID, producer))
	require.NoError(t, svc.Delete(context.Background(), v.ID, producer))
	require.NoError(t, svc.Delete(context.Background(), uuid.New(), producer))

	require.ErrorIs(t, svc.Delete(context.Background(), v.ID, shared.Actor{}), shared.ErrUnauthenticated)
}

func TestCaptureEnqueuesWarmup(t *testing.T) {
	enq := &captureEnqueuer{}
	svc := NewService(newMemoryRepo(), nil, enq, nil)

	v, err := svc.Capture(context.Background(), CaptureInput{
		ProjectID: "p-7",
		Name:      "v1",
		Actor:     producer,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"p-7"}, enq.projects)

	require.NoError(t, svc.Delete(context.Background(), v.ID, producer))
	require.Equal(t, []string{"p-7", "p-7"}, enq.projects)
}

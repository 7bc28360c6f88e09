package versions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/budget/diff"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

type staticLines struct {
	categories []budget.Category
	items      []budget.Item
}

func (s *staticLines) Budget(ctx context.Context, projectID string) ([]budget.Category, []budget.Item, error) {
	return s.categories, s.items, nil
}

func newTestRouter(h *Handler, actor shared.Actor) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithActor(req.Context(), actor)))
		})
	})
	r.Route("/projects/{projectID}/budget", h.MountProjectRoutes)
	r.Route("/budget/versions", h.MountRoutes)
	return r
}

func TestCaptureEndpoint(t *testing.T) {
	lines := &staticLines{
		categories: []budget.Category{{ID: "c-1", Name: "Camera"}},
		items:      []budget.Item{{ID: "i-1", CategoryID: "c-1", EstimatedAmount: budget.Amount(32000)}},
	}
	svc := newTestService(newMemoryRepo())
	router := newTestRouter(NewHandler(slog.Default(), svc, lines), producer)

	req := httptest.NewRequest(http.MethodPost, "/projects/p-1/budget/versions", strings.NewReader(`{"name":"Shoot lock"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	var v BudgetVersion
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &v))
	require.Equal(t, "p-1", v.ProjectID)
	require.InDelta(t, 32000, v.TotalEstimated, 0.0001)
	require.Equal(t, 1, v.ItemCount)
}

func TestCaptureEndpointRequiresName(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	router := newTestRouter(NewHandler(slog.Default(), svc, &staticLines{}), producer)

	req := httptest.NewRequest(http.MethodPost, "/projects/p-1/budget/versions", strings.NewReader(`{}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCompareEndpoint(t *testing.T) {
	lines := &staticLines{
		items: []budget.Item{{ID: "i-1", Description: "Camera", EstimatedAmount: budget.Amount(1000)}},
	}
	svc := newTestService(newMemoryRepo())
	router := newTestRouter(NewHandler(slog.Default(), svc, lines), producer)

	a, err := svc.Capture(context.Background(), CaptureInput{
		ProjectID: "p-1", Name: "v1", Items: lines.items, Actor: producer,
	})
	require.NoError(t, err)

	lines.items = []budget.Item{{ID: "i-1", Description: "Camera", EstimatedAmount: budget.Amount(1500)}}
	b, err := svc.Capture(context.Background(), CaptureInput{
		ProjectID: "p-1", Name: "v2", Items: lines.items, Actor: producer,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/budget/versions/compare?a="+a.ID.String()+"&b="+b.ID.String(), nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var d diff.VersionDiff
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &d))
	require.InDelta(t, 500, d.EstimatedDiff, 0.0001)
	require.InDelta(t, 50, d.PercentChange, 0.0001)
	require.Len(t, d.ChangedItems, 1)
}

func TestCompareEndpointMissingVersion(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	router := newTestRouter(NewHandler(slog.Default(), svc, &staticLines{}), producer)

	v, err := svc.Capture(context.Background(), CaptureInput{ProjectID: "p-1", Name: "v1", Actor: producer})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/budget/versions/compare?a="+v.ID.String()+"&b=00000000-0000-0000-0000-000000000001", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestDeleteEndpointIdempotent(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	router := newTestRouter(NewHandler(slog.Default(), svc, &staticLines{}), producer)

	v, err := svc.Capture(context.Background(), CaptureInput{ProjectID: "p-1", Name: "v1", Actor: producer})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/budget/versions/"+v.ID.String(), nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusNoContent, res.Code)
	}
}

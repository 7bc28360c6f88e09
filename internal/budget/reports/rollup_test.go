package reports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/budget/versions"
)

func TestCategoryRollups(t *testing.T) {
	categories := []budget.Category{
		{ID: "c-cam", Name: "Camera"},
		{ID: "c-post", Name: "Post Production"},
		{ID: "c-empty", Name: "Contingency"},
	}
	items := []budget.Item{
		{ID: "i-1", CategoryID: "c-cam", EstimatedAmount: budget.Amount(32000), ActualAmount: budget.Amount(29500)},
		{ID: "i-2", CategoryID: "c-cam", EstimatedAmount: budget.Amount(14000)},
		{ID: "i-3", CategoryID: "c-post", EstimatedAmount: budget.Amount(63000), ActualAmount: budget.Amount(12000)},
		{ID: "i-4", CategoryID: "c-unknown", EstimatedAmount: budget.Amount(500)},
	}

	rollups := CategoryRollups(categories, items)
	require.Len(t, rollups, 3)

	// Sorted descending by estimated.
	require.Equal(t, "Post Production", rollups[0].Name)
	require.InDelta(t, 63000, rollups[0].Estimated, 0.0001)
	require.InDelta(t, -51000, rollups[0].Variance, 0.0001)

	require.Equal(t, "Camera", rollups[1].Name)
	require.InDelta(t, 46000, rollups[1].Estimated, 0.0001)
	require.Equal(t, 2, rollups[1].ItemCount)

	require.Equal(t, "Contingency", rollups[2].Name)
	require.Zero(t, rollups[2].Estimated)
	require.Zero(t, rollups[2].ItemCount)
}

func TestStatusRollups(t *testing.T) {
	items := []budget.Item{
		{ID: "i-1", Status: budget.StatusPaid, EstimatedAmount: budget.Amount(100), ActualAmount: budget.Amount(100)},
		{ID: "i-2", Status: budget.StatusCommitted, EstimatedAmount: budget.Amount(200)},
		{ID: "i-3", Status: budget.ItemStatus("bogus"), EstimatedAmount: budget.Amount(50)},
		{ID: "i-4", EstimatedAmount: budget.Amount(25)},
	}

	rollups := StatusRollups(items)
	require.Len(t, rollups, 4)
	require.Equal(t, budget.StatusEstimated, rollups[0].Status)
	require.Equal(t, budget.StatusCommitted, rollups[1].Status)
	require.Equal(t, budget.StatusSpent, rollups[2].Status)
	require.Equal(t, budget.StatusPaid, rollups[3].Status)

	// Unknown and absent statuses fold into estimated.
	require.Equal(t, 2, rollups[0].ItemCount)
	require.InDelta(t, 75, rollups[0].Estimated, 0.0001)
	require.Zero(t, rollups[2].ItemCount)
	require.InDelta(t, 100, rollups[3].Actual, 0.0001)
}

func TestVersionTrend(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stored := []versions.BudgetVersion{
		{ID: uuid.New(), Name: "v3", CreatedAt: base.Add(48 * time.Hour), TotalEstimated: 90000},
		{ID: uuid.New(), Name: "v1", CreatedAt: base, TotalEstimated: 100000},
		{ID: uuid.New(), Name: "v2", CreatedAt: base.Add(24 * time.Hour), TotalEstimated: 120000},
	}

	trend := VersionTrend(stored)
	require.Len(t, trend, 3)
	require.Equal(t, []string{"v1", "v2", "v3"}, trendNames(trend))
	require.Zero(t, trend[0].Delta)
	require.InDelta(t, 20000, trend[1].Delta, 0.0001)
	require.InDelta(t, -30000, trend[2].Delta, 0.0001)

	// Input order is untouched.
	require.Equal(t, "v3", stored[0].Name)
}

func TestVersionTrendEmpty(t *testing.T) {
	trend := VersionTrend(nil)
	require.NotNil(t, trend)
	require.Empty(t, trend)
}

func trendNames(points []TrendPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Name
	}
	return out
}

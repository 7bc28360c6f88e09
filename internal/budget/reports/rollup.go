// Package reports derives read-only rollups over the current budget and the
// stored version list. The computations are pure projections; consistency
// with the source data holds only at computation time.
package reports

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/budget/versions"
)

// CategoryRollup sums a category's items.
type CategoryRollup struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Estimated  float64 `json:"estimated"`
	Actual     float64 `json:"actual"`
	Variance   float64 `json:"variance"`
	ItemCount  int     `json:"itemCount"`
}

// StatusRollup groups items by spend status.
type StatusRollup struct {
	Status    budget.ItemStatus `json:"status"`
	Estimated float64           `json:"estimated"`
	Actual    float64           `json:"actual"`
	ItemCount int               `json:"itemCount"`
}

// TrendPoint is one version in the chronological trend series.
type TrendPoint struct {
	VersionID      uuid.UUID `json:"versionId"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createdAt"`
	TotalEstimated float64   `json:"totalEstimated"`
	TotalActual    float64   `json:"totalActual"`
	Delta          float64   `json:"delta"`
}

// CategoryRollups aggregates items into their categories, sorted descending
// by estimated amount. Items referencing an unknown category are skipped.
func CategoryRollups(categories []budget.Category, items []budget.Item) []CategoryRollup {
	lookup := make(map[string]*CategoryRollup, len(categories))
	order := make([]string, 0, len(categories))
	for _, c := range categories {
		lookup[c.ID] = &CategoryRollup{CategoryID: c.ID, Name: c.Name}
		order = append(order, c.ID)
	}
	for _, item := range items {
		rollup, ok := lookup[item.CategoryID]
		if !ok {
			continue
		}
		rollup.Estimated += item.Estimated()
		rollup.Actual += item.Actual()
		rollup.ItemCount++
	}
	out := make([]CategoryRollup, 0, len(order))
	for _, id := range order {
		rollup := lookup[id]
		rollup.Variance = rollup.Actual - rollup.Estimated
		out = append(out, *rollup)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Estimated > out[j].Estimated
	})
	return out
}

// StatusRollups groups items by status in the fixed estimated, committed,
// spent, paid order. Items with an unknown or absent status count as
// estimated.
func StatusRollups(items []budget.Item) []StatusRollup {
	statuses := []budget.ItemStatus{budget.StatusEstimated, budget.StatusCommitted, budget.StatusSpent, budget.StatusPaid}
	lookup := make(map[budget.ItemStatus]*StatusRollup, len(statuses))
	for _, s := range statuses {
		lookup[s] = &StatusRollup{Status: s}
	}
	for _, item := range items {
		rollup, ok := lookup[item.Status]
		if !ok {
			rollup = lookup[budget.StatusEstimated]
		}
		rollup.Estimated += item.Estimated()
		rollup.Actual += item.Actual()
		rollup.ItemCount++
	}
	out := make([]StatusRollup, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, *lookup[s])
	}
	return out
}

// VersionTrend sorts versions ascending by creation time and computes each
// version's estimated-total delta from its immediate predecessor. The first
// version's delta is zero.
func VersionTrend(stored []versions.BudgetVersion) []TrendPoint {
	ordered := append([]versions.BudgetVersion(nil), stored...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	out := make([]TrendPoint, 0, len(ordered))
	for i, v := range ordered {
		point := TrendPoint{
			VersionID:      v.ID,
			Name:           v.Name,
			CreatedAt:      v.CreatedAt,
			TotalEstimated: v.TotalEstimated,
			TotalActual:    v.TotalActual,
		}
		if i > 0 {
			point.Delta = v.TotalEstimated - ordered[i-1].TotalEstimated
		}
		out = append(out, point)
	}
	return out
}

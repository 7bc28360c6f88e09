// Package diff computes structural differences between two stored budget
// versions. Compare is a pure function over already-loaded snapshots; it
// never touches storage and repeated calls over the same inputs return
// identical results.
package diff

import (
	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/budget/versions"
)

// ChangedItem records a line item present in both versions whose estimated
// or actual amount moved. Description is taken from the newer version;
// absent amounts normalize to zero.
type ChangedItem struct {
	ID              string  `json:"id"`
	Description     string  `json:"description"`
	EstimatedBefore float64 `json:"estimatedBefore"`
	EstimatedAfter  float64 `json:"estimatedAfter"`
	ActualBefore    float64 `json:"actualBefore"`
	ActualAfter     float64 `json:"actualAfter"`
}

// VersionDiff aggregates item-level and total-level movement from version A
// to version B.
type VersionDiff struct {
	EstimatedDiff float64       `json:"estimatedDiff"`
	ActualDiff    float64       `json:"actualDiff"`
	CategoryDiff  int           `json:"categoryDiff"`
	ItemDiff      int           `json:"itemDiff"`
	PercentChange float64       `json:"percentChange"`
	AddedItems    []budget.Item `json:"addedItems"`
	RemovedItems  []budget.Item `json:"removedItems"`
	ChangedItems  []ChangedItem `json:"changedItems"`
}

// Compare classifies items by identity, not content: an item counts as added
// or removed only when its id is exclusive to one side, and as changed only
// when its estimated or actual amount differs. An item whose description or
// category moved while amounts held still is deliberately not reported; the
// diff is monetary only.
//
// Ordering is stable for a given input: AddedItems and ChangedItems follow
// B's snapshot array order, RemovedItems follows A's.
func Compare(a, b versions.BudgetVersion) VersionDiff {
	out := VersionDiff{
		EstimatedDiff: b.TotalEstimated - a.TotalEstimated,
		ActualDiff:    b.TotalActual - a.TotalActual,
		CategoryDiff:  b.CategoryCount - a.CategoryCount,
		ItemDiff:      b.ItemCount - a.ItemCount,
		AddedItems:    []budget.Item{},
		RemovedItems:  []budget.Item{},
		ChangedItems:  []ChangedItem{},
	}

	// Percent change against a zero base is defined as zero. Callers must
	// not read that as "no change"; EstimatedDiff still carries the delta.
	if a.TotalEstimated > 0 {
		out.PercentChange = (out.EstimatedDiff / a.TotalEstimated) * 100
	}

	inA := make(map[string]budget.Item, len(a.Items))
	for _, item := range a.Items {
		inA[item.ID] = item
	}
	inB := make(map[string]struct{}, len(b.Items))
	for _, item := range b.Items {
		inB[item.ID] = struct{}{}
	}

	for _, item := range b.Items {
		before, ok := inA[item.ID]
		if !ok {
			out.AddedItems = append(out.AddedItems, item)
			continue
		}
		if before.Estimated() != item.Estimated() || before.Actual() != item.Actual() {
			out.ChangedItems = append(out.ChangedItems, ChangedItem{
				ID:              item.ID,
				Description:     item.Description,
				EstimatedBefore: before.Estimated(),
				EstimatedAfter:  item.Estimated(),
				ActualBefore:    before.Actual(),
				ActualAfter:     item.Actual(),
			})
		}
	}

	for _, item := range a.Items {
		if _, ok := inB[item.ID]; !ok {
			out.RemovedItems = append(out.RemovedItems, item)
		}
	}

	return out
}

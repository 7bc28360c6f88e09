// Package budget defines the working model of a production budget: the
// categories and line items users edit on a shoot, shared by the snapshot
// store, the diff engine, the approval workflow and reporting.
package budget

// ItemStatus tracks how far a line item has moved through spend.
type ItemStatus string

const (
	// StatusEstimated marks a planned amount with no commitment yet.
	StatusEstimated ItemStatus = "estimated"
	// StatusCommitted marks an amount locked in with a vendor.
	StatusCommitted ItemStatus = "committed"
	// StatusSpent marks an amount already paid out but not reconciled.
	StatusSpent ItemStatus = "spent"
	// StatusPaid marks a fully reconciled amount.
	StatusPaid ItemStatus = "paid"
)

// Category is an organizational grouping of items. It carries no monetary
// fields itself.
type Category struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"projectId"`
	Name       string  `json:"name"`
	Order      int     `json:"order"`
	Department *string `json:"department,omitempty"`
	Phase      *string `json:"phase,omitempty"`
}

// Item is the unit of monetary tracking. Amounts are whole currency units;
// absent amounts are treated as zero everywhere they are summed or compared.
type Item struct {
	ID              string     `json:"id"`
	CategoryID      string     `json:"categoryId"`
	ProjectID       string     `json:"projectId"`
	Description     string     `json:"description"`
	EstimatedAmount *float64   `json:"estimatedAmount,omitempty"`
	ActualAmount    *float64   `json:"actualAmount,omitempty"`
	Status          ItemStatus `json:"status,omitempty"`
	Unit            *string    `json:"unit,omitempty"`
	Quantity        *float64   `json:"quantity,omitempty"`
	UnitRate        *float64   `json:"unitRate,omitempty"`
	Vendor          *string    `json:"vendor,omitempty"`
	AccountCode     *string    `json:"accountCode,omitempty"`
	Phase           *string    `json:"phase,omitempty"`
	LinkedCrewID    *string    `json:"linkedCrewId,omitempty"`
	LinkedCastID    *string    `json:"linkedCastId,omitempty"`
	LinkedGearID    *string    `json:"linkedGearId,omitempty"`
	LinkedSceneID   *string    `json:"linkedSceneId,omitempty"`
}

// Estimated returns the estimated amount, zero when absent.
func (i Item) Estimated() float64 {
	return amountOrZero(i.EstimatedAmount)
}

// Actual returns the actual amount, zero when absent.
func (i Item) Actual() float64 {
	return amountOrZero(i.ActualAmount)
}

// Totals sums estimated and actual amounts over items, treating absent
// amounts as zero.
func Totals(items []Item) (estimated, actual float64) {
	for _, item := range items {
		estimated += item.Estimated()
		actual += item.Actual()
	}
	return estimated, actual
}

// CloneCategories returns a deep, detached copy of categories.
func CloneCategories(categories []Category) []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		c.Department = cloneString(c.Department)
		c.Phase = cloneString(c.Phase)
		out[i] = c
	}
	return out
}

// CloneItems returns a deep, detached copy of items.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		item.EstimatedAmount = cloneFloat(item.EstimatedAmount)
		item.ActualAmount = cloneFloat(item.ActualAmount)
		item.Unit = cloneString(item.Unit)
		item.Quantity = cloneFloat(item.Quantity)
		item.UnitRate = cloneFloat(item.UnitRate)
		item.Vendor = cloneString(item.Vendor)
		item.AccountCode = cloneString(item.AccountCode)
		item.Phase = cloneString(item.Phase)
		item.LinkedCrewID = cloneString(item.LinkedCrewID)
		item.LinkedCastID = cloneString(item.LinkedCastID)
		item.LinkedGearID = cloneString(item.LinkedGearID)
		item.LinkedSceneID = cloneString(item.LinkedSceneID)
		out[i] = item
	}
	return out
}

// Amount returns a pointer to v, for building optional item amounts.
func Amount(v float64) *float64 {
	return &v
}

func amountOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

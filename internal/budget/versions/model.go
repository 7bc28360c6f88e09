package versions

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// KeepLatest bounds how many versions a listing returns. Older versions stay
// in storage and remain addressable by id; the cap applies at query time only.
const KeepLatest = 50

// BudgetVersion is an immutable, named, point-in-time copy of a project's
// budget. The snapshot arrays are deep, detached copies taken at capture
// time: later edits to the live budget never alter a stored version.
type BudgetVersion struct {
	ID             uuid.UUID         `json:"id"`
	ProjectID      string            `json:"projectId"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	CreatedBy      string            `json:"createdBy"`
	CreatedByName  string            `json:"createdByName"`
	TotalEstimated float64           `json:"totalEstimated"`
	TotalActual    float64           `json:"totalActual"`
	CategoryCount  int               `json:"categoryCount"`
	ItemCount      int               `json:"itemCount"`
	Categories     []budget.Category `json:"categoriesSnapshot"`
	Items          []budget.Item     `json:"itemsSnapshot"`
}

// CaptureInput carries everything needed to snapshot the current budget.
type CaptureInput struct {
	ProjectID   string
	Name        string
	Description string
	Categories  []budget.Category
	Items       []budget.Item
	Actor       shared.Actor
}

// Validate ensures correctness before any write is attempted.
func (in CaptureInput) Validate() error {
	if !in.Actor.Authenticated() {
		return shared.ErrUnauthenticated
	}
	if in.ProjectID == "" {
		return shared.ErrValidation
	}
	if strings.TrimSpace(in.Name) == "" {
		return shared.ErrValidation
	}
	return nil
}

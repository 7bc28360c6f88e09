// Package approvals implements the budget approval workflow: a submitted
// snapshot summary moves through review states while reviewers and the
// submitter hold a comment thread on it. Comments are append-only; a comment
// is never edited or removed once added.
package approvals

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// Status enumerates workflow states.
type Status string

const (
	// StatusPending is the initial state of every submission.
	StatusPending Status = "pending"
	// StatusApproved is terminal.
	StatusApproved Status = "approved"
	// StatusRejected is terminal.
	StatusRejected Status = "rejected"
	// StatusRevisionRequested holds until the submitter resubmits as a new
	// approval; there is no automatic path back to pending.
	StatusRevisionRequested Status = "revision_requested"
)

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Comment is an append-only element of an approval's discussion thread.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// BudgetApproval is a reviewable summary of the budget at submission time.
// It carries the same totals/counts shape as a version snapshot plus the
// reviewer decision metadata layered on top.
type BudgetApproval struct {
	ID                 uuid.UUID  `json:"id"`
	ProjectID          string     `json:"projectId"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Status             Status     `json:"status"`
	SubmittedBy        string     `json:"submittedBy"`
	SubmittedByName    string     `json:"submittedByName"`
	SubmittedAt        time.Time  `json:"submittedAt"`
	ReviewedBy         *string    `json:"reviewedBy,omitempty"`
	ReviewedByName     *string    `json:"reviewedByName,omitempty"`
	ReviewedAt         *time.Time `json:"reviewedAt,omitempty"`
	TotalEstimated     float64    `json:"totalEstimated"`
	TotalActual        float64    `json:"totalActual"`
	CategoryCount      int        `json:"categoryCount"`
	ItemCount          int        `json:"itemCount"`
	PreviousTotal      *float64   `json:"previousTotal,omitempty"`
	Comments           []Comment  `json:"comments"`
	AffectedCategories []string   `json:"affectedCategories,omitempty"`
	ChangesSummary     string     `json:"changesSummary,omitempty"`
}

// SubmitInput carries a submission for review.
type SubmitInput struct {
	ProjectID   string
	Title       string
	Description string
	Categories  []budget.Category
	Items       []budget.Item
	// PreviousTotal is stored verbatim for displaying the delta against the
	// previously approved total. It is caller-supplied and not recomputed
	// here.
	PreviousTotal *float64
	Actor         shared.Actor
}

// Validate ensures correctness before any write is attempted.
func (in SubmitInput) Validate() error {
	if !in.Actor.Authenticated() {
		return shared.ErrUnauthenticated
	}
	if in.ProjectID == "" {
		return shared.ErrValidation
	}
	if strings.TrimSpace(in.Title) == "" {
		return shared.ErrValidation
	}
	return nil
}

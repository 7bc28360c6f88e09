package approvals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenlight-hq/greenlight/internal/platform/db"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// TransitionRecord captures a status change applied to a pending approval.
// Comment, when set, is appended in the same transaction as the status
// update.
type TransitionRecord struct {
	ApprovalID     uuid.UUID
	To             Status
	ReviewedBy     string
	ReviewedByName string
	ReviewedAt     time.Time
	Comment        *Comment
}

// Repository defines approval data access. Comment appends are row inserts,
// never read-modify-write of a whole comment array, so concurrent appends
// both survive.
type Repository interface {
	Insert(ctx context.Context, approval BudgetApproval) error
	GetByID(ctx context.Context, id uuid.UUID) (BudgetApproval, error)
	ListByProject(ctx context.Context, projectID string) ([]BudgetApproval, error)
	// Transition compare-and-swaps the status from pending. It returns
	// shared.ErrConflict when the approval exists but already left pending,
	// and shared.ErrNotFound when it does not exist.
	Transition(ctx context.Context, rec TransitionRecord) error
	AppendComment(ctx context.Context, approvalID uuid.UUID, comment Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Insert(ctx context.Context, a BudgetApproval) error {
	affected, err := json.Marshal(a.AffectedCategories)
	if err != nil {
		return fmt.Errorf("approvals: marshal affected categories: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO budget_approvals
(id, project_id, title, description, status, submitted_by, submitted_by_name, submitted_at,
 total_estimated, total_actual, category_count, item_count, previous_total,
 affected_categories, changes_summary)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID, a.ProjectID, a.Title, a.Description, string(a.Status), a.SubmittedBy, a.SubmittedByName, a.SubmittedAt,
		a.TotalEstimated, a.TotalActual, a.CategoryCount, a.ItemCount, a.PreviousTotal,
		affected, a.ChangesSummary)
	return err
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (BudgetApproval, error) {
	row := r.pool.QueryRow(ctx, selectApproval+` WHERE id = $1`, id)
	approval, err := scanApproval(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BudgetApproval{}, fmt.Errorf("%w: approval %s", shared.ErrNotFound, id)
		}
		return BudgetApproval{}, err
	}
	comments, err := r.commentsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return BudgetApproval{}, err
	}
	approval.Comments = comments[id]
	if approval.Comments == nil {
		approval.Comments = []Comment{}
	}
	return approval, nil
}

func (r *pgRepository) ListByProject(ctx context.Context, projectID string) ([]BudgetApproval, error) {
	rows, err := r.pool.Query(ctx, selectApproval+` WHERE project_id = $1 ORDER BY submitted_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BudgetApproval
	var ids []uuid.UUID
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, approval)
		ids = append(ids, approval.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	comments, err := r.commentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Comments = comments[out[i].ID]
		if out[i].Comments == nil {
			out[i].Comments = []Comment{}
		}
	}
	return out, nil
}

func (r *pgRepository) Transition(ctx context.Context, rec TransitionRecord) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE budget_approvals
SET status = $2, reviewed_by = $3, reviewed_by_name = $4, reviewed_at = $5
WHERE id = $1 AND status = $6`,
			rec.ApprovalID, string(rec.To), rec.ReviewedBy, rec.ReviewedByName, rec.ReviewedAt, string(StatusPending))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var status string
			err := tx.QueryRow(ctx, `SELECT status FROM budget_approvals WHERE id = $1`, rec.ApprovalID).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: approval %s", shared.ErrNotFound, rec.ApprovalID)
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: approval is %s, expected %s", shared.ErrConflict, status, StatusPending)
		}
		if rec.Comment != nil {
			return insertComment(ctx, tx, rec.ApprovalID, *rec.Comment)
		}
		return nil
	})
}

func (r *pgRepository) AppendComment(ctx context.Context, approvalID uuid.UUID, comment Comment) error {
	return insertComment(ctx, r.pool, approvalID, comment)
}

// Delete removes the approval and its comment thread. A missing id is not
// an error.
func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM approval_comments WHERE approval_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM budget_approvals WHERE id = $1`, id)
		return err
	})
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertComment(ctx context.Context, ex execer, approvalID uuid.UUID, c Comment) error {
	_, err := ex.Exec(ctx, `INSERT INTO approval_comments (id, approval_id, user_id, user_name, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, approvalID, c.UserID, c.UserName, c.Message, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: approval %s", shared.ErrNotFound, approvalID)
		}
		return err
	}
	return nil
}

func (r *pgRepository) commentsFor(ctx context.Context, approvalIDs []uuid.UUID) (map[uuid.UUID][]Comment, error) {
	out := make(map[uuid.UUID][]Comment, len(approvalIDs))
	if len(approvalIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, approval_id, user_id, user_name, message, created_at
FROM approval_comments WHERE approval_id = ANY($1) ORDER BY created_at ASC, id ASC`, approvalIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c Comment
		var approvalID uuid.UUID
		if err := rows.Scan(&c.ID, &approvalID, &c.UserID, &c.UserName, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		out[approvalID] = append(out[approvalID], c)
	}
	return out, rows.Err()
}

const selectApproval = `SELECT id, project_id, title, description, status, submitted_by, submitted_by_name, submitted_at,
reviewed_by, reviewed_by_name, reviewed_at, total_estimated, total_actual, category_count, item_count,
previous_total, affected_categories, changes_summary
FROM budget_approvals`

func scanApproval(row pgx.Row) (BudgetApproval, error) {
	var a BudgetApproval
	var status string
	var affected []byte
	err := row.Scan(&a.ID, &a.ProjectID, &a.Title, &a.Description, &status, &a.SubmittedBy, &a.SubmittedByName, &a.SubmittedAt,
		&a.ReviewedBy, &a.ReviewedByName, &a.ReviewedAt, &a.TotalEstimated, &a.TotalActual, &a.CategoryCount, &a.ItemCount,
		&a.PreviousTotal, &affected, &a.ChangesSummary)
	if err != nil {
		return BudgetApproval{}, err
	}
	a.Status = Status(status)
	if len(affected) > 0 {
		if err := json.Unmarshal(affected, &a.AffectedCategories); err != nil {
			return BudgetApproval{}, fmt.Errorf("approvals: unmarshal affected categories: %w", err)
		}
	}
	return a, nil
}

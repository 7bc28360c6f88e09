package versions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// Repository defines version snapshot data access.
type Repository interface {
	Insert(ctx context.Context, version BudgetVersion) error
	GetByID(ctx context.Context, id uuid.UUID) (BudgetVersion, error)
	ListByProject(ctx context.Context, projectID string, limit int) ([]BudgetVersion, error)
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

func (r *pgRepository) Insert(ctx context.Context, v BudgetVersion) error {
	categories, err := json.Marshal(v.Categories)
	if err != nil {
		return fmt.Errorf("versions: marshal categories: %w", err)
	}
	items, err := json.Marshal(v.Items)
	if err != nil {
		return fmt.Errorf("versions: marshal items: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO budget_versions
(id, project_id, name, description, created_at, created_by, created_by_name,
 total_estimated, total_actual, category_count, item_count, categories, items)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		v.ID, v.ProjectID, v.Name, v.Description, v.CreatedAt, v.CreatedBy, v.CreatedByName,
		v.TotalEstimated, v.TotalActual, v.CategoryCount, v.ItemCount, categories, items)
	return err
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (BudgetVersion, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, project_id, name, description, created_at, created_by, created_by_name,
total_estimated, total_actual, category_count, item_count, categories, items
FROM budget_versions WHERE id = $1`, id)
	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BudgetVersion{}, fmt.Errorf("%w: version %s", shared.ErrNotFound, id)
		}
		return BudgetVersion{}, err
	}
	return v, nil
}

func (r *pgRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]BudgetVersion, error) {
	if limit <= 0 {
		limit = KeepLatest
	}
	rows, err := r.pool.Query(ctx, `SELECT id, project_id, name, description, created_at, created_by, created_by_name,
total_estimated, total_actual, category_count, item_count, categories, items
FROM budget_versions WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BudgetVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Delete removes the version. A missing id is not an error: double deletes
// are treated as success.
func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM budget_versions WHERE id = $1`, id)
	return err
}

func scanVersion(row pgx.Row) (BudgetVersion, error) {
	var v BudgetVersion
	var categories, items []byte
	err := row.Scan(&v.ID, &v.ProjectID, &v.Name, &v.Description, &v.CreatedAt, &v.CreatedBy, &v.CreatedByName,
		&v.TotalEstimated, &v.TotalActual, &v.CategoryCount, &v.ItemCount, &categories, &items)
	if err != nil {
		return BudgetVersion{}, err
	}
	if err := json.Unmarshal(categories, &v.Categories); err != nil {
		return BudgetVersion{}, fmt.Errorf("versions: unmarshal categories: %w", err)
	}
	if err := json.Unmarshal(items, &v.Items); err != nil {
		return BudgetVersion{}, fmt.Errorf("versions: unmarshal items: %w", err)
	}
	if v.Categories == nil {
		v.Categories = []budget.Category{}
	}
	if v.Items == nil {
		v.Items = []budget.Item{}
	}
	return v, nil
}

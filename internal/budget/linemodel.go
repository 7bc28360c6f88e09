package budget

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LineModelReader reads the live budget the CRUD screens own. It is strictly
// read-only: snapshotting, submission and reporting consume the current
// arrays but never write them.
type LineModelReader struct {
	pool *pgxpool.Pool
}

// NewLineModelReader returns a reader over the budget_categories and
// budget_items tables.
func NewLineModelReader(pool *pgxpool.Pool) *LineModelReader {
	return &LineModelReader{pool: pool}
}

// Budget returns the current categories and items for a project.
func (r *LineModelReader) Budget(ctx context.Context, projectID string) ([]Category, []Item, error) {
	categories, err := r.categories(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	items, err := r.items(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return categories, items, nil
}

func (r *LineModelReader) categories(ctx context.Context, projectID string) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, project_id, name, sort_order, department, phase
FROM budget_categories WHERE project_id = $1 ORDER BY sort_order ASC, name ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Order, &c.Department, &c.Phase); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *LineModelReader) items(ctx context.Context, projectID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, category_id, project_id, description, estimated_amount, actual_amount,
status, unit, quantity, unit_rate, vendor, account_code, phase,
linked_crew_id, linked_cast_id, linked_gear_id, linked_scene_id
FROM budget_items WHERE project_id = $1 ORDER BY category_id ASC, description ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var i Item
		var status *string
		if err := rows.Scan(&i.ID, &i.CategoryID, &i.ProjectID, &i.Description, &i.EstimatedAmount, &i.ActualAmount,
			&status, &i.Unit, &i.Quantity, &i.UnitRate, &i.Vendor, &i.AccountCode, &i.Phase,
			&i.LinkedCrewID, &i.LinkedCastID, &i.LinkedGearID, &i.LinkedSceneID); err != nil {
			return nil, err
		}
		if status != nil {
			i.Status = ItemStatus(*status)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

package reports

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/budget/versions"
)

// LineModel supplies the current categories and items for a project. It is
// the read-only contract onto the budget CRUD screens; reports never mutate
// it.
type LineModel interface {
	Budget(ctx context.Context, projectID string) ([]budget.Category, []budget.Item, error)
}

// VersionLister supplies the stored version list for trend computation.
type VersionLister interface {
	ListByProject(ctx context.Context, projectID string, limit int) ([]versions.BudgetVersion, error)
}

// Service computes report views, memoised through the versioned cache.
// Concurrent requests for the same report collapse into a single build.
type Service struct {
	lines    LineModel
	versions VersionLister
	cache    *Cache
	group    singleflight.Group
}

// NewService constructs a Service. cache may be nil, which disables
// memoisation.
func NewService(lines LineModel, lister VersionLister, cache *Cache) *Service {
	return &Service{lines: lines, versions: lister, cache: cache}
}

// Categories returns per-category rollups for the project's current budget.
func (s *Service) Categories(ctx context.Context, projectID string) ([]CategoryRollup, error) {
	var out []CategoryRollup
	err := s.fetch(ctx, projectID, "categories", &out, func(ctx context.Context) (interface{}, error) {
		categories, items, err := s.lines.Budget(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return CategoryRollups(categories, items), nil
	})
	return out, err
}

// Statuses returns per-status rollups for the project's current budget.
func (s *Service) Statuses(ctx context.Context, projectID string) ([]StatusRollup, error) {
	var out []StatusRollup
	err := s.fetch(ctx, projectID, "statuses", &out, func(ctx context.Context) (interface{}, error) {
		_, items, err := s.lines.Budget(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return StatusRollups(items), nil
	})
	return out, err
}

// Trend returns the version-over-version trend series for the project.
func (s *Service) Trend(ctx context.Context, projectID string) ([]TrendPoint, error) {
	var out []TrendPoint
	err := s.fetch(ctx, projectID, "trend", &out, func(ctx context.Context) (interface{}, error) {
		stored, err := s.versions.ListByProject(ctx, projectID, versions.KeepLatest)
		if err != nil {
			return nil, err
		}
		return VersionTrend(stored), nil
	})
	return out, err
}

// Invalidate bumps the project's cache version after the underlying data
// changed.
func (s *Service) Invalidate(ctx context.Context, projectID string) error {
	return s.cache.Bump(ctx, projectID)
}

// Warm rebuilds the trend report into the cache; used by the background
// warmup job after a version is captured or deleted.
func (s *Service) Warm(ctx context.Context, projectID string) error {
	if err := s.Invalidate(ctx, projectID); err != nil {
		return err
	}
	_, err := s.Trend(ctx, projectID)
	return err
}

func (s *Service) fetch(ctx context.Context, projectID, report string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, projectID, report)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (interface{}, error) {
		result := s.group.DoChan(key, func() (interface{}, error) {
			return loader(ctx)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-result:
			return res.Val, res.Err
		}
	})
}

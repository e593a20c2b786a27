package materials

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"
)

// Service coordinates catalog operations.
type Service struct {
	repo       Repository
	cache      *StatsCache
	statsGroup singleflight.Group
}

// NewService builds Service. The cache may be nil; stats then always hit the database.
func NewService(repo Repository, cache *StatsCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns a catalog page matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Material, int, error) {
	return s.repo.List(ctx, filters)
}

// Get loads one material.
func (s *Service) Get(ctx context.Context, id int64) (Material, error) {
	if id <= 0 {
		return Material{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new catalog item.
func (s *Service) Create(ctx context.Context, req CreateMaterialRequest) (Material, error) {
	material := Material{
		Code:         req.Code,
		Name:         req.Name,
		Category:     Category(req.Category),
		Unit:         Unit(req.Unit),
		CurrentStock: req.CurrentStock,
		MinimumStock: req.MinimumStock,
		MaximumStock: req.MaximumStock,
		UnitPrice:    req.UnitPrice,
		IsActive:     true,
	}
	if err := s.validate(material); err != nil {
		return Material{}, err
	}
	created, err := s.repo.Create(ctx, material)
	if err != nil {
		return Material{}, err
	}
	_ = s.cache.Bump(ctx)
	return created, nil
}

// Update edits catalog fields. Stock is untouched here.
func (s *Service) Update(ctx context.Context, id int64, req UpdateMaterialRequest) (Material, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Category != nil {
		current.Category = Category(*req.Category)
	}
	if req.Unit != nil {
		current.Unit = Unit(*req.Unit)
	}
	if req.MinimumStock != nil {
		current.MinimumStock = *req.MinimumStock
	}
	if req.MaximumStock != nil {
		current.MaximumStock = *req.MaximumStock
	}
	if req.UnitPrice != nil {
		current.UnitPrice = *req.UnitPrice
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	if err := s.validate(current); err != nil {
		return Material{}, err
	}
	if err := s.repo.Update(ctx, id, current); err != nil {
		return Material{}, err
	}
	_ = s.cache.Bump(ctx)
	return s.repo.Get(ctx, id)
}

// Deactivate soft-deletes a material. Catalog rows are never removed.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Bump(ctx)
	return nil
}

// LowStock lists active materials at or below their minimum threshold.
func (s *Service) LowStock(ctx context.Context) ([]Material, error) {
	return s.repo.LowStock(ctx)
}

// Stats returns aggregate catalog statistics, cached per version.
// Concurrent callers share one load via singleflight.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	key, err := s.cache.BuildKey(ctx, "materials", "stats")
	if err != nil {
		return Stats{}, err
	}
	result, err, _ := s.statsGroup.Do(key, func() (interface{}, error) {
		var stats Stats
		loadErr := s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
			return s.repo.Stats(ctx)
		})
		return stats, loadErr
	})
	if err != nil {
		return Stats{}, err
	}
	stats, ok := result.(Stats)
	if !ok {
		return Stats{}, errors.New("materials: unexpected stats type")
	}
	return stats, nil
}

// InvalidateStats bumps the cache version. Called by the movements
// service after every committed stock change.
func (s *Service) InvalidateStats(ctx context.Context) {
	_ = s.cache.Bump(ctx)
}

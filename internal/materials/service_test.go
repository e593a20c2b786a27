package materials

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/keystone-erp/keystone-erp/internal/platform/httpx"
)

type memoryRepo struct {
	mu         sync.Mutex
	materials  map[int64]Material
	nextID     int64
	statsCalls int32
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{materials: map[int64]Material{}}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Material, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Material{}
	for _, m := range r.materials {
		if filters.Category != nil && m.Category != *filters.Category {
			continue
		}
		if filters.IsActive != nil && m.IsActive != *filters.IsActive {
			continue
		}
		if filters.LowStock && !m.LowStock() {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.materials[id]
	if !ok {
		return Material{}, ErrNotFound
	}
	return m, nil
}

func (r *memoryRepo) Create(ctx context.Context, material Material) (Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.materials {
		if existing.Code == material.Code {
			return Material{}, ErrCodeExists
		}
	}
	r.nextID++
	material.ID = r.nextID
	material.CreatedAt = time.Now()
	material.UpdatedAt = material.CreatedAt
	r.materials[material.ID] = material
	return material, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, material Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.materials[id]; !ok {
		return ErrNotFound
	}
	material.ID = id
	material.UpdatedAt = time.Now()
	r.materials[id] = material
	return nil
}

func (r *memoryRepo) Deactivate(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.materials[id]
	if !ok {
		return ErrNotFound
	}
	m.IsActive = false
	r.materials[id] = m
	return nil
}

func (r *memoryRepo) LowStock(ctx context.Context) ([]Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Material{}
	for _, m := range r.materials {
		if m.IsActive && m.LowStock() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) Stats(ctx context.Context) (Stats, error) {
	atomic.AddInt32(&r.statsCalls, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := Stats{ByCategory: []CategoryStat{}}
	for _, m := range r.materials {
		stats.TotalMaterials++
		if m.IsActive {
			stats.ActiveMaterials++
			stats.TotalStockValue += m.StockValue()
			if m.LowStock() {
				stats.LowStockCount++
			}
		}
	}
	return stats, nil
}

func validCreate() CreateMaterialRequest {
	return CreateMaterialRequest{
		Code:         "MAT-0001",
		Name:         "OPC 53 Grade Cement",
		Category:     "CEMENT",
		Unit:         "BAG",
		CurrentStock: 100,
		MinimumStock: 20,
		MaximumStock: 500,
		UnitPrice:    410,
	}
}

func TestCreateMaterial(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.InDelta(t, 100.0, created.CurrentStock, 1e-9)

	_, err = svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, ErrCodeExists)
}

func TestCreateMaterialRejectsBadInput(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	req := validCreate()
	req.Category = "TIMBER"
	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidCategory)

	req = validCreate()
	req.Unit = "BUCKET"
	_, err = svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidUnit)

	req = validCreate()
	req.CurrentStock = -1
	_, err = svc.Create(context.Background(), req)
	require.ErrorIs(t, err, httpx.ErrValidation)

	req = validCreate()
	req.MinimumStock = 50
	req.MaximumStock = 10
	_, err = svc.Create(context.Background(), req)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateMaterialDoesNotTouchStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	name := "OPC 43 Grade Cement"
	price := 395.0
	updated, err := svc.Update(context.Background(), created.ID, UpdateMaterialRequest{Name: &name, UnitPrice: &price})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.InDelta(t, 395.0, updated.UnitPrice, 1e-9)
	require.InDelta(t, 100.0, updated.CurrentStock, 1e-9, "catalog edits must not move stock")
}

func TestUpdateMaterialNotFound(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	name := "x"
	_, err := svc.Update(context.Background(), 42, UpdateMaterialRequest{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateIsSoftDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err, "deactivated materials stay readable")
	require.False(t, got.IsActive)
}

func TestGetReturnsStableSnapshot(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	first, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, first, second, "reads without intervening writes must match")
}

func TestLowStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	low := validCreate()
	low.CurrentStock = 10
	low.MinimumStock = 20
	_, err := svc.Create(context.Background(), low)
	require.NoError(t, err)

	fine := validCreate()
	fine.Code = "MAT-0002"
	fine.CurrentStock = 100
	fine.MinimumStock = 20
	_, err = svc.Create(context.Background(), fine)
	require.NoError(t, err)

	flagged, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	require.Equal(t, "MAT-0001", flagged[0].Code)
}

func newTestCache(t *testing.T) *StatsCache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatsCache(client, time.Minute)
}

func TestStatsCachedUntilInvalidated(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, newTestCache(t))

	_, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalMaterials)
	require.InDelta(t, 100*410.0, first.TotalStockValue, 1e-9)

	// second read served from cache
	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&repo.statsCalls))

	svc.InvalidateStats(context.Background())
	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&repo.statsCalls))
}

func TestStatsWithoutCache(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.ActiveMaterials)
}

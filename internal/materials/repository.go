package materials

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the material catalog in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Material, int, error)
	Get(ctx context.Context, id int64) (Material, error)
	Create(ctx context.Context, material Material) (Material, error)
	Update(ctx context.Context, id int64, material Material) error
	Deactivate(ctx context.Context, id int64) error
	LowStock(ctx context.Context) ([]Material, error)
	Stats(ctx context.Context) (Stats, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const materialColumns = `id, code, name, category, unit, current_stock, minimum_stock, maximum_stock, unit_price, is_active, created_at, updated_at`

func scanMaterial(row pgx.Row) (Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Category, &m.Unit, &m.CurrentStock, &m.MinimumStock, &m.MaximumStock, &m.UnitPrice, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Material, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Category != nil {
		argCount++
		where += ` AND category = $` + strconv.Itoa(argCount)
		args = append(args, *filters.Category)
	}
	if filters.IsActive != nil {
		argCount++
		where += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}
	if filters.LowStock {
		where += ` AND current_stock <= minimum_stock`
	}
	if filters.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM materials`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + materialColumns + ` FROM materials` + where + ` ORDER BY code ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, m)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Material, error) {
	m, err := scanMaterial(r.db.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Material{}, ErrNotFound
	}
	return m, err
}

func (r *repository) Create(ctx context.Context, material Material) (Material, error) {
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, `INSERT INTO materials (code, name, category, unit, current_stock, minimum_stock, maximum_stock, unit_price, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10) RETURNING id`,
		material.Code, material.Name, material.Category, material.Unit, material.CurrentStock,
		material.MinimumStock, material.MaximumStock, material.UnitPrice, material.IsActive, now).Scan(&material.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Material{}, ErrCodeExists
		}
		return Material{}, err
	}
	material.CreatedAt = now
	material.UpdatedAt = now
	return material, nil
}

func (r *repository) Update(ctx context.Context, id int64, material Material) error {
	tag, err := r.db.Exec(ctx, `UPDATE materials SET name = $1, category = $2, unit = $3, minimum_stock = $4, maximum_stock = $5, unit_price = $6, is_active = $7, updated_at = NOW() WHERE id = $8`,
		material.Name, material.Category, material.Unit, material.MinimumStock, material.MaximumStock, material.UnitPrice, material.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE materials SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) LowStock(ctx context.Context) ([]Material, error) {
	rows, err := r.db.Query(ctx, `SELECT `+materialColumns+` FROM materials WHERE is_active AND current_stock <= minimum_stock ORDER BY current_stock - minimum_stock ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *repository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.db.QueryRow(ctx, `SELECT COUNT(*),
COUNT(*) FILTER (WHERE is_active),
COUNT(*) FILTER (WHERE is_active AND current_stock <= minimum_stock),
COALESCE(SUM(current_stock * unit_price) FILTER (WHERE is_active), 0)
FROM materials`).Scan(&stats.TotalMaterials, &stats.ActiveMaterials, &stats.LowStockCount, &stats.TotalStockValue)
	if err != nil {
		return Stats{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT category, COUNT(*), COALESCE(SUM(current_stock * unit_price), 0)
FROM materials WHERE is_active GROUP BY category ORDER BY category`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var cs CategoryStat
		if err := rows.Scan(&cs.Category, &cs.Count, &cs.StockValue); err != nil {
			return Stats{}, err
		}
		stats.ByCategory = append(stats.ByCategory, cs)
	}
	return stats, rows.Err()
}

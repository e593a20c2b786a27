package vendors

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists vendors in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const vendorColumns = `id, code, name, contact_person, phone, email, gstin, address, city, state, is_active, created_at, updated_at`

func scanVendor(row pgx.Row) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.Code, &v.Name, &v.ContactPerson, &v.Phone, &v.Email, &v.GSTIN,
		&v.Address, &v.City, &v.State, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// List returns vendors with optional search and active filters.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Vendor, int, error) {
	query := `SELECT ` + vendorColumns + `, COUNT(*) OVER() AS total FROM vendors WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		query += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}
	query += ` ORDER BY name ASC`

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filters.Page
	if page < 1 {
		page = 1
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	vendors := []Vendor{}
	total := 0
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Code, &v.Name, &v.ContactPerson, &v.Phone, &v.Email, &v.GSTIN,
			&v.Address, &v.City, &v.State, &v.IsActive, &v.CreatedAt, &v.UpdatedAt, &total); err != nil {
			return nil, 0, err
		}
		vendors = append(vendors, v)
	}
	return vendors, total, rows.Err()
}

// Get loads one vendor.
func (r *Repository) Get(ctx context.Context, id int64) (Vendor, error) {
	v, err := scanVendor(r.pool.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vendor{}, ErrNotFound
	}
	return v, err
}

// Create inserts a vendor.
func (r *Repository) Create(ctx context.Context, v Vendor) (Vendor, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO vendors (code, name, contact_person, phone, email, gstin, address, city, state, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,TRUE,NOW(),NOW()) RETURNING id, is_active, created_at, updated_at`,
		v.Code, v.Name, v.ContactPerson, v.Phone, v.Email, v.GSTIN, v.Address, v.City, v.State).
		Scan(&v.ID, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Vendor{}, ErrCodeExists
		}
		return Vendor{}, err
	}
	return v, nil
}

// Update edits a vendor in place.
func (r *Repository) Update(ctx context.Context, v Vendor) (Vendor, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE vendors SET name=$1, contact_person=$2, phone=$3, email=$4, gstin=$5, address=$6, city=$7, state=$8, is_active=$9, updated_at=NOW() WHERE id=$10`,
		v.Name, v.ContactPerson, v.Phone, v.Email, v.GSTIN, v.Address, v.City, v.State, v.IsActive, v.ID)
	if err != nil {
		return Vendor{}, err
	}
	if tag.RowsAffected() == 0 {
		return Vendor{}, ErrNotFound
	}
	return r.Get(ctx, v.ID)
}

// Deactivate soft-deletes a vendor.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE vendors SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

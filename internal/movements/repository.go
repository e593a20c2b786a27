package movements

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-erp/keystone-erp/internal/platform/db"
)

// Repository persists the stock ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
// Every stock mutation goes through GetMaterialForUpdate first, so the
// material row stays locked from the read to the commit.
type TxRepository interface {
	GetMaterialForUpdate(ctx context.Context, materialID int64) (MaterialStock, error)
	UpdateMaterialStock(ctx context.Context, materialID int64, newQty float64) error
	InsertEntry(ctx context.Context, entry Entry) (int64, error)
	InsertExit(ctx context.Context, exit Exit) (int64, error)
	GetExitForUpdate(ctx context.Context, exitID int64) (Exit, error)
	MarkExitReturned(ctx context.Context, exitID int64, qty float64, at time.Time) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("movements repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) GetMaterialForUpdate(ctx context.Context, materialID int64) (MaterialStock, error) {
	var m MaterialStock
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, current_stock, minimum_stock, unit_price, is_active
FROM materials WHERE id = $1 FOR UPDATE`, materialID).
		Scan(&m.ID, &m.Code, &m.Name, &m.CurrentStock, &m.MinimumStock, &m.UnitPrice, &m.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MaterialStock{}, ErrMaterialNotFound
		}
		return MaterialStock{}, err
	}
	return m, nil
}

func (r *txRepository) UpdateMaterialStock(ctx context.Context, materialID int64, newQty float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE materials SET current_stock = $1, updated_at = NOW() WHERE id = $2`, newQty, materialID)
	return err
}

func (r *txRepository) InsertEntry(ctx context.Context, entry Entry) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO material_entries (code, material_id, entry_type, quantity, unit_price, total_value, vendor_id, invoice_ref, remarks, recorded_by, posted_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW()) RETURNING id`,
		entry.Code, entry.MaterialID, string(entry.Type), entry.Quantity, entry.UnitPrice, entry.TotalValue,
		entry.VendorID, nullStr(entry.InvoiceRef), entry.Remarks, entry.RecordedBy, entry.PostedAt).Scan(&id)
	return id, err
}

func (r *txRepository) InsertExit(ctx context.Context, exit Exit) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO material_exits (code, material_id, project_id, quantity, purpose, issued_to, approved_by, return_expected, remarks, recorded_by, posted_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW()) RETURNING id`,
		exit.Code, exit.MaterialID, exit.ProjectID, exit.Quantity, exit.Purpose, exit.IssuedTo,
		nullStr(exit.ApprovedBy), exit.ReturnExpected, exit.Remarks, exit.RecordedBy, exit.PostedAt).Scan(&id)
	return id, err
}

func (r *txRepository) GetExitForUpdate(ctx context.Context, exitID int64) (Exit, error) {
	e, err := scanExit(r.tx.QueryRow(ctx, `SELECT `+exitColumns+` FROM material_exits WHERE id = $1 FOR UPDATE`, exitID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Exit{}, ErrExitNotFound
	}
	return e, err
}

func (r *txRepository) MarkExitReturned(ctx context.Context, exitID int64, qty float64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE material_exits SET returned_qty = $1, returned_at = $2 WHERE id = $3`, qty, at, exitID)
	return err
}

const entryColumns = `id, code, material_id, entry_type, quantity, unit_price, total_value, vendor_id, invoice_ref, remarks, recorded_by, posted_at, created_at`

const exitColumns = `id, code, material_id, project_id, quantity, purpose, issued_to, approved_by, return_expected, returned_at, returned_qty, remarks, recorded_by, posted_at, created_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var invoiceRef *string
	err := row.Scan(&e.ID, &e.Code, &e.MaterialID, &e.Type, &e.Quantity, &e.UnitPrice, &e.TotalValue,
		&e.VendorID, &invoiceRef, &e.Remarks, &e.RecordedBy, &e.PostedAt, &e.CreatedAt)
	if invoiceRef != nil {
		e.InvoiceRef = *invoiceRef
	}
	return e, err
}

func scanExit(row pgx.Row) (Exit, error) {
	var e Exit
	var approvedBy *string
	var returnedQty *float64
	err := row.Scan(&e.ID, &e.Code, &e.MaterialID, &e.ProjectID, &e.Quantity, &e.Purpose, &e.IssuedTo,
		&approvedBy, &e.ReturnExpected, &e.ReturnedAt, &returnedQty, &e.Remarks, &e.RecordedBy, &e.PostedAt, &e.CreatedAt)
	if approvedBy != nil {
		e.ApprovedBy = *approvedBy
	}
	if returnedQty != nil {
		e.ReturnedQty = *returnedQty
	}
	return e, err
}

// GetEntry loads a single entry record.
func (r *Repository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	e, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM material_entries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return e, err
}

// GetExit loads a single exit record.
func (r *Repository) GetExit(ctx context.Context, id int64) (Exit, error) {
	e, err := scanExit(r.pool.QueryRow(ctx, `SELECT `+exitColumns+` FROM material_exits WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Exit{}, ErrExitNotFound
	}
	return e, err
}

// ListEntries returns entries ordered by posting time descending.
func (r *Repository) ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM material_entries WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.MaterialID > 0 {
		argCount++
		query += ` AND material_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.MaterialID)
	}
	if filter.VendorID != nil {
		argCount++
		query += ` AND vendor_id = $` + strconv.Itoa(argCount)
		args = append(args, *filter.VendorID)
	}
	if filter.Type != nil {
		argCount++
		query += ` AND entry_type = $` + strconv.Itoa(argCount)
		args = append(args, string(*filter.Type))
	}
	if !filter.From.IsZero() {
		argCount++
		query += ` AND posted_at >= $` + strconv.Itoa(argCount)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		argCount++
		query += ` AND posted_at <= $` + strconv.Itoa(argCount)
		args = append(args, filter.To)
	}
	query += ` ORDER BY posted_at DESC, id DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	if filter.Offset > 0 {
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListExits returns exits ordered by posting time descending.
func (r *Repository) ListExits(ctx context.Context, filter ExitFilter) ([]Exit, error) {
	query := `SELECT ` + exitColumns + ` FROM material_exits WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.MaterialID > 0 {
		argCount++
		query += ` AND material_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.MaterialID)
	}
	if filter.ProjectID != nil {
		argCount++
		query += ` AND project_id = $` + strconv.Itoa(argCount)
		args = append(args, *filter.ProjectID)
	}
	if !filter.From.IsZero() {
		argCount++
		query += ` AND posted_at >= $` + strconv.Itoa(argCount)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		argCount++
		query += ` AND posted_at <= $` + strconv.Itoa(argCount)
		args = append(args, filter.To)
	}
	query += ` ORDER BY posted_at DESC, id DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	if filter.Offset > 0 {
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exits := []Exit{}
	for rows.Next() {
		e, err := scanExit(rows)
		if err != nil {
			return nil, err
		}
		exits = append(exits, e)
	}
	return exits, rows.Err()
}

// GetMaterialStock reads the material's stock slice without locking.
func (r *Repository) GetMaterialStock(ctx context.Context, materialID int64) (MaterialStock, error) {
	var m MaterialStock
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, current_stock, minimum_stock, unit_price, is_active
FROM materials WHERE id = $1`, materialID).
		Scan(&m.ID, &m.Code, &m.Name, &m.CurrentStock, &m.MinimumStock, &m.UnitPrice, &m.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return MaterialStock{}, ErrMaterialNotFound
	}
	return m, err
}

// Ledger returns the combined movement history for one material,
// newest first, with signed quantities.
func (r *Repository) Ledger(ctx context.Context, materialID int64, limit int) ([]LedgerLine, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT posted_at, code, kind, type, quantity, value, actor, reference FROM (
SELECT posted_at, code, 'ENTRY' AS kind, entry_type AS type, quantity, total_value AS value, recorded_by AS actor, COALESCE(invoice_ref, '') AS reference, id FROM material_entries WHERE material_id = $1
UNION ALL
SELECT posted_at, code, 'EXIT' AS kind, CASE WHEN issued_to = $3 THEN 'ADJUSTMENT' ELSE 'ISSUE' END AS type, -quantity, 0, recorded_by, purpose, id FROM material_exits WHERE material_id = $1
) ledger ORDER BY posted_at DESC, id DESC LIMIT $2`, materialID, limit, AdjustmentIssuee)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []LedgerLine{}
	for rows.Next() {
		var l LedgerLine
		if err := rows.Scan(&l.PostedAt, &l.Code, &l.Kind, &l.Type, &l.Quantity, &l.Value, &l.Actor, &l.Reference); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// LedgerTotals sums committed movements per material; used by the
// integrity job to compare against the catalog counter.
func (r *Repository) LedgerTotals(ctx context.Context) (map[int64]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT material_id, SUM(qty) FROM (
SELECT material_id, quantity AS qty FROM material_entries
UNION ALL
SELECT material_id, -quantity FROM material_exits
) movements GROUP BY material_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[int64]float64)
	for rows.Next() {
		var id int64
		var qty float64
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		totals[id] = qty
	}
	return totals, rows.Err()
}

// StockLevels returns the catalog counter per material, active or not.
func (r *Repository) StockLevels(ctx context.Context) (map[int64]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, current_stock FROM materials`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make(map[int64]float64)
	for rows.Next() {
		var id int64
		var qty float64
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		levels[id] = qty
	}
	return levels, rows.Err()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

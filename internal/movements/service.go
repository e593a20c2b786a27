package movements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keystone-erp/keystone-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntry(ctx context.Context, id int64) (Entry, error)
	GetExit(ctx context.Context, id int64) (Exit, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)
	ListExits(ctx context.Context, filter ExitFilter) ([]Exit, error)
	GetMaterialStock(ctx context.Context, materialID int64) (MaterialStock, error)
	Ledger(ctx context.Context, materialID int64, limit int) ([]LedgerLine, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// StatsInvalidator is notified after every committed stock change.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// MetricsPort counts committed movements.
type MetricsPort interface {
	ObserveMovement(direction, result string)
}

// Service coordinates the stock adjustment operation. Each post is one
// repeatable-read transaction: lock the material row, validate against
// the locked value, write the ledger row, write the new quantity,
// commit. Nothing is observable until commit; any failure rolls back
// the whole unit.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	stats       StatsInvalidator
	metrics     MetricsPort
}

// NewService builds Service. audit, idempotency, stats, and metrics may be nil.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, stats StatsInvalidator, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, stats: stats, metrics: metrics}
}

// RecordEntryInput carries a validated inbound movement.
type RecordEntryInput struct {
	MaterialID int64
	Type       EntryType
	Quantity   float64
	UnitPrice  float64
	VendorID   *int64
	InvoiceRef string
	Remarks    string
	Actor      string
	Code       string
}

// RecordExitInput carries a validated outbound movement.
type RecordExitInput struct {
	MaterialID     int64
	Quantity       float64
	Purpose        string
	IssuedTo       string
	ProjectID      *int64
	ApprovedBy     string
	ReturnExpected bool
	Remarks        string
	Actor          string
	Code           string
}

// AdjustStockInput carries a manual correction.
type AdjustStockInput struct {
	MaterialID int64
	Quantity   float64
	Subtract   bool
	Reason     string
	Actor      string
}

// RecordEntry posts an inbound movement and credits the material's
// running quantity in the same transaction.
func (s *Service) RecordEntry(ctx context.Context, input RecordEntryInput) (Entry, error) {
	if input.MaterialID <= 0 {
		return Entry{}, ErrMaterialNotFound
	}
	if input.Quantity <= 0 {
		return Entry{}, ErrInvalidQuantity
	}
	if input.UnitPrice < 0 {
		return Entry{}, ErrInvalidUnitPrice
	}
	if !ValidEntryType(input.Type) {
		return Entry{}, ErrInvalidEntryType
	}

	now := time.Now().UTC()
	code := input.Code
	if code == "" {
		code = fmt.Sprintf("ENT-%s", uuid.NewString())
	}

	key := fmt.Sprintf("ENTRY:%s:%d", code, input.MaterialID)
	insertedKey, err := s.reserveKey(ctx, key)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Code:       code,
		MaterialID: input.MaterialID,
		Type:       input.Type,
		Quantity:   input.Quantity,
		UnitPrice:  input.UnitPrice,
		TotalValue: input.Quantity * input.UnitPrice,
		VendorID:   input.VendorID,
		InvoiceRef: input.InvoiceRef,
		Remarks:    input.Remarks,
		RecordedBy: input.Actor,
		PostedAt:   now,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		material, err := tx.GetMaterialForUpdate(ctx, input.MaterialID)
		if err != nil {
			return err
		}
		if !material.IsActive {
			return ErrMaterialInactive
		}
		id, err := tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		entry.ID = id
		return tx.UpdateMaterialStock(ctx, material.ID, material.CurrentStock+input.Quantity)
	})
	if err != nil {
		s.releaseKey(ctx, key, insertedKey)
		s.observe("in", "rejected")
		return Entry{}, err
	}
	entry.CreatedAt = now

	s.afterCommit(ctx, "in", shared.AuditLog{
		Actor:    input.Actor,
		Action:   fmt.Sprintf("movements:%s", input.Type),
		Entity:   "material_entry",
		EntityID: code,
		Meta: map[string]any{
			"material_id": input.MaterialID,
			"quantity":    input.Quantity,
			"unit_price":  input.UnitPrice,
			"total_value": entry.TotalValue,
		},
	})
	return entry, nil
}

// RecordExit posts an outbound movement and debits the material's
// running quantity in the same transaction. The insufficient-stock
// check runs against the row-locked value, so concurrent exits cannot
// jointly overdraw.
func (s *Service) RecordExit(ctx context.Context, input RecordExitInput) (Exit, error) {
	if input.MaterialID <= 0 {
		return Exit{}, ErrMaterialNotFound
	}
	if input.Quantity <= 0 {
		return Exit{}, ErrInvalidQuantity
	}
	if input.Purpose == "" || input.IssuedTo == "" {
		return Exit{}, errors.New("movements: purpose and issued_to required")
	}

	now := time.Now().UTC()
	code := input.Code
	if code == "" {
		code = fmt.Sprintf("EXT-%s", uuid.NewString())
	}

	key := fmt.Sprintf("EXIT:%s:%d", code, input.MaterialID)
	insertedKey, err := s.reserveKey(ctx, key)
	if err != nil {
		return Exit{}, err
	}

	exit := Exit{
		Code:           code,
		MaterialID:     input.MaterialID,
		ProjectID:      input.ProjectID,
		Quantity:       input.Quantity,
		Purpose:        input.Purpose,
		IssuedTo:       input.IssuedTo,
		ApprovedBy:     input.ApprovedBy,
		ReturnExpected: input.ReturnExpected,
		Remarks:        input.Remarks,
		RecordedBy:     input.Actor,
		PostedAt:       now,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		material, err := tx.GetMaterialForUpdate(ctx, input.MaterialID)
		if err != nil {
			return err
		}
		if !material.IsActive {
			return ErrMaterialInactive
		}
		newQty := material.CurrentStock - input.Quantity
		if newQty < -qtyEpsilon {
			return fmt.Errorf("%w: have %.3f, requested %.3f", ErrInsufficientStock, material.CurrentStock, input.Quantity)
		}
		if newQty < 0 {
			newQty = 0
		}
		id, err := tx.InsertExit(ctx, exit)
		if err != nil {
			return err
		}
		exit.ID = id
		return tx.UpdateMaterialStock(ctx, material.ID, newQty)
	})
	if err != nil {
		s.releaseKey(ctx, key, insertedKey)
		s.observe("out", "rejected")
		return Exit{}, err
	}
	exit.CreatedAt = now

	s.afterCommit(ctx, "out", shared.AuditLog{
		Actor:    input.Actor,
		Action:   "movements:ISSUE",
		Entity:   "material_exit",
		EntityID: code,
		Meta: map[string]any{
			"material_id": input.MaterialID,
			"quantity":    input.Quantity,
			"issued_to":   input.IssuedTo,
			"purpose":     input.Purpose,
		},
	})
	return exit, nil
}

// AdjustStock is the manual correction path. It stays ledgered: an
// addition posts an ADJUSTMENT entry, a subtraction posts an exit, so
// the ledger always sums to the catalog counter.
func (s *Service) AdjustStock(ctx context.Context, input AdjustStockInput) (LedgerLine, error) {
	if input.Quantity <= 0 {
		return LedgerLine{}, ErrInvalidQuantity
	}
	reason := input.Reason
	if reason == "" {
		reason = "manual stock correction"
	}
	if input.Subtract {
		exit, err := s.RecordExit(ctx, RecordExitInput{
			MaterialID: input.MaterialID,
			Quantity:   input.Quantity,
			Purpose:    reason,
			IssuedTo:   AdjustmentIssuee,
			Remarks:    reason,
			Actor:      input.Actor,
		})
		if err != nil {
			return LedgerLine{}, err
		}
		return LedgerLine{
			PostedAt: exit.PostedAt,
			Code:     exit.Code,
			Kind:     "EXIT",
			Type:     LedgerTypeAdjustment,
			Quantity: -exit.Quantity,
			Actor:    exit.RecordedBy,
		}, nil
	}

	entry, err := s.RecordEntry(ctx, RecordEntryInput{
		MaterialID: input.MaterialID,
		Type:       EntryTypeAdjustment,
		Quantity:   input.Quantity,
		Remarks:    reason,
		Actor:      input.Actor,
	})
	if err != nil {
		return LedgerLine{}, err
	}
	return LedgerLine{
		PostedAt: entry.PostedAt,
		Code:     entry.Code,
		Kind:     "ENTRY",
		Type:     string(entry.Type),
		Quantity: entry.Quantity,
		Value:    entry.TotalValue,
		Actor:    entry.RecordedBy,
	}, nil
}

// MarkExitReturn records a return against an exit that expected one and
// posts the compensating RETURN entry in the same transaction.
func (s *Service) MarkExitReturn(ctx context.Context, exitID int64, qty float64, actor string) (Exit, error) {
	if qty <= 0 {
		return Exit{}, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	var updated Exit
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exit, err := tx.GetExitForUpdate(ctx, exitID)
		if err != nil {
			return err
		}
		if !exit.ReturnExpected {
			return ErrReturnNotExpected
		}
		if exit.ReturnedAt != nil {
			return ErrAlreadyReturned
		}
		if qty > exit.Quantity+qtyEpsilon {
			return ErrReturnExceedsIssue
		}
		material, err := tx.GetMaterialForUpdate(ctx, exit.MaterialID)
		if err != nil {
			return err
		}
		if err := tx.MarkExitReturned(ctx, exitID, qty, now); err != nil {
			return err
		}
		entry := Entry{
			Code:       fmt.Sprintf("RET-%s", exit.Code),
			MaterialID: exit.MaterialID,
			Type:       EntryTypeReturn,
			Quantity:   qty,
			UnitPrice:  material.UnitPrice,
			TotalValue: qty * material.UnitPrice,
			Remarks:    fmt.Sprintf("return against exit %s", exit.Code),
			RecordedBy: actor,
			PostedAt:   now,
		}
		if _, err := tx.InsertEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.UpdateMaterialStock(ctx, material.ID, material.CurrentStock+qty); err != nil {
			return err
		}
		updated = exit
		updated.ReturnedAt = &now
		updated.ReturnedQty = qty
		return nil
	})
	if err != nil {
		s.observe("in", "rejected")
		return Exit{}, err
	}

	s.afterCommit(ctx, "in", shared.AuditLog{
		Actor:    actor,
		Action:   "movements:RETURN",
		Entity:   "material_exit",
		EntityID: updated.Code,
		Meta: map[string]any{
			"material_id": updated.MaterialID,
			"quantity":    qty,
		},
	})
	return updated, nil
}

// GetEntry loads one entry.
func (s *Service) GetEntry(ctx context.Context, id int64) (Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

// GetExit loads one exit.
func (s *Service) GetExit(ctx context.Context, id int64) (Exit, error) {
	return s.repo.GetExit(ctx, id)
}

// ListEntries lists entries, newest first.
func (s *Service) ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// ListExits lists exits, newest first.
func (s *Service) ListExits(ctx context.Context, filter ExitFilter) ([]Exit, error) {
	return s.repo.ListExits(ctx, filter)
}

// Ledger returns the combined movement history for one material along
// with its current running quantity.
func (s *Service) Ledger(ctx context.Context, materialID int64, limit int) (LedgerResponse, error) {
	if materialID <= 0 {
		return LedgerResponse{}, ErrMaterialNotFound
	}
	material, err := s.repo.GetMaterialStock(ctx, materialID)
	if err != nil {
		return LedgerResponse{}, err
	}
	lines, err := s.repo.Ledger(ctx, materialID, limit)
	if err != nil {
		return LedgerResponse{}, err
	}
	return LedgerResponse{
		MaterialID:   material.ID,
		CurrentStock: material.CurrentStock,
		Lines:        lines,
		AsOf:         time.Now().UTC(),
	}, nil
}

func (s *Service) reserveKey(ctx context.Context, key string) (bool, error) {
	if s.idempotency == nil {
		return false, nil
	}
	if err := s.idempotency.CheckAndInsert(ctx, key, "movements"); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) releaseKey(ctx context.Context, key string, inserted bool) {
	if inserted {
		_ = s.idempotency.Delete(ctx, key)
	}
}

func (s *Service) observe(direction, result string) {
	if s.metrics != nil {
		s.metrics.ObserveMovement(direction, result)
	}
}

func (s *Service) afterCommit(ctx context.Context, direction string, log shared.AuditLog) {
	s.observe(direction, "committed")
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, log)
	}
}

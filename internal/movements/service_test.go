package movements

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-memory ledger with the same locking discipline as
// the PostgreSQL repository: WithTx holds a mutex for the whole unit,
// and nothing mutates shared state until commit.
type memoryRepo struct {
	mu        sync.Mutex
	materials map[int64]MaterialStock
	entries   []Entry
	exits     []Exit
	nextID    int64

	failInsert bool
}

func newMemoryRepo(materials ...MaterialStock) *memoryRepo {
	repo := &memoryRepo{materials: map[int64]MaterialStock{}, nextID: 1}
	for _, m := range materials {
		repo.materials[m.ID] = m
	}
	return repo
}

type memoryTx struct {
	repo *memoryRepo

	stockWrites map[int64]float64
	newEntries  []Entry
	newExits    []Exit
	returns     map[int64]struct {
		qty float64
		at  time.Time
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := &memoryTx{
		repo:        r,
		stockWrites: map[int64]float64{},
		returns: map[int64]struct {
			qty float64
			at  time.Time
		}{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, qty := range tx.stockWrites {
		m := r.materials[id]
		m.CurrentStock = qty
		r.materials[id] = m
	}
	r.entries = append(r.entries, tx.newEntries...)
	r.exits = append(r.exits, tx.newExits...)
	for id, ret := range tx.returns {
		for i := range r.exits {
			if r.exits[i].ID == id {
				at := ret.at
				r.exits[i].ReturnedAt = &at
				r.exits[i].ReturnedQty = ret.qty
			}
		}
	}
	return nil
}

func (t *memoryTx) GetMaterialForUpdate(ctx context.Context, materialID int64) (MaterialStock, error) {
	m, ok := t.repo.materials[materialID]
	if !ok {
		return MaterialStock{}, ErrMaterialNotFound
	}
	if qty, written := t.stockWrites[materialID]; written {
		m.CurrentStock = qty
	}
	return m, nil
}

func (t *memoryTx) UpdateMaterialStock(ctx context.Context, materialID int64, newQty float64) error {
	t.stockWrites[materialID] = newQty
	return nil
}

func (t *memoryTx) InsertEntry(ctx context.Context, entry Entry) (int64, error) {
	if t.repo.failInsert {
		return 0, errors.New("insert failed")
	}
	t.repo.nextID++
	entry.ID = t.repo.nextID
	t.newEntries = append(t.newEntries, entry)
	return entry.ID, nil
}

func (t *memoryTx) InsertExit(ctx context.Context, exit Exit) (int64, error) {
	if t.repo.failInsert {
		return 0, errors.New("insert failed")
	}
	t.repo.nextID++
	exit.ID = t.repo.nextID
	t.newExits = append(t.newExits, exit)
	return exit.ID, nil
}

func (t *memoryTx) GetExitForUpdate(ctx context.Context, exitID int64) (Exit, error) {
	for _, e := range t.repo.exits {
		if e.ID == exitID {
			return e, nil
		}
	}
	return Exit{}, ErrExitNotFound
}

func (t *memoryTx) MarkExitReturned(ctx context.Context, exitID int64, qty float64, at time.Time) error {
	t.returns[exitID] = struct {
		qty float64
		at  time.Time
	}{qty: qty, at: at}
	return nil
}

func (r *memoryRepo) GetEntry(ctx context.Context, id int64) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrEntryNotFound
}

func (r *memoryRepo) GetExit(ctx context.Context, id int64) (Exit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.exits {
		if e.ID == id {
			return e, nil
		}
	}
	return Exit{}, ErrExitNotFound
}

func (r *memoryRepo) ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Entry{}
	for _, e := range r.entries {
		if filter.MaterialID > 0 && e.MaterialID != filter.MaterialID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryRepo) ListExits(ctx context.Context, filter ExitFilter) ([]Exit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Exit{}
	for _, e := range r.exits {
		if filter.MaterialID > 0 && e.MaterialID != filter.MaterialID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryRepo) GetMaterialStock(ctx context.Context, materialID int64) (MaterialStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.materials[materialID]
	if !ok {
		return MaterialStock{}, ErrMaterialNotFound
	}
	return m, nil
}

func (r *memoryRepo) Ledger(ctx context.Context, materialID int64, limit int) ([]LedgerLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := []LedgerLine{}
	for _, e := range r.entries {
		if e.MaterialID != materialID {
			continue
		}
		lines = append(lines, LedgerLine{PostedAt: e.PostedAt, Code: e.Code, Kind: "ENTRY", Type: string(e.Type), Quantity: e.Quantity, Value: e.TotalValue, Actor: e.RecordedBy})
	}
	for _, e := range r.exits {
		if e.MaterialID != materialID {
			continue
		}
		lineType := LedgerTypeIssue
		if e.IssuedTo == AdjustmentIssuee {
			lineType = LedgerTypeAdjustment
		}
		lines = append(lines, LedgerLine{PostedAt: e.PostedAt, Code: e.Code, Kind: "EXIT", Type: lineType, Quantity: -e.Quantity, Actor: e.RecordedBy})
	}
	return lines, nil
}

func (r *memoryRepo) stock(id int64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.materials[id].CurrentStock
}

type recordingMetrics struct {
	mu       sync.Mutex
	observed []string
}

func (m *recordingMetrics) ObserveMovement(direction, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed = append(m.observed, direction+":"+result)
}

func cement(stock float64) MaterialStock {
	return MaterialStock{ID: 1, Code: "MAT-0001", Name: "OPC 53 Cement", CurrentStock: stock, MinimumStock: 20, UnitPrice: 410, IsActive: true}
}

func TestRecordEntryCreditsStock(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	entry, err := svc.RecordEntry(context.Background(), RecordEntryInput{
		MaterialID: 1,
		Type:       EntryTypePurchase,
		Quantity:   50,
		UnitPrice:  10,
		Actor:      "storekeeper",
	})
	require.NoError(t, err)
	require.InDelta(t, 500.0, entry.TotalValue, 1e-9)
	require.InDelta(t, 150.0, repo.stock(1), 1e-9)
	require.Len(t, repo.entries, 1)
	require.Equal(t, EntryTypePurchase, repo.entries[0].Type)
}

func TestRecordEntryUnknownMaterial(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.RecordEntry(context.Background(), RecordEntryInput{
		MaterialID: 99,
		Type:       EntryTypePurchase,
		Quantity:   10,
		UnitPrice:  5,
	})
	require.ErrorIs(t, err, ErrMaterialNotFound)
	require.Empty(t, repo.entries)
	require.InDelta(t, 100.0, repo.stock(1), 1e-9)
}

func TestRecordEntryValidation(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.RecordEntry(context.Background(), RecordEntryInput{MaterialID: 1, Type: EntryTypePurchase, Quantity: 0, UnitPrice: 5})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.RecordEntry(context.Background(), RecordEntryInput{MaterialID: 1, Type: EntryTypePurchase, Quantity: 5, UnitPrice: -1})
	require.ErrorIs(t, err, ErrInvalidUnitPrice)

	_, err = svc.RecordEntry(context.Background(), RecordEntryInput{MaterialID: 1, Type: "DONATION", Quantity: 5})
	require.ErrorIs(t, err, ErrInvalidEntryType)
	require.Empty(t, repo.entries)
}

func TestRecordEntryInactiveMaterial(t *testing.T) {
	m := cement(100)
	m.IsActive = false
	repo := newMemoryRepo(m)
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.RecordEntry(context.Background(), RecordEntryInput{MaterialID: 1, Type: EntryTypePurchase, Quantity: 5, UnitPrice: 1})
	require.ErrorIs(t, err, ErrMaterialInactive)
	require.Empty(t, repo.entries)
}

func TestRecordExitDebitsStock(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	exit, err := svc.RecordExit(context.Background(), RecordExitInput{
		MaterialID: 1,
		Quantity:   40,
		Purpose:    "slab casting",
		IssuedTo:   "site-a",
		Actor:      "storekeeper",
	})
	require.NoError(t, err)
	require.InDelta(t, 40.0, exit.Quantity, 1e-9)
	require.InDelta(t, 60.0, repo.stock(1), 1e-9)
	require.Len(t, repo.exits, 1)
}

func TestRecordExitExactBalance(t *testing.T) {
	repo := newMemoryRepo(cement(40))
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.RecordExit(context.Background(), RecordExitInput{MaterialID: 1, Quantity: 40, Purpose: "use", IssuedTo: "site-a"})
	require.NoError(t, err)
	require.InDelta(t, 0.0, repo.stock(1), 1e-9)
}

func TestRecordExitOverdrawRejectedAtomically(t *testing.T) {
	repo := newMemoryRepo(cement(10))
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.RecordExit(context.Background(), RecordExitInput{MaterialID: 1, Quantity: 11, Purpose: "use", IssuedTo: "site-a"})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Empty(t, repo.exits, "rejected exit must leave no ledger row")
	require.InDelta(t, 10.0, repo.stock(1), 1e-9)
}

func TestConcurrentExitsOnlyOneSucceeds(t *testing.T) {
	repo := newMemoryRepo(cement(10))
	svc := NewService(repo, nil, nil, nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RecordExit(context.Background(), RecordExitInput{
				MaterialID: 1,
				Quantity:   6,
				Purpose:    "use",
				IssuedTo:   "site-a",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one of two concurrent exits of 6 against 10 may commit")
	require.InDelta(t, 4.0, repo.stock(1), 1e-9)
	require.Len(t, repo.exits, 1)
}

func TestRecordEntryRollsBackStockOnInsertFailure(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	repo.failInsert = true
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.RecordEntry(context.Background(), RecordEntryInput{MaterialID: 1, Type: EntryTypePurchase, Quantity: 5, UnitPrice: 1})
	require.Error(t, err)
	require.InDelta(t, 100.0, repo.stock(1), 1e-9)
	require.Empty(t, repo.entries)
}

func TestAdjustStockAddIsLedgered(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	line, err := svc.AdjustStock(context.Background(), AdjustStockInput{MaterialID: 1, Quantity: 7, Reason: "cycle count surplus", Actor: "auditor"})
	require.NoError(t, err)
	require.Equal(t, "ENTRY", line.Kind)
	require.Equal(t, string(EntryTypeAdjustment), line.Type)
	require.InDelta(t, 107.0, repo.stock(1), 1e-9)
	require.Len(t, repo.entries, 1)
	require.Equal(t, EntryTypeAdjustment, repo.entries[0].Type)
}

func TestAdjustStockSubtractIsLedgered(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	line, err := svc.AdjustStock(context.Background(), AdjustStockInput{MaterialID: 1, Quantity: 7, Subtract: true, Reason: "damaged bags", Actor: "auditor"})
	require.NoError(t, err)
	require.Equal(t, "EXIT", line.Kind)
	require.Equal(t, LedgerTypeAdjustment, line.Type)
	require.InDelta(t, -7.0, line.Quantity, 1e-9)
	require.InDelta(t, 93.0, repo.stock(1), 1e-9)
	require.Len(t, repo.exits, 1)
}

func TestLedgerDistinguishesCorrectionsFromIssues(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.RecordExit(context.Background(), RecordExitInput{MaterialID: 1, Quantity: 20, Purpose: "slab casting", IssuedTo: "site-a"})
	require.NoError(t, err)
	_, err = svc.AdjustStock(context.Background(), AdjustStockInput{MaterialID: 1, Quantity: 7, Subtract: true, Reason: "damaged bags"})
	require.NoError(t, err)

	ledger, err := svc.Ledger(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, ledger.Lines, 2)

	types := map[string]int{}
	for _, line := range ledger.Lines {
		require.Equal(t, "EXIT", line.Kind)
		types[line.Type]++
	}
	require.Equal(t, 1, types[LedgerTypeIssue])
	require.Equal(t, 1, types[LedgerTypeAdjustment])
}

func TestAdjustStockSubtractBelowZeroRejected(t *testing.T) {
	repo := newMemoryRepo(cement(5))
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.AdjustStock(context.Background(), AdjustStockInput{MaterialID: 1, Quantity: 6, Subtract: true})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.InDelta(t, 5.0, repo.stock(1), 1e-9)
	require.Empty(t, repo.exits)
}

func TestMarkExitReturn(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	exit, err := svc.RecordExit(context.Background(), RecordExitInput{
		MaterialID:     1,
		Quantity:       30,
		Purpose:        "scaffolding",
		IssuedTo:       "site-b",
		ReturnExpected: true,
	})
	require.NoError(t, err)
	require.InDelta(t, 70.0, repo.stock(1), 1e-9)

	updated, err := svc.MarkExitReturn(context.Background(), exit.ID, 30, "storekeeper")
	require.NoError(t, err)
	require.NotNil(t, updated.ReturnedAt)
	require.InDelta(t, 30.0, updated.ReturnedQty, 1e-9)
	require.InDelta(t, 100.0, repo.stock(1), 1e-9)

	// compensating RETURN entry posted
	require.Len(t, repo.entries, 1)
	require.Equal(t, EntryTypeReturn, repo.entries[0].Type)

	// second return refused
	_, err = svc.MarkExitReturn(context.Background(), exit.ID, 30, "storekeeper")
	require.ErrorIs(t, err, ErrAlreadyReturned)
}

func TestMarkExitReturnRules(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	noReturn, err := svc.RecordExit(context.Background(), RecordExitInput{MaterialID: 1, Quantity: 10, Purpose: "use", IssuedTo: "site-a"})
	require.NoError(t, err)
	_, err = svc.MarkExitReturn(context.Background(), noReturn.ID, 10, "storekeeper")
	require.ErrorIs(t, err, ErrReturnNotExpected)

	expected, err := svc.RecordExit(context.Background(), RecordExitInput{MaterialID: 1, Quantity: 10, Purpose: "use", IssuedTo: "site-a", ReturnExpected: true})
	require.NoError(t, err)
	_, err = svc.MarkExitReturn(context.Background(), expected.ID, 11, "storekeeper")
	require.ErrorIs(t, err, ErrReturnExceedsIssue)

	_, err = svc.MarkExitReturn(context.Background(), 9999, 1, "storekeeper")
	require.ErrorIs(t, err, ErrExitNotFound)
}

func TestGetExitReturnsStableSnapshot(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	exit, err := svc.RecordExit(context.Background(), RecordExitInput{MaterialID: 1, Quantity: 10, Purpose: "use", IssuedTo: "site-a"})
	require.NoError(t, err)

	first, err := svc.GetExit(context.Background(), exit.ID)
	require.NoError(t, err)
	second, err := svc.GetExit(context.Background(), exit.ID)
	require.NoError(t, err)
	require.Equal(t, first, second, "reads without intervening writes must match")
}

func TestMovementMetricsObserved(t *testing.T) {
	repo := newMemoryRepo(cement(10))
	metrics := &recordingMetrics{}
	svc := NewService(repo, nil, nil, nil, metrics)

	_, err := svc.RecordEntry(context.Background(), RecordEntryInput{MaterialID: 1, Type: EntryTypePurchase, Quantity: 5, UnitPrice: 1})
	require.NoError(t, err)
	_, err = svc.RecordExit(context.Background(), RecordExitInput{MaterialID: 1, Quantity: 100, Purpose: "use", IssuedTo: "site-a"})
	require.ErrorIs(t, err, ErrInsufficientStock)

	require.Equal(t, []string{"in:committed", "out:rejected"}, metrics.observed)
}

func TestLedgerIncludesBothDirections(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.RecordEntry(context.Background(), RecordEntryInput{MaterialID: 1, Type: EntryTypePurchase, Quantity: 50, UnitPrice: 10})
	require.NoError(t, err)
	_, err = svc.RecordExit(context.Background(), RecordExitInput{MaterialID: 1, Quantity: 20, Purpose: "use", IssuedTo: "site-a"})
	require.NoError(t, err)

	ledger, err := svc.Ledger(context.Background(), 1, 0)
	require.NoError(t, err)
	require.InDelta(t, 130.0, ledger.CurrentStock, 1e-9)
	require.Len(t, ledger.Lines, 2)

	var sum float64
	for _, line := range ledger.Lines {
		sum += line.Quantity
	}
	require.InDelta(t, 30.0, sum, 1e-9)
}

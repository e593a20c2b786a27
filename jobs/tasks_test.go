package jobs

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/keystone-erp/keystone-erp/internal/materials"
	"github.com/keystone-erp/keystone-erp/internal/shared"
)

type fakeLowStock struct {
	items []materials.Material
}

func (f fakeLowStock) LowStock(ctx context.Context) ([]materials.Material, error) {
	return f.items, nil
}

type fakeAudit struct {
	logs []shared.AuditLog
}

func (f *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

type fakeLedger struct {
	totals map[int64]float64
	levels map[int64]float64
}

func (f fakeLedger) LedgerTotals(ctx context.Context) (map[int64]float64, error) {
	return f.totals, nil
}

func (f fakeLedger) StockLevels(ctx context.Context) (map[int64]float64, error) {
	return f.levels, nil
}

type fakeCleaner struct {
	got time.Duration
}

func (f *fakeCleaner) Cleanup(ctx context.Context, olderThan time.Duration) error {
	f.got = olderThan
	return nil
}

func testLogger(buf *strings.Builder) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestLowStockScanHandler(t *testing.T) {
	task, err := NewLowStockScanTask(time.Now())
	require.NoError(t, err)

	audit := &fakeAudit{}
	var buf strings.Builder
	handler := NewLowStockScanHandler(fakeLowStock{items: []materials.Material{
		{Code: "MAT-0001", Name: "Cement", CurrentStock: 5, MinimumStock: 20},
	}}, audit, testLogger(&buf))

	require.NoError(t, handler(context.Background(), task))
	require.Contains(t, buf.String(), "MAT-0001")
	require.Len(t, audit.logs, 1)
	require.Equal(t, "jobs:"+TaskLowStockScan, audit.logs[0].Action)
}

func TestLowStockScanHandlerBadPayload(t *testing.T) {
	task := asynq.NewTask(TaskLowStockScan, []byte("{"))
	handler := NewLowStockScanHandler(fakeLowStock{}, nil, testLogger(&strings.Builder{}))
	require.ErrorIs(t, handler(context.Background(), task), asynq.SkipRetry)
}

func TestLedgerIntegrityHandlerReportsDrift(t *testing.T) {
	task, err := NewLedgerIntegrityTask(time.Now())
	require.NoError(t, err)

	var buf strings.Builder
	handler := NewLedgerIntegrityHandler(fakeLedger{
		// material 1: counter 150 = opening 100 + ledger 50, clean
		// material 2: counter 10 below ledger sum 40, drifted
		// material 3: ledger row without a material row
		totals: map[int64]float64{1: 50, 2: 40, 3: 5},
		levels: map[int64]float64{1: 150, 2: 10},
	}, testLogger(&buf))

	require.NoError(t, handler(context.Background(), task))
	out := buf.String()
	require.Contains(t, out, "stock counter below ledger sum")
	require.Contains(t, out, "ledger references missing material")
	require.Contains(t, out, "drifted=2")
}

func TestIdempotencyCleanupHandler(t *testing.T) {
	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)

	cleaner := &fakeCleaner{}
	handler := NewIdempotencyCleanupHandler(cleaner, testLogger(&strings.Builder{}))
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, 48*time.Hour, cleaner.got)
}

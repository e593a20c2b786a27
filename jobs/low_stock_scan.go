package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/keystone-erp/keystone-erp/internal/materials"
	"github.com/keystone-erp/keystone-erp/internal/shared"
)

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs the nightly low-stock scan task.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// LowStockLister reads materials at or below their minimum stock.
type LowStockLister interface {
	LowStock(ctx context.Context) ([]materials.Material, error)
}

// AuditRecorder writes audit rows for job outcomes.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewLowStockScanHandler builds the stock:low_scan handler.
func NewLowStockScanHandler(repo LowStockLister, audit AuditRecorder, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LowStockScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		low, err := repo.LowStock(ctx)
		if err != nil {
			return err
		}
		for _, m := range low {
			logger.Warn("material at or below minimum stock",
				slog.String("code", m.Code),
				slog.String("name", m.Name),
				slog.Float64("current_stock", m.CurrentStock),
				slog.Float64("minimum_stock", m.MinimumStock))
		}
		logger.Info("low stock scan completed", slog.Int("flagged", len(low)))
		if audit != nil {
			_ = audit.Record(ctx, shared.AuditLog{
				Actor:    "system",
				Action:   "jobs:" + TaskLowStockScan,
				Entity:   "material",
				EntityID: "*",
				Meta:     map[string]any{"flagged": len(low)},
			})
		}
		return nil
	}
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpiringStock finds in-stock lots expiring on or before a cutoff.
type ExpiringStock interface {
	FindExpiring(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]inventory.InventoryItem, error)
}

// ExpiryScanExecutor publishes one InventoryExpiring event per tenant listing
// the lots that expire within the window. Tenants with nothing expiring
// produce no event.
type ExpiryScanExecutor struct {
	stock     ExpiringStock
	publisher shared.EventPublisher
	window    time.Duration
	logger    *zap.Logger
}

// NewExpiryScanExecutor creates the executor for JobKindExpiryScan jobs.
func NewExpiryScanExecutor(stock ExpiringStock, publisher shared.EventPublisher, window time.Duration, logger *zap.Logger) *ExpiryScanExecutor {
	return &ExpiryScanExecutor{
		stock:     stock,
		publisher: publisher,
		window:    window,
		logger:    logger,
	}
}

// Execute implements JobExecutor.
func (e *ExpiryScanExecutor) Execute(ctx context.Context, job *Job) error {
	if job.Kind != JobKindExpiryScan {
		return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
	}

	cutoff := job.AsOf.Add(e.window)
	items, err := e.stock.FindExpiring(ctx, job.TenantID, cutoff)
	if err != nil {
		return fmt.Errorf("find expiring stock: %w", err)
	}

	event := inventory.NewInventoryExpiringEvent(job.TenantID, cutoff, items)
	if len(event.Lots) == 0 {
		e.logger.Debug("No expiring lots",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Time("cutoff", cutoff),
		)
		return nil
	}

	if err := e.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish expiring lots: %w", err)
	}
	e.logger.Info("Expiring lots reported",
		zap.String("tenant_id", job.TenantID.String()),
		zap.Int("lots", len(event.Lots)),
		zap.Time("cutoff", cutoff),
	)
	return nil
}

var _ JobExecutor = (*ExpiryScanExecutor)(nil)

package inventory

import (
	"context"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter keys understood by InventoryItemRepository.FindAll.
const (
	FilterProductID     = "product_id"
	FilterLocationID    = "location_id"
	FilterSubLocationID = "sub_location_id"
)

// InventoryItemRepository persists lot rows. FindAll and Count only return
// rows with quantity on hand.
type InventoryItemRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*InventoryItem, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]InventoryItem, error)

	// FindDestination finds the row a transfer should merge into: same
	// product and lot at exactly the given location and sub-location. A nil
	// subLocationID matches rows held at the location itself.
	FindDestination(ctx context.Context, tenantID, productID uuid.UUID, lotNumber string, locationID uuid.UUID, subLocationID *uuid.UUID) (*InventoryItem, error)

	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]InventoryItem, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindExpiring returns in-stock rows whose expiration date is on or
	// before the cutoff, soonest first.
	FindExpiring(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]InventoryItem, error)

	// SumOnHandByProduct totals quantity on hand per product.
	SumOnHandByProduct(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// Create inserts a new row.
	Create(ctx context.Context, item *InventoryItem) error

	// SaveWithLock updates the row, failing with CONCURRENCY_CONFLICT when
	// the stored version no longer matches.
	SaveWithLock(ctx context.Context, item *InventoryItem) error
}

// InventoryHeaderRepository persists receipt headers.
type InventoryHeaderRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*InventoryHeader, error)
	Save(ctx context.Context, header *InventoryHeader) error
	CountItems(ctx context.Context, tenantID, id uuid.UUID) (int64, error)
}

// InventoryTransferRepository persists transfer records.
type InventoryTransferRepository interface {
	Save(ctx context.Context, transfer *InventoryTransfer) error
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]InventoryTransfer, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// InventoryDispenseRepository persists dispense records.
type InventoryDispenseRepository interface {
	Save(ctx context.Context, dispense *InventoryDispense) error
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]InventoryDispense, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// InventoryTransactionRepository appends to and reads the ledger.
type InventoryTransactionRepository interface {
	CreateBatch(ctx context.Context, entries []*InventoryTransaction) error
	FindByInventoryItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID, filter shared.Filter) ([]InventoryTransaction, error)
	CountByInventoryItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID) (int64, error)
}

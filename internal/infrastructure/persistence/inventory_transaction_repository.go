package persistence

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ledgerBatchSize = 100

// GormInventoryTransactionRepository stores the append-only stock ledger
type GormInventoryTransactionRepository struct {
	db *gorm.DB
}

// NewGormInventoryTransactionRepository creates a new GormInventoryTransactionRepository
func NewGormInventoryTransactionRepository(db *gorm.DB) *GormInventoryTransactionRepository {
	return &GormInventoryTransactionRepository{db: db}
}

// CreateBatch appends ledger rows
func (r *GormInventoryTransactionRepository) CreateBatch(ctx context.Context, entries []*inventory.InventoryTransaction) error {
	if len(entries) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).CreateInBatches(entries, ledgerBatchSize).Error)
}

// FindByInventoryItem returns the ledger of one lot row, newest first
func (r *GormInventoryTransactionRepository) FindByInventoryItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID, filter shared.Filter) ([]inventory.InventoryTransaction, error) {
	entries := []inventory.InventoryTransaction{}
	query := r.byItem(ctx, tenantID, inventoryItemID)
	err := transactionSort.apply(query, "inventory_transactions", filter).Find(&entries).Error
	return entries, translate(err)
}

// CountByInventoryItem counts the ledger rows of one lot row
func (r *GormInventoryTransactionRepository) CountByInventoryItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID) (int64, error) {
	var total int64
	err := r.byItem(ctx, tenantID, inventoryItemID).Count(&total).Error
	return total, translate(err)
}

func (r *GormInventoryTransactionRepository) byItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&inventory.InventoryTransaction{}).
		Scopes(tenant.Scope(tenantID)).
		Where("inventory_item_id = ?", inventoryItemID)
}

var _ inventory.InventoryTransactionRepository = (*GormInventoryTransactionRepository)(nil)

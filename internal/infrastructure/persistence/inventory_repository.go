package persistence

import (
	"context"
	"time"

	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInventoryItemRepository implements InventoryItemRepository using GORM
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

func (r *GormInventoryItemRepository) scoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&inventory.InventoryItem{}).Scopes(tenant.Scope(tenantID))
}

// FindByID finds a lot row within a tenant
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.scoped(ctx, tenantID).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// FindByIDs loads lot rows by ID; missing ones are skipped
func (r *GormInventoryItemRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	items := []inventory.InventoryItem{}
	if len(ids) == 0 {
		return items, nil
	}
	err := r.scoped(ctx, tenantID).Where("id IN ?", ids).Find(&items).Error
	return items, translate(err)
}

// FindDestination finds the row a transfer should merge into: same product and
// lot at exactly the given location and sub-location.
func (r *GormInventoryItemRepository) FindDestination(ctx context.Context, tenantID, productID uuid.UUID, lotNumber string, locationID uuid.UUID, subLocationID *uuid.UUID) (*inventory.InventoryItem, error) {
	query := r.scoped(ctx, tenantID).
		Where("product_id = ? AND lot_number = ? AND location_id = ?", productID, lotNumber, locationID)
	if subLocationID != nil {
		query = query.Where("sub_location_id = ?", *subLocationID)
	} else {
		query = query.Where("sub_location_id IS NULL")
	}

	var item inventory.InventoryItem
	if err := query.Order("created_at ASC").First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// FindAll lists in-stock rows
func (r *GormInventoryItemRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryItem, error) {
	items := []inventory.InventoryItem{}
	err := inventorySort.apply(r.inStock(ctx, tenantID, filter), "inventory_items", filter).Find(&items).Error
	return items, translate(err)
}

// Count counts in-stock rows matching filter
func (r *GormInventoryItemRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var total int64
	err := r.inStock(ctx, tenantID, filter).Count(&total).Error
	return total, translate(err)
}

// FindExpiring lists in-stock rows whose expiration date is on or before
// cutoff, soonest first. Already expired rows are included.
func (r *GormInventoryItemRepository) FindExpiring(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]inventory.InventoryItem, error) {
	items := []inventory.InventoryItem{}
	err := r.scoped(ctx, tenantID).
		Where("quantity_on_hand > 0 AND expiration_date IS NOT NULL AND expiration_date <= ?", cutoff).
		Order("expiration_date ASC").
		Find(&items).Error
	return items, translate(err)
}

// SumOnHandByProduct totals stock per product. Products without rows are absent.
func (r *GormInventoryItemRepository) SumOnHandByProduct(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	sums := make(map[uuid.UUID]decimal.Decimal, len(productIDs))
	if len(productIDs) == 0 {
		return sums, nil
	}
	var rows []struct {
		ProductID uuid.UUID
		OnHand    decimal.Decimal
	}
	err := r.scoped(ctx, tenantID).
		Select("product_id, COALESCE(SUM(quantity_on_hand), 0) AS on_hand").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, row := range rows {
		sums[row.ProductID] = row.OnHand
	}
	return sums, nil
}

// Create inserts a new lot row
func (r *GormInventoryItemRepository) Create(ctx context.Context, item *inventory.InventoryItem) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

// SaveWithLock writes the quantity change of a row whose version the domain
// has already incremented. A concurrent writer makes it fail with
// ErrConcurrencyConflict.
func (r *GormInventoryItemRepository) SaveWithLock(ctx context.Context, item *inventory.InventoryItem) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryItem{}).
		Where("id = ? AND tenant_id = ? AND version = ?", item.ID, item.TenantID, item.Version-1).
		Updates(map[string]any{
			"quantity_on_hand": item.QuantityOnHand,
			"version":          item.Version,
			"updated_at":       item.UpdatedAt,
		})
	return checkLocked(result)
}

func (r *GormInventoryItemRepository) inStock(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.scoped(ctx, tenantID).Where("quantity_on_hand > 0")
	for key, value := range filter.Filters {
		switch key {
		case inventory.FilterProductID:
			query = query.Where("product_id = ?", value)
		case inventory.FilterLocationID:
			query = query.Where("location_id = ?", value)
		case inventory.FilterSubLocationID:
			query = query.Where("sub_location_id = ?", value)
		}
	}
	return query
}

// GormInventoryHeaderRepository implements InventoryHeaderRepository using GORM
type GormInventoryHeaderRepository struct {
	db *gorm.DB
}

// NewGormInventoryHeaderRepository creates a new GormInventoryHeaderRepository
func NewGormInventoryHeaderRepository(db *gorm.DB) *GormInventoryHeaderRepository {
	return &GormInventoryHeaderRepository{db: db}
}

// FindByID finds a receipt header within a tenant
func (r *GormInventoryHeaderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryHeader, error) {
	var header inventory.InventoryHeader
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		First(&header, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &header, nil
}

// Save creates or updates a receipt header
func (r *GormInventoryHeaderRepository) Save(ctx context.Context, header *inventory.InventoryHeader) error {
	return translate(r.db.WithContext(ctx).Save(header).Error)
}

// CountItems counts the lot rows received under a header
func (r *GormInventoryHeaderRepository) CountItems(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&inventory.InventoryItem{}).Scopes(tenant.Scope(tenantID)).
		Where("header_id = ?", id).
		Count(&count).Error
	return count, translate(err)
}

// GormInventoryTransferRepository implements InventoryTransferRepository using GORM
type GormInventoryTransferRepository struct {
	db *gorm.DB
}

// NewGormInventoryTransferRepository creates a new GormInventoryTransferRepository
func NewGormInventoryTransferRepository(db *gorm.DB) *GormInventoryTransferRepository {
	return &GormInventoryTransferRepository{db: db}
}

// Save records a transfer
func (r *GormInventoryTransferRepository) Save(ctx context.Context, transfer *inventory.InventoryTransfer) error {
	return translate(r.db.WithContext(ctx).Create(transfer).Error)
}

// FindAll lists transfers, newest first
func (r *GormInventoryTransferRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryTransfer, error) {
	transfers := []inventory.InventoryTransfer{}
	query := r.db.WithContext(ctx).Model(&inventory.InventoryTransfer{}).Scopes(tenant.Scope(tenantID))
	err := transferSort.apply(query, "inventory_transfers", filter).Find(&transfers).Error
	return transfers, translate(err)
}

// Count counts transfers
func (r *GormInventoryTransferRepository) Count(ctx context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&inventory.InventoryTransfer{}).Scopes(tenant.Scope(tenantID)).Count(&total).Error
	return total, translate(err)
}

// GormInventoryDispenseRepository implements InventoryDispenseRepository using GORM
type GormInventoryDispenseRepository struct {
	db *gorm.DB
}

// NewGormInventoryDispenseRepository creates a new GormInventoryDispenseRepository
func NewGormInventoryDispenseRepository(db *gorm.DB) *GormInventoryDispenseRepository {
	return &GormInventoryDispenseRepository{db: db}
}

// Save records a dispense
func (r *GormInventoryDispenseRepository) Save(ctx context.Context, dispense *inventory.InventoryDispense) error {
	return translate(r.db.WithContext(ctx).Create(dispense).Error)
}

// FindAll lists dispenses, newest first
func (r *GormInventoryDispenseRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryDispense, error) {
	dispenses := []inventory.InventoryDispense{}
	query := r.db.WithContext(ctx).Model(&inventory.InventoryDispense{}).Scopes(tenant.Scope(tenantID))
	err := dispenseSort.apply(query, "inventory_dispenses", filter).Find(&dispenses).Error
	return dispenses, translate(err)
}

// Count counts dispenses
func (r *GormInventoryDispenseRepository) Count(ctx context.Context, tenantID uuid.UUID, _ shared.Filter) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&inventory.InventoryDispense{}).Scopes(tenant.Scope(tenantID)).Count(&total).Error
	return total, translate(err)
}

var (
	_ inventory.InventoryItemRepository     = (*GormInventoryItemRepository)(nil)
	_ inventory.InventoryHeaderRepository   = (*GormInventoryHeaderRepository)(nil)
	_ inventory.InventoryTransferRepository = (*GormInventoryTransferRepository)(nil)
	_ inventory.InventoryDispenseRepository = (*GormInventoryDispenseRepository)(nil)
)

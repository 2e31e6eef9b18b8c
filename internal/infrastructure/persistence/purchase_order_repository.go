package persistence

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/domain/trade"
	"github.com/clinicledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func (r *GormPurchaseOrderRepository) scoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).Scopes(tenant.Scope(tenantID))
}

// FindByID loads a purchase order with its items
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var order trade.PurchaseOrder
	err := r.scoped(ctx, tenantID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// FindAll lists orders without items, highest number first
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	orders := []trade.PurchaseOrder{}
	err := purchaseOrderSort.apply(r.filtered(ctx, tenantID, filter), "purchase_orders", filter).Find(&orders).Error
	return orders, translate(err)
}

// Count counts orders matching filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var total int64
	err := r.filtered(ctx, tenantID, filter).Count(&total).Error
	return total, translate(err)
}

// MaxNumber returns the highest order number of the tenant, or 0
func (r *GormPurchaseOrderRepository) MaxNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var maxNumber int
	err := r.scoped(ctx, tenantID).Select("COALESCE(MAX(order_number), 0)").Scan(&maxNumber).Error
	return maxNumber, translate(err)
}

// Create inserts a draft order with its items
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *trade.PurchaseOrder) error {
	return translate(r.db.WithContext(ctx).Create(order).Error)
}

// AddItems inserts new lines and stores the new total while the order is DRAFT
func (r *GormPurchaseOrderRepository) AddItems(ctx context.Context, order *trade.PurchaseOrder, items []trade.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return translate(err)
			}
		}
		result := tx.Model(&trade.PurchaseOrder{}).
			Where("id = ? AND tenant_id = ? AND status = ?", order.ID, order.TenantID, trade.StatusDraft).
			Updates(map[string]any{
				"total":      order.Total,
				"updated_at": order.UpdatedAt,
			})
		return checkLocked(result)
	})
}

// SaveWithLock stores a status change guarded by the aggregate version
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	result := r.db.WithContext(ctx).
		Model(&trade.PurchaseOrder{}).
		Omit(clause.Associations).
		Where("id = ? AND tenant_id = ? AND version = ?", order.ID, order.TenantID, order.Version-1).
		Updates(map[string]any{
			"status":       order.Status,
			"notes":        order.Notes,
			"total":        order.Total,
			"document_key": order.DocumentKey,
			"posted_at":    order.PostedAt,
			"received_at":  order.ReceivedAt,
			"cancelled_at": order.CancelledAt,
			"version":      order.Version,
			"updated_at":   order.UpdatedAt,
		})
	return checkLocked(result)
}

func (r *GormPurchaseOrderRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.scoped(ctx, tenantID)
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "vendor_id":
			query = query.Where("vendor_id = ?", value)
		}
	}
	return query
}

var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)

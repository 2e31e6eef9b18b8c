package persistence

import (
	"context"
	"strings"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product within a tenant. Soft-deleted products are not found.
func (r *GormProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// FindByIDs loads the products with the given IDs; missing ones are skipped
func (r *GormProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	products := []catalog.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", ids).
		Find(&products).Error
	return products, translate(err)
}

// FindAll lists products, most recently updated first
func (r *GormProductRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	products := []catalog.Product{}
	query := productSort.apply(r.query(ctx, tenantID, filter), "products", filter)
	if err := query.Find(&products).Error; err != nil {
		return nil, translate(err)
	}
	return products, nil
}

// Count counts products matching filter
func (r *GormProductRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var total int64
	err := r.query(ctx, tenantID, filter).Count(&total).Error
	return total, translate(err)
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return translate(r.db.WithContext(ctx).Save(product).Error)
}

// Delete soft-deletes a product
func (r *GormProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Delete(&catalog.Product{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) query(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&catalog.Product{}).Scopes(tenant.Scope(tenantID))
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern, pattern)
	}
	if productType, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", productType)
	}
	if skus, ok := filter.Filters["skus"].([]string); ok {
		lowered := make([]string, len(skus))
		for i, sku := range skus {
			lowered[i] = strings.ToLower(sku)
		}
		query = query.Where("LOWER(sku) IN ?", lowered)
	}
	return query
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

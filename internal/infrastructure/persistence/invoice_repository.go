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

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) scoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&trade.Invoice{}).Scopes(tenant.Scope(tenantID))
}

// FindByID loads an invoice with its items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.Invoice, error) {
	var inv trade.Invoice
	err := r.scoped(ctx, tenantID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

// FindAll lists invoice headers without items, highest number first
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.Invoice, error) {
	invoices := []trade.Invoice{}
	err := invoiceSort.apply(r.filtered(ctx, tenantID, filter), "invoices", filter).Find(&invoices).Error
	return invoices, translate(err)
}

// Count counts invoices matching filter
func (r *GormInvoiceRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var total int64
	err := r.filtered(ctx, tenantID, filter).Count(&total).Error
	return total, translate(err)
}

// CountPostedByPatient counts the posted invoices billed to a patient
func (r *GormInvoiceRepository) CountPostedByPatient(ctx context.Context, tenantID, patientID uuid.UUID) (int64, error) {
	var total int64
	err := r.scoped(ctx, tenantID).
		Where("patient_id = ? AND status = ?", patientID, trade.StatusPosted).
		Count(&total).Error
	return total, translate(err)
}

// MaxNumber returns the highest invoice number of the tenant, or 0
func (r *GormInvoiceRepository) MaxNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var maxNumber int
	err := r.scoped(ctx, tenantID).Select("COALESCE(MAX(invoice_number), 0)").Scan(&maxNumber).Error
	return maxNumber, translate(err)
}

// Create inserts a draft invoice with its items. A number taken by a
// concurrent writer surfaces as ErrAlreadyExists.
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *trade.Invoice) error {
	return translate(r.db.WithContext(ctx).Create(inv).Error)
}

// AddItems inserts new lines and stores the recalculated totals. Fails with
// ErrConcurrencyConflict if the invoice left DRAFT meanwhile.
func (r *GormInvoiceRepository) AddItems(ctx context.Context, inv *trade.Invoice, items []trade.InvoiceItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return translate(err)
			}
		}
		result := tx.Model(&trade.Invoice{}).
			Where("id = ? AND tenant_id = ? AND status = ?", inv.ID, inv.TenantID, trade.StatusDraft).
			Updates(map[string]any{
				"subtotal":   inv.Subtotal,
				"total":      inv.Total,
				"updated_at": inv.UpdatedAt,
			})
		return checkLocked(result)
	})
}

// SaveWithLock stores a status change guarded by the aggregate version
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *trade.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&trade.Invoice{}).
		Omit(clause.Associations).
		Where("id = ? AND tenant_id = ? AND version = ?", inv.ID, inv.TenantID, inv.Version-1).
		Updates(map[string]any{
			"status":     inv.Status,
			"posted_at":  inv.PostedAt,
			"notes":      inv.Notes,
			"subtotal":   inv.Subtotal,
			"total":      inv.Total,
			"version":    inv.Version,
			"updated_at": inv.UpdatedAt,
		})
	return checkLocked(result)
}

func (r *GormInvoiceRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.scoped(ctx, tenantID)
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "patient_id":
			query = query.Where("patient_id = ?", value)
		}
	}
	return query
}

var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)

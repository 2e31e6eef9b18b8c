package persistence

import (
	"context"
	"strings"

	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVendorRepository implements VendorRepository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// FindByID finds a vendor within a tenant
func (r *GormVendorRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.Vendor, error) {
	var vendor partner.Vendor
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		First(&vendor, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &vendor, nil
}

// FindAll lists vendors, by name unless filter says otherwise
func (r *GormVendorRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Vendor, error) {
	vendors := []partner.Vendor{}
	err := vendorSort.apply(r.query(ctx, tenantID, filter), "vendors", filter).Find(&vendors).Error
	return vendors, translate(err)
}

// Count counts vendors matching filter
func (r *GormVendorRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var total int64
	err := r.query(ctx, tenantID, filter).Count(&total).Error
	return total, translate(err)
}

// Save creates or updates a vendor
func (r *GormVendorRepository) Save(ctx context.Context, vendor *partner.Vendor) error {
	return translate(r.db.WithContext(ctx).Save(vendor).Error)
}

func (r *GormVendorRepository) query(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&partner.Vendor{}).Scopes(tenant.Scope(tenantID))
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	return query
}

// GormPatientRepository implements PatientRepository using GORM
type GormPatientRepository struct {
	db *gorm.DB
}

// NewGormPatientRepository creates a new GormPatientRepository
func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

// FindByID finds a patient within a tenant
func (r *GormPatientRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.Patient, error) {
	var patient partner.Patient
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		First(&patient, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &patient, nil
}

// FindAll lists patients, by last name unless filter says otherwise
func (r *GormPatientRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Patient, error) {
	patients := []partner.Patient{}
	err := patientSort.apply(r.query(ctx, tenantID, filter), "patients", filter).Find(&patients).Error
	return patients, translate(err)
}

// Count counts patients matching filter
func (r *GormPatientRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var total int64
	err := r.query(ctx, tenantID, filter).Count(&total).Error
	return total, translate(err)
}

// Save creates or updates a patient
func (r *GormPatientRepository) Save(ctx context.Context, patient *partner.Patient) error {
	return translate(r.db.WithContext(ctx).Save(patient).Error)
}

// Delete removes a patient
func (r *GormPatientRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Delete(&partner.Patient{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPatientRepository) query(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&partner.Patient{}).Scopes(tenant.Scope(tenantID))
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	return query
}

var (
	_ partner.VendorRepository  = (*GormVendorRepository)(nil)
	_ partner.PatientRepository = (*GormPatientRepository)(nil)
)

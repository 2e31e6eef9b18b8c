package partner

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VendorRepository persists vendors.
type VendorRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Vendor, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Vendor, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, vendor *Vendor) error
}

// PatientRepository persists patients.
type PatientRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Patient, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Patient, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, patient *Patient) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

package catalog

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository persists products. All methods are tenant-scoped.
type ProductRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Product, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

package identity

import (
	"context"

	"github.com/google/uuid"
)

// OrganizationRepository persists organizations.
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	Save(ctx context.Context, org *Organization) error
}

// UserRepository persists users. Lookups by external ID and API key hash are
// global because they run before the tenant is known.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	FindByAPIKeyHash(ctx context.Context, hash string) (*User, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]User, error)
	Save(ctx context.Context, user *User) error
}

package persistence

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrganizationRepository implements OrganizationRepository using GORM
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by its ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error) {
	var org identity.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &org, nil
}

// ListIDs returns the id of every organization, oldest first.
func (r *GormOrganizationRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&identity.Organization{}).Order("created_at ASC").Pluck("id", &ids).Error
	return ids, translate(err)
}

// Save creates or updates an organization
func (r *GormOrganizationRepository) Save(ctx context.Context, org *identity.Organization) error {
	return translate(r.db.WithContext(ctx).Save(org).Error)
}

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByExternalID finds a user by the identity provider subject. Runs
// before the tenant is known.
func (r *GormUserRepository) FindByExternalID(ctx context.Context, externalID string) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).First(&user, "external_id = ?", externalID).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByAPIKeyHash finds the user owning an API key
func (r *GormUserRepository) FindByAPIKeyHash(ctx context.Context, hash string) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).First(&user, "api_key_hash = ?", hash).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByIDs loads users of one tenant
func (r *GormUserRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]identity.User, error) {
	users := []identity.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", ids).
		Find(&users).Error
	return users, translate(err)
}

// Save creates or updates a user
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

var (
	_ identity.OrganizationRepository = (*GormOrganizationRepository)(nil)
	_ identity.UserRepository         = (*GormUserRepository)(nil)
)

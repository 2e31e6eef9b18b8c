package persistence

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/location"
	"github.com/clinicledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

func (r *GormLocationRepository) scoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID))
}

// FindByID finds a location within a tenant
func (r *GormLocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*location.Location, error) {
	var loc location.Location
	if err := r.scoped(ctx, tenantID).First(&loc, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}

// FindAll lists locations ordered by name
func (r *GormLocationRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]location.Location, error) {
	locations := []location.Location{}
	err := r.scoped(ctx, tenantID).Order("name ASC").Find(&locations).Error
	return locations, translate(err)
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, loc *location.Location) error {
	return translate(r.db.WithContext(ctx).Save(loc).Error)
}

// FindSubLocationByID finds a sub-location within a tenant
func (r *GormLocationRepository) FindSubLocationByID(ctx context.Context, tenantID, id uuid.UUID) (*location.SubLocation, error) {
	var sub location.SubLocation
	if err := r.scoped(ctx, tenantID).First(&sub, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

// FindSubLocationsByIDs loads sub-locations by ID; missing ones are skipped
func (r *GormLocationRepository) FindSubLocationsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]location.SubLocation, error) {
	subs := []location.SubLocation{}
	if len(ids) == 0 {
		return subs, nil
	}
	err := r.scoped(ctx, tenantID).Where("id IN ?", ids).Find(&subs).Error
	return subs, translate(err)
}

// FindSubLocations lists the sub-locations of a location ordered by name
func (r *GormLocationRepository) FindSubLocations(ctx context.Context, tenantID, locationID uuid.UUID) ([]location.SubLocation, error) {
	subs := []location.SubLocation{}
	err := r.scoped(ctx, tenantID).
		Where("location_id = ?", locationID).
		Order("name ASC").
		Find(&subs).Error
	return subs, translate(err)
}

// ExistsSubLocationCode reports whether code is taken inside a location
func (r *GormLocationRepository) ExistsSubLocationCode(ctx context.Context, tenantID, locationID uuid.UUID, code string) (bool, error) {
	var count int64
	err := r.scoped(ctx, tenantID).Model(&location.SubLocation{}).
		Where("location_id = ? AND code = ?", locationID, code).
		Count(&count).Error
	return count > 0, translate(err)
}

// SaveSubLocation creates or updates a sub-location
func (r *GormLocationRepository) SaveSubLocation(ctx context.Context, sub *location.SubLocation) error {
	return translate(r.db.WithContext(ctx).Save(sub).Error)
}

var _ location.LocationRepository = (*GormLocationRepository)(nil)

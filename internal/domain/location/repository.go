package location

import (
	"context"

	"github.com/google/uuid"
)

// LocationRepository persists locations and their sub-locations.
type LocationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Location, error)
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]Location, error)
	Save(ctx context.Context, loc *Location) error

	FindSubLocationByID(ctx context.Context, tenantID, id uuid.UUID) (*SubLocation, error)
	FindSubLocationsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]SubLocation, error)
	FindSubLocations(ctx context.Context, tenantID, locationID uuid.UUID) ([]SubLocation, error)
	ExistsSubLocationCode(ctx context.Context, tenantID, locationID uuid.UUID, code string) (bool, error)
	SaveSubLocation(ctx context.Context, sub *SubLocation) error
}

package location

import (
	"context"
	"errors"
	"time"

	"github.com/clinicledger/backend/internal/domain/location"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CreateLocationRequest represents a request to create a location
type CreateLocationRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateLocationRequest represents a request to update a location
type UpdateLocationRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"isActive"`
}

// CreateSubLocationRequest represents a request to create a sub-location
type CreateSubLocationRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Code        string `json:"code" binding:"required,min=1,max=50"`
	Description string `json:"description" binding:"max=2000"`
}

// LocationResponse represents a location in API responses
type LocationResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SubLocationResponse represents a sub-location in API responses
type SubLocationResponse struct {
	ID          uuid.UUID `json:"id"`
	LocationID  uuid.UUID `json:"locationId"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ToLocationResponse(l *location.Location) LocationResponse {
	return LocationResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func ToSubLocationResponse(s *location.SubLocation) SubLocationResponse {
	return SubLocationResponse{
		ID:          s.ID,
		LocationID:  s.LocationID,
		Name:        s.Name,
		Code:        s.Code,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
	}
}

// LocationService manages locations and sub-locations
type LocationService struct {
	repo location.LocationRepository
}

// NewLocationService creates a new LocationService
func NewLocationService(repo location.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

// List returns all locations ordered by name
func (s *LocationService) List(ctx context.Context, tenantID uuid.UUID) ([]LocationResponse, error) {
	locs, err := s.repo.FindAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	responses := make([]LocationResponse, len(locs))
	for i := range locs {
		responses[i] = ToLocationResponse(&locs[i])
	}
	return responses, nil
}

// GetByID retrieves a location by ID
func (s *LocationService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*LocationResponse, error) {
	loc, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToLocationResponse(loc)
	return &response, nil
}

// Create creates an active location
func (s *LocationService) Create(ctx context.Context, tenantID uuid.UUID, req CreateLocationRequest) (*LocationResponse, error) {
	loc, err := location.NewLocation(tenantID, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, loc); err != nil {
		return nil, err
	}
	response := ToLocationResponse(loc)
	return &response, nil
}

// Update updates a location
func (s *LocationService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateLocationRequest) (*LocationResponse, error) {
	loc, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := loc.Update(req.Name, req.Description, req.IsActive); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, loc); err != nil {
		return nil, err
	}
	response := ToLocationResponse(loc)
	return &response, nil
}

// ListSubLocations returns the sub-locations of a location ordered by name
func (s *LocationService) ListSubLocations(ctx context.Context, tenantID, locationID uuid.UUID) ([]SubLocationResponse, error) {
	if _, err := s.find(ctx, tenantID, locationID); err != nil {
		return nil, err
	}
	subs, err := s.repo.FindSubLocations(ctx, tenantID, locationID)
	if err != nil {
		return nil, err
	}
	responses := make([]SubLocationResponse, len(subs))
	for i := range subs {
		responses[i] = ToSubLocationResponse(&subs[i])
	}
	return responses, nil
}

// CreateSubLocation adds a sub-location whose code is unique within the location
func (s *LocationService) CreateSubLocation(ctx context.Context, tenantID, locationID uuid.UUID, req CreateSubLocationRequest) (*SubLocationResponse, error) {
	parent, err := s.find(ctx, tenantID, locationID)
	if err != nil {
		return nil, err
	}
	sub, err := location.NewSubLocation(parent, req.Name, req.Code, req.Description)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsSubLocationCode(ctx, tenantID, locationID, sub.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Sub-location code already exists in this location")
	}
	if err := s.repo.SaveSubLocation(ctx, sub); err != nil {
		return nil, err
	}
	response := ToSubLocationResponse(sub)
	return &response, nil
}

func (s *LocationService) find(ctx context.Context, tenantID, id uuid.UUID) (*location.Location, error) {
	loc, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Location")
		}
		return nil, err
	}
	return loc, nil
}

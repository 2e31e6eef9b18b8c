package location

import (
	"strings"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Location is a physical site where stock is kept, such as a clinic or a
// storage room.
type Location struct {
	shared.TenantAggregateRoot
	Name        string `gorm:"type:varchar(200);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"not null;default:true" json:"isActive"`
}

func (Location) TableName() string {
	return "locations"
}

// NewLocation creates an active location.
func NewLocation(tenantID uuid.UUID, name, description string) (*Location, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Location{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Description:         description,
		IsActive:            true,
	}, nil
}

// Update changes the editable fields. Nil means unchanged.
func (l *Location) Update(name, description *string, isActive *bool) error {
	if name != nil {
		n := strings.TrimSpace(*name)
		if err := validateName(n); err != nil {
			return err
		}
		l.Name = n
	}
	if description != nil {
		l.Description = *description
	}
	if isActive != nil {
		l.IsActive = *isActive
	}
	l.Touch()
	l.IncrementVersion()
	return nil
}

func validateName(name string) error {
	if name == "" {
		return shared.InvalidInput("Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.InvalidInput("Name cannot exceed 200 characters")
	}
	return nil
}

// SubLocation is a shelf, fridge or cabinet inside a location.
type SubLocation struct {
	shared.TenantEntity
	LocationID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_sub_location_code,priority:1" json:"locationId"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	Code        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_sub_location_code,priority:2" json:"code"`
	Description string    `gorm:"type:text" json:"description"`
}

func (SubLocation) TableName() string {
	return "sub_locations"
}

// NewSubLocation creates a sub-location under parent.
func NewSubLocation(parent *Location, name, code, description string) (*SubLocation, error) {
	if parent == nil {
		return nil, shared.NotFound("Location")
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.InvalidInput("Code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.InvalidInput("Code cannot exceed 50 characters")
	}
	return &SubLocation{
		TenantEntity: shared.NewTenantEntity(parent.TenantID),
		LocationID:   parent.ID,
		Name:         name,
		Code:         code,
		Description:  description,
	}, nil
}

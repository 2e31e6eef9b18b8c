package partner

import (
	"net/mail"
	"strings"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Vendor is a supplier that purchase orders are sent to.
type Vendor struct {
	shared.TenantAggregateRoot
	Name    string `gorm:"type:varchar(200);not null" json:"name"`
	Email   string `gorm:"type:varchar(200)" json:"email"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
}

func (Vendor) TableName() string {
	return "vendors"
}

// VendorDetails are the editable vendor fields.
type VendorDetails struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// NewVendor creates a vendor. Email is optional but must be valid when set.
func NewVendor(tenantID uuid.UUID, d VendorDetails) (*Vendor, error) {
	d, err := normalizeVendor(d)
	if err != nil {
		return nil, err
	}
	return &Vendor{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                d.Name,
		Email:               d.Email,
		Phone:               d.Phone,
		Address:             d.Address,
	}, nil
}

// Update replaces the vendor's details.
func (v *Vendor) Update(d VendorDetails) error {
	d, err := normalizeVendor(d)
	if err != nil {
		return err
	}
	v.Name, v.Email, v.Phone, v.Address = d.Name, d.Email, d.Phone, d.Address
	v.Touch()
	v.IncrementVersion()
	return nil
}

// HasEmail reports whether purchase orders can be emailed to the vendor.
func (v *Vendor) HasEmail() bool {
	return v.Email != ""
}

func normalizeVendor(d VendorDetails) (VendorDetails, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	if d.Name == "" {
		return d, shared.InvalidInput("Vendor name is required")
	}
	if len(d.Name) > 200 {
		return d, shared.InvalidInput("Vendor name cannot exceed 200 characters")
	}
	if d.Email != "" {
		if err := validateEmail(d.Email); err != nil {
			return d, err
		}
	}
	return d, nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return shared.InvalidInput("Invalid email address")
	}
	return nil
}

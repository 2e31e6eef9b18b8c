package partner

import (
	"strings"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Patient is the person an invoice is billed to.
type Patient struct {
	shared.TenantAggregateRoot
	FirstName   string     `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName    string     `gorm:"type:varchar(100);not null;index" json:"lastName"`
	Email       string     `gorm:"type:varchar(200)" json:"email"`
	Phone       string     `gorm:"type:varchar(50)" json:"phone"`
	DateOfBirth *time.Time `gorm:"type:date" json:"dateOfBirth,omitempty"`
}

func (Patient) TableName() string {
	return "patients"
}

// PatientDetails are the editable patient fields.
type PatientDetails struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth *time.Time
}

// NewPatient creates a patient.
func NewPatient(tenantID uuid.UUID, d PatientDetails) (*Patient, error) {
	d, err := normalizePatient(d)
	if err != nil {
		return nil, err
	}
	return &Patient{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		FirstName:           d.FirstName,
		LastName:            d.LastName,
		Email:               d.Email,
		Phone:               d.Phone,
		DateOfBirth:         d.DateOfBirth,
	}, nil
}

// Update replaces the patient's details.
func (p *Patient) Update(d PatientDetails) error {
	d, err := normalizePatient(d)
	if err != nil {
		return err
	}
	p.FirstName, p.LastName, p.Email, p.Phone, p.DateOfBirth = d.FirstName, d.LastName, d.Email, d.Phone, d.DateOfBirth
	p.Touch()
	p.IncrementVersion()
	return nil
}

// FullName joins first and last name.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func normalizePatient(d PatientDetails) (PatientDetails, error) {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	if d.FirstName == "" || d.LastName == "" {
		return d, shared.InvalidInput("First and last name are required")
	}
	if d.Email != "" {
		if err := validateEmail(d.Email); err != nil {
			return d, err
		}
	}
	if d.DateOfBirth != nil && d.DateOfBirth.After(time.Now()) {
		return d, shared.InvalidInput("Date of birth cannot be in the future")
	}
	return d, nil
}

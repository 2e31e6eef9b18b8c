package partner

import (
	"context"
	"errors"

	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PostedInvoiceCounter counts posted invoices per patient. Implemented by the
// invoice repository.
type PostedInvoiceCounter interface {
	CountPostedByPatient(ctx context.Context, tenantID, patientID uuid.UUID) (int64, error)
}

// PatientService handles patient CRUD
type PatientService struct {
	repo     partner.PatientRepository
	invoices PostedInvoiceCounter
}

// NewPatientService creates a new PatientService
func NewPatientService(repo partner.PatientRepository, invoices PostedInvoiceCounter) *PatientService {
	return &PatientService{repo: repo, invoices: invoices}
}

// List returns patients ordered by last name
func (s *PatientService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]PatientResponse, int64, error) {
	filter = filter.normalize()
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "last_name",
		OrderDir: "asc",
		Search:   filter.Search,
	}
	patients, err := s.repo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]PatientResponse, len(patients))
	for i := range patients {
		responses[i] = ToPatientResponse(&patients[i])
	}
	return responses, total, nil
}

// GetByID retrieves a patient by ID
func (s *PatientService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PatientResponse, error) {
	p, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToPatientResponse(p)
	return &response, nil
}

// Create creates a patient
func (s *PatientService) Create(ctx context.Context, tenantID uuid.UUID, req PatientRequest) (*PatientResponse, error) {
	p, err := partner.NewPatient(tenantID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	response := ToPatientResponse(p)
	return &response, nil
}

// Update replaces a patient's details
func (s *PatientService) Update(ctx context.Context, tenantID, id uuid.UUID, req PatientRequest) (*PatientResponse, error) {
	p, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	response := ToPatientResponse(p)
	return &response, nil
}

// Delete removes a patient that no posted invoice refers to
func (s *PatientService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.find(ctx, tenantID, id); err != nil {
		return err
	}
	posted, err := s.invoices.CountPostedByPatient(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if posted > 0 {
		return shared.InvalidState("Cannot delete a patient with posted invoices")
	}
	// Draft invoices and memberships still hold the row.
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, shared.ErrInvalidState) {
			return shared.InvalidState("Cannot delete a patient with invoices or memberships")
		}
		return err
	}
	return nil
}

func (s *PatientService) find(ctx context.Context, tenantID, id uuid.UUID) (*partner.Patient, error) {
	p, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Patient")
		}
		return nil, err
	}
	return p, nil
}

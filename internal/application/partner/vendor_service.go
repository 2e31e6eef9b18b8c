package partner

import (
	"context"
	"errors"

	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VendorService handles vendor CRUD
type VendorService struct {
	repo partner.VendorRepository
}

// NewVendorService creates a new VendorService
func NewVendorService(repo partner.VendorRepository) *VendorService {
	return &VendorService{repo: repo}
}

// List returns vendors ordered by name
func (s *VendorService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]VendorResponse, int64, error) {
	filter = filter.normalize()
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "name",
		OrderDir: "asc",
		Search:   filter.Search,
	}
	vendors, err := s.repo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]VendorResponse, len(vendors))
	for i := range vendors {
		responses[i] = ToVendorResponse(&vendors[i])
	}
	return responses, total, nil
}

// GetByID retrieves a vendor by ID
func (s *VendorService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*VendorResponse, error) {
	v, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToVendorResponse(v)
	return &response, nil
}

// Create creates a vendor
func (s *VendorService) Create(ctx context.Context, tenantID uuid.UUID, req VendorRequest) (*VendorResponse, error) {
	v, err := partner.NewVendor(tenantID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}
	response := ToVendorResponse(v)
	return &response, nil
}

// Update replaces a vendor's details
func (s *VendorService) Update(ctx context.Context, tenantID, id uuid.UUID, req VendorRequest) (*VendorResponse, error) {
	v, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := v.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}
	response := ToVendorResponse(v)
	return &response, nil
}

func (s *VendorService) find(ctx context.Context, tenantID, id uuid.UUID) (*partner.Vendor, error) {
	v, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Vendor")
		}
		return nil, err
	}
	return v, nil
}

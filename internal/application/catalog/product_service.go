package catalog

import (
	"context"
	"errors"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockReader totals quantity on hand per product. Implemented by the
// inventory item repository.
type StockReader interface {
	SumOnHandByProduct(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	txScope        TransactionScope
	stock          StockReader
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, stock StockReader, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		txScope:     NewNoOpTransactionScope(productRepo),
		stock:       stock,
		logger:      logger,
	}
}

// SetTransactionScope sets the scope bulk writes run in.
func (s *ProductService) SetTransactionScope(scope TransactionScope) {
	s.txScope = scope
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	spec := catalog.ProductSpec{
		Name:                req.Name,
		Description:         req.Description,
		Code:                req.Code,
		SKU:                 req.SKU,
		ManufacturerBarcode: req.ManufacturerBarcode,
		Type:                catalog.ProductType(req.Type),
		Price:               req.Price,
		Cost:                req.Cost,
		PackageUOM:          catalog.UnitOfMeasure(req.PackageUOM),
		ContainerUOM:        catalog.UnitOfMeasure(req.ContainerUOM),
		UnitUOM:             catalog.UnitOfMeasure(req.UnitUOM),
	}
	if req.QuantityPerContainer != nil {
		spec.QuantityPerContainer = *req.QuantityPerContainer
	}
	if req.UnitQuantity != nil {
		if req.UnitQuantity.IsZero() {
			return nil, shared.InvalidInput("Unit quantity must be at least 0.01")
		}
		spec.UnitQuantity = *req.UnitQuantity
	}

	product, err := catalog.NewProduct(tenantID, spec)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := ToProductResponse(product, decimal.Zero)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.find(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	onHand, err := s.stock.SumOnHandByProduct(ctx, tenantID, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product, onHand[productID])
	return &response, nil
}

// List retrieves products, most recently updated first
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) ([]ProductResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "updated_at",
		OrderDir: "desc",
		Search:   filter.Search,
	}

	products, err := s.productRepo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	onHand := map[uuid.UUID]decimal.Decimal{}
	if len(ids) > 0 {
		onHand, err = s.stock.SumOnHandByProduct(ctx, tenantID, ids)
		if err != nil {
			return nil, 0, err
		}
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i], onHand[products[i].ID])
	}
	return responses, total, nil
}

// Update updates the editable product fields
func (s *ProductService) Update(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.find(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Update(catalog.ProductUpdate{
		Name:                req.Name,
		Description:         req.Description,
		SKU:                 req.SKU,
		ManufacturerBarcode: req.ManufacturerBarcode,
		Price:               req.Price,
		Cost:                req.Cost,
	}); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	return s.GetByID(ctx, tenantID, productID)
}

// Delete soft-deletes a product that has no stock on hand.
func (s *ProductService) Delete(ctx context.Context, tenantID, productID uuid.UUID) error {
	if _, err := s.find(ctx, tenantID, productID); err != nil {
		return err
	}
	onHand, err := s.stock.SumOnHandByProduct(ctx, tenantID, []uuid.UUID{productID})
	if err != nil {
		return err
	}
	if qty := onHand[productID]; qty.IsPositive() {
		return shared.InvalidState("Cannot delete a product with stock on hand (" + qty.String() + ")")
	}
	return s.productRepo.Delete(ctx, tenantID, productID)
}

// Units lists the unit-of-measure options.
func (s *ProductService) Units() []catalog.UnitOption {
	return catalog.UnitOptions()
}

func (s *ProductService) find(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Product")
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish product events", zap.Error(err))
	}
}

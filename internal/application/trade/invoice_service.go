package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/location"
	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// numberAttempts bounds retries when two requests allocate the same
// document number and the unique index rejects the second.
const numberAttempts = 3

// InvoiceService handles invoice drafting, posting and rendering
type InvoiceService struct {
	txScope        TransactionScope
	repos          Repositories
	productRepo    catalog.ProductRepository
	patientRepo    partner.PatientRepository
	locationRepo   location.LocationRepository
	orgRepo        identity.OrganizationRepository
	renderer       DocumentRenderer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	txScope TransactionScope,
	repos Repositories,
	productRepo catalog.ProductRepository,
	patientRepo partner.PatientRepository,
	locationRepo location.LocationRepository,
	orgRepo identity.OrganizationRepository,
	renderer DocumentRenderer,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		txScope:      txScope,
		repos:        repos,
		productRepo:  productRepo,
		patientRepo:  patientRepo,
		locationRepo: locationRepo,
		orgRepo:      orgRepo,
		renderer:     renderer,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// List returns invoices, highest number first
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := filter.toDomain("invoice_number")
	invoices, err := s.repos.Invoices.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Invoices.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses, total, nil
}

// GetByID returns an invoice with its lines, products, lots and patient
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := findInvoice(ctx, s.repos.Invoices, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.detailed(ctx, tenantID, inv)
}

// SaveDraft creates a DRAFT invoice with the next number of the tenant
func (s *InvoiceService) SaveDraft(ctx context.Context, tenantID, userID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	if _, err := s.findPatient(ctx, tenantID, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.locationRepo.FindByID(ctx, tenantID, req.LocationID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Location")
		}
		return nil, err
	}
	lines, err := s.validateLines(ctx, tenantID, req.Items)
	if err != nil {
		return nil, err
	}

	var inv *trade.Invoice
	for attempt := 1; ; attempt++ {
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			max, err := repos.InvoiceRepo().MaxNumber(ctx, tenantID)
			if err != nil {
				return err
			}
			inv, err = trade.NewInvoice(tenantID, trade.NextDocumentNumber(max), req.PatientID, req.LocationID, &userID, req.Notes, lines)
			if err != nil {
				return err
			}
			return repos.InvoiceRepo().Create(ctx, inv)
		})
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) || attempt == numberAttempts {
			break
		}
		s.logger.Debug("Invoice number taken, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice drafted",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("invoice_number", inv.InvoiceNumber),
		zap.Int("items", len(inv.Items)),
	)
	return s.detailed(ctx, tenantID, inv)
}

// AddItems appends lines to a draft invoice
func (s *InvoiceService) AddItems(ctx context.Context, tenantID, id uuid.UUID, req AddInvoiceItemsRequest) (*InvoiceResponse, error) {
	inv, err := findInvoice(ctx, s.repos.Invoices, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsDraft() {
		return nil, shared.InvalidState("Invoice already posted")
	}
	lines, err := s.validateLines(ctx, tenantID, req.Items)
	if err != nil {
		return nil, err
	}
	added, err := inv.AddItems(lines)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Invoices.AddItems(ctx, inv, added); err != nil {
		return nil, err
	}
	return s.detailed(ctx, tenantID, inv)
}

// Post consumes the stock behind every line and marks the invoice POSTED,
// all in one transaction.
func (s *InvoiceService) Post(ctx context.Context, tenantID, userID, id uuid.UUID) (*InvoiceResponse, error) {
	var inv *trade.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = findInvoice(ctx, repos.InvoiceRepo(), tenantID, id)
		if err != nil {
			return err
		}
		if err := inv.Post(); err != nil {
			return err
		}

		var productIDs []uuid.UUID
		for _, line := range inv.Items {
			productIDs = append(productIDs, line.ProductID)
		}
		names, err := s.productNames(ctx, tenantID, productIDs)
		if err != nil {
			return err
		}

		// A lot can back several lines; later lines must see earlier deductions.
		stock := make(map[uuid.UUID]*inventory.InventoryItem)
		entries := make([]*inventory.InventoryTransaction, 0, len(inv.Items))
		reference := fmt.Sprintf("INV-%d", inv.InvoiceNumber)
		for _, line := range inv.Items {
			item, ok := stock[line.InventoryID]
			if !ok {
				item, err = repos.ItemRepo().FindByID(ctx, tenantID, line.InventoryID)
				if err != nil {
					if errors.Is(err, shared.ErrNotFound) {
						return shared.NotFound("Inventory item")
					}
					return err
				}
				stock[line.InventoryID] = item
			}
			entry, err := inventory.Consume(item, line.Quantity, inventory.SourceTypeInvoice, inv.ID,
				"Insufficient inventory for product "+names[line.ProductID])
			if err != nil {
				return err
			}
			entry.WithReference(reference).WithOperatorID(userID)
			if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		if len(entries) > 0 {
			if err := repos.TransactionRepo().CreateBatch(ctx, entries); err != nil {
				return err
			}
		}
		return repos.InvoiceRepo().SaveWithLock(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice posted",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("invoice_number", inv.InvoiceNumber),
		zap.String("total", inv.Total.String()),
	)
	publish(ctx, s.eventPublisher, s.logger, inv)
	return s.detailed(ctx, tenantID, inv)
}

// PDF renders the invoice. It returns the document and its file name.
func (s *InvoiceService) PDF(ctx context.Context, tenantID, id uuid.UUID) ([]byte, string, error) {
	inv, err := findInvoice(ctx, s.repos.Invoices, tenantID, id)
	if err != nil {
		return nil, "", err
	}
	org, err := s.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, "", err
	}
	detail, err := s.detailed(ctx, tenantID, inv)
	if err != nil {
		return nil, "", err
	}

	doc := &InvoiceDocument{
		OrganizationName: org.Name,
		InvoiceNumber:    inv.InvoiceNumber,
		Status:           string(inv.Status),
		IssuedAt:         inv.CreatedAt,
		Subtotal:         inv.Subtotal,
		Total:            inv.Total,
		Notes:            inv.Notes,
		Lines:            make([]InvoiceDocumentLine, len(detail.Items)),
	}
	if inv.PostedAt != nil {
		doc.IssuedAt = *inv.PostedAt
	}
	if detail.Patient != nil {
		doc.BillTo = DocumentParty{Name: detail.Patient.FullName, Email: detail.Patient.Email, Phone: detail.Patient.Phone}
	}
	for i, item := range detail.Items {
		doc.Lines[i] = InvoiceDocumentLine{
			ProductName: item.ProductName,
			SKU:         item.SKU,
			LotNumber:   item.LotNumber,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		}
	}

	pdf, err := s.renderer.RenderInvoice(ctx, doc)
	if err != nil {
		return nil, "", fmt.Errorf("render invoice %d: %w", inv.InvoiceNumber, err)
	}
	return pdf, fmt.Sprintf("invoice-%d.pdf", inv.InvoiceNumber), nil
}

func (s *InvoiceService) validateLines(ctx context.Context, tenantID uuid.UUID, lines []InvoiceLineRequest) ([]trade.InvoiceLine, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	productIDs := make([]uuid.UUID, 0, len(lines))
	inventoryIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
		inventoryIDs = append(inventoryIDs, l.InventoryID)
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, productIDs)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(products))
	for i := range products {
		known[products[i].ID] = true
	}
	items, err := s.repos.Items.FindByIDs(ctx, tenantID, inventoryIDs)
	if err != nil {
		return nil, err
	}
	owner := make(map[uuid.UUID]uuid.UUID, len(items))
	for i := range items {
		owner[items[i].ID] = items[i].ProductID
	}

	result := make([]trade.InvoiceLine, len(lines))
	for i, l := range lines {
		if !known[l.ProductID] {
			return nil, shared.NotFound("Product")
		}
		productID, ok := owner[l.InventoryID]
		if !ok {
			return nil, shared.NotFound("Inventory item")
		}
		if productID != l.ProductID {
			return nil, shared.InvalidInput(fmt.Sprintf("Item %d: inventory does not belong to the product", i+1))
		}
		result[i] = trade.InvoiceLine{
			ProductID:   l.ProductID,
			InventoryID: l.InventoryID,
			Quantity:    l.Quantity,
			Price:       l.Price,
		}
	}
	return result, nil
}

func (s *InvoiceService) detailed(ctx context.Context, tenantID uuid.UUID, inv *trade.Invoice) (*InvoiceResponse, error) {
	response := ToInvoiceResponse(inv)

	if len(inv.Items) > 0 {
		productIDs := make([]uuid.UUID, 0, len(inv.Items))
		inventoryIDs := make([]uuid.UUID, 0, len(inv.Items))
		for _, item := range inv.Items {
			productIDs = append(productIDs, item.ProductID)
			inventoryIDs = append(inventoryIDs, item.InventoryID)
		}
		products, err := s.productRepo.FindByIDs(ctx, tenantID, productIDs)
		if err != nil {
			return nil, err
		}
		byProduct := make(map[uuid.UUID]catalog.Product, len(products))
		for i := range products {
			byProduct[products[i].ID] = products[i]
		}
		lots, err := s.repos.Items.FindByIDs(ctx, tenantID, inventoryIDs)
		if err != nil {
			return nil, err
		}
		lotNumbers := make(map[uuid.UUID]string, len(lots))
		for i := range lots {
			lotNumbers[lots[i].ID] = lots[i].LotNumber
		}
		for i := range response.Items {
			p := byProduct[response.Items[i].ProductID]
			response.Items[i].ProductName = p.Name
			response.Items[i].SKU = p.SKU
			response.Items[i].LotNumber = lotNumbers[response.Items[i].InventoryID]
		}
	}

	patient, err := s.patientRepo.FindByID(ctx, tenantID, inv.PatientID)
	switch {
	case err == nil:
		response.Patient = &PatientSummary{
			ID:       patient.ID,
			FullName: patient.FullName(),
			Email:    patient.Email,
			Phone:    patient.Phone,
		}
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	return &response, nil
}

func (s *InvoiceService) productNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		names[products[i].ID] = products[i].Name
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			names[id] = id.String()
		}
	}
	return names, nil
}

func (s *InvoiceService) findPatient(ctx context.Context, tenantID, id uuid.UUID) (*partner.Patient, error) {
	p, err := s.patientRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Patient")
		}
		return nil, err
	}
	return p, nil
}

func findInvoice(ctx context.Context, repo trade.InvoiceRepository, tenantID, id uuid.UUID) (*trade.Invoice, error) {
	inv, err := repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Invoice")
		}
		return nil, err
	}
	return inv, nil
}

func publish(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregates ...shared.AggregateRoot) {
	var events []shared.DomainEvent
	for _, a := range aggregates {
		events = append(events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish trade events", zap.Error(err))
	}
}

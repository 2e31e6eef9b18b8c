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

const contentTypePDF = "application/pdf"

// PurchaseOrderService handles ordering stock from vendors
type PurchaseOrderService struct {
	txScope        TransactionScope
	repos          Repositories
	productRepo    catalog.ProductRepository
	vendorRepo     partner.VendorRepository
	locationRepo   location.LocationRepository
	orgRepo        identity.OrganizationRepository
	renderer       DocumentRenderer
	store          DocumentStore
	mailer         Mailer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// PurchaseOrderDeps groups the collaborators of a PurchaseOrderService
type PurchaseOrderDeps struct {
	ProductRepo  catalog.ProductRepository
	VendorRepo   partner.VendorRepository
	LocationRepo location.LocationRepository
	OrgRepo      identity.OrganizationRepository
	Renderer     DocumentRenderer
	Store        DocumentStore
	Mailer       Mailer
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(txScope TransactionScope, repos Repositories, deps PurchaseOrderDeps, logger *zap.Logger) *PurchaseOrderService {
	return &PurchaseOrderService{
		txScope:      txScope,
		repos:        repos,
		productRepo:  deps.ProductRepo,
		vendorRepo:   deps.VendorRepo,
		locationRepo: deps.LocationRepo,
		orgRepo:      deps.OrgRepo,
		renderer:     deps.Renderer,
		store:        deps.Store,
		mailer:       deps.Mailer,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// List returns purchase orders, highest number first, with vendor names
func (s *PurchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]PurchaseOrderResponse, int64, error) {
	domainFilter := filter.toDomain("order_number")
	orders, err := s.repos.PurchaseOrders.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.PurchaseOrders.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	vendorNames := make(map[uuid.UUID]string)
	responses := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToPurchaseOrderResponse(&orders[i])
		name, ok := vendorNames[orders[i].VendorID]
		if !ok {
			name, err = s.vendorName(ctx, tenantID, orders[i].VendorID)
			if err != nil {
				return nil, 0, err
			}
			vendorNames[orders[i].VendorID] = name
		}
		responses[i].VendorName = name
	}
	return responses, total, nil
}

// GetByID returns an order with vendor and product names
func (s *PurchaseOrderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := findOrder(ctx, s.repos.PurchaseOrders, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.detailed(ctx, tenantID, order)
}

// Create opens a DRAFT order with the next number of the tenant
func (s *PurchaseOrderService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if _, err := s.findVendor(ctx, tenantID, req.VendorID); err != nil {
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

	var order *trade.PurchaseOrder
	for attempt := 1; ; attempt++ {
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			max, err := repos.PurchaseOrderRepo().MaxNumber(ctx, tenantID)
			if err != nil {
				return err
			}
			order, err = trade.NewPurchaseOrder(tenantID, trade.NextDocumentNumber(max), req.VendorID, req.LocationID, &userID, req.Notes)
			if err != nil {
				return err
			}
			if len(lines) > 0 {
				if _, err := order.AddItems(lines); err != nil {
					return err
				}
			}
			return repos.PurchaseOrderRepo().Create(ctx, order)
		})
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) || attempt == numberAttempts {
			break
		}
		s.logger.Debug("Order number taken, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase order created",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("order_number", order.OrderNumber),
	)
	return s.detailed(ctx, tenantID, order)
}

// AddItems appends lines to a draft order
func (s *PurchaseOrderService) AddItems(ctx context.Context, tenantID, id uuid.UUID, req AddOrderItemsRequest) (*PurchaseOrderResponse, error) {
	order, err := findOrder(ctx, s.repos.PurchaseOrders, tenantID, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.validateLines(ctx, tenantID, req.Items)
	if err != nil {
		return nil, err
	}
	added, err := order.AddItems(lines)
	if err != nil {
		return nil, err
	}
	if err := s.repos.PurchaseOrders.AddItems(ctx, order, added); err != nil {
		return nil, err
	}
	return s.detailed(ctx, tenantID, order)
}

// Post renders the order, claims the DRAFT to POSTED transition, then stores
// the PDF and emails it to the vendor before the claim commits. A concurrent
// post loses the claim and sends nothing. Stock is not touched until the
// order is received.
func (s *PurchaseOrderService) Post(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := findOrder(ctx, s.repos.PurchaseOrders, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := order.CheckPostable(); err != nil {
		return nil, err
	}
	vendor, err := s.findVendor(ctx, tenantID, order.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.HasEmail() {
		return nil, shared.InvalidInput("Vendor email is required")
	}

	doc, err := s.document(ctx, tenantID, order, vendor)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderPurchaseOrder(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("render purchase order %d: %w", order.OrderNumber, err)
	}
	body, err := s.renderer.PurchaseOrderEmailHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("render purchase order email: %w", err)
	}
	key := order.DocumentStorageKey()
	msg := &MailMessage{
		To:      []string{vendor.Email},
		Subject: fmt.Sprintf("Purchase Order #%d", order.OrderNumber),
		HTML:    body,
		Attachments: []Attachment{{
			Filename:    order.DocumentFileName(),
			ContentType: contentTypePDF,
			Content:     pdf,
		}},
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := order.Post(key); err != nil {
			return err
		}
		if err := repos.PurchaseOrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		if err := s.store.Upload(ctx, key, pdf, contentTypePDF); err != nil {
			return fmt.Errorf("store purchase order %d: %w", order.OrderNumber, err)
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("email purchase order %d: %w", order.OrderNumber, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase order posted",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("order_number", order.OrderNumber),
		zap.String("vendor_email", vendor.Email),
	)
	publish(ctx, s.eventPublisher, s.logger, order)
	return s.detailed(ctx, tenantID, order)
}

// Receive books a POSTED order into stock at the order's location: one
// receipt header sourced from the order and one lot per order line.
func (s *PurchaseOrderService) Receive(ctx context.Context, tenantID, userID, id uuid.UUID, req ReceivePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var order *trade.PurchaseOrder
	var header *inventory.InventoryHeader
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = findOrder(ctx, repos.PurchaseOrderRepo(), tenantID, id)
		if err != nil {
			return err
		}
		if order.Status != trade.StatusPosted {
			return shared.InvalidState(fmt.Sprintf("Cannot receive order in %s status", order.Status))
		}

		details := make(map[uuid.UUID]ReceiveLineRequest, len(req.Items))
		for _, line := range req.Items {
			if _, ok := order.FindItem(line.ItemID); !ok {
				return shared.InvalidInput("Unknown order item " + line.ItemID.String())
			}
			details[line.ItemID] = line
		}

		vendorName, err := s.vendorName(ctx, tenantID, order.VendorID)
		if err != nil {
			return err
		}
		orderID := order.ID
		locationID := order.LocationID
		header, err = inventory.NewInventoryHeader(tenantID, inventory.HeaderSpec{
			ReceiptNumber: fmt.Sprintf("PO-%d", order.OrderNumber),
			Vendor:        vendorName,
			LocationID:    &locationID,
			Notes:         order.Notes,
			SourceType:    inventory.ReceiptSourcePurchaseOrder,
			SourceID:      &orderID,
			ReceivedBy:    &userID,
		})
		if err != nil {
			return err
		}

		lots := make([]inventory.LotSpec, len(order.Items))
		for i, item := range order.Items {
			d := details[item.ID]
			expires, err := parseDate("expirationDate", d.ExpirationDate)
			if err != nil {
				return err
			}
			lots[i] = inventory.LotSpec{
				ProductID:      item.ProductID,
				Price:          item.Price,
				LotNumber:      d.LotNumber,
				SerialNumber:   d.SerialNumber,
				ExpirationDate: expires,
				UnitsReceived:  item.Quantity,
			}
		}
		items, ledger, err := header.Receive(lots)
		if err != nil {
			return err
		}
		if err := order.Receive(header.ID); err != nil {
			return err
		}

		if err := repos.HeaderRepo().Save(ctx, header); err != nil {
			return err
		}
		for _, item := range items {
			if err := repos.ItemRepo().Create(ctx, item); err != nil {
				return err
			}
		}
		if err := repos.TransactionRepo().CreateBatch(ctx, ledger); err != nil {
			return err
		}
		return repos.PurchaseOrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase order received",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("order_number", order.OrderNumber),
		zap.String("header_id", header.ID.String()),
	)
	publish(ctx, s.eventPublisher, s.logger, order, header)
	return s.detailed(ctx, tenantID, order)
}

// Cancel cancels a DRAFT or POSTED order
func (s *PurchaseOrderService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := findOrder(ctx, s.repos.PurchaseOrders, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(); err != nil {
		return nil, err
	}
	if err := s.repos.PurchaseOrders.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("Purchase order cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("order_number", order.OrderNumber),
	)
	return s.detailed(ctx, tenantID, order)
}

// DocumentURL presigns a download link for the stored order PDF
func (s *PurchaseOrderService) DocumentURL(ctx context.Context, tenantID, id uuid.UUID) (*DocumentURLResponse, error) {
	order, err := findOrder(ctx, s.repos.PurchaseOrders, tenantID, id)
	if err != nil {
		return nil, err
	}
	if order.DocumentKey == "" {
		return nil, shared.NotFound("Purchase order document")
	}
	url, expiresAt, err := s.store.GenerateDownloadURL(ctx, order.DocumentKey, 0)
	if err != nil {
		return nil, err
	}
	return &DocumentURLResponse{URL: url, ExpiresAt: expiresAt}, nil
}

func (s *PurchaseOrderService) document(ctx context.Context, tenantID uuid.UUID, order *trade.PurchaseOrder, vendor *partner.Vendor) (*PurchaseOrderDocument, error) {
	org, err := s.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	shipTo := ""
	if loc, err := s.locationRepo.FindByID(ctx, tenantID, order.LocationID); err == nil {
		shipTo = loc.Name
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	products, err := s.products(ctx, tenantID, order)
	if err != nil {
		return nil, err
	}

	doc := &PurchaseOrderDocument{
		OrganizationName: org.Name,
		OrderNumber:      order.OrderNumber,
		Date:             order.CreatedAt,
		Vendor: DocumentParty{
			Name:    vendor.Name,
			Email:   vendor.Email,
			Phone:   vendor.Phone,
			Address: vendor.Address,
		},
		ShipTo: shipTo,
		Total:  order.Total,
		Notes:  order.Notes,
		Lines:  make([]PurchaseOrderDocumentLine, len(order.Items)),
	}
	for i, item := range order.Items {
		p := products[item.ProductID]
		doc.Lines[i] = PurchaseOrderDocumentLine{
			ProductName: p.Name,
			SKU:         p.SKU,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Amount:      item.Amount,
		}
	}
	return doc, nil
}

func (s *PurchaseOrderService) validateLines(ctx context.Context, tenantID uuid.UUID, lines []OrderLineRequest) ([]trade.OrderLine, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	result := make([]trade.OrderLine, len(lines))
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		result[i] = trade.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price}
		if err := result[i].Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		ids[i] = l.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(products))
	for i := range products {
		known[products[i].ID] = true
	}
	for _, l := range lines {
		if !known[l.ProductID] {
			return nil, shared.NotFound("Product")
		}
	}
	return result, nil
}

func (s *PurchaseOrderService) detailed(ctx context.Context, tenantID uuid.UUID, order *trade.PurchaseOrder) (*PurchaseOrderResponse, error) {
	response := ToPurchaseOrderResponse(order)
	name, err := s.vendorName(ctx, tenantID, order.VendorID)
	if err != nil {
		return nil, err
	}
	response.VendorName = name
	products, err := s.products(ctx, tenantID, order)
	if err != nil {
		return nil, err
	}
	for i := range response.Items {
		response.Items[i].ProductName = products[response.Items[i].ProductID].Name
	}
	return &response, nil
}

func (s *PurchaseOrderService) products(ctx context.Context, tenantID uuid.UUID, order *trade.PurchaseOrder) (map[uuid.UUID]catalog.Product, error) {
	byID := make(map[uuid.UUID]catalog.Product, len(order.Items))
	if len(order.Items) == 0 {
		return byID, nil
	}
	ids := make([]uuid.UUID, len(order.Items))
	for i, item := range order.Items {
		ids[i] = item.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		byID[products[i].ID] = products[i]
	}
	return byID, nil
}

func (s *PurchaseOrderService) vendorName(ctx context.Context, tenantID, id uuid.UUID) (string, error) {
	v, err := s.vendorRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return v.Name, nil
}

func (s *PurchaseOrderService) findVendor(ctx context.Context, tenantID, id uuid.UUID) (*partner.Vendor, error) {
	v, err := s.vendorRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Vendor")
		}
		return nil, err
	}
	return v, nil
}

func findOrder(ctx context.Context, repo trade.PurchaseOrderRepository, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	order, err := repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Purchase order")
		}
		return nil, err
	}
	return order, nil
}

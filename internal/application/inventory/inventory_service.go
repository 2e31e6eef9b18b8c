package inventory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/location"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultExpiringDays is the look-ahead window used when none is given.
const DefaultExpiringDays = 30

// InventoryService handles receipts, transfers, dispenses and stock queries
type InventoryService struct {
	txScope        TransactionScope
	repos          Repositories
	productRepo    catalog.ProductRepository
	locationRepo   location.LocationRepository
	userRepo       identity.UserRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	txScope TransactionScope,
	repos Repositories,
	productRepo catalog.ProductRepository,
	locationRepo location.LocationRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		txScope:      txScope,
		repos:        repos,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		userRepo:     userRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// List returns in-stock rows, newest first
func (s *InventoryService) List(ctx context.Context, tenantID uuid.UUID, filter InventoryListFilter) ([]InventoryItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  map[string]any{},
	}
	if filter.ProductID != nil {
		domainFilter.Filters[inventory.FilterProductID] = *filter.ProductID
	}
	if filter.LocationID != nil {
		domainFilter.Filters[inventory.FilterLocationID] = *filter.LocationID
	}
	if filter.SubLocationID != nil {
		domainFilter.Filters[inventory.FilterSubLocationID] = *filter.SubLocationID
	}

	items, err := s.repos.Items.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Items.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses, err := s.itemResponses(ctx, tenantID, items)
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// GetByID retrieves one lot row
func (s *InventoryService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InventoryItemResponse, error) {
	item, err := s.findItem(ctx, s.repos.Items, tenantID, id, "Inventory item")
	if err != nil {
		return nil, err
	}
	responses, err := s.itemResponses(ctx, tenantID, []inventory.InventoryItem{*item})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// Expiring returns in-stock rows that expire within days. days <= 0 uses
// DefaultExpiringDays.
func (s *InventoryService) Expiring(ctx context.Context, tenantID uuid.UUID, days int) ([]InventoryItemResponse, error) {
	if days <= 0 {
		days = DefaultExpiringDays
	}
	cutoff := s.now().AddDate(0, 0, days)
	items, err := s.repos.Items.FindExpiring(ctx, tenantID, cutoff)
	if err != nil {
		return nil, err
	}
	return s.itemResponses(ctx, tenantID, items)
}

// SuggestLots proposes the lots to draw quantity of a product from,
// soonest expiry first, optionally within one location.
func (s *InventoryService) SuggestLots(ctx context.Context, tenantID uuid.UUID, req LotSuggestionRequest) (*LotSuggestionResponse, error) {
	if !req.Quantity.IsPositive() {
		return nil, shared.InvalidInput("Quantity must be greater than zero")
	}
	if _, err := s.findProduct(ctx, tenantID, req.ProductID); err != nil {
		return nil, err
	}
	filter := shared.Filter{
		OrderBy:  "expiration_date",
		OrderDir: "asc",
		Filters:  map[string]any{inventory.FilterProductID: req.ProductID},
	}
	if req.LocationID != nil {
		if _, err := s.findLocation(ctx, tenantID, *req.LocationID); err != nil {
			return nil, err
		}
		filter.Filters[inventory.FilterLocationID] = *req.LocationID
	}
	items, err := s.repos.Items.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	selection := inventory.SelectLotsFEFO(items, req.Quantity, s.now(), strings.TrimSpace(req.PreferLot))
	lots := make([]LotPickResponse, len(selection.Picks))
	for i, pick := range selection.Picks {
		lots[i] = LotPickResponse{
			InventoryID:    pick.Item.ID,
			LotNumber:      pick.Item.LotNumber,
			SerialNumber:   pick.Item.SerialNumber,
			ExpirationDate: pick.Item.ExpirationDate,
			LocationID:     pick.Item.LocationID,
			SubLocationID:  pick.Item.SubLocationID,
			QuantityOnHand: pick.Item.QuantityOnHand,
			Quantity:       pick.Quantity,
		}
	}
	return &LotSuggestionResponse{
		ProductID: req.ProductID,
		Requested: req.Quantity,
		Allocated: selection.Total,
		Shortfall: selection.Shortfall,
		Lots:      lots,
	}, nil
}

// ProductOptions lists products for the receipt form, sorted by name
func (s *InventoryService) ProductOptions(ctx context.Context, tenantID uuid.UUID) ([]OptionResponse, error) {
	products, err := s.productRepo.FindAll(ctx, tenantID, shared.Filter{OrderBy: "name", OrderDir: "asc"})
	if err != nil {
		return nil, err
	}
	options := make([]OptionResponse, len(products))
	for i := range products {
		options[i] = OptionResponse{ID: products[i].ID, Name: products[i].Name}
	}
	return options, nil
}

// LocationOptions lists locations for the receipt and transfer forms, sorted by name
func (s *InventoryService) LocationOptions(ctx context.Context, tenantID uuid.UUID) ([]OptionResponse, error) {
	locations, err := s.locationRepo.FindAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	options := make([]OptionResponse, len(locations))
	for i := range locations {
		options[i] = OptionResponse{ID: locations[i].ID, Name: locations[i].Name}
	}
	slices.SortFunc(options, func(a, b OptionResponse) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return options, nil
}

// Receive records a single lot under a fresh receipt header
func (s *InventoryService) Receive(ctx context.Context, tenantID, userID uuid.UUID, req ReceiveRequest) (*InventoryItemResponse, error) {
	if _, err := s.findProduct(ctx, tenantID, req.ProductID); err != nil {
		return nil, err
	}
	locationID, subLocationID, err := s.resolvePlacement(ctx, tenantID, req.LocationID, req.SubLocationID)
	if err != nil {
		return nil, err
	}
	expiration, err := parseDate("expiration date", req.ExpirationDate)
	if err != nil {
		return nil, err
	}

	header, err := inventory.NewInventoryHeader(tenantID, inventory.HeaderSpec{
		Vendor:       req.Vendor,
		Manufacturer: req.Manufacturer,
		PackageCost:  req.PackageCost,
		LocationID:   locationID,
		ReceivedBy:   &userID,
	})
	if err != nil {
		return nil, err
	}
	items, ledger, err := header.Receive([]inventory.LotSpec{{
		ProductID:      req.ProductID,
		Price:          req.Price,
		LotNumber:      req.LotNumber,
		SerialNumber:   req.SerialNumber,
		ExpirationDate: expiration,
		UnitsReceived:  req.UnitsReceived,
		SubLocationID:  subLocationID,
	}})
	if err != nil {
		return nil, err
	}

	if err := s.persistReceipt(ctx, header, items, ledger); err != nil {
		return nil, err
	}
	s.logger.Info("Inventory received",
		zap.String("tenant_id", tenantID.String()),
		zap.String("receipt_number", header.ReceiptNumber),
		zap.String("inventory_id", items[0].ID.String()),
	)
	s.publish(ctx, header)

	responses, err := s.itemResponses(ctx, tenantID, []inventory.InventoryItem{*items[0]})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// ReceiveBatch records several lots under one receipt header
func (s *InventoryService) ReceiveBatch(ctx context.Context, tenantID, userID uuid.UUID, req BatchReceiveRequest) (*BatchReceiveResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.InvalidInput("At least one item is required")
	}
	if _, err := s.findLocation(ctx, tenantID, req.Header.LocationID); err != nil {
		return nil, err
	}
	receiptDate, err := parseDate("receipt date", req.Header.ReceiptDate)
	if err != nil {
		return nil, err
	}

	var productIDs, subIDs idSet
	for _, item := range req.Items {
		productIDs.add(item.ProductID)
		subIDs.addPtr(item.SubLocationID)
	}
	if err := s.requireProducts(ctx, tenantID, productIDs.list); err != nil {
		return nil, err
	}
	if err := s.requireSubLocations(ctx, tenantID, req.Header.LocationID, subIDs.list); err != nil {
		return nil, err
	}

	locationID := req.Header.LocationID
	spec := inventory.HeaderSpec{
		ReceiptNumber: req.Header.ReceiptNumber,
		Vendor:        req.Header.Vendor,
		Manufacturer:  req.Header.Manufacturer,
		PackageCost:   req.Header.PackageCost,
		LocationID:    &locationID,
		Notes:         req.Header.Notes,
		ReceivedBy:    &userID,
	}
	if receiptDate != nil {
		spec.ReceiptDate = *receiptDate
	}
	header, err := inventory.NewInventoryHeader(tenantID, spec)
	if err != nil {
		return nil, err
	}

	lots := make([]inventory.LotSpec, len(req.Items))
	for i, item := range req.Items {
		expiration, err := parseDate("expiration date", item.ExpirationDate)
		if err != nil {
			return nil, err
		}
		lots[i] = inventory.LotSpec{
			ProductID:      item.ProductID,
			Price:          item.Price,
			LotNumber:      item.LotNumber,
			SerialNumber:   item.SerialNumber,
			ExpirationDate: expiration,
			UnitsReceived:  item.UnitsReceived,
			SubLocationID:  item.SubLocationID,
		}
	}
	items, ledger, err := header.Receive(lots)
	if err != nil {
		return nil, err
	}

	if err := s.persistReceipt(ctx, header, items, ledger); err != nil {
		return nil, err
	}
	s.logger.Info("Batch inventory received",
		zap.String("tenant_id", tenantID.String()),
		zap.String("receipt_number", header.ReceiptNumber),
		zap.Int("items", len(items)),
	)
	s.publish(ctx, header)

	return &BatchReceiveResponse{Header: ToHeaderResponse(header), ItemsCount: len(items)}, nil
}

func (s *InventoryService) persistReceipt(ctx context.Context, header *inventory.InventoryHeader, items []*inventory.InventoryItem, ledger []*inventory.InventoryTransaction) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.HeaderRepo().Save(ctx, header); err != nil {
			return err
		}
		for _, item := range items {
			if err := repos.ItemRepo().Create(ctx, item); err != nil {
				return err
			}
		}
		return repos.TransactionRepo().CreateBatch(ctx, ledger)
	})
}

// Transfer moves quantity from one lot row to the matching row at the
// destination, opening a new row there when none exists.
func (s *InventoryService) Transfer(ctx context.Context, tenantID, userID uuid.UUID, req TransferRequest) (*TransferResponse, error) {
	spec := inventory.TransferSpec{
		InventoryID:              req.InventoryID,
		Quantity:                 req.Quantity,
		SourceLocationID:         req.SourceLocationID,
		SourceSubLocationID:      req.SourceSubLocationID,
		DestinationLocationID:    req.DestinationLocationID,
		DestinationSubLocationID: req.DestinationSubLocationID,
		Notes:                    req.Notes,
		TransferredBy:            &userID,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	destinationID := req.DestinationLocationID
	if _, _, err := s.resolvePlacement(ctx, tenantID, &destinationID, req.DestinationSubLocationID); err != nil {
		return nil, err
	}

	var result *inventory.TransferResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		source, err := repos.ItemRepo().FindByID(ctx, tenantID, req.InventoryID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		var destination *inventory.InventoryItem
		if source != nil {
			destination, err = repos.ItemRepo().FindDestination(ctx, tenantID, source.ProductID, source.LotNumber, req.DestinationLocationID, req.DestinationSubLocationID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}

		result, err = inventory.Transfer(source, destination, spec)
		if err != nil {
			return err
		}
		if err := repos.ItemRepo().SaveWithLock(ctx, result.Source); err != nil {
			return err
		}
		if result.DestinationCreated {
			err = repos.ItemRepo().Create(ctx, result.Destination)
		} else {
			err = repos.ItemRepo().SaveWithLock(ctx, result.Destination)
		}
		if err != nil {
			return err
		}
		if err := repos.TransferRepo().Save(ctx, result.Transfer); err != nil {
			return err
		}
		return repos.TransactionRepo().CreateBatch(ctx, result.Ledger)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inventory transferred",
		zap.String("tenant_id", tenantID.String()),
		zap.String("transfer_id", result.Transfer.ID.String()),
		zap.String("quantity", result.Transfer.Quantity.String()),
		zap.Bool("destination_created", result.DestinationCreated),
	)
	s.publish(ctx, result.Source)

	response := ToTransferResponse(result.Transfer)
	return &response, nil
}

// ListTransfers returns transfers, most recent first
func (s *InventoryService) ListTransfers(ctx context.Context, tenantID uuid.UUID, filter HistoryFilter) ([]TransferResponse, int64, error) {
	filter = filter.normalize()
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "transferred_at",
		OrderDir: "desc",
	}
	transfers, err := s.repos.Transfers.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Transfers.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	var itemIDs, subIDs idSet
	for i := range transfers {
		itemIDs.add(transfers[i].InventoryID)
		subIDs.addPtr(transfers[i].SourceSubLocationID)
		subIDs.addPtr(transfers[i].DestinationSubLocationID)
	}
	items, err := s.itemsByID(ctx, tenantID, itemIDs.list)
	if err != nil {
		return nil, 0, err
	}
	var productIDs idSet
	for _, item := range items {
		productIDs.add(item.ProductID)
	}
	names, err := s.loadNames(ctx, tenantID, productIDs.list, subIDs.list)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TransferResponse, len(transfers))
	for i := range transfers {
		t := &transfers[i]
		r := ToTransferResponse(t)
		if item, ok := items[t.InventoryID]; ok {
			r.ProductName = names.products[item.ProductID].Name
		}
		r.SourceLocationName = names.locations[t.SourceLocationID]
		r.SourceSubLocationName = names.subLocation(t.SourceSubLocationID)
		r.DestinationLocationName = names.locations[t.DestinationLocationID]
		r.DestinationSubLocationName = names.subLocation(t.DestinationSubLocationID)
		responses[i] = r
	}
	return responses, total, nil
}

// Dispense deducts quantity from a lot row for use
func (s *InventoryService) Dispense(ctx context.Context, tenantID, userID uuid.UUID, req DispenseRequest) (*DispenseResponse, error) {
	dispensedAt, err := parseDate("dispensed date", req.DispensedAt)
	if err != nil {
		return nil, err
	}
	spec := inventory.DispenseSpec{
		Quantity:    req.Quantity,
		Note:        req.Note,
		DispensedBy: &userID,
	}
	if dispensedAt != nil {
		spec.DispensedAt = *dispensedAt
	}

	var dispense *inventory.InventoryDispense
	var item *inventory.InventoryItem
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		item, err = s.findItem(ctx, repos.ItemRepo(), tenantID, req.InventoryID, "Inventory")
		if err != nil {
			return err
		}
		var entry *inventory.InventoryTransaction
		dispense, entry, err = inventory.Dispense(item, spec, s.now())
		if err != nil {
			return err
		}
		if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
			return err
		}
		if err := repos.DispenseRepo().Save(ctx, dispense); err != nil {
			return err
		}
		return repos.TransactionRepo().CreateBatch(ctx, []*inventory.InventoryTransaction{entry})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inventory dispensed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("inventory_id", item.ID.String()),
		zap.String("quantity", dispense.Quantity.String()),
	)
	s.publish(ctx, item)

	response := ToDispenseResponse(dispense)
	return &response, nil
}

// ListDispenses returns dispenses, most recent first, with the product,
// location and user behind each one
func (s *InventoryService) ListDispenses(ctx context.Context, tenantID uuid.UUID, filter HistoryFilter) ([]DispenseResponse, int64, error) {
	filter = filter.normalize()
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "dispensed_at",
		OrderDir: "desc",
	}
	dispenses, err := s.repos.Dispenses.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Dispenses.Count(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	var itemIDs, userIDs idSet
	for i := range dispenses {
		itemIDs.add(dispenses[i].InventoryID)
		userIDs.addPtr(dispenses[i].DispensedBy)
	}
	items, err := s.itemsByID(ctx, tenantID, itemIDs.list)
	if err != nil {
		return nil, 0, err
	}
	var productIDs, subIDs idSet
	for _, item := range items {
		productIDs.add(item.ProductID)
		subIDs.addPtr(item.SubLocationID)
	}
	names, err := s.loadNames(ctx, tenantID, productIDs.list, subIDs.list)
	if err != nil {
		return nil, 0, err
	}
	emails := map[uuid.UUID]string{}
	if len(userIDs.list) > 0 {
		users, err := s.userRepo.FindByIDs(ctx, tenantID, userIDs.list)
		if err != nil {
			return nil, 0, err
		}
		for i := range users {
			emails[users[i].ID] = users[i].Email
		}
	}

	responses := make([]DispenseResponse, len(dispenses))
	for i := range dispenses {
		d := &dispenses[i]
		r := ToDispenseResponse(d)
		if item, ok := items[d.InventoryID]; ok {
			r.ProductName = names.products[item.ProductID].Name
			r.LocationName = names.location(item.LocationID)
			r.SubLocationName = names.subLocation(item.SubLocationID)
		}
		if d.DispensedBy != nil {
			r.UserEmail = emails[*d.DispensedBy]
		}
		responses[i] = r
	}
	return responses, total, nil
}

// ListTransactions returns the ledger of one lot row, most recent first
func (s *InventoryService) ListTransactions(ctx context.Context, tenantID, itemID uuid.UUID, filter HistoryFilter) ([]TransactionResponse, int64, error) {
	if _, err := s.findItem(ctx, s.repos.Items, tenantID, itemID, "Inventory item"); err != nil {
		return nil, 0, err
	}
	filter = filter.normalize()
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "transaction_date",
		OrderDir: "desc",
	}
	entries, err := s.repos.Transactions.FindByInventoryItem(ctx, tenantID, itemID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Transactions.CountByInventoryItem(ctx, tenantID, itemID)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]TransactionResponse, len(entries))
	for i := range entries {
		responses[i] = ToTransactionResponse(&entries[i])
	}
	return responses, total, nil
}

// resolvePlacement checks that the location and sub-location exist and agree.
// A sub-location without a location takes its parent.
func (s *InventoryService) resolvePlacement(ctx context.Context, tenantID uuid.UUID, locationID, subLocationID *uuid.UUID) (*uuid.UUID, *uuid.UUID, error) {
	if subLocationID != nil {
		sub, err := s.locationRepo.FindSubLocationByID(ctx, tenantID, *subLocationID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, nil, shared.NotFound("Sub-location")
			}
			return nil, nil, err
		}
		if locationID == nil {
			parent := sub.LocationID
			locationID = &parent
		} else if *locationID != sub.LocationID {
			return nil, nil, shared.InvalidInput("Sub-location does not belong to the location")
		}
	}
	if locationID != nil {
		if _, err := s.findLocation(ctx, tenantID, *locationID); err != nil {
			return nil, nil, err
		}
	}
	return locationID, subLocationID, nil
}

func (s *InventoryService) requireProducts(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	products, err := s.productRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	if len(products) != len(ids) {
		return shared.NotFound("Product")
	}
	return nil
}

func (s *InventoryService) requireSubLocations(ctx context.Context, tenantID, locationID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	subs, err := s.locationRepo.FindSubLocationsByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	if len(subs) != len(ids) {
		return shared.NotFound("Sub-location")
	}
	for i := range subs {
		if subs[i].LocationID != locationID {
			return shared.InvalidInput("Sub-location does not belong to the location")
		}
	}
	return nil
}

func (s *InventoryService) findItem(ctx context.Context, repo inventory.InventoryItemRepository, tenantID, id uuid.UUID, resource string) (*inventory.InventoryItem, error) {
	item, err := repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound(resource)
		}
		return nil, err
	}
	return item, nil
}

func (s *InventoryService) findProduct(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Product")
		}
		return nil, err
	}
	return product, nil
}

func (s *InventoryService) findLocation(ctx context.Context, tenantID, id uuid.UUID) (*location.Location, error) {
	loc, err := s.locationRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Location")
		}
		return nil, err
	}
	return loc, nil
}

func (s *InventoryService) itemsByID(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]inventory.InventoryItem, error) {
	result := make(map[uuid.UUID]inventory.InventoryItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	items, err := s.repos.Items.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		result[items[i].ID] = items[i]
	}
	return result, nil
}

func (s *InventoryService) itemResponses(ctx context.Context, tenantID uuid.UUID, items []inventory.InventoryItem) ([]InventoryItemResponse, error) {
	var productIDs, subIDs idSet
	for i := range items {
		productIDs.add(items[i].ProductID)
		subIDs.addPtr(items[i].SubLocationID)
	}
	names, err := s.loadNames(ctx, tenantID, productIDs.list, subIDs.list)
	if err != nil {
		return nil, err
	}
	responses := make([]InventoryItemResponse, len(items))
	for i := range items {
		r := ToInventoryItemResponse(&items[i])
		product := names.products[items[i].ProductID]
		r.ProductName = product.Name
		r.SKU = product.SKU
		r.LocationName = names.location(items[i].LocationID)
		r.SubLocationName = names.subLocation(items[i].SubLocationID)
		responses[i] = r
	}
	return responses, nil
}

// displayNames resolves IDs on ledger rows to the names shown in lists.
type displayNames struct {
	products     map[uuid.UUID]catalog.Product
	locations    map[uuid.UUID]string
	subLocations map[uuid.UUID]string
}

func (n *displayNames) location(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return n.locations[*id]
}

func (n *displayNames) subLocation(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return n.subLocations[*id]
}

func (s *InventoryService) loadNames(ctx context.Context, tenantID uuid.UUID, productIDs, subLocationIDs []uuid.UUID) (*displayNames, error) {
	names := &displayNames{
		products:     map[uuid.UUID]catalog.Product{},
		locations:    map[uuid.UUID]string{},
		subLocations: map[uuid.UUID]string{},
	}
	if len(productIDs) > 0 {
		products, err := s.productRepo.FindByIDs(ctx, tenantID, productIDs)
		if err != nil {
			return nil, err
		}
		for i := range products {
			names.products[products[i].ID] = products[i]
		}
	}
	locations, err := s.locationRepo.FindAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range locations {
		names.locations[locations[i].ID] = locations[i].Name
	}
	if len(subLocationIDs) > 0 {
		subs, err := s.locationRepo.FindSubLocationsByIDs(ctx, tenantID, subLocationIDs)
		if err != nil {
			return nil, err
		}
		for i := range subs {
			names.subLocations[subs[i].ID] = subs[i].Name
		}
	}
	return names, nil
}

func (s *InventoryService) publish(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	aggregate.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish inventory events", zap.Error(err))
	}
}

// idSet collects distinct IDs in first-seen order.
type idSet struct {
	seen map[uuid.UUID]struct{}
	list []uuid.UUID
}

func (s *idSet) add(id uuid.UUID) {
	if s.seen == nil {
		s.seen = map[uuid.UUID]struct{}{}
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.list = append(s.list, id)
}

func (s *idSet) addPtr(id *uuid.UUID) {
	if id != nil {
		s.add(*id)
	}
}

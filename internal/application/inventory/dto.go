package inventory

import (
	"strings"
	"time"

	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// dateLayouts are the accepted formats for date fields sent by clients.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseDate parses an optional date. Blank means nil.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, shared.InvalidInput("Invalid " + field + ": " + value)
}

// ReceiveRequest records a single lot receipt
type ReceiveRequest struct {
	ProductID      uuid.UUID       `json:"productId" binding:"required"`
	Price          decimal.Decimal `json:"price" binding:"decimal_gt0"`
	PackageCost    decimal.Decimal `json:"packageCost" binding:"decimal_gt0"`
	LotNumber      string          `json:"lotNumber" binding:"required,max=100"`
	ExpirationDate string          `json:"expirationDate"`
	SerialNumber   string          `json:"serialNumber" binding:"required,max=100"`
	Vendor         string          `json:"vendor" binding:"required,max=200"`
	Manufacturer   string          `json:"manufacturer" binding:"required,max=200"`
	UnitsReceived  decimal.Decimal `json:"unitsReceived" binding:"decimal_gt0"`
	LocationID     *uuid.UUID      `json:"locationId"`
	SubLocationID  *uuid.UUID      `json:"subLocationId"`
}

// BatchHeaderRequest carries the receipt-level fields of a batch receipt
type BatchHeaderRequest struct {
	Vendor        string          `json:"vendor" binding:"max=200"`
	Manufacturer  string          `json:"manufacturer" binding:"max=200"`
	PackageCost   decimal.Decimal `json:"packageCost" binding:"decimal_gte0"`
	ReceiptDate   string          `json:"receiptDate"`
	ReceiptNumber string          `json:"receiptNumber" binding:"max=50"`
	Notes         string          `json:"notes" binding:"max=2000"`
	LocationID    uuid.UUID       `json:"locationId" binding:"required"`
}

// BatchItemRequest is one lot of a batch receipt
type BatchItemRequest struct {
	ProductID      uuid.UUID       `json:"productId" binding:"required"`
	Price          decimal.Decimal `json:"price" binding:"decimal_gt0"`
	LotNumber      string          `json:"lotNumber" binding:"required,max=100"`
	ExpirationDate string          `json:"expirationDate"`
	SerialNumber   string          `json:"serialNumber" binding:"required,max=100"`
	UnitsReceived  decimal.Decimal `json:"unitsReceived" binding:"decimal_gt0"`
	SubLocationID  *uuid.UUID      `json:"subLocationId"`
}

// BatchReceiveRequest records a multi-lot receipt under one header
type BatchReceiveRequest struct {
	Header BatchHeaderRequest `json:"header" binding:"required"`
	Items  []BatchItemRequest `json:"items" binding:"required,min=1,dive"`
}

// TransferRequest moves quantity between locations
type TransferRequest struct {
	InventoryID              uuid.UUID       `json:"inventoryId" binding:"required"`
	Quantity                 decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	SourceLocationID         uuid.UUID       `json:"sourceLocationId" binding:"required"`
	SourceSubLocationID      *uuid.UUID      `json:"sourceSubLocationId"`
	DestinationLocationID    uuid.UUID       `json:"destLocationId" binding:"required"`
	DestinationSubLocationID *uuid.UUID      `json:"destSubLocationId"`
	Notes                    string          `json:"notes" binding:"max=2000"`
}

// DispenseRequest deducts quantity for use
type DispenseRequest struct {
	InventoryID uuid.UUID       `json:"inventoryId" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	Note        string          `json:"note" binding:"max=2000"`
	DispensedAt string          `json:"dispensedAt"`
}

// InventoryListFilter represents filter options for the stock list
type InventoryListFilter struct {
	ProductID     *uuid.UUID `form:"-"`
	LocationID    *uuid.UUID `form:"-"`
	SubLocationID *uuid.UUID `form:"-"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// LotSuggestionRequest asks which lots of a product should cover a quantity
type LotSuggestionRequest struct {
	ProductID  uuid.UUID
	LocationID *uuid.UUID
	Quantity   decimal.Decimal
	PreferLot  string
}

// HistoryFilter pages through transfer, dispense and ledger history
type HistoryFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

func (f HistoryFilter) normalize() HistoryFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	return f
}

// InventoryItemResponse represents one lot row
type InventoryItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	HeaderID        uuid.UUID       `json:"headerId"`
	ProductID       uuid.UUID       `json:"productId"`
	ProductName     string          `json:"productName"`
	SKU             string          `json:"sku"`
	LocationID      *uuid.UUID      `json:"locationId,omitempty"`
	LocationName    string          `json:"locationName,omitempty"`
	SubLocationID   *uuid.UUID      `json:"subLocationId,omitempty"`
	SubLocationName string          `json:"subLocationName,omitempty"`
	Price           decimal.Decimal `json:"price"`
	PackageCost     decimal.Decimal `json:"packageCost"`
	LotNumber       string          `json:"lotNumber"`
	SerialNumber    string          `json:"serialNumber"`
	Vendor          string          `json:"vendor"`
	Manufacturer    string          `json:"manufacturer"`
	ExpirationDate  *time.Time      `json:"expirationDate,omitempty"`
	UnitsReceived   decimal.Decimal `json:"unitsReceived"`
	QuantityOnHand  decimal.Decimal `json:"quantityOnHand"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Version         int             `json:"version"`
}

// LotPickResponse is one lot of a suggestion and the quantity to take from it
type LotPickResponse struct {
	InventoryID    uuid.UUID       `json:"inventoryId"`
	LotNumber      string          `json:"lotNumber"`
	SerialNumber   string          `json:"serialNumber"`
	ExpirationDate *time.Time      `json:"expirationDate,omitempty"`
	LocationID     *uuid.UUID      `json:"locationId,omitempty"`
	SubLocationID  *uuid.UUID      `json:"subLocationId,omitempty"`
	QuantityOnHand decimal.Decimal `json:"quantityOnHand"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// LotSuggestionResponse lists lots first-expired-first-out
type LotSuggestionResponse struct {
	ProductID uuid.UUID         `json:"productId"`
	Requested decimal.Decimal   `json:"requested"`
	Allocated decimal.Decimal   `json:"allocated"`
	Shortfall decimal.Decimal   `json:"shortfall"`
	Lots      []LotPickResponse `json:"lots"`
}

// HeaderResponse represents a receipt header
type HeaderResponse struct {
	ID            uuid.UUID       `json:"id"`
	ReceiptNumber string          `json:"receiptNumber"`
	ReceiptDate   time.Time       `json:"receiptDate"`
	Vendor        string          `json:"vendor"`
	Manufacturer  string          `json:"manufacturer"`
	PackageCost   decimal.Decimal `json:"packageCost"`
	LocationID    *uuid.UUID      `json:"locationId,omitempty"`
	Notes         string          `json:"notes"`
	SourceType    string          `json:"sourceType"`
	SourceID      *uuid.UUID      `json:"sourceId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// BatchReceiveResponse is returned by a batch receipt
type BatchReceiveResponse struct {
	Header     HeaderResponse `json:"header"`
	ItemsCount int            `json:"itemsCount"`
}

// TransferResponse represents a transfer record
type TransferResponse struct {
	ID                         uuid.UUID       `json:"id"`
	InventoryID                uuid.UUID       `json:"inventoryId"`
	DestinationInventoryID     uuid.UUID       `json:"destinationInventoryId"`
	ProductName                string          `json:"productName,omitempty"`
	Quantity                   decimal.Decimal `json:"quantity"`
	SourceLocationID           uuid.UUID       `json:"sourceLocationId"`
	SourceLocationName         string          `json:"sourceLocationName,omitempty"`
	SourceSubLocationID        *uuid.UUID      `json:"sourceSubLocationId,omitempty"`
	SourceSubLocationName      string          `json:"sourceSubLocationName,omitempty"`
	DestinationLocationID      uuid.UUID       `json:"destLocationId"`
	DestinationLocationName    string          `json:"destLocationName,omitempty"`
	DestinationSubLocationID   *uuid.UUID      `json:"destSubLocationId,omitempty"`
	DestinationSubLocationName string          `json:"destSubLocationName,omitempty"`
	Notes                      string          `json:"notes"`
	TransferredBy              *uuid.UUID      `json:"transferredBy,omitempty"`
	TransferredAt              time.Time       `json:"transferredAt"`
}

// DispenseResponse represents a dispense record
type DispenseResponse struct {
	ID              uuid.UUID       `json:"id"`
	InventoryID     uuid.UUID       `json:"inventoryId"`
	ProductName     string          `json:"productName,omitempty"`
	LocationName    string          `json:"locationName,omitempty"`
	SubLocationName string          `json:"subLocationName,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Note            string          `json:"note"`
	DispensedAt     time.Time       `json:"dispensedAt"`
	DispensedBy     *uuid.UUID      `json:"dispensedBy,omitempty"`
	UserEmail       string          `json:"userEmail,omitempty"`
}

// TransactionResponse represents one ledger row
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	InventoryID     uuid.UUID       `json:"inventoryId"`
	ProductID       uuid.UUID       `json:"productId"`
	LocationID      *uuid.UUID      `json:"locationId,omitempty"`
	Type            string          `json:"type"`
	Quantity        decimal.Decimal `json:"quantity"`
	BalanceBefore   decimal.Decimal `json:"balanceBefore"`
	BalanceAfter    decimal.Decimal `json:"balanceAfter"`
	SourceType      string          `json:"sourceType"`
	SourceID        uuid.UUID       `json:"sourceId"`
	Reference       string          `json:"reference,omitempty"`
	OperatorID      *uuid.UUID      `json:"operatorId,omitempty"`
	TransactionDate time.Time       `json:"transactionDate"`
}

// OptionResponse is a picker entry
type OptionResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ToInventoryItemResponse converts a lot row without display names
func ToInventoryItemResponse(item *inventory.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:             item.ID,
		HeaderID:       item.HeaderID,
		ProductID:      item.ProductID,
		LocationID:     item.LocationID,
		SubLocationID:  item.SubLocationID,
		Price:          item.Price,
		PackageCost:    item.PackageCost,
		LotNumber:      item.LotNumber,
		SerialNumber:   item.SerialNumber,
		Vendor:         item.Vendor,
		Manufacturer:   item.Manufacturer,
		ExpirationDate: item.ExpirationDate,
		UnitsReceived:  item.UnitsReceived,
		QuantityOnHand: item.QuantityOnHand,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
		Version:        item.Version,
	}
}

// ToHeaderResponse converts a receipt header
func ToHeaderResponse(h *inventory.InventoryHeader) HeaderResponse {
	return HeaderResponse{
		ID:            h.ID,
		ReceiptNumber: h.ReceiptNumber,
		ReceiptDate:   h.ReceiptDate,
		Vendor:        h.Vendor,
		Manufacturer:  h.Manufacturer,
		PackageCost:   h.PackageCost,
		LocationID:    h.LocationID,
		Notes:         h.Notes,
		SourceType:    string(h.SourceType),
		SourceID:      h.SourceID,
		CreatedAt:     h.CreatedAt,
	}
}

// ToTransferResponse converts a transfer record without display names
func ToTransferResponse(t *inventory.InventoryTransfer) TransferResponse {
	return TransferResponse{
		ID:                       t.ID,
		InventoryID:              t.InventoryID,
		DestinationInventoryID:   t.DestinationInventoryID,
		Quantity:                 t.Quantity,
		SourceLocationID:         t.SourceLocationID,
		SourceSubLocationID:      t.SourceSubLocationID,
		DestinationLocationID:    t.DestinationLocationID,
		DestinationSubLocationID: t.DestinationSubLocationID,
		Notes:                    t.Notes,
		TransferredBy:            t.TransferredBy,
		TransferredAt:            t.TransferredAt,
	}
}

// ToDispenseResponse converts a dispense record without display names
func ToDispenseResponse(d *inventory.InventoryDispense) DispenseResponse {
	return DispenseResponse{
		ID:          d.ID,
		InventoryID: d.InventoryID,
		Quantity:    d.Quantity,
		Note:        d.Note,
		DispensedAt: d.DispensedAt,
		DispensedBy: d.DispensedBy,
	}
}

// ToTransactionResponse converts a ledger row
func ToTransactionResponse(t *inventory.InventoryTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		InventoryID:     t.InventoryItemID,
		ProductID:       t.ProductID,
		LocationID:      t.LocationID,
		Type:            string(t.TransactionType),
		Quantity:        t.Quantity,
		BalanceBefore:   t.BalanceBefore,
		BalanceAfter:    t.BalanceAfter,
		SourceType:      string(t.SourceType),
		SourceID:        t.SourceID,
		Reference:       t.Reference,
		OperatorID:      t.OperatorID,
		TransactionDate: t.TransactionDate,
	}
}

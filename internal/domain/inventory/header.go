package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptSource says what produced a receipt header.
type ReceiptSource string

const (
	ReceiptSourceManual        ReceiptSource = "MANUAL"
	ReceiptSourcePurchaseOrder ReceiptSource = "PURCHASE_ORDER"
)

// InventoryHeader groups the lot rows created by one receipt.
type InventoryHeader struct {
	shared.TenantAggregateRoot
	ReceiptNumber string          `gorm:"type:varchar(50);not null" json:"receiptNumber"`
	ReceiptDate   time.Time       `gorm:"not null" json:"receiptDate"`
	Vendor        string          `gorm:"type:varchar(200)" json:"vendor"`
	Manufacturer  string          `gorm:"type:varchar(200)" json:"manufacturer"`
	PackageCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"packageCost"`
	LocationID    *uuid.UUID      `gorm:"type:uuid" json:"locationId,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes"`
	SourceType    ReceiptSource   `gorm:"type:varchar(30);not null;default:'MANUAL'" json:"sourceType"`
	SourceID      *uuid.UUID      `gorm:"type:uuid" json:"sourceId,omitempty"`
	ReceivedBy    *uuid.UUID      `gorm:"type:uuid" json:"receivedBy,omitempty"`
}

func (InventoryHeader) TableName() string {
	return "inventory_headers"
}

// HeaderSpec carries the receipt-level fields shared by every item of a receipt.
type HeaderSpec struct {
	ReceiptNumber string
	ReceiptDate   time.Time
	Vendor        string
	Manufacturer  string
	PackageCost   decimal.Decimal
	LocationID    *uuid.UUID
	Notes         string
	SourceType    ReceiptSource
	SourceID      *uuid.UUID
	ReceivedBy    *uuid.UUID
}

// NewReceiptNumber returns the default receipt number for the given instant.
func NewReceiptNumber(at time.Time) string {
	return fmt.Sprintf("R-%d", at.UnixMilli())
}

// NewInventoryHeader opens a receipt. A blank number or date is defaulted
// from the current time.
func NewInventoryHeader(tenantID uuid.UUID, spec HeaderSpec) (*InventoryHeader, error) {
	if spec.PackageCost.IsNegative() {
		return nil, shared.InvalidInput("Package cost cannot be negative")
	}
	now := time.Now()
	number := strings.TrimSpace(spec.ReceiptNumber)
	if number == "" {
		number = NewReceiptNumber(now)
	}
	date := spec.ReceiptDate
	if date.IsZero() {
		date = now
	}
	source := spec.SourceType
	if source == "" {
		source = ReceiptSourceManual
	}
	if source == ReceiptSourcePurchaseOrder && spec.SourceID == nil {
		return nil, shared.InvalidInput("Purchase order receipts require a source ID")
	}
	return &InventoryHeader{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceiptNumber:       number,
		ReceiptDate:         date,
		Vendor:              strings.TrimSpace(spec.Vendor),
		Manufacturer:        strings.TrimSpace(spec.Manufacturer),
		PackageCost:         spec.PackageCost,
		LocationID:          spec.LocationID,
		Notes:               spec.Notes,
		SourceType:          source,
		SourceID:            spec.SourceID,
		ReceivedBy:          spec.ReceivedBy,
	}, nil
}

// LotSpec describes one received lot.
type LotSpec struct {
	ProductID      uuid.UUID
	Price          decimal.Decimal
	LotNumber      string
	SerialNumber   string
	ExpirationDate *time.Time
	UnitsReceived  decimal.Decimal
	SubLocationID  *uuid.UUID
}

// Receive creates the lot rows for this receipt. Every row inherits the
// header's package cost, vendor, manufacturer and location. A
// RECEIPT ledger row is produced for each lot (PURCHASE_RECEIPT when the
// header comes from a purchase order).
func (h *InventoryHeader) Receive(lots []LotSpec) ([]*InventoryItem, []*InventoryTransaction, error) {
	if len(lots) == 0 {
		return nil, nil, shared.InvalidInput("At least one item is required")
	}
	items := make([]*InventoryItem, 0, len(lots))
	ledger := make([]*InventoryTransaction, 0, len(lots))
	txType := TransactionTypeReceipt
	sourceType := SourceTypeReceipt
	sourceID := h.ID
	if h.SourceType == ReceiptSourcePurchaseOrder {
		txType = TransactionTypePurchaseReceipt
		sourceType = SourceTypePurchaseOrder
		sourceID = *h.SourceID
	}
	for i, lot := range lots {
		item, err := newInventoryItem(h, lot)
		if err != nil {
			return nil, nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		entry := NewInventoryTransaction(item, txType, StockChange{
			Quantity: item.UnitsReceived,
			Before:   decimal.Zero,
			After:    item.QuantityOnHand,
		}, sourceType, sourceID).
			WithReference(h.ReceiptNumber).
			WithTransactionDate(h.ReceiptDate)
		if h.ReceivedBy != nil {
			entry.WithOperatorID(*h.ReceivedBy)
		}
		items = append(items, item)
		ledger = append(ledger, entry)
	}
	h.AddDomainEvent(NewInventoryReceivedEvent(h, items))
	return items, ledger, nil
}

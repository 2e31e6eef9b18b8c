package inventory

import (
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeInventoryHeader = "InventoryHeader"
	AggregateTypeInventoryItem   = "InventoryItem"
	AggregateTypeOrganization    = "Organization"
)

const (
	EventTypeInventoryReceived    = "InventoryReceived"
	EventTypeInventoryTransferred = "InventoryTransferred"
	EventTypeInventoryDispensed   = "InventoryDispensed"
	EventTypeInventoryExpiring    = "InventoryExpiring"
)

// InventoryReceivedEvent is raised when a receipt is recorded.
type InventoryReceivedEvent struct {
	shared.BaseDomainEvent
	HeaderID      uuid.UUID     `json:"headerId"`
	ReceiptNumber string        `json:"receiptNumber"`
	SourceType    ReceiptSource `json:"sourceType"`
	ItemIDs       []uuid.UUID   `json:"itemIds"`
}

func NewInventoryReceivedEvent(h *InventoryHeader, items []*InventoryItem) *InventoryReceivedEvent {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return &InventoryReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryReceived, AggregateTypeInventoryHeader, h.ID, h.TenantID),
		HeaderID:        h.ID,
		ReceiptNumber:   h.ReceiptNumber,
		SourceType:      h.SourceType,
		ItemIDs:         ids,
	}
}

// InventoryTransferredEvent is raised when stock moves between locations.
type InventoryTransferredEvent struct {
	shared.BaseDomainEvent
	TransferID             uuid.UUID       `json:"transferId"`
	ProductID              uuid.UUID       `json:"productId"`
	InventoryID            uuid.UUID       `json:"inventoryId"`
	DestinationInventoryID uuid.UUID       `json:"destinationInventoryId"`
	Quantity               decimal.Decimal `json:"quantity"`
}

func NewInventoryTransferredEvent(t *InventoryTransfer, productID uuid.UUID) *InventoryTransferredEvent {
	return &InventoryTransferredEvent{
		BaseDomainEvent:        shared.NewBaseDomainEvent(EventTypeInventoryTransferred, AggregateTypeInventoryItem, t.InventoryID, t.TenantID),
		TransferID:             t.ID,
		ProductID:              productID,
		InventoryID:            t.InventoryID,
		DestinationInventoryID: t.DestinationInventoryID,
		Quantity:               t.Quantity,
	}
}

// InventoryDispensedEvent is raised when stock is consumed.
type InventoryDispensedEvent struct {
	shared.BaseDomainEvent
	DispenseID  uuid.UUID       `json:"dispenseId"`
	ProductID   uuid.UUID       `json:"productId"`
	InventoryID uuid.UUID       `json:"inventoryId"`
	Quantity    decimal.Decimal `json:"quantity"`
}

func NewInventoryDispensedEvent(d *InventoryDispense, productID uuid.UUID) *InventoryDispensedEvent {
	return &InventoryDispensedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryDispensed, AggregateTypeInventoryItem, d.InventoryID, d.TenantID),
		DispenseID:      d.ID,
		ProductID:       productID,
		InventoryID:     d.InventoryID,
		Quantity:        d.Quantity,
	}
}

// ExpiringLot is one in-stock lot reported by an expiry scan.
type ExpiringLot struct {
	InventoryID    uuid.UUID       `json:"inventoryId"`
	ProductID      uuid.UUID       `json:"productId"`
	LocationID     *uuid.UUID      `json:"locationId,omitempty"`
	LotNumber      string          `json:"lotNumber"`
	ExpirationDate time.Time       `json:"expirationDate"`
	QuantityOnHand decimal.Decimal `json:"quantityOnHand"`
}

// InventoryExpiringEvent lists a tenant's lots that expire on or before
// Cutoff. It is raised by the daily expiry scan, not by a state change.
type InventoryExpiringEvent struct {
	shared.BaseDomainEvent
	Cutoff time.Time     `json:"cutoff"`
	Lots   []ExpiringLot `json:"lots"`
}

// NewInventoryExpiringEvent summarises items. Items without an expiration
// date are skipped.
func NewInventoryExpiringEvent(tenantID uuid.UUID, cutoff time.Time, items []InventoryItem) *InventoryExpiringEvent {
	lots := make([]ExpiringLot, 0, len(items))
	for _, item := range items {
		if item.ExpirationDate == nil {
			continue
		}
		lots = append(lots, ExpiringLot{
			InventoryID:    item.ID,
			ProductID:      item.ProductID,
			LocationID:     item.LocationID,
			LotNumber:      item.LotNumber,
			ExpirationDate: *item.ExpirationDate,
			QuantityOnHand: item.QuantityOnHand,
		})
	}
	return &InventoryExpiringEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryExpiring, AggregateTypeOrganization, tenantID, tenantID),
		Cutoff:          cutoff,
		Lots:            lots,
	}
}

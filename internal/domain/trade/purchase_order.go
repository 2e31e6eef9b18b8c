package trade

import (
	"fmt"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CanTransitionTo checks a purchase order status transition.
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	switch s {
	case StatusDraft:
		return target == StatusPosted || target == StatusCancelled
	case StatusPosted:
		return target == StatusReceived || target == StatusCancelled
	}
	return false
}

// PurchaseOrderItem is one ordered product line.
type PurchaseOrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchaseOrderId"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null" json:"productId"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"not null" json:"createdAt"`
}

func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// OrderLine is the input for one purchase order item.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Price     decimal.Decimal
}

// Validate checks a line before it is added to an order.
func (l OrderLine) Validate() error {
	if l.ProductID == uuid.Nil {
		return shared.InvalidInput("Product is required")
	}
	// Received lines become lots, which hold whole units.
	if !l.Quantity.IsPositive() || !l.Quantity.IsInteger() {
		return shared.InvalidInput("Quantity must be a whole number greater than 0")
	}
	if !l.Price.IsPositive() {
		return shared.InvalidInput("Price must be positive")
	}
	return nil
}

func newPurchaseOrderItem(orderID uuid.UUID, line OrderLine) (*PurchaseOrderItem, error) {
	if err := line.Validate(); err != nil {
		return nil, err
	}
	return &PurchaseOrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Price:     line.Price,
		Amount:    line.Quantity.Mul(line.Price),
		CreatedAt: time.Now(),
	}, nil
}

// PurchaseOrder is an order placed with a vendor for delivery to a location.
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	OrderNumber int                 `gorm:"not null" json:"orderNumber"`
	VendorID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"vendorId"`
	LocationID  uuid.UUID           `gorm:"type:uuid;not null" json:"locationId"`
	UserID      *uuid.UUID          `gorm:"type:uuid" json:"userId,omitempty"`
	Status      DocumentStatus      `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"status"`
	Notes       string              `gorm:"type:text" json:"notes"`
	Items       []PurchaseOrderItem `gorm:"foreignKey:OrderID;references:ID" json:"items"`
	Total       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	DocumentKey string              `gorm:"type:varchar(500)" json:"documentKey,omitempty"`
	PostedAt    *time.Time          `json:"postedAt,omitempty"`
	ReceivedAt  *time.Time          `json:"receivedAt,omitempty"`
	CancelledAt *time.Time          `json:"cancelledAt,omitempty"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates an empty draft order.
func NewPurchaseOrder(tenantID uuid.UUID, number int, vendorID, locationID uuid.UUID, userID *uuid.UUID, notes string) (*PurchaseOrder, error) {
	if number <= FirstDocumentNumber {
		return nil, shared.InvalidInput("Order number must be greater than 999")
	}
	if vendorID == uuid.Nil {
		return nil, shared.InvalidInput("Vendor is required")
	}
	if locationID == uuid.Nil {
		return nil, shared.InvalidInput("Location is required")
	}
	return &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         number,
		VendorID:            vendorID,
		LocationID:          locationID,
		UserID:              userID,
		Status:              StatusDraft,
		Notes:               notes,
		Items:               make([]PurchaseOrderItem, 0),
		Total:               decimal.Zero,
	}, nil
}

// AddItems appends lines while the order is a draft and returns the new items.
func (o *PurchaseOrder) AddItems(lines []OrderLine) ([]PurchaseOrderItem, error) {
	if o.Status != StatusDraft {
		return nil, shared.InvalidState(fmt.Sprintf("Cannot add items to order in %s status", o.Status))
	}
	if len(lines) == 0 {
		return nil, shared.InvalidInput("At least one item is required")
	}
	added := make([]PurchaseOrderItem, 0, len(lines))
	for n, line := range lines {
		item, err := newPurchaseOrderItem(o.ID, line)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", n+1, err)
		}
		added = append(added, *item)
	}
	o.Items = append(o.Items, added...)
	o.recalculateTotals()
	return added, nil
}

// DocumentFileName is the attachment name of the rendered order.
func (o *PurchaseOrder) DocumentFileName() string {
	return fmt.Sprintf("PO-%d.pdf", o.OrderNumber)
}

// DocumentStorageKey is where the rendered order is stored.
func (o *PurchaseOrder) DocumentStorageKey() string {
	return fmt.Sprintf("purchase-orders/%s/%s", o.TenantID, o.DocumentFileName())
}

// CheckPostable validates that the order may be posted, without changing it.
func (o *PurchaseOrder) CheckPostable() error {
	if !o.Status.CanTransitionTo(StatusPosted) {
		return shared.InvalidState(fmt.Sprintf("Cannot post order in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.InvalidState("Cannot post order without items")
	}
	return nil
}

// Post transitions DRAFT to POSTED and records where the document was stored.
func (o *PurchaseOrder) Post(documentKey string) error {
	if err := o.CheckPostable(); err != nil {
		return err
	}
	now := time.Now()
	o.Status = StatusPosted
	o.DocumentKey = documentKey
	o.PostedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	o.AddDomainEvent(NewPurchaseOrderPostedEvent(o))
	return nil
}

// Receive transitions POSTED to RECEIVED. The inventory rows are created by
// the caller in the same transaction.
func (o *PurchaseOrder) Receive(headerID uuid.UUID) error {
	if !o.Status.CanTransitionTo(StatusReceived) {
		return shared.InvalidState(fmt.Sprintf("Cannot receive order in %s status", o.Status))
	}
	now := time.Now()
	o.Status = StatusReceived
	o.ReceivedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o, headerID))
	return nil
}

// Cancel is allowed from DRAFT or POSTED.
func (o *PurchaseOrder) Cancel() error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.InvalidState(fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	now := time.Now()
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// FindItem returns the item with the given ID.
func (o *PurchaseOrder) FindItem(itemID uuid.UUID) (*PurchaseOrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}

func (o *PurchaseOrder) recalculateTotals() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.Total = total
}

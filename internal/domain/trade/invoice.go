package trade

import (
	"fmt"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FirstDocumentNumber is the number before the first invoice or purchase
// order of a tenant; numbering starts at FirstDocumentNumber+1.
const FirstDocumentNumber = 999

// NextDocumentNumber returns the number after the tenant's current maximum.
// A zero max means no document exists yet.
func NextDocumentNumber(max int) int {
	if max < FirstDocumentNumber {
		max = FirstDocumentNumber
	}
	return max + 1
}

// DocumentStatus is the lifecycle state of an invoice or purchase order.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusPosted    DocumentStatus = "POSTED"
	StatusReceived  DocumentStatus = "RECEIVED"
	StatusCancelled DocumentStatus = "CANCELLED"
)

// InvoiceItem is one billed line drawn from a specific lot row.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoiceId"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null" json:"productId"`
	InventoryID uuid.UUID       `gorm:"type:uuid;not null" json:"inventoryId"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
	CreatedAt   time.Time       `gorm:"not null" json:"createdAt"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// InvoiceLine is the input for one invoice item.
type InvoiceLine struct {
	ProductID   uuid.UUID
	InventoryID uuid.UUID
	Quantity    decimal.Decimal
	Price       decimal.Decimal
}

func newInvoiceItem(invoiceID uuid.UUID, line InvoiceLine) (*InvoiceItem, error) {
	if line.ProductID == uuid.Nil {
		return nil, shared.InvalidInput("Product is required")
	}
	if line.InventoryID == uuid.Nil {
		return nil, shared.InvalidInput("Inventory item is required")
	}
	if !line.Quantity.IsPositive() {
		return nil, shared.InvalidInput("Quantity must be positive")
	}
	if !line.Price.IsPositive() {
		return nil, shared.InvalidInput("Price must be positive")
	}
	return &InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		ProductID:   line.ProductID,
		InventoryID: line.InventoryID,
		Quantity:    line.Quantity,
		Price:       line.Price,
		Total:       line.Quantity.Mul(line.Price),
		CreatedAt:   time.Now(),
	}, nil
}

// Invoice bills a patient for stock drawn from a location. Posting it
// consumes the referenced lots.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber int             `gorm:"not null" json:"invoiceNumber"`
	PatientID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"patientId"`
	LocationID    uuid.UUID       `gorm:"type:uuid;not null" json:"locationId"`
	UserID        *uuid.UUID      `gorm:"type:uuid" json:"userId,omitempty"`
	Status        DocumentStatus  `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"status"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID;references:ID" json:"items"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	PostedAt      *time.Time      `json:"postedAt,omitempty"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a draft invoice with the given lines.
func NewInvoice(tenantID uuid.UUID, number int, patientID, locationID uuid.UUID, userID *uuid.UUID, notes string, lines []InvoiceLine) (*Invoice, error) {
	if number <= FirstDocumentNumber {
		return nil, shared.InvalidInput("Invoice number must be greater than 999")
	}
	if patientID == uuid.Nil {
		return nil, shared.InvalidInput("Patient is required")
	}
	if locationID == uuid.Nil {
		return nil, shared.InvalidInput("Location is required")
	}
	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       number,
		PatientID:           patientID,
		LocationID:          locationID,
		UserID:              userID,
		Status:              StatusDraft,
		Notes:               notes,
		Items:               make([]InvoiceItem, 0, len(lines)),
	}
	if _, err := inv.AddItems(lines); err != nil {
		return nil, err
	}
	return inv, nil
}

// AddItems appends lines while the invoice is a draft and returns the new items.
func (i *Invoice) AddItems(lines []InvoiceLine) ([]InvoiceItem, error) {
	if i.Status != StatusDraft {
		return nil, shared.InvalidState(fmt.Sprintf("Cannot add items to invoice in %s status", i.Status))
	}
	added := make([]InvoiceItem, 0, len(lines))
	for n, line := range lines {
		item, err := newInvoiceItem(i.ID, line)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", n+1, err)
		}
		added = append(added, *item)
	}
	i.Items = append(i.Items, added...)
	i.recalculateTotals()
	return added, nil
}

// Post marks the invoice as posted. Stock is consumed by the caller in the
// same transaction.
func (i *Invoice) Post() error {
	if i.Status == StatusPosted {
		return shared.InvalidState("Invoice already posted")
	}
	if i.Status != StatusDraft {
		return shared.InvalidState(fmt.Sprintf("Cannot post invoice in %s status", i.Status))
	}
	now := time.Now()
	i.Status = StatusPosted
	i.PostedAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoicePostedEvent(i))
	return nil
}

// IsDraft reports whether the invoice can still be edited.
func (i *Invoice) IsDraft() bool {
	return i.Status == StatusDraft
}

func (i *Invoice) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range i.Items {
		subtotal = subtotal.Add(item.Total)
	}
	i.Subtotal = subtotal
	i.Total = subtotal
}

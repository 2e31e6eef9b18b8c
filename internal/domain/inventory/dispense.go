package inventory

import (
	"errors"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MsgInsufficientDispenseQuantity is reported when a dispense exceeds the
// quantity on hand.
const MsgInsufficientDispenseQuantity = "Insufficient quantity"

// InventoryDispense records quantity consumed from a lot row.
type InventoryDispense struct {
	shared.TenantEntity
	InventoryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"inventoryId"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Note        string          `gorm:"type:text" json:"note"`
	DispensedAt time.Time       `gorm:"not null;index" json:"dispensedAt"`
	DispensedBy *uuid.UUID      `gorm:"type:uuid" json:"dispensedBy,omitempty"`
}

func (InventoryDispense) TableName() string {
	return "inventory_dispenses"
}

// DispenseSpec is a request to consume stock. A zero DispensedAt means now.
type DispenseSpec struct {
	Quantity    decimal.Decimal
	Note        string
	DispensedAt time.Time
	DispensedBy *uuid.UUID
}

// Dispense deducts spec.Quantity from item. Fractional quantities are allowed.
func Dispense(item *InventoryItem, spec DispenseSpec, now time.Time) (*InventoryDispense, *InventoryTransaction, error) {
	if !spec.Quantity.IsPositive() {
		return nil, nil, shared.InvalidInput("Quantity must be greater than 0")
	}
	at := spec.DispensedAt
	if at.IsZero() {
		at = now
	}
	if at.After(now) {
		return nil, nil, shared.InvalidInput("Dispensed date cannot be in the future")
	}
	change, err := item.Remove(spec.Quantity)
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			return nil, nil, shared.NewDomainError(shared.CodeInsufficientStock, MsgInsufficientDispenseQuantity)
		}
		return nil, nil, err
	}
	d := &InventoryDispense{
		TenantEntity: shared.NewTenantEntity(item.TenantID),
		InventoryID:  item.ID,
		Quantity:     spec.Quantity,
		Note:         spec.Note,
		DispensedAt:  at,
		DispensedBy:  spec.DispensedBy,
	}
	entry := NewInventoryTransaction(item, TransactionTypeDispense, change, SourceTypeDispense, d.ID).WithTransactionDate(at)
	if spec.DispensedBy != nil {
		entry.WithOperatorID(*spec.DispensedBy)
	}
	item.AddDomainEvent(NewInventoryDispensedEvent(d, item.ProductID))
	return d, entry, nil
}

// Consume deducts qty for a posted sales document. The caller supplies the
// message used when stock is short.
func Consume(item *InventoryItem, qty decimal.Decimal, sourceType SourceType, sourceID uuid.UUID, shortMessage string) (*InventoryTransaction, error) {
	change, err := item.Remove(qty)
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			return nil, shared.NewDomainError(shared.CodeInsufficientStock, shortMessage)
		}
		return nil, err
	}
	return NewInventoryTransaction(item, TransactionTypeInvoice, change, sourceType, sourceID), nil
}

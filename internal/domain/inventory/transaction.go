package inventory

import (
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of stock movement recorded in the ledger.
type TransactionType string

const (
	TransactionTypeReceipt         TransactionType = "RECEIPT"
	TransactionTypeTransferOut     TransactionType = "TRANSFER_OUT"
	TransactionTypeTransferIn      TransactionType = "TRANSFER_IN"
	TransactionTypeDispense        TransactionType = "DISPENSE"
	TransactionTypeInvoice         TransactionType = "INVOICE"
	TransactionTypePurchaseReceipt TransactionType = "PURCHASE_RECEIPT"
)

// IsIncrease returns true if this transaction type adds stock.
func (t TransactionType) IsIncrease() bool {
	switch t {
	case TransactionTypeReceipt, TransactionTypeTransferIn, TransactionTypePurchaseReceipt:
		return true
	}
	return false
}

// SourceType is the document that caused a ledger row.
type SourceType string

const (
	SourceTypeReceipt       SourceType = "RECEIPT"
	SourceTypeTransfer      SourceType = "TRANSFER"
	SourceTypeDispense      SourceType = "DISPENSE"
	SourceTypeInvoice       SourceType = "INVOICE"
	SourceTypePurchaseOrder SourceType = "PURCHASE_ORDER"
)

// InventoryTransaction is an immutable ledger row. Corrections are new rows.
type InventoryTransaction struct {
	shared.TenantEntity
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"inventoryId"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId"`
	LocationID      *uuid.UUID      `gorm:"type:uuid" json:"locationId,omitempty"`
	TransactionType TransactionType `gorm:"type:varchar(30);not null" json:"type"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"` // always positive
	BalanceBefore   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"balanceBefore"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"balanceAfter"`
	SourceType      SourceType      `gorm:"type:varchar(30);not null" json:"sourceType"`
	SourceID        uuid.UUID       `gorm:"type:uuid;not null" json:"sourceId"`
	Reference       string          `gorm:"type:varchar(100)" json:"reference,omitempty"`
	OperatorID      *uuid.UUID      `gorm:"type:uuid" json:"operatorId,omitempty"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transactionDate"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// NewInventoryTransaction records a movement against item.
func NewInventoryTransaction(
	item *InventoryItem,
	txType TransactionType,
	change StockChange,
	sourceType SourceType,
	sourceID uuid.UUID,
) *InventoryTransaction {
	return &InventoryTransaction{
		TenantEntity:    shared.NewTenantEntity(item.TenantID),
		InventoryItemID: item.ID,
		ProductID:       item.ProductID,
		LocationID:      item.LocationID,
		TransactionType: txType,
		Quantity:        change.Quantity,
		BalanceBefore:   change.Before,
		BalanceAfter:    change.After,
		SourceType:      sourceType,
		SourceID:        sourceID,
		TransactionDate: time.Now(),
	}
}

// WithReference sets the human-readable document number.
func (t *InventoryTransaction) WithReference(reference string) *InventoryTransaction {
	t.Reference = reference
	return t
}

// WithOperatorID sets the user who performed the operation.
func (t *InventoryTransaction) WithOperatorID(operatorID uuid.UUID) *InventoryTransaction {
	t.OperatorID = &operatorID
	return t
}

// WithTransactionDate sets the transaction date.
func (t *InventoryTransaction) WithTransactionDate(date time.Time) *InventoryTransaction {
	t.TransactionDate = date
	return t
}

package inventory

import (
	"errors"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MsgInsufficientTransferQuantity is reported when the source row is missing
// or holds less than the requested quantity.
const MsgInsufficientTransferQuantity = "Insufficient quantity available"

// InventoryTransfer records quantity moved between two lot rows.
type InventoryTransfer struct {
	shared.TenantEntity
	InventoryID              uuid.UUID       `gorm:"type:uuid;not null;index" json:"inventoryId"`
	DestinationInventoryID   uuid.UUID       `gorm:"type:uuid;not null" json:"destinationInventoryId"`
	Quantity                 decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	SourceLocationID         uuid.UUID       `gorm:"type:uuid;not null" json:"sourceLocationId"`
	SourceSubLocationID      *uuid.UUID      `gorm:"type:uuid" json:"sourceSubLocationId,omitempty"`
	DestinationLocationID    uuid.UUID       `gorm:"type:uuid;not null" json:"destinationLocationId"`
	DestinationSubLocationID *uuid.UUID      `gorm:"type:uuid" json:"destinationSubLocationId,omitempty"`
	Notes                    string          `gorm:"type:text" json:"notes"`
	TransferredBy            *uuid.UUID      `gorm:"type:uuid" json:"transferredBy,omitempty"`
	TransferredAt            time.Time       `gorm:"not null;index" json:"transferredAt"`
}

func (InventoryTransfer) TableName() string {
	return "inventory_transfers"
}

// TransferSpec is a request to move stock.
type TransferSpec struct {
	InventoryID              uuid.UUID
	Quantity                 decimal.Decimal
	SourceLocationID         uuid.UUID
	SourceSubLocationID      *uuid.UUID
	DestinationLocationID    uuid.UUID
	DestinationSubLocationID *uuid.UUID
	Notes                    string
	TransferredBy            *uuid.UUID
}

// Validate checks the request before any row is read.
func (s TransferSpec) Validate() error {
	if s.InventoryID == uuid.Nil {
		return shared.InvalidInput("Inventory ID cannot be empty")
	}
	if !s.Quantity.IsPositive() || !s.Quantity.IsInteger() {
		return shared.InvalidInput("Quantity must be a whole number greater than 0")
	}
	if s.SourceLocationID == uuid.Nil || s.DestinationLocationID == uuid.Nil {
		return shared.InvalidInput("Source and destination locations are required")
	}
	// Without a source sub-location the row's place is only known once it is read.
	if s.SourceSubLocationID != nil && s.SourceLocationID == s.DestinationLocationID &&
		sameSubLocation(s.SourceSubLocationID, s.DestinationSubLocationID) {
		return errSameTransferPlace()
	}
	return nil
}

func errSameTransferPlace() error {
	return shared.InvalidInput("Source and destination must differ")
}

func sameSubLocation(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// TransferResult holds everything a transfer changes.
type TransferResult struct {
	Transfer    *InventoryTransfer
	Source      *InventoryItem
	Destination *InventoryItem
	// DestinationCreated is true when Destination is a new row to insert.
	DestinationCreated bool
	Ledger             []*InventoryTransaction
}

// Transfer moves spec.Quantity from source into destination. destination may
// be nil, in which case a clone of the source lot is opened at the
// destination. A nil source, a source at another location, or a short
// source all fail with INSUFFICIENT_STOCK.
func Transfer(source, destination *InventoryItem, spec TransferSpec) (*TransferResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if source == nil || source.ID != spec.InventoryID || !source.MatchesLocation(spec.SourceLocationID, spec.SourceSubLocationID) {
		return nil, insufficientTransfer()
	}
	if *source.LocationID == spec.DestinationLocationID && sameSubLocation(source.SubLocationID, spec.DestinationSubLocationID) {
		return nil, errSameTransferPlace()
	}
	if destination != nil && destination.ID == source.ID {
		return nil, errSameTransferPlace()
	}
	out, err := source.Remove(spec.Quantity)
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			return nil, insufficientTransfer()
		}
		return nil, err
	}

	created := false
	if destination == nil {
		destination = source.CloneForTransfer(spec.DestinationLocationID, spec.DestinationSubLocationID)
		created = true
	}
	in, err := destination.Add(spec.Quantity)
	if err != nil {
		return nil, err
	}
	if created {
		destination.UnitsReceived = spec.Quantity
	}

	now := time.Now()
	transfer := &InventoryTransfer{
		TenantEntity:             shared.NewTenantEntity(source.TenantID),
		InventoryID:              source.ID,
		DestinationInventoryID:   destination.ID,
		Quantity:                 spec.Quantity,
		SourceLocationID:         spec.SourceLocationID,
		SourceSubLocationID:      spec.SourceSubLocationID,
		DestinationLocationID:    spec.DestinationLocationID,
		DestinationSubLocationID: spec.DestinationSubLocationID,
		Notes:                    spec.Notes,
		TransferredBy:            spec.TransferredBy,
		TransferredAt:            now,
	}

	outEntry := NewInventoryTransaction(source, TransactionTypeTransferOut, out, SourceTypeTransfer, transfer.ID).WithTransactionDate(now)
	inEntry := NewInventoryTransaction(destination, TransactionTypeTransferIn, in, SourceTypeTransfer, transfer.ID).WithTransactionDate(now)
	if spec.TransferredBy != nil {
		outEntry.WithOperatorID(*spec.TransferredBy)
		inEntry.WithOperatorID(*spec.TransferredBy)
	}

	source.AddDomainEvent(NewInventoryTransferredEvent(transfer, source.ProductID))

	return &TransferResult{
		Transfer:           transfer,
		Source:             source,
		Destination:        destination,
		DestinationCreated: created,
		Ledger:             []*InventoryTransaction{outEntry, inEntry},
	}, nil
}

func insufficientTransfer() error {
	return shared.NewDomainError(shared.CodeInsufficientStock, MsgInsufficientTransferQuantity)
}

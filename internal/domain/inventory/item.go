package inventory

import (
	"strings"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is one lot of a product held at a location, optionally
// narrowed to a sub-location. UnitsReceived records what arrived and never
// changes; QuantityOnHand moves with transfers, dispenses and invoices.
type InventoryItem struct {
	shared.TenantAggregateRoot
	HeaderID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"headerId"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId"`
	LocationID     *uuid.UUID      `gorm:"type:uuid;index" json:"locationId,omitempty"`
	SubLocationID  *uuid.UUID      `gorm:"type:uuid;index" json:"subLocationId,omitempty"`
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	PackageCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"packageCost"`
	LotNumber      string          `gorm:"type:varchar(100)" json:"lotNumber"`
	SerialNumber   string          `gorm:"type:varchar(100)" json:"serialNumber"`
	Vendor         string          `gorm:"type:varchar(200)" json:"vendor"`
	Manufacturer   string          `gorm:"type:varchar(200)" json:"manufacturer"`
	ExpirationDate *time.Time      `json:"expirationDate,omitempty"`
	UnitsReceived  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unitsReceived"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantityOnHand"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// StockChange is the before/after picture of one quantity movement.
type StockChange struct {
	Quantity decimal.Decimal
	Before   decimal.Decimal
	After    decimal.Decimal
}

func newInventoryItem(h *InventoryHeader, lot LotSpec) (*InventoryItem, error) {
	if lot.ProductID == uuid.Nil {
		return nil, shared.InvalidInput("Product ID cannot be empty")
	}
	if !lot.Price.IsPositive() {
		return nil, shared.InvalidInput("Price must be greater than 0")
	}
	if !lot.UnitsReceived.IsPositive() || !lot.UnitsReceived.IsInteger() {
		return nil, shared.InvalidInput("Units received must be a whole number greater than 0")
	}
	if lot.SubLocationID != nil && h.LocationID == nil {
		return nil, shared.InvalidInput("A sub-location requires a location")
	}
	return &InventoryItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(h.TenantID),
		HeaderID:            h.ID,
		ProductID:           lot.ProductID,
		LocationID:          h.LocationID,
		SubLocationID:       lot.SubLocationID,
		Price:               lot.Price,
		PackageCost:         h.PackageCost,
		LotNumber:           strings.TrimSpace(lot.LotNumber),
		SerialNumber:        strings.TrimSpace(lot.SerialNumber),
		Vendor:              h.Vendor,
		Manufacturer:        h.Manufacturer,
		ExpirationDate:      lot.ExpirationDate,
		UnitsReceived:       lot.UnitsReceived,
		QuantityOnHand:      lot.UnitsReceived,
	}, nil
}

// InStock reports whether any quantity remains.
func (i *InventoryItem) InStock() bool {
	return i.QuantityOnHand.IsPositive()
}

// CanFulfill reports whether qty can be taken from this row.
func (i *InventoryItem) CanFulfill(qty decimal.Decimal) bool {
	return i.QuantityOnHand.GreaterThanOrEqual(qty)
}

// MatchesLocation reports whether the row sits at locationID. The
// sub-location is compared only when one is given.
func (i *InventoryItem) MatchesLocation(locationID uuid.UUID, subLocationID *uuid.UUID) bool {
	if i.LocationID == nil || *i.LocationID != locationID {
		return false
	}
	if subLocationID == nil {
		return true
	}
	return i.SubLocationID != nil && *i.SubLocationID == *subLocationID
}

// ExpiresWithin reports whether the lot expires on or before now+window.
func (i *InventoryItem) ExpiresWithin(now time.Time, window time.Duration) bool {
	if i.ExpirationDate == nil {
		return false
	}
	return !i.ExpirationDate.After(now.Add(window))
}

// Add increases the quantity on hand.
func (i *InventoryItem) Add(qty decimal.Decimal) (StockChange, error) {
	if !qty.IsPositive() {
		return StockChange{}, shared.InvalidInput("Quantity must be greater than 0")
	}
	change := StockChange{Quantity: qty, Before: i.QuantityOnHand}
	i.QuantityOnHand = i.QuantityOnHand.Add(qty)
	change.After = i.QuantityOnHand
	i.Touch()
	i.IncrementVersion()
	return change, nil
}

// Remove decreases the quantity on hand. It fails with an INSUFFICIENT_STOCK
// error and leaves the row untouched when qty exceeds what is on hand.
func (i *InventoryItem) Remove(qty decimal.Decimal) (StockChange, error) {
	if !qty.IsPositive() {
		return StockChange{}, shared.InvalidInput("Quantity must be greater than 0")
	}
	if !i.CanFulfill(qty) {
		return StockChange{}, shared.ErrInsufficientStock
	}
	change := StockChange{Quantity: qty, Before: i.QuantityOnHand}
	i.QuantityOnHand = i.QuantityOnHand.Sub(qty)
	change.After = i.QuantityOnHand
	i.Touch()
	i.IncrementVersion()
	return change, nil
}

// CloneForTransfer starts a new row at the destination that carries this
// lot's pricing and tracking details. The clone starts empty; the caller
// adds the transferred quantity.
func (i *InventoryItem) CloneForTransfer(locationID uuid.UUID, subLocationID *uuid.UUID) *InventoryItem {
	loc := locationID
	return &InventoryItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(i.TenantID),
		HeaderID:            i.HeaderID,
		ProductID:           i.ProductID,
		LocationID:          &loc,
		SubLocationID:       subLocationID,
		Price:               i.Price,
		PackageCost:         i.PackageCost,
		LotNumber:           i.LotNumber,
		SerialNumber:        i.SerialNumber,
		Vendor:              i.Vendor,
		Manufacturer:        i.Manufacturer,
		ExpirationDate:      i.ExpirationDate,
		UnitsReceived:       decimal.Zero,
		QuantityOnHand:      decimal.Zero,
	}
}

package inventory

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func createTestHeader(t *testing.T, locationID uuid.UUID) *InventoryHeader {
	t.Helper()
	h, err := NewInventoryHeader(uuid.New(), HeaderSpec{
		Vendor:       "Acme Medical",
		Manufacturer: "Pfizer",
		PackageCost:  decimal.NewFromInt(40),
		LocationID:   &locationID,
	})
	require.NoError(t, err)
	return h
}

func createTestItem(t *testing.T, locationID uuid.UUID, units int64) *InventoryItem {
	t.Helper()
	h := createTestHeader(t, locationID)
	items, _, err := h.Receive([]LotSpec{{
		ProductID:     uuid.New(),
		Price:         decimal.NewFromFloat(12.5),
		LotNumber:     "LOT-1",
		UnitsReceived: decimal.NewFromInt(units),
	}})
	require.NoError(t, err)
	return items[0]
}

func TestNewInventoryHeader(t *testing.T) {
	t.Run("defaults receipt number and date", func(t *testing.T) {
		h, err := NewInventoryHeader(uuid.New(), HeaderSpec{})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(h.ReceiptNumber, "R-"))
		assert.False(t, h.ReceiptDate.IsZero())
		assert.Equal(t, ReceiptSourceManual, h.SourceType)
	})

	t.Run("keeps supplied receipt number", func(t *testing.T) {
		h, err := NewInventoryHeader(uuid.New(), HeaderSpec{ReceiptNumber: " RCV-7 "})

		require.NoError(t, err)
		assert.Equal(t, "RCV-7", h.ReceiptNumber)
	})

	t.Run("rejects negative package cost", func(t *testing.T) {
		_, err := NewInventoryHeader(uuid.New(), HeaderSpec{PackageCost: decimal.NewFromInt(-1)})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("purchase order source requires id", func(t *testing.T) {
		_, err := NewInventoryHeader(uuid.New(), HeaderSpec{SourceType: ReceiptSourcePurchaseOrder})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestNewReceiptNumber(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "R-1700000000123", NewReceiptNumber(at))
}

func TestInventoryHeader_Receive(t *testing.T) {
	locationID := uuid.New()

	t.Run("items inherit header fields and produce receipt ledger rows", func(t *testing.T) {
		h := createTestHeader(t, locationID)
		sub := uuid.New()
		items, ledger, err := h.Receive([]LotSpec{
			{ProductID: uuid.New(), Price: decimal.NewFromInt(10), UnitsReceived: decimal.NewFromInt(5)},
			{ProductID: uuid.New(), Price: decimal.NewFromInt(20), UnitsReceived: decimal.NewFromInt(3), SubLocationID: &sub},
		})

		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Len(t, ledger, 2)
		for _, item := range items {
			assert.Equal(t, h.ID, item.HeaderID)
			assert.Equal(t, "Acme Medical", item.Vendor)
			assert.Equal(t, "Pfizer", item.Manufacturer)
			assert.True(t, item.PackageCost.Equal(decimal.NewFromInt(40)))
			assert.Equal(t, locationID, *item.LocationID)
			assert.True(t, item.QuantityOnHand.Equal(item.UnitsReceived))
		}
		assert.Equal(t, sub, *items[1].SubLocationID)
		assert.Equal(t, TransactionTypeReceipt, ledger[0].TransactionType)
		assert.Equal(t, SourceTypeReceipt, ledger[0].SourceType)
		assert.Equal(t, h.ID, ledger[0].SourceID)
		assert.True(t, ledger[0].BalanceBefore.IsZero())
		assert.True(t, ledger[0].BalanceAfter.Equal(decimal.NewFromInt(5)))

		events := h.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeInventoryReceived, events[0].EventType())
	})

	t.Run("purchase order receipts use purchase receipt rows", func(t *testing.T) {
		poID := uuid.New()
		h, err := NewInventoryHeader(uuid.New(), HeaderSpec{
			LocationID: &locationID,
			SourceType: ReceiptSourcePurchaseOrder,
			SourceID:   &poID,
		})
		require.NoError(t, err)

		_, ledger, err := h.Receive([]LotSpec{{ProductID: uuid.New(), Price: decimal.NewFromInt(1), UnitsReceived: decimal.NewFromInt(1)}})

		require.NoError(t, err)
		assert.Equal(t, TransactionTypePurchaseReceipt, ledger[0].TransactionType)
		assert.Equal(t, poID, ledger[0].SourceID)
	})

	t.Run("rejects empty receipt", func(t *testing.T) {
		h := createTestHeader(t, locationID)
		_, _, err := h.Receive(nil)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		h := createTestHeader(t, locationID)
		_, _, err := h.Receive([]LotSpec{{ProductID: uuid.New(), Price: decimal.Zero, UnitsReceived: decimal.NewFromInt(1)}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "item 1")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects fractional units", func(t *testing.T) {
		h := createTestHeader(t, locationID)
		_, _, err := h.Receive([]LotSpec{{ProductID: uuid.New(), Price: decimal.NewFromInt(1), UnitsReceived: decimal.NewFromFloat(1.5)}})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestInventoryItem_Remove(t *testing.T) {
	item := createTestItem(t, uuid.New(), 10)
	version := item.Version

	change, err := item.Remove(decimal.NewFromInt(4))

	require.NoError(t, err)
	assert.True(t, change.Before.Equal(decimal.NewFromInt(10)))
	assert.True(t, change.After.Equal(decimal.NewFromInt(6)))
	assert.True(t, item.UnitsReceived.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, version+1, item.Version)

	_, err = item.Remove(decimal.NewFromInt(7))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(6)))
}

func TestInventoryItem_MatchesLocation(t *testing.T) {
	loc := uuid.New()
	sub := uuid.New()
	item := createTestItem(t, loc, 1)
	item.SubLocationID = &sub

	assert.True(t, item.MatchesLocation(loc, nil))
	assert.True(t, item.MatchesLocation(loc, &sub))
	assert.False(t, item.MatchesLocation(loc, ptr(uuid.New())))
	assert.False(t, item.MatchesLocation(uuid.New(), nil))
}

func TestInventoryItem_ExpiresWithin(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	item := createTestItem(t, uuid.New(), 1)

	assert.False(t, item.ExpiresWithin(now, 30*24*time.Hour))

	item.ExpirationDate = ptr(now.AddDate(0, 0, 10))
	assert.True(t, item.ExpiresWithin(now, 30*24*time.Hour))
	assert.False(t, item.ExpiresWithin(now, 5*24*time.Hour))
}

func TestTransfer(t *testing.T) {
	srcLoc := uuid.New()
	dstLoc := uuid.New()

	spec := func(item *InventoryItem, qty int64) TransferSpec {
		return TransferSpec{
			InventoryID:           item.ID,
			Quantity:              decimal.NewFromInt(qty),
			SourceLocationID:      srcLoc,
			DestinationLocationID: dstLoc,
			Notes:                 "restock",
		}
	}

	t.Run("clones source lot when destination is empty", func(t *testing.T) {
		src := createTestItem(t, srcLoc, 10)
		src.ExpirationDate = ptr(time.Now().AddDate(1, 0, 0))

		res, err := Transfer(src, nil, spec(src, 4))

		require.NoError(t, err)
		assert.True(t, res.DestinationCreated)
		assert.True(t, src.QuantityOnHand.Equal(decimal.NewFromInt(6)))
		dst := res.Destination
		assert.Equal(t, dstLoc, *dst.LocationID)
		assert.True(t, dst.QuantityOnHand.Equal(decimal.NewFromInt(4)))
		assert.True(t, dst.UnitsReceived.Equal(decimal.NewFromInt(4)))
		assert.Equal(t, src.LotNumber, dst.LotNumber)
		assert.Equal(t, src.HeaderID, dst.HeaderID)
		assert.Equal(t, src.ExpirationDate, dst.ExpirationDate)
		assert.True(t, src.Price.Equal(dst.Price))
		assert.Equal(t, dst.ID, res.Transfer.DestinationInventoryID)

		require.Len(t, res.Ledger, 2)
		assert.Equal(t, TransactionTypeTransferOut, res.Ledger[0].TransactionType)
		assert.Equal(t, TransactionTypeTransferIn, res.Ledger[1].TransactionType)
		assert.Equal(t, res.Transfer.ID, res.Ledger[0].SourceID)
	})

	t.Run("increments existing destination", func(t *testing.T) {
		src := createTestItem(t, srcLoc, 10)
		dst := createTestItem(t, dstLoc, 2)
		received := dst.UnitsReceived

		res, err := Transfer(src, dst, spec(src, 3))

		require.NoError(t, err)
		assert.False(t, res.DestinationCreated)
		assert.True(t, dst.QuantityOnHand.Equal(decimal.NewFromInt(5)))
		assert.True(t, dst.UnitsReceived.Equal(received))
	})

	t.Run("insufficient quantity", func(t *testing.T) {
		src := createTestItem(t, srcLoc, 2)

		_, err := Transfer(src, nil, spec(src, 3))

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, MsgInsufficientTransferQuantity, err.Error())
		assert.True(t, src.QuantityOnHand.Equal(decimal.NewFromInt(2)))
	})

	t.Run("source at another location is treated as unavailable", func(t *testing.T) {
		src := createTestItem(t, uuid.New(), 10)

		_, err := Transfer(src, nil, spec(src, 1))

		assert.Equal(t, MsgInsufficientTransferQuantity, err.Error())
	})

	t.Run("missing source is treated as unavailable", func(t *testing.T) {
		_, err := Transfer(nil, nil, TransferSpec{
			InventoryID:           uuid.New(),
			Quantity:              decimal.NewFromInt(1),
			SourceLocationID:      srcLoc,
			DestinationLocationID: dstLoc,
		})

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("rejects fractional quantity", func(t *testing.T) {
		src := createTestItem(t, srcLoc, 10)
		s := spec(src, 1)
		s.Quantity = decimal.NewFromFloat(0.5)

		_, err := Transfer(src, nil, s)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects same source and destination", func(t *testing.T) {
		src := createTestItem(t, srcLoc, 10)
		s := spec(src, 1)
		s.DestinationLocationID = srcLoc

		_, err := Transfer(src, nil, s)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("moves a sub-location row to the location root", func(t *testing.T) {
		src := createTestItem(t, srcLoc, 10)
		src.SubLocationID = ptr(uuid.New())
		s := spec(src, 4)
		s.DestinationLocationID = srcLoc

		res, err := Transfer(src, nil, s)

		require.NoError(t, err)
		assert.Nil(t, res.Destination.SubLocationID)
		assert.Equal(t, srcLoc, *res.Destination.LocationID)
		assert.True(t, src.QuantityOnHand.Equal(decimal.NewFromInt(6)))
	})

	t.Run("rejects a row already at the destination sub-location", func(t *testing.T) {
		sub := uuid.New()
		src := createTestItem(t, srcLoc, 10)
		src.SubLocationID = &sub
		s := spec(src, 1)
		s.DestinationLocationID = srcLoc
		s.DestinationSubLocationID = &sub

		_, err := Transfer(src, nil, s)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.True(t, src.QuantityOnHand.Equal(decimal.NewFromInt(10)))
	})

	t.Run("allows moving into a sub-location of the same location", func(t *testing.T) {
		src := createTestItem(t, srcLoc, 10)
		s := spec(src, 1)
		s.DestinationLocationID = srcLoc
		s.DestinationSubLocationID = ptr(uuid.New())

		res, err := Transfer(src, nil, s)

		require.NoError(t, err)
		assert.Equal(t, *s.DestinationSubLocationID, *res.Destination.SubLocationID)
	})
}

func TestDispense(t *testing.T) {
	now := time.Now()

	t.Run("deducts fractional quantity", func(t *testing.T) {
		item := createTestItem(t, uuid.New(), 5)
		user := uuid.New()

		d, entry, err := Dispense(item, DispenseSpec{Quantity: decimal.NewFromFloat(0.5), Note: "dose", DispensedBy: &user}, now)

		require.NoError(t, err)
		assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromFloat(4.5)))
		assert.Equal(t, now, d.DispensedAt)
		assert.Equal(t, TransactionTypeDispense, entry.TransactionType)
		assert.Equal(t, user, *entry.OperatorID)
		require.Len(t, item.GetDomainEvents(), 1)
	})

	t.Run("accepts retroactive date", func(t *testing.T) {
		item := createTestItem(t, uuid.New(), 5)
		past := now.Add(-48 * time.Hour)

		d, _, err := Dispense(item, DispenseSpec{Quantity: decimal.NewFromInt(1), DispensedAt: past}, now)

		require.NoError(t, err)
		assert.Equal(t, past, d.DispensedAt)
	})

	t.Run("rejects future date", func(t *testing.T) {
		item := createTestItem(t, uuid.New(), 5)

		_, _, err := Dispense(item, DispenseSpec{Quantity: decimal.NewFromInt(1), DispensedAt: now.Add(time.Hour)}, now)

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("dispensing more than available quantity is rejected", func(t *testing.T) {
		item := createTestItem(t, uuid.New(), 5)

		_, _, err := Dispense(item, DispenseSpec{Quantity: decimal.NewFromInt(6)}, now)

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, MsgInsufficientDispenseQuantity, err.Error())
		assert.True(t, item.QuantityOnHand.Equal(decimal.NewFromInt(5)))
	})
}

func TestConsume(t *testing.T) {
	item := createTestItem(t, uuid.New(), 2)
	invoiceID := uuid.New()

	entry, err := Consume(item, decimal.NewFromInt(2), SourceTypeInvoice, invoiceID, "short")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeInvoice, entry.TransactionType)
	assert.True(t, entry.BalanceAfter.IsZero())
	assert.False(t, item.InStock())

	_, err = Consume(item, decimal.NewFromInt(1), SourceTypeInvoice, invoiceID, "Insufficient inventory for product Saline")
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, shared.CodeInsufficientStock, de.Code)
	assert.Equal(t, "Insufficient inventory for product Saline", de.Message)
}

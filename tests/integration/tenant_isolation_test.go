package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	inventoryapp "github.com/clinicledger/backend/internal/application/inventory"
	partnerapp "github.com/clinicledger/backend/internal/application/partner"
	tradeapp "github.com/clinicledger/backend/internal/application/trade"
	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/persistence"
	"github.com/clinicledger/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantIsolation(t *testing.T) {
	tdb := NewSharedTestDB(t)
	svc := newServices(t, tdb)
	ctx := testutil.ContextWithTimeout(t, time.Minute)

	a := tdb.CreateTenant("Clinic A")
	b := tdb.CreateTenant("Clinic B")
	productA := tdb.CreateProduct(a.ID(), "Amoxicillin", "AMX-1", dec("12.00"))
	locationA := tdb.CreateLocation(a.ID(), "Main")
	patientA := tdb.CreatePatient(a.ID(), "Avery", "Stone")
	tdb.CreatePatient(b.ID(), "Blake", "Stone")

	lot, err := svc.Inventory.Receive(ctx, a.ID(), a.User.ID, inventoryapp.ReceiveRequest{
		ProductID:     productA.ID,
		Price:         dec("2.00"),
		PackageCost:   dec("20.00"),
		LotNumber:     "AMX-LOT",
		SerialNumber:  "AMX-SN",
		Vendor:        "Acme",
		Manufacturer:  "Acme Labs",
		UnitsReceived: dec("30"),
		LocationID:    &locationA.ID,
	})
	require.NoError(t, err)

	t.Run("reads", func(t *testing.T) {
		_, err := persistence.NewGormProductRepository(tdb.DB).FindByID(ctx, b.ID(), productA.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = svc.Inventory.GetByID(ctx, b.ID(), lot.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		items, total, err := svc.Inventory.List(ctx, b.ID(), inventoryapp.InventoryListFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)

		patients, total, err := partnerapp.NewPatientService(persistence.NewGormPatientRepository(tdb.DB), nil).
			List(ctx, b.ID(), partnerapp.ListFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "Blake", patients[0].FirstName)
	})

	t.Run("writes", func(t *testing.T) {
		_, err := svc.Inventory.Dispense(ctx, b.ID(), b.User.ID, inventoryapp.DispenseRequest{
			InventoryID: lot.ID,
			Quantity:    dec("1"),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)

		patientB := tdb.CreatePatient(b.ID(), "Casey", "Park")
		_, err = svc.Invoices.SaveDraft(ctx, b.ID(), b.User.ID, tradeapp.CreateInvoiceRequest{
			PatientID:  patientB.ID,
			LocationID: locationA.ID,
			Items: []tradeapp.InvoiceLineRequest{
				{ProductID: productA.ID, InventoryID: lot.ID, Quantity: dec("1"), Price: dec("12.00")},
			},
		})
		assert.ErrorIs(t, err, shared.ErrNotFound, "another tenant's location, product and lot are invisible")

		_, err = svc.Invoices.SaveDraft(ctx, b.ID(), b.User.ID, tradeapp.CreateInvoiceRequest{
			PatientID:  patientA.ID,
			LocationID: locationA.ID,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)

		unchanged, err := svc.Inventory.GetByID(ctx, a.ID(), lot.ID)
		require.NoError(t, err)
		assert.True(t, dec("30").Equal(unchanged.QuantityOnHand))
	})
}

// TestConcurrentDispense races dispenses against one lot. Each one either
// lands, loses the version check or finds too little stock; the balance
// and the ledger must agree afterwards.
func TestConcurrentDispense(t *testing.T) {
	tdb := NewSharedTestDB(t)
	svc := newServices(t, tdb)
	ctx := testutil.ContextWithTimeout(t, time.Minute)

	clinic := tdb.CreateTenant("Busy Clinic")
	product := tdb.CreateProduct(clinic.ID(), "Meloxicam", "MEL-1", dec("8.00"))
	loc := tdb.CreateLocation(clinic.ID(), "Treatment")
	lot, err := svc.Inventory.Receive(ctx, clinic.ID(), clinic.User.ID, inventoryapp.ReceiveRequest{
		ProductID:     product.ID,
		Price:         dec("1.00"),
		PackageCost:   dec("10.00"),
		LotNumber:     "MEL-LOT",
		SerialNumber:  "MEL-SN",
		Vendor:        "Acme",
		Manufacturer:  "Acme Labs",
		UnitsReceived: dec("10"),
		LocationID:    &loc.ID,
	})
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Inventory.Dispense(context.Background(), clinic.ID(), clinic.User.ID, inventoryapp.DispenseRequest{
				InventoryID: lot.ID,
				Quantity:    dec("2"),
			})
			if err != nil {
				assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, shared.ErrInsufficientStock),
					"unexpected error: %v", err)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Positive(t, succeeded)
	assert.LessOrEqual(t, succeeded, 5)

	after, err := svc.Inventory.GetByID(ctx, clinic.ID(), lot.ID)
	require.NoError(t, err)
	expected := dec("10").Sub(dec("2").Mul(decimal.NewFromInt(int64(succeeded))))
	assert.True(t, expected.Equal(after.QuantityOnHand), "expected %s, got %s", expected, after.QuantityOnHand)
	assert.False(t, after.QuantityOnHand.IsNegative())

	ledger, _, err := svc.Inventory.ListTransactions(ctx, clinic.ID(), lot.ID, inventoryapp.HistoryFilter{PageSize: 100})
	require.NoError(t, err)
	dispensed := 0
	for _, row := range ledger {
		if row.Type == string(inventory.TransactionTypeDispense) {
			dispensed++
			assert.True(t, row.BalanceBefore.Sub(row.Quantity.Abs()).Equal(row.BalanceAfter))
		}
	}
	assert.Equal(t, succeeded, dispensed)
	assert.Len(t, svc.Events.OfType(inventory.EventTypeInventoryDispensed), succeeded)
}

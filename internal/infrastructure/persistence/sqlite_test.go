package persistence

import (
	"testing"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/location"
	"github.com/clinicledger/backend/internal/domain/membership"
	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newSQLiteDB opens a private in-memory database with every table migrated.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&identity.Organization{}, &identity.User{},
		&catalog.Product{},
		&location.Location{}, &location.SubLocation{},
		&partner.Vendor{}, &partner.Patient{},
		&inventory.InventoryHeader{}, &inventory.InventoryItem{}, &inventory.InventoryTransaction{},
		&inventory.InventoryTransfer{}, &inventory.InventoryDispense{},
		&trade.Invoice{}, &trade.InvoiceItem{},
		&trade.PurchaseOrder{}, &trade.PurchaseOrderItem{},
		&membership.Tier{}, &membership.Benefit{}, &membership.Subscription{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name, sku string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(tenantID, catalog.ProductSpec{
		Name:  name,
		SKU:   sku,
		Price: decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedLocation(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name string) *location.Location {
	t.Helper()
	loc, err := location.NewLocation(tenantID, name, "")
	require.NoError(t, err)
	require.NoError(t, db.Create(loc).Error)
	return loc
}

// seedLots receives one lot per quantity at loc and stores header, rows and ledger.
func seedLots(t *testing.T, db *gorm.DB, tenantID, productID uuid.UUID, loc *location.Location, lot string, quantities ...int64) []*inventory.InventoryItem {
	t.Helper()
	header, err := inventory.NewInventoryHeader(tenantID, inventory.HeaderSpec{
		Vendor:      "MedSupply",
		PackageCost: decimal.NewFromInt(40),
		LocationID:  &loc.ID,
	})
	require.NoError(t, err)
	specs := make([]inventory.LotSpec, len(quantities))
	for i, q := range quantities {
		specs[i] = inventory.LotSpec{
			ProductID:     productID,
			Price:         decimal.NewFromInt(10),
			LotNumber:     lot,
			UnitsReceived: decimal.NewFromInt(q),
		}
	}
	items, ledger, err := header.Receive(specs)
	require.NoError(t, err)
	require.NoError(t, db.Create(header).Error)
	for _, item := range items {
		require.NoError(t, db.Create(item).Error)
	}
	require.NoError(t, NewGormInventoryTransactionRepository(db).CreateBatch(t.Context(), ledger))
	return items
}

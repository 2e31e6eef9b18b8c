package integration

import (
	"context"
	"os"
	"testing"

	inventoryapp "github.com/clinicledger/backend/internal/application/inventory"
	tradeapp "github.com/clinicledger/backend/internal/application/trade"
	"github.com/clinicledger/backend/internal/infrastructure/event"
	"github.com/clinicledger/backend/internal/infrastructure/mail"
	"github.com/clinicledger/backend/internal/infrastructure/persistence"
	"github.com/clinicledger/backend/internal/infrastructure/printing"
	"github.com/clinicledger/backend/internal/infrastructure/storage"
	"github.com/clinicledger/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// stubPDF stands in for headless Chrome.
type stubPDF struct{}

func (stubPDF) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	return &printing.RenderResult{PDFData: []byte("%PDF-1.7 " + req.Title)}, nil
}

func (stubPDF) Close() error { return nil }

// services is the application layer over a TestDB, publishing to events.
type services struct {
	Inventory      *inventoryapp.InventoryService
	Invoices       *tradeapp.InvoiceService
	PurchaseOrders *tradeapp.PurchaseOrderService
	Store          *storage.MemoryObjectStorage
	Mailer         *mail.LogMailer
	Events         *testutil.EventRecorder
}

func newServices(t *testing.T, tdb *TestDB) *services {
	t.Helper()
	log := zap.NewNop()
	db := tdb.DB

	productRepo := persistence.NewGormProductRepository(db)
	locationRepo := persistence.NewGormLocationRepository(db)
	vendorRepo := persistence.NewGormVendorRepository(db)
	patientRepo := persistence.NewGormPatientRepository(db)
	orgRepo := persistence.NewGormOrganizationRepository(db)
	itemRepo := persistence.NewGormInventoryItemRepository(db)
	headerRepo := persistence.NewGormInventoryHeaderRepository(db)
	ledgerRepo := persistence.NewGormInventoryTransactionRepository(db)
	txScope := persistence.NewGormTransactionScope(db)

	engine, err := printing.NewTemplateEngine()
	require.NoError(t, err)
	renderer := printing.NewDocumentRenderer(engine, stubPDF{})

	s := &services{
		Store:  storage.NewMemoryObjectStorage(),
		Mailer: mail.NewLogMailer(log),
		Events: testutil.NewEventRecorder(),
	}
	s.Inventory = inventoryapp.NewInventoryService(txScope.Inventory(), inventoryapp.Repositories{
		Items:        itemRepo,
		Headers:      headerRepo,
		Transfers:    persistence.NewGormInventoryTransferRepository(db),
		Dispenses:    persistence.NewGormInventoryDispenseRepository(db),
		Transactions: ledgerRepo,
	}, productRepo, locationRepo, persistence.NewGormUserRepository(db), log)

	tradeRepos := tradeapp.Repositories{
		Invoices:       persistence.NewGormInvoiceRepository(db),
		PurchaseOrders: persistence.NewGormPurchaseOrderRepository(db),
		Items:          itemRepo,
		Headers:        headerRepo,
		Transactions:   ledgerRepo,
	}
	s.Invoices = tradeapp.NewInvoiceService(txScope.Trade(), tradeRepos, productRepo, patientRepo, locationRepo, orgRepo, renderer, log)
	s.PurchaseOrders = tradeapp.NewPurchaseOrderService(txScope.Trade(), tradeRepos, tradeapp.PurchaseOrderDeps{
		ProductRepo:  productRepo,
		VendorRepo:   vendorRepo,
		LocationRepo: locationRepo,
		OrgRepo:      orgRepo,
		Renderer:     renderer,
		Store:        s.Store,
		Mailer:       s.Mailer,
	}, log)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(s.Events)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	s.Inventory.SetEventPublisher(bus)
	s.Invoices.SetEventPublisher(bus)
	s.PurchaseOrders.SetEventPublisher(bus)
	return s
}

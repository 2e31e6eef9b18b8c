package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	catalogapp "github.com/clinicledger/backend/internal/application/catalog"
	identityapp "github.com/clinicledger/backend/internal/application/identity"
	inventoryapp "github.com/clinicledger/backend/internal/application/inventory"
	locationapp "github.com/clinicledger/backend/internal/application/location"
	membershipapp "github.com/clinicledger/backend/internal/application/membership"
	partnerapp "github.com/clinicledger/backend/internal/application/partner"
	tradeapp "github.com/clinicledger/backend/internal/application/trade"
	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/location"
	"github.com/clinicledger/backend/internal/domain/membership"
	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/domain/trade"
	"github.com/clinicledger/backend/internal/infrastructure/mail"
	"github.com/clinicledger/backend/internal/infrastructure/persistence"
	"github.com/clinicledger/backend/internal/infrastructure/printing"
	"github.com/clinicledger/backend/internal/infrastructure/storage"
	"github.com/clinicledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// fakePDF stands in for headless Chrome.
type fakePDF struct{}

func (fakePDF) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	return &printing.RenderResult{PDFData: []byte("%PDF-1.7 " + req.Title)}, nil
}

func (fakePDF) Close() error { return nil }

// apiEnv is the HTTP API over a sqlite database with one signed-in user.
type apiEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	org    *identity.Organization
	user   *identity.User
	store  *storage.MemoryObjectStorage
	mailer *mail.LogMailer
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	// A file in WAL mode lets services read outside an open transaction.
	dsn := filepath.Join(t.TempDir(), "api.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
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

	org, err := identity.NewOrganization("Riverside Vet")
	require.NoError(t, err)
	require.NoError(t, db.Create(org).Error)
	user, err := identity.NewUser(org.ID, "user_ext_1", "owner@riverside.test", "Dana", "Reyes", identity.RoleOwner)
	require.NoError(t, err)
	require.NoError(t, db.Create(user).Error)

	env := &apiEnv{
		t:      t,
		db:     db,
		org:    org,
		user:   user,
		store:  storage.NewMemoryObjectStorage(),
		mailer: mail.NewLogMailer(zap.NewNop()),
	}
	env.router = env.buildRouter()
	return env
}

func (e *apiEnv) buildRouter() *gin.Engine {
	log := zap.NewNop()
	db := e.db

	orgRepo := persistence.NewGormOrganizationRepository(db)
	userRepo := persistence.NewGormUserRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	locationRepo := persistence.NewGormLocationRepository(db)
	vendorRepo := persistence.NewGormVendorRepository(db)
	patientRepo := persistence.NewGormPatientRepository(db)
	itemRepo := persistence.NewGormInventoryItemRepository(db)
	headerRepo := persistence.NewGormInventoryHeaderRepository(db)
	ledgerRepo := persistence.NewGormInventoryTransactionRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db)
	txScope := persistence.NewGormTransactionScope(db)

	engine, err := printing.NewTemplateEngine()
	require.NoError(e.t, err)
	renderer := printing.NewDocumentRenderer(engine, fakePDF{})

	inventoryService := inventoryapp.NewInventoryService(txScope.Inventory(), inventoryapp.Repositories{
		Items:        itemRepo,
		Headers:      headerRepo,
		Transfers:    persistence.NewGormInventoryTransferRepository(db),
		Dispenses:    persistence.NewGormInventoryDispenseRepository(db),
		Transactions: ledgerRepo,
	}, productRepo, locationRepo, userRepo, log)
	tradeRepos := tradeapp.Repositories{
		Invoices:       invoiceRepo,
		PurchaseOrders: orderRepo,
		Items:          itemRepo,
		Headers:        headerRepo,
		Transactions:   ledgerRepo,
	}
	invoiceService := tradeapp.NewInvoiceService(txScope.Trade(), tradeRepos, productRepo, patientRepo, locationRepo, orgRepo, renderer, log)
	orderService := tradeapp.NewPurchaseOrderService(txScope.Trade(), tradeRepos, tradeapp.PurchaseOrderDeps{
		ProductRepo:  productRepo,
		VendorRepo:   vendorRepo,
		LocationRepo: locationRepo,
		OrgRepo:      orgRepo,
		Renderer:     renderer,
		Store:        e.store,
		Mailer:       e.mailer,
	}, log)

	productService := catalogapp.NewProductService(productRepo, itemRepo, log)
	productService.SetTransactionScope(txScope.Catalog())
	products := NewProductHandler(productService)
	locations := NewLocationHandler(locationapp.NewLocationService(locationRepo))
	vendors := NewVendorHandler(partnerapp.NewVendorService(vendorRepo))
	patients := NewPatientHandler(partnerapp.NewPatientService(patientRepo, invoiceRepo))
	stock := NewInventoryHandler(inventoryService)
	invoices := NewInvoiceHandler(invoiceService)
	orders := NewPurchaseOrderHandler(orderService)
	memberships := NewMembershipHandler(membershipapp.NewMembershipService(
		persistence.NewGormTierRepository(db),
		persistence.NewGormSubscriptionRepository(db),
		patientRepo, productRepo, log))

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		middleware.SetPrincipal(c, &identityapp.Principal{
			UserID:   e.user.ID,
			TenantID: e.org.ID,
			Email:    e.user.Email,
			Role:     e.user.Role,
		})
		c.Next()
	})

	api.GET("/products", products.List)
	api.GET("/products/units", products.Units)
	api.GET("/products/:id", products.GetByID)
	api.POST("/products", products.Create)
	api.POST("/products/import", products.Import)
	api.PUT("/products/:id", products.Update)
	api.DELETE("/products/:id", products.Delete)

	api.GET("/locations", locations.List)
	api.GET("/locations/:id", locations.GetByID)
	api.POST("/locations", locations.Create)
	api.PUT("/locations/:id", locations.Update)
	api.GET("/locations/:id/sub-locations", locations.ListSubLocations)
	api.POST("/locations/:id/sub-locations", locations.CreateSubLocation)

	api.GET("/vendors", vendors.List)
	api.POST("/vendors", vendors.Create)
	api.GET("/patients", patients.List)
	api.GET("/patients/:id", patients.GetByID)
	api.POST("/patients", patients.Create)
	api.DELETE("/patients/:id", patients.Delete)

	api.GET("/inventory", stock.List)
	api.POST("/inventory", stock.Receive)
	api.POST("/inventory/batch", stock.ReceiveBatch)
	api.GET("/inventory/expiring", stock.Expiring)
	api.GET("/inventory/lots", stock.SuggestLots)
	api.GET("/inventory/products", stock.ProductOptions)
	api.GET("/inventory/transfers", stock.ListTransfers)
	api.POST("/inventory/transfers", stock.Transfer)
	api.GET("/inventory/:id", stock.GetByID)
	api.GET("/inventory/:id/transactions", stock.ListTransactions)
	api.POST("/dispenses", stock.Dispense)
	api.GET("/dispenses", stock.ListDispenses)

	api.GET("/invoices", invoices.List)
	api.GET("/invoices/:id", invoices.GetByID)
	api.POST("/invoices", invoices.Create)
	api.POST("/invoices/:id/items", invoices.AddItems)
	api.POST("/invoices/:id/post", invoices.Post)
	api.GET("/invoices/:id/pdf", invoices.PDF)

	api.POST("/purchase-orders", orders.Create)
	api.GET("/purchase-orders/:id", orders.GetByID)
	api.POST("/purchase-orders/:id/post", orders.Post)
	api.POST("/purchase-orders/:id/receive", orders.Receive)
	api.POST("/purchase-orders/:id/cancel", orders.Cancel)
	api.GET("/purchase-orders/:id/document", orders.Document)

	api.POST("/memberships/tiers", memberships.CreateTier)
	api.GET("/memberships/tiers", memberships.ListTiers)
	api.POST("/memberships/tiers/:id/subscriptions", memberships.Subscribe)
	api.GET("/memberships/tiers/:id/subscriptions", memberships.ListSubscriptions)
	api.POST("/memberships/subscriptions/:id/cancel", memberships.CancelSubscription)
	return r
}

func (e *apiEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// data performs the request, asserts the status and returns the data field.
func (e *apiEnv) data(method, path string, body any, wantStatus int) map[string]any {
	e.t.Helper()
	w := e.do(method, path, body)
	require.Equal(e.t, wantStatus, w.Code, w.Body.String())
	out, _ := decodeBody(e.t, w)["data"].(map[string]any)
	return out
}

func (e *apiEnv) list(path string) ([]any, map[string]any) {
	e.t.Helper()
	w := e.do(http.MethodGet, path, nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(e.t, w)
	items, _ := body["data"].([]any)
	meta, _ := body["meta"].(map[string]any)
	return items, meta
}

func (e *apiEnv) createProduct(name, sku string) string {
	e.t.Helper()
	p := e.data(http.MethodPost, "/products", map[string]any{
		"name":  name,
		"sku":   sku,
		"price": "12.50",
		"cost":  "40",
	}, http.StatusCreated)
	return p["id"].(string)
}

func (e *apiEnv) createLocation(name string) string {
	e.t.Helper()
	loc := e.data(http.MethodPost, "/locations", map[string]any{"name": name}, http.StatusCreated)
	return loc["id"].(string)
}

func (e *apiEnv) receive(productID, locationID, lot string, units int) string {
	e.t.Helper()
	item := e.data(http.MethodPost, "/inventory", map[string]any{
		"productId":      productID,
		"price":          "10",
		"packageCost":    "40",
		"lotNumber":      lot,
		"expirationDate": "2030-01-31",
		"serialNumber":   "SN-" + lot,
		"vendor":         "MedSupply",
		"manufacturer":   "Zoetis",
		"unitsReceived":  units,
		"locationId":     locationID,
	}, http.StatusCreated)
	return item["id"].(string)
}

func (e *apiEnv) createPatient(first, last string) string {
	e.t.Helper()
	p := e.data(http.MethodPost, "/patients", map[string]any{
		"firstName": first,
		"lastName":  last,
		"email":     "owner+" + uuid.NewString()[:8] + "@example.com",
	}, http.StatusCreated)
	return p["id"].(string)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	errInfo, _ := decodeBody(t, w)["error"].(map[string]any)
	code, _ := errInfo["code"].(string)
	return code
}

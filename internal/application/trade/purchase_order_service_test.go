package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/partner"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (f *fixture) orderService() *PurchaseOrderService {
	svc := NewPurchaseOrderService(NewNoOpTransactionScope(f.repos), f.repos, PurchaseOrderDeps{
		ProductRepo:  f.products,
		VendorRepo:   f.vendors,
		LocationRepo: f.locations,
		OrgRepo:      f.orgs,
		Renderer:     f.renderer,
		Store:        f.store,
		Mailer:       f.mailer,
	}, zap.NewNop())
	svc.SetEventPublisher(f.publisher)
	return svc
}

func (f *fixture) vendor(t *testing.T, email string) *partner.Vendor {
	v, err := partner.NewVendor(f.tenantID, partner.VendorDetails{Name: "MedSupply", Email: email})
	require.NoError(t, err)
	return v
}

func (f *fixture) draftOrder(t *testing.T, vendorID, locationID uuid.UUID, lines ...trade.OrderLine) *trade.PurchaseOrder {
	o, err := trade.NewPurchaseOrder(f.tenantID, 1000, vendorID, locationID, &f.userID, "")
	require.NoError(t, err)
	if len(lines) > 0 {
		_, err = o.AddItems(lines)
		require.NoError(t, err)
	}
	return o
}

func TestPurchaseOrderService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a numbered draft with lines", func(t *testing.T) {
		f := newFixture()
		v, loc := f.vendor(t, "orders@medsupply.test"), f.location(t)
		product := f.product(t, "Gauze")
		f.vendors.On("FindByID", ctx, f.tenantID, v.ID).Return(v, nil)
		f.locations.On("FindByID", ctx, f.tenantID, loc.ID).Return(loc, nil)
		f.products.On("FindByIDs", ctx, f.tenantID, mock.Anything).Return([]catalog.Product{*product}, nil)
		f.orders.On("MaxNumber", ctx, f.tenantID).Return(1041, nil)
		f.orders.On("Create", ctx, mock.AnythingOfType("*trade.PurchaseOrder")).Return(nil)

		resp, err := f.orderService().Create(ctx, f.tenantID, f.userID, CreatePurchaseOrderRequest{
			VendorID:   v.ID,
			LocationID: loc.ID,
			Items:      []OrderLineRequest{{ProductID: product.ID, Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(4)}},
		})

		require.NoError(t, err)
		assert.Equal(t, 1042, resp.OrderNumber)
		assert.Equal(t, "DRAFT", resp.Status)
		assert.Equal(t, "MedSupply", resp.VendorName)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(20)))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Gauze", resp.Items[0].ProductName)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.vendors.On("FindByID", ctx, f.tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := f.orderService().Create(ctx, f.tenantID, f.userID, CreatePurchaseOrderRequest{VendorID: id, LocationID: uuid.New()})

		require.Error(t, err)
		assert.Equal(t, "Vendor not found", err.Error())
	})

	t.Run("fractional line quantity is rejected before the order exists", func(t *testing.T) {
		f := newFixture()
		v, loc := f.vendor(t, "orders@medsupply.test"), f.location(t)
		f.vendors.On("FindByID", ctx, f.tenantID, v.ID).Return(v, nil)
		f.locations.On("FindByID", ctx, f.tenantID, loc.ID).Return(loc, nil)

		_, err := f.orderService().Create(ctx, f.tenantID, f.userID, CreatePurchaseOrderRequest{
			VendorID:   v.ID,
			LocationID: loc.ID,
			Items:      []OrderLineRequest{{ProductID: uuid.New(), Quantity: decimal.RequireFromString("2.5"), Price: decimal.NewFromInt(4)}},
		})

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		f.products.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything, mock.Anything)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestPurchaseOrderService_AddItems_WholeUnits(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	order := f.draftOrder(t, uuid.New(), uuid.New())
	f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)

	_, err := f.orderService().AddItems(ctx, f.tenantID, order.ID, AddOrderItemsRequest{
		Items: []OrderLineRequest{{ProductID: uuid.New(), Quantity: decimal.RequireFromString("0.5"), Price: decimal.NewFromInt(3)}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, "item 1: Quantity must be a whole number greater than 0", err.Error())
	assert.Empty(t, order.Items)
	f.orders.AssertNotCalled(t, "AddItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseOrderService_Post(t *testing.T) {
	ctx := context.Background()

	t.Run("renders, stores and emails the order", func(t *testing.T) {
		f := newFixture()
		v, loc := f.vendor(t, "orders@medsupply.test"), f.location(t)
		product := f.product(t, "Gauze")
		order := f.draftOrder(t, v.ID, loc.ID, trade.OrderLine{ProductID: product.ID, Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(4)})
		org, err := identity.NewOrganization("Riverside Vet")
		require.NoError(t, err)
		pdf := []byte("%PDF-1.7")
		key := "purchase-orders/" + f.tenantID.String() + "/PO-1000.pdf"

		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)
		f.vendors.On("FindByID", ctx, f.tenantID, v.ID).Return(v, nil)
		f.orgs.On("FindByID", ctx, f.tenantID).Return(org, nil)
		f.locations.On("FindByID", ctx, f.tenantID, loc.ID).Return(loc, nil)
		f.products.On("FindByIDs", ctx, f.tenantID, mock.Anything).Return([]catalog.Product{*product}, nil)
		f.renderer.On("RenderPurchaseOrder", ctx, mock.MatchedBy(func(doc *PurchaseOrderDocument) bool {
			return doc.ShipTo == "Main Clinic" && doc.Vendor.Email == "orders@medsupply.test" && doc.Lines[0].ProductName == "Gauze"
		})).Return(pdf, nil)
		f.renderer.On("PurchaseOrderEmailHTML", mock.Anything).Return("<p>order</p>", nil)
		f.store.On("Upload", ctx, key, pdf, "application/pdf").Return(nil)
		f.mailer.On("Send", ctx, mock.MatchedBy(func(msg *MailMessage) bool {
			return msg.Subject == "Purchase Order #1000" &&
				msg.To[0] == "orders@medsupply.test" &&
				len(msg.Attachments) == 1 && msg.Attachments[0].Filename == "PO-1000.pdf"
		})).Return(nil)
		f.orders.On("SaveWithLock", ctx, order).Return(nil)

		resp, err := f.orderService().Post(ctx, f.tenantID, order.ID)

		require.NoError(t, err)
		assert.Equal(t, "POSTED", resp.Status)
		assert.True(t, resp.HasDocument)
		assert.Equal(t, key, order.DocumentKey)
		assert.Len(t, f.publisher.GetEventsByType(trade.EventTypePurchaseOrderPosted), 1)
		f.items.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("vendor without email", func(t *testing.T) {
		f := newFixture()
		v := f.vendor(t, "")
		order := f.draftOrder(t, v.ID, uuid.New(), trade.OrderLine{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)})
		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)
		f.vendors.On("FindByID", ctx, f.tenantID, v.ID).Return(v, nil)

		_, err := f.orderService().Post(ctx, f.tenantID, order.ID)

		require.Error(t, err)
		assert.Equal(t, "Vendor email is required", err.Error())
		f.renderer.AssertNotCalled(t, "RenderPurchaseOrder", mock.Anything, mock.Anything)
		assert.Equal(t, trade.StatusDraft, order.Status)
	})

	t.Run("empty order", func(t *testing.T) {
		f := newFixture()
		order := f.draftOrder(t, uuid.New(), uuid.New())
		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)

		_, err := f.orderService().Post(ctx, f.tenantID, order.ID)

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("email failure fails the post after the claim", func(t *testing.T) {
		f := newFixture()
		v, loc := f.vendor(t, "orders@medsupply.test"), f.location(t)
		order := f.draftOrder(t, v.ID, loc.ID, trade.OrderLine{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)})
		org, err := identity.NewOrganization("Riverside Vet")
		require.NoError(t, err)
		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)
		f.vendors.On("FindByID", ctx, f.tenantID, v.ID).Return(v, nil)
		f.orgs.On("FindByID", ctx, f.tenantID).Return(org, nil)
		f.locations.On("FindByID", ctx, f.tenantID, loc.ID).Return(loc, nil)
		f.products.On("FindByIDs", ctx, f.tenantID, mock.Anything).Return([]catalog.Product{}, nil)
		f.renderer.On("RenderPurchaseOrder", ctx, mock.Anything).Return([]byte("pdf"), nil)
		f.renderer.On("PurchaseOrderEmailHTML", mock.Anything).Return("<p/>", nil)
		f.orders.On("SaveWithLock", ctx, order).Return(nil)
		f.store.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.mailer.On("Send", ctx, mock.Anything).Return(errors.New("smtp down"))

		_, err = f.orderService().Post(ctx, f.tenantID, order.ID)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp down")
		assert.Empty(t, f.publisher.GetEventsByType(trade.EventTypePurchaseOrderPosted))
	})

	t.Run("losing a concurrent post sends nothing", func(t *testing.T) {
		f := newFixture()
		v, loc := f.vendor(t, "orders@medsupply.test"), f.location(t)
		order := f.draftOrder(t, v.ID, loc.ID, trade.OrderLine{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)})
		org, err := identity.NewOrganization("Riverside Vet")
		require.NoError(t, err)
		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)
		f.vendors.On("FindByID", ctx, f.tenantID, v.ID).Return(v, nil)
		f.orgs.On("FindByID", ctx, f.tenantID).Return(org, nil)
		f.locations.On("FindByID", ctx, f.tenantID, loc.ID).Return(loc, nil)
		f.products.On("FindByIDs", ctx, f.tenantID, mock.Anything).Return([]catalog.Product{}, nil)
		f.renderer.On("RenderPurchaseOrder", ctx, mock.Anything).Return([]byte("pdf"), nil)
		f.renderer.On("PurchaseOrderEmailHTML", mock.Anything).Return("<p/>", nil)
		f.orders.On("SaveWithLock", ctx, order).Return(shared.ErrConcurrencyConflict)

		_, err = f.orderService().Post(ctx, f.tenantID, order.ID)

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		f.store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.GetEventsByType(trade.EventTypePurchaseOrderPosted))
	})
}

func TestPurchaseOrderService_Receive(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a purchase order receipt with one lot per line", func(t *testing.T) {
		f := newFixture()
		v, loc := f.vendor(t, "orders@medsupply.test"), f.location(t)
		gauze, saline := f.product(t, "Gauze"), f.product(t, "Saline")
		order := f.draftOrder(t, v.ID, loc.ID,
			trade.OrderLine{ProductID: gauze.ID, Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(4)},
			trade.OrderLine{ProductID: saline.ID, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(9)},
		)
		require.NoError(t, order.Post("key"))
		order.ClearDomainEvents()

		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)
		f.vendors.On("FindByID", ctx, f.tenantID, v.ID).Return(v, nil)
		f.headers.On("Save", ctx, mock.MatchedBy(func(h *inventory.InventoryHeader) bool {
			return h.SourceType == inventory.ReceiptSourcePurchaseOrder &&
				*h.SourceID == order.ID &&
				h.ReceiptNumber == "PO-1000" &&
				h.Vendor == "MedSupply"
		})).Return(nil)
		var created []*inventory.InventoryItem
		f.items.On("Create", ctx, mock.AnythingOfType("*inventory.InventoryItem")).
			Run(func(args mock.Arguments) { created = append(created, args.Get(1).(*inventory.InventoryItem)) }).
			Return(nil)
		f.ledger.On("CreateBatch", ctx, mock.MatchedBy(func(entries []*inventory.InventoryTransaction) bool {
			return len(entries) == 2 &&
				entries[0].TransactionType == inventory.TransactionTypePurchaseReceipt &&
				entries[0].SourceID == order.ID
		})).Return(nil)
		f.orders.On("SaveWithLock", ctx, order).Return(nil)
		f.products.On("FindByIDs", ctx, f.tenantID, mock.Anything).Return([]catalog.Product{*gauze, *saline}, nil)

		resp, err := f.orderService().Receive(ctx, f.tenantID, f.userID, order.ID, ReceivePurchaseOrderRequest{
			Items: []ReceiveLineRequest{{ItemID: order.Items[0].ID, LotNumber: "G-55", ExpirationDate: "2027-01-31"}},
		})

		require.NoError(t, err)
		assert.Equal(t, "RECEIVED", resp.Status)
		require.Len(t, created, 2)
		assert.Equal(t, "G-55", created[0].LotNumber)
		require.NotNil(t, created[0].ExpirationDate)
		assert.Equal(t, time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC), *created[0].ExpirationDate)
		assert.Equal(t, loc.ID, *created[1].LocationID)
		assert.True(t, created[1].QuantityOnHand.Equal(decimal.NewFromInt(2)))
		assert.Len(t, f.publisher.GetEventsByType(trade.EventTypePurchaseOrderReceived), 1)
		assert.Len(t, f.publisher.GetEventsByType(inventory.EventTypeInventoryReceived), 1)
	})

	t.Run("draft order cannot be received", func(t *testing.T) {
		f := newFixture()
		order := f.draftOrder(t, uuid.New(), uuid.New(), trade.OrderLine{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)})
		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)

		_, err := f.orderService().Receive(ctx, f.tenantID, f.userID, order.ID, ReceivePurchaseOrderRequest{})

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		f.headers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown order line", func(t *testing.T) {
		f := newFixture()
		order := f.draftOrder(t, uuid.New(), uuid.New(), trade.OrderLine{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)})
		require.NoError(t, order.Post("key"))
		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)

		_, err := f.orderService().Receive(ctx, f.tenantID, f.userID, order.ID, ReceivePurchaseOrderRequest{
			Items: []ReceiveLineRequest{{ItemID: uuid.New(), LotNumber: "X"}},
		})

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestPurchaseOrderService_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.vendor(t, "")
	order := f.draftOrder(t, v.ID, uuid.New())
	f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", ctx, order).Return(nil)
	f.vendors.On("FindByID", ctx, f.tenantID, v.ID).Return(v, nil)

	resp, err := f.orderService().Cancel(ctx, f.tenantID, order.ID)

	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.NotNil(t, resp.CancelledAt)

	_, err = f.orderService().Cancel(ctx, f.tenantID, order.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestPurchaseOrderService_DocumentURL(t *testing.T) {
	ctx := context.Background()

	t.Run("presigns the stored document", func(t *testing.T) {
		f := newFixture()
		order := f.draftOrder(t, uuid.New(), uuid.New(), trade.OrderLine{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)})
		require.NoError(t, order.Post("purchase-orders/x/PO-1000.pdf"))
		expires := time.Now().Add(time.Hour)
		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)
		f.store.On("GenerateDownloadURL", ctx, "purchase-orders/x/PO-1000.pdf", time.Duration(0)).
			Return("https://files.example/po", expires, nil)

		resp, err := f.orderService().DocumentURL(ctx, f.tenantID, order.ID)

		require.NoError(t, err)
		assert.Equal(t, "https://files.example/po", resp.URL)
		assert.Equal(t, expires, resp.ExpiresAt)
	})

	t.Run("draft order has no document", func(t *testing.T) {
		f := newFixture()
		order := f.draftOrder(t, uuid.New(), uuid.New())
		f.orders.On("FindByID", ctx, f.tenantID, order.ID).Return(order, nil)

		_, err := f.orderService().DocumentURL(ctx, f.tenantID, order.ID)

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

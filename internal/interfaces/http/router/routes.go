package router

import (
	"github.com/clinicledger/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers of the clinic API.
type Handlers struct {
	System        *handler.SystemHandler
	Auth          *handler.AuthHandler
	Billing       *handler.BillingHandler
	Product       *handler.ProductHandler
	Location      *handler.LocationHandler
	Vendor        *handler.VendorHandler
	Patient       *handler.PatientHandler
	Inventory     *handler.InventoryHandler
	Invoice       *handler.InvoiceHandler
	PurchaseOrder *handler.PurchaseOrderHandler
	Membership    *handler.MembershipHandler
}

// PublicGroups are reachable without credentials. Sync verifies its own
// identity token and the webhook is authenticated by its signature.
func PublicGroups(h Handlers) []*DomainGroup {
	system := NewDomainGroup("system", "").
		GET("/health", h.System.Health).
		GET("/system/info", h.System.GetSystemInfo)

	auth := NewDomainGroup("auth", "/auth").
		POST("/sync", h.Auth.Sync)

	billing := NewDomainGroup("billing-webhook", "/billing").
		POST("/webhook", h.Billing.Webhook)

	return []*DomainGroup{system, auth, billing}
}

// ProtectedGroups are the routes that need a principal. stockGuard runs in
// front of every request that moves stock so a retried request is replayed
// instead of applied twice.
func ProtectedGroups(h Handlers, stockGuard gin.HandlerFunc) []*DomainGroup {
	guarded := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if stockGuard == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{stockGuard, fn}
	}

	identity := NewDomainGroup("identity", "/auth").
		GET("/me", h.Auth.Me).
		POST("/api-key", h.Auth.RotateAPIKey)

	billing := NewDomainGroup("billing", "/billing").
		POST("/checkout", h.Billing.CreateCheckout)

	products := NewDomainGroup("catalog", "/products").
		GET("", h.Product.List).
		POST("", h.Product.Create).
		POST("/import", h.Product.Import).
		GET("/units", h.Product.Units).
		GET("/:id", h.Product.GetByID).
		PUT("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Delete)

	locations := NewDomainGroup("location", "/locations").
		GET("", h.Location.List).
		POST("", h.Location.Create).
		GET("/:id", h.Location.GetByID).
		PUT("/:id", h.Location.Update).
		GET("/:id/sub-locations", h.Location.ListSubLocations).
		POST("/:id/sub-locations", h.Location.CreateSubLocation)

	vendors := NewDomainGroup("vendor", "/vendors").
		GET("", h.Vendor.List).
		POST("", h.Vendor.Create).
		GET("/:id", h.Vendor.GetByID).
		PUT("/:id", h.Vendor.Update)

	patients := NewDomainGroup("patient", "/patients").
		GET("", h.Patient.List).
		POST("", h.Patient.Create).
		GET("/:id", h.Patient.GetByID).
		PUT("/:id", h.Patient.Update).
		DELETE("/:id", h.Patient.Delete)

	inventory := NewDomainGroup("inventory", "/inventory").
		GET("", h.Inventory.List).
		POST("", guarded(h.Inventory.Receive)...).
		POST("/batch", guarded(h.Inventory.ReceiveBatch)...).
		GET("/expiring", h.Inventory.Expiring).
		GET("/lots", h.Inventory.SuggestLots).
		GET("/products", h.Inventory.ProductOptions).
		GET("/locations", h.Inventory.LocationOptions).
		GET("/transfers", h.Inventory.ListTransfers).
		POST("/transfers", guarded(h.Inventory.Transfer)...).
		GET("/:id", h.Inventory.GetByID).
		GET("/:id/transactions", h.Inventory.ListTransactions)

	dispenses := NewDomainGroup("dispense", "/dispenses").
		GET("", h.Inventory.ListDispenses).
		POST("", guarded(h.Inventory.Dispense)...)

	invoices := NewDomainGroup("invoice", "/invoices").
		GET("", h.Invoice.List).
		POST("", h.Invoice.Create).
		GET("/:id", h.Invoice.GetByID).
		POST("/:id/items", h.Invoice.AddItems).
		POST("/:id/post", guarded(h.Invoice.Post)...).
		GET("/:id/pdf", h.Invoice.PDF)

	orders := NewDomainGroup("purchase-order", "/purchase-orders").
		GET("", h.PurchaseOrder.List).
		POST("", h.PurchaseOrder.Create).
		GET("/:id", h.PurchaseOrder.GetByID).
		POST("/:id/items", h.PurchaseOrder.AddItems).
		POST("/:id/post", guarded(h.PurchaseOrder.Post)...).
		POST("/:id/receive", guarded(h.PurchaseOrder.Receive)...).
		POST("/:id/cancel", h.PurchaseOrder.Cancel).
		GET("/:id/document", h.PurchaseOrder.Document)

	memberships := NewDomainGroup("membership", "/memberships").
		GET("/tiers", h.Membership.ListTiers).
		POST("/tiers", h.Membership.CreateTier).
		GET("/tiers/:id/subscriptions", h.Membership.ListSubscriptions).
		POST("/tiers/:id/subscriptions", h.Membership.Subscribe).
		POST("/subscriptions/:id/cancel", h.Membership.CancelSubscription)

	return []*DomainGroup{
		identity, billing, products, locations, vendors, patients,
		inventory, dispenses, invoices, orders, memberships,
	}
}

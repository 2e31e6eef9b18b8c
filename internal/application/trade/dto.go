package trade

import (
	"strings"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLineRequest is one invoice line
type InvoiceLineRequest struct {
	ProductID   uuid.UUID       `json:"productId" binding:"required"`
	InventoryID uuid.UUID       `json:"inventoryId" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	Price       decimal.Decimal `json:"price" binding:"decimal_gt0"`
}

// CreateInvoiceRequest saves a draft invoice
type CreateInvoiceRequest struct {
	PatientID  uuid.UUID            `json:"patientId" binding:"required"`
	LocationID uuid.UUID            `json:"locationId" binding:"required"`
	Notes      string               `json:"notes" binding:"max=2000"`
	Items      []InvoiceLineRequest `json:"items" binding:"dive"`
}

// AddInvoiceItemsRequest appends lines to a draft invoice
type AddInvoiceItemsRequest struct {
	Items []InvoiceLineRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderLineRequest is one purchase order line
type OrderLineRequest struct {
	ProductID uuid.UUID       `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	Price     decimal.Decimal `json:"price" binding:"decimal_gt0"`
}

// CreatePurchaseOrderRequest creates a draft order
type CreatePurchaseOrderRequest struct {
	VendorID   uuid.UUID          `json:"vendorId" binding:"required"`
	LocationID uuid.UUID          `json:"locationId" binding:"required"`
	Notes      string             `json:"notes" binding:"max=2000"`
	Items      []OrderLineRequest `json:"items" binding:"dive"`
}

// AddOrderItemsRequest appends lines to a draft order
type AddOrderItemsRequest struct {
	Items []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// ReceiveLineRequest carries the lot details of one received order line
type ReceiveLineRequest struct {
	ItemID         uuid.UUID `json:"itemId" binding:"required"`
	LotNumber      string    `json:"lotNumber" binding:"max=100"`
	ExpirationDate string    `json:"expirationDate"`
	SerialNumber   string    `json:"serialNumber" binding:"max=100"`
}

// ReceivePurchaseOrderRequest books a posted order into stock
type ReceivePurchaseOrderRequest struct {
	Items []ReceiveLineRequest `json:"items" binding:"dive"`
}

// ListFilter pages through invoices and purchase orders
type ListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT POSTED RECEIVED CANCELLED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

func (f ListFilter) toDomain(orderBy string) shared.Filter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  orderBy,
		OrderDir: "desc",
		Filters:  map[string]any{},
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter
}

// InvoiceItemResponse is one invoice line with its product and lot
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	InventoryID uuid.UUID       `json:"inventoryId"`
	LotNumber   string          `json:"lotNumber,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// PatientSummary is the patient block of an invoice
type PatientSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
}

// InvoiceResponse represents an invoice
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	InvoiceNumber int                   `json:"invoiceNumber"`
	PatientID     uuid.UUID             `json:"patientId"`
	Patient       *PatientSummary       `json:"patient,omitempty"`
	LocationID    uuid.UUID             `json:"locationId"`
	Status        string                `json:"status"`
	Notes         string                `json:"notes"`
	Items         []InvoiceItemResponse `json:"items"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	Total         decimal.Decimal       `json:"total"`
	PostedAt      *time.Time            `json:"postedAt,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
	Version       int                   `json:"version"`
}

// PurchaseOrderItemResponse is one order line
type PurchaseOrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
}

// PurchaseOrderResponse represents a purchase order
type PurchaseOrderResponse struct {
	ID          uuid.UUID                   `json:"id"`
	OrderNumber int                         `json:"orderNumber"`
	VendorID    uuid.UUID                   `json:"vendorId"`
	VendorName  string                      `json:"vendorName,omitempty"`
	LocationID  uuid.UUID                   `json:"locationId"`
	Status      string                      `json:"status"`
	Notes       string                      `json:"notes"`
	Items       []PurchaseOrderItemResponse `json:"items"`
	Total       decimal.Decimal             `json:"total"`
	HasDocument bool                        `json:"hasDocument"`
	PostedAt    *time.Time                  `json:"postedAt,omitempty"`
	ReceivedAt  *time.Time                  `json:"receivedAt,omitempty"`
	CancelledAt *time.Time                  `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
	Version     int                         `json:"version"`
}

// DocumentURLResponse is a presigned link to a stored document
type DocumentURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ToInvoiceResponse converts an invoice without product, lot or patient details
func ToInvoiceResponse(inv *trade.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			InventoryID: item.InventoryID,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		}
	}
	return InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		PatientID:     inv.PatientID,
		LocationID:    inv.LocationID,
		Status:        string(inv.Status),
		Notes:         inv.Notes,
		Items:         items,
		Subtotal:      inv.Subtotal,
		Total:         inv.Total,
		PostedAt:      inv.PostedAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}

// ToPurchaseOrderResponse converts an order without vendor or product names
func ToPurchaseOrderResponse(o *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = PurchaseOrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Amount:    item.Amount,
		}
	}
	return PurchaseOrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		VendorID:    o.VendorID,
		LocationID:  o.LocationID,
		Status:      string(o.Status),
		Notes:       o.Notes,
		Items:       items,
		Total:       o.Total,
		HasDocument: o.DocumentKey != "",
		PostedAt:    o.PostedAt,
		ReceivedAt:  o.ReceivedAt,
		CancelledAt: o.CancelledAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Version:     o.Version,
	}
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, shared.InvalidInput("Invalid " + field + ": " + value)
}

package trade

import (
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeInvoice       = "Invoice"
	AggregateTypePurchaseOrder = "PurchaseOrder"
)

const (
	EventTypeInvoicePosted         = "InvoicePosted"
	EventTypePurchaseOrderPosted   = "PurchaseOrderPosted"
	EventTypePurchaseOrderReceived = "PurchaseOrderReceived"
)

// InvoicePostedEvent is raised when an invoice is posted and its stock consumed.
type InvoicePostedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber int             `json:"invoiceNumber"`
	PatientID     uuid.UUID       `json:"patientId"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"itemCount"`
}

func NewInvoicePostedEvent(i *Invoice) *InvoicePostedEvent {
	return &InvoicePostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePosted, AggregateTypeInvoice, i.ID, i.TenantID),
		InvoiceNumber:   i.InvoiceNumber,
		PatientID:       i.PatientID,
		Total:           i.Total,
		ItemCount:       len(i.Items),
	}
}

// PurchaseOrderPostedEvent is raised when an order is sent to its vendor.
type PurchaseOrderPostedEvent struct {
	shared.BaseDomainEvent
	OrderNumber int             `json:"orderNumber"`
	VendorID    uuid.UUID       `json:"vendorId"`
	Total       decimal.Decimal `json:"total"`
	DocumentKey string          `json:"documentKey"`
}

func NewPurchaseOrderPostedEvent(o *PurchaseOrder) *PurchaseOrderPostedEvent {
	return &PurchaseOrderPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderPosted, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		VendorID:        o.VendorID,
		Total:           o.Total,
		DocumentKey:     o.DocumentKey,
	}
}

// PurchaseOrderReceivedEvent is raised when ordered goods enter inventory.
type PurchaseOrderReceivedEvent struct {
	shared.BaseDomainEvent
	OrderNumber int       `json:"orderNumber"`
	LocationID  uuid.UUID `json:"locationId"`
	HeaderID    uuid.UUID `json:"headerId"`
}

func NewPurchaseOrderReceivedEvent(o *PurchaseOrder, headerID uuid.UUID) *PurchaseOrderReceivedEvent {
	return &PurchaseOrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReceived, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		LocationID:      o.LocationID,
		HeaderID:        headerID,
	}
}

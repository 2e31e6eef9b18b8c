package trade

import (
	"context"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceRepository persists invoices with their items.
type InvoiceRepository interface {
	// FindByID loads the invoice and its items.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindAll lists invoices by number, newest first.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountPostedByPatient counts POSTED invoices billed to the patient.
	CountPostedByPatient(ctx context.Context, tenantID, patientID uuid.UUID) (int64, error)

	// MaxNumber returns the highest invoice number of the tenant, or 0.
	MaxNumber(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Create inserts the invoice with its items.
	Create(ctx context.Context, invoice *Invoice) error

	// AddItems inserts new items and updates the invoice totals.
	AddItems(ctx context.Context, invoice *Invoice, items []InvoiceItem) error

	// SaveWithLock updates the header fields, checking the version.
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// PurchaseOrderRepository persists purchase orders with their items.
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	MaxNumber(ctx context.Context, tenantID uuid.UUID) (int, error)
	Create(ctx context.Context, order *PurchaseOrder) error
	AddItems(ctx context.Context, order *PurchaseOrder, items []PurchaseOrderItem) error
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error
}

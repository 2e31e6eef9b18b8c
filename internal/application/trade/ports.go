package trade

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentParty is the addressee block of a rendered document.
type DocumentParty struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// InvoiceDocumentLine is one row of a rendered invoice.
type InvoiceDocumentLine struct {
	ProductName string
	SKU         string
	LotNumber   string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Total       decimal.Decimal
}

// InvoiceDocument is the data behind an invoice PDF.
type InvoiceDocument struct {
	OrganizationName string
	InvoiceNumber    int
	Status           string
	IssuedAt         time.Time
	BillTo           DocumentParty
	Lines            []InvoiceDocumentLine
	Subtotal         decimal.Decimal
	Total            decimal.Decimal
	Notes            string
}

// PurchaseOrderDocumentLine is one row of a rendered purchase order.
type PurchaseOrderDocumentLine struct {
	ProductName string
	SKU         string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Amount      decimal.Decimal
}

// PurchaseOrderDocument is the data behind a purchase order PDF and email.
type PurchaseOrderDocument struct {
	OrganizationName string
	OrderNumber      int
	Date             time.Time
	Vendor           DocumentParty
	ShipTo           string
	Lines            []PurchaseOrderDocumentLine
	Total            decimal.Decimal
	Notes            string
}

// DocumentRenderer turns trade documents into PDF bytes and email bodies.
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error)
	RenderPurchaseOrder(ctx context.Context, doc *PurchaseOrderDocument) ([]byte, error)
	// PurchaseOrderEmailHTML renders the body of the email sent to the vendor.
	PurchaseOrderEmailHTML(doc *PurchaseOrderDocument) (string, error)
}

// DocumentStore keeps rendered documents in object storage.
type DocumentStore interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	// GenerateDownloadURL presigns a GET. expiresIn <= 0 uses the store default.
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// Attachment is a file sent with an email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// MailMessage is an outgoing email.
type MailMessage struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, msg *MailMessage) error
}

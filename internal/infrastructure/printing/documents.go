package printing

import (
	"context"
	"fmt"

	tradeapp "github.com/clinicledger/backend/internal/application/trade"
)

// DocumentRenderer renders invoices and purchase orders through the template
// engine and a PDF backend.
type DocumentRenderer struct {
	engine *TemplateEngine
	pdf    PDFRenderer
}

// NewDocumentRenderer creates a DocumentRenderer
func NewDocumentRenderer(engine *TemplateEngine, pdf PDFRenderer) *DocumentRenderer {
	return &DocumentRenderer{engine: engine, pdf: pdf}
}

// RenderInvoice returns the invoice as PDF bytes.
func (r *DocumentRenderer) RenderInvoice(ctx context.Context, doc *tradeapp.InvoiceDocument) ([]byte, error) {
	return r.render(ctx, TemplateInvoice, fmt.Sprintf("Invoice #%d", doc.InvoiceNumber), doc)
}

// RenderPurchaseOrder returns the purchase order as PDF bytes.
func (r *DocumentRenderer) RenderPurchaseOrder(ctx context.Context, doc *tradeapp.PurchaseOrderDocument) ([]byte, error) {
	return r.render(ctx, TemplatePurchaseOrder, fmt.Sprintf("Purchase Order #%d", doc.OrderNumber), doc)
}

// PurchaseOrderEmailHTML renders the vendor email body.
func (r *DocumentRenderer) PurchaseOrderEmailHTML(doc *tradeapp.PurchaseOrderDocument) (string, error) {
	return r.engine.Execute(TemplatePurchaseOrderEmail, doc)
}

func (r *DocumentRenderer) render(ctx context.Context, name, title string, data any) ([]byte, error) {
	html, err := r.engine.Execute(name, data)
	if err != nil {
		return nil, err
	}
	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:       html,
		Title:      title,
		PaperSize:  PaperA4,
		Margins:    DefaultMargins,
		FooterHTML: `<div style="font-size:8px;width:100%;text-align:center;color:#666;"><span class="pageNumber"></span> / <span class="totalPages"></span></div>`,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}

var _ tradeapp.DocumentRenderer = (*DocumentRenderer)(nil)

package telemetry

import (
	"context"
	"errors"

	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metric set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// ClinicMetrics turns domain events into counters. It is subscribed to the
// event bus for every event type.
type ClinicMetrics struct {
	events            metric.Int64Counter
	invoicesPosted    metric.Int64Counter
	invoiceRevenue    metric.Float64Counter
	ordersPosted      metric.Int64Counter
	orderSpend        metric.Float64Counter
	ordersReceived    metric.Int64Counter
	receipts          metric.Int64Counter
	dispensedQuantity metric.Float64Counter
	transferQuantity  metric.Float64Counter
}

// NewClinicMetrics registers the instruments on meter.
func NewClinicMetrics(meter metric.Meter) (*ClinicMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &ClinicMetrics{}
	var errs []error
	add := func(err error) { errs = append(errs, err) }

	var err error
	m.events, err = meter.Int64Counter("clinic_domain_events_total",
		metric.WithDescription("Domain events published"), metric.WithUnit("{events}"))
	add(err)
	m.invoicesPosted, err = meter.Int64Counter("clinic_invoices_posted_total",
		metric.WithDescription("Invoices posted"), metric.WithUnit("{invoices}"))
	add(err)
	m.invoiceRevenue, err = meter.Float64Counter("clinic_invoice_amount_total",
		metric.WithDescription("Sum of posted invoice totals"), metric.WithUnit("{currency}"))
	add(err)
	m.ordersPosted, err = meter.Int64Counter("clinic_purchase_orders_posted_total",
		metric.WithDescription("Purchase orders posted to vendors"), metric.WithUnit("{orders}"))
	add(err)
	m.orderSpend, err = meter.Float64Counter("clinic_purchase_order_amount_total",
		metric.WithDescription("Sum of posted purchase order totals"), metric.WithUnit("{currency}"))
	add(err)
	m.ordersReceived, err = meter.Int64Counter("clinic_purchase_orders_received_total",
		metric.WithDescription("Purchase orders received into stock"), metric.WithUnit("{orders}"))
	add(err)
	m.receipts, err = meter.Int64Counter("clinic_inventory_receipts_total",
		metric.WithDescription("Inventory receipts"), metric.WithUnit("{receipts}"))
	add(err)
	m.dispensedQuantity, err = meter.Float64Counter("clinic_inventory_dispensed_quantity_total",
		metric.WithDescription("Quantity dispensed from stock"), metric.WithUnit("{units}"))
	add(err)
	m.transferQuantity, err = meter.Float64Counter("clinic_inventory_transferred_quantity_total",
		metric.WithDescription("Quantity moved between stock rows"), metric.WithUnit("{units}"))
	add(err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes subscribes to everything.
func (m *ClinicMetrics) EventTypes() []string {
	return nil
}

// Handle records event.
func (m *ClinicMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := attribute.String("tenant_id", event.TenantID().String())
	m.events.Add(ctx, 1, metric.WithAttributes(tenant, attribute.String("event_type", event.EventType())))

	switch e := event.(type) {
	case *trade.InvoicePostedEvent:
		m.invoicesPosted.Add(ctx, 1, metric.WithAttributes(tenant))
		m.invoiceRevenue.Add(ctx, e.Total.InexactFloat64(), metric.WithAttributes(tenant))
	case *trade.PurchaseOrderPostedEvent:
		m.ordersPosted.Add(ctx, 1, metric.WithAttributes(tenant))
		m.orderSpend.Add(ctx, e.Total.InexactFloat64(), metric.WithAttributes(tenant))
	case *trade.PurchaseOrderReceivedEvent:
		m.ordersReceived.Add(ctx, 1, metric.WithAttributes(tenant))
	case *inventory.InventoryReceivedEvent:
		m.receipts.Add(ctx, 1, metric.WithAttributes(tenant, attribute.String("source", string(e.SourceType))))
	case *inventory.InventoryDispensedEvent:
		m.dispensedQuantity.Add(ctx, e.Quantity.InexactFloat64(), metric.WithAttributes(tenant))
	case *inventory.InventoryTransferredEvent:
		m.transferQuantity.Add(ctx, e.Quantity.InexactFloat64(), metric.WithAttributes(tenant))
	}
	return nil
}

var _ shared.EventHandler = (*ClinicMetrics)(nil)

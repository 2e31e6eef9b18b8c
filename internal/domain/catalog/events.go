package catalog

import "github.com/clinicledger/backend/internal/domain/shared"

const (
	EventTypeProductCreated = "ProductCreated"
	EventTypeProductUpdated = "ProductUpdated"
	AggregateTypeProduct    = "Product"
)

type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID, p.TenantID),
		Name:            p.Name,
		SKU:             p.SKU,
	}
}

type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, p.ID, p.TenantID),
		Name:            p.Name,
	}
}

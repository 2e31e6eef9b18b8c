package catalog

import (
	"strings"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductType classifies what a product is used for.
type ProductType string

const (
	ProductTypeMedication   ProductType = "MEDICATION"
	ProductTypeImmunization ProductType = "IMMUNIZATION"
	ProductTypeGeneral      ProductType = "GENERAL"
	ProductTypeCustom       ProductType = "CUSTOM"
)

// IsValid reports whether t is a known product type.
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeMedication, ProductTypeImmunization, ProductTypeGeneral, ProductTypeCustom:
		return true
	}
	return false
}

var minUnitQuantity = decimal.NewFromFloat(0.01)

// Product is a sellable or dispensable catalog item.
type Product struct {
	shared.TenantAggregateRoot
	Name                 string          `gorm:"type:varchar(200);not null" json:"name"`
	Description          string          `gorm:"type:text" json:"description"`
	Code                 string          `gorm:"type:varchar(50)" json:"code"`
	SKU                  string          `gorm:"column:sku;type:varchar(100);index" json:"sku"`
	ManufacturerBarcode  string          `gorm:"type:varchar(100)" json:"manufacturerBarcodeNumber"`
	Type                 ProductType     `gorm:"type:varchar(20);not null;default:'GENERAL'" json:"type"`
	Price                decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	Cost                 decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cost"`
	PackageUOM           UnitOfMeasure   `gorm:"column:package_uom;type:varchar(20)" json:"packageUOM"`
	ContainerUOM         UnitOfMeasure   `gorm:"column:container_uom;type:varchar(20)" json:"containerUOM"`
	QuantityPerContainer decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"quantityPerContainer"`
	UnitUOM              UnitOfMeasure   `gorm:"column:unit_uom;type:varchar(20)" json:"unitUOM"`
	UnitQuantity         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"unitQuantity"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// ProductSpec holds the fields supplied when creating a product.
type ProductSpec struct {
	Name                 string
	Description          string
	Code                 string
	SKU                  string
	ManufacturerBarcode  string
	Type                 ProductType
	Price                decimal.Decimal
	Cost                 decimal.Decimal
	PackageUOM           UnitOfMeasure
	ContainerUOM         UnitOfMeasure
	QuantityPerContainer decimal.Decimal
	UnitUOM              UnitOfMeasure
	UnitQuantity         decimal.Decimal
}

// NewProduct validates spec and creates a product.
func NewProduct(tenantID uuid.UUID, spec ProductSpec) (*Product, error) {
	if spec.Type == "" {
		spec.Type = ProductTypeGeneral
	}
	if spec.QuantityPerContainer.IsZero() {
		spec.QuantityPerContainer = decimal.NewFromInt(1)
	}
	if spec.UnitQuantity.IsZero() {
		spec.UnitQuantity = decimal.NewFromInt(1)
	}
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	p := &Product{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		Name:                 strings.TrimSpace(spec.Name),
		Description:          spec.Description,
		Code:                 strings.TrimSpace(spec.Code),
		SKU:                  strings.TrimSpace(spec.SKU),
		ManufacturerBarcode:  strings.TrimSpace(spec.ManufacturerBarcode),
		Type:                 spec.Type,
		Price:                spec.Price,
		Cost:                 spec.Cost,
		PackageUOM:           spec.PackageUOM,
		ContainerUOM:         spec.ContainerUOM,
		QuantityPerContainer: spec.QuantityPerContainer,
		UnitUOM:              spec.UnitUOM,
		UnitQuantity:         spec.UnitQuantity,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

func validateSpec(spec ProductSpec) error {
	if strings.TrimSpace(spec.Name) == "" {
		return shared.InvalidInput("Product name cannot be empty")
	}
	if len(spec.Name) > 200 {
		return shared.InvalidInput("Product name cannot exceed 200 characters")
	}
	if spec.Price.IsNegative() {
		return shared.InvalidInput("Price cannot be negative")
	}
	if spec.Cost.IsNegative() {
		return shared.InvalidInput("Cost cannot be negative")
	}
	if !spec.Type.IsValid() {
		return shared.InvalidInput("Invalid product type")
	}
	for _, u := range []UnitOfMeasure{spec.PackageUOM, spec.ContainerUOM, spec.UnitUOM} {
		if u != "" && !u.IsValid() {
			return shared.InvalidInput("Invalid unit of measure: " + string(u))
		}
	}
	if spec.QuantityPerContainer.LessThanOrEqual(decimal.Zero) {
		return shared.InvalidInput("Quantity per container must be positive")
	}
	if spec.UnitQuantity.LessThan(minUnitQuantity) {
		return shared.InvalidInput("Unit quantity must be at least 0.01")
	}
	return nil
}

// ProductUpdate carries the editable fields. Nil means unchanged.
type ProductUpdate struct {
	Name                *string
	Description         *string
	SKU                 *string
	ManufacturerBarcode *string
	Price               *decimal.Decimal
	Cost                *decimal.Decimal
}

// Update applies the non-nil fields of u.
func (p *Product) Update(u ProductUpdate) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return shared.InvalidInput("Product name cannot be empty")
		}
		if len(name) > 200 {
			return shared.InvalidInput("Product name cannot exceed 200 characters")
		}
		p.Name = name
	}
	if u.Price != nil {
		if u.Price.IsNegative() {
			return shared.InvalidInput("Price cannot be negative")
		}
		p.Price = *u.Price
	}
	if u.Cost != nil {
		if u.Cost.IsNegative() {
			return shared.InvalidInput("Cost cannot be negative")
		}
		p.Cost = *u.Cost
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.SKU != nil {
		p.SKU = strings.TrimSpace(*u.SKU)
	}
	if u.ManufacturerBarcode != nil {
		p.ManufacturerBarcode = strings.TrimSpace(*u.ManufacturerBarcode)
	}
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// DisplayName is "Name (SKU)" when a SKU is set.
func (p *Product) DisplayName() string {
	if p.SKU == "" {
		return p.Name
	}
	return p.Name + " (" + p.SKU + ")"
}

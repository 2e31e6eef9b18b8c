package catalog

import (
	"time"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name                 string           `json:"name" binding:"required,min=1,max=200"`
	Description          string           `json:"description" binding:"max=2000"`
	Code                 string           `json:"code" binding:"max=50"`
	SKU                  string           `json:"sku" binding:"max=100"`
	ManufacturerBarcode  string           `json:"manufacturerBarcodeNumber" binding:"max=100"`
	Type                 string           `json:"type" binding:"omitempty,oneof=MEDICATION IMMUNIZATION GENERAL CUSTOM"`
	Price                decimal.Decimal  `json:"price" binding:"decimal_gte0"`
	Cost                 decimal.Decimal  `json:"cost" binding:"decimal_gte0"`
	PackageUOM           string           `json:"packageUOM" binding:"omitempty,uom"`
	ContainerUOM         string           `json:"containerUOM" binding:"omitempty,uom"`
	QuantityPerContainer *decimal.Decimal `json:"quantityPerContainer"`
	UnitUOM              string           `json:"unitUOM" binding:"omitempty,uom"`
	UnitQuantity         *decimal.Decimal `json:"unitQuantity"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name                *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description         *string          `json:"description" binding:"omitempty,max=2000"`
	SKU                 *string          `json:"sku" binding:"omitempty,max=100"`
	ManufacturerBarcode *string          `json:"manufacturerBarcodeNumber" binding:"omitempty,max=100"`
	Price               *decimal.Decimal `json:"price"`
	Cost                *decimal.Decimal `json:"cost"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	Code                 string          `json:"code"`
	SKU                  string          `json:"sku"`
	ManufacturerBarcode  string          `json:"manufacturerBarcodeNumber"`
	Type                 string          `json:"type"`
	Price                decimal.Decimal `json:"price"`
	Cost                 decimal.Decimal `json:"cost"`
	PackageUOM           string          `json:"packageUOM"`
	ContainerUOM         string          `json:"containerUOM"`
	QuantityPerContainer decimal.Decimal `json:"quantityPerContainer"`
	UnitUOM              string          `json:"unitUOM"`
	UnitQuantity         decimal.Decimal `json:"unitQuantity"`
	QuantityOnHand       decimal.Decimal `json:"quantityOnHand"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
	Version              int             `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product, onHand decimal.Decimal) ProductResponse {
	return ProductResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		Code:                 p.Code,
		SKU:                  p.SKU,
		ManufacturerBarcode:  p.ManufacturerBarcode,
		Type:                 string(p.Type),
		Price:                p.Price,
		Cost:                 p.Cost,
		PackageUOM:           string(p.PackageUOM),
		ContainerUOM:         string(p.ContainerUOM),
		QuantityPerContainer: p.QuantityPerContainer,
		UnitUOM:              string(p.UnitUOM),
		UnitQuantity:         p.UnitQuantity,
		QuantityOnHand:       onHand,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		Version:              p.Version,
	}
}

package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/shared"
	csvimport "github.com/clinicledger/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// MaxImportRows bounds one product import file.
	MaxImportRows = 1000
	maxImportErrs = 100
)

// ProductImportResult reports the outcome of a product import. Nothing is
// created when any row fails validation or any product fails to save.
type ProductImportResult struct {
	TotalRows   int                  `json:"totalRows"`
	Created     int                  `json:"created"`
	Errors      []csvimport.RowError `json:"errors,omitempty"`
	TotalErrors int                  `json:"totalErrors,omitempty"`
	Truncated   bool                 `json:"truncated,omitempty"`
}

func productImportRules() []csvimport.FieldRule {
	types := []string{
		string(catalog.ProductTypeMedication), string(catalog.ProductTypeImmunization),
		string(catalog.ProductTypeGeneral), string(catalog.ProductTypeCustom),
	}
	units := make([]string, 0, len(catalog.UnitOptions()))
	for _, u := range catalog.UnitOptions() {
		units = append(units, string(u.Value))
	}
	positive := decimal.NewFromFloat(0.01)

	return []csvimport.FieldRule{
		csvimport.Field("name").Required().MaxLength(200).Build(),
		csvimport.Field("description").MaxLength(2000).Build(),
		csvimport.Field("code").MaxLength(50).Build(),
		csvimport.Field("sku").MaxLength(100).Unique().Build(),
		csvimport.Field("barcode").MaxLength(100).Build(),
		csvimport.Field("type").OneOf(types...).Build(),
		csvimport.Field("price").Decimal().Min(decimal.Zero).Build(),
		csvimport.Field("cost").Decimal().Min(decimal.Zero).Build(),
		csvimport.Field("package_uom").OneOf(units...).Build(),
		csvimport.Field("container_uom").OneOf(units...).Build(),
		csvimport.Field("quantity_per_container").Decimal().Min(positive).Build(),
		csvimport.Field("unit_uom").OneOf(units...).Build(),
		csvimport.Field("unit_quantity").Decimal().Min(positive).Build(),
	}
}

// Import creates products from a CSV file with a header row. Column names
// follow productImportRules; only name is required.
func (s *ProductService) Import(ctx context.Context, tenantID uuid.UUID, r io.Reader) (*ProductImportResult, error) {
	parser, err := csvimport.NewParser(r)
	if err != nil {
		return nil, shared.InvalidInput(err.Error())
	}
	if missing := parser.MissingHeaders("name"); len(missing) > 0 {
		return nil, shared.InvalidInput("Missing required columns " + csvimport.ColumnList(missing))
	}
	rows, err := parser.ReadAll(MaxImportRows)
	if err != nil {
		return nil, shared.InvalidInput(err.Error())
	}
	if len(rows) == 0 {
		return nil, shared.InvalidInput("CSV file contains no data rows")
	}

	errs := csvimport.NewErrorCollection(maxImportErrs)
	validator := csvimport.NewValidator(productImportRules(), errs)
	products := make([]*catalog.Product, 0, len(rows))
	skuLines := map[string]int{}
	for _, row := range rows {
		if !validator.ValidateRow(row) {
			continue
		}
		product, err := catalog.NewProduct(tenantID, specFromRow(row))
		if err != nil {
			errs.Addf(row.Line, "", csvimport.CodeInvalidRow, "", "%s", err.Error())
			continue
		}
		if product.SKU != "" {
			skuLines[strings.ToLower(product.SKU)] = row.Line
		}
		products = append(products, product)
	}

	if err := s.rejectExistingSKUs(ctx, tenantID, skuLines, errs); err != nil {
		return nil, err
	}

	result := &ProductImportResult{TotalRows: len(rows)}
	if errs.HasErrors() {
		result.Errors = errs.Errors()
		result.TotalErrors = errs.Total()
		result.Truncated = errs.Truncated()
		return result, nil
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, product := range products {
			if err := repos.ProductRepo().Save(ctx, product); err != nil {
				return fmt.Errorf("save imported product %q: %w", product.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Created = len(products)
	for _, product := range products {
		s.publish(ctx, product)
	}

	s.logger.Info("Products imported",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("created", result.Created),
	)
	return result, nil
}

func (s *ProductService) rejectExistingSKUs(ctx context.Context, tenantID uuid.UUID, skuLines map[string]int, errs *csvimport.ErrorCollection) error {
	if len(skuLines) == 0 {
		return nil
	}
	skus := make([]string, 0, len(skuLines))
	for sku := range skuLines {
		skus = append(skus, sku)
	}
	existing, err := s.productRepo.FindAll(ctx, tenantID, shared.Filter{
		Filters: map[string]any{"skus": skus},
	})
	if err != nil {
		return err
	}
	for _, p := range existing {
		if line, ok := skuLines[strings.ToLower(p.SKU)]; ok {
			errs.Addf(line, "sku", csvimport.CodeDuplicateInDB, p.SKU, "a product with this SKU already exists")
		}
	}
	return nil
}

func specFromRow(row *csvimport.Row) catalog.ProductSpec {
	return catalog.ProductSpec{
		Name:                 row.Get("name"),
		Description:          row.Get("description"),
		Code:                 row.Get("code"),
		SKU:                  row.Get("sku"),
		ManufacturerBarcode:  row.Get("barcode"),
		Type:                 catalog.ProductType(strings.ToUpper(row.Get("type"))),
		Price:                csvimport.DecimalOrZero(row.Get("price")),
		Cost:                 csvimport.DecimalOrZero(row.Get("cost")),
		PackageUOM:           catalog.UnitOfMeasure(strings.ToUpper(row.Get("package_uom"))),
		ContainerUOM:         catalog.UnitOfMeasure(strings.ToUpper(row.Get("container_uom"))),
		QuantityPerContainer: csvimport.DecimalOrZero(row.Get("quantity_per_container")),
		UnitUOM:              catalog.UnitOfMeasure(strings.ToUpper(row.Get("unit_uom"))),
		UnitQuantity:         csvimport.DecimalOrZero(row.Get("unit_quantity")),
	}
}

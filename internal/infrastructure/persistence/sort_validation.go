package persistence

import (
	"strings"

	"github.com/clinicledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns fallback when the input is empty or invalid.
func ValidateSortOrder(orderDir, fallback string) string {
	switch strings.ToUpper(strings.TrimSpace(orderDir)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	return fallback
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// sortSpec is a whitelist plus the default ordering of one list endpoint.
type sortSpec struct {
	allowed    map[string]bool
	defaultBy  string
	defaultDir string
}

// apply adds ORDER BY, OFFSET and LIMIT for filter. The column is qualified
// with table so joined queries stay unambiguous.
func (s sortSpec) apply(query *gorm.DB, table string, filter shared.Filter) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, s.allowed, s.defaultBy)
	dir := s.defaultDir
	if field == filter.OrderBy || filter.OrderBy == "" {
		dir = ValidateSortOrder(filter.OrderDir, s.defaultDir)
	}
	query = query.Order(table + "." + field + " " + dir)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

var (
	productSort = sortSpec{
		allowed:    map[string]bool{"name": true, "sku": true, "price": true, "created_at": true, "updated_at": true},
		defaultBy:  "updated_at",
		defaultDir: "DESC",
	}
	vendorSort = sortSpec{
		allowed:    map[string]bool{"name": true, "email": true, "created_at": true},
		defaultBy:  "name",
		defaultDir: "ASC",
	}
	patientSort = sortSpec{
		allowed:    map[string]bool{"last_name": true, "first_name": true, "date_of_birth": true, "created_at": true},
		defaultBy:  "last_name",
		defaultDir: "ASC",
	}
	inventorySort = sortSpec{
		allowed:    map[string]bool{"created_at": true, "expiration_date": true, "quantity_on_hand": true, "lot_number": true},
		defaultBy:  "created_at",
		defaultDir: "DESC",
	}
	transactionSort = sortSpec{
		allowed:    map[string]bool{"transaction_date": true, "created_at": true},
		defaultBy:  "transaction_date",
		defaultDir: "DESC",
	}
	transferSort = sortSpec{
		allowed:    map[string]bool{"transferred_at": true, "quantity": true},
		defaultBy:  "transferred_at",
		defaultDir: "DESC",
	}
	dispenseSort = sortSpec{
		allowed:    map[string]bool{"dispensed_at": true, "quantity": true},
		defaultBy:  "dispensed_at",
		defaultDir: "DESC",
	}
	invoiceSort = sortSpec{
		allowed:    map[string]bool{"invoice_number": true, "created_at": true, "posted_at": true, "total": true},
		defaultBy:  "invoice_number",
		defaultDir: "DESC",
	}
	purchaseOrderSort = sortSpec{
		allowed:    map[string]bool{"order_number": true, "created_at": true, "posted_at": true, "total": true},
		defaultBy:  "order_number",
		defaultDir: "DESC",
	}
	tierSort = sortSpec{
		allowed:    map[string]bool{"created_at": true, "name": true, "price": true},
		defaultBy:  "created_at",
		defaultDir: "DESC",
	}
)

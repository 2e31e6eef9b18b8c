// Package tenant scopes GORM queries to one organization.
//
// Repositories apply Scope explicitly. The callbacks registered by
// EnableAutoTenantFilter add the same condition from the request context
// when a query on a tenant-owned table forgot it.
package tenant

import (
	"context"
	"errors"

	"github.com/clinicledger/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Column is the tenant key on every tenant-owned table.
const Column = "tenant_id"

// ErrTenantIDRequired is returned when tenant_id is required but not found
var ErrTenantIDRequired = errors.New("tenant_id is required but not found in context")

// ErrInvalidTenantID is returned when tenant_id format is invalid
var ErrInvalidTenantID = errors.New("invalid tenant_id format")

// Scope restricts a query to tenantID.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: Column},
			Value:  tenantID,
		})
	}
}

// FromContext returns the tenant carried by the request context.
func FromContext(ctx context.Context) (uuid.UUID, error) {
	raw := logger.TenantID(ctx)
	if raw == "" {
		return uuid.Nil, ErrTenantIDRequired
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidTenantID
	}
	return id, nil
}

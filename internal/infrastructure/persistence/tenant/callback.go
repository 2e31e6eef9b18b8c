package tenant

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Callback adds the request tenant to queries, updates and deletes on
// tenant-owned tables that carry no tenant condition of their own.
type Callback struct {
	required bool
}

// NewCallback creates a Callback. When required is true, a statement on a
// tenant-owned table fails if the context carries no tenant.
func NewCallback(required bool) *Callback {
	return &Callback{required: required}
}

// Register installs the callbacks on db.
func (c *Callback) Register(db *gorm.DB) {
	_ = db.Callback().Query().Before("gorm:query").Register("tenant:before_query", c.addTenantFilter)
	_ = db.Callback().Update().Before("gorm:update").Register("tenant:before_update", c.addTenantFilter)
	_ = db.Callback().Delete().Before("gorm:delete").Register("tenant:before_delete", c.addTenantFilter)
	_ = db.Callback().Row().Before("gorm:row").Register("tenant:before_row", c.addTenantFilter)
}

func (c *Callback) addTenantFilter(db *gorm.DB) {
	stmt := db.Statement
	if stmt.Context == nil || stmt.Unscoped {
		return
	}
	// organizations and other global tables have no tenant column
	if stmt.Schema == nil || stmt.Schema.LookUpField(Column) == nil {
		return
	}
	if c.hasTenantCondition(stmt) {
		return
	}

	tenantID, err := FromContext(stmt.Context)
	if err != nil {
		if err == ErrInvalidTenantID || c.required {
			_ = db.AddError(err)
		}
		return
	}

	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: Column}, Value: tenantID},
	}})
}

func (c *Callback) hasTenantCondition(stmt *gorm.Statement) bool {
	if where, ok := stmt.Clauses["WHERE"]; ok {
		if w, ok := where.Expression.(clause.Where); ok {
			for _, expr := range w.Exprs {
				if exprMentionsTenant(expr) {
					return true
				}
			}
		}
	}
	return strings.Contains(stmt.SQL.String(), Column)
}

func exprMentionsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == Column
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == Column
		}
	case clause.Expr:
		return strings.Contains(e.SQL, Column)
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if exprMentionsTenant(cond) {
				return true
			}
		}
	case clause.OrConditions:
		for _, cond := range e.Exprs {
			if exprMentionsTenant(cond) {
				return true
			}
		}
	}
	return false
}

// EnableAutoTenantFilter registers the tenant callbacks on db.
func EnableAutoTenantFilter(db *gorm.DB, required bool) {
	NewCallback(required).Register(db)
}

// DisableAutoTenantFilter removes the tenant callbacks. Used by tests and
// maintenance commands.
func DisableAutoTenantFilter(db *gorm.DB) {
	_ = db.Callback().Query().Remove("tenant:before_query")
	_ = db.Callback().Update().Remove("tenant:before_update")
	_ = db.Callback().Delete().Remove("tenant:before_delete")
	_ = db.Callback().Row().Remove("tenant:before_row")
}

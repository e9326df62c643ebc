// Package tenant scopes GORM queries to one school.
//
// Every billing table carries a tenant_id column. Repositories receive the
// tenant explicitly from the request context and apply it with Scope:
//
//	db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Find(&invoices)
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a query is scoped to the nil tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Column is the tenant column shared by all billing tables
const Column = "tenant_id"

// Scope restricts a query to rows of one tenant. A nil tenant poisons the
// statement so it fails instead of reading every school's rows.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(Column+" = ?", tenantID)
	}
}

package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/synexa/sis/internal/domain/shared"
)

// Role is the caller's school role as issued by the identity service
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSecretaria Role = "SECRETARIA"
	RoleFinanceiro Role = "FINANCEIRO"
	RoleDiretor    Role = "DIRETOR"
	RoleProfessor  Role = "PROFESSOR"
)

// ParseRole normalises a role claim
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// Role groups used by the billing core
var (
	BillingManagerRoles = []Role{RoleAdmin, RoleSecretaria, RoleFinanceiro}
	BillingReaderRoles  = []Role{RoleAdmin, RoleSecretaria, RoleFinanceiro, RoleDiretor}
	ReportReaderRoles   = []Role{RoleAdmin, RoleDiretor, RoleFinanceiro}
)

// RoleStrings converts a role group for middleware that works on claim strings
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// RequestContext is the request-scoped state handed to the billing core:
// who is calling, for which school, and what "now" is. Services never read
// the wall clock or any global user state.
type RequestContext struct {
	TenantID     uuid.UUID
	UserID       uuid.UUID
	Role         Role
	Now          time.Time
	AcademicYear string
}

// HasAnyRole reports whether the caller holds one of roles
func (rc RequestContext) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if rc.Role == r {
			return true
		}
	}
	return false
}

// Require fails with FORBIDDEN unless the caller holds one of roles
func (rc RequestContext) Require(roles ...Role) error {
	if rc.HasAnyRole(roles...) {
		return nil
	}
	return shared.ErrForbidden.WithDetail("role", string(rc.Role))
}

package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agricoop/magasin-service/internal/domain"
	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
)

var (
	// AdminRoles may manage users and magasins.
	AdminRoles = []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin}
	// StockRoles may record admissions, withdrawals and transfers.
	StockRoles = []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin, domain.RoleStock}
	// AuditRoles may read summaries and movement journals.
	AuditRoles = []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin, domain.RoleAuditor}
)

// RequireRole ensures the principal set by Handle has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := roleSet(allowed)

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication failed: "+ErrMissingToken.Error(), ErrMissingToken)
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden(ErrInsufficientRole.Error(), ErrInsufficientRole)
		}
		return c.Next()
	}
}

package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/agricoop/magasin-service/internal/domain"
	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
)

const (
	// ClaimsKey holds the verified Claims in fiber locals.
	ClaimsKey    = "user"
	principalKey = "auth_principal"
	bearerPrefix = "Bearer "
)

// Principal is the typed view of the verified claims.
type Principal struct {
	UserID    int64
	Username  string
	Role      domain.Role
	MagasinID *int64
}

// CanActOn reports whether the principal may operate on the given magasin.
func (p *Principal) CanActOn(magasinID int64) bool {
	if p.Role.IsAdmin() {
		return true
	}
	return p.MagasinID != nil && *p.MagasinID == magasinID
}

// PrincipalClaims builds the claims issued at login for user.
func PrincipalClaims(user *domain.User) Claims {
	claims := Claims{
		"id":       user.ID,
		"username": user.Username,
		"role":     string(user.Role),
	}
	if user.MagasinID != nil {
		claims["magasin_id"] = *user.MagasinID
	}
	return claims
}

// AuthMiddleware gates handlers behind token verification.
type AuthMiddleware struct {
	tokens *TokenManager
	handle fiber.Handler
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	m := &AuthMiddleware{tokens: tokens}
	m.handle = m.Wrap(func(c *fiber.Ctx) error { return c.Next() })
	return m
}

// Wrap returns a handler that runs handler only for a valid, unexpired token
// whose role is one of roles (any role when roles is empty). Failures are
// returned as 401 or 403 domain errors and handler is never invoked.
func (m *AuthMiddleware) Wrap(handler fiber.Handler, roles ...domain.Role) fiber.Handler {
	allowed := roleSet(roles)

	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), bearerPrefix)
		if !ok {
			token = ""
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			return apperrors.NewUnauthorized("authentication failed: "+reason(err), err)
		}
		if _, purpose := claims["action"]; purpose {
			return apperrors.NewUnauthorized("authentication failed: purpose token", ErrMalformedToken)
		}

		principal := principalFromClaims(claims)
		if len(allowed) > 0 {
			if _, ok := allowed[principal.Role]; !ok {
				return apperrors.NewForbidden(ErrInsufficientRole.Error(), ErrInsufficientRole)
			}
		}

		c.Locals(ClaimsKey, claims)
		c.Locals(principalKey, principal)
		return handler(c)
	}
}

// Handle enforces authentication for route groups.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	return m.handle(c)
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil
}

// ClaimsFromContext retrieves the raw verified claims.
func ClaimsFromContext(c *fiber.Ctx) (Claims, bool) {
	claims, ok := c.Locals(ClaimsKey).(Claims)
	return claims, ok
}

func principalFromClaims(claims Claims) *Principal {
	p := &Principal{
		Username: claims.String("username"),
		Role:     domain.Role(claims.String("role")),
	}
	p.UserID, _ = claims.Int64("id")
	if id, ok := claims.Int64("magasin_id"); ok {
		p.MagasinID = &id
	}
	return p
}

func reason(err error) string {
	for _, known := range []error{ErrMissingToken, ErrExpiredToken, ErrInvalidSignature, ErrMalformedToken} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func roleSet(roles []domain.Role) map[domain.Role]struct{} {
	set := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

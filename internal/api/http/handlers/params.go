package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/agricoop/magasin-service/internal/auth"
	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
)

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: c.Params(name)})
	}
	return id, nil
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	return c.QueryInt("limit", 0), c.QueryInt("offset", 0)
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication failed: "+auth.ErrMissingToken.Error(), auth.ErrMissingToken)
	}
	return p, nil
}

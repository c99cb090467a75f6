package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/agricoop/magasin-service/internal/api/dto"
	"github.com/agricoop/magasin-service/internal/service"
	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
)

// MagasinHandler manages store endpoints.
type MagasinHandler struct {
	service *service.MagasinService
}

// NewMagasinHandler constructs handler.
func NewMagasinHandler(magasinService *service.MagasinService) *MagasinHandler {
	return &MagasinHandler{service: magasinService}
}

// Create POST /magasins.
func (h *MagasinHandler) Create(c *fiber.Ctx) error {
	var req dto.MagasinRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	magasin, err := h.service.Create(c.UserContext(), magasinInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMagasinResponse(magasin)})
}

// Update PUT /magasins/:id.
func (h *MagasinHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.MagasinRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	magasin, err := h.service.Update(c.UserContext(), id, magasinInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMagasinResponse(magasin)})
}

// List GET /magasins. ?all=true includes inactive stores.
func (h *MagasinHandler) List(c *fiber.Ctx) error {
	magasins, err := h.service.List(c.UserContext(), c.QueryBool("all", false))
	if err != nil {
		return err
	}
	items := make([]dto.MagasinResponse, 0, len(magasins))
	for i := range magasins {
		items = append(items, dto.NewMagasinResponse(&magasins[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func magasinInput(req dto.MagasinRequest) service.MagasinInput {
	return service.MagasinInput{
		Code:     req.Code,
		Name:     req.Name,
		Region:   req.Region,
		Capacity: req.Capacity,
		Active:   req.Active,
	}
}

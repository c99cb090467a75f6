package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/agricoop/magasin-service/internal/api/dto"
	"github.com/agricoop/magasin-service/internal/domain"
	"github.com/agricoop/magasin-service/internal/service"
	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
)

// StockHandler exposes lot movements and store reporting.
type StockHandler struct {
	service *service.StockService
}

// NewStockHandler constructs handler.
func NewStockHandler(stockService *service.StockService) *StockHandler {
	return &StockHandler{service: stockService}
}

// Admit POST /magasins/:id/lots.
func (h *StockHandler) Admit(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	magasinID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AdmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	lot, err := h.service.Admit(c.UserContext(), p, magasinID, service.AdmissionInput{
		ProducerName: req.ProducerName,
		Product:      req.Product,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		Quality:      domain.Quality(req.Quality),
		Note:         req.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewLotResponse(lot)})
}

// Withdraw POST /lots/:id/withdrawals.
func (h *StockHandler) Withdraw(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	lotID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.WithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	lot, err := h.service.Withdraw(c.UserContext(), p, lotID, service.WithdrawalInput{Quantity: req.Quantity, Note: req.Note})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLotResponse(lot)})
}

// Transfer POST /lots/:id/transfers.
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	lotID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DestinationMagasinID <= 0 {
		return apperrors.NewValidationError("destination_magasin_id required", nil)
	}

	transfer, err := h.service.Transfer(c.UserContext(), p, lotID, service.TransferInput{
		DestinationMagasinID: req.DestinationMagasinID,
		Quantity:             req.Quantity,
		Note:                 req.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TransferResponse{
		Source:      dto.NewLotResponse(&transfer.Source),
		Destination: dto.NewLotResponse(&transfer.Destination),
		Quantity:    transfer.Quantity,
	}})
}

// ListLots GET /magasins/:id/lots.
func (h *StockHandler) ListLots(c *fiber.Ctx) error {
	magasinID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	lots, err := h.service.ListLots(c.UserContext(), magasinID, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.LotResponse, 0, len(lots))
	for i := range lots {
		items = append(items, dto.NewLotResponse(&lots[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListMovements GET /magasins/:id/movements.
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	magasinID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	movements, err := h.service.ListMovements(c.UserContext(), magasinID, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, dto.NewMovementResponse(&movements[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Summary GET /magasins/:id/summary.
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	magasinID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	summary, err := h.service.Summary(c.UserContext(), magasinID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSummaryResponse(summary)})
}

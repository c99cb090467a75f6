package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/agricoop/magasin-service/internal/auth"
	"github.com/agricoop/magasin-service/internal/domain"
	"github.com/agricoop/magasin-service/internal/events"
	"github.com/agricoop/magasin-service/internal/repository"
	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
)

var errOutsideAffiliation = apperrors.NewForbidden("magasin outside your affiliation", auth.ErrInsufficientRole)

// StockService records admissions, withdrawals and transfers of lots.
type StockService struct {
	lots       repository.LotRepository
	magasins   repository.MagasinRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// StockDependencies bundles collaborators for the stock service.
type StockDependencies struct {
	LotRepo     repository.LotRepository
	MagasinRepo repository.MagasinRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// AdmissionInput describes goods deposited by a producer.
type AdmissionInput struct {
	ProducerName string
	Product      string
	Unit         string
	Quantity     float64
	UnitPrice    float64
	Quality      domain.Quality
	Note         string
}

// WithdrawalInput describes goods leaving a magasin.
type WithdrawalInput struct {
	Quantity float64
	Note     string
}

// TransferInput describes goods moving to another magasin.
type TransferInput struct {
	DestinationMagasinID int64
	Quantity             float64
	Note                 string
}

// NewStockService constructs the service.
func NewStockService(deps StockDependencies) *StockService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		lots:       deps.LotRepo,
		magasins:   deps.MagasinRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Admit records a new lot in magasinID.
func (s *StockService) Admit(ctx context.Context, actor *auth.Principal, magasinID int64, input AdmissionInput) (*domain.Lot, error) {
	if err := validateAdmission(&input); err != nil {
		return nil, err
	}
	if !actor.CanActOn(magasinID) {
		return nil, errOutsideAffiliation
	}
	magasin, err := s.activeMagasin(ctx, magasinID)
	if err != nil {
		return nil, err
	}

	lot := &domain.Lot{
		Reference:    generateLotReference(magasin.Code),
		MagasinID:    magasinID,
		ProducerName: input.ProducerName,
		Product:      input.Product,
		Unit:         input.Unit,
		Quantity:     input.Quantity,
		UnitPrice:    input.UnitPrice,
		Quality:      input.Quality,
	}
	if err := s.lots.Admit(ctx, lot, repository.MovementInput{ActorID: actor.UserID, Note: input.Note}); err != nil {
		return nil, stockError(err, lot)
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventLotAdmitted,
		ActorID:   actor.UserID,
		MagasinID: magasinID,
		Payload: events.LotAdmittedPayload{
			LotID:     lot.ID,
			Reference: lot.Reference,
			Product:   lot.Product,
			Quantity:  lot.Quantity,
			Quality:   lot.Quality,
		},
	})
	return lot, nil
}

// Withdraw removes quantity from a lot.
func (s *StockService) Withdraw(ctx context.Context, actor *auth.Principal, lotID int64, input WithdrawalInput) (*domain.Lot, error) {
	if input.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity must be positive", nil)
	}
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		return nil, notFound(err, "lot")
	}
	if !actor.CanActOn(lot.MagasinID) {
		return nil, errOutsideAffiliation
	}

	updated, err := s.lots.Withdraw(ctx, lotID, input.Quantity, repository.MovementInput{ActorID: actor.UserID, Note: input.Note})
	if err != nil {
		return nil, stockError(err, lot)
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventLotWithdrawn,
		ActorID:   actor.UserID,
		MagasinID: updated.MagasinID,
		Payload: events.LotWithdrawnPayload{
			LotID:     updated.ID,
			Quantity:  input.Quantity,
			Remaining: updated.Quantity,
		},
	})
	return updated, nil
}

// Transfer moves quantity of a lot into a new lot at the destination magasin.
func (s *StockService) Transfer(ctx context.Context, actor *auth.Principal, lotID int64, input TransferInput) (*domain.Transfer, error) {
	if input.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity must be positive", nil)
	}
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		return nil, notFound(err, "lot")
	}
	if !actor.CanActOn(lot.MagasinID) {
		return nil, errOutsideAffiliation
	}
	if input.DestinationMagasinID == lot.MagasinID {
		return nil, apperrors.NewValidationError("destination must differ from source magasin", nil)
	}
	dest, err := s.activeMagasin(ctx, input.DestinationMagasinID)
	if err != nil {
		return nil, err
	}

	transfer, err := s.lots.Transfer(ctx, lotID, dest.ID, input.Quantity, generateLotReference(dest.Code),
		repository.MovementInput{ActorID: actor.UserID, Note: input.Note})
	if err != nil {
		return nil, stockError(err, lot)
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventLotTransferred,
		ActorID:   actor.UserID,
		MagasinID: lot.MagasinID,
		Payload: events.LotTransferredPayload{
			SourceLotID:        transfer.Source.ID,
			DestinationLotID:   transfer.Destination.ID,
			DestinationMagasin: dest.ID,
			Quantity:           transfer.Quantity,
		},
	})
	return transfer, nil
}

// ListLots returns lots with remaining stock in a magasin.
func (s *StockService) ListLots(ctx context.Context, magasinID int64, limit, offset int) ([]domain.Lot, error) {
	if _, err := s.magasin(ctx, magasinID); err != nil {
		return nil, err
	}
	return s.lots.ListByMagasin(ctx, magasinID, limit, offset)
}

// ListMovements returns the movement journal of a magasin, newest first.
func (s *StockService) ListMovements(ctx context.Context, magasinID int64, limit, offset int) ([]domain.Movement, error) {
	if _, err := s.magasin(ctx, magasinID); err != nil {
		return nil, err
	}
	return s.lots.ListMovements(ctx, magasinID, limit, offset)
}

// Summary returns the performance summary of a magasin.
func (s *StockService) Summary(ctx context.Context, magasinID int64) (*domain.MagasinSummary, error) {
	if _, err := s.magasin(ctx, magasinID); err != nil {
		return nil, err
	}
	return s.lots.Summary(ctx, magasinID)
}

func (s *StockService) magasin(ctx context.Context, id int64) (*domain.Magasin, error) {
	magasin, err := s.magasins.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "magasin")
	}
	return magasin, nil
}

func (s *StockService) activeMagasin(ctx context.Context, id int64) (*domain.Magasin, error) {
	magasin, err := s.magasin(ctx, id)
	if err != nil {
		return nil, err
	}
	if !magasin.Active {
		return nil, apperrors.NewValidationError("magasin inactive", map[string]any{"magasin_id": id})
	}
	return magasin, nil
}

func validateAdmission(input *AdmissionInput) error {
	input.ProducerName = strings.TrimSpace(input.ProducerName)
	input.Product = strings.TrimSpace(input.Product)
	input.Unit = strings.TrimSpace(input.Unit)
	if input.Unit == "" {
		input.Unit = "kg"
	}
	input.Quality = domain.Quality(strings.ToUpper(string(input.Quality)))

	switch {
	case input.ProducerName == "" || input.Product == "":
		return apperrors.NewValidationError("producer_name and product required", nil)
	case input.Quantity <= 0:
		return apperrors.NewValidationError("quantity must be positive", nil)
	case input.UnitPrice < 0:
		return apperrors.NewValidationError("unit_price must not be negative", nil)
	case !input.Quality.Valid():
		return apperrors.NewValidationError("quality must be A, B or C", nil)
	}
	return nil
}

func stockError(err error, lot *domain.Lot) error {
	var capacityErr *domain.CapacityError
	switch {
	case errors.As(err, &capacityErr):
		return apperrors.NewConflict(err.Error(), map[string]any{
			"magasin_id": capacityErr.MagasinID,
			"capacity":   capacityErr.Capacity,
			"available":  capacityErr.Available,
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		return apperrors.NewConflict(err.Error(), map[string]any{"lot_id": lot.ID})
	}
	return notFound(err, "lot")
}

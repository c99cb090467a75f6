package service

import (
	"context"
	"strings"

	"github.com/agricoop/magasin-service/internal/domain"
	"github.com/agricoop/magasin-service/internal/repository"
	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
)

// MagasinService manages stores.
type MagasinService struct {
	magasins repository.MagasinRepository
}

// MagasinInput describes create and update payloads.
type MagasinInput struct {
	Code     string
	Name     string
	Region   string
	Capacity float64
	Active   *bool
}

// NewMagasinService constructs the service.
func NewMagasinService(magasins repository.MagasinRepository) *MagasinService {
	return &MagasinService{magasins: magasins}
}

// Create registers a new active magasin.
func (s *MagasinService) Create(ctx context.Context, input MagasinInput) (*domain.Magasin, error) {
	magasin := &domain.Magasin{
		Code:     strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:     strings.TrimSpace(input.Name),
		Region:   strings.TrimSpace(input.Region),
		Capacity: input.Capacity,
		Active:   true,
	}
	if magasin.Code == "" || magasin.Name == "" {
		return nil, apperrors.NewValidationError("code and name required", nil)
	}
	if magasin.Capacity < 0 {
		return nil, apperrors.NewValidationError("capacity must not be negative", nil)
	}

	if err := s.magasins.Create(ctx, magasin); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("magasin code already used", map[string]any{"code": magasin.Code})
		}
		return nil, err
	}
	return magasin, nil
}

// Update changes name, region, capacity and active flag. The code is immutable.
func (s *MagasinService) Update(ctx context.Context, id int64, input MagasinInput) (*domain.Magasin, error) {
	magasin, err := s.magasins.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "magasin")
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		magasin.Name = name
	}
	if region := strings.TrimSpace(input.Region); region != "" {
		magasin.Region = region
	}
	if input.Capacity < 0 {
		return nil, apperrors.NewValidationError("capacity must not be negative", nil)
	}
	if input.Capacity > 0 {
		magasin.Capacity = input.Capacity
	}
	if input.Active != nil {
		magasin.Active = *input.Active
	}

	if err := s.magasins.Update(ctx, magasin); err != nil {
		return nil, notFound(err, "magasin")
	}
	return magasin, nil
}

// Get returns one magasin.
func (s *MagasinService) Get(ctx context.Context, id int64) (*domain.Magasin, error) {
	magasin, err := s.magasins.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "magasin")
	}
	return magasin, nil
}

// List returns magasins, active ones only unless includeInactive is set.
func (s *MagasinService) List(ctx context.Context, includeInactive bool) ([]domain.Magasin, error) {
	return s.magasins.List(ctx, !includeInactive)
}

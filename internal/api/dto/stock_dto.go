package dto

import (
	"time"

	"github.com/agricoop/magasin-service/internal/domain"
)

// MagasinRequest payload for creating or updating a magasin.
type MagasinRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Region   string  `json:"region"`
	Capacity float64 `json:"capacity"`
	Active   *bool   `json:"active"`
}

type MagasinResponse struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	Capacity  float64   `json:"capacity"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewMagasinResponse(m *domain.Magasin) MagasinResponse {
	return MagasinResponse{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		Region:    m.Region,
		Capacity:  m.Capacity,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// AdmissionRequest payload for POST /magasins/:id/lots.
type AdmissionRequest struct {
	ProducerName string  `json:"producer_name"`
	Product      string  `json:"product"`
	Unit         string  `json:"unit"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Quality      string  `json:"quality"`
	Note         string  `json:"note"`
}

// WithdrawalRequest payload for POST /lots/:id/withdrawals.
type WithdrawalRequest struct {
	Quantity float64 `json:"quantity"`
	Note     string  `json:"note"`
}

// TransferRequest payload for POST /lots/:id/transfers.
type TransferRequest struct {
	DestinationMagasinID int64   `json:"destination_magasin_id"`
	Quantity             float64 `json:"quantity"`
	Note                 string  `json:"note"`
}

type LotResponse struct {
	ID           int64     `json:"id"`
	Reference    string    `json:"reference"`
	MagasinID    int64     `json:"magasin_id"`
	ProducerName string    `json:"producer_name"`
	Product      string    `json:"product"`
	Unit         string    `json:"unit"`
	Quantity     float64   `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	Value        float64   `json:"value"`
	Quality      string    `json:"quality"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewLotResponse(l *domain.Lot) LotResponse {
	return LotResponse{
		ID:           l.ID,
		Reference:    l.Reference,
		MagasinID:    l.MagasinID,
		ProducerName: l.ProducerName,
		Product:      l.Product,
		Unit:         l.Unit,
		Quantity:     l.Quantity,
		UnitPrice:    l.UnitPrice,
		Value:        l.Value(),
		Quality:      string(l.Quality),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// TransferResponse shows both sides of a transfer.
type TransferResponse struct {
	Source      LotResponse `json:"source"`
	Destination LotResponse `json:"destination"`
	Quantity    float64     `json:"quantity"`
}

type MovementResponse struct {
	ID        int64     `json:"id"`
	LotID     int64     `json:"lot_id"`
	MagasinID int64     `json:"magasin_id"`
	Kind      string    `json:"kind"`
	Quantity  float64   `json:"quantity"`
	ActorID   int64     `json:"actor_id"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMovementResponse(m *domain.Movement) MovementResponse {
	return MovementResponse{
		ID:        m.ID,
		LotID:     m.LotID,
		MagasinID: m.MagasinID,
		Kind:      string(m.Kind),
		Quantity:  m.Quantity,
		ActorID:   m.ActorID,
		Note:      m.Note,
		CreatedAt: m.CreatedAt,
	}
}

// SummaryResponse is the performance summary of a magasin.
type SummaryResponse struct {
	MagasinID      int64   `json:"magasin_id"`
	LotCount       int64   `json:"lot_count"`
	StockQuantity  float64 `json:"stock_quantity"`
	StockValue     float64 `json:"stock_value"`
	Admitted       float64 `json:"admitted"`
	Withdrawn      float64 `json:"withdrawn"`
	TransferredIn  float64 `json:"transferred_in"`
	TransferredOut float64 `json:"transferred_out"`
	AverageQuality string  `json:"average_quality,omitempty"`
}

func NewSummaryResponse(s *domain.MagasinSummary) SummaryResponse {
	return SummaryResponse{
		MagasinID:      s.MagasinID,
		LotCount:       s.LotCount,
		StockQuantity:  s.StockQuantity,
		StockValue:     s.StockValue,
		Admitted:       s.Admitted,
		Withdrawn:      s.Withdrawn,
		TransferredIn:  s.TransferredIn,
		TransferredOut: s.TransferredOut,
		AverageQuality: string(s.AverageQuality),
	}
}

package domain

import (
	"errors"
	"time"
)

// MovementKind enumerates stock movements recorded against a lot.
type MovementKind string

const (
	MovementAdmission   MovementKind = "ADMISSION"
	MovementWithdrawal  MovementKind = "WITHDRAWAL"
	MovementTransferOut MovementKind = "TRANSFER_OUT"
	MovementTransferIn  MovementKind = "TRANSFER_IN"
)

// Movement is an append-only stock journal entry.
type Movement struct {
	ID        int64
	LotID     int64
	MagasinID int64
	Kind      MovementKind
	Quantity  float64
	ActorID   int64
	Note      string
	CreatedAt time.Time
}

// Transfer is the outcome of moving quantity from one magasin to another.
type Transfer struct {
	Source      Lot
	Destination Lot
	Quantity    float64
}

// MagasinSummary aggregates stock and movement totals for auditors.
type MagasinSummary struct {
	MagasinID      int64
	LotCount       int64
	StockQuantity  float64
	StockValue     float64
	Admitted       float64
	Withdrawn      float64
	TransferredIn  float64
	TransferredOut float64
	AverageQuality Quality
}

// ErrInsufficientStock is returned when a lot holds less than the requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrCapacityExceeded is matched by CapacityError.
var ErrCapacityExceeded = errors.New("magasin capacity exceeded")

// CapacityError reports an admission or transfer that would overfill a magasin.
type CapacityError struct {
	MagasinID int64
	Capacity  float64
	Available float64
}

func (e *CapacityError) Error() string { return ErrCapacityExceeded.Error() }

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

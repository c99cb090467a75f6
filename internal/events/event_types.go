package events

import (
	"time"

	"github.com/agricoop/magasin-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventLotAdmitted    EventType = "lot_admitted"
	EventLotWithdrawn   EventType = "lot_withdrawn"
	EventLotTransferred EventType = "lot_transferred"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   int64       `json:"actor_id"`
	MagasinID int64       `json:"magasin_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload carries the confirmation token for the welcome email.
type UserRegisteredPayload struct {
	UserID            int64  `json:"user_id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	ConfirmationToken string `json:"-"`
}

// LotAdmittedPayload payload.
type LotAdmittedPayload struct {
	LotID     int64          `json:"lot_id"`
	Reference string         `json:"reference"`
	Product   string         `json:"product"`
	Quantity  float64        `json:"quantity"`
	Quality   domain.Quality `json:"quality"`
}

// LotWithdrawnPayload payload.
type LotWithdrawnPayload struct {
	LotID     int64   `json:"lot_id"`
	Quantity  float64 `json:"quantity"`
	Remaining float64 `json:"remaining"`
}

// LotTransferredPayload payload.
type LotTransferredPayload struct {
	SourceLotID        int64   `json:"source_lot_id"`
	DestinationLotID   int64   `json:"destination_lot_id"`
	DestinationMagasin int64   `json:"destination_magasin_id"`
	Quantity           float64 `json:"quantity"`
}

package domain

import "time"

// Magasin is a cooperative store where lots are deposited.
type Magasin struct {
	ID        int64
	Code      string
	Name      string
	Region    string
	Capacity  float64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

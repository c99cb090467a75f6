package domain

import (
	"math"
	"time"
)

// Quality is the grade assigned to a lot at admission.
type Quality string

const (
	QualityA Quality = "A"
	QualityB Quality = "B"
	QualityC Quality = "C"
)

// Valid reports whether q is a known grade.
func (q Quality) Valid() bool {
	return q == QualityA || q == QualityB || q == QualityC
}

// Score maps a grade to the numeric scale used for averaging.
func (q Quality) Score() float64 {
	switch q {
	case QualityA:
		return 3
	case QualityB:
		return 2
	case QualityC:
		return 1
	}
	return 0
}

// QualityFromScore rounds an averaged score back to the nearest grade.
func QualityFromScore(score float64) Quality {
	switch r := math.Round(score); {
	case r >= 3:
		return QualityA
	case r >= 2:
		return QualityB
	case r >= 1:
		return QualityC
	}
	return ""
}

// Lot is a quantity of one product deposited by a producer in a magasin.
type Lot struct {
	ID           int64
	Reference    string
	MagasinID    int64
	ProducerName string
	Product      string
	Unit         string
	Quantity     float64
	UnitPrice    float64
	Quality      Quality
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Value returns the current stock value of the lot.
func (l Lot) Value() float64 {
	return l.Quantity * l.UnitPrice
}

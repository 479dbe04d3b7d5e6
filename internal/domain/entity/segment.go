package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripSegment is one leg of a trip request
type TripSegment struct {
	ID            int64           `json:"id"`
	RequestID     int64           `json:"request_id"`
	Position      int             `json:"position"`
	TripDate      time.Time       `json:"trip_date"`
	TripType      TripType        `json:"trip_type,omitempty"`
	BaseDistance  decimal.Decimal `json:"base_distance"`
	ExtraDistance decimal.Decimal `json:"extra_distance"`
	FromAddress   string          `json:"from_address,omitempty"`
	ToAddress     string          `json:"to_address,omitempty"`
	Comments      string          `json:"comments,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TotalDistance is base plus additional distance
func (s *TripSegment) TotalDistance() decimal.Decimal {
	return s.BaseDistance.Add(s.ExtraDistance)
}

// Validate checks the fields the amount does not depend on.
// Distance checks belong to the rate resolver.
func (s *TripSegment) Validate() error {
	if s.TripDate.IsZero() {
		return NewValidationError("trip_date", "is required")
	}
	if !s.TripType.IsValid() {
		return NewValidationError("trip_type", "unknown trip type %q", s.TripType)
	}
	return nil
}

// FuelSegment is one fuel claim leg, measured by odometer readings
type FuelSegment struct {
	ID             int64           `json:"id"`
	RequestID      int64           `json:"request_id"`
	Position       int             `json:"position"`
	TripDate       time.Time       `json:"trip_date"`
	TripType       TripType        `json:"trip_type,omitempty"`
	OpeningReading int64           `json:"opening_reading"`
	ClosingReading int64           `json:"closing_reading"`
	MileageDelta   int64           `json:"mileage_delta"`
	FromAddress    string          `json:"from_address,omitempty"`
	ToAddress      string          `json:"to_address,omitempty"`
	Comments       string          `json:"comments,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DeriveMileage validates the readings and sets MileageDelta
func (s *FuelSegment) DeriveMileage() error {
	if s.ClosingReading <= s.OpeningReading {
		return NewValidationError("closing_reading",
			"closing reading %d must be greater than opening reading %d", s.ClosingReading, s.OpeningReading)
	}
	s.MileageDelta = s.ClosingReading - s.OpeningReading
	return nil
}

// Validate checks the fields the amount does not depend on
func (s *FuelSegment) Validate() error {
	if s.TripDate.IsZero() {
		return NewValidationError("trip_date", "is required")
	}
	if !s.TripType.IsValid() {
		return NewValidationError("trip_type", "unknown trip type %q", s.TripType)
	}
	if s.OpeningReading < 0 {
		return NewValidationError("opening_reading", "must not be negative")
	}
	return nil
}

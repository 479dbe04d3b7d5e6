package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

// ReimbursementRequest is a trip or fuel claim moving through the approval chain.
// CompanyID and VehicleType never change after creation.
type ReimbursementRequest struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Kind         RequestKind     `json:"kind"`
	DriverID     string          `json:"driver_id"`
	VehicleID    int64           `json:"vehicle_id"`
	VehicleType  VehicleType     `json:"vehicle_type"`
	CompanyID    int64           `json:"company_id"`
	Currency     string          `json:"currency"`
	RequestDate  time.Time       `json:"request_date"`
	LastOdometer decimal.Decimal `json:"last_odometer"`
	Note         string          `json:"note,omitempty"`
	State        workflow.State  `json:"state"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaymentID    *int64          `json:"payment_id,omitempty"`
	IsPaid       bool            `json:"is_paid"`
	TripSegments []*TripSegment  `json:"trip_segments,omitempty"`
	FuelSegments []*FuelSegment  `json:"fuel_segments,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Editable reports whether segments may still change
func (r *ReimbursementRequest) Editable() bool {
	return r.State.AllowsEditing()
}

// SegmentCount counts the segments of the active list
func (r *ReimbursementRequest) SegmentCount() int {
	if r.Kind == RequestKindFuel {
		return len(r.FuelSegments)
	}
	return len(r.TripSegments)
}

// RecomputeTotal sums the amounts of the active segment list into TotalAmount.
// Only the list matching Kind counts.
func (r *ReimbursementRequest) RecomputeTotal() decimal.Decimal {
	total := decimal.Zero
	switch r.Kind {
	case RequestKindTrip:
		for _, s := range r.TripSegments {
			total = total.Add(s.Amount)
		}
	case RequestKindFuel:
		for _, s := range r.FuelSegments {
			total = total.Add(s.Amount)
		}
	}
	r.TotalAmount = total
	return total
}

// LastClosingReading returns the closing reading of the last fuel segment
func (r *ReimbursementRequest) LastClosingReading() (int64, bool) {
	if len(r.FuelSegments) == 0 {
		return 0, false
	}
	return r.FuelSegments[len(r.FuelSegments)-1].ClosingReading, true
}

// RequestFilter narrows request listings
type RequestFilter struct {
	State     workflow.State
	CompanyID int64
	Limit     int
	Offset    int
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle is a fleet vehicle a reimbursement request is made for
type Vehicle struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	LicensePlate string          `json:"license_plate"`
	VIN          string          `json:"vin,omitempty"`
	VehicleType  VehicleType     `json:"vehicle_type"`
	Odometer     decimal.Decimal `json:"odometer"`
	OdometerUnit OdometerUnit    `json:"odometer_unit"`
	DriverID     string          `json:"driver_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

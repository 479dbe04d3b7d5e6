package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RateBand is one tier of a rate table
type RateBand struct {
	ID                  int64           `json:"id"`
	ConfigurationID     int64           `json:"configuration_id"`
	Kind                RequestKind     `json:"kind"`
	Sequence            int             `json:"sequence"`
	VehicleType         VehicleType     `json:"vehicle_type"`
	RangeDirection      RangeDirection  `json:"range_direction"`
	ThresholdDistance   decimal.Decimal `json:"threshold_distance"`
	PricingMode         PricingMode     `json:"pricing_mode"`
	FixedAmount         decimal.Decimal `json:"fixed_amount"`
	PercentageRate      decimal.Decimal `json:"percentage_rate"`
	DistancePerFuelUnit decimal.Decimal `json:"distance_per_fuel_unit"`
	Comment             string          `json:"comment,omitempty"`
}

// Validate checks a band against its kind
func (b *RateBand) Validate() error {
	if !b.Kind.IsValid() {
		return NewValidationError("kind", "unknown band kind %q", b.Kind)
	}
	if !b.VehicleType.IsValid() {
		return NewValidationError("vehicle_type", "unknown vehicle type %q", b.VehicleType)
	}
	if !b.RangeDirection.IsValid() {
		return NewValidationError("range_direction", "must be under or over, got %q", b.RangeDirection)
	}
	if !b.PricingMode.IsValid() {
		return NewValidationError("pricing_mode", "must be fixed or percentage, got %q", b.PricingMode)
	}
	if b.ThresholdDistance.IsNegative() {
		return NewValidationError("threshold_distance", "must not be negative")
	}
	if b.FixedAmount.IsNegative() {
		return NewValidationError("fixed_amount", "must not be negative")
	}
	if b.PercentageRate.IsNegative() || b.PercentageRate.GreaterThan(hundred) {
		return NewValidationError("percentage_rate", "must be between 0 and 100")
	}
	if b.Kind == RequestKindFuel && !b.DistancePerFuelUnit.IsPositive() {
		return NewValidationError("distance_per_fuel_unit", "must be greater than zero")
	}
	return nil
}

// RateConfiguration holds every band of one company. At most one exists per company.
type RateConfiguration struct {
	ID        int64      `json:"id"`
	CompanyID int64      `json:"company_id"`
	Name      string     `json:"name"`
	TripBands []RateBand `json:"trip_bands"`
	FuelBands []RateBand `json:"fuel_bands"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Normalize stamps kind and sequence on every band from its list and position,
// so configuration order becomes table order.
func (c *RateConfiguration) Normalize() {
	for i := range c.TripBands {
		c.TripBands[i].Kind = RequestKindTrip
		c.TripBands[i].Sequence = i + 1
		c.TripBands[i].ConfigurationID = c.ID
	}
	for i := range c.FuelBands {
		c.FuelBands[i].Kind = RequestKindFuel
		c.FuelBands[i].Sequence = i + 1
		c.FuelBands[i].ConfigurationID = c.ID
	}
}

// Validate checks every band
func (c *RateConfiguration) Validate() error {
	if c.CompanyID <= 0 {
		return NewValidationError("company_id", "must be positive")
	}
	for _, bands := range [][]RateBand{c.TripBands, c.FuelBands} {
		for i := range bands {
			if err := bands[i].Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Table returns the ordered bands for one vehicle type and kind
func (c *RateConfiguration) Table(kind RequestKind, vehicleType VehicleType) RateTable {
	source := c.TripBands
	if kind == RequestKindFuel {
		source = c.FuelBands
	}

	table := RateTable{CompanyID: c.CompanyID, Kind: kind, VehicleType: vehicleType}
	for _, b := range source {
		if b.VehicleType == vehicleType {
			table.Bands = append(table.Bands, b)
		}
	}
	return table
}

// RateTable is the ordered set of bands for one (company, kind, vehicle type)
type RateTable struct {
	CompanyID   int64       `json:"company_id"`
	Kind        RequestKind `json:"kind"`
	VehicleType VehicleType `json:"vehicle_type"`
	Bands       []RateBand  `json:"bands"`
}

// Package rating resolves reimbursement amounts from tiered rate bands.
package rating

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// BandSource returns the ordered bands of one rate table
type BandSource interface {
	Bands(ctx context.Context, companyID int64, kind entity.RequestKind, vehicleType entity.VehicleType) ([]entity.RateBand, error)
}

// Result is the outcome of one resolution.
// BandIndex is -1 and Band nil when no band matched; Amount is then zero.
type Result struct {
	Amount    decimal.Decimal
	Matched   bool
	BandIndex int
	Band      *entity.RateBand
}

func noMatch() Result {
	return Result{Amount: decimal.Zero, BandIndex: -1}
}

// Matches reports whether metric falls on the band's side of its threshold
func Matches(band entity.RateBand, metric decimal.Decimal) bool {
	switch band.RangeDirection {
	case entity.RangeUnder:
		return metric.LessThanOrEqual(band.ThresholdDistance)
	case entity.RangeOver:
		return metric.GreaterThanOrEqual(band.ThresholdDistance)
	}
	return false
}

// TripAmount scans bands in order; the first match prices total.
func TripAmount(bands []entity.RateBand, total decimal.Decimal) Result {
	for i, band := range bands {
		if !Matches(band, total) {
			continue
		}
		amount := band.FixedAmount
		if band.PricingMode == entity.PricingPercentage {
			amount = band.PercentageRate.Mul(total).Div(hundred)
		}
		return Result{Amount: amount, Matched: true, BandIndex: i, Band: &bands[i]}
	}
	return noMatch()
}

// FuelAmount scans bands in order; the first match prices delta.
// Every pricing mode uses (delta / distancePerFuelUnit) * fixedAmount.
func FuelAmount(bands []entity.RateBand, delta decimal.Decimal) (Result, error) {
	for i, band := range bands {
		if !Matches(band, delta) {
			continue
		}
		if !band.DistancePerFuelUnit.IsPositive() {
			return Result{}, entity.NewValidationError("distance_per_fuel_unit",
				"band %d has non-positive distance per fuel unit", band.Sequence)
		}
		amount := delta.Div(band.DistancePerFuelUnit).Mul(band.FixedAmount)
		return Result{Amount: amount, Matched: true, BandIndex: i, Band: &bands[i]}, nil
	}
	return noMatch(), nil
}

// Resolver looks up rate tables and applies the band scan
type Resolver struct {
	source BandSource
}

// NewResolver creates a resolver reading bands from source
func NewResolver(source BandSource) *Resolver {
	return &Resolver{source: source}
}

// ResolveTripAmount prices a trip leg of base+extra distance
func (r *Resolver) ResolveTripAmount(ctx context.Context, vehicleType entity.VehicleType, companyID int64, base, extra decimal.Decimal) (Result, error) {
	if !base.IsPositive() {
		return Result{}, entity.NewValidationError("base_distance", "a trip segment requires a positive distance")
	}
	if extra.IsNegative() {
		return Result{}, entity.NewValidationError("extra_distance", "must not be negative")
	}

	bands, err := r.lookup(ctx, companyID, entity.RequestKindTrip, vehicleType)
	if err != nil {
		return Result{}, err
	}
	return TripAmount(bands, base.Add(extra)), nil
}

// ResolveFuelAmount prices a fuel leg of the given mileage delta
func (r *Resolver) ResolveFuelAmount(ctx context.Context, vehicleType entity.VehicleType, companyID int64, mileageDelta decimal.Decimal) (Result, error) {
	if !mileageDelta.IsPositive() {
		return Result{}, entity.NewValidationError("mileage_delta", "must be greater than zero")
	}

	bands, err := r.lookup(ctx, companyID, entity.RequestKindFuel, vehicleType)
	if err != nil {
		return Result{}, err
	}
	return FuelAmount(bands, mileageDelta)
}

// Snapshot loads a table once so many segments can be priced against the same bands
func (r *Resolver) Snapshot(ctx context.Context, companyID int64, kind entity.RequestKind, vehicleType entity.VehicleType) ([]entity.RateBand, error) {
	return r.lookup(ctx, companyID, kind, vehicleType)
}

func (r *Resolver) lookup(ctx context.Context, companyID int64, kind entity.RequestKind, vehicleType entity.VehicleType) ([]entity.RateBand, error) {
	if !vehicleType.IsValid() {
		return nil, entity.NewValidationError("vehicle_type", "unknown vehicle type %q", vehicleType)
	}
	bands, err := r.source.Bands(ctx, companyID, kind, vehicleType)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s rate table: %w", kind, err)
	}
	if len(bands) == 0 {
		return nil, &entity.ConfigurationMissingError{CompanyID: companyID, Kind: kind, VehicleType: vehicleType}
	}
	return bands, nil
}

// RoundAmount rounds a resolved amount for storage on a segment
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

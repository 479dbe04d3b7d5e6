package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/pkg/utils"
)

// VehicleService manages the fleet registry
type VehicleService interface {
	Register(ctx context.Context, vehicle *entity.Vehicle) (*entity.Vehicle, error)
	Get(ctx context.Context, id int64) (*entity.Vehicle, error)
	List(ctx context.Context, vehicleType entity.VehicleType) ([]*entity.Vehicle, error)
	UpdateOdometer(ctx context.Context, id int64, odometer decimal.Decimal) error
}

type vehicleServiceImpl struct {
	repo   port.VehicleRepository
	logger Logger
}

// NewVehicleService creates a new VehicleService
func NewVehicleService(repo port.VehicleRepository, logger Logger) VehicleService {
	return &vehicleServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

// Register validates and stores a vehicle
func (s *vehicleServiceImpl) Register(ctx context.Context, vehicle *entity.Vehicle) (*entity.Vehicle, error) {
	vehicle.Name = utils.SanitizeString(vehicle.Name)
	vehicle.LicensePlate = strings.ToUpper(utils.SanitizeString(vehicle.LicensePlate))
	vehicle.VIN = strings.ToUpper(utils.SanitizeString(vehicle.VIN))
	vehicle.DriverID = utils.SanitizeString(vehicle.DriverID)

	if vehicle.Name == "" {
		return nil, entity.NewValidationError("name", "is required")
	}
	if err := utils.ValidateLicensePlate(vehicle.LicensePlate); err != nil {
		return nil, entity.NewValidationError("license_plate", "%v", err)
	}
	if err := utils.ValidateVIN(vehicle.VIN); err != nil {
		return nil, entity.NewValidationError("vin", "%v", err)
	}
	if !vehicle.VehicleType.IsValid() {
		return nil, entity.NewValidationError("vehicle_type", "unknown vehicle type %q", vehicle.VehicleType)
	}
	if vehicle.Odometer.IsNegative() {
		return nil, entity.NewValidationError("odometer", "must not be negative")
	}
	switch vehicle.OdometerUnit {
	case "":
		vehicle.OdometerUnit = entity.OdometerKilometers
	case entity.OdometerKilometers, entity.OdometerMiles:
	default:
		return nil, entity.NewValidationError("odometer_unit", "must be kilometers or miles")
	}

	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	if err := s.repo.Create(ctx, vehicle); err != nil {
		s.logger.Error("Failed to register vehicle", "error", err, "license_plate", vehicle.LicensePlate)
		return nil, err
	}

	s.logger.Info("Vehicle registered", "id", vehicle.ID, "license_plate", vehicle.LicensePlate, "type", vehicle.VehicleType)
	return vehicle, nil
}

// Get retrieves a vehicle by ID
func (s *vehicleServiceImpl) Get(ctx context.Context, id int64) (*entity.Vehicle, error) {
	vehicle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get vehicle", "error", err, "id", id)
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %d", entity.ErrNotFound, id)
	}
	return vehicle, nil
}

// List returns all vehicles, or only those of one type when vehicleType is set
func (s *vehicleServiceImpl) List(ctx context.Context, vehicleType entity.VehicleType) ([]*entity.Vehicle, error) {
	if vehicleType != "" && !vehicleType.IsValid() {
		return nil, entity.NewValidationError("vehicle_type", "unknown vehicle type %q", vehicleType)
	}
	return s.repo.List(ctx, vehicleType)
}

// UpdateOdometer records a new odometer value
func (s *vehicleServiceImpl) UpdateOdometer(ctx context.Context, id int64, odometer decimal.Decimal) error {
	if odometer.IsNegative() {
		return entity.NewValidationError("odometer", "must not be negative")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateOdometer(ctx, id, odometer); err != nil {
		s.logger.Error("Failed to update odometer", "error", err, "id", id)
		return err
	}
	s.logger.Info("Odometer updated", "vehicle_id", id, "odometer", odometer.String())
	return nil
}

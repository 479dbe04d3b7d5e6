package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/persistence/sqlite"
)

// VehicleRepository implements port.VehicleRepository
type VehicleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *sql.DB, logger *zap.Logger) port.VehicleRepository {
	return &VehicleRepository{
		db:     db,
		logger: logger,
	}
}

// Create registers a vehicle
func (r *VehicleRepository) Create(ctx context.Context, vehicle *entity.Vehicle) error {
	query := `
		INSERT INTO vehicles (
			name, license_plate, vin, vehicle_type, odometer, odometer_unit,
			driver_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		vehicle.Name,
		vehicle.LicensePlate,
		vehicle.VIN,
		vehicle.VehicleType,
		vehicle.Odometer,
		vehicle.OdometerUnit,
		vehicle.DriverID,
		vehicle.CreatedAt,
		vehicle.UpdatedAt,
	)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return entity.NewValidationError("license_plate", "%s is already registered", vehicle.LicensePlate)
		}
		r.logger.Error("Failed to create vehicle", zap.Error(err))
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	vehicle.ID = id
	return nil
}

// GetByID retrieves a vehicle by ID
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*entity.Vehicle, error) {
	query := `
		SELECT id, name, license_plate, vin, vehicle_type, odometer, odometer_unit,
			driver_id, created_at, updated_at
		FROM vehicles
		WHERE id = ?
	`

	vehicle, err := scanVehicle(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get vehicle by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return vehicle, nil
}

// List returns vehicles ordered by ID, optionally of one type
func (r *VehicleRepository) List(ctx context.Context, vehicleType entity.VehicleType) ([]*entity.Vehicle, error) {
	query := `
		SELECT id, name, license_plate, vin, vehicle_type, odometer, odometer_unit,
			driver_id, created_at, updated_at
		FROM vehicles
		WHERE (? = '' OR vehicle_type = ?)
		ORDER BY id
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, vehicleType, vehicleType)
	if err != nil {
		r.logger.Error("Failed to list vehicles", zap.Error(err))
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*entity.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, rows.Err()
}

// UpdateOdometer sets the current odometer value
func (r *VehicleRepository) UpdateOdometer(ctx context.Context, id int64, odometer decimal.Decimal) error {
	query := `UPDATE vehicles SET odometer = ?, updated_at = ? WHERE id = ?`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, odometer, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update odometer", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update odometer: %w", err)
	}
	return requireAffected(result, "vehicle", id)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVehicle(row rowScanner) (*entity.Vehicle, error) {
	var v entity.Vehicle
	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.LicensePlate,
		&v.VIN,
		&v.VehicleType,
		&v.Odometer,
		&v.OdometerUnit,
		&v.DriverID,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// requireAffected turns a zero-row update into entity.ErrNotFound
func requireAffected(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", entity.ErrNotFound, what, id)
	}
	return nil
}

// Verify interface compliance
var _ port.VehicleRepository = (*VehicleRepository)(nil)

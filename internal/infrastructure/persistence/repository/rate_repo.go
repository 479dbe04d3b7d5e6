package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/persistence/sqlite"
)

const bandColumns = `
	b.id, b.configuration_id, b.kind, b.sequence, b.vehicle_type, b.range_direction,
	b.threshold_distance, b.pricing_mode, b.fixed_amount, b.percentage_rate,
	b.distance_per_fuel_unit, b.comment`

// RateConfigurationRepository implements port.RateConfigurationRepository
type RateConfigurationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRateConfigurationRepository creates a new rate configuration repository
func NewRateConfigurationRepository(db *sql.DB, logger *zap.Logger) port.RateConfigurationRepository {
	return &RateConfigurationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the configuration row and all its bands.
// Run it inside a transaction so a failed band insert leaves nothing behind.
func (r *RateConfigurationRepository) Create(ctx context.Context, cfg *entity.RateConfiguration) error {
	now := time.Now()
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO rate_configurations (company_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, cfg.CompanyID, cfg.Name, now, now)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return fmt.Errorf("%w: company %d", entity.ErrConfigurationExists, cfg.CompanyID)
		}
		r.logger.Error("Failed to create rate configuration", zap.Int64("company_id", cfg.CompanyID), zap.Error(err))
		return fmt.Errorf("failed to create rate configuration: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	cfg.ID = id
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	return r.insertBands(ctx, cfg)
}

// GetByCompanyID loads a configuration with its bands in table order
func (r *RateConfigurationRepository) GetByCompanyID(ctx context.Context, companyID int64) (*entity.RateConfiguration, error) {
	var cfg entity.RateConfiguration
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, company_id, name, created_at, updated_at
		FROM rate_configurations
		WHERE company_id = ?
	`, companyID).Scan(&cfg.ID, &cfg.CompanyID, &cfg.Name, &cfg.CreatedAt, &cfg.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get rate configuration", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to get rate configuration: %w", err)
	}

	bands, err := r.queryBands(ctx, `
		SELECT `+bandColumns+`
		FROM rate_bands b
		WHERE b.configuration_id = ?
		ORDER BY b.kind, b.sequence
	`, cfg.ID)
	if err != nil {
		return nil, err
	}

	for _, b := range bands {
		if b.Kind == entity.RequestKindFuel {
			cfg.FuelBands = append(cfg.FuelBands, b)
		} else {
			cfg.TripBands = append(cfg.TripBands, b)
		}
	}
	return &cfg, nil
}

// ReplaceBands deletes every band of the configuration and inserts cfg's bands
func (r *RateConfigurationRepository) ReplaceBands(ctx context.Context, cfg *entity.RateConfiguration) error {
	exec := sqlite.GetExecutor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM rate_bands WHERE configuration_id = ?`, cfg.ID); err != nil {
		r.logger.Error("Failed to delete rate bands", zap.Int64("configuration_id", cfg.ID), zap.Error(err))
		return fmt.Errorf("failed to delete rate bands: %w", err)
	}

	cfg.UpdatedAt = time.Now()
	if _, err := exec.ExecContext(ctx, `
		UPDATE rate_configurations SET updated_at = ? WHERE id = ?
	`, cfg.UpdatedAt, cfg.ID); err != nil {
		return fmt.Errorf("failed to touch rate configuration: %w", err)
	}

	return r.insertBands(ctx, cfg)
}

// ListBands returns the bands of one rate table ordered by sequence
func (r *RateConfigurationRepository) ListBands(ctx context.Context, companyID int64, kind entity.RequestKind, vehicleType entity.VehicleType) ([]entity.RateBand, error) {
	return r.queryBands(ctx, `
		SELECT `+bandColumns+`
		FROM rate_bands b
		JOIN rate_configurations c ON c.id = b.configuration_id
		WHERE c.company_id = ? AND b.kind = ? AND b.vehicle_type = ?
		ORDER BY b.sequence
	`, companyID, kind, vehicleType)
}

func (r *RateConfigurationRepository) insertBands(ctx context.Context, cfg *entity.RateConfiguration) error {
	exec := sqlite.GetExecutor(ctx, r.db)
	query := `
		INSERT INTO rate_bands (
			configuration_id, kind, sequence, vehicle_type, range_direction,
			threshold_distance, pricing_mode, fixed_amount, percentage_rate,
			distance_per_fuel_unit, comment
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, bands := range []*[]entity.RateBand{&cfg.TripBands, &cfg.FuelBands} {
		for i := range *bands {
			b := &(*bands)[i]
			b.ConfigurationID = cfg.ID

			result, err := exec.ExecContext(ctx, query,
				b.ConfigurationID,
				b.Kind,
				b.Sequence,
				b.VehicleType,
				b.RangeDirection,
				b.ThresholdDistance,
				b.PricingMode,
				b.FixedAmount,
				b.PercentageRate,
				b.DistancePerFuelUnit,
				b.Comment,
			)
			if err != nil {
				r.logger.Error("Failed to insert rate band", zap.Int64("configuration_id", cfg.ID), zap.Error(err))
				return fmt.Errorf("failed to insert rate band: %w", err)
			}
			if b.ID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get last insert id: %w", err)
			}
		}
	}
	return nil
}

func (r *RateConfigurationRepository) queryBands(ctx context.Context, query string, args ...interface{}) ([]entity.RateBand, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query rate bands", zap.Error(err))
		return nil, fmt.Errorf("failed to query rate bands: %w", err)
	}
	defer rows.Close()

	var bands []entity.RateBand
	for rows.Next() {
		var b entity.RateBand
		err := rows.Scan(
			&b.ID,
			&b.ConfigurationID,
			&b.Kind,
			&b.Sequence,
			&b.VehicleType,
			&b.RangeDirection,
			&b.ThresholdDistance,
			&b.PricingMode,
			&b.FixedAmount,
			&b.PercentageRate,
			&b.DistancePerFuelUnit,
			&b.Comment,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rate band: %w", err)
		}
		bands = append(bands, b)
	}

	return bands, rows.Err()
}

// Verify interface compliance
var _ port.RateConfigurationRepository = (*RateConfigurationRepository)(nil)

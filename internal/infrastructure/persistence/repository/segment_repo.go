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

const (
	tripColumns = `
		id, request_id, position, trip_date, trip_type, base_distance, extra_distance,
		from_address, to_address, comments, amount, created_at, updated_at`

	fuelColumns = `
		id, request_id, position, trip_date, trip_type, opening_reading, closing_reading,
		mileage_delta, from_address, to_address, comments, amount, created_at, updated_at`
)

// SegmentRepository implements port.SegmentRepository
type SegmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db *sql.DB, logger *zap.Logger) port.SegmentRepository {
	return &SegmentRepository{
		db:     db,
		logger: logger,
	}
}

// CreateTrip inserts a trip segment
func (r *SegmentRepository) CreateTrip(ctx context.Context, seg *entity.TripSegment) error {
	query := `
		INSERT INTO trip_segments (
			request_id, position, trip_date, trip_type, base_distance, extra_distance,
			from_address, to_address, comments, amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		seg.RequestID,
		seg.Position,
		seg.TripDate,
		seg.TripType,
		seg.BaseDistance,
		seg.ExtraDistance,
		seg.FromAddress,
		seg.ToAddress,
		seg.Comments,
		seg.Amount,
		now,
		now,
	)
	if err != nil {
		if sqlite.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: request %d", entity.ErrNotFound, seg.RequestID)
		}
		r.logger.Error("Failed to create trip segment", zap.Int64("request_id", seg.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create trip segment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	seg.ID = id
	seg.CreatedAt = now
	seg.UpdatedAt = now
	return nil
}

// GetTrip retrieves a trip segment by ID
func (r *SegmentRepository) GetTrip(ctx context.Context, id int64) (*entity.TripSegment, error) {
	query := `SELECT ` + tripColumns + ` FROM trip_segments WHERE id = ?`

	seg, err := scanTrip(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip segment: %w", err)
	}
	return seg, nil
}

// ListTrips returns the trip segments of a request in entry order
func (r *SegmentRepository) ListTrips(ctx context.Context, requestID int64) ([]*entity.TripSegment, error) {
	query := `SELECT ` + tripColumns + ` FROM trip_segments WHERE request_id = ? ORDER BY position, id`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list trip segments", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list trip segments: %w", err)
	}
	defer rows.Close()

	var segments []*entity.TripSegment
	for rows.Next() {
		seg, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip segment: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// UpdateTrip rewrites the editable fields and the stored amount
func (r *SegmentRepository) UpdateTrip(ctx context.Context, seg *entity.TripSegment) error {
	query := `
		UPDATE trip_segments
		SET trip_date = ?, trip_type = ?, base_distance = ?, extra_distance = ?,
			from_address = ?, to_address = ?, comments = ?, amount = ?, updated_at = ?
		WHERE id = ?
	`

	seg.UpdatedAt = time.Now()
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		seg.TripDate,
		seg.TripType,
		seg.BaseDistance,
		seg.ExtraDistance,
		seg.FromAddress,
		seg.ToAddress,
		seg.Comments,
		seg.Amount,
		seg.UpdatedAt,
		seg.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update trip segment", zap.Int64("id", seg.ID), zap.Error(err))
		return fmt.Errorf("failed to update trip segment: %w", err)
	}
	return requireAffected(result, "trip segment", seg.ID)
}

// DeleteTrip removes a trip segment
func (r *SegmentRepository) DeleteTrip(ctx context.Context, id int64) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM trip_segments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip segment: %w", err)
	}
	return requireAffected(result, "trip segment", id)
}

// CreateFuel inserts a fuel segment
func (r *SegmentRepository) CreateFuel(ctx context.Context, seg *entity.FuelSegment) error {
	query := `
		INSERT INTO fuel_segments (
			request_id, position, trip_date, trip_type, opening_reading, closing_reading,
			mileage_delta, from_address, to_address, comments, amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		seg.RequestID,
		seg.Position,
		seg.TripDate,
		seg.TripType,
		seg.OpeningReading,
		seg.ClosingReading,
		seg.MileageDelta,
		seg.FromAddress,
		seg.ToAddress,
		seg.Comments,
		seg.Amount,
		now,
		now,
	)
	if err != nil {
		if sqlite.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: request %d", entity.ErrNotFound, seg.RequestID)
		}
		r.logger.Error("Failed to create fuel segment", zap.Int64("request_id", seg.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create fuel segment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	seg.ID = id
	seg.CreatedAt = now
	seg.UpdatedAt = now
	return nil
}

// GetFuel retrieves a fuel segment by ID
func (r *SegmentRepository) GetFuel(ctx context.Context, id int64) (*entity.FuelSegment, error) {
	query := `SELECT ` + fuelColumns + ` FROM fuel_segments WHERE id = ?`

	seg, err := scanFuel(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fuel segment: %w", err)
	}
	return seg, nil
}

// ListFuel returns the fuel segments of a request in entry order
func (r *SegmentRepository) ListFuel(ctx context.Context, requestID int64) ([]*entity.FuelSegment, error) {
	query := `SELECT ` + fuelColumns + ` FROM fuel_segments WHERE request_id = ? ORDER BY position, id`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list fuel segments", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list fuel segments: %w", err)
	}
	defer rows.Close()

	var segments []*entity.FuelSegment
	for rows.Next() {
		seg, err := scanFuel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fuel segment: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// UpdateFuel rewrites the editable fields and the stored amount
func (r *SegmentRepository) UpdateFuel(ctx context.Context, seg *entity.FuelSegment) error {
	query := `
		UPDATE fuel_segments
		SET trip_date = ?, trip_type = ?, opening_reading = ?, closing_reading = ?, mileage_delta = ?,
			from_address = ?, to_address = ?, comments = ?, amount = ?, updated_at = ?
		WHERE id = ?
	`

	seg.UpdatedAt = time.Now()
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		seg.TripDate,
		seg.TripType,
		seg.OpeningReading,
		seg.ClosingReading,
		seg.MileageDelta,
		seg.FromAddress,
		seg.ToAddress,
		seg.Comments,
		seg.Amount,
		seg.UpdatedAt,
		seg.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update fuel segment", zap.Int64("id", seg.ID), zap.Error(err))
		return fmt.Errorf("failed to update fuel segment: %w", err)
	}
	return requireAffected(result, "fuel segment", seg.ID)
}

// DeleteFuel removes a fuel segment
func (r *SegmentRepository) DeleteFuel(ctx context.Context, id int64) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM fuel_segments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fuel segment: %w", err)
	}
	return requireAffected(result, "fuel segment", id)
}

func scanTrip(row rowScanner) (*entity.TripSegment, error) {
	var seg entity.TripSegment
	err := row.Scan(
		&seg.ID,
		&seg.RequestID,
		&seg.Position,
		&seg.TripDate,
		&seg.TripType,
		&seg.BaseDistance,
		&seg.ExtraDistance,
		&seg.FromAddress,
		&seg.ToAddress,
		&seg.Comments,
		&seg.Amount,
		&seg.CreatedAt,
		&seg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

func scanFuel(row rowScanner) (*entity.FuelSegment, error) {
	var seg entity.FuelSegment
	err := row.Scan(
		&seg.ID,
		&seg.RequestID,
		&seg.Position,
		&seg.TripDate,
		&seg.TripType,
		&seg.OpeningReading,
		&seg.ClosingReading,
		&seg.MileageDelta,
		&seg.FromAddress,
		&seg.ToAddress,
		&seg.Comments,
		&seg.Amount,
		&seg.CreatedAt,
		&seg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

// Verify interface compliance
var _ port.SegmentRepository = (*SegmentRepository)(nil)

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
	"github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/persistence/sqlite"
)

const requestColumns = `
	id, name, kind, driver_id, vehicle_id, vehicle_type, company_id, currency,
	request_date, last_odometer, note, state, total_amount, payment_id, is_paid,
	created_at, updated_at`

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a request header
func (r *RequestRepository) Create(ctx context.Context, req *entity.ReimbursementRequest) error {
	query := `
		INSERT INTO reimbursement_requests (
			name, kind, driver_id, vehicle_id, vehicle_type, company_id, currency,
			request_date, last_odometer, note, state, total_amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		req.Name,
		req.Kind,
		req.DriverID,
		req.VehicleID,
		req.VehicleType,
		req.CompanyID,
		req.Currency,
		req.RequestDate,
		req.LastOdometer,
		req.Note,
		req.State,
		req.TotalAmount,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		if sqlite.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: vehicle %d", entity.ErrNotFound, req.VehicleID)
		}
		r.logger.Error("Failed to create request", zap.String("name", req.Name), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// GetByID retrieves a request header by ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.ReimbursementRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM reimbursement_requests WHERE id = ?`

	req, err := scanRequest(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// List returns request headers, newest first
func (r *RequestRepository) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.ReimbursementRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM reimbursement_requests
		WHERE (? = '' OR state = ?)
			AND (? = 0 OR company_id = ?)
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query,
		filter.State, filter.State,
		filter.CompanyID, filter.CompanyID,
		filter.Limit, filter.Offset,
	)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ReimbursementRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// UpdateState updates the approval state
func (r *RequestRepository) UpdateState(ctx context.Context, id int64, state workflow.State) error {
	query := `UPDATE reimbursement_requests SET state = ?, updated_at = ? WHERE id = ?`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, state, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update request state", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update request state: %w", err)
	}
	return requireAffected(result, "request", id)
}

// UpdateTotal stores a recomputed total
func (r *RequestRepository) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	query := `UPDATE reimbursement_requests SET total_amount = ?, updated_at = ? WHERE id = ?`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, total, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update request total", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update request total: %w", err)
	}
	return requireAffected(result, "request", id)
}

// MarkPaid links the generated payment
func (r *RequestRepository) MarkPaid(ctx context.Context, id int64, paymentID int64) error {
	query := `UPDATE reimbursement_requests SET payment_id = ?, is_paid = 1, updated_at = ? WHERE id = ?`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, paymentID, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to mark request paid", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark request paid: %w", err)
	}
	return requireAffected(result, "request", id)
}

func scanRequest(row rowScanner) (*entity.ReimbursementRequest, error) {
	var req entity.ReimbursementRequest
	var paymentID sql.NullInt64

	err := row.Scan(
		&req.ID,
		&req.Name,
		&req.Kind,
		&req.DriverID,
		&req.VehicleID,
		&req.VehicleType,
		&req.CompanyID,
		&req.Currency,
		&req.RequestDate,
		&req.LastOdometer,
		&req.Note,
		&req.State,
		&req.TotalAmount,
		&paymentID,
		&req.IsPaid,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paymentID.Valid {
		req.PaymentID = &paymentID.Int64
	}
	return &req, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)

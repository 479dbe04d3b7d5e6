package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/persistence/sqlite"
)

const paymentColumns = `
	id, reference, request_id, payment_type, partner_type, partner_name, employee_id,
	amount, currency, journal, payment_date, communication, state, created_at`

// PaymentRepository implements port.PaymentRepository
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a draft payment
func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (
			reference, request_id, payment_type, partner_type, partner_name, employee_id,
			amount, currency, journal, payment_date, communication, state, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		payment.Reference,
		payment.RequestID,
		payment.PaymentType,
		payment.PartnerType,
		payment.PartnerName,
		payment.EmployeeID,
		payment.Amount,
		payment.Currency,
		payment.Journal,
		payment.PaymentDate,
		payment.Communication,
		payment.State,
		payment.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment",
			zap.Int64("request_id", payment.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	payment.ID = id
	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
}

// GetByRequestID retrieves the payment generated for a request
func (r *PaymentRepository) GetByRequestID(ctx context.Context, requestID int64) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE request_id = ?`, requestID)
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, arg int64) (*entity.Payment, error) {
	var p entity.Payment
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&p.ID,
		&p.Reference,
		&p.RequestID,
		&p.PaymentType,
		&p.PartnerType,
		&p.PartnerName,
		&p.EmployeeID,
		&p.Amount,
		&p.Currency,
		&p.Journal,
		&p.PaymentDate,
		&p.Communication,
		&p.State,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get payment", zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// Verify interface compliance
var _ port.PaymentRepository = (*PaymentRepository)(nil)

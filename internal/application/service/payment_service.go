package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
)

// PaymentConfig holds the accounting defaults of generated payments
type PaymentConfig struct {
	PartnerName string
	Journal     string
}

// PaymentService hands confirmed requests to accounting as draft outbound payments
type PaymentService interface {
	// CreateForRequest creates the draft payment of a request and marks the request paid.
	// Call it inside the transaction that confirms the request.
	CreateForRequest(ctx context.Context, req *entity.ReimbursementRequest) (*entity.Payment, error)
	GetByRequest(ctx context.Context, requestID int64) (*entity.Payment, error)
}

type paymentServiceImpl struct {
	paymentRepo port.PaymentRepository
	requestRepo port.RequestRepository
	config      PaymentConfig
	logger      Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo port.PaymentRepository,
	requestRepo port.RequestRepository,
	config PaymentConfig,
	logger Logger,
) PaymentService {
	if config.PartnerName == "" {
		config.PartnerName = "Fleet Expenses"
	}
	return &paymentServiceImpl{
		paymentRepo: paymentRepo,
		requestRepo: requestRepo,
		config:      config,
		logger:      logger,
	}
}

// CreateForRequest creates the draft payment of a request
func (s *paymentServiceImpl) CreateForRequest(ctx context.Context, req *entity.ReimbursementRequest) (*entity.Payment, error) {
	if req.TotalAmount.IsZero() {
		return nil, entity.NewValidationError("total_amount", "payment amount of %s must not be zero", req.Name)
	}
	if req.PaymentID != nil {
		return nil, fmt.Errorf("request %s already has payment %d", req.Name, *req.PaymentID)
	}

	now := time.Now()
	payment := &entity.Payment{
		Reference:     uuid.New().String(),
		RequestID:     req.ID,
		PaymentType:   entity.PaymentTypeOutbound,
		PartnerType:   entity.PartnerTypeSupplier,
		PartnerName:   s.config.PartnerName,
		EmployeeID:    req.DriverID,
		Amount:        req.TotalAmount,
		Currency:      req.Currency,
		Journal:       s.config.Journal,
		PaymentDate:   now,
		Communication: req.Name,
		State:         entity.PaymentStateDraft,
		CreatedAt:     now,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if err := s.requestRepo.MarkPaid(ctx, req.ID, payment.ID); err != nil {
		return nil, fmt.Errorf("mark request paid: %w", err)
	}

	req.PaymentID = &payment.ID
	req.IsPaid = true

	s.logger.Info("Draft payment created",
		"request_id", req.ID, "payment_id", payment.ID, "reference", payment.Reference, "amount", payment.Amount.String())
	return payment, nil
}

// GetByRequest returns the payment created for a request
func (s *paymentServiceImpl) GetByRequest(ctx context.Context, requestID int64) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to get payment", "error", err, "request_id", requestID)
		return nil, err
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: payment for request %d", entity.ErrNotFound, requestID)
	}
	return payment, nil
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

func TestPaymentService_CreateForRequest(t *testing.T) {
	ctx := context.Background()

	newRequest := func(total int64) *entity.ReimbursementRequest {
		return &entity.ReimbursementRequest{
			ID:          5,
			Name:        "TRIP/00005",
			DriverID:    "driver-1",
			Currency:    "IDR",
			State:       workflow.StateConfirmed,
			TotalAmount: decimal.NewFromInt(total),
		}
	}

	t.Run("creates draft outbound payment", func(t *testing.T) {
		req := newRequest(120)
		requests := newMockRequestRepo(newRequest(120))
		payments := &mockPaymentRepo{}
		svc := NewPaymentService(payments, requests, PaymentConfig{Journal: "BANK"}, &mockLogger{})

		p, err := svc.CreateForRequest(ctx, req)
		require.NoError(t, err)

		_, parseErr := uuid.Parse(p.Reference)
		assert.NoError(t, parseErr)
		assert.Equal(t, entity.PaymentTypeOutbound, p.PaymentType)
		assert.Equal(t, entity.PartnerTypeSupplier, p.PartnerType)
		assert.Equal(t, "Fleet Expenses", p.PartnerName)
		assert.Equal(t, "driver-1", p.EmployeeID)
		assert.Equal(t, "TRIP/00005", p.Communication)
		assert.Equal(t, "BANK", p.Journal)
		assert.Equal(t, entity.PaymentStateDraft, p.State)
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(120)))

		require.NotNil(t, req.PaymentID)
		assert.Equal(t, p.ID, *req.PaymentID)
		assert.True(t, requests.requests[5].IsPaid)
	})

	t.Run("refuses zero total", func(t *testing.T) {
		payments := &mockPaymentRepo{}
		svc := NewPaymentService(payments, newMockRequestRepo(newRequest(0)), PaymentConfig{}, &mockLogger{})

		_, err := svc.CreateForRequest(ctx, newRequest(0))
		assert.ErrorIs(t, err, entity.ErrValidation)
		assert.Empty(t, payments.payments)
	})

	t.Run("refuses second payment", func(t *testing.T) {
		req := newRequest(10)
		id := int64(3)
		req.PaymentID = &id
		svc := NewPaymentService(&mockPaymentRepo{}, newMockRequestRepo(newRequest(10)), PaymentConfig{}, &mockLogger{})

		_, err := svc.CreateForRequest(ctx, req)
		assert.Error(t, err)
	})
}

func TestPaymentService_GetByRequest(t *testing.T) {
	payments := &mockPaymentRepo{payments: []*entity.Payment{{ID: 1, RequestID: 5}}}
	svc := NewPaymentService(payments, newMockRequestRepo(), PaymentConfig{}, &mockLogger{})

	p, err := svc.GetByRequest(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	_, err = svc.GetByRequest(context.Background(), 6)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

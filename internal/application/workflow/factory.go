package workflow

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/application/service"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	domainwf "github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

// BuildRequestStateMachine creates the approval machine of a loaded request,
// with guards evaluated against its segments and total
func BuildRequestStateMachine(req *entity.ReimbursementRequest) domainwf.StateMachine {
	return domainwf.NewApprovalMachine(req.State, domainwf.ApprovalGuards{
		CanSubmit: func(ctx context.Context) bool {
			return req.Kind != entity.RequestKindFuel || len(req.FuelSegments) > 0
		},
		CanConfirm: func(ctx context.Context) bool {
			return !req.TotalAmount.IsZero()
		},
	})
}

// OdometerHook sets the vehicle odometer to the closing reading of the last fuel segment.
// Trip requests leave the odometer untouched.
func OdometerHook(vehicles port.VehicleRepository) Hook {
	return func(ctx context.Context, req *entity.ReimbursementRequest) error {
		if req.Kind != entity.RequestKindFuel {
			return nil
		}
		closing, ok := req.LastClosingReading()
		if !ok {
			return nil
		}
		if err := vehicles.UpdateOdometer(ctx, req.VehicleID, decimal.NewFromInt(closing)); err != nil {
			return fmt.Errorf("update odometer: %w", err)
		}
		return nil
	}
}

// PaymentHook creates the draft outbound payment of a confirmed request
func PaymentHook(payments service.PaymentService) Hook {
	return func(ctx context.Context, req *entity.ReimbursementRequest) error {
		_, err := payments.CreateForRequest(ctx, req)
		return err
	}
}

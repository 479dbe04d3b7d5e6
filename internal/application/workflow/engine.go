package workflow

import (
	"context"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	domainwf "github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

// WorkflowEngine moves reimbursement requests through the approval chain
type WorkflowEngine interface {
	// Transition fires trigger on a request, persisting the new state and a history row
	Transition(ctx context.Context, requestID int64, trigger domainwf.Trigger, actor, note string) (*entity.ReimbursementRequest, error)

	// PermittedTriggers returns the triggers configured for the request's current state
	PermittedTriggers(ctx context.Context, requestID int64) ([]domainwf.Trigger, error)
}

// Hook runs inside the transition transaction after the state changed.
// An error rolls the whole transition back.
type Hook func(ctx context.Context, req *entity.ReimbursementRequest) error

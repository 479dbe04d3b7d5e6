package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/application/service"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	domainwf "github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

// engineImpl is the concrete implementation of WorkflowEngine
type engineImpl struct {
	requestRepo port.RequestRepository
	segmentRepo port.SegmentRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	logger      service.Logger

	onEnter map[domainwf.State][]Hook
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithOnEnter registers a hook run when a request enters state
func WithOnEnter(state domainwf.State, hook Hook) EngineOption {
	return func(e *engineImpl) {
		e.onEnter[state] = append(e.onEnter[state], hook)
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	requestRepo port.RequestRepository,
	segmentRepo port.SegmentRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger service.Logger,
	opts ...EngineOption,
) WorkflowEngine {
	e := &engineImpl{
		requestRepo: requestRepo,
		segmentRepo: segmentRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		logger:      logger,
		onEnter:     make(map[domainwf.State][]Hook),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Transition fires trigger on a request.
// The state change, the history row and every on-enter hook commit together.
func (e *engineImpl) Transition(ctx context.Context, requestID int64, trigger domainwf.Trigger, actor, note string) (*entity.ReimbursementRequest, error) {
	var req *entity.ReimbursementRequest

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = e.load(txCtx, requestID)
		if err != nil {
			return err
		}

		step, err := BuildRequestStateMachine(req).Fire(txCtx, trigger)
		if err != nil {
			if errors.Is(err, domainwf.ErrGuardFailed) {
				return fmt.Errorf("%w: %s", err, guardReason(req, trigger))
			}
			return err
		}

		if err := e.requestRepo.UpdateState(txCtx, requestID, step.To); err != nil {
			return fmt.Errorf("failed to update request state: %w", err)
		}
		req.State = step.To

		history := &entity.RequestHistory{
			RequestID:     requestID,
			Actor:         actor,
			PreviousState: step.From,
			NewState:      step.To,
			Action:        step.Trigger.String(),
			Note:          note,
			CreatedAt:     time.Now(),
		}
		if err := e.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("failed to create history record: %w", err)
		}

		for _, hook := range e.onEnter[step.To] {
			if err := hook(txCtx, req); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Transition failed", "error", err, "request_id", requestID, "trigger", trigger)
		return nil, err
	}

	e.logger.Info("Request transitioned", "request_id", requestID, "trigger", trigger, "state", req.State, "actor", actor)
	return req, nil
}

// PermittedTriggers returns the triggers configured for the request's current state
func (e *engineImpl) PermittedTriggers(ctx context.Context, requestID int64) ([]domainwf.Trigger, error) {
	req, err := e.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return BuildRequestStateMachine(req).PermittedTriggers(), nil
}

func (e *engineImpl) load(ctx context.Context, requestID int64) (*entity.ReimbursementRequest, error) {
	req, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", entity.ErrNotFound, requestID)
	}
	if !req.State.IsValid() {
		return nil, fmt.Errorf("%w: %s", domainwf.ErrInvalidState, req.State)
	}

	switch req.Kind {
	case entity.RequestKindTrip:
		req.TripSegments, err = e.segmentRepo.ListTrips(ctx, requestID)
	case entity.RequestKindFuel:
		req.FuelSegments, err = e.segmentRepo.ListFuel(ctx, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}
	return req, nil
}

func guardReason(req *entity.ReimbursementRequest, trigger domainwf.Trigger) string {
	switch trigger {
	case domainwf.TriggerSubmit:
		return fmt.Sprintf("%s has no fuel segments", req.Name)
	case domainwf.TriggerConfirm:
		return fmt.Sprintf("payment amount of %s must not be zero", req.Name)
	}
	return string(trigger)
}

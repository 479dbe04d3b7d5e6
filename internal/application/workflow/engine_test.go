package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	domainwf "github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

// Mock implementations

type mockRequestRepo struct {
	requests  map[int64]*entity.ReimbursementRequest
	updateErr error
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.ReimbursementRequest) error {
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.ReimbursementRequest, error) {
	req, exists := m.requests[id]
	if !exists {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepo) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.ReimbursementRequest, error) {
	return nil, nil
}

func (m *mockRequestRepo) UpdateState(ctx context.Context, id int64, state domainwf.State) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.requests[id].State = state
	return nil
}

func (m *mockRequestRepo) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	m.requests[id].TotalAmount = total
	return nil
}

func (m *mockRequestRepo) MarkPaid(ctx context.Context, id int64, paymentID int64) error {
	m.requests[id].PaymentID = &paymentID
	m.requests[id].IsPaid = true
	return nil
}

type mockSegmentRepo struct {
	trips []*entity.TripSegment
	fuel  []*entity.FuelSegment
}

func (m *mockSegmentRepo) CreateTrip(ctx context.Context, seg *entity.TripSegment) error { return nil }
func (m *mockSegmentRepo) GetTrip(ctx context.Context, id int64) (*entity.TripSegment, error) {
	return nil, nil
}
func (m *mockSegmentRepo) ListTrips(ctx context.Context, requestID int64) ([]*entity.TripSegment, error) {
	return m.trips, nil
}
func (m *mockSegmentRepo) UpdateTrip(ctx context.Context, seg *entity.TripSegment) error { return nil }
func (m *mockSegmentRepo) DeleteTrip(ctx context.Context, id int64) error { return nil }
func (m *mockSegmentRepo) CreateFuel(ctx context.Context, seg *entity.FuelSegment) error { return nil }
func (m *mockSegmentRepo) GetFuel(ctx context.Context, id int64) (*entity.FuelSegment, error) {
	return nil, nil
}
func (m *mockSegmentRepo) ListFuel(ctx context.Context, requestID int64) ([]*entity.FuelSegment, error) {
	return m.fuel, nil
}
func (m *mockSegmentRepo) UpdateFuel(ctx context.Context, seg *entity.FuelSegment) error { return nil }
func (m *mockSegmentRepo) DeleteFuel(ctx context.Context, id int64) error { return nil }

type mockHistoryRepo struct {
	histories []*entity.RequestHistory
	createErr error
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.RequestHistory) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.histories = append(m.histories, history)
	return nil
}

func (m *mockHistoryRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.RequestHistory, error) {
	return m.histories, nil
}

type mockVehicleRepo struct {
	odometers map[int64]decimal.Decimal
}

func (m *mockVehicleRepo) Create(ctx context.Context, vehicle *entity.Vehicle) error { return nil }
func (m *mockVehicleRepo) GetByID(ctx context.Context, id int64) (*entity.Vehicle, error) {
	return nil, nil
}
func (m *mockVehicleRepo) List(ctx context.Context, vt entity.VehicleType) ([]*entity.Vehicle, error) {
	return nil, nil
}
func (m *mockVehicleRepo) UpdateOdometer(ctx context.Context, id int64, odometer decimal.Decimal) error {
	m.odometers[id] = odometer
	return nil
}

type mockPaymentService struct {
	created []*entity.ReimbursementRequest
	err     error
}

func (m *mockPaymentService) CreateForRequest(ctx context.Context, req *entity.ReimbursementRequest) (*entity.Payment, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, req)
	return &entity.Payment{ID: 1, RequestID: req.ID}, nil
}

func (m *mockPaymentService) GetByRequest(ctx context.Context, requestID int64) (*entity.Payment, error) {
	return nil, nil
}

// mockTxManager records whether the callback's error would have rolled back
type mockTxManager struct {
	rolledBack bool
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	m.rolledBack = err != nil
	return err
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type engineFixture struct {
	engine   WorkflowEngine
	requests *mockRequestRepo
	segments *mockSegmentRepo
	history  *mockHistoryRepo
	vehicles *mockVehicleRepo
	payments *mockPaymentService
	tx       *mockTxManager
}

func newEngineFixture(req *entity.ReimbursementRequest) *engineFixture {
	f := &engineFixture{
		requests: &mockRequestRepo{requests: map[int64]*entity.ReimbursementRequest{req.ID: req}},
		segments: &mockSegmentRepo{},
		history:  &mockHistoryRepo{},
		vehicles: &mockVehicleRepo{odometers: make(map[int64]decimal.Decimal)},
		payments: &mockPaymentService{},
		tx:       &mockTxManager{},
	}
	f.engine = NewEngine(f.requests, f.segments, f.history, f.tx, &mockLogger{},
		WithOnEnter(domainwf.StateSubmitted, OdometerHook(f.vehicles)),
		WithOnEnter(domainwf.StateConfirmed, PaymentHook(f.payments)),
	)
	return f
}

func TestEngine_FullApprovalChain(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(&entity.ReimbursementRequest{
		ID: 1, Name: "TRIP/00001", Kind: entity.RequestKindTrip, VehicleID: 3,
		State: domainwf.StateDraft, TotalAmount: decimal.NewFromInt(70),
	})

	steps := []struct {
		trigger       domainwf.Trigger
		expectedState domainwf.State
	}{
		{domainwf.TriggerSubmit, domainwf.StateSubmitted},
		{domainwf.TriggerFMApprove, domainwf.StateFMApproval},
		{domainwf.TriggerHRApprove, domainwf.StateHRApproval},
		{domainwf.TriggerConfirm, domainwf.StateConfirmed},
	}

	for i, step := range steps {
		req, err := f.engine.Transition(ctx, 1, step.trigger, "manager", "")
		if err != nil {
			t.Fatalf("Step %d: Transition(%v) failed: %v", i, step.trigger, err)
		}
		if req.State != step.expectedState {
			t.Errorf("Step %d: state = %v, want %v", i, req.State, step.expectedState)
		}
		if f.requests.requests[1].State != step.expectedState {
			t.Errorf("Step %d: stored state = %v, want %v", i, f.requests.requests[1].State, step.expectedState)
		}
	}

	if len(f.history.histories) != 4 {
		t.Fatalf("expected 4 history records, got %d", len(f.history.histories))
	}
	last := f.history.histories[3]
	if last.PreviousState != domainwf.StateHRApproval || last.NewState != domainwf.StateConfirmed || last.Action != "CONFIRM" {
		t.Errorf("unexpected last history record: %+v", last)
	}
	if len(f.payments.created) != 1 {
		t.Errorf("expected one payment, got %d", len(f.payments.created))
	}
	if len(f.vehicles.odometers) != 0 {
		t.Error("trip requests must not touch the odometer")
	}
}

func TestEngine_SubmitFuelUpdatesOdometer(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(&entity.ReimbursementRequest{
		ID: 2, Name: "FUEL/00001", Kind: entity.RequestKindFuel, VehicleID: 9, State: domainwf.StateDraft,
	})
	f.segments.fuel = []*entity.FuelSegment{
		{OpeningReading: 1000, ClosingReading: 1100},
		{OpeningReading: 1100, ClosingReading: 1250},
	}

	if _, err := f.engine.Transition(ctx, 2, domainwf.TriggerSubmit, "driver", ""); err != nil {
		t.Fatalf("Transition() failed: %v", err)
	}
	if got := f.vehicles.odometers[9]; !got.Equal(decimal.NewFromInt(1250)) {
		t.Errorf("odometer = %s, want 1250", got)
	}
}

func TestEngine_SubmitFuelWithoutSegments(t *testing.T) {
	f := newEngineFixture(&entity.ReimbursementRequest{
		ID: 2, Name: "FUEL/00001", Kind: entity.RequestKindFuel, State: domainwf.StateDraft,
	})

	_, err := f.engine.Transition(context.Background(), 2, domainwf.TriggerSubmit, "driver", "")
	if !errors.Is(err, domainwf.ErrGuardFailed) {
		t.Fatalf("error = %v, want %v", err, domainwf.ErrGuardFailed)
	}
	if f.requests.requests[2].State != domainwf.StateDraft {
		t.Errorf("state changed to %v", f.requests.requests[2].State)
	}
	if len(f.history.histories) != 0 {
		t.Error("no history must be written for a refused transition")
	}
}

func TestEngine_ConfirmZeroTotal(t *testing.T) {
	f := newEngineFixture(&entity.ReimbursementRequest{
		ID: 3, Name: "TRIP/00003", Kind: entity.RequestKindTrip, State: domainwf.StateHRApproval,
	})

	_, err := f.engine.Transition(context.Background(), 3, domainwf.TriggerConfirm, "hr", "")
	if !errors.Is(err, domainwf.ErrGuardFailed) {
		t.Fatalf("error = %v, want %v", err, domainwf.ErrGuardFailed)
	}
	if len(f.payments.created) != 0 {
		t.Error("no payment must be created for a zero total")
	}
}

func TestEngine_InvalidTransition(t *testing.T) {
	f := newEngineFixture(&entity.ReimbursementRequest{
		ID: 4, Kind: entity.RequestKindTrip, State: domainwf.StateDraft,
	})

	_, err := f.engine.Transition(context.Background(), 4, domainwf.TriggerConfirm, "hr", "")
	if !errors.Is(err, domainwf.ErrInvalidTransition) {
		t.Errorf("error = %v, want %v", err, domainwf.ErrInvalidTransition)
	}
}

func TestEngine_RejectAndReset(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(&entity.ReimbursementRequest{
		ID: 5, Kind: entity.RequestKindTrip, State: domainwf.StateFMApproval,
	})

	if _, err := f.engine.Transition(ctx, 5, domainwf.TriggerReject, "fm", "receipt missing"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if f.history.histories[0].Note != "receipt missing" || f.history.histories[0].Actor != "fm" {
		t.Errorf("unexpected history: %+v", f.history.histories[0])
	}

	req, err := f.engine.Transition(ctx, 5, domainwf.TriggerReset, "driver", "")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if req.State != domainwf.StateDraft {
		t.Errorf("state = %v, want %v", req.State, domainwf.StateDraft)
	}
}

func TestEngine_HookFailureRollsBack(t *testing.T) {
	f := newEngineFixture(&entity.ReimbursementRequest{
		ID: 6, Kind: entity.RequestKindTrip, State: domainwf.StateHRApproval, TotalAmount: decimal.NewFromInt(10),
	})
	f.payments.err = errors.New("accounting unavailable")

	_, err := f.engine.Transition(context.Background(), 6, domainwf.TriggerConfirm, "hr", "")
	if err == nil {
		t.Fatal("expected error from payment hook")
	}
	if !f.tx.rolledBack {
		t.Error("transaction should have been rolled back")
	}
}

func TestEngine_UnknownRequest(t *testing.T) {
	f := newEngineFixture(&entity.ReimbursementRequest{ID: 1, State: domainwf.StateDraft})

	_, err := f.engine.Transition(context.Background(), 99, domainwf.TriggerSubmit, "x", "")
	if !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("error = %v, want %v", err, entity.ErrNotFound)
	}
}

func TestEngine_PermittedTriggers(t *testing.T) {
	f := newEngineFixture(&entity.ReimbursementRequest{ID: 7, Kind: entity.RequestKindTrip, State: domainwf.StateHRApproval})

	triggers, err := f.engine.PermittedTriggers(context.Background(), 7)
	if err != nil {
		t.Fatalf("PermittedTriggers() failed: %v", err)
	}
	if len(triggers) != 2 || triggers[0] != domainwf.TriggerConfirm || triggers[1] != domainwf.TriggerReject {
		t.Errorf("PermittedTriggers() = %v", triggers)
	}
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/domain/rating"
	"github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
	"github.com/garyjia/fleet-reimbursement/pkg/utils"
)

// CreateRequestInput carries the fields a driver fills in when opening a request
type CreateRequestInput struct {
	Kind        entity.RequestKind `json:"kind"`
	DriverID    string             `json:"driver_id"`
	VehicleID   int64              `json:"vehicle_id"`
	VehicleType entity.VehicleType `json:"vehicle_type"`
	CompanyID   int64              `json:"company_id"`
	RequestDate time.Time          `json:"request_date"`
	Note        string             `json:"note"`
}

// RequestServiceConfig holds request defaults
type RequestServiceConfig struct {
	Currency         string
	RecomputeWorkers int
}

// RequestService manages reimbursement requests and their segments
type RequestService interface {
	Create(ctx context.Context, input CreateRequestInput) (*entity.ReimbursementRequest, error)
	Get(ctx context.Context, id int64) (*entity.ReimbursementRequest, error)
	List(ctx context.Context, filter entity.RequestFilter) ([]*entity.ReimbursementRequest, error)
	History(ctx context.Context, id int64) ([]*entity.RequestHistory, error)

	AddTripSegment(ctx context.Context, requestID int64, seg *entity.TripSegment) (*entity.TripSegment, error)
	UpdateTripSegment(ctx context.Context, requestID int64, seg *entity.TripSegment) (*entity.TripSegment, error)
	RemoveTripSegment(ctx context.Context, requestID, segmentID int64) error

	AddFuelSegment(ctx context.Context, requestID int64, seg *entity.FuelSegment) (*entity.FuelSegment, error)
	UpdateFuelSegment(ctx context.Context, requestID int64, seg *entity.FuelSegment) (*entity.FuelSegment, error)
	RemoveFuelSegment(ctx context.Context, requestID, segmentID int64) error

	// Recompute re-prices every segment against the current rate table
	Recompute(ctx context.Context, requestID int64) (*entity.ReimbursementRequest, error)
}

type requestServiceImpl struct {
	requestRepo  port.RequestRepository
	segmentRepo  port.SegmentRepository
	vehicleRepo  port.VehicleRepository
	historyRepo  port.HistoryRepository
	sequenceRepo port.SequenceRepository
	txManager    port.TransactionManager
	resolver     *rating.Resolver
	config       RequestServiceConfig
	logger       Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo port.RequestRepository,
	segmentRepo port.SegmentRepository,
	vehicleRepo port.VehicleRepository,
	historyRepo port.HistoryRepository,
	sequenceRepo port.SequenceRepository,
	txManager port.TransactionManager,
	resolver *rating.Resolver,
	config RequestServiceConfig,
	logger Logger,
) RequestService {
	if config.RecomputeWorkers <= 0 {
		config.RecomputeWorkers = 4
	}
	return &requestServiceImpl{
		requestRepo:  requestRepo,
		segmentRepo:  segmentRepo,
		vehicleRepo:  vehicleRepo,
		historyRepo:  historyRepo,
		sequenceRepo: sequenceRepo,
		txManager:    txManager,
		resolver:     resolver,
		config:       config,
		logger:       logger,
	}
}

// Create opens a draft request for a vehicle of the requested type
func (s *requestServiceImpl) Create(ctx context.Context, input CreateRequestInput) (*entity.ReimbursementRequest, error) {
	if !input.Kind.IsValid() {
		return nil, entity.NewValidationError("kind", "must be trip or fuel")
	}
	if input.VehicleType == "" {
		return nil, entity.NewValidationError("vehicle_type", "is required")
	}
	if !input.VehicleType.IsValid() {
		return nil, entity.NewValidationError("vehicle_type", "unknown vehicle type %q", input.VehicleType)
	}
	input.DriverID = utils.SanitizeString(input.DriverID)
	if input.DriverID == "" {
		return nil, entity.NewValidationError("driver_id", "is required")
	}
	if input.CompanyID <= 0 {
		return nil, entity.NewValidationError("company_id", "must be positive")
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, input.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %d", entity.ErrNotFound, input.VehicleID)
	}
	if vehicle.VehicleType != input.VehicleType {
		return nil, entity.NewValidationError("vehicle_id",
			"vehicle %s is a %s, request is for %s", vehicle.LicensePlate, vehicle.VehicleType, input.VehicleType)
	}

	now := time.Now()
	requestDate := input.RequestDate
	if requestDate.IsZero() {
		requestDate = now
	}

	req := &entity.ReimbursementRequest{
		Kind:         input.Kind,
		DriverID:     input.DriverID,
		VehicleID:    vehicle.ID,
		VehicleType:  input.VehicleType,
		CompanyID:    input.CompanyID,
		Currency:     s.config.Currency,
		RequestDate:  requestDate,
		LastOdometer: vehicle.Odometer,
		Note:         utils.SanitizeString(input.Note),
		State:        workflow.StateDraft,
		TotalAmount:  decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		name, err := s.sequenceRepo.Next(txCtx, string(input.Kind))
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		req.Name = name

		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		history := &entity.RequestHistory{
			RequestID: req.ID,
			Actor:     req.DriverID,
			NewState:  workflow.StateDraft,
			Action:    entity.HistoryActionCreate,
			Note:      "Request created",
			CreatedAt: now,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create request", "error", err, "kind", input.Kind, "vehicle_id", input.VehicleID)
		return nil, err
	}

	s.logger.Info("Request created", "id", req.ID, "name", req.Name, "kind", req.Kind)
	return req, nil
}

// Get retrieves a request with its active segment list
func (s *requestServiceImpl) Get(ctx context.Context, id int64) (*entity.ReimbursementRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "id", id)
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", entity.ErrNotFound, id)
	}

	if err := s.loadSegments(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns requests without their segments
func (s *requestServiceImpl) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.ReimbursementRequest, error) {
	if filter.State != "" && !filter.State.IsValid() {
		return nil, entity.NewValidationError("state", "unknown state %q", filter.State)
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.requestRepo.List(ctx, filter)
}

// History returns the audit trail of a request, oldest first
func (s *requestServiceImpl) History(ctx context.Context, id int64) ([]*entity.RequestHistory, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", entity.ErrNotFound, id)
	}
	return s.historyRepo.GetByRequestID(ctx, id)
}

// AddTripSegment prices and appends a trip leg
func (s *requestServiceImpl) AddTripSegment(ctx context.Context, requestID int64, seg *entity.TripSegment) (*entity.TripSegment, error) {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.editableRequest(txCtx, requestID, entity.RequestKindTrip)
		if err != nil {
			return err
		}
		existing, err := s.segmentRepo.ListTrips(txCtx, requestID)
		if err != nil {
			return fmt.Errorf("list trip segments: %w", err)
		}

		if err := s.priceTrip(txCtx, req, seg); err != nil {
			return err
		}
		now := time.Now()
		seg.RequestID = requestID
		seg.Position = nextTripPosition(existing)
		seg.CreatedAt = now
		seg.UpdatedAt = now

		if err := s.segmentRepo.CreateTrip(txCtx, seg); err != nil {
			return fmt.Errorf("create trip segment: %w", err)
		}
		return s.recomputeTotal(txCtx, req)
	})
	if err != nil {
		s.logger.Error("Failed to add trip segment", "error", err, "request_id", requestID)
		return nil, err
	}

	s.logger.Info("Trip segment added", "request_id", requestID, "segment_id", seg.ID, "amount", seg.Amount.String())
	return seg, nil
}

// UpdateTripSegment changes a trip leg and re-prices it
func (s *requestServiceImpl) UpdateTripSegment(ctx context.Context, requestID int64, seg *entity.TripSegment) (*entity.TripSegment, error) {
	var updated *entity.TripSegment
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.editableRequest(txCtx, requestID, entity.RequestKindTrip)
		if err != nil {
			return err
		}
		current, err := s.segmentRepo.GetTrip(txCtx, seg.ID)
		if err != nil {
			return fmt.Errorf("get trip segment: %w", err)
		}
		if current == nil || current.RequestID != requestID {
			return fmt.Errorf("%w: trip segment %d on request %d", entity.ErrNotFound, seg.ID, requestID)
		}

		current.TripDate = seg.TripDate
		current.TripType = seg.TripType
		current.BaseDistance = seg.BaseDistance
		current.ExtraDistance = seg.ExtraDistance
		current.FromAddress = seg.FromAddress
		current.ToAddress = seg.ToAddress
		current.Comments = seg.Comments
		current.UpdatedAt = time.Now()

		if err := s.priceTrip(txCtx, req, current); err != nil {
			return err
		}
		if err := s.segmentRepo.UpdateTrip(txCtx, current); err != nil {
			return fmt.Errorf("update trip segment: %w", err)
		}
		updated = current
		return s.recomputeTotal(txCtx, req)
	})
	if err != nil {
		s.logger.Error("Failed to update trip segment", "error", err, "request_id", requestID, "segment_id", seg.ID)
		return nil, err
	}
	return updated, nil
}

// RemoveTripSegment deletes a trip leg
func (s *requestServiceImpl) RemoveTripSegment(ctx context.Context, requestID, segmentID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.editableRequest(txCtx, requestID, entity.RequestKindTrip)
		if err != nil {
			return err
		}
		current, err := s.segmentRepo.GetTrip(txCtx, segmentID)
		if err != nil {
			return fmt.Errorf("get trip segment: %w", err)
		}
		if current == nil || current.RequestID != requestID {
			return fmt.Errorf("%w: trip segment %d on request %d", entity.ErrNotFound, segmentID, requestID)
		}
		if err := s.segmentRepo.DeleteTrip(txCtx, segmentID); err != nil {
			return fmt.Errorf("delete trip segment: %w", err)
		}
		return s.recomputeTotal(txCtx, req)
	})
	if err != nil {
		s.logger.Error("Failed to remove trip segment", "error", err, "request_id", requestID, "segment_id", segmentID)
	}
	return err
}

// AddFuelSegment prices and appends a fuel leg
func (s *requestServiceImpl) AddFuelSegment(ctx context.Context, requestID int64, seg *entity.FuelSegment) (*entity.FuelSegment, error) {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.editableRequest(txCtx, requestID, entity.RequestKindFuel)
		if err != nil {
			return err
		}
		existing, err := s.segmentRepo.ListFuel(txCtx, requestID)
		if err != nil {
			return fmt.Errorf("list fuel segments: %w", err)
		}

		if err := s.priceFuel(txCtx, req, seg); err != nil {
			return err
		}
		now := time.Now()
		seg.RequestID = requestID
		seg.Position = nextFuelPosition(existing)
		seg.CreatedAt = now
		seg.UpdatedAt = now

		if err := s.segmentRepo.CreateFuel(txCtx, seg); err != nil {
			return fmt.Errorf("create fuel segment: %w", err)
		}
		return s.recomputeTotal(txCtx, req)
	})
	if err != nil {
		s.logger.Error("Failed to add fuel segment", "error", err, "request_id", requestID)
		return nil, err
	}

	s.logger.Info("Fuel segment added", "request_id", requestID, "segment_id", seg.ID, "amount", seg.Amount.String())
	return seg, nil
}

// UpdateFuelSegment changes a fuel leg and re-prices it
func (s *requestServiceImpl) UpdateFuelSegment(ctx context.Context, requestID int64, seg *entity.FuelSegment) (*entity.FuelSegment, error) {
	var updated *entity.FuelSegment
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.editableRequest(txCtx, requestID, entity.RequestKindFuel)
		if err != nil {
			return err
		}
		current, err := s.segmentRepo.GetFuel(txCtx, seg.ID)
		if err != nil {
			return fmt.Errorf("get fuel segment: %w", err)
		}
		if current == nil || current.RequestID != requestID {
			return fmt.Errorf("%w: fuel segment %d on request %d", entity.ErrNotFound, seg.ID, requestID)
		}

		current.TripDate = seg.TripDate
		current.TripType = seg.TripType
		current.OpeningReading = seg.OpeningReading
		current.ClosingReading = seg.ClosingReading
		current.FromAddress = seg.FromAddress
		current.ToAddress = seg.ToAddress
		current.Comments = seg.Comments
		current.UpdatedAt = time.Now()

		if err := s.priceFuel(txCtx, req, current); err != nil {
			return err
		}
		if err := s.segmentRepo.UpdateFuel(txCtx, current); err != nil {
			return fmt.Errorf("update fuel segment: %w", err)
		}
		updated = current
		return s.recomputeTotal(txCtx, req)
	})
	if err != nil {
		s.logger.Error("Failed to update fuel segment", "error", err, "request_id", requestID, "segment_id", seg.ID)
		return nil, err
	}
	return updated, nil
}

// RemoveFuelSegment deletes a fuel leg
func (s *requestServiceImpl) RemoveFuelSegment(ctx context.Context, requestID, segmentID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.editableRequest(txCtx, requestID, entity.RequestKindFuel)
		if err != nil {
			return err
		}
		current, err := s.segmentRepo.GetFuel(txCtx, segmentID)
		if err != nil {
			return fmt.Errorf("get fuel segment: %w", err)
		}
		if current == nil || current.RequestID != requestID {
			return fmt.Errorf("%w: fuel segment %d on request %d", entity.ErrNotFound, segmentID, requestID)
		}
		if err := s.segmentRepo.DeleteFuel(txCtx, segmentID); err != nil {
			return fmt.Errorf("delete fuel segment: %w", err)
		}
		return s.recomputeTotal(txCtx, req)
	})
	if err != nil {
		s.logger.Error("Failed to remove fuel segment", "error", err, "request_id", requestID, "segment_id", segmentID)
	}
	return err
}

// Recompute re-prices all segments of a draft request over one band snapshot.
// Segments are priced concurrently; results are written in segment order.
// The state is checked again inside the transaction right before the writes,
// so a request submitted while the snapshot was loading keeps its amounts.
func (s *requestServiceImpl) Recompute(ctx context.Context, requestID int64) (*entity.ReimbursementRequest, error) {
	var req *entity.ReimbursementRequest
	var priced int

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.draftRequest(txCtx, requestID)
		if err != nil {
			return err
		}
		if err := s.loadSegments(txCtx, req); err != nil {
			return err
		}
		if req.SegmentCount() == 0 {
			return nil
		}

		bands, err := s.resolver.Snapshot(txCtx, req.CompanyID, req.Kind, req.VehicleType)
		if err != nil {
			return err
		}
		amounts, err := s.priceConcurrently(txCtx, req, bands)
		if err != nil {
			return err
		}

		if _, err := s.draftRequest(txCtx, requestID); err != nil {
			return err
		}
		for i, amount := range amounts {
			if req.Kind == entity.RequestKindTrip {
				req.TripSegments[i].Amount = amount
				if err := s.segmentRepo.UpdateTrip(txCtx, req.TripSegments[i]); err != nil {
					return fmt.Errorf("update trip segment: %w", err)
				}
				continue
			}
			req.FuelSegments[i].Amount = amount
			if err := s.segmentRepo.UpdateFuel(txCtx, req.FuelSegments[i]); err != nil {
				return fmt.Errorf("update fuel segment: %w", err)
			}
		}
		priced = len(amounts)
		return s.requestRepo.UpdateTotal(txCtx, req.ID, req.RecomputeTotal())
	})
	if err != nil {
		s.logger.Error("Failed to recompute request", "error", err, "request_id", requestID)
		return nil, err
	}

	s.logger.Info("Request recomputed", "request_id", requestID, "segments", priced, "total", req.TotalAmount.String())
	return req, nil
}

func (s *requestServiceImpl) priceConcurrently(ctx context.Context, req *entity.ReimbursementRequest, bands []entity.RateBand) ([]decimal.Decimal, error) {
	n := req.SegmentCount()
	amounts := make([]decimal.Decimal, n)
	errs := make([]error, n)

	work := make(chan int, n)
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)

	workers := s.config.RecomputeWorkers
	if n < workers {
		workers = n
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if ctx.Err() != nil {
					errs[i] = ctx.Err()
					continue
				}
				amounts[i], errs[i] = priceSegment(req, i, bands)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return amounts, nil
}

func priceSegment(req *entity.ReimbursementRequest, i int, bands []entity.RateBand) (decimal.Decimal, error) {
	if req.Kind == entity.RequestKindTrip {
		seg := req.TripSegments[i]
		return rating.RoundAmount(rating.TripAmount(bands, seg.TotalDistance()).Amount), nil
	}

	res, err := rating.FuelAmount(bands, decimal.NewFromInt(req.FuelSegments[i].MileageDelta))
	if err != nil {
		return decimal.Zero, err
	}
	return rating.RoundAmount(res.Amount), nil
}

func (s *requestServiceImpl) priceTrip(ctx context.Context, req *entity.ReimbursementRequest, seg *entity.TripSegment) error {
	if err := seg.Validate(); err != nil {
		return err
	}
	seg.FromAddress = utils.SanitizeString(seg.FromAddress)
	seg.ToAddress = utils.SanitizeString(seg.ToAddress)

	res, err := s.resolver.ResolveTripAmount(ctx, req.VehicleType, req.CompanyID, seg.BaseDistance, seg.ExtraDistance)
	if err != nil {
		return err
	}
	if !res.Matched {
		s.logger.Info("No rate band matched trip distance",
			"request_id", req.ID, "distance", seg.TotalDistance().String())
	}
	seg.Amount = rating.RoundAmount(res.Amount)
	return nil
}

func (s *requestServiceImpl) priceFuel(ctx context.Context, req *entity.ReimbursementRequest, seg *entity.FuelSegment) error {
	if err := seg.Validate(); err != nil {
		return err
	}
	if err := seg.DeriveMileage(); err != nil {
		return err
	}
	seg.FromAddress = utils.SanitizeString(seg.FromAddress)
	seg.ToAddress = utils.SanitizeString(seg.ToAddress)

	res, err := s.resolver.ResolveFuelAmount(ctx, req.VehicleType, req.CompanyID, decimal.NewFromInt(seg.MileageDelta))
	if err != nil {
		return err
	}
	if !res.Matched {
		s.logger.Info("No rate band matched mileage",
			"request_id", req.ID, "mileage_delta", seg.MileageDelta)
	}
	seg.Amount = rating.RoundAmount(res.Amount)
	return nil
}

func (s *requestServiceImpl) editableRequest(ctx context.Context, id int64, kind entity.RequestKind) (*entity.ReimbursementRequest, error) {
	req, err := s.draftRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Kind != kind {
		return nil, entity.NewValidationError("kind", "%s is a %s request", req.Name, req.Kind)
	}
	return req, nil
}

// draftRequest loads a request without segments and rejects it unless it is a draft
func (s *requestServiceImpl) draftRequest(ctx context.Context, id int64) (*entity.ReimbursementRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", entity.ErrNotFound, id)
	}
	if !req.Editable() {
		return nil, fmt.Errorf("%w: %s is %s", entity.ErrRequestFrozen, req.Name, req.State)
	}
	return req, nil
}

// recomputeTotal reloads the active segment list and stores the new total
func (s *requestServiceImpl) recomputeTotal(ctx context.Context, req *entity.ReimbursementRequest) error {
	if err := s.loadSegments(ctx, req); err != nil {
		return err
	}
	if err := s.requestRepo.UpdateTotal(ctx, req.ID, req.RecomputeTotal()); err != nil {
		return fmt.Errorf("update total: %w", err)
	}
	return nil
}

func (s *requestServiceImpl) loadSegments(ctx context.Context, req *entity.ReimbursementRequest) error {
	var err error
	switch req.Kind {
	case entity.RequestKindTrip:
		req.TripSegments, err = s.segmentRepo.ListTrips(ctx, req.ID)
	case entity.RequestKindFuel:
		req.FuelSegments, err = s.segmentRepo.ListFuel(ctx, req.ID)
	}
	if err != nil {
		return fmt.Errorf("load segments: %w", err)
	}
	return nil
}

func nextTripPosition(segments []*entity.TripSegment) int {
	pos := 0
	for _, s := range segments {
		if s.Position > pos {
			pos = s.Position
		}
	}
	return pos + 1
}

func nextFuelPosition(segments []*entity.FuelSegment) int {
	pos := 0
	for _, s := range segments {
		if s.Position > pos {
			pos = s.Position
		}
	}
	return pos + 1
}

package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

// Lookups return (nil, nil) when the row does not exist.

// RateConfigurationRepository defines persistence operations for RateConfiguration
type RateConfigurationRepository interface {
	// Create stores a configuration with its bands.
	// Returns entity.ErrConfigurationExists when the company already has one.
	Create(ctx context.Context, cfg *entity.RateConfiguration) error

	// GetByCompanyID loads the configuration of a company with all bands in table order
	GetByCompanyID(ctx context.Context, companyID int64) (*entity.RateConfiguration, error)

	// ReplaceBands drops every band of the configuration and inserts the given ones
	ReplaceBands(ctx context.Context, cfg *entity.RateConfiguration) error

	// ListBands returns the ordered bands of one rate table
	ListBands(ctx context.Context, companyID int64, kind entity.RequestKind, vehicleType entity.VehicleType) ([]entity.RateBand, error)
}

// VehicleRepository defines persistence operations for Vehicle
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *entity.Vehicle) error
	GetByID(ctx context.Context, id int64) (*entity.Vehicle, error)
	List(ctx context.Context, vehicleType entity.VehicleType) ([]*entity.Vehicle, error)
	UpdateOdometer(ctx context.Context, id int64, odometer decimal.Decimal) error
}

// RequestRepository defines persistence operations for ReimbursementRequest.
// Segments are handled by SegmentRepository.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.ReimbursementRequest) error
	GetByID(ctx context.Context, id int64) (*entity.ReimbursementRequest, error)
	List(ctx context.Context, filter entity.RequestFilter) ([]*entity.ReimbursementRequest, error)
	UpdateState(ctx context.Context, id int64, state workflow.State) error
	UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error
	MarkPaid(ctx context.Context, id int64, paymentID int64) error
}

// SegmentRepository defines persistence operations for trip and fuel segments
type SegmentRepository interface {
	CreateTrip(ctx context.Context, seg *entity.TripSegment) error
	GetTrip(ctx context.Context, id int64) (*entity.TripSegment, error)
	ListTrips(ctx context.Context, requestID int64) ([]*entity.TripSegment, error)
	UpdateTrip(ctx context.Context, seg *entity.TripSegment) error
	DeleteTrip(ctx context.Context, id int64) error

	CreateFuel(ctx context.Context, seg *entity.FuelSegment) error
	GetFuel(ctx context.Context, id int64) (*entity.FuelSegment, error)
	ListFuel(ctx context.Context, requestID int64) ([]*entity.FuelSegment, error)
	UpdateFuel(ctx context.Context, seg *entity.FuelSegment) error
	DeleteFuel(ctx context.Context, id int64) error
}

// HistoryRepository defines persistence operations for RequestHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.RequestHistory) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.RequestHistory, error)
}

// PaymentRepository defines persistence operations for Payment
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id int64) (*entity.Payment, error)
	GetByRequestID(ctx context.Context, requestID int64) (*entity.Payment, error)
}

// SequenceRepository hands out request names
type SequenceRepository interface {
	// Next returns the next formatted name for code ("trip" -> "TRIP/00001")
	Next(ctx context.Context, code string) (string, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

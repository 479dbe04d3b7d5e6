package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/domain/rating"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Quote is a resolved amount returned without storing anything
type Quote struct {
	CompanyID   int64              `json:"company_id"`
	Kind        entity.RequestKind `json:"kind"`
	VehicleType entity.VehicleType `json:"vehicle_type"`
	Metric      decimal.Decimal    `json:"metric"`
	Amount      decimal.Decimal    `json:"amount"`
	Matched     bool               `json:"matched"`
	Band        *entity.RateBand   `json:"band,omitempty"`
}

// RateService manages per-company rate configurations and quotes against them
type RateService interface {
	CreateConfiguration(ctx context.Context, cfg *entity.RateConfiguration) (*entity.RateConfiguration, error)
	ReplaceBands(ctx context.Context, companyID int64, tripBands, fuelBands []entity.RateBand) (*entity.RateConfiguration, error)
	GetConfiguration(ctx context.Context, companyID int64) (*entity.RateConfiguration, error)
	RateTable(ctx context.Context, companyID int64, kind entity.RequestKind, vehicleType entity.VehicleType) (*entity.RateTable, error)
	ImportWorkbook(ctx context.Context, companyID int64, name string, r io.Reader) (*entity.RateConfiguration, error)
	ExportWorkbook(ctx context.Context, companyID int64, w io.Writer) error
	QuoteTrip(ctx context.Context, companyID int64, vehicleType entity.VehicleType, base, extra decimal.Decimal) (*Quote, error)
	QuoteFuel(ctx context.Context, companyID int64, vehicleType entity.VehicleType, opening, closing int64) (*Quote, error)
}

type rateServiceImpl struct {
	repo      port.RateConfigurationRepository
	cache     port.RateCache
	resolver  *rating.Resolver
	workbook  port.RateWorkbook
	txManager port.TransactionManager
	logger    Logger
}

// NewRateService creates a new RateService
func NewRateService(
	repo port.RateConfigurationRepository,
	cache port.RateCache,
	resolver *rating.Resolver,
	workbook port.RateWorkbook,
	txManager port.TransactionManager,
	logger Logger,
) RateService {
	return &rateServiceImpl{
		repo:      repo,
		cache:     cache,
		resolver:  resolver,
		workbook:  workbook,
		txManager: txManager,
		logger:    logger,
	}
}

// CreateConfiguration stores the first configuration of a company
func (s *rateServiceImpl) CreateConfiguration(ctx context.Context, cfg *entity.RateConfiguration) (*entity.RateConfiguration, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByCompanyID(txCtx, cfg.CompanyID)
		if err != nil {
			return fmt.Errorf("check existing configuration: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: company %d", entity.ErrConfigurationExists, cfg.CompanyID)
		}
		return s.repo.Create(txCtx, cfg)
	})
	if err != nil {
		s.logger.Error("Failed to create rate configuration", "error", err, "company_id", cfg.CompanyID)
		return nil, err
	}
	s.invalidate(ctx, cfg.CompanyID)

	s.logger.Info("Rate configuration created",
		"company_id", cfg.CompanyID, "trip_bands", len(cfg.TripBands), "fuel_bands", len(cfg.FuelBands))
	return cfg, nil
}

// ReplaceBands reconfigures every band of an existing configuration
func (s *rateServiceImpl) ReplaceBands(ctx context.Context, companyID int64, tripBands, fuelBands []entity.RateBand) (*entity.RateConfiguration, error) {
	cfg, err := s.GetConfiguration(ctx, companyID)
	if err != nil {
		return nil, err
	}

	cfg.TripBands = tripBands
	cfg.FuelBands = fuelBands
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.repo.ReplaceBands(txCtx, cfg)
	})
	if err != nil {
		s.logger.Error("Failed to replace rate bands", "error", err, "company_id", companyID)
		return nil, err
	}
	s.invalidate(ctx, companyID)

	s.logger.Info("Rate bands replaced",
		"company_id", companyID, "trip_bands", len(tripBands), "fuel_bands", len(fuelBands))
	return cfg, nil
}

// GetConfiguration returns the configuration of a company
func (s *rateServiceImpl) GetConfiguration(ctx context.Context, companyID int64) (*entity.RateConfiguration, error) {
	cfg, err := s.repo.GetByCompanyID(ctx, companyID)
	if err != nil {
		s.logger.Error("Failed to get rate configuration", "error", err, "company_id", companyID)
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: rate configuration for company %d", entity.ErrNotFound, companyID)
	}
	return cfg, nil
}

// RateTable returns the ordered bands used to price one vehicle type
func (s *rateServiceImpl) RateTable(ctx context.Context, companyID int64, kind entity.RequestKind, vehicleType entity.VehicleType) (*entity.RateTable, error) {
	if !kind.IsValid() {
		return nil, entity.NewValidationError("kind", "unknown request kind %q", kind)
	}
	bands, err := s.resolver.Snapshot(ctx, companyID, kind, vehicleType)
	if err != nil {
		return nil, err
	}
	return &entity.RateTable{CompanyID: companyID, Kind: kind, VehicleType: vehicleType, Bands: bands}, nil
}

// ImportWorkbook creates or replaces a configuration from a rate workbook
func (s *rateServiceImpl) ImportWorkbook(ctx context.Context, companyID int64, name string, r io.Reader) (*entity.RateConfiguration, error) {
	tripBands, fuelBands, err := s.workbook.ReadBands(r)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("check existing configuration: %w", err)
	}
	if existing != nil {
		return s.ReplaceBands(ctx, companyID, tripBands, fuelBands)
	}

	return s.CreateConfiguration(ctx, &entity.RateConfiguration{
		CompanyID: companyID,
		Name:      name,
		TripBands: tripBands,
		FuelBands: fuelBands,
	})
}

// ExportWorkbook writes the configuration of a company as a rate workbook
func (s *rateServiceImpl) ExportWorkbook(ctx context.Context, companyID int64, w io.Writer) error {
	cfg, err := s.GetConfiguration(ctx, companyID)
	if err != nil {
		return err
	}
	return s.workbook.WriteBands(w, cfg)
}

// QuoteTrip prices a trip distance without recording it
func (s *rateServiceImpl) QuoteTrip(ctx context.Context, companyID int64, vehicleType entity.VehicleType, base, extra decimal.Decimal) (*Quote, error) {
	res, err := s.resolver.ResolveTripAmount(ctx, vehicleType, companyID, base, extra)
	if err != nil {
		return nil, err
	}
	return &Quote{
		CompanyID:   companyID,
		Kind:        entity.RequestKindTrip,
		VehicleType: vehicleType,
		Metric:      base.Add(extra),
		Amount:      rating.RoundAmount(res.Amount),
		Matched:     res.Matched,
		Band:        res.Band,
	}, nil
}

// QuoteFuel prices a pair of odometer readings without recording them
func (s *rateServiceImpl) QuoteFuel(ctx context.Context, companyID int64, vehicleType entity.VehicleType, opening, closing int64) (*Quote, error) {
	seg := &entity.FuelSegment{OpeningReading: opening, ClosingReading: closing}
	if err := seg.DeriveMileage(); err != nil {
		return nil, err
	}

	delta := decimal.NewFromInt(seg.MileageDelta)
	res, err := s.resolver.ResolveFuelAmount(ctx, vehicleType, companyID, delta)
	if err != nil {
		return nil, err
	}
	return &Quote{
		CompanyID:   companyID,
		Kind:        entity.RequestKindFuel,
		VehicleType: vehicleType,
		Metric:      delta,
		Amount:      rating.RoundAmount(res.Amount),
		Matched:     res.Matched,
		Band:        res.Band,
	}, nil
}

func (s *rateServiceImpl) invalidate(ctx context.Context, companyID int64) {
	if err := s.cache.InvalidateCompany(ctx, companyID); err != nil {
		s.logger.Error("Failed to invalidate rate cache", "error", err, "company_id", companyID)
	}
}

package service

import (
	"context"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/domain/rating"
)

// cachedBandSource serves rate tables from the cache and falls back to the repository.
// Cache failures are logged and never fail a lookup.
type cachedBandSource struct {
	repo   port.RateConfigurationRepository
	cache  port.RateCache
	logger Logger
}

// NewCachedBandSource creates the BandSource the resolver reads from
func NewCachedBandSource(repo port.RateConfigurationRepository, cache port.RateCache, logger Logger) rating.BandSource {
	return &cachedBandSource{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (s *cachedBandSource) Bands(ctx context.Context, companyID int64, kind entity.RequestKind, vehicleType entity.VehicleType) ([]entity.RateBand, error) {
	// The generation is taken before the database read so a table loaded ahead of
	// a concurrent reconfiguration is written back under a retired generation.
	gen, err := s.cache.Generation(ctx, companyID)
	if err != nil {
		s.logger.Error("Rate cache generation read failed", "error", err, "company_id", companyID)
		return s.repo.ListBands(ctx, companyID, kind, vehicleType)
	}

	bands, ok, err := s.cache.Get(ctx, companyID, gen, kind, vehicleType)
	if err != nil {
		s.logger.Error("Rate cache read failed", "error", err, "company_id", companyID, "kind", kind)
	} else if ok {
		return bands, nil
	}

	bands, err = s.repo.ListBands(ctx, companyID, kind, vehicleType)
	if err != nil {
		return nil, err
	}

	// Empty tables are not cached so a later configuration is seen without invalidation
	if len(bands) > 0 {
		if err := s.cache.Set(ctx, companyID, gen, kind, vehicleType, bands); err != nil {
			s.logger.Error("Rate cache write failed", "error", err, "company_id", companyID, "kind", kind)
		}
	}
	return bands, nil
}

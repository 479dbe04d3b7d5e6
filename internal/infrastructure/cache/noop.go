package cache

import (
	"context"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
)

// NoopCache is used when Redis is disabled; every read is a miss
type NoopCache struct{}

// NewNoopCache creates a cache that stores nothing
func NewNoopCache() port.RateCache {
	return NoopCache{}
}

func (NoopCache) Generation(context.Context, int64) (int64, error) {
	return 0, nil
}

func (NoopCache) Get(context.Context, int64, int64, entity.RequestKind, entity.VehicleType) ([]entity.RateBand, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, int64, int64, entity.RequestKind, entity.VehicleType, []entity.RateBand) error {
	return nil
}

func (NoopCache) InvalidateCompany(context.Context, int64) error {
	return nil
}

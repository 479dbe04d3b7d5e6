package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
)

const keyPrefix = "rates"

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// RedisRateCache keeps rate table snapshots as JSON strings keyed by
// rates:{company}:v{generation}:{kind}:{vehicle type}. The current generation
// of a company is a counter at rates:{company}:version.
type RedisRateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRateCache creates a rate cache on an existing client
func NewRedisRateCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) port.RateCache {
	return &RedisRateCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Generation implements port.RateCache; a company never invalidated is at generation 0
func (c *RedisRateCache) Generation(ctx context.Context, companyID int64) (int64, error) {
	gen, err := c.client.Get(ctx, versionKey(companyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read rate cache generation: %w", err)
	}
	return gen, nil
}

// Get implements port.RateCache
func (c *RedisRateCache) Get(ctx context.Context, companyID, generation int64, kind entity.RequestKind, vehicleType entity.VehicleType) ([]entity.RateBand, bool, error) {
	raw, err := c.client.Get(ctx, tableKey(companyID, generation, kind, vehicleType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rate cache: %w", err)
	}

	var bands []entity.RateBand
	if err := json.Unmarshal(raw, &bands); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached rate table: %w", err)
	}
	return bands, true, nil
}

// Set implements port.RateCache
func (c *RedisRateCache) Set(ctx context.Context, companyID, generation int64, kind entity.RequestKind, vehicleType entity.VehicleType, bands []entity.RateBand) error {
	raw, err := json.Marshal(bands)
	if err != nil {
		return fmt.Errorf("failed to encode rate table: %w", err)
	}

	if err := c.client.Set(ctx, tableKey(companyID, generation, kind, vehicleType), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rate cache: %w", err)
	}
	return nil
}

// InvalidateCompany implements port.RateCache. The generation is bumped first;
// deleting the old tables afterwards only frees memory early.
func (c *RedisRateCache) InvalidateCompany(ctx context.Context, companyID int64) error {
	gen, err := c.client.Incr(ctx, versionKey(companyID)).Result()
	if err != nil {
		return fmt.Errorf("failed to bump rate cache generation: %w", err)
	}

	pattern := fmt.Sprintf("%s:%d:v[0-9]*", keyPrefix, companyID)
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan rate cache: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to invalidate rate cache: %w", err)
			}
			removed += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	c.logger.Debug("Rate cache invalidated",
		zap.Int64("company_id", companyID),
		zap.Int64("generation", gen),
		zap.Int64("keys", removed))
	return nil
}

func tableKey(companyID, generation int64, kind entity.RequestKind, vehicleType entity.VehicleType) string {
	return fmt.Sprintf("%s:%d:v%d:%s:%s", keyPrefix, companyID, generation, kind, vehicleType)
}

func versionKey(companyID int64) string {
	return fmt.Sprintf("%s:%d:version", keyPrefix, companyID)
}

// Verify interface compliance
var _ port.RateCache = (*RedisRateCache)(nil)

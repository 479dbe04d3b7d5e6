package container

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/application/service"
	"github.com/garyjia/fleet-reimbursement/internal/application/workflow"
	"github.com/garyjia/fleet-reimbursement/internal/domain/rating"
	domainwf "github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/cache"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/persistence/repository"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/spreadsheet"
	"github.com/garyjia/fleet-reimbursement/migrations"
	"github.com/garyjia/fleet-reimbursement/pkg/database"
	"github.com/garyjia/fleet-reimbursement/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// CacheBundle holds the rate cache and, when Redis is enabled, its client.
type CacheBundle struct {
	Cache  port.RateCache
	Client *redis.Client
}

// ProvideDatabase opens the database, applies pending migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.SkipMigrations {
		if _, err := database.NewMigrator(db, logger).RunMigrations(migrations.FS); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Rates:    repository.NewRateConfigurationRepository(sqlDB, logger),
		Vehicle:  repository.NewVehicleRepository(sqlDB, logger),
		Request:  repository.NewRequestRepository(sqlDB, logger),
		Segment:  repository.NewSegmentRepository(sqlDB, logger),
		History:  repository.NewHistoryRepository(sqlDB, logger),
		Payment:  repository.NewPaymentRepository(sqlDB, logger),
		Sequence: repository.NewSequenceRepository(sqlDB, logger),
	}, nil
}

// ProvideRateCache connects to Redis when enabled and falls back to a no-op cache otherwise.
func ProvideRateCache(ctx context.Context, cfg *RedisConfig, logger *zap.Logger) (*CacheBundle, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Rate cache disabled")
		return &CacheBundle{Cache: cache.NewNoopCache()}, nil
	}

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      cfg.RateTTL,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Rate cache connected", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.RateTTL))
	return &CacheBundle{
		Cache:  cache.NewRedisRateCache(client, cfg.RateTTL, logger),
		Client: client,
	}, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Cache     port.RateCache
	Rates     *RatesConfig
	Payment   *PaymentConfig
	Logger    *zap.Logger
}

// ProvideServices creates all application services with their dependencies.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := utils.NewKVLogger(deps.Logger)
	repos := deps.Repos

	rateCache := deps.Cache
	if rateCache == nil {
		rateCache = cache.NewNoopCache()
	}
	resolver := rating.NewResolver(service.NewCachedBandSource(repos.Rates, rateCache, serviceLogger))

	return &ServiceBundle{
		Resolver: resolver,
		Rates: service.NewRateService(
			repos.Rates,
			rateCache,
			resolver,
			spreadsheet.NewRateWorkbook(deps.Logger),
			deps.TxManager,
			serviceLogger,
		),
		Vehicles: service.NewVehicleService(repos.Vehicle, serviceLogger),
		Requests: service.NewRequestService(
			repos.Request,
			repos.Segment,
			repos.Vehicle,
			repos.History,
			repos.Sequence,
			deps.TxManager,
			resolver,
			service.RequestServiceConfig{
				Currency:         deps.Payment.Currency,
				RecomputeWorkers: deps.Rates.RecomputeWorkers,
			},
			serviceLogger,
		),
		Payments: service.NewPaymentService(
			repos.Payment,
			repos.Request,
			service.PaymentConfig{
				PartnerName: deps.Payment.PartnerName,
				Journal:     deps.Payment.Journal,
			},
			serviceLogger,
		),
	}, nil
}

// WorkflowDeps holds dependencies for creating the workflow engine.
type WorkflowDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Payments  service.PaymentService
	Logger    *zap.Logger
}

// ProvideWorkflowEngine creates the approval engine with its state-entry hooks:
// submission records the odometer, confirmation hands the request to accounting.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Payments == nil {
		return nil, fmt.Errorf("payment service is required")
	}

	return workflow.NewEngine(
		deps.Repos.Request,
		deps.Repos.Segment,
		deps.Repos.History,
		deps.TxManager,
		utils.NewKVLogger(deps.Logger),
		workflow.WithOnEnter(domainwf.StateSubmitted, workflow.OdometerHook(deps.Repos.Vehicle)),
		workflow.WithOnEnter(domainwf.StateConfirmed, workflow.PaymentHook(deps.Payments)),
	), nil
}

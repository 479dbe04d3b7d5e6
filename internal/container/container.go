package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/fleet-reimbursement/internal/application/port"
	"github.com/garyjia/fleet-reimbursement/internal/application/service"
	"github.com/garyjia/fleet-reimbursement/internal/application/workflow"
	"github.com/garyjia/fleet-reimbursement/internal/domain/rating"
	"github.com/garyjia/fleet-reimbursement/internal/infrastructure/persistence/sqlite"
	apihttp "github.com/garyjia/fleet-reimbursement/internal/interfaces/http"
	"github.com/garyjia/fleet-reimbursement/pkg/database"
	"github.com/garyjia/fleet-reimbursement/pkg/utils"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle
	rateCache    port.RateCache
	redisClient  *redis.Client

	// Application
	services *ServiceBundle
	workflow workflow.WorkflowEngine

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Rates    port.RateConfigurationRepository
	Vehicle  port.VehicleRepository
	Request  port.RequestRepository
	Segment  port.SegmentRepository
	History  port.HistoryRepository
	Payment  port.PaymentRepository
	Sequence port.SequenceRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Resolver *rating.Resolver
	Rates    service.RateService
	Vehicles service.VehicleService
	Requests service.RequestService
	Payments service.PaymentService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database, migrations and repositories
// 2. Rate cache
// 3. Application services
// 4. Workflow engine
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initCache(ctx); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize rate cache: %w", err)
	}

	if err := c.initServices(); err != nil {
		c.closeAll()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	if err := c.initWorkflow(); err != nil {
		c.closeAll()
		return fmt.Errorf("failed to initialize workflow: %w", err)
	}
	c.logger.Info("Workflow engine initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	errs := c.closeAll()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors: %w", len(errs), errs[0])
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) closeAll() []error {
	var errs []error

	// Services and the workflow engine hold no resources.
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.logger.Error("Failed to close redis client", zap.Error(err))
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		} else {
			c.logger.Info("Rate cache closed")
		}
		c.redisClient = nil
	}

	if err := c.closeDatabase(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (c *Container) closeDatabase() error {
	if c.database == nil {
		return nil
	}
	err := c.database.Close()
	c.database = nil
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.database != nil {
		if err := c.database.PingContext(ctx); err != nil {
			status.Components["database"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	switch {
	case c.redisClient != nil:
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			// The database still serves every lookup
			status.Components["rate_cache"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
		} else {
			status.Components["rate_cache"] = ComponentHealth{Healthy: true}
		}
	case c.rateCache != nil:
		status.Components["rate_cache"] = ComponentHealth{Healthy: true, Message: "disabled"}
	}

	if c.services == nil || c.workflow == nil {
		status.Components["services"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	} else {
		status.Components["services"] = ComponentHealth{Healthy: true}
	}

	return status
}

func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = dbBundle.DB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.database.DB, c.logger)
	if err != nil {
		c.closeDatabase()
		return err
	}

	c.repositories = repos
	return nil
}

func (c *Container) initCache(ctx context.Context) error {
	bundle, err := ProvideRateCache(ctx, &c.config.Redis, c.logger)
	if err != nil {
		return err
	}
	c.rateCache = bundle.Cache
	c.redisClient = bundle.Client
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.db,
		Cache:     c.rateCache,
		Rates:     &c.config.Rates,
		Payment:   &c.config.Payment,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

func (c *Container) initWorkflow() error {
	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:     c.repositories,
		TxManager: c.db,
		Payments:  c.services.Payments,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.workflow = engine
	return nil
}

// NewHTTPServer builds the API server on the container's services.
func (c *Container) NewHTTPServer() (*apihttp.Server, error) {
	if !c.ready.Load() {
		return nil, fmt.Errorf("container not started")
	}

	cfg := c.config.Server
	return apihttp.NewServer(apihttp.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	}, apihttp.Services{
		Rates:    c.services.Rates,
		Vehicles: c.services.Vehicles,
		Requests: c.services.Requests,
		Payments: c.services.Payments,
		Workflow: c.workflow,
	}, utils.NewKVLogger(c.logger)), nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// RateCache returns the rate cache in use.
func (c *Container) RateCache() port.RateCache {
	return c.rateCache
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// WorkflowEngine returns the workflow engine.
func (c *Container) WorkflowEngine() workflow.WorkflowEngine {
	return c.workflow
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

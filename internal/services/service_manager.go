package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/co-intel-labs/labs-1.0/internal/events"
	"github.com/co-intel-labs/labs-1.0/internal/metrics"
	"github.com/co-intel-labs/labs-1.0/internal/repositories"
	"github.com/co-intel-labs/labs-1.0/internal/store"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	SweepInterval time.Duration
	// Verifier checks passwords at login. Nil accepts any password.
	Verifier CredentialVerifier
	// Directory is the optional source for user imports.
	Directory repositories.UserDirectory
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	store     *store.RecordStore
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	allocationService AllocationService
	labService        LabService
	userService       UserService
	courseService     CourseService
	authService       AuthService
	dashboardService  DashboardService
	reportService     ReportService
	sweeper           *ExpirationSweeper

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(
	recordStore *store.RecordStore,
	publisher events.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	validator *validator.Validator,
	config ServiceManagerConfig,
) ServiceManager {
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}
	return &serviceManager{
		store:     recordStore,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// Initialize sets up all services and warms the record store
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	policy := NewExpirationPolicy(sm.store.Clock())
	sm.allocationService = NewAllocationService(sm.store, policy, sm.publisher, sm.metrics, sm.logger, sm.validator)
	sm.labService = NewLabService(sm.store, sm.logger, sm.validator)
	sm.userService = NewUserService(sm.store, sm.config.Directory, sm.publisher, sm.logger, sm.validator)
	sm.courseService = NewCourseService(sm.store, sm.logger, sm.validator)
	sm.authService = NewAuthService(sm.store, sm.config.Verifier, sm.metrics, sm.logger)
	sm.dashboardService = NewDashboardService(sm.store, sm.allocationService, sm.logger)
	sm.reportService = NewReportService(sm.allocationService, sm.logger)
	sm.sweeper = NewExpirationSweeper(sm.allocationService, sm.config.SweepInterval, sm.logger)

	sm.store.Warm(ctx)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) mustBeReady(name string) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.shutdown {
		panic(name + " service requested after shutdown")
	}
}

// Service getters
func (sm *serviceManager) Allocation() AllocationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("allocation")
	return sm.allocationService
}

func (sm *serviceManager) Lab() LabService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("lab")
	return sm.labService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("user")
	return sm.userService
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("course")
	return sm.courseService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("auth")
	return sm.authService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("dashboard")
	return sm.dashboardService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("report")
	return sm.reportService
}

func (sm *serviceManager) Sweeper() *ExpirationSweeper {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("sweeper")
	return sm.sweeper
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.store.Ping(ctx); err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

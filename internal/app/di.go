// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/jediahjireh/credential-management/internal/auth"
	"github.com/jediahjireh/credential-management/internal/config"
	"github.com/jediahjireh/credential-management/internal/database"
	"github.com/jediahjireh/credential-management/internal/http"
	identityHttp "github.com/jediahjireh/credential-management/internal/identity/http"
	identityRepository "github.com/jediahjireh/credential-management/internal/identity/repository"
	identityService "github.com/jediahjireh/credential-management/internal/identity/service"
	identityUsecase "github.com/jediahjireh/credential-management/internal/identity/usecase"
	"github.com/jediahjireh/credential-management/internal/metrics"
	orgHttp "github.com/jediahjireh/credential-management/internal/org/http"
	orgRepository "github.com/jediahjireh/credential-management/internal/org/repository"
	orgUsecase "github.com/jediahjireh/credential-management/internal/org/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider

	// Managers
	txManager database.TxManager

	// Services
	secretHasher identityService.SecretHasher
	tokenService auth.TokenService

	// Repositories
	userRepo identityUsecase.UserRepository
	orgRepo  orgUsecase.OrgUnitRepository

	// Use Cases
	userUseCase    identityUsecase.UseCase
	orgUnitUseCase orgUsecase.UseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	metricsProviderInit sync.Once
	txManagerInit       sync.Once
	secretHasherInit    sync.Once
	tokenServiceInit    sync.Once
	userRepoInit        sync.Once
	orgRepoInit         sync.Once
	userUseCaseInit     sync.Once
	orgUnitUseCaseInit  sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		txManager, err := c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
			return
		}
		c.txManager = txManager
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// SecretHasher returns the secret hashing service.
func (c *Container) SecretHasher() (identityService.SecretHasher, error) {
	c.secretHasherInit.Do(func() {
		hasher, err := identityService.NewSecretHasher()
		if err != nil {
			c.initErrors["secretHasher"] = err
			return
		}
		c.secretHasher = hasher
	})
	if storedErr, exists := c.initErrors["secretHasher"]; exists {
		return nil, storedErr
	}
	return c.secretHasher, nil
}

// TokenService returns the identity token service.
func (c *Container) TokenService() (auth.TokenService, error) {
	c.tokenServiceInit.Do(func() {
		c.tokenService = auth.NewTokenService(c.config.JWTSecretKey, c.config.TokenExpiration)
	})
	return c.tokenService, nil
}

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (identityUsecase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		repo, err := c.initUserRepository()
		if err != nil {
			c.initErrors["userRepo"] = err
			return
		}
		c.userRepo = repo
	})
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// OrgUnitRepository returns the organisational unit repository instance.
func (c *Container) OrgUnitRepository() (orgUsecase.OrgUnitRepository, error) {
	c.orgRepoInit.Do(func() {
		repo, err := c.initOrgUnitRepository()
		if err != nil {
			c.initErrors["orgRepo"] = err
			return
		}
		c.orgRepo = repo
	})
	if storedErr, exists := c.initErrors["orgRepo"]; exists {
		return nil, storedErr
	}
	return c.orgRepo, nil
}

// UserUseCase returns the identity use case instance.
func (c *Container) UserUseCase() (identityUsecase.UseCase, error) {
	c.userUseCaseInit.Do(func() {
		useCase, err := c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		c.userUseCase = useCase
	})
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// OrgUnitUseCase returns the hierarchy use case instance.
func (c *Container) OrgUnitUseCase() (orgUsecase.UseCase, error) {
	c.orgUnitUseCaseInit.Do(func() {
		useCase, err := c.initOrgUnitUseCase()
		if err != nil {
			c.initErrors["orgUnitUseCase"] = err
			return
		}
		c.orgUnitUseCase = useCase
	})
	if storedErr, exists := c.initErrors["orgUnitUseCase"]; exists {
		return nil, storedErr
	}
	return c.orgUnitUseCase, nil
}

// HTTPServer returns the API server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initUserRepository creates the user repository instance.
func (c *Container) initUserRepository() (identityUsecase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return identityRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return identityRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOrgUnitRepository creates the organisational unit repository instance.
func (c *Container) initOrgUnitRepository() (orgUsecase.OrgUnitRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for org unit repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return orgRepository.NewMySQLOrgUnitRepository(db), nil
	case "postgres":
		return orgRepository.NewPostgreSQLOrgUnitRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initUserUseCase creates the identity use case with all its dependencies.
func (c *Container) initUserUseCase() (identityUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	orgRepo, err := c.OrgUnitRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get org unit repository for user use case: %w", err)
	}

	hasher, err := c.SecretHasher()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret hasher for user use case: %w", err)
	}

	tokens, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for user use case: %w", err)
	}

	return identityUsecase.NewUserUseCase(txManager, userRepo, orgRepo, hasher, tokens), nil
}

// initOrgUnitUseCase creates the hierarchy use case with all its dependencies.
func (c *Container) initOrgUnitUseCase() (orgUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for org unit use case: %w", err)
	}

	orgRepo, err := c.OrgUnitRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get org unit repository for org unit use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for org unit use case: %w", err)
	}

	useCase := orgUsecase.NewOrgUnitUseCase(txManager, orgRepo, userRepo)

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for org unit use case: %w", err)
	}

	businessMetrics := metrics.NewNoOpBusinessMetrics()
	if provider != nil {
		businessMetrics, err = metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to create business metrics for org unit use case: %w", err)
		}
	}

	return orgUsecase.NewOrgUnitUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initHTTPServer creates the API server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for http server: %w", err)
	}

	orgUnitUseCase, err := c.OrgUnitUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get org unit use case for http server: %w", err)
	}

	tokens, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for http server: %w", err)
	}

	routerConfig := http.RouterConfig{
		Tokens:         tokens,
		UserHandler:    identityHttp.NewUserHandler(userUseCase, logger),
		OrgUnitHandler: orgHttp.NewOrgUnitHandler(orgUnitUseCase, logger),

		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,

		RateLimitEnabled:        c.config.RateLimitEnabled,
		RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
		RateLimitBurst:          c.config.RateLimitBurst,

		RateLimitLoginEnabled:        c.config.RateLimitLoginEnabled,
		RateLimitLoginRequestsPerSec: c.config.RateLimitLoginRequestsPerSec,
		RateLimitLoginBurst:          c.config.RateLimitLoginBurst,

		MetricsNamespace: c.config.MetricsNamespace,
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}
	if provider != nil {
		routerConfig.MeterProvider = provider.MeterProvider()
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRoutes(routerConfig)

	return server, nil
}

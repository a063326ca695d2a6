// Package http provides the API server, route registration and HTTP middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/jediahjireh/credential-management/internal/auth"
	identitydomain "github.com/jediahjireh/credential-management/internal/identity/domain"
	identityhttp "github.com/jediahjireh/credential-management/internal/identity/http"
	"github.com/jediahjireh/credential-management/internal/metrics"
	orghttp "github.com/jediahjireh/credential-management/internal/org/http"
)

// RouterConfig holds everything needed to build the API routes.
type RouterConfig struct {
	Tokens         auth.TokenService
	UserHandler    *identityhttp.UserHandler
	OrgUnitHandler *orghttp.OrgUnitHandler

	CORSEnabled      bool
	CORSAllowOrigins string

	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	RateLimitLoginEnabled        bool
	RateLimitLoginRequestsPerSec float64
	RateLimitLoginBurst          int

	MeterProvider    metric.MeterProvider
	MetricsNamespace string
}

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new API server. The database handle is only used by the
// readiness endpoint and may be nil in tests.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRoutes builds the router and registers all API routes.
func (s *Server) SetupRoutes(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MeterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	// Login and register are the only unauthenticated endpoints. They get an
	// IP-keyed rate limit since there is no identity to key on yet.
	public := router.Group("/api/user")
	if cfg.RateLimitLoginEnabled {
		public.Use(IPRateLimitMiddleware(cfg.RateLimitLoginRequestsPerSec, cfg.RateLimitLoginBurst, s.logger))
	}
	public.POST("/login", cfg.UserHandler.Login)
	public.POST("/register", cfg.UserHandler.Register)

	authenticated := router.Group("/api")
	authenticated.Use(auth.Authenticate(cfg.Tokens))
	if cfg.RateLimitEnabled {
		authenticated.Use(UserRateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	users := authenticated.Group("/user")
	users.GET("/users", cfg.UserHandler.ListUsers)
	users.PUT("/change-role", auth.RequireRoles(identitydomain.RoleAdmin), cfg.UserHandler.ChangeRole)

	ou := authenticated.Group("/ou")
	ou.GET("/organisational-units", cfg.OrgUnitHandler.List)
	ou.POST("/add-credential", cfg.OrgUnitHandler.AddCredential)
	ou.PUT("/update-credentials",
		auth.RequireRoles(identitydomain.RoleManagement, identitydomain.RoleAdmin),
		cfg.OrgUnitHandler.UpdateCredentials)
	ou.PUT("/assign-ou", auth.RequireRoles(identitydomain.RoleAdmin), cfg.OrgUnitHandler.AssignOU)
	ou.PUT("/unassign-ou", auth.RequireRoles(identitydomain.RoleAdmin), cfg.OrgUnitHandler.UnassignOU)
	ou.PUT("/assign-division", auth.RequireRoles(identitydomain.RoleAdmin), cfg.OrgUnitHandler.AssignDivision)
	ou.PUT("/unassign-division", auth.RequireRoles(identitydomain.RoleAdmin), cfg.OrgUnitHandler.UnassignDivision)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking the
// database connection.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

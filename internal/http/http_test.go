package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jediahjireh/credential-management/internal/auth"
	identitydomain "github.com/jediahjireh/credential-management/internal/identity/domain"
	identityhttp "github.com/jediahjireh/credential-management/internal/identity/http"
	identityusecase "github.com/jediahjireh/credential-management/internal/identity/usecase"
	orgdomain "github.com/jediahjireh/credential-management/internal/org/domain"
	orghttp "github.com/jediahjireh/credential-management/internal/org/http"
	orgusecase "github.com/jediahjireh/credential-management/internal/org/usecase"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// createTestServer creates a test server with a discarding logger.
func createTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(nil, "localhost", 8080, logger)
}

// stubUserUseCase satisfies the identity use case interface for routing tests.
type stubUserUseCase struct{}

func (s *stubUserUseCase) Register(ctx context.Context, input identityusecase.RegisterInput) (*identityusecase.RegisterResult, error) {
	return &identityusecase.RegisterResult{Success: true, Message: "ok", Username: input.Username}, nil
}

func (s *stubUserUseCase) Login(ctx context.Context, input identityusecase.LoginInput) (*identityusecase.LoginResult, error) {
	return &identityusecase.LoginResult{Success: true, Message: "ok", Username: input.Username}, nil
}

func (s *stubUserUseCase) ChangeRole(ctx context.Context, input identityusecase.ChangeRoleInput) (*identityusecase.ChangeRoleResult, error) {
	return &identityusecase.ChangeRoleResult{Success: true, Message: "ok"}, nil
}

func (s *stubUserUseCase) ListUsers(ctx context.Context) (*identityusecase.UserListing, error) {
	return &identityusecase.UserListing{}, nil
}

// stubOrgUnitUseCase satisfies the org use case interface for routing tests.
type stubOrgUnitUseCase struct{}

func (s *stubOrgUnitUseCase) List(ctx context.Context) ([]*orgdomain.OrganisationalUnit, error) {
	return nil, nil
}

func (s *stubOrgUnitUseCase) CreateOrgUnit(ctx context.Context, name string, divisionNames []string) (*orgdomain.OrganisationalUnit, error) {
	return &orgdomain.OrganisationalUnit{Name: name}, nil
}

func (s *stubOrgUnitUseCase) AddCredential(ctx context.Context, input orgusecase.AddCredentialInput) (*orgusecase.MutationResult, error) {
	return &orgusecase.MutationResult{Success: true, Message: "ok"}, nil
}

func (s *stubOrgUnitUseCase) UpdateCredentials(ctx context.Context, input orgusecase.UpdateCredentialsInput) (*orgusecase.MutationResult, error) {
	return &orgusecase.MutationResult{Success: true, Message: "ok"}, nil
}

func (s *stubOrgUnitUseCase) AssignOU(ctx context.Context, userName, ouName string) (*orgusecase.MutationResult, error) {
	return &orgusecase.MutationResult{Success: true, Message: "ok"}, nil
}

func (s *stubOrgUnitUseCase) UnassignOU(ctx context.Context, userName, ouName string) (*orgusecase.MutationResult, error) {
	return &orgusecase.MutationResult{Success: true, Message: "ok"}, nil
}

func (s *stubOrgUnitUseCase) AssignDivision(ctx context.Context, userName, divisionName, ouName string) (*orgusecase.MutationResult, error) {
	return &orgusecase.MutationResult{Success: true, Message: "ok"}, nil
}

func (s *stubOrgUnitUseCase) UnassignDivision(ctx context.Context, userName, divisionName, ouName string) (*orgusecase.MutationResult, error) {
	return &orgusecase.MutationResult{Success: true, Message: "ok"}, nil
}

// createRoutedServer creates a test server with the full route table registered.
func createRoutedServer(t *testing.T) (*Server, auth.TokenService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(nil, "localhost", 8080, logger)
	tokens := auth.NewTokenService("test-secret", time.Hour)

	server.SetupRoutes(RouterConfig{
		Tokens:         tokens,
		UserHandler:    identityhttp.NewUserHandler(&stubUserUseCase{}, logger),
		OrgUnitHandler: orghttp.NewOrgUnitHandler(&stubOrgUnitUseCase{}, logger),
	})

	return server, tokens
}

// TestHealthHandler tests the health check endpoint handler.
func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "healthy", response["status"])
}

// TestReadinessHandler_NotReady_NilDB tests the readiness endpoint when DB is nil.
func TestReadinessHandler_NotReady_NilDB(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "not_ready", response["status"])

	components, ok := response["components"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "error", components["database"])
}

// TestCustomLoggerMiddleware tests the custom logging middleware.
func TestCustomLoggerMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "test", response["message"])
}

// TestRecoveryMiddleware tests Gin's built-in recovery middleware.
func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)

	// Should not panic - Recovery middleware catches it
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestRequestIDMiddleware_HeaderPresent verifies X-Request-Id is set on responses.
func TestRequestIDMiddleware_HeaderPresent(t *testing.T) {
	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	require.NotEmpty(t, requestID)

	_, err := uuid.Parse(requestID)
	assert.NoError(t, err)
}

// TestRouter_HealthEndpoint tests the health endpoint through the full router.
func TestRouter_HealthEndpoint(t *testing.T) {
	server, _ := createRoutedServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// TestRouter_NotFoundEndpoint tests 404 handling.
func TestRouter_NotFoundEndpoint(t *testing.T) {
	server, _ := createRoutedServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestRouter_ProtectedEndpointsRequireToken verifies every authenticated route
// rejects requests without a bearer token.
func TestRouter_ProtectedEndpointsRequireToken(t *testing.T) {
	server, _ := createRoutedServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/user/users"},
		{http.MethodPut, "/api/user/change-role"},
		{http.MethodGet, "/api/ou/organisational-units"},
		{http.MethodPost, "/api/ou/add-credential"},
		{http.MethodPut, "/api/ou/update-credentials"},
		{http.MethodPut, "/api/ou/assign-ou"},
		{http.MethodPut, "/api/ou/unassign-ou"},
		{http.MethodPut, "/api/ou/assign-division"},
		{http.MethodPut, "/api/ou/unassign-division"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(route.method, route.path, nil)
			server.GetHandler().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

// TestRouter_RoleRestrictedEndpoints verifies admin-only and management-only
// routes reject tokens with insufficient roles.
func TestRouter_RoleRestrictedEndpoints(t *testing.T) {
	server, tokens := createRoutedServer(t)

	normalToken, err := tokens.Issue("eve", identitydomain.RoleNormal)
	require.NoError(t, err)
	managementToken, err := tokens.Issue("mallory", identitydomain.RoleManagement)
	require.NoError(t, err)
	adminToken, err := tokens.Issue("alice", identitydomain.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		expected int
	}{
		{"normal cannot change roles", http.MethodPut, "/api/user/change-role", normalToken, http.StatusForbidden},
		{"management cannot change roles", http.MethodPut, "/api/user/change-role", managementToken, http.StatusForbidden},
		{"normal cannot update credentials", http.MethodPut, "/api/ou/update-credentials", normalToken, http.StatusForbidden},
		{"management can update credentials", http.MethodPut, "/api/ou/update-credentials", managementToken, http.StatusOK},
		{"management cannot assign", http.MethodPut, "/api/ou/assign-ou", managementToken, http.StatusForbidden},
		{"admin can assign", http.MethodPut, "/api/ou/assign-ou", adminToken, http.StatusOK},
		{"normal can add credentials", http.MethodPost, "/api/ou/add-credential", normalToken, http.StatusOK},
		{"normal can list org units", http.MethodGet, "/api/ou/organisational-units", normalToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.method != http.MethodGet {
				body = strings.NewReader("{}")
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			req.Header.Set("Content-Type", "application/json")
			server.GetHandler().ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

// TestServer_ShutdownGracefully tests graceful server shutdown.
func TestServer_ShutdownGracefully(t *testing.T) {
	server, _ := createRoutedServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	err := server.Shutdown(shutdownCtx)
	assert.NoError(t, err)

	select {
	case err := <-errChan:
		t.Fatalf("server startup failed: %v", err)
	default:
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "https://app.example.com", []string{"https://app.example.com"}},
		{"multiple with spaces", "https://a.example.com, https://b.example.com", []string{"https://a.example.com", "https://b.example.com"}},
		{"trailing comma", "https://a.example.com,", []string{"https://a.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseOrigins(tt.input))
		})
	}
}

func TestIPRateLimitMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(IPRateLimitMiddleware(1, 2, logger))
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	// Burst of 2 allowed, third request rejected
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestUserRateLimitMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(
			auth.WithClaim(c.Request.Context(), auth.Claim{Username: "alice", Role: identitydomain.RoleNormal}),
		)
		c.Next()
	})
	router.Use(UserRateLimitMiddleware(1, 1, logger))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// TestUserRateLimitMiddleware_MissingClaim rejects requests that somehow reach
// the limiter without an authenticated user.
func TestUserRateLimitMiddleware_MissingClaim(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(UserRateLimitMiddleware(1, 1, logger))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

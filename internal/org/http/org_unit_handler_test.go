package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jediahjireh/credential-management/internal/errors"
	"github.com/jediahjireh/credential-management/internal/org/domain"
	"github.com/jediahjireh/credential-management/internal/org/http/dto"
	"github.com/jediahjireh/credential-management/internal/org/usecase"
)

// MockOrgUnitUseCase is a mock implementation of usecase.UseCase
type MockOrgUnitUseCase struct {
	mock.Mock
}

func (m *MockOrgUnitUseCase) List(ctx context.Context) ([]*domain.OrganisationalUnit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OrganisationalUnit), args.Error(1)
}

func (m *MockOrgUnitUseCase) CreateOrgUnit(
	ctx context.Context,
	name string,
	divisionNames []string,
) (*domain.OrganisationalUnit, error) {
	args := m.Called(ctx, name, divisionNames)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrganisationalUnit), args.Error(1)
}

func (m *MockOrgUnitUseCase) AddCredential(
	ctx context.Context,
	input usecase.AddCredentialInput,
) (*usecase.MutationResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MutationResult), args.Error(1)
}

func (m *MockOrgUnitUseCase) UpdateCredentials(
	ctx context.Context,
	input usecase.UpdateCredentialsInput,
) (*usecase.MutationResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MutationResult), args.Error(1)
}

func (m *MockOrgUnitUseCase) AssignOU(ctx context.Context, userName, ouName string) (*usecase.MutationResult, error) {
	args := m.Called(ctx, userName, ouName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MutationResult), args.Error(1)
}

func (m *MockOrgUnitUseCase) UnassignOU(ctx context.Context, userName, ouName string) (*usecase.MutationResult, error) {
	args := m.Called(ctx, userName, ouName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MutationResult), args.Error(1)
}

func (m *MockOrgUnitUseCase) AssignDivision(
	ctx context.Context,
	userName, divisionName, ouName string,
) (*usecase.MutationResult, error) {
	args := m.Called(ctx, userName, divisionName, ouName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MutationResult), args.Error(1)
}

func (m *MockOrgUnitUseCase) UnassignDivision(
	ctx context.Context,
	userName, divisionName, ouName string,
) (*usecase.MutationResult, error) {
	args := m.Called(ctx, userName, divisionName, ouName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MutationResult), args.Error(1)
}

// setupTestHandler creates a test handler with mocked dependencies.
func setupTestHandler(t *testing.T) (*OrgUnitHandler, *MockOrgUnitUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &MockOrgUnitUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewOrgUnitHandler(mockUseCase, logger)
	return handler, mockUseCase
}

func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func TestOrgUnitHandler_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		orgUnits := []*domain.OrganisationalUnit{
			{
				Name:  "Engineering",
				Users: []string{"alice"},
				Divisions: []domain.Division{
					{
						Name:  "Platform",
						Users: []string{"alice"},
						Credentials: []domain.Credential{
							{Name: "registry", Username: "svc", Email: "svc@example.com", Password: "secret"},
						},
					},
				},
			},
		}

		mockUseCase.On("List", mock.Anything).Return(orgUnits, nil)

		c, w := createTestContext(http.MethodGet, "/api/ou/organisational-units", nil)
		handler.List(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListOrgUnitsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(
			t,
			"Success! Your JWT was verified and you have access to these organisational units.",
			response.Message,
		)
		require.Len(t, response.OrganisationalUnits, 1)
		assert.Equal(t, "Engineering", response.OrganisationalUnits[0].OuName)
		require.Len(t, response.OrganisationalUnits[0].Divisions, 1)
		division := response.OrganisationalUnits[0].Divisions[0]
		assert.Equal(t, "Platform", division.DivisionName)
		require.Len(t, division.Credentials, 1)
		assert.Equal(t, "registry", division.Credentials[0].CredentialName)
		assert.Equal(t, "secret", division.Credentials[0].CredentialPassword)
	})

	t.Run("internal error hidden behind 401", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("List", mock.Anything).Return(nil, apperrors.New("database exploded"))

		c, w := createTestContext(http.MethodGet, "/api/ou/organisational-units", nil)
		handler.List(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Error! Unauthorised request.","success":false}`, w.Body.String())
	})
}

func TestOrgUnitHandler_AddCredential(t *testing.T) {
	request := dto.AddCredentialRequest{
		InputOuName:             "Engineering",
		InputDivisionName:       "Platform",
		InputCredentialName:     "registry",
		InputCredentialUsername: "svc",
		InputCredentialEmail:    "svc@example.com",
		InputCredentialPassword: "secret",
	}

	t.Run("success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("AddCredential", mock.Anything, dto.ToAddCredentialInput(request)).
			Return(&usecase.MutationResult{Success: true, Message: "Success! New Credential 'registry' added to the Platform division of Organisational Unit: Engineering."}, nil)

		c, w := createTestContext(http.MethodPost, "/api/ou/add-credential", request)
		handler.AddCredential(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(
			t,
			`{"message":"Success! New Credential 'registry' added to the Platform division of Organisational Unit: Engineering.","success":true}`,
			w.Body.String(),
		)
	})

	t.Run("missing organisational unit maps to 404", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("AddCredential", mock.Anything, mock.Anything).
			Return(nil, apperrors.WithMessage(apperrors.ErrNotFound, "Organisational Unit: Engineering not found."))

		c, w := createTestContext(http.MethodPost, "/api/ou/add-credential", request)
		handler.AddCredential(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"Organisational Unit: Engineering not found.","success":false}`, w.Body.String())
	})

	t.Run("duplicate name maps to 400", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("AddCredential", mock.Anything, mock.Anything).
			Return(nil, apperrors.WithMessage(
				apperrors.ErrConflict,
				"The credential name must be unique within the division. 'registry' already exists within the Platform division.",
			))

		c, w := createTestContext(http.MethodPost, "/api/ou/add-credential", request)
		handler.AddCredential(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req := httptest.NewRequest(http.MethodPost, "/api/ou/add-credential", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req

		handler.AddCredential(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrgUnitHandler_UpdateCredentials(t *testing.T) {
	t.Run("credential miss is a 200 failed outcome", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("UpdateCredentials", mock.Anything, mock.Anything).
			Return(&usecase.MutationResult{
				Message: "Failed! Credential 'ghost' not found in the Platform division of Organisational Unit: Engineering.",
			}, nil)

		request := dto.UpdateCredentialsRequest{
			InputOuName:         "Engineering",
			InputDivisionName:   "Platform",
			InputCredentialName: "ghost",
		}
		c, w := createTestContext(http.MethodPut, "/api/ou/update-credentials", request)
		handler.UpdateCredentials(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(
			t,
			`{"message":"Failed! Credential 'ghost' not found in the Platform division of Organisational Unit: Engineering.","success":false}`,
			w.Body.String(),
		)
	})
}

func TestOrgUnitHandler_AssignOU(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("AssignOU", mock.Anything, "carol", "Engineering").
			Return(&usecase.MutationResult{
				Success: true,
				Message: "Success! carol has been assigned to Organisational Unit: Engineering.",
			}, nil)

		request := dto.AssignOURequest{UserName: "carol", OuName: "Engineering"}
		c, w := createTestContext(http.MethodPut, "/api/ou/assign-ou", request)
		handler.AssignOU(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown user maps to 404", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("AssignOU", mock.Anything, "ghost", "Engineering").
			Return(nil, apperrors.WithMessage(apperrors.ErrNotFound, "User: ghost not found."))

		request := dto.AssignOURequest{UserName: "ghost", OuName: "Engineering"}
		c, w := createTestContext(http.MethodPut, "/api/ou/assign-ou", request)
		handler.AssignOU(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"User: ghost not found.","success":false}`, w.Body.String())
	})
}

func TestOrgUnitHandler_UnassignDivision(t *testing.T) {
	handler, mockUseCase := setupTestHandler(t)

	mockUseCase.On("UnassignDivision", mock.Anything, "bob", "Platform", "Engineering").
		Return(nil, apperrors.WithMessage(
			apperrors.ErrConflict,
			"User bob is not assigned to the Platform division in Organisational Unit: Engineering.",
		))

	request := dto.AssignDivisionRequest{UserName: "bob", DivisionName: "Platform", OuName: "Engineering"}
	c, w := createTestContext(http.MethodPut, "/api/ou/unassign-division", request)
	handler.UnassignDivision(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(
		t,
		`{"message":"User bob is not assigned to the Platform division in Organisational Unit: Engineering.","success":false}`,
		w.Body.String(),
	)
}

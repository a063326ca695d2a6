// Package http provides HTTP handlers for identity operations: login,
// registration, role changes and the role-grouped user listing.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jediahjireh/credential-management/internal/auth"
	"github.com/jediahjireh/credential-management/internal/httputil"
	"github.com/jediahjireh/credential-management/internal/identity/http/dto"
	"github.com/jediahjireh/credential-management/internal/identity/usecase"
)

// UserHandler handles identity-related HTTP requests.
type UserHandler struct {
	userUseCase usecase.UseCase
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userUseCase usecase.UseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// Login handles POST /api/user/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err, h.logger)
		return
	}

	result, err := h.userUseCase.Login(c.Request.Context(), dto.ToLoginInput(req))
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToLoginResponse(result))
}

// Register handles POST /api/user/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err, h.logger)
		return
	}

	result, err := h.userUseCase.Register(c.Request.Context(), dto.ToRegisterInput(req))
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToRegisterResponse(result))
}

// ChangeRole handles PUT /api/user/change-role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req dto.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err, h.logger)
		return
	}

	result, err := h.userUseCase.ChangeRole(c.Request.Context(), dto.ToChangeRoleInput(req))
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	if !result.Success {
		httputil.Failed(c, result.Message)
		return
	}
	httputil.Success(c, result.Message)
}

// ListUsers handles GET /api/user/users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	claim, ok := auth.GetClaim(c.Request.Context())
	if !ok {
		httputil.HandleError(c, fmt.Errorf("missing identity claim"), h.logger)
		return
	}

	listing, err := h.userUseCase.ListUsers(c.Request.Context())
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ListUsersResponse{
		Message: fmt.Sprintf(
			"Success! Your JWT was verified and you have access to the users collection, %s.",
			claim.Username,
		),
		Username:   claim.Username,
		Role:       string(claim.Role),
		Normal:     dto.ToUserDetailsResponses(listing.Normal),
		Management: dto.ToUserDetailsResponses(listing.Management),
		Admin:      dto.ToUserDetailsResponses(listing.Admin),
	})
}

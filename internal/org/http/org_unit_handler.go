// Package http provides HTTP handlers for the organisational hierarchy:
// listing, credential management and user assignment.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jediahjireh/credential-management/internal/httputil"
	"github.com/jediahjireh/credential-management/internal/org/http/dto"
	"github.com/jediahjireh/credential-management/internal/org/usecase"
)

// OrgUnitHandler handles hierarchy-related HTTP requests.
type OrgUnitHandler struct {
	orgUseCase usecase.UseCase
	logger     *slog.Logger
}

// NewOrgUnitHandler creates a new OrgUnitHandler.
func NewOrgUnitHandler(orgUseCase usecase.UseCase, logger *slog.Logger) *OrgUnitHandler {
	return &OrgUnitHandler{
		orgUseCase: orgUseCase,
		logger:     logger,
	}
}

// List handles GET /api/ou/organisational-units.
func (h *OrgUnitHandler) List(c *gin.Context) {
	orgUnits, err := h.orgUseCase.List(c.Request.Context())
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ListOrgUnitsResponse{
		Message:             "Success! Your JWT was verified and you have access to these organisational units.",
		OrganisationalUnits: dto.ToOrgUnitResponses(orgUnits),
	})
}

// AddCredential handles POST /api/ou/add-credential.
func (h *OrgUnitHandler) AddCredential(c *gin.Context) {
	var req dto.AddCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err, h.logger)
		return
	}

	result, err := h.orgUseCase.AddCredential(c.Request.Context(), dto.ToAddCredentialInput(req))
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	h.writeResult(c, result)
}

// UpdateCredentials handles PUT /api/ou/update-credentials.
func (h *OrgUnitHandler) UpdateCredentials(c *gin.Context) {
	var req dto.UpdateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err, h.logger)
		return
	}

	result, err := h.orgUseCase.UpdateCredentials(c.Request.Context(), dto.ToUpdateCredentialsInput(req))
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	h.writeResult(c, result)
}

// AssignOU handles PUT /api/ou/assign-ou.
func (h *OrgUnitHandler) AssignOU(c *gin.Context) {
	var req dto.AssignOURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err, h.logger)
		return
	}

	result, err := h.orgUseCase.AssignOU(c.Request.Context(), req.UserName, req.OuName)
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	h.writeResult(c, result)
}

// UnassignOU handles PUT /api/ou/unassign-ou.
func (h *OrgUnitHandler) UnassignOU(c *gin.Context) {
	var req dto.AssignOURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err, h.logger)
		return
	}

	result, err := h.orgUseCase.UnassignOU(c.Request.Context(), req.UserName, req.OuName)
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	h.writeResult(c, result)
}

// AssignDivision handles PUT /api/ou/assign-division.
func (h *OrgUnitHandler) AssignDivision(c *gin.Context) {
	var req dto.AssignDivisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err, h.logger)
		return
	}

	result, err := h.orgUseCase.AssignDivision(c.Request.Context(), req.UserName, req.DivisionName, req.OuName)
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	h.writeResult(c, result)
}

// UnassignDivision handles PUT /api/ou/unassign-division.
func (h *OrgUnitHandler) UnassignDivision(c *gin.Context) {
	var req dto.AssignDivisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err, h.logger)
		return
	}

	result, err := h.orgUseCase.UnassignDivision(c.Request.Context(), req.UserName, req.DivisionName, req.OuName)
	if err != nil {
		httputil.HandleError(c, err, h.logger)
		return
	}

	h.writeResult(c, result)
}

func (h *OrgUnitHandler) writeResult(c *gin.Context, result *usecase.MutationResult) {
	if !result.Success {
		httputil.Failed(c, result.Message)
		return
	}
	httputil.Success(c, result.Message)
}

// Package httputil provides response envelopes and domain-error translation for
// the HTTP layer. Every endpoint answers with the {success, message} envelope the
// frontend contract expects.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jediahjireh/credential-management/internal/errors"
)

// Response is the base envelope for API responses.
type Response struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Success writes a 200 response with a success envelope.
func Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Message: message, Success: true})
}

// Failed writes a 200 response with a success:false envelope. Used for outcomes
// the contract treats as "failed but not an error", such as a credential-update
// miss or an invalid login.
func Failed(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Message: message, Success: false})
}

// HandleError maps a domain error to the HTTP status convention and writes a
// failure envelope. Known categories surface their own message; anything else is
// reported as a vague unauthorized failure (information hiding) and logged in
// full server-side.
//
// Status convention: 404 missing OU/Division/User, 400 conflict and invalid
// input, 401 authentication failures and internal errors, 403 insufficient role.
func HandleError(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var message string

	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = err.Error()

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusBadRequest
		message = err.Error()

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()

	case apperrors.Is(err, apperrors.ErrForbidden):
		statusCode = http.StatusForbidden
		message = "Access forbidden: You do not have permission to access this resource."

	case apperrors.Is(err, apperrors.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = "Error! Unauthorised request."

	default:
		// Internal errors are deliberately reported as a vague authorization
		// failure; the full chain goes to the server log only.
		statusCode = http.StatusUnauthorized
		message = "Error! Unauthorised request."
	}

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, Response{Message: message, Success: false})
}

// HandleBadRequest writes a 400 response for malformed JSON or parameters.
func HandleBadRequest(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, Response{Message: err.Error(), Success: false})
}

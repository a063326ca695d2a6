package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jediahjireh/credential-management/internal/httputil"
	"github.com/jediahjireh/credential-management/internal/identity/domain"
)

// Authenticate verifies the bearer token on the request and stores the
// resulting claim on the request context. Requests without a valid token
// are rejected with 401.
func Authenticate(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
				Message: "Error! Unauthorised request.",
				Success: false,
			})
			return
		}

		claim, err := tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
				Message: "Error! Unauthorised request.",
				Success: false,
			})
			return
		}

		c.Request = c.Request.WithContext(WithClaim(c.Request.Context(), claim))
		c.Next()
	}
}

// RequireRoles rejects with 403 any request whose authenticated role is not
// in the allowed set. It must run after Authenticate.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, ok := GetClaim(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
				Message: "Error! Unauthorised request.",
				Success: false,
			})
			return
		}

		for _, role := range roles {
			if claim.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
			Message: "Access forbidden: You do not have permission to access this resource.",
			Success: false,
		})
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

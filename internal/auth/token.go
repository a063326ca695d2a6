// Package auth provides JWT token issuance and verification along with the
// HTTP middleware that enforces authentication and role-based access.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/jediahjireh/credential-management/internal/errors"
	"github.com/jediahjireh/credential-management/internal/identity/domain"
)

// Claim carries the identity asserted by a verified token.
type Claim struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenService issues and verifies signed identity tokens.
type TokenService interface {
	Issue(username string, role domain.Role) (string, error)
	Verify(tokenString string) (Claim, error)
}

type jwtTokenService struct {
	secretKey  []byte
	expiration time.Duration
}

// NewTokenService creates a TokenService signing HS256 tokens with secretKey
// that expire after the given duration.
func NewTokenService(secretKey string, expiration time.Duration) TokenService {
	return &jwtTokenService{
		secretKey:  []byte(secretKey),
		expiration: expiration,
	}
}

func (s *jwtTokenService) Issue(username string, role domain.Role) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username: username,
		Role:     string(role),
	})

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign token")
	}

	return tokenString, nil
}

func (s *jwtTokenService) Verify(tokenString string) (Claim, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			return s.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return Claim{}, apperrors.WithMessage(apperrors.ErrUnauthorized, "invalid token: %v", err)
	}

	if !token.Valid {
		return Claim{}, apperrors.WithMessage(apperrors.ErrUnauthorized, "invalid token")
	}

	role := domain.Role(claims.Role)
	if !role.Valid() {
		return Claim{}, apperrors.WithMessage(apperrors.ErrUnauthorized, "invalid token role")
	}

	return Claim{Username: claims.Username, Role: role}, nil
}

package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/jediahjireh/credential-management/internal/errors"
)

// SecretHasher hashes and verifies user secrets using Argon2id.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encodedHash string) bool
}

type secretHasher struct {
	hasher *pwdhash.PasswordHasher
}

func (s *secretHasher) Hash(secret string) (string, error) {
	encodedHash, err := s.hasher.Hash([]byte(secret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}

	return encodedHash, nil
}

// Verify performs a constant-time comparison between a plain secret and its hash.
func (s *secretHasher) Verify(secret, encodedHash string) bool {
	ok, err := s.hasher.Verify([]byte(secret), encodedHash)
	if err != nil {
		return false
	}

	return ok
}

// NewSecretHasher creates a new SecretHasher using the interactive policy,
// which suits login-path hashing of user secrets.
func NewSecretHasher() (SecretHasher, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &secretHasher{hasher: hasher}, nil
}

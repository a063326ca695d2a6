package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrNotFound, "organisational unit lookup")
		assert.Error(t, err)
		assert.True(t, Is(err, ErrNotFound))
		assert.Equal(t, "organisational unit lookup: not found", err.Error())
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})
}

func TestWithMessage(t *testing.T) {
	t.Run("preserves sentinel chain", func(t *testing.T) {
		sentinel := Wrap(ErrNotFound, "division not found")
		err := WithMessage(sentinel, "Division: %s not found in the specified Organisational Unit.", "Finance")

		assert.True(t, Is(err, ErrNotFound))
		assert.True(t, Is(err, sentinel))
	})

	t.Run("error text is the message alone", func(t *testing.T) {
		err := WithMessage(ErrConflict, "User %s is already assigned to Organisational Unit: %s.", "bob", "Unit1")
		assert.Equal(t, "User bob is already assigned to Organisational Unit: Unit1.", err.Error())
	})

	t.Run("returns nil for nil sentinel", func(t *testing.T) {
		assert.NoError(t, WithMessage(nil, "ignored"))
	})
}

func TestCategories(t *testing.T) {
	categories := []error{ErrNotFound, ErrConflict, ErrInvalidInput, ErrUnauthorized, ErrForbidden}
	for _, category := range categories {
		assert.True(t, Is(category, category))
	}
	assert.False(t, Is(ErrNotFound, ErrConflict))
}

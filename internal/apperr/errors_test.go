package apperr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpecificErrorsWrapKinds(t *testing.T) {
	assert.ErrorIs(t, ErrItemNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrBorrowerNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrLoanNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrItemUnavailable, ErrConflict)
	assert.ErrorIs(t, ErrDuplicateContact, ErrConflict)
	assert.NotErrorIs(t, ErrItemUnavailable, ErrNotFound)
}

func TestStorage_PassesKnownErrorsThrough(t *testing.T) {
	assert.Same(t, ErrLoanNotFound, Storage(ErrLoanNotFound))
	assert.NoError(t, Storage(nil))

	err := Storage(context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvalid(t *testing.T) {
	err := Invalid("id must be positive")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "id must be positive")

	wrapped := InvalidErr(errors.New("title: cannot be blank"))
	assert.ErrorIs(t, wrapped, ErrInvalid)
	assert.Contains(t, wrapped.Error(), "title: cannot be blank")
	assert.NoError(t, InvalidErr(nil))
}

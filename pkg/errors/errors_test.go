package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinel(t *testing.T) {
	err := Wrapf(ErrNoData, "option chain %s", "RELIANCE")
	assert.True(t, Is(err, ErrNoData))
	assert.Equal(t, "option chain RELIANCE: no market data", err.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestMultiError(t *testing.T) {
	var m MultiError
	assert.Nil(t, m.ToError())

	m.Add(nil)
	m.Add(fmt.Errorf("fetch: %w", ErrSessionExpired))
	m.Add(ErrTimeout)

	err := m.ToError()
	assert.Error(t, err)
	assert.True(t, Is(err, ErrSessionExpired))
	assert.True(t, Is(err, ErrTimeout))
	assert.Contains(t, err.Error(), "multiple errors (2)")
}

func TestValidationErrorMatchesInvalidInput(t *testing.T) {
	err := NewValidationError("scheduler.workers", "must be between 1 and 10", 0)
	assert.True(t, Is(err, ErrInvalidInput))

	var ve *ValidationError
	assert.True(t, As(Wrap(err, "config"), &ve))
	assert.Equal(t, "scheduler.workers", ve.Field)
}

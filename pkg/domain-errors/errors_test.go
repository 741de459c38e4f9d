package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeUnavailable, "store unavailable")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Equal(t, "store unavailable: connection reset", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := New(CodeInvariantViolation, "name is required")
	outer := Wrap(inner, CodeValidation, "invalid owner")

	assert.True(t, HasCode(outer, CodeValidation))
	assert.True(t, HasCode(outer, CodeInvariantViolation))
	assert.False(t, HasCode(outer, CodeConflict))

	assert.True(t, Is(outer, CodeValidation))
	assert.False(t, Is(outer, CodeInvariantViolation))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("load: %w", New(CodeNotFound, "missing"))))
}

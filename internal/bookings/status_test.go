package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusLifecycle(t *testing.T) {
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusConfirmed))

	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())

	assert.True(t, StatusConfirmed.HoldsSeats())
	assert.False(t, StatusCancelled.HoldsSeats())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, s)

	_, err = ParseStatus("cancelled")
	assert.Error(t, err)
	_, err = ParseStatus("PENDING")
	assert.Error(t, err)
}

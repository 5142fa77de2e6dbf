package points

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	assert.Equal(t, "central-bus-stand-2100", Slug("Central Bus Stand", "21:00"))
	assert.Equal(t, "m-g-road-0615", Slug("  M.G. Road ", "06:15"))
	assert.Equal(t, "depot", Slug("Depot", ""))
	assert.Equal(t, "2300", Slug("!!!", "23:00"))
}

func TestValidTime(t *testing.T) {
	for _, ok := range []string{"00:00", "09:05", "21:30", "23:59"} {
		assert.True(t, ValidTime(ok), ok)
	}
	for _, bad := range []string{"", "9:05", "24:00", "12:60", "12-30", "12:30pm"} {
		assert.False(t, ValidTime(bad), bad)
	}
}

func TestFallbackPoints(t *testing.T) {
	busID := uuid.New()

	boarding := FallbackPoints(busID, KindBoarding)
	require.Len(t, boarding, 3)
	assert.Equal(t, "Central Bus Stand", boarding[0].Name)
	assert.Equal(t, "21:00", boarding[0].Time)
	assert.Equal(t, "central-bus-stand-2100", boarding[0].Code)

	dropping := FallbackPoints(busID, KindDropping)
	require.Len(t, dropping, 3)
	assert.Equal(t, "Main Bus Terminal", dropping[0].Name)
	assert.Equal(t, KindDropping, dropping[2].Kind)

	again := FallbackPoints(busID, KindBoarding)
	for i := range boarding {
		assert.Equal(t, boarding[i].ID, again[i].ID, "ids must be stable across calls")
		assert.NotEqual(t, boarding[i].ID, dropping[i].ID)
	}

	other := FallbackPoints(uuid.New(), KindBoarding)
	assert.NotEqual(t, boarding[0].ID, other[0].ID)
}

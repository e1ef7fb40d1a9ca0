package icron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTriggerInfo(t *testing.T) {
	ref := time.Date(2026, 5, 4, 10, 17, 30, 0, time.UTC)

	info, err := GetTriggerInfo("*/10 * * * *", ref)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 5, 4, 10, 20, 0, 0, time.UTC), info.Next)
	assert.Equal(t, time.Date(2026, 5, 4, 10, 10, 0, 0, time.UTC), info.Last)
	assert.Equal(t, 7*time.Minute+30*time.Second, info.TimeSinceLast)
	assert.Equal(t, 2*time.Minute+30*time.Second, info.TimeUntilNext)
	assert.Equal(t, "*/10 * * * *", info.Expression)
}

func TestGetTriggerInfo_Daily(t *testing.T) {
	ref := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	info, err := GetTriggerInfo("30 2 * * *", ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 5, 2, 30, 0, 0, time.UTC), info.Next)
	assert.Equal(t, time.Date(2026, 5, 4, 2, 30, 0, 0, time.UTC), info.Last)
}

func TestGetTriggerInfo_Invalid(t *testing.T) {
	_, err := GetTriggerInfo("not a schedule", time.Now())
	assert.Error(t, err)
}

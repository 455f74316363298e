package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBounds_TenantTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC on Aug 31 is still Aug 30 in New York
	at := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	from, to := DayBounds(at, ny)

	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, ny), from)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, ny), to)
	assert.Equal(t, "2026-08-30", dayKey(from))
}

func TestDayBounds_HalfOpenInterval(t *testing.T) {
	from, to := DayBounds(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), time.UTC)

	assert.False(t, from.After(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24*time.Hour, to.Sub(from))
}

func TestMonthBounds(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC on Sep 1 is still Aug 31 in New York
	at := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)
	from, to := MonthBounds(at, ny)

	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, ny), from)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, ny), to)
	assert.Equal(t, "2026-08", monthKey(from))
}

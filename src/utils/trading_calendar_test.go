package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fallbackCalendar avoids depending on exchange holiday data: Mon-Fri,
// 09:30-16:00 New York.
func fallbackCalendar(t *testing.T) *TradingCalendar {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return &TradingCalendar{Fallback: true, Timezone: loc}
}

func nyTime(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return ts
}

// -----------------------------------------------------------------------------

func TestIsTradingDay_Fallback(t *testing.T) {
	t.Parallel()

	tc := fallbackCalendar(t)

	// 2026-08-26 is a Wednesday, 2026-08-29 a Saturday.
	assert.True(t, tc.IsTradingDay(nyTime(t, "2026-08-26 12:00")))
	assert.False(t, tc.IsTradingDay(nyTime(t, "2026-08-29 12:00")))
	assert.False(t, tc.IsTradingDay(nyTime(t, "2026-08-30 12:00")))
}

func TestIsOpen_Fallback(t *testing.T) {
	t.Parallel()

	tc := fallbackCalendar(t)

	assert.False(t, tc.IsOpen(nyTime(t, "2026-08-26 09:29")))
	assert.True(t, tc.IsOpen(nyTime(t, "2026-08-26 09:30")))
	assert.True(t, tc.IsOpen(nyTime(t, "2026-08-26 15:59")))
	assert.False(t, tc.IsOpen(nyTime(t, "2026-08-26 16:00")))
	assert.False(t, tc.IsOpen(nyTime(t, "2026-08-29 12:00"))) // Saturday
}

func TestIsPreMarket_Fallback(t *testing.T) {
	t.Parallel()

	tc := fallbackCalendar(t)

	assert.True(t, tc.IsPreMarket(nyTime(t, "2026-08-26 07:00")))
	assert.True(t, tc.IsPreMarket(nyTime(t, "2026-08-26 09:29")))
	assert.False(t, tc.IsPreMarket(nyTime(t, "2026-08-26 09:30")))
	assert.False(t, tc.IsPreMarket(nyTime(t, "2026-08-26 12:00")))
	// Weekends are never pre-market.
	assert.False(t, tc.IsPreMarket(nyTime(t, "2026-08-29 07:00")))
}

func TestNewTradingDay(t *testing.T) {
	t.Parallel()

	tc := fallbackCalendar(t)

	// First observation establishes the baseline.
	assert.False(t, tc.NewTradingDay(nyTime(t, "2026-08-26 09:30")))

	// Same day, later events.
	assert.False(t, tc.NewTradingDay(nyTime(t, "2026-08-26 15:00")))

	// Next day flips exactly once.
	assert.True(t, tc.NewTradingDay(nyTime(t, "2026-08-27 04:05")))
	assert.False(t, tc.NewTradingDay(nyTime(t, "2026-08-27 09:30")))
}

func TestGetCalendar_DefaultsToXNYS(t *testing.T) {
	t.Parallel()

	tc := GetCalendar("")
	require.NotNil(t, tc)
	assert.NotNil(t, tc.Timezone)

	// Unknown MICs still produce a usable calendar.
	tc = GetCalendar("zzzz")
	require.NotNil(t, tc)
}

package utils

import (
	"time"

	"github.com/scmhub/calendar"
)

// -----------------------------------------------------------------------------
// TradingCalendar answers session questions for the pipeline: is the market
// open, are we in pre-market, and has a new trading day started since the
// last observed event. Backed by scmhub/calendar (MIC codes, ISO 10383) with
// a simple Mon-Fri 09:30-16:00 fallback when the MIC is unknown.
// -----------------------------------------------------------------------------

type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location

	lastDay string // YYYY-MM-DD of the last event seen
}

// -----------------------------------------------------------------------------

// GetCalendar loads the calendar for a MIC code, defaulting to xnys.
func GetCalendar(mic string) *TradingCalendar {
	if mic == "" {
		mic = "xnys"
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpen checks whether the market is open at t (regular session).
func (tc *TradingCalendar) IsOpen(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		hour := t.Hour()
		minute := t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return tc.Calendar.IsOpen(t)
}

// -----------------------------------------------------------------------------

// IsPreMarket reports whether t is on a trading day before the regular open.
func (tc *TradingCalendar) IsPreMarket(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}
	if !tc.IsTradingDay(t) {
		return false
	}
	if tc.IsOpen(t) {
		return false
	}
	hour := t.Hour()
	minute := t.Minute()
	return hour < 9 || (hour == 9 && minute < 30)
}

// -----------------------------------------------------------------------------

// NewTradingDay reports whether t falls on a different calendar day than the
// previous call, in the exchange's timezone. The first call establishes the
// baseline and returns false.
func (tc *TradingCalendar) NewTradingDay(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}
	day := t.Format("2006-01-02")

	if tc.lastDay == "" {
		tc.lastDay = day
		return false
	}
	if day != tc.lastDay {
		tc.lastDay = day
		return true
	}
	return false
}

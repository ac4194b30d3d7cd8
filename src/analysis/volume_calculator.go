package analysis

import (
	"market-pipeline/src/analysis/core"
	"market-pipeline/src/models"
	"market-pipeline/src/store"
)

// -----------------------------------------------------------------------------
// VolumeCalculator derives relative volume, profile classification and the
// buy-pressure estimate from the symbol data store.
//
// Relative volume compares the latest per-minute rate to a trailing multi-bar
// average. That is a deliberate "how unusual is current activity" proxy, not
// a literal volume ratio; consumers depend on this scale.
// -----------------------------------------------------------------------------

// Rank tier boundaries for relative volume.
var volumeRankTiers = []float64{0.5, 1.0, 1.5, 2.0}

const (
	profileMinPoints  = 10
	pressureMaxPoints = 10
)

type VolumeCalculator struct {
	Store *store.SymbolDataStore

	AvgWindow   int     // bars in the trailing average
	AlertFactor float64 // relative volume above this is "high"
}

// -----------------------------------------------------------------------------

func NewVolumeCalculator(s *store.SymbolDataStore, cfg models.MPipelineConfig) *VolumeCalculator {
	window := cfg.VolumeAvgWindow
	if window <= 0 {
		window = 20
	}
	alert := cfg.VolumeAlertFactor
	if alert <= 0 {
		alert = 2.0
	}

	return &VolumeCalculator{
		Store:       s,
		AvgWindow:   window,
		AlertFactor: alert,
	}
}

// -----------------------------------------------------------------------------

// Calculate derives the volume metrics for a symbol.
func (c *VolumeCalculator) Calculate(symbol string, currentVolume float64) models.MVolumeResult {
	rate := c.Store.GetVolumeRate(symbol)
	avg := c.Store.GetAverageVolume(symbol, c.AvgWindow)

	relative := 0.0
	if avg > 0 {
		relative = rate / avg
	}

	return models.MVolumeResult{
		RelativeVolume: relative,
		VolumeRate:     rate,
		AverageVolume:  avg,
		IsHighVolume:   relative > c.AlertFactor,
		VolumeRank:     RankRelativeVolume(relative),
	}
}

// -----------------------------------------------------------------------------

// RankRelativeVolume buckets relative volume into 5 ordinal tiers.
func RankRelativeVolume(relative float64) int {
	rank := 1
	for _, tier := range volumeRankTiers {
		if relative >= tier {
			rank++
		}
	}
	return rank
}

// -----------------------------------------------------------------------------

// CalculateVolumeProfile compares the mean of the last 5 history volumes to
// the mean of all available volumes. Requires at least 10 history points.
func (c *VolumeCalculator) CalculateVolumeProfile(symbol string) string {
	history := c.Store.GetHistory(symbol, 0)
	if len(history) < profileMinPoints {
		return models.ProfileInsufficient
	}

	all := make([]float64, len(history))
	for i, h := range history {
		all[i] = h.Volume
	}
	recent := all[len(all)-5:]

	ratio := core.Ratio(core.Mean(recent), core.Mean(all))
	switch {
	case ratio > 2:
		return models.ProfileAccelerating
	case ratio > 1.5:
		return models.ProfileIncreasing
	case ratio < 0.5:
		return models.ProfileDeclining
	default:
		return models.ProfileNormal
	}
}

// -----------------------------------------------------------------------------

// EstimateBuyPressure classifies each consecutive price step over the last 10
// history points as an uptick or downtick and accumulates the traded volume
// on each side. Defaults to neutral 50 with fewer than 2 points or zero
// volume. An approximation: true buy/sell classification needs bid/ask-side
// trade matching, unavailable here.
func (c *VolumeCalculator) EstimateBuyPressure(symbol string, currentVolume float64) float64 {
	history := c.Store.GetHistory(symbol, pressureMaxPoints)
	if len(history) < 2 {
		return 50
	}

	upVolume := 0.0
	downVolume := 0.0
	for i := 1; i < len(history); i++ {
		if history[i].Price > history[i-1].Price {
			upVolume += history[i].Volume
		} else if history[i].Price < history[i-1].Price {
			downVolume += history[i].Volume
		}
	}

	total := upVolume + downVolume
	if total == 0 {
		return 50
	}
	return upVolume / total * 100
}

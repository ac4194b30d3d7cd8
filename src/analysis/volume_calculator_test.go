package analysis

import (
	"testing"

	"market-pipeline/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Relative volume
// -----------------------------------------------------------------------------

func TestVolumeCalculate_NoBars(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	c := NewVolumeCalculator(s, models.MPipelineConfig{})

	res := c.Calculate("AAPL", 0)
	assert.Equal(t, 0.0, res.RelativeVolume)
	assert.Equal(t, 0.0, res.VolumeRate)
	assert.False(t, res.IsHighVolume)
	assert.Equal(t, 1, res.VolumeRank)
}

func TestVolumeCalculate_RelativeVolumeProxy(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	c := NewVolumeCalculator(s, models.MPipelineConfig{VolumeAvgWindow: 20, VolumeAlertFactor: 2.0})

	// Three minutes at 100 volume each, then a 400-volume minute: the
	// latest rate is 400 against a trailing average of 175.
	for i := 0; i < 3; i++ {
		s.Update("AAPL", trade("AAPL", 100, 100, int64(i)*60_000))
	}
	s.Update("AAPL", trade("AAPL", 100, 400, 3*60_000))

	res := c.Calculate("AAPL", 400)
	assert.InDelta(t, 400.0/175.0, res.RelativeVolume, 1e-9)
	assert.Equal(t, 400.0, res.VolumeRate)
	assert.InDelta(t, 175.0, res.AverageVolume, 1e-9)
	assert.True(t, res.IsHighVolume)
	assert.Equal(t, 5, res.VolumeRank)
}

func TestRankRelativeVolume_Tiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		relative float64
		want     int
	}{
		{0.0, 1},
		{0.3, 1},
		{0.5, 2},
		{0.9, 2},
		{1.0, 3},
		{1.4, 3},
		{1.5, 4},
		{1.7, 4},
		{2.0, 5},
		{2.5, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RankRelativeVolume(tt.relative),
			"relative %.2f", tt.relative)
	}
}

// -----------------------------------------------------------------------------
// Volume profile
// -----------------------------------------------------------------------------

func TestCalculateVolumeProfile_InsufficientData(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	c := NewVolumeCalculator(s, models.MPipelineConfig{})

	for i := 0; i < 9; i++ {
		s.Update("AAPL", trade("AAPL", 100, 100, int64(i)*1000))
	}
	assert.Equal(t, models.ProfileInsufficient, c.CalculateVolumeProfile("AAPL"))
}

func TestCalculateVolumeProfile_Classifications(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		volumes []float64
		want    string
	}{
		{
			// Last 5 mean 1000 vs overall mean ~545: ratio > 1.5.
			"increasing",
			[]float64{100, 100, 100, 100, 100, 1000, 1000, 1000, 1000, 1000},
			models.ProfileIncreasing,
		},
		{
			// 15 quiet minutes then 5 heavy ones: last-5 mean 1000 vs
			// overall mean 257.5, ratio well above 2.
			"accelerating",
			[]float64{
				10, 10, 10, 10, 10, 10, 10, 10, 10, 10,
				10, 10, 10, 10, 10,
				1000, 1000, 1000, 1000, 1000,
			},
			models.ProfileAccelerating,
		},
		{
			"declining",
			[]float64{1000, 1000, 1000, 1000, 1000, 10, 10, 10, 10, 10},
			models.ProfileDeclining,
		},
		{
			"normal",
			[]float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
			models.ProfileNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			c := NewVolumeCalculator(s, models.MPipelineConfig{})

			for i, v := range tt.volumes {
				s.Update("AAPL", trade("AAPL", 100, v, int64(i)*1000))
			}
			assert.Equal(t, tt.want, c.CalculateVolumeProfile("AAPL"))
		})
	}
}

// -----------------------------------------------------------------------------
// Buy pressure
// -----------------------------------------------------------------------------

func TestEstimateBuyPressure_DefaultsToNeutral(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	c := NewVolumeCalculator(s, models.MPipelineConfig{})

	// No history.
	assert.Equal(t, 50.0, c.EstimateBuyPressure("AAPL", 100))

	// One point is not enough for a tick direction.
	s.Update("AAPL", trade("AAPL", 100, 100, 1000))
	assert.Equal(t, 50.0, c.EstimateBuyPressure("AAPL", 100))
}

func TestEstimateBuyPressure_FlatPricesNeutral(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	c := NewVolumeCalculator(s, models.MPipelineConfig{})

	for i := 0; i < 5; i++ {
		s.Update("AAPL", trade("AAPL", 100, 100, int64(i)*1000))
	}
	// Equal consecutive prices contribute to neither side.
	assert.Equal(t, 50.0, c.EstimateBuyPressure("AAPL", 100))
}

func TestEstimateBuyPressure_VolumeWeighted(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	c := NewVolumeCalculator(s, models.MPipelineConfig{})

	s.Update("AAPL", trade("AAPL", 100, 100, 0))
	s.Update("AAPL", trade("AAPL", 101, 300, 1000)) // uptick, 300
	s.Update("AAPL", trade("AAPL", 100, 100, 2000)) // downtick, 100

	pressure := c.EstimateBuyPressure("AAPL", 100)
	require.InDelta(t, 75.0, pressure, 1e-9)
}

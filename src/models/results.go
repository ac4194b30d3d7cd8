package models

// -----------------------------------------------------------------------------
// Calculator outputs.
// -----------------------------------------------------------------------------

type MChangeResult struct {
	Change          float64 `json:"change"`
	ChangePercent   float64 `json:"change_percent"`
	GapPercent      float64 `json:"gap_percent"`
	GapKnown        bool    `json:"gap_known"`
	DayHigh         float64 `json:"day_high"`
	DayLow          float64 `json:"day_low"`
	DayOpen         float64 `json:"day_open"`
	DayRange        float64 `json:"day_range"`
	DayRangePercent float64 `json:"day_range_percent"`
	DayPosition     float64 `json:"day_position"` // 0..1, 0.5 on a flat day
}

// -----------------------------------------------------------------------------

type MMomentumResult struct {
	MomentumPercent float64 `json:"momentum_percent"`
	Velocity        float64 `json:"velocity"` // raw price change per minute
	ElapsedMinutes  float64 `json:"elapsed_minutes"`
	SamplePoints    int     `json:"sample_points"`
}

// -----------------------------------------------------------------------------

type MVolumeResult struct {
	RelativeVolume float64 `json:"relative_volume"`
	VolumeRate     float64 `json:"volume_rate"`
	AverageVolume  float64 `json:"average_volume"`
	IsHighVolume   bool    `json:"is_high_volume"`
	VolumeRank     int     `json:"volume_rank"` // 1..5
}

// -----------------------------------------------------------------------------

// Volume profile classifications.
const (
	ProfileInsufficient = "Insufficient Data"
	ProfileAccelerating = "Accelerating"
	ProfileIncreasing   = "Increasing"
	ProfileDeclining    = "Declining"
	ProfileNormal       = "Normal"
)

// -----------------------------------------------------------------------------

// MExtreme records the largest absolute gap or move seen across all symbols.
type MExtreme struct {
	Symbol    string  `json:"symbol"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
}

package models

// -----------------------------------------------------------------------------

// MVolumeBar is a minute-aligned volume bucket for one symbol.
type MVolumeBar struct {
	BucketStart       int64   `json:"bucket_start"` // epoch milliseconds, aligned
	BucketEnd         int64   `json:"bucket_end"`
	AccumulatedVolume float64 `json:"accumulated_volume"`
	TradeCount        int     `json:"trade_count"`
}

// -----------------------------------------------------------------------------

// MDailyHighLow tracks the pointwise max/min of all prices seen for a symbol
// since the last explicit new-trading-day reset.
type MDailyHighLow struct {
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Open        float64 `json:"open"`
	FirstSeenAt int64   `json:"first_seen_at"` // epoch milliseconds
}

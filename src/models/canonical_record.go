package models

// -----------------------------------------------------------------------------
// MCanonicalRecord is the fixed output shape of the pipeline. Every field is
// always populated: consumers never see a partial record, so defaults are
// applied explicitly in NewMCanonicalRecord.
// -----------------------------------------------------------------------------

type MCanonicalRecord struct {
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	Change         float64 `json:"change"`
	ChangePercent  float64 `json:"change_percent"`
	Volume         float64 `json:"volume"`
	RelativeVolume float64 `json:"relative_volume"`
	VolumeRate     float64 `json:"volume_rate"`

	MarketCap  float64 `json:"market_cap"`
	Float      float64 `json:"float"`
	ShortFloat float64 `json:"short_float"`
	ATR        float64 `json:"atr"`
	Beta       float64 `json:"beta"`
	Sector     string  `json:"sector"`

	RSI         float64 `json:"rsi"`
	Momentum5m  float64 `json:"momentum_5m"`
	Momentum15m float64 `json:"momentum_15m"`
	Alerts      int     `json:"alerts"`
	Timestamp   string  `json:"timestamp"` // ISO-8601

	PreMarketPrice         float64 `json:"pre_market_price"`
	PreMarketVolume        float64 `json:"pre_market_volume"`
	PreMarketChange        float64 `json:"pre_market_change"`
	PreMarketChangePercent float64 `json:"pre_market_change_percent"`

	GapPercent float64 `json:"gap_percent"`
}

// -----------------------------------------------------------------------------

// NewMCanonicalRecord returns a record with every field at its documented
// default. RSI has no incremental calculation at this layer and defaults to
// the neutral midpoint.
func NewMCanonicalRecord(symbol string) MCanonicalRecord {
	return MCanonicalRecord{
		Symbol: symbol,
		RSI:    50,
		Alerts: 0,
	}
}

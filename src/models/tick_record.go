package models

import "time"

// -----------------------------------------------------------------------------
// MTickRecord is the normalized output of the event transformers: one raw
// vendor event mapped onto a single shape, before store update, derived
// metrics and reference enrichment are applied.
// -----------------------------------------------------------------------------

type MTickRecord struct {
	Symbol    string     `json:"symbol"`
	Kind      MEventType `json:"kind"`
	Price     float64    `json:"price"`
	Volume    float64    `json:"volume"`
	Timestamp time.Time  `json:"timestamp"`
	EpochMs   int64      `json:"epoch_ms"`

	// Trade fields
	Exchange    string `json:"exchange,omitempty"`
	OddLot      bool   `json:"odd_lot,omitempty"`
	Intermarket bool   `json:"intermarket,omitempty"`
	FormT       bool   `json:"form_t,omitempty"`

	// Quote fields
	Bid           float64 `json:"bid,omitempty"`
	Ask           float64 `json:"ask,omitempty"`
	Spread        float64 `json:"spread,omitempty"`
	SpreadPercent float64 `json:"spread_percent,omitempty"`

	// Bar fields
	Open         float64 `json:"open,omitempty"`
	High         float64 `json:"high,omitempty"`
	Low          float64 `json:"low,omitempty"`
	Close        float64 `json:"close,omitempty"`
	Range        float64 `json:"range,omitempty"`
	RangePercent float64 `json:"range_percent,omitempty"`
	Body         float64 `json:"body,omitempty"`
	BodyPercent  float64 `json:"body_percent,omitempty"`
	TypicalPrice float64 `json:"typical_price,omitempty"`
	CandleType   string  `json:"candle_type,omitempty"`
}

// -----------------------------------------------------------------------------
// Candle classifications produced by the bar transformer.
// -----------------------------------------------------------------------------

const (
	CandleDoji          = "Doji"
	CandleBullish       = "Bullish"
	CandleBearish       = "Bearish"
	CandleStrongBullish = "Strong Bullish"
	CandleStrongBearish = "Strong Bearish"
)

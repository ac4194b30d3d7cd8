package transform

import (
	"math"

	"market-pipeline/src/helpers"
	"market-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// Candle body thresholds in percent of open.
// -----------------------------------------------------------------------------

const (
	dojiBodyPercent   = 0.1
	strongBodyPercent = 2.0
)

// -----------------------------------------------------------------------------

// TransformBar passes through OHLCV and derives range, body and candle
// classification.
func (t *EventTransformer) TransformBar(raw models.MRawBar) (*models.MTickRecord, error) {
	if raw.Symbol == "" {
		return nil, helpers.NewValidationError("bar rejected: missing symbol")
	}

	priceRange := raw.High - raw.Low
	rangePct := 0.0
	if raw.Low != 0 {
		rangePct = priceRange / raw.Low * 100
	}

	body := math.Abs(raw.Close - raw.Open)
	bodyPct := 0.0
	if raw.Open != 0 {
		bodyPct = body / raw.Open * 100
	}

	return &models.MTickRecord{
		Symbol:       raw.Symbol,
		Kind:         models.EventBar,
		Price:        raw.Close,
		Volume:       raw.Volume,
		Timestamp:    msToTime(raw.Timestamp),
		EpochMs:      raw.Timestamp,
		Open:         raw.Open,
		High:         raw.High,
		Low:          raw.Low,
		Close:        raw.Close,
		Range:        priceRange,
		RangePercent: rangePct,
		Body:         body,
		BodyPercent:  bodyPct,
		TypicalPrice: (raw.High + raw.Low + raw.Close) / 3,
		CandleType:   classifyCandle(raw.Open, raw.Close, bodyPct),
	}, nil
}

// -----------------------------------------------------------------------------

func classifyCandle(open, close, bodyPct float64) string {
	bullish := close >= open

	switch {
	case bodyPct < dojiBodyPercent:
		return models.CandleDoji
	case bodyPct > strongBodyPercent:
		if bullish {
			return models.CandleStrongBullish
		}
		return models.CandleStrongBearish
	default:
		if bullish {
			return models.CandleBullish
		}
		return models.CandleBearish
	}
}

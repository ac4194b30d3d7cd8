package transform

import (
	"math"

	"market-pipeline/src/helpers"
	"market-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// Trade condition code sets. Fixed per the vendor's condition dictionary.
// -----------------------------------------------------------------------------

var (
	oddLotConditions      = map[int]struct{}{14: {}}
	intermarketConditions = map[int]struct{}{37: {}}
	formTConditions       = map[int]struct{}{15: {}, 16: {}, 29: {}}
)

// -----------------------------------------------------------------------------

// TransformTrade normalizes a raw trade. A missing symbol or nil price is a
// hard validation gate: the record is rejected, not repaired.
func (t *EventTransformer) TransformTrade(raw models.MRawTrade) (*models.MTickRecord, error) {
	if raw.Symbol == "" {
		return nil, helpers.NewValidationError("trade rejected: missing symbol")
	}
	if raw.Price == nil {
		return nil, helpers.NewValidationError("trade rejected: missing price for %s", raw.Symbol)
	}

	price := *raw.Price
	if price < 0 {
		price = 0
	}
	price = round4(price)

	rec := &models.MTickRecord{
		Symbol:    raw.Symbol,
		Kind:      models.EventTrade,
		Price:     price,
		Volume:    raw.Size,
		Timestamp: msToTime(raw.Timestamp),
		EpochMs:   raw.Timestamp,
		Exchange:  ExchangeName(raw.Exchange),
	}

	for _, c := range raw.Conditions {
		if _, ok := oddLotConditions[c]; ok {
			rec.OddLot = true
		}
		if _, ok := intermarketConditions[c]; ok {
			rec.Intermarket = true
		}
		if _, ok := formTConditions[c]; ok {
			rec.FormT = true
		}
	}

	return rec, nil
}

// -----------------------------------------------------------------------------

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

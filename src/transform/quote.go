package transform

import (
	"market-pipeline/src/helpers"
	"market-pipeline/src/models"
)

// -----------------------------------------------------------------------------

// TransformQuote normalizes a raw quote. The mid price becomes the canonical
// price; volume is the synthetic bidSize+askSize since quotes carry no traded
// volume.
func (t *EventTransformer) TransformQuote(raw models.MRawQuote) (*models.MTickRecord, error) {
	if raw.Symbol == "" {
		return nil, helpers.NewValidationError("quote rejected: missing symbol")
	}

	spread := raw.Ask - raw.Bid
	spreadPct := 0.0
	if raw.Bid != 0 {
		spreadPct = spread / raw.Bid * 100
	}
	mid := (raw.Ask + raw.Bid) / 2

	return &models.MTickRecord{
		Symbol:        raw.Symbol,
		Kind:          models.EventQuote,
		Price:         mid,
		Volume:        raw.BidSize + raw.AskSize,
		Timestamp:     msToTime(raw.Timestamp),
		EpochMs:       raw.Timestamp,
		Exchange:      ExchangeName(raw.Exchange),
		Bid:           raw.Bid,
		Ask:           raw.Ask,
		Spread:        spread,
		SpreadPercent: spreadPct,
	}, nil
}

package transform

import (
	"errors"
	"testing"
	"time"

	"market-pipeline/src/helpers"
	"market-pipeline/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

// -----------------------------------------------------------------------------
// Trades
// -----------------------------------------------------------------------------

func TestTransformTrade_Basic(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	rec, err := tr.TransformTrade(models.MRawTrade{
		Symbol:    "AAPL",
		Price:     fptr(187.6543),
		Size:      500,
		Timestamp: 1_700_000_000_000,
		Exchange:  12,
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, models.EventTrade, rec.Kind)
	assert.Equal(t, 187.6543, rec.Price)
	assert.Equal(t, 500.0, rec.Volume)
	assert.Equal(t, "NASDAQ", rec.Exchange)
	assert.Equal(t, int64(1_700_000_000_000), rec.EpochMs)
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
}

func TestTransformTrade_RejectsMissingSymbol(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	_, err := tr.TransformTrade(models.MRawTrade{Price: fptr(100)})

	var verr *helpers.ValidationError
	require.Error(t, err)
	assert.True(t, errors.As(err, &verr))
}

func TestTransformTrade_RejectsMissingPrice(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	_, err := tr.TransformTrade(models.MRawTrade{Symbol: "AAPL"})

	var verr *helpers.ValidationError
	require.Error(t, err)
	assert.True(t, errors.As(err, &verr))
}

func TestTransformTrade_ClampsNegativePrice(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	rec, err := tr.TransformTrade(models.MRawTrade{Symbol: "AAPL", Price: fptr(-5)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.Price)
}

func TestTransformTrade_RoundsToFourDecimals(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	rec, err := tr.TransformTrade(models.MRawTrade{Symbol: "AAPL", Price: fptr(123.456789)})
	require.NoError(t, err)
	assert.Equal(t, 123.4568, rec.Price)
}

func TestTransformTrade_ConditionFlags(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()

	tests := []struct {
		name        string
		conditions  []int
		oddLot      bool
		intermarket bool
		formT       bool
	}{
		{"none", nil, false, false, false},
		{"odd lot", []int{14}, true, false, false},
		{"intermarket sweep", []int{37}, false, true, false},
		{"form T 15", []int{15}, false, false, true},
		{"form T 16", []int{16}, false, false, true},
		{"form T 29", []int{29}, false, false, true},
		{"combined", []int{14, 37, 29}, true, true, true},
		{"unknown codes ignored", []int{1, 2, 99}, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := tr.TransformTrade(models.MRawTrade{
				Symbol:     "AAPL",
				Price:      fptr(100),
				Conditions: tt.conditions,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.oddLot, rec.OddLot)
			assert.Equal(t, tt.intermarket, rec.Intermarket)
			assert.Equal(t, tt.formT, rec.FormT)
		})
	}
}

func TestExchangeName_UnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NYSE", ExchangeName(10))
	assert.Equal(t, "IEX", ExchangeName(13))
	assert.Equal(t, "Exchange 99", ExchangeName(99))
}

// -----------------------------------------------------------------------------
// Quotes
// -----------------------------------------------------------------------------

func TestTransformQuote_Derivations(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	rec, err := tr.TransformQuote(models.MRawQuote{
		Symbol:  "AAPL",
		Bid:     100,
		Ask:     100.5,
		BidSize: 300,
		AskSize: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, models.EventQuote, rec.Kind)
	assert.Equal(t, 100.25, rec.Price) // mid
	assert.InDelta(t, 0.5, rec.Spread, 1e-9)
	assert.InDelta(t, 0.5, rec.SpreadPercent, 1e-9)
	assert.Equal(t, 500.0, rec.Volume) // bidSize + askSize
}

func TestTransformQuote_ZeroBidGuardsSpreadPercent(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	rec, err := tr.TransformQuote(models.MRawQuote{Symbol: "AAPL", Bid: 0, Ask: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.SpreadPercent)
}

func TestTransformQuote_RejectsMissingSymbol(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	_, err := tr.TransformQuote(models.MRawQuote{Bid: 1, Ask: 2})
	require.Error(t, err)
}

// -----------------------------------------------------------------------------
// Bars
// -----------------------------------------------------------------------------

func TestTransformBar_CandleClassification(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()

	tests := []struct {
		name  string
		open  float64
		close float64
		want  string
	}{
		{"tiny body is doji", 100, 100.05, models.CandleDoji},
		{"exact flat is doji", 100, 100, models.CandleDoji},
		{"moderate up", 100, 101, models.CandleBullish},
		{"moderate down", 100, 99, models.CandleBearish},
		{"strong up", 100, 103, models.CandleStrongBullish},
		{"strong down", 100, 97, models.CandleStrongBearish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := tr.TransformBar(models.MRawBar{
				Symbol: "AAPL",
				Open:   tt.open,
				High:   tt.open + 5,
				Low:    tt.open - 5,
				Close:  tt.close,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.CandleType)
		})
	}
}

func TestTransformBar_Derivations(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	rec, err := tr.TransformBar(models.MRawBar{
		Symbol: "AAPL",
		Open:   100,
		High:   110,
		Low:    95,
		Close:  105,
		Volume: 10_000,
	})
	require.NoError(t, err)

	assert.Equal(t, models.EventBar, rec.Kind)
	assert.Equal(t, 105.0, rec.Price)
	assert.Equal(t, 15.0, rec.Range)
	assert.InDelta(t, 15.0/95.0*100, rec.RangePercent, 1e-9)
	assert.Equal(t, 5.0, rec.Body)
	assert.InDelta(t, 5.0, rec.BodyPercent, 1e-9)
	assert.InDelta(t, (110.0+95.0+105.0)/3, rec.TypicalPrice, 1e-9)
}

func TestTransformBar_ZeroGuards(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	rec, err := tr.TransformBar(models.MRawBar{Symbol: "AAPL", Open: 0, High: 0, Low: 0, Close: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.RangePercent)
	assert.Equal(t, 0.0, rec.BodyPercent)
}

// -----------------------------------------------------------------------------
// Dispatch
// -----------------------------------------------------------------------------

func TestTransform_Dispatch(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()

	rec, err := tr.Transform(models.MRawEvent{
		Type:  models.EventTrade,
		Trade: &models.MRawTrade{Symbol: "AAPL", Price: fptr(100)},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventTrade, rec.Kind)

	rec, err = tr.Transform(models.MRawEvent{
		Type:  models.EventQuote,
		Quote: &models.MRawQuote{Symbol: "AAPL", Bid: 1, Ask: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventQuote, rec.Kind)
}

func TestTransform_UnknownTypeRejected(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	_, err := tr.Transform(models.MRawEvent{Type: "order"})

	var terr *helpers.TransformError
	require.Error(t, err)
	assert.True(t, errors.As(err, &terr))
}

func TestTransform_MissingPayloadRejected(t *testing.T) {
	t.Parallel()

	tr := NewEventTransformer()
	_, err := tr.Transform(models.MRawEvent{Type: models.EventTrade})
	require.Error(t, err)
}

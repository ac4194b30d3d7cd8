package transform

import (
	"fmt"
	"time"

	"market-pipeline/src/helpers"
	"market-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// EventTransformer normalizes raw vendor events into MTickRecord. Pure and
// deterministic: all state is the static mapping tables below.
// -----------------------------------------------------------------------------

type EventTransformer struct{}

// -----------------------------------------------------------------------------

func NewEventTransformer() *EventTransformer {
	return &EventTransformer{}
}

// -----------------------------------------------------------------------------

// Transform dispatches on the event tag. The switch over variants is
// exhaustive; an event with no populated variant is a malformed payload.
func (t *EventTransformer) Transform(ev models.MRawEvent) (*models.MTickRecord, error) {
	switch ev.Type {
	case models.EventTrade:
		if ev.Trade == nil {
			return nil, helpers.NewTransformError(nil, "trade event without trade payload")
		}
		return t.TransformTrade(*ev.Trade)
	case models.EventQuote:
		if ev.Quote == nil {
			return nil, helpers.NewTransformError(nil, "quote event without quote payload")
		}
		return t.TransformQuote(*ev.Quote)
	case models.EventBar:
		if ev.Bar == nil {
			return nil, helpers.NewTransformError(nil, "bar event without bar payload")
		}
		return t.TransformBar(*ev.Bar)
	default:
		return nil, helpers.NewTransformError(nil, "unknown event type %q", ev.Type)
	}
}

// -----------------------------------------------------------------------------
// Shared helpers
// -----------------------------------------------------------------------------

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// -----------------------------------------------------------------------------

// ExchangeName maps a numeric venue code to a display name. Unknown codes
// fall back to "Exchange {code}" rather than failing the record.
func ExchangeName(code int) string {
	if name, ok := exchangeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Exchange %d", code)
}

var exchangeNames = map[int]string{
	1:  "NYSE American",
	2:  "NASDAQ OMX BX",
	3:  "NYSE National",
	4:  "FINRA ADF",
	5:  "Market Independent",
	6:  "ISE",
	7:  "Cboe EDGA",
	8:  "Cboe EDGX",
	9:  "NYSE Chicago",
	10: "NYSE",
	11: "NYSE Arca",
	12: "NASDAQ",
	13: "IEX",
	14: "CTS",
	15: "NASDAQ OMX PSX",
	16: "Cboe BYX",
	17: "Cboe BZX",
}

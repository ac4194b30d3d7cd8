package models

import (
	"encoding/json"
	"fmt"
)

// -----------------------------------------------------------------------------
// Raw vendor events. MRawEvent is a tagged union over the three feed record
// kinds; exactly one variant pointer is non-nil for a decoded event.
// -----------------------------------------------------------------------------

type MEventType string

const (
	EventTrade MEventType = "trade"
	EventQuote MEventType = "quote"
	EventBar   MEventType = "bar"
)

// -----------------------------------------------------------------------------

type MRawEvent struct {
	Type  MEventType
	Trade *MRawTrade
	Quote *MRawQuote
	Bar   *MRawBar
}

// -----------------------------------------------------------------------------

// MRawTrade is one tick from the vendor. Price is a pointer because the feed
// can emit records without a price; the transformer rejects those.
type MRawTrade struct {
	Symbol     string   `json:"symbol"`
	Price      *float64 `json:"price"`
	Size       float64  `json:"size"`
	Timestamp  int64    `json:"timestamp"` // epoch milliseconds
	Exchange   int      `json:"exchange"`
	Conditions []int    `json:"conditions"`
}

// -----------------------------------------------------------------------------

type MRawQuote struct {
	Symbol    string  `json:"symbol"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	BidSize   float64 `json:"bid_size"`
	AskSize   float64 `json:"ask_size"`
	Timestamp int64   `json:"timestamp"`
	Exchange  int     `json:"exchange"`
}

// -----------------------------------------------------------------------------

type MRawBar struct {
	Symbol    string  `json:"symbol"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"` // bucket start, epoch milliseconds
}

// -----------------------------------------------------------------------------

// UnmarshalJSON decodes the vendor's duck-typed record into the matching
// variant using the event_type tag.
func (e *MRawEvent) UnmarshalJSON(data []byte) error {
	var tag struct {
		EventType MEventType `json:"event_type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.EventType {
	case EventTrade:
		var t MRawTrade
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*e = MRawEvent{Type: EventTrade, Trade: &t}
	case EventQuote:
		var q MRawQuote
		if err := json.Unmarshal(data, &q); err != nil {
			return err
		}
		*e = MRawEvent{Type: EventQuote, Quote: &q}
	case EventBar:
		var b MRawBar
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*e = MRawEvent{Type: EventBar, Bar: &b}
	default:
		return fmt.Errorf("unknown event_type %q", tag.EventType)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Symbol returns the ticker of whichever variant is populated.
func (e *MRawEvent) Symbol() string {
	switch e.Type {
	case EventTrade:
		if e.Trade != nil {
			return e.Trade.Symbol
		}
	case EventQuote:
		if e.Quote != nil {
			return e.Quote.Symbol
		}
	case EventBar:
		if e.Bar != nil {
			return e.Bar.Symbol
		}
	}
	return ""
}

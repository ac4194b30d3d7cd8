package models

import "encoding/json"

// -----------------------------------------------------------------------------
// Upstream feed wire protocol (JSON over a persistent websocket).
// -----------------------------------------------------------------------------

// Inbound message types.
const (
	WireMarketData = "market_data"
	WireConnected  = "connected"
	WireSubscribed = "subscribed"
	WireError      = "error"
	WirePong       = "pong"
)

// MWireMessage is the envelope of every inbound feed message. Data is left
// raw because market_data carries either one record or a batch.
type MWireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// -----------------------------------------------------------------------------

type MSubscribeRequest struct {
	Action   string   `json:"action"` // "subscribe"
	Symbols  []string `json:"symbols"`
	Channels []string `json:"channels"`
}

type MUnsubscribeRequest struct {
	Action  string   `json:"action"` // "unsubscribe"
	Symbols []string `json:"symbols"`
}

// -----------------------------------------------------------------------------
// Downstream dashboard websocket commands.
// -----------------------------------------------------------------------------

type MClientCommand struct {
	Command string   `json:"command"` // "subscribe"
	Symbols []string `json:"symbols"`
}

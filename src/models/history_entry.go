package models

// -----------------------------------------------------------------------------

// MHistoryEntry is one past snapshot in a symbol's bounded history. Seq is a
// monotonically increasing arrival-order counter, never reused after eviction.
type MHistoryEntry struct {
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
	Seq       uint64  `json:"seq"`
}

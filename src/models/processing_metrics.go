package models

// MProcessingMetrics represents the performance counters for the
// transformation pipeline and the feed connection lifecycle.
type MProcessingMetrics struct {
	RecordsProcessed    int64   `json:"records_processed"`
	RecordsRejected     int64   `json:"records_rejected"`
	BatchesProcessed    int64   `json:"batches_processed"`
	LastBatchSeconds    float64 `json:"last_batch_seconds"`
	ReconnectAttempts   int64   `json:"reconnect_attempts"`
	ReconnectSuccesses  int64   `json:"reconnect_successes"`
	ConnectionsLost     int64   `json:"connections_lost"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
}

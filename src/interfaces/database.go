package interfaces

import "market-pipeline/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveRecordsBulk inserts a batch of canonical records.
	SaveRecordsBulk(records []models.MCanonicalRecord) error

	// -----------------------------------------------------------------------------

	// SavePreviousCloses upserts the daily previous-close feed.
	SavePreviousCloses(closes map[string]float64) error

	// -----------------------------------------------------------------------------

	// LoadPreviousCloses returns the stored previous closes.
	LoadPreviousCloses() (map[string]float64, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes records older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}

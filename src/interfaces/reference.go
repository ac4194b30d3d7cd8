package interfaces

import "market-pipeline/src/models"

// -----------------------------------------------------------------------------
// IReferenceProvider supplies static per-symbol enrichment and the daily
// previous-close feed.
// -----------------------------------------------------------------------------

type IReferenceProvider interface {

	// Get returns the reference data for a symbol.
	Get(symbol string) (models.MReferenceData, bool)

	// -----------------------------------------------------------------------------

	// PreviousCloses returns one price per symbol for the prior session.
	PreviousCloses() map[string]float64
}

package models

// -----------------------------------------------------------------------------

// MReferenceData is static per-symbol enrichment supplied by an external
// provider. Zero values mean "unknown"; the pipeline never overwrites a field
// already present on a record.
type MReferenceData struct {
	MarketCap  float64 `yaml:"market_cap" json:"market_cap"`
	Float      float64 `yaml:"float" json:"float"`
	ShortFloat float64 `yaml:"short_float" json:"short_float"`
	ATR        float64 `yaml:"atr" json:"atr"`
	Beta       float64 `yaml:"beta" json:"beta"`
	Sector     string  `yaml:"sector" json:"sector"`
}

package reference

import (
	"fmt"
	"os"
	"sync"

	"market-pipeline/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// StaticProvider serves per-symbol reference data (market cap, float, beta,
// sector) loaded from a YAML file, with in-memory overrides for values pushed
// at runtime. It also carries the previous-close feed: one price per symbol
// per session, applied into the symbol data store by the pipeline bootstrap.
// -----------------------------------------------------------------------------

type StaticProvider struct {
	data       map[string]models.MReferenceData
	prevCloses map[string]float64
	mu         sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		data:       make(map[string]models.MReferenceData),
		prevCloses: make(map[string]float64),
	}
}

// -----------------------------------------------------------------------------

// referenceFile is the on-disk shape of the reference data file.
type referenceFile struct {
	Symbols        map[string]models.MReferenceData `yaml:"symbols"`
	PreviousCloses map[string]float64               `yaml:"previous_closes"`
}

// LoadFile merges reference data from a YAML file.
func (p *StaticProvider) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read reference data file '%s': %w", path, err)
	}

	var file referenceFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse reference data from YAML: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for sym, ref := range file.Symbols {
		p.data[sym] = ref
	}
	for sym, close := range file.PreviousCloses {
		p.prevCloses[sym] = close
	}
	return nil
}

// -----------------------------------------------------------------------------

// Get returns the reference data for a symbol, ok=false when unknown.
func (p *StaticProvider) Get(symbol string) (models.MReferenceData, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ref, ok := p.data[symbol]
	return ref, ok
}

// -----------------------------------------------------------------------------

// Set stores or replaces the reference data for a symbol.
func (p *StaticProvider) Set(symbol string, ref models.MReferenceData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[symbol] = ref
}

// -----------------------------------------------------------------------------

// PreviousCloses returns a copy of the previous-close feed.
func (p *StaticProvider) PreviousCloses() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]float64, len(p.prevCloses))
	for sym, close := range p.prevCloses {
		out[sym] = close
	}
	return out
}

// -----------------------------------------------------------------------------

// SetPreviousClose records one previous close, e.g. from a live daily feed.
func (p *StaticProvider) SetPreviousClose(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prevCloses[symbol] = price
}

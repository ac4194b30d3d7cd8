package reference

import (
	"os"
	"path/filepath"
	"testing"

	"market-pipeline/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_LoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
symbols:
  AAPL:
    market_cap: 3450000000000
    beta: 1.24
    sector: "Technology"
previous_closes:
  AAPL: 228.35
`), 0644))

	p := NewStaticProvider()
	require.NoError(t, p.LoadFile(path))

	ref, ok := p.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 3.45e12, ref.MarketCap)
	assert.Equal(t, "Technology", ref.Sector)

	closes := p.PreviousCloses()
	assert.Equal(t, 228.35, closes["AAPL"])

	_, ok = p.Get("MSFT")
	assert.False(t, ok)
}

func TestStaticProvider_LoadFileMissing(t *testing.T) {
	t.Parallel()

	p := NewStaticProvider()
	assert.Error(t, p.LoadFile("/nonexistent/reference.yaml"))
}

func TestStaticProvider_RuntimeOverrides(t *testing.T) {
	t.Parallel()

	p := NewStaticProvider()
	p.Set("TSLA", models.MReferenceData{Sector: "Consumer Cyclical"})
	p.SetPreviousClose("TSLA", 342.9)

	ref, ok := p.Get("TSLA")
	require.True(t, ok)
	assert.Equal(t, "Consumer Cyclical", ref.Sector)

	closes := p.PreviousCloses()
	assert.Equal(t, 342.9, closes["TSLA"])

	// Returned map is a copy.
	closes["TSLA"] = 0
	assert.Equal(t, 342.9, p.PreviousCloses()["TSLA"])
}

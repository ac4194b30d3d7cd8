package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangePercent(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 5.0, ChangePercent(105, 100), 1e-9)
	assert.InDelta(t, -10.0, ChangePercent(90, 100), 1e-9)
	assert.InDelta(t, (105.0-95.0)/95.0*100, ChangePercent(105, 95), 1e-9)

	// Zero baseline never divides.
	assert.Equal(t, 0.0, ChangePercent(100, 0))
}

func TestMean(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Mean([]float64{}))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
}

func TestRatio(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, Ratio(10, 5), 1e-9)
	assert.Equal(t, 0.0, Ratio(10, 0))
}

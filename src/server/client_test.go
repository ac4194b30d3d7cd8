package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientWants_EmptyFilterMeansAll(t *testing.T) {
	t.Parallel()

	c := &Client{symbols: make(map[string]struct{})}
	assert.True(t, c.wants("AAPL"))
	assert.True(t, c.wants("anything"))
}

func TestClientWants_FilterNarrows(t *testing.T) {
	t.Parallel()

	c := &Client{symbols: make(map[string]struct{})}
	c.setSymbols([]string{"AAPL", "MSFT"})

	assert.True(t, c.wants("AAPL"))
	assert.True(t, c.wants("MSFT"))
	assert.False(t, c.wants("TSLA"))
}

func TestClientSetSymbols_ReplacesFilter(t *testing.T) {
	t.Parallel()

	c := &Client{symbols: make(map[string]struct{})}
	c.setSymbols([]string{"AAPL"})
	c.setSymbols([]string{"TSLA"})

	assert.False(t, c.wants("AAPL"))
	assert.True(t, c.wants("TSLA"))

	// Clearing the filter widens back to all symbols.
	c.setSymbols(nil)
	assert.True(t, c.wants("AAPL"))
}

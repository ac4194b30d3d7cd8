package store

import (
	"market-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of history entries.
// True ring buffer - no resizing on append: O(1) insert, oldest evicted first.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     []models.MHistoryEntry
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1000 // Default reasonable size
	}

	return &RingBuffer{
		data:     make([]models.MHistoryEntry, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds an entry, evicting the oldest when the buffer is full.
func (rb *RingBuffer) Append(entry models.MHistoryEntry) {
	rb.data[rb.index] = entry
	rb.index = (rb.index + 1) % rb.capacity

	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// Latest returns the most recent entry.
func (rb *RingBuffer) Latest() (models.MHistoryEntry, bool) {
	if rb.size == 0 {
		return models.MHistoryEntry{}, false
	}
	idx := (rb.index - 1 + rb.capacity) % rb.capacity
	return rb.data[idx], true
}

// -----------------------------------------------------------------------------

// At returns the entry n positions back from the newest (At(0) == Latest).
func (rb *RingBuffer) At(n int) (models.MHistoryEntry, bool) {
	if n < 0 || n >= rb.size {
		return models.MHistoryEntry{}, false
	}
	idx := (rb.index - 1 - n + 2*rb.capacity) % rb.capacity
	return rb.data[idx], true
}

// -----------------------------------------------------------------------------

// GetLatest returns the n latest entries in insertion order (oldest of the n
// first).
func (rb *RingBuffer) GetLatest(n int) []models.MHistoryEntry {
	if rb.size == 0 || n <= 0 {
		return []models.MHistoryEntry{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MHistoryEntry, count)
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all entries in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() []models.MHistoryEntry {
	return rb.GetLatest(rb.size)
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer) Clear() {
	rb.index = 0
	rb.size = 0
}

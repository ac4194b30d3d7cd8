package store

import (
	"sync"

	"market-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// SymbolDataStore owns all per-symbol mutable state: latest snapshot, bounded
// history, previous closes and minute volume bars. It performs no validation;
// the transformers reject malformed records before this point.
//
// The store is one global per-symbol truth shared by all connections. The
// RWMutex covers the rare case of concurrent readers (HTTP snapshot handlers);
// all mutation happens on the single feed-processing goroutine.
// -----------------------------------------------------------------------------

type SymbolDataStore struct {
	historyCapacity int
	barCapacity     int
	barWidthMs      int64

	snapshots  map[string]models.MTickRecord
	history    map[string]*RingBuffer
	prevCloses map[string]float64
	volumeBars map[string][]models.MVolumeBar

	seq uint64
	mu  sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewSymbolDataStore(cfg models.MPipelineConfig) *SymbolDataStore {
	historyCap := cfg.HistoryCapacity
	if historyCap <= 0 {
		historyCap = 1000
	}
	barCap := cfg.VolumeBarCapacity
	if barCap <= 0 {
		barCap = 60
	}
	barWidth := cfg.VolumeBarWidthMs
	if barWidth <= 0 {
		barWidth = 60_000
	}

	return &SymbolDataStore{
		historyCapacity: historyCap,
		barCapacity:     barCap,
		barWidthMs:      barWidth,
		snapshots:       make(map[string]models.MTickRecord),
		history:         make(map[string]*RingBuffer),
		prevCloses:      make(map[string]float64),
		volumeBars:      make(map[string][]models.MVolumeBar),
	}
}

// -----------------------------------------------------------------------------
// Write contract
// -----------------------------------------------------------------------------

// Update overwrites the current snapshot, appends to bounded history and
// merges any traded volume into the current minute bucket.
func (s *SymbolDataStore) Update(symbol string, rec models.MTickRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[symbol] = rec

	buf, ok := s.history[symbol]
	if !ok {
		buf = NewRingBuffer(s.historyCapacity)
		s.history[symbol] = buf
	}

	s.seq++
	buf.Append(models.MHistoryEntry{
		Price:     rec.Price,
		Volume:    rec.Volume,
		Timestamp: rec.EpochMs,
		Seq:       s.seq,
	})

	if rec.Volume > 0 {
		s.mergeVolume(symbol, rec.EpochMs, rec.Volume)
	}
}

// -----------------------------------------------------------------------------

// mergeVolume adds volume into the bucket aligned to barWidthMs. The caller
// holds the write lock.
func (s *SymbolDataStore) mergeVolume(symbol string, ts int64, volume float64) {
	bucketStart := (ts / s.barWidthMs) * s.barWidthMs

	bars := s.volumeBars[symbol]
	for i := range bars {
		if bars[i].BucketStart == bucketStart {
			bars[i].AccumulatedVolume += volume
			bars[i].TradeCount++
			return
		}
	}

	bars = append(bars, models.MVolumeBar{
		BucketStart:       bucketStart,
		BucketEnd:         bucketStart + s.barWidthMs,
		AccumulatedVolume: volume,
		TradeCount:        1,
	})
	if len(bars) > s.barCapacity {
		bars = bars[len(bars)-s.barCapacity:]
	}
	s.volumeBars[symbol] = bars
}

// -----------------------------------------------------------------------------

// SetPreviousClose records the prior session's closing price for a symbol.
// Set exogenously from the daily reference feed.
func (s *SymbolDataStore) SetPreviousClose(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prevCloses[symbol] = price
}

// -----------------------------------------------------------------------------

// ClearAll wipes snapshots, history and volume bars for every symbol but
// preserves previous closes: gap calculations depend on yesterday's close
// surviving a session reset.
func (s *SymbolDataStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = make(map[string]models.MTickRecord)
	s.history = make(map[string]*RingBuffer)
	s.volumeBars = make(map[string][]models.MVolumeBar)
}

// -----------------------------------------------------------------------------
// Read contract
// -----------------------------------------------------------------------------

// GetSnapshot returns the most recently stored record for a symbol.
func (s *SymbolDataStore) GetSnapshot(symbol string) (models.MTickRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.snapshots[symbol]
	return rec, ok
}

// -----------------------------------------------------------------------------

// GetAllSnapshots returns the latest record per symbol.
func (s *SymbolDataStore) GetAllSnapshots() map[string]models.MTickRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.MTickRecord, len(s.snapshots))
	for sym, rec := range s.snapshots {
		out[sym] = rec
	}
	return out
}

// -----------------------------------------------------------------------------

// GetPreviousPrice returns the second-most-recent history price, falling back
// to the previous close when history has fewer than two entries.
func (s *SymbolDataStore) GetPreviousPrice(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if buf, ok := s.history[symbol]; ok {
		if entry, ok := buf.At(1); ok {
			return entry.Price, true
		}
	}
	if close, ok := s.prevCloses[symbol]; ok {
		return close, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------

// GetPreviousClose returns the prior session's close for a symbol.
func (s *SymbolDataStore) GetPreviousClose(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	close, ok := s.prevCloses[symbol]
	return close, ok
}

// -----------------------------------------------------------------------------

// GetHistory returns up to n most recent history entries in insertion order.
// n <= 0 returns the full history.
func (s *SymbolDataStore) GetHistory(symbol string, n int) []models.MHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf, ok := s.history[symbol]
	if !ok {
		return nil
	}
	if n <= 0 {
		return buf.GetAll()
	}
	return buf.GetLatest(n)
}

// -----------------------------------------------------------------------------

// HistorySize returns the number of history entries for a symbol.
func (s *SymbolDataStore) HistorySize(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if buf, ok := s.history[symbol]; ok {
		return buf.Size()
	}
	return 0
}

// -----------------------------------------------------------------------------

// GetAverageVolume returns the mean accumulated volume of the most recent
// `periods` volume bars, 0 if none exist.
func (s *SymbolDataStore) GetAverageVolume(symbol string, periods int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.volumeBars[symbol]
	if len(bars) == 0 || periods <= 0 {
		return 0
	}

	if periods > len(bars) {
		periods = len(bars)
	}
	recent := bars[len(bars)-periods:]

	total := 0.0
	for _, b := range recent {
		total += b.AccumulatedVolume
	}
	return total / float64(len(recent))
}

// -----------------------------------------------------------------------------

// GetVolumeRate returns the most recent bar's accumulated volume, interpreted
// as a per-minute rate because buckets are minute-wide.
func (s *SymbolDataStore) GetVolumeRate(symbol string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.volumeBars[symbol]
	if len(bars) == 0 {
		return 0
	}
	return bars[len(bars)-1].AccumulatedVolume
}

// -----------------------------------------------------------------------------

// GetVolumeBars returns a copy of the volume bars for a symbol.
func (s *SymbolDataStore) GetVolumeBars(symbol string) []models.MVolumeBar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.volumeBars[symbol]
	out := make([]models.MVolumeBar, len(bars))
	copy(out, bars)
	return out
}

// -----------------------------------------------------------------------------

// SymbolCount returns the number of symbols with stored state.
func (s *SymbolDataStore) SymbolCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

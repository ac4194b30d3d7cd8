package analysis

import (
	"math"
	"sync"
	"time"

	"market-pipeline/src/analysis/core"
	"market-pipeline/src/models"
	"market-pipeline/src/store"
)

// -----------------------------------------------------------------------------
// ChangeCalculator derives price change, gap, daily range and momentum from
// the symbol data store. Daily high/low tracking lives here and is reset only
// by an explicit StartNewTradingDay, never implicitly.
// -----------------------------------------------------------------------------

type ChangeCalculator struct {
	Store *store.SymbolDataStore

	daily map[string]*models.MDailyHighLow

	// Cross-symbol running extremes. Useful for ranking, not
	// correctness-critical.
	largestGap  models.MExtreme
	largestMove models.MExtreme

	now func() time.Time
	mu  sync.Mutex
}

// -----------------------------------------------------------------------------

func NewChangeCalculator(s *store.SymbolDataStore) *ChangeCalculator {
	return &ChangeCalculator{
		Store: s,
		daily: make(map[string]*models.MDailyHighLow),
		now:   time.Now,
	}
}

// -----------------------------------------------------------------------------

// Calculate derives the change metrics for the current price of a symbol.
func (c *ChangeCalculator) Calculate(symbol string, currentPrice float64) models.MChangeResult {
	res := models.MChangeResult{}

	if prev, ok := c.Store.GetPreviousPrice(symbol); ok && prev != 0 {
		res.Change = currentPrice - prev
		res.ChangePercent = core.ChangePercent(currentPrice, prev)
	}

	if prevClose, ok := c.Store.GetPreviousClose(symbol); ok && prevClose != 0 {
		res.GapPercent = core.ChangePercent(currentPrice, prevClose)
		res.GapKnown = true
	}

	c.mu.Lock()
	day := c.updateDaily(symbol, currentPrice)
	res.DayHigh = day.High
	res.DayLow = day.Low
	res.DayOpen = day.Open
	res.DayRange = day.High - day.Low
	if day.Low != 0 {
		res.DayRangePercent = res.DayRange / day.Low * 100
	}
	if day.High == day.Low {
		// Flat day: position is defined as the midpoint.
		res.DayPosition = 0.5
	} else {
		pos := (currentPrice - day.Low) / (day.High - day.Low)
		res.DayPosition = math.Max(0, math.Min(1, pos))
	}

	nowMs := c.now().UnixMilli()
	if res.GapKnown && math.Abs(res.GapPercent) > math.Abs(c.largestGap.Value) {
		c.largestGap = models.MExtreme{Symbol: symbol, Value: res.GapPercent, Timestamp: nowMs}
	}
	if math.Abs(res.ChangePercent) > math.Abs(c.largestMove.Value) {
		c.largestMove = models.MExtreme{Symbol: symbol, Value: res.ChangePercent, Timestamp: nowMs}
	}
	c.mu.Unlock()

	return res
}

// -----------------------------------------------------------------------------

// updateDaily applies pointwise max/min. Caller holds the lock.
func (c *ChangeCalculator) updateDaily(symbol string, price float64) *models.MDailyHighLow {
	day, ok := c.daily[symbol]
	if !ok {
		day = &models.MDailyHighLow{
			High:        price,
			Low:         price,
			Open:        price,
			FirstSeenAt: c.now().UnixMilli(),
		}
		c.daily[symbol] = day
		return day
	}

	if price > day.High {
		day.High = price
	}
	if price < day.Low {
		day.Low = price
	}
	return day
}

// -----------------------------------------------------------------------------

// CalculateMomentum scans history backward from the newest entry for the
// first entry older than now-windowMinutes; if the window exceeds available
// history it falls back to the oldest entry. Velocity is normalized to the
// actual elapsed time between the sampled points, not the requested window:
// available history may be shorter than the window.
func (c *ChangeCalculator) CalculateMomentum(symbol string, windowMinutes int) models.MMomentumResult {
	res := models.MMomentumResult{}

	history := c.Store.GetHistory(symbol, 0)
	if len(history) < 2 {
		return res
	}

	latest := history[len(history)-1]
	cutoff := latest.Timestamp - int64(windowMinutes)*60_000

	start := history[0]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Timestamp < cutoff {
			start = history[i]
			break
		}
	}

	if start.Price != 0 {
		res.MomentumPercent = core.ChangePercent(latest.Price, start.Price)
	}

	elapsedMin := float64(latest.Timestamp-start.Timestamp) / 60_000
	res.ElapsedMinutes = elapsedMin
	res.SamplePoints = len(history)
	if elapsedMin > 0 {
		res.Velocity = (latest.Price - start.Price) / elapsedMin
	}

	return res
}

// -----------------------------------------------------------------------------

// StartNewTradingDay resets daily high/low tracking for all symbols. The only
// reset path: session boundaries are decided by the caller (trading calendar).
func (c *ChangeCalculator) StartNewTradingDay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.daily = make(map[string]*models.MDailyHighLow)
}

// -----------------------------------------------------------------------------

// LargestGap returns the biggest absolute gap seen across all symbols.
func (c *ChangeCalculator) LargestGap() models.MExtreme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.largestGap
}

// -----------------------------------------------------------------------------

// LargestMove returns the biggest absolute change seen across all symbols.
func (c *ChangeCalculator) LargestMove() models.MExtreme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.largestMove
}

package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"market-pipeline/src/analysis"
	"market-pipeline/src/analysis/core"
	"market-pipeline/src/helpers"
	"market-pipeline/src/interfaces"
	"market-pipeline/src/logger"
	"market-pipeline/src/models"
	"market-pipeline/src/store"
	"market-pipeline/src/transform"
	"market-pipeline/src/utils"
)

// -----------------------------------------------------------------------------
// TransformationService orchestrates the pipeline:
// transformer -> store update -> calculators -> static enrichment -> canonical
// output shape. The single entry and exit point for record processing.
//
// Failure policy: a record that cannot be transformed is dropped and counted,
// never forwarded raw. A panic while processing one record is contained to
// that record; batches never abort.
// -----------------------------------------------------------------------------

type TransformationService struct {
	Transformer *transform.EventTransformer
	Store       *store.SymbolDataStore
	Changes     *analysis.ChangeCalculator
	Volumes     *analysis.VolumeCalculator
	Reference   interfaces.IReferenceProvider
	Calendar    *utils.TradingCalendar
	Logger      *logger.Logger

	momentumShort int
	momentumLong  int

	recordsProcessed atomic.Int64
	recordsRejected  atomic.Int64
	batchesProcessed atomic.Int64
	lastBatchSeconds atomic.Int64 // microseconds, stored atomically

	preMarket map[string]preMarketState
	pmu       sync.Mutex
}

// preMarketState accumulates trades seen before the regular open.
type preMarketState struct {
	Price  float64
	Volume float64
}

// -----------------------------------------------------------------------------

func NewTransformationService(
	st *store.SymbolDataStore,
	changes *analysis.ChangeCalculator,
	volumes *analysis.VolumeCalculator,
	ref interfaces.IReferenceProvider,
	cal *utils.TradingCalendar,
	cfg models.MPipelineConfig,
	log *logger.Logger,
) *TransformationService {
	short, long := 5, 15
	if len(cfg.MomentumWindows) > 0 {
		short = cfg.MomentumWindows[0]
	}
	if len(cfg.MomentumWindows) > 1 {
		long = cfg.MomentumWindows[1]
	}

	return &TransformationService{
		Transformer:   transform.NewEventTransformer(),
		Store:         st,
		Changes:       changes,
		Volumes:       volumes,
		Reference:     ref,
		Calendar:      cal,
		Logger:        log,
		momentumShort: short,
		momentumLong:  long,
		preMarket:     make(map[string]preMarketState),
	}
}

// -----------------------------------------------------------------------------

// Transform processes one raw event into a canonical record. The returned
// error is a *helpers.ValidationError or *helpers.TransformError; callers
// treat both as "record dropped".
func (s *TransformationService) Transform(ev models.MRawEvent) (rec *models.MCanonicalRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.recordsRejected.Add(1)
			s.Logger.Error("panic while transforming %s event for %q: %v", ev.Type, ev.Symbol(), r)
			rec = nil
			err = helpers.NewTransformError(nil, "panic while transforming record")
		}
	}()

	tick, terr := s.Transformer.Transform(ev)
	if terr != nil {
		s.recordsRejected.Add(1)
		s.Logger.Debug("record dropped: %v", terr)
		return nil, terr
	}

	// New trading day resets daily high/low tracking before the first
	// record of the session lands.
	if s.Calendar != nil && s.Calendar.NewTradingDay(tick.Timestamp) {
		s.Logger.Info("new trading day detected, resetting daily tracking")
		s.Changes.StartNewTradingDay()
	}

	s.Store.Update(tick.Symbol, *tick)

	change := s.Changes.Calculate(tick.Symbol, tick.Price)
	volume := s.Volumes.Calculate(tick.Symbol, tick.Volume)
	momShort := s.Changes.CalculateMomentum(tick.Symbol, s.momentumShort)
	momLong := s.Changes.CalculateMomentum(tick.Symbol, s.momentumLong)

	out := models.NewMCanonicalRecord(tick.Symbol)
	out.Price = tick.Price
	out.Change = change.Change
	out.ChangePercent = change.ChangePercent
	out.GapPercent = change.GapPercent
	out.Volume = tick.Volume
	out.RelativeVolume = volume.RelativeVolume
	out.VolumeRate = volume.VolumeRate
	out.Momentum5m = momShort.MomentumPercent
	out.Momentum15m = momLong.MomentumPercent
	out.Timestamp = tick.Timestamp.Format(time.RFC3339Nano)

	s.applyPreMarket(&out, tick)
	s.enrich(&out)

	s.recordsProcessed.Add(1)
	return &out, nil
}

// -----------------------------------------------------------------------------

// TransformBatch processes events in order within a single synchronous pass.
// Failed records are dropped; the batch always completes.
func (s *TransformationService) TransformBatch(events []models.MRawEvent) []models.MCanonicalRecord {
	start := time.Now()

	out := make([]models.MCanonicalRecord, 0, len(events))
	for _, ev := range events {
		rec, err := s.Transform(ev)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}

	s.batchesProcessed.Add(1)
	s.lastBatchSeconds.Store(time.Since(start).Microseconds())
	return out
}

// -----------------------------------------------------------------------------

// enrich merges static reference data. Fields already present on the record
// are never overwritten.
func (s *TransformationService) enrich(out *models.MCanonicalRecord) {
	if s.Reference == nil {
		return
	}
	ref, ok := s.Reference.Get(out.Symbol)
	if !ok {
		return
	}

	if out.MarketCap == 0 {
		out.MarketCap = ref.MarketCap
	}
	if out.Float == 0 {
		out.Float = ref.Float
	}
	if out.ShortFloat == 0 {
		out.ShortFloat = ref.ShortFloat
	}
	if out.ATR == 0 {
		out.ATR = ref.ATR
	}
	if out.Beta == 0 {
		out.Beta = ref.Beta
	}
	if out.Sector == "" {
		out.Sector = ref.Sector
	}
}

// -----------------------------------------------------------------------------

// applyPreMarket accumulates trades before the regular open and stamps the
// pre-market fields onto every record for the symbol.
func (s *TransformationService) applyPreMarket(out *models.MCanonicalRecord, tick *models.MTickRecord) {
	if s.Calendar == nil {
		return
	}

	s.pmu.Lock()
	defer s.pmu.Unlock()

	if tick.Kind == models.EventTrade && s.Calendar.IsPreMarket(tick.Timestamp) {
		state := s.preMarket[tick.Symbol]
		state.Price = tick.Price
		state.Volume += tick.Volume
		s.preMarket[tick.Symbol] = state
	}

	state, ok := s.preMarket[tick.Symbol]
	if !ok {
		return
	}

	out.PreMarketPrice = state.Price
	out.PreMarketVolume = state.Volume
	if prevClose, ok := s.Store.GetPreviousClose(tick.Symbol); ok && prevClose != 0 {
		out.PreMarketChange = state.Price - prevClose
		out.PreMarketChangePercent = core.ChangePercent(state.Price, prevClose)
	}
}

// -----------------------------------------------------------------------------

// ApplyPreviousCloses loads the daily previous-close feed into the store.
func (s *TransformationService) ApplyPreviousCloses(closes map[string]float64) {
	for sym, close := range closes {
		s.Store.SetPreviousClose(sym, close)
	}
}

// -----------------------------------------------------------------------------

// Metrics returns a snapshot of the pipeline counters.
func (s *TransformationService) Metrics() models.MProcessingMetrics {
	return models.MProcessingMetrics{
		RecordsProcessed: s.recordsProcessed.Load(),
		RecordsRejected:  s.recordsRejected.Load(),
		BatchesProcessed: s.batchesProcessed.Load(),
		LastBatchSeconds: float64(s.lastBatchSeconds.Load()) / 1e6,
	}
}

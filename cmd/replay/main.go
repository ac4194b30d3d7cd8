package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"market-pipeline/src/analysis"
	"market-pipeline/src/config"
	"market-pipeline/src/logger"
	"market-pipeline/src/models"
	"market-pipeline/src/pipeline"
	"market-pipeline/src/reference"
	"market-pipeline/src/store"
	"market-pipeline/src/utils"
)

// -----------------------------------------------------------------------------
// replay feeds a file of newline-delimited raw feed events through the full
// transformation pipeline and prints the canonical records. Offline harness
// for checking transformation output without a live feed.
// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	eventsPath := flag.String("events", "", "path to newline-delimited JSON events")
	flag.Parse()

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(conf.LogLevel, "replay")

	if *eventsPath == "" {
		appLogger.Critical("no events file given, use -events")
	}

	// Pipeline wiring, no storage and no upstream connection.
	provider := reference.NewStaticProvider()
	if conf.Pipeline.ReferenceDataPath != "" {
		if err := provider.LoadFile(conf.Pipeline.ReferenceDataPath); err != nil {
			appLogger.Warning("Failed to load reference data: %v", err)
		}
	}

	dataStore := store.NewSymbolDataStore(conf.Pipeline)
	service := pipeline.NewTransformationService(
		dataStore,
		analysis.NewChangeCalculator(dataStore),
		analysis.NewVolumeCalculator(dataStore, conf.Pipeline),
		provider,
		utils.GetCalendar(conf.Pipeline.CalendarMIC),
		conf.Pipeline,
		appLogger,
	)
	service.ApplyPreviousCloses(provider.PreviousCloses())

	file, err := os.Open(*eventsPath)
	if err != nil {
		appLogger.Critical("Failed to open events file: %v", err)
	}
	defer file.Close()

	out := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var ev models.MRawEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			appLogger.Warning("line %d: malformed event: %v", line, err)
			continue
		}

		rec, err := service.Transform(ev)
		if err != nil {
			appLogger.Warning("line %d: dropped: %v", line, err)
			continue
		}
		out.Encode(rec)
	}
	if err := scanner.Err(); err != nil {
		appLogger.Error("read failed: %v", err)
	}

	metrics := service.Metrics()
	appLogger.Info("replayed %d events: %d processed, %d rejected",
		line, metrics.RecordsProcessed, metrics.RecordsRejected)
}

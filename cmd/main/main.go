package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-pipeline/src/analysis"
	"market-pipeline/src/config"
	"market-pipeline/src/connection"
	"market-pipeline/src/interfaces"
	"market-pipeline/src/logger"
	"market-pipeline/src/models"
	"market-pipeline/src/pipeline"
	"market-pipeline/src/reference"
	"market-pipeline/src/server"
	"market-pipeline/src/storage"
	"market-pipeline/src/store"
	"market-pipeline/src/utils"

	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

const persistFlushInterval = 5 * time.Second

// -----------------------------------------------------------------------------

func main() {

	// Optional .env file for local development, env vars win over YAML
	godotenv.Load()

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if key := os.Getenv("FEED_API_KEY"); key != "" {
		cfg.Feed.APIKey = key
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 2. Storage
	var db interfaces.IDatabase

	if cfg.Storage.Enabled {
		switch cfg.Storage.DBType {
		case "postgres":
			db = storage.NewPostgresDB(cfg.Storage, appLogger.Named("storage"))
		default:
			// Default to SQLite
			db = storage.NewSQLiteDB(cfg.Storage, appLogger.Named("storage"))
		}

		if err := db.Initialize(); err != nil {
			appLogger.Critical("Failed to init db: %v", err)
		}
	}

	// 3. Reference data
	provider := reference.NewStaticProvider()
	if cfg.Pipeline.ReferenceDataPath != "" {
		if err := provider.LoadFile(cfg.Pipeline.ReferenceDataPath); err != nil {
			appLogger.Warning("Failed to load reference data: %v", err)
		}
	}

	// 4. Pipeline components
	dataStore := store.NewSymbolDataStore(cfg.Pipeline)
	changes := analysis.NewChangeCalculator(dataStore)
	volumes := analysis.NewVolumeCalculator(dataStore, cfg.Pipeline)
	calendar := utils.GetCalendar(cfg.Pipeline.CalendarMIC)

	service := pipeline.NewTransformationService(
		dataStore, changes, volumes, provider, calendar,
		cfg.Pipeline, appLogger.Named("pipeline"))

	// 5. Previous closes: file-sourced first, persisted ones on top
	service.ApplyPreviousCloses(provider.PreviousCloses())
	if db != nil {
		if closes, err := db.LoadPreviousCloses(); err != nil {
			appLogger.Warning("Failed to load previous closes: %v", err)
		} else {
			service.ApplyPreviousCloses(closes)
		}
	}

	// 6. Feed connection manager
	manager := connection.NewManager(cfg.Feed, service, appLogger.Named("feed"))

	// 7. Dashboard server
	srv := server.NewDashboardServer(cfg.MConfig, appLogger.Named("server"), manager.Metrics)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 8. Subscribe to the configured streams. One upstream connection per
	// stream, all delivering into the dashboard hub and the persist queue.
	persistChan := make(chan models.MCanonicalRecord, 1024)

	deliver := func(subID string, rec models.MCanonicalRecord) {
		srv.Broadcast(rec)
		if db != nil {
			select {
			case persistChan <- rec:
			default:
				appLogger.Warning("persist queue full, dropping record for %s", rec.Symbol)
			}
		}
	}

	for _, stream := range cfg.Feed.Streams {
		subID, err := manager.Subscribe(stream, stream, cfg.Feed.Symbols, deliver)
		if err != nil {
			appLogger.Error("Failed to subscribe to %s: %v", stream, err)
			continue
		}
		appLogger.Info("Subscribed %s to %d symbols", subID, len(cfg.Feed.Symbols))
	}

	// 9. Persist loop, bulk flush on a timer
	persistStop := make(chan struct{})
	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)

		ticker := time.NewTicker(persistFlushInterval)
		defer ticker.Stop()

		var batch []models.MCanonicalRecord
		flush := func() {
			if db == nil || len(batch) == 0 {
				return
			}
			if err := db.SaveRecordsBulk(batch); err != nil {
				appLogger.Error("Failed to persist records: %v", err)
			}
			batch = batch[:0]
		}

		for {
			select {
			case rec := <-persistChan:
				batch = append(batch, rec)

			case <-ticker.C:
				flush()
				if db != nil {
					if err := db.CleanupOldData(); err != nil {
						appLogger.Warning("Cleanup failed: %v", err)
					}
				}

			case <-persistStop:
				// Drain whatever is still queued, then final flush.
				for {
					select {
					case rec := <-persistChan:
						batch = append(batch, rec)
					default:
						flush()
						return
					}
				}
			}
		}
	}()

	// 10. Connection event loop
	go func() {
		for ev := range manager.Events() {
			switch ev.Kind {
			case connection.EventConnected:
				appLogger.Info("Feed %s connected", ev.ClientID)
			case connection.EventDisconnected:
				appLogger.Warning("Feed %s disconnected: %v", ev.ClientID, ev.Err)
			case connection.EventReconnecting:
				appLogger.Info("Feed %s reconnecting, attempt %d", ev.ClientID, ev.Attempt)
			case connection.EventAbandoned:
				appLogger.Error("Feed %s abandoned, %d subscriptions purged", ev.ClientID, len(ev.PurgedIDs))
			}
		}
	}()

	// 11. Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")

	manager.Close()
	close(persistStop)
	<-persistDone

	if db != nil {
		if closes := dataStore.GetAllSnapshots(); len(closes) > 0 {
			// Snapshot prices become tomorrow's previous closes.
			prev := make(map[string]float64, len(closes))
			for sym, rec := range closes {
				prev[sym] = rec.Price
			}
			if err := db.SavePreviousCloses(prev); err != nil {
				appLogger.Warning("Failed to save previous closes: %v", err)
			}
		}
		db.Close()
	}

	srv.Stop()
}

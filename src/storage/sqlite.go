package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"market-pipeline/src/logger"
	"market-pipeline/src/models"

	_ "modernc.org/sqlite"
)

// SQLite batch constants
const (
	sqliteMaxVars   = 32000
	paramsPerRow    = 9
	sqliteBatchSize = sqliteMaxVars / paramsPerRow
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config models.MStorageConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg models.MStorageConfig, log *logger.Logger) *SQLiteDB {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.DBPath)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS canonical_records (
			symbol TEXT,
			timestamp TEXT,
			price REAL,
			change REAL,
			change_percent REAL,
			volume REAL,
			relative_volume REAL,
			gap_percent REAL,
			momentum_5m REAL,
			PRIMARY KEY (symbol, timestamp)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create canonical_records: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS previous_closes (
			symbol TEXT PRIMARY KEY,
			close REAL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create previous_closes: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveRecordsBulk(records []models.MCanonicalRecord) error {
	if len(records) == 0 {
		return nil
	}

	for start := 0; start < len(records); start += sqliteBatchSize {
		end := start + sqliteBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := d.saveBatch(records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) saveBatch(records []models.MCanonicalRecord) error {
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*paramsPerRow)

	for _, r := range records {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			r.Symbol, r.Timestamp, r.Price, r.Change, r.ChangePercent,
			r.Volume, r.RelativeVolume, r.GapPercent, r.Momentum5m)
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO canonical_records
		(symbol, timestamp, price, change, change_percent, volume, relative_volume, gap_percent, momentum_5m)
		VALUES %s`, strings.Join(placeholders, ", "))

	if _, err := d.DB.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SavePreviousCloses(closes map[string]float64) error {
	if len(closes) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO previous_closes (symbol, close) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for sym, close := range closes {
		if _, err := stmt.Exec(sym, close); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save previous close for %s: %w", sym, err)
		}
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) LoadPreviousCloses() (map[string]float64, error) {
	rows, err := d.DB.Query("SELECT symbol, close FROM previous_closes")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	closes := make(map[string]float64)
	for rows.Next() {
		var sym string
		var close float64
		if err := rows.Scan(&sym, &close); err != nil {
			return nil, err
		}
		closes[sym] = close
	}
	return closes, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CleanupOldData() error {
	if d.Config.RetentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -d.Config.RetentionDays).Format(time.RFC3339Nano)
	res, err := d.DB.Exec("DELETE FROM canonical_records WHERE timestamp < ?", cutoff)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		d.Logger.Debug("cleaned up %d old records", n)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

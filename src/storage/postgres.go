package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"market-pipeline/src/logger"
	"market-pipeline/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config models.MStorageConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg models.MStorageConfig, log *logger.Logger) *PostgresDB {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.Config.DBConnectionString)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	query := `
		CREATE TABLE IF NOT EXISTS canonical_records (
			symbol TEXT,
			timestamp TEXT,
			price DOUBLE PRECISION,
			change DOUBLE PRECISION,
			change_percent DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			relative_volume DOUBLE PRECISION,
			gap_percent DOUBLE PRECISION,
			momentum_5m DOUBLE PRECISION,
			PRIMARY KEY (symbol, timestamp)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create canonical_records: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS previous_closes (
			symbol TEXT PRIMARY KEY,
			close DOUBLE PRECISION,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create previous_closes: %w", err)
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveRecordsBulk(records []models.MCanonicalRecord) error {
	if len(records) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*9)

	for i, r := range records {
		base := i * 9
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args,
			r.Symbol, r.Timestamp, r.Price, r.Change, r.ChangePercent,
			r.Volume, r.RelativeVolume, r.GapPercent, r.Momentum5m)
	}

	query := fmt.Sprintf(`
		INSERT INTO canonical_records
		(symbol, timestamp, price, change, change_percent, volume, relative_volume, gap_percent, momentum_5m)
		VALUES %s
		ON CONFLICT (symbol, timestamp) DO UPDATE SET
			price = EXCLUDED.price,
			change = EXCLUDED.change,
			change_percent = EXCLUDED.change_percent,
			volume = EXCLUDED.volume,
			relative_volume = EXCLUDED.relative_volume,
			gap_percent = EXCLUDED.gap_percent,
			momentum_5m = EXCLUDED.momentum_5m`,
		strings.Join(placeholders, ", "))

	if _, err := d.DB.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SavePreviousCloses(closes map[string]float64) error {
	if len(closes) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO previous_closes (symbol, close) VALUES ($1, $2)
		ON CONFLICT (symbol) DO UPDATE SET close = EXCLUDED.close, updated_at = CURRENT_TIMESTAMP`)
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

func (d *PostgresDB) LoadPreviousCloses() (map[string]float64, error) {
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

func (d *PostgresDB) CleanupOldData() error {
	if d.Config.RetentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -d.Config.RetentionDays).Format(time.RFC3339Nano)
	res, err := d.DB.Exec("DELETE FROM canonical_records WHERE timestamp < $1", cutoff)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		d.Logger.Debug("cleaned up %d old records", n)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

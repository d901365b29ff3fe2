// Package store persists what the simulation produces: closed daily
// candles for charting and full state snapshots for save/resume.
package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/domain"
)

// IndexSymbol is the reserved symbol the market index candle is stored
// under. Universe symbols are plain tickers, so the prefix cannot clash.
const IndexSymbol = "^MARKET"

// CandleRepository stores one OHLCV row per company per closed day.
type CandleRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCandleRepository creates the repository and its schema.
func NewCandleRepository(db *sql.DB, log zerolog.Logger) (*CandleRepository, error) {
	r := &CandleRepository{
		db:  db,
		log: log.With().Str("repository", "candles").Logger(),
	}
	if err := r.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to create candles schema: %w", err)
	}
	return r, nil
}

func (r *CandleRepository) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT NOT NULL,
			day INTEGER NOT NULL,
			open REAL NOT NULL,
			high REAL NOT NULL,
			low REAL NOT NULL,
			close REAL NOT NULL,
			volume INTEGER NOT NULL,
			PRIMARY KEY (symbol, day)
		);
		CREATE INDEX IF NOT EXISTS idx_candles_day ON candles(day);
	`)
	return err
}

// SaveDay upserts the closed candles for one day in a single
// transaction. Re-running a day (snapshot restore, retried advance)
// overwrites rather than duplicates.
func (r *CandleRepository) SaveDay(day int, candles map[string]domain.PricePoint) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin candle transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO candles (symbol, day, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, day) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare candle insert: %w", err)
	}
	defer stmt.Close()

	for symbol, p := range candles {
		if _, err := stmt.Exec(symbol, day, p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			return fmt.Errorf("failed to insert candle for %s day %d: %w", symbol, day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candle transaction: %w", err)
	}
	return nil
}

// Recent returns up to limit closed candles for a symbol, oldest first.
func (r *CandleRepository) Recent(symbol string, limit int) ([]domain.PricePoint, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT day, open, high, low, close, volume
		FROM candles
		WHERE symbol = ?
		ORDER BY day DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles for %s: %w", symbol, err)
	}
	defer rows.Close()

	var candles []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Day, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candles: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// PruneBefore drops candles older than the cutoff day across all
// symbols, keeping the table bounded like the in-memory histories.
func (r *CandleRepository) PruneBefore(day int) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM candles WHERE day < ?`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to prune candles: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		r.log.Debug().Int64("rows", n).Int("cutoff_day", day).Msg("Pruned old candles")
	}
	return n, nil
}

// Count returns the total number of stored candles.
func (r *CandleRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM candles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count candles: %w", err)
	}
	return count, nil
}

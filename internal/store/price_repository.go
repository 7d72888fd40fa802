package store

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/gmf-engine/internal/marketdata"
)

// PriceRepository persists daily close prices
type PriceRepository interface {
	Upsert(ctx context.Context, ticker string, points []marketdata.PricePoint) (int, error)
	GetRange(ctx context.Context, tickers []string, start, end time.Time) (*marketdata.PriceTable, error)
	LatestDate(ctx context.Context, ticker string) (time.Time, error)
}

// PostgresPriceRepository implements PriceRepository for PostgreSQL
type PostgresPriceRepository struct {
	db *DB
}

// NewPostgresPriceRepository creates a new price repository
func NewPostgresPriceRepository(db *DB) PriceRepository {
	return &PostgresPriceRepository{db: db}
}

// Upsert inserts or updates daily closes for a ticker and returns the number
// of rows written
func (r *PostgresPriceRepository) Upsert(ctx context.Context, ticker string, points []marketdata.PricePoint) (int, error) {
	query := `
		INSERT INTO daily_prices (ticker, trade_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET close_price = EXCLUDED.close_price
	`

	count := 0
	for _, p := range points {
		if _, err := r.db.GetPool().Exec(ctx, query, ticker, p.Date, p.Close); err != nil {
			return count, fmt.Errorf("failed to upsert price for %s on %s: %w", ticker, p.Date.Format("2006-01-02"), err)
		}
		count++
	}
	return count, nil
}

// GetRange retrieves aligned closes for the tickers over [start, end] and
// builds a price table. Dates missing any ticker are dropped so the table
// invariants hold.
func (r *PostgresPriceRepository) GetRange(ctx context.Context, tickers []string, start, end time.Time) (*marketdata.PriceTable, error) {
	query := `
		SELECT ticker, trade_date, close_price
		FROM daily_prices
		WHERE ticker = ANY($1) AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date, ticker
	`

	rows, err := r.db.GetPool().Query(ctx, query, tickers, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	byDate := make(map[time.Time]map[string]float64)
	var dates []time.Time
	for rows.Next() {
		var ticker string
		var date time.Time
		var close float64
		if err := rows.Scan(&ticker, &date, &close); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		date = date.UTC().Truncate(24 * time.Hour)
		if _, ok := byDate[date]; !ok {
			byDate[date] = make(map[string]float64, len(tickers))
			dates = append(dates, date)
		}
		byDate[date][ticker] = close
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price rows: %w", err)
	}

	cols := make(map[string][]float64, len(tickers))
	for _, t := range tickers {
		cols[t] = make([]float64, 0, len(dates))
	}
	var kept []time.Time
	for _, d := range dates {
		row := byDate[d]
		if len(row) != len(tickers) {
			continue
		}
		kept = append(kept, d)
		for _, t := range tickers {
			cols[t] = append(cols[t], row[t])
		}
	}

	return marketdata.NewPriceTable(tickers, kept, cols)
}

// LatestDate returns the most recent stored trade date for a ticker
func (r *PostgresPriceRepository) LatestDate(ctx context.Context, ticker string) (time.Time, error) {
	query := `SELECT MAX(trade_date) FROM daily_prices WHERE ticker = $1`

	var latest *time.Time
	if err := r.db.GetPool().QueryRow(ctx, query, ticker).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest date for %s: %w", ticker, err)
	}
	if latest == nil {
		return time.Time{}, ErrNotFound
	}
	return *latest, nil
}

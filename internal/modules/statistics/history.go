package statistics

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aristath/quantpick/internal/database"
)

const historyDateLayout = "2006-01-02"

// HistoryRepository stores daily closes in history.db
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a history repository
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Import upserts every non-missing price of the frame and returns the number of rows written
func (r *HistoryRepository) Import(ctx context.Context, frame *PriceFrame) (int, error) {
	written := 0
	importedAt := time.Now().Unix()

	err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT OR REPLACE INTO daily_prices (symbol, date, close, imported_at) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, date := range frame.Dates {
			day := date.Format(historyDateLayout)
			for c, symbol := range frame.Tickers {
				price := frame.Prices[i][c]
				if math.IsNaN(price) {
					continue
				}
				if _, err := stmt.ExecContext(ctx, symbol, day, price, importedAt); err != nil {
					return fmt.Errorf("failed to insert %s on %s: %w", symbol, day, err)
				}
				written++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Load builds a price frame for tickers from since (inclusive) onwards.
// Dates on which a ticker has no close are NaN.
func (r *HistoryRepository) Load(ctx context.Context, tickers []string, since time.Time) (*PriceFrame, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers requested", ErrInvalidPrices)
	}

	column := make(map[string]int, len(tickers))
	for i, t := range tickers {
		if _, dup := column[t]; dup {
			return nil, fmt.Errorf("%w: duplicate ticker %q", ErrInvalidPrices, t)
		}
		column[t] = i
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tickers)), ",")
	args := make([]interface{}, 0, len(tickers)+1)
	for _, t := range tickers {
		args = append(args, t)
	}
	args = append(args, since.UTC().Format(historyDateLayout))

	query := "SELECT symbol, date, close FROM daily_prices WHERE symbol IN (" + placeholders + ") AND date >= ? ORDER BY date"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	byDate := make(map[string][]float64)
	found := make(map[string]bool, len(tickers))
	for rows.Next() {
		var symbol, day string
		var price float64
		if err := rows.Scan(&symbol, &day, &price); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		row, ok := byDate[day]
		if !ok {
			row = make([]float64, len(tickers))
			for i := range row {
				row[i] = math.NaN()
			}
			byDate[day] = row
		}
		row[column[symbol]] = price
		found[symbol] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read price history: %w", err)
	}

	for _, t := range tickers {
		if !found[t] {
			return nil, fmt.Errorf("%w: no history for %s", ErrInvalidPrices, t)
		}
	}

	days := make([]string, 0, len(byDate))
	for day := range byDate {
		days = append(days, day)
	}
	sort.Strings(days)

	frame := &PriceFrame{Tickers: append([]string(nil), tickers...)}
	for _, day := range days {
		date, err := time.Parse(historyDateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored date %q: %w", day, err)
		}
		frame.Dates = append(frame.Dates, date)
		frame.Prices = append(frame.Prices, byDate[day])
	}
	return frame, nil
}

// Tickers lists every symbol with stored prices, alphabetically
func (r *HistoryRepository) Tickers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, symbol)
	}
	return tickers, rows.Err()
}

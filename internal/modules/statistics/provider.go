package statistics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ErrHistoryUnavailable is returned by history operations when no history store is configured
var ErrHistoryUnavailable = errors.New("price history is not configured")

// Provider produces Statistics from CSV uploads, files or stored history.
// cache and history are optional.
type Provider struct {
	cache   *CacheRepository
	history *HistoryRepository
	ttl     time.Duration
	log     zerolog.Logger
}

// NewProvider creates a statistics provider
func NewProvider(cache *CacheRepository, history *HistoryRepository, ttl time.Duration, log zerolog.Logger) *Provider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Provider{
		cache:   cache,
		history: history,
		ttl:     ttl,
		log:     log.With().Str("component", "statistics_provider").Logger(),
	}
}

// FromReader parses a CSV price table and computes its statistics.
// Results are cached by content hash.
func (p *Provider) FromReader(ctx context.Context, r io.Reader) (*Statistics, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read price data: %w", err)
	}

	key := CacheKey(raw)
	if p.cache != nil {
		cached, err := p.cache.GetIfFresh(ctx, key)
		if err != nil {
			p.log.Warn().Err(err).Str("key", key).Msg("Statistics cache read failed")
		} else if cached != nil {
			p.log.Debug().Str("key", key).Msg("Statistics cache hit")
			return cached, nil
		}
	}

	frame, err := ParseCSV(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	stats := Compute(frame)

	if p.cache != nil {
		if err := p.cache.Store(ctx, key, stats, p.ttl); err != nil {
			p.log.Warn().Err(err).Str("key", key).Msg("Statistics cache write failed")
		}
	}

	p.log.Debug().
		Int("assets", len(stats.Tickers)).
		Int("observations", stats.Observations).
		Msg("Statistics computed")

	return stats, nil
}

// FromFile reads the CSV at path
func (p *Provider) FromFile(ctx context.Context, path string) (*Statistics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return p.FromReader(ctx, f)
}

// FromHistory computes statistics from stored closes over the last lookbackDays days
func (p *Provider) FromHistory(ctx context.Context, tickers []string, lookbackDays int) (*Statistics, error) {
	if p.history == nil {
		return nil, ErrHistoryUnavailable
	}
	if lookbackDays < 2 {
		return nil, fmt.Errorf("%w: lookback must be at least 2 days, got %d", ErrInvalidPrices, lookbackDays)
	}

	since := time.Now().UTC().AddDate(0, 0, -lookbackDays)
	frame, err := p.history.Load(ctx, tickers, since)
	if err != nil {
		return nil, err
	}
	return Compute(frame), nil
}

// Import stores a CSV price table in the history database
func (p *Provider) Import(ctx context.Context, r io.Reader) (*PriceFrame, int, error) {
	if p.history == nil {
		return nil, 0, ErrHistoryUnavailable
	}

	frame, err := ParseCSV(r)
	if err != nil {
		return nil, 0, err
	}
	written, err := p.history.Import(ctx, frame)
	if err != nil {
		return nil, 0, err
	}

	p.log.Info().
		Int("tickers", len(frame.Tickers)).
		Int("rows", written).
		Msg("Price history imported")

	return frame, written, nil
}

// Tickers lists symbols with stored history
func (p *Provider) Tickers(ctx context.Context) ([]string, error) {
	if p.history == nil {
		return nil, ErrHistoryUnavailable
	}
	return p.history.Tickers(ctx)
}

package prices

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
)

// CachedSource serves closes and history from a cache in front of another source
type CachedSource struct {
	source  domain.PriceSource
	closes  *Cache
	history *Cache
	log     zerolog.Logger
}

// NewCachedSource wraps source with separate caches for closes and history
func NewCachedSource(source domain.PriceSource, closes, history *Cache, log zerolog.Logger) *CachedSource {
	return &CachedSource{
		source:  source,
		closes:  closes,
		history: history,
		log:     log.With().Str("component", "price_cache").Logger(),
	}
}

// LatestCloses returns cached closes and fetches the rest in one call
func (s *CachedSource) LatestCloses(ctx context.Context, tickers []string) (map[string]float64, error) {
	result := make(map[string]float64, len(tickers))
	var misses []string
	for _, t := range tickers {
		if v, ok := s.closes.Get(t); ok {
			result[t] = v.(float64)
			continue
		}
		misses = append(misses, t)
	}
	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := s.source.LatestCloses(ctx, misses)
	if err != nil {
		return nil, err
	}
	for t, price := range fetched {
		s.closes.Set(t, price)
		result[t] = price
	}

	s.log.Debug().Int("hits", len(tickers)-len(misses)).Int("misses", len(misses)).Msg("Resolved latest closes")
	return result, nil
}

// History returns cached bars for (ticker, limit) or loads them
func (s *CachedSource) History(ctx context.Context, ticker string, limit int) ([]domain.OHLCVBar, error) {
	key := fmt.Sprintf("%s:%d", ticker, limit)
	if v, ok := s.history.Get(key); ok {
		return v.([]domain.OHLCVBar), nil
	}

	bars, err := s.source.History(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}
	s.history.Set(key, bars)
	return bars, nil
}

// Warm refreshes cached closes for tickers from the underlying source and
// returns how many were loaded
func (s *CachedSource) Warm(ctx context.Context, tickers []string) (int, error) {
	if len(tickers) == 0 {
		return 0, nil
	}
	fetched, err := s.source.LatestCloses(ctx, tickers)
	if err != nil {
		return 0, fmt.Errorf("failed to warm price cache: %w", err)
	}
	loaded := make([]string, 0, len(fetched))
	for t, price := range fetched {
		s.closes.Set(t, price)
		loaded = append(loaded, t)
	}
	sort.Strings(loaded)
	s.log.Debug().Strs("tickers", loaded).Msg("Warmed price cache")
	return len(fetched), nil
}

// Invalidate drops cached closes and history, e.g. after new bars are stored
func (s *CachedSource) Invalidate() {
	s.closes.Flush()
	s.history.Flush()
}

package prices

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
)

func TestCache_EvictsEarliestExpiringWhenFull(t *testing.T) {
	c := NewCache(2, time.Hour)

	c.Set("a", 1.0)
	time.Sleep(2 * time.Millisecond)
	c.Set("b", 2.0)
	time.Sleep(2 * time.Millisecond)
	c.Set("c", 3.0)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	// Overwriting an existing key does not evict
	c.Set("b", 20.0)
	assert.Equal(t, 2, c.Len())
	v, _ = c.Get("b")
	assert.Equal(t, 20.0, v)
}

func TestCache_TTL(t *testing.T) {
	c := NewCache(10, 10*time.Millisecond)
	c.Set("a", 1.0)

	_, ok := c.Get("a")
	assert.True(t, ok)

	time.Sleep(25 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

type countingSource struct {
	closes       map[string]float64
	closeCalls   int
	historyCalls int
}

func (s *countingSource) LatestCloses(ctx context.Context, tickers []string) (map[string]float64, error) {
	s.closeCalls++
	out := map[string]float64{}
	for _, t := range tickers {
		if p, ok := s.closes[t]; ok {
			out[t] = p
		}
	}
	return out, nil
}

func (s *countingSource) History(ctx context.Context, ticker string, limit int) ([]domain.OHLCVBar, error) {
	s.historyCalls++
	return []domain.OHLCVBar{{Date: "2024-01-02", Close: s.closes[ticker]}}, nil
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{closes: map[string]float64{"AAPL": 100, "MSFT": 300}}
	cached := NewCachedSource(src, NewCache(16, time.Hour), NewCache(16, time.Hour), zerolog.Nop())

	first, err := cached.LatestCloses(ctx, []string{"AAPL", "MSFT", "NVDA"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 100, "MSFT": 300}, first)
	assert.Equal(t, 1, src.closeCalls)

	second, err := cached.LatestCloses(ctx, []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.closeCalls)

	_, err = cached.History(ctx, "AAPL", 15)
	require.NoError(t, err)
	_, err = cached.History(ctx, "AAPL", 15)
	require.NoError(t, err)
	assert.Equal(t, 1, src.historyCalls)

	cached.Invalidate()
	_, err = cached.LatestCloses(ctx, []string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 2, src.closeCalls)
}

func TestCachedSource_Warm(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{closes: map[string]float64{"AAPL": 100}}
	cached := NewCachedSource(src, NewCache(16, time.Hour), NewCache(16, time.Hour), zerolog.Nop())

	n, err := cached.Warm(ctx, []string{"AAPL", "NVDA"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	closes, err := cached.LatestCloses(ctx, []string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, closes["AAPL"])
	assert.Equal(t, 1, src.closeCalls)

	n, err = cached.Warm(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

package formulas

import (
	"github.com/markcheno/go-talib"
)

// DefaultATRPeriod is the lookback used when a caller passes a non-positive period
const DefaultATRPeriod = 14

// TrueRange returns the true range series for the given bars.
// Element 0 has no previous close and is reported as 0.
func TrueRange(high, low, close []float64) []float64 {
	n := len(close)
	if n == 0 || len(high) != n || len(low) != n {
		return nil
	}
	if n == 1 {
		return []float64{0}
	}
	return talib.TRange(high, low, close)
}

// ATR returns the simple rolling mean of the last `period` true ranges.
// Requires at least period+1 bars; returns 0 otherwise so callers can fall
// back to a default stop distance.
func ATR(high, low, close []float64, period int) float64 {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	n := len(close)
	if n < period+1 || len(high) != n || len(low) != n {
		return 0
	}

	tr := TrueRange(high, low, close)
	return Mean(tr[n-period:])
}

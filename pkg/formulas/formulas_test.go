package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndSum(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Sum(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 6.0, Sum([]float64{1, 2, 3}), 1e-12)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.2349, 2))
	assert.Equal(t, 1.24, Round(1.235001, 2))
	assert.Equal(t, -3.0, Round(-2.6, 0))
}

func TestTrueRange(t *testing.T) {
	high := []float64{10, 12, 11}
	low := []float64{8, 9, 7}
	close := []float64{9, 11, 10}

	tr := TrueRange(high, low, close)
	assert.Len(t, tr, 3)
	assert.Equal(t, 0.0, tr[0])
	// max(12-9, |9-12|, |9-9|) = 3
	assert.InDelta(t, 3.0, tr[1], 1e-12)
	// max(11-7, |11-11|, |11-7|) = 4
	assert.InDelta(t, 4.0, tr[2], 1e-12)
}

func TestTrueRange_MismatchedInputs(t *testing.T) {
	assert.Nil(t, TrueRange([]float64{1}, []float64{1, 2}, []float64{1}))
	assert.Nil(t, TrueRange(nil, nil, nil))
}

func TestATR(t *testing.T) {
	t.Run("insufficient bars returns zero", func(t *testing.T) {
		high := []float64{10, 11, 12}
		low := []float64{9, 10, 11}
		close := []float64{9.5, 10.5, 11.5}
		assert.Equal(t, 0.0, ATR(high, low, close, 3))
	})

	t.Run("mean of last period true ranges", func(t *testing.T) {
		// Constant 2-point daily range with no gaps: TR = 2 every bar
		n := 20
		high := make([]float64, n)
		low := make([]float64, n)
		close := make([]float64, n)
		for i := 0; i < n; i++ {
			low[i] = 100
			high[i] = 102
			close[i] = 101
		}
		assert.InDelta(t, 2.0, ATR(high, low, close, 14), 1e-9)
	})

	t.Run("uses only the trailing window", func(t *testing.T) {
		high := []float64{10, 20, 11, 12}
		low := []float64{9, 10, 10, 11}
		close := []float64{10, 15, 11, 12}
		// TR: [0, 10, max(1,4,5)=5, max(1,1,0)=1]; period 2 → mean(5, 1) = 3
		assert.InDelta(t, 3.0, ATR(high, low, close, 2), 1e-9)
	})

	t.Run("non-positive period uses default", func(t *testing.T) {
		high := make([]float64, 10)
		low := make([]float64, 10)
		close := make([]float64, 10)
		assert.Equal(t, 0.0, ATR(high, low, close, 0))
	})
}

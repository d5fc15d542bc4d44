package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Sum adds up a slice of float64 values
func Sum(data []float64) float64 {
	return floats.Sum(data)
}

// Round rounds val to the given number of decimal places
func Round(val float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(val*p) / p
}

package valueadded

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// holdoutMetrics is the goodness-of-fit block reported for a fit's holdout.
type holdoutMetrics struct {
	r2   float64
	mae  float64
	rmse float64
}

// evaluateHoldout computes R², MAE and RMSE of predictions against actuals.
func evaluateHoldout(actual, predicted []float64) holdoutMetrics {
	var absSum, sqSum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		absSum += math.Abs(d)
		sqSum += d * d
	}
	n := float64(len(actual))

	return holdoutMetrics{
		r2:   stat.RSquaredFrom(predicted, actual, nil),
		mae:  absSum / n,
		rmse: math.Sqrt(sqSum / n),
	}
}

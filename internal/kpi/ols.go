package kpi

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// olsFit is an ordinary least-squares fit of y on two regressors plus an
// intercept, solved through the normal equations. The design here never
// exceeds two predictors, so a direct 3x3 elimination is enough.
type olsFit struct {
	intercept float64
	coefs     [2]float64
	r2        float64
}

func fitOLS2(x1, x2, y []float64) (olsFit, bool) {
	n := float64(len(y))
	if len(y) < 3 || len(x1) != len(y) || len(x2) != len(y) {
		return olsFit{}, false
	}

	// Normal equations X'X b = X'y with X = [1 x1 x2].
	var s1, s2, s11, s22, s12, sy, s1y, s2y float64
	for i := range y {
		s1 += x1[i]
		s2 += x2[i]
		s11 += x1[i] * x1[i]
		s22 += x2[i] * x2[i]
		s12 += x1[i] * x2[i]
		sy += y[i]
		s1y += x1[i] * y[i]
		s2y += x2[i] * y[i]
	}
	a := [3][4]float64{
		{n, s1, s2, sy},
		{s1, s11, s12, s1y},
		{s2, s12, s22, s2y},
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < 3; col++ {
		pivot := col
		for row := col + 1; row < 3; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			// Collinear or constant regressor.
			return olsFit{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		for row := col + 1; row < 3; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k < 4; k++ {
				a[row][k] -= f * a[col][k]
			}
		}
	}
	var b [3]float64
	for col := 2; col >= 0; col-- {
		v := a[col][3]
		for k := col + 1; k < 3; k++ {
			v -= a[col][k] * b[k]
		}
		b[col] = v / a[col][col]
	}

	fitted := make([]float64, len(y))
	for i := range y {
		fitted[i] = b[0] + b[1]*x1[i] + b[2]*x2[i]
	}
	r2 := stat.RSquaredFrom(fitted, y, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return olsFit{}, false
	}

	return olsFit{intercept: b[0], coefs: [2]float64{b[1], b[2]}, r2: r2}, true
}

// encodeCategories maps the distinct values of a categorical column to
// stable numeric codes in lexicographic order.
func encodeCategories(values []string) []float64 {
	codes := make(map[string]float64)
	seen := make([]string, 0)
	for _, v := range values {
		if _, ok := codes[v]; !ok {
			codes[v] = 0
			seen = append(seen, v)
		}
	}
	sort.Strings(seen)
	for i, v := range seen {
		codes[v] = float64(i)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = codes[v]
	}
	return out
}

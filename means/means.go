// Package means averages returns and ratios. Returns are decimals (0.05 is +5%). NaN entries, and
// for the weighted means any pair whose value or weight is NaN, are skipped.
package means

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/meenmo/bondlib/errs"
)

// Arithmetic is the simple average of returns. It is NaN when no finite entry remains.
func Arithmetic(returns []float64) float64 {
	return stat.Mean(finite(returns), nil)
}

// Geometric is the compounded average return, (prod(1+r))^(1/n) - 1.
func Geometric(returns []float64) (float64, error) {
	gross, err := grossReturns("Geometric", finite(returns))
	if err != nil {
		return 0, err
	}
	return stat.GeometricMean(gross, nil) - 1, nil
}

// Harmonic is n / sum(1/x). Every value must be positive.
func Harmonic(values []float64) (float64, error) {
	clean := finite(values)
	if err := positive("Harmonic", clean); err != nil {
		return 0, err
	}
	return stat.HarmonicMean(clean, nil), nil
}

// WeightedGeometric is exp(sum(w ln(1+r)) / sum(w)) - 1, e.g. returns weighted by period length.
func WeightedGeometric(returns, weights []float64) (float64, error) {
	const fn = "WeightedGeometric"
	x, w, err := pairs(fn, returns, weights)
	if err != nil {
		return 0, err
	}
	gross, err := grossReturns(fn, x)
	if err != nil {
		return 0, err
	}
	return stat.GeometricMean(gross, w) - 1, nil
}

// WeightedHarmonic is sum(w) / sum(w/x), e.g. P/E ratios weighted by market value.
func WeightedHarmonic(values, weights []float64) (float64, error) {
	const fn = "WeightedHarmonic"
	x, w, err := pairs(fn, values, weights)
	if err != nil {
		return 0, err
	}
	if err := positive(fn, x); err != nil {
		return 0, err
	}
	return stat.HarmonicMean(x, w), nil
}

func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func pairs(fn string, xs, ws []float64) ([]float64, []float64, error) {
	if len(xs) != len(ws) {
		return nil, nil, errs.Consistency("%s: %d values but %d weights", fn, len(xs), len(ws))
	}
	x := make([]float64, 0, len(xs))
	w := make([]float64, 0, len(ws))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ws[i]) {
			continue
		}
		x = append(x, xs[i])
		w = append(w, ws[i])
	}
	return x, w, nil
}

func grossReturns(fn string, returns []float64) ([]float64, error) {
	gross := make([]float64, len(returns))
	for i, r := range returns {
		if 1+r <= 0 {
			return nil, errs.Domain("%s: 1 + return must be positive, got return %v", fn, r)
		}
		gross[i] = 1 + r
	}
	return gross, nil
}

func positive(fn string, values []float64) error {
	for _, v := range values {
		if v <= 0 {
			return errs.Domain("%s: values must be positive, got %v", fn, v)
		}
	}
	return nil
}

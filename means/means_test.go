package means_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/means"
)

func TestArithmetic(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.13/3, means.Arithmetic([]float64{0.05, 0.10, -0.02}), 1e-15)
	assert.InDelta(t, 0.035, means.Arithmetic([]float64{0.05, 0.02, math.NaN()}), 1e-15)
	assert.True(t, math.IsNaN(means.Arithmetic(nil)))
}

func TestGeometric(t *testing.T) {
	t.Parallel()

	got, err := means.Geometric([]float64{0.05, 0.10, -0.02})
	require.NoError(t, err)
	assert.InDelta(t, math.Cbrt(1.05*1.10*0.98)-1, got, 1e-12)

	got, err = means.Geometric([]float64{0.05, 0.02, math.NaN()})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(1.05*1.02)-1, got, 1e-12)

	_, err = means.Geometric([]float64{0.05, -1})
	assert.ErrorIs(t, err, errs.ErrDomain)
}

func TestHarmonic(t *testing.T) {
	t.Parallel()

	got, err := means.Harmonic([]float64{15, 20, 25})
	require.NoError(t, err)
	assert.InDelta(t, 3/(1.0/15+1.0/20+1.0/25), got, 1e-12)

	_, err = means.Harmonic([]float64{15, 0})
	assert.ErrorIs(t, err, errs.ErrDomain)
}

func TestWeightedMeans(t *testing.T) {
	t.Parallel()

	got, err := means.WeightedGeometric([]float64{0.05, 0.10, 0.02}, []float64{1, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0669491, got, 1e-7)

	got, err = means.WeightedGeometric([]float64{0.05, math.NaN(), 0.02}, []float64{1, 2, math.NaN()})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, got, 1e-12)

	got, err = means.WeightedHarmonic([]float64{15, 20, 25}, []float64{100, 200, 700})
	require.NoError(t, err)
	assert.InDelta(t, 22.3880597, got, 1e-7)

	_, err = means.WeightedHarmonic([]float64{15, 20}, []float64{1})
	assert.ErrorIs(t, err, errs.ErrConsistency)

	_, err = means.WeightedGeometric([]float64{-1.5}, []float64{1})
	assert.ErrorIs(t, err, errs.ErrDomain)

	_, err = means.WeightedHarmonic([]float64{-3, 4}, []float64{1, 1})
	assert.ErrorIs(t, err, errs.ErrDomain)
}

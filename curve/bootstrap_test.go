package curve_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
)

func parQuotes() []curve.ParQuote {
	return []curve.ParQuote{
		{Tenor: "6M", Price: ptr(98.5)},
		{Tenor: "1Y", Price: ptr(97)},
		{Tenor: "2Y", Coupon: 4, Frequency: 2, Price: ptr(100)},
		{Tenor: "3Y", Coupon: 4.5, Frequency: 2, Price: ptr(100.5)},
		{Tenor: "5Y", Coupon: 5, Frequency: 1, Yield: ptr(0.049)},
	}
}

func TestParCurveRepricesQuotes(t *testing.T) {
	t.Parallel()

	c, err := curve.NewParCurve(curveDate, parQuotes())
	require.NoError(t, err)
	require.Len(t, c.Pivots(), 5)

	for _, q := range parQuotes() {
		b, err := q.Bond(curveDate)
		require.NoError(t, err)
		assert.InDelta(t, 0, curveNPV(t, c, b), 1e-6, "tenor %s", q.Tenor)

		price, _ := b.BondPrice()
		pv, _, err := b.ValueWithCurve(c, 0, curveDate, nil)
		require.NoError(t, err)
		assert.InDelta(t, price, pv, 1e-6, "tenor %s", q.Tenor)
		z, err := b.ZSpread(c, price, curveDate)
		require.NoError(t, err)
		assert.InDelta(t, 0, z, 1e-8, "tenor %s", q.Tenor)
	}

	// Single-payment quotes solve in closed form.
	first := c.Pivots()[0]
	assert.InDelta(t, 98.5/100, c.DiscountT(first.T, 0), 1e-12)
	assert.InDelta(t, math.Pow(100/98.5, 1/first.T)-1, first.Rate, 1e-12)
}

func TestParCurveSpecRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := curve.NewParCurve(curveDate, parQuotes(), curve.WithConvention(rates.Continuous))
	require.NoError(t, err)

	spec := c.Spec()
	assert.Equal(t, curve.KindPar, spec.Kind)
	assert.Len(t, spec.ParQuotes, 5)
	assert.Len(t, spec.ZeroRates, 5)

	data, err := json.Marshal(spec)
	require.NoError(t, err)
	var decoded curve.Spec
	require.NoError(t, json.Unmarshal(data, &decoded))
	rebuilt, err := curve.FromSpec(decoded)
	require.NoError(t, err)
	require.IsType(t, &curve.ParCurve{}, rebuilt)
	assert.Equal(t, parQuotes(), rebuilt.(*curve.ParCurve).Quotes())
	for _, tt := range []float64{0.25, 1, 2.5, 5, 10} {
		assert.InDelta(t, c.DiscountT(tt, 0), rebuilt.DiscountT(tt, 0), 1e-14)
	}

	// Without zero rates the spec is bootstrapped again.
	decoded.ZeroRates = nil
	again, err := curve.FromSpec(decoded)
	require.NoError(t, err)
	for _, tt := range []float64{0.25, 1, 2.5, 5, 10} {
		assert.InDelta(t, c.DiscountT(tt, 0), again.DiscountT(tt, 0), 1e-10)
	}
}

func TestParCurveErrors(t *testing.T) {
	t.Parallel()

	_, err := curve.NewParCurve(curveDate, nil)
	assert.ErrorIs(t, err, errs.ErrConsistency)

	_, err = curve.NewParCurve(curveDate, []curve.ParQuote{{Tenor: "1Y"}})
	assert.ErrorIs(t, err, errs.ErrConsistency)

	_, err = curve.NewParCurve(curveDate, []curve.ParQuote{{Tenor: "soon", Price: ptr(99)}})
	assert.ErrorIs(t, err, errs.ErrConsistency)

	_, err = curve.NewParCurve(curveDate, []curve.ParQuote{
		{Tenor: "1Y", Price: ptr(97)},
		{Tenor: "12M", Price: ptr(96.9)},
	})
	assert.ErrorIs(t, err, errs.ErrConsistency)
}

func TestSpotCurveFromBonds(t *testing.T) {
	t.Parallel()

	bonds := []*bond.FixedRateBullet{
		pricedBond(t, curveDate, date(2027, 1, 2), 4, 2, 99.2),
		pricedBond(t, curveDate, date(2025, 1, 2), 0, 0, 96.8),
		pricedBond(t, curveDate, date(2026, 1, 2), 3.5, 2, 99.9),
	}
	c, err := curve.NewSpotCurve(curveDate, bonds)
	require.NoError(t, err)
	require.Len(t, c.Pivots(), 3)
	for _, b := range bonds {
		assert.InDelta(t, 0, curveNPV(t, c, b), 1e-6, "bond %s", b.Spec())
	}

	spec := c.Spec()
	assert.Equal(t, curve.KindZeroCoupon, spec.Kind)
	require.Len(t, spec.Bonds, 3)
	assert.Equal(t, date(2025, 1, 2), spec.Bonds[0].Maturity.Time)

	*spec.Bonds[0].Price = 1
	*spec.Bonds[0].Yield = 1
	again := c.Spec()
	assert.Equal(t, 96.8, *again.Bonds[0].Price)
	assert.NotEqual(t, 1.0, *again.Bonds[0].Yield)
}

func TestSpotCurveRejectsUnpricedBonds(t *testing.T) {
	t.Parallel()

	unpriced, err := bond.NewFixedRateBullet(curveDate, date(2026, 1, 2), 4, 2)
	require.NoError(t, err)
	_, err = curve.NewSpotCurve(curveDate, []*bond.FixedRateBullet{unpriced})
	assert.ErrorIs(t, err, errs.ErrConsistency)

	elsewhere := pricedBond(t, date(2024, 2, 1), date(2026, 2, 1), 4, 2, 100)
	_, err = curve.NewSpotCurve(curveDate, []*bond.FixedRateBullet{elsewhere})
	assert.ErrorIs(t, err, errs.ErrConsistency)

	_, err = curve.NewSpotCurve(curveDate, nil)
	assert.ErrorIs(t, err, errs.ErrConsistency)
}

func TestInterpolatedCurveFromBonds(t *testing.T) {
	t.Parallel()

	bonds := []*bond.FixedRateBullet{
		pricedBond(t, curveDate, date(2025, 1, 2), 0, 0, 97),
		pricedBond(t, curveDate, date(2026, 1, 2), 4, 2, 100),
		pricedBond(t, curveDate, date(2029, 1, 2), 4.5, 2, 101),
		pricedBond(t, curveDate, date(2034, 1, 2), 5, 2, 102),
	}
	c, err := curve.NewInterpolatedCurveFromBonds(curveDate, bonds)
	require.NoError(t, err)
	require.Len(t, c.Pivots(), 4)

	for _, b := range bonds {
		price, _ := b.BondPrice()
		npv, _, err := b.ValueWithCurve(c, 0, curveDate, &price)
		require.NoError(t, err)
		assert.InDelta(t, 0, npv, 1e-6, "bond %s", b.Spec())
	}

	rebuilt, err := curve.FromSpec(c.Spec())
	require.NoError(t, err)
	assert.Len(t, rebuilt.Spec().Bonds, 4)
	assert.InDelta(t, c.DiscountT(7, 0), rebuilt.DiscountT(7, 0), 1e-14)
}

func TestCreditSpreadFromBonds(t *testing.T) {
	t.Parallel()

	benchmark, err := curve.NewFlatCurveAER(0.03, curveDate)
	require.NoError(t, err)

	tOne := 366.0 / 365
	bonds := []*bond.FixedRateBullet{
		pricedBond(t, curveDate, date(2025, 1, 2), 0, 0, 100*math.Pow(1.04, -tOne)),
		pricedBond(t, curveDate, date(2027, 1, 2), 5, 1, 99.5),
		pricedBond(t, curveDate, date(2029, 1, 2), 5.5, 2, 100.25),
	}
	sc, err := curve.CreditSpreadFromBonds(benchmark, bonds)
	require.NoError(t, err)
	require.Len(t, sc.Pivots(), 3)
	assert.InDelta(t, tOne, sc.Pivots()[0].T, 1e-15)
	assert.InDelta(t, 0.01, sc.Pivots()[0].Rate, 1e-12)
	assert.Equal(t, rates.Annual, sc.Convention())

	combined, err := curve.NewCombinedCurve(benchmark, sc)
	require.NoError(t, err)
	for _, b := range bonds {
		price, _ := b.BondPrice()
		npv, _, err := b.ValueWithCurve(combined, 0, curveDate, &price)
		require.NoError(t, err)
		assert.InDelta(t, 0, npv, 1e-6, "bond %s", b.Spec())
	}

	_, err = curve.CreditSpreadFromBonds(nil, bonds)
	assert.ErrorIs(t, err, errs.ErrConsistency)
}

func TestCombinedCurve(t *testing.T) {
	t.Parallel()

	benchmark, err := curve.NewFlatCurveAER(0.03, curveDate)
	require.NoError(t, err)
	flat, err := curve.NewFlatCreditSpreadCurve(0.01, curveDate, rates.Annual)
	require.NoError(t, err)

	c, err := curve.NewCombinedCurve(benchmark, flat)
	require.NoError(t, err)
	r, err := c.GetRate(2, "", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, r, 1e-12)
	assert.InDelta(t, math.Pow(1.04, -2), c.DiscountT(2, 0), 1e-12)
	assert.InDelta(t, math.Pow(1.045, -2), c.DiscountT(2, 0.005), 1e-12)

	// The spread is added in its own convention.
	bey, err := curve.NewFlatCreditSpreadCurve(0.01, curveDate, rates.BEY)
	require.NoError(t, err)
	c2, err := curve.NewCombinedCurve(benchmark, bey)
	require.NoError(t, err)
	benchBEY, err := rates.Convert(0.03, rates.Annual, rates.BEY)
	require.NoError(t, err)
	want, err := rates.Convert(benchBEY+0.01, rates.BEY, rates.Annual)
	require.NoError(t, err)
	r, err = c2.GetRate(3, "", 0)
	require.NoError(t, err)
	assert.InDelta(t, want, r, 1e-12)

	zero, err := curve.NewZeroCouponCurve(curveDate, map[float64]float64{1: 0.02, 2: 0.03})
	require.NoError(t, err)
	linear, err := curve.NewCreditSpreadCurve(curveDate, map[float64]float64{2: 0.01, 5: 0.02})
	require.NoError(t, err)
	c3, err := curve.NewCombinedCurve(zero, linear)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 5}, c3.Maturities())
	r, err = c3.GetRate(3.5, "", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.045, r, 1e-12)

	other, err := curve.NewFlatCreditSpreadCurve(0.01, date(2024, 1, 3), rates.Annual)
	require.NoError(t, err)
	_, err = curve.NewCombinedCurve(benchmark, other)
	assert.ErrorIs(t, err, errs.ErrConsistency)
}

func TestCombinedCurveSpecRoundTrip(t *testing.T) {
	t.Parallel()

	zero, err := curve.NewZeroCouponCurve(curveDate, map[float64]float64{1: 0.02, 2: 0.03})
	require.NoError(t, err)
	linear, err := curve.NewCreditSpreadCurve(curveDate, map[float64]float64{2: 0.01, 5: 0.02})
	require.NoError(t, err)
	c, err := curve.NewCombinedCurve(zero, linear)
	require.NoError(t, err)

	data, err := json.Marshal(c.Spec())
	require.NoError(t, err)
	var spec curve.Spec
	require.NoError(t, json.Unmarshal(data, &spec))
	rebuilt, err := curve.FromSpec(spec)
	require.NoError(t, err)
	for _, tt := range []float64{0.5, 2, 3.5, 8} {
		assert.InDelta(t, c.DiscountT(tt, 0), rebuilt.DiscountT(tt, 0), 1e-14)
	}

	flat, err := curve.NewFlatCreditSpreadCurve(0.0125, curveDate, "")
	require.NoError(t, err)
	back, err := curve.FromSpreadSpec(flat.Spec())
	require.NoError(t, err)
	assert.Equal(t, 0.0125, back.SpreadT(4))
	assert.Equal(t, rates.Annual, back.Convention())
}

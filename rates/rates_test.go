package rates_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
)

func TestConvertFormulas(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		rate     float64
		from, to rates.Convention
		want     float64
	}{
		{"continuous to annual", 0.05, rates.Continuous, rates.Annual, math.Exp(0.05) - 1},
		{"annual to continuous", 0.05, rates.Annual, rates.Continuous, math.Log(1.05)},
		{"continuous to bey", 0.05, rates.Continuous, rates.BEY, 2 * (math.Exp(0.025) - 1)},
		{"bey to continuous", 0.05, rates.BEY, rates.Continuous, 2 * math.Log(1.025)},
		{"annual to bey", 0.05, rates.Annual, rates.BEY, 2 * (math.Sqrt(1.05) - 1)},
		{"bey to annual", 0.05, rates.BEY, rates.Annual, 1.025*1.025 - 1},
		{"identity", 0.031, rates.BEY, rates.BEY, 0.031},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := rates.Convert(tc.rate, tc.from, tc.to)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-14)
		})
	}
}

func TestAnnualToBEYExample(t *testing.T) {
	t.Parallel()

	got, err := rates.Convert(0.05, rates.Annual, rates.BEY)
	require.NoError(t, err)
	assert.InDelta(t, 0.049390, got, 1e-6)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	all := []rates.Convention{rates.Annual, rates.BEY, rates.Continuous}
	for _, from := range all {
		for _, to := range all {
			there, err := rates.Convert(0.0437, from, to)
			require.NoError(t, err)
			back, err := rates.Convert(there, to, from)
			require.NoError(t, err)
			assert.InDelta(t, 0.0437, back, 1e-14)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	c, err := rates.Parse("bey")
	require.NoError(t, err)
	assert.Equal(t, rates.BEY, c)

	_, err = rates.Parse("Monthly")
	require.Error(t, err)
	assert.EqualError(t, err, "Unknown or unsupported yield calculation convention: Monthly")
	assert.ErrorIs(t, err, errs.ErrConvention)

	_, err = rates.Convert(0.01, rates.Convention("Simple"), rates.Annual)
	assert.ErrorIs(t, err, errs.ErrConvention)
}

func TestNominalEffective(t *testing.T) {
	t.Parallel()

	nominal, err := rates.EffectiveToNominal(0.1025, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, nominal, 1e-12)

	eff, err := rates.NominalToEffective(nominal, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.1025, eff, 1e-12)

	_, err = rates.EffectiveToNominal(-1.5, 2)
	assert.ErrorIs(t, err, errs.ErrDomain)
}

func TestPeriodicRates(t *testing.T) {
	t.Parallel()

	eff, err := rates.NominalDaysToEffective(0.12, 30, 360)
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(1.01, 12)-1, eff, 1e-14)

	single, err := rates.SinglePeriodToEffective(0.01, 12)
	require.NoError(t, err)
	assert.InDelta(t, eff, single, 1e-14)

	back, err := rates.EffectiveToSinglePeriod(single, 12)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, back, 1e-14)

	eff365, err := rates.NominalDaysToEffective(0.12, 30, 365)
	require.NoError(t, err)
	assert.InDelta(t, 0.1268341704586875, eff365, 1e-12)
	nominal, err := rates.EffectiveToNominalDays(eff365, 30, 365)
	require.NoError(t, err)
	assert.InDelta(t, 0.12, nominal, 1e-12)

	_, err = rates.NominalDaysToEffective(0.12, 0, 360)
	assert.ErrorIs(t, err, errs.ErrDomain)
	_, err = rates.EffectiveToSinglePeriod(-1, 12)
	assert.ErrorIs(t, err, errs.ErrDomain)
}

func TestMoneyMarketRates(t *testing.T) {
	t.Parallel()

	addOn, err := rates.MoneyMarketToEffective(0.05, 90, 360, rates.AddOn)
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(1.0125, 4)-1, addOn, 1e-14)

	discount, err := rates.MoneyMarketToEffective(0.05, 90, 360, rates.Discount)
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(1/0.9875, 4)-1, discount, 1e-14)
	assert.Greater(t, discount, addOn)

	for _, q := range []rates.MoneyMarketQuote{rates.AddOn, rates.Discount} {
		for _, days := range []float64{30, 91, 182, 365} {
			eff, err := rates.MoneyMarketToEffective(0.043, days, 360, q)
			require.NoError(t, err)
			back, err := rates.EffectiveToMoneyMarket(eff, days, 360, q)
			require.NoError(t, err)
			assert.InDelta(t, 0.043, back, 1e-12, "%s %v days", q, days)
		}
	}

	_, err = rates.MoneyMarketToEffective(4, 90, 360, rates.Discount)
	assert.ErrorIs(t, err, errs.ErrDomain)
	_, err = rates.MoneyMarketToEffective(0.05, 90, 360, rates.MoneyMarketQuote(7))
	assert.ErrorIs(t, err, errs.ErrConvention)
	_, err = rates.EffectiveToMoneyMarket(0.05, -1, 360, rates.AddOn)
	assert.ErrorIs(t, err, errs.ErrDomain)
	assert.Equal(t, "Add-On", rates.AddOn.String())
	assert.Equal(t, "Discount", rates.Discount.String())
}

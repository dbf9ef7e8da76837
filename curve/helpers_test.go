package curve_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/utils"
)

var (
	_ curve.YieldCurve    = (*curve.FlatCurve)(nil)
	_ curve.YieldCurve    = (*curve.ZeroCouponCurve)(nil)
	_ curve.YieldCurve    = (*curve.InterpolatedCurve)(nil)
	_ curve.YieldCurve    = (*curve.ParCurve)(nil)
	_ curve.YieldCurve    = (*curve.CombinedCurve)(nil)
	_ bond.ReferenceCurve = curve.YieldCurve(nil)
	_ curve.SpreadCurve   = (*curve.CreditSpreadCurve)(nil)
	_ curve.SpreadCurve   = (*curve.FlatCreditSpreadCurve)(nil)
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// pricedBond builds a bond settling and priced on settle with the library defaults.
func pricedBond(t *testing.T, settle, maturity time.Time, cpn float64, freq int, price float64) *bond.FixedRateBullet {
	t.Helper()
	spec := bond.DefaultSpec()
	spec.IssueDate = utils.NewDate(settle)
	spec.Maturity = utils.NewDate(maturity)
	spec.Coupon = cpn
	spec.Frequency = freq
	spec.Settlement = utils.NewDate(settle)
	spec.Price = &price
	b, err := bond.New(spec)
	require.NoError(t, err)
	return b
}

// curveNPV is the purchase NPV of b on c through the bond engine.
func curveNPV(t *testing.T, c curve.YieldCurve, b *bond.FixedRateBullet) float64 {
	t.Helper()
	price, ok := b.BondPrice()
	require.True(t, ok)
	settle, _ := b.SettlementDate()
	npv, _, err := b.ValueWithCurve(c, 0, settle, &price)
	require.NoError(t, err)
	return npv
}

func ptr(v float64) *float64 { return &v }

package curve

import (
	"fmt"
	"time"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/utils"
)

// ZeroCouponCurve interpolates zero rates linearly between pivots and holds the end rates flat
// outside them. Rates are stored in the native convention (Annual by default); discounting
// compounds their annual equivalent, (1+r_annual)^{-t}.
type ZeroCouponCurve struct {
	base
	pivots []Pivot
	// byDate keeps the dated pivots of a curve built with NewZeroCouponCurveByDate.
	byDate map[string]float64
	bonds  []bond.Spec
}

// NewZeroCouponCurve builds a curve from maturity (years) to zero rate.
func NewZeroCouponCurve(date time.Time, zeroRates map[float64]float64, opts ...Option) (*ZeroCouponCurve, error) {
	return newZeroCurve("NewZeroCouponCurve", date, pivotsFromMap(zeroRates), buildOptions(daycount.Actual365, rates.Annual, opts))
}

// NewZeroCouponCurveByDate builds a curve from pivot dates, placed with the curve's day count.
func NewZeroCouponCurveByDate(date time.Time, zeroRates map[time.Time]float64, opts ...Option) (*ZeroCouponCurve, error) {
	const fn = "NewZeroCouponCurveByDate"
	o := buildOptions(daycount.Actual365, rates.Annual, opts)
	b, err := newBase(fn, date, o)
	if err != nil {
		return nil, err
	}
	pivots := make([]Pivot, 0, len(zeroRates))
	byDate := make(map[string]float64, len(zeroRates))
	for d, r := range zeroRates {
		if d.Before(date) {
			return nil, errs.Domain("%s: pivot date %s is before curve date %s", fn,
				d.Format(utils.DateLayout), date.Format(utils.DateLayout))
		}
		pivots = append(pivots, Pivot{T: b.YearFraction(d), Rate: r})
		byDate[d.Format(utils.DateLayout)] = r
	}
	c, err := newZeroCurve(fn, date, pivots, o)
	if err != nil {
		return nil, err
	}
	c.byDate = byDate
	return c, nil
}

func newZeroCurve(fn string, date time.Time, pivots []Pivot, o options) (*ZeroCouponCurve, error) {
	b, err := newBase(fn, date, o)
	if err != nil {
		return nil, err
	}
	sorted, err := sortPivots(fn, pivots)
	if err != nil {
		return nil, err
	}
	c := &ZeroCouponCurve{base: b, pivots: sorted}
	c.k = c
	return c, nil
}

// Pivots returns a copy of the curve's (maturity, rate) nodes.
func (c *ZeroCouponCurve) Pivots() []Pivot { return append([]Pivot(nil), c.pivots...) }

func (c *ZeroCouponCurve) Maturities() []float64 { return maturities(c.pivots) }

func (c *ZeroCouponCurve) rate(t, spread float64) float64 { return linear(c.pivots, t) + spread }

func (c *ZeroCouponCurve) DiscountT(t, spread float64) float64 {
	return annualDiscount(c.rate(t, spread), c.conv, t)
}

func (c *ZeroCouponCurve) DiscountToRate(df, t, spread float64) float64 {
	return rateFromAnnualDiscount(df, t, c.conv) - spread
}

func (c *ZeroCouponCurve) Spec() Spec {
	s := Spec{
		Kind:       KindZeroCoupon,
		CurveDate:  utils.NewDate(c.date),
		DayCount:   c.dc.Name(),
		Convention: c.conv,
	}
	if c.byDate != nil {
		s.Kind = KindZeroCouponByDate
		s.ZeroRatesByDate = make(map[string]float64, len(c.byDate))
		for k, v := range c.byDate {
			s.ZeroRatesByDate[k] = v
		}
		return s
	}
	s.ZeroRates = c.Pivots()
	s.Bonds = cloneSpecs(c.bonds)
	return s
}

// CloneWithNewDate moves the curve date and keeps the pivots at the same maturities.
func (c *ZeroCouponCurve) CloneWithNewDate(date time.Time) YieldCurve {
	return c.clone(date)
}

func (c *ZeroCouponCurve) clone(date time.Time) *ZeroCouponCurve {
	out := *c
	out.date = date
	out.pivots = c.Pivots()
	if c.byDate != nil {
		// Dated pivots no longer sit at their dates once the curve moves.
		out.byDate = nil
	}
	out.k = &out
	return &out
}

func (c *ZeroCouponCurve) String() string {
	parts := make([]string, len(c.pivots))
	for i, p := range c.pivots {
		parts[i] = fmt.Sprintf("%.4g:%.6f", p.T, p.Rate)
	}
	return fmt.Sprintf("ZeroCouponCurve(%s %v, %s)", c.conv, parts, c.date.Format(utils.DateLayout))
}

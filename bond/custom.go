package bond

import (
	"math"
	"time"

	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/utils"
)

// CustomFlowSpec describes an amortizing or irregular schedule. Keys are payment dates.
//
// A coupon missing from Coupons is CouponRates[date] (or FlatCouponRate when set) percent of the
// notional still outstanding after amortization paid on earlier dates. Without any amortization
// the whole notional is repaid at maturity.
type CustomFlowSpec struct {
	Base           Spec               `json:"bond" yaml:"bond"`
	Amortization   map[string]float64 `json:"amortization,omitempty" yaml:"amortization,omitempty"`
	Coupons        map[string]float64 `json:"coupons,omitempty" yaml:"coupons,omitempty"`
	CouponRates    map[string]float64 `json:"coupon_rates,omitempty" yaml:"coupon_rates,omitempty"`
	FlatCouponRate *float64           `json:"flat_coupon_rate,omitempty" yaml:"flat_coupon_rate,omitempty"`
}

// CustomFlowBond is a FixedRateBullet whose schedule comes from explicit per-date amounts.
type CustomFlowBond struct {
	*FixedRateBullet
	custom CustomFlowSpec
}

// NewCustomFlowBond builds the schedule, checks amortization sums to the notional and applies the
// base spec's optional pricing. Base.Coupon and Base.Frequency are ignored.
func NewCustomFlowBond(spec CustomFlowSpec) (*CustomFlowBond, error) {
	const fn = "NewCustomFlowBond"
	base := spec.Base
	base.Coupon, base.Frequency = 0, 0
	if err := base.validate(fn); err != nil {
		return nil, err
	}

	amort, err := parseDateMap(fn, spec.Amortization)
	if err != nil {
		return nil, err
	}
	coupons, err := parseDateMap(fn, spec.Coupons)
	if err != nil {
		return nil, err
	}
	couponRates, err := parseDateMap(fn, spec.CouponRates)
	if err != nil {
		return nil, err
	}

	maturity := base.Maturity.Time
	dates := []time.Time{maturity}
	for _, m := range []map[time.Time]float64{amort, coupons, couponRates} {
		for d := range m {
			if d.Before(base.IssueDate.Time) || d.After(maturity) {
				return nil, errs.Consistency("%s: payment date %s outside [%s, %s]", fn,
					d.Format(utils.DateLayout), base.IssueDate, base.Maturity)
			}
			dates = append(dates, d)
		}
	}
	dates = utils.UniqueSortedDates(dates)

	schedule := make([]Cashflow, 0, len(dates))
	outstanding := base.Notional
	var repaid float64
	for _, d := range dates {
		var principal float64
		if len(amort) > 0 {
			principal = amort[d]
		} else if d.Equal(maturity) {
			principal = outstanding
		}

		var coupon float64
		switch c, ok := coupons[d]; {
		case ok:
			coupon = c
		case spec.FlatCouponRate != nil:
			coupon = outstanding * *spec.FlatCouponRate / 100
		default:
			coupon = outstanding * couponRates[d] / 100
		}

		schedule = append(schedule, Cashflow{Date: d, Coupon: coupon, Principal: principal})
		outstanding -= principal
		repaid += principal
	}

	if math.Abs(repaid-base.Notional) > 1e-9*math.Max(1, base.Notional) {
		return nil, errs.Consistency("%s: total amortization %v does not equal notional %v", fn, repaid, base.Notional)
	}

	b, err := newBond(base)
	if err != nil {
		return nil, err
	}
	b.schedule = schedule
	b.couponDates = couponDates(schedule, true)
	if err := b.pin(); err != nil {
		return nil, err
	}
	return &CustomFlowBond{FixedRateBullet: b, custom: spec}, nil
}

// CustomSpec returns the constructor parameters with the current pinned valuation.
func (c *CustomFlowBond) CustomSpec() CustomFlowSpec {
	out := c.custom
	out.Base = c.Spec()
	return out
}

func parseDateMap(fn string, in map[string]float64) (map[time.Time]float64, error) {
	out := make(map[time.Time]float64, len(in))
	for k, v := range in {
		d, err := utils.ParseDate(k)
		if err != nil {
			return nil, errs.Consistency("%s: %v", fn, err)
		}
		out[d] += v
	}
	return out, nil
}

package bond

import (
	"math"
	"time"

	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/solver"
)

// PresentValue is one flow discounted on a curve.
type PresentValue struct {
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	Discount float64   `json:"discount_factor"`
	Value    float64   `json:"present_value"`
}

// ValueWithCurve discounts the remaining flows on c with an additive spread. The curve's own day
// count places each payment date. When price is non-nil the result is the net present value of the
// purchase.
func (b *FixedRateBullet) ValueWithCurve(c Curve, spread float64, settlement time.Time, price *float64) (float64, []PresentValue, error) {
	if c == nil {
		return 0, nil, errs.Consistency("ValueWithCurve: curve is required")
	}
	settlement, err := b.resolveSettlement(settlement)
	if err != nil {
		return 0, nil, err
	}
	flows := b.FilterPaymentFlow(settlement, price)
	total, pvs := discountFlows(c, flows, spread)
	return total, pvs, nil
}

func discountFlows(c Curve, flows []Flow, spread float64) (float64, []PresentValue) {
	var total float64
	pvs := make([]PresentValue, len(flows))
	for i, f := range flows {
		df := c.DiscountDate(f.Date, spread)
		pvs[i] = PresentValue{Date: f.Date, Amount: f.Amount, Discount: df, Value: f.Amount * df}
		total += pvs[i].Value
	}
	return total, pvs
}

// GSpread is the bond yield minus the benchmark curve's rate at maturity, both in the bond's
// yield convention.
func (b *FixedRateBullet) GSpread(benchmark Curve, y float64) (float64, error) {
	if benchmark == nil {
		return 0, errs.Consistency("GSpread: benchmark curve is required")
	}
	bench, err := benchmark.DateRate(b.Maturity(), b.convention, 0)
	if err != nil {
		return 0, err
	}
	return y - bench, nil
}

// GSpreadToYield is GSpread against a single benchmark yield.
func (b *FixedRateBullet) GSpreadToYield(benchmarkYield, y float64) float64 {
	return y - benchmarkYield
}

// ISpread is the bond yield minus the swap curve rate at maturity.
func (b *FixedRateBullet) ISpread(swapCurve Curve, y float64) (float64, error) {
	if swapCurve == nil {
		return 0, errs.Consistency("ISpread: swap curve is required")
	}
	swapRate, err := swapCurve.DateRate(b.Maturity(), b.convention, 0)
	if err != nil {
		return 0, err
	}
	return y - swapRate, nil
}

// ZSpread solves the constant spread over c at which the discounted flows equal the dirty price.
func (b *FixedRateBullet) ZSpread(c Curve, price float64, settlement time.Time) (float64, error) {
	if c == nil {
		return 0, errs.Consistency("ZSpread: curve is required")
	}
	settlement, err := b.resolveSettlement(settlement)
	if err != nil {
		return 0, err
	}
	return solveCurveSpread("ZSpread", c, b.FilterPaymentFlow(settlement, &price), 0, math.Abs(price))
}

// solveCurveSpread finds s with sum(DiscountDate(d, s) * amount) == 0.
func solveCurveSpread(fn string, c Curve, flows []Flow, guess, scale float64) (float64, error) {
	if len(flows) < 2 {
		return 0, errs.Consistency("%s: no cash flows remain after settlement", fn)
	}
	npv := solver.Numeric(func(s float64) float64 {
		v, _ := discountFlows(c, flows, s)
		return v
	})
	cfg := config.GetSolver()
	res, err := solver.Newton(fn, guess, npv, cfg.Tolerance*math.Max(1, scale), cfg.YieldTolerance)
	if err != nil {
		return 0, err
	}
	return res.Root, nil
}

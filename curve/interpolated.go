package curve

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/interp"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/solver"
	"github.com/meenmo/bondlib/utils"
)

// InterpolatedCurve runs a natural cubic spline through its zero-rate pivots and holds the end
// rates flat outside them. Two pivots interpolate linearly; one pivot is a flat curve.
type InterpolatedCurve struct {
	base
	pivots []Pivot
	spline interp.Predictor
	bonds  []bond.Spec
}

type constant float64

func (c constant) Predict(float64) float64 { return float64(c) }

// NewInterpolatedCurve builds a spline curve from maturity (years) to zero rate.
func NewInterpolatedCurve(date time.Time, zeroRates map[float64]float64, opts ...Option) (*InterpolatedCurve, error) {
	return newInterpolatedCurve("NewInterpolatedCurve", date, pivotsFromMap(zeroRates), buildOptions(daycount.Actual365, rates.Annual, opts))
}

func newInterpolatedCurve(fn string, date time.Time, pivots []Pivot, o options) (*InterpolatedCurve, error) {
	b, err := newBase(fn, date, o)
	if err != nil {
		return nil, err
	}
	sorted, err := sortPivots(fn, pivots)
	if err != nil {
		return nil, err
	}
	c := &InterpolatedCurve{base: b, pivots: sorted}
	c.k = c
	if err := c.refit(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewInterpolatedCurveFromBonds fits one pivot per bond, at its final payment, so that every bond
// reprices on the curve. Each bond must carry a price pinned on the curve date.
//
// Pivots start at the bonds' yields and are solved one bond at a time in maturity order (closed
// form for single-payment bonds, Newton otherwise). Because the spline couples neighbouring
// pivots, sweeps repeat until every bond reprices within tolerance.
func NewInterpolatedCurveFromBonds(date time.Time, bonds []*bond.FixedRateBullet, opts ...Option) (*InterpolatedCurve, error) {
	const fn = "NewInterpolatedCurveFromBonds"
	o := buildOptions(daycount.Actual365, rates.Annual, opts)
	b, err := newBase(fn, date, o)
	if err != nil {
		return nil, err
	}
	c := &InterpolatedCurve{base: b}
	c.k = c

	fits, err := pricedFlows(fn, date, bonds)
	if err != nil {
		return nil, err
	}
	for _, f := range fits {
		y, ok := f.bond.YieldToMaturity()
		if !ok {
			y = 0.05
		}
		guess, err := rates.Convert(y, f.bond.Convention(), c.conv)
		if err != nil {
			return nil, err
		}
		c.pivots = append(c.pivots, Pivot{T: c.YearFraction(f.last().Date), Rate: guess})
		c.bonds = append(c.bonds, f.bond.Spec())
	}
	if _, err := sortPivots(fn, c.pivots); err != nil {
		return nil, err
	}
	if err := c.refit(); err != nil {
		return nil, err
	}

	cfg := config.GetSolver()
	for sweep := 1; sweep <= cfg.MaxSweeps; sweep++ {
		for i, f := range fits {
			if err := c.solvePivot(fn, i, f); err != nil {
				return nil, err
			}
		}

		worst := 0.0
		converged := true
		for _, f := range fits {
			npv, _, err := f.bond.ValueWithCurve(c, 0, date, &f.price)
			if err != nil {
				return nil, err
			}
			worst = math.Max(worst, math.Abs(npv))
			if math.Abs(npv) > f.tolerance() {
				converged = false
			}
		}
		o.logger.Debug("interpolated curve sweep", "sweep", sweep, "max_residual", worst)
		if converged {
			return c, nil
		}
	}
	return nil, errs.Convergence("%s: bonds do not reprice after %d sweeps", fn, cfg.MaxSweeps)
}

func (c *InterpolatedCurve) solvePivot(fn string, i int, f pricedBond) error {
	t := c.pivots[i].T
	if len(f.flows) == 2 {
		r, err := rates.Convert(math.Pow(f.last().Amount/f.price, 1/t)-1, rates.Annual, c.conv)
		if err != nil {
			return err
		}
		c.pivots[i].Rate = r
		return c.refit()
	}

	var fitErr error
	npv := solver.Numeric(func(x float64) float64 {
		c.pivots[i].Rate = x
		if err := c.refit(); err != nil {
			fitErr = err
			return math.NaN()
		}
		v, _, _ := f.bond.ValueWithCurve(c, 0, c.date, &f.price)
		return v
	})
	res, err := solver.Newton(fn, c.pivots[i].Rate, npv, f.tolerance(), config.GetSolver().YieldTolerance)
	if fitErr != nil {
		return fitErr
	}
	if err != nil {
		return err
	}
	c.pivots[i].Rate = res.Root
	return c.refit()
}

func (c *InterpolatedCurve) refit() error {
	xs, ys := make([]float64, len(c.pivots)), make([]float64, len(c.pivots))
	for i, p := range c.pivots {
		xs[i], ys[i] = p.T, p.Rate
	}
	switch len(xs) {
	case 0:
		return errs.Consistency("InterpolatedCurve: at least one pivot is required")
	case 1:
		c.spline = constant(ys[0])
		return nil
	case 2:
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return errs.Domain("InterpolatedCurve: %v", err)
		}
		c.spline = &pl
		return nil
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		return errs.Domain("InterpolatedCurve: %v", err)
	}
	c.spline = &nc
	return nil
}

// Pivots returns a copy of the curve's (maturity, rate) nodes.
func (c *InterpolatedCurve) Pivots() []Pivot { return append([]Pivot(nil), c.pivots...) }

func (c *InterpolatedCurve) Maturities() []float64 { return maturities(c.pivots) }

func (c *InterpolatedCurve) rate(t, spread float64) float64 {
	first, last := c.pivots[0].T, c.pivots[len(c.pivots)-1].T
	return c.spline.Predict(math.Min(math.Max(t, first), last)) + spread
}

func (c *InterpolatedCurve) DiscountT(t, spread float64) float64 {
	return annualDiscount(c.rate(t, spread), c.conv, t)
}

func (c *InterpolatedCurve) DiscountToRate(df, t, spread float64) float64 {
	return rateFromAnnualDiscount(df, t, c.conv) - spread
}

func (c *InterpolatedCurve) Spec() Spec {
	return Spec{
		Kind:       KindInterpolated,
		CurveDate:  utils.NewDate(c.date),
		DayCount:   c.dc.Name(),
		Convention: c.conv,
		ZeroRates:  c.Pivots(),
		Bonds:      cloneSpecs(c.bonds),
	}
}

func (c *InterpolatedCurve) CloneWithNewDate(date time.Time) YieldCurve {
	out := *c
	out.date = date
	out.pivots = c.Pivots()
	out.k = &out
	return &out
}

// pricedBond is a bond with its pinned price and the flows it pays from the curve date.
type pricedBond struct {
	bond  *bond.FixedRateBullet
	price float64
	flows []bond.Flow
}

func (p pricedBond) last() bond.Flow { return p.flows[len(p.flows)-1] }

func (p pricedBond) tolerance() float64 {
	return config.GetSolver().Tolerance * math.Max(1, math.Abs(p.price))
}

// pricedFlows checks every bond is priced on date and returns them sorted by maturity.
func pricedFlows(fn string, date time.Time, bonds []*bond.FixedRateBullet) ([]pricedBond, error) {
	if len(bonds) == 0 {
		return nil, errs.Consistency("%s: at least one bond is required", fn)
	}
	out := make([]pricedBond, 0, len(bonds))
	for _, b := range bonds {
		price, ok := b.BondPrice()
		settlement, _ := b.SettlementDate()
		if !ok {
			return nil, errs.Consistency("%s: bond %s has no price", fn, b.Spec())
		}
		if !settlement.Equal(date) {
			return nil, errs.Consistency("%s: bond %s settles on %s, not on the curve date %s", fn, b.Spec(),
				settlement.Format(utils.DateLayout), date.Format(utils.DateLayout))
		}
		flows := b.FilterPaymentFlow(date, &price)
		if len(flows) < 2 {
			return nil, errs.Consistency("%s: bond %s has no payments after %s", fn, b.Spec(), date.Format(utils.DateLayout))
		}
		out = append(out, pricedBond{bond: b, price: price, flows: flows})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].bond.Maturity().Before(out[j].bond.Maturity()) })
	return out, nil
}

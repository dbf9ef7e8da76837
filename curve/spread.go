package curve

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/solver"
	"github.com/meenmo/bondlib/utils"
)

// SpreadCurve is a term structure of credit spreads over a benchmark, quoted in its convention.
type SpreadCurve interface {
	CurveDate() time.Time
	Convention() rates.Convention
	SpreadT(t float64) float64
	DateSpread(date time.Time, spread float64) float64
	Maturities() []float64
	Spec() SpreadSpec
}

// CreditSpreadCurve interpolates spreads linearly between pivots, flat outside them.
type CreditSpreadCurve struct {
	date   time.Time
	dc     daycount.Convention
	conv   rates.Convention
	pivots []Pivot
	bonds  []bond.Spec
}

// NewCreditSpreadCurve builds a spread curve from maturity (years) to spread.
func NewCreditSpreadCurve(date time.Time, spreads map[float64]float64, opts ...Option) (*CreditSpreadCurve, error) {
	return newCreditSpreadCurve("NewCreditSpreadCurve", date, pivotsFromMap(spreads), buildOptions(daycount.Actual365, rates.Annual, opts))
}

func newCreditSpreadCurve(fn string, date time.Time, pivots []Pivot, o options) (*CreditSpreadCurve, error) {
	b, err := newBase(fn, date, o)
	if err != nil {
		return nil, err
	}
	sorted, err := sortPivots(fn, pivots)
	if err != nil {
		return nil, err
	}
	return &CreditSpreadCurve{date: b.date, dc: b.dc, conv: b.conv, pivots: sorted}, nil
}

// CreditSpreadFromBonds bootstraps spreads over benchmark from bonds priced on its curve date, in
// maturity order. The spread curve takes the benchmark's day count and convention. Single-payment
// bonds are solved in closed form; coupon bonds by Newton on the new pivot so that the bond
// reprices on benchmark plus spread.
func CreditSpreadFromBonds(benchmark YieldCurve, bonds []*bond.FixedRateBullet, opts ...Option) (*CreditSpreadCurve, error) {
	const fn = "CreditSpreadFromBonds"
	if benchmark == nil {
		return nil, errs.Consistency("%s: benchmark curve is required", fn)
	}
	date := benchmark.CurveDate()
	o := buildOptions(benchmark.DayCount().Name(), benchmark.Convention(), opts)
	fits, err := pricedFlows(fn, date, bonds)
	if err != nil {
		return nil, err
	}

	sc := &CreditSpreadCurve{date: date, dc: benchmark.DayCount(), conv: benchmark.Convention()}
	combined := &CombinedCurve{benchmark: benchmark, spread: sc}
	combined.base = base{date: date, dc: benchmark.DayCount(), conv: sc.conv}
	combined.k = combined

	cfg := config.GetSolver()
	for _, f := range fits {
		sc.bonds = append(sc.bonds, f.bond.Spec())
		maturity := f.last().Date
		t := sc.yearFraction(maturity)
		if n := len(sc.pivots); n > 0 && t <= sc.pivots[n-1].T {
			return nil, errs.Consistency("%s: pivot %v does not follow pivot %v", fn, t, sc.pivots[n-1].T)
		}
		bench, err := benchmark.DateRate(maturity, sc.conv, 0)
		if err != nil {
			return nil, err
		}

		if len(f.flows) == 2 {
			r, err := rates.Convert(math.Pow(f.last().Amount/f.price, 1/t)-1, rates.Annual, sc.conv)
			if err != nil {
				return nil, err
			}
			sc.pivots = append(sc.pivots, Pivot{T: t, Rate: r - bench})
			logPivot(o.logger, t, r-bench, 0)
			continue
		}

		timed := make([]bond.TimedFlow, len(f.flows))
		for i, fl := range f.flows {
			timed[i] = bond.TimedFlow{T: sc.yearFraction(fl.Date), Amount: fl.Amount}
		}
		r, err := rates.Convert(initialGuess(timed), rates.Annual, sc.conv)
		if err != nil {
			return nil, err
		}
		sc.pivots = append(sc.pivots, Pivot{T: t, Rate: r - bench})
		i := len(sc.pivots) - 1
		npv := solver.Numeric(func(x float64) float64 {
			sc.pivots[i].Rate = x
			var v float64
			for _, fl := range f.flows {
				v += combined.DiscountDate(fl.Date, 0) * fl.Amount
			}
			return v
		})
		res, err := solver.Newton(fn, r-bench, npv, f.tolerance(), cfg.YieldTolerance)
		if err != nil {
			return nil, err
		}
		sc.pivots[i].Rate = res.Root
		logPivot(o.logger, t, res.Root, res.Iterations)
	}
	return sc, nil
}

func (c *CreditSpreadCurve) yearFraction(date time.Time) float64 {
	if date.Equal(c.date) {
		return 0
	}
	t, err := c.dc.Fraction(c.date, date, date)
	if err != nil {
		return math.NaN()
	}
	return t
}

func (c *CreditSpreadCurve) CurveDate() time.Time { return c.date }
func (c *CreditSpreadCurve) Convention() rates.Convention { return c.conv }
func (c *CreditSpreadCurve) SpreadT(t float64) float64 { return linear(c.pivots, t) }
func (c *CreditSpreadCurve) Maturities() []float64 { return maturities(c.pivots) }

// Pivots returns a copy of the curve's (maturity, spread) nodes.
func (c *CreditSpreadCurve) Pivots() []Pivot { return append([]Pivot(nil), c.pivots...) }

func (c *CreditSpreadCurve) DateSpread(date time.Time, spread float64) float64 {
	return c.SpreadT(c.yearFraction(date)) + spread
}

func (c *CreditSpreadCurve) Spec() SpreadSpec {
	return SpreadSpec{
		Kind:       SpreadLinear,
		CurveDate:  utils.NewDate(c.date),
		DayCount:   c.dc.Name(),
		Convention: c.conv,
		Spreads:    c.Pivots(),
		Bonds:      cloneSpecs(c.bonds),
	}
}

func (c *CreditSpreadCurve) String() string {
	return fmt.Sprintf("CreditSpreadCurve(%s %v, %s)", c.conv, c.pivots, c.date.Format(utils.DateLayout))
}

// FlatCreditSpreadCurve is the same spread at every maturity.
type FlatCreditSpreadCurve struct {
	date   time.Time
	conv   rates.Convention
	spread float64
}

// NewFlatCreditSpreadCurve builds a flat spread quoted in conv (Annual when empty).
func NewFlatCreditSpreadCurve(spread float64, date time.Time, conv rates.Convention) (*FlatCreditSpreadCurve, error) {
	if date.IsZero() {
		return nil, errs.Consistency("NewFlatCreditSpreadCurve: curve date is required")
	}
	c, err := rates.Parse(string(conv.Or(rates.Annual)))
	if err != nil {
		return nil, err
	}
	return &FlatCreditSpreadCurve{date: date, conv: c, spread: spread}, nil
}

func (c *FlatCreditSpreadCurve) CurveDate() time.Time { return c.date }
func (c *FlatCreditSpreadCurve) Convention() rates.Convention { return c.conv }
func (c *FlatCreditSpreadCurve) SpreadT(float64) float64 { return c.spread }
func (c *FlatCreditSpreadCurve) Maturities() []float64 { return nil }

func (c *FlatCreditSpreadCurve) DateSpread(_ time.Time, spread float64) float64 {
	return c.spread + spread
}

func (c *FlatCreditSpreadCurve) Spec() SpreadSpec {
	s := c.spread
	return SpreadSpec{Kind: SpreadFlat, CurveDate: utils.NewDate(c.date), Convention: c.conv, Spread: &s}
}

// CombinedCurve adds a spread curve to a benchmark. At each maturity the benchmark rate is
// re-expressed in the spread's convention, the spread added, and the sum expressed in the combined
// curve's convention (Annual by default). Discounting compounds the annual equivalent.
type CombinedCurve struct {
	base
	benchmark YieldCurve
	spread    SpreadCurve
}

// NewCombinedCurve requires both curves on the same date.
func NewCombinedCurve(benchmark YieldCurve, spread SpreadCurve, opts ...Option) (*CombinedCurve, error) {
	const fn = "NewCombinedCurve"
	if benchmark == nil || spread == nil {
		return nil, errs.Consistency("%s: benchmark and spread curves are required", fn)
	}
	if !benchmark.CurveDate().Equal(spread.CurveDate()) {
		return nil, errs.Consistency("%s: benchmark date %s differs from spread date %s", fn,
			benchmark.CurveDate().Format(utils.DateLayout), spread.CurveDate().Format(utils.DateLayout))
	}
	b, err := newBase(fn, benchmark.CurveDate(), buildOptions(daycount.Actual365, rates.Annual, opts))
	if err != nil {
		return nil, err
	}
	c := &CombinedCurve{base: b, benchmark: benchmark, spread: spread}
	c.k = c
	return c, nil
}

func (c *CombinedCurve) Benchmark() YieldCurve { return c.benchmark }
func (c *CombinedCurve) SpreadCurve() SpreadCurve { return c.spread }

// rate applies spread to the benchmark in the benchmark's own convention.
func (c *CombinedCurve) rate(t, spread float64) float64 {
	bench, err := c.benchmark.GetRate(t, c.spread.Convention(), spread)
	if err != nil {
		return math.NaN()
	}
	total, err := rates.Convert(bench+c.spread.SpreadT(t), c.spread.Convention(), c.conv)
	if err != nil {
		return math.NaN()
	}
	return total
}

func (c *CombinedCurve) DiscountT(t, spread float64) float64 {
	return annualDiscount(c.rate(t, spread), c.conv, t)
}

func (c *CombinedCurve) DiscountToRate(df, t, spread float64) float64 {
	return rateFromAnnualDiscount(df, t, c.conv) - spread
}

// Maturities is the union of both curves' pivots.
func (c *CombinedCurve) Maturities() []float64 {
	seen := map[float64]bool{}
	var out []float64
	if p, ok := c.benchmark.(interface{ Maturities() []float64 }); ok {
		for _, m := range p.Maturities() {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	for _, m := range c.spread.Maturities() {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Float64s(out)
	return out
}

func (c *CombinedCurve) Spec() Spec {
	bench := c.benchmark.Spec()
	spread := c.spread.Spec()
	return Spec{
		Kind:       KindCombined,
		CurveDate:  utils.NewDate(c.date),
		DayCount:   c.dc.Name(),
		Convention: c.conv,
		Benchmark:  &bench,
		Spread:     &spread,
	}
}

// CloneWithNewDate moves the combined curve only; the benchmark and spread keep their dates.
func (c *CombinedCurve) CloneWithNewDate(date time.Time) YieldCurve {
	out := *c
	out.date = date
	out.k = &out
	return &out
}

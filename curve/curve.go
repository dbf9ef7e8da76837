// Package curve implements yield curves: flat curves, zero-coupon curves (linear or spline
// interpolated), curves bootstrapped from par quotes or priced bonds, and benchmark plus credit
// spread combinations.
//
// Every curve answers the same queries through YieldCurve. Rates are decimals in the curve's
// native yield convention unless a convention is passed explicitly; spreads are added to the
// native rate before discounting.
package curve

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/logging"
	"github.com/meenmo/bondlib/rates"
)

// DefaultMaturities is the comparison grid for curves without pivots.
var DefaultMaturities = []float64{0.25, 0.5, 1, 2, 3, 5, 7, 10, 20, 30}

// YieldCurve is the query contract shared by every curve.
type YieldCurve interface {
	CurveDate() time.Time
	DayCount() daycount.Convention
	Convention() rates.Convention

	// YearFraction is the time in years from the curve date to date under the curve's day count.
	YearFraction(date time.Time) float64

	DiscountT(t, spread float64) float64
	DiscountDate(date time.Time, spread float64) float64
	// DiscountToRate inverts DiscountT: the native rate that discounts to df over t, less spread.
	DiscountToRate(df, t, spread float64) float64

	// GetRate returns the rate at t in conv (the native convention when conv is empty).
	GetRate(t float64, conv rates.Convention, spread float64) (float64, error)
	DateRate(date time.Time, conv rates.Convention, spread float64) (float64, error)

	ForwardTStartTEnd(tStart, tEnd, spreadStart, spreadEnd, spreadForward float64) float64
	ForwardTStartDt(tStart, dt, spreadStart, spreadEnd, spreadForward float64) float64
	ForwardDt(date time.Time, dt, spreadStart, spreadEnd, spreadForward float64) float64
	ForwardDates(start, end time.Time, spreadStart, spreadEnd, spreadForward float64) float64

	CompareTo(other YieldCurve, maturities []float64) []Comparison

	Spec() Spec
	CloneWithNewDate(date time.Time) YieldCurve
}

// Comparison is one row of CompareTo: this curve's native rate, the other curve's discount factor
// re-expressed as a native rate of this curve, and their difference.
type Comparison struct {
	Maturity float64 `json:"maturity" parquet:"maturity"`
	Current  float64 `json:"current" parquet:"current"`
	Compared float64 `json:"compared" parquet:"compared"`
	Spread   float64 `json:"spread" parquet:"spread"`
}

// Option configures a curve constructor.
type Option func(*options)

type options struct {
	dayCount   string
	convention rates.Convention
	logger     *slog.Logger
}

// WithDayCount sets the day count used to turn dates into year fractions.
func WithDayCount(name string) Option { return func(o *options) { o.dayCount = name } }

// WithConvention sets the native yield convention of zero-rate based curves.
func WithConvention(c rates.Convention) Option { return func(o *options) { o.convention = c } }

// WithLogger sets the logger for bootstrap progress. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func buildOptions(dayCount string, conv rates.Convention, opts []Option) options {
	o := options{dayCount: dayCount, convention: conv}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrDefault(o.logger)
	return o
}

// kernel is what each curve type supplies; base derives every other query from it.
type kernel interface {
	DiscountT(t, spread float64) float64
	DiscountToRate(df, t, spread float64) float64
	rate(t, spread float64) float64
}

type base struct {
	date time.Time
	dc   daycount.Convention
	conv rates.Convention
	k    kernel
}

func newBase(fn string, date time.Time, o options) (base, error) {
	if date.IsZero() {
		return base{}, errs.Consistency("%s: curve date is required", fn)
	}
	dc, err := daycount.Get(o.dayCount)
	if err != nil {
		return base{}, err
	}
	if dc.Name() == daycount.ActualActualBond {
		return base{}, errs.Consistency("%s: %s needs a coupon period and cannot place curve dates", fn, dc.Name())
	}
	conv, err := rates.Parse(string(o.convention.Or(rates.Annual)))
	if err != nil {
		return base{}, err
	}
	return base{date: date, dc: dc, conv: conv}, nil
}

func (b *base) CurveDate() time.Time { return b.date }
func (b *base) DayCount() daycount.Convention { return b.dc }
func (b *base) Convention() rates.Convention { return b.conv }

func (b *base) YearFraction(date time.Time) float64 {
	if date.Equal(b.date) {
		return 0
	}
	t, err := b.dc.Fraction(b.date, date, date)
	if err != nil {
		return math.NaN()
	}
	return t
}

func (b *base) DiscountDate(date time.Time, spread float64) float64 {
	return b.k.DiscountT(b.YearFraction(date), spread)
}

func (b *base) GetRate(t float64, conv rates.Convention, spread float64) (float64, error) {
	return rates.Convert(b.k.rate(t, spread), b.conv, conv.Or(b.conv))
}

func (b *base) DateRate(date time.Time, conv rates.Convention, spread float64) (float64, error) {
	return b.GetRate(b.YearFraction(date), conv, spread)
}

// instantDt is the horizon used for a forward whose start and end coincide.
const instantDt = 1e-6

// ForwardTStartTEnd is the native rate implied by DiscountT(tEnd)/DiscountT(tStart), less
// spreadForward. Equal times give the instantaneous forward.
func (b *base) ForwardTStartTEnd(tStart, tEnd, spreadStart, spreadEnd, spreadForward float64) float64 {
	if tEnd == tStart {
		tEnd = tStart + instantDt
	}
	ratio := b.k.DiscountT(tEnd, spreadEnd) / b.k.DiscountT(tStart, spreadStart)
	return b.k.DiscountToRate(ratio, tEnd-tStart, spreadForward)
}

func (b *base) ForwardTStartDt(tStart, dt, spreadStart, spreadEnd, spreadForward float64) float64 {
	return b.ForwardTStartTEnd(tStart, tStart+dt, spreadStart, spreadEnd, spreadForward)
}

func (b *base) ForwardDt(date time.Time, dt, spreadStart, spreadEnd, spreadForward float64) float64 {
	return b.ForwardTStartDt(b.YearFraction(date), dt, spreadStart, spreadEnd, spreadForward)
}

func (b *base) ForwardDates(start, end time.Time, spreadStart, spreadEnd, spreadForward float64) float64 {
	dt, err := b.dc.Fraction(start, end, end)
	if err != nil {
		return math.NaN()
	}
	return b.ForwardDt(start, dt, spreadStart, spreadEnd, spreadForward)
}

// CompareTo tabulates this curve against other on maturities; nil means the curve's own pivots,
// or DefaultMaturities when it has none.
func (b *base) CompareTo(other YieldCurve, maturities []float64) []Comparison {
	if len(maturities) == 0 {
		if p, ok := b.k.(interface{ Maturities() []float64 }); ok {
			maturities = p.Maturities()
		}
	}
	if len(maturities) == 0 {
		maturities = DefaultMaturities
	}
	out := make([]Comparison, len(maturities))
	for i, m := range maturities {
		current := b.k.rate(m, 0)
		compared := b.k.DiscountToRate(other.DiscountT(m, 0), m, 0)
		out[i] = Comparison{Maturity: m, Current: current, Compared: compared, Spread: current - compared}
	}
	return out
}

// Pivot is a (maturity in years, rate) node of a curve.
type Pivot struct {
	T    float64 `json:"t" yaml:"t" parquet:"t"`
	Rate float64 `json:"rate" yaml:"rate" parquet:"rate"`
}

// sortPivots orders pivots by maturity and rejects duplicates and invalid values.
func sortPivots(fn string, pivots []Pivot) ([]Pivot, error) {
	if len(pivots) == 0 {
		return nil, errs.Consistency("%s: at least one pivot is required", fn)
	}
	out := append([]Pivot(nil), pivots...)
	sort.Slice(out, func(i, j int) bool { return out[i].T < out[j].T })
	for i, p := range out {
		if math.IsNaN(p.T) || math.IsNaN(p.Rate) || math.IsInf(p.T, 0) || math.IsInf(p.Rate, 0) {
			return nil, errs.Domain("%s: pivot (%v, %v) is not finite", fn, p.T, p.Rate)
		}
		if p.T < 0 {
			return nil, errs.Domain("%s: pivot maturity %v is negative", fn, p.T)
		}
		if i > 0 && p.T == out[i-1].T {
			return nil, errs.Consistency("%s: duplicate pivot maturity %v", fn, p.T)
		}
	}
	return out, nil
}

func pivotsFromMap(m map[float64]float64) []Pivot {
	out := make([]Pivot, 0, len(m))
	for t, r := range m {
		out = append(out, Pivot{T: t, Rate: r})
	}
	return out
}

func maturities(pivots []Pivot) []float64 {
	out := make([]float64, len(pivots))
	for i, p := range pivots {
		out[i] = p.T
	}
	return out
}

// linear interpolates between pivots and holds the end rates flat outside them.
func linear(pivots []Pivot, t float64) float64 {
	n := len(pivots)
	switch {
	case n == 0:
		return 0
	case t <= pivots[0].T:
		return pivots[0].Rate
	case t >= pivots[n-1].T:
		return pivots[n-1].Rate
	}
	i := sort.Search(n, func(i int) bool { return pivots[i].T >= t })
	lo, hi := pivots[i-1], pivots[i]
	return lo.Rate + (hi.Rate-lo.Rate)*(t-lo.T)/(hi.T-lo.T)
}

// annualDiscount discounts over t at rate r quoted in conv, compounding its annual equivalent.
func annualDiscount(r float64, conv rates.Convention, t float64) float64 {
	annual, err := rates.Convert(r, conv, rates.Annual)
	if err != nil {
		return math.NaN()
	}
	return math.Pow(1+annual, -t)
}

// rateFromAnnualDiscount inverts annualDiscount.
// A zero horizon carries no rate and maps to 0.
func rateFromAnnualDiscount(df, t float64, conv rates.Convention) float64 {
	if t == 0 {
		return 0
	}
	r, err := rates.Convert(math.Pow(1/df, 1/t)-1, rates.Annual, conv)
	if err != nil {
		return math.NaN()
	}
	return r
}

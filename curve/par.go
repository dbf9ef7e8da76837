package curve

import (
	"log/slog"
	"math"
	"time"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/solver"
	"github.com/meenmo/bondlib/utils"
)

// ParQuote is a bond issued on the curve date and maturing after Tenor, quoted by price or yield.
// Coupon is in percent; a zero coupon with zero frequency is a discount instrument.
type ParQuote struct {
	Tenor     string   `json:"tenor" yaml:"tenor" validate:"required"`
	Coupon    float64  `json:"cpn" yaml:"cpn" validate:"gte=0"`
	Frequency int      `json:"cpn_freq" yaml:"cpn_freq" validate:"gte=0,lte=12"`
	Price     *float64 `json:"price,omitempty" yaml:"price,omitempty" validate:"omitempty,gt=0"`
	Yield     *float64 `json:"yield_to_maturity,omitempty" yaml:"yield_to_maturity,omitempty"`
}

// Bond builds the quoted bond on date with the library's default bond conventions.
func (q ParQuote) Bond(date time.Time) (*bond.FixedRateBullet, error) {
	tenor, err := utils.ParseTenor(q.Tenor)
	if err != nil {
		return nil, errs.Consistency("ParQuote: %v", err)
	}
	if q.Price == nil && q.Yield == nil {
		return nil, errs.Consistency("ParQuote: tenor %s needs a price or a yield", q.Tenor)
	}
	spec := bond.DefaultSpec()
	spec.IssueDate = utils.NewDate(date)
	spec.Maturity = utils.NewDate(tenor.AddTo(date))
	spec.Coupon = q.Coupon
	spec.Frequency = q.Frequency
	spec.Settlement = utils.NewDate(date)
	spec.Price = q.Price
	spec.Yield = q.Yield
	return bond.New(spec)
}

// ParCurve is a ZeroCouponCurve bootstrapped from par quotes.
type ParCurve struct {
	*ZeroCouponCurve
	quotes []ParQuote
}

// NewParCurve bootstraps zero rates from quotes in ascending maturity order. Each pivot sits at
// its bond's final payment time and is solved against the pivots already stored.
func NewParCurve(date time.Time, quotes []ParQuote, opts ...Option) (*ParCurve, error) {
	const fn = "NewParCurve"
	if len(quotes) == 0 {
		return nil, errs.Consistency("%s: at least one quote is required", fn)
	}
	bonds := make([]*bond.FixedRateBullet, len(quotes))
	for i, q := range quotes {
		b, err := q.Bond(date)
		if err != nil {
			return nil, err
		}
		bonds[i] = b
	}
	zc, err := bootstrapZero(fn, date, bonds, buildOptions(daycount.Actual365, rates.Annual, opts))
	if err != nil {
		return nil, err
	}
	return &ParCurve{ZeroCouponCurve: zc, quotes: append([]ParQuote(nil), quotes...)}, nil
}

// Quotes returns the quotes the curve was bootstrapped from.
func (c *ParCurve) Quotes() []ParQuote { return append([]ParQuote(nil), c.quotes...) }

func (c *ParCurve) Spec() Spec {
	s := c.ZeroCouponCurve.Spec()
	s.Kind = KindPar
	s.ParQuotes = c.Quotes()
	s.Bonds = nil
	return s
}

func (c *ParCurve) CloneWithNewDate(date time.Time) YieldCurve {
	return &ParCurve{ZeroCouponCurve: c.ZeroCouponCurve.clone(date), quotes: c.Quotes()}
}

// NewSpotCurve bootstraps a ZeroCouponCurve from bonds priced on the curve date.
func NewSpotCurve(date time.Time, bonds []*bond.FixedRateBullet, opts ...Option) (*ZeroCouponCurve, error) {
	return bootstrapZero("NewSpotCurve", date, bonds, buildOptions(daycount.Actual365, rates.Annual, opts))
}

// bootstrapZero solves one pivot per bond, shortest first. Payments are placed with the curve's own
// day count, as DiscountDate places them, so each bond reprices through ValueWithCurve. Payments at
// or before the last solved pivot are discounted on the curve so far; the new pivot rate then
// zeroes the purchase NPV. A bond with a single payment is solved in closed form: (FV/P)^{1/T} - 1.
func bootstrapZero(fn string, date time.Time, bonds []*bond.FixedRateBullet, o options) (*ZeroCouponCurve, error) {
	b, err := newBase(fn, date, o)
	if err != nil {
		return nil, err
	}
	zc := &ZeroCouponCurve{base: b}
	zc.k = zc

	fits, err := pricedFlows(fn, date, bonds)
	if err != nil {
		return nil, err
	}
	for _, f := range fits {
		zc.bonds = append(zc.bonds, f.bond.Spec())
	}
	cfg := config.GetSolver()
	for _, f := range fits {
		timed := curveTimes(zc, f.flows)
		maturity := timed[len(timed)-1].T
		if n := len(zc.pivots); n > 0 && maturity <= zc.pivots[n-1].T {
			return nil, errs.Consistency("%s: pivot %v does not follow pivot %v", fn, maturity, zc.pivots[n-1].T)
		}

		if len(timed) == 2 {
			r, err := rates.Convert(math.Pow(timed[1].Amount/f.price, 1/maturity)-1, rates.Annual, zc.conv)
			if err != nil {
				return nil, err
			}
			zc.pivots = append(zc.pivots, Pivot{T: maturity, Rate: r})
			logPivot(o.logger, maturity, r, 0)
			continue
		}

		solved := -1.0
		if n := len(zc.pivots); n > 0 {
			solved = zc.pivots[n-1].T
		}
		var lump float64
		open := make([]bond.TimedFlow, 0, len(timed))
		for _, tf := range timed {
			if tf.T <= solved || tf.T == 0 {
				lump += zc.DiscountT(tf.T, 0) * tf.Amount
				continue
			}
			open = append(open, tf)
		}
		open = append(open, bond.TimedFlow{T: 0, Amount: lump})

		guess, err := rates.Convert(initialGuess(open), rates.Annual, zc.conv)
		if err != nil {
			return nil, err
		}
		zc.pivots = append(zc.pivots, Pivot{T: maturity, Rate: guess})
		i := len(zc.pivots) - 1
		npv := solver.Numeric(func(x float64) float64 {
			zc.pivots[i].Rate = x
			var v float64
			for _, tf := range open {
				v += zc.DiscountT(tf.T, 0) * tf.Amount
			}
			return v
		})
		res, err := solver.Newton(fn, guess, npv, f.tolerance(), cfg.YieldTolerance)
		if err != nil {
			return nil, err
		}
		zc.pivots[i].Rate = res.Root
		logPivot(o.logger, maturity, res.Root, res.Iterations)
	}
	return zc, nil
}

// curveTimes positions dated flows in years from the curve date of c.
func curveTimes(c YieldCurve, flows []bond.Flow) []bond.TimedFlow {
	out := make([]bond.TimedFlow, len(flows))
	for i, f := range flows {
		out[i] = bond.TimedFlow{T: c.YearFraction(f.Date), Amount: f.Amount}
	}
	return out
}

// initialGuess is the annual rate that grows the outflows into the inflows between their
// amount-weighted times.
func initialGuess(flows []bond.TimedFlow) float64 {
	var pos, neg, posT, negT float64
	for _, f := range flows {
		switch {
		case f.Amount > 0:
			pos += f.Amount
			posT += f.Amount * f.T
		case f.Amount < 0:
			neg += f.Amount
			negT += f.Amount * f.T
		}
	}
	if pos == 0 || neg == 0 {
		return 0.05
	}
	span := posT/pos - negT/neg
	r := math.Pow(pos/-neg, 1/span) - 1
	if span <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0.05
	}
	return r
}

func logPivot(logger *slog.Logger, t, rate float64, iterations int) {
	logger.Debug("bootstrapped pivot", "t", t, "rate", rate, "iterations", iterations)
}

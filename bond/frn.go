package bond

import (
	"math"
	"time"

	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/utils"
)

// FRNSpec describes a floating rate note paying reference rate plus QuotedMargin.
// Base.Coupon is ignored; Base.Frequency must be positive. Rates and margins are decimals.
type FRNSpec struct {
	Base           Spec     `json:"bond" yaml:"bond"`
	QuotedMargin   float64  `json:"quoted_margin" yaml:"quoted_margin"`
	CurrentRefRate *float64 `json:"current_ref_rate,omitempty" yaml:"current_ref_rate,omitempty"`
	DiscountMargin *float64 `json:"discount_margin,omitempty" yaml:"discount_margin,omitempty"`
}

// FRNOption wires runtime collaborators into a FloatingRateNote.
type FRNOption func(*FloatingRateNote)

// WithReferenceCurve sets the curve used to project coupons and discount at the discount margin.
func WithReferenceCurve(c ReferenceCurve) FRNOption {
	return func(n *FloatingRateNote) { n.refCurve = c }
}

// WithReferenceRateFeed sets the fixing source for the current period when no rate is given.
func WithReferenceRateFeed(feed ReferenceRateFeed) FRNOption {
	return func(n *FloatingRateNote) { n.feed = feed }
}

// FloatingRateNote projects its coupons from a reference curve. The fixed part of its schedule
// (quoted margin and principal) is computed once; reference coupons are projected per valuation.
type FloatingRateNote struct {
	base *FixedRateBullet
	spec FRNSpec

	refCurve ReferenceCurve
	feed     ReferenceRateFeed

	price  float64
	dm     float64
	priced bool
}

// NewFloatingRateNote builds the note and applies the spec's optional price or discount margin,
// which need a settlement date and a reference curve anchored on it.
func NewFloatingRateNote(spec FRNSpec, opts ...FRNOption) (*FloatingRateNote, error) {
	const fn = "NewFloatingRateNote"
	base := spec.Base
	base.Coupon = 0
	if base.Frequency <= 0 {
		return nil, errs.Domain("%s: coupon frequency must be positive, got %d", fn, base.Frequency)
	}
	price := base.Price
	base.Price, base.Yield = nil, nil
	if err := base.validate(fn); err != nil {
		return nil, err
	}
	if price != nil && *price < 0 {
		return nil, errs.Domain("%s: price must be non-negative, got %v", fn, *price)
	}

	b, err := newBond(base)
	if err != nil {
		return nil, err
	}
	spread := spec.QuotedMargin / float64(base.Frequency) * base.Notional
	b.schedule = periodicSchedule(base.IssueDate.Time, base.Maturity.Time, base.Frequency, spread, base.Notional)
	b.couponDates = couponDates(b.schedule, true)
	b.settlement = base.Settlement.Time

	n := &FloatingRateNote{base: b, spec: spec}
	for _, opt := range opts {
		opt(n)
	}

	if n.refCurve != nil && !b.settlement.IsZero() && !b.settlement.Equal(n.refCurve.CurveDate()) {
		return nil, errs.Consistency("%s: settlement date %s must equal the reference curve date %s", fn,
			b.settlement.Format(utils.DateLayout), n.refCurve.CurveDate().Format(utils.DateLayout))
	}

	switch {
	case price != nil && spec.DiscountMargin != nil:
		implied, err := n.PriceFromDiscountMargin(*spec.DiscountMargin, b.settlement)
		if err != nil {
			return nil, err
		}
		if err := checkConsistent(fn, *price, implied); err != nil {
			return nil, err
		}
		n.price, n.dm, n.priced = *price, *spec.DiscountMargin, true
	case price != nil:
		if err := n.SetPrice(*price, b.settlement); err != nil {
			return nil, err
		}
	case spec.DiscountMargin != nil:
		if err := n.SetDiscountMargin(*spec.DiscountMargin, b.settlement); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *FloatingRateNote) IssueDate() time.Time { return n.base.IssueDate() }
func (n *FloatingRateNote) Maturity() time.Time { return n.base.Maturity() }
func (n *FloatingRateNote) Frequency() int { return n.base.Frequency() }
func (n *FloatingRateNote) Notional() float64 { return n.base.Notional() }
func (n *FloatingRateNote) QuotedMargin() float64 { return n.spec.QuotedMargin }
func (n *FloatingRateNote) Convention() rates.Convention { return n.base.Convention() }

// SpreadFlow returns the quoted-margin part of each coupon.
func (n *FloatingRateNote) SpreadFlow() []Flow { return n.base.CouponFlow() }

// AmortizationFlow returns the principal repayments.
func (n *FloatingRateNote) AmortizationFlow() []Flow { return n.base.AmortizationFlow() }

func (n *FloatingRateNote) NextCouponDate(settlement time.Time) (time.Time, bool) {
	return n.base.NextCouponDate(settlement)
}

func (n *FloatingRateNote) PreviousCouponDate(settlement time.Time) (time.Time, bool) {
	return n.base.PreviousCouponDate(settlement)
}

// BondPrice returns the pinned dirty price, if any.
func (n *FloatingRateNote) BondPrice() (float64, bool) { return n.price, n.priced }

// DiscountMarginValue returns the pinned discount margin, if any.
func (n *FloatingRateNote) DiscountMarginValue() (float64, bool) { return n.dm, n.priced }

// SettlementDate returns the pinned settlement date, if any.
func (n *FloatingRateNote) SettlementDate() (time.Time, bool) { return n.base.SettlementDate() }

// Spec returns the constructor parameters with the current pinned valuation.
func (n *FloatingRateNote) Spec() FRNSpec {
	out := n.spec
	out.Base = n.base.Spec()
	out.Base.Price, out.Base.Yield, out.DiscountMargin = nil, nil, nil
	if n.priced {
		p, dm := n.price, n.dm
		out.Base.Price, out.DiscountMargin = &p, &dm
	}
	return out
}

func (n *FloatingRateNote) curve(fn string, settlement time.Time) (ReferenceCurve, error) {
	if n.refCurve == nil {
		return nil, errs.Consistency("%s: reference curve is required", fn)
	}
	if !settlement.Equal(n.refCurve.CurveDate()) {
		return nil, errs.Consistency("%s: settlement date %s must equal the reference curve date %s", fn,
			settlement.Format(utils.DateLayout), n.refCurve.CurveDate().Format(utils.DateLayout))
	}
	return n.refCurve, nil
}

// CurrentReferenceRate resolves the fixing of the current period: the spec's rate, then the feed,
// then (only at issue or on a coupon date) the curve forward to the next coupon expressed as a
// nominal rate per coupon period.
func (n *FloatingRateNote) CurrentReferenceRate(settlement time.Time) (float64, error) {
	if n.spec.CurrentRefRate != nil {
		return *n.spec.CurrentRefRate, nil
	}
	if n.feed != nil {
		if r, ok := n.feed.RateOn(settlement); ok {
			return r, nil
		}
	}
	onReset := settlement.Equal(n.IssueDate()) || n.base.isCouponDate(settlement)
	if !onReset || n.refCurve == nil {
		return 0, errs.Consistency("CurrentReferenceRate: no reference rate available for %s", settlement.Format(utils.DateLayout))
	}
	next, ok := n.base.NextCouponDate(settlement)
	if !ok {
		return 0, errs.Consistency("CurrentReferenceRate: no coupon after %s", settlement.Format(utils.DateLayout))
	}
	fwd := n.refCurve.ForwardDates(settlement, next, 0, 0, 0)
	eff, err := rates.Convert(fwd, n.refCurve.Convention(), rates.Annual)
	if err != nil {
		return 0, err
	}
	return rates.EffectiveToNominal(eff, n.Frequency())
}

// ExpectedCashFlows projects the payments after settlement: the first coupon fixes at the current
// reference rate, later ones at curve forwards (shifted by curveDelta) converted to the note's
// yield convention. With a non-nil price, -price is added on the settlement date.
func (n *FloatingRateNote) ExpectedCashFlows(settlement time.Time, price *float64, curveDelta float64) ([]Flow, error) {
	settlement, err := n.base.resolveSettlement(settlement)
	if err != nil {
		return nil, err
	}
	ref, err := n.curve("ExpectedCashFlows", settlement)
	if err != nil {
		return nil, err
	}

	out := make([]Flow, 0, len(n.base.schedule)+1)
	if price != nil {
		out = append(out, Flow{Date: settlement, Amount: -*price})
	}

	freq := float64(n.Frequency())
	notional := n.Notional()
	last := settlement
	first := true
	for _, cf := range n.base.schedule {
		if !cf.Date.After(settlement) {
			continue
		}
		var refRate float64
		if first {
			refRate, err = n.CurrentReferenceRate(settlement)
			if err != nil {
				return nil, err
			}
			first = false
		} else {
			fwd := ref.ForwardDates(last, cf.Date, curveDelta, curveDelta, 0)
			refRate, err = rates.Convert(fwd, ref.Convention(), n.Convention())
			if err != nil {
				return nil, err
			}
		}
		out = append(out, Flow{Date: cf.Date, Amount: cf.Coupon + refRate/freq*notional + cf.Principal})
		last = cf.Date
	}
	return out, nil
}

// PriceFromDiscountMargin discounts the expected flows on the reference curve shifted by dm.
func (n *FloatingRateNote) PriceFromDiscountMargin(dm float64, settlement time.Time) (float64, error) {
	return n.valueAt(dm, 0, settlement)
}

func (n *FloatingRateNote) valueAt(dm, curveDelta float64, settlement time.Time) (float64, error) {
	flows, err := n.ExpectedCashFlows(settlement, nil, curveDelta)
	if err != nil {
		return 0, err
	}
	total, _ := discountFlows(n.refCurve, flows, dm+curveDelta)
	return total, nil
}

// DiscountMargin solves the spread over the reference curve that reprices the dirty price.
func (n *FloatingRateNote) DiscountMargin(price float64, settlement time.Time) (float64, error) {
	if price < 0 || math.IsNaN(price) {
		return 0, errs.Domain("DiscountMargin: price must be non-negative, got %v", price)
	}
	flows, err := n.ExpectedCashFlows(settlement, &price, 0)
	if err != nil {
		return 0, err
	}
	guess := n.spec.QuotedMargin
	if guess <= 0 {
		guess = 0.005
	}
	return solveCurveSpread("DiscountMargin", n.refCurve, flows, guess, math.Abs(price))
}

// SetPrice pins a dirty price and the discount margin it implies. Nothing changes on failure.
func (n *FloatingRateNote) SetPrice(price float64, settlement time.Time) error {
	if err := n.base.checkValuation("SetPrice", price, settlement); err != nil {
		return err
	}
	dm, err := n.DiscountMargin(price, settlement)
	if err != nil {
		return err
	}
	n.base.settlement, n.price, n.dm, n.priced = settlement, price, dm, true
	return nil
}

// SetDiscountMargin pins a discount margin and the price it implies. Nothing changes on failure.
func (n *FloatingRateNote) SetDiscountMargin(dm float64, settlement time.Time) error {
	if err := n.base.checkValuation("SetDiscountMargin", 0, settlement); err != nil {
		return err
	}
	p, err := n.PriceFromDiscountMargin(dm, settlement)
	if err != nil {
		return err
	}
	n.base.settlement, n.price, n.dm, n.priced = settlement, p, dm, true
	return nil
}

// ExpectedYield is the yield to maturity of the projected flows at the dirty price.
func (n *FloatingRateNote) ExpectedYield(price float64, settlement time.Time) (float64, error) {
	settlement, err := n.base.resolveSettlement(settlement)
	if err != nil {
		return 0, err
	}
	flows, err := n.ExpectedCashFlows(settlement, &price, 0)
	if err != nil {
		return 0, err
	}
	timed, err := n.base.timeFlows(flows, settlement)
	if err != nil {
		return 0, err
	}
	guess := n.spec.QuotedMargin + 0.03
	return SolveYield("ExpectedYield", timed, guess, n.Convention())
}

// AccruedInterest accrues the current coupon, (reference rate + quoted margin) per period, over
// the elapsed share of the period.
func (n *FloatingRateNote) AccruedInterest(date time.Time) (float64, error) {
	date, err := n.base.resolveSettlement(date)
	if err != nil {
		return 0, err
	}
	next, ok := n.base.NextCouponDate(date)
	if !ok {
		return 0, nil
	}
	refRate, err := n.CurrentReferenceRate(date)
	if err != nil {
		return 0, err
	}
	coupon := (refRate + n.spec.QuotedMargin) / float64(n.Frequency()) * n.Notional()
	return n.base.accrue(date, next, coupon)
}

// FRNMeasures are the margin-based analytics of a floating rate note.
type FRNMeasures struct {
	Settlement        time.Time `json:"settlement_date"`
	DiscountMargin    float64   `json:"discount_margin"`
	DirtyPrice        float64   `json:"dirty_price"`
	CleanPrice        float64   `json:"clean_price"`
	AccruedInterest   float64   `json:"accrued_interest"`
	SpreadDuration    float64   `json:"spread_duration"`
	EffectiveDuration float64   `json:"effective_duration"`
	SpreadDV01        float64   `json:"spread_dv01"`
}

// Measures bumps the discount margin (spread duration) and the reference curve, moving projected
// coupons and discounting together (effective duration).
func (n *FloatingRateNote) Measures(dm float64, settlement time.Time) (FRNMeasures, error) {
	settlement, err := n.base.resolveSettlement(settlement)
	if err != nil {
		return FRNMeasures{}, err
	}
	price, err := n.valueAt(dm, 0, settlement)
	if err != nil {
		return FRNMeasures{}, err
	}
	if price <= 0 {
		return FRNMeasures{}, errs.Domain("Measures: price at discount margin %v is not positive (%v)", dm, price)
	}
	bump := config.GetSolver().Bump
	values := make([]float64, 4)
	for i, shift := range []struct{ dm, curve float64 }{{bump, 0}, {-bump, 0}, {0, bump}, {0, -bump}} {
		if values[i], err = n.valueAt(dm+shift.dm, shift.curve, settlement); err != nil {
			return FRNMeasures{}, err
		}
	}
	ai, err := n.AccruedInterest(settlement)
	if err != nil {
		return FRNMeasures{}, err
	}
	return FRNMeasures{
		Settlement:        settlement,
		DiscountMargin:    dm,
		DirtyPrice:        price,
		CleanPrice:        price - ai,
		AccruedInterest:   ai,
		SpreadDuration:    -(values[0] - values[1]) / (2 * bump * price),
		EffectiveDuration: -(values[2] - values[3]) / (2 * bump * price),
		SpreadDV01:        (values[1] - values[0]) / 2 * (1e-4 / bump),
	}, nil
}

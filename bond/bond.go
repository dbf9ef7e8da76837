// Package bond generates bond cash flows and solves price, yield, duration and spread measures.
package bond

import (
	"math"
	"time"

	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/utils"
)

// FixedRateBullet is a bond with a deterministic schedule: a bullet bond built from a coupon rate
// and frequency, or an amortizing schedule (see NewCustomFlowBond).
//
// The schedule is computed once at construction. The only mutable state is the pinned
// (settlement, price, yield) triple, replaced as a whole by SetBondPrice and SetYieldToMaturity.
type FixedRateBullet struct {
	spec Spec

	accrual    daycount.Convention
	following  daycount.Convention
	convention rates.Convention

	schedule    []Cashflow
	couponDates []time.Time

	settlement time.Time
	price      float64
	ytm        float64
	priced     bool
}

// BulletBond is the plain fixed-coupon bond.
type BulletBond = FixedRateBullet

// NewFixedRateBullet builds a bullet bond paying cpn percent per year in freq coupons.
func NewFixedRateBullet(issue, maturity time.Time, cpn float64, freq int, opts ...Option) (*FixedRateBullet, error) {
	spec := DefaultSpec()
	spec.IssueDate = utils.NewDate(issue)
	spec.Maturity = utils.NewDate(maturity)
	spec.Coupon = cpn
	spec.Frequency = freq
	for _, opt := range opts {
		opt(&spec)
	}
	return New(spec)
}

// NewBulletBond is an alias of NewFixedRateBullet.
func NewBulletBond(issue, maturity time.Time, cpn float64, freq int, opts ...Option) (*BulletBond, error) {
	return NewFixedRateBullet(issue, maturity, cpn, freq, opts...)
}

// New builds a bullet bond from its spec.
func New(spec Spec) (*FixedRateBullet, error) {
	if err := spec.validate("NewFixedRateBullet"); err != nil {
		return nil, err
	}
	b, err := newBond(spec)
	if err != nil {
		return nil, err
	}
	b.schedule = bulletSchedule(spec)
	b.couponDates = couponDates(b.schedule, spec.Coupon > 0)
	if err := b.pin(); err != nil {
		return nil, err
	}
	return b, nil
}

func newBond(spec Spec) (*FixedRateBullet, error) {
	accrual, following, conv, err := spec.conventions()
	if err != nil {
		return nil, err
	}
	spec.Convention = conv
	if spec.Calendar == "" {
		spec.Calendar = calendar.Default
	}
	return &FixedRateBullet{
		spec:       spec,
		accrual:    accrual,
		following:  following,
		convention: conv,
	}, nil
}

// pin applies the spec's optional settlement, price and yield.
func (b *FixedRateBullet) pin() error {
	s := b.spec
	if s.Settlement.IsZero() {
		return nil
	}
	switch {
	case s.Price != nil && s.Yield != nil:
		return b.SetPriceAndYield(*s.Price, *s.Yield, s.Settlement.Time)
	case s.Price != nil:
		return b.SetBondPrice(*s.Price, s.Settlement.Time)
	case s.Yield != nil:
		return b.SetYieldToMaturity(*s.Yield, s.Settlement.Time)
	}
	b.settlement = s.Settlement.Time
	return nil
}

// Spec returns the constructor parameters, including the currently pinned valuation.
func (b *FixedRateBullet) Spec() Spec {
	s := b.spec
	s.Price, s.Yield = nil, nil
	s.Settlement = utils.NewDate(b.settlement)
	if b.priced {
		p, y := b.price, b.ytm
		s.Price, s.Yield = &p, &y
	}
	return s
}

func (b *FixedRateBullet) IssueDate() time.Time { return b.spec.IssueDate.Time }
func (b *FixedRateBullet) Maturity() time.Time { return b.spec.Maturity.Time }
func (b *FixedRateBullet) Coupon() float64 { return b.spec.Coupon }
func (b *FixedRateBullet) Frequency() int { return b.spec.Frequency }
func (b *FixedRateBullet) Notional() float64 { return b.spec.Notional }
func (b *FixedRateBullet) Convention() rates.Convention { return b.convention }
func (b *FixedRateBullet) DayCount() daycount.Convention { return b.accrual }
func (b *FixedRateBullet) FollowingDayCount() daycount.Convention { return b.following }

// SettlementDate returns the pinned settlement date, if any.
func (b *FixedRateBullet) SettlementDate() (time.Time, bool) {
	return b.settlement, !b.settlement.IsZero()
}

// BondPrice returns the pinned dirty price, if any.
func (b *FixedRateBullet) BondPrice() (float64, bool) {
	return b.price, b.priced
}

// YieldToMaturity returns the pinned yield, if any.
func (b *FixedRateBullet) YieldToMaturity() (float64, bool) {
	return b.ytm, b.priced
}

// Schedule returns a copy of the full payment schedule.
func (b *FixedRateBullet) Schedule() []Cashflow {
	return append([]Cashflow(nil), b.schedule...)
}

// PaymentFlow returns the total payment per date.
func (b *FixedRateBullet) PaymentFlow() []Flow {
	out := make([]Flow, len(b.schedule))
	for i, cf := range b.schedule {
		out[i] = Flow{Date: cf.Date, Amount: cf.Amount()}
	}
	return out
}

// CouponFlow returns the coupon part per coupon date.
func (b *FixedRateBullet) CouponFlow() []Flow {
	out := make([]Flow, 0, len(b.couponDates))
	for _, cf := range b.schedule {
		if b.isCouponDate(cf.Date) {
			out = append(out, Flow{Date: cf.Date, Amount: cf.Coupon})
		}
	}
	return out
}

// AmortizationFlow returns the principal part per date.
func (b *FixedRateBullet) AmortizationFlow() []Flow {
	out := make([]Flow, len(b.schedule))
	for i, cf := range b.schedule {
		out[i] = Flow{Date: cf.Date, Amount: cf.Principal}
	}
	return out
}

// SetBondPrice pins a dirty price at settlement and solves the matching yield. Nothing changes on
// failure.
func (b *FixedRateBullet) SetBondPrice(price float64, settlement time.Time) error {
	if err := b.checkValuation("SetBondPrice", price, settlement); err != nil {
		return err
	}
	y, err := b.YieldFromPrice(price, settlement)
	if err != nil {
		return err
	}
	b.settlement, b.price, b.ytm, b.priced = settlement, price, y, true
	return nil
}

// SetYieldToMaturity pins a yield at settlement and computes the matching dirty price. Nothing
// changes on failure.
func (b *FixedRateBullet) SetYieldToMaturity(y float64, settlement time.Time) error {
	if err := b.checkValuation("SetYieldToMaturity", 0, settlement); err != nil {
		return err
	}
	p, err := b.PriceFromYield(y, settlement)
	if err != nil {
		return err
	}
	b.settlement, b.price, b.ytm, b.priced = settlement, p, y, true
	return nil
}

// SetPriceAndYield pins both values after checking they agree within the configured relative
// tolerance.
func (b *FixedRateBullet) SetPriceAndYield(price, y float64, settlement time.Time) error {
	if err := b.checkValuation("SetPriceAndYield", price, settlement); err != nil {
		return err
	}
	implied, err := b.PriceFromYield(y, settlement)
	if err != nil {
		return err
	}
	if err := checkConsistent("SetPriceAndYield", price, implied); err != nil {
		return err
	}
	b.settlement, b.price, b.ytm, b.priced = settlement, price, y, true
	return nil
}

func (b *FixedRateBullet) checkValuation(fn string, price float64, settlement time.Time) error {
	if settlement.IsZero() {
		return errs.Consistency("%s: settlement date is required", fn)
	}
	if settlement.Before(b.IssueDate()) {
		return errs.Consistency("%s: settlement date %s is before issue date %s", fn,
			settlement.Format(utils.DateLayout), b.spec.IssueDate)
	}
	if price < 0 || math.IsNaN(price) {
		return errs.Domain("%s: price must be non-negative, got %v", fn, price)
	}
	return nil
}

func checkConsistent(fn string, given, implied float64) error {
	tol := config.GetSolver().PriceConsistency
	if given == 0 {
		if math.Abs(implied) > tol {
			return errs.Consistency("%s: price implied by yield %v does not match given price 0", fn, implied)
		}
		return nil
	}
	if math.Abs(implied-given)/given > tol {
		return errs.Consistency("%s: price implied by yield %.10g does not match given price %.10g", fn, implied, given)
	}
	return nil
}

// resolveSettlement returns settlement, or the pinned date, or the issue date.
func (b *FixedRateBullet) resolveSettlement(settlement time.Time) (time.Time, error) {
	if !settlement.IsZero() {
		if settlement.Before(b.IssueDate()) {
			return time.Time{}, errs.Consistency("settlement date %s is before issue date %s",
				settlement.Format(utils.DateLayout), b.spec.IssueDate)
		}
		return settlement, nil
	}
	if !b.settlement.IsZero() {
		return b.settlement, nil
	}
	return b.IssueDate(), nil
}

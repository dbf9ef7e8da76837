package bond

import (
	"math"
	"time"

	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/solver"
)

// discount returns the yield discount factor at t and its first and second derivatives in y.
//
//	periodic:   (1+y/k)^(-tk), k = compounding periods per year
//	continuous: e^(-yt)
func discount(y, t float64, conv rates.Convention) (df, d1, d2 float64) {
	if conv == rates.Continuous {
		df = math.Exp(-y * t)
		return df, -t * df, t * t * df
	}
	k := float64(conv.CompoundingPerYear())
	base := 1 + y/k
	df = math.Pow(base, -t*k)
	d1 = -t * math.Pow(base, -t*k-1)
	d2 = t * (t + 1/k) * math.Pow(base, -t*k-2)
	return df, d1, d2
}

// PriceFromTimes discounts timed flows at yield y under conv.
func PriceFromTimes(flows []TimedFlow, y float64, conv rates.Convention) float64 {
	var price float64
	for _, f := range flows {
		df, _, _ := discount(y, f.T, conv)
		price += f.Amount * df
	}
	return price
}

// SolveYield finds the yield at which timed flows (including the negative price flow) have zero
// net present value under conv.
func SolveYield(fn string, flows []TimedFlow, guess float64, conv rates.Convention) (float64, error) {
	scale := 0.0
	for _, f := range flows {
		scale = math.Max(scale, math.Abs(f.Amount))
	}
	npv := func(y float64) (float64, float64) {
		var v, dv float64
		for _, f := range flows {
			df, d1, _ := discount(y, f.T, conv)
			v += f.Amount * df
			dv += f.Amount * d1
		}
		return v, dv
	}
	cfg := config.GetSolver()
	res, err := solver.Newton(fn, guess, npv, cfg.Tolerance*math.Max(1, scale), cfg.YieldTolerance)
	if err != nil {
		return 0, err
	}
	return res.Root, nil
}

// PriceFromYield returns the dirty price at settlement (the pinned date, or issue, when zero).
func (b *FixedRateBullet) PriceFromYield(y float64, settlement time.Time) (float64, error) {
	flows, err := b.TimeToPayments(settlement, nil)
	if err != nil {
		return 0, err
	}
	return PriceFromTimes(flows, y, b.convention), nil
}

// DirtyPrice is an alias of PriceFromYield.
func (b *FixedRateBullet) DirtyPrice(y float64, settlement time.Time) (float64, error) {
	return b.PriceFromYield(y, settlement)
}

// CleanPrice is the dirty price less accrued interest.
func (b *FixedRateBullet) CleanPrice(y float64, settlement time.Time) (float64, error) {
	settlement, err := b.resolveSettlement(settlement)
	if err != nil {
		return 0, err
	}
	dirty, err := b.PriceFromYield(y, settlement)
	if err != nil {
		return 0, err
	}
	ai, err := b.AccruedInterest(settlement)
	if err != nil {
		return 0, err
	}
	return dirty - ai, nil
}

// YieldFromPrice solves the yield to maturity that reprices the dirty price at settlement.
func (b *FixedRateBullet) YieldFromPrice(price float64, settlement time.Time) (float64, error) {
	if price < 0 || math.IsNaN(price) {
		return 0, errs.Domain("YieldFromPrice: price must be non-negative, got %v", price)
	}
	flows, err := b.TimeToPayments(settlement, &price)
	if err != nil {
		return 0, err
	}
	if len(flows) < 2 {
		return 0, errs.Consistency("YieldFromPrice: no cash flows remain after settlement")
	}
	guess := 0.05
	if b.spec.Coupon > 0 {
		guess = b.spec.Coupon / 100
	}
	return SolveYield("YieldFromPrice", flows, guess, b.convention)
}

// Measures are the yield-based analytics of a bond at one settlement date.
type Measures struct {
	Settlement         time.Time `json:"settlement_date"`
	Yield              float64   `json:"yield_to_maturity"`
	DirtyPrice         float64   `json:"dirty_price"`
	CleanPrice         float64   `json:"clean_price"`
	AccruedInterest    float64   `json:"accrued_interest"`
	MacaulayDuration   float64   `json:"macaulay_duration"`
	ModifiedDuration   float64   `json:"modified_duration"`
	Convexity          float64   `json:"convexity"`
	EffectiveDuration  float64   `json:"effective_duration"`
	EffectiveConvexity float64   `json:"effective_convexity"`
	DV01               float64   `json:"dv01"`
}

// Measures computes every yield-based analytic at yield y.
func (b *FixedRateBullet) Measures(y float64, settlement time.Time) (Measures, error) {
	settlement, err := b.resolveSettlement(settlement)
	if err != nil {
		return Measures{}, err
	}
	flows, err := b.TimeToPayments(settlement, nil)
	if err != nil {
		return Measures{}, err
	}
	m, err := measuresFromTimes("Measures", flows, y, b.convention)
	if err != nil {
		return Measures{}, err
	}
	ai, err := b.AccruedInterest(settlement)
	if err != nil {
		return Measures{}, err
	}
	m.Settlement = settlement
	m.AccruedInterest = ai
	m.CleanPrice = m.DirtyPrice - ai
	return m, nil
}

func measuresFromTimes(fn string, flows []TimedFlow, y float64, conv rates.Convention) (Measures, error) {
	var price, d1, d2, weighted float64
	for _, f := range flows {
		df, dfd1, dfd2 := discount(y, f.T, conv)
		price += f.Amount * df
		d1 += f.Amount * dfd1
		d2 += f.Amount * dfd2
		weighted += f.T * f.Amount * df
	}
	if price <= 0 {
		return Measures{}, errs.Domain("%s: price at yield %v is not positive (%v)", fn, y, price)
	}

	bump := config.GetSolver().Bump
	up := PriceFromTimes(flows, y+bump, conv)
	down := PriceFromTimes(flows, y-bump, conv)

	return Measures{
		Yield:              y,
		DirtyPrice:         price,
		MacaulayDuration:   weighted / price,
		ModifiedDuration:   -d1 / price,
		Convexity:          d2 / price,
		EffectiveDuration:  -(up - down) / (2 * bump * price),
		EffectiveConvexity: (up + down - 2*price) / (bump * bump * price),
		DV01:               (down - up) / 2 * (1e-4 / bump),
	}, nil
}

// ModifiedDuration is -1/P dP/dy at yield y.
func (b *FixedRateBullet) ModifiedDuration(y float64, settlement time.Time) (float64, error) {
	m, err := b.Measures(y, settlement)
	return m.ModifiedDuration, err
}

// MacaulayDuration is the present-value weighted average time of the remaining flows.
func (b *FixedRateBullet) MacaulayDuration(y float64, settlement time.Time) (float64, error) {
	m, err := b.Measures(y, settlement)
	return m.MacaulayDuration, err
}

// Convexity is 1/P d2P/dy2 at yield y.
func (b *FixedRateBullet) Convexity(y float64, settlement time.Time) (float64, error) {
	m, err := b.Measures(y, settlement)
	return m.Convexity, err
}

// DV01 is the price gain for a one basis point fall in yield, from a symmetric bump.
func (b *FixedRateBullet) DV01(y float64, settlement time.Time) (float64, error) {
	m, err := b.Measures(y, settlement)
	return m.DV01, err
}

// AccruedInterest is the next coupon times the elapsed share of its period:
// coupon * f(prev, date, next) / f(prev, next, next) under the accrual day count. Before the first
// coupon the period starts at issue. Zero-coupon bonds accrue nothing.
func (b *FixedRateBullet) AccruedInterest(date time.Time) (float64, error) {
	date, err := b.resolveSettlement(date)
	if err != nil {
		return 0, err
	}
	if len(b.couponDates) == 0 {
		return 0, nil
	}
	next, ok := b.NextCouponDate(date)
	if !ok {
		return 0, nil
	}
	return b.accrue(date, next, b.couponOn(next))
}

func (b *FixedRateBullet) accrue(date, next time.Time, coupon float64) (float64, error) {
	prev, ok := b.PreviousCouponDate(date)
	if !ok {
		prev = b.IssueDate()
	}
	elapsed, err := b.accrual.Fraction(prev, date, next)
	if err != nil {
		return 0, err
	}
	period, err := b.accrual.Fraction(prev, next, next)
	if err != nil {
		return 0, err
	}
	if period == 0 {
		return 0, nil
	}
	return coupon * elapsed / period, nil
}

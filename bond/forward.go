package bond

import (
	"math"
	"time"

	"github.com/meenmo/bondlib/errs"
)

// ForwardYieldResult is the yield implied by a bond futures delivery.
type ForwardYieldResult struct {
	Yield float64 `json:"forward_yield"`
	// InvoicePrice is futures price x conversion factor + accrued interest, in notional units.
	InvoicePrice    float64 `json:"invoice_price"`
	AccruedInterest float64 `json:"accrued_interest"`
}

// ForwardYield solves the yield at which the deliverable bond's dirty price on the delivery date
// equals the futures invoice price. futuresPrice is clean and per 100 of notional.
func (b *FixedRateBullet) ForwardYield(futuresPrice, conversionFactor float64, delivery time.Time) (ForwardYieldResult, error) {
	const fn = "ForwardYield"
	if delivery.IsZero() {
		return ForwardYieldResult{}, errs.Consistency("%s: delivery date is required", fn)
	}
	if futuresPrice <= 0 || conversionFactor <= 0 || math.IsNaN(futuresPrice*conversionFactor) {
		return ForwardYieldResult{}, errs.Domain("%s: futures price %v and conversion factor %v must be positive",
			fn, futuresPrice, conversionFactor)
	}
	ai, err := b.AccruedInterest(delivery)
	if err != nil {
		return ForwardYieldResult{}, err
	}
	invoice := futuresPrice*conversionFactor*b.Notional()/100 + ai
	y, err := b.YieldFromPrice(invoice, delivery)
	if err != nil {
		return ForwardYieldResult{}, err
	}
	return ForwardYieldResult{Yield: y, InvoicePrice: invoice, AccruedInterest: ai}, nil
}

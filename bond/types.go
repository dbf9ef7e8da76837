package bond

import (
	"time"

	"github.com/meenmo/bondlib/rates"
)

// Cashflow is a single dated payment of a bond split into its coupon and principal parts.
//
// Amounts are in currency units of the bond's notional, not price-per-100.
type Cashflow struct {
	Date      time.Time `json:"date"`
	Coupon    float64   `json:"coupon"`
	Principal float64   `json:"principal"`
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// Flow is a dated net amount. A purchase price enters as a negative flow on the settlement date.
type Flow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// TimedFlow is a flow positioned in years from settlement.
type TimedFlow struct {
	T      float64 `json:"t"`
	Amount float64 `json:"amount"`
}

// Curve is the discounting contract a bond needs from a yield curve.
type Curve interface {
	CurveDate() time.Time
	DiscountT(t, spread float64) float64
	DiscountDate(date time.Time, spread float64) float64
	DateRate(date time.Time, convention rates.Convention, spread float64) (float64, error)
}

// ReferenceCurve projects floating coupons.
type ReferenceCurve interface {
	Curve
	Convention() rates.Convention
	ForwardDates(start, end time.Time, spreadStart, spreadEnd, spreadForward float64) float64
}

// ReferenceRateFeed supplies reference-rate fixings for the current floating period.
type ReferenceRateFeed interface {
	RateOn(date time.Time) (float64, bool)
}

package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/utils"
)

// FlatCurve has one rate at every maturity. Its native convention fixes the discount formula:
//
//	Continuous  e^{-(r+s)t}
//	Annual      (1+r+s)^{-t}
//	BEY         (1+(r+s)/2)^{-2t}
type FlatCurve struct {
	base
	flat float64
}

// NewFlatCurveLog is a continuously compounded flat curve on actual/365 by default.
func NewFlatCurveLog(rate float64, date time.Time, opts ...Option) (*FlatCurve, error) {
	return NewFlatCurve(rate, date, rates.Continuous, opts...)
}

// NewFlatCurveAER is an annually compounded flat curve on actual/365 by default.
func NewFlatCurveAER(rate float64, date time.Time, opts ...Option) (*FlatCurve, error) {
	return NewFlatCurve(rate, date, rates.Annual, opts...)
}

// NewFlatCurveBEY is a bond-equivalent flat curve on 30/360 by default.
func NewFlatCurveBEY(rate float64, date time.Time, opts ...Option) (*FlatCurve, error) {
	return NewFlatCurve(rate, date, rates.BEY, opts...)
}

// NewFlatCurve builds a flat curve in conv. WithConvention is ignored.
func NewFlatCurve(rate float64, date time.Time, conv rates.Convention, opts ...Option) (*FlatCurve, error) {
	dc := daycount.Actual365
	if conv == rates.BEY {
		dc = daycount.Thirty360
	}
	o := buildOptions(dc, conv, opts)
	o.convention = conv
	b, err := newBase("NewFlatCurve", date, o)
	if err != nil {
		return nil, err
	}
	c := &FlatCurve{base: b, flat: rate}
	c.k = c
	return c, nil
}

// Rate returns the flat rate in the native convention.
func (c *FlatCurve) Rate() float64 { return c.flat }

func (c *FlatCurve) rate(_, spread float64) float64 { return c.flat + spread }

func (c *FlatCurve) DiscountT(t, spread float64) float64 {
	r := c.flat + spread
	switch c.conv {
	case rates.Continuous:
		return math.Exp(-r * t)
	case rates.BEY:
		return math.Pow(1+r/2, -2*t)
	}
	return math.Pow(1+r, -t)
}

func (c *FlatCurve) DiscountToRate(df, t, spread float64) float64 {
	if t == 0 {
		return -spread
	}
	switch c.conv {
	case rates.Continuous:
		return -math.Log(df)/t - spread
	case rates.BEY:
		return 2*(math.Pow(1/df, 1/(2*t))-1) - spread
	}
	return math.Pow(1/df, 1/t) - 1 - spread
}

func (c *FlatCurve) Spec() Spec {
	r := c.flat
	return Spec{
		Kind:       KindFlat,
		CurveDate:  utils.NewDate(c.date),
		DayCount:   c.dc.Name(),
		Convention: c.conv,
		Rate:       &r,
	}
}

func (c *FlatCurve) CloneWithNewDate(date time.Time) YieldCurve {
	out := *c
	out.date = date
	out.k = &out
	return &out
}

func (c *FlatCurve) String() string {
	return fmt.Sprintf("FlatCurve(%s %.4f, %s)", c.conv, c.flat, c.date.Format(utils.DateLayout))
}

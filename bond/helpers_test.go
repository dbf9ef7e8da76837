package bond_test

import (
	"math"
	"time"

	"github.com/meenmo/bondlib/rates"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

// flatCurve is a continuously compounded flat curve on actual/365.
type flatCurve struct {
	on   time.Time
	rate float64
}

func (c flatCurve) CurveDate() time.Time { return c.on }

func (c flatCurve) Convention() rates.Convention { return rates.Continuous }

func (c flatCurve) years(d time.Time) float64 {
	return d.Sub(c.on).Hours() / 24 / 365
}

func (c flatCurve) DiscountT(t, spread float64) float64 {
	return math.Exp(-(c.rate + spread) * t)
}

func (c flatCurve) DiscountDate(d time.Time, spread float64) float64 {
	return c.DiscountT(c.years(d), spread)
}

func (c flatCurve) DateRate(_ time.Time, conv rates.Convention, spread float64) (float64, error) {
	return rates.Convert(c.rate+spread, rates.Continuous, conv)
}

func (c flatCurve) ForwardDates(start, end time.Time, spreadStart, spreadEnd, spreadForward float64) float64 {
	ts, te := c.years(start), c.years(end)
	return (math.Log(c.DiscountT(ts, spreadStart))-math.Log(c.DiscountT(te, spreadEnd)))/(te-ts) + spreadForward
}

// fixings is a map-backed reference rate feed.
type fixings map[time.Time]float64

func (f fixings) RateOn(d time.Time) (float64, bool) {
	r, ok := f[d]
	return r, ok
}

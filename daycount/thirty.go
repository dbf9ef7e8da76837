package daycount

import "time"

func thirtyNumerator(y1, m1, d1, y2, m2, d2 int) float64 {
	return float64(360*(y2-y1) + 30*(m2-m1) + (d2 - d1))
}

// thirty360 is the US 30/360 (bond basis) rule.
type thirty360 struct{}

func (thirty360) Name() string { return Thirty360 }

func (thirty360) Numerator(start, current, _ time.Time) (float64, error) {
	d1, d2 := start.Day(), current.Day()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 == 30 {
		d2 = 30
	}
	return thirtyNumerator(start.Year(), int(start.Month()), d1, current.Year(), int(current.Month()), d2), nil
}

func (thirty360) Denominator(_, _, _ time.Time) (float64, error) { return 360, nil }

func (c thirty360) Fraction(start, current, end time.Time) (float64, error) {
	return ratio(c, start, current, end)
}

func (c thirty360) FractionPeriodAdjusted(start, current, end time.Time, periodsPerYear int) (float64, error) {
	return periodAdjusted(c, start, current, end, periodsPerYear)
}

// thirtyE360 caps both days at 30 (Eurobond basis).
type thirtyE360 struct{}

func (thirtyE360) Name() string { return ThirtyE360 }

func (thirtyE360) Numerator(start, current, _ time.Time) (float64, error) {
	d1, d2 := min(start.Day(), 30), min(current.Day(), 30)
	return thirtyNumerator(start.Year(), int(start.Month()), d1, current.Year(), int(current.Month()), d2), nil
}

func (thirtyE360) Denominator(_, _, _ time.Time) (float64, error) { return 360, nil }

func (c thirtyE360) Fraction(start, current, end time.Time) (float64, error) {
	return ratio(c, start, current, end)
}

func (c thirtyE360) FractionPeriodAdjusted(start, current, end time.Time, periodsPerYear int) (float64, error) {
	return periodAdjusted(c, start, current, end, periodsPerYear)
}

// thirty365 adjusts both 31sts to 30 and divides by 365.
type thirty365 struct{}

func (thirty365) Name() string { return Thirty365 }

func (thirty365) Numerator(start, current, _ time.Time) (float64, error) {
	d1, d2 := start.Day(), current.Day()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 {
		d2 = 30
	}
	return thirtyNumerator(start.Year(), int(start.Month()), d1, current.Year(), int(current.Month()), d2), nil
}

func (thirty365) Denominator(_, _, _ time.Time) (float64, error) { return 365, nil }

func (c thirty365) Fraction(start, current, end time.Time) (float64, error) {
	return ratio(c, start, current, end)
}

func (c thirty365) FractionPeriodAdjusted(start, current, end time.Time, periodsPerYear int) (float64, error) {
	return periodAdjusted(c, start, current, end, periodsPerYear)
}

package daycount

import (
	"time"

	"github.com/meenmo/bondlib/errs"
)

// actualFixed is Actual/360 or Actual/365.
type actualFixed struct {
	name  string
	basis float64
}

func (a actualFixed) Name() string { return a.name }

func (actualFixed) Numerator(start, current, _ time.Time) (float64, error) {
	return actualDays(start, current), nil
}

func (a actualFixed) Denominator(_, _, _ time.Time) (float64, error) { return a.basis, nil }

func (a actualFixed) Fraction(start, current, end time.Time) (float64, error) {
	return ratio(a, start, current, end)
}

func (a actualFixed) FractionPeriodAdjusted(start, current, end time.Time, periodsPerYear int) (float64, error) {
	return periodAdjusted(a, start, current, end, periodsPerYear)
}

// actualActualBond measures elapsed days against the days of the period ending at end.
type actualActualBond struct{}

func (actualActualBond) Name() string { return ActualActualBond }

func (actualActualBond) Numerator(start, current, _ time.Time) (float64, error) {
	return actualDays(start, current), nil
}

func (actualActualBond) Denominator(start, _, end time.Time) (float64, error) {
	if err := requireEnd(ActualActualBond, end); err != nil {
		return 0, err
	}
	days := actualDays(start, end)
	if days == 0 {
		return 0, errs.Domain("%s: period from %s to %s is empty", ActualActualBond, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return days, nil
}

func (c actualActualBond) Fraction(start, current, end time.Time) (float64, error) {
	return ratio(c, start, current, end)
}

// FractionPeriodAdjusted returns the plain fraction: the denominator already spans one period.
func (c actualActualBond) FractionPeriodAdjusted(start, current, end time.Time, _ int) (float64, error) {
	return c.Fraction(start, current, end)
}

// actualActualISDA weights each calendar year's days by that year's length.
type actualActualISDA struct{}

func (actualActualISDA) Name() string { return ActualActualISDA }

func (actualActualISDA) Numerator(start, current, end time.Time) (float64, error) {
	if err := requireEnd(ActualActualISDA, end); err != nil {
		return 0, err
	}
	return actualDays(start, current), nil
}

// Denominator is the effective year length that makes Numerator/Denominator equal the
// per-year weighted sum.
func (c actualActualISDA) Denominator(start, current, end time.Time) (float64, error) {
	if err := requireEnd(ActualActualISDA, end); err != nil {
		return 0, err
	}
	days := actualDays(start, current)
	if days == 0 {
		return daysInYear(start.Year()), nil
	}
	return days / isdaYears(start, current), nil
}

func (c actualActualISDA) Fraction(start, current, end time.Time) (float64, error) {
	if err := requireEnd(ActualActualISDA, end); err != nil {
		return 0, err
	}
	return isdaYears(start, current), nil
}

func (c actualActualISDA) FractionPeriodAdjusted(start, current, end time.Time, periodsPerYear int) (float64, error) {
	return periodAdjusted(c, start, current, end, periodsPerYear)
}

// isdaYears sums days/year-length over every calendar year touched by [from, to).
func isdaYears(from, to time.Time) float64 {
	sign := 1.0
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}
	total := 0.0
	d := from
	for d.Before(to) {
		next := time.Date(d.Year()+1, time.January, 1, 0, 0, 0, 0, d.Location())
		if next.After(to) {
			next = to
		}
		total += actualDays(d, next) / daysInYear(d.Year())
		d = next
	}
	return sign * total
}

func daysInYear(year int) float64 {
	if isLeap(year) {
		return 366
	}
	return 365
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

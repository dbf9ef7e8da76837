// Package daycount computes year fractions between dates under named day-count conventions.
//
// Conventions are stateless and looked up by canonical lowercase name:
//
//	dc, err := daycount.Get("30/360")
//	f, err := dc.Fraction(start, current, time.Time{})
//
// Actual/Actual conventions need the period end date; a zero end fails with errs.ErrConsistency.
package daycount

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/meenmo/bondlib/errs"
)

// Canonical convention names.
const (
	Thirty360        = "30/360"
	ThirtyE360       = "30e/360"
	Thirty365        = "30/365"
	Actual360        = "actual/360"
	Actual365        = "actual/365"
	ActualActualISDA = "actual/actual-isda"
	ActualActualBond = "actual/actual-bond"

	// Default is used when a caller leaves the convention name empty.
	Default = Actual365
)

// Convention is a day-count rule. Fraction always equals Numerator/Denominator.
type Convention interface {
	Name() string
	Numerator(start, current, end time.Time) (float64, error)
	Denominator(start, current, end time.Time) (float64, error)
	Fraction(start, current, end time.Time) (float64, error)
	// FractionPeriodAdjusted divides the denominator by periodsPerYear, giving the share of a
	// sub-annual coupon period elapsed.
	FractionPeriodAdjusted(start, current, end time.Time, periodsPerYear int) (float64, error)
}

var registry = map[string]Convention{
	Thirty360:        thirty360{},
	ThirtyE360:       thirtyE360{},
	Thirty365:        thirty365{},
	Actual360:        actualFixed{name: Actual360, basis: 360},
	Actual365:        actualFixed{name: Actual365, basis: 365},
	ActualActualISDA: actualActualISDA{},
	ActualActualBond: actualActualBond{},
}

// Get returns the convention registered under name (case-insensitive). An empty name yields Default.
func Get(name string) (Convention, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = Default
	}
	dc, ok := registry[key]
	if !ok {
		return nil, errs.UnknownDayCount(name)
	}
	return dc, nil
}

// MustGet is Get for package-level defaults and tests; it panics on unknown names.
func MustGet(name string) Convention {
	dc, err := Get(name)
	if err != nil {
		panic(err)
	}
	return dc
}

// Names lists the registered convention names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fraction looks up convention and returns its year fraction.
func Fraction(convention string, start, current, end time.Time) (float64, error) {
	dc, err := Get(convention)
	if err != nil {
		return 0, err
	}
	return dc.Fraction(start, current, end)
}

// ratio is shared by the fixed-denominator conventions.
func ratio(c Convention, start, current, end time.Time) (float64, error) {
	num, err := c.Numerator(start, current, end)
	if err != nil {
		return 0, err
	}
	den, err := c.Denominator(start, current, end)
	if err != nil {
		return 0, err
	}
	return num / den, nil
}

func periodAdjusted(c Convention, start, current, end time.Time, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, errs.Domain("%s: periods per year must be positive, got %d", c.Name(), periodsPerYear)
	}
	num, err := c.Numerator(start, current, end)
	if err != nil {
		return 0, err
	}
	den, err := c.Denominator(start, current, end)
	if err != nil {
		return 0, err
	}
	return num / (den / float64(periodsPerYear)), nil
}

// actualDays counts calendar days from start to current, negative when current precedes start.
func actualDays(start, current time.Time) float64 {
	return math.Round(current.Sub(start).Hours() / 24)
}

func requireEnd(name string, end time.Time) error {
	if end.IsZero() {
		return fmt.Errorf("%s: %w", name, errs.Consistency("end date is required"))
	}
	return nil
}

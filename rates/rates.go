// Package rates converts interest rates between compounding conventions.
//
// Every conversion goes through the effective annual rate, so any pair of conventions composes
// exactly: Continuous <-> Annual is e^r-1 / ln(1+r), BEY <-> Annual is (1+b/2)^2-1 / 2((1+e)^0.5-1).
package rates

import (
	"math"
	"strconv"
	"strings"

	"github.com/meenmo/bondlib/errs"
)

// Convention is a yield calculation convention.
type Convention string

const (
	Annual     Convention = "Annual"
	BEY        Convention = "BEY"
	Continuous Convention = "Continuous"
)

// Parse validates a convention name. Matching ignores case; the canonical spelling is returned.
func Parse(name string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "annual":
		return Annual, nil
	case "bey":
		return BEY, nil
	case "continuous":
		return Continuous, nil
	}
	return "", errs.UnknownYieldConvention(name)
}

// Or returns c, or fallback when c is empty.
func (c Convention) Or(fallback Convention) Convention {
	if c == "" {
		return fallback
	}
	return c
}

// Validate reports whether c is a known convention.
func (c Convention) Validate() error {
	_, err := Parse(string(c))
	return err
}

// CompoundingPerYear returns the compounding periods per year used in price/yield formulas
// (2 for BEY, 1 otherwise).
func (c Convention) CompoundingPerYear() int {
	if c == BEY {
		return 2
	}
	return 1
}

// ToEffective converts rate in convention from to an effective annual rate.
func ToEffective(rate float64, from Convention) (float64, error) {
	switch from {
	case Annual:
		return rate, nil
	case BEY:
		return math.Pow(1+rate/2, 2) - 1, nil
	case Continuous:
		return math.Expm1(rate), nil
	}
	return 0, errs.UnknownYieldConvention(string(from))
}

// FromEffective converts an effective annual rate into convention to.
func FromEffective(effective float64, to Convention) (float64, error) {
	switch to {
	case Annual:
		return effective, nil
	case BEY:
		return 2 * (math.Sqrt(1+effective) - 1), nil
	case Continuous:
		return math.Log1p(effective), nil
	}
	return 0, errs.UnknownYieldConvention(string(to))
}

// Convert re-expresses rate from one convention in another.
func Convert(rate float64, from, to Convention) (float64, error) {
	if from == to {
		if err := from.Validate(); err != nil {
			return 0, err
		}
		return rate, nil
	}
	eff, err := ToEffective(rate, from)
	if err != nil {
		return 0, err
	}
	return FromEffective(eff, to)
}

// EffectiveToNominal converts an effective annual rate into a nominal rate compounded
// periodsPerYear times.
func EffectiveToNominal(effective float64, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, errs.Domain("EffectiveToNominal: periods per year must be positive, got %d", periodsPerYear)
	}
	if effective <= -1 {
		return 0, errs.Domain("EffectiveToNominal: effective rate %v must exceed -1", effective)
	}
	n := float64(periodsPerYear)
	return n * (math.Pow(1+effective, 1/n) - 1), nil
}

// NominalToEffective is the inverse of EffectiveToNominal.
func NominalToEffective(nominal float64, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, errs.Domain("NominalToEffective: periods per year must be positive, got %d", periodsPerYear)
	}
	n := float64(periodsPerYear)
	return math.Pow(1+nominal/n, n) - 1, nil
}

// MoneyMarketQuote is how a money-market rate relates to the price of a single payment.
type MoneyMarketQuote int

const (
	// AddOn rates give price = face / (1 + r*days/base).
	AddOn MoneyMarketQuote = iota
	// Discount rates give price = face * (1 - r*days/base).
	Discount
)

func (q MoneyMarketQuote) String() string {
	switch q {
	case AddOn:
		return "Add-On"
	case Discount:
		return "Discount"
	}
	return "MoneyMarketQuote(" + strconv.Itoa(int(q)) + ")"
}

// NominalDaysToEffective annualizes a nominal rate compounded every days days, with base days per year.
func NominalDaysToEffective(nominal, days, base float64) (float64, error) {
	periods, err := periodsFromDays("NominalDaysToEffective", days, base)
	if err != nil {
		return 0, err
	}
	return math.Pow(1+nominal/periods, periods) - 1, nil
}

// EffectiveToNominalDays is the inverse of NominalDaysToEffective.
func EffectiveToNominalDays(effective, days, base float64) (float64, error) {
	periods, err := periodsFromDays("EffectiveToNominalDays", days, base)
	if err != nil {
		return 0, err
	}
	if effective <= -1 {
		return 0, errs.Domain("EffectiveToNominalDays: effective rate %v must exceed -1", effective)
	}
	return (math.Pow(1+effective, 1/periods) - 1) * periods, nil
}

// SinglePeriodToEffective compounds a per-period rate over periodsPerYear periods.
func SinglePeriodToEffective(rate, periodsPerYear float64) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, errs.Domain("SinglePeriodToEffective: periods per year must be positive, got %v", periodsPerYear)
	}
	return math.Pow(1+rate, periodsPerYear) - 1, nil
}

// EffectiveToSinglePeriod is the inverse of SinglePeriodToEffective.
func EffectiveToSinglePeriod(effective, periodsPerYear float64) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, errs.Domain("EffectiveToSinglePeriod: periods per year must be positive, got %v", periodsPerYear)
	}
	if effective <= -1 {
		return 0, errs.Domain("EffectiveToSinglePeriod: effective rate %v must exceed -1", effective)
	}
	return math.Pow(1+effective, 1/periodsPerYear) - 1, nil
}

// MoneyMarketToEffective annualizes a money-market rate for a days-long instrument,
// rolling the holding-period return over base/days periods.
func MoneyMarketToEffective(rate, days, base float64, q MoneyMarketQuote) (float64, error) {
	periods, err := periodsFromDays("MoneyMarketToEffective", days, base)
	if err != nil {
		return 0, err
	}
	tau := days / base
	switch q {
	case AddOn:
		return math.Pow(1+rate*tau, periods) - 1, nil
	case Discount:
		if rate*tau >= 1 {
			return 0, errs.Domain("MoneyMarketToEffective: discount rate %v wipes out the payment over %v days", rate, days)
		}
		return math.Pow(1/(1-rate*tau), periods) - 1, nil
	}
	return 0, errs.UnknownYieldConvention(q.String())
}

// EffectiveToMoneyMarket is the inverse of MoneyMarketToEffective.
func EffectiveToMoneyMarket(effective, days, base float64, q MoneyMarketQuote) (float64, error) {
	if _, err := periodsFromDays("EffectiveToMoneyMarket", days, base); err != nil {
		return 0, err
	}
	if effective <= -1 {
		return 0, errs.Domain("EffectiveToMoneyMarket: effective rate %v must exceed -1", effective)
	}
	tau := days / base
	growth := math.Pow(1+effective, tau)
	switch q {
	case AddOn:
		return (growth - 1) / tau, nil
	case Discount:
		return (1 - 1/growth) / tau, nil
	}
	return 0, errs.UnknownYieldConvention(q.String())
}

func periodsFromDays(fn string, days, base float64) (float64, error) {
	if days <= 0 || base <= 0 {
		return 0, errs.Domain("%s: days and base must be positive, got %v and %v", fn, days, base)
	}
	return base / days, nil
}

package curve

import (
	"time"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/utils"
)

// Kind names a curve type in its serialized form.
type Kind string

const (
	KindFlat             Kind = "flat"
	KindZeroCoupon       Kind = "zero_coupon"
	KindZeroCouponByDate Kind = "zero_coupon_by_date"
	KindInterpolated     Kind = "interpolated"
	KindPar              Kind = "par"
	KindCombined         Kind = "combined"
)

// SpreadKind names a spread curve type in its serialized form.
type SpreadKind string

const (
	SpreadFlat   SpreadKind = "flat"
	SpreadLinear SpreadKind = "linear"
)

// Spec is the serialized form of a yield curve. Only the fields of its Kind are set. Bootstrapped
// curves carry both their solved pivots and their inputs; FromSpec uses the pivots when present.
type Spec struct {
	Kind       Kind             `json:"kind" yaml:"kind" validate:"required,oneof=flat zero_coupon zero_coupon_by_date interpolated par combined"`
	CurveDate  utils.Date       `json:"curve_date" yaml:"curve_date"`
	DayCount   string           `json:"day_count_convention,omitempty" yaml:"day_count_convention,omitempty"`
	Convention rates.Convention `json:"yield_calculation_convention,omitempty" yaml:"yield_calculation_convention,omitempty"`

	Rate            *float64           `json:"rate,omitempty" yaml:"rate,omitempty"`
	ZeroRates       []Pivot            `json:"zero_rates,omitempty" yaml:"zero_rates,omitempty"`
	ZeroRatesByDate map[string]float64 `json:"zero_rates_by_date,omitempty" yaml:"zero_rates_by_date,omitempty"`
	ParQuotes       []ParQuote         `json:"par_quotes,omitempty" yaml:"par_quotes,omitempty" validate:"dive"`
	Bonds           []bond.Spec        `json:"bonds,omitempty" yaml:"bonds,omitempty" validate:"dive"`

	Benchmark *Spec       `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
	Spread    *SpreadSpec `json:"spread,omitempty" yaml:"spread,omitempty"`
}

// SpreadSpec is the serialized form of a spread curve.
type SpreadSpec struct {
	Kind       SpreadKind       `json:"kind" yaml:"kind" validate:"required,oneof=flat linear"`
	CurveDate  utils.Date       `json:"curve_date" yaml:"curve_date"`
	DayCount   string           `json:"day_count_convention,omitempty" yaml:"day_count_convention,omitempty"`
	Convention rates.Convention `json:"yield_calculation_convention,omitempty" yaml:"yield_calculation_convention,omitempty"`
	Spread     *float64         `json:"spread,omitempty" yaml:"spread,omitempty"`
	Spreads    []Pivot          `json:"spreads,omitempty" yaml:"spreads,omitempty"`
	Bonds      []bond.Spec      `json:"bonds,omitempty" yaml:"bonds,omitempty" validate:"dive"`
}

var specValidator = config.NewValidator()

// specOptions turns the spec's day count and convention into options applied after opts.
func specOptions(dayCount string, conv rates.Convention, opts []Option) []Option {
	out := append([]Option(nil), opts...)
	if dayCount != "" {
		out = append(out, WithDayCount(dayCount))
	}
	if conv != "" {
		out = append(out, WithConvention(conv))
	}
	return out
}

// FromSpec rebuilds the curve described by spec. opts are applied first, so the spec's own day
// count and convention win; use them for the logger.
func FromSpec(spec Spec, opts ...Option) (YieldCurve, error) {
	const fn = "FromSpec"
	if err := specValidator.Struct(spec); err != nil {
		return nil, errs.Domain("%s: %v", fn, err)
	}
	date := spec.CurveDate.Time
	all := specOptions(spec.DayCount, spec.Convention, opts)

	switch spec.Kind {
	case KindFlat:
		if spec.Rate == nil {
			return nil, errs.Consistency("%s: flat curve needs a rate", fn)
		}
		if spec.Convention == "" {
			return nil, errs.Consistency("%s: flat curve needs a yield calculation convention", fn)
		}
		return NewFlatCurve(*spec.Rate, date, spec.Convention, all...)

	case KindZeroCoupon:
		if len(spec.ZeroRates) > 0 {
			c, err := newZeroCurve(fn, date, spec.ZeroRates, buildOptions(daycount.Actual365, rates.Annual, all))
			if err != nil {
				return nil, err
			}
			c.bonds = cloneSpecs(spec.Bonds)
			return c, nil
		}
		bonds, err := buildBonds(fn, spec.Bonds)
		if err != nil {
			return nil, err
		}
		return NewSpotCurve(date, bonds, all...)

	case KindZeroCouponByDate:
		byDate := make(map[time.Time]float64, len(spec.ZeroRatesByDate))
		for k, v := range spec.ZeroRatesByDate {
			d, err := utils.ParseDate(k)
			if err != nil {
				return nil, errs.Domain("%s: pivot date %q: %v", fn, k, err)
			}
			byDate[d] = v
		}
		return NewZeroCouponCurveByDate(date, byDate, all...)

	case KindInterpolated:
		if len(spec.ZeroRates) > 0 {
			c, err := newInterpolatedCurve(fn, date, spec.ZeroRates, buildOptions(daycount.Actual365, rates.Annual, all))
			if err != nil {
				return nil, err
			}
			c.bonds = cloneSpecs(spec.Bonds)
			return c, nil
		}
		bonds, err := buildBonds(fn, spec.Bonds)
		if err != nil {
			return nil, err
		}
		return NewInterpolatedCurveFromBonds(date, bonds, all...)

	case KindPar:
		if len(spec.ParQuotes) == 0 {
			return nil, errs.Consistency("%s: par curve needs quotes", fn)
		}
		if len(spec.ZeroRates) == 0 {
			return NewParCurve(date, spec.ParQuotes, all...)
		}
		zc, err := newZeroCurve(fn, date, spec.ZeroRates, buildOptions(daycount.Actual365, rates.Annual, all))
		if err != nil {
			return nil, err
		}
		return &ParCurve{ZeroCouponCurve: zc, quotes: append([]ParQuote(nil), spec.ParQuotes...)}, nil

	case KindCombined:
		if spec.Benchmark == nil || spec.Spread == nil {
			return nil, errs.Consistency("%s: combined curve needs a benchmark and a spread", fn)
		}
		benchmark, err := FromSpec(*spec.Benchmark, opts...)
		if err != nil {
			return nil, err
		}
		spread, err := FromSpreadSpec(*spec.Spread, opts...)
		if err != nil {
			return nil, err
		}
		return NewCombinedCurve(benchmark, spread, all...)
	}
	return nil, errs.Domain("%s: unknown curve kind %q", fn, spec.Kind)
}

// FromSpreadSpec rebuilds the spread curve described by spec.
func FromSpreadSpec(spec SpreadSpec, opts ...Option) (SpreadCurve, error) {
	const fn = "FromSpreadSpec"
	if err := specValidator.Struct(spec); err != nil {
		return nil, errs.Domain("%s: %v", fn, err)
	}
	date := spec.CurveDate.Time
	switch spec.Kind {
	case SpreadFlat:
		if spec.Spread == nil {
			return nil, errs.Consistency("%s: flat spread curve needs a spread", fn)
		}
		return NewFlatCreditSpreadCurve(*spec.Spread, date, spec.Convention)
	case SpreadLinear:
		c, err := newCreditSpreadCurve(fn, date, spec.Spreads,
			buildOptions(daycount.Actual365, rates.Annual, specOptions(spec.DayCount, spec.Convention, opts)))
		if err != nil {
			return nil, err
		}
		c.bonds = cloneSpecs(spec.Bonds)
		return c, nil
	}
	return nil, errs.Domain("%s: unknown spread kind %q", fn, spec.Kind)
}

func buildBonds(fn string, specs []bond.Spec) ([]*bond.FixedRateBullet, error) {
	if len(specs) == 0 {
		return nil, errs.Consistency("%s: curve needs zero rates or bonds", fn)
	}
	out := make([]*bond.FixedRateBullet, len(specs))
	for i, s := range specs {
		b, err := bond.New(s)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// cloneSpecs deep-copies bond specs so a curve never shares price or yield pointers with callers.
func cloneSpecs(specs []bond.Spec) []bond.Spec {
	if specs == nil {
		return nil
	}
	out := make([]bond.Spec, len(specs))
	for i, s := range specs {
		out[i] = s.Clone()
	}
	return out
}

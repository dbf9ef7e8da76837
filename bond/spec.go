package bond

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/utils"
)

// Spec holds every constructor parameter of a fixed-rate bullet bond. It is the serialized form
// used by curve specs and the CLIs; start from DefaultSpec so omitted fields keep their defaults.
type Spec struct {
	IssueDate utils.Date `json:"issue_date" yaml:"issue_date"`
	Maturity  utils.Date `json:"maturity" yaml:"maturity"`
	// Coupon is the annual coupon rate in percent.
	Coupon    float64 `json:"cpn" yaml:"cpn" validate:"gte=0"`
	Frequency int     `json:"cpn_freq" yaml:"cpn_freq" validate:"gte=0,lte=12"`
	Notional  float64 `json:"notional" yaml:"notional" validate:"gte=0"`

	SettlementTPlus int `json:"settlement_t_plus" yaml:"settlement_t_plus" validate:"gte=0"`
	RecordTMinus    int `json:"record_date_t_minus" yaml:"record_date_t_minus" validate:"gte=0"`

	DayCount          string              `json:"day_count_convention" yaml:"day_count_convention"`
	FollowingDayCount string              `json:"following_coupons_day_count" yaml:"following_coupons_day_count"`
	Convention        rates.Convention    `json:"yield_calculation_convention" yaml:"yield_calculation_convention"`
	Calendar          calendar.CalendarID `json:"calendar,omitempty" yaml:"calendar,omitempty"`
	AdjustToBusiness  bool                `json:"adjust_to_business_days" yaml:"adjust_to_business_days"`

	Settlement utils.Date `json:"settlement_date,omitempty" yaml:"settlement_date,omitempty"`
	Price      *float64   `json:"price,omitempty" yaml:"price,omitempty" validate:"omitempty,gte=0"`
	Yield      *float64   `json:"yield_to_maturity,omitempty" yaml:"yield_to_maturity,omitempty"`
}

// DefaultSpec returns a spec with the library defaults: notional 100, T+1 settlement, T-1 record
// date, actual/actual-bond accrual, 30/360 following coupons and BEY yields.
func DefaultSpec() Spec {
	return Spec{
		Notional:          100,
		SettlementTPlus:   1,
		RecordTMinus:      1,
		DayCount:          daycount.ActualActualBond,
		FollowingDayCount: daycount.Thirty360,
		Convention:        rates.BEY,
		Calendar:          calendar.Default,
	}
}

// Clone returns a copy of s that shares no pointers with it.
func (s Spec) Clone() Spec {
	if s.Price != nil {
		p := *s.Price
		s.Price = &p
	}
	if s.Yield != nil {
		y := *s.Yield
		s.Yield = &y
	}
	return s
}

// Option adjusts a Spec before construction.
type Option func(*Spec)

func WithNotional(n float64) Option { return func(s *Spec) { s.Notional = n } }

func WithSettlementTPlus(n int) Option { return func(s *Spec) { s.SettlementTPlus = n } }

func WithRecordDateTMinus(n int) Option { return func(s *Spec) { s.RecordTMinus = n } }

func WithDayCount(name string) Option { return func(s *Spec) { s.DayCount = name } }

func WithFollowingDayCount(name string) Option { return func(s *Spec) { s.FollowingDayCount = name } }

func WithConvention(c rates.Convention) Option { return func(s *Spec) { s.Convention = c } }

func WithCalendar(cal calendar.CalendarID) Option { return func(s *Spec) { s.Calendar = cal } }

// WithBusinessDayAdjustment rolls payment dates to the following business day when filtering flows.
func WithBusinessDayAdjustment() Option { return func(s *Spec) { s.AdjustToBusiness = true } }

// WithSettlement pins the valuation date.
func WithSettlement(d time.Time) Option { return func(s *Spec) { s.Settlement = utils.NewDate(d) } }

// WithPrice pins the dirty price; a settlement date is required.
func WithPrice(p float64) Option { return func(s *Spec) { s.Price = &p } }

// WithYield pins the yield to maturity (decimal).
func WithYield(y float64) Option { return func(s *Spec) { s.Yield = &y } }

var specValidator = validator.New()

// validate checks field constraints and cross-field rules shared by every bond kind.
func (s Spec) validate(fn string) error {
	if s.IssueDate.IsZero() || s.Maturity.IsZero() {
		return errs.Consistency("%s: issue date and maturity are required", fn)
	}
	if err := specValidator.Struct(s); err != nil {
		return errs.Domain("%s: %v", fn, err)
	}
	if s.Coupon > 0 && s.Frequency == 0 {
		return errs.Consistency("%s: coupon %v requires a positive coupon frequency", fn, s.Coupon)
	}
	if s.Maturity.Before(s.IssueDate.Time) {
		return errs.Consistency("%s: maturity %s is before issue date %s", fn, s.Maturity, s.IssueDate)
	}
	if !s.Settlement.IsZero() && s.Settlement.Before(s.IssueDate.Time) {
		return errs.Consistency("%s: settlement date %s is before issue date %s", fn, s.Settlement, s.IssueDate)
	}
	if s.Price != nil && s.Settlement.IsZero() {
		return errs.Consistency("%s: a settlement date is required when a price is given", fn)
	}
	if s.Yield != nil && s.Settlement.IsZero() {
		return errs.Consistency("%s: a settlement date is required when a yield is given", fn)
	}
	return nil
}

// conventions resolves the named day counts and yield convention.
func (s Spec) conventions() (accrual, following daycount.Convention, conv rates.Convention, err error) {
	conv, err = rates.Parse(string(s.Convention.Or(rates.BEY)))
	if err != nil {
		return nil, nil, "", err
	}
	accrual, err = daycount.Get(orDefault(s.DayCount, daycount.ActualActualBond))
	if err != nil {
		return nil, nil, "", err
	}
	following, err = daycount.Get(orDefault(s.FollowingDayCount, daycount.Thirty360))
	if err != nil {
		return nil, nil, "", err
	}
	return accrual, following, conv, nil
}

func orDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func (s Spec) String() string {
	return fmt.Sprintf("%.4g%% %s-%s freq=%d notional=%g", s.Coupon, s.IssueDate, s.Maturity, s.Frequency, s.Notional)
}

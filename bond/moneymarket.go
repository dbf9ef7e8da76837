package bond

import (
	"math"
	"strings"
	"time"

	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/utils"
)

// MoneyMarketBasis is the quoting basis of a money-market yield.
type MoneyMarketBasis string

const (
	// MoneyMarketDiscount quotes P = CF * (1 - y*days/base).
	MoneyMarketDiscount MoneyMarketBasis = "Discount"
	// MoneyMarketAddOn quotes P = CF / (1 + y*days/base).
	MoneyMarketAddOn MoneyMarketBasis = "Add-On"
	// The compounding bases measure time as actual days over 365, whatever the day count.
	MoneyMarketAnnual     = MoneyMarketBasis(rates.Annual)
	MoneyMarketBEY        = MoneyMarketBasis(rates.BEY)
	MoneyMarketContinuous = MoneyMarketBasis(rates.Continuous)
)

// ParseMoneyMarketBasis validates a basis name, ignoring case.
func ParseMoneyMarketBasis(name string) (MoneyMarketBasis, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "discount":
		return MoneyMarketDiscount, nil
	case "add-on", "addon":
		return MoneyMarketAddOn, nil
	}
	conv, err := rates.Parse(name)
	if err != nil {
		return "", err
	}
	return MoneyMarketBasis(conv), nil
}

// Money-market instrument kinds.
const (
	KindTreasuryBill         = "TreasuryBill"
	KindCertificateOfDeposit = "CertificateOfDeposit"
	KindCommercialPaper      = "CommercialPaper"
	KindBankersAcceptance    = "BankersAcceptance"
)

// MoneyMarketSpec holds the constructor parameters of a single-payment money-market instrument.
type MoneyMarketSpec struct {
	Kind      string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	IssueDate utils.Date `json:"issue_date" yaml:"issue_date"`
	Maturity  utils.Date `json:"maturity" yaml:"maturity"`
	// Coupon is the annual interest rate in percent, paid with principal at maturity.
	Coupon   float64             `json:"cpn" yaml:"cpn" validate:"gte=0"`
	Notional float64             `json:"notional" yaml:"notional" validate:"gt=0"`
	DayCount string              `json:"day_count_convention" yaml:"day_count_convention"`
	Basis    MoneyMarketBasis    `json:"yield_calculation_convention" yaml:"yield_calculation_convention"`
	Calendar calendar.CalendarID `json:"calendar,omitempty" yaml:"calendar,omitempty"`

	Settlement utils.Date `json:"settlement_date,omitempty" yaml:"settlement_date,omitempty"`
	Price      *float64   `json:"price,omitempty" yaml:"price,omitempty" validate:"omitempty,gt=0"`
	Yield      *float64   `json:"yield_to_maturity,omitempty" yaml:"yield_to_maturity,omitempty"`
}

// DefaultMoneyMarketSpec returns notional 100 on actual/360 quoted on a discount basis.
func DefaultMoneyMarketSpec() MoneyMarketSpec {
	return MoneyMarketSpec{
		Notional: 100,
		DayCount: daycount.Actual360,
		Basis:    MoneyMarketDiscount,
		Calendar: calendar.Default,
	}
}

func moneyMarketPreset(kind string, issue, maturity time.Time, cpn float64, basis MoneyMarketBasis) MoneyMarketSpec {
	s := DefaultMoneyMarketSpec()
	s.Kind = kind
	s.IssueDate = utils.NewDate(issue)
	s.Maturity = utils.NewDate(maturity)
	s.Coupon = cpn
	s.Basis = basis
	return s
}

// TreasuryBill is a zero-coupon bill quoted on a discount basis.
func TreasuryBill(issue, maturity time.Time) MoneyMarketSpec {
	return moneyMarketPreset(KindTreasuryBill, issue, maturity, 0, MoneyMarketDiscount)
}

// CertificateOfDeposit pays cpn percent simple interest at maturity and is quoted add-on.
func CertificateOfDeposit(issue, maturity time.Time, cpn float64) MoneyMarketSpec {
	return moneyMarketPreset(KindCertificateOfDeposit, issue, maturity, cpn, MoneyMarketAddOn)
}

func CommercialPaper(issue, maturity time.Time) MoneyMarketSpec {
	return moneyMarketPreset(KindCommercialPaper, issue, maturity, 0, MoneyMarketDiscount)
}

func BankersAcceptance(issue, maturity time.Time) MoneyMarketSpec {
	return moneyMarketPreset(KindBankersAcceptance, issue, maturity, 0, MoneyMarketDiscount)
}

// MoneyMarketInstrument pays notional plus simple interest once, at maturity.
type MoneyMarketInstrument struct {
	spec  MoneyMarketSpec
	dc    daycount.Convention
	basis MoneyMarketBasis

	payment float64

	settlement time.Time
	price      float64
	yield      float64
	priced     bool
}

// NewMoneyMarketFromDays sets the maturity days after issue, rolled Modified Following on the
// spec's calendar, and builds the instrument.
func NewMoneyMarketFromDays(spec MoneyMarketSpec, days int) (*MoneyMarketInstrument, error) {
	if days <= 0 {
		return nil, errs.Domain("NewMoneyMarketFromDays: days must be positive, got %d", days)
	}
	if spec.IssueDate.IsZero() {
		return nil, errs.Consistency("NewMoneyMarketFromDays: issue date is required")
	}
	end := spec.IssueDate.AddDate(0, 0, days)
	spec.Maturity = utils.NewDate(calendar.Adjust(spec.Calendar, end))
	return NewMoneyMarket(spec)
}

// NewMoneyMarket builds a money-market instrument from its spec.
func NewMoneyMarket(spec MoneyMarketSpec) (*MoneyMarketInstrument, error) {
	const fn = "NewMoneyMarket"
	if spec.IssueDate.IsZero() || spec.Maturity.IsZero() {
		return nil, errs.Consistency("%s: issue date and maturity are required", fn)
	}
	if err := specValidator.Struct(spec); err != nil {
		return nil, errs.Domain("%s: %v", fn, err)
	}
	if !spec.Maturity.After(spec.IssueDate.Time) {
		return nil, errs.Consistency("%s: maturity %s must be after issue date %s", fn, spec.Maturity, spec.IssueDate)
	}
	if (spec.Price != nil || spec.Yield != nil) && spec.Settlement.IsZero() {
		return nil, errs.Consistency("%s: a settlement date is required when a price or yield is given", fn)
	}
	dc, err := daycount.Get(orDefault(spec.DayCount, daycount.Actual360))
	if err != nil {
		return nil, err
	}
	basis := MoneyMarketDiscount
	if spec.Basis != "" {
		if basis, err = ParseMoneyMarketBasis(string(spec.Basis)); err != nil {
			return nil, err
		}
	}
	spec.Basis = basis
	if spec.Calendar == "" {
		spec.Calendar = calendar.Default
	}
	term, err := dc.Fraction(spec.IssueDate.Time, spec.Maturity.Time, spec.Maturity.Time)
	if err != nil {
		return nil, err
	}
	m := &MoneyMarketInstrument{
		spec:    spec,
		dc:      dc,
		basis:   basis,
		payment: spec.Notional * (1 + spec.Coupon/100*term),
	}
	if err := m.pin(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MoneyMarketInstrument) pin() error {
	s := m.spec
	if s.Settlement.IsZero() {
		return nil
	}
	switch {
	case s.Price != nil && s.Yield != nil:
		implied, err := m.PriceFromYield(*s.Yield, s.Settlement.Time)
		if err != nil {
			return err
		}
		if err := checkConsistent("NewMoneyMarket", *s.Price, implied); err != nil {
			return err
		}
		m.settlement, m.price, m.yield, m.priced = s.Settlement.Time, *s.Price, *s.Yield, true
		return nil
	case s.Price != nil:
		return m.SetBondPrice(*s.Price, s.Settlement.Time)
	case s.Yield != nil:
		return m.SetYieldToMaturity(*s.Yield, s.Settlement.Time)
	}
	m.settlement = s.Settlement.Time
	return nil
}

// Spec returns the constructor parameters, including the currently pinned valuation.
func (m *MoneyMarketInstrument) Spec() MoneyMarketSpec {
	s := m.spec
	s.Price, s.Yield = nil, nil
	s.Settlement = utils.NewDate(m.settlement)
	if m.priced {
		p, y := m.price, m.yield
		s.Price, s.Yield = &p, &y
	}
	return s
}

func (m *MoneyMarketInstrument) Kind() string { return m.spec.Kind }
func (m *MoneyMarketInstrument) IssueDate() time.Time { return m.spec.IssueDate.Time }
func (m *MoneyMarketInstrument) Maturity() time.Time { return m.spec.Maturity.Time }
func (m *MoneyMarketInstrument) Basis() MoneyMarketBasis { return m.basis }
func (m *MoneyMarketInstrument) DayCount() daycount.Convention { return m.dc }

// Payment is the single cash flow at maturity.
func (m *MoneyMarketInstrument) Payment() Flow {
	return Flow{Date: m.Maturity(), Amount: m.payment}
}

func (m *MoneyMarketInstrument) SettlementDate() (time.Time, bool) {
	return m.settlement, !m.settlement.IsZero()
}

func (m *MoneyMarketInstrument) BondPrice() (float64, bool) { return m.price, m.priced }

func (m *MoneyMarketInstrument) YieldToMaturity() (float64, bool) { return m.yield, m.priced }

// SetBondPrice pins a dirty price at settlement and derives its yield. Nothing changes on failure.
func (m *MoneyMarketInstrument) SetBondPrice(price float64, settlement time.Time) error {
	y, err := m.YieldFromPrice(price, settlement)
	if err != nil {
		return err
	}
	m.settlement, m.price, m.yield, m.priced = settlement, price, y, true
	return nil
}

// SetYieldToMaturity pins a yield at settlement and derives its dirty price. Nothing changes on
// failure.
func (m *MoneyMarketInstrument) SetYieldToMaturity(y float64, settlement time.Time) error {
	p, err := m.PriceFromYield(y, settlement)
	if err != nil {
		return err
	}
	m.settlement, m.price, m.yield, m.priced = settlement, p, y, true
	return nil
}

// term is the remaining time on the quoting basis: days/base from the day count for the simple
// bases, actual days over 365 for the compounding ones.
func (m *MoneyMarketInstrument) term(fn string, settlement time.Time) (float64, error) {
	if settlement.IsZero() {
		settlement = m.settlement
	}
	if settlement.IsZero() {
		return 0, errs.Consistency("%s: settlement date is required", fn)
	}
	if settlement.Before(m.IssueDate()) {
		return 0, errs.Consistency("%s: settlement date %s is before issue date %s", fn,
			settlement.Format(utils.DateLayout), m.spec.IssueDate)
	}
	if !settlement.Before(m.Maturity()) {
		return 0, errs.Consistency("%s: settlement date %s is not before maturity %s", fn,
			settlement.Format(utils.DateLayout), m.spec.Maturity)
	}
	switch m.basis {
	case MoneyMarketDiscount, MoneyMarketAddOn:
		return m.dc.Fraction(settlement, m.Maturity(), m.Maturity())
	}
	return utils.Days(settlement, m.Maturity()) / 365, nil
}

// PriceFromYield returns the dirty price at yield y on the instrument's basis.
func (m *MoneyMarketInstrument) PriceFromYield(y float64, settlement time.Time) (float64, error) {
	const fn = "PriceFromYield"
	t, err := m.term(fn, settlement)
	if err != nil {
		return 0, err
	}
	var p float64
	switch m.basis {
	case MoneyMarketDiscount:
		p = m.payment * (1 - y*t)
	case MoneyMarketAddOn, MoneyMarketBEY:
		if 1+y*t <= 0 {
			return 0, errs.Domain("%s: yield %v is below -1/t", fn, y)
		}
		p = m.payment / (1 + y*t)
	case MoneyMarketAnnual:
		if y <= -1 {
			return 0, errs.Domain("%s: yield %v must exceed -1", fn, y)
		}
		p = m.payment / math.Pow(1+y, t)
	case MoneyMarketContinuous:
		p = m.payment * math.Exp(-y*t)
	}
	if p <= 0 {
		return 0, errs.Domain("%s: price at yield %v is not positive (%v)", fn, y, p)
	}
	return p, nil
}

// YieldFromPrice inverts PriceFromYield in closed form.
func (m *MoneyMarketInstrument) YieldFromPrice(price float64, settlement time.Time) (float64, error) {
	const fn = "YieldFromPrice"
	if price <= 0 || math.IsNaN(price) {
		return 0, errs.Domain("%s: price must be positive, got %v", fn, price)
	}
	t, err := m.term(fn, settlement)
	if err != nil {
		return 0, err
	}
	ratio := m.payment / price
	switch m.basis {
	case MoneyMarketDiscount:
		return (1 - price/m.payment) / t, nil
	case MoneyMarketAddOn, MoneyMarketBEY:
		return (ratio - 1) / t, nil
	case MoneyMarketAnnual:
		return math.Pow(ratio, 1/t) - 1, nil
	}
	return math.Log(ratio) / t, nil
}

// EffectiveYield annualizes y with compounding, so instruments quoted on different bases compare.
func (m *MoneyMarketInstrument) EffectiveYield(y float64, settlement time.Time) (float64, error) {
	switch m.basis {
	case MoneyMarketDiscount, MoneyMarketAddOn:
		if settlement.IsZero() {
			settlement = m.settlement
		}
		if _, err := m.term("EffectiveYield", settlement); err != nil {
			return 0, err
		}
		days, err := m.dc.Numerator(settlement, m.Maturity(), m.Maturity())
		if err != nil {
			return 0, err
		}
		base, err := m.dc.Denominator(settlement, m.Maturity(), m.Maturity())
		if err != nil {
			return 0, err
		}
		q := rates.AddOn
		if m.basis == MoneyMarketDiscount {
			q = rates.Discount
		}
		return rates.MoneyMarketToEffective(y, days, base, q)
	}
	return rates.ToEffective(y, rates.Convention(m.basis))
}

// AccruedInterest is the simple interest earned from issue to settlement.
func (m *MoneyMarketInstrument) AccruedInterest(settlement time.Time) (float64, error) {
	if m.spec.Coupon == 0 {
		return 0, nil
	}
	if settlement.IsZero() {
		settlement = m.settlement
	}
	if settlement.IsZero() || settlement.Before(m.IssueDate()) {
		return 0, errs.Consistency("AccruedInterest: settlement date must be on or after issue date %s", m.spec.IssueDate)
	}
	if settlement.After(m.Maturity()) {
		settlement = m.Maturity()
	}
	f, err := m.dc.Fraction(m.IssueDate(), settlement, m.Maturity())
	if err != nil {
		return 0, err
	}
	return m.spec.Notional * m.spec.Coupon / 100 * f, nil
}

// Measures computes the yield analytics at y. Durations and convexity are the analytic
// derivatives of the basis' price formula; the discount basis is linear in y, so its convexity is 0.
func (m *MoneyMarketInstrument) Measures(y float64, settlement time.Time) (Measures, error) {
	if settlement.IsZero() {
		settlement = m.settlement
	}
	price, err := m.PriceFromYield(y, settlement)
	if err != nil {
		return Measures{}, err
	}
	t, err := m.term("Measures", settlement)
	if err != nil {
		return Measures{}, err
	}
	var mod, convexity float64
	switch m.basis {
	case MoneyMarketDiscount:
		mod = m.payment * t / price
	case MoneyMarketAddOn, MoneyMarketBEY:
		mod = t / (1 + y*t)
		convexity = 2 * mod * mod
	case MoneyMarketAnnual:
		mod = t / (1 + y)
		convexity = t * (t + 1) / ((1 + y) * (1 + y))
	case MoneyMarketContinuous:
		mod = t
		convexity = t * t
	}

	bump := config.GetSolver().Bump
	up, errUp := m.PriceFromYield(y+bump, settlement)
	down, errDown := m.PriceFromYield(y-bump, settlement)
	if errUp != nil || errDown != nil {
		return Measures{}, errs.Domain("Measures: yield %v is too close to the edge of the basis' domain", y)
	}
	ai, err := m.AccruedInterest(settlement)
	if err != nil {
		return Measures{}, err
	}
	return Measures{
		Settlement:         settlement,
		Yield:              y,
		DirtyPrice:         price,
		CleanPrice:         price - ai,
		AccruedInterest:    ai,
		MacaulayDuration:   t,
		ModifiedDuration:   mod,
		Convexity:          convexity,
		EffectiveDuration:  -(up - down) / (2 * bump * price),
		EffectiveConvexity: (up + down - 2*price) / (bump * bump * price),
		DV01:               mod * price * 1e-4,
	}, nil
}

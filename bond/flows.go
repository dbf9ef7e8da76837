package bond

import (
	"math"
	"sort"
	"time"

	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/rates"
	"github.com/meenmo/bondlib/utils"
)

// bulletSchedule rolls coupon dates back from maturity every 12/freq months while they stay at
// least floor(365*0.99/freq) days after issue. The final flow carries the notional.
func bulletSchedule(spec Spec) []Cashflow {
	maturity := spec.Maturity.Time
	if spec.Coupon <= 0 {
		return []Cashflow{{Date: maturity, Principal: spec.Notional}}
	}
	coupon := spec.Coupon / float64(spec.Frequency) * spec.Notional / 100
	return periodicSchedule(spec.IssueDate.Time, maturity, spec.Frequency, coupon, spec.Notional)
}

// periodicSchedule pays coupon on every rolled-back date and coupon plus notional at maturity.
func periodicSchedule(issue, maturity time.Time, freq int, coupon, notional float64) []Cashflow {
	schedule := []Cashflow{{Date: maturity, Coupon: coupon, Principal: notional}}
	months := 12 / freq
	minDays := math.Floor(365 * 0.99 / float64(freq))
	for i := 1; ; i++ {
		d := utils.AddMonth(maturity, -months*i)
		if utils.Days(issue, d) < minDays {
			break
		}
		schedule = append(schedule, Cashflow{Date: d, Coupon: coupon})
	}
	sort.Slice(schedule, func(i, j int) bool { return schedule[i].Date.Before(schedule[j].Date) })
	return schedule
}

func couponDates(schedule []Cashflow, hasCoupons bool) []time.Time {
	if !hasCoupons {
		return nil
	}
	out := make([]time.Time, len(schedule))
	for i, cf := range schedule {
		out[i] = cf.Date
	}
	return out
}

func (b *FixedRateBullet) isCouponDate(d time.Time) bool {
	i := sort.Search(len(b.couponDates), func(i int) bool { return !b.couponDates[i].Before(d) })
	return i < len(b.couponDates) && b.couponDates[i].Equal(d)
}

func (b *FixedRateBullet) couponOn(d time.Time) float64 {
	for _, cf := range b.schedule {
		if cf.Date.Equal(d) {
			return cf.Coupon
		}
	}
	return 0
}

// recordThreshold is the first payment date a buyer settling on settlement still receives.
func (b *FixedRateBullet) recordThreshold(settlement time.Time) time.Time {
	if b.spec.RecordTMinus == 0 {
		return calendar.AdjustFollowing(b.spec.Calendar, settlement)
	}
	return calendar.AddBusinessDays(b.spec.Calendar, settlement, b.spec.RecordTMinus)
}

func (b *FixedRateBullet) adjust(d time.Time) time.Time {
	if !b.spec.AdjustToBusiness {
		return d
	}
	return calendar.AdjustFollowing(b.spec.Calendar, d)
}

// NextCouponDate returns the earliest coupon date a buyer settling on settlement receives.
func (b *FixedRateBullet) NextCouponDate(settlement time.Time) (time.Time, bool) {
	threshold := b.recordThreshold(settlement)
	i := sort.Search(len(b.couponDates), func(i int) bool { return !b.couponDates[i].Before(threshold) })
	if i == len(b.couponDates) {
		return time.Time{}, false
	}
	return b.couponDates[i], true
}

// PreviousCouponDate returns the latest coupon date before the record threshold of settlement.
func (b *FixedRateBullet) PreviousCouponDate(settlement time.Time) (time.Time, bool) {
	threshold := b.recordThreshold(settlement)
	i := sort.Search(len(b.couponDates), func(i int) bool { return !b.couponDates[i].Before(threshold) })
	if i == 0 {
		return time.Time{}, false
	}
	return b.couponDates[i-1], true
}

// FilterPaymentFlow returns the flows a buyer settling on settlement receives, preceded by
// -price on the settlement date when price is non-nil. Nothing is returned after maturity.
func (b *FixedRateBullet) FilterPaymentFlow(settlement time.Time, price *float64) []Flow {
	return b.filter(b.schedule, settlement, price)
}

func (b *FixedRateBullet) filter(schedule []Cashflow, settlement time.Time, price *float64) []Flow {
	maturity := b.Maturity()
	if settlement.After(b.adjust(maturity)) {
		return nil
	}
	threshold := b.recordThreshold(settlement)

	out := make([]Flow, 0, len(schedule)+1)
	if price != nil {
		out = append(out, Flow{Date: settlement, Amount: -*price})
	}
	for _, cf := range schedule {
		d := b.adjust(cf.Date)
		if !threshold.After(d) || (cf.Date.Equal(maturity) && !settlement.After(cf.Date)) {
			if len(out) > 0 && out[len(out)-1].Date.Equal(d) {
				out[len(out)-1].Amount += cf.Amount()
				continue
			}
			out = append(out, Flow{Date: d, Amount: cf.Amount()})
		}
	}
	return out
}

// CashFlows returns the remaining payments for a buyer settling on settlement (the pinned date,
// or the issue date, when zero).
func (b *FixedRateBullet) CashFlows(settlement time.Time) ([]Flow, error) {
	settlement, err := b.resolveSettlement(settlement)
	if err != nil {
		return nil, err
	}
	return b.FilterPaymentFlow(settlement, nil), nil
}

// valuationDayCounts returns the accrual and following-coupon day counts for yield math. Annual
// and continuous yields always run on actual/365.
func (b *FixedRateBullet) valuationDayCounts() (daycount.Convention, daycount.Convention) {
	if b.convention != rates.BEY {
		a := daycount.MustGet(daycount.Actual365)
		return a, a
	}
	return b.accrual, b.following
}

// TimeToPayments positions the filtered flows (with -price when given) in years from settlement.
//
// Times run on the following-coupon day count from the previous coupon date (or issue), shifted
// back by the elapsed fraction of the current period; flows on or before settlement sit at t=0.
func (b *FixedRateBullet) TimeToPayments(settlement time.Time, price *float64) ([]TimedFlow, error) {
	settlement, err := b.resolveSettlement(settlement)
	if err != nil {
		return nil, err
	}
	return b.timeFlows(b.FilterPaymentFlow(settlement, price), settlement)
}

func (b *FixedRateBullet) timeFlows(flows []Flow, settlement time.Time) ([]TimedFlow, error) {
	if len(flows) == 0 {
		return nil, nil
	}
	accrual, following := b.valuationDayCounts()

	start, ok := b.PreviousCouponDate(settlement)
	if !ok {
		start = b.IssueDate()
	}
	firstPayment := b.Maturity()
	for _, f := range flows {
		if f.Amount > 0 && f.Date.After(settlement) {
			firstPayment = f.Date
			break
		}
	}

	var (
		shift float64
		err   error
	)
	if len(b.couponDates) == 0 || b.spec.Frequency == 0 {
		// No regular coupon period to measure against.
		shift, err = following.Fraction(start, settlement, firstPayment)
	} else {
		periods := max(1, b.spec.Frequency)
		var elapsed float64
		elapsed, err = accrual.FractionPeriodAdjusted(start, settlement, firstPayment, periods)
		shift = elapsed / float64(periods)
	}
	if err != nil {
		return nil, err
	}

	out := make([]TimedFlow, len(flows))
	for i, f := range flows {
		if !f.Date.After(settlement) {
			out[i] = TimedFlow{T: 0, Amount: f.Amount}
			continue
		}
		t, err := following.Fraction(start, f.Date, f.Date)
		if err != nil {
			return nil, err
		}
		out[i] = TimedFlow{T: t - shift, Amount: f.Amount}
	}
	return out, nil
}

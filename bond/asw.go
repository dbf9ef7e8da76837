package bond

import (
	"time"

	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/utils"
)

// ASWResult is a par asset swap spread and its two legs.
type ASWResult struct {
	// Spread is decimal: 0.0012 is 12bp.
	Spread     float64 `json:"spread"`
	PVRiskFree float64 `json:"pv_risk_free"`
	PV01       float64 `json:"pv01"`
}

// AssetSwapSpread approximates the par asset swap spread over c:
//
//	ASW = (PV_bond(c) - P_dirty) / PV01
//
// where PV01 is the value of receiving 1bp on an actual/360 floating leg paying floatFreq times a
// year until maturity.
func (b *FixedRateBullet) AssetSwapSpread(c Curve, price float64, settlement time.Time, floatFreq int) (ASWResult, error) {
	const fn = "AssetSwapSpread"
	if c == nil {
		return ASWResult{}, errs.Consistency("%s: curve is required", fn)
	}
	if floatFreq <= 0 || floatFreq > 12 {
		return ASWResult{}, errs.Domain("%s: floating frequency must be in [1, 12], got %d", fn, floatFreq)
	}
	settlement, err := b.resolveSettlement(settlement)
	if err != nil {
		return ASWResult{}, err
	}
	maturity := b.Maturity()
	if !maturity.After(settlement) {
		return ASWResult{}, errs.Consistency("%s: maturity %s must be after settlement %s", fn,
			maturity.Format(utils.DateLayout), settlement.Format(utils.DateLayout))
	}

	pvRF, _ := discountFlows(c, b.FilterPaymentFlow(settlement, nil), 0)

	act360 := daycount.MustGet(daycount.Actual360)
	var pv01 float64
	end := maturity
	for i := 1; end.After(settlement); i++ {
		start := utils.AddMonth(maturity, -12/floatFreq*i)
		if start.Before(settlement) {
			start = settlement
		}
		accrual, err := act360.Fraction(start, end, end)
		if err != nil {
			return ASWResult{}, err
		}
		pv01 += b.Notional() * accrual * 1e-4 * c.DiscountDate(end, 0)
		end = start
	}
	if pv01 == 0 {
		return ASWResult{}, errs.Consistency("%s: floating leg has no remaining periods", fn)
	}

	return ASWResult{
		Spread:     (pvRF - price) / pv01 * 1e-4,
		PVRiskFree: pvRF,
		PV01:       pv01,
	}, nil
}

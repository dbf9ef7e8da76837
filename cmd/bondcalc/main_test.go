package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/rates"
)

func TestParseInputsLayersDefaults(t *testing.T) {
	inputs, isArray, err := parseInputs([]byte(`{"task_id": "a", "issue_date": "2020-01-01", "maturity": "2030-01-01", "cpn": 4, "cpn_freq": 2}`))
	require.NoError(t, err)
	assert.False(t, isArray)
	require.Len(t, inputs, 1)
	assert.Equal(t, "a", inputs[0].TaskID)
	assert.Equal(t, 100.0, inputs[0].Notional)
	assert.Equal(t, daycount.ActualActualBond, inputs[0].DayCount)
	assert.Equal(t, rates.BEY, inputs[0].Convention)

	inputs, isArray, err = parseInputs([]byte(` [{"task_id": "a"}, {"task_id": "b", "notional": 1000}] `))
	require.NoError(t, err)
	assert.True(t, isArray)
	require.Len(t, inputs, 2)
	assert.Equal(t, 1000.0, inputs[1].Notional)

	_, _, err = parseInputs([]byte("  "))
	assert.Error(t, err)
	_, _, err = parseInputs([]byte("[]"))
	assert.Error(t, err)
}

func TestRunReportsPerTask(t *testing.T) {
	inputs, _, err := parseInputs([]byte(`[
		{"task_id": "par", "issue_date": "2020-01-01", "maturity": "2030-01-01", "cpn": 4, "cpn_freq": 2,
		 "settlement_date": "2024-01-01", "price": 100},
		{"task_id": "unpriced", "issue_date": "2020-01-01", "maturity": "2030-01-01", "cpn": 4, "cpn_freq": 2},
		{"task_id": "partial-forward", "issue_date": "2020-01-01", "maturity": "2030-01-01", "cpn": 4, "cpn_freq": 2,
		 "settlement_date": "2024-01-01", "price": 100, "futures_price": 98}
	]`))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outputs := run(context.Background(), logger, inputs, 6)
	require.Len(t, outputs, 3)

	par := outputs[0]
	assert.Empty(t, par.Error)
	assert.Equal(t, "par", par.TaskID)
	assert.Equal(t, "2024-01-01", par.SettlementDate)
	assert.InDelta(t, 0.04, par.YieldToMaturity, 1e-8)
	assert.InDelta(t, 100, par.DirtyPrice, 1e-6)
	assert.InDelta(t, 0, par.AccruedInterest, 1e-6)
	assert.Equal(t, "2024-07-01", par.NextCouponDate)
	assert.Greater(t, par.MacaulayDuration, par.ModifiedDuration)
	assert.Greater(t, par.DV01, 0.0)
	assert.Nil(t, par.ForwardYield)

	assert.Equal(t, "unpriced", outputs[1].TaskID)
	assert.Contains(t, outputs[1].Error, "settlement_date")
	assert.Contains(t, outputs[2].Error, "conversion_factor")
}

func TestRunPricesMoneyMarketKinds(t *testing.T) {
	inputs, _, err := parseInputs([]byte(`[
		{"task_id": "bill", "kind": "TreasuryBill", "issue_date": "2024-01-02", "days": 90,
		 "settlement_date": "2024-01-02", "price": 98.75},
		{"task_id": "cd", "kind": "CertificateOfDeposit", "issue_date": "2024-01-02", "maturity": "2024-07-01",
		 "cpn": 5, "settlement_date": "2024-01-02", "yield_to_maturity": 0.05},
		{"task_id": "swap", "kind": "InterestRateSwap", "issue_date": "2024-01-02", "maturity": "2025-01-02",
		 "settlement_date": "2024-01-02", "price": 100}
	]`))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outputs := run(context.Background(), logger, inputs, 8)
	require.Len(t, outputs, 3)

	bill := outputs[0]
	require.Empty(t, bill.Error)
	assert.Equal(t, "2024-04-01", bill.MaturityDate)
	assert.InDelta(t, 0.05, bill.YieldToMaturity, 1e-9)
	require.NotNil(t, bill.EffectiveYield)
	assert.InDelta(t, math.Pow(1/0.9875, 4)-1, *bill.EffectiveYield, 1e-9)
	assert.InDelta(t, 0.25/0.9875, bill.ModifiedDuration, 1e-7)

	cd := outputs[1]
	require.Empty(t, cd.Error)
	assert.InDelta(t, 100, cd.DirtyPrice, 1e-7)
	assert.Zero(t, cd.AccruedInterest)

	assert.Contains(t, outputs[2].Error, "unknown kind")
}

func TestDeliveryMonthResolvesLastBusinessDay(t *testing.T) {
	in := bondInput{Spec: bond.DefaultSpec(), DeliveryMonth: "2024-03"}
	d, err := deliveryDate(in)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), d)

	in.DeliveryMonth = "03/2024"
	_, err = deliveryDate(in)
	assert.Error(t, err)

	in.DeliveryDate.Time = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	d, err = deliveryDate(in)
	require.NoError(t, err)
	assert.Equal(t, 20, d.Day())
}

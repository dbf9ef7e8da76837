package marketdata_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/marketdata"
	"github.com/meenmo/bondlib/rates"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestMapReferenceRateFeed(t *testing.T) {
	t.Parallel()

	feed, err := marketdata.NewMapReferenceRateFeed(map[string]float64{"2024-01-05": 0.0375, "2024-01-08": 0.0371})
	require.NoError(t, err)
	var _ bond.ReferenceRateFeed = feed

	r, ok := feed.RateOn(date(2024, 1, 5))
	assert.True(t, ok)
	assert.Equal(t, 0.0375, r)
	_, ok = feed.RateOn(date(2024, 1, 6))
	assert.False(t, ok)

	feed.WithLookback(3)
	r, ok = feed.RateOn(date(2024, 1, 7))
	assert.True(t, ok)
	assert.Equal(t, 0.0375, r)
	assert.Equal(t, []string{"2024-01-05", "2024-01-08"}, feed.Dates())

	_, err = marketdata.NewMapReferenceRateFeed(map[string]float64{"05/01/2024": 0.03})
	assert.ErrorIs(t, err, errs.ErrDomain)
}

func TestLoadFixings(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "cd91.yaml", `
index: CD91
lookback_days: 4
rates:
  "2024-03-29": 0.0365
  "2024-04-01": 0.0364
`)
	feed, err := marketdata.LoadFixings(path)
	require.NoError(t, err)
	r, ok := feed.RateOn(date(2024, 3, 31))
	assert.True(t, ok)
	assert.Equal(t, 0.0365, r)

	_, err = marketdata.LoadFixings(writeFile(t, "empty.json", `{"index": "CD91", "rates": {}}`))
	assert.ErrorIs(t, err, errs.ErrDomain)

	_, err = marketdata.LoadFixings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadParQuotesYAMLAndJSON(t *testing.T) {
	t.Parallel()

	yamlPath := writeFile(t, "quotes.yaml", `
curve_date: 2024-01-02
quotes:
  - {tenor: 6M, price: 98.5}
  - {tenor: 2Y, cpn: 4, cpn_freq: 2, price: 100}
  - {tenor: 5Y, cpn: 5, cpn_freq: 1, yield_to_maturity: 0.049}
`)
	qs, err := marketdata.LoadParQuotes(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 2), qs.CurveDate.Time)
	require.Len(t, qs.Quotes, 3)
	assert.Equal(t, 98.5, *qs.Quotes[0].Price)
	assert.Equal(t, 2, qs.Quotes[1].Frequency)
	assert.Nil(t, qs.Quotes[2].Price)
	assert.Equal(t, 0.049, *qs.Quotes[2].Yield)

	jsonPath := writeFile(t, "quotes.json", `{"curve_date": "2024-01-02", "quotes": [{"tenor": "1Y", "price": 97}]}`)
	qs, err = marketdata.LoadParQuotes(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "1Y", qs.Quotes[0].Tenor)

	_, err = marketdata.LoadParQuotes(writeFile(t, "nodate.json", `{"quotes": [{"tenor": "1Y", "price": 97}]}`))
	assert.ErrorIs(t, err, errs.ErrConsistency)
	_, err = marketdata.LoadParQuotes(writeFile(t, "bad.json", `{"curve_date": "2024-01-02", "quotes": [{"tenor": "1Y", "cpn_freq": 24}]}`))
	assert.ErrorIs(t, err, errs.ErrDomain)
}

func TestLoadParQuotesWorkbook(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	_, err := f.NewSheet(marketdata.QuoteSheet)
	require.NoError(t, err)
	rows := [][]interface{}{
		{"Tenor", "Curve_Date", "cpn", "cpn_freq", "price", "yield_to_maturity"},
		{"6M", "2024-01-02", 0, 0, 98.5, ""},
		{"2Y", "2024-01-02", 4, 2, 100, ""},
		{"3Y", "2024-01-02", 4.5, 2, "", 0.0445},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(marketdata.QuoteSheet, cell, &r))
	}
	path := filepath.Join(t.TempDir(), "quotes.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	qs, err := marketdata.LoadParQuotes(path)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 2), qs.CurveDate.Time)
	require.Len(t, qs.Quotes, 3)
	assert.Equal(t, curve.ParQuote{Tenor: "6M", Price: ptr(98.5)}, qs.Quotes[0])
	assert.Equal(t, 4.5, qs.Quotes[2].Coupon)
	assert.Nil(t, qs.Quotes[2].Price)
	assert.Equal(t, 0.0445, *qs.Quotes[2].Yield)

	c, err := curve.NewParCurve(qs.CurveDate.Time, qs.Quotes)
	require.NoError(t, err)
	assert.Len(t, c.Pivots(), 3)
}

func TestLoadBonds(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bonds.yaml", `
bonds:
  - issue_date: 2020-01-01
    maturity: 2030-01-01
    cpn: 4
    cpn_freq: 2
    settlement_date: 2024-01-02
    price: 98.25
  - issue_date: 2022-06-15
    maturity: 2027-06-15
    cpn: 3
    cpn_freq: 1
    yield_calculation_convention: Annual
`)
	specs, err := marketdata.LoadBonds(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, 100.0, specs[0].Notional)
	assert.Equal(t, daycount.ActualActualBond, specs[0].DayCount)
	assert.Equal(t, rates.BEY, specs[0].Convention)
	assert.Equal(t, 98.25, *specs[0].Price)
	assert.Equal(t, rates.Annual, specs[1].Convention)
	assert.Equal(t, date(2027, 6, 15), specs[1].Maturity.Time)

	b, err := bond.New(specs[0])
	require.NoError(t, err)
	_, ok := b.YieldToMaturity()
	assert.True(t, ok)

	_, err = marketdata.LoadBonds(writeFile(t, "neg.json", `{"bonds": [{"issue_date": "2020-01-01", "maturity": "2025-01-01", "cpn": -1}]}`))
	assert.ErrorIs(t, err, errs.ErrDomain)
	_, err = marketdata.LoadBonds(writeFile(t, "none.json", `{"bonds": []}`))
	assert.ErrorIs(t, err, errs.ErrDomain)
}

func ptr(v float64) *float64 { return &v }

func TestLoadHolidays(t *testing.T) {
	t.Parallel()

	cal := calendar.CalendarID("KRX-CHUSEOK")
	t.Cleanup(func() { calendar.ClearHolidays(cal) })
	path := writeFile(t, "krx.yaml", `
calendars:
  - calendar: KRX-CHUSEOK
    dates: ["2024-09-16", "2024-09-17", "2024-09-18"]
`)
	assert.True(t, calendar.IsBusinessDay(cal, date(2024, 9, 17)))
	counts, err := marketdata.LoadHolidays(path)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[cal])
	assert.False(t, calendar.IsBusinessDay(cal, date(2024, 9, 17)))
	assert.Equal(t, date(2024, 9, 19), calendar.AdjustFollowing(cal, date(2024, 9, 16)))

	_, err = marketdata.LoadHolidays(writeFile(t, "weekend.json",
		`{"calendars": [{"calendar": "WEEKEND", "dates": ["2024-01-01"]}]}`))
	assert.ErrorIs(t, err, errs.ErrDomain)
	_, err = marketdata.LoadHolidays(writeFile(t, "empty.json", `{"calendars": [{"calendar": "USD", "dates": []}]}`))
	assert.ErrorIs(t, err, errs.ErrDomain)
	_, err = marketdata.LoadHolidays(writeFile(t, "bad.json", `{"calendars": [{"calendar": "USD", "dates": ["01/02/2024"]}]}`))
	assert.ErrorIs(t, err, errs.ErrDomain)
}

package daycount_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/errs"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFractionExamples(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		convention string
		start      time.Time
		current    time.Time
		end        time.Time
		want       float64
	}{
		{"30/360 end of january", daycount.Thirty360, date(2024, 1, 31), date(2024, 2, 28), date(2024, 2, 28), 28.0 / 360},
		{"30/360 both 31st", daycount.Thirty360, date(2024, 1, 30), date(2024, 3, 31), time.Time{}, 60.0 / 360},
		{"30/360 keeps d2 when d1 < 30", daycount.Thirty360, date(2024, 1, 15), date(2024, 3, 31), time.Time{}, 76.0 / 360},
		{"30E/360 caps both days", daycount.ThirtyE360, date(2024, 1, 31), date(2024, 3, 31), time.Time{}, 60.0 / 360},
		{"30/365", daycount.Thirty365, date(2024, 1, 15), date(2024, 3, 31), time.Time{}, 75.0 / 365},
		{"actual/360", daycount.Actual360, date(2024, 1, 1), date(2024, 7, 1), time.Time{}, 182.0 / 360},
		{"actual/365 one year", daycount.Actual365, date(2023, 1, 1), date(2024, 1, 1), time.Time{}, 1},
		{"actual/actual-bond", daycount.ActualActualBond, date(2024, 1, 1), date(2024, 4, 1), date(2024, 7, 1), 91.0 / 182},
		{"isda across a leap year", daycount.ActualActualISDA, date(2023, 7, 1), date(2024, 7, 1), date(2024, 7, 1), 184.0/365 + 182.0/366},
		{"isda across four calendar years", daycount.ActualActualISDA, date(2019, 7, 1), date(2022, 7, 1), date(2022, 7, 1), 3},
		{"actual/365 negative", daycount.Actual365, date(2024, 1, 1), date(2023, 1, 1), time.Time{}, -1},
		{"isda negative", daycount.ActualActualISDA, date(2024, 7, 1), date(2023, 7, 1), date(2024, 7, 1), -(184.0/365 + 182.0/366)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := daycount.Fraction(tc.convention, tc.start, tc.current, tc.end)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestZeroLengthIntervalIsZero(t *testing.T) {
	t.Parallel()

	start := date(2024, 2, 29)
	end := date(2024, 8, 29)
	for _, name := range daycount.Names() {
		dc, err := daycount.Get(name)
		require.NoError(t, err)
		f, err := dc.Fraction(start, start, end)
		require.NoError(t, err, name)
		assert.Zero(t, f, name)
	}
}

func TestFractionEqualsNumeratorOverDenominator(t *testing.T) {
	t.Parallel()

	start := date(2021, 3, 31)
	current := date(2024, 10, 31)
	end := date(2025, 3, 31)
	for _, name := range daycount.Names() {
		dc := daycount.MustGet(name)
		num, err := dc.Numerator(start, current, end)
		require.NoError(t, err)
		den, err := dc.Denominator(start, current, end)
		require.NoError(t, err)
		f, err := dc.Fraction(start, current, end)
		require.NoError(t, err)
		assert.InDelta(t, num/den, f, 1e-12, name)
	}
}

func TestActualActualRequiresEnd(t *testing.T) {
	t.Parallel()

	for _, name := range []string{daycount.ActualActualBond, daycount.ActualActualISDA} {
		_, err := daycount.Fraction(name, date(2024, 1, 1), date(2024, 6, 1), time.Time{})
		assert.ErrorIs(t, err, errs.ErrConsistency, name)
	}
}

func TestGetIsCaseInsensitiveAndDefaults(t *testing.T) {
	t.Parallel()

	dc, err := daycount.Get("Actual/Actual-ISDA")
	require.NoError(t, err)
	assert.Equal(t, daycount.ActualActualISDA, dc.Name())

	dc, err = daycount.Get("")
	require.NoError(t, err)
	assert.Equal(t, daycount.Actual365, dc.Name())

	_, err = daycount.Get("act/act-icma")
	assert.ErrorIs(t, err, errs.ErrConvention)
}

func TestFractionPeriodAdjusted(t *testing.T) {
	t.Parallel()

	start, current, end := date(2024, 1, 1), date(2024, 4, 1), date(2024, 7, 1)

	got, err := daycount.MustGet(daycount.Actual365).FractionPeriodAdjusted(start, current, end, 2)
	require.NoError(t, err)
	assert.InDelta(t, 91.0/(365.0/2), got, 1e-12)

	got, err = daycount.MustGet(daycount.ActualActualBond).FractionPeriodAdjusted(start, current, end, 2)
	require.NoError(t, err)
	assert.InDelta(t, 91.0/182, got, 1e-12)

	_, err = daycount.MustGet(daycount.Thirty360).FractionPeriodAdjusted(start, current, end, 0)
	assert.ErrorIs(t, err, errs.ErrDomain)
}

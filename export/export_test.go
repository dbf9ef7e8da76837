package export_test

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/export"
)

var curveDate = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func TestRound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.23, export.Round(1.2345, 2))
	assert.Equal(t, 1.234, export.Round(1.23449, 3))
	assert.Equal(t, "-2.51", export.Cents(-2.505).String())
	assert.Equal(t, "100", export.Cents(99.999).String())
}

func TestCurveGrid(t *testing.T) {
	t.Parallel()

	c, err := curve.NewFlatCurveLog(0.05, curveDate)
	require.NoError(t, err)

	rows, err := export.CurveGrid(c, 10, 4, 6)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []float64{2.5, 5, 7.5, 10}, []float64{rows[0].T, rows[1].T, rows[2].T, rows[3].T})
	assert.Equal(t, 0.05, rows[0].Rate)
	assert.Equal(t, export.Round(math.Exp(-0.5), 6), rows[3].Discount)

	_, err = export.CurveGrid(c, 10, 0, 6)
	assert.ErrorIs(t, err, errs.ErrDomain)
}

func TestPivotRows(t *testing.T) {
	t.Parallel()

	z, err := curve.NewZeroCouponCurve(curveDate, map[float64]float64{1: 0.03, 2: 0.04})
	require.NoError(t, err)
	rows, err := export.PivotRows(z, 6)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0.04, rows[1].Rate)

	f, err := curve.NewFlatCurveAER(0.05, curveDate)
	require.NoError(t, err)
	rows, err = export.PivotRows(f, 6)
	require.NoError(t, err)
	assert.Len(t, rows, len(curve.DefaultMaturities))
}

func TestCashFlowTableAndParquetRoundTrip(t *testing.T) {
	t.Parallel()

	b, err := bond.NewFixedRateBullet(curveDate, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), 4.125, 2)
	require.NoError(t, err)
	c, err := curve.NewFlatCurveAER(0.04, curveDate)
	require.NoError(t, err)
	_, pvs, err := b.ValueWithCurve(c, 0, curveDate, nil)
	require.NoError(t, err)

	rows := export.CashFlowTable(pvs, 8)
	require.Len(t, rows, 4)
	assert.Equal(t, "2026-01-02", rows[3].Date)
	assert.Equal(t, 102.06, rows[3].Amount)

	path := filepath.Join(t.TempDir(), "flows.parquet")
	require.NoError(t, export.WriteParquetFile(path, rows))
	back, err := export.ReadParquetFile[export.CashFlowRow](path)
	require.NoError(t, err)
	assert.Equal(t, rows, back)

	grid, err := export.CurveGrid(c, 30, 30, 8)
	require.NoError(t, err)
	gridPath := filepath.Join(t.TempDir(), "grid.parquet")
	require.NoError(t, export.WriteParquetFile(gridPath, grid))
	gridBack, err := export.ReadParquetFile[export.CurveRow](gridPath)
	require.NoError(t, err)
	assert.Equal(t, grid, gridBack)
}

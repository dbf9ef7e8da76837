// Package export turns curves and cash flows into rounded tables and writes them as parquet.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/utils"
)

// CurveRow is one maturity of a curve grid.
type CurveRow struct {
	T        float64 `json:"t" parquet:"t"`
	Rate     float64 `json:"rate" parquet:"rate"`
	Discount float64 `json:"discount_factor" parquet:"discount_factor"`
}

// CashFlowRow is one discounted payment.
type CashFlowRow struct {
	Date         string  `json:"date" parquet:"date"`
	Amount       float64 `json:"amount" parquet:"amount"`
	Discount     float64 `json:"discount_factor" parquet:"discount_factor"`
	PresentValue float64 `json:"present_value" parquet:"present_value"`
}

// Round rounds v half away from zero to places decimals.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Cents is v rounded to two decimals.
func Cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// CurveGrid samples c at n evenly spaced maturities from tMax/n to tMax. Rates are native and, like
// discount factors, rounded to places decimals.
func CurveGrid(c curve.YieldCurve, tMax float64, n int, places int32) ([]CurveRow, error) {
	if n < 1 || tMax <= 0 {
		return nil, errs.Domain("CurveGrid: need tMax > 0 and n >= 1, got tMax=%v n=%d", tMax, n)
	}
	ts := floats.Span(make([]float64, n+1), 0, tMax)[1:]
	rows := make([]CurveRow, n)
	for i, t := range ts {
		r, err := c.GetRate(t, "", 0)
		if err != nil {
			return nil, err
		}
		rows[i] = CurveRow{T: Round(t, 6), Rate: Round(r, places), Discount: Round(c.DiscountT(t, 0), places)}
	}
	return rows, nil
}

// PivotRows lists c's own maturities; curves without pivots use curve.DefaultMaturities.
func PivotRows(c curve.YieldCurve, places int32) ([]CurveRow, error) {
	ms := curve.DefaultMaturities
	if p, ok := c.(interface{ Maturities() []float64 }); ok && len(p.Maturities()) > 0 {
		ms = p.Maturities()
	}
	rows := make([]CurveRow, len(ms))
	for i, t := range ms {
		r, err := c.GetRate(t, "", 0)
		if err != nil {
			return nil, err
		}
		rows[i] = CurveRow{T: t, Rate: Round(r, places), Discount: Round(c.DiscountT(t, 0), places)}
	}
	return rows, nil
}

// CashFlowTable rounds discounted flows for reporting: amounts and values to cents, discount
// factors to places decimals.
func CashFlowTable(pvs []bond.PresentValue, places int32) []CashFlowRow {
	rows := make([]CashFlowRow, len(pvs))
	for i, pv := range pvs {
		rows[i] = CashFlowRow{
			Date:         pv.Date.Format(utils.DateLayout),
			Amount:       Cents(pv.Amount).InexactFloat64(),
			Discount:     Round(pv.Discount, places),
			PresentValue: Cents(pv.Value).InexactFloat64(),
		}
	}
	return rows
}

// WriteParquet writes rows to w as one parquet file.
func WriteParquet[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteParquetFile creates path and writes rows to it.
func WriteParquetFile[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteParquet(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadParquetFile reads every row of a parquet file written by WriteParquetFile.
func ReadParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

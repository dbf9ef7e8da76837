// Package plot samples curves on a time grid and renders the samples as PNG line charts.
package plot

import (
	"fmt"

	"github.com/vicanso/go-charts/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/rates"
)

// Kind selects the quantity sampled by Series.
type Kind string

const (
	Rate     Kind = "rate"
	Discount Kind = "discount"
	Spread   Kind = "spread"
)

// Point is one sample of a curve at T years.
type Point struct {
	T     float64 `json:"t" parquet:"t"`
	Value float64 `json:"value" parquet:"value"`
}

type rater interface {
	GetRate(t float64, conv rates.Convention, spread float64) (float64, error)
}

type discounter interface {
	DiscountT(t, spread float64) float64
}

type spreader interface {
	SpreadT(t float64) float64
}

// Series samples c at n evenly spaced times from 0 to tMax. Rates are in the curve's native
// convention. c must provide the method behind kind: GetRate, DiscountT or SpreadT.
func Series(c any, kind Kind, tMax float64, n int) ([]Point, error) {
	const fn = "Series"
	if n < 2 || tMax <= 0 {
		return nil, errs.Domain("%s: need tMax > 0 and at least 2 points, got tMax=%v n=%d", fn, tMax, n)
	}
	var sample func(t float64) (float64, error)
	switch kind {
	case Rate:
		r, ok := c.(rater)
		if !ok {
			return nil, errs.Consistency("%s: %T has no rates", fn, c)
		}
		sample = func(t float64) (float64, error) { return r.GetRate(t, "", 0) }
	case Discount:
		d, ok := c.(discounter)
		if !ok {
			return nil, errs.Consistency("%s: %T has no discount factors", fn, c)
		}
		sample = func(t float64) (float64, error) { return d.DiscountT(t, 0), nil }
	case Spread:
		s, ok := c.(spreader)
		if !ok {
			return nil, errs.Consistency("%s: %T has no spreads", fn, c)
		}
		sample = func(t float64) (float64, error) { return s.SpreadT(t), nil }
	default:
		return nil, errs.Domain("%s: kind must be rate, discount or spread, got %q", fn, kind)
	}

	ts := floats.Span(make([]float64, n), 0, tMax)
	out := make([]Point, n)
	for i, t := range ts {
		v, err := sample(t)
		if err != nil {
			return nil, err
		}
		out[i] = Point{T: t, Value: v}
	}
	return out, nil
}

// Line is a named series for RenderPNG.
type Line struct {
	Name   string
	Points []Point
}

// RenderPNG draws lines on one chart. The x axis is labelled from the first line's times, so all
// lines should share a grid.
func RenderPNG(title string, lines ...Line) ([]byte, error) {
	if len(lines) == 0 || len(lines[0].Points) == 0 {
		return nil, errs.Consistency("RenderPNG: nothing to plot")
	}
	labels := make([]string, len(lines[0].Points))
	for i, p := range lines[0].Points {
		labels[i] = fmt.Sprintf("%.1f", p.T)
	}
	values := make([][]float64, len(lines))
	names := make([]string, len(lines))
	for i, l := range lines {
		values[i] = make([]float64, len(l.Points))
		for j, p := range l.Points {
			values[i][j] = p.Value
		}
		names[i] = l.Name
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}
	split := len(labels) / 10
	if split < 1 {
		split = 1
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title, "time (years)"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, fmt.Errorf("RenderPNG: %w", err)
	}
	return painter.Bytes()
}

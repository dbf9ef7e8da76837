package main

import (
	"fmt"
	"time"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
)

func main() {
	curveDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	price := func(p float64) *float64 { return &p }

	quotes := []curve.ParQuote{
		{Tenor: "6M", Price: price(98.5)},
		{Tenor: "1Y", Price: price(97)},
		{Tenor: "2Y", Coupon: 4, Frequency: 2, Price: price(100)},
		{Tenor: "3Y", Coupon: 4.5, Frequency: 2, Price: price(100.5)},
		{Tenor: "5Y", Coupon: 5, Frequency: 2, Price: price(101.25)},
	}
	c, err := curve.NewParCurve(curveDate, quotes)
	if err != nil {
		panic(err)
	}
	fmt.Println(c)

	b, err := bond.NewFixedRateBullet(
		time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2028, 3, 15, 0, 0, 0, 0, time.UTC),
		4.25, 2,
		bond.WithSettlement(curveDate),
		bond.WithPrice(99.80),
	)
	if err != nil {
		panic(err)
	}
	y, _ := b.YieldToMaturity()
	m, err := b.Measures(y, curveDate)
	if err != nil {
		panic(err)
	}
	z, err := b.ZSpread(c, 99.80, curveDate)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Yield: %.6f\n", y)
	fmt.Printf("Accrued: %.6f\n", m.AccruedInterest)
	fmt.Printf("Modified duration: %.4f\n", m.ModifiedDuration)
	fmt.Printf("DV01: %.6f\n", m.DV01)
	fmt.Printf("Z-spread: %.2fbp\n", z*1e4)
}

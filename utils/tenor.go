package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tenor is a period such as "1W", "3M", "10Y" or "2D".
type Tenor struct {
	Days   int
	Months int
}

// ParseTenor reads a tenor string. A bare number is taken as years and may be fractional only when
// it converts to whole months.
func ParseTenor(s string) (Tenor, error) {
	tenor := strings.TrimSpace(strings.ToUpper(s))
	if tenor == "" {
		return Tenor{}, fmt.Errorf("ParseTenor: empty tenor")
	}
	unit := tenor[len(tenor)-1]
	switch unit {
	case 'D', 'W', 'M', 'Y':
		v, err := strconv.Atoi(tenor[:len(tenor)-1])
		if err != nil || v < 0 {
			return Tenor{}, fmt.Errorf("ParseTenor: invalid tenor %q", s)
		}
		switch unit {
		case 'D':
			return Tenor{Days: v}, nil
		case 'W':
			return Tenor{Days: 7 * v}, nil
		case 'M':
			return Tenor{Months: v}, nil
		default:
			return Tenor{Months: 12 * v}, nil
		}
	}
	years, err := strconv.ParseFloat(tenor, 64)
	if err != nil || years < 0 {
		return Tenor{}, fmt.Errorf("ParseTenor: invalid tenor %q", s)
	}
	months := years * 12
	if months != float64(int(months)) {
		return Tenor{}, fmt.Errorf("ParseTenor: %q is not a whole number of months", s)
	}
	return Tenor{Months: int(months)}, nil
}

// AddTo returns date moved forward by the tenor, month arithmetic following AddMonth.
func (t Tenor) AddTo(date time.Time) time.Time {
	return AddMonth(date, t.Months).AddDate(0, 0, t.Days)
}

// Years approximates the tenor in years (days on an actual/365 basis).
func (t Tenor) Years() float64 {
	return float64(t.Months)/12 + float64(t.Days)/365
}

func (t Tenor) String() string {
	switch {
	case t.Days == 0 && t.Months%12 == 0 && t.Months > 0:
		return fmt.Sprintf("%dY", t.Months/12)
	case t.Days == 0:
		return fmt.Sprintf("%dM", t.Months)
	case t.Months == 0:
		return fmt.Sprintf("%dD", t.Days)
	}
	return fmt.Sprintf("%dM%dD", t.Months, t.Days)
}

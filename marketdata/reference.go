// Package marketdata loads market inputs from files: reference-rate fixings for floating rate
// notes, par quotes for curve bootstrapping, bond specs for batch pricing and holiday calendars.
package marketdata

import (
	"sort"
	"time"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/utils"
)

// ReferenceRateFeed supplies short-rate fixings (e.g. CD91, SOFR) for the current floating period.
type ReferenceRateFeed = bond.ReferenceRateFeed

// MapReferenceRateFeed is a static map-backed feed keyed by YYYY-MM-DD.
type MapReferenceRateFeed struct {
	rates map[string]float64
	// lookback is how many calendar days RateOn may step back to the last fixing.
	lookback int
}

// NewMapReferenceRateFeed validates the date keys and copies the fixings.
func NewMapReferenceRateFeed(rates map[string]float64) (*MapReferenceRateFeed, error) {
	out := make(map[string]float64, len(rates))
	for k, v := range rates {
		d, err := utils.ParseDate(k)
		if err != nil {
			return nil, errs.Domain("NewMapReferenceRateFeed: fixing date %q: %v", k, err)
		}
		out[d.Format(utils.DateLayout)] = v
	}
	return &MapReferenceRateFeed{rates: out}, nil
}

// WithLookback lets RateOn fall back to the latest fixing up to days calendar days before the
// requested date, for weekends and holidays.
func (m *MapReferenceRateFeed) WithLookback(days int) *MapReferenceRateFeed {
	m.lookback = days
	return m
}

func (m *MapReferenceRateFeed) RateOn(date time.Time) (float64, bool) {
	for i := 0; i <= m.lookback; i++ {
		if val, ok := m.rates[date.AddDate(0, 0, -i).Format(utils.DateLayout)]; ok {
			return val, true
		}
	}
	return 0, false
}

// Dates lists the fixing dates in order.
func (m *MapReferenceRateFeed) Dates() []string {
	out := make([]string, 0, len(m.rates))
	for k := range m.rates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fixings is the file form of a feed.
type Fixings struct {
	Index    string             `json:"index" yaml:"index"`
	Lookback int                `json:"lookback_days" yaml:"lookback_days" validate:"gte=0"`
	Rates    map[string]float64 `json:"rates" yaml:"rates" validate:"required,min=1"`
}

// LoadFixings reads a yaml or json fixings file.
func LoadFixings(path string) (*MapReferenceRateFeed, error) {
	var f Fixings
	if err := decodeFile(path, &f); err != nil {
		return nil, err
	}
	if err := validate.Struct(f); err != nil {
		return nil, errs.Domain("LoadFixings: %s: %v", path, err)
	}
	feed, err := NewMapReferenceRateFeed(f.Rates)
	if err != nil {
		return nil, err
	}
	return feed.WithLookback(f.Lookback), nil
}

package marketdata

import (
	"time"

	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/utils"
)

// HolidaySet lists the non-weekend closures of one calendar.
type HolidaySet struct {
	Calendar calendar.CalendarID `json:"calendar" yaml:"calendar" validate:"required,ne=WEEKEND"`
	Dates    []utils.Date        `json:"dates" yaml:"dates" validate:"required,min=1"`
}

// HolidayFile is the file form of one or more holiday calendars.
type HolidayFile struct {
	Calendars []HolidaySet `json:"calendars" yaml:"calendars" validate:"required,min=1,dive"`
}

// LoadHolidays reads a yaml or json holiday file and registers every date with its calendar.
// It returns the number of dates registered per calendar.
func LoadHolidays(path string) (map[calendar.CalendarID]int, error) {
	var f HolidayFile
	if err := decodeFile(path, &f); err != nil {
		return nil, err
	}
	if err := validate.Struct(f); err != nil {
		return nil, errs.Domain("LoadHolidays: %s: %v", path, err)
	}
	counts := make(map[calendar.CalendarID]int, len(f.Calendars))
	for _, set := range f.Calendars {
		dates := make([]time.Time, 0, len(set.Dates))
		for _, d := range set.Dates {
			if d.IsZero() {
				return nil, errs.Domain("LoadHolidays: %s: empty date in calendar %s", path, set.Calendar)
			}
			dates = append(dates, d.Time)
		}
		calendar.RegisterHolidays(set.Calendar, dates...)
		counts[set.Calendar] += len(dates)
	}
	return counts, nil
}

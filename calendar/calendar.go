package calendar

import (
	"sync"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// WEEKEND treats only Saturdays and Sundays as non-business days.
	WEEKEND CalendarID = "WEEKEND"

	// The named calendars have no holidays until they are registered, usually from a file
	// through marketdata.LoadHolidays.
	TARGET CalendarID = "TARGET"
	JPN    CalendarID = "JPN"
	USD    CalendarID = "USD"
	KRW    CalendarID = "KRW"
	GBP    CalendarID = "GBP"
)

// Default is the calendar used when none is configured.
const Default = WEEKEND

var (
	mu       sync.RWMutex
	holidays = map[CalendarID]map[string]struct{}{}
)

// RegisterHolidays adds dates to the holiday set of cal. Dates are compared by calendar day.
func RegisterHolidays(cal CalendarID, dates ...time.Time) {
	mu.Lock()
	defer mu.Unlock()
	set, ok := holidays[cal]
	if !ok {
		set = make(map[string]struct{}, len(dates))
		holidays[cal] = set
	}
	for _, d := range dates {
		set[d.Format("2006-01-02")] = struct{}{}
	}
}

// ClearHolidays removes every registered holiday of cal.
func ClearHolidays(cal CalendarID) {
	mu.Lock()
	defer mu.Unlock()
	delete(holidays, cal)
}

func isHoliday(cal CalendarID, t time.Time) bool {
	if cal == WEEKEND || cal == "" {
		return false
	}
	mu.RLock()
	defer mu.RUnlock()
	_, ok := holidays[cal][t.Format("2006-01-02")]
	return ok
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative). n == 0 returns t unchanged.
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

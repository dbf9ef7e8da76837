package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekendCalendar(t *testing.T) {
	assert.False(t, IsBusinessDay(WEEKEND, day(2024, 6, 1))) // Saturday
	assert.True(t, IsBusinessDay(WEEKEND, day(2024, 12, 25)))

	assert.Equal(t, day(2024, 6, 3), AdjustFollowing(WEEKEND, day(2024, 6, 1)))
	assert.Equal(t, day(2024, 6, 3), AddBusinessDays(WEEKEND, day(2024, 5, 31), 1))
	assert.Equal(t, day(2024, 5, 31), AddBusinessDays(WEEKEND, day(2024, 6, 3), -1))
	assert.Equal(t, day(2024, 5, 31), AddBusinessDays(WEEKEND, day(2024, 5, 31), 0))
}

func TestModifiedFollowingStaysInMonth(t *testing.T) {
	// 2024-08-31 is a Saturday; following would roll into September.
	assert.Equal(t, day(2024, 8, 30), Adjust(WEEKEND, day(2024, 8, 31)))
	assert.Equal(t, day(2024, 8, 30), LastBusinessDayOfMonth(WEEKEND, day(2024, 8, 10)))
}

func TestRegisteredHolidays(t *testing.T) {
	const cal CalendarID = "TEST-REGISTERED"
	t.Cleanup(func() { ClearHolidays(cal) })

	RegisterHolidays(cal, day(2024, 12, 25), day(2024, 12, 26))

	assert.False(t, IsBusinessDay(cal, day(2024, 12, 25)))
	assert.Equal(t, day(2024, 12, 27), AdjustFollowing(cal, day(2024, 12, 25)))
	assert.Equal(t, day(2024, 12, 27), AddBusinessDays(cal, day(2024, 12, 24), 1))

	// Holidays never leak into the weekend-only calendar.
	assert.True(t, IsBusinessDay(WEEKEND, day(2024, 12, 25)))
}

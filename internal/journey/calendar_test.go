package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendar(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}

	// 23:30 UTC on March 29 is already March 30 in Amsterdam, the day DST starts.
	now := time.Date(2025, 3, 29, 23, 30, 0, 0, time.UTC)
	cal := NewCalendar(amsterdam, func() time.Time { return now })

	t.Run("today uses the calendar time zone", func(t *testing.T) {
		assert.Equal(t, time.Date(2025, 3, 30, 0, 0, 0, 0, amsterdam), cal.Today())
	})

	t.Run("days between spans a DST change", func(t *testing.T) {
		assert.Equal(t, 1, cal.DaysBetween(cal.Today(), cal.AddDays(cal.Today(), 1)))
		assert.Equal(t, 2, cal.DaysBetween(time.Date(2025, 3, 29, 12, 0, 0, 0, amsterdam), time.Date(2025, 3, 31, 1, 0, 0, 0, amsterdam)))
		assert.Equal(t, -1, cal.DaysBetween(cal.Today(), time.Date(2025, 3, 29, 22, 0, 0, 0, amsterdam)))
	})

	t.Run("initial day status", func(t *testing.T) {
		assert.Equal(t, DayToday, cal.InitialDayStatus(cal.Today().Add(20*time.Hour)))
		assert.Equal(t, DayUpcoming, cal.InitialDayStatus(cal.AddDays(cal.Today(), 1)))
	})
}

func TestCalendar_ZeroValue(t *testing.T) {
	var cal Calendar

	assert.Equal(t, time.Local, cal.Location())
	assert.True(t, cal.IsToday(time.Now()))
}

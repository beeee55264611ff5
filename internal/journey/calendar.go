package journey

import "time"

// Calendar does calendar-day arithmetic in one time zone. The zero value
// uses time.Local and the wall clock.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar creates a calendar for loc using now as the clock.
func NewCalendar(loc *time.Location, now func() time.Time) Calendar {
	return Calendar{loc: loc, now: now}
}

// Location returns the calendar's time zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Now returns the current instant.
func (c Calendar) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Day truncates t to local midnight.
func (c Calendar) Day(t time.Time) time.Time {
	y, m, d := t.In(c.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location())
}

// Today returns local midnight of the current day.
func (c Calendar) Today() time.Time {
	return c.Day(c.Now())
}

// AddDays returns local midnight n calendar days after t.
func (c Calendar) AddDays(t time.Time, n int) time.Time {
	y, m, d := t.In(c.Location()).Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, c.Location())
}

// DaysBetween counts whole calendar days from a to b; negative when b is earlier.
func (c Calendar) DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(c.Location()).Date()
	by, bm, bd := b.In(c.Location()).Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}

// SameDay reports whether a and b fall on the same calendar day.
func (c Calendar) SameDay(a, b time.Time) bool {
	return c.DaysBetween(a, b) == 0
}

// IsToday reports whether t falls on the current calendar day.
func (c Calendar) IsToday(t time.Time) bool {
	return c.SameDay(t, c.Now())
}

// InitialDayStatus is today for a day dated today and upcoming otherwise.
func (c Calendar) InitialDayStatus(date time.Time) DayStatus {
	if c.IsToday(date) {
		return DayToday
	}
	return DayUpcoming
}

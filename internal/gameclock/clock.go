package gameclock

import (
	"time"
)

// Reset fairness depends on a single canonical midnight, so the zone is fixed
// at construction and never taken from the server's local time.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New builds a clock for the given IANA zone name ("UTC", "Europe/Moscow", ...).
func New(tz string) (*Clock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewFixed builds a clock that always reports the given instant. Для тестов.
func NewFixed(tz string, at time.Time) (*Clock, error) {
	c, err := New(tz)
	if err != nil {
		return nil, err
	}
	c.now = func() time.Time { return at }
	return c, nil
}

// Now returns the current instant in the configured zone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// DayKey returns the calendar day identifier, YYYY-MM-DD.
func (c *Clock) DayKey() string {
	return DayKeyAt(c.Now())
}

// WeekKey returns isoYear*100 + isoWeekNumber for the current instant.
func (c *Clock) WeekKey() int {
	return WeekKeyAt(c.Now())
}

// DayKeyAt computes the day key for an instant (already in the target zone).
func DayKeyAt(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekKeyAt computes the ISO week key for an instant (already in the target zone).
func WeekKeyAt(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}

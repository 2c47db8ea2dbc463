package gameclock

import (
	"testing"
	"time"
)

func TestDayKeyAt(t *testing.T) {
	at := time.Date(2025, 3, 7, 23, 59, 59, 0, time.UTC)
	if got := DayKeyAt(at); got != "2025-03-07" {
		t.Fatalf("expected 2025-03-07, got %s", got)
	}
}

func TestWeekKeyAt_ISOBoundaries(t *testing.T) {
	cases := []struct {
		at   time.Time
		want int
	}{
		// Jan 1 2027 is a Friday and belongs to ISO week 53 of 2026
		{time.Date(2027, 1, 1, 12, 0, 0, 0, time.UTC), 202653},
		// Monday starts a new ISO week
		{time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 202511},
		{time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC), 202510},
	}
	for _, c := range cases {
		if got := WeekKeyAt(c.at); got != c.want {
			t.Fatalf("WeekKeyAt(%v): expected %d, got %d", c.at, c.want, got)
		}
	}
}

func TestClockUsesConfiguredZone(t *testing.T) {
	// 23:30 UTC on the 7th is already the 8th in Moscow (+3)
	at := time.Date(2025, 3, 7, 23, 30, 0, 0, time.UTC)

	utc, err := NewFixed("UTC", at)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	msk, err := NewFixed("Europe/Moscow", at)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}

	if utc.DayKey() != "2025-03-07" {
		t.Fatalf("utc day: got %s", utc.DayKey())
	}
	if msk.DayKey() != "2025-03-08" {
		t.Fatalf("msk day: got %s", msk.DayKey())
	}
}

func TestNewRejectsUnknownZone(t *testing.T) {
	if _, err := New("Not/AZone"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

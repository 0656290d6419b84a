package utils

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const DayLayout = "2006-01-02"

// Location resolves an IANA timezone name, falling back to UTC.
func Location(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warnf("unknown timezone %q, using UTC: %v", timezone, err)
		return time.UTC
	}
	return loc
}

// CivilDate returns the calendar date of t as seen in loc, normalized to midnight UTC.
// Two CivilDates can be compared with Equal/Before/After.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOnly returns the calendar date of t in its own location, normalized to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func SameDay(a, b time.Time, loc *time.Location) bool {
	return CivilDate(a, loc).Equal(CivilDate(b, loc))
}

func SameMonth(a, b time.Time, loc *time.Location) bool {
	ay, am, _ := a.In(loc).Date()
	by, bm, _ := b.In(loc).Date()
	return ay == by && am == bm
}

// DayKey formats the calendar day of t in loc, e.g. "2024-01-05".
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// AddMonthsClamped adds months to a civil date, clamping the day to the last day of the target month.
// Jan 31 plus one month is Feb 29 in a leap year.
func AddMonthsClamped(date time.Time, months int) time.Time {
	y, m, d := date.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, date.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, date.Location())
}

// ParseDateOrTime accepts either an RFC 3339 timestamp or a plain "2006-01-02" date, which is read as
// midnight in loc.
func ParseDateOrTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(DayLayout, value, loc)
}

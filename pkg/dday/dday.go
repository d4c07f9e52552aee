// Package dday holds the calendar arithmetic shared by the matcher and
// the notification sweep: pregnancy week derivation, child age, and
// day-offset-to-target computation with both dates normalized to
// midnight so time-of-day never skews an offset.
package dday

import (
	"fmt"
	"math"
	"time"
)

// GestationDays is the assumed full term, used to derive a pregnancy
// start date from a due date when only the due date is known.
const GestationDays = 280

// daysPerMonth is the average Gregorian month length used for child age
// in months.
const daysPerMonth = 30.44

// Midnight truncates t to the start of its day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the whole number of days from now to target, both
// normalized to midnight. Negative when the target has passed. The
// interval is rounded, not truncated: across a DST transition a
// midnight-to-midnight span is 23 or 25 hours and truncation would
// come out a day short.
func DaysUntil(now, target time.Time) int {
	d := Midnight(target).Sub(Midnight(now))
	return int(math.Round(d.Hours() / 24))
}

// Key converts a day offset into the string key used in a timeline
// event's notifications_sent map, e.g. 7 -> "d7".
func Key(offset int) string {
	return fmt.Sprintf("d%d", offset)
}

// PregnancyStart resolves the pregnancy start date from a profile's
// explicit start date, falling back to due date minus full term. The
// second return is false when neither date is present.
func PregnancyStart(dueDate, startDate *time.Time) (time.Time, bool) {
	if startDate != nil {
		return Midnight(*startDate), true
	}
	if dueDate != nil {
		return Midnight(dueDate.AddDate(0, 0, -GestationDays)), true
	}
	return time.Time{}, false
}

// CurrentWeek returns the pregnancy week for a given start date, at
// least 1.
func CurrentWeek(start, now time.Time) int {
	days := DaysUntil(start, now)
	week := days / 7
	if week < 1 {
		week = 1
	}
	return week
}

// AgeWeeks returns a child's age in whole weeks.
func AgeWeeks(birth, now time.Time) int {
	return DaysUntil(birth, now) / 7
}

// AgeMonths returns a child's age in whole average-length months.
func AgeMonths(birth, now time.Time) int {
	return int(float64(DaysUntil(birth, now)) / daysPerMonth)
}

// ProjectWeekTarget maps a content week window onto the calendar:
// pregnancy start plus week_start weeks.
func ProjectWeekTarget(start time.Time, week int) time.Time {
	return Midnight(start).AddDate(0, 0, week*7)
}

// ProjectMonthTarget maps a content month window onto the calendar:
// birth date plus month_start calendar months.
func ProjectMonthTarget(birth time.Time, months int) time.Time {
	return Midnight(birth).AddDate(0, months, 0)
}

package dday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysUntil(t *testing.T) {
	today := date(2025, 3, 10)

	assert.Equal(t, 0, DaysUntil(today, date(2025, 3, 10)))
	assert.Equal(t, 7, DaysUntil(today, date(2025, 3, 17)))
	assert.Equal(t, -2, DaysUntil(today, date(2025, 3, 8)))
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	// A late-evening "now" against an early-morning target must still
	// land on the whole-day offset.
	now := time.Date(2025, 3, 10, 23, 45, 0, 0, time.UTC)
	target := time.Date(2025, 3, 17, 1, 30, 0, 0, time.UTC)

	assert.Equal(t, 7, DaysUntil(now, target))
}

func TestDaysUntilAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST begins Mar 9 2025: the Mar 8 -> Mar 15 span is 167 hours,
	// still a whole week.
	now := time.Date(2025, 3, 8, 0, 0, 0, 0, loc)
	target := time.Date(2025, 3, 15, 0, 0, 0, 0, loc)
	assert.Equal(t, 7, DaysUntil(now, target))

	// And 25-hour days in fall round down to the same whole week.
	now = time.Date(2025, 10, 30, 0, 0, 0, 0, loc)
	target = time.Date(2025, 11, 6, 0, 0, 0, 0, loc)
	assert.Equal(t, 7, DaysUntil(now, target))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "d7", Key(7))
	assert.Equal(t, "d0", Key(0))
}

func TestPregnancyStartPrefersExplicitDate(t *testing.T) {
	start := date(2025, 1, 1)
	due := date(2025, 10, 8)

	got, ok := PregnancyStart(&due, &start)
	require.True(t, ok)
	assert.Equal(t, start, got)
}

func TestPregnancyStartDerivedFromDueDate(t *testing.T) {
	due := date(2025, 10, 8)

	got, ok := PregnancyStart(&due, nil)
	require.True(t, ok)
	assert.Equal(t, due.AddDate(0, 0, -GestationDays), got)
}

func TestPregnancyStartWithoutDates(t *testing.T) {
	_, ok := PregnancyStart(nil, nil)
	assert.False(t, ok)
}

func TestCurrentWeek(t *testing.T) {
	now := date(2025, 6, 1)

	// 140 days in -> week 20
	assert.Equal(t, 20, CurrentWeek(now.AddDate(0, 0, -140), now))
	// 200 days in -> week 28
	assert.Equal(t, 28, CurrentWeek(now.AddDate(0, 0, -200), now))
	// Never below week 1
	assert.Equal(t, 1, CurrentWeek(now.AddDate(0, 0, -3), now))
	assert.Equal(t, 1, CurrentWeek(now, now))
}

func TestAgeWeeksAndMonths(t *testing.T) {
	now := date(2025, 6, 1)

	birth := now.AddDate(0, 0, -70)
	assert.Equal(t, 10, AgeWeeks(birth, now))
	assert.Equal(t, 2, AgeMonths(birth, now)) // 70 / 30.44

	// 365 days is 11 average months, not 12.
	assert.Equal(t, 11, AgeMonths(now.AddDate(0, 0, -365), now))
}

func TestProjectWeekTarget(t *testing.T) {
	start := date(2025, 1, 1)
	assert.Equal(t, date(2025, 5, 21), ProjectWeekTarget(start, 20))
}

func TestProjectMonthTarget(t *testing.T) {
	birth := date(2025, 1, 31)

	assert.Equal(t, date(2025, 4, 30).AddDate(0, 0, 1), ProjectMonthTarget(birth, 3))
	assert.Equal(t, date(2026, 1, 31), ProjectMonthTarget(birth, 12))
}

// Package calendar decides whether a date is a Brazilian business day and
// adjusts receivable due dates forward past weekends and national holidays.
package calendar

import "time"

// Easter returns the Gregorian Easter Sunday for the given year, computed
// with the Meeus/Jones/Butcher algorithm.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// fixedHolidays are the Brazilian national holidays with a fixed date:
// Confraternização Universal, Tiradentes, Dia do Trabalho, Independência,
// Nossa Senhora Aparecida, Finados, Proclamação da República, Natal.
var fixedHolidays = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},
	{time.April, 21},
	{time.May, 1},
	{time.September, 7},
	{time.October, 12},
	{time.November, 2},
	{time.November, 15},
	{time.December, 25},
}

type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dateKey {
	return dateKey{t.Year(), t.Month(), t.Day()}
}

// holidaysForYear returns the date-keyed holiday set for one calendar year:
// the fixed dates plus Carnival (Easter-47d), Good Friday (Easter-2d), Easter
// itself, and Corpus Christi (Easter+60d).
func holidaysForYear(year int) map[dateKey]struct{} {
	set := make(map[dateKey]struct{}, len(fixedHolidays)+4)
	for _, h := range fixedHolidays {
		set[dateKey{year, h.month, h.day}] = struct{}{}
	}

	easter := Easter(year)
	for _, offset := range []int{-47, -2, 0, 60} {
		set[keyOf(easter.AddDate(0, 0, offset))] = struct{}{}
	}
	return set
}

// IsHoliday reports whether the date (time of day ignored) is a national
// holiday, fixed or movable.
func IsHoliday(t time.Time) bool {
	// Corpus Christi of the previous year cannot spill into the next one,
	// so only the date's own year matters.
	_, ok := holidaysForYear(t.Year())[keyOf(t)]
	return ok
}

// IsBusinessDay reports whether the date is a weekday that is not a national
// holiday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !IsHoliday(t)
}

// AdjustForward moves a due date to the next business day. A date already on
// a business day is returned unchanged (time of day preserved). Consecutive
// holiday and weekend runs are possible, so the loop is unbounded rather than
// capped at one or two days.
func AdjustForward(t time.Time) time.Time {
	for !IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// Package grouper provides period grouping functions mapping a timestamp to
// a discrete period key. Two series grouped with the same function produce
// comparable keys, which is what lets the bias correction models fit and
// apply per-period state.
package grouper

import "time"

// Grouper derives a period key from a timestamp. It must be a pure function
// so that grouping the same series twice yields the same partition.
type Grouper func(time.Time) int

// Month groups timestamps by calendar month, keys 1 through 12.
func Month(t time.Time) int {
	return int(t.Month())
}

// DayOfYear groups timestamps by day of year on a 365 day calendar, keys 1
// through 365. In leap years Feb 29 folds onto the Feb 28 key so that days
// after February share keys with non-leap years. Dec 31 and Jan 1 remain
// separate keys across a year boundary.
func DayOfYear(t time.Time) int {
	doy := t.YearDay()
	if isLeap(t.Year()) && doy >= 60 {
		doy--
	}
	return doy
}

// Season groups timestamps by meteorological season: 1 DJF, 2 MAM, 3 JJA,
// 4 SON.
func Season(t time.Time) int {
	switch t.Month() {
	case time.December, time.January, time.February:
		return 1
	case time.March, time.April, time.May:
		return 2
	case time.June, time.July, time.August:
		return 3
	default:
		return 4
	}
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

package ledger

import "time"

// Spend periods are calendar days and months in the tenant's timezone, not
// rolling windows. "Today" resets at the tenant's local midnight.

// DayBounds returns the [from, to) interval of the calendar day containing t
// in the given location.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// MonthBounds returns the [from, to) interval of the calendar month containing
// t in the given location.
func MonthBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// dayKey and monthKey produce cache period keys for the interval start.
func dayKey(from time.Time) string {
	return from.Format("2006-01-02")
}

func monthKey(from time.Time) string {
	return from.Format("2006-01")
}

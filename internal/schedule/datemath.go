// Package schedule projects program definitions onto the calendar: which
// workouts fall on which dates, and what status each day carries. All
// functions are pure; nothing here touches storage.
package schedule

import "time"

// Date arithmetic is timezone-naive on purpose: a "day" is a local
// calendar day in the instant's own Location. Every other package routes
// through these helpers instead of doing raw time math.

// StartOfDay strips the time of day, returning local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays shifts t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// ToDateKey formats t as YYYY-MM-DD using local calendar fields. Using
// local fields (not UTC) avoids off-by-one-day keys across timezones.
func ToDateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// DateRange is an inclusive start..end span of days, both at local midnight.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WeekRange returns the Sunday..Saturday week containing t.
func WeekRange(t time.Time) DateRange {
	d := StartOfDay(t)
	start := AddDays(d, -int(d.Weekday()))
	return DateRange{Start: start, End: AddDays(start, 6)}
}

// MonthRange returns the first..last day of the month containing t.
func MonthRange(t time.Time) DateRange {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	end := AddDays(start.AddDate(0, 1, 0), -1)
	return DateRange{Start: start, End: end}
}

// MonthGridRange returns MonthRange padded outward to full Sunday..Saturday
// weeks, the span a month-grid UI renders.
func MonthGridRange(t time.Time) DateRange {
	month := MonthRange(t)
	start := AddDays(month.Start, -int(month.Start.Weekday()))
	end := AddDays(month.End, 6-int(month.End.Weekday()))
	return DateRange{Start: start, End: end}
}

// ShiftWeek moves t by direction weeks (-1 or +1), normalized to midnight.
func ShiftWeek(t time.Time, direction int) time.Time {
	return AddDays(StartOfDay(t), direction*7)
}

// ShiftMonth moves t by direction months (-1 or +1), normalized to midnight.
func ShiftMonth(t time.Time, direction int) time.Time {
	return StartOfDay(t.AddDate(0, direction, 0))
}

// daysBetween counts whole days from a to b, both taken at local midnight.
// Computed from date components rather than Sub so DST transitions inside
// the span cannot skew the count.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}

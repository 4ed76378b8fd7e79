// Package timeutil defines the reference timezone for calendar-day arithmetic.
// Streaks and daily analytics count "days" in this single timezone; changing
// the policy (e.g. to a per-user timezone) happens here and nowhere else.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// ReferenceTZ is the timezone in which a "calendar day" is defined.
// All streak and daily-analytics computations use it.
var ReferenceTZ = time.UTC

// Now returns the current time in the reference timezone.
func Now() time.Time {
	return time.Now().In(ReferenceTZ)
}

// ToReference converts a time to the reference timezone.
func ToReference(t time.Time) time.Time {
	return t.In(ReferenceTZ)
}

// Date creates a time at midnight of the given date in the reference timezone.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, ReferenceTZ)
}

// DateTime creates a time with the given date and time in the reference timezone.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, ReferenceTZ)
}

// StartOfDay returns the start of the day (00:00:00) in the reference timezone.
func StartOfDay(t time.Time) time.Time {
	ref := ToReference(t)
	return time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ReferenceTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the reference timezone.
func EndOfDay(t time.Time) time.Time {
	ref := ToReference(t)
	return time.Date(ref.Year(), ref.Month(), ref.Day(), 23, 59, 59, 999999999, ReferenceTZ)
}

// DaysBetween returns the number of whole calendar days from a to b in the
// reference timezone. Positive when b is after a, negative when before,
// zero when both fall on the same calendar day. The clock components of
// either argument never influence the result.
func DaysBetween(a, b time.Time) int {
	dayA := StartOfDay(a)
	dayB := StartOfDay(b)
	return int(dayB.Sub(dayA).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// NextDay returns midnight of the day after t.
func NextDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// FormatDate formats a time as YYYY-MM-DD in the reference timezone.
func FormatDate(t time.Time) string {
	return ToReference(t).Format("2006-01-02")
}

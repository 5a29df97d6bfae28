package domain

import "time"

// The reporting calendar runs on a fixed +05:30 offset with business days
// rolling over at 04:00 local, not midnight. All window math in the service
// goes through these helpers so every caller agrees on the boundary.

var businessZone = time.FixedZone("IST", 5*3600+30*60)

const businessDayStartHour = 4

// ToBusinessTime reinterprets an absolute instant in the business calendar's
// fixed offset.
func ToBusinessTime(t time.Time) time.Time {
	return t.In(businessZone)
}

// ToAbsolute converts a business-local instant back to UTC.
func ToAbsolute(local time.Time) time.Time {
	return local.UTC()
}

// BusinessDayStart returns the absolute instant of the most recent 04:00
// local boundary at or before t. Before 04:00 local the boundary belongs to
// the previous calendar date.
func BusinessDayStart(t time.Time) time.Time {
	local := t.In(businessZone)
	start := time.Date(local.Year(), local.Month(), local.Day(), businessDayStartHour, 0, 0, 0, businessZone)
	if local.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start.UTC()
}

// BusinessDayEnd returns the exclusive end of the business day containing t.
func BusinessDayEnd(t time.Time) time.Time {
	return BusinessDayStart(t).Add(24 * time.Hour)
}

// BusinessDayDate is the natural-key date label of the business day
// containing t, e.g. "2025-06-14".
func BusinessDayDate(t time.Time) string {
	return BusinessDayStart(t).In(businessZone).Format("2006-01-02")
}

// StartOfBusinessMonth returns 04:00 local on the first day of the month the
// business day containing t falls in.
func StartOfBusinessMonth(t time.Time) time.Time {
	day := BusinessDayStart(t).In(businessZone)
	first := time.Date(day.Year(), day.Month(), 1, businessDayStartHour, 0, 0, 0, businessZone)
	return first.UTC()
}

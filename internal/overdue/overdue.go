// Package overdue holds the lateness arithmetic shared by fine assessment
// and reporting. Lateness is counted in whole calendar days in UTC, so a
// loan returned at 01:00 the day after its due date is one day late even
// though less than 24 hours elapsed.
package overdue

import "time"

// DefaultDailyRateCents is the penalty applied per overdue day when no rate
// is configured.
const DefaultDailyRateCents int64 = 50

// Days returns the number of calendar days between the due date and the
// given instant. Returns zero when at falls on or before the due date.
func Days(dueAt, at time.Time) int {
	due := truncateToDate(dueAt)
	current := truncateToDate(at)
	if !current.After(due) {
		return 0
	}
	return int(current.Sub(due) / (24 * time.Hour))
}

// AmountCents converts an overdue day count into a penalty in minor units.
func AmountCents(days int, dailyRateCents int64) int64 {
	if days <= 0 || dailyRateCents <= 0 {
		return 0
	}
	return int64(days) * dailyRateCents
}

func truncateToDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

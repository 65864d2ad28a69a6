package loans

import "time"

// DaysLate returns the number of whole calendar days between the due date and
// now, counting any lateness at all as at least one full day. Returning a
// book late on the due date itself still pays for one day.
func DaysLate(now, due time.Time) int {
	if !now.After(due) {
		return 0
	}
	days := int(dateOf(now).Sub(dateOf(due)).Hours() / 24)
	if days == 0 {
		days = 1
	}
	return days
}

// FineFor computes the accrued fine at the given daily rate. The rate itself
// is never rounded.
func FineFor(now, due time.Time, dailyRate float64) float64 {
	return float64(DaysLate(now, due)) * dailyRate
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package settings

import "time"

// Settings is the single policy record consulted by every loan transition.
// Lazily created with defaults on first read.
type Settings struct {
	ID               int64
	PickupWindowDays int
	StandardLoanDays int
	DailyFineAmount  float64
}

// Defaults applied when no row exists yet.
const (
	DefaultPickupWindowDays = 2
	DefaultStandardLoanDays = 30
	DefaultDailyFineAmount  = 0.1
)

// Validation bounds for updates.
const (
	minPickupWindowDays = 1
	maxPickupWindowDays = 14
	minStandardLoanDays = 1
	maxStandardLoanDays = 120
	minDailyFineAmount  = 0.0
	maxDailyFineAmount  = 100.0
)

// OutstandingLoan is the slice of a loan the repricing pass needs.
type OutstandingLoan struct {
	ID      int64
	DueDate time.Time
}

package loans

import (
	"database/sql"
	"time"
)

// Status is the closed set of loan lifecycle states.
type Status string

const (
	StatusReserved  Status = "reserved"
	StatusActive    Status = "active"
	StatusReturned  Status = "returned"
	StatusExpired   Status = "expired"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Loan is one row of the loans table. User and book references are immutable
// after creation; the copy held by a RESERVED/ACTIVE/OVERDUE loan is released
// exactly once, on return, cancel or pickup expiry.
type Loan struct {
	ID              int64
	LoanULID        string
	UserID          int64
	BookID          int64
	Status          Status
	ReservationDate time.Time
	PickupDeadline  sql.NullTime
	StartDate       sql.NullTime
	DueDate         sql.NullTime
	ReturnedAt      sql.NullTime
	CanceledAt      sql.NullTime
	FineAmount      float64
}

// Only members borrow; staff roles never hold loans themselves.
const roleMember = "member"

// UserRef is the slice of a user the engine needs for its guards.
type UserRef struct {
	ID       int64
	Role     string
	IsBanned bool
}

// BookRef is the availability snapshot read outside the transaction; the
// store re-checks under the row lock.
type BookRef struct {
	ID              int64
	AvailableCopies int
}

type Page struct {
	Limit  int
	Offset int
}

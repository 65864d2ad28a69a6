package loans

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// ===== Clock & ID =====

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }

type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ===== Policy =====

// Policy carries the tunable values every transition consults. It is
// re-read from its source on each operation so a committed settings update
// takes effect immediately.
type Policy struct {
	PickupWindowDays int
	LoanPeriodDays   int
	DailyFineAmount  float64
}

type PolicySource interface {
	Policy(ctx context.Context) (Policy, error)
}

// ===== Store =====

// LoanStore persists loans and the book copy counts they hold. Every method
// that both writes a loan row and moves a copy count is one atomic unit; the
// implementation locks the book row for the duration.
type LoanStore interface {
	GetLoan(ctx context.Context, id int64) (*Loan, error)
	GetUserRef(ctx context.Context, id int64) (*UserRef, error)
	GetBookRef(ctx context.Context, id int64) (*BookRef, error)
	HasRecentCancellation(ctx context.Context, userID, bookID int64, since time.Time) (bool, error)

	// InsertWithHold inserts the loan and takes one copy, failing with
	// UNAVAILABLE when none is left at commit time.
	InsertWithHold(ctx context.Context, loan *Loan) error
	// Transition persists the loan's current field values and applies
	// copyDelta (0 or +1) to the book's available count.
	Transition(ctx context.Context, loan *Loan, copyDelta int) error
	// SaveFine is the sweeper's write: status plus recomputed fine, no copy
	// movement.
	SaveFine(ctx context.Context, loanID int64, status Status, fine float64) error

	ListByUser(ctx context.Context, userID int64) ([]Loan, error)
	ListAll(ctx context.Context, p Page) ([]Loan, int64, error)
	ListReturnedByUser(ctx context.Context, userID int64) ([]Loan, error)
}

// ===== Service =====

type Service struct {
	store  LoanStore
	policy PolicySource
	clock  Clock
	id     IDGen
}

func NewService(db *sql.DB, policy PolicySource) *Service {
	return &Service{
		store:  NewStore(db),
		policy: policy,
		clock:  realClock{},
		id:     ulidGen{},
	}
}

// Reserve places a hold for the calling member: one copy is taken and the
// pickup clock starts.
func (s *Service) Reserve(ctx context.Context, userID, bookID int64) (LoanResponse, error) {
	book, err := s.store.GetBookRef(ctx, bookID)
	if err != nil {
		return LoanResponse{}, err
	}
	if book == nil {
		return LoanResponse{}, ErrNotFound("book not found")
	}
	if book.AvailableCopies <= 0 {
		return LoanResponse{}, ErrUnavailable("book is not available for reservation")
	}

	user, err := s.store.GetUserRef(ctx, userID)
	if err != nil {
		return LoanResponse{}, err
	}
	if user == nil {
		return LoanResponse{}, ErrNotFound("user not found")
	}
	if user.IsBanned {
		return LoanResponse{}, ErrForbidden("you are banned from reserving books")
	}

	now := s.clock.Now()
	recent, err := s.store.HasRecentCancellation(ctx, userID, bookID, now.Add(-24*time.Hour))
	if err != nil {
		return LoanResponse{}, err
	}
	if recent {
		return LoanResponse{}, ErrInvalidState("you must wait 24 hours before reserving this book again")
	}

	pol, err := s.policy.Policy(ctx)
	if err != nil {
		return LoanResponse{}, err
	}

	loan := &Loan{
		LoanULID:        s.id.NewULID(now),
		UserID:          userID,
		BookID:          bookID,
		Status:          StatusReserved,
		ReservationDate: now,
	}
	loan.PickupDeadline.Time = now.AddDate(0, 0, pol.PickupWindowDays)
	loan.PickupDeadline.Valid = true

	if err := s.store.InsertWithHold(ctx, loan); err != nil {
		return LoanResponse{}, err
	}
	return buildLoanResponse(loan), nil
}

// Assign hands a book directly to a member, skipping the reservation stage.
// Staff action.
func (s *Service) Assign(ctx context.Context, userID, bookID int64) (LoanResponse, error) {
	user, err := s.store.GetUserRef(ctx, userID)
	if err != nil {
		return LoanResponse{}, err
	}
	if user == nil {
		return LoanResponse{}, ErrNotFound("user not found")
	}
	if user.Role != roleMember {
		return LoanResponse{}, ErrInvalid("loans can only be assigned to members")
	}
	if user.IsBanned {
		return LoanResponse{}, ErrForbidden("user is banned from borrowing books")
	}

	book, err := s.store.GetBookRef(ctx, bookID)
	if err != nil {
		return LoanResponse{}, err
	}
	if book == nil {
		return LoanResponse{}, ErrNotFound("book not found")
	}
	if book.AvailableCopies <= 0 {
		return LoanResponse{}, ErrUnavailable("book is not available for loan")
	}

	pol, err := s.policy.Policy(ctx)
	if err != nil {
		return LoanResponse{}, err
	}

	now := s.clock.Now()
	loan := &Loan{
		LoanULID:        s.id.NewULID(now),
		UserID:          userID,
		BookID:          bookID,
		Status:          StatusActive,
		ReservationDate: now,
	}
	loan.StartDate.Time = now
	loan.StartDate.Valid = true
	loan.DueDate.Time = now.AddDate(0, 0, pol.LoanPeriodDays)
	loan.DueDate.Valid = true

	if err := s.store.InsertWithHold(ctx, loan); err != nil {
		return LoanResponse{}, err
	}
	return buildLoanResponse(loan), nil
}

// ConfirmPickup flips a reservation to an active loan. Past the deadline the
// reservation expires instead: the held copy is released in the same call and
// the caller still gets a failure.
func (s *Service) ConfirmPickup(ctx context.Context, loanID int64) (LoanResponse, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return LoanResponse{}, err
	}
	if loan == nil {
		return LoanResponse{}, ErrNotFound("loan not found")
	}
	if loan.Status != StatusReserved {
		return LoanResponse{}, ErrInvalidState(fmt.Sprintf("only reserved loans can be picked up (current status: %s)", loan.Status))
	}

	now := s.clock.Now()
	if loan.PickupDeadline.Valid && now.After(loan.PickupDeadline.Time) {
		loan.Status = StatusExpired
		if err := s.store.Transition(ctx, loan, +1); err != nil {
			return LoanResponse{}, err
		}
		return LoanResponse{}, ErrInvalidState("reservation has expired")
	}

	pol, err := s.policy.Policy(ctx)
	if err != nil {
		return LoanResponse{}, err
	}

	loan.Status = StatusActive
	loan.StartDate.Time = now
	loan.StartDate.Valid = true
	loan.DueDate.Time = now.AddDate(0, 0, pol.LoanPeriodDays)
	loan.DueDate.Valid = true

	if err := s.store.Transition(ctx, loan, 0); err != nil {
		return LoanResponse{}, err
	}
	return buildLoanResponse(loan), nil
}

// Return closes an active or overdue loan, releasing the copy and computing
// the fine when the due date has passed.
func (s *Service) Return(ctx context.Context, loanID int64) (LoanResponse, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return LoanResponse{}, err
	}
	if loan == nil {
		return LoanResponse{}, ErrNotFound("loan not found")
	}
	if loan.Status != StatusActive && loan.Status != StatusOverdue {
		return LoanResponse{}, ErrInvalidState(fmt.Sprintf("only active loans can be returned (current status: %s)", loan.Status))
	}

	now := s.clock.Now()
	if loan.DueDate.Valid && now.After(loan.DueDate.Time) {
		pol, err := s.policy.Policy(ctx)
		if err != nil {
			return LoanResponse{}, err
		}
		loan.FineAmount = FineFor(now, loan.DueDate.Time, pol.DailyFineAmount)
	}

	loan.Status = StatusReturned
	loan.ReturnedAt.Time = now
	loan.ReturnedAt.Valid = true

	if err := s.store.Transition(ctx, loan, +1); err != nil {
		return LoanResponse{}, err
	}
	return buildLoanResponse(loan), nil
}

// Cancel withdraws the caller's own reservation and releases the held copy.
func (s *Service) Cancel(ctx context.Context, callerID, loanID int64) (LoanResponse, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return LoanResponse{}, err
	}
	if loan == nil {
		return LoanResponse{}, ErrNotFound("loan not found")
	}
	if loan.UserID != callerID {
		return LoanResponse{}, ErrForbidden("you can only cancel your own reservations")
	}
	if loan.Status != StatusReserved {
		return LoanResponse{}, ErrInvalidState(fmt.Sprintf("only reserved loans can be cancelled (current status: %s)", loan.Status))
	}

	loan.Status = StatusCancelled
	loan.CanceledAt.Time = s.clock.Now()
	loan.CanceledAt.Valid = true

	if err := s.store.Transition(ctx, loan, +1); err != nil {
		return LoanResponse{}, err
	}
	return buildLoanResponse(loan), nil
}

func (s *Service) ListUserLoans(ctx context.Context, userID int64) ([]LoanResponse, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.sweep(ctx, items); err != nil {
		return nil, err
	}
	out := make([]LoanResponse, 0, len(items))
	for i := range items {
		out = append(out, buildLoanResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) ListAllLoans(ctx context.Context, p Page) ([]LoanResponse, int64, error) {
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	items, total, err := s.store.ListAll(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	if err := s.sweep(ctx, items); err != nil {
		return nil, 0, err
	}
	out := make([]LoanResponse, 0, len(items))
	for i := range items {
		out = append(out, buildLoanResponse(&items[i]))
	}
	return out, total, nil
}

// ListUserHistory returns a user's completed loans (staff view).
func (s *Service) ListUserHistory(ctx context.Context, userID int64) ([]LoanResponse, error) {
	items, err := s.store.ListReturnedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]LoanResponse, 0, len(items))
	for i := range items {
		out = append(out, buildLoanResponse(&items[i]))
	}
	return out, nil
}

// sweep reclassifies past-due ACTIVE loans as OVERDUE and recomputes their
// fines in place. Runs on every listing read; there is no background job.
func (s *Service) sweep(ctx context.Context, items []Loan) error {
	now := s.clock.Now()
	var pol *Policy
	for i := range items {
		l := &items[i]
		if l.Status != StatusActive && l.Status != StatusOverdue {
			continue
		}
		if !l.DueDate.Valid || !now.After(l.DueDate.Time) {
			continue
		}
		if pol == nil {
			p, err := s.policy.Policy(ctx)
			if err != nil {
				return err
			}
			pol = &p
		}
		l.Status = StatusOverdue
		l.FineAmount = FineFor(now, l.DueDate.Time, pol.DailyFineAmount)
		if err := s.store.SaveFine(ctx, l.ID, l.Status, l.FineAmount); err != nil {
			return err
		}
	}
	return nil
}

package settings

import (
	"context"
	"database/sql"
	"time"

	"github.com/Nikelv2/Library-Management-System/internal/library/loans"
)

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type SettingsStore interface {
	// Get returns the settings row, or nil when none exists yet.
	Get(ctx context.Context) (*Settings, error)
	Insert(ctx context.Context, s *Settings) error
	Update(ctx context.Context, s *Settings) error

	// ListOutstandingOverdue returns ACTIVE/OVERDUE loans whose due date has
	// passed; MarkOverdue writes one repriced fine back.
	ListOutstandingOverdue(ctx context.Context, now time.Time) ([]OutstandingLoan, error)
	MarkOverdue(ctx context.Context, loanID int64, fine float64) error
}

type Service struct {
	store SettingsStore
	clock Clock
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), clock: realClock{}}
}

// Get returns the current settings, creating the row with defaults on first
// read.
func (s *Service) Get(ctx context.Context) (SettingsResponse, error) {
	cur, err := s.current(ctx)
	if err != nil {
		return SettingsResponse{}, err
	}
	return buildSettingsResponse(cur), nil
}

// Update validates bounds, persists, and reprices every outstanding overdue
// loan at the new daily rate. The retroactive repricing is deliberate: a
// fine is always "days late x current rate", never a historical rate.
func (s *Service) Update(ctx context.Context, in UpdateSettingsRequest) (SettingsResponse, error) {
	if *in.PickupWindowDays < minPickupWindowDays || *in.PickupWindowDays > maxPickupWindowDays {
		return SettingsResponse{}, ErrInvalid("pickup_window_days must be between 1 and 14")
	}
	if *in.StandardLoanDays < minStandardLoanDays || *in.StandardLoanDays > maxStandardLoanDays {
		return SettingsResponse{}, ErrInvalid("standard_loan_days must be between 1 and 120")
	}
	if *in.DailyFineAmount < minDailyFineAmount || *in.DailyFineAmount > maxDailyFineAmount {
		return SettingsResponse{}, ErrInvalid("daily_fine_amount must be between 0.0 and 100.0")
	}

	cur, err := s.current(ctx)
	if err != nil {
		return SettingsResponse{}, err
	}

	cur.PickupWindowDays = *in.PickupWindowDays
	cur.StandardLoanDays = *in.StandardLoanDays
	cur.DailyFineAmount = *in.DailyFineAmount
	if err := s.store.Update(ctx, cur); err != nil {
		return SettingsResponse{}, err
	}

	if err := s.repriceOverdue(ctx, cur.DailyFineAmount); err != nil {
		return SettingsResponse{}, err
	}
	return buildSettingsResponse(cur), nil
}

// Policy adapts the settings record to what the loan engine consumes.
func (s *Service) Policy(ctx context.Context) (loans.Policy, error) {
	cur, err := s.current(ctx)
	if err != nil {
		return loans.Policy{}, err
	}
	return loans.Policy{
		PickupWindowDays: cur.PickupWindowDays,
		LoanPeriodDays:   cur.StandardLoanDays,
		DailyFineAmount:  cur.DailyFineAmount,
	}, nil
}

func (s *Service) current(ctx context.Context) (*Settings, error) {
	cur, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cur != nil {
		return cur, nil
	}

	cur = &Settings{
		PickupWindowDays: DefaultPickupWindowDays,
		StandardLoanDays: DefaultStandardLoanDays,
		DailyFineAmount:  DefaultDailyFineAmount,
	}
	if err := s.store.Insert(ctx, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *Service) repriceOverdue(ctx context.Context, rate float64) error {
	now := s.clock.Now()
	outstanding, err := s.store.ListOutstandingOverdue(ctx, now)
	if err != nil {
		return err
	}
	for _, l := range outstanding {
		fine := loans.FineFor(now, l.DueDate, rate)
		if err := s.store.MarkOverdue(ctx, l.ID, fine); err != nil {
			return err
		}
	}
	return nil
}

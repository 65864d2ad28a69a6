package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Store struct {
	db *sql.DB
}

func NewStore(sqldb *sql.DB) *Store { return &Store{db: sqldb} }

func (s *Store) Get(ctx context.Context) (*Settings, error) {
	const q = `SELECT id, pickup_window_days, standard_loan_days, daily_fine_amount FROM settings LIMIT 1`
	var out Settings
	err := s.db.QueryRowContext(ctx, q).Scan(
		&out.ID, &out.PickupWindowDays, &out.StandardLoanDays, &out.DailyFineAmount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) Insert(ctx context.Context, in *Settings) error {
	const q = `
	INSERT INTO settings (pickup_window_days, standard_loan_days, daily_fine_amount)
	VALUES (?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, in.PickupWindowDays, in.StandardLoanDays, in.DailyFineAmount)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	in.ID = id
	return nil
}

func (s *Store) Update(ctx context.Context, in *Settings) error {
	const q = `
	UPDATE settings
	SET pickup_window_days = ?, standard_loan_days = ?, daily_fine_amount = ?
	WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q, in.PickupWindowDays, in.StandardLoanDays, in.DailyFineAmount, in.ID)
	return err
}

func (s *Store) ListOutstandingOverdue(ctx context.Context, now time.Time) ([]OutstandingLoan, error) {
	const q = `
	SELECT id, due_date FROM loans
	WHERE status IN ('active', 'overdue')
	  AND due_date IS NOT NULL AND due_date < ?`
	rows, err := s.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutstandingLoan
	for rows.Next() {
		var l OutstandingLoan
		if err := rows.Scan(&l.ID, &l.DueDate); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) MarkOverdue(ctx context.Context, loanID int64, fine float64) error {
	const q = `UPDATE loans SET status = 'overdue', fine_amount = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q, fine, loanID)
	return err
}

var _ SettingsStore = (*Store)(nil)

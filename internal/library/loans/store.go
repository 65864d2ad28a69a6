package loans

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Nikelv2/Library-Management-System/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(sqldb *sql.DB) *Store { return &Store{db: sqldb} }

const loanCols = `id, loan_ulid, user_id, book_id, status, reservation_date,
	pickup_deadline, start_date, due_date, returned_at, canceled_at, fine_amount`

func scanLoan(sc interface{ Scan(...any) error }) (*Loan, error) {
	var l Loan
	err := sc.Scan(
		&l.ID, &l.LoanULID, &l.UserID, &l.BookID, &l.Status, &l.ReservationDate,
		&l.PickupDeadline, &l.StartDate, &l.DueDate, &l.ReturnedAt, &l.CanceledAt, &l.FineAmount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) GetLoan(ctx context.Context, id int64) (*Loan, error) {
	const q = `SELECT ` + loanCols + ` FROM loans WHERE id = ?`
	return scanLoan(s.db.QueryRowContext(ctx, q, id))
}

func (s *Store) GetUserRef(ctx context.Context, id int64) (*UserRef, error) {
	const q = `SELECT id, role, is_banned FROM users WHERE id = ?`
	var u UserRef
	err := s.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Role, &u.IsBanned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetBookRef(ctx context.Context, id int64) (*BookRef, error) {
	const q = `SELECT id, available_copies FROM books WHERE id = ?`
	var b BookRef
	err := s.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.AvailableCopies)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) HasRecentCancellation(ctx context.Context, userID, bookID int64, since time.Time) (bool, error) {
	const q = `
	SELECT COUNT(*) FROM loans
	WHERE user_id = ? AND book_id = ? AND status = ?
	  AND canceled_at IS NOT NULL AND canceled_at > ?`
	var n int64
	if err := s.db.QueryRowContext(ctx, q, userID, bookID, StatusCancelled, since).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// lockBookRow takes the row lock that serializes every copy-count mutation
// for one book.
func lockBookRow(ctx context.Context, tx db.DBTX, bookID int64) (available, total int, err error) {
	const q = `SELECT available_copies, total_copies FROM books WHERE id = ? FOR UPDATE`
	row := tx.QueryRowContext(ctx, q, bookID)
	if err = row.Scan(&available, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrNotFound("book not found")
		}
		return 0, 0, err
	}
	return available, total, nil
}

func updateBookCopies(ctx context.Context, tx db.DBTX, bookID int64, available int) error {
	const q = `UPDATE books SET available_copies = ?, is_available = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, available, available > 0, bookID)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// InsertWithHold inserts the loan row and takes one copy under the book row
// lock. The availability check inside the transaction is what makes two
// concurrent reservations for the last copy resolve to one winner.
func (s *Store) InsertWithHold(ctx context.Context, loan *Loan) error {
	return db.RunInTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx db.DBTX) error {
		available, _, err := lockBookRow(ctx, tx, loan.BookID)
		if err != nil {
			return err
		}
		if available <= 0 {
			return ErrUnavailable("book is not available")
		}
		if err := updateBookCopies(ctx, tx, loan.BookID, available-1); err != nil {
			return err
		}

		const q = `
		INSERT INTO loans
		(loan_ulid, user_id, book_id, status, reservation_date,
		 pickup_deadline, start_date, due_date, fine_amount)
		VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?)`

		res, err := tx.ExecContext(ctx, q,
			loan.LoanULID, loan.UserID, loan.BookID, loan.Status, loan.ReservationDate,
			loan.PickupDeadline, loan.StartDate, loan.DueDate, loan.FineAmount,
		)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		loan.ID = id
		return nil
	})
}

func (s *Store) Transition(ctx context.Context, loan *Loan, copyDelta int) error {
	return db.RunInTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx db.DBTX) error {
		if copyDelta != 0 {
			available, total, err := lockBookRow(ctx, tx, loan.BookID)
			if err != nil {
				return err
			}
			next := available + copyDelta
			if next < 0 {
				return ErrInternal("available_copies would go negative")
			}
			if next > total {
				next = total
			}
			if err := updateBookCopies(ctx, tx, loan.BookID, next); err != nil {
				return err
			}
		}

		const q = `
		UPDATE loans
		SET status = ?, pickup_deadline = ?, start_date = ?, due_date = ?,
		    returned_at = ?, canceled_at = ?, fine_amount = ?
		WHERE id = ?`
		res, err := tx.ExecContext(ctx, q,
			loan.Status, loan.PickupDeadline, loan.StartDate, loan.DueDate,
			loan.ReturnedAt, loan.CanceledAt, loan.FineAmount, loan.ID,
		)
		if err != nil {
			return err
		}
		_, _ = res.RowsAffected()
		return nil
	})
}

func (s *Store) SaveFine(ctx context.Context, loanID int64, status Status, fine float64) error {
	const q = `UPDATE loans SET status = ?, fine_amount = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q, status, fine, loanID)
	return err
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]Loan, error) {
	const q = `SELECT ` + loanCols + ` FROM loans WHERE user_id = ? ORDER BY reservation_date DESC`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoans(rows)
}

func (s *Store) ListAll(ctx context.Context, p Page) ([]Loan, int64, error) {
	const q = `SELECT ` + loanCols + ` FROM loans ORDER BY reservation_date DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectLoans(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) ListReturnedByUser(ctx context.Context, userID int64) ([]Loan, error) {
	const q = `SELECT ` + loanCols + ` FROM loans WHERE user_id = ? AND status = ? ORDER BY returned_at DESC`
	rows, err := s.db.QueryContext(ctx, q, userID, StatusReturned)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoans(rows)
}

func collectLoans(rows *sql.Rows) ([]Loan, error) {
	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(
			&l.ID, &l.LoanULID, &l.UserID, &l.BookID, &l.Status, &l.ReservationDate,
			&l.PickupDeadline, &l.StartDate, &l.DueDate, &l.ReturnedAt, &l.CanceledAt, &l.FineAmount,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ LoanStore = (*Store)(nil)

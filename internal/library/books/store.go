package books

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	mysql "github.com/go-sql-driver/mysql"

	"github.com/Nikelv2/Library-Management-System/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(sqldb *sql.DB) *Store { return &Store{db: sqldb} }

const bookCols = `id, title, author, isbn, description, total_copies, available_copies, is_available`

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(title, author, isbn, description, total_copies, available_copies, is_available)
	VALUES
	(?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, q,
		b.Title, b.Author, b.ISBN, b.Description, b.TotalCopies, b.AvailableCopies, b.IsAvailable,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrConflict("book with this isbn already exists")
		}
		return err
	}
	id, _ := res.LastInsertId()
	b.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE id = ?`
	var b Book
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description,
		&b.TotalCopies, &b.AvailableCopies, &b.IsAvailable,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) List(ctx context.Context, search string, p Page) ([]Book, int64, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + bookCols + ` FROM books WHERE 1=1`)

	args := []any{}
	if search != "" {
		term := "%" + strings.ToLower(search) + "%"
		sb.WriteString(` AND (LOWER(title) LIKE ? OR LOWER(author) LIKE ?)`)
		args = append(args, term, term)
	}
	sb.WriteString(` ORDER BY id LIMIT ? OFFSET ?`)
	args = append(args, p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description,
			&b.TotalCopies, &b.AvailableCopies, &b.IsAvailable,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	cb := strings.Builder{}
	cb.WriteString(`SELECT COUNT(*) FROM books WHERE 1=1`)
	argsCnt := []any{}
	if search != "" {
		term := "%" + strings.ToLower(search) + "%"
		cb.WriteString(` AND (LOWER(title) LIKE ? OR LOWER(author) LIKE ?)`)
		argsCnt = append(argsCnt, term, term)
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cb.String(), argsCnt...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (s *Store) Update(ctx context.Context, b *Book) (int64, error) {
	const q = `
	UPDATE books
	SET title = ?, author = ?, isbn = ?, description = ?,
	    total_copies = ?, available_copies = ?, is_available = ?
	WHERE id = ?`

	res, err := s.db.ExecContext(ctx, q,
		b.Title, b.Author, b.ISBN, b.Description,
		b.TotalCopies, b.AvailableCopies, b.IsAvailable, b.ID,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return 0, ErrConflict("book with this isbn already exists")
		}
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	// RowsAffected is 0 for no-op updates too; treat a still-existing row as
	// updated.
	if n == 0 {
		exists, err := s.GetByID(ctx, b.ID)
		if err != nil {
			return 0, err
		}
		if exists != nil {
			return 1, nil
		}
	}
	return n, nil
}

func (s *Store) DeleteCascade(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		// Loans go first; destroys the audit trail of returned loans, kept
		// for parity with the catalog semantics (see DESIGN.md).
		if _, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE book_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

var _ BookStore = (*Store)(nil)

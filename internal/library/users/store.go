package users

import (
	"context"
	"database/sql"

	"github.com/Nikelv2/Library-Management-System/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(sqldb *sql.DB) *Store { return &Store{db: sqldb} }

var _ UserStore = (*Store)(nil)

const userCols = `id, email, username, password_hash, full_name, role, is_active, is_banned, created_at`

func (s *Store) List(ctx context.Context) ([]User, error) {
	const q = `SELECT ` + userCols + ` FROM users ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = ?`

	var u User
	err := scanUser(s.db.QueryRowContext(ctx, q, id), &u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) SetBanned(ctx context.Context, id int64, banned bool) (int64, error) {
	const q = `UPDATE users SET is_banned = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, banned, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) SetRole(ctx context.Context, id int64, role string) (int64, error) {
	const q = `UPDATE users SET role = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, role, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) SetPassword(ctx context.Context, id int64, hash string) (int64, error) {
	const q = `UPDATE users SET password_hash = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, hash, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) DeleteCascade(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE user_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func scanUser(row interface{ Scan(dest ...any) error }, u *User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &u.IsBanned, &u.CreatedAt,
	)
}

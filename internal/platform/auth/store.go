package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	mysql "github.com/go-sql-driver/mysql"
)

type Account struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	IsBanned     bool
	CreatedAt    time.Time
}

type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	UpdatePassword(ctx context.Context, id int64, hash string) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

const accountCols = `id, email, username, password_hash, full_name, role, is_active, is_banned, created_at`

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Username,
		&a.PasswordHash,
		&a.FullName,
		&a.Role,
		&a.IsActive,
		&a.IsBanned,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Account, error) {
	const q = `SELECT ` + accountCols + ` FROM users WHERE id = ? LIMIT 1`
	return scanAccount(s.db.QueryRowContext(ctx, q, id))
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*Account, error) {
	const q = `SELECT ` + accountCols + ` FROM users WHERE username = ? LIMIT 1`
	return scanAccount(s.db.QueryRowContext(ctx, q, username))
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
INSERT INTO users (email, username, password_hash, full_name, role, is_active, is_banned, created_at)
VALUES (?, ?, ?, ?, ?, 1, 0, NOW(6))
`
	res, err := s.db.ExecContext(ctx, q, a.Email, a.Username, a.PasswordHash, a.FullName, a.Role)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrAlreadyExists
		}
		return err
	}
	id, _ := res.LastInsertId()
	a.ID = id
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) (int64, error) {
	const q = `UPDATE users SET password_hash = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, hash, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

package users

import (
	"context"
	"database/sql"

	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	SetBanned(ctx context.Context, id int64, banned bool) (int64, error)
	SetRole(ctx context.Context, id int64, role string) (int64, error)
	SetPassword(ctx context.Context, id int64, hash string) (int64, error)
	// DeleteCascade removes the user and all of their loans in one
	// transaction.
	DeleteCascade(ctx context.Context, id int64) (int64, error)
}

type Service struct {
	store UserStore
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) ListUsers(ctx context.Context) ([]UserResponse, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserResponse, 0, len(items))
	for i := range items {
		out = append(out, buildUserResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (UserResponse, error) {
	u, err := s.mustGet(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	return buildUserResponse(u), nil
}

// Ban blocks a user from reserving books. Admin accounts cannot be banned.
func (s *Service) BanUser(ctx context.Context, id int64) (UserResponse, error) {
	u, err := s.mustGet(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	if u.Role == RoleAdmin {
		return UserResponse{}, ErrInvalid("cannot ban admin user")
	}

	if _, err := s.store.SetBanned(ctx, id, true); err != nil {
		return UserResponse{}, err
	}
	u.IsBanned = true
	return buildUserResponse(u), nil
}

func (s *Service) UnbanUser(ctx context.Context, id int64) (UserResponse, error) {
	u, err := s.mustGet(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}

	if _, err := s.store.SetBanned(ctx, id, false); err != nil {
		return UserResponse{}, err
	}
	u.IsBanned = false
	return buildUserResponse(u), nil
}

// Promote raises a member to librarian. Admin accounts are immutable here.
func (s *Service) PromoteUser(ctx context.Context, id int64) (UserResponse, error) {
	u, err := s.mustGet(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	if u.Role == RoleAdmin {
		return UserResponse{}, ErrInvalid("cannot modify admin user")
	}
	if u.Role == RoleLibrarian {
		return UserResponse{}, ErrInvalid("user is already a librarian")
	}

	if _, err := s.store.SetRole(ctx, id, RoleLibrarian); err != nil {
		return UserResponse{}, err
	}
	u.Role = RoleLibrarian
	return buildUserResponse(u), nil
}

// Demote lowers a librarian back to member.
func (s *Service) DemoteUser(ctx context.Context, id int64) (UserResponse, error) {
	u, err := s.mustGet(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	if u.Role == RoleAdmin {
		return UserResponse{}, ErrInvalid("cannot modify admin user")
	}
	if u.Role != RoleLibrarian {
		return UserResponse{}, ErrInvalid("user is not a librarian")
	}

	if _, err := s.store.SetRole(ctx, id, RoleMember); err != nil {
		return UserResponse{}, err
	}
	u.Role = RoleMember
	return buildUserResponse(u), nil
}

// SetUserPassword overwrites a user's password (admin action; no old
// password required).
func (s *Service) SetUserPassword(ctx context.Context, id int64, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrInvalid("new password must be at least 6 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	n, err := s.store.SetPassword(ctx, id, string(hash))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound("user not found")
	}
	return nil
}

// DeleteUser removes an account and its loans. Admin accounts cannot be
// deleted.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	u, err := s.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == RoleAdmin {
		return ErrInvalid("cannot delete admin user")
	}

	n, err := s.store.DeleteCascade(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound("user not found")
	}
	return nil
}

func (s *Service) mustGet(ctx context.Context, id int64) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound("user not found")
	}
	return u, nil
}

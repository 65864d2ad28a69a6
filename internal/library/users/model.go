package users

import "time"

const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleMember    = "member"
)

// User is one row of the users table as seen by staff management. The
// password hash never leaves the package.
type User struct {
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

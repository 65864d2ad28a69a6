package users

import "time"

// ===== Requests =====

type SetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// ===== Responses =====

type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	IsBanned  bool      `json:"is_banned"`
	CreatedAt time.Time `json:"created_at"`
}

func buildUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		IsBanned:  u.IsBanned,
		CreatedAt: u.CreatedAt,
	}
}

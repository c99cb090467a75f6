package dto

import (
	"time"

	"github.com/agricoop/magasin-service/internal/domain"
)

// RegisterRequest payload for self-registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserRequest payload for admin-created accounts.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	MagasinID *int64 `json:"magasin_id"`
}

// TokenUser is the user block returned alongside a token.
type TokenUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	MagasinID *int64 `json:"magasin_id"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  TokenUser `json:"user"`
}

// UserResponse describes an account.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	MagasinID *int64    `json:"magasin_id"`
	Confirmed bool      `json:"confirmed"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse maps a domain user, never exposing the password hash.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		MagasinID: u.MagasinID,
		Confirmed: u.Confirmed,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// NewTokenUser maps the user block of a login response.
func NewTokenUser(u *domain.User) TokenUser {
	return TokenUser{ID: u.ID, Username: u.Username, Role: string(u.Role), MagasinID: u.MagasinID}
}

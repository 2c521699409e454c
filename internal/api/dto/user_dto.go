package dto

import (
	"time"

	"github.com/spec-kit/audioclean-service/internal/auth"
	"github.com/spec-kit/audioclean-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public projection of a user. The password hash is
// never part of it.
type UserResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Tier      string     `json:"tier"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// RegisterResponse is returned by POST /auth/register.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ClaimResponse mirrors the token claims {userId, email, iat, exp}.
type ClaimResponse struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Iat    int64  `json:"iat"`
	Exp    int64  `json:"exp"`
}

// ProtectedResponse is returned by GET /protected.
type ProtectedResponse struct {
	Message string        `json:"message"`
	User    ClaimResponse `json:"user"`
}

// NewUserResponse projects a domain user.
func NewUserResponse(u *domain.User, withCreatedAt bool) UserResponse {
	resp := UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Tier:     string(u.Tier),
	}
	if withCreatedAt && !u.CreatedAt.IsZero() {
		created := u.CreatedAt.UTC()
		resp.CreatedAt = &created
	}
	return resp
}

// NewClaimResponse projects a verified identity.
func NewClaimResponse(id auth.Identity) ClaimResponse {
	return ClaimResponse{
		UserID: id.UserID,
		Email:  id.Email,
		Iat:    id.IssuedAt.Unix(),
		Exp:    id.ExpiresAt.Unix(),
	}
}

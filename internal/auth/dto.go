// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type InitiateResetRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type CompleteResetRequest struct {
	UserID      string `json:"user_id"      validate:"required,uuid"`
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,max=128"`
}

// NewAccount is the input of the registration path shared by public sign-up
// and admin user creation.
type NewAccount struct {
	Username     string
	Email        string
	PasswordHash string
	Role         policy.Role
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserResponse struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Role       policy.Role `json:"role"`
	CustomerID *string     `json:"customer_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Claim  policy.Claim  `json:"claim"`
	Tokens TokenResponse `json:"tokens"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

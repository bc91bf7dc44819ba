package domain

import "time"

// ============================================================
// Auth — requests, responses and credential records
// ============================================================

// RegisterRequest creates a new user with an empty wallet.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	WalletHandle string `json:"wallet_handle"`
	Document     string `json:"document,omitempty"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	UserID       string `json:"user_id"`
	WalletHandle string `json:"wallet_handle"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the token pair.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
}

// RefreshRequest rotates a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthCredential is the stored password record for a user.
type AuthCredential struct {
	UserID         string     `json:"user_id"`
	PasswordHash   string     `json:"password_hash"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

// AuthRefreshToken is a stored (hashed) refresh token.
type AuthRefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Package auth handles user accounts and session lifecycle for TaskNest:
// registration, login, token refresh with server-side rotation, and logout.
// Access is granted through short-lived JWT access tokens; refresh tokens are
// longer-lived and must additionally match the copy stored on the user row,
// which is what makes revocation and replay detection possible.
package auth

import (
	"time"
)

// User represents a registered TaskNest user. This is the domain model used
// throughout the application. Database scanning and JSON marshaling use this
// struct directly.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	RefreshToken *string   `json:"-"` // Never expose. Nil when no active session.
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TokenPair is the result of a successful login or refresh: a short-lived
// access token and the refresh token that replaces the user's stored one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted to POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest holds the data submitted to POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest optionally carries the refresh token in the body for
// clients that do not use cookies.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is the validated input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasknest/tasknest/internal/apperror"
)

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, input LoginInput) (*TokenPair, *User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// authService implements AuthService with bcrypt hashing and dual JWTs.
type authService struct {
	repo   UserRepository
	hasher *PasswordHasher
	tokens *TokenManager
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, hasher *PasswordHasher, tokens *TokenManager) AuthService {
	return &authService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates a new user account. It validates uniqueness, hashes the
// password with bcrypt, generates a UUID, and persists the user with no
// active refresh token. Registration does not log the user in.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := normalizeEmail(input.Email)

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		RefreshToken: nil,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// The repository maps a lost registration race to a conflict; keep
		// that status instead of burying it in a 500.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates a user by email and password. On success it issues a
// fresh access+refresh pair and stores the refresh token on the user row,
// overwriting any previous one -- a second login revokes the first session's
// refresh capability.
func (s *authService) Login(ctx context.Context, input LoginInput) (*TokenPair, *User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewNotFound("user not found")
		}
		return nil, nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	pair, err := s.issuePair(user.ID, user.Email)
	if err != nil {
		return nil, nil, apperror.NewInternal(fmt.Errorf("issuing tokens: %w", err))
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, nil, apperror.NewInternal(fmt.Errorf("storing refresh token: %w", err))
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return pair, user, nil
}

// Refresh exchanges a valid refresh token for a brand-new access+refresh
// pair. The presented token must carry a valid signature AND match the copy
// stored on the user row. A signed-but-superseded token is a replay -- it was
// either already rotated or revoked by logout -- and is rejected.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperror.NewUnauthorized("refresh token expired, please log in again")
		}
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid refresh token")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		slog.Warn("refresh token replay detected",
			slog.String("user_id", user.ID),
		)
		return nil, apperror.NewUnauthorized("refresh token revoked")
	}

	pair, err := s.issuePair(user.ID, user.Email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing tokens: %w", err))
	}

	// Conditional rotation: only swap if the stored token is still the one
	// presented. Two concurrent refreshes with the same token race here and
	// exactly one wins; the other is treated like a replay.
	rotated, err := s.repo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("rotating refresh token: %w", err))
	}
	if !rotated {
		return nil, apperror.NewUnauthorized("refresh token revoked")
	}

	slog.Debug("tokens refreshed", slog.String("user_id", user.ID))

	return pair, nil
}

// Logout revokes the session tied to the presented refresh token by clearing
// the stored copy. Best effort: an absent or undecodable token is a
// successful no-op, so logout never fails from the client's point of view.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil
	}

	if err := s.repo.SetRefreshToken(ctx, claims.UserID, nil); err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return apperror.NewInternal(fmt.Errorf("clearing refresh token: %w", err))
	}

	slog.Info("user logged out", slog.String("user_id", claims.UserID))

	return nil
}

// issuePair signs a new access+refresh token pair for the user.
func (s *authService) issuePair(userID, email string) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	refresh, err := s.tokens.IssueRefreshToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// normalizeEmail lowercases and trims an email address so lookups and the
// unique index treat addresses case-insensitively.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
